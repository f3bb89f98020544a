package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	id "formflow/pkg/domain"
	audit "formflow/pkg/platform/audit"
	txcontext "formflow/pkg/platform/tx"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Store implements audit.Store on the submission_log_events table. Appends join the
// caller's transaction when one is carried in the context.
type Store struct {
	db *sqlx.DB
}

// New creates a new PostgreSQL audit store.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

type eventRow struct {
	Category     string          `db:"category"`
	Timestamp    sql.NullTime    `db:"timestamp"`
	SubmissionID uuid.UUID       `db:"submission_id"`
	Action       string          `db:"action"`
	Plugin       string          `db:"plugin"`
	Reason       string          `db:"reason"`
	Trigger      string          `db:"trigger"`
	RequestID    string          `db:"request_id"`
	Extra        json.RawMessage `db:"extra"`
}

// Append writes an event row.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	extra := []byte("{}")
	if len(event.Extra) > 0 {
		b, err := json.Marshal(event.Extra)
		if err != nil {
			return fmt.Errorf("marshal audit extra: %w", err)
		}
		extra = b
	}

	query := `
		INSERT INTO submission_log_events (
			id, category, timestamp, submission_id, action,
			plugin, reason, trigger, request_id, extra
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.New(),
		string(audit.AuditEvent(event.Action).Category()),
		event.Timestamp,
		uuid.UUID(event.SubmissionID),
		event.Action,
		event.Plugin,
		event.Reason,
		event.Trigger,
		event.RequestID,
		extra,
	)
	if err != nil {
		return fmt.Errorf("insert submission log event: %w", err)
	}
	return nil
}

// ListBySubmission returns the events of one submission, oldest first.
func (s *Store) ListBySubmission(ctx context.Context, submissionID id.SubmissionID) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, submission_id, action, plugin,
			   reason, trigger, request_id, extra
		FROM submission_log_events
		WHERE submission_id = $1
		ORDER BY timestamp ASC
	`
	var rows []eventRow
	if err := s.db.SelectContext(ctx, &rows, query, uuid.UUID(submissionID)); err != nil {
		return nil, fmt.Errorf("query submission log events: %w", err)
	}

	events := make([]audit.Event, 0, len(rows))
	for _, r := range rows {
		event := audit.Event{
			Category:     audit.EventCategory(r.Category),
			SubmissionID: id.SubmissionID(r.SubmissionID),
			Action:       r.Action,
			Plugin:       r.Plugin,
			Reason:       r.Reason,
			Trigger:      r.Trigger,
			RequestID:    r.RequestID,
		}
		if r.Timestamp.Valid {
			event.Timestamp = r.Timestamp.Time
		}
		if len(r.Extra) > 0 && string(r.Extra) != "{}" {
			if err := json.Unmarshal(r.Extra, &event.Extra); err != nil {
				return nil, fmt.Errorf("decode submission log event extra: %w", err)
			}
		}
		events = append(events, event)
	}
	return events, nil
}
