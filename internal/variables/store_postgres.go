package variables

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"

	id "formflow/pkg/domain"
	txcontext "formflow/pkg/platform/tx"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PostgresStore persists submission values in submission_value_variables.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type valueRow struct {
	SubmissionID         uuid.UUID `db:"submission_id"`
	Key                  string    `db:"key"`
	Value                []byte    `db:"value"`
	Source               string    `db:"source"`
	IsInitiallyPrefilled bool      `db:"is_initially_prefilled"`
	CreatedAt            time.Time `db:"created_at"`
	ModifiedAt           time.Time `db:"modified_at"`
}

func (s *PostgresStore) LoadValues(ctx context.Context, submissionID id.SubmissionID) ([]SubmissionValue, error) {
	query := `
		SELECT submission_id, key, value, source, is_initially_prefilled, created_at, modified_at
		FROM submission_value_variables
		WHERE submission_id = $1
	`
	var rows []valueRow
	if err := s.db.SelectContext(ctx, &rows, query, uuid.UUID(submissionID)); err != nil {
		return nil, fmt.Errorf("query submission values: %w", err)
	}
	out := make([]SubmissionValue, 0, len(rows))
	for _, r := range rows {
		v := SubmissionValue{
			SubmissionID:         id.SubmissionID(r.SubmissionID),
			Key:                  r.Key,
			Source:               ValueSource(r.Source),
			IsInitiallyPrefilled: r.IsInitiallyPrefilled,
			CreatedAt:            r.CreatedAt,
			ModifiedAt:           r.ModifiedAt,
		}
		if len(r.Value) > 0 {
			if err := json.Unmarshal(r.Value, &v.Value); err != nil {
				return nil, fmt.Errorf("decode value of %s: %w", v.Key, err)
			}
		}
		v.Saved = true
		out = append(out, v)
	}
	return out, nil
}

func (s *PostgresStore) SavePrefill(ctx context.Context, submissionID id.SubmissionID, values map[string]any) error {
	return s.SaveValues(ctx, submissionID, values, ValueSourcePrefill)
}

// SaveValues upserts all values in one transaction, joining the caller's when present.
func (s *PostgresStore) SaveValues(ctx context.Context, submissionID id.SubmissionID, values map[string]any, source ValueSource) error {
	if len(values) == 0 {
		return nil
	}
	if tx, ok := txcontext.From(ctx); ok {
		return upsertValues(ctx, tx, submissionID, values, source)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := upsertValues(ctx, tx, submissionID, values, source); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit submission values: %w", err)
	}
	return nil
}

func upsertValues(ctx context.Context, tx *sqlx.Tx, submissionID id.SubmissionID, values map[string]any, source ValueSource) error {
	query := `
		INSERT INTO submission_value_variables (
			submission_id, key, value, source, is_initially_prefilled, created_at, modified_at
		)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (submission_id, key) DO UPDATE SET
			value = EXCLUDED.value,
			source = EXCLUDED.source,
			is_initially_prefilled = submission_value_variables.is_initially_prefilled OR EXCLUDED.is_initially_prefilled,
			modified_at = now()
	`
	// Sorted keys keep the statement order deterministic.
	for _, key := range slices.Sorted(maps.Keys(values)) {
		raw, err := json.Marshal(values[key])
		if err != nil {
			return fmt.Errorf("encode value of %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx, query,
			uuid.UUID(submissionID), key, raw, string(source), source == ValueSourcePrefill,
		); err != nil {
			return fmt.Errorf("upsert value of %s: %w", key, err)
		}
	}
	return nil
}
