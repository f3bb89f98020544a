package appointments

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	id "formflow/pkg/domain"
	"formflow/pkg/platform/sentinel"
	txcontext "formflow/pkg/platform/tx"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PostgresStore keeps appointments in the appointments and appointment_products tables.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type appointmentRow struct {
	SubmissionID uuid.UUID `db:"submission_id"`
	Plugin       string    `db:"plugin"`
	Location     string    `db:"location"`
	StartTime    time.Time `db:"start_time"`
	Contact      []byte    `db:"contact"`
}

type productRow struct {
	ProductID string `db:"product_id"`
	Amount    int    `db:"amount"`
}

// Save replaces the appointment and its products in one transaction.
func (s *PostgresStore) Save(ctx context.Context, appt Appointment) error {
	contact, err := json.Marshal(appt.Contact)
	if err != nil {
		return fmt.Errorf("encode contact details: %w", err)
	}
	if tx, ok := txcontext.From(ctx); ok {
		return saveAppointment(ctx, tx, appt, contact)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := saveAppointment(ctx, tx, appt, contact); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit appointment: %w", err)
	}
	return nil
}

func saveAppointment(ctx context.Context, tx *sqlx.Tx, appt Appointment, contact []byte) error {
	submissionID := uuid.UUID(appt.SubmissionID)
	if _, err := tx.ExecContext(ctx, `DELETE FROM appointment_products WHERE submission_id = $1`, submissionID); err != nil {
		return fmt.Errorf("delete appointment products: %w", err)
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO appointments (submission_id, plugin, location, start_time, contact)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (submission_id) DO UPDATE SET
			plugin = EXCLUDED.plugin,
			location = EXCLUDED.location,
			start_time = EXCLUDED.start_time,
			contact = EXCLUDED.contact
	`, submissionID, appt.Plugin, appt.Location, appt.StartTime, contact)
	if err != nil {
		return fmt.Errorf("upsert appointment: %w", err)
	}
	for _, p := range appt.Products {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO appointment_products (submission_id, product_id, amount) VALUES ($1, $2, $3)`,
			submissionID, p.ID, p.Amount); err != nil {
			return fmt.Errorf("insert appointment product: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) FindBySubmission(ctx context.Context, submissionID id.SubmissionID) (*Appointment, error) {
	var q sqlx.QueryerContext = s.db
	if tx, ok := txcontext.From(ctx); ok {
		q = tx
	}
	var row appointmentRow
	err := sqlx.GetContext(ctx, q, &row, `
		SELECT submission_id, plugin, location, start_time, contact
		FROM appointments WHERE submission_id = $1
	`, uuid.UUID(submissionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("appointment for %s: %w", submissionID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find appointment: %w", err)
	}
	var products []productRow
	err = sqlx.SelectContext(ctx, q, &products, `
		SELECT product_id, amount FROM appointment_products
		WHERE submission_id = $1 ORDER BY product_id
	`, uuid.UUID(submissionID))
	if err != nil {
		return nil, fmt.Errorf("list appointment products: %w", err)
	}

	appt := &Appointment{
		SubmissionID: id.SubmissionID(row.SubmissionID),
		Plugin:       row.Plugin,
		Location:     row.Location,
		StartTime:    row.StartTime,
	}
	if len(row.Contact) > 0 {
		if err := json.Unmarshal(row.Contact, &appt.Contact); err != nil {
			return nil, fmt.Errorf("decode contact details: %w", err)
		}
	}
	for _, p := range products {
		appt.Products = append(appt.Products, Product{ID: p.ProductID, Amount: p.Amount})
	}
	return appt, nil
}
