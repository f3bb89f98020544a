package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"formflow/internal/forms"
	"formflow/internal/platform/postgres"
	"formflow/internal/submissions/models"
	id "formflow/pkg/domain"
	"formflow/pkg/platform/sentinel"
	txcontext "formflow/pkg/platform/tx"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresStore persists submissions in the submissions table. Writes join the
// caller's transaction when one is carried in the context.
type PostgresStore struct {
	db *sqlx.DB
	tx *postgres.TxRunner
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, tx: postgres.NewTxRunner(db)}
}

// RunInTx runs fn in one transaction shared by every store that reads the context.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.tx.RunInTx(ctx, fn)
}

type queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

func (s *PostgresStore) conn(ctx context.Context) queryer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const submissionColumns = `
	id, form_id, language, created_on, completed_on, completed_steps,
	registration_backend, registration_status, registration_attempts, registration_result,
	pre_registration_completed, public_registration_reference, last_register_date,
	initial_data_reference, cosign_required, cosign_completed,
	payment_required, payment_paid, payment_registered,
	auth_plugin, auth_attribute, auth_value, authorizee_attribute, authorizee_value
`

type submissionRow struct {
	ID                          uuid.UUID    `db:"id"`
	FormID                      uuid.UUID    `db:"form_id"`
	Language                    string       `db:"language"`
	CreatedOn                   time.Time    `db:"created_on"`
	CompletedOn                 sql.NullTime `db:"completed_on"`
	CompletedSteps              []byte       `db:"completed_steps"`
	RegistrationBackend         []byte       `db:"registration_backend"`
	RegistrationStatus          string       `db:"registration_status"`
	RegistrationAttempts        int          `db:"registration_attempts"`
	RegistrationResult          []byte       `db:"registration_result"`
	PreRegistrationCompleted    bool         `db:"pre_registration_completed"`
	PublicRegistrationReference string       `db:"public_registration_reference"`
	LastRegisterDate            sql.NullTime `db:"last_register_date"`
	InitialDataReference        string       `db:"initial_data_reference"`
	CosignRequired              bool         `db:"cosign_required"`
	CosignCompleted             bool         `db:"cosign_completed"`
	PaymentRequired             bool         `db:"payment_required"`
	PaymentPaid                 bool         `db:"payment_paid"`
	PaymentRegistered           bool         `db:"payment_registered"`
	AuthPlugin                  string       `db:"auth_plugin"`
	AuthAttribute               string       `db:"auth_attribute"`
	AuthValue                   string       `db:"auth_value"`
	AuthorizeeAttribute         string       `db:"authorizee_attribute"`
	AuthorizeeValue             string       `db:"authorizee_value"`
}

func toRow(sub *models.Submission) (submissionRow, error) {
	row := submissionRow{
		ID:                          uuid.UUID(sub.ID),
		FormID:                      uuid.UUID(sub.FormID),
		Language:                    sub.Language,
		CreatedOn:                   sub.CreatedOn,
		RegistrationStatus:          string(sub.RegistrationStatus),
		RegistrationAttempts:        sub.RegistrationAttempts,
		PreRegistrationCompleted:    sub.PreRegistrationCompleted,
		PublicRegistrationReference: sub.PublicRegistrationReference,
		InitialDataReference:        sub.InitialDataReference,
		CosignRequired:              sub.Cosign.Required,
		CosignCompleted:             sub.Cosign.Completed,
		PaymentRequired:             sub.Payment.Required,
		PaymentPaid:                 sub.Payment.Paid,
		PaymentRegistered:           sub.Payment.Registered,
		AuthPlugin:                  sub.Auth.Plugin,
		AuthAttribute:               sub.Auth.Attribute,
		AuthValue:                   sub.Auth.Value,
		AuthorizeeAttribute:         sub.Auth.AuthorizeeAttribute,
		AuthorizeeValue:             sub.Auth.AuthorizeeValue,
	}
	if sub.CompletedOn != nil {
		row.CompletedOn = sql.NullTime{Time: *sub.CompletedOn, Valid: true}
	}
	if sub.LastRegisterDate != nil {
		row.LastRegisterDate = sql.NullTime{Time: *sub.LastRegisterDate, Valid: true}
	}
	var err error
	steps := sub.CompletedSteps
	if steps == nil {
		steps = []string{}
	}
	if row.CompletedSteps, err = json.Marshal(steps); err != nil {
		return row, fmt.Errorf("encode completed steps: %w", err)
	}
	if row.RegistrationBackend, err = json.Marshal(sub.RegistrationBackend); err != nil {
		return row, fmt.Errorf("encode registration backend: %w", err)
	}
	if sub.RegistrationResult != nil {
		if row.RegistrationResult, err = json.Marshal(sub.RegistrationResult); err != nil {
			return row, fmt.Errorf("encode registration result: %w", err)
		}
	}
	return row, nil
}

func (r submissionRow) toModel() (*models.Submission, error) {
	sub := &models.Submission{
		ID:                          id.SubmissionID(r.ID),
		FormID:                      id.FormID(r.FormID),
		Language:                    r.Language,
		CreatedOn:                   r.CreatedOn,
		RegistrationStatus:          models.RegistrationStatus(r.RegistrationStatus),
		RegistrationAttempts:        r.RegistrationAttempts,
		PreRegistrationCompleted:    r.PreRegistrationCompleted,
		PublicRegistrationReference: r.PublicRegistrationReference,
		InitialDataReference:        r.InitialDataReference,
		Cosign:                      models.Cosign{Required: r.CosignRequired, Completed: r.CosignCompleted},
		Payment:                     models.Payment{Required: r.PaymentRequired, Paid: r.PaymentPaid, Registered: r.PaymentRegistered},
		Auth: models.AuthInfo{
			Plugin:              r.AuthPlugin,
			Attribute:           r.AuthAttribute,
			Value:               r.AuthValue,
			AuthorizeeAttribute: r.AuthorizeeAttribute,
			AuthorizeeValue:     r.AuthorizeeValue,
		},
	}
	if r.CompletedOn.Valid {
		t := r.CompletedOn.Time
		sub.CompletedOn = &t
	}
	if r.LastRegisterDate.Valid {
		t := r.LastRegisterDate.Time
		sub.LastRegisterDate = &t
	}
	if len(r.CompletedSteps) > 0 {
		if err := json.Unmarshal(r.CompletedSteps, &sub.CompletedSteps); err != nil {
			return nil, fmt.Errorf("decode completed steps: %w", err)
		}
	}
	if len(r.RegistrationBackend) > 0 {
		var backend forms.Backend
		if err := json.Unmarshal(r.RegistrationBackend, &backend); err != nil {
			return nil, fmt.Errorf("decode registration backend: %w", err)
		}
		sub.RegistrationBackend = backend
	}
	if len(r.RegistrationResult) > 0 {
		if err := json.Unmarshal(r.RegistrationResult, &sub.RegistrationResult); err != nil {
			return nil, fmt.Errorf("decode registration result: %w", err)
		}
	}
	return sub, nil
}

func (s *PostgresStore) Create(ctx context.Context, sub *models.Submission) error {
	row, err := toRow(sub)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO submissions (` + submissionColumns + `)
		VALUES (
			:id, :form_id, :language, :created_on, :completed_on, :completed_steps,
			:registration_backend, :registration_status, :registration_attempts, :registration_result,
			:pre_registration_completed, :public_registration_reference, :last_register_date,
			:initial_data_reference, :cosign_required, :cosign_completed,
			:payment_required, :payment_paid, :payment_registered,
			:auth_plugin, :auth_attribute, :auth_value, :authorizee_attribute, :authorizee_value
		)
	`
	if _, err := sqlx.NamedExecContext(ctx, s.conn(ctx), query, row); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("submission %s: %w", sub.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, submissionID id.SubmissionID) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	var row submissionRow
	if err := s.conn(ctx).GetContext(ctx, &row, query, uuid.UUID(submissionID)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("submission %s: %w", submissionID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return row.toModel()
}

// Update writes every mutable column of the aggregate.
func (s *PostgresStore) Update(ctx context.Context, sub *models.Submission) error {
	row, err := toRow(sub)
	if err != nil {
		return err
	}
	query := `
		UPDATE submissions SET
			language = :language,
			completed_on = :completed_on,
			completed_steps = :completed_steps,
			registration_backend = :registration_backend,
			registration_status = :registration_status,
			registration_attempts = :registration_attempts,
			registration_result = :registration_result,
			pre_registration_completed = :pre_registration_completed,
			public_registration_reference = :public_registration_reference,
			last_register_date = :last_register_date,
			initial_data_reference = :initial_data_reference,
			cosign_required = :cosign_required,
			cosign_completed = :cosign_completed,
			payment_required = :payment_required,
			payment_paid = :payment_paid,
			payment_registered = :payment_registered,
			auth_plugin = :auth_plugin,
			auth_attribute = :auth_attribute,
			auth_value = :auth_value,
			authorizee_attribute = :authorizee_attribute,
			authorizee_value = :authorizee_value
		WHERE id = :id
	`
	res, err := sqlx.NamedExecContext(ctx, s.conn(ctx), query, row)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("public reference %s: %w", sub.PublicRegistrationReference, sentinel.ErrConflict)
		}
		return fmt.Errorf("update submission: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("submission %s: %w", sub.ID, sentinel.ErrNotFound)
	}
	return nil
}

// ListRetryable returns the submissions matching sel, oldest first.
func (s *PostgresStore) ListRetryable(ctx context.Context, sel models.RetrySelection) ([]*models.Submission, error) {
	query := `
		SELECT ` + submissionColumns + `
		FROM submissions
		WHERE completed_on IS NOT NULL
			AND registration_attempts < $1
			AND (
				registration_status = 'failed'
				OR (registration_status = 'pending'
					AND completed_on < $2
					AND NOT (cosign_required AND NOT cosign_completed)
					AND NOT ($3 AND payment_required AND NOT payment_paid))
				OR (registration_status = 'in_progress'
					AND (last_register_date IS NULL OR last_register_date < $2))
			)
		ORDER BY completed_on
	`
	var rows []submissionRow
	if err := s.conn(ctx).SelectContext(ctx, &rows, query, sel.AttemptLimit, sel.StaleBefore, sel.WaitForPayment); err != nil {
		return nil, fmt.Errorf("list retryable submissions: %w", err)
	}
	out := make([]*models.Submission, 0, len(rows))
	for _, r := range rows {
		sub, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

func (s *PostgresStore) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM submissions WHERE public_registration_reference = $1)`
	if err := s.conn(ctx).GetContext(ctx, &exists, query, reference); err != nil {
		return false, fmt.Errorf("check public reference: %w", err)
	}
	return exists, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
