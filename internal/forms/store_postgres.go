package forms

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	id "formflow/pkg/domain"
	"formflow/pkg/platform/sentinel"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PostgresStore persists forms with steps and variables as JSONB documents.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type formRow struct {
	ID                  uuid.UUID `db:"id"`
	Name                string    `db:"name"`
	Steps               []byte    `db:"steps"`
	Variables           []byte    `db:"variables"`
	Logic               []byte    `db:"logic"`
	RegistrationBackend []byte    `db:"registration_backend"`
}

func (s *PostgresStore) FindByID(ctx context.Context, formID id.FormID) (*Form, error) {
	query := `
		SELECT id, name, steps, variables, logic, registration_backend
		FROM forms
		WHERE id = $1
	`
	var row formRow
	if err := s.db.GetContext(ctx, &row, query, uuid.UUID(formID)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("form %s: %w", formID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find form: %w", err)
	}
	form := &Form{ID: id.FormID(row.ID), Name: row.Name}
	if err := json.Unmarshal(row.Steps, &form.Steps); err != nil {
		return nil, fmt.Errorf("decode form steps: %w", err)
	}
	if len(row.Variables) > 0 {
		if err := json.Unmarshal(row.Variables, &form.Variables); err != nil {
			return nil, fmt.Errorf("decode form variables: %w", err)
		}
	}
	if len(row.Logic) > 0 {
		if err := json.Unmarshal(row.Logic, &form.Logic); err != nil {
			return nil, fmt.Errorf("decode form logic: %w", err)
		}
	}
	if len(row.RegistrationBackend) > 0 {
		if err := json.Unmarshal(row.RegistrationBackend, &form.RegistrationBackend); err != nil {
			return nil, fmt.Errorf("decode registration backend: %w", err)
		}
	}
	return form, nil
}

func (s *PostgresStore) Save(ctx context.Context, form *Form) error {
	steps, err := json.Marshal(form.Steps)
	if err != nil {
		return fmt.Errorf("encode form steps: %w", err)
	}
	vars, err := json.Marshal(form.Variables)
	if err != nil {
		return fmt.Errorf("encode form variables: %w", err)
	}
	rules, err := json.Marshal(form.Logic)
	if err != nil {
		return fmt.Errorf("encode form logic: %w", err)
	}
	backend, err := json.Marshal(form.RegistrationBackend)
	if err != nil {
		return fmt.Errorf("encode registration backend: %w", err)
	}
	query := `
		INSERT INTO forms (id, name, steps, variables, logic, registration_backend)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			steps = EXCLUDED.steps,
			variables = EXCLUDED.variables,
			logic = EXCLUDED.logic,
			registration_backend = EXCLUDED.registration_backend
	`
	if _, err := s.db.ExecContext(ctx, query, uuid.UUID(form.ID), form.Name, steps, vars, rules, backend); err != nil {
		return fmt.Errorf("save form: %w", err)
	}
	return nil
}
