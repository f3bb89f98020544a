package forms

import (
	"context"
	"encoding/json"
	"testing"

	id "formflow/pkg/domain"
	"formflow/pkg/platform/sentinel"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(sqlx.NewDb(db, "postgres"))

	form := twoStepForm()
	steps, err := json.Marshal(form.Steps)
	require.NoError(t, err)
	vars, err := json.Marshal(form.Variables)
	require.NoError(t, err)

	rules := []byte(`[{"trigger": {"==": [{"var": "married"}, true]}, "actions": [
		{"type": "property", "component": "partnerName", "property": "hidden", "state": false}
	]}]`)

	mock.ExpectQuery("SELECT id, name, steps, variables, logic, registration_backend").
		WithArgs(uuid.UUID(form.ID)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "steps", "variables", "logic", "registration_backend"}).
			AddRow(form.ID.String(), form.Name, steps, vars, rules, []byte(`{"plugin":"demo","options":{"a":1}}`)))

	got, err := store.FindByID(context.Background(), form.ID)
	require.NoError(t, err)
	assert.Equal(t, form.ID, got.ID)
	assert.Len(t, got.Steps, 2)
	assert.Equal(t, "married", got.Variables[0].Key)
	assert.Equal(t, "demo", got.RegistrationBackend.Plugin)
	assert.JSONEq(t, `{"a":1}`, string(got.RegistrationBackend.Options))
	assert.True(t, got.Wrapper().Has("partnerName"))
	require.Len(t, got.Logic, 1)
	assert.Equal(t, "partnerName", got.Logic[0].Actions[0].Component)
	assert.Equal(t, false, got.Logic[0].Actions[0].State)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(sqlx.NewDb(db, "postgres"))

	mock.ExpectQuery("SELECT id, name").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "steps", "variables", "logic", "registration_backend"}))

	_, err = store.FindByID(context.Background(), id.NewFormID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
