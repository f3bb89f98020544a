package postgres

import (
	"context"
	"testing"
	"time"

	id "formflow/pkg/domain"
	audit "formflow/pkg/platform/audit"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(sqlx.NewDb(db, "postgres")), mock
}

func TestStore_Append(t *testing.T) {
	store, mock := newMockStore(t)
	submissionID := id.NewSubmissionID()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO submission_log_events").
		WithArgs(sqlmock.AnyArg(), "registration", now, uuid.UUID(submissionID),
			"registration_failure", "demo", "boom", "queue", "req-1", []byte(`{"attempts":2}`)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.Append(context.Background(), audit.Event{
		Timestamp:    now,
		SubmissionID: submissionID,
		Action:       string(audit.EventRegistrationFailure),
		Plugin:       "demo",
		Reason:       "boom",
		Trigger:      "queue",
		RequestID:    "req-1",
		Extra:        map[string]any{"attempts": 2},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListBySubmission(t *testing.T) {
	store, mock := newMockStore(t)
	submissionID := id.NewSubmissionID()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"category", "timestamp", "submission_id", "action", "plugin", "reason", "trigger", "request_id", "extra"}).
		AddRow("registration", now, submissionID.String(), "registration_start", "demo", "", "http", "", []byte("{}")).
		AddRow("registration", now, submissionID.String(), "registration_success", "demo", "", "http", "", []byte(`{"attempts":1}`))
	mock.ExpectQuery("SELECT category, timestamp, submission_id").
		WithArgs(uuid.UUID(submissionID)).
		WillReturnRows(rows)

	events, err := store.ListBySubmission(context.Background(), submissionID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "registration_start", events[0].Action)
	assert.Nil(t, events[0].Extra)
	assert.Equal(t, float64(1), events[1].Extra["attempts"])
	assert.Equal(t, submissionID, events[1].SubmissionID)
	require.NoError(t, mock.ExpectationsWereMet())
}
