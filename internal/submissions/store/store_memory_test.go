package store

import (
	"context"
	"testing"
	"time"

	"formflow/internal/forms"
	"formflow/internal/submissions/models"
	id "formflow/pkg/domain"
	"formflow/pkg/platform/sentinel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubmission() *models.Submission {
	return models.New(&forms.Form{ID: id.NewFormID()}, time.Now())
}

func TestInMemoryStore_RoundTripCopies(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	sub := newSubmission()
	require.NoError(t, s.Create(ctx, sub))
	assert.ErrorIs(t, s.Create(ctx, sub), sentinel.ErrConflict)

	got, err := s.FindByID(ctx, sub.ID)
	require.NoError(t, err)
	got.MergeResult(map[string]any{"a": 1})

	again, err := s.FindByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Nil(t, again.RegistrationResult, "mutating a read copy does not leak into the store")

	require.NoError(t, s.Update(ctx, got))
	again, err = s.FindByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.RegistrationResult["a"])
}

func TestInMemoryStore_NotFound(t *testing.T) {
	s := NewInMemoryStore()
	_, err := s.FindByID(context.Background(), id.NewSubmissionID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.ErrorIs(t, s.Update(context.Background(), newSubmission()), sentinel.ErrNotFound)
}

func TestInMemoryStore_PublicReferenceUnique(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	a, b := newSubmission(), newSubmission()
	require.NoError(t, s.Create(ctx, a))
	require.NoError(t, s.Create(ctx, b))

	a.PublicRegistrationReference = "OF-AAAAAA"
	require.NoError(t, s.Update(ctx, a))
	exists, err := s.ReferenceExists(ctx, "OF-AAAAAA")
	require.NoError(t, err)
	assert.True(t, exists)

	b.PublicRegistrationReference = "OF-AAAAAA"
	assert.ErrorIs(t, s.Update(ctx, b), sentinel.ErrConflict)
}

func TestInMemoryStore_ListRetryable(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mk := func(status models.RegistrationStatus, attempts int, completedAt time.Time) *models.Submission {
		sub := newSubmission()
		sub.ApplyCompleted(completedAt)
		sub.RegistrationStatus = status
		sub.RegistrationAttempts = attempts
		require.NoError(t, s.Create(ctx, sub))
		return sub
	}
	later := mk(models.RegistrationFailed, 1, base.Add(time.Hour))
	earlier := mk(models.RegistrationFailed, 0, base)
	mk(models.RegistrationFailed, 3, base)
	mk(models.RegistrationSuccess, 1, base)
	require.NoError(t, s.Create(ctx, newSubmission()))

	got, err := s.ListRetryable(ctx, models.RetrySelection{AttemptLimit: 3, StaleBefore: base})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, earlier.ID, got[0].ID)
	assert.Equal(t, later.ID, got[1].ID)
}

func TestInMemoryStore_ListRetryable_StrandedSubmissions(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	cutoff := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	old := cutoff.Add(-time.Hour)

	create := func(mutate func(sub *models.Submission)) *models.Submission {
		sub := newSubmission()
		sub.ApplyCompleted(old)
		mutate(sub)
		require.NoError(t, s.Create(ctx, sub))
		return sub
	}
	neverQueued := create(func(sub *models.Submission) {})
	abandoned := create(func(sub *models.Submission) {
		sub.ApplyRegistrationStart(old)
	})
	create(func(sub *models.Submission) {
		recent := cutoff.Add(time.Minute)
		sub.CompletedOn = &recent
	})
	create(func(sub *models.Submission) {
		sub.ApplyRegistrationStart(cutoff.Add(time.Minute))
	})
	create(func(sub *models.Submission) {
		sub.Cosign = models.Cosign{Required: true}
	})
	create(func(sub *models.Submission) {
		sub.Payment = models.Payment{Required: true}
	})

	got, err := s.ListRetryable(ctx, models.RetrySelection{AttemptLimit: 3, StaleBefore: cutoff, WaitForPayment: true})
	require.NoError(t, err)
	var ids []id.SubmissionID
	for _, sub := range got {
		ids = append(ids, sub.ID)
	}
	assert.ElementsMatch(t, []id.SubmissionID{neverQueued.ID, abandoned.ID}, ids)
}
