// Package store persists submissions.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"formflow/internal/submissions/models"
	id "formflow/pkg/domain"
	"formflow/pkg/platform/sentinel"
)

// InMemoryStore keeps submissions in process memory. Reads and writes copy the
// aggregate so callers never share maps with the store.
type InMemoryStore struct {
	mu          sync.RWMutex
	submissions map[id.SubmissionID]*models.Submission
	// txMu serialises RunInTx callers, standing in for a database transaction.
	txMu sync.Mutex
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{submissions: make(map[id.SubmissionID]*models.Submission)}
}

func (s *InMemoryStore) Create(_ context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.submissions[sub.ID]; exists {
		return fmt.Errorf("submission %s: %w", sub.ID, sentinel.ErrConflict)
	}
	s.submissions[sub.ID] = sub.Clone()
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, submissionID id.SubmissionID) (*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[submissionID]
	if !ok {
		return nil, fmt.Errorf("submission %s: %w", submissionID, sentinel.ErrNotFound)
	}
	return sub.Clone(), nil
}

func (s *InMemoryStore) Update(_ context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.submissions[sub.ID]; !ok {
		return fmt.Errorf("submission %s: %w", sub.ID, sentinel.ErrNotFound)
	}
	if sub.PublicRegistrationReference != "" {
		for otherID, other := range s.submissions {
			if otherID != sub.ID && other.PublicRegistrationReference == sub.PublicRegistrationReference {
				return fmt.Errorf("public reference %s: %w", sub.PublicRegistrationReference, sentinel.ErrConflict)
			}
		}
	}
	s.submissions[sub.ID] = sub.Clone()
	return nil
}

// ListRetryable returns the submissions matching sel, oldest first.
func (s *InMemoryStore) ListRetryable(_ context.Context, sel models.RetrySelection) ([]*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Submission
	for _, sub := range s.submissions {
		if sel.Matches(sub) {
			out = append(out, sub.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedOn.Before(*out[j].CompletedOn) })
	return out, nil
}

// ReferenceExists reports whether a public reference is already taken.
func (s *InMemoryStore) ReferenceExists(_ context.Context, reference string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.submissions {
		if sub.PublicRegistrationReference == reference {
			return true, nil
		}
	}
	return false, nil
}

// RunInTx serialises fn against other transactions. Writes are not rolled back.
func (s *InMemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx)
}
