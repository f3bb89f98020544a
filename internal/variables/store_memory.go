package variables

import (
	"context"
	"sync"
	"time"

	id "formflow/pkg/domain"
)

// InMemoryStore keeps submission values in process memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	values map[id.SubmissionID]map[string]SubmissionValue
	now    func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		values: make(map[id.SubmissionID]map[string]SubmissionValue),
		now:    time.Now,
	}
}

func (s *InMemoryStore) LoadValues(_ context.Context, submissionID id.SubmissionID) ([]SubmissionValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SubmissionValue, 0, len(s.values[submissionID]))
	for _, v := range s.values[submissionID] {
		v.Saved = true
		out = append(out, v)
	}
	return out, nil
}

func (s *InMemoryStore) SavePrefill(ctx context.Context, submissionID id.SubmissionID, values map[string]any) error {
	return s.SaveValues(ctx, submissionID, values, ValueSourcePrefill)
}

func (s *InMemoryStore) SaveValues(_ context.Context, submissionID id.SubmissionID, values map[string]any, source ValueSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket, ok := s.values[submissionID]
	if !ok {
		bucket = make(map[string]SubmissionValue)
		s.values[submissionID] = bucket
	}
	now := s.now()
	for key, value := range values {
		existing, exists := bucket[key]
		v := SubmissionValue{
			SubmissionID:         submissionID,
			Key:                  key,
			Value:                value,
			Source:               source,
			IsInitiallyPrefilled: existing.IsInitiallyPrefilled || source == ValueSourcePrefill,
			CreatedAt:            now,
			ModifiedAt:           now,
		}
		if exists {
			v.CreatedAt = existing.CreatedAt
		}
		bucket[key] = v
	}
	return nil
}
