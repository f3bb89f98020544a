package appointments

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	id "formflow/pkg/domain"
	"formflow/pkg/platform/sentinel"
)

// Store persists appointments. Save replaces the submission's previous appointment.
type Store interface {
	Save(ctx context.Context, appt Appointment) error
	FindBySubmission(ctx context.Context, submissionID id.SubmissionID) (*Appointment, error)
}

type InMemoryStore struct {
	mu           sync.RWMutex
	appointments map[id.SubmissionID]Appointment
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{appointments: make(map[id.SubmissionID]Appointment)}
}

func (s *InMemoryStore) Save(_ context.Context, appt Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments[appt.SubmissionID] = clone(appt)
	return nil
}

func (s *InMemoryStore) FindBySubmission(_ context.Context, submissionID id.SubmissionID) (*Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	appt, ok := s.appointments[submissionID]
	if !ok {
		return nil, fmt.Errorf("appointment for %s: %w", submissionID, sentinel.ErrNotFound)
	}
	c := clone(appt)
	return &c, nil
}

func clone(a Appointment) Appointment {
	a.Contact = maps.Clone(a.Contact)
	a.Products = slices.Clone(a.Products)
	return a
}
