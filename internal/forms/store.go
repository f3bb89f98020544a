package forms

import (
	"context"
	"fmt"
	"sync"

	id "formflow/pkg/domain"
	"formflow/pkg/platform/sentinel"
)

type Store interface {
	FindByID(ctx context.Context, formID id.FormID) (*Form, error)
	Save(ctx context.Context, form *Form) error
}

// InMemoryStore keeps form definitions in process memory.
type InMemoryStore struct {
	mu    sync.RWMutex
	forms map[id.FormID]*Form
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{forms: make(map[id.FormID]*Form)}
}

func (s *InMemoryStore) FindByID(_ context.Context, formID id.FormID) (*Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.forms[formID]
	if !ok {
		return nil, fmt.Errorf("form %s: %w", formID, sentinel.ErrNotFound)
	}
	return f, nil
}

func (s *InMemoryStore) Save(_ context.Context, form *Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forms[form.ID] = form
	return nil
}
