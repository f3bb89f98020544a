// Package tasks runs the background work of the submission lifecycle: prefill after
// start, and the pre-registration → registration → confirmation email chain after
// completion. Tasks travel through a Queue (in process or Kafka) and are executed by
// the Dispatcher, which enqueues the next link of the chain only once the previous
// one left the submission ready for it.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"formflow/internal/registrations"
	id "formflow/pkg/domain"
)

// Kind selects the handler of a task.
type Kind string

const (
	KindPrefill           Kind = "prefill"
	KindPreRegistration   Kind = "pre_registration"
	KindRegistration      Kind = "registration"
	KindConfirmationEmail Kind = "confirmation_email"
)

func (k Kind) Valid() bool {
	switch k {
	case KindPrefill, KindPreRegistration, KindRegistration, KindConfirmationEmail:
		return true
	}
	return false
}

var (
	ErrQueueFull   = errors.New("task queue is full")
	ErrInvalidTask = errors.New("invalid task")
)

// Task is one unit of background work for a submission.
type Task struct {
	Kind         Kind                `json:"kind"`
	SubmissionID id.SubmissionID     `json:"submission_id"`
	Event        registrations.Event `json:"event,omitempty"`
	// InitialData is only set on prefill tasks.
	InitialData map[string]any `json:"initial_data,omitempty"`
	// RequestID correlates the task with the request that scheduled it.
	RequestID string `json:"request_id,omitempty"`
}

func (t Task) Validate() error {
	if !t.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidTask, t.Kind)
	}
	if t.SubmissionID.IsNil() {
		return fmt.Errorf("%w: submission id is required", ErrInvalidTask)
	}
	if (t.Kind == KindPreRegistration || t.Kind == KindRegistration) && !t.Event.Valid() {
		return fmt.Errorf("%w: unknown event %q", ErrInvalidTask, t.Event)
	}
	return nil
}

func (t Task) Encode() ([]byte, error) {
	return json.Marshal(t)
}

func Decode(data []byte) (Task, error) {
	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		return Task{}, fmt.Errorf("%w: %w", ErrInvalidTask, err)
	}
	if err := t.Validate(); err != nil {
		return Task{}, err
	}
	return t, nil
}

// Queue accepts tasks for asynchronous execution.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
}

// Handler executes one task.
type Handler interface {
	Handle(ctx context.Context, task Task) error
}
