package tasks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"formflow/internal/registrations"
	"formflow/pkg/requestcontext"

	"github.com/stretchr/testify/assert"
)

type retryRunnerFunc func(ctx context.Context) (registrations.RetryReport, error)

func (f retryRunnerFunc) RetryFailed(ctx context.Context) (registrations.RetryReport, error) {
	return f(ctx)
}

func TestSweep(t *testing.T) {
	var trigger string
	sweeper := NewSweeper(retryRunnerFunc(func(ctx context.Context) (registrations.RetryReport, error) {
		trigger = requestcontext.Trigger(ctx)
		return registrations.RetryReport{Picked: 2, Retried: 1, Failed: 1}, nil
	}), time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	report := sweeper.Sweep(context.Background())
	assert.Equal(t, registrations.RetryReport{Picked: 2, Retried: 1, Failed: 1}, report)
	assert.Equal(t, TriggerBeat, trigger)
}

func TestSweepError(t *testing.T) {
	sweeper := NewSweeper(retryRunnerFunc(func(context.Context) (registrations.RetryReport, error) {
		return registrations.RetryReport{}, errors.New("database down")
	}), time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Equal(t, registrations.RetryReport{}, sweeper.Sweep(context.Background()))
}
