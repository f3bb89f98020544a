package tasks

import (
	"context"
	"log/slog"
	"time"

	"formflow/internal/registrations"
	"formflow/pkg/requestcontext"
)

// TriggerBeat marks work started by the periodic sweep.
const TriggerBeat = "beat"

// RetryRunner retries failed registrations.
type RetryRunner interface {
	RetryFailed(ctx context.Context) (registrations.RetryReport, error)
}

// Sweeper periodically retries failed registrations that still have attempts left.
type Sweeper struct {
	runner   RetryRunner
	interval time.Duration
	logger   *slog.Logger
}

func NewSweeper(runner RetryRunner, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{runner: runner, interval: interval, logger: logger}
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one retry pass.
func (s *Sweeper) Sweep(ctx context.Context) registrations.RetryReport {
	ctx = requestcontext.WithTrigger(ctx, TriggerBeat)
	report, err := s.runner.RetryFailed(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "retry sweep failed", "error", err)
	}
	return report
}
