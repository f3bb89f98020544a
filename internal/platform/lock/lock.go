// Package lock provides short-lived exclusive leases keyed by resource name.
//
// The registration service takes one lease per submission for the duration of an
// attempt so two workers never register the same submission concurrently. A held
// lease is reported as sentinel.ErrLocked; callers treat that as "someone else is on it".
package lock

import (
	"context"
	"time"
)

// Unlock releases a lease. Releasing an expired or foreign lease is a no-op.
type Unlock func(ctx context.Context) error

// Locker hands out exclusive leases.
type Locker interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (Unlock, error)
}
