package lock

import (
	"context"
	"fmt"
	"time"

	"formflow/pkg/platform/sentinel"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var acquireOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "formflow_lock_acquire_total",
	Help: "Registration lock acquisitions by outcome",
}, []string{"outcome"}) // outcome: "acquired", "held", "error"

const keyPrefix = "formflow:lock:"

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a Locker backed by SET NX PX.
type Redis struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

func (r *Redis) TryAcquire(ctx context.Context, key string, ttl time.Duration) (Unlock, error) {
	token := uuid.NewString()
	redisKey := keyPrefix + key

	ok, err := r.client.SetNX(ctx, redisKey, token, ttl).Result()
	if err != nil {
		acquireOutcomes.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		acquireOutcomes.WithLabelValues("held").Inc()
		return nil, sentinel.ErrLocked
	}
	acquireOutcomes.WithLabelValues("acquired").Inc()

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, r.client, []string{redisKey}, token).Err(); err != nil {
			return fmt.Errorf("release lock %s: %w", key, err)
		}
		return nil
	}, nil
}
