//go:build integration

package lock

import (
	"context"
	"testing"
	"time"

	"formflow/pkg/platform/sentinel"
	"formflow/pkg/testutil/containers"

	"github.com/stretchr/testify/suite"
)

type RedisLockSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	locker *Redis
}

func TestRedisLockSuite(t *testing.T) {
	suite.Run(t, new(RedisLockSuite))
}

func (s *RedisLockSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.locker = NewRedis(s.redis.Client)
}

func (s *RedisLockSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisLockSuite) TestExclusive() {
	ctx := context.Background()
	unlock, err := s.locker.TryAcquire(ctx, "sub-1", time.Minute)
	s.Require().NoError(err)

	_, err = s.locker.TryAcquire(ctx, "sub-1", time.Minute)
	s.ErrorIs(err, sentinel.ErrLocked)

	s.Require().NoError(unlock(ctx))
	_, err = s.locker.TryAcquire(ctx, "sub-1", time.Minute)
	s.NoError(err)
}

func (s *RedisLockSuite) TestExpires() {
	ctx := context.Background()
	_, err := s.locker.TryAcquire(ctx, "sub-2", 100*time.Millisecond)
	s.Require().NoError(err)

	s.Eventually(func() bool {
		_, err := s.locker.TryAcquire(ctx, "sub-2", time.Minute)
		return err == nil
	}, 2*time.Second, 50*time.Millisecond)
}

func (s *RedisLockSuite) TestForeignUnlockIsNoop() {
	ctx := context.Background()
	staleUnlock, err := s.locker.TryAcquire(ctx, "sub-3", 100*time.Millisecond)
	s.Require().NoError(err)
	time.Sleep(200 * time.Millisecond)

	_, err = s.locker.TryAcquire(ctx, "sub-3", time.Minute)
	s.Require().NoError(err)

	s.Require().NoError(staleUnlock(ctx))
	_, err = s.locker.TryAcquire(ctx, "sub-3", time.Minute)
	s.ErrorIs(err, sentinel.ErrLocked)
}
