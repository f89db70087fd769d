package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/regioinvent/pkg/errors"
)

var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

var extendScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// PartitionLock is a lease on an output partition. The holder renews it
// every third of its TTL until released.
type PartitionLock struct {
	client *Client
	log    logging.Logger
	prefix string
	ttl    time.Duration
}

func NewPartitionLock(client *Client, log logging.Logger, prefix string, ttl time.Duration) *PartitionLock {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &PartitionLock{client: client, log: log, prefix: prefix, ttl: ttl}
}

func (l *PartitionLock) key(partition string) string {
	return l.prefix + "lock:partition:" + partition
}

// Acquire takes the lease without waiting. A lease held elsewhere yields
// ErrCodeConflict.
func (l *PartitionLock) Acquire(ctx context.Context, partition string) (func(context.Context), error) {
	key := l.key(partition)
	value := uuid.NewString()
	ok, err := l.client.Underlying().SetNX(ctx, key, value, l.ttl).Result()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "failed to set partition lock")
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeConflict, "output partition is locked by another process").
			WithDetail(partition)
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go l.watchdog(watchCtx, key, value, done)

	return func(ctx context.Context) {
		cancel()
		<-done
		res, err := unlockScript.Run(ctx, l.client.Underlying(), []string{key}, value).Int64()
		if err != nil {
			l.log.Warn("partition lock not released", logging.Partition(partition), logging.Err(err))
			return
		}
		if res == 0 {
			l.log.Warn("partition lock expired before release", logging.Partition(partition))
		}
	}, nil
}

func (l *PartitionLock) watchdog(ctx context.Context, key, value string, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := extendScript.Run(ctx, l.client.Underlying(), []string{key}, value, l.ttl.Milliseconds()).Int64()
			if err != nil {
				if ctx.Err() == nil {
					l.log.Error("Watchdog failed to extend lock", logging.String("key", key), logging.Err(err))
				}
				return
			}
			if res == 0 {
				l.log.Warn("Watchdog lost lock", logging.String("key", key))
				return
			}
		}
	}
}

//Personal.AI order the ending
