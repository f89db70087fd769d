package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/regioinvent/internal/domain/lci"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
)

const (
	snapshotKind = "snapshot:"
	flowsKind    = "flows:"
)

// CachedLCIRepo serves Extract and Flows from Redis snapshots and drops the
// snapshot of a partition whenever that partition is written or deleted.
// Redis failures degrade to reading through.
type CachedLCIRepo struct {
	inner  lci.Repository
	client *Client
	log    logging.Logger
	prefix string
	ttl    time.Duration
	group  singleflight.Group
	access AccessObserver
}

// AccessObserver is told about every cache lookup.
type AccessObserver interface {
	RecordCacheAccess(cache string, hit bool)
}

type nopObserver struct{}

func (nopObserver) RecordCacheAccess(string, bool) {}

// CacheOption customizes a CachedLCIRepo.
type CacheOption func(*CachedLCIRepo)

func WithPrefix(prefix string) CacheOption {
	return func(c *CachedLCIRepo) { c.prefix = prefix }
}

func WithSnapshotTTL(ttl time.Duration) CacheOption {
	return func(c *CachedLCIRepo) { c.ttl = ttl }
}

func WithAccessObserver(o AccessObserver) CacheOption {
	return func(c *CachedLCIRepo) { c.access = o }
}

func NewCachedLCIRepo(inner lci.Repository, client *Client, log logging.Logger, opts ...CacheOption) *CachedLCIRepo {
	c := &CachedLCIRepo{
		inner:  inner,
		client: client,
		log:    log,
		prefix: "regioinvent:",
		ttl:    24 * time.Hour,
		access: nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CachedLCIRepo) key(kind, database string) string {
	return c.prefix + kind + database
}

func (c *CachedLCIRepo) Databases(ctx context.Context) ([]string, error) {
	return c.inner.Databases(ctx)
}

func (c *CachedLCIRepo) Extract(ctx context.Context, database string) ([]*lci.Process, error) {
	var out []*lci.Process
	err := c.readThrough(ctx, "snapshot", c.key(snapshotKind, database), &out, func(ctx context.Context) (any, error) {
		return c.inner.Extract(ctx, database)
	})
	return out, err
}

func (c *CachedLCIRepo) Flows(ctx context.Context, database string) ([]lci.Flow, error) {
	var out []lci.Flow
	err := c.readThrough(ctx, "flows", c.key(flowsKind, database), &out, func(ctx context.Context) (any, error) {
		return c.inner.Flows(ctx, database)
	})
	return out, err
}

func (c *CachedLCIRepo) Write(ctx context.Context, database string, processes map[lci.Key]*lci.Process) error {
	if err := c.inner.Write(ctx, database, processes); err != nil {
		return err
	}
	c.invalidate(ctx, c.key(snapshotKind, database))
	return nil
}

func (c *CachedLCIRepo) Delete(ctx context.Context, database string) error {
	if err := c.inner.Delete(ctx, database); err != nil {
		return err
	}
	c.invalidate(ctx, c.key(snapshotKind, database))
	return nil
}

func (c *CachedLCIRepo) WriteFlows(ctx context.Context, database string, flows []lci.Flow) error {
	if err := c.inner.WriteFlows(ctx, database, flows); err != nil {
		return err
	}
	c.invalidate(ctx, c.key(flowsKind, database))
	return nil
}

// readThrough decodes key into dest, or loads, stores and decodes it.
// Concurrent misses on one key share a single load.
func (c *CachedLCIRepo) readThrough(ctx context.Context, cache, key string, dest any, load func(context.Context) (any, error)) error {
	data, err := c.client.Underlying().Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if err := json.Unmarshal(data, dest); err == nil {
			c.log.Debug("snapshot cache hit", logging.String("key", key))
			c.access.RecordCacheAccess(cache, true)
			return nil
		}
		c.log.Warn("discarding undecodable snapshot", logging.String("key", key))
	case !stderrors.Is(err, redis.Nil):
		c.log.Warn("snapshot cache unavailable", logging.String("key", key), logging.Err(err))
	}
	c.access.RecordCacheAccess(cache, false)

	v, err, _ := c.group.Do(key, func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		if err := c.client.Underlying().Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.Warn("snapshot not cached", logging.String("key", key), logging.Err(err))
		}
		return data, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(v.([]byte), dest)
}

func (c *CachedLCIRepo) invalidate(ctx context.Context, key string) {
	if err := c.client.Underlying().Del(ctx, key).Err(); err != nil {
		c.log.Warn("snapshot not invalidated", logging.String("key", key), logging.Err(err))
	}
}

var _ lci.Repository = (*CachedLCIRepo)(nil)

//Personal.AI order the ending
