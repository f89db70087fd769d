package cli

import (
	"context"

	"github.com/turtacn/regioinvent/internal/application/regionalization"
	"github.com/turtacn/regioinvent/internal/config"
	"github.com/turtacn/regioinvent/internal/domain/lci"
	domaintables "github.com/turtacn/regioinvent/internal/domain/tables"
	"github.com/turtacn/regioinvent/internal/domain/trade"
	neo4jdriver "github.com/turtacn/regioinvent/internal/infrastructure/database/neo4j"
	neo4jrepo "github.com/turtacn/regioinvent/internal/infrastructure/database/neo4j/repositories"
	"github.com/turtacn/regioinvent/internal/infrastructure/database/postgres"
	pgrepo "github.com/turtacn/regioinvent/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/regioinvent/internal/infrastructure/database/redis"
	"github.com/turtacn/regioinvent/internal/infrastructure/database/sqlite"
	"github.com/turtacn/regioinvent/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/regioinvent/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/regioinvent/internal/infrastructure/storage/minio"
	"github.com/turtacn/regioinvent/internal/infrastructure/storage/tables"
	"github.com/turtacn/regioinvent/internal/interfaces/http/handlers"
)

// session holds the connections opened for one command. close releases them
// in reverse order.
type session struct {
	cfg     *config.Config
	logger  logging.Logger
	closers []func()

	redis    *redis.Client
	objects  *minio.Client
	metrics  *prometheus.AppMetrics
	registry *prometheus.Registry
	checks   []handlers.HealthChecker
}

func newSession(c *CLIContext) *session {
	return &session{cfg: c.Config, logger: c.Logger}
}

func (r *session) onClose(f func()) { r.closers = append(r.closers, f) }

func (r *session) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

// check registers a readiness probe.
func (r *session) check(name string, probe func(ctx context.Context) error) {
	r.checks = append(r.checks, handlers.CheckFunc{Component: name, Probe: probe})
}

// enableMetrics builds the collector and application metrics once.
func (r *session) enableMetrics() error {
	if r.metrics != nil || !r.cfg.Metrics.Enabled {
		return nil
	}
	collector, err := prometheus.NewRegistry(prometheus.RegistryConfig{
		Namespace:      r.cfg.Metrics.Namespace,
		RuntimeMetrics: true,
	}, r.logger)
	if err != nil {
		return err
	}
	r.registry = collector
	r.metrics = prometheus.NewAppMetrics(collector)
	return nil
}

// redisClient connects to Redis when it is enabled; it returns nil otherwise.
func (r *session) redisClient() (*redis.Client, error) {
	if r.redis != nil || !r.cfg.Redis.Enabled {
		return r.redis, nil
	}
	client, err := redis.NewClient(r.cfg.Redis, r.logger)
	if err != nil {
		return nil, err
	}
	r.redis = client
	r.onClose(func() { _ = client.Close() })
	r.check("redis", client.Ping)
	return client, nil
}

// objectStore connects to MinIO; it returns nil when neither the table source
// nor the artifact store needs it.
func (r *session) objectStore(ctx context.Context) (*minio.Client, error) {
	if r.objects != nil || (!r.cfg.MinIO.Enabled && r.cfg.Tables.Source != "minio") {
		return r.objects, nil
	}
	client, err := minio.NewClient(r.cfg.MinIO, r.logger)
	if err != nil {
		return nil, err
	}
	r.objects = client
	if bucket := r.cfg.MinIO.ArtifactsBucket; r.cfg.MinIO.Enabled && bucket != "" {
		if err := client.EnsureBucket(ctx, bucket); err != nil {
			return nil, err
		}
		r.check("minio", func(ctx context.Context) error { return client.HealthCheck(ctx, bucket) })
	}
	return client, nil
}

// lciRepository opens the graph store, wrapped in the Redis snapshot cache
// when Redis is enabled.
func (r *session) lciRepository(ctx context.Context) (lci.Repository, error) {
	d, err := neo4jdriver.NewDriver(r.cfg.Neo4j, r.logger)
	if err != nil {
		return nil, err
	}
	r.onClose(func() { _ = d.Close(context.Background()) })
	r.check("neo4j", d.HealthCheck)

	if err := neo4jrepo.EnsureSchema(ctx, d); err != nil {
		return nil, err
	}
	repo := neo4jrepo.NewNeo4jLCIRepo(d, r.logger, r.cfg.Neo4j.BatchSize)

	client, err := r.redisClient()
	if err != nil || client == nil {
		return repo, err
	}
	opts := []redis.CacheOption{
		redis.WithPrefix(r.cfg.Redis.KeyPrefix),
		redis.WithSnapshotTTL(r.cfg.Redis.SnapshotTTL),
	}
	if r.metrics != nil {
		opts = append(opts, redis.WithAccessObserver(r.metrics))
	}
	return redis.NewCachedLCIRepo(repo, client, r.logger, opts...), nil
}

// tableSource serves the static tables from a directory or a bucket.
func (r *session) tableSource(ctx context.Context) (domaintables.Source, error) {
	if r.cfg.Tables.Source != "minio" {
		return tables.NewDirSource(r.cfg.Tables.Dir), nil
	}
	client, err := r.objectStore(ctx)
	if err != nil {
		return nil, err
	}
	return minio.NewTableSource(client, r.cfg.Tables.Bucket, r.cfg.Tables.Prefix), nil
}

// tradeRepository opens the configured trade database.
func (r *session) tradeRepository(ctx context.Context) (trade.Repository, error) {
	if r.cfg.Trade.Driver == "postgres" {
		pool, err := postgres.NewConnectionPool(r.cfg.Trade.Postgres, r.logger)
		if err != nil {
			return nil, err
		}
		r.onClose(func() { postgres.Close(pool) })
		r.check("postgres", func(ctx context.Context) error { return postgres.HealthCheck(ctx, pool, r.logger) })
		return pgrepo.NewTradeRepo(pool, r.logger), nil
	}
	repo, err := sqlite.Open(r.cfg.Trade.SQLitePath, r.logger)
	if err != nil {
		return nil, err
	}
	r.onClose(func() { _ = repo.Close() })
	return repo, nil
}

// eventPublisher connects the Kafka producer and makes sure its topic exists.
// Topic creation failures are logged; the broker may auto-create topics.
func (r *session) eventPublisher(ctx context.Context) (regionalization.EventPublisher, error) {
	kcfg := r.cfg.Kafka
	tm, err := kafka.NewTopicManager(kcfg.Brokers, r.logger)
	if err != nil {
		r.logger.Warn("kafka topic check skipped", logging.Err(err))
	} else {
		if err := tm.EnsureTopic(ctx, kafka.RunEventsTopic(kcfg.Topic)); err != nil {
			r.logger.Warn("kafka topic not ensured", logging.Err(err), logging.String("topic", kcfg.Topic))
		}
		_ = tm.Close()
	}

	producer, err := kafka.NewProducer(kcfg, r.logger)
	if err != nil {
		return nil, err
	}
	r.onClose(func() { _ = producer.Close() })
	return producer, nil
}

// regionalizationService wires the pipeline with every enabled adapter.
// It also returns the audit store, nil when object storage is disabled.
func (r *session) regionalizationService(ctx context.Context) (*regionalization.Service, *minio.AuditStore, error) {
	cfg := r.cfg.Regionalization
	version, err := domaintables.NormalizeVersion(cfg.Version)
	if err != nil {
		return nil, nil, err
	}
	if err := r.enableMetrics(); err != nil {
		return nil, nil, err
	}

	src, err := r.tableSource(ctx)
	if err != nil {
		return nil, nil, err
	}
	tbl, err := domaintables.Load(ctx, src, version)
	if err != nil {
		return nil, nil, err
	}
	lciRepo, err := r.lciRepository(ctx)
	if err != nil {
		return nil, nil, err
	}
	tradeRepo, err := r.tradeRepository(ctx)
	if err != nil {
		return nil, nil, err
	}

	var opts []regionalization.Option
	if r.metrics != nil {
		opts = append(opts, regionalization.WithMetrics(r.metrics))
	}
	client, err := r.redisClient()
	if err != nil {
		return nil, nil, err
	}
	if client != nil {
		opts = append(opts, regionalization.WithPartitionLock(
			redis.NewPartitionLock(client, r.logger, r.cfg.Redis.KeyPrefix, r.cfg.Redis.LockTTL)))
	}
	if r.cfg.Kafka.Enabled {
		pub, err := r.eventPublisher(ctx)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, regionalization.WithEvents(pub))
	}
	var audits *minio.AuditStore
	if r.cfg.MinIO.Enabled {
		objects, err := r.objectStore(ctx)
		if err != nil {
			return nil, nil, err
		}
		audits = minio.NewAuditStore(objects, r.cfg.MinIO.ArtifactsBucket, r.logger)
		opts = append(opts, regionalization.WithArtifacts(audits))
	}

	settings := regionalization.Settings{
		SourceDatabase:     cfg.SourceDatabase,
		OutputDatabase:     cfg.OutputDatabase,
		Cutoff:             cfg.Cutoff,
		PruneDepth:         cfg.PruneDepth,
		EqualSplitFallback: cfg.EqualSplitFallback,
	}
	return regionalization.NewService(settings, lciRepo, tradeRepo, tbl, r.logger, opts...), audits, nil
}

//Personal.AI order the ending
