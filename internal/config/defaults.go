package config

import (
	"time"

	"github.com/spf13/viper"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultVersion             = "3.10"
	DefaultCutoff              = 0.99
	DefaultOutputDatabase      = "Regioinvent"
	DefaultPruneDepth          = 1
	DefaultEqualSplitFallback  = true
	DefaultAggregatedThreshold = 1000

	DefaultTablesSource = "dir"
	DefaultTablesDir    = "data"

	DefaultTradeDriver     = "sqlite"
	DefaultTradeSQLitePath = "trade_data.db"
	DefaultPostgresPort    = 5432
	DefaultPostgresMaxConn = 10

	DefaultNeo4jURI       = "bolt://localhost:7687"
	DefaultNeo4jBatchSize = 500

	DefaultRedisAddr        = "localhost:6379"
	DefaultRedisSnapshotTTL = 24 * time.Hour
	DefaultRedisLockTTL     = 30 * time.Second
	DefaultRedisKeyPrefix   = "regioinvent:"

	DefaultMinIOEndpoint   = "localhost:9000"
	DefaultArtifactsBucket = "regioinvent-runs"

	DefaultKafkaBroker = "localhost:9092"
	DefaultKafkaTopic  = "regioinvent.runs"

	DefaultMetricsNamespace = "regioinvent"
	DefaultMetricsPath      = "/metrics"

	DefaultServerPort = 8080
	DefaultServerMode = "release"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// setViperDefaults registers every default with v, so that environment
// overrides bind to known keys and zero values that are meaningful
// (prune_depth, equal_split_fallback) are not mistaken for unset ones.
func setViperDefaults(v *viper.Viper) {
	// ── Regionalization ──────────────────────────────────────────────────────
	v.SetDefault("regionalization.source_database", "")
	v.SetDefault("regionalization.version", DefaultVersion)
	v.SetDefault("regionalization.cutoff", DefaultCutoff)
	v.SetDefault("regionalization.output_database", DefaultOutputDatabase)
	v.SetDefault("regionalization.prune_depth", DefaultPruneDepth)
	v.SetDefault("regionalization.equal_split_fallback", DefaultEqualSplitFallback)
	v.SetDefault("regionalization.lcia_method", "")
	v.SetDefault("regionalization.aggregated_threshold", DefaultAggregatedThreshold)

	// ── Tables ───────────────────────────────────────────────────────────────
	v.SetDefault("tables.source", DefaultTablesSource)
	v.SetDefault("tables.dir", DefaultTablesDir)
	v.SetDefault("tables.bucket", "")
	v.SetDefault("tables.prefix", "")

	// ── Trade ────────────────────────────────────────────────────────────────
	v.SetDefault("trade.driver", DefaultTradeDriver)
	v.SetDefault("trade.sqlite_path", DefaultTradeSQLitePath)
	v.SetDefault("trade.postgres.host", "")
	v.SetDefault("trade.postgres.port", DefaultPostgresPort)
	v.SetDefault("trade.postgres.user", "")
	v.SetDefault("trade.postgres.password", "")
	v.SetDefault("trade.postgres.db_name", "")
	v.SetDefault("trade.postgres.ssl_mode", "disable")
	v.SetDefault("trade.postgres.max_conns", DefaultPostgresMaxConn)

	// ── Neo4j ────────────────────────────────────────────────────────────────
	v.SetDefault("neo4j.uri", DefaultNeo4jURI)
	v.SetDefault("neo4j.user", "neo4j")
	v.SetDefault("neo4j.password", "")
	v.SetDefault("neo4j.database", "neo4j")
	v.SetDefault("neo4j.batch_size", DefaultNeo4jBatchSize)

	// ── Redis ────────────────────────────────────────────────────────────────
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", DefaultRedisAddr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.snapshot_ttl", DefaultRedisSnapshotTTL)
	v.SetDefault("redis.lock_ttl", DefaultRedisLockTTL)
	v.SetDefault("redis.key_prefix", DefaultRedisKeyPrefix)

	// ── MinIO ────────────────────────────────────────────────────────────────
	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.endpoint", DefaultMinIOEndpoint)
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.artifacts_bucket", DefaultArtifactsBucket)

	// ── Kafka ────────────────────────────────────────────────────────────────
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{DefaultKafkaBroker})
	v.SetDefault("kafka.topic", DefaultKafkaTopic)

	// ── Metrics / server / log ───────────────────────────────────────────────
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", DefaultMetricsNamespace)
	v.SetDefault("metrics.path", DefaultMetricsPath)
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.mode", DefaultServerMode)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
}

// ApplyDefaults fills zero-value fields in cfg with well-known defaults.
// Fields whose zero value is meaningful (prune depth, the equal-split flag,
// redis.db) are left alone; they are defaulted through viper instead.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Regionalization ──────────────────────────────────────────────────────
	if cfg.Regionalization.Version == "" {
		cfg.Regionalization.Version = DefaultVersion
	}
	if cfg.Regionalization.OutputDatabase == "" {
		cfg.Regionalization.OutputDatabase = DefaultOutputDatabase
	}
	if cfg.Regionalization.AggregatedThreshold == 0 {
		cfg.Regionalization.AggregatedThreshold = DefaultAggregatedThreshold
	}

	// ── Tables ───────────────────────────────────────────────────────────────
	if cfg.Tables.Source == "" {
		cfg.Tables.Source = DefaultTablesSource
	}
	if cfg.Tables.Source == "dir" && cfg.Tables.Dir == "" {
		cfg.Tables.Dir = DefaultTablesDir
	}

	// ── Trade ────────────────────────────────────────────────────────────────
	if cfg.Trade.Driver == "" {
		cfg.Trade.Driver = DefaultTradeDriver
	}
	if cfg.Trade.Driver == "sqlite" && cfg.Trade.SQLitePath == "" {
		cfg.Trade.SQLitePath = DefaultTradeSQLitePath
	}
	if cfg.Trade.Postgres.Port == 0 {
		cfg.Trade.Postgres.Port = DefaultPostgresPort
	}
	if cfg.Trade.Postgres.SSLMode == "" {
		cfg.Trade.Postgres.SSLMode = "disable"
	}
	if cfg.Trade.Postgres.MaxConns == 0 {
		cfg.Trade.Postgres.MaxConns = DefaultPostgresMaxConn
	}

	// ── Neo4j ────────────────────────────────────────────────────────────────
	if cfg.Neo4j.URI == "" {
		cfg.Neo4j.URI = DefaultNeo4jURI
	}
	if cfg.Neo4j.BatchSize == 0 {
		cfg.Neo4j.BatchSize = DefaultNeo4jBatchSize
	}

	// ── Redis ────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.SnapshotTTL == 0 {
		cfg.Redis.SnapshotTTL = DefaultRedisSnapshotTTL
	}
	if cfg.Redis.LockTTL == 0 {
		cfg.Redis.LockTTL = DefaultRedisLockTTL
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// ── MinIO ────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.ArtifactsBucket == "" {
		cfg.MinIO.ArtifactsBucket = DefaultArtifactsBucket
	}

	// ── Kafka ────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = DefaultKafkaTopic
	}

	// ── Metrics ──────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	// ── Server ───────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}

	// ── Log ──────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

//Personal.AI order the ending
