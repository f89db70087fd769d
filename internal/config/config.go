// Package config defines the configuration structures of regioinvent. No I/O
// or parsing logic lives here, only plain data types and validation.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/regioinvent/internal/domain/lcia"
	"github.com/turtacn/regioinvent/internal/domain/tables"
	"github.com/turtacn/regioinvent/pkg/errors"
)

// MaxCutoff is the largest accepted trade-share cutoff.
const MaxCutoff = 0.99

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// RegionalizationConfig drives one pipeline run.
type RegionalizationConfig struct {
	SourceDatabase     string  `mapstructure:"source_database"`
	Version            string  `mapstructure:"version"`
	Cutoff             float64 `mapstructure:"cutoff"`
	OutputDatabase     string  `mapstructure:"output_database"`
	PruneDepth         int     `mapstructure:"prune_depth"`
	EqualSplitFallback bool    `mapstructure:"equal_split_fallback"`
	LCIAMethod         string  `mapstructure:"lcia_method"`
	// AggregatedThreshold is the exchange count from which a source process
	// is treated as aggregated and is not spatialized.
	AggregatedThreshold int `mapstructure:"aggregated_threshold"`
}

// SpatializedDatabase is the name of the spatialized copy of the source.
func (r RegionalizationConfig) SpatializedDatabase() string {
	return r.SourceDatabase + tables.RegionalizedDatabaseSuffix
}

// TablesConfig locates the static lookup tables.
type TablesConfig struct {
	Source string `mapstructure:"source"` // "dir" | "minio"
	Dir    string `mapstructure:"dir"`
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// TradeConfig selects the trade database.
type TradeConfig struct {
	Driver     string         `mapstructure:"driver"` // "sqlite" | "postgres"
	SQLitePath string         `mapstructure:"sqlite_path"`
	Postgres   PostgresConfig `mapstructure:"postgres"`
}

// Neo4jConfig holds the LCI store connection parameters.
type Neo4jConfig struct {
	URI                   string        `mapstructure:"uri"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	Database              string        `mapstructure:"database"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
	BatchSize             int           `mapstructure:"batch_size"`
}

// RedisConfig holds the snapshot cache parameters.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	SnapshotTTL  time.Duration `mapstructure:"snapshot_ttl"`
	LockTTL      time.Duration `mapstructure:"lock_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// MinIOConfig holds object-storage parameters.
type MinIOConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKey       string `mapstructure:"access_key"`
	SecretKey       string `mapstructure:"secret_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	Region          string `mapstructure:"region"`
	ArtifactsBucket string `mapstructure:"artifacts_bucket"`
}

// KafkaConfig holds run-event producer parameters.
type KafkaConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	Brokers      []string `mapstructure:"brokers"`
	Topic        string   `mapstructure:"topic"`
	TimeoutMS    int      `mapstructure:"timeout_ms"`
	BatchSize    int      `mapstructure:"batch_size"`
	RequiredAcks int      `mapstructure:"required_acks"`
}

// MetricsConfig holds Prometheus parameters.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// ServerConfig holds the ops HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string `mapstructure:"format"` // "json" | "console"
	Output           string `mapstructure:"output"`
	EnableCaller     bool   `mapstructure:"enable_caller"`
	EnableStacktrace bool   `mapstructure:"enable_stacktrace"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.
type Config struct {
	Regionalization RegionalizationConfig `mapstructure:"regionalization"`
	Tables          TablesConfig          `mapstructure:"tables"`
	Trade           TradeConfig           `mapstructure:"trade"`
	Neo4j           Neo4jConfig           `mapstructure:"neo4j"`
	Redis           RedisConfig           `mapstructure:"redis"`
	MinIO           MinIOConfig           `mapstructure:"minio"`
	Kafka           KafkaConfig           `mapstructure:"kafka"`
	Metrics         MetricsConfig         `mapstructure:"metrics"`
	Server          ServerConfig          `mapstructure:"server"`
	Log             LogConfig             `mapstructure:"log"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config and
// returns the first problem found.
func (c *Config) Validate() error {
	r := c.Regionalization
	if r.SourceDatabase == "" {
		return invalid("regionalization.source_database is required")
	}
	if _, err := tables.NormalizeVersion(r.Version); err != nil {
		return err
	}
	if r.Cutoff < 0 || r.Cutoff > MaxCutoff {
		return errors.Newf(errors.ErrCodeInvalidCutoff, "cutoff must be between 0 and %.2f, got %v", MaxCutoff, r.Cutoff)
	}
	if r.OutputDatabase == "" {
		return invalid("regionalization.output_database is required")
	}
	if r.OutputDatabase == r.SourceDatabase || r.OutputDatabase == r.SpatializedDatabase() {
		return invalid("regionalization.output_database must differ from the source partitions")
	}
	if r.PruneDepth < 0 {
		return invalid(fmt.Sprintf("regionalization.prune_depth must be ≥ 0, got %d", r.PruneDepth))
	}
	if r.LCIAMethod != "" {
		if _, err := lcia.ParseMethod(r.LCIAMethod); err != nil {
			return err
		}
	}

	switch c.Tables.Source {
	case "dir":
		if c.Tables.Dir == "" {
			return invalid("tables.dir is required for the dir source")
		}
	case "minio":
		if c.Tables.Bucket == "" {
			return invalid("tables.bucket is required for the minio source")
		}
	default:
		return invalid(fmt.Sprintf("tables.source %q is invalid; expected dir|minio", c.Tables.Source))
	}

	switch c.Trade.Driver {
	case "sqlite":
		if c.Trade.SQLitePath == "" {
			return invalid("trade.sqlite_path is required for the sqlite driver")
		}
	case "postgres":
		if c.Trade.Postgres.Host == "" || c.Trade.Postgres.DBName == "" {
			return invalid("trade.postgres.host and trade.postgres.db_name are required")
		}
	default:
		return invalid(fmt.Sprintf("trade.driver %q is invalid; expected sqlite|postgres", c.Trade.Driver))
	}

	if c.Neo4j.URI == "" {
		return invalid("neo4j.uri is required")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return invalid("redis.addr is required when redis is enabled")
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return invalid("kafka.brokers and kafka.topic are required when kafka is enabled")
	}
	if (c.MinIO.Enabled || c.Tables.Source == "minio") && c.MinIO.Endpoint == "" {
		return invalid("minio.endpoint is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid(fmt.Sprintf("server.port %d is out of range [1, 65535]", c.Server.Port))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return invalid(fmt.Sprintf("server.mode %q is invalid; expected debug|release|test", c.Server.Mode))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid(fmt.Sprintf("log.level %q is invalid; expected debug|info|warn|error", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return invalid(fmt.Sprintf("log.format %q is invalid; expected json|console", c.Log.Format))
	}
	return nil
}

func invalid(msg string) error {
	return errors.New(errors.ErrCodeInvalidConfig, msg)
}

//Personal.AI order the ending
