package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultVersion, cfg.Regionalization.Version)
	assert.Equal(t, DefaultOutputDatabase, cfg.Regionalization.OutputDatabase)
	assert.Equal(t, DefaultAggregatedThreshold, cfg.Regionalization.AggregatedThreshold)
	assert.Equal(t, DefaultTradeDriver, cfg.Trade.Driver)
	assert.Equal(t, DefaultTradeSQLitePath, cfg.Trade.SQLitePath)
	assert.Equal(t, DefaultNeo4jURI, cfg.Neo4j.URI)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, []string{DefaultKafkaBroker}, cfg.Kafka.Brokers)
}

func TestApplyDefaults_PreserveExistingValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.Regionalization.PruneDepth = 0
	cfg.Trade.Driver = "postgres"
	ApplyDefaults(cfg)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 0, cfg.Regionalization.PruneDepth)
	assert.Equal(t, "postgres", cfg.Trade.Driver)
	assert.Empty(t, cfg.Trade.SQLitePath)
}

func TestApplyDefaults_Nil(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}

//Personal.AI order the ending
