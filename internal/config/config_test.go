package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/regioinvent/pkg/errors"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.Regionalization.SourceDatabase = "ecoinvent 3.10 cutoff"
	cfg.Regionalization.Cutoff = 0.75
	cfg.Regionalization.PruneDepth = 1
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Cutoff(t *testing.T) {
	for _, c := range []float64{-0.01, 0.995, 1} {
		cfg := validConfig()
		cfg.Regionalization.Cutoff = c
		err := cfg.Validate()
		require.Error(t, err, "cutoff %v", c)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidCutoff))
	}
	for _, c := range []float64{0, 0.5, 0.99} {
		cfg := validConfig()
		cfg.Regionalization.Cutoff = c
		assert.NoError(t, cfg.Validate(), "cutoff %v", c)
	}
}

func TestValidate_Version(t *testing.T) {
	cfg := validConfig()
	cfg.Regionalization.Version = "3.8"
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnsupportedVersion))
}

func TestValidate_LCIAMethod(t *testing.T) {
	cfg := validConfig()
	cfg.Regionalization.LCIAMethod = "IW v2.1"
	assert.NoError(t, cfg.Validate())

	cfg.Regionalization.LCIAMethod = "CML"
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnsupportedMethod))
}

func TestValidate_InvalidSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing source", func(c *Config) { c.Regionalization.SourceDatabase = "" }},
		{"output equals source", func(c *Config) { c.Regionalization.OutputDatabase = c.Regionalization.SourceDatabase }},
		{"output equals spatialized", func(c *Config) {
			c.Regionalization.OutputDatabase = c.Regionalization.SpatializedDatabase()
		}},
		{"negative prune depth", func(c *Config) { c.Regionalization.PruneDepth = -1 }},
		{"unknown trade driver", func(c *Config) { c.Trade.Driver = "mysql" }},
		{"postgres without host", func(c *Config) { c.Trade.Driver = "postgres" }},
		{"minio tables without bucket", func(c *Config) { c.Tables.Source = "minio" }},
		{"kafka without topic", func(c *Config) { c.Kafka.Enabled = true; c.Kafka.Topic = "" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidConfig), "got %v", err)
		})
	}
}

func TestSpatializedDatabase(t *testing.T) {
	r := RegionalizationConfig{SourceDatabase: "ei"}
	assert.Equal(t, "ei regionalized", r.SpatializedDatabase())
}

//Personal.AI order the ending
