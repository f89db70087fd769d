package config

import (
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/turtacn/regioinvent/pkg/errors"
)

// envPrefix is the environment variable prefix of every setting.
const envPrefix = "REGIOINVENT"

// newViper builds a Viper instance with YAML file type, the REGIOINVENT_ env
// prefix, automatic env binding, a "." → "_" key replacer and every default
// registered.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setViperDefaults(v)
	return v
}

// Overrides are flag values applied on top of file and environment.
type Overrides map[string]interface{}

// Load reads the YAML file at configPath, merges REGIOINVENT_* environment
// variables, applies defaults and validates the result.
//
//	REGIOINVENT_<SECTION>_<FIELD>   e.g.  REGIOINVENT_REGIONALIZATION_CUTOFF
func Load(configPath string) (*Config, error) {
	return LoadWithOverrides(configPath, nil)
}

// LoadWithOverrides is Load with explicit key overrides, as set by
// command-line flags. An empty configPath reads environment and defaults
// only.
func LoadWithOverrides(configPath string, overrides Overrides) (*Config, error) {
	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInvalidConfig, "failed to read config file").WithDetail(configPath)
		}
	}
	for k, val := range overrides {
		v.Set(k, val)
	}
	return unmarshalAndFinalize(v)
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidConfig, "failed to unmarshal configuration")
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Watch re-reads configPath whenever it changes on disk and passes the new
// Config to onChange. Invalid revisions are skipped.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)
	_ = v.ReadInConfig()

	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}

//Personal.AI order the ending
