// Package config loads client settings from an optional YAML file and IDP_*
// environment variables.
package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/alapierre/go-idp-client/idp"
	"github.com/alapierre/go-idp-client/idp/handoff"
)

var logger = logrus.WithField("component", "idp.config")

const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

type API struct {
	BaseURL string `mapstructure:"base_url"`
}

type Config struct {
	Env            string        `mapstructure:"env"`
	API            API           `mapstructure:"api"`
	PublishableKey string        `mapstructure:"publishable_key"`
	SiteURL        string        `mapstructure:"site_url"`
	Store          string        `mapstructure:"store"`
	StorePath      string        `mapstructure:"store_path"`
	HTTPTimeout    time.Duration `mapstructure:"http_timeout"`
	LogLevel       string        `mapstructure:"log_level"`
}

// Dir is the per-user directory holding the config file and the handoff state.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".idp"
	}
	return filepath.Join(home, ".idp")
}

func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "local")
	v.SetDefault("api.base_url", "")
	v.SetDefault("publishable_key", "")
	v.SetDefault("site_url", "http://localhost:3000")
	v.SetDefault("store", StoreFile)
	v.SetDefault("store_path", "")
	v.SetDefault("http_timeout", 60*time.Second)
	v.SetDefault("log_level", "info")
}

// Load reads path, or the default file when path is empty. A missing default
// file is not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("IDP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil || explicit {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
		logger.WithField("path", path).Debug("config file loaded")
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if _, err := cfg.Environment(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Environment() (idp.Environment, error) {
	var e idp.Environment
	if err := e.UnmarshalText([]byte(c.Env)); err != nil {
		return idp.Local, err
	}
	return e, nil
}

// BaseURL is api.base_url when set, the environment default otherwise.
func (c *Config) BaseURL() string {
	if c.API.BaseURL != "" {
		return strings.TrimSuffix(c.API.BaseURL, "/")
	}
	e, err := c.Environment()
	if err != nil {
		return idp.Local.BaseURL()
	}
	return e.BaseURL()
}

func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// OpenStore opens the configured handoff backend. The returned close
// function must be called when the store is no longer used.
func (c *Config) OpenStore(ctx context.Context) (handoff.Store, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(c.Store) {
	case StoreMemory:
		return handoff.NewMemoryStore(), noop, nil
	case StoreFile, "":
		path := c.StorePath
		if path == "" {
			path = filepath.Join(Dir(), "handoff.json")
		}
		s, err := handoff.NewFileStore(path)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	case StoreSQLite:
		path := c.StorePath
		if path == "" {
			if err := os.MkdirAll(Dir(), 0o700); err != nil {
				return nil, nil, errors.Wrap(err, "create state directory")
			}
			path = filepath.Join(Dir(), "handoff.db")
		}
		s, err := handoff.OpenSQLite(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	return nil, nil, errors.Errorf("unknown store %q (allowed: memory, file, sqlite)", c.Store)
}
