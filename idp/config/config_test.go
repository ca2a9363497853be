package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alapierre/go-idp-client/idp"
	"github.com/alapierre/go-idp-client/idp/handoff"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
env: staging
api:
  base_url: https://api.example.org/
publishable_key: pk_test_123
store: sqlite
store_path: /tmp/handoff.db
http_timeout: 15s
log_level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	env, err := cfg.Environment()
	require.NoError(t, err)
	assert.Equal(t, idp.Staging, env)
	assert.Equal(t, "https://api.example.org", cfg.BaseURL())
	assert.Equal(t, "pk_test_123", cfg.PublishableKey)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, logrus.DebugLevel, cfg.Level())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "env: staging\nstore: file\n")
	t.Setenv("IDP_ENV", "prod")
	t.Setenv("IDP_STORE", "memory")
	t.Setenv("IDP_HTTP_TIMEOUT", "5s")
	t.Setenv("IDP_PUBLISHABLE_KEY", "pk_live_1")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, idp.Prod.BaseURL(), cfg.BaseURL())
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "pk_live_1", cfg.PublishableKey)
}

func TestLoad_BaseURLFromEnv(t *testing.T) {
	t.Setenv("IDP_API_BASE_URL", "http://127.0.0.1:9000")
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.BaseURL())
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, idp.Local.BaseURL(), cfg.BaseURL())
	assert.Equal(t, StoreFile, cfg.Store)
	assert.Equal(t, 60*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, logrus.InfoLevel, cfg.Level())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "env: moon\n"))
	assert.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	for _, kind := range []string{StoreMemory, StoreFile, StoreSQLite} {
		t.Run(kind, func(t *testing.T) {
			cfg := &Config{Store: kind, StorePath: filepath.Join(dir, "handoff-"+kind)}
			store, closeFn, err := cfg.OpenStore(ctx)
			require.NoError(t, err)
			defer func() { require.NoError(t, closeFn()) }()

			h := handoff.New(store)
			require.NoError(t, h.Publish(ctx, &handoff.Summary{ApplicationID: 42, IDPPeriod: "1year"}))
			s, err := h.Peek(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(42), s.ApplicationID)
		})
	}

	_, _, err := (&Config{Store: "redis"}).OpenStore(ctx)
	assert.Error(t, err)
}
