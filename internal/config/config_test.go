package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "pg.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Config{
		Driver:    DriverPG,
		DSN:       "postgres://ledger@localhost/ledger?sslmode=disable",
		LogLevel:  "debug",
		LogPretty: true,
		CacheSize: 128,
	}, cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoad_KeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dsn: ledger.db\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Driver)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "ledger.db", cfg.DSN)
}

func TestLoad_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_UnknownField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("drvier: pg\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestFromEnv(t *testing.T) {
	cfg, err := Default().FromEnv(env(map[string]string{
		EnvDriver:    "memory",
		EnvDB:        "x.db",
		EnvLogLevel:  "",
		EnvCacheSize: "16",
	}))
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Driver)
	assert.Equal(t, "x.db", cfg.DSN)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 16, cfg.CacheSize)

	_, err = Default().FromEnv(env(map[string]string{EnvCacheSize: "lots"}))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"sqlite", Config{Driver: DriverSQLite, DSN: "a.db"}, ""},
		{"memory", Config{Driver: DriverMemory}, ""},
		{"sqlite without db", Config{Driver: DriverSQLite}, "requires a database"},
		{"pg without dsn", Config{Driver: DriverPG}, "requires a database"},
		{"unknown driver", Config{Driver: "mysql", DSN: "x"}, "unknown driver"},
		{"negative cache", Config{Driver: DriverMemory, CacheSize: -1}, "cache size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
