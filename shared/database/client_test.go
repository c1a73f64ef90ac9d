package database

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name       string
		config     *Config
		wantDriver string
		wantDSN    string
		wantErr    bool
	}{
		{
			name: "postgres",
			config: &Config{
				Driver:   DriverPostgres,
				Host:     "localhost",
				Port:     5432,
				User:     "app",
				Password: "secret",
				Database: "bookbytes",
				SSLMode:  "disable",
			},
			wantDriver: DriverPostgres,
			wantDSN:    "host=localhost port=5432 user=app password=secret dbname=bookbytes sslmode=disable",
		},
		{
			name: "empty driver defaults to postgres",
			config: &Config{
				Host:     "db",
				Port:     5432,
				User:     "app",
				Password: "secret",
				Database: "bookbytes",
				SSLMode:  "require",
			},
			wantDriver: DriverPostgres,
			wantDSN:    "host=db port=5432 user=app password=secret dbname=bookbytes sslmode=require",
		},
		{
			name:       "sqlite",
			config:     &Config{Driver: DriverSQLite, Path: "/tmp/jobs.db"},
			wantDriver: DriverSQLite,
			wantDSN:    "/tmp/jobs.db?_busy_timeout=5000&_foreign_keys=on",
		},
		{
			name:       "sqlite default path",
			config:     &Config{Driver: DriverSQLite},
			wantDriver: DriverSQLite,
			wantDSN:    "bookbytes.db?_busy_timeout=5000&_foreign_keys=on",
		},
		{
			name:    "unsupported driver",
			config:  &Config{Driver: "oracle"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, dsn, err := buildDSN(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDriver, driver)
			assert.Equal(t, tt.wantDSN, dsn)
		})
	}
}

func TestNewClient_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client_test.db")
	t.Cleanup(func() { os.Remove(path) })

	client, err := NewClient(&Config{Driver: DriverSQLite, Path: path}, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	require.NotNil(t, client.GetDB())
	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.HealthCheck(context.Background()))
	assert.NotEmpty(t, client.Stats())
}

func TestNewClient_UnsupportedDriver(t *testing.T) {
	_, err := NewClient(&Config{Driver: "oracle"}, slog.New(slog.DiscardHandler))
	assert.Error(t, err)
}
