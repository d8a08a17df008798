package database

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"studydocs/internal/config"
	"studydocs/internal/logging"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name    string
		config  config.DatabaseConfig
		want    string
		wantErr bool
	}{
		{
			name: "password and sslmode",
			config: config.DatabaseConfig{
				Host:     "db",
				Port:     "5432",
				User:     "studydocs",
				Password: "pass",
				Name:     "studydocs",
				SSLMode:  "disable",
			},
			want: "postgres://studydocs:pass@db:5432/studydocs?sslmode=disable",
		},
		{
			name: "password with reserved characters is escaped",
			config: config.DatabaseConfig{
				Host:     "db",
				Port:     "5432",
				User:     "studydocs",
				Password: "p@ss/word",
				Name:     "studydocs",
			},
			want: "postgres://studydocs:p%40ss%2Fword@db:5432/studydocs",
		},
		{
			name: "no password",
			config: config.DatabaseConfig{
				Host:    "db",
				Port:    "5432",
				User:    "studydocs",
				Name:    "studydocs",
				SSLMode: "require",
			},
			want: "postgres://studydocs@db:5432/studydocs?sslmode=require",
		},
		{name: "missing host", config: config.DatabaseConfig{Port: "5432", User: "u", Name: "n"}, wantErr: true},
		{name: "missing port", config: config.DatabaseConfig{Host: "db", User: "u", Name: "n"}, wantErr: true},
		{name: "missing user", config: config.DatabaseConfig{Host: "db", Port: "5432", Name: "n"}, wantErr: true},
		{name: "missing name", config: config.DatabaseConfig{Host: "db", Port: "5432", User: "u"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildPostgresDSN(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// logEvents decodes the JSON lines written by the logger.
func logEvents(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &e))
		out = append(out, e)
	}
	return out
}

func stubOpen(t *testing.T, db *sql.DB, err error) {
	t.Helper()
	orig := sqlOpen
	sqlOpen = func(driverName, dataSourceName string) (*sql.DB, error) {
		return db, err
	}
	t.Cleanup(func() { sqlOpen = orig })
}

func TestNewPostgres(t *testing.T) {
	conf := config.DatabaseConfig{
		Host:               "db",
		Port:               "5432",
		User:               "studydocs",
		Password:           "pass",
		Name:               "studydocs",
		MaxOpenConns:       10,
		MaxIdleConns:       5,
		ConnMaxLifetimeSec: 300,
	}

	t.Run("connects and logs", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer db.Close()
		stubOpen(t, db, nil)
		mock.ExpectPing()

		var buf bytes.Buffer
		gotDB, err := NewPostgres(context.Background(), conf, logging.New(&buf, time.UTC))
		require.NoError(t, err)
		assert.NotNil(t, gotDB)
		assert.NoError(t, mock.ExpectationsWereMet())

		events := logEvents(t, &buf)
		require.Len(t, events, 1)
		assert.Equal(t, "db_connected", events[0]["event"])
		assert.Equal(t, "database", events[0]["component"])
		assert.Equal(t, "db", events[0]["db_host"])
		assert.NotContains(t, buf.String(), "pass")
	})

	t.Run("open error is logged", func(t *testing.T) {
		stubOpen(t, nil, errors.New("open error"))

		var buf bytes.Buffer
		gotDB, err := NewPostgres(context.Background(), conf, logging.New(&buf, time.UTC))
		assert.Nil(t, gotDB)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sql open: open error")

		events := logEvents(t, &buf)
		require.Len(t, events, 1)
		assert.Equal(t, "db_connect_failed", events[0]["event"])
		assert.Equal(t, "open", events[0]["stage"])
		assert.Equal(t, "error", events[0]["level"])
	})

	t.Run("ping error is logged and closes the pool", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		stubOpen(t, db, nil)
		mock.ExpectPing().WillReturnError(errors.New("ping failed"))
		mock.ExpectClose()

		var buf bytes.Buffer
		gotDB, err := NewPostgres(context.Background(), conf, logging.New(&buf, time.UTC))
		assert.Nil(t, gotDB)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db ping: ping failed")
		assert.NoError(t, mock.ExpectationsWereMet())

		events := logEvents(t, &buf)
		require.Len(t, events, 1)
		assert.Equal(t, "ping", events[0]["stage"])
		assert.Equal(t, "ping failed", events[0]["error_message"])
	})

	t.Run("cancelled startup context aborts the ping", func(t *testing.T) {
		db, _, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		stubOpen(t, db, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		gotDB, err := NewPostgres(ctx, conf, logging.Nop())
		assert.Nil(t, gotDB)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("invalid config is logged", func(t *testing.T) {
		var buf bytes.Buffer
		gotDB, err := NewPostgres(context.Background(), config.DatabaseConfig{}, logging.New(&buf, time.UTC))
		assert.Error(t, err)
		assert.Nil(t, gotDB)
		assert.Contains(t, buf.String(), `"event":"db_config_invalid"`)
	})
}
