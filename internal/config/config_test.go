package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	// Save current env and restore later
	origHost := os.Getenv("DB_HOST")
	defer os.Setenv("DB_HOST", origHost)

	os.Setenv("DB_HOST", "test-host")
	os.Setenv("DB_MAX_OPEN_CONNS", "20")
	os.Setenv("MINIO_USE_SSL", "true")
	defer os.Unsetenv("DB_MAX_OPEN_CONNS")
	defer os.Unsetenv("MINIO_USE_SSL")

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
}

func TestLoad_StorageDefaults(t *testing.T) {
	t.Setenv("UPLOAD_PATH", "")
	t.Setenv("MAX_UPLOAD_BYTES", "")
	t.Setenv("ALLOWED_EXTENSIONS", "")
	t.Setenv("SIGNED_URL_TTL", "")

	cfg := Load()

	assert.Equal(t, "uploads", cfg.Storage.LocalRoot)
	assert.Equal(t, int64(10*1024*1024), cfg.Storage.MaxUploadBytes)
	assert.Equal(t, DefaultAllowedExtensions, cfg.Storage.AllowedExtensions)
	assert.Equal(t, 5*time.Minute, cfg.Storage.SignedURLTTL)
}

func TestLoad_StorageOverrides(t *testing.T) {
	t.Setenv("UPLOAD_PATH", "/srv/files")
	t.Setenv("MAX_UPLOAD_BYTES", "2048")
	t.Setenv("ALLOWED_EXTENSIONS", " .PDF, txt ,,")
	t.Setenv("SIGNED_URL_TTL", "60")

	cfg := Load()

	assert.Equal(t, "/srv/files", cfg.Storage.LocalRoot)
	assert.Equal(t, int64(2048), cfg.Storage.MaxUploadBytes)
	assert.Equal(t, []string{"pdf", "txt"}, cfg.Storage.AllowedExtensions)
	assert.Equal(t, time.Minute, cfg.Storage.SignedURLTTL)
}

func TestCredentialCompleteness(t *testing.T) {
	s3 := S3Config{AccessKeyID: "id", SecretAccessKey: "secret", Region: "eu-west-1", Bucket: "docs"}
	assert.True(t, s3.Complete())
	s3.Region = ""
	assert.False(t, s3.Complete())

	m := MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "docs"}
	assert.True(t, m.Complete())
	m.SecretKey = ""
	assert.False(t, m.Complete())
}

func TestLocation(t *testing.T) {
	cfg := &AppConfig{TimeZone: "Asia/Jakarta"}
	assert.Equal(t, "Asia/Jakarta", cfg.Location().String())

	cfg.TimeZone = "Not/AZone"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}

func TestGetEnvDuration(t *testing.T) {
	key := "TEST_DURATION_VAR"

	t.Setenv(key, "2m")
	assert.Equal(t, 2*time.Minute, getEnvDuration(key, time.Second))

	t.Setenv(key, "45")
	assert.Equal(t, 45*time.Second, getEnvDuration(key, time.Second))

	t.Setenv(key, "soon")
	assert.Equal(t, time.Second, getEnvDuration(key, time.Second))
}

func TestGetEnvFloat(t *testing.T) {
	key := "TEST_FLOAT_VAR"

	t.Setenv(key, "2.5")
	assert.Equal(t, 2.5, getEnvFloat(key, 1))

	t.Setenv(key, "x")
	assert.Equal(t, 1.0, getEnvFloat(key, 1))
}
