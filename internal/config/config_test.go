package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "DB_DRIVER", "DB_DSN", "BLOB_BASE_PATH", "DUMP_DIR",
		"ENABLE_DUMP", "CORS_ORIGINS", "RANDOM_SEED", "REQUEST_TIMEOUT"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Empty(t, c.DBDSN)
	assert.Equal(t, "./data", c.BlobBasePath)
	assert.NotEmpty(t, c.DumpDir)
	assert.True(t, c.EnableDump)
	assert.Equal(t, []string{"http://localhost:3000"}, c.CORSOrigins)
	assert.Zero(t, c.RandomSeed)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "postgres://u@h/db")
	t.Setenv("BLOB_BASE_PATH", "/srv/figures")
	t.Setenv("DUMP_DIR", "/srv/dumps")
	t.Setenv("ENABLE_DUMP", "false")
	t.Setenv("CORS_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("RANDOM_SEED", "42")
	t.Setenv("REQUEST_TIMEOUT", "5s")

	c := FromEnv()
	assert.Equal(t, ":9090", c.HTTPAddr)
	assert.Equal(t, "postgres", c.DBDriver)
	assert.Equal(t, "postgres://u@h/db", c.DBDSN)
	assert.Equal(t, "/srv/figures", c.BlobBasePath)
	assert.Equal(t, "/srv/dumps", c.DumpDir)
	assert.False(t, c.EnableDump)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORSOrigins)
	assert.Equal(t, int64(42), c.RandomSeed)
	assert.Equal(t, 5*time.Second, c.RequestTimeout)
}

func TestFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("ENABLE_DUMP", "maybe")
	t.Setenv("RANDOM_SEED", "abc")
	t.Setenv("REQUEST_TIMEOUT", "-1s")

	c := FromEnv()
	assert.True(t, c.EnableDump)
	assert.Zero(t, c.RandomSeed)
	assert.Equal(t, 30*time.Second, c.RequestTimeout)
}
