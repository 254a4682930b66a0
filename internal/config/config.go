package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	BlobBasePath string // uploaded figures
	DumpDir      string // scratch space for sqlite dumps
	EnableDump   bool

	CORSOrigins []string

	// RandomSeed seeds question sampling; zero means seed from the clock.
	RandomSeed     int64
	RequestTimeout time.Duration
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:       addr,
		DBDriver:       envOr("DB_DRIVER", "sqlite"),
		DBDSN:          envOr("DB_DSN", ""),
		BlobBasePath:   envOr("BLOB_BASE_PATH", "./data"),
		DumpDir:        envOr("DUMP_DIR", os.TempDir()),
		EnableDump:     envBool("ENABLE_DUMP", true),
		CORSOrigins:    csvOr("CORS_ORIGINS", "http://localhost:3000"),
		RandomSeed:     envInt64("RANDOM_SEED", 0),
		RequestTimeout: envDuration("REQUEST_TIMEOUT", 30*time.Second),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envInt64(k string, def int64) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(os.Getenv(k)), 10, 64)
	if err != nil {
		return def
	}
	return v
}

func envDuration(k string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(k)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
