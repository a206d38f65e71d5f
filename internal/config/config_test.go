package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DB_DRIVER", "WEEK_START", "TIMEZONE", "KAFKA_BROKERS", "REDIS_ADDR", "GRAPH_CACHE_TTL_SECONDS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, time.Sunday, cfg.WeekStart)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 10*time.Minute, cfg.GraphCacheTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("WEEK_START", "Monday")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REPORT_CONCURRENCY", "not-a-number")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, time.Monday, cfg.WeekStart)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 4, cfg.ReportConcurrency)
}
