package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
app:
  name: contractor-matching
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: matching
    user: matcher
  elasticsearch:
    addresses: http://es-1:9200,http://es-2:9200
  redis:
    address: localhost:6379
workers:
  find-contractor-matches:
    enabled: true
    timeout: 15000
matching:
  contractor_source: elasticsearch
  store_timeout: 1500ms
  cache_ttl: 2m
  schedule_timezone: America/New_York
  weights:
    expertise: 0.4
    availability: 0.2
    location: 0.2
    performance: 0.15
    preference: 0.05
assignment:
  lock_backend: redis
  lock_ttl: 30s
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, 1500*time.Millisecond, cfg.Matching.StoreTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Matching.CacheTTL)
	assert.Equal(t, 30*time.Second, cfg.Assignment.LockTTL)
	assert.Equal(t, []string{"http://es-1:9200", "http://es-2:9200"}, cfg.Database.Elasticsearch.Addresses)

	// defaults
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, 32, cfg.Matching.ParallelThreshold)
	assert.Equal(t, AuditBackendPostgres, cfg.Audit.Backend)
	assert.Equal(t, 256, cfg.Audit.BufferSize)

	w := GetWorkerConfig(cfg, "find-contractor-matches")
	assert.Equal(t, 15000, w.Timeout)
	assert.Equal(t, 3, w.MaxRetries)
	assert.True(t, IsWorkerEnabled(cfg, "assign-contractor"))

	p, err := cfg.Matching.Policy()
	require.NoError(t, err)
	assert.Equal(t, 0.4, p.Weights.Expertise)
	assert.Equal(t, "America/New_York", p.ScheduleLocation.String())
	assert.Equal(t, 1.0, p.Availability.FullCover, "unset tiers keep defaults")
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	t.Setenv("CAMUNDA_BROKER_ADDRESS", "zeebe:26500")
	t.Setenv("MATCHING_STORE_TIMEOUT", "750ms")

	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)
	assert.Equal(t, "zeebe:26500", cfg.Camunda.BrokerAddress)
	assert.Equal(t, 750*time.Millisecond, cfg.Matching.StoreTimeout)
}

func TestLoadFromFile_ExpandsPlaceholders(t *testing.T) {
	t.Setenv("TEST_PG_PASSWORD", "s3cret")
	body := baseYAML + "\n" + `
audit:
  backend: log
`
	body = strings.Replace(body, "    user: matcher", "    user: matcher\n    password: ${TEST_PG_PASSWORD}", 1)

	cfg, err := LoadFromFile(writeConfig(t, body))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Database.Postgres.Password)
	assert.Equal(t, AuditBackendLog, cfg.Audit.Backend)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing broker",
			yaml: "matching:\n  contractor_source: memory\n  fixtures_path: f.json\naudit:\n  backend: none\n",
			want: "camunda.broker_address",
		},
		{
			name: "unknown source",
			yaml: "camunda:\n  broker_address: x:1\nmatching:\n  contractor_source: mongo\n",
			want: "contractor_source",
		},
		{
			name: "weights do not sum to one",
			yaml: "camunda:\n  broker_address: x:1\nmatching:\n  contractor_source: memory\n  fixtures_path: f.json\n  weights:\n    expertise: 0.9\n    location: 0.9\naudit:\n  backend: none\n",
			want: "matching policy",
		},
		{
			name: "redis lock without redis",
			yaml: "camunda:\n  broker_address: x:1\nmatching:\n  contractor_source: memory\n  fixtures_path: f.json\nassignment:\n  lock_backend: redis\naudit:\n  backend: none\n",
			want: "database.redis.address",
		},
		{
			name: "bad timezone",
			yaml: "camunda:\n  broker_address: x:1\nmatching:\n  contractor_source: memory\n  fixtures_path: f.json\n  schedule_timezone: Mars/Olympus\naudit:\n  backend: none\n",
			want: "schedule_timezone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFromFile_MemoryOnlyNeedsNoDatabase(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, "camunda:\n  broker_address: x:1\nmatching:\n  contractor_source: memory\n  fixtures_path: f.json\naudit:\n  backend: log\n"))
	require.NoError(t, err)
	assert.False(t, cfg.NeedsRedis())
	assert.Equal(t, LockBackendMemory, cfg.Assignment.LockBackend)
}
