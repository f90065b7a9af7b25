// internal/common/config/config.go
package config

import (
	"fmt"
	"time"

	"contractor-matching/internal/matching"
)

type Config struct {
	App        AppConfig               `mapstructure:"app"`
	Camunda    CamundaConfig           `mapstructure:"camunda"`
	Database   DatabaseConfig          `mapstructure:"database"`
	Workers    map[string]WorkerConfig `mapstructure:"workers"`
	Logging    LoggingConfig           `mapstructure:"logging"`
	Matching   MatchingConfig          `mapstructure:"matching"`
	Assignment AssignmentConfig        `mapstructure:"assignment"`
	Audit      AuditConfig             `mapstructure:"audit"`
	Metrics    MetricsConfig           `mapstructure:"metrics"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	Insecure       bool   `mapstructure:"insecure"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// Contractor sources accepted by matching.contractor_source.
const (
	SourcePostgres      = "postgres"
	SourceElasticsearch = "elasticsearch"
	SourceMemory        = "memory"
)

type MatchingConfig struct {
	ContractorSource  string        `mapstructure:"contractor_source"`
	ContractorIndex   string        `mapstructure:"contractor_index"`
	StoreTimeout      time.Duration `mapstructure:"store_timeout"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
	ParallelThreshold int           `mapstructure:"parallel_threshold"`
	Concurrency       int           `mapstructure:"concurrency"`
	ScheduleTimezone  string        `mapstructure:"schedule_timezone"`
	// FixturesPath feeds the memory source.
	FixturesPath string `mapstructure:"fixtures_path"`

	Weights      matching.Weights           `mapstructure:"weights"`
	Availability matching.AvailabilityTiers `mapstructure:"availability"`
	Location     matching.LocationTiers     `mapstructure:"location"`
}

// Policy overlays the configured weights and tiers on the built-in policy.
// Sections left out of the file keep their defaults.
func (m MatchingConfig) Policy() (matching.Policy, error) {
	p := matching.DefaultPolicy()
	if m.Weights.Sum() != 0 {
		p.Weights = m.Weights
	}
	if m.Availability != (matching.AvailabilityTiers{}) {
		p.Availability = m.Availability
	}
	if len(m.Location.Steps) > 0 {
		p.Location = m.Location
	}
	if m.ScheduleTimezone != "" {
		loc, err := time.LoadLocation(m.ScheduleTimezone)
		if err != nil {
			return matching.Policy{}, fmt.Errorf("matching.schedule_timezone: %w", err)
		}
		p.ScheduleLocation = loc
	}
	if err := p.Validate(); err != nil {
		return matching.Policy{}, fmt.Errorf("matching policy: %w", err)
	}
	return p, nil
}

func (m MatchingConfig) EngineConfig() matching.EngineConfig {
	return matching.EngineConfig{
		StoreTimeout:      m.StoreTimeout,
		ParallelThreshold: m.ParallelThreshold,
		Concurrency:       m.Concurrency,
	}
}

// Lock backends accepted by assignment.lock_backend.
const (
	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"
)

type AssignmentConfig struct {
	LockBackend string        `mapstructure:"lock_backend"`
	LockTTL     time.Duration `mapstructure:"lock_ttl"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Audit backends accepted by audit.backend.
const (
	AuditBackendPostgres = "postgres"
	AuditBackendLog      = "log"
	AuditBackendNone     = "none"
)

type AuditConfig struct {
	Backend      string        `mapstructure:"backend"`
	BufferSize   int           `mapstructure:"buffer_size"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type MetricsConfig struct {
	ListenAddress string `mapstructure:"listen_address"`
}
