// Package bootstrap wires configuration into the stores, the matching engine
// and the assignment manager. The worker process and matchctl share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contractor-matching/internal/assignment"
	"contractor-matching/internal/common/audit"
	"contractor-matching/internal/common/config"
	"contractor-matching/internal/common/database"
	"contractor-matching/internal/common/logger"
	"contractor-matching/internal/matching"
	"contractor-matching/internal/store"
	"contractor-matching/internal/store/cache"
	"contractor-matching/internal/store/memory"
	"contractor-matching/internal/store/postgres"
	"contractor-matching/internal/store/search"
)

type Components struct {
	Config *config.Config

	Requests    store.RequestStore
	Contractors store.ContractorStore
	Assignments store.AssignmentStore

	Engine  *matching.Engine
	Manager *assignment.Manager

	Postgres      *database.PostgresClient
	Redis         *database.RedisClient
	Elasticsearch *database.ElasticsearchClient

	// SQL and Search are set when their backend is configured; matchctl
	// migrate uses them directly.
	SQL    *postgres.Store
	Search *search.ContractorStore
	Memory *memory.Store

	recorder *audit.AsyncRecorder
	logger   logger.Logger
}

// Options tunes connection retries. The zero value connects once.
type Options struct {
	ConnectAttempts int
	ConnectDelay    time.Duration
}

// Build connects every backend cfg names and assembles the core. On error
// whatever was already opened is closed again.
func Build(ctx context.Context, cfg *config.Config, opts Options, log logger.Logger) (*Components, error) {
	c := &Components{Config: cfg, logger: log}
	if err := c.build(ctx, opts); err != nil {
		_ = c.Close(context.Background())
		return nil, err
	}
	return c, nil
}

func (c *Components) build(ctx context.Context, opts Options) error {
	cfg := c.Config

	if cfg.Matching.ContractorSource != config.SourceMemory || cfg.Audit.Backend == config.AuditBackendPostgres {
		err := retry(ctx, opts, c.logger, "PostgreSQL connection", func() error {
			pg, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			if err := pg.Ping(ctx); err != nil {
				_ = pg.Close()
				return err
			}
			c.Postgres = pg
			return nil
		})
		if err != nil {
			return err
		}
		c.SQL = postgres.New(c.Postgres.DB, c.logger)
	}

	if cfg.NeedsRedis() {
		c.Redis = database.NewRedis(cfg.Database.Redis)
		if err := retry(ctx, opts, c.logger, "Redis connection", func() error { return c.Redis.Ping(ctx) }); err != nil {
			return err
		}
	}

	if err := c.buildStores(ctx, opts); err != nil {
		return err
	}
	c.buildRecorder()

	policy, err := cfg.Matching.Policy()
	if err != nil {
		return err
	}
	scorer, err := matching.NewScorer(policy)
	if err != nil {
		return err
	}
	c.Engine = matching.NewEngine(c.Requests, c.Contractors, scorer, c.Recorder(), cfg.Matching.EngineConfig(), c.logger)

	var locker assignment.Locker
	if cfg.Assignment.LockBackend == config.LockBackendRedis {
		locker = assignment.NewRedisLocker(c.Redis.Client, cfg.Assignment.LockTTL)
	} else {
		locker = assignment.NewKeyedMutex()
	}
	c.Manager = assignment.NewManager(c.Requests, c.Contractors, c.Assignments, locker, c.Recorder(),
		assignment.Config{Timeout: cfg.Assignment.Timeout}, c.logger)

	c.logger.Info("core assembled", map[string]interface{}{
		"contractorSource": cfg.Matching.ContractorSource,
		"lockBackend":      cfg.Assignment.LockBackend,
		"auditBackend":     cfg.Audit.Backend,
		"cacheTTL":         cfg.Matching.CacheTTL.String(),
	})
	return nil
}

func (c *Components) buildStores(ctx context.Context, opts Options) error {
	cfg := c.Config

	switch cfg.Matching.ContractorSource {
	case config.SourceMemory:
		mem, err := memory.LoadFixtures(cfg.Matching.FixturesPath)
		if err != nil {
			return err
		}
		c.Memory = mem
		c.Requests, c.Contractors, c.Assignments = mem, mem, mem
		return nil

	case config.SourceElasticsearch:
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		if err := retry(ctx, opts, c.logger, "Elasticsearch connection", func() error { return es.Ping(ctx) }); err != nil {
			return err
		}
		c.Elasticsearch = es
		c.Search = search.NewContractorStore(es.Client, cfg.Matching.ContractorIndex, c.logger)
		c.Contractors = c.Search

	default:
		c.Contractors = c.SQL
	}
	c.Requests, c.Assignments = c.SQL, c.SQL

	if cfg.Matching.CacheTTL > 0 {
		c.Contractors = cache.NewContractorStore(c.Contractors, c.Redis.Client, cfg.Matching.CacheTTL, c.logger)
	}
	return nil
}

func (c *Components) buildRecorder() {
	var backend audit.Backend
	switch c.Config.Audit.Backend {
	case config.AuditBackendNone:
		return
	case config.AuditBackendPostgres:
		backend = audit.NewPostgresBackend(c.Postgres.DB)
	default:
		backend = audit.LogBackend{Logger: c.logger.WithFields(map[string]interface{}{"component": "audit"})}
	}
	c.recorder = audit.NewAsyncRecorder(backend, c.logger, c.Config.Audit.BufferSize, c.Config.Audit.WriteTimeout)
}

// Recorder is the audit sink, a no-op when auditing is off.
func (c *Components) Recorder() audit.Recorder {
	if c.recorder == nil {
		return audit.NopRecorder{}
	}
	return c.recorder
}

func (c *Components) Logger() logger.Logger { return c.logger }

// Dependencies lists the opened backends for readiness checks.
func (c *Components) Dependencies() []database.Pinger {
	var deps []database.Pinger
	if c.Postgres != nil {
		deps = append(deps, c.Postgres)
	}
	if c.Redis != nil {
		deps = append(deps, c.Redis)
	}
	if c.Elasticsearch != nil {
		deps = append(deps, c.Elasticsearch)
	}
	return deps
}

// Close drains the audit buffer first, then closes the connections.
func (c *Components) Close(ctx context.Context) error {
	var errs []error
	if c.recorder != nil {
		if err := c.recorder.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("audit: %w", err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if c.Postgres != nil {
		if err := c.Postgres.Close(); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	return errors.Join(errs...)
}

// retry runs op with exponential backoff until it succeeds, the attempts
// run out or ctx ends.
func retry(ctx context.Context, opts Options, log logger.Logger, name string, op func() error) error {
	attempts := opts.ConnectAttempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := opts.ConnectDelay

	var err error
	for i := 0; i < attempts; i++ {
		if err = op(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		log.Warn(name+" failed, retrying", map[string]interface{}{
			"error":       err.Error(),
			"attempt":     i + 1,
			"maxAttempts": attempts,
			"nextRetryIn": delay.String(),
		})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, err)
}
