package matching

import (
	"context"
	"errors"
	"runtime"
	"time"

	"contractor-matching/internal/common/audit"
	apperrors "contractor-matching/internal/common/errors"
	"contractor-matching/internal/common/logger"
	"contractor-matching/internal/common/metrics"
	"contractor-matching/internal/models"
	"contractor-matching/internal/store"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("contractor-matching/matching")

type EngineConfig struct {
	// StoreTimeout bounds every store call.
	StoreTimeout time.Duration
	// ParallelThreshold is the pool size from which scoring fans out.
	ParallelThreshold int
	// Concurrency caps scoring goroutines; GOMAXPROCS when zero.
	Concurrency int
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		StoreTimeout:      3 * time.Second,
		ParallelThreshold: 32,
	}
}

// Engine runs the match pipeline: load request, filter, score, rank,
// truncate, audit.
type Engine struct {
	requests store.RequestStore
	filter   *CandidateFilter
	scorer   *Scorer
	audit    audit.Recorder
	cfg      EngineConfig
	logger   logger.Logger
}

func NewEngine(
	requests store.RequestStore,
	contractors store.ContractorStore,
	scorer *Scorer,
	recorder audit.Recorder,
	cfg EngineConfig,
	log logger.Logger,
) *Engine {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = runtime.GOMAXPROCS(0)
	}
	return &Engine{
		requests: requests,
		filter:   NewCandidateFilter(contractors, cfg.StoreTimeout, log),
		scorer:   scorer,
		audit:    recorder,
		cfg:      cfg,
		logger:   log.WithFields(map[string]interface{}{"component": "matching-engine"}),
	}
}

// MatchResult is a ranked match list with the criteria that produced it.
type MatchResult struct {
	Matches  []models.MatchCandidate
	Criteria SearchCriteria
}

// FindMatches returns up to maxResults ranked candidates. It is read-only
// apart from the audit event, so repeated calls over unchanged data return
// identical results.
func (e *Engine) FindMatches(ctx context.Context, serviceRequestID string, overrides Overrides) ([]models.MatchCandidate, error) {
	res, err := e.Match(ctx, serviceRequestID, overrides)
	if err != nil {
		return nil, err
	}
	return res.Matches, nil
}

// Match is FindMatches that also reports the effective criteria of the run,
// service gates included.
func (e *Engine) Match(ctx context.Context, serviceRequestID string, overrides Overrides) (*MatchResult, error) {
	ctx, span := tracer.Start(ctx, "matching.FindMatches")
	defer span.End()
	span.SetAttributes(attribute.String("service_request.id", serviceRequestID))

	started := time.Now()
	matches, req, criteria, report, err := e.findMatches(ctx, serviceRequestID, overrides)

	serviceType := "unknown"
	if req != nil {
		serviceType = string(req.ServiceType)
	}
	metrics.MatchDuration.WithLabelValues(serviceType).Observe(time.Since(started).Seconds())

	if err != nil {
		outcome := string(apperrors.KindOf(err))
		if errors.Is(err, context.Canceled) {
			outcome = "CANCELLED"
		}
		metrics.MatchRuns.WithLabelValues(serviceType, outcome).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Warn("match run failed", map[string]interface{}{
			"serviceRequestId": serviceRequestID,
			"error":            err.Error(),
		})
		return nil, err
	}

	metrics.MatchRuns.WithLabelValues(serviceType, "ok").Inc()
	metrics.MatchPoolSize.Observe(float64(report.Eligible))
	for gate, n := range report.Rejected {
		metrics.MatchRejections.WithLabelValues(gate).Add(float64(n))
	}
	span.SetAttributes(
		attribute.Int("pool.evaluated", report.Evaluated),
		attribute.Int("pool.eligible", report.Eligible),
		attribute.Int("matches.returned", len(matches)),
	)

	e.audit.Record(ctx, models.AuditEvent{
		Action:     models.AuditMatchingPerformed,
		EntityType: "service_request",
		EntityID:   serviceRequestID,
		ActorID:    audit.ActorFromContext(ctx),
		Details: map[string]interface{}{
			"serviceType":               serviceType,
			"totalContractorsEvaluated": report.Evaluated,
			"eligibleContractors":       report.Eligible,
			"topMatchesReturned":        len(matches),
		},
	})

	e.logger.Info("match run completed", map[string]interface{}{
		"serviceRequestId": serviceRequestID,
		"serviceType":      serviceType,
		"evaluated":        report.Evaluated,
		"eligible":         report.Eligible,
		"returned":         len(matches),
		"rejected":         report.Rejected,
		"durationMs":       time.Since(started).Milliseconds(),
	})
	return &MatchResult{Matches: matches, Criteria: criteria.report()}, nil
}

func (e *Engine) findMatches(ctx context.Context, serviceRequestID string, overrides Overrides) ([]models.MatchCandidate, *models.ServiceRequest, Criteria, FilterReport, error) {
	var (
		report   FilterReport
		criteria Criteria
	)

	if serviceRequestID == "" {
		return nil, nil, criteria, report, apperrors.NewValidationError("serviceRequestId is required")
	}
	if err := overrides.Validate(); err != nil {
		return nil, nil, criteria, report, err
	}

	req, err := e.loadRequest(ctx, serviceRequestID)
	if err != nil {
		return nil, nil, criteria, report, err
	}

	criteria = e.scorer.policy.criteriaFor(req, overrides)

	pool, report, err := e.filter.Eligible(ctx, criteria)
	if err != nil {
		return nil, req, criteria, report, err
	}

	candidates, err := e.scoreAll(ctx, pool, req, criteria)
	if err != nil {
		return nil, req, criteria, report, err
	}

	Rank(candidates)
	if len(candidates) > criteria.MaxResults {
		candidates = candidates[:criteria.MaxResults]
	}
	return candidates, req, criteria, report, nil
}

func (e *Engine) loadRequest(ctx context.Context, id string) (*models.ServiceRequest, error) {
	qctx, cancel := withTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()

	req, err := e.requests.GetServiceRequest(qctx, id)
	switch {
	case err == nil && req != nil:
		return req, nil
	case err == nil, errors.Is(err, store.ErrNotFound):
		return nil, apperrors.NewRequestNotFoundError(id)
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		return nil, apperrors.NewUnavailableError("service_requests", err)
	}
}

// scoreAll scores each survivor into its own slot, fanning out once the
// pool reaches the threshold. Scoring has no side effects, so cancellation
// just abandons the work.
func (e *Engine) scoreAll(ctx context.Context, pool []EligibleContractor, req *models.ServiceRequest, c Criteria) ([]models.MatchCandidate, error) {
	out := make([]models.MatchCandidate, len(pool))

	if len(pool) < e.cfg.ParallelThreshold || e.cfg.Concurrency == 1 {
		for i := range pool {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out[i] = e.scorer.Score(pool[i], req, c)
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)
	for i := range pool {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = e.scorer.Score(pool[i], req, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
