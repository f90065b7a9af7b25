// Package assignment commits a chosen contractor to a service request and
// revokes the binding again.
package assignment

import (
	"context"
	"errors"
	"time"

	"contractor-matching/internal/common/audit"
	apperrors "contractor-matching/internal/common/errors"
	"contractor-matching/internal/common/logger"
	"contractor-matching/internal/common/metrics"
	"contractor-matching/internal/models"
	"contractor-matching/internal/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("contractor-matching/assignment")

type Config struct {
	// Timeout bounds the store work done once the request lock is held.
	Timeout time.Duration
}

// Result is the committed assignment and the request state after it.
type Result struct {
	Assignment models.Assignment     `json:"assignment"`
	Request    models.ServiceRequest `json:"serviceRequest"`
}

// Manager serializes assign and revoke per service request with a Locker
// and relies on the store's compare-and-swap across processes.
type Manager struct {
	requests    store.RequestStore
	contractors store.ContractorStore
	assignments store.AssignmentStore
	locker      Locker
	audit       audit.Recorder
	cfg         Config
	logger      logger.Logger

	now   func() time.Time
	newID func() string
}

func NewManager(
	requests store.RequestStore,
	contractors store.ContractorStore,
	assignments store.AssignmentStore,
	locker Locker,
	recorder audit.Recorder,
	cfg Config,
	log logger.Logger,
) *Manager {
	if locker == nil {
		locker = NewKeyedMutex()
	}
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Manager{
		requests:    requests,
		contractors: contractors,
		assignments: assignments,
		locker:      locker,
		audit:       recorder,
		cfg:         cfg,
		logger:      log.WithFields(map[string]interface{}{"component": "assignment-manager"}),
		now:         time.Now,
		newID:       func() string { return uuid.New().String() },
	}
}

// Assign binds contractorID to a pending request. Exactly one of any set of
// racing calls for the same request succeeds; the rest get a Conflict.
func (m *Manager) Assign(ctx context.Context, requestID, contractorID, actorID string) (*Result, error) {
	ctx, span := tracer.Start(ctx, "assignment.Assign", trace.WithAttributes(
		attribute.String("service_request.id", requestID),
		attribute.String("contractor.id", contractorID),
	))
	defer span.End()

	res, err := m.assign(ctx, requestID, contractorID, actorID)
	return res, m.observe(span, "assign", err)
}

func (m *Manager) assign(ctx context.Context, requestID, contractorID, actorID string) (*Result, error) {
	if requestID == "" || contractorID == "" || actorID == "" {
		return nil, apperrors.NewValidationError("serviceRequestId, contractorId and actorId are required")
	}

	unlock, err := m.lock(ctx, requestID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Past this point the commit runs to completion or not at all,
	// independent of the caller's cancellation.
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.Timeout)
	defer cancel()

	req, err := m.loadRequest(opCtx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestPending || !models.CanTransition(req.Status, models.RequestAssigned) {
		return nil, apperrors.NewConflictError("service request status is "+string(req.Status)).
			WithMetadata("serviceRequestId", requestID).
			WithMetadata("status", string(req.Status))
	}

	if _, err := m.loadContractor(opCtx, contractorID); err != nil {
		return nil, err
	}

	existing, err := m.assignments.GetActiveAssignment(opCtx, requestID)
	switch {
	case err == nil && existing != nil:
		return nil, apperrors.NewConflictError("service request already has an active assignment").
			WithMetadata("assignmentId", existing.ID)
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return nil, apperrors.NewUnavailableError("assignments", err)
	}

	a := &models.Assignment{
		ID:               m.newID(),
		ServiceRequestID: requestID,
		ContractorID:     contractorID,
		AssignedBy:       actorID,
		AssignedAt:       m.now().UTC(),
		Status:           models.AssignmentActive,
	}
	if err := m.assignments.CommitAssignment(opCtx, req, a); err != nil {
		return nil, m.commitError(err, requestID)
	}

	m.audit.Record(opCtx, models.AuditEvent{
		Action:     models.AuditContractorAssigned,
		EntityType: "service_request",
		EntityID:   requestID,
		ActorID:    actorID,
		Details: map[string]interface{}{
			"assignmentId": a.ID,
			"contractorId": contractorID,
			"assignedAt":   a.AssignedAt.Format(time.RFC3339),
		},
	})
	m.logger.Info("contractor assigned", map[string]interface{}{
		"serviceRequestId": requestID,
		"contractorId":     contractorID,
		"assignmentId":     a.ID,
		"actorId":          actorID,
	})

	return &Result{Assignment: *a, Request: *req}, nil
}

// Revoke releases the active assignment and returns the request to pending.
func (m *Manager) Revoke(ctx context.Context, requestID, actorID, reason string) (*Result, error) {
	ctx, span := tracer.Start(ctx, "assignment.Revoke", trace.WithAttributes(
		attribute.String("service_request.id", requestID),
	))
	defer span.End()

	res, err := m.revoke(ctx, requestID, actorID, reason)
	return res, m.observe(span, "revoke", err)
}

func (m *Manager) revoke(ctx context.Context, requestID, actorID, reason string) (*Result, error) {
	if requestID == "" || actorID == "" {
		return nil, apperrors.NewValidationError("serviceRequestId and actorId are required")
	}

	unlock, err := m.lock(ctx, requestID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.Timeout)
	defer cancel()

	req, err := m.loadRequest(opCtx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestAssigned || !models.CanTransition(req.Status, models.RequestPending) {
		return nil, apperrors.NewConflictError("service request status is "+string(req.Status)).
			WithMetadata("serviceRequestId", requestID).
			WithMetadata("status", string(req.Status))
	}

	a, err := m.assignments.GetActiveAssignment(opCtx, requestID)
	switch {
	case errors.Is(err, store.ErrNotFound), err == nil && a == nil:
		return nil, apperrors.NewAssignmentNotFoundError(requestID)
	case err != nil:
		return nil, apperrors.NewUnavailableError("assignments", err)
	}

	rev := store.Revocation{RevokedBy: actorID, RevokedAt: m.now().UTC(), Reason: reason}
	if err := m.assignments.RevokeAssignment(opCtx, req, a, rev); err != nil {
		return nil, m.commitError(err, requestID)
	}

	m.audit.Record(opCtx, models.AuditEvent{
		Action:     models.AuditAssignmentRevoked,
		EntityType: "service_request",
		EntityID:   requestID,
		ActorID:    actorID,
		Details: map[string]interface{}{
			"assignmentId": a.ID,
			"contractorId": a.ContractorID,
			"reason":       reason,
		},
	})
	m.logger.Info("assignment revoked", map[string]interface{}{
		"serviceRequestId": requestID,
		"assignmentId":     a.ID,
		"actorId":          actorID,
	})

	return &Result{Assignment: *a, Request: *req}, nil
}

func (m *Manager) lock(ctx context.Context, requestID string) (func(), error) {
	unlock, err := m.locker.Lock(ctx, requestID)
	if err == nil {
		return unlock, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return nil, apperrors.NewUnavailableError("assignment_lock", err)
}

func (m *Manager) loadRequest(ctx context.Context, id string) (*models.ServiceRequest, error) {
	req, err := m.requests.GetServiceRequest(ctx, id)
	switch {
	case err == nil && req != nil:
		return req, nil
	case err == nil, errors.Is(err, store.ErrNotFound):
		return nil, apperrors.NewRequestNotFoundError(id)
	default:
		return nil, apperrors.NewUnavailableError("service_requests", err)
	}
}

func (m *Manager) loadContractor(ctx context.Context, id string) (*models.Contractor, error) {
	c, err := m.contractors.GetContractor(ctx, id)
	switch {
	case err == nil && c != nil:
		return c, nil
	case err == nil, errors.Is(err, store.ErrNotFound):
		return nil, apperrors.NewContractorNotFoundError(id)
	default:
		return nil, apperrors.NewUnavailableError("contractors", err)
	}
}

func (m *Manager) commitError(err error, requestID string) error {
	switch {
	case errors.Is(err, store.ErrStale):
		return apperrors.NewConflictError("service request changed concurrently").
			WithMetadata("serviceRequestId", requestID)
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NewRequestNotFoundError(requestID)
	default:
		return apperrors.NewUnavailableError("assignments", err)
	}
}

func (m *Manager) observe(span trace.Span, operation string, err error) error {
	outcome := "ok"
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		outcome = string(apperrors.KindOf(err))
		if errors.Is(err, context.Canceled) {
			outcome = "CANCELLED"
		}
	}
	metrics.Assignments.WithLabelValues(operation, outcome).Inc()
	return err
}
