// Package audit records domain events on a side channel. Recording never
// blocks or fails the operation that emits the event.
package audit

import (
	"context"
	"sync"
	"time"

	"contractor-matching/internal/common/logger"
	"contractor-matching/internal/common/metrics"
	"contractor-matching/internal/models"

	"github.com/google/uuid"
)

// SystemActor is used when no actor is attached to the context.
const SystemActor = "system"

type Recorder interface {
	Record(ctx context.Context, e models.AuditEvent)
}

// Backend persists one event.
type Backend interface {
	Write(ctx context.Context, e models.AuditEvent) error
}

type actorKey struct{}

func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok && v != "" {
		return v
	}
	return SystemActor
}

// AsyncRecorder buffers events and writes them from a single goroutine.
// A full buffer drops the event with a warning.
type AsyncRecorder struct {
	backend      Backend
	logger       logger.Logger
	events       chan models.AuditEvent
	writeTimeout time.Duration
	now          func() time.Time

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
	done      chan struct{}
}

func NewAsyncRecorder(backend Backend, log logger.Logger, bufferSize int, writeTimeout time.Duration) *AsyncRecorder {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	r := &AsyncRecorder{
		backend:      backend,
		logger:       log.WithFields(map[string]interface{}{"component": "audit"}),
		events:       make(chan models.AuditEvent, bufferSize),
		writeTimeout: writeTimeout,
		now:          time.Now,
		done:         make(chan struct{}),
	}
	go r.run()
	return r
}

// Record stamps id and timestamp when missing and enqueues the event.
func (r *AsyncRecorder) Record(_ context.Context, e models.AuditEvent) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = r.now().UTC()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.drop(e, "recorder closed")
		return
	}

	select {
	case r.events <- e:
	default:
		r.drop(e, "buffer full")
	}
}

func (r *AsyncRecorder) drop(e models.AuditEvent, reason string) {
	metrics.AuditEventsDropped.Inc()
	r.logger.Warn("audit event dropped", map[string]interface{}{
		"action":   e.Action,
		"entityId": e.EntityID,
		"reason":   reason,
	})
}

func (r *AsyncRecorder) run() {
	defer close(r.done)
	for e := range r.events {
		ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
		if err := r.backend.Write(ctx, e); err != nil {
			metrics.AuditEventsDropped.Inc()
			r.logger.Warn("audit log insert failed", map[string]interface{}{
				"error":    err,
				"action":   e.Action,
				"entityId": e.EntityID,
			})
		}
		cancel()
	}
}

// Close stops accepting events and waits for the buffer to drain or ctx to
// expire.
func (r *AsyncRecorder) Close(ctx context.Context) error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.events)
		r.mu.Unlock()
	})
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogBackend writes events to the structured log only.
type LogBackend struct {
	Logger logger.Logger
}

func (b LogBackend) Write(_ context.Context, e models.AuditEvent) error {
	b.Logger.Info("audit event", map[string]interface{}{
		"eventId":    e.ID,
		"action":     e.Action,
		"entityType": e.EntityType,
		"entityId":   e.EntityID,
		"actorId":    e.ActorID,
		"details":    e.Details,
	})
	return nil
}

// NopRecorder discards events.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, models.AuditEvent) {}
