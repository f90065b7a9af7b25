package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"contractor-matching/internal/models"
)

// PostgresBackend inserts events into audit_log.
type PostgresBackend struct {
	db *sql.DB
}

func NewPostgresBackend(db *sql.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

func (b *PostgresBackend) Write(ctx context.Context, e models.AuditEvent) error {
	details, err := json.Marshal(e.Details)
	if err != nil {
		details = []byte("{}")
	}

	_, err = b.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, event_type, resource_type, resource_id, actor_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID,
		e.Action,
		e.EntityType,
		e.EntityID,
		e.ActorID,
		details,
		e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event %s: %w", e.Action, err)
	}
	return nil
}
