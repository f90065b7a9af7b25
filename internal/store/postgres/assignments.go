package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"contractor-matching/internal/models"
	"contractor-matching/internal/store"
)

func (s *Store) GetActiveAssignment(ctx context.Context, requestID string) (*models.Assignment, error) {
	var (
		a         models.Assignment
		revokedBy sql.NullString
		revokedAt sql.NullTime
		reason    sql.NullString
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT id, service_request_id, contractor_id, assigned_by, assigned_at, status,
		       revoked_by, revoked_at, revoke_reason
		FROM contractor_assignments
		WHERE service_request_id = $1 AND status = 'active'`, requestID,
	).Scan(
		&a.ID, &a.ServiceRequestID, &a.ContractorID, &a.AssignedBy, &a.AssignedAt, &a.Status,
		&revokedBy, &revokedAt, &reason,
	)
	if err != nil {
		return nil, translate(err)
	}

	a.RevokedBy = revokedBy.String
	a.RevokeReason = reason.String
	if revokedAt.Valid {
		t := revokedAt.Time
		a.RevokedAt = &t
	}
	return &a, nil
}

// CommitAssignment moves the request to assigned and inserts the assignment
// in one transaction. The status_version guard and the partial unique index
// on active assignments both surface as store.ErrStale.
func (s *Store) CommitAssignment(ctx context.Context, req *models.ServiceRequest, a *models.Assignment) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE service_requests
			SET status = $1, status_version = status_version + 1, assigned_contractor_id = $2
			WHERE id = $3 AND status = $4 AND status_version = $5`,
			string(models.RequestAssigned), a.ContractorID, req.ID, string(models.RequestPending), req.StatusVersion,
		)
		if err != nil {
			return fmt.Errorf("update service request: %w", translate(err))
		}
		if err := expectOneRow(res); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO contractor_assignments (id, service_request_id, contractor_id, assigned_by, assigned_at, status)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			a.ID, a.ServiceRequestID, a.ContractorID, a.AssignedBy, a.AssignedAt, string(a.Status),
		)
		if err != nil {
			return fmt.Errorf("insert assignment: %w", translate(err))
		}
		return nil
	})
	if err != nil {
		return err
	}

	req.Status = models.RequestAssigned
	req.StatusVersion++
	req.AssignedContractorID = a.ContractorID
	return nil
}

func (s *Store) RevokeAssignment(ctx context.Context, req *models.ServiceRequest, a *models.Assignment, r store.Revocation) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE service_requests
			SET status = $1, status_version = status_version + 1, assigned_contractor_id = NULL
			WHERE id = $2 AND status = $3 AND status_version = $4`,
			string(models.RequestPending), req.ID, string(models.RequestAssigned), req.StatusVersion,
		)
		if err != nil {
			return fmt.Errorf("update service request: %w", translate(err))
		}
		if err := expectOneRow(res); err != nil {
			return err
		}

		res, err = tx.ExecContext(ctx, `
			UPDATE contractor_assignments
			SET status = $1, revoked_by = $2, revoked_at = $3, revoke_reason = $4
			WHERE id = $5 AND status = $6`,
			string(models.AssignmentRevoked), r.RevokedBy, r.RevokedAt, r.Reason, a.ID, string(models.AssignmentActive),
		)
		if err != nil {
			return fmt.Errorf("revoke assignment: %w", translate(err))
		}
		return expectOneRow(res)
	})
	if err != nil {
		return err
	}

	revokedAt := r.RevokedAt
	a.Status = models.AssignmentRevoked
	a.RevokedBy = r.RevokedBy
	a.RevokedAt = &revokedAt
	a.RevokeReason = r.Reason

	req.Status = models.RequestPending
	req.StatusVersion++
	req.AssignedContractorID = ""
	return nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n != 1 {
		return store.ErrStale
	}
	return nil
}
