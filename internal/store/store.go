// Package store defines the collaborator contracts the matching engine and
// the assignment manager depend on. Adapters live in sub-packages.
package store

import (
	"context"
	"errors"
	"time"

	"contractor-matching/internal/models"
)

var (
	// ErrNotFound is returned when the addressed record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStale is returned when a compare-and-swap lost against a newer
	// status version.
	ErrStale = errors.New("record changed concurrently")
)

type RequestStore interface {
	GetServiceRequest(ctx context.Context, id string) (*models.ServiceRequest, error)
}

type ContractorStore interface {
	ListContractors(ctx context.Context, q models.ContractorQuery) ([]*models.Contractor, error)
	GetContractor(ctx context.Context, id string) (*models.Contractor, error)
}

// Revocation describes who revoked an assignment and why.
type Revocation struct {
	RevokedBy string
	RevokedAt time.Time
	Reason    string
}

type AssignmentStore interface {
	GetActiveAssignment(ctx context.Context, requestID string) (*models.Assignment, error)
	// CommitAssignment moves req from pending to assigned and inserts a in one
	// atomic step, guarded by req.StatusVersion. ErrStale when the guard fails.
	CommitAssignment(ctx context.Context, req *models.ServiceRequest, a *models.Assignment) error
	// RevokeAssignment marks a revoked and returns req to pending, guarded
	// the same way.
	RevokeAssignment(ctx context.Context, req *models.ServiceRequest, a *models.Assignment, r Revocation) error
}
