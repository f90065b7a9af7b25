// internal/models/assignment.go
package models

import "time"

type AssignmentStatus string

const (
	AssignmentActive  AssignmentStatus = "active"
	AssignmentRevoked AssignmentStatus = "revoked"
)

// Assignment binds one contractor to one service request.
type Assignment struct {
	ID               string           `json:"id"`
	ServiceRequestID string           `json:"serviceRequestId"`
	ContractorID     string           `json:"contractorId"`
	AssignedBy       string           `json:"assignedBy"`
	AssignedAt       time.Time        `json:"assignedAt"`
	Status           AssignmentStatus `json:"status"`
	RevokedBy        string           `json:"revokedBy,omitempty"`
	RevokedAt        *time.Time       `json:"revokedAt,omitempty"`
	RevokeReason     string           `json:"revokeReason,omitempty"`
}
