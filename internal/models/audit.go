package models

import "time"

const (
	AuditMatchingPerformed  = "contractor_matching_performed"
	AuditContractorAssigned = "contractor_assigned"
	AuditAssignmentRevoked  = "contractor_assignment_revoked"
)

// AuditEvent is written to the audit log as a side channel; losing one never
// fails the operation that produced it.
type AuditEvent struct {
	ID         string                 `json:"id"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entityType"`
	EntityID   string                 `json:"entityId"`
	ActorID    string                 `json:"actorId"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}
