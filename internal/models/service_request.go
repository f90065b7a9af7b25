// internal/models/service_request.go
package models

import "time"

type RequestStatus string

const (
	RequestPending    RequestStatus = "pending"
	RequestAssigned   RequestStatus = "assigned"
	RequestInProgress RequestStatus = "in_progress"
	RequestCompleted  RequestStatus = "completed"
	RequestCancelled  RequestStatus = "cancelled"
	RequestFailed     RequestStatus = "failed"
)

// AllowedTransitions is the service request lifecycle. assigned -> pending
// is the revoke path.
var AllowedTransitions = map[RequestStatus][]RequestStatus{
	RequestPending:    {RequestAssigned, RequestCancelled},
	RequestAssigned:   {RequestInProgress, RequestPending, RequestCancelled},
	RequestInProgress: {RequestCompleted, RequestFailed},
}

func CanTransition(from, to RequestStatus) bool {
	for _, next := range AllowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NoPreference marks a preference dimension the client left open.
const NoPreference = "no_preference"

type ClientPreferences struct {
	Gender          string `json:"gender,omitempty"`
	Language        string `json:"language,omitempty"`
	ExperienceLevel string `json:"experienceLevel,omitempty"`
}

// Stated reports whether a preference value counts toward scoring.
func Stated(v string) bool {
	return v != "" && v != NoPreference
}

type ServiceRequest struct {
	ID                   string            `json:"id"`
	ClientID             string            `json:"clientId"`
	ServiceType          ServiceType       `json:"serviceType"`
	Location             *GeoPoint         `json:"location,omitempty"`
	PreferredStart       time.Time         `json:"preferredStartDate"`
	EstimatedHours       float64           `json:"estimatedHours"`
	SpecialRequirements  TagSet            `json:"specialRequirements,omitempty"`
	Preferences          ClientPreferences `json:"clientPreferences"`
	Status               RequestStatus     `json:"status"`
	StatusVersion        int64             `json:"statusVersion"`
	AssignedContractorID string            `json:"assignedContractorId,omitempty"`
	CreatedAt            time.Time         `json:"createdAt"`
}
