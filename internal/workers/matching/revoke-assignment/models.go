package revokeassignment

import "contractor-matching/internal/models"

type Input struct {
	ServiceRequestID string `json:"serviceRequestId"`
	ActorID          string `json:"actorId"`
	ActorRole        string `json:"actorRole"`
	Reason           string `json:"reason"`
}

type Output struct {
	Assignment           models.Assignment    `json:"assignment"`
	ServiceRequestStatus models.RequestStatus `json:"serviceRequestStatus"`
	RevokedContractorID  string               `json:"revokedContractorId"`
}

const inputSchema = `{
  "type": "object",
  "required": ["serviceRequestId", "actorId", "actorRole"],
  "properties": {
    "serviceRequestId": {"type": "string", "minLength": 1},
    "actorId": {"type": "string", "minLength": 1},
    "actorRole": {"type": "string", "minLength": 1},
    "reason": {"type": "string", "maxLength": 500}
  }
}`
