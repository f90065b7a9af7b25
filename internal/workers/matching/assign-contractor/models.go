package assigncontractor

import "contractor-matching/internal/models"

type Input struct {
	ServiceRequestID string `json:"serviceRequestId"`
	ContractorID     string `json:"contractorId"`
	ActorID          string `json:"actorId"`
	ActorRole        string `json:"actorRole"`
}

type Output struct {
	Assignment           models.Assignment    `json:"assignment"`
	ServiceRequestStatus models.RequestStatus `json:"serviceRequestStatus"`
	AssignedContractorID string               `json:"assignedContractorId"`
}

const inputSchema = `{
  "type": "object",
  "required": ["serviceRequestId", "contractorId", "actorId"],
  "properties": {
    "serviceRequestId": {"type": "string", "minLength": 1},
    "contractorId": {"type": "string", "minLength": 1},
    "actorId": {"type": "string", "minLength": 1},
    "actorRole": {"type": "string"}
  }
}`
