package findcontractormatches

import (
	"encoding/json"

	"contractor-matching/internal/matching"
	"contractor-matching/internal/models"
)

type Input struct {
	ServiceRequestID string          `json:"serviceRequestId"`
	RequestedBy      string          `json:"requestedBy"`
	RequestedByRole  string          `json:"requestedByRole"`
	Overrides        json.RawMessage `json:"overrides,omitempty"`
}

type Output struct {
	Matches        []models.MatchCandidate `json:"matches"`
	Count          int                     `json:"count"`
	HasMatches     bool                    `json:"hasMatches"`
	SearchCriteria matching.SearchCriteria `json:"searchCriteria"`
}

// inputSchema checks only the variables this worker reads; the process may
// carry others.
const inputSchema = `{
  "type": "object",
  "required": ["serviceRequestId"],
  "properties": {
    "serviceRequestId": {"type": "string", "minLength": 1},
    "requestedBy": {"type": "string"},
    "requestedByRole": {"type": "string"},
    "overrides": {"type": ["object", "null"]}
  }
}`
