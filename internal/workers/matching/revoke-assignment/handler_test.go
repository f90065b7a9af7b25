package revokeassignment

import (
	"context"
	"testing"
	"time"

	"contractor-matching/internal/assignment"
	apperrors "contractor-matching/internal/common/errors"
	"contractor-matching/internal/common/logger"
	"contractor-matching/internal/models"
	"contractor-matching/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Handler, *assignment.Manager, *memory.Store) {
	s := memory.New()
	s.PutServiceRequest(&models.ServiceRequest{ID: "sr-1", ServiceType: models.ServiceEldercareSupport})
	s.PutServiceRequest(&models.ServiceRequest{ID: "sr-2", ServiceType: models.ServiceEldercareSupport})
	s.PutContractor(&models.Contractor{ID: "c-1", Status: models.ContractorActive})

	log := logger.NewTestLogger(t)
	m := assignment.NewManager(s, s, s, nil, nil, assignment.Config{Timeout: time.Second}, log)
	return NewHandler(&Config{Timeout: 5 * time.Second}, m, log), m, s
}

func TestHandler_Execute_Success(t *testing.T) {
	h, m, s := setup(t)
	_, err := m.Assign(context.Background(), "sr-1", "c-1", "emp-1")
	require.NoError(t, err)

	output, err := h.Execute(context.Background(), &Input{
		ServiceRequestID: "sr-1",
		ActorID:          "admin-1",
		ActorRole:        "admin",
		Reason:           "client rescheduled",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, output.ServiceRequestStatus)
	assert.Equal(t, "c-1", output.RevokedContractorID)
	assert.Equal(t, models.AssignmentRevoked, output.Assignment.Status)
	assert.Equal(t, "client rescheduled", output.Assignment.RevokeReason)

	req, err := s.GetServiceRequest(context.Background(), "sr-1")
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, req.Status)
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    *Input
		wantCode apperrors.ErrorCode
	}{
		{"system cannot revoke", &Input{ServiceRequestID: "sr-1", ActorID: "bpmn", ActorRole: "system"}, apperrors.ErrCodeActorNotAuthorized},
		{"missing role", &Input{ServiceRequestID: "sr-1", ActorID: "emp-1"}, apperrors.ErrCodeActorNotAuthorized},
		{"request not assigned", &Input{ServiceRequestID: "sr-2", ActorID: "emp-1", ActorRole: "employee"}, apperrors.ErrCodeAssignmentConflict},
		{"unknown request", &Input{ServiceRequestID: "sr-404", ActorID: "emp-1", ActorRole: "employee"}, apperrors.ErrCodeRequestNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, m, _ := setup(t)
			_, err := m.Assign(context.Background(), "sr-1", "c-1", "emp-1")
			require.NoError(t, err)

			_, err = h.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, apperrors.Normalize(err).Code)
		})
	}
}

func TestParseInput(t *testing.T) {
	in, err := parseInput(`{"serviceRequestId":"sr-1","actorId":"emp-1","actorRole":"employee","reason":"sick"}`)
	require.NoError(t, err)
	assert.Equal(t, "sick", in.Reason)

	_, err = parseInput(`{"serviceRequestId":"sr-1","actorId":"emp-1"}`)
	assert.True(t, apperrors.IsValidation(err))
}
