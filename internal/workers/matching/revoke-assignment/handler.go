package revokeassignment

import (
	"context"
	"encoding/json"

	"contractor-matching/internal/assignment"
	"contractor-matching/internal/common/audit"
	"contractor-matching/internal/common/camunda"
	apperrors "contractor-matching/internal/common/errors"
	"contractor-matching/internal/common/logger"
	"contractor-matching/internal/common/validation"
	"contractor-matching/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "revoke-assignment"
)

var schema = validation.MustCompile(inputSchema)

type Revoker interface {
	Revoke(ctx context.Context, requestID, actorID, reason string) (*assignment.Result, error)
}

type Handler struct {
	config       *Config
	revoker      Revoker
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, revoker Revoker, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		revoker:      revoker,
		logger:       log,
		errorHandler: apperrors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job.Variables)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	if err := camunda.CompleteJob(ctx, client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{"jobKey": job.Key, "error": err})
		return err
	}
	return nil
}

func parseInput(variables string) (*Input, error) {
	result, err := schema.ValidateJSON([]byte(variables))
	if err != nil {
		return nil, apperrors.NewValidationError("job variables are not valid JSON")
	}
	if !result.Valid {
		return nil, apperrors.NewValidationError(result.Error())
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewValidationError("parse input: " + err.Error())
	}
	return &input, nil
}

// execute requires an explicit role: automated callers may assign but
// never revoke.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if !models.Role(input.ActorRole).Can(models.CapRevokeAssignment) {
		return nil, apperrors.NewActorNotAuthorizedError(input.ActorID, string(models.CapRevokeAssignment))
	}

	res, err := h.revoker.Revoke(audit.WithActor(ctx, input.ActorID), input.ServiceRequestID, input.ActorID, input.Reason)
	if err != nil {
		return nil, err
	}

	h.logger.Info("assignment revoked", map[string]interface{}{
		"serviceRequestId": input.ServiceRequestID,
		"contractorId":     res.Assignment.ContractorID,
	})

	return &Output{
		Assignment:           res.Assignment,
		ServiceRequestStatus: res.Request.Status,
		RevokedContractorID:  res.Assignment.ContractorID,
	}, nil
}

// Execute runs the worker logic without a Zeebe job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
