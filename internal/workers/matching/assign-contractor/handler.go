package assigncontractor

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
	TaskType = "assign-contractor"
)

var schema = validation.MustCompile(inputSchema)

type Assigner interface {
	Assign(ctx context.Context, requestID, contractorID, actorID string) (*assignment.Result, error)
}

type Handler struct {
	config       *Config
	assigner     Assigner
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, assigner Assigner, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		assigner:     assigner,
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

	var input Input
	result, err := schema.ValidateJSON([]byte(job.Variables))
	switch {
	case err != nil:
		err = apperrors.NewValidationError("job variables are not valid JSON")
	case !result.Valid:
		err = apperrors.NewValidationError(result.Error())
	default:
		if uerr := json.Unmarshal([]byte(job.Variables), &input); uerr != nil {
			err = apperrors.NewValidationError("parse input: " + uerr.Error())
		}
	}
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	output, err := h.execute(ctx, &input)
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	role := models.Role(input.ActorRole)
	if role == "" {
		role = models.RoleSystem
	}
	if !role.Can(models.CapCreateAssignment) {
		return nil, apperrors.NewActorNotAuthorizedError(input.ActorID, string(models.CapCreateAssignment))
	}

	res, err := h.assigner.Assign(audit.WithActor(ctx, input.ActorID), input.ServiceRequestID, input.ContractorID, input.ActorID)
	if err != nil {
		return nil, err
	}

	return &Output{
		Assignment:           res.Assignment,
		ServiceRequestStatus: res.Request.Status,
		AssignedContractorID: res.Request.AssignedContractorID,
	}, nil
}

// Execute runs the worker logic without a Zeebe job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
