package findcontractormatches

import (
	"context"
	"encoding/json"
	"time"

	"contractor-matching/internal/common/audit"
	"contractor-matching/internal/common/camunda"
	apperrors "contractor-matching/internal/common/errors"
	"contractor-matching/internal/common/logger"
	"contractor-matching/internal/common/validation"
	"contractor-matching/internal/matching"
	"contractor-matching/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "find-contractor-matches"
)

var schema = validation.MustCompile(inputSchema)

// Matcher is the part of the matching engine this worker drives.
type Matcher interface {
	Match(ctx context.Context, serviceRequestID string, overrides matching.Overrides) (*matching.MatchResult, error)
}

type Handler struct {
	config       *Config
	matcher      Matcher
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, matcher Matcher, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		matcher:      matcher,
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

	input, err := h.parseInput(job.Variables)
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

func (h *Handler) parseInput(variables string) (*Input, error) {
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	role := models.Role(input.RequestedByRole)
	if role == "" {
		role = models.RoleSystem
	}
	if !role.Can(models.CapRunMatching) {
		return nil, apperrors.NewActorNotAuthorizedError(input.RequestedBy, string(models.CapRunMatching))
	}

	overrides, err := matching.ParseOverrides(input.Overrides)
	if err != nil {
		return nil, err
	}

	actor := input.RequestedBy
	if actor == "" {
		actor = audit.SystemActor
	}
	ctx = audit.WithActor(ctx, actor)

	started := time.Now()
	result, err := h.matcher.Match(ctx, input.ServiceRequestID, overrides)
	if err != nil {
		return nil, err
	}
	matches := result.Matches
	if matches == nil {
		matches = []models.MatchCandidate{}
	}

	h.logger.Info("contractor matches found", map[string]interface{}{
		"serviceRequestId": input.ServiceRequestID,
		"count":            len(matches),
		"durationMs":       time.Since(started).Milliseconds(),
	})

	return &Output{
		Matches:        matches,
		Count:          len(matches),
		HasMatches:     len(matches) > 0,
		SearchCriteria: result.Criteria,
	}, nil
}

// Execute runs the worker logic without a Zeebe job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
