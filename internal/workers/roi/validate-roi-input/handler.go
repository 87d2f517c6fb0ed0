// internal/workers/roi/validate-roi-input/handler.go
package validateroiinput

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	commonerrors "roi-workers/internal/common/errors"
	"roi-workers/internal/common/logger"
	"roi-workers/internal/common/validation"
	"roi-workers/internal/estimator"
	"roi-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-roi-input"
)

var enumFields = []string{"companySize", "industry", "timelinePreference"}

type Handler struct {
	config       *Config
	validator    *validation.Validator
	errorHandler *commonerrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, validator *validation.Validator, log logger.Logger) *Handler {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.DefaultInvestment <= 0 {
		config.DefaultInvestment = models.DefaultInvestmentAmount
	}
	if validator == nil {
		validator = validation.NewROIInputValidator(nil, TaskType)
	}

	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		validator:    validator,
		errorHandler: commonerrors.NewErrorHandler(log).WithMaxRetries(config.MaxRetries),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var vars map[string]interface{}
	if err := json.Unmarshal([]byte(job.Variables), &vars); err != nil {
		stdErr := commonerrors.NewInvalidROIInputError(fmt.Sprintf("parse variables: %v", err))
		h.errorHandler.HandleJobError(ctx, client, job, stdErr)
		return stdErr
	}

	output, err := h.execute(ctx, &Input{Variables: vars})
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	return h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	doc := h.normalize(input.Variables)

	result, err := h.validator.Validate(doc)
	if err != nil {
		return nil, commonerrors.NewSchemaValidationFailedError(err)
	}

	output := &Output{ValidationErrors: result.Errors}
	if result.Valid {
		normalized, violations := decodeInput(doc)
		if len(violations) == 0 {
			output.NormalizedInput = &normalized
		}
		output.ValidationErrors = append(output.ValidationErrors, violations...)
	}
	if output.ValidationErrors == nil {
		output.ValidationErrors = []validation.ValidationError{}
	}
	output.Valid = len(output.ValidationErrors) == 0

	h.logger.Info("validation completed", map[string]interface{}{
		"valid":        output.Valid,
		"errorCount":   len(output.ValidationErrors),
		"schemaSource": h.validator.Source(),
	})

	if !output.Valid && h.config.ThrowOnInvalid {
		messages := (&validation.ValidationResult{Errors: output.ValidationErrors}).Messages()
		return nil, commonerrors.NewInvalidROIInputError(strings.Join(messages, "; ")).
			WithMetadata("validationErrors", output.ValidationErrors)
	}
	return output, nil
}

// normalize trims and lower-cases the enumerated fields and applies the default
// investment. The caller's map is left untouched.
func (h *Handler) normalize(vars map[string]interface{}) map[string]interface{} {
	doc := make(map[string]interface{}, len(vars)+1)
	for k, v := range vars {
		doc[k] = v
	}
	for _, field := range enumFields {
		if s, ok := doc[field].(string); ok {
			doc[field] = strings.ToLower(strings.TrimSpace(s))
		}
	}
	if v, ok := doc["investmentAmount"]; !ok || v == nil {
		doc["investmentAmount"] = h.config.DefaultInvestment
	}
	return doc
}

// decodeInput maps a schema-valid document onto EstimatorInput and applies the
// estimator's own checks, which catch registry schemas looser than the embedded one.
func decodeInput(doc map[string]interface{}) (models.EstimatorInput, []validation.ValidationError) {
	var in models.EstimatorInput

	raw, err := json.Marshal(doc)
	if err == nil {
		err = json.Unmarshal(raw, &in)
	}
	if err != nil {
		return in, []validation.ValidationError{{
			Field:   "",
			Message: err.Error(),
			Code:    "INVALID_TYPE",
		}}
	}

	err = estimator.Validate(in)
	var invalid *estimator.InvalidInputError
	if !errors.As(err, &invalid) {
		return in, nil
	}

	out := make([]validation.ValidationError, len(invalid.Violations))
	for i, v := range invalid.Violations {
		out[i] = validation.ValidationError{
			Field:   v.Field,
			Message: v.Message,
			Code:    "INVALID_VALUE",
		}
	}
	return in, out
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return err
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return err
	}
	return nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
