// internal/workers/roi/build-roi-summary/handler.go
package buildroisummary

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	commonerrors "roi-workers/internal/common/errors"
	"roi-workers/internal/common/logger"
	"roi-workers/internal/estimator"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "build-roi-summary"
)

type Handler struct {
	config       *Config
	errorHandler *commonerrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
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

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		stdErr := commonerrors.NewInvalidROIInputError(fmt.Sprintf("parse variables: %v", err))
		h.errorHandler.HandleJobError(ctx, client, job, stdErr)
		return stdErr
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

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
		h.logger.Error("failed to complete job", map[string]interface{}{
			"error": err,
		})
		return err
	}
	return nil
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	in := input.NormalizedInput
	if err := estimator.Validate(in); err != nil {
		return nil, commonerrors.NewInvalidROIInputError(err.Error())
	}

	result := input.Result
	if result == nil {
		computed, err := estimator.Compute(in)
		if err != nil {
			return nil, commonerrors.NewEstimateFailedError(err)
		}
		result = &computed
	}

	summary := estimator.Summarize(in, *result)
	h.logger.Info("summary built", map[string]interface{}{
		"recommendation": summary.RecommendationLabel,
		"headline":       summary.Headline,
		"recomputed":     input.Result == nil,
	})
	return &Output{Summary: summary}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
