// internal/workers/roi/calculate-roi-estimate/handler.go
package calculateroiestimate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	commonerrors "roi-workers/internal/common/errors"
	"roi-workers/internal/common/logger"
	"roi-workers/internal/estimator"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "calculate-roi-estimate"
)

type Handler struct {
	config       *Config
	service      *estimator.Service
	errorHandler *commonerrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, service *estimator.Service, log logger.Logger) *Handler {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		service:      service,
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

	return h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	estimate, err := h.service.Estimate(ctx, estimator.Request{
		Input:     input.estimatorInput(h.service.ResolveInvestment),
		SessionID: input.SessionID,
		Revision:  input.Revision,
	})
	if err != nil {
		return nil, classify(err)
	}

	h.logger.Info("estimate calculated", map[string]interface{}{
		"estimateId":     estimate.EstimateID,
		"recommendation": string(estimate.Result.RecommendedApproach),
		"netBenefit":     estimate.Result.NetBenefit,
		"cacheHit":       estimate.CacheHit,
		"sessionId":      input.SessionID,
		"revision":       input.Revision,
		"published":      estimate.Published,
	})

	return &Output{
		EstimateID: estimate.EstimateID,
		Result:     estimate.Result,
		Published:  estimate.Published,
		Stale:      estimate.Stale,
		CacheHit:   estimate.CacheHit,
	}, nil
}

func classify(err error) error {
	var stdErr *commonerrors.StandardError
	switch {
	case errors.As(err, &stdErr):
		return stdErr
	case errors.Is(err, estimator.ErrInvalidInput):
		return commonerrors.NewInvalidROIInputError(err.Error())
	default:
		return commonerrors.NewEstimateFailedError(err)
	}
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
