// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"roi-workers/internal/common/errors"
	"roi-workers/internal/common/logger"
	"roi-workers/internal/common/metrics"
	"roi-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler completes or fails the job itself; the returned error only feeds
// logging and metrics.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job) error
}

type WorkerOptions struct {
	MaxJobsActive int
	Timeout       time.Duration
}

type CamundaWorker struct {
	client   zbc.Client
	worker   worker.JobWorker
	handler  worker.JobHandler
	options  WorkerOptions
	logger   logger.Logger
	taskType string
}

// NewWorker prepares a job worker for taskType. Jobs are not activated until Start.
func NewWorker(
	client zbc.Client,
	taskType string,
	opts WorkerOptions,
	handler JobHandler,
	log logger.Logger,
	obs *observability.Observability,
) *CamundaWorker {
	log = log.WithFields(map[string]interface{}{"taskType": taskType})
	return &CamundaWorker{
		client:   client,
		handler:  Instrument(taskType, handler, log, obs),
		options:  opts,
		logger:   log,
		taskType: taskType,
	}
}

func (w *CamundaWorker) Start() {
	step := w.client.NewJobWorker().
		JobType(w.taskType).
		Handler(w.handler)
	if w.options.MaxJobsActive > 0 {
		step = step.MaxJobsActive(w.options.MaxJobsActive)
	}
	if w.options.Timeout > 0 {
		step = step.Timeout(w.options.Timeout)
	}
	w.worker = step.Open()

	w.logger.Info("worker started", map[string]interface{}{
		"maxJobsActive": w.options.MaxJobsActive,
		"timeout":       w.options.Timeout.String(),
	})
}

// Stop closes the job worker and waits for in-flight jobs. The shared client stays open.
func (w *CamundaWorker) Stop() {
	if w.worker == nil {
		return
	}
	w.logger.Info("stopping worker", nil)
	w.worker.Close()
	w.worker.AwaitClose()
}

func (w *CamundaWorker) TaskType() string {
	return w.taskType
}

// Instrument adapts handler to the Zeebe callback and records duration, outcome
// and active job count for every job.
func Instrument(taskType string, handler JobHandler, log logger.Logger, obs *observability.Observability) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()

		err := handler.Handle(client, job)

		elapsed := time.Since(start)
		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())

		status := "completed"
		if err != nil {
			status = "failed"
			code := errors.Normalize(err).Code
			metrics.WorkerJobsFailed.WithLabelValues(taskType, string(code)).Inc()
			log.Warn("job handler returned error", map[string]interface{}{
				"jobKey":    job.Key,
				"errorCode": string(code),
				"error":     err.Error(),
			})
		} else {
			metrics.WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		}
		obs.RecordJob(context.Background(), taskType, status, elapsed)
	}
}
