// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"roi-workers/internal/api"
	"roi-workers/internal/common/camunda"
	"roi-workers/internal/common/config"
	"roi-workers/internal/common/database"
	"roi-workers/internal/common/logger"
	"roi-workers/internal/common/observability"
	"roi-workers/internal/common/validation"
	"roi-workers/internal/estimator"
	"roi-workers/pkg/registry"

	brs "roi-workers/internal/workers/roi/build-roi-summary"
	cre "roi-workers/internal/workers/roi/calculate-roi-estimate"
	vri "roi-workers/internal/workers/roi/validate-roi-input"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	bootLog := logger.New("info", "console", "stderr")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting ROI worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("observability disabled", zap.Error(err))
	}

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: cfg.Camunda.Insecure,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init Redis with retry ---
	var rc *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rc, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rc.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rc.Close()
	zapLog.Info("Redis connected successfully")

	// --- Activity registry (input schemas) ---
	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Warn("activity registry unavailable, using embedded input schema",
			zap.String("path", cfg.Registry.Path),
			zap.Error(err),
		)
	}

	service := estimator.NewService(rc.Estimates(), estimator.ServiceConfig{
		DefaultInvestment: cfg.Estimator.DefaultInvestment,
		CacheTTL:          cfg.Estimator.CacheTTLDuration(),
		SessionTTL:        cfg.Estimator.SessionTTLDuration(),
	}, log)

	// --- Register ROI workers ---
	validateWorker := config.GetWorkerConfig(cfg, vri.TaskType)
	validateCfg := vri.LoadConfig()
	validateCfg.Timeout = config.GetDuration(validateWorker.Timeout)
	validateCfg.MaxRetries = validateWorker.MaxRetries
	validateCfg.DefaultInvestment = cfg.Estimator.DefaultInvestment

	calculateWorker := config.GetWorkerConfig(cfg, cre.TaskType)
	calculateCfg := cre.LoadConfig()
	calculateCfg.Timeout = config.GetDuration(calculateWorker.Timeout)
	calculateCfg.MaxRetries = calculateWorker.MaxRetries

	summaryWorker := config.GetWorkerConfig(cfg, brs.TaskType)
	summaryCfg := brs.LoadConfig()
	summaryCfg.Timeout = config.GetDuration(summaryWorker.Timeout)
	summaryCfg.MaxRetries = summaryWorker.MaxRetries

	handlers := map[string]camunda.JobHandler{
		vri.TaskType: vri.NewHandler(validateCfg, validation.NewROIInputValidator(reg, vri.TaskType), log),
		cre.TaskType: cre.NewHandler(calculateCfg, service, log),
		brs.TaskType: brs.NewHandler(summaryCfg, log),
	}

	var workers []*camunda.CamundaWorker
	for _, taskType := range []string{vri.TaskType, cre.TaskType, brs.TaskType} {
		if !config.IsWorkerEnabled(cfg, taskType) {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			continue
		}
		wcfg := config.GetWorkerConfig(cfg, taskType)
		w := camunda.NewWorker(zeebe.GetClient(), taskType, camunda.WorkerOptions{
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
		}, handlers[taskType], log, obs)
		w.Start()
		workers = append(workers, w)
		zapLog.Info("worker started",
			zap.String("taskType", w.TaskType()),
			zap.Int("maxJobsActive", wcfg.MaxJobsActive),
			zap.Int("maxRetries", wcfg.MaxRetries),
		)
	}
	zapLog.Info("ROI workers registered", zap.Int("count", len(workers)))

	// --- Estimate API, health & metrics ---
	apiServer := api.NewServer(api.Options{
		Service:            service,
		Logger:             log,
		RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
		Burst:              cfg.HTTP.Burst,
		AllowedOrigins:     cfg.HTTP.AllowedOrigins,
		SimulatedDelay:     cfg.Estimator.SimulatedDelay(),
		ReadinessChecks: map[string]api.ReadinessCheck{
			"redis": rc.Ping,
			"zeebe": zeebe.HealthCheck,
		},
	})
	httpServer := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      apiServer.Handler(),
		ReadTimeout:  config.GetDuration(cfg.HTTP.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.HTTP.WriteTimeout) + cfg.Estimator.SimulatedDelay(),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.HTTP.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}
	apiServer.Close()

	for _, w := range workers {
		w.Stop()
	}

	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing metrics", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
