// Package api serves the synchronous ROI estimate endpoint next to the health
// and metrics routes of the worker manager.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	commonerrors "roi-workers/internal/common/errors"
	"roi-workers/internal/common/logger"
	"roi-workers/internal/common/metrics"
	"roi-workers/internal/estimator"
	"roi-workers/internal/models"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Options struct {
	Service            *estimator.Service
	Logger             logger.Logger
	RateLimitPerMinute int
	Burst              int
	AllowedOrigins     []string

	// SimulatedDelay holds each estimate response back; the request context cancels it.
	SimulatedDelay  time.Duration
	ReadinessChecks map[string]ReadinessCheck
}

type Server struct {
	router  chi.Router
	service *estimator.Service
	limiter *RateLimiter
	logger  logger.Logger
	delay   time.Duration
	checks  map[string]ReadinessCheck
}

func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	s := &Server{
		service: opts.Service,
		logger:  opts.Logger,
		delay:   opts.SimulatedDelay,
		checks:  opts.ReadinessChecks,
	}
	if opts.RateLimitPerMinute > 0 {
		s.limiter = NewRateLimiter(opts.RateLimitPerMinute, opts.Burst)
	}
	s.router = s.routes(opts.AllowedOrigins)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

func (s *Server) routes(origins []string) chi.Router {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.accessLog)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/roi", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
		if s.limiter != nil {
			r.Use(s.limiter.Middleware)
		}
		r.Post("/estimate", s.handleEstimate)
		r.Get("/sessions/{sessionId}", s.handleSession)
	})

	return r
}

// EstimateResponse inlines the summary: comparison, headline, recommendationLabel, formatted.
type EstimateResponse struct {
	EstimateID string                 `json:"estimateId"`
	Input      models.EstimatorInput  `json:"input"`
	Result     models.EstimatorResult `json:"result"`
	models.Summary
	Published bool `json:"published"`
	CacheHit  bool `json:"cacheHit"`
}

type errorBody struct {
	Code    string       `json:"code"`
	Message string       `json:"message,omitempty"`
	Details string       `json:"details,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`

	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	req, err := bindEstimateRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-r.Context().Done():
			// client went away; nothing to answer
			return
		}
	}

	in := req.EstimatorInput()
	in.InvestmentAmount = s.service.ResolveInvestment(req.InvestmentAmount)

	estimate, err := s.service.Estimate(r.Context(), estimator.Request{
		Input:     in,
		SessionID: req.SessionID,
		Revision:  req.Revision,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if estimate.Stale {
		latest := req.Revision
		if published, err := s.service.Latest(r.Context(), req.SessionID); err == nil {
			latest = published.Revision
		}
		s.writeError(w, r, commonerrors.NewStaleRevisionError(req.SessionID, req.Revision, latest).
			WithMetadata("estimateId", estimate.EstimateID))
		return
	}

	writeJSON(w, http.StatusOK, EstimateResponse{
		EstimateID: estimate.EstimateID,
		Input:      estimate.Input,
		Result:     estimate.Result,
		Summary:    estimator.Summarize(estimate.Input, estimate.Result),
		Published:  estimate.Published,
		CacheHit:   estimate.CacheHit,
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	latest, err := s.service.Latest(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": results,
		"time":   time.Now().Format(time.RFC3339),
	})
}

// writeError maps domain errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		bindErr    *bindError
		invalidErr *estimator.InvalidInputError
		stdErr     *commonerrors.StandardError
	)

	switch {
	case errors.As(err, &bindErr):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Code:    string(commonerrors.ErrCodeInvalidROIInput),
			Message: "Invalid ROI estimator input",
			Errors:  bindErr.fields,
		})

	case errors.As(err, &invalidErr):
		fields := make([]FieldError, len(invalidErr.Violations))
		for i, v := range invalidErr.Violations {
			fields[i] = FieldError{Field: v.Field, Message: v.Message}
		}
		writeJSON(w, http.StatusBadRequest, errorBody{
			Code:    string(commonerrors.ErrCodeInvalidROIInput),
			Message: "Invalid ROI estimator input",
			Errors:  fields,
		})

	case errors.Is(err, estimator.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{
			Code:    string(commonerrors.ErrCodeResourceNotFound),
			Message: "no estimate published for session",
		})

	case errors.As(err, &stdErr):
		status := http.StatusInternalServerError
		switch stdErr.Code {
		case commonerrors.ErrCodeStaleRevision:
			status = http.StatusConflict
		case commonerrors.ErrCodeSessionStoreFailed, commonerrors.ErrCodeExternalServiceError, commonerrors.ErrCodeTimeout:
			status = http.StatusServiceUnavailable
		}
		if status >= http.StatusInternalServerError {
			s.logger.Error("estimate request failed", map[string]interface{}{
				"requestId": chimw.GetReqID(r.Context()),
				"errorCode": string(stdErr.Code),
				"details":   stdErr.Details,
			})
		}
		writeJSON(w, status, errorBody{
			Code:     string(stdErr.Code),
			Message:  stdErr.Message,
			Details:  stdErr.Details,
			Metadata: stdErr.Metadata,
		})

	default:
		s.logger.Error("estimate request failed", map[string]interface{}{
			"requestId": chimw.GetReqID(r.Context()),
			"error":     err.Error(),
		})
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Code:    string(commonerrors.ErrCodeInternal),
			Message: "unexpected error",
		})
	}
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()

		s.logger.Debug("http request", map[string]interface{}{
			"requestId": chimw.GetReqID(r.Context()),
			"method":    r.Method,
			"route":     route,
			"status":    status,
			"duration":  time.Since(start).String(),
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
