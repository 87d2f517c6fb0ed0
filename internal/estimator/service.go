package estimator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"roi-workers/internal/common/database"
	commonerrors "roi-workers/internal/common/errors"
	"roi-workers/internal/common/logger"
	"roi-workers/internal/common/metrics"
	"roi-workers/internal/models"
)

// ErrSessionNotFound is returned by Service.Latest for sessions without a published estimate.
var ErrSessionNotFound = errors.New("estimate session not found")

// Store is the persistence the service needs; database.EstimateStore implements it.
type Store interface {
	GetCached(ctx context.Context, key string) (models.EstimatorResult, bool, error)
	PutCached(ctx context.Context, key string, result models.EstimatorResult, ttl time.Duration) error
	PublishLatest(ctx context.Context, sessionID string, revision int64, payload []byte, ttl time.Duration) (bool, error)
	Latest(ctx context.Context, sessionID string) (*database.PublishedEstimate, error)
}

type ServiceConfig struct {
	DefaultInvestment float64
	CacheTTL          time.Duration
	SessionTTL        time.Duration
}

// Service wraps Compute with memoisation and most-recent-wins session publishing.
// A nil store turns both off.
type Service struct {
	store  Store
	config ServiceConfig
	logger logger.Logger
}

func NewService(store Store, cfg ServiceConfig, log logger.Logger) *Service {
	if cfg.DefaultInvestment <= 0 {
		cfg.DefaultInvestment = models.DefaultInvestmentAmount
	}
	return &Service{store: store, config: cfg, logger: log}
}

type Request struct {
	Input     models.EstimatorInput
	SessionID string
	Revision  int64
}

type Estimate struct {
	EstimateID string
	Input      models.EstimatorInput
	Result     models.EstimatorResult
	CacheHit   bool
	Published  bool
	// Stale is set when a newer revision of the session was already published.
	Stale bool
}

// ResolveInvestment returns the configured default when the caller left the
// investment out. A present value, zero included, is returned as given.
func (s *Service) ResolveInvestment(amount *float64) float64 {
	if amount == nil {
		return s.config.DefaultInvestment
	}
	return *amount
}

// Estimate computes (or recalls) the result for req.Input. Invalid input yields an
// error matching ErrInvalidInput; session store failures yield SESSION_STORE_FAILED.
// Cache failures are logged and otherwise ignored.
func (s *Service) Estimate(ctx context.Context, req Request) (*Estimate, error) {
	in := req.Input
	if err := Validate(in); err != nil {
		return nil, err
	}

	out := &Estimate{
		EstimateID: database.CacheKey(in),
		Input:      in,
	}

	if cached, ok := s.lookup(ctx, out.EstimateID); ok {
		out.Result = cached
		out.CacheHit = true
		metrics.ROICacheHits.Inc()
	} else {
		result, err := Compute(in)
		if err != nil {
			return nil, err
		}
		out.Result = result
		s.remember(ctx, out.EstimateID, result)
	}

	metrics.ROIEstimatesTotal.WithLabelValues(string(out.Result.RecommendedApproach)).Inc()

	if req.SessionID != "" && s.store != nil {
		published, err := s.publish(ctx, req, out)
		if err != nil {
			return nil, commonerrors.NewSessionStoreFailedError("publish", err).
				WithMetadata("sessionId", req.SessionID)
		}
		out.Published = published
		out.Stale = !published
		if out.Stale {
			metrics.ROIStaleRevisions.Inc()
			s.logger.Info("discarded stale estimate revision", map[string]interface{}{
				"sessionId": req.SessionID,
				"revision":  req.Revision,
			})
		}
	}

	return out, nil
}

// Latest returns the last estimate published for sessionID.
func (s *Service) Latest(ctx context.Context, sessionID string) (*models.SessionEstimate, error) {
	if s.store == nil {
		return nil, ErrSessionNotFound
	}

	published, err := s.store.Latest(ctx, sessionID)
	if errors.Is(err, database.ErrSessionNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, commonerrors.NewSessionStoreFailedError("latest", err).
			WithMetadata("sessionId", sessionID)
	}

	var estimate models.SessionEstimate
	if err := json.Unmarshal(published.Payload, &estimate); err != nil {
		return nil, fmt.Errorf("decode session estimate: %w", err)
	}
	return &estimate, nil
}

func (s *Service) lookup(ctx context.Context, key string) (models.EstimatorResult, bool) {
	if s.store == nil || s.config.CacheTTL <= 0 {
		return models.EstimatorResult{}, false
	}
	result, found, err := s.store.GetCached(ctx, key)
	if err != nil {
		s.logger.Warn("estimate cache lookup failed", map[string]interface{}{
			"estimateId": key,
			"error":      err,
		})
		return models.EstimatorResult{}, false
	}
	return result, found
}

func (s *Service) remember(ctx context.Context, key string, result models.EstimatorResult) {
	if s.store == nil || s.config.CacheTTL <= 0 {
		return
	}
	if err := s.store.PutCached(ctx, key, result, s.config.CacheTTL); err != nil {
		s.logger.Warn("estimate cache write failed", map[string]interface{}{
			"estimateId": key,
			"error":      err,
		})
	}
}

func (s *Service) publish(ctx context.Context, req Request, out *Estimate) (bool, error) {
	payload, err := json.Marshal(models.SessionEstimate{
		SessionID:  req.SessionID,
		Revision:   req.Revision,
		EstimateID: out.EstimateID,
		Input:      out.Input,
		Result:     out.Result,
	})
	if err != nil {
		return false, err
	}
	return s.store.PublishLatest(ctx, req.SessionID, req.Revision, payload, s.config.SessionTTL)
}
