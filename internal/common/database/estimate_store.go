// internal/common/database/estimate_store.go
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"roi-workers/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	estimateKeyPrefix = "roi:estimate:"
	sessionKeyPrefix  = "roi:session:"
)

// ErrSessionNotFound is returned by Latest when nothing was published for the session.
var ErrSessionNotFound = errors.New("estimate session not found")

var estimateNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("roi-workers/estimate"))

// publishScript stores the payload only if no newer revision was published.
// KEYS[1] session hash, ARGV[1] revision, ARGV[2] payload, ARGV[3] ttl in ms.
var publishScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'revision')
if current and tonumber(current) > tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'revision', ARGV[1], 'payload', ARGV[2])
if tonumber(ARGV[3]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[3])
end
return 1
`)

// PublishedEstimate is the last estimate published for a UI session.
type PublishedEstimate struct {
	SessionID string          `json:"sessionId"`
	Revision  int64           `json:"revision"`
	Payload   json.RawMessage `json:"payload"`
}

// EstimateStore memoises estimator results and keeps the latest estimate per session.
type EstimateStore struct {
	rdb *redis.Client
}

func NewEstimateStore(rdb *redis.Client) *EstimateStore {
	return &EstimateStore{rdb: rdb}
}

// CacheKey derives a stable name-based UUID from the input. Equal inputs share a key,
// which also serves as the estimate id.
func CacheKey(in models.EstimatorInput) string {
	normalized := strconv.FormatFloat(in.InvestmentAmount, 'f', -1, 64) + "|" +
		string(in.CompanySize) + "|" +
		string(in.Industry) + "|" +
		strconv.FormatBool(in.HasInternalTalent) + "|" +
		string(in.TimelinePreference)
	return uuid.NewSHA1(estimateNamespace, []byte(normalized)).String()
}

// GetCached returns the memoised result for key. found is false on a cache miss.
func (s *EstimateStore) GetCached(ctx context.Context, key string) (models.EstimatorResult, bool, error) {
	var result models.EstimatorResult

	raw, err := s.rdb.Get(ctx, estimateKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return result, false, nil
	}
	if err != nil {
		return result, false, fmt.Errorf("get cached estimate: %w", err)
	}

	if err := json.Unmarshal(raw, &result); err != nil {
		// a corrupt entry is treated as a miss and overwritten by the caller
		return models.EstimatorResult{}, false, nil
	}
	return result, true, nil
}

// PutCached memoises result under key. A non-positive ttl skips the write.
func (s *EstimateStore) PutCached(ctx context.Context, key string, result models.EstimatorResult, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal estimate: %w", err)
	}
	if err := s.rdb.Set(ctx, estimateKeyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("put cached estimate: %w", err)
	}
	return nil
}

// PublishLatest records payload as the session's latest estimate unless a higher
// revision is already stored. Equal revisions overwrite.
func (s *EstimateStore) PublishLatest(ctx context.Context, sessionID string, revision int64, payload []byte, ttl time.Duration) (bool, error) {
	if sessionID == "" {
		return false, fmt.Errorf("session id is empty")
	}

	res, err := publishScript.Run(ctx, s.rdb,
		[]string{sessionKeyPrefix + sessionID},
		revision, string(payload), ttl.Milliseconds(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("publish estimate: %w", err)
	}
	return res == 1, nil
}

// Latest returns the most recent estimate published for the session.
func (s *EstimateStore) Latest(ctx context.Context, sessionID string) (*PublishedEstimate, error) {
	vals, err := s.rdb.HMGet(ctx, sessionKeyPrefix+sessionID, "revision", "payload").Result()
	if err != nil {
		return nil, fmt.Errorf("load latest estimate: %w", err)
	}
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return nil, ErrSessionNotFound
	}

	revStr, _ := vals[0].(string)
	payload, _ := vals[1].(string)
	revision, err := strconv.ParseInt(revStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse revision %q: %w", revStr, err)
	}

	return &PublishedEstimate{
		SessionID: sessionID,
		Revision:  revision,
		Payload:   json.RawMessage(payload),
	}, nil
}
