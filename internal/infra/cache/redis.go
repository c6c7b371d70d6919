// Package cache implements the per-user session cache on Redis. Every key is
// namespaced as user:<id>:<category>; user ids containing the separator are
// rejected before any store call. A backend that is unreachable at
// construction degrades the whole component to always-miss no-ops.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sperow/medrecords/internal/domain/records"
)

const (
	keySeparator   = ":"
	userKeyPrefix  = "user"
	cachedTextKey  = "cached_text"
	defaultTTL     = 3600 * time.Second
	connectTimeout = 5 * time.Second
)

// Redis implements records.SessionCache.
type Redis struct {
	rdb       *redis.Client
	ttl       time.Duration
	connected bool
	log       zerolog.Logger
}

// New connects to the Redis backend. A failed ping does not error out: the
// cache flips to disconnected mode where every operation is a logged no-op,
// and callers treat it as always-miss. No reconnection is attempted later.
func New(url string, ttl time.Duration, log zerolog.Logger) *Redis {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	c := &Redis{ttl: ttl, log: log}

	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Warn().Err(err).Msg("cache.bad_url, running without cache")
		return c
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("cache.unreachable, running without cache")
		return c
	}

	c.rdb = rdb
	c.connected = true
	return c
}

// NewWithClient wires an existing client; used by tests.
func NewWithClient(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *Redis {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Redis{rdb: rdb, ttl: ttl, connected: true, log: log}
}

// Ping reports backend reachability for health checks. A cache constructed
// in disconnected mode always reports an error.
func (c *Redis) Ping(ctx context.Context) error {
	if !c.connected {
		return errors.New("cache disconnected")
	}
	return c.rdb.Ping(ctx).Err()
}

func (c *Redis) userKey(userID, category string) string {
	return userKeyPrefix + keySeparator + userID + keySeparator + category
}

// validUserID rejects identifiers that would inject extra key segments.
func validUserID(userID string) bool {
	return userID != "" && !strings.Contains(userID, keySeparator)
}

// guard is the common fail-closed gate: disconnected backend or an invalid
// user id means no store call happens at all.
func (c *Redis) guard(userID string) bool {
	if !c.connected {
		c.log.Warn().Msg("cache.disconnected, skipping operation")
		return false
	}
	if !validUserID(userID) {
		c.log.Error().Str("user", userID).Msg("cache.invalid_user_id")
		return false
	}
	return true
}

func (c *Redis) SetMedicalRecord(ctx context.Context, userID, text string) bool {
	if !c.guard(userID) {
		return false
	}
	key := c.userKey(userID, records.CategoryMedicalRecord)
	if err := c.rdb.Set(ctx, key, text, c.ttl).Err(); err != nil {
		c.log.Error().Str("user", userID).Err(err).Msg("cache.set_medical_record_failed")
		return false
	}
	return true
}

func (c *Redis) GetMedicalRecord(ctx context.Context, userID string) (string, bool) {
	if !c.guard(userID) {
		return "", false
	}
	key := c.userKey(userID, records.CategoryMedicalRecord)
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Error().Str("user", userID).Err(err).Msg("cache.get_medical_record_failed")
		}
		return "", false
	}
	return val, true
}

func (c *Redis) ClearMedicalRecord(ctx context.Context, userID string) bool {
	if !c.guard(userID) {
		return false
	}
	key := c.userKey(userID, records.CategoryMedicalRecord)
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.log.Error().Str("user", userID).Err(err).Msg("cache.clear_medical_record_failed")
		return false
	}
	return true
}

// ClearAllUserData removes every category for the user via pattern delete.
func (c *Redis) ClearAllUserData(ctx context.Context, userID string) bool {
	if !c.guard(userID) {
		return false
	}
	pattern := c.userKey(userID, "*")
	keys, err := c.rdb.Keys(ctx, pattern).Result()
	if err != nil {
		c.log.Error().Str("user", userID).Err(err).Msg("cache.scan_failed")
		return false
	}
	if len(keys) > 0 {
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			c.log.Error().Str("user", userID).Err(err).Msg("cache.clear_all_failed")
			return false
		}
	}
	return true
}

func (c *Redis) SetStructuredSummary(ctx context.Context, userID string, s records.Summary) bool {
	if !c.guard(userID) {
		return false
	}
	data, err := json.Marshal(s)
	if err != nil {
		c.log.Error().Str("user", userID).Err(err).Msg("cache.marshal_summary_failed")
		return false
	}
	key := c.userKey(userID, records.CategoryStructuredSummary)
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Error().Str("user", userID).Err(err).Msg("cache.set_summary_failed")
		return false
	}
	return true
}

func (c *Redis) GetStructuredSummary(ctx context.Context, userID string) records.Summary {
	if !c.guard(userID) {
		return nil
	}
	key := c.userKey(userID, records.CategoryStructuredSummary)
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Error().Str("user", userID).Err(err).Msg("cache.get_summary_failed")
		}
		return nil
	}
	var s records.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		c.log.Error().Str("user", userID).Err(err).Msg("cache.decode_summary_failed")
		return nil
	}
	return s
}

//
// Derived projections. Pure reads over the cached summary; they never reach
// the OCR or LLM providers.
//

func (c *Redis) GetVisualizations(ctx context.Context, userID string) []any {
	s := c.GetStructuredSummary(ctx, userID)
	if s == nil {
		return nil
	}
	if v := s.Visualizations(); v != nil {
		return v
	}
	return []any{}
}

func (c *Redis) GetMedicalEntities(ctx context.Context, userID string) map[string]any {
	s := c.GetStructuredSummary(ctx, userID)
	if s == nil {
		return nil
	}
	if m := s.MedicalEntities(); m != nil {
		return m
	}
	return map[string]any{}
}

func (c *Redis) GetLabResults(ctx context.Context, userID string) []any {
	s := c.GetStructuredSummary(ctx, userID)
	if s == nil {
		return nil
	}
	if tests := s.LabTests(); tests != nil {
		return tests
	}
	return []any{}
}

func (c *Redis) GetTestResultsByName(ctx context.Context, userID, testName string) []any {
	results := []any{}
	for _, t := range c.GetLabResults(ctx, userID) {
		test, ok := t.(map[string]any)
		if !ok {
			continue
		}
		name, _ := test["name"].(string)
		if strings.EqualFold(name, testName) {
			results = append(results, test)
		}
	}
	return results
}

func (c *Redis) GetVisualizationByTitle(ctx context.Context, userID, title string) map[string]any {
	for _, v := range c.GetVisualizations(ctx, userID) {
		viz, ok := v.(map[string]any)
		if !ok {
			continue
		}
		t, _ := viz["title"].(string)
		if strings.EqualFold(t, title) {
			return viz
		}
	}
	return nil
}

func (c *Redis) GetAllTestNames(ctx context.Context, userID string) []string {
	seen := make(map[string]struct{})
	names := []string{}
	for _, t := range c.GetLabResults(ctx, userID) {
		test, ok := t.(map[string]any)
		if !ok {
			continue
		}
		name, _ := test["name"].(string)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

//
// Dev-mode replay cache, keyed by filename rather than user. Lets
// non-production environments re-run summarization without re-invoking OCR.
//

func (c *Redis) SetCachedText(ctx context.Context, fileName, text string) bool {
	if !c.connected {
		c.log.Warn().Msg("cache.disconnected, skipping operation")
		return false
	}
	key := cachedTextKey + keySeparator + fileName
	if err := c.rdb.Set(ctx, key, text, c.ttl).Err(); err != nil {
		c.log.Error().Str("file", fileName).Err(err).Msg("cache.set_cached_text_failed")
		return false
	}
	return true
}

func (c *Redis) GetCachedText(ctx context.Context, fileName string) (string, bool) {
	if !c.connected {
		c.log.Warn().Msg("cache.disconnected, skipping operation")
		return "", false
	}
	key := cachedTextKey + keySeparator + fileName
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Error().Str("file", fileName).Err(err).Msg("cache.get_cached_text_failed")
		}
		return "", false
	}
	return val, true
}
