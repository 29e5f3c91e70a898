package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"clickboard/internal/model"

	"github.com/go-redis/redis/v8"
)

const (
	charactersKey         = "characters"
	leaderboardKeyPrefix  = "leaderboard:"
	defaultCharactersTTL  = 60 * time.Second
	defaultLeaderboardTTL = 10 * time.Second
)

// CacheRepository keeps short-lived JSON copies of read-heavy query results.
// A miss is reported as (false, nil); callers fall back to MySQL.
type CacheRepository struct {
	redis          *redis.Client
	charactersTTL  time.Duration
	leaderboardTTL time.Duration
}

// NewCacheRepository creates the cache repository. Non-positive TTLs use defaults.
func NewCacheRepository(redisClient *RedisClient, charactersTTL, leaderboardTTL time.Duration) *CacheRepository {
	if charactersTTL <= 0 {
		charactersTTL = defaultCharactersTTL
	}
	if leaderboardTTL <= 0 {
		leaderboardTTL = defaultLeaderboardTTL
	}
	return &CacheRepository{
		redis:          redisClient.GetClient(),
		charactersTTL:  charactersTTL,
		leaderboardTTL: leaderboardTTL,
	}
}

// GetCharacters returns the cached character list.
func (r *CacheRepository) GetCharacters(ctx context.Context) ([]*model.CharacterSummary, bool, error) {
	var characters []*model.CharacterSummary
	ok, err := r.getJSON(ctx, charactersKey, &characters)
	return characters, ok, err
}

// SetCharacters caches the character list.
func (r *CacheRepository) SetCharacters(ctx context.Context, characters []*model.CharacterSummary) error {
	return r.setJSON(ctx, charactersKey, characters, r.charactersTTL)
}

// GetLeaderboard returns a cached leaderboard of the given type.
func (r *CacheRepository) GetLeaderboard(ctx context.Context, boardType string) ([]model.PointsRow, bool, error) {
	var rows []model.PointsRow
	ok, err := r.getJSON(ctx, leaderboardKeyPrefix+boardType, &rows)
	return rows, ok, err
}

// SetLeaderboard caches a leaderboard of the given type.
func (r *CacheRepository) SetLeaderboard(ctx context.Context, boardType string, rows []model.PointsRow) error {
	return r.setJSON(ctx, leaderboardKeyPrefix+boardType, rows, r.leaderboardTTL)
}

// Invalidate drops the character list and the given leaderboards.
func (r *CacheRepository) Invalidate(ctx context.Context, boardTypes ...string) error {
	keys := []string{charactersKey}
	for _, t := range boardTypes {
		keys = append(keys, leaderboardKeyPrefix+t)
	}
	if err := r.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return nil
}

func (r *CacheRepository) getJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := r.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s from cache: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached %s: %w", key, err)
	}
	return true, nil
}

func (r *CacheRepository) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := r.redis.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache %s: %w", key, err)
	}
	return nil
}
