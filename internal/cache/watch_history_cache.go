package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"vidhub/internal/model"
)

const globalVersionKey = "vidhub:history-version"

// WatchHistoryCache keeps the rendered watch history per user. Entries carry
// the version they were read under; the version is a per-user generation
// plus a global one, both advanced on invalidation. A dirty marker tells
// readers a watch event is still in flight.
type WatchHistoryCache struct {
	client         *redisv9.Client
	historyTTL     time.Duration
	dirtyMarkerTTL time.Duration
}

type cachedHistory struct {
	Version string                   `json:"version"`
	Items   []model.WatchHistoryItem `json:"items"`
}

func NewWatchHistoryCache(client *redisv9.Client, historyTTL, dirtyMarkerTTL time.Duration) *WatchHistoryCache {
	if historyTTL <= 0 {
		historyTTL = 60 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &WatchHistoryCache{
		client:         client,
		historyTTL:     historyTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

func (c *WatchHistoryCache) HistoryVersion(ctx context.Context, userID string) (string, error) {
	values, err := c.client.MGet(ctx, globalVersionKey, versionKey(userID)).Result()
	if err != nil {
		return "", fmt.Errorf("redis get watch history version failed: %w", err)
	}
	return fmt.Sprintf("%s.%s", generation(values[0]), generation(values[1])), nil
}

func (c *WatchHistoryCache) GetHistory(ctx context.Context, userID, version string) ([]model.WatchHistoryItem, bool, error) {
	raw, err := c.client.Get(ctx, historyKey(userID)).Bytes()
	if errors.Is(err, redisv9.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get watch history failed: %w", err)
	}

	var cached cachedHistory
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached watch history failed: %w", err)
	}
	if cached.Version != version {
		return nil, false, nil
	}
	return cached.Items, true, nil
}

func (c *WatchHistoryCache) SetHistory(ctx context.Context, userID, version string, items []model.WatchHistoryItem) error {
	if items == nil {
		items = []model.WatchHistoryItem{}
	}
	payload, err := json.Marshal(cachedHistory{Version: version, Items: items})
	if err != nil {
		return fmt.Errorf("marshal watch history cache failed: %w", err)
	}
	if err := c.client.Set(ctx, historyKey(userID), payload, c.historyTTL).Err(); err != nil {
		return fmt.Errorf("redis set watch history failed: %w", err)
	}
	return nil
}

// DeleteHistory advances the user's generation, then drops the entry and the
// dirty marker. The generation key outlives any entry written under the
// previous generation.
func (c *WatchHistoryCache) DeleteHistory(ctx context.Context, userID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
		pipe.Incr(ctx, versionKey(userID))
		pipe.Expire(ctx, versionKey(userID), 2*c.historyTTL+time.Minute)
		pipe.Del(ctx, historyKey(userID), dirtyKey(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete watch history failed: %w", err)
	}
	return nil
}

func (c *WatchHistoryCache) InvalidateAll(ctx context.Context) error {
	if err := c.client.Incr(ctx, globalVersionKey).Err(); err != nil {
		return fmt.Errorf("redis invalidate watch histories failed: %w", err)
	}
	return nil
}

func (c *WatchHistoryCache) MarkDirty(ctx context.Context, userID string) error {
	if err := c.client.Set(ctx, dirtyKey(userID), "1", c.dirtyMarkerTTL).Err(); err != nil {
		return fmt.Errorf("redis set dirty marker failed: %w", err)
	}
	return nil
}

func (c *WatchHistoryCache) IsDirty(ctx context.Context, userID string) (bool, error) {
	exists, err := c.client.Exists(ctx, dirtyKey(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func generation(value any) string {
	if s, ok := value.(string); ok && s != "" {
		return s
	}
	return "0"
}

func historyKey(userID string) string {
	return fmt.Sprintf("vidhub:history:%s", userID)
}

func dirtyKey(userID string) string {
	return fmt.Sprintf("vidhub:history:dirty:%s", userID)
}

func versionKey(userID string) string {
	return fmt.Sprintf("vidhub:history-version:%s", userID)
}
