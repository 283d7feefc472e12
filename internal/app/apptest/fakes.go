// Package apptest provides in-memory collaborators for service and handler
// tests.
package apptest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"vidhub/internal/model"
)

var ErrUploadFailed = errors.New("upload failed")

// Uploader records uploads and fails for names listed in FailOn.
type Uploader struct {
	mu       sync.Mutex
	FailOn   map[string]bool
	Uploaded []string
}

func (u *Uploader) Upload(_ context.Context, name, _ string, data []byte) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.FailOn[name] || len(data) == 0 {
		return "", ErrUploadFailed
	}
	url := fmt.Sprintf("http://media.test/%d/%s", len(u.Uploaded)+1, name)
	u.Uploaded = append(u.Uploaded, url)
	return url, nil
}

// Publisher collects published watch events; when Deliver is set each event
// is handed to it synchronously.
type Publisher struct {
	mu      sync.Mutex
	Err     error
	Events  []model.WatchEvent
	Deliver func(ctx context.Context, event model.WatchEvent) error
}

func (p *Publisher) Publish(ctx context.Context, event model.WatchEvent) error {
	p.mu.Lock()
	if p.Err != nil {
		p.mu.Unlock()
		return p.Err
	}
	p.Events = append(p.Events, event)
	deliver := p.Deliver
	p.mu.Unlock()

	if deliver != nil {
		return deliver(ctx, event)
	}
	return nil
}

// HistoryCache is a map-backed watch-history cache with the same
// versioning as the Redis one.
type HistoryCache struct {
	mu       sync.Mutex
	entries  map[string]cachedHistory
	dirty    map[string]bool
	versions map[string]int
	global   int
	Hits     int
}

type cachedHistory struct {
	version string
	items   []model.WatchHistoryItem
}

func NewHistoryCache() *HistoryCache {
	return &HistoryCache{
		entries:  make(map[string]cachedHistory),
		dirty:    make(map[string]bool),
		versions: make(map[string]int),
	}
}

func (c *HistoryCache) HistoryVersion(_ context.Context, userID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("%d.%d", c.global, c.versions[userID]), nil
}

func (c *HistoryCache) GetHistory(_ context.Context, userID, version string) ([]model.WatchHistoryItem, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[userID]
	if !ok || entry.version != version {
		return nil, false, nil
	}
	c.Hits++
	return entry.items, true, nil
}

func (c *HistoryCache) SetHistory(_ context.Context, userID, version string, items []model.WatchHistoryItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = cachedHistory{version: version, items: append([]model.WatchHistoryItem{}, items...)}
	return nil
}

func (c *HistoryCache) DeleteHistory(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[userID]++
	delete(c.entries, userID)
	delete(c.dirty, userID)
	return nil
}

func (c *HistoryCache) InvalidateAll(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.global++
	return nil
}

func (c *HistoryCache) MarkDirty(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty[userID] = true
	return nil
}

func (c *HistoryCache) IsDirty(_ context.Context, userID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty[userID], nil
}
