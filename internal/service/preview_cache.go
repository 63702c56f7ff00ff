package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/qolae/readers-dashboard-api/internal/models"
	"github.com/qolae/readers-dashboard-api/pkg/pdfform"
)

// PreviewEntry bridges the preview step of the signing wizard to the
// finalize step so neither has to re-derive state from the database.
type PreviewEntry struct {
	ReaderPin string
	FilePath  string
	Signature []byte
	Reader    models.ReaderInfo
	Version   models.NdaVersion
	Document  *pdfform.Document
	CreatedAt time.Time
}

// PreviewCache is a process-wide map of in-flight signing sessions keyed by
// reader pin. Entries expire after the TTL; a background sweep evicts stale
// ones. Reads racing the sweep at the expiry boundary may serve an entry at
// most once more, which is acceptable for this workflow.
type PreviewCache struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]PreviewEntry

	janitor artifactJanitor
	logger  *zap.Logger
}

// artifactJanitor removes on-disk preview files that outlived their
// signing session.
type artifactJanitor interface {
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

func NewPreviewCache(ttl time.Duration, now func() time.Time, logger *zap.Logger) *PreviewCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreviewCache{
		ttl:    ttl,
		now:    now,
		items:  make(map[string]PreviewEntry),
		logger: logger,
	}
}

// Janitor registers the store whose stale preview files the sweep removes
// alongside the in-memory entries. An abandoned session leaves its file
// under generated/ with nothing else pointing at it.
func (c *PreviewCache) Janitor(j artifactJanitor) {
	c.janitor = j
}

func (c *PreviewCache) Save(entry PreviewEntry) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = c.now()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[entry.ReaderPin] = entry
}

// Get returns a live entry. Expired entries are treated as absent and
// removed eagerly so finalize can never act on stale state.
func (c *PreviewCache) Get(pin string) (PreviewEntry, bool) {
	c.mu.RLock()
	entry, ok := c.items[pin]
	c.mu.RUnlock()
	if !ok {
		return PreviewEntry{}, false
	}
	if c.now().Sub(entry.CreatedAt) > c.ttl {
		c.Delete(pin)
		return PreviewEntry{}, false
	}
	return entry, true
}

func (c *PreviewCache) Delete(pin string) {
	c.mu.Lock()
	delete(c.items, pin)
	c.mu.Unlock()
}

func (c *PreviewCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// StartSweep launches the eviction loop. It is the only autonomous
// activity in the process and stops when the context is cancelled.
func (c *PreviewCache) StartSweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sweep()
			}
		}
	}()
}

func (c *PreviewCache) sweep() {
	cutoff := c.now().Add(-c.ttl)
	c.mu.Lock()
	for pin, entry := range c.items {
		if entry.CreatedAt.Before(cutoff) {
			delete(c.items, pin)
			c.logger.Debug("evicted expired preview", zap.String("pin", pin))
		}
	}
	c.mu.Unlock()

	if c.janitor == nil {
		return
	}
	removed, err := c.janitor.CleanupOlderThan(c.ttl)
	if err != nil {
		c.logger.Warn("preview file cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		c.logger.Debug("removed orphaned preview files", zap.Int("count", len(removed)))
	}
}
