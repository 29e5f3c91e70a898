package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"clickboard/internal/model"
	"clickboard/pkg/logger"
	"clickboard/pkg/metrics"

	"k8s.io/utils/clock"
)

// Catalog caches a snapshot of the entity list so cycles never wait on a
// live query. Readers load the snapshot atomically; refreshes replace it whole.
type Catalog struct {
	lister    EntityLister
	staleness time.Duration
	timeout   time.Duration
	clock     clock.PassiveClock

	snapshot  atomic.Pointer[catalogSnapshot]
	refreshMu sync.Mutex
}

type catalogSnapshot struct {
	entities  []model.Entity
	fetchedAt time.Time
}

// NewCatalog creates an empty catalog. Call Refresh once at start-up.
func NewCatalog(lister EntityLister, staleness, timeout time.Duration, clk clock.PassiveClock) *Catalog {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Catalog{
		lister:    lister,
		staleness: staleness,
		timeout:   timeout,
		clock:     clk,
	}
}

// Refresh fetches the entity list and swaps the snapshot. On failure the
// previous snapshot is kept.
func (c *Catalog) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	entities, err := c.lister.ListEntities(callCtx)
	if err != nil {
		metrics.CatalogRefreshTotal.WithLabelValues("error").Inc()
		logger.WarnCtx(ctx, "failed to refresh entity catalog, keeping previous snapshot: %v", err)
		return fmt.Errorf("refresh entity catalog: %w", err)
	}

	snap := &catalogSnapshot{
		entities:  append([]model.Entity(nil), entities...),
		fetchedAt: c.clock.Now(),
	}
	c.snapshot.Store(snap)

	metrics.CatalogRefreshTotal.WithLabelValues("ok").Inc()
	metrics.CatalogSize.Set(float64(len(snap.entities)))
	logger.DebugCtx(ctx, "entity catalog refreshed, %d entities", len(snap.entities))
	return nil
}

// RefreshIfStale refreshes when the snapshot is missing or older than the
// staleness threshold.
func (c *Catalog) RefreshIfStale(ctx context.Context) error {
	if !c.Stale() {
		return nil
	}
	return c.Refresh(ctx)
}

// Stale reports whether the snapshot is missing or older than the threshold.
func (c *Catalog) Stale() bool {
	snap := c.snapshot.Load()
	if snap == nil {
		return true
	}
	return c.clock.Since(snap.fetchedAt) > c.staleness
}

// Snapshot returns a copy of the cached entities without any I/O.
func (c *Catalog) Snapshot() []model.Entity {
	snap := c.snapshot.Load()
	if snap == nil {
		return nil
	}
	return append([]model.Entity(nil), snap.entities...)
}

// FetchedAt returns when the snapshot was taken; zero if never.
func (c *Catalog) FetchedAt() time.Time {
	snap := c.snapshot.Load()
	if snap == nil {
		return time.Time{}
	}
	return snap.fetchedAt
}

// Size returns the number of cached entities.
func (c *Catalog) Size() int {
	snap := c.snapshot.Load()
	if snap == nil {
		return 0
	}
	return len(snap.entities)
}
