package jobs

import (
	"context"
	"time"
)

type catalogRefresher interface {
	Refresh(ctx context.Context) error
}

// CatalogRefreshJob keeps the scheduler's entity snapshot warm. Every replica
// owns its own snapshot, so it runs unguarded.
type CatalogRefreshJob struct {
	catalog  catalogRefresher
	interval time.Duration
}

// NewCatalogRefreshJob creates the catalog-refresh job.
func NewCatalogRefreshJob(catalog catalogRefresher, interval time.Duration) *CatalogRefreshJob {
	return &CatalogRefreshJob{catalog: catalog, interval: interval}
}

func (j *CatalogRefreshJob) Name() string { return "catalog-refresh" }

func (j *CatalogRefreshJob) Interval() time.Duration { return j.interval }

func (j *CatalogRefreshJob) Run(ctx context.Context) error {
	return j.catalog.Refresh(ctx)
}
