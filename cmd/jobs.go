package main

import (
	"clickboard/internal/jobs"
	"clickboard/pkg/lock"
)

// initJobs registers the periodic background jobs
func (app *Application) initJobs() error {
	manager := jobs.NewManager(app.ctx)

	// The catalog is a per-replica snapshot: refresh it everywhere.
	manager.Register(jobs.NewCatalogRefreshJob(app.catalog, app.config.Scheduler.CatalogStaleness))

	// The leaderboard cache is shared through Redis: one replica warms it.
	warmLock := lock.New(app.redisClient.GetClient(), "jobs:leaderboard-warm-lock")
	manager.Register(jobs.NewLeaderboardWarmJob(app.leaderboardService, warmLock, app.config.Cache.LeaderboardTTL))

	app.jobsManager = manager
	return nil
}
