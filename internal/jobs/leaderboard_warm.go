package jobs

import (
	"context"
	"time"
)

type leaderboardWarmer interface {
	Warm(ctx context.Context) error
}

// LeaderboardWarmJob recomputes the shared leaderboard cache. The cache lives
// in Redis, so only the replica holding the lock does the work.
type LeaderboardWarmJob struct {
	warmer   leaderboardWarmer
	lock     locker
	interval time.Duration
}

// NewLeaderboardWarmJob creates the leaderboard-warm job. lock may be nil.
func NewLeaderboardWarmJob(warmer leaderboardWarmer, lock locker, interval time.Duration) *LeaderboardWarmJob {
	return &LeaderboardWarmJob{warmer: warmer, lock: lock, interval: interval}
}

func (j *LeaderboardWarmJob) Name() string { return "leaderboard-warm" }

func (j *LeaderboardWarmJob) Interval() time.Duration { return j.interval }

func (j *LeaderboardWarmJob) Run(ctx context.Context) error {
	return runExclusive(ctx, j.lock, j.Name(), j.warmer.Warm)
}
