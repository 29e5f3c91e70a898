package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	clocktesting "k8s.io/utils/clock/testing"
)

type countingJob struct {
	name  string
	runs  atomic.Int32
	err   error
	panic bool
}

func (j *countingJob) Name() string            { return j.name }
func (j *countingJob) Interval() time.Duration { return time.Minute }
func (j *countingJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.panic {
		panic("job bug")
	}
	return j.err
}

func TestManager_RunsImmediatelyThenOnInterval(t *testing.T) {
	defer goleak.VerifyNone(t)

	fc := clocktesting.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	m := NewManagerWithClock(context.Background(), fc)
	ok := &countingJob{name: "ok"}
	failing := &countingJob{name: "failing", err: errors.New("boom")}
	panicking := &countingJob{name: "panicking", panic: true}
	m.Register(ok)
	m.Register(failing)
	m.Register(panicking)
	m.Register(nil)
	m.Start()
	m.Start()

	require.Eventually(t, func() bool {
		return ok.runs.Load() == 1 && failing.runs.Load() == 1 && panicking.runs.Load() == 1
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool { return fc.Waiters() == 3 }, time.Second, 5*time.Millisecond)
	fc.Step(time.Minute)

	require.Eventually(t, func() bool {
		return ok.runs.Load() == 2 && failing.runs.Load() == 2 && panicking.runs.Load() == 2
	}, time.Second, 5*time.Millisecond)

	m.Stop()
	m.Wait()
}

type fakeLocker struct {
	free     bool
	err      error
	unlocked int
}

func (l *fakeLocker) TryLock(ctx context.Context) (bool, error) { return l.free, l.err }
func (l *fakeLocker) Unlock(ctx context.Context) error {
	l.unlocked++
	return nil
}

type fakeWarmer struct{ calls int }

func (w *fakeWarmer) Warm(ctx context.Context) error {
	w.calls++
	return nil
}

func TestLeaderboardWarmJob_Lock(t *testing.T) {
	ctx := context.Background()
	warmer := &fakeWarmer{}

	busy := &fakeLocker{free: false}
	require.NoError(t, NewLeaderboardWarmJob(warmer, busy, time.Second).Run(ctx))
	assert.Zero(t, warmer.calls)
	assert.Zero(t, busy.unlocked)

	free := &fakeLocker{free: true}
	job := NewLeaderboardWarmJob(warmer, free, 10*time.Second)
	require.NoError(t, job.Run(ctx))
	assert.Equal(t, 1, warmer.calls)
	assert.Equal(t, 1, free.unlocked)
	assert.Equal(t, "leaderboard-warm", job.Name())
	assert.Equal(t, 10*time.Second, job.Interval())

	broken := &fakeLocker{err: errors.New("redis down")}
	assert.Error(t, NewLeaderboardWarmJob(warmer, broken, time.Second).Run(ctx))

	require.NoError(t, NewLeaderboardWarmJob(warmer, nil, time.Second).Run(ctx))
	assert.Equal(t, 2, warmer.calls)
}

type fakeRefresher struct{ calls int }

func (r *fakeRefresher) Refresh(ctx context.Context) error {
	r.calls++
	return nil
}

func TestCatalogRefreshJob(t *testing.T) {
	r := &fakeRefresher{}
	job := NewCatalogRefreshJob(r, 5*time.Minute)
	assert.Equal(t, "catalog-refresh", job.Name())
	assert.Equal(t, 5*time.Minute, job.Interval())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, r.calls)
}
