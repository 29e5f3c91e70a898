package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"clickboard/pkg/constants"
	"clickboard/pkg/logger"
	"clickboard/pkg/metrics"

	"github.com/google/uuid"
	"k8s.io/utils/clock"
)

// State is the per-cycle state machine:
// Idle -> Generating -> Distributing -> Reconciling -> Idle.
type State int32

const (
	StateIdle State = iota
	StateGenerating
	StateDistributing
	StateReconciling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGenerating:
		return "generating"
	case StateDistributing:
		return "distributing"
	case StateReconciling:
		return "reconciling"
	default:
		return "unknown"
	}
}

// Options are the timing parameters of the scheduler.
type Options struct {
	CyclePeriod  time.Duration
	TickInterval time.Duration
	Window       time.Duration
	CallTimeout  time.Duration
}

// Scheduler owns all synthetic-traffic state. The cycle and tick guards are
// the only concurrency control; both are atomic test-and-set flags.
type Scheduler struct {
	opts        Options
	clock       clock.WithTicker
	catalog     *Catalog
	planner     Planner
	applier     DeltaApplier
	broadcaster Broadcaster
	stats       StatsProvider
	lock        CycleLock
	newSession  func() string

	cycleRunning atomic.Bool
	tickRunning  atomic.Bool
	state        atomic.Int32

	mu         sync.Mutex
	active     *Cycle
	lastReport *CycleReport
}

// Option configures optional collaborators.
type Option func(*Scheduler)

// WithClock replaces the real clock, mainly for tests.
func WithClock(c clock.WithTicker) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithStatsProvider enables the per-cycle statsChanged broadcast.
func WithStatsProvider(p StatsProvider) Option {
	return func(s *Scheduler) { s.stats = p }
}

// WithCycleLock guards cycles across replicas.
func WithCycleLock(l CycleLock) Option {
	return func(s *Scheduler) { s.lock = l }
}

// WithSessionIDs overrides the synthetic session id generator.
func WithSessionIDs(fn func() string) Option {
	return func(s *Scheduler) { s.newSession = fn }
}

// New creates an idle scheduler.
func New(opts Options, catalog *Catalog, planner Planner, applier DeltaApplier, broadcaster Broadcaster, options ...Option) *Scheduler {
	s := &Scheduler{
		opts:        opts,
		clock:       clock.RealClock{},
		catalog:     catalog,
		planner:     planner,
		applier:     applier,
		broadcaster: broadcaster,
		newSession: func() string {
			return constants.SyntheticSessionPrefix + uuid.NewString()
		},
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Run drives both trigger sequences from a single loop until ctx is done.
// Work for one trigger finishes before the next is taken off its ticker.
func (s *Scheduler) Run(ctx context.Context) error {
	logger.InfoCtx(ctx, "synthetic engagement scheduler started (cycle period %v, tick %v, window %v)",
		s.opts.CyclePeriod, s.opts.TickInterval, s.opts.Window)

	cycleTicker := s.clock.NewTicker(s.opts.CyclePeriod)
	defer cycleTicker.Stop()
	distributionTicker := s.clock.NewTicker(s.opts.TickInterval)
	defer distributionTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.discard(context.WithoutCancel(ctx))
			logger.InfoCtx(ctx, "synthetic engagement scheduler stopped")
			return nil
		case <-cycleTicker.C():
			if _, err := s.TriggerCycle(ctx); err != nil {
				logger.WarnCtx(ctx, "scheduler cycle aborted: %v", err)
			}
		case <-distributionTicker.C():
			s.Tick(ctx)
		}
	}
}

// State returns the current state machine position.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

func (s *Scheduler) setState(st State) {
	s.state.Store(int32(st))
}

// discard drops an in-flight cycle without persisting it.
func (s *Scheduler) discard(ctx context.Context) {
	s.mu.Lock()
	cycle := s.active
	s.active = nil
	s.mu.Unlock()

	if cycle == nil {
		return
	}
	logger.WarnCtx(ctx, "discarding unfinished cycle %s (%d jobs)", cycle.ID, len(cycle.Jobs))
	metrics.CyclesTotal.WithLabelValues("discarded").Inc()
	s.release(ctx, cycle.lockHeld)
}

// release returns the scheduler to Idle and frees the cycle guard.
func (s *Scheduler) release(ctx context.Context, lockHeld bool) {
	if lockHeld && s.lock != nil {
		if err := s.lock.Unlock(ctx); err != nil {
			logger.WarnCtx(ctx, "failed to release cycle lock: %v", err)
		}
	}
	metrics.ActiveJobs.Set(0)
	s.setState(StateIdle)
	s.cycleRunning.Store(false)
}

// JobStatus describes one job of the running cycle.
type JobStatus struct {
	Region         string  `json:"region"`
	RegionCode     string  `json:"regionCode"`
	SessionID      string  `json:"sessionId"`
	Entities       int     `json:"entities"`
	TotalUnits     int     `json:"totalUnits"`
	UnitsCompleted int     `json:"unitsCompleted"`
	UnitsPerSecond float64 `json:"unitsPerSecond"`
}

// CycleReport summarizes a reconciled cycle.
type CycleReport struct {
	CycleID      string    `json:"cycleId"`
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt"`
	Jobs         int       `json:"jobs"`
	Units        int       `json:"units"`
	Deltas       int       `json:"deltas"`
	FailedDeltas int       `json:"failedDeltas"`
	Entities     int       `json:"entities"`
}

// Status is a point-in-time view of the scheduler.
type Status struct {
	State            string       `json:"state"`
	CycleID          string       `json:"cycleId,omitempty"`
	CycleStartedAt   *time.Time   `json:"cycleStartedAt,omitempty"`
	Jobs             []JobStatus  `json:"jobs"`
	CatalogSize      int          `json:"catalogSize"`
	CatalogFetchedAt time.Time    `json:"catalogFetchedAt"`
	LastCycle        *CycleReport `json:"lastCycle,omitempty"`
}

// Status reports the running cycle's progress and the last reconciled cycle.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		State: s.State().String(),
		Jobs:  []JobStatus{},
	}
	if s.catalog != nil {
		st.CatalogSize = s.catalog.Size()
		st.CatalogFetchedAt = s.catalog.FetchedAt()
	}
	if s.lastReport != nil {
		report := *s.lastReport
		st.LastCycle = &report
	}
	if s.active == nil {
		return st
	}

	started := s.active.StartedAt
	st.CycleID = s.active.ID
	st.CycleStartedAt = &started
	for _, j := range s.active.Jobs {
		st.Jobs = append(st.Jobs, JobStatus{
			Region:         j.Region.Name,
			RegionCode:     j.Region.Code,
			SessionID:      j.SessionID,
			Entities:       len(j.Scenarios),
			TotalUnits:     j.TotalUnits,
			UnitsCompleted: j.UnitsCompleted(),
			UnitsPerSecond: j.UnitsPerSecond,
		})
	}
	return st
}
