package scheduler

import (
	"context"
	"fmt"

	"clickboard/internal/model"
	"clickboard/pkg/logger"
	"clickboard/pkg/metrics"

	"github.com/google/uuid"
)

// TriggerCycle starts a new cycle unless one is already running. It returns
// false with a nil error when the trigger was skipped.
func (s *Scheduler) TriggerCycle(ctx context.Context) (started bool, err error) {
	if !s.cycleRunning.CompareAndSwap(false, true) {
		metrics.CyclesTotal.WithLabelValues("skipped").Inc()
		logger.DebugCtx(ctx, "cycle trigger skipped, previous cycle still %s", s.State())
		return false, nil
	}

	cycleID := "cycle-" + uuid.NewString()[:8]
	ctx = logger.WithTraceID(ctx, cycleID)

	lockHeld := false
	defer func() {
		if !started {
			s.release(ctx, lockHeld)
		}
	}()

	if s.lock != nil {
		ok, lockErr := s.lock.TryLock(ctx)
		if lockErr != nil {
			metrics.CyclesTotal.WithLabelValues("aborted").Inc()
			return false, fmt.Errorf("acquire cycle lock: %w", lockErr)
		}
		if !ok {
			metrics.CyclesTotal.WithLabelValues("locked").Inc()
			logger.DebugCtx(ctx, "cycle lock held by another instance, skipping")
			return false, nil
		}
		lockHeld = true
	}

	s.setState(StateGenerating)

	// Residual state from an interrupted cycle never leaks into this one.
	s.mu.Lock()
	s.active = nil
	s.mu.Unlock()

	if s.catalog == nil {
		metrics.CyclesTotal.WithLabelValues("aborted").Inc()
		return false, ErrEmptyCatalog
	}
	if refreshErr := s.catalog.RefreshIfStale(ctx); refreshErr != nil {
		logger.WarnCtx(ctx, "catalog refresh failed, planning from cached snapshot: %v", refreshErr)
	}

	cycle, err := s.buildCycle(cycleID, s.catalog.Snapshot())
	if err != nil {
		metrics.CyclesTotal.WithLabelValues("aborted").Inc()
		logger.WarnCtx(ctx, "failed to build cycle: %v", err)
		return false, err
	}
	cycle.lockHeld = lockHeld

	s.mu.Lock()
	s.active = cycle
	s.mu.Unlock()
	s.setState(StateDistributing)

	metrics.CyclesTotal.WithLabelValues("started").Inc()
	metrics.ActiveJobs.Set(float64(len(cycle.Jobs)))
	logger.InfoCtx(ctx, "cycle started with %d jobs, %d units over %v",
		len(cycle.Jobs), cycle.TotalUnits(), s.opts.Window)
	return true, nil
}

// buildCycle plans the cycle and materializes its jobs. A panic in the
// planner is converted to ErrCycleConstruction.
func (s *Scheduler) buildCycle(cycleID string, catalog []model.Entity) (cycle *Cycle, err error) {
	defer func() {
		if r := recover(); r != nil {
			cycle = nil
			err = fmt.Errorf("%w: %v", ErrCycleConstruction, r)
		}
	}()

	plans, err := s.planner.Plan(catalog)
	if err != nil {
		return nil, fmt.Errorf("plan cycle: %w", err)
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("plan cycle: %w", ErrNoRegions)
	}

	now := s.clock.Now()
	cycle = &Cycle{
		ID:        cycleID,
		StartedAt: now,
		Jobs:      make([]*Job, 0, len(plans)),
		acc:       newAccumulator(),
	}
	for _, plan := range plans {
		job, jobErr := newJob(plan, s.newSession(), now, s.opts.Window)
		if jobErr != nil {
			return nil, fmt.Errorf("%w: region %s: %v", ErrCycleConstruction, plan.Region.Code, jobErr)
		}
		cycle.Jobs = append(cycle.Jobs, job)
	}
	return cycle, nil
}
