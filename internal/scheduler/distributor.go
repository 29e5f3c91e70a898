package scheduler

import (
	"context"

	"clickboard/internal/model"
	"clickboard/pkg/logger"
	"clickboard/pkg/metrics"
)

// Tick emits the units due for every job of the active cycle. Once the cycle
// is complete it is detached and reconciled before Tick returns.
func (s *Scheduler) Tick(ctx context.Context) {
	if !s.tickRunning.CompareAndSwap(false, true) {
		metrics.TicksSkippedTotal.Inc()
		return
	}
	defer s.tickRunning.Store(false)

	cycle := s.distribute(ctx)
	if cycle == nil {
		return
	}
	s.reconcile(logger.WithTraceID(ctx, cycle.ID), cycle)
}

// distribute advances the active cycle and returns it when it just completed.
func (s *Scheduler) distribute(ctx context.Context) *Cycle {
	s.mu.Lock()
	defer s.mu.Unlock()

	cycle := s.active
	if cycle == nil {
		return nil
	}

	now := s.clock.Now()
	var positive, negative, clamped int
	for _, job := range cycle.Jobs {
		p, n, c := job.advance(now, cycle.acc)
		positive += p
		negative += n
		clamped += c
	}
	if positive > 0 {
		metrics.UnitsEmittedTotal.WithLabelValues(model.Positive.String()).Add(float64(positive))
	}
	if negative > 0 {
		metrics.UnitsEmittedTotal.WithLabelValues(model.Negative.String()).Add(float64(negative))
	}
	if clamped > 0 {
		metrics.InvariantClampTotal.Add(float64(clamped))
		logger.WarnCtx(logger.WithTraceID(ctx, cycle.ID), "clamped %d units past job totals", clamped)
	}

	if !cycle.Complete() {
		return nil
	}
	s.active = nil
	s.setState(StateReconciling)
	return cycle
}
