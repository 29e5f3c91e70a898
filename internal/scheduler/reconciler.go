package scheduler

import (
	"context"
	"fmt"

	"clickboard/internal/model"
	"clickboard/pkg/constants"
	"clickboard/pkg/logger"
	"clickboard/pkg/metrics"
)

// reconcile writes one aggregated delta per (character, region) key, then
// announces each updated character once. State is cleared whatever happens.
func (s *Scheduler) reconcile(ctx context.Context, cycle *Cycle) {
	// Once started, the write pass runs to the end; each call is bounded by
	// the call timeout.
	ctx = context.WithoutCancel(ctx)
	start := s.clock.Now()
	defer func() {
		metrics.ReconcileDuration.Observe(s.clock.Since(start).Seconds())
		s.release(ctx, cycle.lockHeld)
	}()

	deltas := cycle.acc.deltas()
	report := &CycleReport{
		CycleID:   cycle.ID,
		StartedAt: cycle.StartedAt,
		Jobs:      len(cycle.Jobs),
		Units:     cycle.acc.units,
		Deltas:    len(deltas),
	}

	updated := make(map[string]*model.CharacterSummary)
	order := make([]string, 0)
	for _, delta := range deltas {
		if delta.Empty() {
			continue
		}
		summary, err := s.applyDelta(ctx, delta)
		if err != nil {
			report.FailedDeltas++
			metrics.DeltasAppliedTotal.WithLabelValues("error").Inc()
			logger.ErrorCtx(ctx, "failed to apply delta for character %s in %s: %v",
				delta.CharacterID, delta.Region.Code, err)
			continue
		}
		metrics.DeltasAppliedTotal.WithLabelValues("ok").Inc()

		if _, seen := updated[delta.CharacterID]; !seen {
			order = append(order, delta.CharacterID)
		}
		if summary == nil {
			summary = &model.CharacterSummary{ID: delta.CharacterID}
		}
		updated[delta.CharacterID] = summary
	}

	for _, id := range order {
		s.broadcaster.Broadcast(constants.EventCharacterUpdated, updated[id])
	}
	report.Entities = len(order)

	if s.stats != nil && len(order) > 0 {
		s.broadcastStats(ctx)
	}

	report.FinishedAt = s.clock.Now()
	s.mu.Lock()
	s.lastReport = report
	s.mu.Unlock()

	metrics.CyclesTotal.WithLabelValues("reconciled").Inc()
	logger.InfoCtx(ctx, "cycle reconciled: %d units, %d deltas (%d failed), %d characters updated",
		report.Units, report.Deltas, report.FailedDeltas, report.Entities)
}

// applyDelta bounds one write by the call timeout and turns a panic into an error.
func (s *Scheduler) applyDelta(ctx context.Context, delta model.Delta) (summary *model.CharacterSummary, err error) {
	defer func() {
		if r := recover(); r != nil {
			summary = nil
			err = fmt.Errorf("apply delta panicked: %v", r)
		}
	}()

	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	return s.applier.ApplyDelta(callCtx, delta)
}

func (s *Scheduler) broadcastStats(ctx context.Context) {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	stats, err := s.stats.GetStats(callCtx)
	if err != nil {
		logger.WarnCtx(ctx, "failed to load stats for broadcast: %v", err)
		return
	}
	s.broadcaster.Broadcast(constants.EventStatsChanged, stats)
}

func (s *Scheduler) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.CallTimeout)
}
