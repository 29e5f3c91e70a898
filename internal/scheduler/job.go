package scheduler

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"clickboard/internal/model"
)

// Job is the synthetic workload of one region within one cycle. Everything
// except the progress counters is fixed at creation.
type Job struct {
	Region         model.Region
	SessionID      string
	Scenarios      []EntityScenario
	TotalUnits     int
	UnitsPerSecond float64
	StartTime      time.Time

	window         time.Duration
	unitsCompleted int
	emitted        []int // per scenario
}

func newJob(plan RegionPlan, sessionID string, start time.Time, window time.Duration) (*Job, error) {
	if len(plan.Scenarios) == 0 {
		return nil, errors.New("job has no scenarios")
	}
	if window <= 0 {
		return nil, fmt.Errorf("invalid window %v", window)
	}

	total := 0
	for _, s := range plan.Scenarios {
		if s.Scenario.Count <= 0 {
			return nil, fmt.Errorf("scenario for %s has non-positive count %d", s.Entity.ID, s.Scenario.Count)
		}
		if s.Scenario.Direction != model.Positive && s.Scenario.Direction != model.Negative {
			return nil, fmt.Errorf("scenario for %s has invalid direction %d", s.Entity.ID, s.Scenario.Direction)
		}
		total += s.Scenario.Count
	}

	return &Job{
		Region:         plan.Region,
		SessionID:      sessionID,
		Scenarios:      append([]EntityScenario(nil), plan.Scenarios...),
		TotalUnits:     total,
		UnitsPerSecond: float64(total) / window.Seconds(),
		StartTime:      start,
		window:         window,
		emitted:        make([]int, len(plan.Scenarios)),
	}, nil
}

// UnitsCompleted returns how many unit events the job has emitted so far.
func (j *Job) UnitsCompleted() int {
	return j.unitsCompleted
}

// Complete reports whether every unit has been emitted.
func (j *Job) Complete() bool {
	return j.unitsCompleted >= j.TotalUnits
}

// expectedUnits is the number of units that should have occurred by now.
// Derived from elapsed time, so late or missed ticks catch up on the next one.
func (j *Job) expectedUnits(now time.Time) int {
	elapsed := now.Sub(j.StartTime)
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= j.window {
		return j.TotalUnits
	}
	expected := int(math.Floor(elapsed.Seconds() * j.UnitsPerSecond))
	if expected > j.TotalUnits {
		return j.TotalUnits
	}
	return expected
}

// advance emits the units due at now into acc and returns how many positive
// and negative units were emitted.
func (j *Job) advance(now time.Time, acc *accumulator) (positive, negative, clamped int) {
	if j.Complete() {
		return 0, 0, 0
	}
	expected := j.expectedUnits(now)
	if expected <= j.unitsCompleted {
		return 0, 0, 0
	}
	toEmit := min(expected-j.unitsCompleted, j.TotalUnits-j.unitsCompleted)

	for i := 0; i < toEmit; i++ {
		idx, ok := j.nextScenario()
		if !ok {
			// every scenario is exhausted: never emit more than planned
			return positive, negative, toEmit - i
		}
		s := j.Scenarios[idx]
		j.emitted[idx]++
		j.unitsCompleted++
		acc.add(s.Entity.ID, j.Region, j.SessionID, s.Scenario.Direction)
		if s.Scenario.Direction == model.Positive {
			positive++
		} else {
			negative++
		}
	}
	return positive, negative, 0
}

// nextScenario picks the entity for the next unit: round-robin starting at
// unitsCompleted % entityCount, skipping entities whose scenario is spent.
func (j *Job) nextScenario() (int, bool) {
	n := len(j.Scenarios)
	start := j.unitsCompleted % n
	for k := 0; k < n; k++ {
		idx := (start + k) % n
		if j.emitted[idx] < j.Scenarios[idx].Scenario.Count {
			return idx, true
		}
	}
	return -1, false
}

// Cycle is the set of jobs of one scheduler trigger.
type Cycle struct {
	ID        string
	StartedAt time.Time
	Jobs      []*Job

	acc      *accumulator
	lockHeld bool
}

// Complete reports whether every job has emitted all of its units.
func (c *Cycle) Complete() bool {
	for _, j := range c.Jobs {
		if !j.Complete() {
			return false
		}
	}
	return true
}

// TotalUnits sums the planned units of every job.
func (c *Cycle) TotalUnits() int {
	total := 0
	for _, j := range c.Jobs {
		total += j.TotalUnits
	}
	return total
}

type deltaKey struct {
	characterID string
	regionCode  string
}

// accumulator folds unit events into one bucket per (character, region).
type accumulator struct {
	buckets map[deltaKey]*model.Delta
	units   int
}

func newAccumulator() *accumulator {
	return &accumulator{buckets: make(map[deltaKey]*model.Delta)}
}

func (a *accumulator) add(characterID string, region model.Region, sessionID string, direction model.Direction) {
	key := deltaKey{characterID: characterID, regionCode: region.Code}
	bucket, ok := a.buckets[key]
	if !ok {
		// the first job touching the key owns the session id
		bucket = &model.Delta{CharacterID: characterID, Region: region, SessionID: sessionID}
		a.buckets[key] = bucket
	}
	if direction == model.Positive {
		bucket.PositiveCount++
	} else {
		bucket.NegativeCount++
	}
	bucket.NetChange += direction.Sign()
	a.units++
}

// deltas returns the buckets sorted by character id, then region code.
func (a *accumulator) deltas() []model.Delta {
	out := make([]model.Delta, 0, len(a.buckets))
	for _, d := range a.buckets {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].CharacterID != out[k].CharacterID {
			return out[i].CharacterID < out[k].CharacterID
		}
		return out[i].Region.Code < out[k].Region.Code
	})
	return out
}
