package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"clickboard/internal/model"

	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

var (
	alpha = model.Entity{ID: "char-a", Name: "Alpha"}
	bravo = model.Entity{ID: "char-b", Name: "Bravo"}
	charl = model.Entity{ID: "char-c", Name: "Charlie"}

	hongKong = model.Region{Name: "Hong Kong", Code: "HK"}
	japan    = model.Region{Name: "Japan", Code: "JP"}
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeLister struct {
	mu       sync.Mutex
	entities []model.Entity
	err      error
	calls    int
}

func (f *fakeLister) ListEntities(ctx context.Context) ([]model.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.Entity(nil), f.entities...), nil
}

func (f *fakeLister) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type recordingApplier struct {
	mu     sync.Mutex
	calls  []model.Delta
	fail   map[string]error
	panics map[string]bool

	// when gate is set, every call signals entered and waits for gate to close
	gate    chan struct{}
	entered chan struct{}
}

func deltaID(characterID, regionCode string) string {
	return characterID + "/" + regionCode
}

func (r *recordingApplier) ApplyDelta(ctx context.Context, delta model.Delta) (*model.CharacterSummary, error) {
	r.mu.Lock()
	r.calls = append(r.calls, delta)
	err := r.fail[deltaID(delta.CharacterID, delta.Region.Code)]
	panics := r.panics[deltaID(delta.CharacterID, delta.Region.Code)]
	gate, entered := r.gate, r.entered
	r.mu.Unlock()

	if gate != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-gate
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if panics {
		panic("store exploded")
	}
	if err != nil {
		return nil, err
	}
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("apply delta called without a deadline")
	}
	return &model.CharacterSummary{ID: delta.CharacterID, TotalPoints: delta.NetChange}, nil
}

func (r *recordingApplier) Calls() []model.Delta {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Delta(nil), r.calls...)
}

type broadcastEvent struct {
	session string
	event   string
	payload interface{}
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
}

func (r *recordingBroadcaster) Broadcast(event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, broadcastEvent{event: event, payload: payload})
}

func (r *recordingBroadcaster) BroadcastToSession(sessionID, event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, broadcastEvent{session: sessionID, event: event, payload: payload})
}

func (r *recordingBroadcaster) Events(name string) []broadcastEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []broadcastEvent
	for _, e := range r.events {
		if e.event == name {
			out = append(out, e)
		}
	}
	return out
}

type stubPlanner struct {
	mu    sync.Mutex
	plans []RegionPlan
	err   error
	panic bool
	calls int
}

func (p *stubPlanner) Plan(catalog []model.Entity) ([]RegionPlan, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.panic {
		panic("planner bug")
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.plans, nil
}

func (p *stubPlanner) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type stubStats struct {
	calls int
}

func (s *stubStats) GetStats(ctx context.Context) (*model.Stats, error) {
	s.calls++
	return &model.Stats{OverallPoints: []model.PointsRow{{CharacterID: alpha.ID, TotalPoints: 1}}}, nil
}

type stubLock struct {
	mu      sync.Mutex
	acquire bool
	err     error
	locks   int
	unlocks int
}

func (l *stubLock) TryLock(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	if l.acquire {
		l.locks++
	}
	return l.acquire, nil
}

func (l *stubLock) Unlock(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unlocks++
	return nil
}

type harness struct {
	sched       *Scheduler
	clock       *clocktesting.FakeClock
	lister      *fakeLister
	applier     *recordingApplier
	broadcaster *recordingBroadcaster
}

var testOptions = Options{
	CyclePeriod:  time.Minute,
	TickInterval: time.Second,
	Window:       time.Minute,
	CallTimeout:  time.Second,
}

func newHarness(t *testing.T, planner Planner, opts ...Option) *harness {
	t.Helper()

	fc := clocktesting.NewFakeClock(t0)
	lister := &fakeLister{entities: []model.Entity{alpha, bravo, charl}}
	catalog := NewCatalog(lister, 5*time.Minute, time.Second, fc)
	require.NoError(t, catalog.Refresh(context.Background()))

	h := &harness{
		clock:       fc,
		lister:      lister,
		applier:     &recordingApplier{},
		broadcaster: &recordingBroadcaster{},
	}
	sessions := 0
	all := append([]Option{
		WithClock(fc),
		WithSessionIDs(func() string {
			sessions++
			return fmt.Sprintf("algo_test_%d", sessions)
		}),
	}, opts...)
	h.sched = New(testOptions, catalog, planner, h.applier, h.broadcaster, all...)
	return h
}

// runWindow ticks once per second until the window has fully elapsed.
func (h *harness) runWindow(ctx context.Context) {
	for i := 0; i < int(testOptions.Window/time.Second)+1; i++ {
		h.clock.Step(time.Second)
		h.sched.Tick(ctx)
	}
}

func twoRegionPlans() []RegionPlan {
	return []RegionPlan{
		{Region: hongKong, Scenarios: []EntityScenario{
			{Entity: alpha, Scenario: model.ClickScenario{Count: 400, Direction: model.Positive}},
		}},
		{Region: japan, Scenarios: []EntityScenario{
			{Entity: bravo, Scenario: model.ClickScenario{Count: 600, Direction: model.Negative}},
		}},
	}
}
