package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"clickboard/pkg/logger"

	"k8s.io/utils/clock"
)

// Job represents a periodic background task.
type Job interface {
	Name() string
	Interval() time.Duration
	Run(ctx context.Context) error
}

// Manager orchestrates the lifecycle of background jobs.
type Manager struct {
	ctx     context.Context
	cancel  context.CancelFunc
	clock   clock.WithTicker
	jobs    []Job
	started bool

	mu sync.Mutex
	wg sync.WaitGroup
}

// NewManager creates a job manager bound to the provided context.
func NewManager(parent context.Context) *Manager {
	return NewManagerWithClock(parent, clock.RealClock{})
}

// NewManagerWithClock creates a job manager driven by clk.
func NewManagerWithClock(parent context.Context, clk clock.WithTicker) *Manager {
	ctx, cancel := context.WithCancel(parent)
	return &Manager{
		ctx:    ctx,
		cancel: cancel,
		clock:  clk,
		jobs:   make([]Job, 0),
	}
}

// Register adds a job to the manager.
func (m *Manager) Register(job Job) {
	if job == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
}

// Start launches all registered jobs.
func (m *Manager) Start() {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	jobs := append([]Job(nil), m.jobs...)
	m.mu.Unlock()

	for _, job := range jobs {
		m.wg.Add(1)
		go m.runJob(job)
	}
}

// Stop signals all jobs to stop.
func (m *Manager) Stop() {
	m.cancel()
}

// Wait blocks until all jobs exit.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) runJob(job Job) {
	defer m.wg.Done()

	interval := job.Interval()
	if interval <= 0 {
		interval = time.Minute
	}

	// Run immediately once.
	m.executeJob(job)

	ticker := m.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C():
			m.executeJob(job)
		}
	}
}

func (m *Manager) executeJob(job Job) {
	ctx := logger.WithTraceID(m.ctx, "job-"+job.Name())
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCtx(ctx, "background job %s panicked: %v", job.Name(), r)
		}
	}()

	if err := job.Run(ctx); err != nil {
		logger.WarnCtx(ctx, "background job %s failed: %v", job.Name(), err)
	}
}

// locker is the subset of a distributed lock used to run a job on one replica.
type locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// runExclusive runs fn only if lock is free. A nil lock always runs fn.
func runExclusive(ctx context.Context, lock locker, name string, fn func(ctx context.Context) error) error {
	if lock == nil {
		return fn(ctx)
	}
	ok, err := lock.TryLock(ctx)
	if err != nil {
		return fmt.Errorf("acquire lock for %s: %w", name, err)
	}
	if !ok {
		logger.DebugCtx(ctx, "job %s is running on another instance, skipping", name)
		return nil
	}
	defer func() {
		if err := lock.Unlock(context.WithoutCancel(ctx)); err != nil {
			logger.WarnCtx(ctx, "failed to release lock for %s: %v", name, err)
		}
	}()
	return fn(ctx)
}
