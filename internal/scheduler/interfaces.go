// Package scheduler generates synthetic engagement traffic: each cycle plans a
// handful of region jobs, spreads their clicks evenly over a time window and
// reconciles the accumulated totals with one persistence write per
// (character, region) pair.
package scheduler

import (
	"context"
	"errors"

	"clickboard/internal/model"
)

var (
	// ErrEmptyCatalog is returned when there are no entities to plan for.
	ErrEmptyCatalog = errors.New("entity catalog is empty")
	// ErrNoRegions is returned when the region catalog is empty.
	ErrNoRegions = errors.New("no regions configured")
	// ErrCycleConstruction wraps a panic raised while building a cycle.
	ErrCycleConstruction = errors.New("cycle construction failed")
)

// EntityLister returns the current addressable entities.
type EntityLister interface {
	ListEntities(ctx context.Context) ([]model.Entity, error)
}

// DeltaApplier persists one aggregated delta and returns the updated character.
type DeltaApplier interface {
	ApplyDelta(ctx context.Context, delta model.Delta) (*model.CharacterSummary, error)
}

// Broadcaster notifies connected subscribers. Both calls are fire-and-forget.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
	BroadcastToSession(sessionID, event string, payload interface{})
}

// StatsProvider computes the aggregate stats announced after a cycle.
type StatsProvider interface {
	GetStats(ctx context.Context) (*model.Stats, error)
}

// CycleLock guards cycles across replicas.
type CycleLock interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// Planner turns a catalog snapshot into the region plans of one cycle.
type Planner interface {
	Plan(catalog []model.Entity) ([]RegionPlan, error)
}

// RegionPlan is the workload of one job: one region, a few entities.
type RegionPlan struct {
	Region    model.Region
	Scenarios []EntityScenario
}

// EntityScenario pairs an entity with its click scenario.
type EntityScenario struct {
	Entity   model.Entity
	Scenario model.ClickScenario
}
