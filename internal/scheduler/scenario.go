package scheduler

import (
	"math/rand/v2"
	"sync"

	"clickboard/internal/model"
)

// GeneratorConfig bounds the randomized plans. All ranges are inclusive.
type GeneratorConfig struct {
	Regions []model.Region

	MinRegions  int
	MaxRegions  int
	MinEntities int
	MaxEntities int
	MinClicks   int
	MaxClicks   int

	// PositiveDrawThreshold t: positive iff min(u1, u2) < t for two
	// independent uniform draws, so P(positive) = 1 - (1-t)^2.
	PositiveDrawThreshold float64
}

// Generator is the default Planner. Its output is fully determined by the seed.
// Plan is safe for concurrent use; the Select and Generate helpers are not.
type Generator struct {
	cfg GeneratorConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator creates a generator over cfg seeded with seed.
func NewGenerator(cfg GeneratorConfig, seed int64) *Generator {
	if cfg.Regions == nil {
		cfg.Regions = model.PopularRegions()
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)),
	}
}

// PositiveProbability is the probability that a generated scenario is positive.
func (g *Generator) PositiveProbability() float64 {
	miss := 1 - g.cfg.PositiveDrawThreshold
	return 1 - miss*miss
}

// Plan picks the regions of a cycle and, for each, a few entities with their
// click scenarios.
func (g *Generator) Plan(catalog []model.Entity) ([]RegionPlan, error) {
	if len(catalog) == 0 {
		return nil, ErrEmptyCatalog
	}
	if len(g.cfg.Regions) == 0 {
		return nil, ErrNoRegions
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	regions := g.SelectRegions(g.regionCount())
	plans := make([]RegionPlan, 0, len(regions))
	for _, region := range regions {
		entities := g.SelectEntities(catalog)
		scenarios := make([]EntityScenario, 0, len(entities))
		for _, entity := range entities {
			scenarios = append(scenarios, EntityScenario{Entity: entity, Scenario: g.GenerateScenario()})
		}
		plans = append(plans, RegionPlan{Region: region, Scenarios: scenarios})
	}
	return plans, nil
}

func (g *Generator) regionCount() int {
	return g.between(g.cfg.MinRegions, g.cfg.MaxRegions)
}

// SelectRegions samples n distinct regions without replacement.
func (g *Generator) SelectRegions(n int) []model.Region {
	return sample(g.rng, g.cfg.Regions, n)
}

// SelectEntities samples between MinEntities and MaxEntities distinct
// entities, capped by the catalog size.
func (g *Generator) SelectEntities(catalog []model.Entity) []model.Entity {
	return sample(g.rng, catalog, g.between(g.cfg.MinEntities, g.cfg.MaxEntities))
}

// GenerateScenario draws a click count and a direction.
func (g *Generator) GenerateScenario() model.ClickScenario {
	count := g.between(g.cfg.MinClicks, g.cfg.MaxClicks)

	u1, u2 := g.rng.Float64(), g.rng.Float64()
	direction := model.Negative
	if min(u1, u2) < g.cfg.PositiveDrawThreshold {
		direction = model.Positive
	}
	return model.ClickScenario{Count: count, Direction: direction}
}

// between returns a uniform integer in [lo, hi].
func (g *Generator) between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + g.rng.IntN(hi-lo+1)
}

// sample returns k distinct items using a partial Fisher-Yates shuffle of a copy.
func sample[T any](rng *rand.Rand, items []T, k int) []T {
	pool := append([]T(nil), items...)
	if k > len(pool) {
		k = len(pool)
	}
	if k < 0 {
		k = 0
	}
	for i := 0; i < k; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}
