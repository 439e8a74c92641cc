// Package locator draws public booking locators.
package locator

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"provider/internal/models"
)

// ExistsFunc reports whether a locator is already taken.
type ExistsFunc func(ctx context.Context, locator int64) (bool, error)

type Generator struct {
	mu          sync.Mutex
	rnd         *rand.Rand
	maxAttempts int
}

func New(maxAttempts int) *Generator {
	return NewWithSource(maxAttempts, rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// NewWithSource is used by tests to get a deterministic sequence.
func NewWithSource(maxAttempts int, src rand.Source) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = models.DefaultLocatorAttempts
	}
	return &Generator{rnd: rand.New(src), maxAttempts: maxAttempts}
}

// Next draws uniformly from [MinLocator, MaxLocator] until exists reports a free value.
func (g *Generator) Next(ctx context.Context, exists ExistsFunc) (int64, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		candidate := g.draw()
		taken, err := exists(ctx, candidate)
		if err != nil {
			return 0, fmt.Errorf("check locator %d: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return 0, fmt.Errorf("no free locator after %d attempts", g.maxAttempts)
}

func (g *Generator) draw() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return models.MinLocator + g.rnd.Int64N(models.MaxLocator-models.MinLocator+1)
}
