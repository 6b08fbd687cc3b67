// Package human generates randomized delays and mouse paths that make
// automated interaction look like a person at a keyboard. All functions are
// pure over the injected random source so behavior is reproducible under a
// fixed seed.
package human

import (
	"math"
	"math/rand"
	"time"
)

// Timing draws human-like delays from an injected random source.
type Timing struct {
	rng *rand.Rand
}

// New creates a Timing over the given source. Pass rand.NewSource(seed) for
// deterministic output in tests.
func New(src rand.Source) *Timing {
	return &Timing{rng: rand.New(src)}
}

// NewDefault creates a Timing seeded from the current time.
func NewDefault() *Timing {
	return New(rand.NewSource(time.Now().UnixNano()))
}

func (t *Timing) uniform(min, max int) time.Duration {
	return time.Duration(min+t.rng.Intn(max-min+1)) * time.Millisecond
}

// NavigationDelay is slept before a navigation in human mode.
func (t *Timing) NavigationDelay() time.Duration { return t.uniform(800, 2500) }

// PreClickDelay is slept between mouse arrival and the click itself.
func (t *Timing) PreClickDelay() time.Duration { return t.uniform(100, 400) }

// PreTypeDelay is slept before typing into a freshly focused field.
func (t *Timing) PreTypeDelay() time.Duration { return t.uniform(200, 600) }

// PreScrollDelay is slept before a scroll gesture.
func (t *Timing) PreScrollDelay() time.Duration { return t.uniform(500, 1500) }

// PostLoadDelay is slept after a page finishes loading.
func (t *Timing) PostLoadDelay() time.Duration { return t.uniform(1000, 3000) }

// IdleDelay simulates a person pausing to read.
func (t *Timing) IdleDelay() time.Duration { return t.uniform(1000, 4000) }

// ReplayStepDelay is the pause between replayed steps in human mode.
func (t *Timing) ReplayStepDelay() time.Duration { return t.uniform(400, 900) }

// CellClickGap is the pause between consecutive grid-cell clicks when
// solving an image-selection challenge.
func (t *Timing) CellClickGap() time.Duration { return t.uniform(200, 500) }

// InterKeyDelay returns the pause between two keystrokes:
// clamp(30, 250, round(Gaussian(100, 40))) milliseconds.
func (t *Timing) InterKeyDelay() time.Duration {
	ms := math.Round(t.rng.NormFloat64()*40 + 100)
	if ms < 30 {
		ms = 30
	}
	if ms > 250 {
		ms = 250
	}
	return time.Duration(ms) * time.Millisecond
}

// ClickOffset returns a small random offset from an element's center,
// uniform in ±3 px on each axis.
func (t *Timing) ClickOffset() (dx, dy float64) {
	return t.rng.Float64()*6 - 3, t.rng.Float64()*6 - 3
}
