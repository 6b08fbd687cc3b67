// Package dispatch maps API verbs onto CDP operations. Every verb follows
// the same skeleton: resolve the target element if any, apply human-mode
// pre-delays when enabled, perform the chromedp actions, and translate errors
// into their semantic form before returning.
package dispatch

import (
	"context"
	"time"

	"github.com/thefrederiksen/cc-browser/internal/config"
	"github.com/thefrederiksen/cc-browser/internal/human"
	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// Dispatcher executes verbs against pages. It is stateless apart from the
// timing engine; per-page state lives in page.Entry and the daemon owns
// target resolution.
type Dispatcher struct {
	timing *human.Timing
}

// New creates a dispatcher using the given timing engine.
func New(t *human.Timing) *Dispatcher {
	if t == nil {
		t = human.NewDefault()
	}
	return &Dispatcher{timing: t}
}

// Timing exposes the timing engine (the captcha solvers share it).
func (d *Dispatcher) Timing() *human.Timing {
	return d.timing
}

// sleep pauses unless the context ends first.
func sleep(ctx context.Context, dur time.Duration) {
	if dur <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(dur):
	}
}

// actionTimeout resolves a caller-supplied timeout in ms to the clamped
// per-action window.
func actionTimeout(ms int) time.Duration {
	return clampTimeout(ms, config.DefaultActionTimeout, config.MinActionTimeout, config.MaxActionTimeout)
}

func humanized(mode models.Mode) bool {
	return mode.Humanized()
}
