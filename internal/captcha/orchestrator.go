package captcha

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thefrederiksen/cc-browser/internal/config"
	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// Result is the outcome of a solve call.
type Result struct {
	Solved   bool   `json:"solved"`
	Type     string `json:"type,omitempty"`
	Attempts int    `json:"attempts"`
}

// Orchestrator routes a detection to its solver and retries with linear
// backoff.
type Orchestrator struct {
	solvers     map[string]Solver
	maxAttempts int
	sleep       func(ctx context.Context, d time.Duration)
}

// NewOrchestrator builds an orchestrator with the standard solver set.
func NewOrchestrator(maxAttempts int) *Orchestrator {
	if maxAttempts <= 0 {
		maxAttempts = config.DefaultCaptchaMaxAttempts
	}
	o := &Orchestrator{
		solvers:     make(map[string]Solver),
		maxAttempts: maxAttempts,
		sleep: func(ctx context.Context, d time.Duration) {
			select {
			case <-ctx.Done():
			case <-time.After(d):
			}
		},
	}
	o.Register(TypeRecaptchaV2, solveCheckbox)
	o.Register(TypeHCaptcha, solveCheckbox)
	o.Register(TypeTurnstile, solveCheckbox)
	o.Register(TypeInterstitial, solveInterstitial)
	o.Register(TypeSlider, solveSlider)
	o.Register(TypeImageGrid, solveGrid)
	o.Register(TypeRecaptchaImage, solveGrid)
	o.Register(TypeText, solveText)
	return o
}

// Register installs or replaces the solver for a type.
func (o *Orchestrator) Register(typ string, s Solver) {
	o.solvers[typ] = s
}

// Solve runs the solver for the detected type, retrying up to the attempt
// cap with backoff of attempt seconds between tries. A type with no solver
// returns unsolved after a single accounting attempt, with no retries.
func (o *Orchestrator) Solve(ctx context.Context, env *Env) Result {
	det := env.Detection
	solver, ok := o.solvers[det.Type]
	if !ok {
		log.Warn().Str("type", det.Type).Msg("No solver for CAPTCHA type")
		return Result{Solved: false, Type: det.Type, Attempts: 1}
	}

	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		solved, err := solver(ctx, env)
		if err != nil {
			log.Debug().Err(err).Str("type", det.Type).Int("attempt", attempt).
				Msg("CAPTCHA solve attempt failed")
			// No analyzer means no retry can fare better.
			if env.Analyzer == nil && errors.Is(err, models.ErrVisionBackend) {
				return Result{Solved: false, Type: det.Type, Attempts: attempt}
			}
		}
		if solved {
			log.Info().Str("type", det.Type).Int("attempt", attempt).Msg("CAPTCHA solved")
			return Result{Solved: true, Type: det.Type, Attempts: attempt}
		}
		if attempt < o.maxAttempts {
			o.sleep(ctx, time.Duration(attempt)*time.Second)
		}
		if ctx.Err() != nil {
			return Result{Solved: false, Type: det.Type, Attempts: attempt}
		}
	}
	return Result{Solved: false, Type: det.Type, Attempts: o.maxAttempts}
}
