// Package replay runs a recorded step list against a live page and reports
// per-step outcomes.
package replay

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/thefrederiksen/cc-browser/internal/config"
	"github.com/thefrederiksen/cc-browser/internal/dispatch"
	"github.com/thefrederiksen/cc-browser/internal/page"
	"github.com/thefrederiksen/cc-browser/pkg/models"
)

const (
	navTimeout       = 30 * time.Second
	settleTimeout    = 5 * time.Second
	fastStepDelay    = 100 * time.Millisecond
	urlRaceRetryWait = 500 * time.Millisecond
)

// Replayer executes recordings through the dispatcher.
type Replayer struct {
	d *dispatch.Dispatcher

	// runStepFn is swapped in tests to replay without a browser.
	runStepFn func(ctx context.Context, entry *page.Entry, step models.Step) (bool, error)
	settleFn  func(ctx context.Context)
}

// New creates a replayer over the given dispatcher.
func New(d *dispatch.Dispatcher) *Replayer {
	r := &Replayer{d: d}
	r.runStepFn = r.runStep
	r.settleFn = r.awaitDOMReady
	return r
}

// Run replays every step in order. A fatal navigation mismatch halts the
// run; any other failure is recorded and the replay continues.
func (r *Replayer) Run(ctx context.Context, entry *page.Entry, rec *models.Recording, mode models.Mode) *models.ReplaySummary {
	summary := &models.ReplaySummary{}
	for i, step := range rec.Steps {
		if i > 0 {
			r.interStepDelay(ctx, mode)
		}
		r.settleFn(ctx)

		start := time.Now()
		fatal, err := r.runStepFn(ctx, entry, step)
		res := models.StepResult{
			Index:   i,
			Action:  step.Action,
			Passed:  err == nil,
			Fatal:   fatal,
			Elapsed: time.Since(start).Milliseconds(),
		}
		if err != nil {
			res.Error = err.Error()
			summary.Failed++
			log.Warn().Int("step", i).Str("action", string(step.Action)).Err(err).Msg("Replay step failed")
		} else {
			summary.Passed++
		}
		summary.Results = append(summary.Results, res)

		if fatal {
			summary.Fatal = true
			log.Error().Int("step", i).Msg("Replay halted on fatal step")
			break
		}
	}
	return summary
}

// runStep dispatches one step. The boolean reports a fatal failure.
func (r *Replayer) runStep(ctx context.Context, entry *page.Entry, step models.Step) (bool, error) {
	timeout := config.DefaultActionTimeout
	switch step.Action {
	case models.StepNavigate:
		return r.navigate(ctx, entry, step.URL)
	case models.StepClick:
		return false, r.d.ClickRecorded(ctx, entry, step.Locators, timeout)
	case models.StepType:
		return false, r.d.TypeRecorded(ctx, entry, step.Locators, step.Value, timeout)
	case models.StepSelect:
		return false, r.d.SelectRecorded(ctx, entry, step.Locators, step.Value, timeout)
	case models.StepKeypress:
		return false, r.d.PressRecorded(ctx, entry, step.Locators, step.Key, timeout)
	case models.StepScroll:
		return false, chromedp.Run(ctx, chromedp.Evaluate(
			fmt.Sprintf("window.scrollTo(%g, %g)", step.ScrollX, step.ScrollY), nil))
	}
	return false, fmt.Errorf("unknown step action %q", step.Action)
}

// navigate loads the step's URL and verifies the browser actually landed on
// the expected path. A mismatch is fatal: every later step assumes a page
// that is not there.
func (r *Replayer) navigate(ctx context.Context, entry *page.Entry, target string) (bool, error) {
	navCtx, cancel := context.WithTimeout(ctx, navTimeout)
	err := chromedp.Run(navCtx, chromedp.Navigate(target))
	cancel()
	if err != nil {
		return true, fmt.Errorf("goto %s: %w", target, err)
	}

	// Best-effort settle.
	settleCtx, cancel := context.WithTimeout(ctx, settleTimeout)
	_ = chromedp.Run(settleCtx, chromedp.Poll("document.readyState === 'complete'", nil))
	cancel()

	// Read the URL straight from the page: client libraries can report a
	// stale URL during CDP-mode redirects. One short retry covers the race
	// where the redirect has not committed yet.
	actual, err := r.pageURL(ctx)
	if err != nil {
		return true, err
	}
	if !samePath(actual, target) {
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case <-time.After(urlRaceRetryWait):
		}
		if actual, err = r.pageURL(ctx); err != nil {
			return true, err
		}
	}
	if !samePath(actual, target) {
		return true, fmt.Errorf("navigation mismatch: expected path %q, landed on %s",
			pathOf(target), actual)
	}
	entry.URL = actual
	return false, nil
}

func (r *Replayer) pageURL(ctx context.Context) (string, error) {
	var href string
	if err := chromedp.Run(ctx, chromedp.Evaluate("window.location.href", &href)); err != nil {
		return "", fmt.Errorf("read page url: %w", err)
	}
	return href, nil
}

// awaitDOMReady waits briefly for the document to leave the loading state.
// Failures are ignored: the step itself will surface any real problem.
func (r *Replayer) awaitDOMReady(ctx context.Context) {
	readyCtx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()
	_ = chromedp.Run(readyCtx, chromedp.Poll("document.readyState !== 'loading'", nil))
}

func (r *Replayer) interStepDelay(ctx context.Context, mode models.Mode) {
	delay := fastStepDelay
	if mode.Humanized() {
		delay = r.d.Timing().ReplayStepDelay()
	}
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

// samePath compares only the path components of two URLs. Query strings and
// fragments routinely differ between recording and replay.
func samePath(actual, expected string) bool {
	return pathOf(actual) == pathOf(expected)
}

func pathOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	p := u.Path
	if p == "" {
		p = "/"
	}
	return p
}
