// Package recorder captures a user's interactions in the browser as a
// replayable step list. A script injected into the page observes events; the
// recorder drains its buffer on a timer and merges beacon flushes sent when
// a navigation tears the page down.
package recorder

import (
	"context"
	"fmt"
	"sync"
	"time"

	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/thefrederiksen/cc-browser/internal/config"
	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// Recorder holds at most one active recording.
type Recorder struct {
	mu sync.Mutex

	active     bool
	name       string
	recordedAt time.Time
	steps      []models.Step

	// lastInteraction marks the most recent drained click/type/keypress; a
	// frame navigation shortly after one is treated as an SPA routing
	// artifact and not recorded.
	lastInteraction time.Time

	navDedupWindow time.Duration
	drainPeriod    time.Duration
	now            func() time.Time

	pageCtx  context.Context
	scriptID cdppage.ScriptIdentifier
	stop     chan struct{}
	done     chan struct{}
}

// New creates an idle recorder.
func New() *Recorder {
	return &Recorder{
		navDedupWindow: config.DefaultRecorderNavDedupWindow,
		drainPeriod:    config.DefaultRecorderDrainPeriod,
		now:            time.Now,
	}
}

// Status describes the recorder for /record/status.
type Status struct {
	Active bool   `json:"active"`
	Name   string `json:"name,omitempty"`
	Steps  int    `json:"steps"`
}

// Start begins recording in the given page context. The current URL becomes
// the first step unless the page is blank.
func (r *Recorder) Start(ctx context.Context, name string, httpPort int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return fmt.Errorf("%w: %s", models.ErrRecordingActive, r.name)
	}

	var currentURL string
	if err := chromedp.Run(ctx, chromedp.Location(&currentURL)); err != nil {
		return fmt.Errorf("read page url: %w", err)
	}

	script := fmt.Sprintf(captureScript, httpPort)
	var scriptID cdppage.ScriptIdentifier
	err := chromedp.Run(ctx,
		chromedp.Evaluate(script, nil),
		chromedp.ActionFunc(func(ctx context.Context) error {
			id, err := cdppage.AddScriptToEvaluateOnNewDocument(script).Do(ctx)
			if err != nil {
				return err
			}
			scriptID = id
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("install capture script: %w", err)
	}

	r.active = true
	r.name = name
	r.recordedAt = r.now()
	r.steps = nil
	r.lastInteraction = time.Time{}
	r.pageCtx = ctx
	r.scriptID = scriptID
	r.stop = make(chan struct{})
	r.done = make(chan struct{})

	if currentURL != "" && currentURL != "about:blank" {
		r.steps = append(r.steps, models.Step{Action: models.StepNavigate, URL: currentURL})
	}

	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if e, ok := ev.(*cdppage.EventFrameNavigated); ok && e.Frame.ParentID == "" {
			r.OnNavigate(e.Frame.URL)
		}
	})

	go r.drainLoop(ctx, r.stop, r.done)
	log.Info().Str("name", name).Msg("Recording started")
	return nil
}

func (r *Recorder) drainLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.drainPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Drain errors are swallowed: the page may be mid-navigation and
			// the beacon covers what a teardown would lose.
			_ = r.drain(ctx)
		}
	}
}

// drain empties the in-page buffer and ingests the events.
func (r *Recorder) drain(ctx context.Context) error {
	var events []RawEvent
	if err := chromedp.Run(ctx, chromedp.Evaluate(drainScript, &events)); err != nil {
		return err
	}
	r.Ingest(events)
	return nil
}

// Ingest appends captured events to the recording. Both the drain timer and
// the beacon endpoint funnel through here.
func (r *Recorder) Ingest(events []RawEvent) {
	if len(events) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return
	}
	for _, ev := range events {
		step, ok := toStep(ev)
		if !ok {
			continue
		}
		if step.Action != models.StepScroll && step.Action != models.StepNavigate {
			r.lastInteraction = r.now()
		}
		r.steps = append(r.steps, step)
	}
}

// OnNavigate records a main-frame navigation step. Blank pages are skipped,
// as are navigations right after an interaction, which are almost always
// SPA-internal routing rather than a page load the user initiated.
func (r *Recorder) OnNavigate(url string) {
	if url == "" || url == "about:blank" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return
	}
	if !r.lastInteraction.IsZero() && r.now().Sub(r.lastInteraction) < r.navDedupWindow {
		return
	}
	r.steps = append(r.steps, models.Step{Action: models.StepNavigate, URL: url})
}

// Stop finalizes the recording: one last drain, script removal, and step
// normalization. The returned recording is ready to persist.
func (r *Recorder) Stop(ctx context.Context) (*models.Recording, error) {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return nil, models.ErrNoRecording
	}
	stop, done := r.stop, r.done
	r.mu.Unlock()

	close(stop)
	<-done

	_ = r.drain(ctx)

	// Page teardown is best-effort; the tab may already be gone.
	_ = chromedp.Run(ctx,
		chromedp.Evaluate(teardownScript, nil),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return cdppage.RemoveScriptToEvaluateOnNewDocument(r.scriptID).Do(ctx)
		}),
	)

	r.mu.Lock()
	defer r.mu.Unlock()
	rec := &models.Recording{
		Name:       r.name,
		RecordedAt: r.recordedAt,
		Steps:      normalizeSteps(r.steps),
	}
	r.active = false
	r.name = ""
	r.steps = nil
	r.pageCtx = nil
	log.Info().Str("name", rec.Name).Int("steps", len(rec.Steps)).Msg("Recording stopped")
	return rec, nil
}

// Status reports whether a recording is active and how many steps it has.
func (r *Recorder) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{Active: r.active, Name: r.name, Steps: len(r.steps)}
}
