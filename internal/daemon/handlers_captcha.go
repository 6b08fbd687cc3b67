package daemon

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/thefrederiksen/cc-browser/internal/captcha"
	"github.com/thefrederiksen/cc-browser/internal/dispatch"
	"github.com/thefrederiksen/cc-browser/internal/page"
)

// handleCaptchaDetect runs the DOM probe; when it finds nothing and vision is
// requested, a screenshot goes to the vision backend for a second opinion.
func (d *Daemon) handleCaptchaDetect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Vision   bool   `json:"vision,omitempty"`
		TargetID string `json:"targetId,omitempty"`
	}
	if err := d.decode(r, &req); err != nil {
		failBad(w, err)
		return
	}
	pageCtx, cancel, entry, err := d.pageFor(r.Context(), req.TargetID)
	if err != nil {
		fail(w, err)
		return
	}
	defer cancel()

	det, err := captcha.Detect(pageCtx)
	if err != nil {
		fail(w, err)
		return
	}
	if !det.Detected && req.Vision {
		det, err = d.visionDetect(pageCtx, entry)
		if err != nil {
			fail(w, err)
			return
		}
	}
	ok(w, envelope{"detected": det.Detected, "type": det.Type, "selector": det.Selector})
}

// handleCaptchaSolve detects and, if something is on the page, runs the solver
// pipeline against it.
func (d *Daemon) handleCaptchaSolve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetID string `json:"targetId,omitempty"`
	}
	if err := d.decode(r, &req); err != nil {
		failBad(w, err)
		return
	}
	pageCtx, cancel, entry, err := d.pageFor(r.Context(), req.TargetID)
	if err != nil {
		fail(w, err)
		return
	}
	defer cancel()

	det, err := captcha.Detect(pageCtx)
	if err != nil {
		fail(w, err)
		return
	}
	if !det.Detected {
		if vdet, err := d.visionDetect(pageCtx, entry); err == nil {
			det = vdet
		}
	}
	if !det.Detected {
		ok(w, envelope{"detected": false, "solved": false})
		return
	}

	res := d.solveDetected(pageCtx, entry, det)
	ok(w, envelope{
		"detected": true,
		"solved":   res.Solved,
		"type":     res.Type,
		"attempts": res.Attempts,
	})
}

// visionDetect screenshots the viewport and asks the vision backend to
// classify it.
func (d *Daemon) visionDetect(ctx context.Context, entry *page.Entry) (captcha.Detection, error) {
	analyzer := d.visionAnalyzer()
	if analyzer == nil {
		return captcha.Detection{}, nil
	}
	shot, err := d.disp.Screenshot(ctx, entry, dispatch.ScreenshotRequest{})
	if err != nil {
		return captcha.Detection{}, err
	}
	return captcha.DetectWithVision(ctx, analyzer, shot)
}

// solveDetected wires the current tab into a solver environment and runs the
// orchestrator.
func (d *Daemon) solveDetected(ctx context.Context, entry *page.Entry, det captcha.Detection) captcha.Result {
	env := &captcha.Env{
		Detection: det,
		Timing:    d.disp.Timing(),
		Analyzer:  d.visionAnalyzer(),
		Screenshot: func(ctx context.Context) ([]byte, error) {
			return d.disp.Screenshot(ctx, entry, dispatch.ScreenshotRequest{})
		},
	}
	return d.solver.Solve(ctx, env)
}

// visionAnalyzer lazily builds the Anthropic client. A missing API key is not
// fatal; vision-dependent paths degrade to the DOM-only behavior.
func (d *Daemon) visionAnalyzer() captcha.Analyzer {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.analyzer == nil {
		a, err := captcha.NewAnalyzer(d.cfg.AnthropicAPIKey)
		if err != nil {
			log.Debug().Err(err).Msg("Vision backend unavailable")
			return nil
		}
		d.analyzer = a
	}
	return d.analyzer
}
