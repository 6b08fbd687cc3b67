package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/thefrederiksen/cc-browser/internal/human"
	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// Solver attempts one CAPTCHA family once. It reports whether the challenge
// is gone afterwards.
type Solver func(ctx context.Context, env *Env) (bool, error)

// Env carries what solvers need: the detection that triggered them, the
// timing engine for human-looking gestures, the vision backend, and a
// screenshot function bound to the current tab.
type Env struct {
	Detection  Detection
	Timing     *human.Timing
	Analyzer   Analyzer
	Screenshot func(ctx context.Context) ([]byte, error)
}

// visionAvailable guards solvers that cannot work without the vision backend.
// The daemon passes a nil Analyzer when no API key is configured.
func visionAvailable(env *Env) error {
	if env.Analyzer == nil {
		return fmt.Errorf("%w: no vision analyzer configured", models.ErrVisionBackend)
	}
	return nil
}

// rect mirrors getBoundingClientRect for a selector.
type rect struct {
	Found bool    `json:"found"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
}

func selectorRect(ctx context.Context, selector string) (rect, error) {
	sel, _ := json.Marshal(selector)
	var r rect
	err := chromedp.Run(ctx, chromedp.Evaluate(fmt.Sprintf(`(() => {
		try {
			const el = document.querySelector(%s);
			if (!el) return { found: false };
			const b = el.getBoundingClientRect();
			return { found: true, x: b.x, y: b.y, w: b.width, h: b.height };
		} catch (e) { return { found: false }; }
	})()`, sel), &r))
	return r, err
}

func clickAt(ctx context.Context, x, y float64) error {
	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		if err := input.DispatchMouseEvent(input.MousePressed, x, y).
			WithButton(input.Left).WithClickCount(1).Do(ctx); err != nil {
			return err
		}
		return input.DispatchMouseEvent(input.MouseReleased, x, y).
			WithButton(input.Left).WithClickCount(1).Do(ctx)
	}))
}

func dragAlong(ctx context.Context, path []human.Point, sx, sy, ex, ey float64) error {
	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		if err := input.DispatchMouseEvent(input.MousePressed, sx, sy).
			WithButton(input.Left).WithClickCount(1).Do(ctx); err != nil {
			return err
		}
		for _, p := range path {
			if err := input.DispatchMouseEvent(input.MouseMoved, p.X, p.Y).
				WithButton(input.Left).Do(ctx); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Delay):
			}
		}
		return input.DispatchMouseEvent(input.MouseReleased, ex, ey).
			WithButton(input.Left).WithClickCount(1).Do(ctx)
	}))
}

// pollUntil re-evaluates a boolean expression every 500ms until it is true
// or the window closes.
func pollUntil(ctx context.Context, expr string, window time.Duration) bool {
	deadline := time.Now().Add(window)
	for {
		var ok bool
		if err := chromedp.Run(ctx, chromedp.Evaluate(expr, &ok)); err == nil && ok {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// solveCheckbox handles recaptcha_v2, hcaptcha, and cloudflare_turnstile:
// click the widget's checkbox and wait for the hidden response token.
// Turnstile often resolves itself, so the click is best-effort.
func solveCheckbox(ctx context.Context, env *Env) (bool, error) {
	r, err := selectorRect(ctx, env.Detection.Selector)
	if err != nil {
		return false, err
	}
	if r.Found {
		// The checkbox sits near the left edge of the widget frame.
		x := r.X + 27
		y := r.Y + r.H/2
		if err := clickAt(ctx, x, y); err != nil && env.Detection.Type != TypeTurnstile {
			return false, err
		}
	}

	tokenExpr := `(() => {
		for (const sel of ['textarea[name="g-recaptcha-response"]',
				'textarea[name="h-captcha-response"]',
				'input[name="cf-turnstile-response"]']) {
			const el = document.querySelector(sel);
			if (el && el.value && el.value.length > 0) return true;
		}
		const t = (document.title || '').toLowerCase();
		return !t.includes('just a moment');
	})()`
	return pollUntil(ctx, tokenExpr, 15*time.Second), nil
}

// solveInterstitial waits out a Cloudflare interstitial page.
func solveInterstitial(ctx context.Context, env *Env) (bool, error) {
	gone := pollUntil(ctx, `(() => {
		const t = (document.title || '').toLowerCase();
		return !t.includes('just a moment') && !t.includes('attention required');
	})()`, 15*time.Second)
	return gone, nil
}

type sliderPlan struct {
	HandleX float64 `json:"handleX"`
	HandleY float64 `json:"handleY"`
	TargetX float64 `json:"targetX"`
	TargetY float64 `json:"targetY"`
}

type sliderCheck struct {
	Solved   bool    `json:"solved"`
	AdjustPx float64 `json:"adjustPx"`
}

const sliderPlanPrompt = `This screenshot shows a slider CAPTCHA. Give the pixel
coordinates of the slider handle and where it must be dragged to. Respond with
JSON only: {"handleX": n, "handleY": n, "targetX": n, "targetY": n}.`

const sliderCheckPrompt = `This screenshot shows a slider CAPTCHA after a drag
attempt. Respond with JSON only: {"solved": true|false, "adjustPx": n} where
adjustPx is the signed horizontal correction still needed (0 if solved).`

// solveSlider asks vision where to drag, drags with a human gesture, and
// verifies via a DOM success marker or a follow-up vision check.
func solveSlider(ctx context.Context, env *Env) (bool, error) {
	if err := visionAvailable(env); err != nil {
		return false, err
	}
	shot, err := env.Screenshot(ctx)
	if err != nil {
		return false, err
	}
	reply, err := env.Analyzer.Analyze(ctx, shot, sliderPlanPrompt)
	if err != nil {
		return false, err
	}
	var plan sliderPlan
	if err := json.Unmarshal([]byte(StripFences(reply)), &plan); err != nil {
		return false, fmt.Errorf("unparseable slider plan %q", reply)
	}

	path := env.Timing.DragPath(plan.HandleX, plan.HandleY, plan.TargetX, plan.TargetY)
	if err := dragAlong(ctx, path, plan.HandleX, plan.HandleY, plan.TargetX, plan.TargetY); err != nil {
		return false, err
	}

	if pollUntil(ctx, `(() => document.querySelector(
		'.slider-success, .geetest_success, [class*="captcha" i][class*="success" i]') !== null)()`,
		3*time.Second) {
		return true, nil
	}

	// No marker; ask vision whether the drag landed and nudge if not.
	shot, err = env.Screenshot(ctx)
	if err != nil {
		return false, err
	}
	reply, err = env.Analyzer.Analyze(ctx, shot, sliderCheckPrompt)
	if err != nil {
		return false, err
	}
	var check sliderCheck
	if err := json.Unmarshal([]byte(StripFences(reply)), &check); err != nil {
		return false, fmt.Errorf("unparseable slider check %q", reply)
	}
	if check.Solved {
		return true, nil
	}
	if check.AdjustPx != 0 {
		ex := plan.TargetX + check.AdjustPx
		path = env.Timing.DragPath(plan.TargetX, plan.TargetY, ex, plan.TargetY)
		if err := dragAlong(ctx, path, plan.TargetX, plan.TargetY, ex, plan.TargetY); err != nil {
			return false, err
		}
	}
	return false, nil
}

type gridPlan struct {
	Cells []int `json:"cells"`
	Rows  int   `json:"rows"`
	Cols  int   `json:"cols"`
}

const gridPrompt = `This screenshot shows an image-selection CAPTCHA. Identify
the grid layout and which cells satisfy the instruction. Cells are 0-indexed,
row-major from the top left. Respond with JSON only:
{"rows": n, "cols": n, "cells": [i, ...]}.`

// solveGrid clicks the cells vision names, pacing the clicks like a person,
// then presses a verify button when one exists.
func solveGrid(ctx context.Context, env *Env) (bool, error) {
	if err := visionAvailable(env); err != nil {
		return false, err
	}
	shot, err := env.Screenshot(ctx)
	if err != nil {
		return false, err
	}
	reply, err := env.Analyzer.Analyze(ctx, shot, gridPrompt)
	if err != nil {
		return false, err
	}
	var plan gridPlan
	if err := json.Unmarshal([]byte(StripFences(reply)), &plan); err != nil {
		return false, fmt.Errorf("unparseable grid plan %q", reply)
	}
	if plan.Rows <= 0 || plan.Cols <= 0 || len(plan.Cells) == 0 {
		return false, fmt.Errorf("empty grid plan %q", reply)
	}

	r, err := selectorRect(ctx, env.Detection.Selector)
	if err != nil || !r.Found {
		return false, fmt.Errorf("challenge element not found")
	}
	cellW := r.W / float64(plan.Cols)
	cellH := r.H / float64(plan.Rows)
	for _, cell := range plan.Cells {
		if cell < 0 || cell >= plan.Rows*plan.Cols {
			continue
		}
		col := cell % plan.Cols
		row := cell / plan.Cols
		x := r.X + (float64(col)+0.5)*cellW
		y := r.Y + (float64(row)+0.5)*cellH
		if err := clickAt(ctx, x, y); err != nil {
			return false, err
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(env.Timing.CellClickGap()):
		}
	}

	_ = chromedp.Run(ctx, chromedp.Evaluate(`(() => {
		const btn = document.querySelector(
			'#recaptcha-verify-button, button[class*="verify" i], [class*="captcha" i] button[type="submit"]');
		if (btn) btn.click();
	})()`, nil))

	return pollUntil(ctx, detectGoneExpr, 5*time.Second), nil
}

type textReading struct {
	Text string `json:"text"`
}

const textPrompt = `This screenshot shows a text CAPTCHA with distorted
characters. Read them. Respond with JSON only: {"text": "<the characters>"}.`

// solveText reads the distorted text with vision, fills the answer field, and
// submits.
func solveText(ctx context.Context, env *Env) (bool, error) {
	if err := visionAvailable(env); err != nil {
		return false, err
	}
	shot, err := env.Screenshot(ctx)
	if err != nil {
		return false, err
	}
	reply, err := env.Analyzer.Analyze(ctx, shot, textPrompt)
	if err != nil {
		return false, err
	}
	var reading textReading
	if err := json.Unmarshal([]byte(StripFences(reply)), &reading); err != nil {
		return false, fmt.Errorf("unparseable text reading %q", reply)
	}
	if strings.TrimSpace(reading.Text) == "" {
		return false, fmt.Errorf("vision read no text")
	}

	answer, _ := json.Marshal(reading.Text)
	var filled bool
	err = chromedp.Run(ctx, chromedp.Evaluate(fmt.Sprintf(`(() => {
		const img = document.querySelector('img[src*="captcha" i], canvas[class*="captcha" i], img[class*="captcha" i]');
		const scope = img && img.closest('form, div') || document;
		const field = scope.querySelector('input[type="text"], input:not([type])');
		if (!field) return false;
		field.value = %s;
		field.dispatchEvent(new Event('input', { bubbles: true }));
		field.dispatchEvent(new Event('change', { bubbles: true }));
		const btn = scope.querySelector('button[type="submit"], input[type="submit"], button');
		if (btn) btn.click();
		return true;
	})()`, answer), &filled))
	if err != nil {
		return false, err
	}
	if !filled {
		return false, fmt.Errorf("answer field not found")
	}
	log.Debug().Msg("Text CAPTCHA answer submitted")
	return pollUntil(ctx, detectGoneExpr, 5*time.Second), nil
}

// detectGoneExpr is true once the Tier-1 probe no longer finds a challenge.
const detectGoneExpr = `(` + detectScript + `).detected === false`
