package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/thefrederiksen/cc-browser/internal/config"
	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// WaitRequest is the body of /wait. Conditions compose: every field that is
// set must be satisfied, in order — the fixed sleep first, then text,
// textGone, selector, url, loadState, and fn.
type WaitRequest struct {
	TimeMs    int    `json:"timeMs,omitempty"`
	Text      string `json:"text,omitempty"`
	TextGone  string `json:"textGone,omitempty"`
	Selector  string `json:"selector,omitempty"`
	URL       string `json:"url,omitempty"` // substring of the current URL
	LoadState string `json:"loadState,omitempty"`
	Fn        string `json:"fn,omitempty"` // JS predicate, re-evaluated until truthy
	TimeoutMs int    `json:"timeout,omitempty"`
	TargetID  string `json:"targetId,omitempty"`
}

// Wait blocks until every requested condition has held, applied in order.
// All polled conditions share a single deadline.
func (d *Dispatcher) Wait(ctx context.Context, req WaitRequest) error {
	exprs, err := waitExpressions(req)
	if err != nil {
		return err
	}
	if req.TimeMs <= 0 && len(exprs) == 0 {
		return fmt.Errorf("wait needs a condition: timeMs, text, textGone, selector, url, loadState, or fn")
	}

	if req.TimeMs > 0 {
		sleep(ctx, time.Duration(req.TimeMs)*time.Millisecond)
		if err := ctx.Err(); err != nil {
			return translateCDPError(err)
		}
	}
	if len(exprs) == 0 {
		return nil
	}

	timeout := clampTimeout(req.TimeoutMs, config.DefaultWaitTimeout, config.MinActionTimeout, config.MaxActionTimeout)
	deadline := time.Now().Add(timeout)
	for _, expr := range exprs {
		if err := pollUntilTrue(ctx, expr, deadline); err != nil {
			return err
		}
	}
	return nil
}

// pollUntilTrue re-evaluates a boolean page expression every 100ms until it
// holds or the deadline passes.
func pollUntilTrue(ctx context.Context, expr string, deadline time.Time) error {
	for {
		var ok bool
		if err := chromedp.Run(ctx, chromedp.Evaluate(expr, &ok)); err != nil {
			return translateCDPError(err)
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return models.ErrTimeout
		}
		select {
		case <-ctx.Done():
			return translateCDPError(ctx.Err())
		case <-time.After(100 * time.Millisecond):
		}
	}
}

// waitExpressions builds one boolean page expression per present condition,
// in evaluation order.
func waitExpressions(req WaitRequest) ([]string, error) {
	quote := func(s string) string {
		b, _ := json.Marshal(s)
		return string(b)
	}
	var exprs []string
	if req.Text != "" {
		exprs = append(exprs, fmt.Sprintf(`document.body && document.body.innerText.includes(%s)`, quote(req.Text)))
	}
	if req.TextGone != "" {
		exprs = append(exprs, fmt.Sprintf(`!document.body || !document.body.innerText.includes(%s)`, quote(req.TextGone)))
	}
	if req.Selector != "" {
		exprs = append(exprs, fmt.Sprintf(`(() => {
			try { return document.querySelector(%s) !== null; }
			catch (e) { return false; }
		})()`, quote(req.Selector)))
	}
	if req.URL != "" {
		exprs = append(exprs, fmt.Sprintf(`window.location.href.includes(%s)`, quote(req.URL)))
	}
	if req.LoadState != "" {
		switch req.LoadState {
		case "domcontentloaded":
			exprs = append(exprs, `document.readyState === 'interactive' || document.readyState === 'complete'`)
		case "load", "networkidle":
			exprs = append(exprs, `document.readyState === 'complete'`)
		default:
			return nil, fmt.Errorf("unknown loadState %q", req.LoadState)
		}
	}
	if req.Fn != "" {
		fn := strings.TrimSpace(req.Fn)
		exprs = append(exprs, fmt.Sprintf(`(() => {
			try { return !!(%s)(); }
			catch (e) { return false; }
		})()`, fn))
	}
	return exprs, nil
}
