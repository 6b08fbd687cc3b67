package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/thefrederiksen/cc-browser/internal/page"
	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// NavigateRequest is the body of /navigate.
type NavigateRequest struct {
	URL       string `json:"url"`
	WaitUntil string `json:"waitUntil,omitempty"` // load | domcontentloaded | networkidle
	TimeoutMs int    `json:"timeout,omitempty"`
	TargetID  string `json:"targetId,omitempty"`
}

// NavigateResult reports where the page ended up.
type NavigateResult struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Navigate loads a URL in the page. Human mode sleeps before the load and
// after it settles; the caller runs the CAPTCHA probe afterwards.
func (d *Dispatcher) Navigate(ctx context.Context, entry *page.Entry, mode models.Mode, req NavigateRequest) (*NavigateResult, error) {
	if req.URL == "" {
		return nil, fmt.Errorf("url is required")
	}
	waitUntil := req.WaitUntil
	if waitUntil == "" {
		waitUntil = "load"
	}

	if humanized(mode) {
		sleep(ctx, d.timing.NavigationDelay())
	}

	timeout := clampTimeout(req.TimeoutMs, 30*time.Second, time.Second, 120*time.Second)
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := chromedp.Run(navCtx, chromedp.Navigate(req.URL)); err != nil {
		return nil, translateCDPError(err)
	}

	if waitUntil == "networkidle" {
		// chromedp's Navigate already waits for the load event; approximate
		// network idle with a readyState check plus a short quiet window.
		waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_ = chromedp.Run(waitCtx, chromedp.Poll("document.readyState === 'complete'", nil))
		cancel()
		sleep(ctx, 500*time.Millisecond)
	}

	if humanized(mode) {
		sleep(ctx, d.timing.PostLoadDelay())
	}

	var res NavigateResult
	if err := chromedp.Run(ctx,
		chromedp.Location(&res.URL),
		chromedp.Title(&res.Title),
	); err != nil {
		return nil, translateCDPError(err)
	}
	entry.URL = res.URL
	return &res, nil
}

// Reload reloads the page.
func (d *Dispatcher) Reload(ctx context.Context) (*NavigateResult, error) {
	var res NavigateResult
	err := chromedp.Run(ctx,
		chromedp.Reload(),
		chromedp.Location(&res.URL),
		chromedp.Title(&res.Title),
	)
	if err != nil {
		return nil, translateCDPError(err)
	}
	return &res, nil
}

// Back navigates one entry back in history.
func (d *Dispatcher) Back(ctx context.Context) (*NavigateResult, error) {
	var res NavigateResult
	err := chromedp.Run(ctx,
		chromedp.NavigateBack(),
		chromedp.Location(&res.URL),
		chromedp.Title(&res.Title),
	)
	if err != nil {
		return nil, translateCDPError(err)
	}
	return &res, nil
}

// Forward navigates one entry forward in history.
func (d *Dispatcher) Forward(ctx context.Context) (*NavigateResult, error) {
	var res NavigateResult
	err := chromedp.Run(ctx,
		chromedp.NavigateForward(),
		chromedp.Location(&res.URL),
		chromedp.Title(&res.Title),
	)
	if err != nil {
		return nil, translateCDPError(err)
	}
	return &res, nil
}
