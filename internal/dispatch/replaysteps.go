package dispatch

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"

	"github.com/thefrederiksen/cc-browser/internal/page"
	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// specForLocator converts a recorded locator into a finder spec.
func specForLocator(loc models.Locator) findSpec {
	switch loc.Strategy {
	case models.LocatorRole:
		return findSpec{Role: loc.Role, Name: loc.Name}
	case models.LocatorText:
		return findSpec{Text: loc.Text}
	case models.LocatorSelector:
		return findSpec{Selector: loc.Selector}
	case models.LocatorCSSPath:
		return findSpec{Path: loc.Path}
	}
	return findSpec{}
}

// locateRecorded tries each recorded locator strategy in order until one
// resolves, polling within the shared timeout. The stablest strategy that
// matches wins.
func locateRecorded(ctx context.Context, locs []models.Locator, timeout time.Duration) (hit, error) {
	deadline := time.Now().Add(timeout)
	var last hit
	for {
		for _, loc := range locs {
			spec := specForLocator(loc)
			if spec == (findSpec{}) {
				continue
			}
			h, err := findOnce(ctx, spec)
			if err != nil {
				return hit{}, translateCDPError(err)
			}
			if h.Found {
				return h, nil
			}
			last = h
		}
		if time.Now().After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return hit{}, translateCDPError(ctx.Err())
		case <-time.After(100 * time.Millisecond):
		}
	}
	if last.Detached {
		return hit{}, models.ErrDetachedElement
	}
	return hit{}, models.ErrTimeout
}

// ClickRecorded clicks the first element a recorded locator resolves to.
func (d *Dispatcher) ClickRecorded(ctx context.Context, entry *page.Entry, locs []models.Locator, timeout time.Duration) error {
	h, err := locateRecorded(ctx, locs, timeout)
	if err != nil {
		return err
	}
	cx, cy := h.X+h.W/2, h.Y+h.H/2
	if err := chromedp.Run(ctx, chromedp.MouseClickXY(cx, cy)); err != nil {
		return translateCDPError(err)
	}
	entry.MouseX, entry.MouseY = cx, cy
	return nil
}

// TypeRecorded focuses the resolved element, clears it, and inserts the
// recorded value in one shot.
func (d *Dispatcher) TypeRecorded(ctx context.Context, entry *page.Entry, locs []models.Locator, value string, timeout time.Duration) error {
	h, err := locateRecorded(ctx, locs, timeout)
	if err != nil {
		return err
	}
	cx, cy := h.X+h.W/2, h.Y+h.H/2
	err = chromedp.Run(ctx,
		chromedp.MouseClickXY(cx, cy),
		chromedp.Evaluate(`(() => {
			const el = document.activeElement;
			if (el && 'value' in el) el.value = '';
		})()`, nil),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return input.InsertText(value).Do(ctx)
		}),
	)
	if err != nil {
		return translateCDPError(err)
	}
	entry.MouseX, entry.MouseY = cx, cy
	return nil
}

// SelectRecorded applies a recorded select value to the resolved element.
func (d *Dispatcher) SelectRecorded(ctx context.Context, entry *page.Entry, locs []models.Locator, value string, timeout time.Duration) error {
	if _, err := locateRecorded(ctx, locs, timeout); err != nil {
		return err
	}
	// locateRecorded stamped the match; reuse the select mutation.
	_, err := runMutation(ctx, entry, TargetSpec{}, selectScript, map[string]any{
		"values": []string{value},
	})
	return err
}

// PressRecorded presses a key on the resolved element, or on the page when
// no recorded locator resolves.
func (d *Dispatcher) PressRecorded(ctx context.Context, entry *page.Entry, locs []models.Locator, key string, timeout time.Duration) error {
	if len(locs) > 0 {
		if h, err := locateRecorded(ctx, locs, timeout); err == nil {
			cx, cy := h.X+h.W/2, h.Y+h.H/2
			if err := chromedp.Run(ctx, chromedp.MouseClickXY(cx, cy)); err != nil {
				return translateCDPError(err)
			}
			entry.MouseX, entry.MouseY = cx, cy
		}
	}
	return d.Press(ctx, models.ModeFast, PressRequest{Key: key})
}
