package dispatch

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"

	"github.com/thefrederiksen/cc-browser/internal/page"
	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// Viewport scroll defaults when a request names neither deltas nor a
// direction.
const (
	defaultScrollDirection = "down"
	defaultScrollAmount    = 500
)

// ScrollRequest is the body of /scroll. With a target, the element is
// scrolled into view; otherwise the viewport scrolls by direction and
// amount, or by raw deltas when those are given instead.
type ScrollRequest struct {
	TargetSpec
	Direction string  `json:"direction,omitempty"` // up, down, left, right
	Amount    float64 `json:"amount,omitempty"`    // pixels, default 500
	DeltaX    float64 `json:"deltaX,omitempty"`
	DeltaY    float64 `json:"deltaY,omitempty"`
	TimeoutMs int     `json:"timeout,omitempty"`
	TargetID  string  `json:"targetId,omitempty"`
}

// scrollDeltas resolves a request to wheel deltas. Raw deltas win when
// present; otherwise direction and amount apply, defaulting to 500px down.
func scrollDeltas(req ScrollRequest) (dx, dy float64, err error) {
	if req.DeltaX != 0 || req.DeltaY != 0 {
		return req.DeltaX, req.DeltaY, nil
	}
	dir := req.Direction
	if dir == "" {
		dir = defaultScrollDirection
	}
	amount := req.Amount
	if amount <= 0 {
		amount = defaultScrollAmount
	}
	switch dir {
	case "up":
		return 0, -amount, nil
	case "down":
		return 0, amount, nil
	case "left":
		return -amount, 0, nil
	case "right":
		return amount, 0, nil
	}
	return 0, 0, fmt.Errorf("unknown scroll direction %q", req.Direction)
}

// Scroll brings an element into view or wheels the viewport. Human mode
// breaks the gesture into several uneven chunks with pauses.
func (d *Dispatcher) Scroll(ctx context.Context, entry *page.Entry, mode models.Mode, req ScrollRequest) error {
	dx, dy, err := scrollDeltas(req)
	if err != nil {
		return err
	}

	if humanized(mode) {
		sleep(ctx, d.timing.PreScrollDelay())
	}

	if !req.TargetSpec.empty() {
		// locate scrolls the match to the viewport center as a side effect.
		_, err := locate(ctx, entry, req.TargetSpec, actionTimeout(req.TimeoutMs))
		return err
	}

	// Wheel events originate from the cursor's position; fall back to a spot
	// near the viewport center when it has never moved.
	wx, wy := entry.MouseX, entry.MouseY
	if wx == 0 && wy == 0 {
		wx, wy = 400, 300
	}

	if humanized(mode) {
		for _, step := range d.timing.ScrollSteps(dx, dy) {
			err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
				return input.DispatchMouseEvent(input.MouseWheel, wx, wy).
					WithDeltaX(step.X).WithDeltaY(step.Y).Do(ctx)
			}))
			if err != nil {
				return translateCDPError(err)
			}
			sleep(ctx, step.Delay)
		}
		return nil
	}

	err = chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseWheel, wx, wy).
			WithDeltaX(dx).WithDeltaY(dy).Do(ctx)
	}))
	return translateCDPError(err)
}
