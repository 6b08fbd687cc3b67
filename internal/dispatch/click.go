package dispatch

import (
	"context"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"

	"github.com/thefrederiksen/cc-browser/internal/page"
	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// ClickRequest is the body of /click.
type ClickRequest struct {
	TargetSpec
	Double    bool     `json:"double,omitempty"`
	Button    string   `json:"button,omitempty"` // left | right | middle
	Modifiers []string `json:"modifiers,omitempty"`
	TimeoutMs int      `json:"timeout,omitempty"`
	TargetID  string   `json:"targetId,omitempty"`
}

// Click resolves the target and clicks its center. Human mode moves the
// cursor along a Bezier path from its previous position first, pauses, and
// lands slightly off-center.
func (d *Dispatcher) Click(ctx context.Context, entry *page.Entry, mode models.Mode, req ClickRequest) error {
	h, err := locate(ctx, entry, req.TargetSpec, actionTimeout(req.TimeoutMs))
	if err != nil {
		return err
	}

	cx, cy := h.X+h.W/2, h.Y+h.H/2
	if humanized(mode) {
		dx, dy := d.timing.ClickOffset()
		cx += dx
		cy += dy
		if err := d.moveMouse(ctx, entry, cx, cy); err != nil {
			return err
		}
		sleep(ctx, d.timing.PreClickDelay())
	}

	button := input.Left
	switch req.Button {
	case "right":
		button = input.Right
	case "middle":
		button = input.Middle
	}
	mods := parseModifiers(req.Modifiers)
	clicks := int64(1)
	if req.Double {
		clicks = 2
	}

	err = chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		for i := int64(1); i <= clicks; i++ {
			if err := input.DispatchMouseEvent(input.MousePressed, cx, cy).
				WithButton(button).WithClickCount(i).WithModifiers(mods).Do(ctx); err != nil {
				return err
			}
			if err := input.DispatchMouseEvent(input.MouseReleased, cx, cy).
				WithButton(button).WithClickCount(i).WithModifiers(mods).Do(ctx); err != nil {
				return err
			}
		}
		return nil
	}))
	if err != nil {
		return translateCDPError(err)
	}
	entry.MouseX, entry.MouseY = cx, cy
	return nil
}

// HoverRequest is the body of /hover.
type HoverRequest struct {
	TargetSpec
	TimeoutMs int    `json:"timeout,omitempty"`
	TargetID  string `json:"targetId,omitempty"`
}

// Hover moves the cursor over the target without clicking.
func (d *Dispatcher) Hover(ctx context.Context, entry *page.Entry, mode models.Mode, req HoverRequest) error {
	h, err := locate(ctx, entry, req.TargetSpec, actionTimeout(req.TimeoutMs))
	if err != nil {
		return err
	}
	cx, cy := h.X+h.W/2, h.Y+h.H/2
	if humanized(mode) {
		return d.moveMouse(ctx, entry, cx, cy)
	}
	err = chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseMoved, cx, cy).Do(ctx)
	}))
	if err != nil {
		return translateCDPError(err)
	}
	entry.MouseX, entry.MouseY = cx, cy
	return nil
}

// moveMouse walks the cursor along a human path from the entry's last known
// position. Movement itself is not delayed; the pre-click pause happens at
// the destination.
func (d *Dispatcher) moveMouse(ctx context.Context, entry *page.Entry, x, y float64) error {
	path := d.timing.MousePath(entry.MouseX, entry.MouseY, x, y)
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, p := range path {
			if err := input.DispatchMouseEvent(input.MouseMoved, p.X, p.Y).Do(ctx); err != nil {
				return err
			}
		}
		return nil
	}))
	if err != nil {
		return translateCDPError(err)
	}
	entry.MouseX, entry.MouseY = x, y
	return nil
}

func parseModifiers(names []string) input.Modifier {
	var mods input.Modifier
	for _, n := range names {
		switch n {
		case "Alt":
			mods |= input.ModifierAlt
		case "Control":
			mods |= input.ModifierCtrl
		case "Meta":
			mods |= input.ModifierMeta
		case "Shift":
			mods |= input.ModifierShift
		}
	}
	return mods
}
