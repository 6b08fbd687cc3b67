package dispatch

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"

	"github.com/thefrederiksen/cc-browser/internal/human"
	"github.com/thefrederiksen/cc-browser/internal/page"
	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// DragRequest is the body of /drag. The source is a TargetSpec; the
// destination is either another element or absolute coordinates.
type DragRequest struct {
	TargetSpec
	To        *TargetSpec `json:"to,omitempty"`
	ToX       float64     `json:"toX,omitempty"`
	ToY       float64     `json:"toY,omitempty"`
	HasToXY   bool        `json:"-"`
	TimeoutMs int         `json:"timeout,omitempty"`
	TargetID  string      `json:"targetId,omitempty"`
}

// Drag presses on the source, moves to the destination, and releases. Human
// mode uses a wobbling path with an overshoot and correction; fast mode moves
// in a straight three-point line.
func (d *Dispatcher) Drag(ctx context.Context, entry *page.Entry, mode models.Mode, req DragRequest) error {
	timeout := actionTimeout(req.TimeoutMs)
	src, err := locate(ctx, entry, req.TargetSpec, timeout)
	if err != nil {
		return err
	}
	sx, sy := src.X+src.W/2, src.Y+src.H/2

	var tx, ty float64
	switch {
	case req.To != nil && !req.To.empty():
		dst, err := locate(ctx, entry, *req.To, timeout)
		if err != nil {
			return err
		}
		tx, ty = dst.X+dst.W/2, dst.Y+dst.H/2
	case req.HasToXY:
		tx, ty = req.ToX, req.ToY
	default:
		return fmt.Errorf("drag needs a destination: to or toX/toY")
	}

	var path []human.Point
	if humanized(mode) {
		path = d.timing.DragPath(sx, sy, tx, ty)
	} else {
		path = []human.Point{
			{X: sx, Y: sy},
			{X: (sx + tx) / 2, Y: (sy + ty) / 2},
			{X: tx, Y: ty},
		}
	}

	err = chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		if err := input.DispatchMouseEvent(input.MousePressed, sx, sy).
			WithButton(input.Left).WithClickCount(1).Do(ctx); err != nil {
			return err
		}
		for _, p := range path {
			if err := input.DispatchMouseEvent(input.MouseMoved, p.X, p.Y).
				WithButton(input.Left).Do(ctx); err != nil {
				return err
			}
			sleep(ctx, p.Delay)
		}
		return input.DispatchMouseEvent(input.MouseReleased, tx, ty).
			WithButton(input.Left).WithClickCount(1).Do(ctx)
	}))
	if err != nil {
		return translateCDPError(err)
	}
	entry.MouseX, entry.MouseY = tx, ty
	return nil
}
