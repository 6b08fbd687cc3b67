package dispatch

import (
	"context"

	"github.com/chromedp/chromedp"
)

// Minimum viewport dimensions; smaller requests are raised to these.
const (
	minViewportWidth  = 320
	minViewportHeight = 240
)

// ResizeRequest is the body of /resize.
type ResizeRequest struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	TargetID string `json:"targetId,omitempty"`
}

// Resize sets the emulated viewport size.
func (d *Dispatcher) Resize(ctx context.Context, req ResizeRequest) (w, h int, err error) {
	w, h = req.Width, req.Height
	if w < minViewportWidth {
		w = minViewportWidth
	}
	if h < minViewportHeight {
		h = minViewportHeight
	}
	if err := chromedp.Run(ctx, chromedp.EmulateViewport(int64(w), int64(h))); err != nil {
		return 0, 0, translateCDPError(err)
	}
	return w, h, nil
}
