package dispatch

import (
	"context"
	"fmt"
	"math"

	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/thefrederiksen/cc-browser/internal/page"
)

// ScreenshotRequest is the body of /screenshot. An element target and
// fullPage are mutually exclusive.
type ScreenshotRequest struct {
	TargetSpec
	FullPage  bool   `json:"fullPage,omitempty"`
	Format    string `json:"format,omitempty"` // png | jpeg
	Quality   int    `json:"quality,omitempty"`
	TimeoutMs int    `json:"timeout,omitempty"`
	TargetID  string `json:"targetId,omitempty"`
}

// Screenshot captures the viewport, the full page, or one element.
func (d *Dispatcher) Screenshot(ctx context.Context, entry *page.Entry, req ScreenshotRequest) ([]byte, error) {
	format := cdppage.CaptureScreenshotFormatPng
	switch req.Format {
	case "", "png":
	case "jpeg":
		format = cdppage.CaptureScreenshotFormatJpeg
	default:
		return nil, fmt.Errorf("unknown format %q", req.Format)
	}
	quality := int64(req.Quality)
	if quality <= 0 || quality > 100 {
		quality = 90
	}

	hasTarget := !req.TargetSpec.empty()
	if hasTarget && req.FullPage {
		return nil, fmt.Errorf("fullPage cannot be combined with an element target")
	}

	var clip *cdppage.Viewport
	if hasTarget {
		h, err := locate(ctx, entry, req.TargetSpec, actionTimeout(req.TimeoutMs))
		if err != nil {
			return nil, err
		}
		if h.W < 1 || h.H < 1 {
			return nil, fmt.Errorf("element has no visible area")
		}
		clip = &cdppage.Viewport{
			X:     math.Floor(h.X),
			Y:     math.Floor(h.Y),
			Width: math.Ceil(h.W), Height: math.Ceil(h.H),
			Scale: 1,
		}
	}

	var buf []byte
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		p := cdppage.CaptureScreenshot().WithFormat(format)
		if format == cdppage.CaptureScreenshotFormatJpeg {
			p = p.WithQuality(quality)
		}
		if clip != nil {
			p = p.WithClip(clip)
		}
		if req.FullPage {
			p = p.WithCaptureBeyondViewport(true)
			// Clip to the document's scroll extent so the capture covers the
			// whole page, not just the visual viewport.
			_, _, _, _, _, contentSize, err := cdppage.GetLayoutMetrics().Do(ctx)
			if err == nil && contentSize != nil {
				p = p.WithClip(&cdppage.Viewport{
					X: 0, Y: 0,
					Width:  contentSize.Width,
					Height: contentSize.Height,
					Scale:  1,
				})
			}
		}
		var err error
		buf, err = p.Do(ctx)
		return err
	}))
	if err != nil {
		return nil, translateCDPError(err)
	}
	return buf, nil
}

// labelOverlayScript draws ref badges on every element stamped by the last
// snapshot. It returns the number of badges drawn.
const labelOverlayScript = `(() => {
  const old = document.getElementById('__cc_label_overlay');
  if (old) old.remove();
  const overlay = document.createElement('div');
  overlay.id = '__cc_label_overlay';
  overlay.style.cssText = 'position:fixed;inset:0;pointer-events:none;z-index:2147483647;';
  let n = 0;
  for (const el of document.querySelectorAll('[data-ccref]')) {
    const r = el.getBoundingClientRect();
    if (r.width === 0 && r.height === 0) continue;
    const box = document.createElement('div');
    box.style.cssText = 'position:fixed;border:1px solid #e33;' +
      'left:' + r.x + 'px;top:' + r.y + 'px;width:' + r.width + 'px;height:' + r.height + 'px;';
    const tag = document.createElement('span');
    tag.textContent = el.getAttribute('data-ccref');
    tag.style.cssText = 'position:absolute;left:0;top:-14px;background:#e33;color:#fff;' +
      'font:10px monospace;padding:0 3px;';
    box.appendChild(tag);
    overlay.appendChild(box);
    n++;
  }
  document.body.appendChild(overlay);
  return n;
})()`

const labelRemoveScript = `(() => {
  const old = document.getElementById('__cc_label_overlay');
  if (old) old.remove();
})()`

// ScreenshotLabels captures the viewport with ref badges drawn over every
// snapshotted element, then removes the overlay.
func (d *Dispatcher) ScreenshotLabels(ctx context.Context, entry *page.Entry, req ScreenshotRequest) ([]byte, int, error) {
	var count int
	if err := chromedp.Run(ctx, chromedp.Evaluate(labelOverlayScript, &count)); err != nil {
		return nil, 0, translateCDPError(err)
	}
	defer func() {
		_ = chromedp.Run(ctx, chromedp.Evaluate(labelRemoveScript, nil))
	}()

	shot := req
	shot.TargetSpec = TargetSpec{}
	shot.FullPage = false
	buf, err := d.Screenshot(ctx, entry, shot)
	if err != nil {
		return nil, 0, err
	}
	return buf, count, nil
}
