package dispatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chromedp/chromedp"

	"github.com/thefrederiksen/cc-browser/internal/page"
)

// UploadRequest is the body of /upload. Paths must name readable local files.
type UploadRequest struct {
	TargetSpec
	Paths     []string `json:"paths"`
	TimeoutMs int      `json:"timeout,omitempty"`
	TargetID  string   `json:"targetId,omitempty"`
}

// Upload attaches local files to a file input. The input and change events
// are fired afterwards since programmatic file assignment does not raise them.
func (d *Dispatcher) Upload(ctx context.Context, entry *page.Entry, req UploadRequest) error {
	if len(req.Paths) == 0 {
		return fmt.Errorf("paths is required")
	}
	abs := make([]string, 0, len(req.Paths))
	for _, p := range req.Paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		if _, err := os.Stat(a); err != nil {
			return fmt.Errorf("file not readable: %w", err)
		}
		abs = append(abs, a)
	}

	if _, err := locate(ctx, entry, req.TargetSpec, actionTimeout(req.TimeoutMs)); err != nil {
		return err
	}

	err := chromedp.Run(ctx,
		chromedp.SetUploadFiles(`[data-ccfound]`, abs, chromedp.ByQuery),
		chromedp.Evaluate(`(() => {
			const el = document.querySelector('[data-ccfound]');
			if (el) {
				el.dispatchEvent(new Event('input', { bubbles: true }));
				el.dispatchEvent(new Event('change', { bubbles: true }));
			}
		})()`, nil),
	)
	return translateCDPError(err)
}
