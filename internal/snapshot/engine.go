// Package snapshot produces a compact accessibility-tree dump of a page,
// assigning one ref per addressable element. The ref map it returns replaces
// the page's previous map wholesale.
package snapshot

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/thefrederiksen/cc-browser/internal/page"
)

// Result is one snapshot of one page.
type Result struct {
	Tree  string                        `json:"tree"`
	Refs  map[string]page.RefDescriptor `json:"refs"`
	URL   string                        `json:"url"`
	Title string                        `json:"title"`
}

// Capture runs the in-page walker and returns the tree plus the fresh ref
// map. ctx must be a chromedp context bound to the target page.
func Capture(ctx context.Context) (*Result, error) {
	var res Result
	if err := chromedp.Run(ctx, chromedp.Evaluate(captureScript, &res)); err != nil {
		return nil, fmt.Errorf("snapshot evaluation failed: %w", err)
	}
	for ref, d := range res.Refs {
		if d.Mode == "" {
			d.Mode = page.RefModeAria
			res.Refs[ref] = d
		}
	}
	log.Debug().Int("refs", len(res.Refs)).Str("url", res.URL).Msg("Snapshot captured")
	return &res, nil
}
