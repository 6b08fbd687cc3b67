package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/thefrederiksen/cc-browser/internal/config"
	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// Pages lists all page-type targets on the connection.
func (c *Conn) Pages() ([]*target.Info, error) {
	infos, err := chromedp.Targets(c.BrowserCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	pages := infos[:0]
	for _, info := range infos {
		if info.Type == "page" {
			pages = append(pages, info)
		}
	}
	return pages, nil
}

// PageContext returns a chromedp context bound to an existing tab.
func (c *Conn) PageContext(targetID string) (context.Context, context.CancelFunc) {
	return chromedp.NewContext(c.BrowserCtx, chromedp.WithTargetID(target.ID(targetID)))
}

// FindPage resolves a target id to a live page. An empty id selects the
// first page. If the id is unknown, the DevTools HTTP list is consulted by
// URL (with positional disambiguation when several tabs share one), and as a
// courtesy a lone page wins regardless; otherwise the tab is gone.
func (c *Conn) FindPage(ctx context.Context, targetID string, port int) (*target.Info, error) {
	pages, err := c.Pages()
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: browser has no open pages", models.ErrTabNotFound)
	}
	if targetID == "" {
		return pages[0], nil
	}

	for _, p := range pages {
		if string(p.TargetID) == targetID {
			return p, nil
		}
	}

	// The internal target list can lag the browser. Fall back to /json/list,
	// matching by URL with position among same-URL tabs.
	if port > 0 {
		if tabs, err := ListTabs(ctx, port, config.DefaultLaunchProbeTimeout); err == nil {
			if p := matchByURLPosition(pages, tabs, targetID); p != nil {
				log.Debug().Str("target_id", targetID).Msg("Page resolved via /json/list URL fallback")
				return p, nil
			}
		}
	}

	if len(pages) == 1 {
		log.Debug().Str("target_id", targetID).Msg("Target id unknown; falling back to the only page")
		return pages[0], nil
	}

	return nil, fmt.Errorf("%w: %s", models.ErrTabNotFound, targetID)
}

func matchByURLPosition(pages []*target.Info, tabs []models.TabInfo, targetID string) *target.Info {
	var wantURL string
	position := 0
	found := false
	for _, t := range tabs {
		if t.TargetID == targetID {
			wantURL = t.URL
			found = true
			break
		}
		// count earlier tabs with the same URL once we know it
	}
	if !found {
		return nil
	}
	for _, t := range tabs {
		if t.TargetID == targetID {
			break
		}
		if t.URL == wantURL {
			position++
		}
	}

	seen := 0
	for _, p := range pages {
		if p.URL != wantURL {
			continue
		}
		if seen == position {
			return p
		}
		seen++
	}
	return nil
}

// OpenTab creates a new tab and returns its target id.
func (c *Conn) OpenTab(url string) (string, error) {
	if url == "" {
		url = "about:blank"
	}
	var id target.ID
	err := chromedp.Run(c.BrowserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		id, err = target.CreateTarget(url).Do(ctx)
		return err
	}))
	if err != nil {
		return "", fmt.Errorf("failed to open tab: %w", err)
	}
	return string(id), nil
}

// CloseTab closes a tab by target id.
func (c *Conn) CloseTab(targetID string) error {
	err := chromedp.Run(c.BrowserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return target.CloseTarget(target.ID(targetID)).Do(ctx)
	}))
	if err != nil {
		return fmt.Errorf("%w: %s", models.ErrTabNotFound, targetID)
	}
	return nil
}

// FocusTab brings a tab to the foreground.
func (c *Conn) FocusTab(targetID string) error {
	err := chromedp.Run(c.BrowserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return target.ActivateTarget(target.ID(targetID)).Do(ctx)
	}))
	if err != nil {
		return fmt.Errorf("%w: %s", models.ErrTabNotFound, targetID)
	}
	return nil
}
