package dispatch

import (
	"context"

	"github.com/chromedp/chromedp"

	"github.com/thefrederiksen/cc-browser/internal/page"
	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// PageInfo is the response of /info: the page's identity plus everything the
// tab's trackers have collected since it was first observed.
type PageInfo struct {
	URL        string                  `json:"url"`
	Title      string                  `json:"title"`
	ReadyState string                  `json:"readyState"`
	Viewport   Viewport                `json:"viewport"`
	Console    []models.ConsoleMessage `json:"console"`
	Errors     []models.PageError      `json:"errors"`
	Network    []models.NetworkRequest `json:"network"`
}

// Viewport is the page's layout viewport size.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Info reports the page's current URL, title, ready state, viewport, and the
// buffered console, error, and network logs.
func (d *Dispatcher) Info(ctx context.Context, entry *page.Entry) (*PageInfo, error) {
	info := &PageInfo{
		Console: entry.Console.Items(),
		Errors:  entry.Errors.Items(),
		Network: entry.Network.Items(),
	}

	var vp struct {
		Width  int    `json:"width"`
		Height int    `json:"height"`
		State  string `json:"state"`
	}
	err := chromedp.Run(ctx,
		chromedp.Location(&info.URL),
		chromedp.Title(&info.Title),
		chromedp.Evaluate(`({
			width: window.innerWidth,
			height: window.innerHeight,
			state: document.readyState,
		})`, &vp),
	)
	if err != nil {
		return nil, translateCDPError(err)
	}
	info.ReadyState = vp.State
	info.Viewport = Viewport{Width: vp.Width, Height: vp.Height}
	entry.URL = info.URL
	return info, nil
}
