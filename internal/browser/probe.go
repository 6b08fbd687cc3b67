package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// jsonTab is one entry of the DevTools /json/list response.
type jsonTab struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// ProbeVersion checks whether a CDP endpoint answers on the port.
func ProbeVersion(ctx context.Context, port int, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("http://127.0.0.1:%d/json/version", port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cdp version probe returned %d", resp.StatusCode)
	}
	return nil
}

// ListTabs reads /json/list and keeps only real page targets.
func ListTabs(ctx context.Context, port int, timeout time.Duration) ([]models.TabInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := fmt.Sprintf("http://127.0.0.1:%d/json/list", port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list tabs: %w", err)
	}
	defer resp.Body.Close()

	var raw []jsonTab
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse tab list: %w", err)
	}

	tabs := make([]models.TabInfo, 0, len(raw))
	for _, t := range raw {
		if t.Type != "page" {
			continue
		}
		tabs = append(tabs, models.TabInfo{TargetID: t.ID, URL: t.URL, Title: t.Title})
	}
	return tabs, nil
}

// portBound reports whether something is already listening on the port.
func portBound(port int) bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", port), 250*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
