package daemon

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/thefrederiksen/cc-browser/internal/browser"
	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// connection returns the live CDP connection for the active session.
func (d *Daemon) connection(ctx context.Context) (*browser.Conn, error) {
	active, err := d.activeSession()
	if err != nil {
		return nil, err
	}
	return d.conns.Connect(ctx, active.CDPPort)
}

// liveTabs lists the browser's page targets and reconciles tab sessions
// against them.
func (d *Daemon) liveTabs(conn *browser.Conn) ([]models.TabInfo, error) {
	pages, err := conn.Pages()
	if err != nil {
		return nil, err
	}
	tabs := make([]models.TabInfo, 0, len(pages))
	ids := make([]string, 0, len(pages))
	for _, p := range pages {
		tabs = append(tabs, models.TabInfo{
			TargetID: string(p.TargetID),
			URL:      p.URL,
			Title:    p.Title,
			Attached: p.Attached,
		})
		ids = append(ids, string(p.TargetID))
	}
	d.sessions.ReconcileTabs(ids)
	return tabs, nil
}

func (d *Daemon) handleTabs(w http.ResponseWriter, r *http.Request) {
	conn, err := d.connection(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	tabs, err := d.liveTabs(conn)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, envelope{"tabs": tabs})
}

func (d *Daemon) handleTabOpen(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL       string `json:"url,omitempty"`
		SessionID string `json:"sessionId,omitempty"`
	}
	if err := d.decode(r, &req); err != nil {
		failBad(w, err)
		return
	}
	conn, err := d.connection(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	targetID, err := conn.OpenTab(req.URL)
	if err != nil {
		fail(w, err)
		return
	}
	if req.SessionID != "" {
		if err := d.sessions.AddTab(req.SessionID, targetID); err != nil {
			fail(w, err)
			return
		}
	}
	ok(w, envelope{"targetId": targetID})
}

func (d *Daemon) handleTabClose(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetID string `json:"targetId"`
	}
	if err := d.decode(r, &req); err != nil {
		failBad(w, err)
		return
	}
	if req.TargetID == "" {
		failBad(w, fmt.Errorf("targetId is required"))
		return
	}
	conn, err := d.connection(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	if err := conn.CloseTab(req.TargetID); err != nil {
		fail(w, err)
		return
	}
	d.sessions.RemoveTab(req.TargetID)
	d.registry.Remove(req.TargetID)
	ok(w, nil)
}

func (d *Daemon) handleTabFocus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetID string `json:"targetId"`
	}
	if err := d.decode(r, &req); err != nil {
		failBad(w, err)
		return
	}
	if req.TargetID == "" {
		failBad(w, fmt.Errorf("targetId is required"))
		return
	}
	conn, err := d.connection(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	if err := conn.FocusTab(req.TargetID); err != nil {
		fail(w, err)
		return
	}
	ok(w, nil)
}

func (d *Daemon) handleTabCloseAll(w http.ResponseWriter, r *http.Request) {
	conn, err := d.connection(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	pages, err := conn.Pages()
	if err != nil {
		fail(w, err)
		return
	}
	closed := 0
	for _, p := range pages {
		id := string(p.TargetID)
		if err := conn.CloseTab(id); err != nil {
			log.Debug().Err(err).Str("target_id", id).Msg("Tab already gone")
			continue
		}
		d.registry.Remove(id)
		closed++
	}
	d.sessions.ReconcileTabs(nil)
	ok(w, envelope{"closed": closed})
}
