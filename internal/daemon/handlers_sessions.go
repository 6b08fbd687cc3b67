package daemon

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

func (d *Daemon) handleSessionList(w http.ResponseWriter, r *http.Request) {
	// Reconcile against live tabs when a browser is up; listing still works
	// without one.
	if conn, err := d.connection(r.Context()); err == nil {
		if _, err := d.liveTabs(conn); err != nil {
			log.Debug().Err(err).Msg("Tab reconcile skipped")
		}
	}
	ok(w, envelope{"sessions": d.sessions.List()})
}

func (d *Daemon) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	// TTLMs is a pointer so an explicit 0 (never expire) survives decoding;
	// an absent field falls back to the configured default.
	var req struct {
		Name     string            `json:"name,omitempty"`
		TTLMs    *int64            `json:"ttlMs,omitempty"`
		Metadata map[string]string `json:"metadata,omitempty"`
	}
	if err := d.decode(r, &req); err != nil {
		failBad(w, err)
		return
	}
	ttl := d.cfg.SessionTTL.Milliseconds()
	if req.TTLMs != nil {
		ttl = *req.TTLMs
	}
	s, err := d.sessions.Create(req.Name, ttl, req.Metadata)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, envelope{"session": s})
}

func (d *Daemon) handleSessionHeartbeat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := d.decode(r, &req); err != nil {
		failBad(w, err)
		return
	}
	if req.ID == "" {
		failBad(w, fmt.Errorf("id is required"))
		return
	}
	if err := d.sessions.Touch(req.ID); err != nil {
		fail(w, err)
		return
	}
	ok(w, nil)
}

func (d *Daemon) handleSessionClose(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := d.decode(r, &req); err != nil {
		failBad(w, err)
		return
	}
	if req.ID == "" {
		failBad(w, fmt.Errorf("id is required"))
		return
	}
	tabIDs, err := d.sessions.Close(req.ID)
	if err != nil {
		fail(w, err)
		return
	}

	closed := 0
	if conn, err := d.connection(r.Context()); err == nil {
		for _, tabID := range tabIDs {
			if err := conn.CloseTab(tabID); err != nil {
				log.Debug().Err(err).Str("tab_id", tabID).Msg("Session tab already gone")
				continue
			}
			d.registry.Remove(tabID)
			closed++
		}
	}
	ok(w, envelope{"closedTabs": closed})
}

func (d *Daemon) handleSessionPrune(w http.ResponseWriter, _ *http.Request) {
	expired := d.sessions.PruneExpired()
	d.closeExpiredTabs(expired)
	ok(w, envelope{"pruned": len(expired)})
}
