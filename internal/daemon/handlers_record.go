package daemon

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/thefrederiksen/cc-browser/internal/recorder"
	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// handleRecordStart injects the capture script into the target tab. The page
// context outlives this request; it is released when recording stops.
func (d *Daemon) handleRecordStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name,omitempty"`
		TargetID string `json:"targetId,omitempty"`
	}
	if err := d.decode(r, &req); err != nil {
		failBad(w, err)
		return
	}

	pageCtx, cancel, _, err := d.pageFor(r.Context(), req.TargetID)
	if err != nil {
		fail(w, err)
		return
	}

	if err := d.rec.Start(pageCtx, req.Name, d.cfg.HTTPPort); err != nil {
		cancel()
		fail(w, err)
		return
	}

	d.mu.Lock()
	d.recStop = cancel
	d.mu.Unlock()

	log.Info().Str("name", req.Name).Msg("Recording started")
	ok(w, envelope{"name": req.Name, "active": true})
}

// handleRecordStop finalizes the recording and writes it to the vault.
func (d *Daemon) handleRecordStop(w http.ResponseWriter, r *http.Request) {
	rec, err := d.rec.Stop(r.Context())
	if err != nil {
		fail(w, err)
		return
	}

	d.mu.Lock()
	if d.recStop != nil {
		d.recStop()
		d.recStop = nil
	}
	d.mu.Unlock()

	path, err := d.recStore.Save(rec)
	if err != nil {
		fail(w, err)
		return
	}
	log.Info().Str("name", rec.Name).Int("steps", len(rec.Steps)).Str("path", path).Msg("Recording saved")
	ok(w, envelope{"name": rec.Name, "steps": len(rec.Steps), "path": path})
}

func (d *Daemon) handleRecordStatus(w http.ResponseWriter, _ *http.Request) {
	st := d.rec.Status()
	ok(w, envelope{"active": st.Active, "name": st.Name, "steps": st.Steps})
}

// handleRecordBeacon accepts events flushed by the in-page script on
// beforeunload. It always answers 204; the page is gone by the time any
// error could reach it.
func (d *Daemon) handleRecordBeacon(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Events []recorder.RawEvent `json:"events"`
	}
	if err := d.decode(r, &body); err != nil {
		log.Debug().Err(err).Msg("Beacon body unreadable")
	} else {
		d.rec.Ingest(body.Events)
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReplay runs a stored recording (by name) or an inline step list.
func (d *Daemon) handleReplay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string        `json:"name,omitempty"`
		Steps    []models.Step `json:"steps,omitempty"`
		Mode     string        `json:"mode,omitempty"`
		TargetID string        `json:"targetId,omitempty"`
	}
	if err := d.decode(r, &req); err != nil {
		failBad(w, err)
		return
	}

	var rec *models.Recording
	if len(req.Steps) > 0 {
		rec = &models.Recording{Name: "inline", Steps: req.Steps}
	} else {
		found, err := d.recStore.Find(req.Name)
		if err != nil {
			fail(w, err)
			return
		}
		rec = found
	}

	mode := d.currentMode()
	if req.Mode != "" {
		m, err := parseMode(req.Mode)
		if err != nil {
			failBad(w, err)
			return
		}
		mode = m
	}

	pageCtx, cancel, entry, err := d.pageFor(r.Context(), req.TargetID)
	if err != nil {
		fail(w, err)
		return
	}
	defer cancel()

	summary := d.replayer.Run(pageCtx, entry, rec, mode)
	log.Info().
		Str("name", rec.Name).
		Int("passed", summary.Passed).
		Int("failed", summary.Failed).
		Bool("fatal", summary.Fatal).
		Msg("Replay finished")
	ok(w, envelope{
		"name":    rec.Name,
		"passed":  summary.Passed,
		"failed":  summary.Failed,
		"fatal":   summary.Fatal,
		"results": summary.Results,
	})
}
