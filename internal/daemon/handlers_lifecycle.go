package daemon

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/thefrederiksen/cc-browser/internal/browser"
	"github.com/thefrederiksen/cc-browser/internal/config"
	"github.com/thefrederiksen/cc-browser/pkg/models"
)

type startRequest struct {
	Browser       string `json:"browser,omitempty"`
	Workspace     string `json:"workspace,omitempty"`
	Alias         string `json:"alias,omitempty"`
	Incognito     bool   `json:"incognito,omitempty"`
	Headless      bool   `json:"headless,omitempty"`
	SystemProfile bool   `json:"systemProfile,omitempty"`
	ProfileDir    string `json:"profileDir,omitempty"`
	CDPPort       int    `json:"cdpPort,omitempty"`
	Mode          string `json:"mode,omitempty"`
}

// handleStart launches (or reuses) a browser and binds the daemon to it.
func (d *Daemon) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := d.decode(r, &req); err != nil {
		failBad(w, err)
		return
	}

	kind := models.BrowserKind(req.Browser)
	if req.Browser == "" {
		kind = models.BrowserKind(d.cfg.Browser)
	}
	name := req.Workspace

	var ws *models.Workspace
	if req.Alias != "" {
		resolved, err := d.workspaces.ResolveAlias(req.Alias)
		if err != nil {
			fail(w, err)
			return
		}
		ws = resolved
		kind = ws.Browser
		name = ws.Name
	}
	if !kind.Valid() {
		failBad(w, fmt.Errorf("unknown browser %q; want chrome, edge, or brave", req.Browser))
		return
	}
	if req.Incognito && name != "" {
		failBad(w, fmt.Errorf("incognito sessions cannot use a workspace"))
		return
	}
	if ws == nil && name != "" {
		resolved, err := d.workspaces.Resolve(kind, name)
		switch {
		case err == nil:
			ws = resolved
		case errors.Is(err, models.ErrConfigNotFound):
			// First use of this workspace name; the directory is created on
			// launch with default ports.
		default:
			fail(w, err)
			return
		}
	}

	cdpPort := req.CDPPort
	if cdpPort == 0 && ws != nil {
		cdpPort = ws.CDPPort
	}
	if cdpPort == 0 {
		cdpPort = d.cfg.CDPPort
	}

	d.mu.Lock()
	if d.active != nil &&
		(d.active.Browser != kind || d.active.Workspace != name || d.active.CDPPort != cdpPort) {
		current := *d.active
		d.mu.Unlock()
		fail(w, fmt.Errorf("%w: %s/%s is active on port %d; call /stop first",
			models.ErrSessionMismatch, current.Browser, current.Workspace, current.CDPPort))
		return
	}
	d.mu.Unlock()

	dirName := name
	if dirName == "" {
		dirName = "default"
	}
	res, err := browser.Launch(r.Context(), browser.LaunchOptions{
		Browser:       kind,
		Workspace:     name,
		Port:          cdpPort,
		UserDataDir:   d.cfg.WorkspaceDir(string(kind), dirName),
		ExecOverride:  d.cfg.BrowserPath,
		Incognito:     req.Incognito,
		Headless:      req.Headless || d.cfg.Headless,
		SystemProfile: req.SystemProfile,
		ProfileDir:    req.ProfileDir,
	})
	if err != nil {
		fail(w, err)
		return
	}

	mode := d.currentMode()
	if m, err := parseMode(req.Mode); err == nil && req.Mode != "" {
		mode = m
	} else if req.Mode == "" && ws != nil && ws.DefaultMode != "" {
		mode = ws.DefaultMode
	}

	d.mu.Lock()
	d.active = &models.ActiveSession{
		Browser:   kind,
		Workspace: name,
		CDPPort:   cdpPort,
		Incognito: req.Incognito,
	}
	d.wsDesc = ws
	if res.Started {
		d.pid = res.PID
	}
	d.tempDir = res.TempDir
	d.mode = mode
	d.mu.Unlock()

	if err := d.workspaces.WriteLock(d.cfg.HTTPPort, string(kind), name); err != nil {
		log.Warn().Err(err).Msg("Could not write lockfile")
	}

	ok(w, envelope{
		"started":   res.Started,
		"pid":       res.PID,
		"tabs":      res.Tabs,
		"browser":   kind,
		"workspace": name,
		"cdpPort":   cdpPort,
		"mode":      mode,
	})
}

// handleStop shuts the browser down and clears the active session.
func (d *Daemon) handleStop(w http.ResponseWriter, r *http.Request) {
	active, err := d.activeSession()
	if err != nil {
		fail(w, err)
		return
	}

	d.mu.Lock()
	pid := d.pid
	tempDir := d.tempDir
	d.mu.Unlock()

	if err := browser.Stop(r.Context(), active.CDPPort, pid, tempDir); err != nil {
		log.Warn().Err(err).Int("port", active.CDPPort).Msg("Browser stop was not clean")
	}

	d.conns.Drop()
	for _, id := range d.registry.TargetIDs() {
		d.registry.Remove(id)
	}

	d.mu.Lock()
	d.active = nil
	d.wsDesc = nil
	d.pid = 0
	d.tempDir = ""
	d.mu.Unlock()

	if err := d.workspaces.WriteLock(d.cfg.HTTPPort, "", ""); err != nil {
		log.Warn().Err(err).Msg("Could not rewrite lockfile")
	}

	log.Info().Str("browser", string(active.Browser)).Str("workspace", active.Workspace).Msg("Session stopped")
	ok(w, envelope{"stopped": true})
}

// handleStatus reports the daemon's current binding. Works with or without an
// active session.
func (d *Daemon) handleStatus(w http.ResponseWriter, r *http.Request) {
	fields := envelope{
		"port": d.cfg.HTTPPort,
		"mode": d.currentMode(),
	}

	rec := d.rec.Status()
	fields["recording"] = envelope{"active": rec.Active, "name": rec.Name, "steps": rec.Steps}
	fields["sessions"] = len(d.sessions.List())

	active, err := d.activeSession()
	if err != nil {
		fields["active"] = nil
		ok(w, fields)
		return
	}
	fields["active"] = active

	if tabs, err := browser.ListTabs(r.Context(), active.CDPPort, config.DefaultLaunchProbeTimeout); err == nil {
		fields["tabs"] = tabs
	}
	ok(w, fields)
}

// handleBrowsers lists which supported browsers are installed on this host.
func (d *Daemon) handleBrowsers(w http.ResponseWriter, _ *http.Request) {
	type browserInfo struct {
		Kind      models.BrowserKind `json:"kind"`
		Installed bool               `json:"installed"`
		Path      string             `json:"path,omitempty"`
	}
	kinds := []models.BrowserKind{models.BrowserChrome, models.BrowserEdge, models.BrowserBrave}
	out := make([]browserInfo, 0, len(kinds))
	for _, k := range kinds {
		path, err := browser.FindExecutable(k, "")
		out = append(out, browserInfo{Kind: k, Installed: err == nil, Path: path})
	}
	ok(w, envelope{"browsers": out})
}

// handleProfiles lists every workspace descriptor on disk.
func (d *Daemon) handleProfiles(w http.ResponseWriter, _ *http.Request) {
	list, err := d.workspaces.List()
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, envelope{"workspaces": list})
}

// handleModeGet returns the current interaction mode.
func (d *Daemon) handleModeGet(w http.ResponseWriter, _ *http.Request) {
	ok(w, envelope{"mode": d.currentMode()})
}

// handleModeSet switches between fast, human, and stealth.
func (d *Daemon) handleModeSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := d.decode(r, &req); err != nil {
		failBad(w, err)
		return
	}
	mode, err := parseMode(req.Mode)
	if err != nil {
		failBad(w, err)
		return
	}
	d.mu.Lock()
	d.mode = mode
	d.mu.Unlock()
	log.Info().Str("mode", string(mode)).Msg("Mode changed")
	ok(w, envelope{"mode": mode})
}

func parseMode(s string) (models.Mode, error) {
	switch models.Mode(s) {
	case models.ModeFast, models.ModeHuman, models.ModeStealth:
		return models.Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q; want fast, human, or stealth", s)
}
