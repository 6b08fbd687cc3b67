// Package daemon hosts the loopback HTTP API and owns all mutable state:
// the single active browser session, the CDP connection cache, per-tab page
// state, tab sessions, and the recorder. One coarse mutex serializes state
// mutations; the verbs themselves run concurrently against the browser.
package daemon

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/thefrederiksen/cc-browser/internal/browser"
	"github.com/thefrederiksen/cc-browser/internal/captcha"
	"github.com/thefrederiksen/cc-browser/internal/config"
	"github.com/thefrederiksen/cc-browser/internal/dispatch"
	"github.com/thefrederiksen/cc-browser/internal/human"
	"github.com/thefrederiksen/cc-browser/internal/page"
	"github.com/thefrederiksen/cc-browser/internal/recorder"
	"github.com/thefrederiksen/cc-browser/internal/replay"
	"github.com/thefrederiksen/cc-browser/internal/session"
	"github.com/thefrederiksen/cc-browser/internal/workspace"
	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// refCacheSize bounds the remembered ref maps across tabs.
const refCacheSize = 50

// Daemon is the long-lived server process.
type Daemon struct {
	cfg        *config.Config
	workspaces *workspace.Store

	mu      sync.Mutex
	active  *models.ActiveSession
	wsDesc  *models.Workspace // descriptor of the active workspace, if any
	pid     int               // browser process we started, 0 if reused
	tempDir string            // incognito profile dir, removed on stop
	mode    models.Mode

	conns    *browser.Cache
	registry *page.Registry
	refCache *page.RefCache
	disp     *dispatch.Dispatcher
	replayer *replay.Replayer

	sessions *session.Manager
	sweeper  *session.Sweeper

	rec      *recorder.Recorder
	recStore *recorder.Store
	recStop  context.CancelFunc

	solver   *captcha.Orchestrator
	analyzer captcha.Analyzer
}

// New assembles a daemon from configuration. Persisted sessions are restored
// and the expiry sweeper starts immediately.
func New(cfg *config.Config) (*Daemon, error) {
	ws, err := workspace.NewStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open workspace store: %w", err)
	}

	timing := human.New(rand.NewSource(time.Now().UnixNano()))
	disp := dispatch.New(timing)

	d := &Daemon{
		cfg:        cfg,
		workspaces: ws,
		mode:       models.Mode(cfg.Mode),
		conns:      browser.NewCache(),
		registry:   page.NewRegistry(),
		refCache:   page.NewRefCache(refCacheSize),
		disp:       disp,
		replayer:   replay.New(disp),
		sessions:   session.NewManager(),
		rec:        recorder.New(),
		recStore:   recorder.NewStore(cfg.VaultDir),
		solver:     captcha.NewOrchestrator(cfg.CaptchaMaxAttempts),
	}

	if err := d.sessions.Load(cfg.DataDir); err != nil {
		log.Warn().Err(err).Msg("Could not restore persisted sessions")
	}
	d.sweeper = session.StartSweeper(d.sessions, cfg.SessionSweepPeriod, d.closeExpiredTabs)

	return d, nil
}

// Shutdown persists sessions, stops the sweeper, and releases the CDP
// connection. The browser keeps running unless /stop was called.
func (d *Daemon) Shutdown() {
	d.sweeper.Stop()
	if err := d.sessions.Save(d.cfg.DataDir); err != nil {
		log.Warn().Err(err).Msg("Could not persist sessions")
	}
	d.conns.Drop()
}

// WriteStartupLock advertises the daemon port before any session exists.
// The /start handler rewrites the lock with browser and workspace details.
func (d *Daemon) WriteStartupLock() error {
	return d.workspaces.WriteLock(d.cfg.HTTPPort, "", "")
}

// RemoveLock deletes the lockfile on graceful shutdown.
func (d *Daemon) RemoveLock() error {
	return d.workspaces.RemoveLock()
}

// activeSession returns the current session or ErrNoActiveSession.
func (d *Daemon) activeSession() (*models.ActiveSession, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == nil {
		return nil, models.ErrNoActiveSession
	}
	s := *d.active
	return &s, nil
}

// currentMode returns the daemon's interaction mode.
func (d *Daemon) currentMode() models.Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// pageFor resolves a target id (empty selects the first page) to a chromedp
// context plus the tab's tracked state. Event listeners are installed the
// first time a tab is seen.
func (d *Daemon) pageFor(ctx context.Context, targetID string) (context.Context, context.CancelFunc, *page.Entry, error) {
	active, err := d.activeSession()
	if err != nil {
		return nil, nil, nil, err
	}
	conn, err := d.conns.Connect(ctx, active.CDPPort)
	if err != nil {
		return nil, nil, nil, err
	}
	info, err := conn.FindPage(ctx, targetID, active.CDPPort)
	if err != nil {
		return nil, nil, nil, err
	}

	pageCtx, cancel := conn.PageContext(string(info.TargetID))
	entry := d.registry.Ensure(string(info.TargetID))
	if entry.URL == "" {
		entry.URL = info.URL
	}

	if d.registry.MarkObserved(string(info.TargetID)) {
		d.observe(pageCtx, conn.URL, entry)
	}
	return pageCtx, cancel, entry, nil
}

// observe installs CDP event listeners that feed the tab's ring buffers and
// keep its URL current. Runs once per target.
func (d *Daemon) observe(pageCtx context.Context, cdpURL string, entry *page.Entry) {
	if err := chromedp.Run(pageCtx, network.Enable()); err != nil {
		log.Debug().Err(err).Str("target_id", entry.TargetID).Msg("Could not enable network events")
	}

	chromedp.ListenTarget(pageCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *runtime.EventConsoleAPICalled:
			var text string
			for i, arg := range e.Args {
				if i > 0 {
					text += " "
				}
				text += formatRemoteObject(arg)
			}
			entry.Console.Push(models.ConsoleMessage{
				Type: string(e.Type), Text: text, At: time.Now(),
			})
		case *runtime.EventExceptionThrown:
			msg := e.ExceptionDetails.Text
			if e.ExceptionDetails.Exception != nil && e.ExceptionDetails.Exception.Description != "" {
				msg = e.ExceptionDetails.Exception.Description
			}
			entry.Errors.Push(models.PageError{Message: msg, At: time.Now()})
		case *network.EventRequestWillBeSent:
			entry.Network.Push(models.NetworkRequest{
				RequestID: string(e.RequestID),
				URL:       e.Request.URL,
				Method:    e.Request.Method,
				At:        time.Now(),
			})
		case *network.EventResponseReceived:
			markNetworkStatus(entry, string(e.RequestID), e.Response.Status, "")
		case *network.EventLoadingFailed:
			markNetworkStatus(entry, string(e.RequestID), 0, e.ErrorText)
		case *cdppage.EventFrameNavigated:
			if e.Frame.ParentID == "" {
				entry.URL = e.Frame.URL
				// Navigation invalidates snapshot refs, but the ref cache may
				// restore them if the page comes back to a snapshotted URL.
				if cached, ok := d.refCache.Get(cdpURL, entry.TargetID); ok {
					entry.SetRefs(cached)
				} else {
					entry.SetRefs(nil)
				}
			}
		}
	})
}

// markNetworkStatus back-fills the response outcome onto the tracked request.
func markNetworkStatus(entry *page.Entry, requestID string, status int64, failure string) {
	items := entry.Network.Items()
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].RequestID == requestID {
			items[i].Status = status
			items[i].Failure = failure
			entry.Network.Replace(i, items[i])
			return
		}
	}
}

func formatRemoteObject(obj *runtime.RemoteObject) string {
	if obj == nil {
		return ""
	}
	if obj.Value != nil {
		return string(obj.Value)
	}
	if obj.Description != "" {
		return obj.Description
	}
	return string(obj.Type)
}

// closeExpiredTabs is the sweeper callback: close every tab of each expired
// session, best-effort.
func (d *Daemon) closeExpiredTabs(expired []session.Expired) {
	conn := d.conns.Current()
	if conn == nil {
		return
	}
	for _, e := range expired {
		for _, tabID := range e.TabIDs {
			if err := conn.CloseTab(tabID); err != nil {
				log.Debug().Err(err).Str("tab_id", tabID).Msg("Expired tab already gone")
			}
			d.registry.Remove(tabID)
		}
		log.Info().Str("session_id", e.SessionID).Int("tabs", len(e.TabIDs)).Msg("Expired session cleaned up")
	}
}
