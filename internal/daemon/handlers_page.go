package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/thefrederiksen/cc-browser/internal/captcha"
	"github.com/thefrederiksen/cc-browser/internal/dispatch"
	"github.com/thefrederiksen/cc-browser/internal/page"
	"github.com/thefrederiksen/cc-browser/internal/snapshot"
	"github.com/thefrederiksen/cc-browser/internal/textextract"
)

// handleNavigate loads a URL. In human and stealth modes a cheap DOM probe
// runs afterwards and, if a CAPTCHA is present, the solver kicks in; its
// outcome rides along in the response.
func (d *Daemon) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req dispatch.NavigateRequest
	if err := d.decode(r, &req); err != nil {
		failBad(w, err)
		return
	}
	pageCtx, cancel, entry, err := d.pageFor(r.Context(), req.TargetID)
	if err != nil {
		fail(w, err)
		return
	}
	defer cancel()

	mode := d.currentMode()
	res, err := d.disp.Navigate(pageCtx, entry, mode, req)
	if err != nil {
		fail(w, err)
		return
	}
	d.injectIndicator(pageCtx, mode)

	fields := envelope{"url": res.URL, "title": res.Title}
	if mode.Humanized() {
		if det, err := captcha.Detect(pageCtx); err == nil && det.Detected {
			fields["captcha"] = d.solveDetected(pageCtx, entry, det)
		}
	}
	ok(w, fields)
}

func (d *Daemon) handleReload(w http.ResponseWriter, r *http.Request) {
	d.renavigate(w, r, d.disp.Reload)
}

func (d *Daemon) handleBack(w http.ResponseWriter, r *http.Request) {
	d.renavigate(w, r, d.disp.Back)
}

func (d *Daemon) handleForward(w http.ResponseWriter, r *http.Request) {
	d.renavigate(w, r, d.disp.Forward)
}

// renavigate is the shared body of /reload, /back, and /forward.
func (d *Daemon) renavigate(w http.ResponseWriter, r *http.Request,
	move func(ctx context.Context) (*dispatch.NavigateResult, error)) {
	var req struct {
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
	defer cancel()

	res, err := move(pageCtx)
	if err != nil {
		fail(w, err)
		return
	}
	d.injectIndicator(pageCtx, d.currentMode())
	ok(w, envelope{"url": res.URL, "title": res.Title})
}

// handleSnapshot captures the accessibility tree and installs the fresh ref
// map as the tab's addressing state.
func (d *Daemon) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetID string `json:"targetId,omitempty"`
	}
	if err := d.decode(r, &req); err != nil {
		failBad(w, err)
		return
	}
	pageCtx, cancel, entry, err := d.pageFor(r.Context(), req.TargetID)
	if err != nil {
		fail(w, err)
		return
	}
	defer cancel()

	res, err := snapshot.Capture(pageCtx)
	if err != nil {
		fail(w, err)
		return
	}
	entry.SetRefs(res.Refs)
	if conn := d.conns.Current(); conn != nil {
		d.refCache.Put(conn.URL, entry.TargetID, entry.Refs())
	}
	d.injectIndicator(pageCtx, d.currentMode())

	ok(w, envelope{
		"snapshot": res.Tree,
		"refs":     len(res.Refs),
		"url":      res.URL,
		"title":    res.Title,
	})
}

// handleInfo returns the page identity plus the tab's buffered console,
// error, and network logs.
func (d *Daemon) handleInfo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetID string `json:"targetId,omitempty"`
	}
	if err := d.decode(r, &req); err != nil {
		failBad(w, err)
		return
	}
	pageCtx, cancel, entry, err := d.pageFor(r.Context(), req.TargetID)
	if err != nil {
		fail(w, err)
		return
	}
	defer cancel()

	info, err := d.disp.Info(pageCtx, entry)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, envelope{
		"url":        info.URL,
		"title":      info.Title,
		"readyState": info.ReadyState,
		"viewport":   info.Viewport,
		"console":    info.Console,
		"errors":     info.Errors,
		"network":    info.Network,
	})
}

type extractRequest struct {
	Ref      string `json:"ref,omitempty"`
	Selector string `json:"selector,omitempty"`
	Format   string `json:"format,omitempty"` // text | markdown
	Clean    bool   `json:"clean,omitempty"`
	TargetID string `json:"targetId,omitempty"`
}

// handleText returns the page's visible text, optionally scoped to one
// element and optionally rendered as markdown.
func (d *Daemon) handleText(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := d.decode(r, &req); err != nil {
		failBad(w, err)
		return
	}
	pageCtx, cancel, entry, err := d.pageFor(r.Context(), req.TargetID)
	if err != nil {
		fail(w, err)
		return
	}
	defer cancel()

	raw, err := d.scopedHTML(pageCtx, entry, req)
	if err != nil {
		fail(w, err)
		return
	}

	switch req.Format {
	case "", "text":
		text, err := textextract.Text(raw)
		if err != nil {
			fail(w, err)
			return
		}
		ok(w, envelope{"text": text, "format": "text"})
	case "markdown":
		md, err := textextract.Markdown(raw, entry.URL)
		if err != nil {
			fail(w, err)
			return
		}
		ok(w, envelope{"text": md, "format": "markdown"})
	default:
		failBad(w, fmt.Errorf("unknown format %q; want text or markdown", req.Format))
	}
}

// handleHTML returns outer HTML, optionally cleaned of scripts, styles, and
// tracking attributes.
func (d *Daemon) handleHTML(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := d.decode(r, &req); err != nil {
		failBad(w, err)
		return
	}
	pageCtx, cancel, entry, err := d.pageFor(r.Context(), req.TargetID)
	if err != nil {
		fail(w, err)
		return
	}
	defer cancel()

	raw, err := d.scopedHTML(pageCtx, entry, req)
	if err != nil {
		fail(w, err)
		return
	}
	if req.Clean {
		raw, err = textextract.Clean(raw)
		if err != nil {
			fail(w, err)
			return
		}
	}
	ok(w, envelope{"html": raw})
}

// scopedHTML fetches outer HTML for the whole document, a snapshot ref, or a
// CSS selector.
func (d *Daemon) scopedHTML(ctx context.Context, entry *page.Entry, req extractRequest) (string, error) {
	ev := dispatch.EvaluateRequest{Fn: "() => document.documentElement.outerHTML"}
	switch {
	case req.Ref != "":
		ev = dispatch.EvaluateRequest{Fn: "(el) => el.outerHTML", Ref: req.Ref}
	case req.Selector != "":
		arg, err := json.Marshal(req.Selector)
		if err != nil {
			return "", err
		}
		ev = dispatch.EvaluateRequest{
			Fn:  "(sel) => { const el = document.querySelector(sel); return el ? el.outerHTML : null; }",
			Arg: arg,
		}
	}

	raw, err := d.disp.Evaluate(ctx, entry, ev)
	if err != nil {
		return "", err
	}
	var out string
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("element has no HTML: %s", raw)
	}
	return out, nil
}
