package daemon

import (
	"encoding/base64"
	"net/http"

	"github.com/thefrederiksen/cc-browser/internal/dispatch"
)

func (d *Daemon) handleClick(w http.ResponseWriter, r *http.Request) {
	var req dispatch.ClickRequest
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
	if err := d.disp.Click(pageCtx, entry, d.currentMode(), req); err != nil {
		fail(w, err)
		return
	}
	ok(w, nil)
}

func (d *Daemon) handleType(w http.ResponseWriter, r *http.Request) {
	var req dispatch.TypeRequest
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
	if err := d.disp.Type(pageCtx, entry, d.currentMode(), req); err != nil {
		fail(w, err)
		return
	}
	ok(w, nil)
}

func (d *Daemon) handlePress(w http.ResponseWriter, r *http.Request) {
	var req dispatch.PressRequest
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
	if err := d.disp.Press(pageCtx, d.currentMode(), req); err != nil {
		fail(w, err)
		return
	}
	ok(w, nil)
}

func (d *Daemon) handleHover(w http.ResponseWriter, r *http.Request) {
	var req dispatch.HoverRequest
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
	if err := d.disp.Hover(pageCtx, entry, d.currentMode(), req); err != nil {
		fail(w, err)
		return
	}
	ok(w, nil)
}

func (d *Daemon) handleDrag(w http.ResponseWriter, r *http.Request) {
	// Pointer shadows distinguish "toX: 0" from an absent coordinate.
	var body struct {
		dispatch.DragRequest
		ToX *float64 `json:"toX"`
		ToY *float64 `json:"toY"`
	}
	if err := d.decode(r, &body); err != nil {
		failBad(w, err)
		return
	}
	req := body.DragRequest
	if body.ToX != nil && body.ToY != nil {
		req.ToX = *body.ToX
		req.ToY = *body.ToY
		req.HasToXY = true
	}
	pageCtx, cancel, entry, err := d.pageFor(r.Context(), req.TargetID)
	if err != nil {
		fail(w, err)
		return
	}
	defer cancel()
	if err := d.disp.Drag(pageCtx, entry, d.currentMode(), req); err != nil {
		fail(w, err)
		return
	}
	ok(w, nil)
}

func (d *Daemon) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req dispatch.SelectRequest
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
	values, err := d.disp.Select(pageCtx, entry, d.currentMode(), req)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, envelope{"values": values})
}

func (d *Daemon) handleFill(w http.ResponseWriter, r *http.Request) {
	var req dispatch.FillRequest
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
	if err := d.disp.Fill(pageCtx, entry, d.currentMode(), req); err != nil {
		fail(w, err)
		return
	}
	ok(w, envelope{"fields": len(req.Fields)})
}

func (d *Daemon) handleScroll(w http.ResponseWriter, r *http.Request) {
	var req dispatch.ScrollRequest
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
	if err := d.disp.Scroll(pageCtx, entry, d.currentMode(), req); err != nil {
		fail(w, err)
		return
	}
	ok(w, nil)
}

func (d *Daemon) handleWait(w http.ResponseWriter, r *http.Request) {
	var req dispatch.WaitRequest
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
	if err := d.disp.Wait(pageCtx, req); err != nil {
		fail(w, err)
		return
	}
	ok(w, nil)
}

func (d *Daemon) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req dispatch.EvaluateRequest
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
	result, err := d.disp.Evaluate(pageCtx, entry, req)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, envelope{"result": result})
}

func (d *Daemon) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	var req dispatch.ScreenshotRequest
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
	buf, err := d.disp.Screenshot(pageCtx, entry, req)
	if err != nil {
		fail(w, err)
		return
	}
	format := req.Format
	if format == "" {
		format = "png"
	}
	ok(w, envelope{"data": base64.StdEncoding.EncodeToString(buf), "format": format})
}

func (d *Daemon) handleScreenshotLabels(w http.ResponseWriter, r *http.Request) {
	var req dispatch.ScreenshotRequest
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
	buf, labels, err := d.disp.ScreenshotLabels(pageCtx, entry, req)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, envelope{"data": base64.StdEncoding.EncodeToString(buf), "labels": labels, "format": "png"})
}

func (d *Daemon) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req dispatch.UploadRequest
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
	if err := d.disp.Upload(pageCtx, entry, req); err != nil {
		fail(w, err)
		return
	}
	ok(w, envelope{"files": len(req.Paths)})
}

func (d *Daemon) handleResize(w http.ResponseWriter, r *http.Request) {
	var req dispatch.ResizeRequest
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
	width, height, err := d.disp.Resize(pageCtx, req)
	if err != nil {
		fail(w, err)
		return
	}
	ok(w, envelope{"width": width, "height": height})
}
