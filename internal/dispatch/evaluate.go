package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/dop251/goja"

	"github.com/thefrederiksen/cc-browser/internal/page"
)

// EvaluateRequest is the body of /evaluate. Fn is a JavaScript function
// expression; with a ref, the matched element is passed as its argument.
type EvaluateRequest struct {
	Fn        string          `json:"fn"`
	Ref       string          `json:"ref,omitempty"`
	Arg       json.RawMessage `json:"arg,omitempty"`
	TimeoutMs int             `json:"timeout,omitempty"`
	TargetID  string          `json:"targetId,omitempty"`
}

// Evaluate runs user-supplied JavaScript in the page and returns its JSON
// result. The source is syntax-checked with goja before it goes anywhere
// near the browser, so malformed scripts fail with a compile error instead
// of an opaque protocol message.
func (d *Dispatcher) Evaluate(ctx context.Context, entry *page.Entry, req EvaluateRequest) (json.RawMessage, error) {
	fn := strings.TrimSpace(req.Fn)
	if fn == "" {
		return nil, fmt.Errorf("fn is required")
	}
	if _, err := goja.Compile("evaluate", "("+fn+")", false); err != nil {
		return nil, fmt.Errorf("fn does not parse: %w", err)
	}

	arg := "undefined"
	if len(req.Arg) > 0 {
		arg = string(req.Arg)
	}

	var expr string
	if req.Ref != "" {
		if _, err := locate(ctx, entry, TargetSpec{Ref: req.Ref}, actionTimeout(req.TimeoutMs)); err != nil {
			return nil, err
		}
		frame := ""
		if desc, err := entry.LookupRef(req.Ref); err == nil {
			frame = desc.FrameSelector
		}
		frameJSON, _ := json.Marshal(frame)
		expr = fmt.Sprintf(`(async () => {
			let doc = document;
			const frame = %s;
			if (frame) {
				const f = document.querySelector(frame);
				if (f && f.contentDocument) doc = f.contentDocument;
			}
			const el = doc.querySelector('[data-ccfound]');
			if (!el) throw new Error('element vanished');
			const r = await (%s)(el, %s);
			return r === undefined ? null : r;
		})()`, frameJSON, fn, arg)
	} else {
		expr = fmt.Sprintf(`(async () => {
			const r = await (%s)(%s);
			return r === undefined ? null : r;
		})()`, fn, arg)
	}

	timeout := actionTimeout(req.TimeoutMs)
	evalCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var raw []byte
	err := chromedp.Run(evalCtx, chromedp.Evaluate(expr, &raw,
		func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
			return p.WithAwaitPromise(true).WithReturnByValue(true)
		}))
	if err != nil {
		return nil, translateCDPError(err)
	}
	if len(raw) == 0 {
		raw = []byte("null")
	}
	return json.RawMessage(raw), nil
}
