package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/thefrederiksen/cc-browser/internal/page"
	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// SelectRequest is the body of /select. Values are matched against option
// values first, then option labels.
type SelectRequest struct {
	TargetSpec
	Values    []string `json:"values"`
	TimeoutMs int      `json:"timeout,omitempty"`
	TargetID  string   `json:"targetId,omitempty"`
}

// selectScript applies the chosen values to the stamped select element and
// fires the events frameworks listen for.
const selectScript = `((arg) => {
  let doc = document;
  if (arg.frame) {
    const f = document.querySelector(arg.frame);
    if (f && f.contentDocument) doc = f.contentDocument;
  }
  const el = doc.querySelector('[data-ccfound]');
  if (!el) return { ok: false, error: 'element vanished' };
  if (el.tagName.toLowerCase() !== 'select') {
    return { ok: false, error: 'not a select element' };
  }
  const wanted = new Set(arg.values);
  let applied = [];
  for (const opt of el.options) {
    const match = wanted.has(opt.value) || wanted.has(opt.label.trim());
    opt.selected = match && (el.multiple || applied.length === 0);
    if (opt.selected) applied.push(opt.value);
  }
  if (applied.length === 0) return { ok: false, error: 'no matching option' };
  el.dispatchEvent(new Event('input', { bubbles: true }));
  el.dispatchEvent(new Event('change', { bubbles: true }));
  return { ok: true, values: applied };
})(%s)`

type mutateResult struct {
	OK     bool     `json:"ok"`
	Error  string   `json:"error,omitempty"`
	Values []string `json:"values,omitempty"`
}

// Select chooses options in a select element. Multi-selects accept several
// values; single selects take the first match.
func (d *Dispatcher) Select(ctx context.Context, entry *page.Entry, mode models.Mode, req SelectRequest) ([]string, error) {
	if len(req.Values) == 0 {
		return nil, fmt.Errorf("values is required")
	}
	if _, err := locate(ctx, entry, req.TargetSpec, actionTimeout(req.TimeoutMs)); err != nil {
		return nil, err
	}
	if humanized(mode) {
		sleep(ctx, d.timing.PreClickDelay())
	}
	res, err := runMutation(ctx, entry, req.TargetSpec, selectScript, map[string]any{
		"values": req.Values,
	})
	if err != nil {
		return nil, err
	}
	return res.Values, nil
}

// FillField is one entry in a /fill batch.
type FillField struct {
	TargetSpec
	Value   string `json:"value,omitempty"`
	Checked *bool  `json:"checked,omitempty"`
}

// FillRequest is the body of /fill.
type FillRequest struct {
	Fields    []FillField `json:"fields"`
	TimeoutMs int         `json:"timeout,omitempty"`
	TargetID  string      `json:"targetId,omitempty"`
}

// fillScript sets a field's value or checked state on the stamped element,
// firing input and change so framework bindings update.
const fillScript = `((arg) => {
  let doc = document;
  if (arg.frame) {
    const f = document.querySelector(arg.frame);
    if (f && f.contentDocument) doc = f.contentDocument;
  }
  const el = doc.querySelector('[data-ccfound]');
  if (!el) return { ok: false, error: 'element vanished' };
  if (arg.hasChecked) {
    if (!('checked' in el)) return { ok: false, error: 'not a checkbox or radio' };
    if (el.checked !== arg.checked) {
      el.checked = arg.checked;
      el.dispatchEvent(new Event('input', { bubbles: true }));
      el.dispatchEvent(new Event('change', { bubbles: true }));
    }
    return { ok: true };
  }
  if (el.isContentEditable) {
    el.textContent = arg.value;
  } else if ('value' in el) {
    el.value = arg.value;
  } else {
    return { ok: false, error: 'element is not fillable' };
  }
  el.dispatchEvent(new Event('input', { bubbles: true }));
  el.dispatchEvent(new Event('change', { bubbles: true }));
  return { ok: true };
})(%s)`

// Fill sets several form fields in one call. Checkboxes and radios use the
// checked flag; everything else takes a value. Human mode pauses between
// fields the way a person tabs through a form.
func (d *Dispatcher) Fill(ctx context.Context, entry *page.Entry, mode models.Mode, req FillRequest) error {
	if len(req.Fields) == 0 {
		return fmt.Errorf("fields is required")
	}
	timeout := actionTimeout(req.TimeoutMs)
	for i, f := range req.Fields {
		if humanized(mode) && i > 0 {
			sleep(ctx, d.timing.PreTypeDelay())
		}
		if _, err := locate(ctx, entry, f.TargetSpec, timeout); err != nil {
			return fmt.Errorf("field %d: %w", i, err)
		}
		arg := map[string]any{"value": f.Value}
		if f.Checked != nil {
			arg["hasChecked"] = true
			arg["checked"] = *f.Checked
		}
		if _, err := runMutation(ctx, entry, f.TargetSpec, fillScript, arg); err != nil {
			return fmt.Errorf("field %d: %w", i, err)
		}
	}
	return nil
}

// runMutation executes a stamped-element script with the frame selector of
// the target merged into the argument.
func runMutation(ctx context.Context, entry *page.Entry, t TargetSpec, script string, arg map[string]any) (mutateResult, error) {
	if t.Ref != "" {
		if d, err := entry.LookupRef(t.Ref); err == nil && d.FrameSelector != "" {
			arg["frame"] = d.FrameSelector
		}
	}
	raw, err := json.Marshal(arg)
	if err != nil {
		return mutateResult{}, err
	}
	var res mutateResult
	if err := chromedp.Run(ctx, chromedp.Evaluate(fmt.Sprintf(script, raw), &res)); err != nil {
		return mutateResult{}, translateCDPError(err)
	}
	if !res.OK {
		return res, fmt.Errorf("%s", res.Error)
	}
	return res, nil
}
