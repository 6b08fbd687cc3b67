package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/thefrederiksen/cc-browser/internal/page"
	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// TargetSpec addresses one element for a verb. Exactly one of Ref, Text, or
// Selector should be set.
type TargetSpec struct {
	Ref      string `json:"ref,omitempty"`
	Text     string `json:"text,omitempty"`
	Selector string `json:"selector,omitempty"`
}

func (t TargetSpec) empty() bool {
	return t.Ref == "" && t.Text == "" && t.Selector == ""
}

// findSpec is the argument shape of the in-page finder.
type findSpec struct {
	CCRef    string `json:"ccref,omitempty"`
	Role     string `json:"role,omitempty"`
	Name     string `json:"name,omitempty"`
	Nth      int    `json:"nth,omitempty"`
	HasNth   bool   `json:"hasNth,omitempty"`
	Frame    string `json:"frame,omitempty"`
	Text     string `json:"text,omitempty"`
	Selector string `json:"selector,omitempty"`
	Path     string `json:"path,omitempty"`
	Scroll   bool   `json:"scroll,omitempty"`
}

// hit is what the finder reports back.
type hit struct {
	Found    bool    `json:"found"`
	Count    int     `json:"count"`
	Detached bool    `json:"detached"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	W        float64 `json:"w"`
	H        float64 `json:"h"`
}

// findScript locates one element for a findSpec and reports its viewport rect.
// It scrolls the match into view first so coordinates are clickable, and
// stamps it with data-ccfound so follow-up mutation scripts can address it.
const findScript = `((spec) => {
  function root() {
    if (!spec.frame) return document;
    const f = document.querySelector(spec.frame);
    if (f && f.contentDocument) return f.contentDocument;
    return document;
  }

  function accessibleName(el) {
    const aria = el.getAttribute('aria-label');
    if (aria) return aria.trim();
    const labelledBy = el.getAttribute('aria-labelledby');
    if (labelledBy) {
      const t = document.getElementById(labelledBy.split(/\s+/)[0]);
      if (t) return t.textContent.trim();
    }
    if (el.id) {
      const label = root().querySelector('label[for="' + CSS.escape(el.id) + '"]');
      if (label) return label.textContent.trim();
    }
    const placeholder = el.getAttribute('placeholder');
    if (placeholder) return placeholder.trim();
    const alt = el.getAttribute('alt');
    if (alt) return alt.trim();
    return (el.textContent || '').trim().replace(/\s+/g, ' ');
  }

  function roleOf(el) {
    const explicit = el.getAttribute('role');
    if (explicit) return explicit;
    const tag = el.tagName.toLowerCase();
    const map = { a: 'link', button: 'button', select: 'combobox',
      textarea: 'textbox', img: 'img', h1: 'heading', h2: 'heading',
      h3: 'heading', h4: 'heading', h5: 'heading', h6: 'heading',
      li: 'listitem', option: 'option' };
    if (tag === 'input') {
      const type = (el.getAttribute('type') || 'text').toLowerCase();
      const inputMap = { button: 'button', submit: 'button', reset: 'button',
        checkbox: 'checkbox', radio: 'radio', range: 'slider',
        search: 'searchbox', file: 'button' };
      return inputMap[type] || 'textbox';
    }
    return map[tag] || '';
  }

  function visible(el) {
    const r = el.getBoundingClientRect();
    if (r.width === 0 && r.height === 0) return false;
    const s = getComputedStyle(el);
    return s.display !== 'none' && s.visibility !== 'hidden';
  }

  let matches = [];
  if (spec.ccref) {
    const el = root().querySelector('[data-ccref="' + spec.ccref + '"]');
    if (el && !el.isConnected) return { found: false, detached: true };
    if (el) matches = [el];
  } else if (spec.role) {
    for (const el of root().querySelectorAll('*')) {
      if (!visible(el) || roleOf(el) !== spec.role) continue;
      if (spec.name && accessibleName(el) !== spec.name) continue;
      matches.push(el);
    }
    if (spec.hasNth) {
      matches = spec.nth < matches.length ? [matches[spec.nth]] : [];
    }
  } else if (spec.text) {
    const needle = spec.text.trim();
    for (const el of root().querySelectorAll('a, button, [role], input, label, span, div, td, th, li, p, h1, h2, h3, h4, h5, h6')) {
      if (!visible(el)) continue;
      const own = Array.from(el.childNodes)
        .filter(n => n.nodeType === Node.TEXT_NODE)
        .map(n => n.textContent).join('').trim().replace(/\s+/g, ' ');
      if (own === needle || (own && own.includes(needle) && own.length <= needle.length + 20)) {
        matches.push(el);
      }
    }
  } else if (spec.selector || spec.path) {
    try {
      matches = Array.from(root().querySelectorAll(spec.selector || spec.path)).filter(visible);
    } catch (e) {
      return { found: false, count: 0 };
    }
  }

  if (matches.length === 0) return { found: false, count: 0 };
  if (matches.length > 1) return { found: false, count: matches.length };

  const el = matches[0];
  if (!el.isConnected) return { found: false, detached: true };
  if (spec.scroll !== false) el.scrollIntoView({ block: 'center', inline: 'center' });
  for (const old of root().querySelectorAll('[data-ccfound]')) old.removeAttribute('data-ccfound');
  el.setAttribute('data-ccfound', '1');
  const r = el.getBoundingClientRect();
  return { found: true, count: 1, x: r.x, y: r.y, w: r.width, h: r.height };
})(%s)`

// specsFor expands a TargetSpec into finder specs in preference order. Refs
// try the snapshot stamp first, then the recorded role descriptor.
func specsFor(entry *page.Entry, t TargetSpec) ([]findSpec, error) {
	switch {
	case t.Ref != "":
		d, err := entry.LookupRef(t.Ref)
		if err != nil {
			return nil, err
		}
		specs := []findSpec{{CCRef: strings.ToLower(strings.TrimSpace(t.Ref)), Frame: d.FrameSelector}}
		if d.Mode == page.RefModeRole || d.Role != "" {
			specs = append(specs, findSpec{
				Role: d.Role, Name: d.Name, Nth: d.Nth, HasNth: d.HasNth,
				Frame: d.FrameSelector,
			})
		}
		return specs, nil
	case t.Text != "":
		return []findSpec{{Text: t.Text}}, nil
	case t.Selector != "":
		return []findSpec{{Selector: t.Selector}}, nil
	}
	return nil, fmt.Errorf("one of ref, text, or selector is required")
}

// findOnce evaluates the finder for one spec.
func findOnce(ctx context.Context, spec findSpec) (hit, error) {
	arg, err := json.Marshal(spec)
	if err != nil {
		return hit{}, err
	}
	var h hit
	err = chromedp.Run(ctx, chromedp.Evaluate(fmt.Sprintf(findScript, arg), &h))
	return h, err
}

// locate polls the page for the target until it is found, ambiguous, or the
// timeout elapses. It is the single funnel through which every element-
// addressing verb resolves its target, so error translation happens here.
func locate(ctx context.Context, entry *page.Entry, t TargetSpec, timeout time.Duration) (hit, error) {
	specs, err := specsFor(entry, t)
	if err != nil {
		return hit{}, err
	}

	deadline := time.Now().Add(timeout)
	var last hit
	for {
		for _, spec := range specs {
			h, err := findOnce(ctx, spec)
			if err != nil {
				return hit{}, translateCDPError(err)
			}
			if h.Found {
				return h, nil
			}
			last = h
		}
		if time.Now().After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return hit{}, translateCDPError(ctx.Err())
		case <-time.After(100 * time.Millisecond):
		}
	}

	switch {
	case last.Detached:
		return hit{}, models.ErrDetachedElement
	case last.Count > 1:
		return hit{}, fmt.Errorf("%w (%d matches)", models.ErrMultipleMatches, last.Count)
	default:
		return hit{}, models.ErrTimeout
	}
}

// clampTimeout applies the verb timeout default and bounds.
func clampTimeout(ms int, def, min, max time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	d := time.Duration(ms) * time.Millisecond
	if d < min {
		return min
	}
	if d > max {
		return max
	}
	return d
}
