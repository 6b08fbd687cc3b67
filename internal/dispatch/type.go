package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/thefrederiksen/cc-browser/internal/page"
	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// TypeRequest is the body of /type.
type TypeRequest struct {
	TargetSpec
	Value     string `json:"value"`
	Slowly    bool   `json:"slowly,omitempty"`
	Submit    bool   `json:"submit,omitempty"`
	Clear     bool   `json:"clear,omitempty"`
	TimeoutMs int    `json:"timeout,omitempty"`
	TargetID  string `json:"targetId,omitempty"`
}

// slowKeyDelay is the fixed per-character pause when slowly is requested
// outside human mode.
const slowKeyDelay = 75 * time.Millisecond

// Type focuses the target field and enters text. Fast mode inserts the whole
// value at once; slowly and human mode send individual keystrokes.
func (d *Dispatcher) Type(ctx context.Context, entry *page.Entry, mode models.Mode, req TypeRequest) error {
	h, err := locate(ctx, entry, req.TargetSpec, actionTimeout(req.TimeoutMs))
	if err != nil {
		return err
	}

	cx, cy := h.X+h.W/2, h.Y+h.H/2
	if humanized(mode) {
		if err := d.moveMouse(ctx, entry, cx, cy); err != nil {
			return err
		}
		sleep(ctx, d.timing.PreClickDelay())
	}
	if err := chromedp.Run(ctx, chromedp.MouseClickXY(cx, cy)); err != nil {
		return translateCDPError(err)
	}
	entry.MouseX, entry.MouseY = cx, cy

	if req.Clear {
		err := chromedp.Run(ctx, chromedp.Evaluate(`(() => {
			const el = document.activeElement;
			if (el && 'value' in el) {
				el.value = '';
				el.dispatchEvent(new Event('input', { bubbles: true }));
			}
		})()`, nil))
		if err != nil {
			return translateCDPError(err)
		}
	}

	if humanized(mode) {
		sleep(ctx, d.timing.PreTypeDelay())
		for _, r := range req.Value {
			if err := chromedp.Run(ctx, chromedp.KeyEvent(string(r))); err != nil {
				return translateCDPError(err)
			}
			sleep(ctx, d.timing.InterKeyDelay())
		}
	} else if req.Slowly {
		for _, r := range req.Value {
			if err := chromedp.Run(ctx, chromedp.KeyEvent(string(r))); err != nil {
				return translateCDPError(err)
			}
			sleep(ctx, slowKeyDelay)
		}
	} else {
		err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
			return input.InsertText(req.Value).Do(ctx)
		}))
		if err != nil {
			return translateCDPError(err)
		}
	}

	if req.Submit {
		if humanized(mode) {
			sleep(ctx, d.timing.PreClickDelay())
		}
		if err := chromedp.Run(ctx, chromedp.KeyEvent(kb.Enter)); err != nil {
			return translateCDPError(err)
		}
	}
	return nil
}

// PressRequest is the body of /press. Key accepts names like "Enter",
// "Escape", "ArrowDown", or a single printable character.
type PressRequest struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers,omitempty"`
	HoldMs    int      `json:"holdMs,omitempty"`
	TargetID  string   `json:"targetId,omitempty"`
}

// namedKeys maps API key names onto the kb package's key sequences.
var namedKeys = map[string]string{
	"Enter":      kb.Enter,
	"Tab":        kb.Tab,
	"Escape":     kb.Escape,
	"Backspace":  kb.Backspace,
	"Delete":     kb.Delete,
	"ArrowUp":    kb.ArrowUp,
	"ArrowDown":  kb.ArrowDown,
	"ArrowLeft":  kb.ArrowLeft,
	"ArrowRight": kb.ArrowRight,
	"Home":       kb.Home,
	"End":        kb.End,
	"PageUp":     kb.PageUp,
	"PageDown":   kb.PageDown,
	"Space":      " ",
}

// Press sends one keystroke to the focused element. A hold duration splits
// the event into explicit down and up halves with a pause between.
func (d *Dispatcher) Press(ctx context.Context, mode models.Mode, req PressRequest) error {
	if req.Key == "" {
		return fmt.Errorf("key is required")
	}
	seq, ok := namedKeys[req.Key]
	if !ok {
		if len([]rune(req.Key)) != 1 {
			return fmt.Errorf("unknown key %q", req.Key)
		}
		seq = req.Key
	}
	mods := parseModifiers(req.Modifiers)

	if humanized(mode) {
		sleep(ctx, d.timing.InterKeyDelay())
	}

	if req.HoldMs > 0 {
		// kb.Encode produces the keyDown/keyUp parameter pair with the right
		// key codes; replay them with a pause in between.
		params := kb.Encode([]rune(seq)[0])
		if len(params) == 0 {
			return fmt.Errorf("cannot encode key %q", req.Key)
		}
		err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
			for i, p := range params {
				p.Modifiers = mods
				if err := p.Do(ctx); err != nil {
					return err
				}
				if i == 0 {
					sleep(ctx, time.Duration(req.HoldMs)*time.Millisecond)
				}
			}
			return nil
		}))
		return translateCDPError(err)
	}

	err := chromedp.Run(ctx, chromedp.KeyEvent(seq, chromedp.KeyModifiers(mods)))
	return translateCDPError(err)
}
