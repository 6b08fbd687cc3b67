package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/cdproto/input"

	"github.com/thefrederiksen/cc-browser/internal/page"
	"github.com/thefrederiksen/cc-browser/pkg/models"
)

func TestClampTimeout(t *testing.T) {
	def := 8 * time.Second
	min := 500 * time.Millisecond
	max := 60 * time.Second

	tests := []struct {
		ms   int
		want time.Duration
	}{
		{0, def},
		{-1, def},
		{100, min},
		{5000, 5 * time.Second},
		{120000, max},
	}
	for _, tt := range tests {
		if got := clampTimeout(tt.ms, def, min, max); got != tt.want {
			t.Errorf("clampTimeout(%d) = %v, want %v", tt.ms, got, tt.want)
		}
	}
}

func TestSpecsForRef(t *testing.T) {
	entry := &page.Entry{}
	entry.SetRefs(map[string]page.RefDescriptor{
		"e3": {Role: "button", Name: "Submit", Mode: page.RefModeRole},
	})

	specs, err := specsFor(entry, TargetSpec{Ref: "E3"})
	if err != nil {
		t.Fatal(err)
	}
	if len(specs) != 2 {
		t.Fatalf("expected ccref spec plus role fallback, got %d specs", len(specs))
	}
	if specs[0].CCRef != "e3" {
		t.Errorf("first spec ccref = %q, want e3", specs[0].CCRef)
	}
	if specs[1].Role != "button" || specs[1].Name != "Submit" {
		t.Errorf("fallback spec = %+v", specs[1])
	}
}

func TestSpecsForUnknownRef(t *testing.T) {
	entry := &page.Entry{}
	entry.SetRefs(nil)

	_, err := specsFor(entry, TargetSpec{Ref: "e99"})
	if !errors.Is(err, models.ErrUnknownRef) {
		t.Errorf("expected ErrUnknownRef, got %v", err)
	}
}

func TestSpecsForRequiresOne(t *testing.T) {
	if _, err := specsFor(&page.Entry{}, TargetSpec{}); err == nil {
		t.Error("empty target spec should error")
	}
}

func TestSpecsForTextAndSelector(t *testing.T) {
	specs, err := specsFor(&page.Entry{}, TargetSpec{Text: "Sign in"})
	if err != nil || len(specs) != 1 || specs[0].Text != "Sign in" {
		t.Errorf("text spec = %+v, err %v", specs, err)
	}
	specs, err = specsFor(&page.Entry{}, TargetSpec{Selector: "#login"})
	if err != nil || len(specs) != 1 || specs[0].Selector != "#login" {
		t.Errorf("selector spec = %+v, err %v", specs, err)
	}
}

func TestParseModifiers(t *testing.T) {
	mods := parseModifiers([]string{"Control", "Shift"})
	if mods != input.ModifierCtrl|input.ModifierShift {
		t.Errorf("mods = %v", mods)
	}
	if parseModifiers(nil) != 0 {
		t.Error("no names should produce zero modifiers")
	}
	if parseModifiers([]string{"Hyper"}) != 0 {
		t.Error("unknown names are ignored")
	}
}

func TestTranslateCDPError(t *testing.T) {
	tests := []struct {
		in   error
		want error
	}{
		{context.DeadlineExceeded, models.ErrTimeout},
		{errors.New("websocket read: timeout waiting for response"), models.ErrTimeout},
		{errors.New("Node with given id does not belong to the document"), models.ErrDetachedElement},
		{errors.New("No target with given id found"), models.ErrTabNotFound},
		{errors.New("Could not find node with given id"), models.ErrTimeout},
		{models.ErrMultipleMatches, models.ErrMultipleMatches},
	}
	for _, tt := range tests {
		if got := translateCDPError(tt.in); !errors.Is(got, tt.want) {
			t.Errorf("translateCDPError(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if translateCDPError(nil) != nil {
		t.Error("nil should pass through")
	}
	plain := errors.New("something else entirely")
	if translateCDPError(plain) != plain {
		t.Error("unrecognized errors pass through unchanged")
	}
}

func TestWaitExpressions(t *testing.T) {
	tests := []struct {
		name string
		req  WaitRequest
		want string // substring of the generated expression
	}{
		{"text", WaitRequest{Text: "Welcome"}, `innerText.includes("Welcome")`},
		{"textGone", WaitRequest{TextGone: "Loading"}, `!document.body.innerText.includes("Loading")`},
		{"selector", WaitRequest{Selector: "#done"}, `querySelector("#done")`},
		{"url", WaitRequest{URL: "/dashboard"}, `location.href.includes("/dashboard")`},
		{"load", WaitRequest{LoadState: "load"}, `readyState === 'complete'`},
		{"dcl", WaitRequest{LoadState: "domcontentloaded"}, `'interactive'`},
		{"fn", WaitRequest{Fn: "() => window.ready"}, `(() => window.ready)()`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exprs, err := waitExpressions(tt.req)
			if err != nil {
				t.Fatal(err)
			}
			if len(exprs) != 1 {
				t.Fatalf("got %d expressions, want 1", len(exprs))
			}
			if !strings.Contains(exprs[0], tt.want) {
				t.Errorf("expression %q does not contain %q", exprs[0], tt.want)
			}
		})
	}
}

func TestWaitExpressionsCompose(t *testing.T) {
	exprs, err := waitExpressions(WaitRequest{
		Text:      "Welcome",
		Selector:  "#done",
		URL:       "/dashboard",
		LoadState: "load",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(exprs) != 4 {
		t.Fatalf("got %d expressions, want 4", len(exprs))
	}
	// Conditions apply in declaration order.
	order := []string{`"Welcome"`, `"#done"`, `"/dashboard"`, `readyState`}
	for i, want := range order {
		if !strings.Contains(exprs[i], want) {
			t.Errorf("expression %d = %q, want it to contain %q", i, exprs[i], want)
		}
	}
}

func TestWaitExpressionsQuoteText(t *testing.T) {
	exprs, err := waitExpressions(WaitRequest{Text: `say "hi" </script>`})
	if err != nil {
		t.Fatal(err)
	}
	if len(exprs) != 1 || !strings.Contains(exprs[0], `\"hi\"`) {
		t.Errorf("text was not JSON-escaped: %q", exprs)
	}
}

func TestWaitValidation(t *testing.T) {
	d := New(nil)
	if err := d.Wait(context.Background(), WaitRequest{}); err == nil {
		t.Error("no condition should error")
	}
	if _, err := waitExpressions(WaitRequest{LoadState: "idle"}); err == nil {
		t.Error("unknown loadState should error")
	}
}

func TestWaitTimeOnly(t *testing.T) {
	d := New(nil)
	start := time.Now()
	if err := d.Wait(context.Background(), WaitRequest{TimeMs: 20}); err != nil {
		t.Fatal(err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("fixed wait returned early")
	}
}

func TestEvaluateRejectsBadSource(t *testing.T) {
	d := New(nil)
	entry := &page.Entry{}
	_, err := d.Evaluate(context.Background(), entry, EvaluateRequest{Fn: "() => {"})
	if err == nil || !strings.Contains(err.Error(), "does not parse") {
		t.Errorf("expected parse error, got %v", err)
	}
	_, err = d.Evaluate(context.Background(), entry, EvaluateRequest{})
	if err == nil {
		t.Error("empty fn should error")
	}
}

func TestScreenshotValidation(t *testing.T) {
	d := New(nil)
	entry := &page.Entry{}

	_, err := d.Screenshot(context.Background(), entry, ScreenshotRequest{Format: "webp"})
	if err == nil {
		t.Error("unknown format should error")
	}

	_, err = d.Screenshot(context.Background(), entry, ScreenshotRequest{
		TargetSpec: TargetSpec{Selector: "#a"},
		FullPage:   true,
	})
	if err == nil || !strings.Contains(err.Error(), "fullPage") {
		t.Errorf("element+fullPage should be rejected, got %v", err)
	}
}

func TestPressValidation(t *testing.T) {
	d := New(nil)
	if err := d.Press(context.Background(), models.ModeFast, PressRequest{}); err == nil {
		t.Error("empty key should error")
	}
	if err := d.Press(context.Background(), models.ModeFast, PressRequest{Key: "NotAKey"}); err == nil {
		t.Error("unknown multi-rune key should error")
	}
}

func TestUploadValidation(t *testing.T) {
	d := New(nil)
	entry := &page.Entry{}
	if err := d.Upload(context.Background(), entry, UploadRequest{}); err == nil {
		t.Error("no paths should error")
	}
	err := d.Upload(context.Background(), entry, UploadRequest{
		TargetSpec: TargetSpec{Selector: "input"},
		Paths:      []string{"/does/not/exist.png"},
	})
	if err == nil || !strings.Contains(err.Error(), "not readable") {
		t.Errorf("missing file should be rejected, got %v", err)
	}
}

func TestNavigateRequiresURL(t *testing.T) {
	d := New(nil)
	entry := &page.Entry{}
	_, err := d.Navigate(context.Background(), entry, models.ModeFast, NavigateRequest{})
	if err == nil {
		t.Error("empty url should error")
	}
}

func TestDragRequiresDestination(t *testing.T) {
	d := New(nil)
	entry := &page.Entry{}
	entry.SetRefs(nil)
	err := d.Drag(context.Background(), entry, models.ModeFast, DragRequest{
		TargetSpec: TargetSpec{Ref: "e1"},
	})
	// Unknown ref fails first; destination validation is covered once the
	// source resolves, but the request must never reach the browser here.
	if !errors.Is(err, models.ErrUnknownRef) {
		t.Errorf("expected ErrUnknownRef, got %v", err)
	}
}

func TestScrollDeltas(t *testing.T) {
	tests := []struct {
		name   string
		req    ScrollRequest
		dx, dy float64
	}{
		{"empty defaults to 500 down", ScrollRequest{}, 0, 500},
		{"direction up", ScrollRequest{Direction: "up", Amount: 120}, 0, -120},
		{"direction left", ScrollRequest{Direction: "left"}, -500, 0},
		{"direction right", ScrollRequest{Direction: "right", Amount: 80}, 80, 0},
		{"raw deltas win", ScrollRequest{Direction: "up", DeltaX: 10, DeltaY: 20}, 10, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dx, dy, err := scrollDeltas(tt.req)
			if err != nil {
				t.Fatal(err)
			}
			if dx != tt.dx || dy != tt.dy {
				t.Errorf("deltas = (%v, %v), want (%v, %v)", dx, dy, tt.dx, tt.dy)
			}
		})
	}

	if _, _, err := scrollDeltas(ScrollRequest{Direction: "sideways"}); err == nil {
		t.Error("unknown direction should error")
	}
}

func TestSleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	sleep(ctx, time.Second)
	if time.Since(start) > 200*time.Millisecond {
		t.Error("sleep did not return promptly on canceled context")
	}
}
