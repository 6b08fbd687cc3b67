package recorder

import (
	"errors"
	"testing"
	"time"

	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// activeRecorder returns a recorder in the recording state without touching
// a browser, with a controllable clock.
func activeRecorder(now *time.Time) *Recorder {
	r := New()
	r.active = true
	r.name = "test"
	r.recordedAt = *now
	r.now = func() time.Time { return *now }
	return r
}

func TestIngestBuildsSteps(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	r := activeRecorder(&now)

	r.Ingest([]RawEvent{
		{Type: "type", Value: "abc", Locators: []models.Locator{{Strategy: models.LocatorSelector, Selector: "input#q"}}},
		{Type: "keypress", Key: "Enter"},
		{Type: "navigate", URL: "https://example.com/dashboard"},
	})

	if len(r.steps) != 3 {
		t.Fatalf("got %d steps, want 3", len(r.steps))
	}
	if r.steps[0].Action != models.StepType || r.steps[0].Value != "abc" {
		t.Errorf("step 0 = %+v", r.steps[0])
	}
	if r.steps[1].Action != models.StepKeypress || r.steps[1].Key != "Enter" {
		t.Errorf("step 1 = %+v", r.steps[1])
	}
	if r.steps[2].Action != models.StepNavigate || r.steps[2].URL != "https://example.com/dashboard" {
		t.Errorf("step 2 = %+v", r.steps[2])
	}
}

func TestIngestSkipsUnknownAndBlank(t *testing.T) {
	now := time.Now()
	r := activeRecorder(&now)
	r.Ingest([]RawEvent{
		{Type: "hover"},
		{Type: "navigate", URL: "about:blank"},
		{Type: "navigate", URL: ""},
	})
	if len(r.steps) != 0 {
		t.Errorf("got %d steps, want 0", len(r.steps))
	}
}

func TestIngestIgnoredWhenInactive(t *testing.T) {
	r := New()
	r.Ingest([]RawEvent{{Type: "click"}})
	if len(r.steps) != 0 {
		t.Error("inactive recorder must drop events")
	}
}

func TestOnNavigateSuppressedAfterInteraction(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	r := activeRecorder(&now)

	r.Ingest([]RawEvent{{Type: "click"}})
	now = now.Add(500 * time.Millisecond)
	r.OnNavigate("https://example.com/spa-route")
	if len(r.steps) != 1 {
		t.Fatalf("navigation within the dedup window should be suppressed, steps = %d", len(r.steps))
	}

	now = now.Add(3 * time.Second)
	r.OnNavigate("https://example.com/next")
	if len(r.steps) != 2 {
		t.Fatalf("navigation after the window should be recorded, steps = %d", len(r.steps))
	}
	if r.steps[1].URL != "https://example.com/next" {
		t.Errorf("step 1 = %+v", r.steps[1])
	}
}

func TestOnNavigateSkipsBlank(t *testing.T) {
	now := time.Now()
	r := activeRecorder(&now)
	r.OnNavigate("about:blank")
	r.OnNavigate("")
	if len(r.steps) != 0 {
		t.Errorf("got %d steps, want 0", len(r.steps))
	}
}

func TestNormalizeDeduplicatesNavigates(t *testing.T) {
	steps := []models.Step{
		{Action: models.StepNavigate, URL: "https://a.com/"},
		{Action: models.StepNavigate, URL: "https://a.com/"},
		{Action: models.StepClick},
		{Action: models.StepNavigate, URL: "https://a.com/"},
		{Action: models.StepNavigate, URL: "https://b.com/"},
	}
	got := normalizeSteps(steps)
	if len(got) != 4 {
		t.Fatalf("got %d steps, want 4: %+v", len(got), got)
	}

	// Idempotent: a second pass changes nothing.
	again := normalizeSteps(got)
	if len(again) != len(got) {
		t.Errorf("normalization is not idempotent: %d then %d", len(got), len(again))
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Login Flow", "login-flow"},
		{"  Checkout (v2)  ", "checkout-v2"},
		{"///", "recording"},
		{"already-fine", "already-fine"},
	}
	for _, tt := range tests {
		if got := slugify(tt.in); got != tt.want {
			t.Errorf("slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStoreRoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())
	rec := &models.Recording{
		Name:       "Login Flow",
		RecordedAt: time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC),
		Steps: []models.Step{
			{Action: models.StepNavigate, URL: "https://example.com/login"},
			{Action: models.StepType, Value: "user"},
		},
	}
	dir, err := s.Save(rec)
	if err != nil {
		t.Fatal(err)
	}
	if dir == "" {
		t.Fatal("empty recording dir")
	}

	got, err := s.Find("Login Flow")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != rec.Name || len(got.Steps) != 2 {
		t.Errorf("loaded recording = %+v", got)
	}
}

func TestStoreFindsNewestMatch(t *testing.T) {
	s := NewStore(t.TempDir())
	old := &models.Recording{
		Name:       "flow",
		RecordedAt: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
		Steps:      []models.Step{{Action: models.StepNavigate, URL: "https://old.example.com"}},
	}
	newer := &models.Recording{
		Name:       "flow",
		RecordedAt: time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC),
		Steps:      []models.Step{{Action: models.StepNavigate, URL: "https://new.example.com"}},
	}
	if _, err := s.Save(old); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Save(newer); err != nil {
		t.Fatal(err)
	}

	got, err := s.Find("flow")
	if err != nil {
		t.Fatal(err)
	}
	if got.Steps[0].URL != "https://new.example.com" {
		t.Errorf("expected newest recording, got %q", got.Steps[0].URL)
	}

	// Empty name also resolves to the most recent recording.
	got, err = s.Find("")
	if err != nil {
		t.Fatal(err)
	}
	if got.Steps[0].URL != "https://new.example.com" {
		t.Errorf("empty name should find newest, got %q", got.Steps[0].URL)
	}
}

func TestStoreFindMissing(t *testing.T) {
	s := NewStore(t.TempDir())
	if _, err := s.Find("nope"); !errors.Is(err, models.ErrNoRecording) {
		t.Errorf("expected ErrNoRecording, got %v", err)
	}
}

func TestStatus(t *testing.T) {
	r := New()
	st := r.Status()
	if st.Active || st.Steps != 0 {
		t.Errorf("idle status = %+v", st)
	}

	now := time.Now()
	r2 := activeRecorder(&now)
	r2.Ingest([]RawEvent{{Type: "click"}})
	st = r2.Status()
	if !st.Active || st.Name != "test" || st.Steps != 1 {
		t.Errorf("active status = %+v", st)
	}
}
