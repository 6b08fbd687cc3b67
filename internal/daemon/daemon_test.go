package daemon

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/thefrederiksen/cc-browser/internal/config"
	"github.com/thefrederiksen/cc-browser/pkg/models"
)

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()
	cfg := &config.Config{
		HTTPPort:           18347,
		RequestTimeout:     5 * time.Second,
		ReplayTimeout:      10 * time.Second,
		BodyLimitBytes:     1 << 20,
		Mode:               "fast",
		DataDir:            t.TempDir(),
		VaultDir:           t.TempDir(),
		SessionTTL:         time.Minute,
		SessionSweepPeriod: time.Hour,
		CaptchaMaxAttempts: 3,
	}
	d, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(d.Shutdown)
	return d
}

func doRequest(t *testing.T, d *Daemon, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var rdr *strings.Reader
	if body == "" {
		rdr = strings.NewReader("")
	} else {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	rr := httptest.NewRecorder()
	d.Router().ServeHTTP(rr, req)

	var payload map[string]any
	if rr.Code != http.StatusNoContent && rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
			t.Fatalf("%s %s: invalid JSON response %q: %v", method, path, rr.Body.String(), err)
		}
	}
	return rr, payload
}

func TestStatusWithoutSession(t *testing.T) {
	d := newTestDaemon(t)
	rr, payload := doRequest(t, d, http.MethodGet, "/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if payload["success"] != true {
		t.Errorf("success = %v, want true", payload["success"])
	}
	if payload["active"] != nil {
		t.Errorf("active = %v, want null", payload["active"])
	}
	if payload["mode"] != "fast" {
		t.Errorf("mode = %v, want fast", payload["mode"])
	}
}

func TestVerbsRequireActiveSession(t *testing.T) {
	d := newTestDaemon(t)
	for _, path := range []string{"/navigate", "/click", "/snapshot", "/info", "/tabs", "/stop", "/captcha/detect"} {
		rr, payload := doRequest(t, d, http.MethodPost, path, `{}`)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rr.Code)
			continue
		}
		if payload["success"] != false {
			t.Errorf("%s: success = %v, want false", path, payload["success"])
		}
		msg, _ := payload["error"].(string)
		if !strings.Contains(msg, "no active session") {
			t.Errorf("%s: error = %q, want no-active-session message", path, msg)
		}
	}
}

func TestModeRoundTrip(t *testing.T) {
	d := newTestDaemon(t)

	_, payload := doRequest(t, d, http.MethodGet, "/mode", "")
	if payload["mode"] != "fast" {
		t.Fatalf("initial mode = %v, want fast", payload["mode"])
	}

	rr, payload := doRequest(t, d, http.MethodPost, "/mode", `{"mode":"human"}`)
	if rr.Code != http.StatusOK || payload["mode"] != "human" {
		t.Fatalf("set mode: status=%d mode=%v", rr.Code, payload["mode"])
	}
	_, payload = doRequest(t, d, http.MethodGet, "/mode", "")
	if payload["mode"] != "human" {
		t.Errorf("mode after set = %v, want human", payload["mode"])
	}

	rr, _ = doRequest(t, d, http.MethodPost, "/mode", `{"mode":"turbo"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("invalid mode: status = %d, want 400", rr.Code)
	}
}

func TestStartValidation(t *testing.T) {
	d := newTestDaemon(t)

	rr, payload := doRequest(t, d, http.MethodPost, "/start", `{"browser":"netscape"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("unknown browser: status = %d, want 400", rr.Code)
	}
	msg, _ := payload["error"].(string)
	if !strings.Contains(msg, "unknown browser") {
		t.Errorf("error = %q, want unknown-browser message", msg)
	}

	rr, payload = doRequest(t, d, http.MethodPost, "/start",
		`{"browser":"chrome","workspace":"work","incognito":true}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("incognito+workspace: status = %d, want 400", rr.Code)
	}
	msg, _ = payload["error"].(string)
	if !strings.Contains(msg, "incognito") {
		t.Errorf("error = %q, want incognito message", msg)
	}
}

func TestBeaconAlwaysNoContent(t *testing.T) {
	d := newTestDaemon(t)

	rr, _ := doRequest(t, d, http.MethodPost, "/record/beacon", `not json at all`)
	if rr.Code != http.StatusNoContent {
		t.Errorf("garbage body: status = %d, want 204", rr.Code)
	}

	// Valid events while nothing is recording are silently dropped.
	rr, _ = doRequest(t, d, http.MethodPost, "/record/beacon",
		`{"events":[{"type":"click","url":"https://example.com"}]}`)
	if rr.Code != http.StatusNoContent {
		t.Errorf("idle recorder: status = %d, want 204", rr.Code)
	}
}

func TestRecordStatusIdle(t *testing.T) {
	d := newTestDaemon(t)
	rr, payload := doRequest(t, d, http.MethodGet, "/record/status", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if payload["active"] != false {
		t.Errorf("active = %v, want false", payload["active"])
	}
}

func TestRecordStopWithoutRecording(t *testing.T) {
	d := newTestDaemon(t)
	rr, _ := doRequest(t, d, http.MethodPost, "/record/stop", `{}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	d := newTestDaemon(t)

	rr, payload := doRequest(t, d, http.MethodPost, "/sessions/create", `{"name":"research"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("create: status = %d", rr.Code)
	}
	session, ok := payload["session"].(map[string]any)
	if !ok {
		t.Fatalf("create: no session in %v", payload)
	}
	id, _ := session["id"].(string)
	if id == "" {
		t.Fatal("create: empty session id")
	}

	rr, _ = doRequest(t, d, http.MethodPost, "/sessions/heartbeat", `{"id":"`+id+`"}`)
	if rr.Code != http.StatusOK {
		t.Errorf("heartbeat: status = %d, want 200", rr.Code)
	}

	_, payload = doRequest(t, d, http.MethodGet, "/sessions", "")
	list, _ := payload["sessions"].([]any)
	if len(list) != 1 {
		t.Errorf("list = %d sessions, want 1", len(list))
	}

	rr, _ = doRequest(t, d, http.MethodPost, "/sessions/close", `{"id":"`+id+`"}`)
	if rr.Code != http.StatusOK {
		t.Errorf("close: status = %d, want 200", rr.Code)
	}

	_, payload = doRequest(t, d, http.MethodGet, "/sessions", "")
	list, _ = payload["sessions"].([]any)
	if len(list) != 0 {
		t.Errorf("list after close = %d sessions, want 0", len(list))
	}
}

func TestSessionCreateTTL(t *testing.T) {
	d := newTestDaemon(t)

	// No ttlMs: configured default applies.
	_, payload := doRequest(t, d, http.MethodPost, "/sessions/create", `{"name":"default"}`)
	session, _ := payload["session"].(map[string]any)
	if got := session["ttlMs"]; got != float64(time.Minute.Milliseconds()) {
		t.Errorf("default ttlMs = %v, want %d", got, time.Minute.Milliseconds())
	}

	// Explicit zero: session never expires.
	_, payload = doRequest(t, d, http.MethodPost, "/sessions/create", `{"name":"pinned","ttlMs":0}`)
	session, _ = payload["session"].(map[string]any)
	if got := session["ttlMs"]; got != float64(0) {
		t.Errorf("explicit ttlMs=0 stored as %v, want 0", got)
	}

	_, payload = doRequest(t, d, http.MethodPost, "/sessions/prune", `{}`)
	if payload["pruned"] != float64(0) {
		t.Errorf("pruned = %v, want 0", payload["pruned"])
	}
	_, payload = doRequest(t, d, http.MethodGet, "/sessions", "")
	list, _ := payload["sessions"].([]any)
	if len(list) != 2 {
		t.Errorf("list = %d sessions, want 2", len(list))
	}
}

func TestSessionValidation(t *testing.T) {
	d := newTestDaemon(t)

	rr, _ := doRequest(t, d, http.MethodPost, "/sessions/heartbeat", `{}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing id: status = %d, want 400", rr.Code)
	}

	rr, _ = doRequest(t, d, http.MethodPost, "/sessions/heartbeat", `{"id":"nope"}`)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown id: status = %d, want 404", rr.Code)
	}
}

func TestSessionPruneEmpty(t *testing.T) {
	d := newTestDaemon(t)
	rr, payload := doRequest(t, d, http.MethodPost, "/sessions/prune", `{}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if payload["pruned"] != float64(0) {
		t.Errorf("pruned = %v, want 0", payload["pruned"])
	}
}

func TestReplayUnknownRecording(t *testing.T) {
	d := newTestDaemon(t)
	rr, payload := doRequest(t, d, http.MethodPost, "/replay", `{"name":"does-not-exist"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	msg, _ := payload["error"].(string)
	if !strings.Contains(msg, "recording") {
		t.Errorf("error = %q, want recording message", msg)
	}
}

func TestProfilesEmpty(t *testing.T) {
	d := newTestDaemon(t)
	rr, payload := doRequest(t, d, http.MethodGet, "/profiles", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if payload["success"] != true {
		t.Errorf("success = %v, want true", payload["success"])
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{models.ErrTabNotFound, http.StatusNotFound},
		{models.ErrSessionNotFound, http.StatusNotFound},
		{models.ErrNoActiveSession, http.StatusBadRequest},
		{models.ErrUnknownRef, http.StatusBadRequest},
		{models.ErrTimeout, http.StatusUnprocessableEntity},
		{models.ErrMultipleMatches, http.StatusUnprocessableEntity},
		{models.ErrDetachedElement, http.StatusUnprocessableEntity},
		{models.ErrPortInUse, http.StatusConflict},
		{models.ErrLaunchFailed, http.StatusConflict},
		{models.ErrVisionBackend, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestParseMode(t *testing.T) {
	for _, valid := range []string{"fast", "human", "stealth"} {
		if _, err := parseMode(valid); err != nil {
			t.Errorf("parseMode(%q) = %v, want nil", valid, err)
		}
	}
	if _, err := parseMode("warp"); err == nil {
		t.Error("parseMode(warp) = nil, want error")
	}
}
