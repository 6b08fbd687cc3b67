package browser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/chromedp/cdproto/target"

	"github.com/thefrederiksen/cc-browser/pkg/models"
)

func serverPort(t *testing.T, s *httptest.Server) int {
	t.Helper()
	u, err := url.Parse(s.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatal(err)
	}
	return port
}

func TestProbeVersion(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/json/version" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"Browser":"Chrome/120.0"}`))
	}))
	defer s.Close()

	if err := ProbeVersion(context.Background(), serverPort(t, s), time.Second); err != nil {
		t.Errorf("ProbeVersion against live endpoint: %v", err)
	}

	s.Close()
	if err := ProbeVersion(context.Background(), serverPort(t, s), 200*time.Millisecond); err == nil {
		t.Error("ProbeVersion against closed endpoint should fail")
	}
}

func TestListTabs_FiltersNonPages(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":"T1","type":"page","url":"https://example.com","title":"Example"},
			{"id":"W1","type":"service_worker","url":"https://example.com/sw.js","title":""},
			{"id":"T2","type":"page","url":"about:blank","title":""}
		]`))
	}))
	defer s.Close()

	tabs, err := ListTabs(context.Background(), serverPort(t, s), time.Second)
	if err != nil {
		t.Fatalf("ListTabs: %v", err)
	}
	if len(tabs) != 2 {
		t.Fatalf("got %d tabs, want 2", len(tabs))
	}
	if tabs[0].TargetID != "T1" || tabs[1].TargetID != "T2" {
		t.Errorf("unexpected tab ids: %+v", tabs)
	}
}

func TestMatchByURLPosition(t *testing.T) {
	pages := []*target.Info{
		{TargetID: "A", Type: "page", URL: "https://example.com"},
		{TargetID: "B", Type: "page", URL: "https://example.com"},
		{TargetID: "C", Type: "page", URL: "https://other.com"},
	}
	tabs := []models.TabInfo{
		{TargetID: "X", URL: "https://example.com"},
		{TargetID: "Y", URL: "https://example.com"},
		{TargetID: "Z", URL: "https://other.com"},
	}

	// Y is the second example.com tab, so it should map to page B.
	if got := matchByURLPosition(pages, tabs, "Y"); got == nil || got.TargetID != "B" {
		t.Errorf("positional match failed: %+v", got)
	}
	if got := matchByURLPosition(pages, tabs, "Z"); got == nil || got.TargetID != "C" {
		t.Errorf("unique URL match failed: %+v", got)
	}
	if got := matchByURLPosition(pages, tabs, "missing"); got != nil {
		t.Errorf("unknown id should not match, got %+v", got)
	}
}

func TestFindExecutable_OverrideMustExist(t *testing.T) {
	if _, err := FindExecutable(models.BrowserChrome, "/nonexistent/chrome"); err == nil {
		t.Error("bogus override path should fail")
	}
}

func TestNormalizeCDPURL(t *testing.T) {
	a := normalizeCDPURL("http://127.0.0.1:9222/")
	b := normalizeCDPURL("HTTP://127.0.0.1:9222")
	if a != b {
		t.Errorf("normalization mismatch: %q vs %q", a, b)
	}
}
