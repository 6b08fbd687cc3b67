package workspace

import (
	"errors"
	"os"
	"testing"

	"github.com/thefrederiksen/cc-browser/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestResolve_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	ws := &models.Workspace{
		DisplayName: "Research",
		Browser:     models.BrowserChrome,
		Name:        "research",
		CDPPort:     19222,
		DaemonPort:  18900,
		Aliases:     []string{"res", "r"},
		Indicator:   true,
	}
	if err := s.Save(ws); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Resolve(models.BrowserChrome, "research")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.CDPPort != 19222 || got.DaemonPort != 18900 {
		t.Errorf("ports mismatch: got %d/%d", got.CDPPort, got.DaemonPort)
	}
	if !got.Indicator {
		t.Error("indicator flag lost in round trip")
	}
}

func TestResolve_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Resolve(models.BrowserEdge, "missing")
	if !errors.Is(err, models.ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestResolveAlias(t *testing.T) {
	s := newTestStore(t)

	first := &models.Workspace{
		Browser: models.BrowserChrome, Name: "work",
		CDPPort: 19222, DaemonPort: 18900,
		Aliases: []string{"w", "office"},
	}
	second := &models.Workspace{
		Browser: models.BrowserBrave, Name: "personal",
		CDPPort: 19223, DaemonPort: 18901,
		Aliases: []string{"p"},
	}
	for _, ws := range []*models.Workspace{first, second} {
		if err := s.Save(ws); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := s.ResolveAlias("OFFICE")
	if err != nil {
		t.Fatalf("ResolveAlias: %v", err)
	}
	if got.Name != "work" {
		t.Errorf("alias resolved to wrong workspace: %s", got.Name)
	}

	if _, err := s.ResolveAlias("nope"); !errors.Is(err, models.ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound for unknown alias, got %v", err)
	}
}

func TestList_SkipsNonWorkspaceDirs(t *testing.T) {
	s := newTestStore(t)

	ws := &models.Workspace{
		Browser: models.BrowserChrome, Name: "only",
		CDPPort: 19222, DaemonPort: 18900,
	}
	if err := s.Save(ws); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// A directory without a descriptor should be ignored.
	if err := os.MkdirAll(s.Dir(models.BrowserEdge, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}

	list, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Name != "only" {
		t.Errorf("unexpected list result: %+v", list)
	}
}

func TestLockfile_WriteReadRemove(t *testing.T) {
	s := newTestStore(t)

	if err := s.WriteLock(18900, "chrome", "research"); err != nil {
		t.Fatalf("WriteLock: %v", err)
	}

	lock, stale, err := s.ReadLock()
	if err != nil {
		t.Fatalf("ReadLock: %v", err)
	}
	if lock.Port != 18900 || lock.PID != os.Getpid() {
		t.Errorf("unexpected lock contents: %+v", lock)
	}
	if stale {
		t.Error("lock for the current process reported stale")
	}

	// Overwrite must succeed: a crashed daemon leaves its lock behind.
	if err := s.WriteLock(18901, "edge", ""); err != nil {
		t.Fatalf("WriteLock overwrite: %v", err)
	}

	if err := s.RemoveLock(); err != nil {
		t.Fatalf("RemoveLock: %v", err)
	}
	if err := s.RemoveLock(); err != nil {
		t.Errorf("RemoveLock on missing file should be a no-op, got %v", err)
	}
}

func TestPidAlive(t *testing.T) {
	if !pidAlive(os.Getpid()) {
		t.Error("current process should count as alive")
	}
	if pidAlive(0) {
		t.Error("pid 0 should never count as alive")
	}
	if pidAlive(-7) {
		t.Error("negative pid should never count as alive")
	}
}
