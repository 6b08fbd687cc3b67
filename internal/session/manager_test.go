package session

import (
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thefrederiksen/cc-browser/pkg/models"
)

func TestCreate_Defaults(t *testing.T) {
	m := NewManager()

	s, err := m.Create("research", -1, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(s.ID, "sess_") || len(s.ID) != len("sess_")+8 {
		t.Errorf("unexpected id shape: %s", s.ID)
	}
	if s.TTLMs != DefaultTTL.Milliseconds() {
		t.Errorf("default ttl: got %d", s.TTLMs)
	}
	if len(s.TabIDs) != 0 {
		t.Errorf("new session should have no tabs")
	}

	if _, err := m.Create("  ", 0, nil); err == nil {
		t.Error("blank name should be rejected")
	}
}

func TestPruneExpired(t *testing.T) {
	m := NewManager()
	now := time.Now()
	m.now = func() time.Time { return now }

	s, err := m.Create("research", 100, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.AddTab(s.ID, "t1"); err != nil {
		t.Fatal(err)
	}
	if err := m.AddTab(s.ID, "t2"); err != nil {
		t.Fatal(err)
	}

	// Not yet expired.
	now = now.Add(50 * time.Millisecond)
	if got := m.PruneExpired(); len(got) != 0 {
		t.Fatalf("premature prune: %+v", got)
	}

	now = now.Add(100 * time.Millisecond)
	got := m.PruneExpired()
	if len(got) != 1 {
		t.Fatalf("got %d expired, want 1", len(got))
	}
	if got[0].SessionID != s.ID {
		t.Errorf("wrong session pruned: %s", got[0].SessionID)
	}
	if len(got[0].TabIDs) != 2 || got[0].TabIDs[0] != "t1" || got[0].TabIDs[1] != "t2" {
		t.Errorf("tab ids: %v", got[0].TabIDs)
	}

	// Exactly once: a second prune returns nothing, list is empty.
	if got := m.PruneExpired(); len(got) != 0 {
		t.Errorf("second prune returned %+v", got)
	}
	if len(m.List()) != 0 {
		t.Errorf("session still listed after prune")
	}
}

func TestTTLZero_NeverExpires(t *testing.T) {
	m := NewManager()
	now := time.Now()
	m.now = func() time.Time { return now }

	if _, err := m.Create("forever", 0, nil); err != nil {
		t.Fatal(err)
	}
	now = now.Add(24 * time.Hour)
	if got := m.PruneExpired(); len(got) != 0 {
		t.Errorf("ttl=0 session expired: %+v", got)
	}
}

func TestTouch_ResetsActivity(t *testing.T) {
	m := NewManager()
	now := time.Now()
	m.now = func() time.Time { return now }

	s, _ := m.Create("research", 100, nil)

	now = now.Add(80 * time.Millisecond)
	if err := m.Touch(s.ID); err != nil {
		t.Fatal(err)
	}
	now = now.Add(80 * time.Millisecond)
	if got := m.PruneExpired(); len(got) != 0 {
		t.Errorf("touched session expired: %+v", got)
	}

	if err := m.Touch("sess_missing"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestReconcileTabs(t *testing.T) {
	m := NewManager()
	s, _ := m.Create("research", 0, nil)
	m.AddTab(s.ID, "t1")
	m.AddTab(s.ID, "t2")
	m.AddTab(s.ID, "t3")

	m.ReconcileTabs([]string{"t2"})

	got, _ := m.Get(s.ID)
	if len(got.TabIDs) != 1 || got.TabIDs[0] != "t2" {
		t.Errorf("reconcile kept %v", got.TabIDs)
	}
}

func TestAddTab_Dedup(t *testing.T) {
	m := NewManager()
	s, _ := m.Create("research", 0, nil)
	m.AddTab(s.ID, "t1")
	m.AddTab(s.ID, "t1")

	got, _ := m.Get(s.ID)
	if len(got.TabIDs) != 1 {
		t.Errorf("duplicate tab id stored: %v", got.TabIDs)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	m := NewManager()
	s, _ := m.Create("research", 60000, map[string]string{"agent": "a1"})
	m.AddTab(s.ID, "t1")
	if err := m.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}

	m2 := NewManager()
	if err := m2.Load(dir); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, err := m2.Get(s.ID)
	if err != nil {
		t.Fatalf("Get after load: %v", err)
	}
	if got.Name != "research" || got.Metadata["agent"] != "a1" || len(got.TabIDs) != 1 {
		t.Errorf("round trip lost data: %+v", got)
	}

	// Loading from a directory with no file is fine.
	if err := NewManager().Load(t.TempDir()); err != nil {
		t.Errorf("Load with no file: %v", err)
	}
}

func TestSweeper_ClosesExpiredTabs(t *testing.T) {
	m := NewManager()
	s, _ := m.Create("shortlived", 1, nil)
	m.AddTab(s.ID, "t1")

	var closed atomic.Int32
	sw := StartSweeper(m, 10*time.Millisecond, func(expired []Expired) {
		for _, e := range expired {
			closed.Add(int32(len(e.TabIDs)))
		}
	})
	defer sw.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for closed.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if closed.Load() != 1 {
		t.Errorf("sweeper closed %d tabs, want 1", closed.Load())
	}
}
