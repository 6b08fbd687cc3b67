package page

import (
	"errors"
	"fmt"
	"testing"

	"github.com/thefrederiksen/cc-browser/pkg/models"
)

func TestRing_DropsOldest(t *testing.T) {
	r := NewRing[int](3)
	for i := 1; i <= 5; i++ {
		r.Push(i)
	}

	got := r.Items()
	want := []int{3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("got %d items, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestRing_ClearAndRefill(t *testing.T) {
	r := NewRing[string](2)
	r.Push("a")
	r.Clear()
	r.Push("b")

	if r.Len() != 1 || r.Items()[0] != "b" {
		t.Errorf("unexpected ring state after clear: %v", r.Items())
	}
}

func TestEntry_RefLookupCaseInsensitive(t *testing.T) {
	reg := NewRegistry()
	e := reg.Ensure("T1")
	e.SetRefs(map[string]RefDescriptor{
		"E7": {Role: "button", Name: "Submit", Mode: RefModeRole},
	})

	d, err := e.LookupRef("e7")
	if err != nil {
		t.Fatalf("LookupRef: %v", err)
	}
	if d.Role != "button" || d.Name != "Submit" {
		t.Errorf("unexpected descriptor: %+v", d)
	}

	if _, err := e.LookupRef("e99"); !errors.Is(err, models.ErrUnknownRef) {
		t.Errorf("expected ErrUnknownRef, got %v", err)
	}
	if _, err := e.LookupRef("button"); !errors.Is(err, models.ErrUnknownRef) {
		t.Errorf("malformed ref should be ErrUnknownRef, got %v", err)
	}
}

func TestEntry_SetRefsReplacesWholesale(t *testing.T) {
	reg := NewRegistry()
	e := reg.Ensure("T1")
	e.SetRefs(map[string]RefDescriptor{"e1": {Role: "link"}})
	e.SetRefs(map[string]RefDescriptor{"e2": {Role: "button"}})

	if _, err := e.LookupRef("e1"); err == nil {
		t.Error("old ref survived a wholesale replacement")
	}
	if _, err := e.LookupRef("e2"); err != nil {
		t.Errorf("new ref missing: %v", err)
	}
}

func TestRegistry_ObserveOnce(t *testing.T) {
	reg := NewRegistry()
	reg.Ensure("T1")

	if !reg.MarkObserved("T1") {
		t.Error("first MarkObserved should return true")
	}
	if reg.MarkObserved("T1") {
		t.Error("second MarkObserved should return false")
	}

	reg.Remove("T1")
	if !reg.MarkObserved("T1") {
		t.Error("MarkObserved after Remove should return true again")
	}
}

func TestRefCache_LRUEviction(t *testing.T) {
	c := NewRefCache(3)
	for i := 0; i < 4; i++ {
		c.Put("http://127.0.0.1:9222", fmt.Sprintf("T%d", i), map[string]RefDescriptor{
			"e1": {Role: "button"},
		})
	}

	if c.Len() != 3 {
		t.Fatalf("cache holds %d entries, want 3", c.Len())
	}
	if _, ok := c.Get("http://127.0.0.1:9222", "T0"); ok {
		t.Error("oldest entry should have been evicted")
	}
	if _, ok := c.Get("http://127.0.0.1:9222", "T3"); !ok {
		t.Error("newest entry missing")
	}
}

func TestRefCache_URLNormalization(t *testing.T) {
	c := NewRefCache(10)
	c.Put("http://127.0.0.1:9222/", "T1", map[string]RefDescriptor{"e1": {Role: "link"}})

	if _, ok := c.Get("ws://127.0.0.1:9222", "T1"); !ok {
		t.Error("scheme and trailing-slash variants should hit the same entry")
	}
}
