// Package page tracks per-tab state: bounded logs of console output, page
// errors and network traffic, and the ref map produced by the most recent
// accessibility snapshot.
package page

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// Ring buffer capacities per tab.
const (
	ConsoleCap = 500
	ErrorCap   = 200
	NetworkCap = 500
)

// RefMode selects how a stored ref is turned back into a locator.
type RefMode string

const (
	RefModeRole RefMode = "role"
	RefModeAria RefMode = "aria"
)

// RefDescriptor is what a snapshot recorded about one addressable element.
type RefDescriptor struct {
	Role          string  `json:"role"`
	Name          string  `json:"name,omitempty"`
	Nth           int     `json:"nth,omitempty"`
	HasNth        bool    `json:"hasNth,omitempty"`
	FrameSelector string  `json:"frameSelector,omitempty"`
	Mode          RefMode `json:"mode"`
}

// Entry owns the tracked state of one browser tab.
type Entry struct {
	TargetID string
	URL      string

	Console *Ring[models.ConsoleMessage]
	Errors  *Ring[models.PageError]
	Network *Ring[models.NetworkRequest]

	// Last known cursor position, used as the origin of human mouse paths.
	MouseX float64
	MouseY float64

	// refs is written by snapshots and the navigation listener, read by
	// every ref-using verb.
	refMu sync.Mutex
	refs  map[string]RefDescriptor
}

var refPattern = regexp.MustCompile(`^e\d+$`)

// SetRefs replaces the entry's ref map wholesale. Keys are lowercased so
// lookups are case-insensitive.
func (e *Entry) SetRefs(refs map[string]RefDescriptor) {
	m := make(map[string]RefDescriptor, len(refs))
	for k, v := range refs {
		m[strings.ToLower(k)] = v
	}
	e.refMu.Lock()
	e.refs = m
	e.refMu.Unlock()
}

// Refs returns a copy of the current ref map.
func (e *Entry) Refs() map[string]RefDescriptor {
	e.refMu.Lock()
	defer e.refMu.Unlock()
	out := make(map[string]RefDescriptor, len(e.refs))
	for k, v := range e.refs {
		out[k] = v
	}
	return out
}

// LookupRef resolves a ref string like "e12" to its stored descriptor.
func (e *Entry) LookupRef(ref string) (RefDescriptor, error) {
	key := strings.ToLower(strings.TrimSpace(ref))
	if !refPattern.MatchString(key) {
		return RefDescriptor{}, fmt.Errorf("%w: %q is not a ref", models.ErrUnknownRef, ref)
	}
	e.refMu.Lock()
	d, ok := e.refs[key]
	e.refMu.Unlock()
	if !ok {
		return RefDescriptor{}, fmt.Errorf("%w: %s", models.ErrUnknownRef, ref)
	}
	return d, nil
}

// Registry owns all Entry records, keyed by CDP target id. Listener
// installation is guarded so a target is only observed once.
type Registry struct {
	mu       sync.Mutex
	entries  map[string]*Entry
	observed map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:  make(map[string]*Entry),
		observed: make(map[string]bool),
	}
}

// Ensure returns the entry for a target, creating it on first sight.
func (r *Registry) Ensure(targetID string) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[targetID]; ok {
		return e
	}
	e := &Entry{
		TargetID: targetID,
		Console:  NewRing[models.ConsoleMessage](ConsoleCap),
		Errors:   NewRing[models.PageError](ErrorCap),
		Network:  NewRing[models.NetworkRequest](NetworkCap),
		refs:     make(map[string]RefDescriptor),
	}
	r.entries[targetID] = e
	log.Debug().Str("target_id", targetID).Msg("Page entry created")
	return e
}

// Get returns the entry for a target if one exists.
func (r *Registry) Get(targetID string) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[targetID]
	return e, ok
}

// Remove drops a target's entry and its observation mark. Called from the
// tab close listener.
func (r *Registry) Remove(targetID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, targetID)
	delete(r.observed, targetID)
}

// MarkObserved records that event listeners were installed for a target.
// It returns false if the target was already observed, so installation
// happens exactly once.
func (r *Registry) MarkObserved(targetID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.observed[targetID] {
		return false
	}
	r.observed[targetID] = true
	return true
}

// TargetIDs returns the ids of all tracked entries.
func (r *Registry) TargetIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}
