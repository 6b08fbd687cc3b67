// Package session groups browser tabs into named, TTL-bounded sessions so an
// agent can clean up only the tabs it opened.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/thefrederiksen/cc-browser/pkg/models"
)

const sessionsFile = "sessions.json"

// DefaultTTL applies when a create request does not specify one. A TTL of
// zero means the session never expires.
const DefaultTTL = 30 * time.Minute

// Expired pairs a pruned session with the tabs the caller must close.
type Expired struct {
	SessionID string   `json:"sessionId"`
	TabIDs    []string `json:"tabIds"`
}

// Manager owns the in-memory session map.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*models.TabSession
	now      func() time.Time
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*models.TabSession),
		now:      time.Now,
	}
}

// Create registers a new session. ttlMs of 0 means never expire; a negative
// value selects the default.
func (m *Manager) Create(name string, ttlMs int64, metadata map[string]string) (*models.TabSession, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("session name cannot be empty")
	}
	if ttlMs < 0 {
		ttlMs = DefaultTTL.Milliseconds()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	s := &models.TabSession{
		ID:           "sess_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		Name:         name,
		CreatedAt:    now,
		LastActivity: now,
		TTLMs:        ttlMs,
		TabIDs:       []string{},
		Metadata:     metadata,
	}
	m.sessions[s.ID] = s
	log.Debug().Str("session_id", s.ID).Str("name", name).Int64("ttl_ms", ttlMs).Msg("Session created")
	return s, nil
}

// Get returns a session by id.
func (m *Manager) Get(id string) (*models.TabSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	return s, nil
}

// List returns all sessions.
func (m *Manager) List() []*models.TabSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.TabSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// AddTab appends a tab id to a session and touches its activity.
func (m *Manager) AddTab(id, tabID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	for _, t := range s.TabIDs {
		if t == tabID {
			s.LastActivity = m.now()
			return nil
		}
	}
	s.TabIDs = append(s.TabIDs, tabID)
	s.LastActivity = m.now()
	return nil
}

// Touch resets a session's activity clock (the heartbeat verb).
func (m *Manager) Touch(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	s.LastActivity = m.now()
	return nil
}

// Close removes a session and returns its tabs for external closure.
func (m *Manager) Close(id string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	log.Debug().Str("session_id", id).Msg("Session closed")
	return s.TabIDs, nil
}

// PruneExpired removes every session whose TTL has elapsed since its last
// activity and returns their tab lists exactly once.
func (m *Manager) PruneExpired() []Expired {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	var out []Expired
	for id, s := range m.sessions {
		if s.TTLMs <= 0 {
			continue
		}
		if now.Sub(s.LastActivity) >= time.Duration(s.TTLMs)*time.Millisecond {
			out = append(out, Expired{SessionID: id, TabIDs: s.TabIDs})
			delete(m.sessions, id)
			log.Debug().Str("session_id", id).Str("name", s.Name).Msg("Session expired")
		}
	}
	return out
}

// ReconcileTabs strips tab ids that no longer correspond to live tabs.
func (m *Manager) ReconcileTabs(liveIDs []string) {
	live := make(map[string]bool, len(liveIDs))
	for _, id := range liveIDs {
		live[id] = true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		kept := s.TabIDs[:0]
		for _, t := range s.TabIDs {
			if live[t] {
				kept = append(kept, t)
			}
		}
		s.TabIDs = kept
	}
}

// RemoveTab drops a tab id from every session that holds it.
func (m *Manager) RemoveTab(tabID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		kept := s.TabIDs[:0]
		for _, t := range s.TabIDs {
			if t != tabID {
				kept = append(kept, t)
			}
		}
		s.TabIDs = kept
	}
}

// Save persists the full session list to <dir>/sessions.json.
func (m *Manager) Save(dir string) error {
	m.mu.Lock()
	list := make([]*models.TabSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	m.mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize sessions: %w", err)
	}
	path := filepath.Join(dir, sessionsFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write sessions file: %w", err)
	}
	log.Debug().Int("count", len(list)).Str("path", path).Msg("Sessions persisted")
	return nil
}

// Load restores sessions from disk. A missing file is not an error.
func (m *Manager) Load(dir string) error {
	data, err := os.ReadFile(filepath.Join(dir, sessionsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read sessions file: %w", err)
	}
	var list []*models.TabSession
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("failed to parse sessions file: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range list {
		m.sessions[s.ID] = s
	}
	log.Debug().Int("count", len(list)).Msg("Sessions restored")
	return nil
}
