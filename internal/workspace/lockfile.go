package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thefrederiksen/cc-browser/pkg/models"
)

const lockfileName = "daemon.lock"

// LockPath returns the path of the daemon lockfile under the base dir.
func (s *Store) LockPath() string {
	return filepath.Join(s.base, lockfileName)
}

// WriteLock writes the lockfile atomically (temp file + rename). An existing
// lockfile is overwritten: a previous daemon may have crashed without cleanup.
func (s *Store) WriteLock(port int, browser, workspace string) error {
	lock := models.Lockfile{
		Port:      port,
		Browser:   browser,
		Workspace: workspace,
		PID:       os.Getpid(),
		StartedAt: time.Now(),
	}
	data, err := json.Marshal(lock)
	if err != nil {
		return fmt.Errorf("failed to serialize lockfile: %w", err)
	}
	tmp := s.LockPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write lockfile: %w", err)
	}
	if err := os.Rename(tmp, s.LockPath()); err != nil {
		return fmt.Errorf("failed to move lockfile into place: %w", err)
	}
	log.Debug().Int("port", port).Int("pid", lock.PID).Msg("Lockfile written")
	return nil
}

// ReadLock loads the lockfile if present. The second return reports whether
// the recorded pid still exists; callers may treat stale=true as an orphan
// left by a crashed daemon.
func (s *Store) ReadLock() (lock *models.Lockfile, stale bool, err error) {
	data, err := os.ReadFile(s.LockPath())
	if err != nil {
		return nil, false, err
	}
	var l models.Lockfile
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, false, fmt.Errorf("failed to parse lockfile: %w", err)
	}
	return &l, !pidAlive(l.PID), nil
}

// RemoveLock deletes the lockfile; missing files are not an error.
func (s *Store) RemoveLock() error {
	err := os.Remove(s.LockPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lockfile: %w", err)
	}
	return nil
}
