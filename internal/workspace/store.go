// Package workspace reads and writes per-workspace descriptors and the
// daemon lockfile under the cc-browser data directory.
package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/thefrederiksen/cc-browser/pkg/models"
)

const descriptorFile = "workspace.json"

// Store resolves workspace descriptors rooted at a base data directory.
// Each workspace lives in <base>/<browser>-<name>/workspace.json.
type Store struct {
	base string
}

// NewStore creates a store rooted at base, creating the directory if absent.
func NewStore(base string) (*Store, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{base: base}, nil
}

// Base returns the root data directory.
func (s *Store) Base() string {
	return s.base
}

// Dir returns the user-data directory for a (browser, name) pair.
func (s *Store) Dir(browser models.BrowserKind, name string) string {
	return filepath.Join(s.base, string(browser)+"-"+name)
}

// Resolve loads the descriptor for an exact (browser, name) pair.
func (s *Store) Resolve(browser models.BrowserKind, name string) (*models.Workspace, error) {
	path := filepath.Join(s.Dir(browser, name), descriptorFile)
	ws, err := readDescriptor(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s/%s", models.ErrConfigNotFound, browser, name)
		}
		return nil, err
	}
	return ws, nil
}

// ResolveAlias scans all workspace directories and returns the first
// descriptor whose aliases contain the queried name (case-insensitive).
// A linear scan is fine at the expected scale of dozens of workspaces.
func (s *Store) ResolveAlias(alias string) (*models.Workspace, error) {
	entries, err := os.ReadDir(s.base)
	if err != nil {
		return nil, fmt.Errorf("failed to scan workspaces: %w", err)
	}
	needle := strings.ToLower(alias)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		ws, err := readDescriptor(filepath.Join(s.base, e.Name(), descriptorFile))
		if err != nil {
			continue
		}
		for _, a := range ws.Aliases {
			if strings.ToLower(a) == needle {
				return ws, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: alias %q", models.ErrConfigNotFound, alias)
}

// List returns all readable workspace descriptors under the base directory.
func (s *Store) List() ([]*models.Workspace, error) {
	entries, err := os.ReadDir(s.base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []*models.Workspace
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		ws, err := readDescriptor(filepath.Join(s.base, e.Name(), descriptorFile))
		if err != nil {
			continue
		}
		out = append(out, ws)
	}
	return out, nil
}

// Save writes a descriptor, creating the workspace directory if needed.
func (s *Store) Save(ws *models.Workspace) error {
	if ws.Name == "" || !ws.Browser.Valid() {
		return fmt.Errorf("workspace needs a name and a valid browser kind")
	}
	dir := s.Dir(ws.Browser, ws.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	data, err := json.MarshalIndent(ws, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize workspace: %w", err)
	}
	path := filepath.Join(dir, descriptorFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write workspace descriptor: %w", err)
	}
	log.Debug().Str("path", path).Msg("Workspace descriptor saved")
	return nil
}

func readDescriptor(path string) (*models.Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ws models.Workspace
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &ws, nil
}
