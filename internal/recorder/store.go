package recorder

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/thefrederiksen/cc-browser/pkg/models"
)

const recordingFile = "recording.json"

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// slugify reduces a recording name to a filesystem-safe slug.
func slugify(name string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		s = "recording"
	}
	return s
}

// Store persists recordings under <base>/recordings, one timestamped
// directory each, newest sorting last by name.
type Store struct {
	base string
}

// NewStore creates a store rooted at the given vault directory.
func NewStore(base string) *Store {
	return &Store{base: base}
}

func (s *Store) recordingsDir() string {
	return filepath.Join(s.base, "recordings")
}

// Save writes the recording and returns the directory it landed in.
func (s *Store) Save(rec *models.Recording) (string, error) {
	dir := filepath.Join(s.recordingsDir(),
		fmt.Sprintf("%s_%s", rec.RecordedAt.Format("20060102-150405"), slugify(rec.Name)))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create recording dir: %w", err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, recordingFile), data, 0644); err != nil {
		return "", fmt.Errorf("write recording: %w", err)
	}
	return dir, nil
}

// Find loads the newest recording whose slug matches the given name. An
// empty name matches everything, returning the most recent recording.
func (s *Store) Find(name string) (*models.Recording, error) {
	entries, err := os.ReadDir(s.recordingsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", models.ErrNoRecording, name)
		}
		return nil, err
	}

	slug := slugify(name)
	var candidates []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if name == "" || strings.HasSuffix(e.Name(), "_"+slug) {
			candidates = append(candidates, e.Name())
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrNoRecording, name)
	}
	// Timestamped prefixes make lexicographic order chronological.
	sort.Strings(candidates)
	newest := candidates[len(candidates)-1]

	data, err := os.ReadFile(filepath.Join(s.recordingsDir(), newest, recordingFile))
	if err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}
	var rec models.Recording
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse recording: %w", err)
	}
	return &rec, nil
}

// List returns the directory names of all stored recordings, oldest first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.recordingsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
