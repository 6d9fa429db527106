// Package appstate remembers small pieces of state between runs, such as the
// last ASIN output folder the sitemap tool defaults to. Failures are logged
// and never returned to the command that triggered them.
package appstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ashwch/s3tools/internal/appdirs"
	"github.com/ashwch/s3tools/internal/logging"
	"github.com/ashwch/s3tools/internal/tools"
)

const stateFileName = "state.json"

type State struct {
	LastAsinOutputDir string         `json:"last_asin_output_dir,omitempty"`
	Prefixes          tools.Prefixes `json:"prefixes"`
	UpdatedAt         string         `json:"updated_at,omitempty"`
}

type Store struct {
	Path   string
	Logger *log.Logger
}

// Open returns a store backed by the state file in the OS state dir.
func Open(logger *log.Logger) (*Store, error) {
	path, err := appdirs.StateFilePath(stateFileName)
	if err != nil {
		return nil, err
	}
	return &Store{Path: path, Logger: logger}, nil
}

func Load(path string) (State, error) {
	bytes, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("could not read state file: %w", err)
	}
	var state State
	if err := json.Unmarshal(bytes, &state); err != nil {
		return State{}, fmt.Errorf("could not parse state file: %w", err)
	}
	state.normalize()
	return state, nil
}

func Save(path string, state State) error {
	state.normalize()
	state.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode state: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("could not create state dir: %w", err)
	}
	tempFile, err := os.CreateTemp(dir, ".s3tools-state-*.json")
	if err != nil {
		return fmt.Errorf("could not create temp state file: %w", err)
	}
	tempPath := tempFile.Name()
	cleanup := func() {
		_ = os.Remove(tempPath)
	}
	if _, err := tempFile.Write(payload); err != nil {
		_ = tempFile.Close()
		cleanup()
		return fmt.Errorf("could not write temp state file: %w", err)
	}
	if err := tempFile.Chmod(0o600); err != nil {
		_ = tempFile.Close()
		cleanup()
		return fmt.Errorf("could not secure temp state file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		cleanup()
		return fmt.Errorf("could not close temp state file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		cleanup()
		return fmt.Errorf("could not atomically replace state file: %w", err)
	}
	return nil
}

func (s *State) normalize() {
	s.LastAsinOutputDir = strings.TrimSpace(s.LastAsinOutputDir)
	if s.Prefixes.Validate() != nil {
		s.Prefixes = tools.Prefixes{}
	}
}

// LastAsinOutputDir returns the remembered ASIN output folder, but only while
// that folder still exists.
func (s *Store) LastAsinOutputDir() (string, bool) {
	state := s.load()
	dir := state.LastAsinOutputDir
	if dir == "" {
		return "", false
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return dir, true
}

func (s *Store) SetLastAsinOutputDir(dir string) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return
	}
	s.update(func(state *State) {
		state.LastAsinOutputDir = dir
	})
}

func (s *Store) Prefixes() tools.Prefixes {
	return s.load().Prefixes
}

func (s *Store) SetPrefixes(p tools.Prefixes) {
	if p.Validate() != nil {
		return
	}
	s.update(func(state *State) {
		state.Prefixes = p
	})
}

func (s *Store) load() State {
	if s == nil || s.Path == "" {
		return State{}
	}
	state, err := Load(s.Path)
	if err != nil {
		logging.Or(s.Logger).Debug("ignoring unreadable state", "path", s.Path, "err", err)
		return State{}
	}
	return state
}

func (s *Store) update(fn func(*State)) {
	if s == nil || s.Path == "" {
		return
	}
	state := s.load()
	fn(&state)
	if err := Save(s.Path, state); err != nil {
		logging.Or(s.Logger).Debug("could not persist state", "path", s.Path, "err", err)
	}
}
