// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session persists artifact snapshots on disk, one directory
// per session id with one YAML file per version. The store is a plain
// consumer of the data model: it never merges, validates, or edits an
// artifact, and a failed merge simply never reaches Save.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/artifact-engine/pkg/types"
)

const latestFile = "latest.yaml"

// sessionIDPattern restricts session ids to filesystem-safe names.
var sessionIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// versionFilePattern matches versioned snapshot files: vNNNN.yaml.
var versionFilePattern = regexp.MustCompile(`^v(\d{4})\.yaml$`)

// Store manages the on-disk session snapshot archive.
type Store struct {
	dir string
}

// NewStore opens the snapshot archive rooted at cfg.SessionsDir,
// creating the directory if needed.
func NewStore(cfg types.SessionConfig) (*Store, error) {
	if cfg.SessionsDir == "" {
		return nil, fmt.Errorf("sessions directory not configured")
	}
	if err := os.MkdirAll(cfg.SessionsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating sessions directory: %w", err)
	}
	return &Store{dir: cfg.SessionsDir}, nil
}

func (s *Store) sessionDir(sessionID string) (string, error) {
	if !sessionIDPattern.MatchString(sessionID) {
		return "", fmt.Errorf("invalid session id %q", sessionID)
	}
	return filepath.Join(s.dir, sessionID), nil
}

// Init creates a new session with an empty version-0 artifact. It
// fails if the session already exists.
func (s *Store) Init(sessionID string) (*types.Artifact, error) {
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("session %s already exists", sessionID)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}

	a := types.New(sessionID, types.Now())
	if err := s.Save(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Save writes the artifact as its version's snapshot and as the
// session's latest snapshot.
func (s *Store) Save(a *types.Artifact) error {
	dir, err := s.sessionDir(a.Metadata.SessionID)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(a)
	if err != nil {
		return fmt.Errorf("encoding artifact: %w", err)
	}
	name := fmt.Sprintf("v%04d.yaml", a.Metadata.Version)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, latestFile), data, 0o644); err != nil {
		return fmt.Errorf("writing latest snapshot: %w", err)
	}
	return nil
}

// Latest loads the session's most recent snapshot.
func (s *Store) Latest(sessionID string) (*types.Artifact, error) {
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return nil, err
	}
	return loadSnapshot(filepath.Join(dir, latestFile))
}

// Version loads one specific stored version of the session.
func (s *Store) Version(sessionID string, version int) (*types.Artifact, error) {
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return nil, err
	}
	return loadSnapshot(filepath.Join(dir, fmt.Sprintf("v%04d.yaml", version)))
}

// Versions lists the stored version numbers in ascending order.
func (s *Store) Versions(sessionID string) ([]int, error) {
	dir, err := s.sessionDir(sessionID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading session directory: %w", err)
	}
	var versions []int
	for _, e := range entries {
		m := versionFilePattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		versions = append(versions, n)
	}
	sort.Ints(versions)
	return versions, nil
}

// List returns the ids of every stored session, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading sessions directory: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() && sessionIDPattern.MatchString(e.Name()) {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Close marks a session closed. Sessions are never deleted; a closed
// session keeps its full snapshot history.
func (s *Store) Close(sessionID string) (*types.Artifact, error) {
	a, err := s.Latest(sessionID)
	if err != nil {
		return nil, err
	}
	if a.Metadata.Status == types.StatusClosed {
		return a, nil
	}
	a.Metadata.Status = types.StatusClosed
	now := types.Now()
	if now > a.Metadata.UpdatedAt {
		a.Metadata.UpdatedAt = now
	}
	if err := s.Save(a); err != nil {
		return nil, err
	}
	return a, nil
}

func loadSnapshot(path string) (*types.Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var a types.Artifact
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	return &a, nil
}
