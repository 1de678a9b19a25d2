// Package localstore keeps best-effort local copies of generated documents.
// On serverless platforms the only writable path is /tmp and files do not
// survive the instance, so persistence here is advisory; the remote CRM copy
// is the authoritative one.
package localstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound means no stored copy of the requested file exists in any
// writable location.
var ErrNotFound = errors.New("file not found in local store")

// Location classifies where (if anywhere) local copies can live.
type Location int

const (
	// Unavailable means no writable directory could be established.
	Unavailable Location = iota
	// Ephemeral means files go to /tmp and vanish with the instance.
	Ephemeral
	// Persistent means files go to the configured output directory.
	Persistent
)

func (l Location) String() string {
	switch l {
	case Ephemeral:
		return "ephemeral"
	case Persistent:
		return "persistent"
	default:
		return "unavailable"
	}
}

// serverlessMarkers are environment variables whose presence indicates a
// platform where only /tmp is writable.
var serverlessMarkers = []string{"VERCEL", "AWS_LAMBDA_FUNCTION_NAME", "LAMBDA_TASK_ROOT"}

// Store writes and reads local document copies. The write directory is
// resolved once, on first use, and cached for the lifetime of the store.
type Store struct {
	outputDir    string
	ephemeralDir string

	once     sync.Once
	dir      string
	location Location
}

// NewStore creates a Store that prefers outputDir and falls back to the
// platform temp directory on serverless environments.
func NewStore(outputDir string) *Store {
	return &Store{outputDir: outputDir, ephemeralDir: os.TempDir()}
}

// Resolve reports the directory local copies are written to and its
// durability class. It never returns an error; an unwritable environment
// yields Unavailable and saving becomes a no-op with a warning.
func (s *Store) Resolve() (string, Location) {
	s.once.Do(func() {
		for _, marker := range serverlessMarkers {
			if os.Getenv(marker) != "" {
				s.dir, s.location = s.ephemeralDir, Ephemeral
				return
			}
		}
		if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
			s.dir, s.location = "", Unavailable
			return
		}
		s.dir, s.location = s.outputDir, Persistent
	})
	return s.dir, s.location
}

// Save writes data under fileName in the resolved directory. Failures are
// demoted to warnings; the returned path is nil when nothing was written.
func (s *Store) Save(fileName string, data []byte) (*string, []string) {
	dir, loc := s.Resolve()
	if loc == Unavailable {
		return nil, []string{"local save skipped: no writable directory available"}
	}

	path := filepath.Join(dir, filepath.Base(fileName))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, []string{fmt.Sprintf("local save failed: %v", err)}
	}

	var warnings []string
	if loc == Ephemeral {
		warnings = append(warnings, "local copy is ephemeral and will not survive the instance")
	}
	return &path, warnings
}

// Retrieve reads back a previously saved file by name. The name is reduced to
// its base component so callers cannot traverse outside the store. Both the
// ephemeral and the persistent directory are consulted.
func (s *Store) Retrieve(fileName string) ([]byte, error) {
	base := filepath.Base(fileName)
	if base == "." || base == string(filepath.Separator) {
		return nil, ErrNotFound
	}

	for _, dir := range []string{s.ephemeralDir, s.outputDir} {
		if dir == "" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, base))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", base, err)
		}
	}
	return nil, ErrNotFound
}
