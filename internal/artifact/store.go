// Package artifact reads and writes the JSON files handed from one pipeline
// stage to the next.
package artifact

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// Artifact file names.
const (
	ContinentsFile           = "continents.json"
	CountriesFile            = "countries.json"
	CitiesFile               = "cities.json"
	ContinentNameDictFile    = "continent_name_dict.json"
	CountryNameDictFile      = "country_name_dict.json"
	CountriesByContinentFile = "countries_by_continent.json"
)

// ErrNotFound is returned by Get when the named artifact does not exist.
var ErrNotFound = eris.New("artifact: not found")

// Store persists named artifacts.
type Store interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	// Location describes where name is stored, for logs.
	Location(name string) string
}

// FileStore keeps artifacts as files in a local directory.
type FileStore struct {
	dir string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = "."
	}
	return &FileStore{dir: dir}
}

// Put writes data to <dir>/<name>, replacing any previous file.
func (s *FileStore) Put(_ context.Context, name string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return eris.Wrapf(err, "artifact: create dir %s", s.dir)
	}
	path := s.Location(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "artifact: write %s", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return eris.Wrapf(err, "artifact: rename %s", path)
	}
	return nil
}

// Get reads <dir>/<name>.
func (s *FileStore) Get(_ context.Context, name string) ([]byte, error) {
	path := s.Location(name)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, eris.Wrapf(ErrNotFound, "artifact: %s", path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "artifact: read %s", path)
	}
	return data, nil
}

// Location returns the file path for name.
func (s *FileStore) Location(name string) string {
	return filepath.Join(s.dir, name)
}
