// Package storage persists the club's records as JSON collection files under
// a single data directory. Each collection is read and rewritten whole; a
// per-collection lock serializes every read-modify-write cycle so concurrent
// writers cannot lose each other's records.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

const (
	usersFile  = "users.json"
	merchFile  = "merch.json"
	ordersFile = "orders.json"
	uploadsDir = "uploads"
)

// Store owns the data directory and hands out the per-collection
// repositories. One Store per process; the locks live here.
type Store struct {
	dir string
	log zerolog.Logger

	users  *UserRepository
	items  *ItemRepository
	orders *OrderRepository
}

// New prepares the data directory and the repositories. Collection files are
// not created up front; a collection exists on disk only after its first
// write.
func New(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, uploadsDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	s := &Store{dir: dir, log: log}
	s.users = &UserRepository{c: newCollection(filepath.Join(dir, usersFile), log)}
	s.items = &ItemRepository{c: newCollection(filepath.Join(dir, merchFile), log)}
	s.orders = &OrderRepository{c: newCollection(filepath.Join(dir, ordersFile), log)}
	return s, nil
}

// Users returns the user collection repository.
func (s *Store) Users() *UserRepository { return s.users }

// Items returns the merch collection repository.
func (s *Store) Items() *ItemRepository { return s.items }

// Orders returns the order collection repository.
func (s *Store) Orders() *OrderRepository { return s.orders }

// UploadsDir returns the directory managed image uploads are written to.
func (s *Store) UploadsDir() string {
	return filepath.Join(s.dir, uploadsDir)
}

// SaveUpload writes an uploaded asset under the uploads directory and returns
// the path it is served from.
func (s *Store) SaveUpload(filename string, data []byte) (string, error) {
	name := filepath.Base(filename)
	if err := os.WriteFile(filepath.Join(s.UploadsDir(), name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return "/" + uploadsDir + "/" + name, nil
}

// ReleaseUpload removes the asset behind a managed /uploads/ path. Paths
// outside the uploads directory (external URLs, static assets) are left
// alone, as are uploads already gone.
func (s *Store) ReleaseUpload(imagePath string) error {
	const prefix = "/" + uploadsDir + "/"
	if !strings.HasPrefix(imagePath, prefix) {
		return nil
	}
	name := filepath.Base(strings.TrimPrefix(imagePath, prefix))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil
	}
	err := os.Remove(filepath.Join(s.UploadsDir(), name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove upload: %w", err)
	}
	return nil
}

// collection serializes whole-file access to one JSON file. Callers hold mu
// for the full read-modify-write cycle.
type collection struct {
	path string
	log  zerolog.Logger
	mu   sync.Mutex
}

func newCollection(path string, log zerolog.Logger) *collection {
	return &collection{path: path, log: log}
}

// load reads the whole file into out, which must be a pointer to a slice.
// A missing or empty file loads as an empty collection. A file that no
// longer parses is kept aside under a .corrupt suffix and also loads as
// empty rather than taking the site down.
func (c *collection) load(out any) error {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(c.path), err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.log.Warn().Str("file", filepath.Base(c.path)).Err(err).
			Msg("collection file is corrupt, continuing with an empty collection")
		if backupErr := os.WriteFile(c.path+".corrupt", data, 0o644); backupErr != nil {
			c.log.Error().Err(backupErr).Str("file", filepath.Base(c.path)).
				Msg("failed to keep a copy of the corrupt collection")
		}
		// A failed unmarshal can leave a partial decode behind; reset the
		// target so the caller sees a clean empty collection.
		return json.Unmarshal([]byte("null"), out)
	}
	return nil
}

// save rewrites the whole file. The content lands in a temp file first and
// is renamed into place so a crash mid-write never leaves a torn file.
func (c *collection) save(records any) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(c.path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to stage %s: %w", filepath.Base(c.path), err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to stage %s: %w", filepath.Base(c.path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to stage %s: %w", filepath.Base(c.path), err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(c.path), err)
	}
	return nil
}
