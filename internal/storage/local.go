package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

var _ FileStore = (*LocalStore)(nil)

// LocalStore keeps files at <root>/<projectID>/<name>.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (s *LocalStore) dir(projectID int64) string {
	return filepath.Join(s.root, strconv.FormatInt(projectID, 10))
}

func (s *LocalStore) path(projectID int64, name string) string {
	return filepath.Join(s.dir(projectID), filepath.Base(name))
}

// Save creates the project directory on first use.
func (s *LocalStore) Save(ctx context.Context, projectID int64, name string, r io.Reader) error {
	if err := os.MkdirAll(s.dir(projectID), 0o755); err != nil {
		return fmt.Errorf("storage: creating project dir: %w", err)
	}

	p := s.path(projectID, name)
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("storage: creating %s: %w", p, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(p)
		return fmt.Errorf("storage: writing %s: %w", p, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(p)
		return fmt.Errorf("storage: closing %s: %w", p, err)
	}
	return nil
}

func (s *LocalStore) Open(ctx context.Context, projectID int64, name string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(projectID, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: opening %s: %w", name, err)
	}
	return f, nil
}

func (s *LocalStore) Remove(ctx context.Context, projectID int64, name string) error {
	err := os.Remove(s.path(projectID, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: removing %s: %w", name, err)
	}
	return nil
}
