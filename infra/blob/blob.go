// Package blob stores uploaded attachment bytes on an afero filesystem.
package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

var (
	ErrTooLarge = errors.New("blob: object exceeds size limit")
	ErrNotFound = errors.New("blob: object not found")
	ErrBadKey   = errors.New("blob: invalid key")
)

// Store writes objects under flat keys. Keys must not contain path separators.
type Store struct {
	fs      afero.Fs
	maxSize int64
}

// NewOsStore roots the store at dir on the local disk, creating it if needed.
func NewOsStore(dir string, maxSize int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("blob: create root %s: %w", dir, err)
	}
	return New(afero.NewBasePathFs(afero.NewOsFs(), dir), maxSize), nil
}

// NewMemStore is an in-memory store for tests.
func NewMemStore(maxSize int64) *Store {
	return New(afero.NewMemMapFs(), maxSize)
}

func New(fs afero.Fs, maxSize int64) *Store {
	return &Store{fs: fs, maxSize: maxSize}
}

func (s *Store) MaxSize() int64 { return s.maxSize }

// Put copies r into key and returns the byte count. Input larger than the
// limit is rejected and nothing is left behind.
func (s *Store) Put(key string, r io.Reader) (int64, error) {
	name, err := s.name(key)
	if err != nil {
		return 0, err
	}

	f, err := s.fs.Create(name)
	if err != nil {
		return 0, fmt.Errorf("blob: create %s: %w", key, err)
	}

	// One extra byte tells "exactly at the limit" from "over it".
	n, err := io.Copy(f, io.LimitReader(r, s.maxSize+1))
	closeErr := f.Close()
	switch {
	case err != nil:
		_ = s.fs.Remove(name)
		return 0, fmt.Errorf("blob: write %s: %w", key, err)
	case n > s.maxSize:
		_ = s.fs.Remove(name)
		return 0, ErrTooLarge
	case closeErr != nil:
		_ = s.fs.Remove(name)
		return 0, fmt.Errorf("blob: close %s: %w", key, closeErr)
	}
	return n, nil
}

// Open returns a reader for key. The caller closes it.
func (s *Store) Open(key string) (afero.File, error) {
	name, err := s.name(key)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.Open(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("blob: open %s: %w", key, err)
	}
	return f, nil
}

// Delete is idempotent.
func (s *Store) Delete(key string) error {
	name, err := s.name(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("blob: delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) name(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	return path.Join("/", key), nil
}
