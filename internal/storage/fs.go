package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type FSStore struct{ base string }

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base}, nil
}

func (s *FSStore) Put(key string, r io.Reader) (string, error) {
	key, dst, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return key, nil
}

func (s *FSStore) Get(key string) (io.ReadCloser, error) {
	_, src, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(src)
}

// resolve cleans key and maps it below base. Keys that would escape base
// are rejected.
func (s *FSStore) resolve(key string) (string, string, error) {
	key = strings.ReplaceAll(key, `\`, "/")
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	if key == "" {
		return "", "", fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	return key, filepath.Join(s.base, filepath.FromSlash(key)), nil
}
