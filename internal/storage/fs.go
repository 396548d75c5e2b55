package storage

import (
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FSStore keeps blobs under a local base directory.
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

var errBadKey = errors.New("invalid blob key")

// resolve maps a key to a path inside the base directory. filepath.Clean
// keeps leading ".." segments, so the joined path is checked against the
// base explicitly.
func (s *FSStore) resolve(key string) (string, error) {
	if key == "" {
		return "", errBadKey
	}
	base, err := filepath.Abs(s.base)
	if err != nil {
		return "", err
	}
	dst, err := filepath.Abs(filepath.Join(base, filepath.Clean(key)))
	if err != nil {
		return "", err
	}
	if dst != base && !strings.HasPrefix(dst, base+string(filepath.Separator)) {
		return "", errBadKey
	}
	return dst, nil
}

func (s *FSStore) Put(key string, r io.Reader) (string, error) {
	dst, err := s.resolve(key)
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
	return filepath.ToSlash(filepath.Clean(key)), nil
}

func (s *FSStore) Get(key string) (io.ReadCloser, error) {
	dst, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(dst)
}

func (s *FSStore) SignedURL(key string) (string, error) {
	dst, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: dst}
	return u.String(), nil
}
