package storage

import (
	"errors"
	"io"
)

var ErrInvalidKey = errors.New("storage: invalid key")

type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
}
