package blob

import (
	"errors"
	"io"
)

// ErrBlobNotFound is returned when a key does not resolve to a stored blob
var ErrBlobNotFound = errors.New("blob not found")

// Store defines the interface for cover image storage. Keys are opaque
// path-style strings under a todos namespace; each resolves to a public URL.
type Store interface {
	// Save stores the content and returns the generated key
	Save(r io.Reader, ext string) (string, error)
	// URL resolves a key to its publicly reachable URL
	URL(key string) string
	// Delete removes the blob for the key
	Delete(key string) error
	// Exists reports whether a blob is stored under the key
	Exists(key string) bool
}
