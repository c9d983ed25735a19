package blob

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const todosNamespace = "todos"

// Config holds local blob storage configuration
type Config struct {
	Dir     string // Root directory for stored files
	BaseURL string // Public URL prefix the directory is served under
}

// NewConfigFromEnv creates blob storage config from environment variables
func NewConfigFromEnv() *Config {
	return &Config{
		Dir:     getEnv("UPLOAD_DIR", "./uploads"),
		BaseURL: getEnv("UPLOAD_BASE_URL", "/uploads"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// LocalStore stores blobs on the local filesystem. Keys are relative paths
// like "todos/<uuid>.png" and resolve to BaseURL + "/" + key.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates a local blob store rooted at config.Dir
func NewLocalStore(config *Config) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Join(config.Dir, todosNamespace), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &LocalStore{
		dir:     config.Dir,
		baseURL: strings.TrimSuffix(config.BaseURL, "/"),
	}, nil
}

// Dir returns the root directory, for mounting as a static route
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save writes the content under a fresh key in the todos namespace
func (s *LocalStore) Save(r io.Reader, ext string) (string, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	key := todosNamespace + "/" + uuid.New().String() + ext

	f, err := os.Create(filepath.Join(s.dir, filepath.FromSlash(key)))
	if err != nil {
		return "", fmt.Errorf("failed to create blob file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write blob: %w", err)
	}

	return key, nil
}

// URL resolves a key to its public URL
func (s *LocalStore) URL(key string) string {
	return s.baseURL + "/" + key
}

// Delete removes the blob for the key
func (s *LocalStore) Delete(key string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return ErrBlobNotFound
	}
	return err
}

// Exists reports whether a blob is stored under the key
func (s *LocalStore) Exists(key string) bool {
	_, err := os.Stat(filepath.Join(s.dir, filepath.FromSlash(key)))
	return err == nil
}
