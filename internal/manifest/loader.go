// Package manifest locates and reads the project's package.json.
// Only the dependency maps (plus name and version for display) are decoded,
// and their keys keep document order.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mailru/easyjson"
)

// FileName is the manifest file searched for.
const FileName = "package.json"

// ErrNotFound is returned by Find when no manifest exists within the search depth.
var ErrNotFound = errors.New("package.json not found")

var errNullManifest = errors.New("parse manifest: top-level value is null")

// ReadError reports a manifest that could not be read or parsed.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("read manifest: %v", e.Err)
	}
	return fmt.Sprintf("read manifest %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Find looks for package.json in start and then in up to depth parent
// directories. It returns the absolute path of the nearest match.
func Find(start string, depth int) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for i := 0; i <= depth; i++ {
		path := filepath.Join(dir, FileName)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%w in %s or %d parent directories", ErrNotFound, start, depth)
}

// Load reads and decodes the manifest at path. Every failure is a *ReadError.
func Load(path string) (*Manifest, error) {
	if path == "" {
		return nil, &ReadError{Err: ErrNotFound}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	m, err := loadBytes(data)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return m, nil
}

func loadBytes(data []byte) (*Manifest, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, errNullManifest
	}
	var m Manifest
	if err := easyjson.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}
