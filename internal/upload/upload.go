// Package upload stores multipart image uploads on the local filesystem.
package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config captures the parameters for the upload saver.
type Config struct {
	// Dir is the directory uploaded files are written to.
	Dir string
}

// Saver writes uploaded files into a content directory under generated names.
type Saver struct {
	dir string
	now func() time.Time
}

// New creates a Saver, creating the directory if needed and verifying it is
// writable so misconfiguration fails at startup rather than on first upload.
func New(cfg Config) (*Saver, error) {
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, fmt.Errorf("upload directory is required")
	}

	info, err := os.Stat(cfg.Dir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat upload directory: %w", err)
		}
		if mkErr := os.MkdirAll(cfg.Dir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create upload directory: %w", mkErr)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("upload path is not a directory")
	}

	testFile := filepath.Join(cfg.Dir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("upload directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("clean up writability probe: %w", err)
	}

	return &Saver{dir: cfg.Dir, now: time.Now}, nil
}

// Save writes the upload to disk and returns the generated filename. The
// name is the current unix-millisecond timestamp joined to the sanitized
// original name, so repeated uploads of the same file never collide.
func (s *Saver) Save(originalName string, r io.Reader) (string, error) {
	name := sanitizeName(originalName)
	if name == "" {
		return "", fmt.Errorf("upload has no usable filename")
	}
	filename := fmt.Sprintf("%d-%s", s.now().UnixMilli(), name)

	fullPath := filepath.Join(s.dir, filename)
	cleanDir := filepath.Clean(s.dir)
	if !strings.HasPrefix(filepath.Clean(fullPath), cleanDir+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected")
	}

	f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(fullPath)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close upload file: %w", err)
	}
	return filename, nil
}

// sanitizeName strips any client-supplied path components and whitespace.
// Browsers send a bare filename but nothing forces other clients to.
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.TrimSpace(name)
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}
