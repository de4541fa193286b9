// Package attachment stores uploaded photo files under one directory.
//
// Stored names have the form <base>_<16 hex chars><ext>, where base and ext
// come from the uploaded file name. Only the stored name is persisted in a
// record; the directory is the single source of the file bytes.
package attachment

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/garnizeh/staffdir/pkg/apperror"
)

const suffixBytes = 8

// ErrInvalidName is returned for stored names that would escape the directory.
var ErrInvalidName = errors.New("invalid attachment name")

// Manager owns the attachment directory.
type Manager struct {
	dir    string
	logger *slog.Logger
}

func New(dir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{dir: dir, logger: logger}
}

// Dir returns the attachment directory.
func (m *Manager) Dir() string { return m.dir }

// EnsureDir creates the attachment directory if it does not exist.
func (m *Manager) EnsureDir() error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return &apperror.StorageIOError{Op: "mkdir", Name: m.dir, Err: err}
	}
	return nil
}

// Check reports whether the attachment directory exists and is a directory.
func (m *Manager) Check(ctx context.Context) error {
	info, err := os.Stat(m.dir)
	if err != nil {
		return &apperror.StorageIOError{Op: "stat", Name: m.dir, Err: err}
	}
	if !info.IsDir() {
		return &apperror.StorageIOError{Op: "stat", Name: m.dir, Err: fmt.Errorf("not a directory")}
	}
	return nil
}

// Store writes data under a new unique name derived from originalName and
// returns that name. An existing file is never overwritten.
func (m *Manager) Store(originalName string, data []byte) (string, error) {
	name, err := storedName(originalName)
	if err != nil {
		return "", &apperror.StorageIOError{Op: "name", Name: originalName, Err: err}
	}
	if err := m.EnsureDir(); err != nil {
		return "", err
	}

	p := filepath.Join(m.dir, name)
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", &apperror.StorageIOError{Op: "create", Name: name, Err: err}
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(p)
		return "", &apperror.StorageIOError{Op: "write", Name: name, Err: err}
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(p)
		return "", &apperror.StorageIOError{Op: "close", Name: name, Err: err}
	}

	m.logger.Info("attachment: stored", slog.String("name", name), slog.Int("bytes", len(data)))
	return name, nil
}

// Remove deletes a stored file. A file that is already gone is not an error.
func (m *Manager) Remove(name string) error {
	p, err := m.Path(name)
	if err != nil {
		return &apperror.StorageIOError{Op: "remove", Name: name, Err: err}
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &apperror.StorageIOError{Op: "remove", Name: name, Err: err}
	}

	m.logger.Info("attachment: removed", slog.String("name", name))
	return nil
}

// Exists reports whether a stored file is present.
func (m *Manager) Exists(name string) bool {
	p, err := m.Path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

// Open opens a stored file for reading.
func (m *Manager) Open(name string) (*os.File, error) {
	p, err := m.Path(name)
	if err != nil {
		return nil, &apperror.StorageIOError{Op: "open", Name: name, Err: err}
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, &apperror.StorageIOError{Op: "open", Name: name, Err: err}
	}
	return f, nil
}

// Path resolves a stored name inside the directory.
func (m *Manager) Path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(m.dir, name), nil
}

// storedName builds <base>_<hex><ext> from the uploaded name.
func storedName(originalName string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(originalName, `\`, "/"))
	if base == "." || base == "/" || base == ".." {
		base = ""
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		stem = "photo"
	}

	buf := make([]byte, suffixBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return stem + "_" + hex.EncodeToString(buf) + ext, nil
}
