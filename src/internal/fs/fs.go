// Package fs wraps filesystem operations used across the orchestrator and
// worker so that callers can be tested without touching a real disk.
package fs

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/fx"
)

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// LsproxyFS wraps the filesystem operations used by lsproxy.
type LsproxyFS interface {
	DirExists(path string) (bool, error)
	FileExists(path string) (bool, error)
	Open(name string) (*os.File, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data string) error

	// WalkExtensions walks root recursively and returns the set of distinct
	// lowercase file extensions (including the leading dot) found under it.
	// Nothing is excluded by .gitignore; every file on disk is considered,
	// matching spec's "lists everything" language-detection rule.
	WalkExtensions(root string) (map[string]bool, error)

	// AnyFileMatches walks root recursively and reports whether any file
	// whose name matches namePattern (filepath.Match syntax) either exists
	// as a directory (when dirOnly is true) or contains substr in its
	// contents (when dirOnly is false).
	AnyFileMatches(root, namePattern, substr string, dirOnly bool) (bool, error)
}

type fsImpl struct{}

// New creates a new LsproxyFS.
func New() LsproxyFS {
	return fsImpl{}
}

// ReadDir reads all the items in a directory (non-recursive).
func (fsImpl) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(name)
}

// Open opens a file for reading.
func (fsImpl) Open(name string) (*os.File, error) {
	return os.Open(name)
}

func (fsImpl) DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

func (fsImpl) FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

func (fsImpl) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (fsImpl) WriteFile(name string, data string) error {
	return os.WriteFile(name, []byte(data), 0644)
}

func (fsImpl) AnyFileMatches(root, namePattern, substr string, dirOnly bool) (bool, error) {
	found := false
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || found {
			return nil
		}
		match, _ := filepath.Match(namePattern, d.Name())
		if !match {
			return nil
		}
		if dirOnly {
			if d.IsDir() {
				found = true
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err == nil && (substr == "" || strings.Contains(string(data), substr)) {
			found = true
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

func (fsImpl) WalkExtensions(root string) (map[string]bool, error) {
	found := make(map[string]bool)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// A single unreadable entry should not abort the whole scan.
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext != "" {
			found[ext] = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}
