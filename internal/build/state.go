package build

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
)

// DefaultStateFile holds the triple of the last successful invocation,
// relative to the workspace root.
const DefaultStateFile = ".pjbuild-target"

// StateStore persists the triple of the previous successful invocation.
type StateStore interface {
	// Read returns the stored triple. ok is false when nothing was stored.
	Read() (triple string, ok bool, err error)
	// Write replaces the stored triple.
	Write(triple string) error
}

// FileState stores the triple in a single file. A missing or empty file
// means no prior state.
type FileState struct {
	Path string
}

func (s *FileState) Read() (string, bool, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return "", false, nil
	}
	return string(data), true, nil
}

// Write truncates the file and writes triple, creating parent directories.
func (s *FileState) Write(triple string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.Path, []byte(triple), 0o644)
}

// MemState keeps the triple in memory.
type MemState struct {
	mu     sync.Mutex
	triple string
	set    bool
	Writes int
}

func (s *MemState) Read() (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.triple, s.set && s.triple != "", nil
}

func (s *MemState) Write(triple string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triple, s.set = triple, true
	s.Writes++
	return nil
}
