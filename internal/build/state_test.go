package build

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileState(t *testing.T) {
	s := &FileState{Path: filepath.Join(t.TempDir(), "sub", DefaultStateFile)}

	if _, ok, err := s.Read(); err != nil || ok {
		t.Fatalf("Read() on missing file = %v, %v", ok, err)
	}
	if err := s.Write("aarch64-unknown-linux-gnu"); err != nil {
		t.Fatal(err)
	}
	if err := s.Write("x86_64-unknown-linux-gnu"); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.Read()
	if err != nil || !ok || got != "x86_64-unknown-linux-gnu" {
		t.Errorf("Read() = %q, %v, %v", got, ok, err)
	}

	if err := os.WriteFile(s.Path, []byte("\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := s.Read(); err != nil || ok {
		t.Errorf("Read() on empty file = %v, %v", ok, err)
	}
}

func TestFileStateUnreadable(t *testing.T) {
	dir := t.TempDir()
	s := &FileState{Path: dir}
	if _, _, err := s.Read(); err == nil {
		t.Error("Read() of a directory succeeded")
	}
}

func TestMemState(t *testing.T) {
	var s MemState
	if _, ok, _ := s.Read(); ok {
		t.Error("fresh MemState has state")
	}
	s.Write("x86_64-unknown-linux-gnu")
	if got, ok, _ := s.Read(); !ok || got != "x86_64-unknown-linux-gnu" || s.Writes != 1 {
		t.Errorf("Read() = %q, %v; writes %d", got, ok, s.Writes)
	}
}
