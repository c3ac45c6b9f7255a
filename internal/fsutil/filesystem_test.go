package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_WriteFileReplaces(t *testing.T) {
	osfs := OSFileSystem{}
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")

	if err := osfs.WriteFile(path, []byte("name: a\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := osfs.WriteFile(path, []byte("name: b\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := osfs.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "name: b\n" {
		t.Errorf("got %q", data)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected no temporary files left behind, got %d entries", len(entries))
	}

	if !osfs.IsDir(dir) || osfs.IsDir(path) {
		t.Error("IsDir mismatch")
	}
	if !osfs.Exists(path) {
		t.Error("expected file to exist")
	}
	if err := osfs.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if osfs.Exists(path) {
		t.Error("expected file removed")
	}
}

func TestMemoryFileSystem_WriteAndRead(t *testing.T) {
	mfs := NewMemoryFileSystem()

	if err := mfs.WriteFile("/profiles/1/profile.yaml", []byte("x"), 0644); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected missing parent error, got %v", err)
	}

	if err := mfs.MkdirAll("/profiles/1", 0755); err != nil {
		t.Fatal(err)
	}
	if err := mfs.WriteFile("/profiles/1/profile.yaml", []byte("hello"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := mfs.ReadFile("/profiles/1/profile.yaml")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("got %q", data)
	}

	info, err := mfs.Stat("/profiles/1/profile.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 5 || info.IsDir() {
		t.Errorf("unexpected stat: size=%d dir=%v", info.Size(), info.IsDir())
	}

	if !mfs.IsDir("/profiles") || !mfs.IsDir("/profiles/1") {
		t.Error("expected parent directories to be created")
	}
}

func TestMemoryFileSystem_RemoveAll(t *testing.T) {
	mfs := NewMemoryFileSystem()
	_ = mfs.MkdirAll("/profiles/1", 0755)
	_ = mfs.MkdirAll("/profiles/10", 0755)
	_ = mfs.WriteFile("/profiles/1/a.obj", []byte("a"), 0644)
	_ = mfs.WriteFile("/profiles/10/b.obj", []byte("b"), 0644)

	if err := mfs.RemoveAll("/profiles/1"); err != nil {
		t.Fatal(err)
	}

	if mfs.Exists("/profiles/1") || mfs.Exists("/profiles/1/a.obj") {
		t.Error("expected /profiles/1 removed")
	}
	if !mfs.Exists("/profiles/10/b.obj") {
		t.Error("sibling with shared prefix must survive")
	}
	if got := mfs.Files(); len(got) != 1 || got[0] != "/profiles/10/b.obj" {
		t.Errorf("Files() = %v", got)
	}

	if _, err := mfs.Stat("/missing"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}
