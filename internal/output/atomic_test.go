package output

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/logicossoftware/go-fencepack"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	if err := WriteFileAtomic(path, []byte("first"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Fatalf("unexpected content: %q", got)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestWriteFileAtomic_ConcurrentWritersDoNotCollide(t *testing.T) {
	dir := t.TempDir()
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- WriteFileAtomic(filepath.Join(dir, "shared.zip"), []byte("payload"), 0o644)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent write failed: %v", err)
		}
	}
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	if err := WriteFileAtomic(filepath.Join(t.TempDir(), "nope", "x"), []byte("x"), 0o644); err == nil {
		t.Fatal("expected error")
	}
}

func TestUnpack(t *testing.T) {
	dir := t.TempDir()
	files := []fencepack.ExtractedFile{
		{LogicalPath: "a.txt", Content: "hello"},
		{LogicalPath: "nested/dir/b.txt", Content: "world"},
	}
	written, err := Unpack(dir, files)
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 2 {
		t.Fatalf("unexpected written list: %v", written)
	}
	got, err := os.ReadFile(filepath.Join(dir, "nested", "dir", "b.txt"))
	if err != nil || string(got) != "world" {
		t.Fatalf("unexpected content %q, %v", got, err)
	}
}

func TestSafeJoin(t *testing.T) {
	base := t.TempDir()
	if _, err := SafeJoin(base, "ok/file.txt"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, p := range []string{"../x", "a/../../x", "..", "", "."} {
		if _, err := SafeJoin(base, p); !errors.Is(err, fencepack.ErrPathTraversal) {
			t.Fatalf("%q: expected ErrPathTraversal, got %v", p, err)
		}
	}
}
