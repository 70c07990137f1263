// Package output writes conversion results to disk.
package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/logicossoftware/go-fencepack"
)

// WriteFileAtomic writes data to path by writing a uniquely named temporary
// file in the same directory, fsyncing, and renaming it into place.
// Concurrent writers never share a temporary file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Unpack writes files below dir, creating directories as needed.
// Every logical path is re-checked so a file can never land outside dir.
func Unpack(dir string, files []fencepack.ExtractedFile) ([]string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	var written []string
	for _, f := range files {
		target, err := SafeJoin(root, f.LogicalPath)
		if err != nil {
			return written, err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return written, err
		}
		if err := WriteFileAtomic(target, []byte(f.Content), 0o644); err != nil {
			return written, err
		}
		written = append(written, target)
	}
	return written, nil
}

// SafeJoin joins a slash-separated logical path onto base and fails with
// fencepack.ErrPathTraversal if the result escapes base.
func SafeJoin(base, logical string) (string, error) {
	base = filepath.Clean(base)
	target := filepath.Join(base, filepath.FromSlash(logical))
	rel, err := filepath.Rel(base, target)
	if err != nil || rel == "." || rel == ".." || filepath.IsAbs(rel) || len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator) {
		return "", fmt.Errorf("%w: %q escapes %s", fencepack.ErrPathTraversal, logical, base)
	}
	return target, nil
}
