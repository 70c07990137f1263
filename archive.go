package fencepack

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// BuildArchive writes files into a new zip archive using comp as the entry
// method and returns the archive together with the files actually written,
// in order of first appearance.
//
// Paths are resolved last-write-wins: a repeated logical path keeps the
// position of its first occurrence and the content of its last, and the
// replacement is recorded as a warning. A path that is absolute, contains a
// parent-directory segment (ErrPathTraversal), is otherwise malformed, or
// collides with a directory of another entry (ErrInvalidPath) is recorded as
// an error and skipped. A path that is merely unnormalized ("./a", "a//b") is
// stored in its cleaned form with an info event. Intermediate directories get
// their own entries.
//
// When no file survives, the returned archive is nil.
func BuildArchive(files []ExtractedFile, comp Compression, log *Log) ([]byte, []ExtractedFile, error) {
	if log == nil {
		log = NewLog(nil)
	}
	method, err := zipMethod(comp)
	if err != nil {
		return nil, nil, err
	}

	kept := resolveFiles(files, log)
	if len(kept) == 0 {
		return nil, nil, nil
	}

	var buf bytes.Buffer
	zw := newZipWriter(&buf)
	dirs := make(map[string]struct{})
	for _, f := range kept {
		for _, dir := range parentDirs(f.LogicalPath) {
			if _, ok := dirs[dir]; ok {
				continue
			}
			dirs[dir] = struct{}{}
			if _, err := zipCreate(zw, &zip.FileHeader{Name: dir + "/", Method: zip.Store}); err != nil {
				_ = zipClose(zw)
				return nil, nil, fmt.Errorf("%w: create %s/: %v", ErrIO, dir, err)
			}
		}
		w, err := zipCreate(zw, &zip.FileHeader{Name: f.LogicalPath, Method: method})
		if err != nil {
			_ = zipClose(zw)
			return nil, nil, fmt.Errorf("%w: create %s: %v", ErrIO, f.LogicalPath, err)
		}
		if _, err := w.Write([]byte(f.Content)); err != nil {
			_ = zipClose(zw)
			return nil, nil, fmt.Errorf("%w: write %s: %v", ErrIO, f.LogicalPath, err)
		}
	}
	if err := zipClose(zw); err != nil {
		return nil, nil, fmt.Errorf("%w: finish archive: %v", ErrIO, err)
	}
	return buf.Bytes(), kept, nil
}

// Resolve applies the path rules of BuildArchive to files without writing an
// archive and returns the files that would be written, in order.
func Resolve(files []ExtractedFile, log *Log) []ExtractedFile {
	if log == nil {
		log = NewLog(nil)
	}
	return resolveFiles(files, log)
}

// resolveFiles validates and normalizes paths and applies last-write-wins.
func resolveFiles(files []ExtractedFile, log *Log) []ExtractedFile {
	var kept []ExtractedFile
	index := make(map[string]int, len(files))
	dirs := make(map[string]string)
	for _, f := range files {
		clean, err := normalizeLogicalPath(f.LogicalPath)
		if err != nil {
			log.Error(f.LogicalPath, err, fmt.Sprintf("skipped %q: %v", f.LogicalPath, err))
			continue
		}
		if clean != f.LogicalPath {
			log.Info(f.LogicalPath, fmt.Sprintf("path %q stored as %s", f.LogicalPath, clean))
			f.LogicalPath = clean
		}
		if i, ok := index[f.LogicalPath]; ok {
			kept[i].Content = f.Content
			log.Warn(f.LogicalPath, nil, fmt.Sprintf("duplicate path %s: later block replaces earlier one", f.LogicalPath))
			continue
		}
		if owner, ok := dirs[f.LogicalPath]; ok {
			log.Error(f.LogicalPath, ErrInvalidPath, fmt.Sprintf("skipped %q: already a directory of %s", f.LogicalPath, owner))
			continue
		}
		if conflict := fileAsParent(f.LogicalPath, index); conflict != "" {
			log.Error(f.LogicalPath, ErrInvalidPath, fmt.Sprintf("skipped %q: parent %s is a file", f.LogicalPath, conflict))
			continue
		}
		for _, d := range parentDirs(f.LogicalPath) {
			if _, ok := dirs[d]; !ok {
				dirs[d] = f.LogicalPath
			}
		}
		index[f.LogicalPath] = len(kept)
		kept = append(kept, f)
	}
	return kept
}

func fileAsParent(p string, files map[string]int) string {
	for _, d := range parentDirs(p) {
		if _, ok := files[d]; ok {
			return d
		}
	}
	return ""
}

// parentDirs lists the ancestors of a slash-separated path, outermost first.
func parentDirs(p string) []string {
	var out []string
	for i := 0; i < len(p); i++ {
		if p[i] == '/' {
			out = append(out, p[:i])
		}
	}
	return out
}

// Paths returns the logical paths of files in order.
func Paths(files []ExtractedFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.LogicalPath
	}
	return out
}
