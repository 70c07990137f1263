package main

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/logicossoftware/go-fencepack"
)

func captureOutput(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	oldOut, oldErr := stdout, stderr
	stdout, stderr = &out, &errOut
	t.Cleanup(func() { stdout, stderr = oldOut, oldErr })
	return &out, &errOut
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	return newApp().Run(context.Background(), append([]string{"fencepack"}, args...))
}

func writeZip(t *testing.T, path string, entries ...[2]string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e[0])
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if _, err := w.Write([]byte(e[1])); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestCombineCommand(t *testing.T) {
	out, _ := captureOutput(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.zip")
	writeZip(t, in, [2]string{"docs/a.htm.txt", "one\n"}, [2]string{"b.htm.txt", "two\n"})
	dst := filepath.Join(dir, "doc.txt")

	if err := run(t, "combine", "-o", dst, in); err != nil {
		t.Fatalf("combine: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "a.htm\n---\none\n---\n\nb.htm\n---\ntwo\n---\n\n"
	if string(got) != want {
		t.Fatalf("document=%q want %q", got, want)
	}
	if !strings.Contains(out.String(), "combined 2 sections") {
		t.Fatalf("stdout=%q", out.String())
	}
}

func TestCombineCommandCompressedOutput(t *testing.T) {
	captureOutput(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.zip")
	writeZip(t, in, [2]string{"a.htm.txt", "one"})
	dst := filepath.Join(dir, "doc.txt.zst")

	if err := run(t, "combine", "-o", dst, in); err != nil {
		t.Fatalf("combine: %v", err)
	}
	raw, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	plain, err := fencepack.DecompressDocument(fencepack.CompZSTD, raw, 0)
	if err != nil {
		t.Fatalf("DecompressDocument: %v", err)
	}
	if string(plain) != "a.htm\n---\none\n---\n\n" {
		t.Fatalf("document=%q", plain)
	}
}

func TestCombineCommandStdoutAndLog(t *testing.T) {
	out, errOut := captureOutput(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.zip")
	writeZip(t, in, [2]string{"ok.htm.txt", "fine"}, [2]string{"bad.htm.txt", "x\ry"})

	if err := run(t, "combine", "--out=-", in); err != nil {
		t.Fatalf("combine: %v", err)
	}
	if out.String() != "ok.htm\n---\nfine\n---\n\n" {
		t.Fatalf("stdout=%q", out.String())
	}
	if n := strings.Count(errOut.String(), "inconsistent line count"); n != 1 {
		t.Fatalf("expected the warning once on stderr, got %d: %q", n, errOut.String())
	}
	if !strings.Contains(errOut.String(), "[warning]") {
		t.Fatalf("stderr=%q", errOut.String())
	}
}

func TestCombineCommandLenient(t *testing.T) {
	out, _ := captureOutput(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.zip")
	writeZip(t, in, [2]string{"bad.htm.txt", "x\ry"})

	if err := run(t, "combine", "--policy", "lenient", "--out=-", in); err != nil {
		t.Fatalf("combine: %v", err)
	}
	if !strings.Contains(out.String(), "bad.htm\n---\n") {
		t.Fatalf("stdout=%q", out.String())
	}
}

func TestCombineCommandErrors(t *testing.T) {
	captureOutput(t)
	dir := t.TempDir()
	if err := run(t, "combine"); err == nil {
		t.Fatalf("expected error for missing argument")
	}
	notZip := filepath.Join(dir, "x.zip")
	if err := os.WriteFile(notZip, []byte("notzip"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := run(t, "combine", "--out=-", notZip); err == nil {
		t.Fatalf("expected error for non-zip input")
	}
	in := filepath.Join(dir, "in.zip")
	writeZip(t, in, [2]string{"a.htm.txt", "a"})
	err := run(t, "combine", "--policy", "sloppy", in)
	if err == nil || !strings.Contains(err.Error(), "--policy") {
		t.Fatalf("expected --policy error, got %v", err)
	}
}

func TestExtractCommand(t *testing.T) {
	out, _ := captureOutput(t)
	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.md")
	text := "File 1: pkg/a.go\n```go\npackage pkg\n```\n\n```\nprint(1)\n```\n"
	if err := os.WriteFile(doc, []byte(text), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	dst := filepath.Join(dir, "blocks.zip")
	unpack := filepath.Join(dir, "tree")

	if err := run(t, "extract", "-o", dst, "--unpack", unpack, doc); err != nil {
		t.Fatalf("extract: %v", err)
	}
	raw, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	if strings.Join(names, ",") != "pkg/,pkg/a.go,code_block_2.py" {
		t.Fatalf("entries=%v", names)
	}
	got, err := os.ReadFile(filepath.Join(unpack, "pkg", "a.go"))
	if err != nil {
		t.Fatalf("unpacked file: %v", err)
	}
	if string(got) != "package pkg" {
		t.Fatalf("content=%q", got)
	}
	if !strings.Contains(out.String(), "packed 2 files") {
		t.Fatalf("stdout=%q", out.String())
	}
}

func TestExtractCommandCompressedInput(t *testing.T) {
	captureOutput(t)
	dir := t.TempDir()
	packed, err := fencepack.CompressDocument(fencepack.CompBR, []byte("```\nx = 1\n```\n"))
	if err != nil {
		t.Fatalf("CompressDocument: %v", err)
	}
	doc := filepath.Join(dir, "doc.txt.br")
	if err := os.WriteFile(doc, packed, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	unpack := filepath.Join(dir, "tree")
	if err := run(t, "extract", "--unpack", unpack, "--ext", ".txt", doc); err != nil {
		t.Fatalf("extract: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(unpack, "code_block_1.txt"))
	if err != nil {
		t.Fatalf("unpacked file: %v", err)
	}
	if string(got) != "x = 1" {
		t.Fatalf("content=%q", got)
	}
}

func TestExtractCommandNoBlocks(t *testing.T) {
	_, errOut := captureOutput(t)
	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(doc, []byte("prose only"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	dst := filepath.Join(dir, "out.zip")
	if err := run(t, "extract", "-o", dst, doc); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatalf("expected no archive, stat err=%v", err)
	}
	if n := strings.Count(errOut.String(), "no code blocks"); n != 1 {
		t.Fatalf("expected the event once on stderr, got %d: %q", n, errOut.String())
	}
}

func TestExtractCommandBadMethod(t *testing.T) {
	captureOutput(t)
	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(doc, []byte("```\nx\n```\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := run(t, "extract", "--method", "lz4", "-o", filepath.Join(dir, "o.zip"), doc); err == nil {
		t.Fatalf("expected error for lz4 entry method")
	}
}

func TestConfigFile(t *testing.T) {
	out, _ := captureOutput(t)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "fencepack.yaml")
	if err := os.WriteFile(cfgPath, []byte("combine:\n  suffix: .md\n  strip-suffix: .md\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	in := filepath.Join(dir, "in.zip")
	writeZip(t, in, [2]string{"notes.md", "hello"}, [2]string{"a.htm.txt", "skip"})

	if err := run(t, "--config", cfgPath, "combine", "--out=-", in); err != nil {
		t.Fatalf("combine: %v", err)
	}
	if out.String() != "notes\n---\nhello\n---\n\n" {
		t.Fatalf("stdout=%q", out.String())
	}
}
