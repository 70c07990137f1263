package fencepack

import (
	"archive/zip"
	"errors"
	"io"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

type errWriter struct{}

func (errWriter) Write(p []byte) (int, error) { return 0, io.ErrClosedPipe }

func TestCompressHelpers_ErrorPaths(t *testing.T) {
	// zip Create error via injection
	origCreate := zipCreate
	zipCreate = func(_ *zip.Writer, _ *zip.FileHeader) (io.Writer, error) { return nil, io.ErrClosedPipe }
	if err := zipCompressNamed(io.Discard, documentEntryName, []byte("x")); err == nil {
		zipCreate = origCreate
		t.Fatal("expected error")
	}
	zipCreate = origCreate

	// zip entry.Write error branch: make Create succeed but return a writer that errors on Write.
	zipCreate = func(_ *zip.Writer, _ *zip.FileHeader) (io.Writer, error) { return errWriter{}, nil }
	if err := zipCompressNamed(io.Discard, documentEntryName, []byte("x")); err == nil {
		zipCreate = origCreate
		t.Fatal("expected error")
	}
	zipCreate = origCreate

	// zip Close error via injection
	origClose := zipClose
	zipClose = func(_ *zip.Writer) error { return io.ErrClosedPipe }
	if err := zipCompressNamed(io.Discard, documentEntryName, []byte("x")); err == nil {
		zipClose = origClose
		t.Fatal("expected error")
	}
	zipClose = origClose

	// zip write error
	if err := zipCompressNamed(errWriter{}, documentEntryName, []byte("x")); err == nil {
		t.Fatal("expected error")
	}
	// lz4 write error
	if err := lz4CompressTo(errWriter{}, []byte("x")); err == nil {
		t.Fatal("expected error")
	}
	// lz4 Close error via injection
	origLZ4Close := lz4Close
	lz4Close = func(_ *lz4.Writer) error { return io.ErrClosedPipe }
	if _, err := lz4Compress([]byte("x")); err == nil {
		lz4Close = origLZ4Close
		t.Fatal("expected error")
	}
	lz4Close = origLZ4Close

	// brotli write error via injection
	origBrotliWrite := brotliWrite
	brotliWrite = func(_ *brotli.Writer, _ []byte) (int, error) { return 0, io.ErrClosedPipe }
	if _, err := brotliCompress([]byte("x")); err == nil {
		brotliWrite = origBrotliWrite
		t.Fatal("expected error")
	}
	brotliWrite = origBrotliWrite

	// brotli Close error via injection
	origBrotliClose := brotliClose
	brotliClose = func(_ *brotli.Writer) error { return io.ErrClosedPipe }
	if _, err := brotliCompress([]byte("x")); err == nil {
		brotliClose = origBrotliClose
		t.Fatal("expected error")
	}
	brotliClose = origBrotliClose
}

func TestBrotliDecompress_ReadAllError(t *testing.T) {
	br, err := brotliCompress([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	origReadAll := readAll
	readAll = func(io.Reader) ([]byte, error) { return nil, io.ErrUnexpectedEOF }
	defer func() { readAll = origReadAll }()
	if _, err := brotliDecompress(br, 100); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestZstdConstructorInjection(t *testing.T) {
	origW := newZstdWriter
	newZstdWriter = func() (*zstd.Encoder, error) { return nil, io.ErrClosedPipe }
	if _, err := CompressDocument(CompZSTD, []byte("x")); err == nil {
		newZstdWriter = origW
		t.Fatal("expected error")
	}
	newZstdWriter = origW

	origR := newZstdReader
	newZstdReader = func(io.Reader) (*zstd.Decoder, error) { return nil, io.ErrClosedPipe }
	if _, err := DecompressDocument(CompZSTD, []byte("x"), 10); err == nil {
		newZstdReader = origR
		t.Fatal("expected error")
	}
	newZstdReader = origR
}

func TestReadEntries_OpenErrorIsLogged(t *testing.T) {
	archive := buildZip(t, zip.Deflate,
		zipEntry{name: "a.htm.txt", data: "one"},
		zipEntry{name: "b.htm.txt", data: "two"},
	)
	origOpen := zipOpen
	calls := 0
	zipOpen = func(zf *zip.File) (io.ReadCloser, error) {
		calls++
		if calls == 1 {
			return nil, io.ErrUnexpectedEOF
		}
		return zf.Open()
	}
	defer func() { zipOpen = origOpen }()

	log := NewLog(nil)
	entries, err := ReadEntries(archive, DefaultSuffix, Limits{}, log)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name != "b.htm.txt" {
		t.Fatalf("unexpected entries: %#v", entries)
	}
	evs := log.Events()
	if len(evs) != 1 || !errors.Is(evs[0].Err, ErrIO) || evs[0].Severity != SeverityError {
		t.Fatalf("expected one i/o error event, got %#v", evs)
	}
}

func TestBuildArchive_WriterErrors(t *testing.T) {
	files := []ExtractedFile{{LogicalPath: "dir/a.txt", Content: "x"}}

	origCreate := zipCreate
	zipCreate = func(_ *zip.Writer, _ *zip.FileHeader) (io.Writer, error) { return nil, io.ErrClosedPipe }
	if _, _, err := BuildArchive(files, CompZIP, nil); !errors.Is(err, ErrIO) {
		zipCreate = origCreate
		t.Fatalf("expected ErrIO, got %v", err)
	}
	zipCreate = origCreate

	zipCreate = func(zw *zip.Writer, fh *zip.FileHeader) (io.Writer, error) {
		if fh.Name == "dir/a.txt" {
			return errWriter{}, nil
		}
		return zw.CreateHeader(fh)
	}
	if _, _, err := BuildArchive(files, CompZIP, nil); !errors.Is(err, ErrIO) {
		zipCreate = origCreate
		t.Fatalf("expected ErrIO, got %v", err)
	}
	zipCreate = origCreate

	origClose := zipClose
	zipClose = func(_ *zip.Writer) error { return io.ErrClosedPipe }
	if _, _, err := BuildArchive(files, CompZIP, nil); !errors.Is(err, ErrIO) {
		zipClose = origClose
		t.Fatalf("expected ErrIO, got %v", err)
	}
	zipClose = origClose

	if _, _, err := BuildArchive(files, CompBR, nil); !errors.Is(err, ErrUnsupportedCompression) {
		t.Fatalf("expected ErrUnsupportedCompression, got %v", err)
	}
}
