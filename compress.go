package fencepack

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Function variables for testing injection.
var (
	newZstdWriter = func() (*zstd.Encoder, error) { return zstd.NewWriter(nil) }
	newZstdReader = func(r io.Reader) (*zstd.Decoder, error) { return zstd.NewReader(r) }
	zipCreate     = func(zw *zip.Writer, fh *zip.FileHeader) (io.Writer, error) { return zw.CreateHeader(fh) }
	zipClose      = func(zw *zip.Writer) error { return zw.Close() }
	zipOpen       = func(zf *zip.File) (io.ReadCloser, error) { return zf.Open() }
	readAll       = io.ReadAll
	lz4Close      = func(w *lz4.Writer) error { return w.Close() }
	brotliClose   = func(w *brotli.Writer) error { return w.Close() }
	brotliWrite   = func(w *brotli.Writer, p []byte) (int, error) { return w.Write(p) }
)

// documentEntryName is the single entry of a ZIP-compressed document.
const documentEntryName = "document.txt"

func (c Compression) String() string {
	switch c {
	case CompNone:
		return "none"
	case CompZIP:
		return "zip"
	case CompZSTD:
		return "zstd"
	case CompLZ4:
		return "lz4"
	case CompBR:
		return "br"
	default:
		return "unknown"
	}
}

// ParseCompression maps a name ("none", "store", "zip", "deflate", "zstd",
// "lz4", "br", "brotli") to a Compression.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "store":
		return CompNone, nil
	case "zip", "deflate":
		return CompZIP, nil
	case "zstd", "zst":
		return CompZSTD, nil
	case "lz4":
		return CompLZ4, nil
	case "br", "brotli":
		return CompBR, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedCompression, s)
}

// CompressionForName picks a document compression from a file name extension.
func CompressionForName(name string) Compression {
	switch strings.ToLower(path.Ext(name)) {
	case ".zip":
		return CompZIP
	case ".zst", ".zstd":
		return CompZSTD
	case ".lz4":
		return CompLZ4
	case ".br":
		return CompBR
	default:
		return CompNone
	}
}

// zipMethod maps a Compression to a zip entry method.
func zipMethod(comp Compression) (uint16, error) {
	switch comp {
	case CompNone:
		return zip.Store, nil
	case CompZIP:
		return zip.Deflate, nil
	case CompZSTD:
		return zstd.ZipMethodWinZip, nil
	default:
		return 0, fmt.Errorf("%w: %s is not a zip entry method", ErrUnsupportedCompression, comp)
	}
}

// newZipWriter returns a zip writer that deflates with klauspost/compress
// and understands Zstandard entries.
func newZipWriter(w io.Writer) *zip.Writer {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})
	zw.RegisterCompressor(zstd.ZipMethodWinZip, zstd.ZipCompressor())
	return zw
}

// newZipReader opens zipBytes with the same method set as newZipWriter.
func newZipReader(zipBytes []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return nil, err
	}
	zr.RegisterDecompressor(zip.Deflate, flate.NewReader)
	zr.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())
	return zr, nil
}

// readZipFile reads at most max bytes of zf.
func readZipFile(zf *zip.File, max uint64) ([]byte, error) {
	if zf.UncompressedSize64 > max {
		return nil, fmt.Errorf("%w: entry size %d exceeds %d", ErrLimitExceeded, zf.UncompressedSize64, max)
	}
	rc, err := zipOpen(zf)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	b, err := readAll(io.LimitReader(rc, int64(max)+1))
	if err != nil {
		return nil, err
	}
	if uint64(len(b)) > max {
		return nil, fmt.Errorf("%w: entry expanded beyond %d bytes", ErrLimitExceeded, max)
	}
	return b, nil
}

// CompressDocument compresses a consolidated document for storage or transfer.
// CompNone returns in unchanged.
func CompressDocument(comp Compression, in []byte) ([]byte, error) {
	switch comp {
	case CompNone:
		return in, nil
	case CompZIP:
		var buf bytes.Buffer
		if err := zipCompressNamed(&buf, documentEntryName, in); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompZSTD:
		return zstdCompress(in)
	case CompLZ4:
		return lz4Compress(in)
	case CompBR:
		return brotliCompress(in)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedCompression, comp)
	}
}

// DecompressDocument reverses CompressDocument.
// It rejects output larger than max bytes to guard against decompression bombs.
func DecompressDocument(comp Compression, in []byte, max uint64) ([]byte, error) {
	if max == 0 {
		max = defaultLimits().MaxDocumentUncompressed
	}
	var out []byte
	var err error
	switch comp {
	case CompNone:
		if uint64(len(in)) > max {
			return nil, fmt.Errorf("%w: document size %d exceeds %d", ErrLimitExceeded, len(in), max)
		}
		return in, nil
	case CompZIP:
		out, err = zipDecompress(in, max)
	case CompZSTD:
		out, err = zstdDecompress(in, max)
	case CompLZ4:
		out, err = lz4Decompress(in, max)
	case CompBR:
		out, err = brotliDecompress(in, max)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedCompression, comp)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// zipCompressNamed creates a ZIP archive with a single deflated entry.
func zipCompressNamed(w io.Writer, name string, in []byte) error {
	zw := newZipWriter(w)
	entry, err := zipCreate(zw, &zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		_ = zipClose(zw)
		return err
	}
	if _, err := entry.Write(in); err != nil {
		_ = zipClose(zw)
		return err
	}
	return zipClose(zw)
}

// zipDecompress extracts the single file entry of a ZIP archive.
func zipDecompress(zipBytes []byte, max uint64) ([]byte, error) {
	zr, err := newZipReader(zipBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if len(zr.File) != 1 {
		return nil, fmt.Errorf("%w: zip must contain exactly one entry", ErrInvalidPayload)
	}
	zf := zr.File[0]
	if zf.FileInfo().IsDir() {
		return nil, fmt.Errorf("%w: zip entry must be a file", ErrInvalidPayload)
	}
	return readZipFile(zf, max)
}

// zstdCompress compresses in using the Zstandard algorithm.
func zstdCompress(in []byte) ([]byte, error) {
	enc, err := newZstdWriter()
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(in, nil), nil
}

// zstdDecompress streams Zstandard data, stopping one byte past max.
func zstdDecompress(in []byte, max uint64) ([]byte, error) {
	dec, err := newZstdReader(bytes.NewReader(in))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	b, err := readAll(io.LimitReader(dec, int64(max)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrInvalidPayload, err)
	}
	if uint64(len(b)) > max {
		return nil, fmt.Errorf("%w: zstd expanded beyond %d bytes", ErrLimitExceeded, max)
	}
	return b, nil
}

// lz4Compress compresses in using the LZ4 frame format.
func lz4Compress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := lz4CompressTo(&buf, in); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// lz4CompressTo writes LZ4-compressed data to w.
func lz4CompressTo(w io.Writer, in []byte) error {
	zw := lz4.NewWriter(w)
	if _, err := zw.Write(in); err != nil {
		_ = lz4Close(zw)
		return err
	}
	return lz4Close(zw)
}

// lz4Decompress uses a LimitReader to stop decompression one byte past max.
func lz4Decompress(in []byte, max uint64) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(in))
	b, err := readAll(io.LimitReader(r, int64(max)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: lz4: %v", ErrInvalidPayload, err)
	}
	if uint64(len(b)) > max {
		return nil, fmt.Errorf("%w: lz4 expanded beyond %d bytes", ErrLimitExceeded, max)
	}
	return b, nil
}

// brotliCompress compresses in using the Brotli algorithm.
func brotliCompress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := brotliCompressTo(&buf, in); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// brotliCompressTo writes Brotli-compressed data to w.
func brotliCompressTo(w io.Writer, in []byte) error {
	bw := brotli.NewWriter(w)
	if _, err := brotliWrite(bw, in); err != nil {
		_ = brotliClose(bw)
		return err
	}
	return brotliClose(bw)
}

// brotliDecompress uses a LimitReader to stop decompression one byte past max.
func brotliDecompress(in []byte, max uint64) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(in))
	b, err := readAll(io.LimitReader(r, int64(max)+1))
	if err != nil {
		return nil, fmt.Errorf("%w: brotli: %v", ErrInvalidPayload, err)
	}
	if uint64(len(b)) > max {
		return nil, fmt.Errorf("%w: brotli expanded beyond %d bytes", ErrLimitExceeded, max)
	}
	return b, nil
}
