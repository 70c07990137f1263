// Package main provides C-compatible exports for the fencepack library.
// Build with: go build -buildmode=c-shared -o fencepack.dll
package main

/*
#include <stdlib.h>
#include <stdint.h>

// Result structure for operations that return data
typedef struct {
    char* data;
    int   data_len;
    char* log;
    char* error;
} FencepackResult;
*/
import "C"

import (
	"encoding/json"
	"unsafe"

	"github.com/logicossoftware/go-fencepack"
)

func main() {}

// FencepackVersion returns the library version as a C string.
// Call FencepackFreeString on the result.
//
//export FencepackVersion
func FencepackVersion() *C.char {
	return C.CString(fencepack.Version)
}

// FencepackFreeResult frees memory allocated by other Fencepack functions.
// Must be called to avoid memory leaks.
//
//export FencepackFreeResult
func FencepackFreeResult(result C.FencepackResult) {
	if result.data != nil {
		C.free(unsafe.Pointer(result.data))
	}
	if result.log != nil {
		C.free(unsafe.Pointer(result.log))
	}
	if result.error != nil {
		C.free(unsafe.Pointer(result.error))
	}
}

// FencepackFreeString frees a C string allocated by Go.
//
//export FencepackFreeString
func FencepackFreeString(s *C.char) {
	if s != nil {
		C.free(unsafe.Pointer(s))
	}
}

type logEvent struct {
	Severity string `json:"severity"`
	Entry    string `json:"entry,omitempty"`
	Message  string `json:"message"`
}

// makeResult creates a result with data and the JSON-encoded log.
func makeResult(data []byte, l *fencepack.Log) C.FencepackResult {
	var result C.FencepackResult
	if len(data) > 0 {
		result.data = (*C.char)(C.CBytes(data))
		result.data_len = C.int(len(data))
	}
	evs := l.Events()
	out := make([]logEvent, len(evs))
	for i, ev := range evs {
		out[i] = logEvent{Severity: ev.Severity.String(), Entry: ev.Entry, Message: ev.Message}
	}
	if b, err := json.Marshal(out); err == nil {
		result.log = C.CString(string(b))
	}
	return result
}

// makeError creates a result with an error message.
func makeError(err error) C.FencepackResult {
	var result C.FencepackResult
	result.error = C.CString(err.Error())
	return result
}

// FencepackCombine concatenates the .htm.txt entries of a zip archive.
// Parameters:
//   - data: pointer to the zip archive bytes
//   - dataLen: length of the data
//   - lenient: non-zero keeps entries whose line counts disagree
//
// Returns FencepackResult with the UTF-8 document in data and the event log
// as a JSON array in log. Call FencepackFreeResult when done.
//
//export FencepackCombine
func FencepackCombine(data *C.char, dataLen C.int, lenient C.int) C.FencepackResult {
	archive := C.GoBytes(unsafe.Pointer(data), dataLen)
	policy := fencepack.PolicyStrict
	if lenient != 0 {
		policy = fencepack.PolicyLenient
	}
	res, err := fencepack.CombineArchive(archive, fencepack.WithPolicy(policy))
	if err != nil {
		return makeError(err)
	}
	return makeResult([]byte(res.Document), res.Log)
}

// FencepackExtract packs the fenced blocks of a document into a zip archive.
// Parameters:
//   - text: pointer to the UTF-8 document bytes
//   - textLen: length of the document
//   - compression: entry method (0=Store, 1=Deflate, 2=ZSTD)
//
// Returns FencepackResult with the archive in data (empty when no block was
// found) and the event log as a JSON array in log.
// Call FencepackFreeResult when done.
//
//export FencepackExtract
func FencepackExtract(text *C.char, textLen C.int, compression C.uint16_t) C.FencepackResult {
	doc, err := fencepack.DecodeDocument(C.GoBytes(unsafe.Pointer(text), textLen))
	if err != nil {
		return makeError(err)
	}
	ext, err := fencepack.ExtractFromDocument(doc,
		fencepack.WithArchiveCompression(fencepack.Compression(compression)),
	)
	if err != nil {
		return makeError(err)
	}
	return makeResult(ext.Archive, ext.Log)
}

// FencepackListBlocks returns the logical paths a document would extract to,
// as a JSON array, without building an archive. Paths pass the same
// validation and duplicate resolution as FencepackExtract.
// Call FencepackFreeString on the result.
//
//export FencepackListBlocks
func FencepackListBlocks(text *C.char, textLen C.int) *C.char {
	doc, err := fencepack.DecodeDocument(C.GoBytes(unsafe.Pointer(text), textLen))
	if err != nil {
		return nil
	}
	files := fencepack.Resolve(fencepack.Tokenize(doc, fencepack.DefaultBlockExtension), nil)
	b, err := json.Marshal(fencepack.Paths(files))
	if err != nil {
		return nil
	}
	return C.CString(string(b))
}
