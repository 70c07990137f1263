package fencepack

import (
	"fmt"
	"strings"
)

// ReadEntries opens archive and returns, in archive order, the file entries
// whose name ends with suffix. Directory markers and non-matching entries are
// never read.
//
// A buffer that is not a zip archive fails with ErrArchiveOpen and exceeding
// MaxArchiveSize or MaxEntries fails with ErrLimitExceeded; both are fatal.
// An entry that cannot be read, or that exceeds MaxEntrySize, is recorded in
// log and skipped.
func ReadEntries(archive []byte, suffix string, limits Limits, log *Log) ([]RawEntry, error) {
	limits = limits.withDefaults()
	if log == nil {
		log = NewLog(nil)
	}
	if uint64(len(archive)) > limits.MaxArchiveSize {
		return nil, fmt.Errorf("%w: archive size %d exceeds %d", ErrLimitExceeded, len(archive), limits.MaxArchiveSize)
	}
	zr, err := newZipReader(archive)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchiveOpen, err)
	}
	if len(zr.File) > limits.MaxEntries {
		return nil, fmt.Errorf("%w: %d entries exceeds %d", ErrLimitExceeded, len(zr.File), limits.MaxEntries)
	}

	var out []RawEntry
	var total uint64
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() || strings.HasSuffix(zf.Name, "/") {
			continue
		}
		if !strings.HasSuffix(zf.Name, suffix) {
			continue
		}
		b, err := readZipFile(zf, limits.MaxEntrySize)
		if err != nil {
			cause := ErrIO
			if isLimit(err) {
				cause = ErrLimitExceeded
			}
			log.Error(zf.Name, cause, fmt.Sprintf("cannot read %s: %v", zf.Name, err))
			continue
		}
		total += uint64(len(b))
		if total > limits.MaxTotalUncompressed {
			return nil, fmt.Errorf("%w: archive expands beyond %d bytes", ErrLimitExceeded, limits.MaxTotalUncompressed)
		}
		out = append(out, RawEntry{Name: zf.Name, Bytes: b})
	}
	return out, nil
}
