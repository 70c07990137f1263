package fencepack

type Limits struct {
	MaxArchiveSize          uint64 // stored bytes of an input archive
	MaxEntries              int    // entries enumerated in an input archive
	MaxEntrySize            uint64 // uncompressed bytes of one matching entry
	MaxTotalUncompressed    uint64 // uncompressed bytes of all matching entries
	MaxDocumentSize         uint64 // bytes of a document given to Extract
	MaxBlocks               int    // fenced blocks tokenized from one document
	MaxDocumentUncompressed uint64 // bytes after DecompressDocument
}

func defaultLimits() Limits {
	return Limits{
		MaxArchiveSize:          1 << 30,   // 1 GiB
		MaxEntries:              100_000,
		MaxEntrySize:            64 << 20,  // 64 MiB
		MaxTotalUncompressed:    512 << 20, // 512 MiB
		MaxDocumentSize:         256 << 20, // 256 MiB
		MaxBlocks:               10_000,
		MaxDocumentUncompressed: 256 << 20,
	}
}

// DefaultLimits returns the limits applied when a field is left zero.
func DefaultLimits() Limits {
	return defaultLimits()
}

func (l Limits) withDefaults() Limits {
	d := defaultLimits()
	if l.MaxArchiveSize == 0 {
		l.MaxArchiveSize = d.MaxArchiveSize
	}
	if l.MaxEntries == 0 {
		l.MaxEntries = d.MaxEntries
	}
	if l.MaxEntrySize == 0 {
		l.MaxEntrySize = d.MaxEntrySize
	}
	if l.MaxTotalUncompressed == 0 {
		l.MaxTotalUncompressed = d.MaxTotalUncompressed
	}
	if l.MaxDocumentSize == 0 {
		l.MaxDocumentSize = d.MaxDocumentSize
	}
	if l.MaxBlocks == 0 {
		l.MaxBlocks = d.MaxBlocks
	}
	if l.MaxDocumentUncompressed == 0 {
		l.MaxDocumentUncompressed = d.MaxDocumentUncompressed
	}
	return l
}
