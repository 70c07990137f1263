package fencepack

// Version is the library version reported by the shells.
const Version = "1.0.0"

const (
	// DefaultSuffix selects archive entries in the combine direction.
	DefaultSuffix = ".htm.txt"
	// DefaultStripSuffix is removed from an entry's base name to form its display name.
	DefaultStripSuffix = ".txt"
	// DefaultBlockExtension is appended to synthesized names of plain fenced blocks.
	DefaultBlockExtension = ".py"

	// SectionDelimiter opens and closes each section of a consolidated document.
	SectionDelimiter = "---"

	plainBlockPrefix = "code_block_"
)

type Compression uint16

const (
	CompNone Compression = 0x0
	CompZIP  Compression = 0x1
	CompZSTD Compression = 0x2
	CompLZ4  Compression = 0x3
	CompBR   Compression = 0x4
)

// Policy decides what happens to an entry whose two line counts disagree.
type Policy uint8

const (
	// PolicyStrict drops a mismatching entry and records a warning.
	PolicyStrict Policy = iota
	// PolicyLenient keeps a mismatching entry and records an informational note.
	PolicyLenient
)

func (p Policy) String() string {
	switch p {
	case PolicyStrict:
		return "strict"
	case PolicyLenient:
		return "lenient"
	default:
		return "unknown"
	}
}

// RawEntry is one named byte sequence read from an archive.
type RawEntry struct {
	Name  string
	Bytes []byte
}

// ValidatedText is a RawEntry that decoded as UTF-8.
//
// LineCount is the logical line count. Consistent reports whether it agreed
// with the newline count; it is only false for entries kept under PolicyLenient.
type ValidatedText struct {
	SourceName  string
	DisplayName string
	Text        string
	LineCount   int
	Consistent  bool
}

// ExtractedFile is one fenced block recovered from a document.
type ExtractedFile struct {
	LogicalPath string
	Content     string
}

// Section is one (display name, body) pair of a consolidated document.
type Section struct {
	Name string
	Body string
}

// Combined is the result of CombineArchive.
type Combined struct {
	Document string
	Sections []Section
	Log      *Log
}

// Extraction is the result of ExtractFromDocument.
//
// Paths is ordered by first appearance; when a path repeats, Files holds the
// content of its last occurrence.
type Extraction struct {
	Archive []byte
	Paths   []string
	Files   []ExtractedFile
	Log     *Log
}

// Empty reports whether no file was extracted.
func (e *Extraction) Empty() bool {
	return e == nil || len(e.Paths) == 0
}
