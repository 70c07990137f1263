package fencepack

import (
	"regexp"
	"strconv"
	"strings"
)

// Block is one fenced region found by Scan.
type Block struct {
	Index   int    // 1-based position among all blocks of the document
	Number  int    // N of a "File N: path" header; 0 for plain blocks
	Path    string // header path, trimmed; empty for plain blocks
	Content string // trimmed content
	Line    int    // 1-based line of the opening fence
	Closed  bool   // false when the block ran to end of input
}

// Titled reports whether the block carried a "File N: path" header.
func (b Block) Titled() bool { return b.Path != "" }

type scanState uint8

const (
	stateScanning scanState = iota
	stateInHeader
	stateInFence
)

var headerRe = regexp.MustCompile(`^\s*File\s+(\d+)\s*:\s*(\S.*?)\s*$`)

// scanner is a line-oriented state machine over a document.
//
// scanning: a header line moves to in-header, an opening fence to in-fence,
// and a line holding fenced spans mid-line ("run ```ls``` now") yields one
// plain block per span.
// in-header: blank lines are skipped, an opening fence moves to in-fence with
// the header's path, any other line abandons the header and is rescanned.
// in-fence: a line made only of at least as many backticks as the opening
// fence closes the block; end of input closes it implicitly unless the block
// is still blank.
type scanner struct {
	state  scanState
	max    int
	blocks []Block

	headerNum  int
	headerPath string

	fenceLen  int
	fenceLine int
	body      []string

	truncated bool
}

// Scan tokenizes doc into fenced blocks, left to right, without overlap.
func Scan(doc string) []Block {
	s := scanner{}
	return s.run(doc)
}

func (s *scanner) run(doc string) []Block {
	if doc == "" {
		return nil
	}
	lines := strings.Split(doc, "\n")
	for i, raw := range lines {
		s.step(strings.TrimSuffix(raw, "\r"), i+1)
	}
	if s.state == stateInFence {
		if strings.TrimSpace(strings.Join(s.body, "\n")) != "" {
			s.emit(false)
		}
	}
	if s.max > 0 && len(s.blocks) > s.max {
		s.blocks = s.blocks[:s.max]
		s.truncated = true
	}
	return s.blocks
}

func (s *scanner) step(line string, lineNo int) {
	switch s.state {
	case stateInFence:
		if closesFence(line, s.fenceLen) {
			s.emit(true)
			return
		}
		s.body = append(s.body, line)
	case stateInHeader:
		if strings.TrimSpace(line) == "" {
			return
		}
		if n, rest, ok := openingFence(line); ok {
			s.open(n, rest, lineNo)
			return
		}
		s.clearHeader()
		s.state = stateScanning
		s.step(line, lineNo)
	default:
		if m := headerRe.FindStringSubmatch(line); m != nil {
			num, err := strconv.Atoi(m[1])
			if err == nil {
				s.headerNum = num
				s.headerPath = m[2]
				s.state = stateInHeader
				return
			}
		}
		if n, rest, ok := openingFence(line); ok {
			s.open(n, rest, lineNo)
			return
		}
		for _, span := range inlineSpans(line) {
			s.fenceLine = lineNo
			s.body = append(s.body[:0], span)
			s.emit(true)
		}
	}
}

// open starts a block. A fence closed on its own line ("```x```") is emitted
// immediately with the text between the markers as content.
func (s *scanner) open(fenceLen int, rest string, lineNo int) {
	s.state = stateInFence
	s.fenceLen = fenceLen
	s.fenceLine = lineNo
	s.body = s.body[:0]
	marker := strings.Repeat("`", fenceLen)
	if idx := strings.Index(rest, marker); idx >= 0 {
		s.body = append(s.body, rest[:idx])
		s.emit(true)
	}
}

func (s *scanner) emit(closed bool) {
	s.blocks = append(s.blocks, Block{
		Index:   len(s.blocks) + 1,
		Number:  s.headerNum,
		Path:    s.headerPath,
		Content: strings.TrimSpace(strings.Join(s.body, "\n")),
		Line:    s.fenceLine,
		Closed:  closed,
	})
	s.body = s.body[:0]
	s.clearHeader()
	s.state = stateScanning
}

func (s *scanner) clearHeader() {
	s.headerNum = 0
	s.headerPath = ""
}

// openingFence reports whether line opens a fence, returning the backtick run
// length and the remainder of the line (the discarded language tag).
func openingFence(line string) (int, string, bool) {
	t := strings.TrimLeft(line, " \t")
	n := backtickRun(t)
	if n < 3 {
		return 0, "", false
	}
	return n, t[n:], true
}

// inlineSpans returns the text between paired runs of three or more
// backticks on a single line, left to right. An unpaired run is ignored.
func inlineSpans(line string) []string {
	var out []string
	for i := 0; i < len(line); {
		n := backtickRun(line[i:])
		if n < 3 {
			i += max(n, 1)
			continue
		}
		start := i + n
		end := -1
		for j := start; j < len(line); {
			m := backtickRun(line[j:])
			if m >= n {
				end = j
				break
			}
			j += max(m, 1)
		}
		if end < 0 {
			break
		}
		out = append(out, line[start:end])
		i = end + backtickRun(line[end:])
	}
	return out
}

func closesFence(line string, fenceLen int) bool {
	t := strings.TrimSpace(line)
	return t != "" && backtickRun(t) == len(t) && len(t) >= fenceLen
}

func backtickRun(s string) int {
	n := 0
	for n < len(s) && s[n] == '`' {
		n++
	}
	return n
}

// Tokenize scans doc and derives a logical path for every block: the header
// path for titled blocks, code_block_<Index><ext> for plain ones. Duplicate
// paths are preserved in order; BuildArchive resolves them.
func Tokenize(doc, ext string) []ExtractedFile {
	return filesFromBlocks(Scan(doc), ext)
}

func filesFromBlocks(blocks []Block, ext string) []ExtractedFile {
	if len(blocks) == 0 {
		return nil
	}
	out := make([]ExtractedFile, 0, len(blocks))
	for _, b := range blocks {
		p := b.Path
		if p == "" {
			p = plainBlockPrefix + strconv.Itoa(b.Index) + ext
		}
		out = append(out, ExtractedFile{LogicalPath: p, Content: b.Content})
	}
	return out
}

// FormatTitled renders files in the titled fence dialect understood by
// Tokenize. Each fence is longer than any backtick run inside its content.
func FormatTitled(files []ExtractedFile) string {
	var b strings.Builder
	for i, f := range files {
		fence := strings.Repeat("`", max(3, longestBacktickRun(f.Content)+1))
		b.WriteString("File ")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(": ")
		b.WriteString(f.LogicalPath)
		b.WriteByte('\n')
		b.WriteString(fence)
		b.WriteByte('\n')
		b.WriteString(f.Content)
		b.WriteByte('\n')
		b.WriteString(fence)
		b.WriteString("\n\n")
	}
	return b.String()
}

func longestBacktickRun(s string) int {
	best, cur := 0, 0
	for i := 0; i < len(s); i++ {
		if s[i] == '`' {
			cur++
			best = max(best, cur)
			continue
		}
		cur = 0
	}
	return best
}
