package fencepack

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"
)

// ValidateEntry decodes e as UTF-8 and checks its line structure.
//
// It returns ok=false when the entry must be excluded: invalid UTF-8 (an
// error event with ErrDecode) or, under PolicyStrict, disagreeing line counts
// (a warning with ErrStructureMismatch). Under PolicyLenient a mismatch keeps
// the entry and records an informational note.
//
// The display name is derived from the entry name only; Text is the decoded
// content untouched.
func ValidateEntry(e RawEntry, policy Policy, stripSuffix string, preserveDirs bool, log *Log) (ValidatedText, bool) {
	if log == nil {
		log = NewLog(nil)
	}
	if !utf8.Valid(e.Bytes) {
		log.Error(e.Name, ErrDecode, fmt.Sprintf("cannot decode %s as UTF-8", e.Name))
		return ValidatedText{}, false
	}
	text := string(e.Bytes)
	logical := logicalLineCount(text)
	counted := newlineLineCount(text)
	vt := ValidatedText{
		SourceName:  e.Name,
		DisplayName: displayName(e.Name, stripSuffix, preserveDirs),
		Text:        text,
		LineCount:   logical,
		Consistent:  logical == counted,
	}
	if vt.Consistent {
		return vt, true
	}
	msg := fmt.Sprintf("inconsistent line count in %s: %d logical lines, %d by newline count", e.Name, logical, counted)
	if policy == PolicyLenient {
		log.append(LogEvent{Severity: SeverityInfo, Entry: e.Name, Message: msg + " (kept)", Err: ErrStructureMismatch})
		return vt, true
	}
	log.Warn(e.Name, ErrStructureMismatch, msg+" (skipped)")
	return ValidatedText{}, false
}

// displayName strips the directory part (unless preserveDirs) and a trailing
// stripSuffix from an entry name.
func displayName(name, stripSuffix string, preserveDirs bool) string {
	if !preserveDirs {
		name = path.Base(name)
	}
	if stripSuffix != "" && strings.HasSuffix(name, stripSuffix) && len(name) > len(stripSuffix) {
		name = name[:len(name)-len(stripSuffix)]
	}
	return name
}

// logicalLineCount counts lines the way a universal-newline splitter does:
// \n, \r, \r\n, \v, \f, \x1c-\x1e, U+0085, U+2028 and U+2029 all end a line,
// and a final unterminated line counts once.
func logicalLineCount(text string) int {
	n := 0
	pending := false
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		switch r {
		case '\r':
			if i < len(text) && text[i] == '\n' {
				i++
			}
			n++
			pending = false
		case '\n', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
			n++
			pending = false
		default:
			pending = true
		}
	}
	if pending {
		n++
	}
	return n
}

// newlineLineCount is count("\n") plus one for a non-empty unterminated tail.
func newlineLineCount(text string) int {
	n := strings.Count(text, "\n")
	if text != "" && !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

// normalizeLogicalPath checks that p can be used as an archive entry name
// and returns its cleaned form ("./a" and "a//b/" become "a" and "a/b").
// Absolute paths and parent-directory segments fail with ErrPathTraversal;
// empty paths, backslashes and paths naming the archive root fail with
// ErrInvalidPath.
func normalizeLogicalPath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("%w: path is empty", ErrInvalidPath)
	}
	if strings.HasPrefix(p, "/") || hasDriveLetter(p) {
		return "", fmt.Errorf("%w: %q is absolute", ErrPathTraversal, p)
	}
	for _, seg := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q has a parent-directory segment", ErrPathTraversal, p)
		}
	}
	if strings.Contains(p, "\\") {
		return "", fmt.Errorf("%w: %q must use forward slashes", ErrInvalidPath, p)
	}
	clean := path.Clean(p)
	if clean == "." {
		return "", fmt.Errorf("%w: %q names the archive root", ErrInvalidPath, p)
	}
	return clean, nil
}

func hasDriveLetter(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0] | 0x20
	return c >= 'a' && c <= 'z'
}

func isLimit(err error) bool {
	return errors.Is(err, ErrLimitExceeded)
}
