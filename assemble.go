package fencepack

import "strings"

// Assemble joins sections into a consolidated document. Each section is
// written as its name, a delimiter line, the whitespace-trimmed body, a
// closing delimiter line and a blank line. No sections yield "".
func Assemble(sections []Section) string {
	var b strings.Builder
	for _, s := range sections {
		b.WriteString(s.Name)
		b.WriteByte('\n')
		b.WriteString(SectionDelimiter)
		b.WriteByte('\n')
		b.WriteString(strings.TrimSpace(s.Body))
		b.WriteByte('\n')
		b.WriteString(SectionDelimiter)
		b.WriteString("\n\n")
	}
	return b.String()
}
