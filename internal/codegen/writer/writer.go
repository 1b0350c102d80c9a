package writer

import (
	"fmt"
	"strings"
)

// Writer builds generated code line by line with indentation.
// Generated regions live inside a class body, so writers usually start
// at a base indentation level instead of column zero.
type Writer struct {
	sb           strings.Builder
	indentLevel  int
	baseLevel    int
	indentString string
	newline      string
	needsIndent  bool
}

// NewWriter creates a code writer that indents with indentString
func NewWriter(indentString string) *Writer {
	return &Writer{
		indentString: indentString,
		newline:      "\n",
		needsIndent:  true,
	}
}

// WithBaseIndent sets a level that Dedent never goes below
func (w *Writer) WithBaseIndent(level int) *Writer {
	w.baseLevel = level
	if w.indentLevel < level {
		w.indentLevel = level
	}
	return w
}

// WithNewline changes the line terminator, e.g. to "\r\n"
func (w *Writer) WithNewline(nl string) *Writer {
	w.newline = nl
	return w
}

// Indent increases the indentation level
func (w *Writer) Indent() {
	w.indentLevel++
}

// Dedent decreases the indentation level
func (w *Writer) Dedent() {
	if w.indentLevel > w.baseLevel {
		w.indentLevel--
	}
}

// Write writes s, indenting first when at the start of a line
func (w *Writer) Write(s string) {
	if w.needsIndent && s != "" {
		w.WriteIndent()
	}
	w.sb.WriteString(s)
}

// Writef writes a formatted string without adding a newline
func (w *Writer) Writef(format string, args ...interface{}) {
	w.Write(fmt.Sprintf(format, args...))
}

// WriteIndent writes the current indentation even if nothing follows it
func (w *Writer) WriteIndent() {
	w.sb.WriteString(strings.Repeat(w.indentString, w.indentLevel))
	w.needsIndent = false
}

// WriteLine writes a string and adds a newline
func (w *Writer) WriteLine(s string) {
	w.Write(s)
	w.Newline()
}

// WriteLinef writes a formatted string and adds a newline
func (w *Writer) WriteLinef(format string, args ...interface{}) {
	w.Writef(format, args...)
	w.Newline()
}

// Newline ends the current line; on an empty line it produces a blank line
func (w *Writer) Newline() {
	w.sb.WriteString(w.newline)
	w.needsIndent = true
}

// WriteBlock writes opener, content one level deeper, then closer
func (w *Writer) WriteBlock(opener, closer string, content func()) {
	w.WriteLine(opener)
	w.Indent()
	content()
	w.Dedent()
	w.WriteLine(closer)
}

// String returns the generated code
func (w *Writer) String() string {
	return w.sb.String()
}

// Bytes returns the generated code as a byte slice
func (w *Writer) Bytes() []byte {
	return []byte(w.sb.String())
}
