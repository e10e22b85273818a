package jsparse

import (
	"fmt"
	"strings"
)

func sprintf(format string, args ...interface{}) string { return fmt.Sprintf(format, args...) }

// ParseError is the "parse error" kind from the error handling design: it
// carries enough information to render a line/column and a caret under the
// offending source, mirroring errortypes.ErrFilePos's File()/Line()/Col()
// contract from the teacher pack.
type ParseError struct {
	File   string
	Offset int
	Source string
	msg    string
}

func (e *ParseError) Line() int {
	return 1 + strings.Count(e.Source[:clamp(e.Offset, len(e.Source))], "\n")
}

func (e *ParseError) Col() int {
	src := e.Source[:clamp(e.Offset, len(e.Source))]
	if i := strings.LastIndexByte(src, '\n'); i >= 0 {
		return e.Offset - i
	}
	return e.Offset + 1
}

func (e *ParseError) sourceLine() string {
	off := clamp(e.Offset, len(e.Source))
	start := strings.LastIndexByte(e.Source[:off], '\n') + 1
	end := strings.IndexByte(e.Source[off:], '\n')
	if end < 0 {
		return e.Source[start:]
	}
	return e.Source[start : off+end]
}

func clamp(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}

func (e *ParseError) Error() string {
	line, col := e.Line(), e.Col()
	src := e.sourceLine()
	caret := strings.Repeat(" ", maxInt(col-1, 0)) + "^"
	name := e.File
	if name == "" {
		name = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d: %s\n%s\n%s", name, line, col, e.msg, src, caret)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
