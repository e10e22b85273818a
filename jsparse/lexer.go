// Package jsparse implements the one piece of "parser" functionality this
// module ships: a lexer and recursive-descent/Pratt parser for the subset
// of ES2015 that wasm-glue JS generators actually emit (var/function
// declarations, assignment and control-flow statements, the usual
// expression grammar, plain object/array literals, and named/default
// exports). A full general-purpose ECMAScript grammar is explicitly a
// black-box collaborator per the specification; this is the minimal real
// implementation behind that seam, not a pretense at full compliance.
//
// Design mirrors github.com/robfig/soy/parse's lexer: a hand-rolled
// scanner producing a flat token stream, each token carrying its starting
// byte offset for later diagnostics and comment reattachment.
package jsparse

import (
	"strings"
	"unicode/utf8"

	"github.com/emglue/wasmglue/ast"
)

type tokenType int

const (
	tokEOF tokenType = iota
	tokError
	tokIdent
	tokKeyword
	tokNumber
	tokString
	tokPunct
	tokComment
)

type token struct {
	typ tokenType
	pos ast.Pos
	val string
}

var keywords = map[string]bool{
	"var": true, "let": true, "const": true, "function": true, "return": true,
	"if": true, "else": true, "for": true, "while": true, "do": true,
	"break": true, "continue": true, "throw": true, "try": true, "catch": true,
	"finally": true, "new": true, "typeof": true, "void": true, "delete": true,
	"instanceof": true, "in": true, "of": true, "this": true, "null": true,
	"true": true, "false": true, "export": true, "default": true, "from": true,
}

// lexer scans JS source text into a flat slice of tokens. Comments are
// collected separately (with position) for later reattachment by the
// printer; they are never part of the token stream the parser consumes.
type lexer struct {
	input    string
	pos      int
	comments []comment
}

type comment struct {
	pos  ast.Pos
	text string
	line bool // line comment (//) vs block comment (/* */)
}

func newLexer(input string) *lexer { return &lexer{input: input} }

func (l *lexer) errorf(format string, args ...interface{}) {
	panic(&ParseError{Offset: l.pos, Source: l.input, msg: sprintf(format, args...)})
}

func (l *lexer) peekByte() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *lexer) byteAt(off int) byte {
	if l.pos+off >= len(l.input) {
		return 0
	}
	return l.input[l.pos+off]
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r >= utf8.RuneSelf
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isSpace(b byte) bool { return b == ' ' || b == '\t' || b == '\r' || b == '\n' }

// tokenize scans the entire input (minus any trailing // EXTRA_INFO: suffix,
// which the caller strips first) into tokens.
func (l *lexer) tokenize() []token {
	var toks []token
	for {
		l.skipSpaceAndComments()
		if l.pos >= len(l.input) {
			toks = append(toks, token{typ: tokEOF, pos: ast.Pos(l.pos)})
			return toks
		}
		start := l.pos
		b := l.peekByte()
		switch {
		case isDigit(b) || (b == '.' && isDigit(l.byteAt(1))):
			toks = append(toks, l.lexNumber())
		case b == '"' || b == '\'':
			toks = append(toks, l.lexString(b))
		case isIdentStart(rune(b)):
			toks = append(toks, l.lexIdent())
		default:
			toks = append(toks, l.lexPunct())
		}
		if l.pos == start {
			l.errorf("unexpected character %q", string(b))
		}
	}
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.input) {
		b := l.peekByte()
		if isSpace(b) {
			l.pos++
			continue
		}
		if b == '/' && l.byteAt(1) == '/' {
			start := l.pos
			l.pos += 2
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.pos++
			}
			l.comments = append(l.comments, comment{pos: ast.Pos(start), text: l.input[start:l.pos], line: true})
			continue
		}
		if b == '/' && l.byteAt(1) == '*' {
			start := l.pos
			l.pos += 2
			for l.pos < len(l.input) && !(l.peekByte() == '*' && l.byteAt(1) == '/') {
				l.pos++
			}
			l.pos += 2
			if l.pos > len(l.input) {
				l.pos = len(l.input)
			}
			l.comments = append(l.comments, comment{pos: ast.Pos(start), text: l.input[start:l.pos], line: false})
			continue
		}
		return
	}
}

func (l *lexer) lexNumber() token {
	start := l.pos
	for l.pos < len(l.input) && (isDigit(l.peekByte()) || l.peekByte() == '.' ||
		l.peekByte() == 'x' || l.peekByte() == 'X' ||
		(l.peekByte() >= 'a' && l.peekByte() <= 'f') || (l.peekByte() >= 'A' && l.peekByte() <= 'F') ||
		l.peekByte() == 'e' || l.peekByte() == 'E' ||
		((l.peekByte() == '+' || l.peekByte() == '-') && (l.byteAt(-1) == 'e' || l.byteAt(-1) == 'E'))) {
		l.pos++
	}
	return token{typ: tokNumber, pos: ast.Pos(start), val: l.input[start:l.pos]}
}

func (l *lexer) lexString(quote byte) token {
	start := l.pos
	l.pos++ // opening quote
	var b strings.Builder
	for l.pos < len(l.input) && l.input[l.pos] != quote {
		if l.input[l.pos] == '\\' && l.pos+1 < len(l.input) {
			b.WriteByte(l.input[l.pos])
			b.WriteByte(l.input[l.pos+1])
			l.pos += 2
			continue
		}
		b.WriteByte(l.input[l.pos])
		l.pos++
	}
	if l.pos >= len(l.input) {
		l.errorf("unterminated string literal")
	}
	l.pos++ // closing quote
	return token{typ: tokString, pos: ast.Pos(start), val: l.input[start:l.pos]}
}

func (l *lexer) lexIdent() token {
	start := l.pos
	for l.pos < len(l.input) && isIdentPart(rune(l.peekByte())) {
		l.pos++
	}
	val := l.input[start:l.pos]
	typ := tokIdent
	if keywords[val] {
		typ = tokKeyword
	}
	return token{typ: typ, pos: ast.Pos(start), val: val}
}

// multi-char punctuators, longest first.
var punctuators = []string{
	">>>=", "...", "===", "!==", "**=", ">>>", "<<=", ">>=", "&&=", "||=", "??=",
	"=>", "==", "!=", "<=", ">=", "&&", "||", "??", "?.", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<", ">>", "**",
}

func (l *lexer) lexPunct() token {
	start := l.pos
	rest := l.input[l.pos:]
	for _, p := range punctuators {
		if strings.HasPrefix(rest, p) {
			l.pos += len(p)
			return token{typ: tokPunct, pos: ast.Pos(start), val: p}
		}
	}
	l.pos++
	return token{typ: tokPunct, pos: ast.Pos(start), val: rest[:1]}
}
