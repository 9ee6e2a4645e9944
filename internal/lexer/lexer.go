// Package lexer is the reference tokenizer collaborator: it turns
// source bytes into the token.Stream the compiler core consumes. The
// core only depends on the token.Stream interface, but the module
// ships a concrete implementation so the pipeline runs end to end.
package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rexlang/scriptc/internal/token"
)

var keywords = map[string]bool{
	"module": true, "import": true, "class": true, "struct": true,
	"enum": true, "var": true, "function": true, "const": true, "typedef": true,
	"static": true, "final": true, "override": true, "operator": true,
	"cast": true, "signal": true, "import_native": true, "ref": true,
	"out": true, "explicit": true, "extends": true, "new": true,
	"private": true, "protected": true,
	"return": true, "break": true, "continue": true, "if": true,
	"then": true, "else": true, "for": true, "while": true, "do": true,
	"switch": true, "case": true, "default": true, "this": true,
	"null": true, "true": true, "false": true, "void": true,
	"int": true, "uint": true, "int64": true, "uint64": true,
	"int16": true, "int8": true, "uint8": true, "uint16": true,
	"float": true, "double": true, "bool": true, "strid": true,
	"string": true, "Variant": true, "ptr": true, "weak": true,
}

// punct is checked longest-match-first.
var punct = []string{
	"::", "->", "<=", ">=", "==", "!=", "&&", "||", "++", "--",
	"+=", "-=", "*=", "/=",
	"(", ")", "{", "}", "[", "]", ",", ";", ":", ".", "<", ">",
	"+", "-", "*", "/", "%", "=", "!", "&", "|", "^", "~", "?",
}

// Lexer scans AILANG-style source text into tokens for the script
// language's grammar (classes, structs, enums, ptr<T>/weak<T>/class<T>
// type expressions, operator/cast function declarations).
type Lexer struct {
	src  string
	file string
	pos  int
	line int
	col  int
}

// New creates a Lexer over already-normalized source bytes (see
// Normalize).
func New(src []byte, file string) *Lexer {
	return &Lexer{src: string(src), file: file, line: 1, col: 1}
}

// Tokenize runs the lexer to completion and returns the full token
// list (ending in an EOF token), or the first lexical error.
func Tokenize(src []byte, file string) ([]token.Token, error) {
	l := New(Normalize(src), file)
	var out []token.Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out, nil
		}
	}
}

func (l *Lexer) pposition() token.Pos {
	return token.Pos{File: l.file, Line: l.line, Column: l.col}
}

func (l *Lexer) peekByte(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() byte {
	ch := l.src[l.pos]
	l.pos++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch
}

func (l *Lexer) skipTrivia() {
	for l.pos < len(l.src) {
		ch := l.peekByte(0)
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			l.advance()
		case ch == '/' && l.peekByte(1) == '/':
			for l.pos < len(l.src) && l.peekByte(0) != '\n' {
				l.advance()
			}
		case ch == '/' && l.peekByte(1) == '*':
			l.advance()
			l.advance()
			for l.pos < len(l.src) && !(l.peekByte(0) == '*' && l.peekByte(1) == '/') {
				l.advance()
			}
			if l.pos < len(l.src) {
				l.advance()
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *Lexer) next() (token.Token, error) {
	l.skipTrivia()
	pos := l.pposition()

	if l.pos >= len(l.src) {
		return token.Token{Kind: token.EOF, Pos: pos}, nil
	}

	ch := l.peekByte(0)

	switch {
	case isIdentStart(ch):
		return l.scanIdent(pos), nil
	case isDigit(ch):
		return l.scanNumber(pos)
	case ch == '"':
		return l.scanString(pos)
	case ch == '\'':
		if isIdentStart(l.peekByte(1)) {
			return l.scanName(pos)
		}
		return l.scanChar(pos)
	default:
		return l.scanPunct(pos)
	}
}

func isIdentStart(ch byte) bool { return ch == '_' || unicode.IsLetter(rune(ch)) }
func isIdentCont(ch byte) bool  { return ch == '_' || unicode.IsLetter(rune(ch)) || unicode.IsDigit(rune(ch)) }
func isDigit(ch byte) bool      { return ch >= '0' && ch <= '9' }

func (l *Lexer) scanIdent(pos token.Pos) token.Token {
	start := l.pos
	for l.pos < len(l.src) && isIdentCont(l.peekByte(0)) {
		l.advance()
	}
	text := l.src[start:l.pos]
	if keywords[text] {
		return token.Token{Kind: token.Keyword, Literal: text, Pos: pos}
	}
	return token.Token{Kind: token.Identifier, Literal: text, Pos: pos}
}

// scanName reads 'identifier (an interned "name"/strid literal, e.g.
// argument names used as `strid` constants).
func (l *Lexer) scanName(pos token.Pos) (token.Token, error) {
	l.advance() // consume leading '
	start := l.pos
	for l.pos < len(l.src) && isIdentCont(l.peekByte(0)) {
		l.advance()
	}
	return token.Token{Kind: token.Name, Literal: l.src[start:l.pos], Pos: pos}, nil
}

func (l *Lexer) scanNumber(pos token.Pos) (token.Token, error) {
	start := l.pos
	isFloat := false
	for l.pos < len(l.src) && isDigit(l.peekByte(0)) {
		l.advance()
	}
	if l.peekByte(0) == '.' && isDigit(l.peekByte(1)) {
		isFloat = true
		l.advance()
		for l.pos < len(l.src) && isDigit(l.peekByte(0)) {
			l.advance()
		}
	}
	if l.peekByte(0) == 'e' || l.peekByte(0) == 'E' {
		isFloat = true
		l.advance()
		if l.peekByte(0) == '+' || l.peekByte(0) == '-' {
			l.advance()
		}
		for l.pos < len(l.src) && isDigit(l.peekByte(0)) {
			l.advance()
		}
	}
	text := l.src[start:l.pos]
	if isFloat {
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return token.Token{}, fmt.Errorf("%s: invalid float literal %q: %w", pos, text, err)
		}
		return token.Token{Kind: token.Float, Literal: text, FloatVal: v, Pos: pos}, nil
	}
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return token.Token{}, fmt.Errorf("%s: invalid integer literal %q: %w", pos, text, err)
	}
	return token.Token{Kind: token.Integer, Literal: text, IntVal: v, Pos: pos}, nil
}

func (l *Lexer) scanString(pos token.Pos) (token.Token, error) {
	l.advance() // opening quote
	var out strings.Builder
	for l.pos < len(l.src) && l.peekByte(0) != '"' {
		ch := l.advance()
		if ch == '\\' && l.pos < len(l.src) {
			out.WriteByte(decodeEscape(l.advance()))
			continue
		}
		out.WriteByte(ch)
	}
	if l.pos >= len(l.src) {
		return token.Token{}, fmt.Errorf("%s: unterminated string literal", pos)
	}
	l.advance() // closing quote
	return token.Token{Kind: token.String, Literal: out.String(), Pos: pos}, nil
}

func (l *Lexer) scanChar(pos token.Pos) (token.Token, error) {
	l.advance() // opening quote
	var r rune
	if l.peekByte(0) == '\\' {
		l.advance()
		r = rune(decodeEscape(l.advance()))
	} else {
		var size int
		r, size = utf8.DecodeRuneInString(l.src[l.pos:])
		for i := 0; i < size; i++ {
			l.advance()
		}
	}
	if l.peekByte(0) != '\'' {
		return token.Token{}, fmt.Errorf("%s: unterminated char literal", pos)
	}
	l.advance()
	return token.Token{Kind: token.Char, Literal: string(r), Pos: pos}, nil
}

func decodeEscape(ch byte) byte {
	switch ch {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	default:
		return ch
	}
}

func (l *Lexer) scanPunct(pos token.Pos) (token.Token, error) {
	rest := l.src[l.pos:]
	for _, p := range punct {
		if strings.HasPrefix(rest, p) {
			for range p {
				l.advance()
			}
			return token.Token{Kind: token.Keyword, Literal: p, Pos: pos}, nil
		}
	}
	ch := l.advance()
	return token.Token{}, fmt.Errorf("%s: illegal character %q", pos, ch)
}
