// Package filebuild is the file semantic builder: it walks a file's
// token stream and populates stub.Library entries for
// every top-level declaration (imports, classes/structs, enums,
// properties, function signatures, constants). Function bodies are
// not parsed here — they are sliced out as raw token ranges and left
// for the function parser (internal/fnparse) to consume later.
package filebuild

import (
	"os"

	"github.com/rexlang/scriptc/internal/diag"
	"github.com/rexlang/scriptc/internal/lexer"
	"github.com/rexlang/scriptc/internal/stub"
	"github.com/rexlang/scriptc/internal/stublib"
	"github.com/rexlang/scriptc/internal/token"
)

// SourceLoader abstracts file content retrieval so tests can substitute
// an in-memory map instead of touching the filesystem.
type SourceLoader interface {
	ReadFile(path string) ([]byte, error)
}

// OSLoader reads files directly via os.ReadFile.
type OSLoader struct{}

func (OSLoader) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

// Build lexes absPath and populates lib with every top-level stub it
// declares, owned by the given module and a newly created File stub.
// Safe to call concurrently across files for the same *stublib.Library
// (every Create* API takes the library's lock).
func Build(lib *stublib.Library, loader SourceLoader, module stub.ID, depotPath, absPath string) {
	src, err := loader.ReadFile(absPath)
	if err != nil {
		lib.Sink.ReportError(diag.Code("BLD001"), token.Pos{File: depotPath}, "cannot read file: %v", err)
		return
	}
	toks, err := lexer.Tokenize(src, depotPath)
	if err != nil {
		lib.Sink.ReportError(diag.Code("BLD002"), token.Pos{File: depotPath}, "lex error: %v", err)
		return
	}
	file := lib.CreateFile(module, depotPath, absPath, token.Pos{File: depotPath, Line: 1, Column: 1})
	b := &builder{lib: lib, module: module, file: file, cur: token.NewCursor(toks)}
	b.parseTopLevel()
}

type builder struct {
	lib    *stublib.Library
	module stub.ID
	file   stub.ID
	cur    *token.Cursor
}

func (b *builder) peek(n int) token.Token { return b.cur.Peek(n) }
func (b *builder) pop() token.Token       { return b.cur.Pop() }
func (b *builder) done() bool             { return b.cur.Done() }

func (b *builder) is(lit string) bool { return b.peek(0).Is(lit) }

func (b *builder) expect(lit string) token.Token {
	t := b.pop()
	if !t.Is(lit) {
		b.lib.Sink.ReportError(diag.Code("BLD003"), t.Pos, "expected %q, found %q", lit, t.Literal)
	}
	return t
}

func (b *builder) expectIdent() token.Token {
	t := b.pop()
	if t.Kind != token.Identifier {
		b.lib.Sink.ReportError(diag.Code("BLD004"), t.Pos, "expected identifier, found %q", t.Literal)
	}
	return t
}

// parseDottedName reads a.b.c as one qualified-name string.
func (b *builder) parseDottedName() (string, token.Pos) {
	first := b.expectIdent()
	name := first.Literal
	for b.is(".") && b.peek(1).Kind == token.Identifier {
		b.pop()
		name += "." + b.pop().Literal
	}
	return name, first.Pos
}

func (b *builder) parseTopLevel() {
	for !b.done() {
		switch {
		case b.is("module"):
			b.pop()
			b.parseDottedName()
			if b.is("{") {
				b.pop()
				b.parseMembers(b.module, false)
				b.expect("}")
			}
		case b.is("import") || b.is("import_native"):
			b.parseImport()
		case b.is("class") || b.is("struct"):
			b.parseClass(b.module)
		case b.is("enum"):
			b.parseEnum(b.module)
		case b.is("const"):
			b.parseConstant(b.module)
		case b.is("typedef"):
			b.parseTypeAlias(b.module)
		case b.is("function"):
			b.parseFunction(b.module, false)
		case b.peek(0).Kind == token.EOF:
			return
		default:
			b.lib.Sink.ReportError(diag.Code("BLD005"), b.peek(0).Pos, "unexpected top-level token %q", b.peek(0).Literal)
			b.pop()
		}
	}
}

// parseMembers parses declarations until a matching "}" without
// consuming it, for owners that open a brace block (module block,
// class/struct body).
func (b *builder) parseMembers(owner stub.ID, inClass bool) {
	for !b.done() && !b.is("}") {
		switch {
		case b.is("import") || b.is("import_native"):
			b.parseImport()
		case b.is("class") || b.is("struct"):
			b.parseClass(owner)
		case b.is("enum"):
			b.parseEnum(owner)
		case b.is("var"):
			b.parseProperty(owner)
		case b.is("const"):
			b.parseConstant(owner)
		case b.is("typedef"):
			b.parseTypeAlias(owner)
		case b.is("function") || b.is("static") || b.is("final") ||
			b.is("override") || b.is("operator") || b.is("cast") || b.is("signal"):
			b.parseFunction(owner, inClass)
		default:
			b.lib.Sink.ReportError(diag.Code("BLD005"), b.peek(0).Pos, "unexpected member token %q", b.peek(0).Literal)
			b.pop()
		}
	}
}

func (b *builder) parseImport() {
	native := b.is("import_native")
	pos := b.pop().Pos
	name, _ := b.parseDottedName()
	imp := b.lib.CreateModuleImport(b.file, name, pos)
	_ = native // native imports resolve to engine-side modules the same way at link time
	if b.is(";") {
		b.pop()
	}
	_ = imp
}
