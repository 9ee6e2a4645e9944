package filebuild

import (
	"errors"
	"testing"

	"github.com/rexlang/scriptc/internal/diag"
	"github.com/rexlang/scriptc/internal/stub"
	"github.com/rexlang/scriptc/internal/stublib"
	"github.com/rexlang/scriptc/internal/token"
)

type mapLoader map[string]string

func (m mapLoader) ReadFile(path string) ([]byte, error) {
	src, ok := m[path]
	if !ok {
		return nil, errors.New("no such file")
	}
	return []byte(src), nil
}

func TestBuildPopulatesClassHierarchyAndProperties(t *testing.T) {
	sink := diag.NewSink()
	lib := stublib.New(sink)
	mod := lib.CreateModule("m", token.Pos{})

	src := `
class Base {
	var x: int;
}
class Derived : Base {
	var y: string;
	function greet(name: string): string;
}
`
	Build(lib, mapLoader{"a.script": src}, mod, "a.script", "a.script")
	if sink.Errors() != 0 {
		t.Fatalf("unexpected errors: %d", sink.Errors())
	}

	var baseID, derivedID stub.ID
	for _, id := range lib.Classes() {
		c := lib.Class(id)
		switch c.Name {
		case "Base":
			baseID = id
		case "Derived":
			derivedID = id
		}
	}
	if !baseID.Valid() || !derivedID.Valid() {
		t.Fatalf("expected both Base and Derived classes to be created")
	}
	derived := lib.Class(derivedID)
	if len(derived.Members) != 2 {
		t.Fatalf("expected Derived to have 2 members (y, greet), got %d", len(derived.Members))
	}
}

func TestBuildParsesEnumWithAutoAndUserValues(t *testing.T) {
	sink := diag.NewSink()
	lib := stublib.New(sink)
	mod := lib.CreateModule("m", token.Pos{})

	src := `
enum Color {
	Red,
	Green = 10,
	Blue,
}
`
	Build(lib, mapLoader{"e.script": src}, mod, "e.script", "e.script")
	if sink.Errors() != 0 {
		t.Fatalf("unexpected errors: %d", sink.Errors())
	}

	var enumID stub.ID
	for _, id := range lib.Enums() {
		if lib.Enum(id).Name == "Color" {
			enumID = id
		}
	}
	if !enumID.Valid() {
		t.Fatalf("expected an enum named Color")
	}
	opts := lib.Enum(enumID).Options
	if len(opts) != 3 {
		t.Fatalf("expected 3 enum options, got %d", len(opts))
	}
	want := map[string]int64{"Red": 0, "Green": 10, "Blue": 11}
	for _, id := range opts {
		o := lib.EnumOption(id)
		if want[o.Name] != o.Value {
			t.Errorf("%s = %d, want %d", o.Name, o.Value, want[o.Name])
		}
	}
}

func TestBuildSlicesFunctionBodyForLaterParsing(t *testing.T) {
	sink := diag.NewSink()
	lib := stublib.New(sink)
	mod := lib.CreateModule("m", token.Pos{})

	src := `
function add(a: int, b: int): int {
	return a + b;
}
`
	Build(lib, mapLoader{"f.script": src}, mod, "f.script", "f.script")
	if sink.Errors() != 0 {
		t.Fatalf("unexpected errors: %d", sink.Errors())
	}

	var fnID stub.ID
	for _, id := range lib.Functions() {
		if lib.Function(id).Name == "add" {
			fnID = id
		}
	}
	if !fnID.Valid() {
		t.Fatalf("expected a function named add")
	}
	fn := lib.Function(fnID)
	if len(fn.Args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(fn.Args))
	}
	if len(fn.Body) == 0 {
		t.Fatalf("expected the function body to be sliced into raw tokens, got none")
	}
}

func TestBuildParsesTypeAlias(t *testing.T) {
	sink := diag.NewSink()
	lib := stublib.New(sink)
	mod := lib.CreateModule("m", token.Pos{})

	src := `
struct Point {
	var x: int;
}
typedef Coord = Point;
`
	Build(lib, mapLoader{"t.script": src}, mod, "t.script", "t.script")
	lib.ResolveTypeRefs(lib.AllTypeRefs())
	if sink.Errors() != 0 {
		t.Fatalf("unexpected errors: %d", sink.Errors())
	}

	aliasID, ok := lib.Module(mod).Members["Coord"]
	if !ok {
		t.Fatalf("expected a Coord member to be declared")
	}
	alias := lib.TypeName(aliasID)
	if alias == nil {
		t.Fatalf("expected Coord to be a TypeName stub")
	}
	aliased := lib.TypeDecl(alias.Aliased)
	if aliased == nil || aliased.Meta != stub.MetaSimple {
		t.Fatalf("expected the alias to wrap a Simple type, got %+v", aliased)
	}
}

func TestBuildParsesOverloadedOperatorsWithoutPrematureCollision(t *testing.T) {
	sink := diag.NewSink()
	lib := stublib.New(sink)
	mod := lib.CreateModule("m", token.Pos{})

	src := `
function operator+(a: int, b: int): int {
	return a + b;
}
function operator+(a: float, b: float): float {
	return a + b;
}
`
	Build(lib, mapLoader{"o.script": src}, mod, "o.script", "o.script")
	if sink.Errors() != 0 {
		t.Fatalf("parsing two distinct operator overloads should not collide yet: %d errors", sink.Errors())
	}

	lib.ResolveTypeRefs(lib.AllTypeRefs())
	lib.ResolveTypeDecls(lib.AllTypeDecls())
	lib.MangleOperatorNames(lib.Functions())

	if sink.Errors() != 0 {
		t.Fatalf("distinctly-typed operator overloads should mangle to distinct names, got %d errors: %v",
			sink.Errors(), sink.Diagnostics())
	}
	names := map[string]bool{}
	for _, id := range lib.Functions() {
		names[lib.Function(id).Name] = true
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 distinct mangled operator names, got %v", names)
	}
}

func TestBuildUnreadableFileReportsError(t *testing.T) {
	sink := diag.NewSink()
	lib := stublib.New(sink)
	mod := lib.CreateModule("m", token.Pos{})

	Build(lib, mapLoader{}, mod, "missing.script", "missing.script")
	if sink.Errors() != 1 {
		t.Fatalf("expected 1 error for an unreadable file, got %d", sink.Errors())
	}
}

func TestBuildFlagsImportedClass(t *testing.T) {
	sink := diag.NewSink()
	lib := stublib.New(sink)
	mod := lib.CreateModule("m", token.Pos{})

	src := `class Engine import { }`
	Build(lib, mapLoader{"i.script": src}, mod, "i.script", "i.script")
	if sink.Errors() != 0 {
		t.Fatalf("unexpected errors: %d", sink.Errors())
	}
	var engineID stub.ID
	for _, id := range lib.Classes() {
		if lib.Class(id).Name == "Engine" {
			engineID = id
		}
	}
	if !engineID.Valid() {
		t.Fatalf("expected a class named Engine")
	}
	if !lib.Class(engineID).Flags.Has(stub.FlagImport) {
		t.Errorf("expected Engine to carry FlagImport")
	}
}
