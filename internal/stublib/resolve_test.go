package stublib

import (
	"testing"

	"github.com/rexlang/scriptc/internal/diag"
	"github.com/rexlang/scriptc/internal/stub"
	"github.com/rexlang/scriptc/internal/token"
)

func TestResolveTypeRefsFindsTopLevelClass(t *testing.T) {
	l := New(diag.NewSink())
	mod := l.CreateModule("m", token.Pos{})
	cls := l.CreateClass(mod, "Widget", false, "", token.Pos{})
	ref := l.CreateTypeRef(mod, "Widget", token.Pos{})

	l.ResolveTypeRefs([]stub.ID{ref})

	if l.Sink.Errors() != 0 {
		t.Fatalf("unexpected errors: %d", l.Sink.Errors())
	}
	if l.TypeRef(ref).Resolved != cls {
		t.Errorf("Resolved = %v, want %v", l.TypeRef(ref).Resolved, cls)
	}
}

func TestResolveTypeRefsDottedNameWalksClassChain(t *testing.T) {
	l := New(diag.NewSink())
	mod := l.CreateModule("m", token.Pos{})
	outer := l.CreateClass(mod, "Outer", false, "", token.Pos{})
	inner := l.CreateClass(outer, "Inner", false, "", token.Pos{})
	ref := l.CreateTypeRef(mod, "Outer.Inner", token.Pos{})

	l.ResolveTypeRefs([]stub.ID{ref})

	if l.Sink.Errors() != 0 {
		t.Fatalf("unexpected errors: %d", l.Sink.Errors())
	}
	if l.TypeRef(ref).Resolved != inner {
		t.Errorf("Resolved = %v, want %v", l.TypeRef(ref).Resolved, inner)
	}
}

func TestResolveTypeRefsUnresolvedNameReportsError(t *testing.T) {
	l := New(diag.NewSink())
	mod := l.CreateModule("m", token.Pos{})
	ref := l.CreateTypeRef(mod, "Ghost", token.Pos{})

	l.ResolveTypeRefs([]stub.ID{ref})

	if l.Sink.Errors() != 1 {
		t.Fatalf("expected 1 unresolved-name error, got %d", l.Sink.Errors())
	}
	if l.TypeRef(ref).Resolved.Valid() {
		t.Errorf("expected Resolved to remain unset")
	}
}

func TestResolveTypeDeclsRejectsSimpleTypeOnNonStruct(t *testing.T) {
	l := New(diag.NewSink())
	mod := l.CreateModule("m", token.Pos{})
	cls := l.CreateClass(mod, "NotAStruct", false, "", token.Pos{})
	ref := l.CreateTypeRef(mod, "NotAStruct", token.Pos{})
	l.ResolveTypeRefs([]stub.ID{ref})
	if l.TypeRef(ref).Resolved != cls {
		t.Fatalf("setup: expected ref to resolve to the class")
	}
	decl := l.CreateSimpleType(ref, token.Pos{})

	l.ResolveTypeDecls([]stub.ID{decl})

	if l.Sink.Errors() != 1 {
		t.Fatalf("expected 1 error for a Simple type over a non-struct class, got %d", l.Sink.Errors())
	}
}

func TestResolveTypeDeclsAcceptsSimpleTypeOnStruct(t *testing.T) {
	l := New(diag.NewSink())
	mod := l.CreateModule("m", token.Pos{})
	l.CreateClass(mod, "Point", true, "", token.Pos{})
	ref := l.CreateTypeRef(mod, "Point", token.Pos{})
	l.ResolveTypeRefs([]stub.ID{ref})
	decl := l.CreateSimpleType(ref, token.Pos{})

	l.ResolveTypeDecls([]stub.ID{decl})

	if l.Sink.Errors() != 0 {
		t.Fatalf("Simple type over a struct should be accepted, got %d errors", l.Sink.Errors())
	}
}

func TestResolveTypeDeclsChasesAliasToUnderlyingStruct(t *testing.T) {
	l := New(diag.NewSink())
	mod := l.CreateModule("m", token.Pos{})
	l.CreateClass(mod, "Point", true, "", token.Pos{})
	pointRef := l.CreateTypeRef(mod, "Point", token.Pos{})
	l.ResolveTypeRefs([]stub.ID{pointRef})
	pointDecl := l.CreateSimpleType(pointRef, token.Pos{})
	l.CreateTypeAlias(mod, "Coord", pointDecl, token.Pos{})

	// A second Simple type naming the alias, the way a `var p: Coord;`
	// property declaration would produce one.
	aliasRef := l.CreateTypeRef(mod, "Coord", token.Pos{})
	l.ResolveTypeRefs([]stub.ID{aliasRef})
	aliasDecl := l.CreateSimpleType(aliasRef, token.Pos{})

	l.ResolveTypeDecls([]stub.ID{pointDecl, aliasDecl})

	if l.Sink.Errors() != 0 {
		t.Fatalf("a Simple type aliasing a struct should be accepted, got %d errors", l.Sink.Errors())
	}
	if l.TypeRef(aliasRef).Resolved != l.TypeRef(pointRef).Resolved {
		t.Errorf("expected the alias chain to be inlined to the underlying class, got %v want %v",
			l.TypeRef(aliasRef).Resolved, l.TypeRef(pointRef).Resolved)
	}
}

func TestResolveTypeDeclsRejectsAliasToNonStructUnderSimpleType(t *testing.T) {
	l := New(diag.NewSink())
	mod := l.CreateModule("m", token.Pos{})
	l.CreateClass(mod, "Widget", false, "", token.Pos{})
	widgetRef := l.CreateTypeRef(mod, "Widget", token.Pos{})
	l.ResolveTypeRefs([]stub.ID{widgetRef})
	widgetDecl := l.CreateSharedPointerType(widgetRef, token.Pos{})
	l.CreateTypeAlias(mod, "WidgetHandle", widgetDecl, token.Pos{})

	aliasRef := l.CreateTypeRef(mod, "WidgetHandle", token.Pos{})
	l.ResolveTypeRefs([]stub.ID{aliasRef})
	aliasDecl := l.CreateSimpleType(aliasRef, token.Pos{})

	l.ResolveTypeDecls([]stub.ID{widgetDecl, aliasDecl})

	if l.Sink.Errors() != 1 {
		t.Fatalf("expected 1 error chasing an alias to a non-struct class under a Simple type, got %d", l.Sink.Errors())
	}
}

func TestResolveTypeDeclsRejectsSharedPointerToStruct(t *testing.T) {
	l := New(diag.NewSink())
	mod := l.CreateModule("m", token.Pos{})
	l.CreateClass(mod, "Point", true, "", token.Pos{})
	ref := l.CreateTypeRef(mod, "Point", token.Pos{})
	l.ResolveTypeRefs([]stub.ID{ref})
	decl := l.CreateSharedPointerType(ref, token.Pos{})

	l.ResolveTypeDecls([]stub.ID{decl})

	if l.Sink.Errors() != 1 {
		t.Fatalf("expected 1 error for a pointer to a struct, got %d", l.Sink.Errors())
	}
}

func TestLookupTypeNameDistinguishesTypesFromOtherMembers(t *testing.T) {
	l := New(diag.NewSink())
	mod := l.CreateModule("m", token.Pos{})
	cls := l.CreateClass(mod, "Widget", false, "", token.Pos{})
	l.CreateConstant(mod, "MAX", stub.NoID, stub.Int(5), token.Pos{})

	if got := l.LookupTypeName(mod, "Widget"); got != cls {
		t.Errorf("LookupTypeName(Widget) = %v, want %v", got, cls)
	}
	if got := l.LookupTypeName(mod, "MAX"); got.Valid() {
		t.Errorf("LookupTypeName(MAX) = %v, want NoID (a constant is not a type)", got)
	}
}

func TestAllTypeRefsAndAllTypeDeclsCollectEverything(t *testing.T) {
	l := New(diag.NewSink())
	mod := l.CreateModule("m", token.Pos{})
	ref1 := l.CreateTypeRef(mod, "A", token.Pos{})
	ref2 := l.CreateTypeRef(mod, "B", token.Pos{})
	decl := l.CreateSimpleType(ref1, token.Pos{})

	refs := l.AllTypeRefs()
	if len(refs) != 2 {
		t.Fatalf("expected 2 type refs, got %d", len(refs))
	}
	found := map[stub.ID]bool{}
	for _, id := range refs {
		found[id] = true
	}
	if !found[ref1] || !found[ref2] {
		t.Errorf("AllTypeRefs missing expected ids: %v", refs)
	}

	decls := l.AllTypeDecls()
	foundDecl := false
	for _, id := range decls {
		if id == decl {
			foundDecl = true
		}
	}
	if !foundDecl {
		t.Errorf("AllTypeDecls missing the Simple type decl: %v", decls)
	}
}
