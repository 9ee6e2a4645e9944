package stublib

import (
	"testing"

	"github.com/rexlang/scriptc/internal/diag"
	"github.com/rexlang/scriptc/internal/stub"
	"github.com/rexlang/scriptc/internal/token"
)

func TestLinkClassesResolvesBaseName(t *testing.T) {
	l := New(diag.NewSink())
	mod := l.CreateModule("m", token.Pos{})
	base := l.CreateClass(mod, "Base", false, "", token.Pos{})
	derived := l.CreateClass(mod, "Derived", false, "Base", token.Pos{})

	l.LinkClasses(l.Classes(), stub.NoID)

	if l.Class(derived).Base != base {
		t.Fatalf("Derived.Base = %v, want %v", l.Class(derived).Base, base)
	}
	if got := l.Class(base).DerivedClasses; len(got) != 1 || got[0] != derived {
		t.Fatalf("Base.DerivedClasses = %v, want [%v]", got, derived)
	}
}

func TestLinkClassesStructWithBaseIsError(t *testing.T) {
	sink := diag.NewSink()
	l := New(sink)
	mod := l.CreateModule("m", token.Pos{})
	l.CreateClass(mod, "Base", false, "", token.Pos{})
	l.CreateClass(mod, "S", true, "Base", token.Pos{})

	l.LinkClasses(l.Classes(), stub.NoID)

	if sink.Errors() != 1 {
		t.Fatalf("expected 1 error for struct-with-base, got %d", sink.Errors())
	}
}

func TestLinkClassesRejectsInheritanceCycle(t *testing.T) {
	sink := diag.NewSink()
	l := New(sink)
	mod := l.CreateModule("m", token.Pos{})
	a := l.CreateClass(mod, "A", false, "B", token.Pos{})
	b := l.CreateClass(mod, "B", false, "A", token.Pos{})

	l.LinkClasses(l.Classes(), stub.NoID)

	if sink.Errors() == 0 {
		t.Fatalf("expected a cycle error")
	}
	if l.Class(a).Base.Valid() && l.Class(b).Base.Valid() {
		t.Fatalf("cycle should have been broken by clearing at least one Base")
	}
}

func TestLinkClassesDefaultsToRootObject(t *testing.T) {
	l := New(diag.NewSink())
	mod := l.CreateModule("m", token.Pos{})
	root := l.CreateClass(mod, "Object", false, "", token.Pos{})
	plain := l.CreateClass(mod, "Plain", false, "", token.Pos{})

	l.LinkClasses(l.Classes(), root)

	if l.Class(plain).Base != root {
		t.Fatalf("Plain.Base = %v, want root %v", l.Class(plain).Base, root)
	}
	if l.Class(root).Base.Valid() {
		t.Fatalf("root object should not gain itself as a base")
	}
}
