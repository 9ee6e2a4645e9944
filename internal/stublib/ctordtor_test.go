package stublib

import (
	"testing"

	"github.com/rexlang/scriptc/internal/diag"
	"github.com/rexlang/scriptc/internal/stub"
	"github.com/rexlang/scriptc/internal/token"
)

func hasFlagged(l *Library, c *stub.Class, flag stub.Flags) bool {
	return hasFlaggedMember(l, c, flag)
}

func TestCreateAutomaticClassFunctionsSynthesizesMissingCtorDtor(t *testing.T) {
	l := New(diag.NewSink())
	mod := l.CreateModule("m", token.Pos{})
	cls := l.CreateClass(mod, "Widget", false, "", token.Pos{})

	l.CreateAutomaticClassFunctions([]stub.ID{cls})

	c := l.Class(cls)
	if !hasFlagged(l, c, stub.FlagConstructor) {
		t.Errorf("expected a synthesized constructor")
	}
	if !hasFlagged(l, c, stub.FlagDestructor) {
		t.Errorf("expected a synthesized destructor")
	}
	if len(c.Members) != 2 {
		t.Fatalf("expected exactly ctor+dtor as members, got %d: %+v", len(c.Members), c.Members)
	}
}

func TestCreateAutomaticClassFunctionsLeavesExplicitCtorAlone(t *testing.T) {
	l := New(diag.NewSink())
	mod := l.CreateModule("m", token.Pos{})
	cls := l.CreateClass(mod, "Widget", false, "", token.Pos{})
	explicit := l.CreateFunction(cls, "__ctor", "__ctor", stub.NoID, token.Pos{}, stub.FlagConstructor)

	l.CreateAutomaticClassFunctions([]stub.ID{cls})

	c := l.Class(cls)
	ctorCount := 0
	for _, memberID := range c.Members {
		if fn := l.Function(memberID); fn != nil && fn.Flags.Has(stub.FlagConstructor) {
			ctorCount++
			if memberID != explicit {
				t.Errorf("expected the explicit constructor to be kept, found another one %v", memberID)
			}
		}
	}
	if ctorCount != 1 {
		t.Fatalf("expected exactly 1 constructor, found %d", ctorCount)
	}
}

func TestCreateAutomaticClassFunctionsSynthesizesForStructsButSkipsImports(t *testing.T) {
	l := New(diag.NewSink())
	mod := l.CreateModule("m", token.Pos{})
	st := l.CreateClass(mod, "Point", true, "", token.Pos{})
	imp := l.CreateClass(mod, "Engine", false, "", token.Pos{})
	l.Class(imp).Flags = l.Class(imp).Flags.With(stub.FlagImport)

	l.CreateAutomaticClassFunctions([]stub.ID{st, imp})

	if len(l.Class(st).Members) != 2 {
		t.Errorf("a struct is a class without a vtable and should get a synthesized ctor/dtor like any other, got %+v", l.Class(st).Members)
	}
	if len(l.Class(imp).Members) != 0 {
		t.Errorf("an imported class should not get a synthesized ctor/dtor, got %+v", l.Class(imp).Members)
	}
}
