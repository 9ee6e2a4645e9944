package stublib

import (
	"testing"

	"github.com/rexlang/scriptc/internal/diag"
	"github.com/rexlang/scriptc/internal/stub"
	"github.com/rexlang/scriptc/internal/token"
)

func setupOverrideFixture(t *testing.T, sink *diag.Sink) (l *Library, base, derived stub.ID) {
	t.Helper()
	l = New(sink)
	mod := l.CreateModule("m", token.Pos{})
	base = l.CreateClass(mod, "Base", false, "", token.Pos{})
	derived = l.CreateClass(mod, "Derived", false, "Base", token.Pos{})
	l.Class(derived).Base = base
	return l, base, derived
}

func TestLinkFunctionsAcceptsMatchingOverride(t *testing.T) {
	sink := diag.NewSink()
	l, base, derived := setupOverrideFixture(t, sink)
	baseFn := l.CreateFunction(base, "Speak", "Speak", stub.NoID, token.Pos{}, 0)
	overrideFn := l.CreateFunction(derived, "Speak", "Speak", stub.NoID, token.Pos{}, stub.FlagOverride)

	l.LinkFunctions(l.Functions())

	if sink.Errors() != 0 {
		t.Fatalf("unexpected errors: %d", sink.Errors())
	}
	if l.Function(overrideFn).BaseFunction != baseFn {
		t.Fatalf("override not linked to its base function")
	}
}

func TestLinkFunctionsRejectsSignatureMismatch(t *testing.T) {
	sink := diag.NewSink()
	l, base, derived := setupOverrideFixture(t, sink)
	l.CreateFunction(base, "Speak", "Speak", stub.NoID, token.Pos{}, 0)
	over := l.CreateFunction(derived, "Speak", "Speak", stub.NoID, token.Pos{}, stub.FlagOverride)
	l.CreateFunctionArg(over, "extra", stub.NoID, nil, 0, token.Pos{}, 0)

	l.LinkFunctions(l.Functions())

	if sink.Errors() != 1 {
		t.Fatalf("expected 1 error for signature mismatch, got %d", sink.Errors())
	}
}

func TestLinkFunctionsRejectsOutFlagMismatch(t *testing.T) {
	sink := diag.NewSink()
	l, base, derived := setupOverrideFixture(t, sink)
	baseFn := l.CreateFunction(base, "Speak", "Speak", stub.NoID, token.Pos{}, 0)
	l.CreateFunctionArg(baseFn, "result", stub.NoID, nil, 0, token.Pos{}, stub.FlagOut)
	overrideFn := l.CreateFunction(derived, "Speak", "Speak", stub.NoID, token.Pos{}, stub.FlagOverride)
	l.CreateFunctionArg(overrideFn, "result", stub.NoID, nil, 0, token.Pos{}, 0)

	l.LinkFunctions(l.Functions())

	if sink.Errors() != 1 {
		t.Fatalf("expected 1 error for an out-flag mismatch between override and base, got %d", sink.Errors())
	}
}

func TestLinkFunctionsRejectsExplicitFlagMismatch(t *testing.T) {
	sink := diag.NewSink()
	l, base, derived := setupOverrideFixture(t, sink)
	baseFn := l.CreateFunction(base, "Speak", "Speak", stub.NoID, token.Pos{}, 0)
	l.CreateFunctionArg(baseFn, "value", stub.NoID, nil, 0, token.Pos{}, 0)
	overrideFn := l.CreateFunction(derived, "Speak", "Speak", stub.NoID, token.Pos{}, stub.FlagOverride)
	l.CreateFunctionArg(overrideFn, "value", stub.NoID, nil, 0, token.Pos{}, stub.FlagExplicit)

	l.LinkFunctions(l.Functions())

	if sink.Errors() != 1 {
		t.Fatalf("expected 1 error for an explicit-flag mismatch between override and base, got %d", sink.Errors())
	}
}

func TestLinkFunctionsRejectsOverrideOfFinal(t *testing.T) {
	sink := diag.NewSink()
	l, base, derived := setupOverrideFixture(t, sink)
	l.CreateFunction(base, "Speak", "Speak", stub.NoID, token.Pos{}, stub.FlagFinal)
	l.CreateFunction(derived, "Speak", "Speak", stub.NoID, token.Pos{}, stub.FlagOverride)

	l.LinkFunctions(l.Functions())

	if sink.Errors() != 1 {
		t.Fatalf("expected 1 error for overriding a final function, got %d", sink.Errors())
	}
}

func TestLinkFunctionsFlagsUnmarkedShadow(t *testing.T) {
	sink := diag.NewSink()
	l, base, derived := setupOverrideFixture(t, sink)
	l.CreateFunction(base, "Speak", "Speak", stub.NoID, token.Pos{}, 0)
	l.CreateFunction(derived, "Speak", "Speak", stub.NoID, token.Pos{}, 0)

	l.LinkFunctions(l.Functions())

	if sink.Errors() != 1 {
		t.Fatalf("expected 1 error for unmarked shadow, got %d", sink.Errors())
	}
}

func TestFindAliasedFunctionsWalksBaseChain(t *testing.T) {
	l := New(diag.NewSink())
	mod := l.CreateModule("m", token.Pos{})
	base := l.CreateClass(mod, "Base", false, "", token.Pos{})
	derived := l.CreateClass(mod, "Derived", false, "Base", token.Pos{})
	l.Class(derived).Base = base

	l.CreateFunction(base, "add__int", "add", stub.NoID, token.Pos{}, stub.FlagOperator)
	l.CreateFunction(base, "add__float", "add", stub.NoID, token.Pos{}, stub.FlagOperator)
	l.CreateFunction(derived, "other", "other", stub.NoID, token.Pos{}, 0)

	got := l.FindAliasedFunctions(derived, "add")
	if len(got) != 2 {
		t.Fatalf("FindAliasedFunctions returned %d candidates, want 2", len(got))
	}
}
