package stublib

import (
	"testing"

	"github.com/rexlang/scriptc/internal/diag"
	"github.com/rexlang/scriptc/internal/stub"
	"github.com/rexlang/scriptc/internal/token"
)

func TestCheckOperatorScopeRejectsClassMemberOperator(t *testing.T) {
	l := New(diag.NewSink())
	mod := l.CreateModule("m", token.Pos{})
	cls := l.CreateClass(mod, "Vec", false, "", token.Pos{})
	fn := l.CreateFunction(cls, "operator+/2", "operator+", stub.NoID, token.Pos{}, stub.FlagOperator)

	l.CheckOperatorScope([]stub.ID{fn})

	if l.Sink.Errors() != 1 {
		t.Fatalf("expected 1 error for a class-member operator, got %d", l.Sink.Errors())
	}
}

func TestCheckOperatorScopeAcceptsModuleScopeOperator(t *testing.T) {
	l := New(diag.NewSink())
	mod := l.CreateModule("m", token.Pos{})
	fn := l.CreateFunction(mod, "operator+/2", "operator+", stub.NoID, token.Pos{}, stub.FlagOperator)

	l.CheckOperatorScope([]stub.ID{fn})

	if l.Sink.Errors() != 0 {
		t.Fatalf("module-scope operator should be accepted, got %d errors", l.Sink.Errors())
	}
}

func TestCheckOperatorScopeIgnoresOrdinaryFunctions(t *testing.T) {
	l := New(diag.NewSink())
	mod := l.CreateModule("m", token.Pos{})
	cls := l.CreateClass(mod, "Vec", false, "", token.Pos{})
	fn := l.CreateFunction(cls, "length", "length", stub.NoID, token.Pos{}, 0)

	l.CheckOperatorScope([]stub.ID{fn})

	if l.Sink.Errors() != 0 {
		t.Fatalf("an ordinary class method is not an operator/cast, got %d errors", l.Sink.Errors())
	}
}

func TestMangleOperatorNamesDistinguishesOverloadsByArgType(t *testing.T) {
	l := New(diag.NewSink())
	mod := l.CreateModule("m", token.Pos{})
	intType := l.CreateEngineType(stub.EngineInt)
	floatType := l.CreateEngineType(stub.EngineFloat)

	addInts := l.CreateFunction(mod, "opAdd#1", "opAdd", intType, token.Pos{}, stub.FlagOperator)
	l.Function(addInts).OperatorSymbol = "opAdd"
	l.CreateFunctionArg(addInts, "a", intType, nil, 0, token.Pos{}, 0)
	l.CreateFunctionArg(addInts, "b", intType, nil, 1, token.Pos{}, 0)

	addFloats := l.CreateFunction(mod, "opAdd#2", "opAdd", floatType, token.Pos{}, stub.FlagOperator)
	l.Function(addFloats).OperatorSymbol = "opAdd"
	l.CreateFunctionArg(addFloats, "a", floatType, nil, 0, token.Pos{}, 0)
	l.CreateFunctionArg(addFloats, "b", floatType, nil, 1, token.Pos{}, 0)

	l.MangleOperatorNames([]stub.ID{addInts, addFloats})

	if l.Sink.Errors() != 0 {
		t.Fatalf("distinct overloads should not collide, got %d errors: %v", l.Sink.Errors(), l.Sink.Diagnostics())
	}
	if l.Function(addInts).Name == l.Function(addFloats).Name {
		t.Fatalf("expected distinct mangled names, both got %q", l.Function(addInts).Name)
	}
	wantInts := "opAdd_int_int_int"
	if l.Function(addInts).Name != wantInts {
		t.Errorf("int overload mangled to %q, want %q", l.Function(addInts).Name, wantInts)
	}

	modStub := l.Module(mod)
	if modStub.Members[l.Function(addInts).Name] != addInts {
		t.Errorf("expected the module's member table to be re-keyed under the mangled name")
	}
	if _, stillThere := modStub.Members["opAdd#1"]; stillThere {
		t.Errorf("expected the placeholder name to be removed from the member table")
	}
}

func TestMangleOperatorNamesCollidesIdenticalOverloads(t *testing.T) {
	l := New(diag.NewSink())
	mod := l.CreateModule("m", token.Pos{})
	intType := l.CreateEngineType(stub.EngineInt)

	first := l.CreateFunction(mod, "opAdd#1", "opAdd", intType, token.Pos{}, stub.FlagOperator)
	l.Function(first).OperatorSymbol = "opAdd"
	l.CreateFunctionArg(first, "a", intType, nil, 0, token.Pos{}, 0)
	l.CreateFunctionArg(first, "b", intType, nil, 1, token.Pos{}, 0)

	second := l.CreateFunction(mod, "opAdd#2", "opAdd", intType, token.Pos{}, stub.FlagOperator)
	l.Function(second).OperatorSymbol = "opAdd"
	l.CreateFunctionArg(second, "a", intType, nil, 0, token.Pos{}, 0)
	l.CreateFunctionArg(second, "b", intType, nil, 1, token.Pos{}, 0)

	l.MangleOperatorNames([]stub.ID{first, second})

	if l.Sink.Errors() != 1 {
		t.Fatalf("expected 1 STB002 error for two identically-typed overloads, got %d", l.Sink.Errors())
	}
}

func TestMangleCastNameIncludesArgAndReturnTypes(t *testing.T) {
	l := New(diag.NewSink())
	mod := l.CreateModule("m", token.Pos{})
	intType := l.CreateEngineType(stub.EngineInt)
	floatType := l.CreateEngineType(stub.EngineFloat)

	cast := l.CreateFunction(mod, "__cast#1", "__cast", intType, token.Pos{}, stub.FlagCast)
	l.CreateFunctionArg(cast, "v", floatType, nil, 0, token.Pos{}, 0)

	l.MangleOperatorNames([]stub.ID{cast})

	want := "cast_float_int"
	if l.Function(cast).Name != want {
		t.Errorf("cast mangled to %q, want %q", l.Function(cast).Name, want)
	}
}
