package elaborate

import (
	"testing"

	"github.com/rexlang/scriptc/internal/diag"
	"github.com/rexlang/scriptc/internal/fnast"
	"github.com/rexlang/scriptc/internal/stub"
	"github.com/rexlang/scriptc/internal/stublib"
	"github.com/rexlang/scriptc/internal/token"
)

func varDecl(name string, typeName string, init *fnast.Node) *fnast.Node {
	tn := fnast.New(fnast.TagType, token.Pos{})
	tn.Name = typeName
	n := fnast.New(fnast.TagVar, token.Pos{}, tn, init)
	n.Name = name
	return n
}

func TestCompileRejectsRedefinitionInSameScope(t *testing.T) {
	sink := diag.NewSink()
	lib := stublib.New(sink)
	el := New(lib, sink)

	body := fnast.New(fnast.TagScope, token.Pos{},
		fnast.New(fnast.TagStatementList, token.Pos{},
			varDecl("x", "int", nil),
			varDecl("x", "int", nil),
		),
	)
	fn := &stub.Function{}
	if err := el.Compile(fn, body); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if sink.Errors() != 1 {
		t.Fatalf("expected 1 redefinition error, got %d", sink.Errors())
	}
}

func TestCompileWarnsOnShadowingOuterScope(t *testing.T) {
	sink := diag.NewSink()
	lib := stublib.New(sink)
	el := New(lib, sink)

	inner := fnast.New(fnast.TagScope, token.Pos{},
		fnast.New(fnast.TagStatementList, token.Pos{}, varDecl("x", "int", nil)),
	)
	body := fnast.New(fnast.TagScope, token.Pos{},
		fnast.New(fnast.TagStatementList, token.Pos{}, varDecl("x", "int", nil), inner),
	)
	fn := &stub.Function{}
	if err := el.Compile(fn, body); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if sink.Errors() != 0 {
		t.Fatalf("shadowing should warn, not error; got %d errors", sink.Errors())
	}
	if sink.Warnings() != 1 {
		t.Fatalf("expected 1 shadow warning, got %d", sink.Warnings())
	}
}

func TestCompileTurnsVarDeclWithInitIntoAssignStatement(t *testing.T) {
	sink := diag.NewSink()
	lib := stublib.New(sink)
	el := New(lib, sink)

	init := fnast.New(fnast.TagConst, token.Pos{})
	init.Const = stub.Int(5)
	decl := varDecl("x", "int", init)
	body := fnast.New(fnast.TagScope, token.Pos{},
		fnast.New(fnast.TagStatementList, token.Pos{}, decl),
	)
	fn := &stub.Function{}
	if err := el.Compile(fn, body); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if sink.Errors() != 0 {
		t.Fatalf("initialized local declaration should elaborate cleanly, got %d error(s)", sink.Errors())
	}
	if decl.Tag != fnast.TagStatement {
		t.Fatalf("var-with-init node should rewrite to Statement, got %v", decl.Tag)
	}
	if len(decl.Children) != 1 || decl.Children[0].Tag != fnast.TagAssign {
		t.Fatalf("expected a single Assign child, got %+v", decl.Children)
	}
}
