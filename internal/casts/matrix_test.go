package casts

import (
	"testing"

	"github.com/rexlang/scriptc/internal/stub"
)

// fakeResolver is a minimal hand-rolled Resolver, good enough to drive
// FindBestCast/FindOperator without needing a full stublib.Library.
type fakeResolver struct {
	typeDecls map[stub.ID]*stub.TypeDecl
	typeRefs  map[stub.ID]*stub.TypeRef
	classes   map[stub.ID]*stub.Class
	functions map[stub.ID]*stub.Function
	args      map[stub.ID]*stub.FunctionArg
	sigs      map[stub.ID]string
	derives   map[stub.ID]stub.ID // class -> its one ancestor, for simple chains
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		typeDecls: map[stub.ID]*stub.TypeDecl{},
		typeRefs:  map[stub.ID]*stub.TypeRef{},
		classes:   map[stub.ID]*stub.Class{},
		functions: map[stub.ID]*stub.Function{},
		args:      map[stub.ID]*stub.FunctionArg{},
		sigs:      map[stub.ID]string{},
		derives:   map[stub.ID]stub.ID{},
	}
}

func (f *fakeResolver) TypeDecl(id stub.ID) *stub.TypeDecl       { return f.typeDecls[id] }
func (f *fakeResolver) TypeRef(id stub.ID) *stub.TypeRef         { return f.typeRefs[id] }
func (f *fakeResolver) Class(id stub.ID) *stub.Class             { return f.classes[id] }
func (f *fakeResolver) Function(id stub.ID) *stub.Function       { return f.functions[id] }
func (f *fakeResolver) FunctionArg(id stub.ID) *stub.FunctionArg { return f.args[id] }
func (f *fakeResolver) Signature(id stub.ID) string              { return f.sigs[id] }
func (f *fakeResolver) DerivesFrom(class, ancestor stub.ID) bool {
	for cur, ok := f.derives[class], true; ok; cur, ok = f.derives[cur] {
		if cur == ancestor {
			return true
		}
	}
	return false
}

func engineDecl(id stub.ID, eng stub.EngineType) *stub.TypeDecl {
	return &stub.TypeDecl{Header: stub.Header{ID: id}, Meta: stub.MetaEngine, Engine: eng}
}

func TestFindBestCastStructuralEquality(t *testing.T) {
	r := newFakeResolver()
	const a, b stub.ID = 1, 2
	r.typeDecls[a] = engineDecl(a, stub.EngineInt)
	r.typeDecls[b] = engineDecl(b, stub.EngineInt)
	r.sigs[a] = "int"
	r.sigs[b] = "int"

	m := Build(r, nil)
	c := m.FindBestCast(a, b)
	if c.Kind != KindPassthrough || c.Cost != 0 {
		t.Fatalf("FindBestCast(a,b) = %+v, want passthrough cost 0", c)
	}
}

func TestFindBestCastStrongPtrToBool(t *testing.T) {
	r := newFakeResolver()
	const ptr, boolT stub.ID = 1, 2
	r.typeDecls[ptr] = &stub.TypeDecl{Header: stub.Header{ID: ptr}, Meta: stub.MetaPtrType, Ref: 10}
	r.typeDecls[boolT] = engineDecl(boolT, stub.EngineBool)
	r.sigs[ptr], r.sigs[boolT] = "ptr<Foo>", "bool"

	m := Build(r, nil)
	c := m.FindBestCast(ptr, boolT)
	if c.Kind != KindOpcode || c.Opcode != stub.OpStrongToBool {
		t.Fatalf("FindBestCast(ptr,bool) = %+v", c)
	}
}

func TestFindBestCastEnumToInt64(t *testing.T) {
	r := newFakeResolver()
	const enumDecl, int64Decl, enumRef, classID stub.ID = 1, 2, 3, 4
	r.typeDecls[enumDecl] = &stub.TypeDecl{Header: stub.Header{ID: enumDecl}, Meta: stub.MetaSimple, Ref: enumRef}
	r.typeRefs[enumRef] = &stub.TypeRef{Header: stub.Header{ID: enumRef}, Resolved: classID}
	// Class(classID) deliberately absent -> isEnum treats it as an enum.
	r.typeDecls[int64Decl] = engineDecl(int64Decl, stub.EngineInt64)
	r.sigs[enumDecl], r.sigs[int64Decl] = "MyEnum", "int64"

	m := Build(r, nil)
	c := m.FindBestCast(enumDecl, int64Decl)
	if c.Kind != KindOpcode || c.Opcode != stub.OpEnumToInt64 || !c.Explicit {
		t.Fatalf("FindBestCast(enum,int64) = %+v", c)
	}
}

func TestFindBestCastNoRuleMatches(t *testing.T) {
	r := newFakeResolver()
	const a, b stub.ID = 1, 2
	r.typeDecls[a] = engineDecl(a, stub.EngineInt)
	r.typeDecls[b] = engineDecl(b, stub.EngineVoid)
	r.sigs[a], r.sigs[b] = "int", "void"

	m := Build(r, nil)
	if c := m.FindBestCast(a, b); c.Found() {
		t.Fatalf("expected no applicable cast, got %+v", c)
	}
}

func TestFindOperatorPicksLowestCostAndTieBreaksFirst(t *testing.T) {
	r := newFakeResolver()
	const intT, int64T stub.ID = 1, 2
	r.typeDecls[intT] = engineDecl(intT, stub.EngineInt)
	r.typeDecls[int64T] = engineDecl(int64T, stub.EngineInt64)
	r.sigs[intT], r.sigs[int64T] = "int", "int64"

	const fnExact, fnOther stub.ID = 10, 11
	const argExact, argOther stub.ID = 20, 21
	r.args[argExact] = &stub.FunctionArg{Header: stub.Header{ID: argExact}, Type: intT}
	r.args[argOther] = &stub.FunctionArg{Header: stub.Header{ID: argOther}, Type: intT}
	r.functions[fnExact] = &stub.Function{Header: stub.Header{ID: fnExact, Flags: stub.FlagOperator}, OperatorSymbol: "opAdd", Args: []stub.ID{argExact}}
	r.functions[fnOther] = &stub.Function{Header: stub.Header{ID: fnOther, Flags: stub.FlagOperator}, OperatorSymbol: "opAdd", Args: []stub.ID{argOther}}

	m := Build(r, []stub.ID{fnExact, fnOther})
	got, err := m.FindOperator("opAdd", intT, false, stub.NoID, true)
	if err != nil {
		t.Fatalf("FindOperator: %v", err)
	}
	if got != fnExact {
		t.Fatalf("FindOperator picked %v, want first-registered %v on cost tie", got, fnExact)
	}
}

func TestFindOperatorNoApplicableOverload(t *testing.T) {
	r := newFakeResolver()
	m := Build(r, nil)
	if _, err := m.FindOperator("opAdd", stub.NoID, false, stub.NoID, true); err == nil {
		t.Fatalf("expected error for unknown operator")
	}
}
