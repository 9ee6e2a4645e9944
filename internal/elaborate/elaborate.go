// Package elaborate implements the function elaborator: the single
// orchestrator that turns a raw fnast.Node tree into a
// fully-typed, fully-resolved one ready for opcode emission — scope
// chaining, variable resolution, and bottom-up type resolution with
// cast insertion.
package elaborate

import (
	"github.com/rexlang/scriptc/internal/diag"
	"github.com/rexlang/scriptc/internal/fnast"
	"github.com/rexlang/scriptc/internal/stub"
	"github.com/rexlang/scriptc/internal/stublib"
)

// Elaborator holds the per-compilation state the resolution rules
// need: the stub library (for name/type lookups and the cast matrix)
// and the diagnostic sink.
type Elaborator struct {
	Lib  *stublib.Library
	Sink *diag.Sink

	nextVarIndex int
}

func New(lib *stublib.Library, sink *diag.Sink) *Elaborator {
	return &Elaborator{Lib: lib, Sink: sink}
}

// Compile runs the three-step scope/variable/type resolution pipeline
// over fn's parsed body.
func (e *Elaborator) Compile(fn *stub.Function, root *fnast.Node) error {
	if root == nil {
		return nil
	}
	fnScope := fnast.NewScope(nil)
	for _, argID := range fn.Args {
		arg := e.Lib.FunctionArg(argID)
		if arg == nil {
			continue
		}
		fv := &fnast.FunctionVar{Name: arg.Name, Pos: arg.Pos, IsArg: true, Index: arg.Index,
			Type: fnast.FunctionTypeInfo{Type: arg.Type, Reference: true, Constant: !arg.Flags.Has(stub.FlagOut)}}
		fnScope.Declare(fv)
	}
	e.connectScopes(root, fnScope)
	e.resolveVars(root)
	e.resolveTypes(root, fn, nil)
	return nil
}

// connectScopes is step 1: a Scope node allocates a fresh Scope with
// parent = enclosing scope; every other node inherits its parent's
// scope.
func (e *Elaborator) connectScopes(n *fnast.Node, parent *fnast.Scope) {
	if n == nil {
		return
	}
	scope := parent
	if n.Tag == fnast.TagScope {
		scope = fnast.NewScope(parent)
	}
	n.OwnerScope = scope
	for _, c := range n.Children {
		e.connectScopes(c, scope)
	}
}

// resolveVars is step 2: walk every Var node, validate the name,
// allocate a FunctionVar, and rewrite the node to Nop or
// Assign(Ident, initializer).
func (e *Elaborator) resolveVars(n *fnast.Node) {
	if n == nil {
		return
	}
	for _, c := range n.Children {
		e.resolveVars(c)
	}
	if n.Tag != fnast.TagVar {
		return
	}
	scope := n.OwnerScope
	if scope.FindLocalVar(n.Name) != nil {
		e.Sink.ReportError(diag.Code("ELB001"), n.Pos, "redefinition of local variable %q", n.Name)
	} else if outer := scope.Parent; outer != nil && outer.FindVar(n.Name) != nil {
		e.Sink.ReportWarning(diag.Code("ELB001"), n.Pos, "declaration of %q shadows an outer variable", n.Name)
	}

	typeNode := n.Child(0)
	declType := e.resolveTypeName(stub.NoID, typeNode)

	fv := &fnast.FunctionVar{Name: n.Name, Pos: n.Pos, Scope: scope, Index: e.nextVarIndex,
		Type: fnast.FunctionTypeInfo{Type: declType, Reference: true, Constant: false}}
	e.nextVarIndex++
	scope.Declare(fv)

	init := n.Child(1)
	*n = fnast.Node{Tag: fnast.TagNop, Pos: n.Pos, OwnerScope: scope}
	if init != nil {
		ident := fnast.New(fnast.TagVarLocal, n.Pos)
		ident.Var = fv
		ident.Info = fv.Type
		assign := fnast.New(fnast.TagAssign, n.Pos, ident, init)
		assign.OwnerScope = scope
		n.Tag = fnast.TagStatement
		n.Children = []*fnast.Node{assign}
	}
}

// resolveTypeName resolves a Type node's dotted name against the stub
// library into a TypeDecl, synthesizing the TypeDecl via the
// appropriate Create*Type call. owner is the lookup context of the
// created TypeRef, so resolution starts at owner and walks outward
// through its enclosing class/module scopes.
func (e *Elaborator) resolveTypeName(owner stub.ID, typeNode *fnast.Node) stub.ID {
	if typeNode == nil || typeNode.Name == "" {
		return stub.NoID
	}
	if eng, ok := engineTypeByName[typeNode.Name]; ok {
		return e.Lib.CreateEngineType(eng)
	}
	ref := e.Lib.CreateTypeRef(owner, typeNode.Name, typeNode.Pos)
	e.Lib.ResolveTypeRefs([]stub.ID{ref})
	tr := e.Lib.TypeRef(ref)
	if tr == nil || !tr.Resolved.Valid() {
		e.Sink.ReportError(diag.Code("ELB002"), typeNode.Pos, "unresolved type %q", typeNode.Name)
		return stub.NoID
	}
	if c := e.Lib.Class(tr.Resolved); c != nil {
		if c.Flags.Has(stub.FlagStruct) {
			return e.Lib.CreateSimpleType(ref, typeNode.Pos)
		}
		return e.Lib.CreateSharedPointerType(ref, typeNode.Pos)
	}
	return e.Lib.CreateSimpleType(ref, typeNode.Pos) // enum
}

var engineTypeByName = map[string]stub.EngineType{
	"int": stub.EngineInt, "uint": stub.EngineUint, "int64": stub.EngineInt64,
	"uint64": stub.EngineUint64, "int16": stub.EngineInt16, "int8": stub.EngineInt8,
	"uint8": stub.EngineUint8, "uint16": stub.EngineUint16, "float": stub.EngineFloat,
	"double": stub.EngineDouble, "bool": stub.EngineBool, "strid": stub.EngineStrID,
	"string": stub.EngineString, "Variant": stub.EngineVariant, "void": stub.EngineVoid,
}

