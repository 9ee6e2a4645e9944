// Package fnast implements the function AST: the tagged tree a
// function body parses into before elaboration resolves names,
// types, and overloads in place.
package fnast

import (
	"github.com/rexlang/scriptc/internal/stub"
	"github.com/rexlang/scriptc/internal/token"
)

// Tag discriminates the node taxonomy. The set is closed (new
// language constructs are a breaking wire-format change), so — like
// stub.Kind — it is a plain enum rather than an interface-per-variant.
type Tag int

const (
	TagInvalid Tag = iota

	// Statements.
	TagNop
	TagStatement
	TagScope
	TagStatementList
	TagExpressionList
	TagIfThenElse
	TagSwitch
	TagCase
	TagDefaultCase
	TagFor
	TagWhile
	TagDoWhile
	TagReturn
	TagBreak
	TagContinue

	// Expressions (unresolved).
	TagAssign
	TagOperator
	TagCall
	TagNew
	TagType
	TagIdent
	TagAccessMember
	TagAccessIndex
	TagVar
	TagConst
	TagNull
	TagThis
	TagConditional

	// Resolved variants.
	TagVarArg
	TagVarClass
	TagVarLocal
	TagFunctionVirtual
	TagFunctionStatic
	TagFunctionFinal
	TagFunctionAlias
	TagEnumConst
	TagCallFinal
	TagCallVirtual
	TagCallStatic
	TagContext
	TagContextRef
	TagMemberOffset
	TagMemberOffsetRef
	TagConstruct
	TagMakeValueFromRef

	// Comparison primitives.
	TagGeneralEqual
	TagGeneralNotEqual
	TagPointerEqual
	TagPointerNotEqual

	// Explicit/implicit cast wrapper nodes — one tag per cast-matrix
	// opcode family, reusing stub.OpKind as the payload rather than
	// duplicating the enum here.
	TagCastOpcode
)

func (t Tag) String() string {
	names := map[Tag]string{
		TagNop: "Nop", TagStatement: "Statement", TagScope: "Scope",
		TagStatementList: "StatementList", TagExpressionList: "ExpressionList",
		TagIfThenElse: "IfThenElse", TagSwitch: "Switch", TagCase: "Case",
		TagDefaultCase: "DefaultCase", TagFor: "For", TagWhile: "While",
		TagDoWhile: "DoWhile", TagReturn: "Return", TagBreak: "Break",
		TagContinue: "Continue", TagAssign: "Assign", TagOperator: "Operator",
		TagCall: "Call", TagNew: "New", TagType: "Type", TagIdent: "Ident",
		TagAccessMember: "AccessMember", TagAccessIndex: "AccessIndex",
		TagVar: "Var", TagConst: "Const", TagNull: "Null", TagThis: "This",
		TagConditional: "Conditional", TagVarArg: "VarArg", TagVarClass: "VarClass",
		TagVarLocal: "VarLocal", TagFunctionVirtual: "FunctionVirtual",
		TagFunctionStatic: "FunctionStatic", TagFunctionFinal: "FunctionFinal",
		TagFunctionAlias: "FunctionAlias", TagEnumConst: "EnumConst",
		TagCallFinal: "CallFinal", TagCallVirtual: "CallVirtual", TagCallStatic: "CallStatic",
		TagContext: "Context", TagContextRef: "ContextRef", TagMemberOffset: "MemberOffset",
		TagMemberOffsetRef: "MemberOffsetRef", TagConstruct: "Construct",
		TagMakeValueFromRef: "MakeValueFromRef", TagGeneralEqual: "GeneralEqual",
		TagGeneralNotEqual: "GeneralNotEqual", TagPointerEqual: "PointerEqual",
		TagPointerNotEqual: "PointerNotEqual", TagCastOpcode: "CastOpcode",
	}
	if s, ok := names[t]; ok {
		return s
	}
	return "Invalid"
}

// FunctionTypeInfo is the computed type of every node once resolved:
// a TypeDecl plus the reference/constant qualifiers that the
// underlying engine type system tracks outside the TypeDecl itself.
type FunctionTypeInfo struct {
	Type      stub.ID
	Reference bool
	Constant  bool
}

// FunctionVar is one local variable or argument binding recorded in a
// Scope.
type FunctionVar struct {
	Name     string
	Pos      token.Pos
	Type     FunctionTypeInfo
	Scope    *Scope
	Index    int
	IsArg    bool
}

// Scope is owned by a Scope-tagged Node and chains to its parent so
// findVar can walk outward.
type Scope struct {
	Parent *Scope
	Vars   map[string]*FunctionVar
	Order  []string // declaration order, for LocalCtor/LocalDtor emission
}

func NewScope(parent *Scope) *Scope {
	return &Scope{Parent: parent, Vars: make(map[string]*FunctionVar)}
}

// FindVar searches this scope and every enclosing scope.
func (s *Scope) FindVar(name string) *FunctionVar {
	for cur := s; cur != nil; cur = cur.Parent {
		if v, ok := cur.Vars[name]; ok {
			return v
		}
	}
	return nil
}

// FindLocalVar searches only this scope, not its parents.
func (s *Scope) FindLocalVar(name string) *FunctionVar {
	return s.Vars[name]
}

// Declare registers a new local variable at the next positional index
// within this scope's function (index counting is the caller's
// responsibility since it must be monotonic across nested scopes).
func (s *Scope) Declare(v *FunctionVar) {
	s.Vars[v.Name] = v
	s.Order = append(s.Order, v.Name)
}

// Node is one function AST node. Child arity depends on Tag;
// callers index Children by position per the grammar (e.g. IfThenElse
// is [cond, then, else?]).
type Node struct {
	Tag      Tag
	Pos      token.Pos
	Children []*Node

	// Auxiliary payload — populated per Tag; unused fields are zero.
	Name       string          // Ident/AccessMember/Var name, operator symbol
	Const      *stub.ConstantValue
	Ref        stub.ID         // resolved variable/function/enum/class stub
	Var        *FunctionVar    // VarArg/VarLocal
	Candidates []stub.ID       // FunctionAlias candidate set
	Opcode     int             // CastOpcode payload (stub.OpKind), avoids import cycle with emit
	AccessType stub.ID         // declared type for Type nodes / New's target class

	Info FunctionTypeInfo

	// Scope chaining (set by connectScopes).
	OwnerScope *Scope

	// Loop/switch back-links for Break/Continue lowering.
	LoopBreak    *Node
	LoopContinue *Node

	// Emission bookkeeping: label indices assigned when this
	// node is a loop/if/switch that owns jump targets. Filled in by
	// internal/emit, not by the parser or elaborator.
	BreakLabel    int
	ContinueLabel int
}

// New allocates a bare node with the given tag/position and children.
func New(tag Tag, pos token.Pos, children ...*Node) *Node {
	return &Node{Tag: tag, Pos: pos, Children: children}
}

// Child returns children[i] or nil if out of range (permissive
// indexing keeps elaboration rules concise when optional children —
// e.g. While's null increment — are represented by a short slice
// rather than a sentinel).
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}
