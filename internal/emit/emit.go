// Package emit implements the opcode emitter: walks an elaborated
// fnast.Node tree and produces a flat stub.OpcodeList.
package emit

import (
	"github.com/rexlang/scriptc/internal/diag"
	"github.com/rexlang/scriptc/internal/fnast"
	"github.com/rexlang/scriptc/internal/stub"
	"github.com/rexlang/scriptc/internal/stublib"
)

// loopContext records the active-scope depth a For/While/DoWhile/
// Switch owns (so nested Break/Continue know how many scopes' worth
// of destructors to emit) plus the indices of Jump opcodes emitted
// for Break/Continue before the break/continue label itself exists in
// the opcode stream — backpatched once the label's index is known.
type loopContext struct {
	scopeDepth    int
	breakJumps    []int
	continueJumps []int
}

// Emitter holds per-function emission state.
type Emitter struct {
	Lib  *stublib.Library
	Sink *diag.Sink

	list         stub.OpcodeList
	activeScopes []*fnast.Scope
	loopStack    []loopContext
}

func New(lib *stublib.Library, sink *diag.Sink) *Emitter {
	return &Emitter{Lib: lib, Sink: sink}
}

// Emit generates opcodes for a function's elaborated root node.
func Emit(lib *stublib.Library, sink *diag.Sink, root *fnast.Node) stub.OpcodeList {
	e := New(lib, sink)
	e.generate(root)
	return e.list
}

func (e *Emitter) generate(n *fnast.Node) {
	if n == nil {
		return
	}
	switch n.Tag {
	case fnast.TagScope:
		e.emitScope(n)
	case fnast.TagStatementList:
		e.emitStatementList(n)
	case fnast.TagStatement:
		e.generate(n.Child(0))
	case fnast.TagNop:
		// no-op
	case fnast.TagIfThenElse:
		e.emitIf(n)
	case fnast.TagFor:
		e.emitFor(n)
	case fnast.TagWhile:
		e.emitWhileLike(n, false)
	case fnast.TagDoWhile:
		e.emitWhileLike(n, true)
	case fnast.TagSwitch:
		e.emitSwitch(n)
	case fnast.TagBreak:
		e.emitBreakContinue(n, true)
	case fnast.TagContinue:
		e.emitBreakContinue(n, false)
	case fnast.TagReturn:
		e.emitReturn(n)
	case fnast.TagAssign:
		e.emitAssign(n)
	case fnast.TagCallStatic, fnast.TagCallFinal, fnast.TagCallVirtual:
		e.emitCall(n)
	case fnast.TagConst:
		e.emitConst(n)
	case fnast.TagMakeValueFromRef:
		e.emitMakeValueFromRef(n)
	case fnast.TagCastOpcode:
		e.generate(n.Child(0))
		e.list.Emit(stub.Opcode{Kind: stub.OpKind(n.Opcode), Pos: n.Pos})
	case fnast.TagVarLocal, fnast.TagVarArg, fnast.TagVarClass, fnast.TagContext, fnast.TagContextRef,
		fnast.TagMemberOffset, fnast.TagMemberOffsetRef:
		e.emitVarRef(n)
	default:
		for _, c := range n.Children {
			e.generate(c)
		}
	}
}

func (e *Emitter) emitScope(n *fnast.Node) {
	scope := n.OwnerScope
	e.activeScopes = append(e.activeScopes, scope)
	for _, name := range scope.Order {
		fv := scope.Vars[name]
		e.list.Emit(stub.Opcode{Kind: stub.OpLocalCtor, Pos: n.Pos, VarIndex: fv.Index, Ref: fv.Type.Type})
	}
	endsUnconditionally := false
	for _, c := range n.Children {
		e.generate(c)
		if c.Tag == fnast.TagStatementList && len(c.Children) > 0 {
			last := c.Children[len(c.Children)-1]
			if endsInExit(last) {
				endsUnconditionally = true
			}
		}
	}
	if !endsUnconditionally {
		for i := len(scope.Order) - 1; i >= 0; i-- {
			fv := scope.Vars[scope.Order[i]]
			e.list.Emit(stub.Opcode{Kind: stub.OpLocalDtor, Pos: n.Pos, VarIndex: fv.Index})
		}
	}
	e.activeScopes = e.activeScopes[:len(e.activeScopes)-1]
}

func endsInExit(n *fnast.Node) bool {
	if n == nil {
		return false
	}
	switch n.Tag {
	case fnast.TagReturn:
		return true
	case fnast.TagStatement:
		return endsInExit(n.Child(0))
	default:
		return false
	}
}

func (e *Emitter) emitStatementList(n *fnast.Node) {
	for i, c := range n.Children {
		e.generate(c)
		if endsInExit(c) && i != len(n.Children)-1 {
			e.Sink.ReportWarning("EMT001", c.Pos, "unreachable code")
			break
		}
	}
}

func (e *Emitter) emitIf(n *fnast.Node) {
	cond, thenStmt, elseStmt := n.Child(0), n.Child(1), n.Child(2)
	e.generate(cond)
	jumpIfFalse := e.list.Emit(stub.Opcode{Kind: stub.OpJumpIfFalse, Pos: n.Pos})
	e.generate(thenStmt)
	if elseStmt != nil {
		jumpToEnd := e.list.Emit(stub.Opcode{Kind: stub.OpJump, Pos: n.Pos})
		falseLabel := e.list.Label(n.Pos)
		e.list.Ops[jumpIfFalse].Target = falseLabel
		e.generate(elseStmt)
		endLabel := e.list.Label(n.Pos)
		e.list.Ops[jumpToEnd].Target = endLabel
	} else {
		endLabel := e.list.Label(n.Pos)
		e.list.Ops[jumpIfFalse].Target = endLabel
	}
}

func (e *Emitter) emitFor(n *fnast.Node) {
	cond, incr, body := n.Child(0), n.Child(1), n.Child(2)
	loopStart := e.list.Label(n.Pos)
	var jumpIfFalse int
	hasCond := cond != nil && cond.Tag != fnast.TagNop
	if hasCond {
		e.generate(cond)
		jumpIfFalse = e.list.Emit(stub.Opcode{Kind: stub.OpJumpIfFalse, Pos: n.Pos})
	}
	e.loopStack = append(e.loopStack, loopContext{scopeDepth: len(e.activeScopes)})
	e.generate(body)
	continueLabel := e.list.Label(n.Pos)
	if incr != nil && incr.Tag != fnast.TagNop {
		e.generate(incr)
	}
	e.list.Emit(stub.Opcode{Kind: stub.OpJump, Pos: n.Pos, Target: loopStart})
	breakLabel := e.list.Label(n.Pos)
	if hasCond {
		e.list.Ops[jumpIfFalse].Target = breakLabel
	}
	e.closeLoop(continueLabel, breakLabel)
}

func (e *Emitter) emitWhileLike(n *fnast.Node, isDoWhile bool) {
	cond, body := n.Child(0), n.Child(2)
	loopStart := e.list.Label(n.Pos)
	var jumpIfFalse int
	if !isDoWhile {
		e.generate(cond)
		jumpIfFalse = e.list.Emit(stub.Opcode{Kind: stub.OpJumpIfFalse, Pos: n.Pos})
	}
	e.loopStack = append(e.loopStack, loopContext{scopeDepth: len(e.activeScopes)})
	e.generate(body)
	continueLabel := e.list.Label(n.Pos)
	if isDoWhile {
		e.generate(cond)
		jmp := e.list.Emit(stub.Opcode{Kind: stub.OpJumpIfFalse, Pos: n.Pos})
		e.list.Emit(stub.Opcode{Kind: stub.OpJump, Pos: n.Pos, Target: loopStart})
		breakLabel := e.list.Label(n.Pos)
		e.list.Ops[jmp].Target = breakLabel
		e.closeLoop(continueLabel, breakLabel)
		return
	}
	e.list.Emit(stub.Opcode{Kind: stub.OpJump, Pos: n.Pos, Target: loopStart})
	breakLabel := e.list.Label(n.Pos)
	e.list.Ops[jumpIfFalse].Target = breakLabel
	e.closeLoop(continueLabel, breakLabel)
}

// closeLoop backpatches every Break/Continue Jump recorded while the
// loop body was being emitted, now that the break/continue labels'
// indices are known, and pops the loop context.
func (e *Emitter) closeLoop(continueLabel, breakLabel int) {
	lc := e.loopStack[len(e.loopStack)-1]
	for _, idx := range lc.breakJumps {
		e.list.Ops[idx].Target = breakLabel
	}
	for _, idx := range lc.continueJumps {
		e.list.Ops[idx].Target = continueLabel
	}
	e.loopStack = e.loopStack[:len(e.loopStack)-1]
}

func (e *Emitter) emitSwitch(n *fnast.Node) {
	subject := n.Child(0)
	e.generate(subject)
	e.loopStack = append(e.loopStack, loopContext{scopeDepth: len(e.activeScopes)})
	var jumps []int
	for _, c := range n.Children[1:] {
		if c.Tag != fnast.TagCase {
			continue
		}
		e.generate(c.Child(0))
		j := e.list.Emit(stub.Opcode{Kind: stub.OpTestEqual, Pos: c.Pos})
		jumps = append(jumps, j)
	}
	for i, c := range n.Children[1:] {
		if i < len(jumps) {
			e.list.Ops[jumps[i]].Target = e.list.Label(c.Pos)
		}
		if c.Tag == fnast.TagCase {
			e.generate(c.Child(1))
		} else {
			e.generate(c.Child(0))
		}
	}
	breakLabel := e.list.Label(n.Pos)
	e.closeLoop(breakLabel, breakLabel)
}

func (e *Emitter) emitBreakContinue(n *fnast.Node, isBreak bool) {
	if len(e.loopStack) == 0 {
		e.Sink.ReportError("EMT002", n.Pos, "break/continue with no enclosing loop")
		return
	}
	idx := len(e.loopStack) - 1
	lc := &e.loopStack[idx]
	for i := len(e.activeScopes) - 1; i >= lc.scopeDepth; i-- {
		scope := e.activeScopes[i]
		for j := len(scope.Order) - 1; j >= 0; j-- {
			fv := scope.Vars[scope.Order[j]]
			e.list.Emit(stub.Opcode{Kind: stub.OpLocalDtor, Pos: n.Pos, VarIndex: fv.Index})
		}
	}
	jumpIdx := e.list.Emit(stub.Opcode{Kind: stub.OpJump, Pos: n.Pos})
	if isBreak {
		lc.breakJumps = append(lc.breakJumps, jumpIdx)
	} else {
		lc.continueJumps = append(lc.continueJumps, jumpIdx)
	}
}

func (e *Emitter) emitReturn(n *fnast.Node) {
	expr := n.Child(0)
	if expr != nil {
		e.generate(expr)
		kind := stub.OpReturnAny
		switch {
		case !expr.Info.Reference:
			kind = stub.OpReturnDirect
		case expr.Info.Type.Valid():
			kind = e.returnLoadKind(expr)
		}
		e.list.Emit(stub.Opcode{Kind: kind, Pos: n.Pos})
	}
	for i := len(e.activeScopes) - 1; i >= 0; i-- {
		scope := e.activeScopes[i]
		for j := len(scope.Order) - 1; j >= 0; j-- {
			fv := scope.Vars[scope.Order[j]]
			e.list.Emit(stub.Opcode{Kind: stub.OpLocalDtor, Pos: n.Pos, VarIndex: fv.Index})
		}
	}
	e.list.Emit(stub.Opcode{Kind: stub.OpExit, Pos: n.Pos})
}

// returnLoadKind picks the ReturnLoad1/2/4/8 opcode that loads a
// reference-typed return expression's underlying value at the width
// its engine type actually occupies; anything other than a plain
// engine scalar (a class/pointer return) falls back to ReturnAny.
func (e *Emitter) returnLoadKind(expr *fnast.Node) stub.OpKind {
	td := e.Lib.TypeDecl(expr.Info.Type)
	if td == nil || td.Meta != stub.MetaEngine {
		return stub.OpReturnAny
	}
	switch td.Engine {
	case stub.EngineBool, stub.EngineInt8, stub.EngineUint8:
		return stub.OpReturnLoad1
	case stub.EngineInt16, stub.EngineUint16:
		return stub.OpReturnLoad2
	case stub.EngineInt, stub.EngineUint, stub.EngineFloat:
		return stub.OpReturnLoad4
	case stub.EngineInt64, stub.EngineUint64, stub.EngineDouble:
		return stub.OpReturnLoad8
	default:
		return stub.OpReturnAny
	}
}

func (e *Emitter) emitAssign(n *fnast.Node) {
	lv, rv := n.Child(0), n.Child(1)
	e.generate(rv)
	e.generate(lv)
	e.list.Emit(stub.Opcode{Kind: stub.OpAssignAny, Pos: n.Pos})
}

func (e *Emitter) emitCall(n *fnast.Node) {
	fn := e.Lib.Function(n.Ref)
	if fn == nil {
		return
	}
	if fn.OpcodeName != "" {
		if opk, ok := opcodeByName[fn.OpcodeName]; ok {
			for _, arg := range n.Children {
				e.generate(arg)
			}
			e.list.Emit(stub.Opcode{Kind: opk, Pos: n.Pos})
			return
		}
	}
	var modes []stub.ArgMode
	for _, arg := range n.Children {
		e.generate(arg)
		mode := stub.ArgTypedValue
		if arg.Info.Reference {
			mode = stub.ArgRef
		}
		modes = append(modes, mode)
	}
	kind := stub.OpStaticFunc
	switch n.Tag {
	case fnast.TagCallVirtual:
		kind = stub.OpVirtualFunc
	case fnast.TagCallFinal:
		kind = stub.OpFinalFunc
	}
	e.list.Emit(stub.Opcode{Kind: kind, Pos: n.Pos, Ref: n.Ref, Encoding: stub.EncodeArgs(modes)})
}

var opcodeByName = map[string]stub.OpKind{
	"Nop": stub.OpNop, "LogicOr": stub.OpLogicOr, "LogicAnd": stub.OpLogicAnd,
}

// constEngineType returns the engine width a constant-folded literal
// was narrowed to by elaborate.makeIntoMatchingType (e.g. a literal
// assigned into an int8 property keeps n.Info.Type == EngineInt8 so
// its opcode can be sized to match), or "" if the node isn't typed as
// a plain engine scalar.
func (e *Emitter) constEngineType(n *fnast.Node) stub.EngineType {
	td := e.Lib.TypeDecl(n.Info.Type)
	if td == nil || td.Meta != stub.MetaEngine {
		return ""
	}
	return td.Engine
}

func (e *Emitter) emitConst(n *fnast.Node) {
	c := n.Const
	if c == nil {
		return
	}
	switch c.Tag {
	case stub.ConstInteger:
		switch e.constEngineType(n) {
		case stub.EngineInt8:
			e.list.Emit(stub.Opcode{Kind: stub.OpIntConst1, Pos: n.Pos, IntValue: c.Int})
		case stub.EngineInt16:
			e.list.Emit(stub.Opcode{Kind: stub.OpIntConst2, Pos: n.Pos, IntValue: c.Int})
		case stub.EngineInt64:
			e.list.Emit(stub.Opcode{Kind: stub.OpIntConst8, Pos: n.Pos, IntValue: c.Int})
		default:
			switch c.Int {
			case 0:
				e.list.Emit(stub.Opcode{Kind: stub.OpIntZero, Pos: n.Pos})
			case 1:
				e.list.Emit(stub.Opcode{Kind: stub.OpIntOne, Pos: n.Pos})
			default:
				e.list.Emit(stub.Opcode{Kind: stub.OpIntConst4, Pos: n.Pos, IntValue: c.Int})
			}
		}
	case stub.ConstUnsigned:
		switch e.constEngineType(n) {
		case stub.EngineUint8:
			e.list.Emit(stub.Opcode{Kind: stub.OpUintConst1, Pos: n.Pos, UintValue: c.Uint})
		case stub.EngineUint16:
			e.list.Emit(stub.Opcode{Kind: stub.OpUintConst2, Pos: n.Pos, UintValue: c.Uint})
		case stub.EngineUint64:
			e.list.Emit(stub.Opcode{Kind: stub.OpUintConst8, Pos: n.Pos, UintValue: c.Uint})
		default:
			switch c.Uint {
			case 0:
				e.list.Emit(stub.Opcode{Kind: stub.OpIntZero, Pos: n.Pos})
			case 1:
				e.list.Emit(stub.Opcode{Kind: stub.OpIntOne, Pos: n.Pos})
			default:
				e.list.Emit(stub.Opcode{Kind: stub.OpUintConst4, Pos: n.Pos, UintValue: c.Uint})
			}
		}
	case stub.ConstFloat:
		if e.constEngineType(n) == stub.EngineDouble {
			e.list.Emit(stub.Opcode{Kind: stub.OpDoubleConst, Pos: n.Pos, DoubleValue: c.Float})
		} else {
			e.list.Emit(stub.Opcode{Kind: stub.OpFloatConst, Pos: n.Pos, FloatValue: c.Float})
		}
	case stub.ConstBool:
		if c.Bool {
			e.list.Emit(stub.Opcode{Kind: stub.OpBoolTrue, Pos: n.Pos})
		} else {
			e.list.Emit(stub.Opcode{Kind: stub.OpBoolFalse, Pos: n.Pos})
		}
	case stub.ConstString:
		e.list.Emit(stub.Opcode{Kind: stub.OpStringConst, Pos: n.Pos, Text: c.String})
	case stub.ConstName:
		e.list.Emit(stub.Opcode{Kind: stub.OpNameConst, Pos: n.Pos, Text: c.Name})
	}
}

// emitMakeValueFromRef loads the value a reference points at, picking
// the Load opcode that matches the referenced engine type's width, a
// generic pointer load for a raw class reference, or the smart-pointer
// loads for ptr<T>/weak<T>; anything else falls back to LoadAny, which
// carries the type reference opcodes need to load arbitrary structs.
func (e *Emitter) emitMakeValueFromRef(n *fnast.Node) {
	inner := n.Child(0)
	e.generate(inner)
	kind := stub.OpLoadAny
	td := e.Lib.TypeDecl(n.Info.Type)
	if td != nil {
		switch td.Meta {
		case stub.MetaEngine:
			switch td.Engine {
			case stub.EngineBool, stub.EngineInt8:
				kind = stub.OpLoadInt1
			case stub.EngineUint8:
				kind = stub.OpLoadUint1
			case stub.EngineInt16:
				kind = stub.OpLoadInt2
			case stub.EngineUint16:
				kind = stub.OpLoadUint2
			case stub.EngineInt:
				kind = stub.OpLoadInt4
			case stub.EngineUint:
				kind = stub.OpLoadUint4
			case stub.EngineInt64:
				kind = stub.OpLoadInt8
			case stub.EngineUint64:
				kind = stub.OpLoadUint8
			case stub.EngineFloat:
				kind = stub.OpLoadFloat
			case stub.EngineDouble:
				kind = stub.OpLoadDouble
			}
		case stub.MetaClassType:
			kind = stub.OpLoadUint8 // generic pointer
		case stub.MetaPtrType:
			kind = stub.OpLoadStrongPtr
		case stub.MetaWeakPtrType:
			kind = stub.OpLoadWeakPtr
		}
	}
	op := stub.Opcode{Kind: kind, Pos: n.Pos}
	if kind == stub.OpLoadAny {
		op.Ref = n.Info.Type
	}
	e.list.Emit(op)
}

func (e *Emitter) emitVarRef(n *fnast.Node) {
	switch n.Tag {
	case fnast.TagVarLocal:
		e.list.Emit(stub.Opcode{Kind: stub.OpLocalVar, Pos: n.Pos, VarIndex: n.Var.Index})
	case fnast.TagVarArg:
		e.list.Emit(stub.Opcode{Kind: stub.OpParamVar, Pos: n.Pos, VarIndex: n.Var.Index})
	case fnast.TagVarClass:
		e.list.Emit(stub.Opcode{Kind: stub.OpContextFromRef, Pos: n.Pos})
		e.list.Emit(stub.Opcode{Kind: stub.OpStructMember, Pos: n.Pos, Ref: n.Ref})
	case fnast.TagContext:
		e.list.Emit(stub.Opcode{Kind: stub.OpStructMember, Pos: n.Pos, Ref: n.Ref})
	case fnast.TagContextRef:
		e.list.Emit(stub.Opcode{Kind: stub.OpStructMemberRef, Pos: n.Pos, Ref: n.Ref})
	case fnast.TagMemberOffset:
		e.generate(n.Child(0))
		e.list.Emit(stub.Opcode{Kind: stub.OpStructMember, Pos: n.Pos, Ref: n.Ref})
	case fnast.TagMemberOffsetRef:
		e.generate(n.Child(0))
		e.list.Emit(stub.Opcode{Kind: stub.OpStructMemberRef, Pos: n.Pos, Ref: n.Ref})
	}
}
