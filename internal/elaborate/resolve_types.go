package elaborate

import (
	"fmt"

	"github.com/rexlang/scriptc/internal/diag"
	"github.com/rexlang/scriptc/internal/fnast"
	"github.com/rexlang/scriptc/internal/stub"
)

// resolveTypes is step 3: depth-first, children first, so every
// node's own rule can inspect already-typed children. parent is the
// immediate syntactic parent, consulted by rules that need context
// (e.g. Ident inside a Call position falling back to alias search).
func (e *Elaborator) resolveTypes(n *fnast.Node, fn *stub.Function, parent *fnast.Node) {
	if n == nil {
		return
	}
	for _, c := range n.Children {
		e.resolveTypes(c, fn, n)
	}

	switch n.Tag {
	case fnast.TagIdent:
		e.resolveIdent(n, fn, parent)
	case fnast.TagThis:
		e.resolveThis(n, fn)
	case fnast.TagNull:
		n.Info = fnast.FunctionTypeInfo{Type: stub.NoID, Constant: true}
	case fnast.TagConst:
		n.Info = fnast.FunctionTypeInfo{Type: e.naturalConstType(n.Const), Constant: true}
	case fnast.TagType:
		n.Info = fnast.FunctionTypeInfo{Type: e.resolveTypeName(stub.NoID, n), Constant: true}
	case fnast.TagAccessMember:
		e.resolveAccessMember(n, fn)
	case fnast.TagOperator:
		e.resolveOperator(n, fn)
	case fnast.TagCall:
		e.resolveCall(n, fn)
	case fnast.TagNew:
		e.resolveNew(n, fn)
	case fnast.TagReturn:
		e.resolveReturn(n, fn)
	case fnast.TagIfThenElse, fnast.TagWhile, fnast.TagDoWhile:
		e.coerceCondition(n.Child(0), fn)
	case fnast.TagFor:
		if cond := n.Child(0); cond != nil && cond.Tag != fnast.TagNop {
			e.coerceCondition(cond, fn)
		}
	case fnast.TagAssign:
		e.resolveAssign(n, fn)
	case fnast.TagBreak, fnast.TagContinue:
		e.linkLoopContext(n)
	}
}

func (e *Elaborator) resolveIdent(n *fnast.Node, fn *stub.Function, parent *fnast.Node) {
	scope := n.OwnerScope
	if scope != nil {
		if fv := scope.FindVar(n.Name); fv != nil {
			if fv.IsArg {
				n.Tag = fnast.TagVarArg
			} else {
				n.Tag = fnast.TagVarLocal
			}
			n.Var = fv
			n.Info = fv.Type
			return
		}
	}

	if owner := e.Lib.Class(fn.Owner); owner != nil {
		if memberID, ok := lookupMember(e.Lib, owner, n.Name); ok {
			if prop := e.Lib.Property(memberID); prop != nil {
				n.Tag = fnast.TagVarClass
				n.Ref = memberID
				n.Info = fnast.FunctionTypeInfo{Type: prop.Type, Reference: true}
				return
			}
			if member := e.Lib.Function(memberID); member != nil {
				e.resolveFunctionRef(n, member, memberID, owner)
				return
			}
		}
	}

	if cst := e.findGlobalConstant(n.Name); cst != nil {
		n.Tag = fnast.TagConst
		n.Const = cst.Value
		n.Info = fnast.FunctionTypeInfo{Type: cst.Type, Constant: true}
		return
	}
	if fnID, ok := e.findGlobalFunction(n.Name); ok {
		e.resolveFunctionRef(n, e.Lib.Function(fnID), fnID, nil)
		return
	}

	if parent != nil && parent.Tag == fnast.TagCall {
		var candidates []stub.ID
		if owner := e.Lib.Class(fn.Owner); owner != nil {
			candidates = e.Lib.FindAliasedFunctions(owner.ID, n.Name)
		}
		if len(candidates) > 0 {
			n.Tag = fnast.TagFunctionAlias
			n.Candidates = candidates
			return
		}
	}

	e.Sink.ReportError(diag.Code("ELB002"), n.Pos, "unresolved identifier %q", n.Name)
}

func lookupMember(lib interface {
	Class(stub.ID) *stub.Class
}, owner *stub.Class, name string) (stub.ID, bool) {
	cur := owner
	seen := map[stub.ID]bool{}
	for cur != nil && !seen[cur.ID] {
		seen[cur.ID] = true
		if id, ok := cur.MembersByName[name]; ok {
			return id, true
		}
		cur = lib.Class(cur.Base)
	}
	return stub.NoID, false
}

func (e *Elaborator) resolveFunctionRef(n *fnast.Node, fn *stub.Function, id stub.ID, owner *stub.Class) {
	n.Ref = id
	switch {
	case fn.Flags.Has(stub.FlagStatic) || owner == nil:
		n.Tag = fnast.TagFunctionStatic
	case fn.Flags.Has(stub.FlagFinal) || fn.Flags.Has(stub.FlagOverride) == false && owner.Flags.Has(stub.FlagStruct):
		n.Tag = fnast.TagFunctionFinal
	default:
		n.Tag = fnast.TagFunctionVirtual
	}
	n.Info = fnast.FunctionTypeInfo{Type: fn.ReturnType}
}

func (e *Elaborator) findGlobalConstant(name string) *stub.Constant {
	for _, id := range e.Lib.Constants() {
		if c := e.Lib.Constant(id); c != nil && c.Name == name {
			return c
		}
	}
	return nil
}

func (e *Elaborator) findGlobalFunction(name string) (stub.ID, bool) {
	for _, id := range e.Lib.Functions() {
		if fn := e.Lib.Function(id); fn != nil && fn.Name == name && !isMemberOfClass(e.Lib, fn.Owner) {
			return id, true
		}
	}
	return stub.NoID, false
}

func isMemberOfClass(lib interface {
	Class(stub.ID) *stub.Class
}, owner stub.ID) bool {
	return lib.Class(owner) != nil
}

// naturalConstType assigns a literal's unannotated type so non-numeric
// constants (bool/string/name) compare equal under Signature without
// needing a cast, while numeric literals stay provisional until
// makeIntoMatchingType fits them against a required type.
func (e *Elaborator) naturalConstType(c *stub.ConstantValue) stub.ID {
	if c == nil {
		return stub.NoID
	}
	switch c.Tag {
	case stub.ConstBool:
		return e.Lib.CreateEngineType(stub.EngineBool)
	case stub.ConstString:
		return e.Lib.CreateEngineType(stub.EngineString)
	case stub.ConstName:
		return e.Lib.CreateEngineType(stub.EngineStrID)
	case stub.ConstInteger:
		return e.Lib.CreateEngineType(stub.EngineInt)
	case stub.ConstFloat:
		return e.Lib.CreateEngineType(stub.EngineFloat)
	default:
		return stub.NoID
	}
}

func (e *Elaborator) resolveThis(n *fnast.Node, fn *stub.Function) {
	if fn.Flags.Has(stub.FlagStatic) {
		e.Sink.ReportError(diag.Code("ELB003"), n.Pos, "'this' used in a static function")
		return
	}
	owner := e.Lib.Class(fn.Owner)
	if owner == nil {
		e.Sink.ReportError(diag.Code("ELB003"), n.Pos, "'this' used outside a class or struct")
		return
	}
	n.Info = fnast.FunctionTypeInfo{Type: owner.ID, Reference: owner.Flags.Has(stub.FlagStruct)}
}

func (e *Elaborator) resolveAccessMember(n *fnast.Node, fn *stub.Function) {
	ctx := n.Child(0)
	ownerClass := e.Lib.Class(ctx.Info.Type)
	if ownerClass == nil {
		if en := e.Lib.Enum(ctx.Info.Type); en != nil {
			if optID, ok := en.OptionsByName[n.Name]; ok {
				n.Tag = fnast.TagEnumConst
				n.Ref = optID
				n.Info = fnast.FunctionTypeInfo{Type: ctx.Info.Type, Constant: true}
				return
			}
		}
		e.Sink.ReportError(diag.Code("ELB002"), n.Pos, "cannot access member %q", n.Name)
		return
	}
	memberID, ok := lookupMember(e.Lib, ownerClass, n.Name)
	if !ok {
		e.Sink.ReportError(diag.Code("ELB002"), n.Pos, "unresolved member %q on %q", n.Name, ownerClass.Name)
		return
	}
	if !e.Lib.CanAccess(fn.Owner, memberID) {
		e.Sink.ReportError(diag.Code("STB014"), n.Pos, "access violation: %q is not accessible", n.Name)
	}
	if prop := e.Lib.Property(memberID); prop != nil {
		n.Ref = memberID
		if ownerClass.Flags.Has(stub.FlagStruct) {
			n.Tag = fnast.TagMemberOffset
		} else {
			n.Tag = fnast.TagContext
		}
		n.Info = fnast.FunctionTypeInfo{Type: prop.Type, Reference: true}
		return
	}
	if member := e.Lib.Function(memberID); member != nil {
		e.resolveFunctionRef(n, member, memberID, ownerClass)
		return
	}
}

func (e *Elaborator) resolveOperator(n *fnast.Node, fn *stub.Function) {
	a := n.Child(0)
	b := n.Child(1)
	right := stub.NoID
	if b != nil {
		right = b.Info.Type
	}
	fid, err := e.Lib.Casts.FindOperator(n.Name, a.Info.Type, isAssignable(a), right, false)
	if err != nil && b != nil {
		fid, err = e.Lib.Casts.FindOperator(n.Name, a.Info.Type, isAssignable(a), right, true)
		if err == nil {
			e.coerceArgsToOperator(n, fid)
		}
	}
	if err != nil {
		e.Sink.ReportError(diag.Code("CST003"), n.Pos, "%v", err)
		return
	}
	opFn := e.Lib.Function(fid)
	n.Ref = fid
	n.Tag = fnast.TagCallStatic
	n.Info = fnast.FunctionTypeInfo{Type: opFn.ReturnType}
}

func (e *Elaborator) coerceArgsToOperator(n *fnast.Node, fid stub.ID) {
	fn := e.Lib.Function(fid)
	for i, argID := range fn.Args {
		if i >= len(n.Children) {
			break
		}
		arg := e.Lib.FunctionArg(argID)
		e.makeIntoMatchingType(n.Children[i], arg.Type, false)
	}
}

func isAssignable(n *fnast.Node) bool {
	return n.Tag == fnast.TagVarLocal || n.Tag == fnast.TagVarArg || n.Tag == fnast.TagVarClass ||
		n.Tag == fnast.TagMemberOffset || n.Tag == fnast.TagContext
}

func (e *Elaborator) resolveCall(n *fnast.Node, fn *stub.Function) {
	callee := n.Child(0)
	args := n.Children[1:]

	if callee.Tag == fnast.TagType {
		if c := e.Lib.Class(callee.Info.Type); c != nil {
			if c.Flags.Has(stub.FlagStruct) {
				n.Tag = fnast.TagConstruct
				n.AccessType = c.ID
			} else {
				n.Tag = fnast.TagCastOpcode
				n.AccessType = c.ID
			}
			n.Info = fnast.FunctionTypeInfo{Type: callee.Info.Type}
			return
		}
	}

	if callee.Tag == fnast.TagFunctionAlias {
		fid, err := e.resolveFunctionAlias(callee.Candidates, args)
		if err != nil {
			e.Sink.ReportError(diag.Code("CST002"), n.Pos, "%v", err)
			return
		}
		callee.Ref = fid
	}

	if !callee.Ref.Valid() {
		return
	}
	target := e.Lib.Function(callee.Ref)
	if target == nil {
		return
	}
	switch callee.Tag {
	case fnast.TagFunctionFinal, fnast.TagFunctionAlias:
		n.Tag = fnast.TagCallFinal
	case fnast.TagFunctionVirtual:
		n.Tag = fnast.TagCallVirtual
	default:
		n.Tag = fnast.TagCallStatic
	}
	n.Ref = callee.Ref
	n.Children = args

	if len(args) < len(target.Args) {
		for i := len(args); i < len(target.Args); i++ {
			argStub := e.Lib.FunctionArg(target.Args[i])
			if argStub.Default == nil {
				e.Sink.ReportError(diag.Code("ELB007"), n.Pos, "too few arguments to %q", target.Name)
				break
			}
			cn := fnast.New(fnast.TagConst, n.Pos)
			cn.Const = argStub.Default
			cn.Info = fnast.FunctionTypeInfo{Constant: true}
			n.Children = append(n.Children, cn)
		}
	} else if len(args) > len(target.Args) {
		e.Sink.ReportError(diag.Code("ELB007"), n.Pos, "too many arguments to %q", target.Name)
	}

	for i, argID := range target.Args {
		if i >= len(n.Children) {
			break
		}
		argStub := e.Lib.FunctionArg(argID)
		e.makeIntoMatchingType(n.Children[i], argStub.Type, false)
	}
	n.Info = fnast.FunctionTypeInfo{Type: target.ReturnType}
}

// resolveFunctionAlias picks the minimum-cost overload candidate,
// retrying with explicit casts allowed if no implicit match exists.
func (e *Elaborator) resolveFunctionAlias(candidates []stub.ID, args []*fnast.Node) (stub.ID, error) {
	best, bestCost, err := e.scoreCandidates(candidates, args, false)
	if err != nil {
		best, bestCost, err = e.scoreCandidates(candidates, args, true)
		if err == nil {
			bestCost += 100
		}
	}
	_ = bestCost
	return best, err
}

func (e *Elaborator) scoreCandidates(candidates []stub.ID, args []*fnast.Node, allowExplicit bool) (stub.ID, int, error) {
	var best stub.ID
	bestCost := -1
	var tied []stub.ID
	for _, fid := range candidates {
		fn := e.Lib.Function(fid)
		if fn == nil || len(fn.Args) != len(args) {
			continue
		}
		cost := 0
		ok := true
		for i, argID := range fn.Args {
			arg := e.Lib.FunctionArg(argID)
			c := e.Lib.Casts.FindBestCast(args[i].Info.Type, arg.Type)
			if !c.Found() || (c.Explicit && !allowExplicit) {
				ok = false
				break
			}
			cost += c.Cost
		}
		if !ok {
			continue
		}
		switch {
		case bestCost == -1 || cost < bestCost:
			best, bestCost, tied = fid, cost, []stub.ID{fid}
		case cost == bestCost:
			tied = append(tied, fid)
		}
	}
	if bestCost == -1 {
		return stub.NoID, 0, fmt.Errorf("no applicable overload")
	}
	if len(tied) > 1 {
		return stub.NoID, 0, fmt.Errorf("ambiguous call among %d candidates", len(tied))
	}
	return best, bestCost, nil
}

func (e *Elaborator) resolveNew(n *fnast.Node, fn *stub.Function) {
	typeNode := n.Child(0)
	c := e.Lib.Class(typeNode.Info.Type)
	if c == nil {
		e.Sink.ReportError(diag.Code("ELB008"), n.Pos, "new requires a class type")
		return
	}
	if c.Flags.Has(stub.FlagStruct) {
		e.Sink.ReportError(diag.Code("ELB008"), n.Pos, "new cannot construct a struct")
		return
	}
	n.AccessType = c.ID
	ptrRef := e.Lib.CreateResolvedTypeRef(stub.NoID, c.Name, c.ID, n.Pos)
	n.Info = fnast.FunctionTypeInfo{Type: e.Lib.CreateSharedPointerType(ptrRef, n.Pos)}
}

func (e *Elaborator) resolveReturn(n *fnast.Node, fn *stub.Function) {
	expr := n.Child(0)
	if expr == nil {
		if fn.ReturnType.Valid() {
			e.Sink.ReportError(diag.Code("ELB010"), n.Pos, "missing return value")
		}
		return
	}
	e.makeIntoMatchingType(expr, fn.ReturnType, true)
}

func (e *Elaborator) coerceCondition(cond *fnast.Node, fn *stub.Function) {
	if cond == nil {
		return
	}
	e.makeIntoMatchingType(cond, e.Lib.CreateEngineType(stub.EngineBool), false)
}

func (e *Elaborator) resolveAssign(n *fnast.Node, fn *stub.Function) {
	lv := n.Child(0)
	rv := n.Child(1)
	if !lv.Info.Reference || lv.Info.Constant {
		e.Sink.ReportError(diag.Code("ELB004"), n.Pos, "assignment to a non-reference or const value")
	}
	e.makeIntoMatchingType(rv, lv.Info.Type, false)
	n.Info = fnast.FunctionTypeInfo{}
}

func (e *Elaborator) linkLoopContext(n *fnast.Node) {
	// The enclosing loop is discovered during opcode emission, which
	// keeps its own stack of open loops and reports EMT002 when there
	// is none; nothing to do at elaboration time beyond leaving
	// OwnerScope intact.
}
