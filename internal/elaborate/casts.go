package elaborate

import (
	"github.com/rexlang/scriptc/internal/casts"
	"github.com/rexlang/scriptc/internal/diag"
	"github.com/rexlang/scriptc/internal/fnast"
	"github.com/rexlang/scriptc/internal/stub"
)

// makeIntoMatchingType coerces node in place to required, preferring
// constant-folding over a runtime cast, then falling back to
// findBestCast and wrapping node in a cast/call node.
func (e *Elaborator) makeIntoMatchingType(node *fnast.Node, required stub.ID, explicitCast bool) {
	if node == nil || !required.Valid() {
		return
	}
	if node.Tag == fnast.TagConst && node.Const != nil && isNumericConst(node.Const) {
		if fitsRequiredRange(e.Lib.TypeDecl(required), node.Const) {
			node.Info = fnast.FunctionTypeInfo{Type: required, Constant: true}
			return
		}
		e.Sink.ReportError(diag.Code("ELB006"), node.Pos, "numeric constant does not fit target type")
		return
	}

	if e.Lib.Signature(node.Info.Type) == e.Lib.Signature(required) {
		return
	}

	cast := e.Lib.Casts.FindBestCast(node.Info.Type, required)
	if !cast.Found() {
		e.Sink.ReportError(diag.Code("CST001"), node.Pos, "no applicable cast to required type")
		return
	}
	if cast.Explicit && !explicitCast {
		e.Sink.ReportError(diag.Code("CST001"), node.Pos, "implicit use of explicit cast")
		return
	}

	switch cast.Kind {
	case casts.KindPassthrough, casts.KindPassthroughNoRef:
		node.Info.Type = required
		return
	}

	inner := *node
	switch cast.Kind {
	case casts.KindOpcode:
		wrapped := fnast.New(fnast.TagCastOpcode, node.Pos, &inner)
		wrapped.Opcode = int(cast.Opcode)
		wrapped.Info = fnast.FunctionTypeInfo{Type: required}
		*node = *wrapped
	case casts.KindFunc:
		fn := e.Lib.Function(cast.Func)
		wrapped := fnast.New(fnast.TagCallStatic, node.Pos, &inner)
		wrapped.Ref = cast.Func
		wrapped.Info = fnast.FunctionTypeInfo{Type: fn.ReturnType}
		*node = *wrapped
	}
}

// makeIntoValue wraps a reference-typed node in a MakeValueFromRef
// node carrying the underlying non-reference type.
func (e *Elaborator) makeIntoValue(node *fnast.Node) *fnast.Node {
	if node == nil || !node.Info.Reference {
		return node
	}
	inner := *node
	wrapped := fnast.New(fnast.TagMakeValueFromRef, node.Pos, &inner)
	wrapped.Info = fnast.FunctionTypeInfo{Type: node.Info.Type}
	return wrapped
}

func isNumericConst(c *stub.ConstantValue) bool {
	switch c.Tag {
	case stub.ConstInteger, stub.ConstUnsigned, stub.ConstFloat:
		return true
	default:
		return false
	}
}

func fitsRequiredRange(td *stub.TypeDecl, c *stub.ConstantValue) bool {
	if td == nil || td.Meta != stub.MetaEngine {
		return true
	}
	limits, ok := stub.IntegerEngineTypes[td.Engine]
	if !ok {
		return true // float/double/bool targets: accept, narrowing handled by emitter
	}
	var v int64
	switch c.Tag {
	case stub.ConstInteger:
		v = c.Int
	case stub.ConstUnsigned:
		v = int64(c.Uint)
	default:
		return false
	}
	if limits.Signed {
		min := -(int64(1) << (limits.Bits - 1))
		max := int64(1)<<(limits.Bits-1) - 1
		return v >= min && v <= max
	}
	if v < 0 {
		return false
	}
	max := uint64(1)<<limits.Bits - 1
	return uint64(v) <= max
}
