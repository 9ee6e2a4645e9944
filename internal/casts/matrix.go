// Package casts implements the type cast matrix: a bidirectional table
// of permissible conversions between type declarations, seeded from
// user-declared cast functions and hard-coded primitive rules, plus an
// index of operator overloads by symbol.
package casts

import (
	"fmt"

	"github.com/rexlang/scriptc/internal/stub"
)

// Resolver is the minimal read-only view of the stub library the
// matrix needs. Kept as an interface (rather than importing stublib
// directly) to avoid a dependency cycle: stublib builds a Matrix from
// its own function list, so casts cannot import stublib.
type Resolver interface {
	TypeDecl(id stub.ID) *stub.TypeDecl
	TypeRef(id stub.ID) *stub.TypeRef
	Class(id stub.ID) *stub.Class
	Function(id stub.ID) *stub.Function
	FunctionArg(id stub.ID) *stub.FunctionArg

	// Signature renders a canonical structural signature for a
	// TypeDecl so structurally-equal-but-distinct TypeDecl values
	// compare equal as map keys / via string equality.
	Signature(id stub.ID) string

	// DerivesFrom reports whether class derives from (possibly
	// transitively) ancestor, per the linked Base chain.
	DerivesFrom(class, ancestor stub.ID) bool
}

// Kind discriminates how a cast is realized at the call site.
type Kind int

const (
	KindNone Kind = iota
	KindPassthrough
	KindPassthroughNoRef
	KindOpcode
	KindFunc
)

// Cast describes one resolved conversion, the return value of
// FindBestCast.
type Cast struct {
	Kind     Kind
	Opcode   stub.OpKind // meaningful when Kind == KindOpcode
	Func     stub.ID     // meaningful when Kind == KindFunc
	Cost     int         // -1 means "no cast" (only returned via None)
	Explicit bool
}

// None is the "no applicable cast" result (decision-table fallthrough).
var None = Cast{Kind: KindNone, Cost: -1}

func (c Cast) Found() bool { return c.Kind != KindNone }

// castKey keys the user-cast-function table on structural signatures
// of (source, dest) type equality.
type castKey struct {
	source, dest string
}

// Matrix is the built cast/operator table. It is immutable once
// built: the stub library builds exactly one Matrix per compilation,
// after class and type resolution, from the full (including imported)
// function list.
type Matrix struct {
	r Resolver

	userCasts map[castKey]stub.ID // source sig, dest sig -> cast Function
	operators map[string][]stub.ID // operator symbol -> candidate Functions, declaration order
}

// Build scans every function (functions must already have resolved
// argument/return TypeDecls) and indexes FlagCast and FlagOperator
// functions.
func Build(r Resolver, functions []stub.ID) *Matrix {
	m := &Matrix{
		r:         r,
		userCasts: make(map[castKey]stub.ID),
		operators: make(map[string][]stub.ID),
	}
	for _, fid := range functions {
		fn := r.Function(fid)
		if fn == nil {
			continue
		}
		if fn.Flags.Has(stub.FlagCast) && len(fn.Args) == 1 {
			arg := r.FunctionArg(fn.Args[0])
			key := castKey{source: r.Signature(arg.Type), dest: r.Signature(fn.ReturnType)}
			m.userCasts[key] = fid
		}
		if fn.Flags.Has(stub.FlagOperator) {
			m.operators[fn.OperatorSymbol] = append(m.operators[fn.OperatorSymbol], fid)
		}
	}
	return m
}

func (m *Matrix) userCast(source, dest stub.ID) (stub.ID, bool) {
	key := castKey{source: m.r.Signature(source), dest: m.r.Signature(dest)}
	fid, ok := m.userCasts[key]
	return fid, ok
}

func (m *Matrix) isEngine(id stub.ID, want stub.EngineType) bool {
	td := m.r.TypeDecl(id)
	return td != nil && td.Meta == stub.MetaEngine && td.Engine == want
}

func (m *Matrix) isBool(id stub.ID) bool   { return m.isEngine(id, stub.EngineBool) }
func (m *Matrix) isVariant(id stub.ID) bool { return m.isEngine(id, stub.EngineVariant) }

func (m *Matrix) classRef(td *stub.TypeDecl) stub.ID {
	if td == nil {
		return stub.NoID
	}
	tr := m.r.TypeRef(td.Ref)
	if tr == nil {
		return stub.NoID
	}
	return tr.Resolved
}

// FindBestCast implements the deterministic cast decision table.
// First matching rule wins.
func (m *Matrix) FindBestCast(source, dest stub.ID) Cast {
	srcDecl := m.r.TypeDecl(source)
	dstDecl := m.r.TypeDecl(dest)
	if srcDecl == nil || dstDecl == nil {
		return None
	}

	// Rule 1: structural equality.
	if m.r.Signature(source) == m.r.Signature(dest) {
		return Cast{Kind: KindPassthrough, Cost: 0}
	}

	// Rule 2/3: strong/weak ptr -> bool.
	if srcDecl.Meta == stub.MetaPtrType && m.isBool(dest) {
		return Cast{Kind: KindOpcode, Opcode: stub.OpStrongToBool, Cost: 10}
	}
	if srcDecl.Meta == stub.MetaWeakPtrType && m.isBool(dest) {
		return Cast{Kind: KindOpcode, Opcode: stub.OpWeakToBool, Cost: 10}
	}

	// Rule 4: source is Variant.
	if m.isVariant(source) {
		return Cast{Kind: KindOpcode, Opcode: stub.OpCastFromVariant, Cost: 20, Explicit: true}
	}

	// Rule 5: dest is Variant.
	if m.isVariant(dest) {
		return Cast{Kind: KindOpcode, Opcode: stub.OpCastToVariant, Cost: 5}
	}

	// Rule 6: enum <-> int64/int32/strid/string.
	if srcDecl.Meta == stub.MetaSimple && isEnum(m.r, srcDecl) {
		switch {
		case m.isEngine(dest, stub.EngineInt64):
			return Cast{Kind: KindOpcode, Opcode: stub.OpEnumToInt64, Cost: 3, Explicit: true}
		case m.isEngine(dest, stub.EngineInt):
			return Cast{Kind: KindOpcode, Opcode: stub.OpEnumToInt32, Cost: 3, Explicit: true}
		case m.isEngine(dest, stub.EngineStrID):
			return Cast{Kind: KindOpcode, Opcode: stub.OpEnumToName, Cost: 5}
		case m.isEngine(dest, stub.EngineString):
			return Cast{Kind: KindOpcode, Opcode: stub.OpEnumToString, Cost: 5}
		}
	}
	if dstDecl.Meta == stub.MetaSimple && isEnum(m.r, dstDecl) {
		switch {
		case m.isEngine(source, stub.EngineInt64):
			return Cast{Kind: KindOpcode, Opcode: stub.OpInt64ToEnum, Cost: 3, Explicit: true}
		case m.isEngine(source, stub.EngineInt):
			return Cast{Kind: KindOpcode, Opcode: stub.OpInt32ToEnum, Cost: 3, Explicit: true}
		case m.isEngine(source, stub.EngineStrID) || m.isEngine(source, stub.EngineString):
			return Cast{Kind: KindOpcode, Opcode: stub.OpNameToEnum, Cost: 5, Explicit: true}
		}
	}

	// Rule 7/8: pointer-to-pointer (shared or weak), same class hierarchy.
	srcPtr := srcDecl.Meta == stub.MetaPtrType || srcDecl.Meta == stub.MetaWeakPtrType
	dstPtr := dstDecl.Meta == stub.MetaPtrType || dstDecl.Meta == stub.MetaWeakPtrType
	if srcPtr && dstPtr {
		srcClass, dstClass := m.classRef(srcDecl), m.classRef(dstDecl)
		if srcClass == dstClass || m.r.DerivesFrom(srcClass, dstClass) {
			if srcDecl.Meta == dstDecl.Meta {
				return Cast{Kind: KindPassthroughNoRef, Cost: 1}
			}
			if srcDecl.Meta == stub.MetaPtrType && dstDecl.Meta == stub.MetaWeakPtrType {
				return Cast{Kind: KindOpcode, Opcode: stub.OpStrongToWeak, Cost: 1}
			}
			return Cast{Kind: KindOpcode, Opcode: stub.OpWeakToStrong, Cost: 1}
		}
		if m.r.DerivesFrom(dstClass, srcClass) {
			if srcDecl.Meta == stub.MetaWeakPtrType {
				return Cast{Kind: KindOpcode, Opcode: stub.OpDynamicWeakCast, Cost: 2, Explicit: true}
			}
			return Cast{Kind: KindOpcode, Opcode: stub.OpDynamicCast, Cost: 2, Explicit: true}
		}
	}

	// Rule 9/10: class-meta to class-meta.
	if srcDecl.Meta == stub.MetaClassType && dstDecl.Meta == stub.MetaClassType {
		srcClass, dstClass := m.classRef(srcDecl), m.classRef(dstDecl)
		if srcClass == dstClass || m.r.DerivesFrom(srcClass, dstClass) {
			return Cast{Kind: KindPassthroughNoRef, Cost: 0}
		}
		if m.r.DerivesFrom(dstClass, srcClass) {
			return Cast{Kind: KindOpcode, Opcode: stub.OpMetaCast, Cost: 3, Explicit: true}
		}
	}

	// Rule 11: class-meta -> bool/strid/string.
	if srcDecl.Meta == stub.MetaClassType {
		switch {
		case m.isBool(dest):
			return Cast{Kind: KindOpcode, Opcode: stub.OpClassToBool, Cost: 7}
		case m.isEngine(dest, stub.EngineStrID):
			return Cast{Kind: KindOpcode, Opcode: stub.OpClassToName, Cost: 10}
		case m.isEngine(dest, stub.EngineString):
			return Cast{Kind: KindOpcode, Opcode: stub.OpClassToString, Cost: 10}
		}
	}

	// Rule 12: user-declared cast function.
	if fid, ok := m.userCast(source, dest); ok {
		fn := m.r.Function(fid)
		return Cast{Kind: KindFunc, Func: fid, Cost: fn.CastCost, Explicit: fn.CastExplicit}
	}

	return None
}

func isEnum(r Resolver, td *stub.TypeDecl) bool {
	tr := r.TypeRef(td.Ref)
	if tr == nil || !tr.Resolved.Valid() {
		return false
	}
	// Enums are stubs whose Kind is KindEnum; Class() returns nil for
	// them, which is how callers outside this package tell the two
	// apart when they need to (see stublib for the authoritative
	// check). Here we only need "is it a Class" to rule enums out.
	return r.Class(tr.Resolved) == nil
}

// OperatorCandidates returns the overload set for a symbol, in
// declaration order (first-scanned-wins tie-breaking in
// FindOperator relies on this order being stable).
func (m *Matrix) OperatorCandidates(symbol string) []stub.ID {
	return m.operators[symbol]
}

// FindOperator resolves the best-costed operator overload for a
// symbol applied to the given operand types.
func (m *Matrix) FindOperator(symbol string, left stub.ID, leftAssignable bool, right stub.ID, allowCasts bool) (stub.ID, error) {
	hasRight := right.Valid()
	var best stub.ID
	bestCost := -1
	found := false

	for _, fid := range m.operators[symbol] {
		fn := m.r.Function(fid)
		if fn == nil {
			continue
		}
		wantArgs := 1
		if hasRight {
			wantArgs = 2
		}
		if len(fn.Args) != wantArgs {
			continue
		}

		arg0 := m.r.FunctionArg(fn.Args[0])
		if arg0.Flags.Has(stub.FlagOut) && !leftAssignable {
			continue
		}

		c0 := m.FindBestCast(left, arg0.Type)
		if !c0.Found() {
			continue
		}
		if c0.Explicit && !allowCasts {
			continue
		}
		cost := c0.Cost

		if hasRight {
			arg1 := m.r.FunctionArg(fn.Args[1])
			c1 := m.FindBestCast(right, arg1.Type)
			if !c1.Found() {
				continue
			}
			if c1.Explicit && !allowCasts {
				continue
			}
			cost += c1.Cost
		}

		if !found || cost < bestCost {
			best = fid
			bestCost = cost
			found = true
		}
		// On a cost tie the first-scanned candidate wins: since we only
		// replace `best` on a strictly lower cost, ties keep the earlier
		// entry.
	}

	if !found {
		return stub.NoID, fmt.Errorf("no applicable overload of operator %q", symbol)
	}
	return best, nil
}
