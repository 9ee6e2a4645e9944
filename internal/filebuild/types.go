package filebuild

import (
	"github.com/rexlang/scriptc/internal/stub"
	"github.com/rexlang/scriptc/internal/token"
)

var engineKeywords = map[string]stub.EngineType{
	"int": stub.EngineInt, "uint": stub.EngineUint,
	"int64": stub.EngineInt64, "uint64": stub.EngineUint64,
	"int16": stub.EngineInt16, "uint16": stub.EngineUint16,
	"int8": stub.EngineInt8, "uint8": stub.EngineUint8,
	"float": stub.EngineFloat, "double": stub.EngineDouble,
	"bool": stub.EngineBool, "strid": stub.EngineStrID,
	"string": stub.EngineString, "Variant": stub.EngineVariant,
	"void": stub.EngineVoid,
}

// parseTypeExpr parses a type expression bottom-up: a primitive
// engine-type keyword, a ptr<T>/weak<T>/class<T> wrapper, a dotted
// class/enum name, or either of those followed by one or more array
// suffixes ("[]" dynamic, "[N]" static).
func (b *builder) parseTypeExpr(context stub.ID) stub.ID {
	var base stub.ID
	switch {
	case b.is("ptr"):
		pos := b.pop().Pos
		b.expect("<")
		inner := b.parseInnerTypeRef(context)
		b.expect(">")
		base = b.lib.CreateSharedPointerType(inner, pos)
	case b.is("weak"):
		pos := b.pop().Pos
		b.expect("<")
		inner := b.parseInnerTypeRef(context)
		b.expect(">")
		base = b.lib.CreateWeakPointerType(inner, pos)
	case b.is("class"):
		pos := b.pop().Pos
		b.expect("<")
		inner := b.parseInnerTypeRef(context)
		b.expect(">")
		base = b.lib.CreateClassType(inner, pos)
	default:
		pos := b.peek(0).Pos
		if b.peek(0).Kind == token.Keyword {
			if engine, ok := engineKeywords[b.peek(0).Literal]; ok {
				b.pop()
				base = b.lib.CreateEngineType(engine)
				break
			}
		}
		name, namePos := b.parseDottedName()
		ref := b.lib.CreateTypeRef(context, name, namePos)
		base = b.lib.CreateSimpleType(ref, pos)
	}
	for b.is("[") {
		pos := b.pop().Pos
		if b.is("]") {
			b.pop()
			base = b.lib.CreateDynamicArrayType(base, pos)
			continue
		}
		sizeTok := b.pop()
		b.expect("]")
		base = b.lib.CreateStaticArrayType(base, int(sizeTok.IntVal), pos)
	}
	return base
}

// parseInnerTypeRef reads the type-name argument of ptr<.../weak<.../
// class<... — always a class/enum reference, never a nested engine
// type or array.
func (b *builder) parseInnerTypeRef(context stub.ID) stub.ID {
	name, pos := b.parseDottedName()
	return b.lib.CreateTypeRef(context, name, pos)
}
