package filebuild

import (
	"fmt"

	"github.com/rexlang/scriptc/internal/diag"
	"github.com/rexlang/scriptc/internal/stub"
	"github.com/rexlang/scriptc/internal/token"
)

func (b *builder) parseClass(owner stub.ID) {
	isStruct := b.is("struct")
	pos := b.pop().Pos
	name := b.expectIdent().Literal
	var baseName string
	if b.is("extends") {
		b.pop()
		baseName, _ = b.parseDottedName()
	} else if b.is(":") {
		b.pop()
		baseName, _ = b.parseDottedName()
	}
	flags := stub.Flags(0)
	if b.is("import") {
		b.pop()
		flags = flags.With(stub.FlagImport)
	}
	id := b.lib.CreateClass(owner, name, isStruct, baseName, pos)
	if flags.Has(stub.FlagImport) {
		if c := b.lib.Class(id); c != nil {
			c.Flags = c.Flags.With(stub.FlagImport)
		}
	}
	if b.is("{") {
		b.pop()
		b.parseMembers(id, true)
		b.expect("}")
	} else if b.is(";") {
		b.pop()
	}
}

func (b *builder) parseEnum(owner stub.ID) {
	pos := b.pop().Pos
	name := b.expectIdent().Literal
	id := b.lib.CreateEnum(owner, name, pos)
	b.expect("{")
	var next int64
	for !b.done() && !b.is("}") {
		optPos := b.peek(0).Pos
		optName := b.expectIdent().Literal
		value := next
		userAssigned := false
		if b.is("=") {
			b.pop()
			lit := b.pop()
			value = lit.IntVal
			userAssigned = true
		}
		b.lib.CreateEnumOption(id, optName, value, userAssigned, optPos)
		next = value + 1
		if b.is(",") {
			b.pop()
		}
	}
	b.expect("}")
	if b.is(";") {
		b.pop()
	}
}

func (b *builder) parseProperty(owner stub.ID) {
	pos := b.pop().Pos // "var"
	flags := stub.Flags(0)
	flags = b.consumeAccessFlags(flags)
	name := b.expectIdent().Literal
	b.expect(":")
	typeDecl := b.parseTypeExpr(owner)
	var def *stub.ConstantValue
	if b.is("=") {
		b.pop()
		def = b.parseConstExpr()
	}
	b.lib.CreateProperty(owner, name, typeDecl, def, pos, flags)
	if b.is(";") {
		b.pop()
	}
}

func (b *builder) parseConstant(owner stub.ID) {
	pos := b.pop().Pos // "const"
	name := b.expectIdent().Literal
	b.expect(":")
	typeDecl := b.parseTypeExpr(owner)
	b.expect("=")
	val := b.parseConstExpr()
	b.lib.CreateConstant(owner, name, typeDecl, val, pos)
	if b.is(";") {
		b.pop()
	}
}

// parseTypeAlias parses `typedef Name = TypeExpr;`, giving an
// existing type expression a second name resolved the same way a
// class/enum name is (ResolveTypeDecls inlines through it to reach
// the underlying type).
func (b *builder) parseTypeAlias(owner stub.ID) {
	pos := b.pop().Pos // "typedef"
	name := b.expectIdent().Literal
	b.expect("=")
	aliased := b.parseTypeExpr(owner)
	b.lib.CreateTypeAlias(owner, name, aliased, pos)
	if b.is(";") {
		b.pop()
	}
}

// consumeAccessFlags eats a run of access/usage modifiers that precede
// a var/function declaration and folds them into flags.
func (b *builder) consumeAccessFlags(flags stub.Flags) stub.Flags {
	for {
		switch {
		case b.is("static"):
			b.pop()
			flags = flags.With(stub.FlagStatic)
		case b.is("final"):
			b.pop()
			flags = flags.With(stub.FlagFinal)
		case b.is("override"):
			b.pop()
			flags = flags.With(stub.FlagOverride)
		case b.is("signal"):
			b.pop()
			flags = flags.With(stub.FlagSignal)
		case b.is("private"):
			b.pop()
			flags = flags.With(stub.FlagPrivate)
		case b.is("protected"):
			b.pop()
			flags = flags.With(stub.FlagProtected)
		default:
			return flags
		}
	}
}

func (b *builder) parseFunction(owner stub.ID, inClass bool) {
	flags := b.consumeAccessFlags(0)
	var opSymbol string
	var isOperator, isCast bool
	switch {
	case b.is("operator"):
		b.pop()
		isOperator = true
		flags = flags.With(stub.FlagOperator)
		opSymbol = b.pop().Literal
	case b.is("cast"):
		b.pop()
		isCast = true
		flags = flags.With(stub.FlagCast)
	}
	explicitCast := false
	if isCast && b.is("explicit") {
		b.pop()
		explicitCast = true
	}
	pos := b.expect("function").Pos
	if !isOperator && !isCast && b.is("operator") { // function operator+(...)
		b.pop()
		isOperator = true
		flags = flags.With(stub.FlagOperator)
		opSymbol = b.pop().Literal
	}
	var name, aliasName string
	if isOperator {
		// A placeholder, unique only by source position: argument types
		// aren't resolved yet, so two overloads of the same symbol can't
		// be told apart here. stublib.MangleOperatorNames replaces this
		// with the real overload-disambiguating name once types resolve.
		aliasName = "op" + opSymbol
		name = fmt.Sprintf("%s#%s:%d:%d", aliasName, pos.File, pos.Line, pos.Column)
	} else if isCast {
		aliasName = "__cast"
		name = fmt.Sprintf("%s#%s:%d:%d", aliasName, pos.File, pos.Line, pos.Column)
	} else {
		name = b.expectIdent().Literal
		aliasName = name
	}
	b.expect("(")
	type argSpec struct {
		name     string
		typeID   stub.ID
		def      *stub.ConstantValue
		flags    stub.Flags
		pos      token.Pos
	}
	var args []argSpec
	for !b.done() && !b.is(")") {
		argFlags := stub.Flags(0)
		for {
			switch {
			case b.is("ref"):
				b.pop()
				argFlags = argFlags.With(stub.FlagRef)
			case b.is("out"):
				b.pop()
				argFlags = argFlags.With(stub.FlagOut)
			default:
				goto doneMods
			}
		}
	doneMods:
		argPos := b.peek(0).Pos
		argName := b.expectIdent().Literal
		b.expect(":")
		argType := b.parseTypeExpr(owner)
		var def *stub.ConstantValue
		if b.is("=") {
			b.pop()
			def = b.parseConstExpr()
			argFlags = argFlags.With(stub.FlagExplicit)
		}
		args = append(args, argSpec{argName, argType, def, argFlags, argPos})
		if b.is(",") {
			b.pop()
		}
	}
	b.expect(")")
	var retType stub.ID
	if b.is(":") {
		b.pop()
		retType = b.parseTypeExpr(owner)
	}
	if b.is("=") { // opcode-alias native function: function foo() = OpName;
		b.pop()
		flags = flags.With(stub.FlagOpcodeAlias)
	}
	fn := b.lib.CreateFunction(owner, name, aliasName, retType, pos, flags)
	if f := b.lib.Function(fn); f != nil {
		if isOperator {
			f.OperatorSymbol = opSymbol
		}
		f.CastExplicit = explicitCast
	}
	for i, a := range args {
		b.lib.CreateFunctionArg(fn, a.name, a.typeID, a.def, i, a.pos, a.flags)
	}
	switch {
	case b.is("{"):
		b.pop()
		body := b.sliceBody()
		if f := b.lib.Function(fn); f != nil {
			f.Body = body
		}
	case b.is(";"):
		b.pop()
	}
	_ = inClass
}

// sliceBody extracts the raw token range of a function body, assuming
// the opening "{" has already been consumed.
func (b *builder) sliceBody() []token.Token {
	return token.Slice(b.cur, "{", "}")
}

func (b *builder) parseConstExpr() *stub.ConstantValue {
	t := b.pop()
	switch t.Kind {
	case token.Integer:
		return stub.Int(t.IntVal)
	case token.Float:
		return stub.Float(t.FloatVal)
	case token.String:
		return stub.String(t.Literal)
	case token.Name:
		return stub.Name(t.Literal)
	case token.Keyword:
		switch t.Literal {
		case "true":
			return stub.Bool(true)
		case "false":
			return stub.Bool(false)
		case "-":
			inner := b.parseConstExpr()
			if inner.Tag == stub.ConstInteger {
				return stub.Int(-inner.Int)
			}
			if inner.Tag == stub.ConstFloat {
				return stub.Float(-inner.Float)
			}
			return inner
		}
	}
	b.lib.Sink.ReportError(diag.Code("BLD006"), t.Pos, "invalid constant expression starting with %q", t.Literal)
	return stub.Int(0)
}
