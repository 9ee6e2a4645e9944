package stublib

import (
	"strings"

	"github.com/rexlang/scriptc/internal/casts"
	"github.com/rexlang/scriptc/internal/stub"
)

// CheckOperatorScope enforces that operator and cast functions may
// only be declared at module (free-function) scope, never as class
// members, since overload resolution for `a + b` has no single
// receiver to dispatch through.
func (l *Library) CheckOperatorScope(functions []stub.ID) {
	for _, id := range functions {
		fn := l.Function(id)
		if fn == nil {
			continue
		}
		if !fn.Flags.Has(stub.FlagOperator) && !fn.Flags.Has(stub.FlagCast) {
			continue
		}
		if _, isClassMember := l.all[fn.Owner].(*stub.Class); isClassMember {
			l.reportError("STB017", fn.Pos, "%q must be declared at module scope", fn.Name)
		}
	}
}

// MangleOperatorNames is the second half of building an operator/cast
// function: parseFunction attaches it under a placeholder name unique
// only by source position (argument types aren't resolved yet at parse
// time, so two overloads of the same symbol can't be told apart), and
// once ResolveTypeDecls has run, this replaces that placeholder with
// the real overload-disambiguating name built from the resolved
// argument and return types — e.g. two overloads with operator symbol
// `opAdd` returning int, one taking two ints and one taking an int and
// a float, mangle to "opAdd_int_int_int" and "opAdd_int_float_int" and
// can coexist, while two declared with identical argument and return
// types mangle to the same name and collide under rekeyOwnerMember's
// duplicate check (STB002).
func (l *Library) MangleOperatorNames(functions []stub.ID) {
	for _, id := range functions {
		fn := l.Function(id)
		if fn == nil {
			continue
		}
		if !fn.Flags.Has(stub.FlagOperator) && !fn.Flags.Has(stub.FlagCast) {
			continue
		}
		old := fn.Header.Name
		var mangled string
		if fn.Flags.Has(stub.FlagOperator) {
			mangled = l.mangleOperatorName(fn)
		} else {
			mangled = l.mangleCastName(fn)
		}
		fn.Header.Name = l.Arena.Intern(mangled)
		l.rekeyOwnerMember(fn.Owner, old, fn.Header.Name, id)
	}
}

func (l *Library) mangleOperatorName(fn *stub.Function) string {
	var b strings.Builder
	b.WriteString(fn.OperatorSymbol)
	for _, argID := range fn.Args {
		arg := l.FunctionArg(argID)
		if arg == nil {
			continue
		}
		b.WriteByte('_')
		if arg.Flags.Has(stub.FlagRef) {
			b.WriteString("ref_")
		}
		if arg.Flags.Has(stub.FlagOut) {
			b.WriteString("out_")
		}
		b.WriteString(l.mangleTypeName(arg.Type))
	}
	if fn.ReturnType.Valid() {
		b.WriteByte('_')
		b.WriteString(l.mangleTypeName(fn.ReturnType))
	}
	return b.String()
}

func (l *Library) mangleCastName(fn *stub.Function) string {
	var b strings.Builder
	b.WriteString("cast")
	for _, argID := range fn.Args {
		arg := l.FunctionArg(argID)
		if arg == nil {
			continue
		}
		b.WriteByte('_')
		b.WriteString(l.mangleTypeName(arg.Type))
	}
	if fn.ReturnType.Valid() {
		b.WriteByte('_')
		b.WriteString(l.mangleTypeName(fn.ReturnType))
	}
	return b.String()
}

// mangleTypeName renders a resolved TypeDecl the same way the rest of
// a mangled operator/cast name is built: the bare engine type name, a
// referenced class/enum's own name (not its qualified path — two
// overloads in different scopes resolving to classes that happen to
// share a short name is a pre-existing ambiguity this doesn't attempt
// to solve), or a recursive array/pointer wrapper prefix.
func (l *Library) mangleTypeName(id stub.ID) string {
	td := l.TypeDecl(id)
	if td == nil {
		return "?"
	}
	switch td.Meta {
	case stub.MetaEngine:
		return string(td.Engine)
	case stub.MetaSimple:
		return l.referencedTypeName(td.Ref)
	case stub.MetaClassType:
		return "class_" + l.referencedTypeName(td.Ref)
	case stub.MetaPtrType:
		return "ptr_" + l.referencedTypeName(td.Ref)
	case stub.MetaWeakPtrType:
		return "weak_" + l.referencedTypeName(td.Ref)
	case stub.MetaDynamicArrayType:
		return "array_" + l.mangleTypeName(td.Inner)
	case stub.MetaStaticArrayType:
		return "sarray_" + l.mangleTypeName(td.Inner)
	default:
		return "?"
	}
}

func (l *Library) referencedTypeName(refID stub.ID) string {
	ref := l.TypeRef(refID)
	if ref == nil || !ref.Resolved.Valid() {
		return "?"
	}
	if hdr := l.Header(ref.Resolved); hdr != nil {
		return hdr.Name
	}
	return ref.QualifiedName
}

func (l *Library) rekeyOwnerMember(owner stub.ID, oldName, newName string, member stub.ID) {
	switch o := l.all[owner].(type) {
	case *stub.Class:
		delete(o.MembersByName, oldName)
		if _, dup := o.MembersByName[newName]; dup {
			l.reportError("STB002", l.Header(member).Pos, "duplicate member %q in %q", newName, o.Name)
			return
		}
		o.MembersByName[newName] = member
	case *stub.Module:
		delete(o.Members, oldName)
		if _, dup := o.Members[newName]; dup {
			l.reportError("STB002", l.Header(member).Pos, "duplicate top-level member %q", newName)
			return
		}
		o.Members[newName] = member
	}
}

// BuildCastMatrix builds the type cast matrix from the fully-linked
// function list, after LinkFunctions and ResolveTypeDecls have run so
// argument/return TypeDecls are final.
func (l *Library) BuildCastMatrix() {
	l.Casts = casts.Build(l, l.functions)
}
