package stublib

import (
	"sort"
	"strings"

	"github.com/rexlang/scriptc/internal/stub"
)

// findStubInContext performs a lexical-scope search: starting
// at context, look in its own member map, then walk Owner links up to
// the enclosing Module, consulting each Class's linked Base along the
// way (so inherited members are visible without being copied down).
func (l *Library) findStubInContext(context stub.ID, name string) stub.ID {
	cur := context
	seen := make(map[stub.ID]bool)
	for cur.Valid() && !seen[cur] {
		seen[cur] = true
		switch o := l.all[cur].(type) {
		case *stub.Class:
			if id, ok := lookupInClassChain(l, cur, name); ok {
				return id
			}
			cur = o.Owner
		case *stub.Module:
			if id, ok := o.Members[name]; ok {
				return id
			}
			for _, impID := range o.ImportedModules {
				if imp := l.Module(impID); imp != nil {
					if id, ok := imp.Members[name]; ok {
						return id
					}
				}
			}
			return stub.NoID
		case *stub.File:
			cur = o.Owner
		case *stub.Function:
			cur = o.Owner
		default:
			return stub.NoID
		}
	}
	return stub.NoID
}

// lookupInClassChain searches class and its linked ancestors
// (requires linking to have already run; safe to call with Base ==
// NoID before linking, it simply stops at the first class).
func lookupInClassChain(l *Library, class stub.ID, name string) (stub.ID, bool) {
	cur := class
	seen := make(map[stub.ID]bool)
	for cur.Valid() && !seen[cur] {
		seen[cur] = true
		c := l.Class(cur)
		if c == nil {
			return stub.NoID, false
		}
		if id, ok := c.MembersByName[name]; ok {
			return id, true
		}
		cur = c.Base
	}
	return stub.NoID, false
}

// ResolveTypeRefs binds every TypeRef's Resolved
// field to the Class/Enum/TypeName its QualifiedName names, searching
// relative to Context first and falling back to each owning module's
// top-level members. Dotted names (`Core.Transform`) are resolved
// component-by-component through nested-class/module qualification.
func (l *Library) ResolveTypeRefs(refs []stub.ID) {
	for _, id := range refs {
		ref := l.TypeRef(id)
		if ref == nil || ref.Resolved.Valid() {
			continue
		}
		parts := strings.Split(ref.QualifiedName, ".")
		target := l.findStubInContext(ref.Context, parts[0])
		for i := 1; i < len(parts) && target.Valid(); i++ {
			target = l.memberOf(target, parts[i])
		}
		if !target.Valid() {
			l.reportError("STB001", ref.Pos, "unresolved type name %q", ref.QualifiedName)
			continue
		}
		ref.Resolved = target
	}
}

func (l *Library) memberOf(owner stub.ID, name string) stub.ID {
	switch o := l.all[owner].(type) {
	case *stub.Class:
		id, _ := lookupInClassChain(l, owner, name)
		return id
	case *stub.Module:
		return o.Members[name]
	default:
		return stub.NoID
	}
}

// ResolveTypeDecls validates that MetaSimple refers
// only to struct classes and that MetaClassType/MetaPtrType/
// MetaWeakPtrType refer only to non-struct classes (a struct has no
// vtable and cannot be polymorphically referenced). A TypeRef may
// resolve to a TypeName alias rather than a Class/Enum directly;
// inlineAliasTarget chases the alias chain and flattens it in place so
// every later consumer (here and in the cast matrix) sees the
// underlying Class/Enum without having to know about aliases at all.
func (l *Library) ResolveTypeDecls(decls []stub.ID) {
	for _, id := range decls {
		td := l.TypeDecl(id)
		if td == nil {
			continue
		}
		switch td.Meta {
		case stub.MetaSimple:
			ref := l.TypeRef(td.Ref)
			target := l.inlineAliasTarget(ref)
			if !target.Valid() {
				continue
			}
			if c := l.Class(target); c != nil && !c.Flags.Has(stub.FlagStruct) {
				l.reportError("STB015", td.Pos, "Simple type %q must reference a struct", ref.QualifiedName)
			}
		case stub.MetaClassType, stub.MetaPtrType, stub.MetaWeakPtrType:
			ref := l.TypeRef(td.Ref)
			target := l.inlineAliasTarget(ref)
			if !target.Valid() {
				continue
			}
			if c := l.Class(target); c != nil && c.Flags.Has(stub.FlagStruct) {
				l.reportError("STB016", td.Pos, "%s type %q may not reference a struct", td.Meta, ref.QualifiedName)
			}
		}
	}
}

// inlineAliasTarget resolves ref.Resolved to the underlying Class or
// Enum stub it ultimately names, following a chain of TypeName
// aliases (`typedef Name = OtherType;`) if necessary, and rewrites
// ref.Resolved to that target so the chain only has to be walked
// once. Returns NoID if ref is nil, unresolved, or the chain bottoms
// out at something other than a Class/Enum (an alias to an engine
// primitive or array type, which these checks don't apply to).
func (l *Library) inlineAliasTarget(ref *stub.TypeRef) stub.ID {
	if ref == nil || !ref.Resolved.Valid() {
		return stub.NoID
	}
	if _, isAlias := l.all[ref.Resolved].(*stub.TypeName); !isAlias {
		return ref.Resolved
	}
	seen := map[stub.ID]bool{ref.Resolved: true}
	cur := ref.Resolved
	for {
		tn, ok := l.all[cur].(*stub.TypeName)
		if !ok {
			break
		}
		td := l.TypeDecl(tn.Aliased)
		if td == nil {
			return stub.NoID
		}
		switch td.Meta {
		case stub.MetaSimple, stub.MetaClassType, stub.MetaPtrType, stub.MetaWeakPtrType:
		default:
			return stub.NoID // alias names an engine/array/etc type, not a class or enum
		}
		next := l.TypeRef(td.Ref)
		if next == nil || !next.Resolved.Valid() || seen[next.Resolved] {
			return stub.NoID
		}
		seen[next.Resolved] = true
		cur = next.Resolved
	}
	ref.Resolved = cur // inline: flatten the chain for every later consumer
	return cur
}

// LookupTypeName implements fnparse.TypeResolver: reports whether name
// is visible from context and names a Class, Enum, or TypeName alias
// (as opposed to a variable/function), so the parser can disambiguate
// `Foo(x)` (a type-cast/construction) from a plain call expression.
func (l *Library) LookupTypeName(context stub.ID, name string) stub.ID {
	id := l.findStubInContext(context, name)
	switch l.all[id].(type) {
	case *stub.Class, *stub.Enum, *stub.TypeName:
		return id
	default:
		return stub.NoID
	}
}

// AllTypeRefs and AllTypeDecls walk l.all to collect every TypeRef/
// TypeDecl stub created so far, for callers (the compiler driver)
// that don't track creation order themselves.
func (l *Library) AllTypeRefs() []stub.ID {
	var out []stub.ID
	for id, v := range l.all {
		if _, ok := v.(*stub.TypeRef); ok {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (l *Library) AllTypeDecls() []stub.ID {
	var out []stub.ID
	for id, v := range l.all {
		if _, ok := v.(*stub.TypeDecl); ok {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
