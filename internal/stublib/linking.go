package stublib

import "github.com/rexlang/scriptc/internal/stub"

// LinkClasses resolves each Class.BaseName to a Class stub,
// defaulting to the engine root object when no base is declared,
// rejects structs that declare a base, and rejects inheritance cycles.
// Back-links (DerivedClasses) are populated once the full chain is
// known to be acyclic.
func (l *Library) LinkClasses(classes []stub.ID, rootObject stub.ID) {
	for _, id := range classes {
		c := l.Class(id)
		if c == nil {
			continue
		}
		if c.Flags.Has(stub.FlagStruct) {
			if c.BaseName != "" {
				l.reportError("STB004", c.Pos, "struct %q may not declare a base class", c.Name)
			}
			continue
		}
		if c.BaseName == "" {
			if id != rootObject && rootObject.Valid() {
				c.Base = rootObject
			}
			continue
		}
		base := l.findStubInContext(c.Owner, c.BaseName)
		baseClass, ok := l.all[base].(*stub.Class)
		if !ok {
			l.reportError("STB001", c.Pos, "unresolved base class %q", c.BaseName)
			continue
		}
		if baseClass.Flags.Has(stub.FlagPrivate) && !l.CanAccess(id, base) {
			l.reportError("STB005", c.Pos, "base class %q is not accessible", c.BaseName)
			continue
		}
		c.Base = base
	}

	for _, id := range classes {
		c := l.Class(id)
		if c == nil || !c.Base.Valid() {
			continue
		}
		if l.hasInheritanceCycle(id) {
			l.reportError("STB003", c.Pos, "inheritance cycle involving %q", c.Name)
			c.Base = stub.NoID
			continue
		}
	}

	for _, id := range classes {
		c := l.Class(id)
		if c == nil || !c.Base.Valid() {
			continue
		}
		if base := l.Class(c.Base); base != nil {
			base.DerivedClasses = append(base.DerivedClasses, id)
		}
	}

	// ChildClasses mirrors nested-class declarations (distinct from
	// inheritance): populated from Owner links, not Base.
	for _, id := range classes {
		c := l.Class(id)
		if c == nil {
			continue
		}
		if parent := l.Class(c.Owner); parent != nil {
			parent.ChildClasses = append(parent.ChildClasses, id)
		}
	}
}

func (l *Library) hasInheritanceCycle(start stub.ID) bool {
	seen := make(map[stub.ID]bool)
	cur := start
	for cur.Valid() {
		if seen[cur] {
			return true
		}
		seen[cur] = true
		c := l.Class(cur)
		if c == nil {
			return false
		}
		cur = c.Base
	}
	return false
}
