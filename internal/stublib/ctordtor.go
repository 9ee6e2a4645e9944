package stublib

import (
	"github.com/rexlang/scriptc/internal/stub"
	"github.com/rexlang/scriptc/internal/token"
)

// CreateAutomaticClassFunctions gives every non-imported class
// (structs included — a struct is just a class without a vtable) that
// declares no explicit constructor/destructor a synthesized
// zero-argument `__ctor`/`__dtor` member function with no body
// (FlagConstructor/FlagDestructor set, Body left nil). FillAutomaticBodies
// fills in the actual opcodes later, once property initializers and the
// base-class chain are known. Only FlagImport (a native, engine-bound
// class with no script body at all) is excluded.
func (l *Library) CreateAutomaticClassFunctions(classes []stub.ID) {
	for _, id := range classes {
		c := l.Class(id)
		if c == nil || c.Flags.Has(stub.FlagImport) {
			continue
		}
		if !hasFlaggedMember(l, c, stub.FlagConstructor) {
			l.synthesizeMember(id, "__ctor", stub.FlagConstructor)
		}
		if !hasFlaggedMember(l, c, stub.FlagDestructor) {
			l.synthesizeMember(id, "__dtor", stub.FlagDestructor)
		}
	}
}

func hasFlaggedMember(l *Library, c *stub.Class, flag stub.Flags) bool {
	for _, memberID := range c.Members {
		if fn := l.Function(memberID); fn != nil && fn.Flags.Has(flag) {
			return true
		}
	}
	return false
}

func (l *Library) synthesizeMember(owner stub.ID, name string, flag stub.Flags) stub.ID {
	pos := token.Pos{}
	if hdr := l.Header(owner); hdr != nil {
		pos = hdr.Pos
	}
	return l.CreateFunction(owner, name, name, stub.NoID, pos, flag)
}
