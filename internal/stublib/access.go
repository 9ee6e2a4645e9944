package stublib

import "github.com/rexlang/scriptc/internal/stub"

// CanAccess reports whether from may reference target: a private
// member is visible only within its own owning class; a protected
// member is visible within its owning class and any class derived
// from it; a public (unflagged) member is visible from anywhere that
// can already see the owner. from is the class context attempting the
// access (NoID for module-level context), target is the member or
// base class stub.
func (l *Library) CanAccess(from, target stub.ID) bool {
	hdr := l.Header(target)
	if hdr == nil {
		return false
	}
	if !hdr.Flags.Has(stub.FlagPrivate) && !hdr.Flags.Has(stub.FlagProtected) {
		return true
	}
	owner := hdr.Owner
	if from == owner {
		return true
	}
	if hdr.Flags.Has(stub.FlagPrivate) {
		return false
	}
	// Protected: accessible from the owner class or any derivation of it.
	return l.DerivesFrom(from, owner)
}

// CheckClassProperties sweeps already-linked classes: any member
// access recorded during file building (not tracked here
// directly — the elaborator calls CanAccess per reference) plus the
// specific rule that a shadowed inherited property without an
// `override`-equivalent marker is flagged (STB018), since properties
// (unlike functions) have no override keyword and shadowing is always
// a mistake.
func (l *Library) CheckClassProperties(classes []stub.ID) {
	for _, id := range classes {
		c := l.Class(id)
		if c == nil || !c.Base.Valid() {
			continue
		}
		for name, memberID := range c.MembersByName {
			prop := l.Property(memberID)
			if prop == nil {
				continue
			}
			if baseID, ok := lookupInClassChain(l, c.Base, name); ok {
				if l.Property(baseID) != nil {
					l.reportError("STB018", prop.Pos, "property %q shadows an inherited property", name)
				}
			}
		}
	}
}
