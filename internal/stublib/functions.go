package stublib

import (
	"strings"

	"github.com/rexlang/scriptc/internal/stub"
)

// LinkFunctions checks for duplicate argument names, binds override
// functions to the base function they override, rejects override
// declarations with no matching base (STB011) or that target a final
// base function (STB012), flags non-override shadowing (STB013), and
// validates signal and import-function constraints (STB009, STB010).
func (l *Library) LinkFunctions(functions []stub.ID) {
	for _, id := range functions {
		fn := l.Function(id)
		if fn == nil {
			continue
		}
		l.checkDuplicateArgs(fn)
		l.checkSignal(fn)
		l.checkImportFunction(fn)
		l.linkOverride(fn)
	}
}

func (l *Library) checkDuplicateArgs(fn *stub.Function) {
	seen := make(map[string]bool)
	for _, argID := range fn.Args {
		arg := l.FunctionArg(argID)
		if arg == nil {
			continue
		}
		if seen[arg.Name] {
			l.reportError("STB008", arg.Pos, "duplicate argument name %q in %q", arg.Name, fn.Name)
		}
		seen[arg.Name] = true
	}
}

func (l *Library) checkSignal(fn *stub.Function) {
	if !fn.Flags.Has(stub.FlagSignal) {
		return
	}
	if !strings.HasPrefix(fn.Name, "On") {
		l.reportError("STB009", fn.Pos, "signal %q must be named with an \"On\" prefix", fn.Name)
	}
	if fn.ReturnType.Valid() {
		if td := l.TypeDecl(fn.ReturnType); td != nil && td.Engine != stub.EngineBool && td.Engine != stub.EngineVoid {
			l.reportError("STB009", fn.Pos, "signal %q must return bool or void", fn.Name)
		}
	}
}

func (l *Library) checkImportFunction(fn *stub.Function) {
	if !fn.Flags.Has(stub.FlagImport) {
		return
	}
	owner := l.Class(fn.Owner)
	if owner == nil || owner.EngineImportAlias == "" {
		l.reportError("STB010", fn.Pos, "import function %q requires an import-bound owning class", fn.Name)
	}
}

func (l *Library) linkOverride(fn *stub.Function) {
	if !fn.Flags.Has(stub.FlagOverride) {
		// Non-override: report an error (STB013) if it shadows a base
		// function with the same name.
		owner := l.Class(fn.Owner)
		if owner == nil || !owner.Base.Valid() {
			return
		}
		if baseID, ok := lookupInClassChain(l, owner.Base, fn.Name); ok {
			if baseFn := l.Function(baseID); baseFn != nil {
				l.reportError("STB013", fn.Pos, "%q shadows an inherited function; mark it override", fn.Name)
			}
		}
		return
	}
	owner := l.Class(fn.Owner)
	if owner == nil || !owner.Base.Valid() {
		l.reportError("STB011", fn.Pos, "%q marked override but has no base class", fn.Name)
		return
	}
	baseID, ok := lookupInClassChain(l, owner.Base, fn.Name)
	if !ok {
		l.reportError("STB011", fn.Pos, "%q does not override any base function", fn.Name)
		return
	}
	baseFn := l.Function(baseID)
	if baseFn == nil {
		l.reportError("STB011", fn.Pos, "%q does not override any base function", fn.Name)
		return
	}
	if baseFn.Flags.Has(stub.FlagFinal) {
		l.reportError("STB012", fn.Pos, "%q overrides final function %q", fn.Name, baseFn.Name)
		return
	}
	if !signaturesMatch(l, fn, baseFn) {
		l.reportError("STB011", fn.Pos, "%q signature does not match base function %q", fn.Name, baseFn.Name)
		return
	}
	fn.BaseFunction = baseID
}

func signaturesMatch(l *Library, a, b *stub.Function) bool {
	if len(a.Args) != len(b.Args) {
		return false
	}
	if l.Signature(a.ReturnType) != l.Signature(b.ReturnType) {
		return false
	}
	for i := range a.Args {
		argA := l.FunctionArg(a.Args[i])
		argB := l.FunctionArg(b.Args[i])
		if argA == nil || argB == nil {
			return false
		}
		if l.Signature(argA.Type) != l.Signature(argB.Type) {
			return false
		}
		if argA.Flags.Has(stub.FlagRef) != argB.Flags.Has(stub.FlagRef) {
			return false
		}
		if argA.Flags.Has(stub.FlagOut) != argB.Flags.Has(stub.FlagOut) {
			return false
		}
		if argA.Flags.Has(stub.FlagExplicit) != argB.Flags.Has(stub.FlagExplicit) {
			return false
		}
	}
	return true
}

// FindAliasedFunctions returns every function in an overload set
// sharing the given alias name, owned by class (searched up the base
// chain) — used by the elaborator to resolve an alias call to the
// best-costed overload.
func (l *Library) FindAliasedFunctions(class stub.ID, alias string) []stub.ID {
	var out []stub.ID
	cur := class
	seen := make(map[stub.ID]bool)
	for cur.Valid() && !seen[cur] {
		seen[cur] = true
		c := l.Class(cur)
		if c == nil {
			break
		}
		for _, memberID := range c.Members {
			fn := l.Function(memberID)
			if fn != nil && fn.AliasName == alias {
				out = append(out, memberID)
			}
		}
		cur = c.Base
	}
	return out
}
