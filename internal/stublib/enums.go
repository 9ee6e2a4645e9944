package stublib

import "github.com/rexlang/scriptc/internal/stub"

// AssignEnumValues assigns enum option values: options without a
// user-assigned value take the previous option's value plus one
// (starting at zero),
// matching C-style enum numbering; a user-assigned value resets the
// running counter for subsequent auto-numbered options. Enums bound to
// a native engine type (FlagImport) may not gain new user-assigned
// values (STB007) since their numbering is fixed by the engine side —
// this is distinct from FlagImportDependency, which only marks a stub
// as having been cloned in from another compiled module and carries
// no such restriction (a merged module's enum keeps whatever explicit
// values it was compiled with).
func (l *Library) AssignEnumValues(enums []stub.ID) {
	for _, id := range enums {
		e := l.Enum(id)
		if e == nil {
			continue
		}
		var next int64
		imported := e.Flags.Has(stub.FlagImport)
		for _, optID := range e.Options {
			opt := l.EnumOption(optID)
			if opt == nil {
				continue
			}
			if opt.HasUserAssignedValue {
				if imported {
					l.reportError("STB007", opt.Pos, "enum option %q may not assign a value on an imported enum", opt.Name)
				}
				next = opt.Value + 1
				continue
			}
			opt.Value = next
			next++
		}
	}
}
