package stublib

import "github.com/rexlang/scriptc/internal/stub"

// PruneUnusedImports walks every emitted opcode's Ref
// field plus every resolved TypeRef across the module being compiled,
// mark the imported modules those references land in, and drop the
// ImportedModules entries nothing actually touched — so an artifact's
// declared dependency list reflects real usage, not every module
// named in a `import` statement.
func (l *Library) PruneUnusedImports(module stub.ID, typeRefs []stub.ID) {
	m := l.Module(module)
	if m == nil || len(m.ImportedModules) == 0 {
		return
	}

	used := make(map[stub.ID]bool)
	markOwnerModule := func(id stub.ID) {
		mod := l.ownerModule(id)
		if mod.Valid() {
			used[mod] = true
		}
	}

	for _, refID := range typeRefs {
		ref := l.TypeRef(refID)
		if ref != nil && ref.Resolved.Valid() {
			markOwnerModule(ref.Resolved)
		}
	}
	for _, fnID := range l.functions {
		fn := l.Function(fnID)
		if fn == nil {
			continue
		}
		for _, op := range fn.Opcodes {
			if op.Ref.Valid() {
				markOwnerModule(op.Ref)
			}
		}
	}

	kept := m.ImportedModules[:0]
	for _, impID := range m.ImportedModules {
		if used[impID] {
			kept = append(kept, impID)
		}
	}
	m.ImportedModules = kept
}

// ownerModule walks Owner links up from any stub to the Module that
// ultimately contains it.
func (l *Library) ownerModule(id stub.ID) stub.ID {
	cur := id
	seen := make(map[stub.ID]bool)
	for cur.Valid() && !seen[cur] {
		seen[cur] = true
		if _, ok := l.all[cur].(*stub.Module); ok {
			return cur
		}
		hdr := l.Header(cur)
		if hdr == nil {
			return stub.NoID
		}
		cur = hdr.Owner
	}
	return stub.NoID
}
