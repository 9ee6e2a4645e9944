// Package stublib implements the stub library: the mutable symbol
// table that accumulates stubs during file parsing, resolves names
// and types, links class/enum hierarchies, and merges imported
// modules.
package stublib

import (
	"fmt"
	"sync"

	"github.com/rexlang/scriptc/internal/arena"
	"github.com/rexlang/scriptc/internal/casts"
	"github.com/rexlang/scriptc/internal/diag"
	"github.com/rexlang/scriptc/internal/stub"
	"github.com/rexlang/scriptc/internal/token"
)

// Library owns every stub created during a single compilation. Its
// creation APIs take an internal lock (mu) because file parsing may
// run concurrently, one goroutine per file.
type Library struct {
	mu sync.Mutex

	Arena *arena.Arena
	Sink  *diag.Sink

	nextID stub.ID
	all    map[stub.ID]any

	modules   []stub.ID
	files     []stub.ID
	imports   []stub.ID
	classes   []stub.ID
	enums     []stub.ID
	functions []stub.ID
	constants []stub.ID
	typeNames []stub.ID

	// engineTypes de-duplicates MetaEngine TypeDecls: every request
	// for the same EngineType returns the same TypeDecl ID — engine
	// primitive types are canonicalized.
	engineTypes map[stub.EngineType]stub.ID

	Casts *casts.Matrix // populated by BuildCastMatrix once functions are linked
}

// New creates an empty Library bound to the given diagnostic sink.
func New(sink *diag.Sink) *Library {
	return &Library{
		Arena:       arena.New(),
		Sink:        sink,
		all:         make(map[stub.ID]any),
		engineTypes: make(map[stub.EngineType]stub.ID),
	}
}

func (l *Library) alloc() stub.ID {
	l.nextID++
	return l.nextID
}

func (l *Library) put(id stub.ID, v any) {
	l.all[id] = v
}

func (l *Library) reportError(code diag.Code, pos token.Pos, format string, args ...any) {
	l.Sink.ReportError(code, pos, format, args...)
}

func (l *Library) reportWarning(code diag.Code, pos token.Pos, format string, args ...any) {
	l.Sink.ReportWarning(code, pos, format, args...)
}

// --- generic typed accessors, also satisfying casts.Resolver ---

func (l *Library) Module(id stub.ID) *stub.Module { v, _ := l.all[id].(*stub.Module); return v }
func (l *Library) File(id stub.ID) *stub.File     { v, _ := l.all[id].(*stub.File); return v }
func (l *Library) ModuleImport(id stub.ID) *stub.ModuleImport {
	v, _ := l.all[id].(*stub.ModuleImport)
	return v
}
func (l *Library) Class(id stub.ID) *stub.Class { v, _ := l.all[id].(*stub.Class); return v }
func (l *Library) Enum(id stub.ID) *stub.Enum   { v, _ := l.all[id].(*stub.Enum); return v }
func (l *Library) EnumOption(id stub.ID) *stub.EnumOption {
	v, _ := l.all[id].(*stub.EnumOption)
	return v
}
func (l *Library) Property(id stub.ID) *stub.Property { v, _ := l.all[id].(*stub.Property); return v }
func (l *Library) Function(id stub.ID) *stub.Function { v, _ := l.all[id].(*stub.Function); return v }
func (l *Library) FunctionArg(id stub.ID) *stub.FunctionArg {
	v, _ := l.all[id].(*stub.FunctionArg)
	return v
}
func (l *Library) Constant(id stub.ID) *stub.Constant { v, _ := l.all[id].(*stub.Constant); return v }
func (l *Library) TypeName(id stub.ID) *stub.TypeName { v, _ := l.all[id].(*stub.TypeName); return v }
func (l *Library) TypeRef(id stub.ID) *stub.TypeRef   { v, _ := l.all[id].(*stub.TypeRef); return v }
func (l *Library) TypeDecl(id stub.ID) *stub.TypeDecl { v, _ := l.all[id].(*stub.TypeDecl); return v }

// Header returns the common header for any stub ID, or nil for NoID /
// unknown IDs.
func (l *Library) Header(id stub.ID) *stub.Header {
	switch v := l.all[id].(type) {
	case *stub.Module:
		return &v.Header
	case *stub.File:
		return &v.Header
	case *stub.ModuleImport:
		return &v.Header
	case *stub.Class:
		return &v.Header
	case *stub.Enum:
		return &v.Header
	case *stub.EnumOption:
		return &v.Header
	case *stub.Property:
		return &v.Header
	case *stub.Function:
		return &v.Header
	case *stub.FunctionArg:
		return &v.Header
	case *stub.Constant:
		return &v.Header
	case *stub.TypeName:
		return &v.Header
	case *stub.TypeRef:
		return &v.Header
	case *stub.TypeDecl:
		return &v.Header
	default:
		return nil
	}
}

// Modules, Classes, Enums, Functions, Constants expose the top-level
// index lists built up by the creation pass, in declaration order.
func (l *Library) Modules() []stub.ID   { return l.modules }
func (l *Library) Classes() []stub.ID   { return l.classes }
func (l *Library) Enums() []stub.ID     { return l.enums }
func (l *Library) Functions() []stub.ID { return l.functions }
func (l *Library) Constants() []stub.ID { return l.constants }

// DerivesFrom reports whether class (possibly transitively) derives
// from ancestor, walking the linked Base chain built during class
// linking. A class derives from itself for the purposes of upcast
// checks in FindBestCast's rule 7/9.
func (l *Library) DerivesFrom(class, ancestor stub.ID) bool {
	if !class.Valid() || !ancestor.Valid() {
		return false
	}
	seen := make(map[stub.ID]bool)
	cur := class
	for cur.Valid() {
		if seen[cur] {
			return false // cycle guard; linking should already reject cycles
		}
		seen[cur] = true
		if cur == ancestor {
			return true
		}
		c := l.Class(cur)
		if c == nil {
			return false
		}
		cur = c.Base
	}
	return false
}

// Signature renders a canonical structural string for a TypeDecl so
// that two independently-allocated but structurally identical
// TypeDecls compare equal wherever the cast matrix or resolver needs
// type equality.
func (l *Library) Signature(id stub.ID) string {
	td := l.TypeDecl(id)
	if td == nil {
		return fmt.Sprintf("<invalid:%d>", id)
	}
	switch td.Meta {
	case stub.MetaEngine:
		return "engine:" + string(td.Engine)
	case stub.MetaSimple, stub.MetaClassType, stub.MetaPtrType, stub.MetaWeakPtrType:
		ref := l.TypeRef(td.Ref)
		name := "?"
		if ref != nil {
			name = ref.QualifiedName
		}
		return fmt.Sprintf("%s:%s", td.Meta, name)
	case stub.MetaStaticArrayType:
		return fmt.Sprintf("array[%d]:%s", td.Size, l.Signature(td.Inner))
	case stub.MetaDynamicArrayType:
		return fmt.Sprintf("array[]:%s", l.Signature(td.Inner))
	default:
		return "<invalid-meta>"
	}
}

var _ casts.Resolver = (*Library)(nil)
