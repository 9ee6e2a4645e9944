package emit

import (
	"github.com/rexlang/scriptc/internal/stub"
	"github.com/rexlang/scriptc/internal/stublib"
)

// FillAutomaticBodies fills in the synthesized `__ctor`/`__dtor`
// member functions created body-less by
// stublib.CreateAutomaticClassFunctions: one ContextCtor/ContextDtor
// opcode per property, walking the class's own properties first and
// then its base chain, stopping at the first imported class (an
// imported base already constructs/destroys its own properties at its
// own definition site). Structs go through the same synthesis as any
// other class — only an imported (native) class is skipped.
func FillAutomaticBodies(lib *stublib.Library, classes []stub.ID) {
	for _, id := range classes {
		c := lib.Class(id)
		if c == nil || c.Flags.Has(stub.FlagImport) {
			continue
		}
		for _, memberID := range c.Members {
			fn := lib.Function(memberID)
			if fn == nil || len(fn.Opcodes) != 0 {
				continue
			}
			switch {
			case fn.Flags.Has(stub.FlagConstructor):
				fn.Opcodes = buildAutomaticBody(lib, id, stub.OpContextCtor)
			case fn.Flags.Has(stub.FlagDestructor):
				fn.Opcodes = buildAutomaticBody(lib, id, stub.OpContextDtor)
			}
		}
	}
}

func buildAutomaticBody(lib *stublib.Library, class stub.ID, kind stub.OpKind) []stub.Opcode {
	var ops []stub.Opcode
	cur := class
	for cur.Valid() {
		c := lib.Class(cur)
		if c == nil || c.Flags.Has(stub.FlagImport) {
			break
		}
		for _, memberID := range c.Members {
			prop := lib.Property(memberID)
			if prop == nil {
				continue
			}
			ops = append(ops, stub.Opcode{Kind: kind, Pos: prop.Pos, Ref: memberID})
		}
		cur = c.Base
	}
	if kind == stub.OpContextDtor {
		// Destructors run in reverse declaration/inheritance order.
		for i, j := 0, len(ops)-1; i < j; i, j = i+1, j-1 {
			ops[i], ops[j] = ops[j], ops[i]
		}
	}
	ops = append(ops, stub.Opcode{Kind: stub.OpExit})
	return ops
}
