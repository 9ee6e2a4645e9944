package stub

// Flags is a bitset carried by every stub. Different kinds use
// different subsets of bits; the comments below group them by owning
// kind.
type Flags uint32

const (
	// Class / generic access control.
	FlagPrivate Flags = 1 << iota
	FlagProtected

	// Class.
	FlagStruct // distinguishes a struct from a class

	// Function.
	FlagStatic
	FlagFinal
	FlagOverride
	FlagOperator
	FlagCast
	FlagSignal
	FlagConstructor
	FlagDestructor
	FlagImport // native/engine-implemented, no script body
	FlagOpcodeAlias

	// FunctionArg.
	FlagRef
	FlagOut
	FlagExplicit

	// EnumOption.
	FlagUserAssignedValue

	// Any stub cloned in by cross-module import merging.
	FlagImportDependency
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }
func (f Flags) With(bit Flags) Flags { return f | bit }
