package stub

import "github.com/rexlang/scriptc/internal/token"

// Header carries the fields every stub has regardless of kind: a kind
// tag, an owner link, a name, a source location, and a flag set.
type Header struct {
	ID    ID
	Kind  Kind
	Owner ID // non-owning; aliases the parent in the containment tree
	Name  string
	Pos   token.Pos
	Flags Flags
}

// Module is the top-level namespace stub.
type Module struct {
	Header
	Name_   string // canonical module name (distinct from Header.Name for clarity at call sites)
	Files   []ID   // owned StubFile list
	Imports []ID   // ModuleImport stubs appearing across the module's files
	Members map[string]ID // name -> top-level member stub (class/enum/function/const)

	// ImportedModules is the recursive closure of modules loaded to
	// satisfy this module's imports.
	ImportedModules []ID
}

// File is one source file stub.
type File struct {
	Header
	DepotPath    string
	AbsolutePath string
	TopLevel     []ID // owned top-level stubs declared in this file, in source order
}

// ModuleImport is an import declaration inside a File; it resolves to
// a Module once dependency loading completes.
type ModuleImport struct {
	Header
	ResolvedModule ID
}

// Class covers both classes and structs, distinguished by FlagStruct.
type Class struct {
	Header

	BaseName string // as written; empty if none declared
	Base     ID     // resolved Class, NoID until class linking runs

	ParentName string // outer-class name as written, if nested
	Parent     ID

	EngineImportAlias string // for import-flagged classes bound to an engine type

	Members     []ID          // owned: properties, functions, nested classes, constants, enums
	MembersByName map[string]ID

	DerivedClasses []ID // back-links, not ownership
	ChildClasses   []ID
}

// Enum is a set of named integer options.
type Enum struct {
	Header
	EngineImportAlias string
	Options           []ID // owned EnumOption stubs, declaration order
	OptionsByName     map[string]ID
}

// EnumOption is one value within an Enum.
type EnumOption struct {
	Header
	Value                 int64
	HasUserAssignedValue bool
}

// Property is a typed, optionally-defaulted class/struct member or
// global variable.
type Property struct {
	Header
	Type    ID // TypeDecl
	Default *ConstantValue
}

// Function covers global functions, class members, operators, casts,
// and the synthesized ctor/dtor.
type Function struct {
	Header

	ReturnType ID // TypeDecl; NoID for void/ctor/dtor
	Args       []ID // owned FunctionArg stubs, positional order

	OperatorSymbol string // e.g. "opAdd"; set when FlagOperator
	OpcodeName     string // set when FlagOpcodeAlias (native implementation)
	AliasName      string // overload-set name, distinct from the mangled Header.Name

	CastCost     int  // meaningful only when FlagCast
	CastExplicit bool // meaningful only when FlagCast

	BaseFunction ID // resolved base-class function, set for FlagOverride

	Body    []token.Token // raw token range, populated by the file builder, consumed by the function parser
	Opcodes []Opcode       // emitted by the opcode emitter
}

// FunctionArg is one parameter of a Function.
type FunctionArg struct {
	Header
	Type     ID
	Default  *ConstantValue
	Index    int
}

// Constant is a named, typed, immutable value.
type Constant struct {
	Header
	Type  ID
	Value *ConstantValue
}

// TypeName is a named alias for a TypeDecl, e.g. `typedef`-like
// declarations.
type TypeName struct {
	Header
	Aliased ID // TypeDecl
}

// TypeRef is a pending or resolved reference to a named type (class or
// enum): name is always set; Resolved is null until the
// resolve-type-refs pass runs.
type TypeRef struct {
	Header
	QualifiedName string
	Context       ID // owner stub used for context-sensitive resolution, may be NoID
	Resolved      ID // Class, Enum, or TypeName; NoID until type-ref resolution runs
}

// MetaType discriminates the TypeDecl type-expression language.
type MetaType int

const (
	MetaInvalid MetaType = iota
	MetaEngine
	MetaSimple
	MetaClassType
	MetaPtrType
	MetaWeakPtrType
	MetaStaticArrayType
	MetaDynamicArrayType
)

func (m MetaType) String() string {
	switch m {
	case MetaEngine:
		return "Engine"
	case MetaSimple:
		return "Simple"
	case MetaClassType:
		return "ClassType"
	case MetaPtrType:
		return "PtrType"
	case MetaWeakPtrType:
		return "WeakPtrType"
	case MetaStaticArrayType:
		return "StaticArrayType"
	case MetaDynamicArrayType:
		return "DynamicArrayType"
	default:
		return "Invalid"
	}
}

// EngineType enumerates the built-in primitives.
type EngineType string

const (
	EngineInt     EngineType = "int"
	EngineUint    EngineType = "uint"
	EngineInt64   EngineType = "int64"
	EngineUint64  EngineType = "uint64"
	EngineInt16   EngineType = "int16"
	EngineInt8    EngineType = "int8"
	EngineUint8   EngineType = "uint8"
	EngineUint16  EngineType = "uint16"
	EngineFloat   EngineType = "float"
	EngineDouble  EngineType = "double"
	EngineBool    EngineType = "bool"
	EngineStrID   EngineType = "strid"
	EngineString  EngineType = "string"
	EngineVariant EngineType = "Variant"
	EngineVoid    EngineType = "void"
)

// IntegerEngineTypes are the EngineType values eligible for implicit
// numeric-cast and constant-range-fit rules.
var IntegerEngineTypes = map[EngineType]struct {
	Bits   uint
	Signed bool
}{
	EngineInt8:   {8, true},
	EngineUint8:  {8, false},
	EngineInt16:  {16, true},
	EngineUint16: {16, false},
	EngineInt:    {32, true},
	EngineUint:   {32, false},
	EngineInt64:  {64, true},
	EngineUint64: {64, false},
}

// TypeDecl is a type expression.
type TypeDecl struct {
	Header

	Meta MetaType

	Engine EngineType // MetaEngine

	Ref ID // MetaSimple/MetaClassType/MetaPtrType/MetaWeakPtrType: TypeRef

	Inner ID  // MetaStaticArrayType/MetaDynamicArrayType
	Size  int // MetaStaticArrayType
}
