package stub

import (
	"fmt"

	"github.com/rexlang/scriptc/internal/token"
)

// OpKind is the closed set of emitted instruction kinds. Opcode
// storage is a []Opcode slice per function, not a linked list; label
// opcodes store their own index and Jump/JumpIfFalse.Target stores
// that index directly.
type OpKind int

const (
	OpInvalid OpKind = iota

	// Control
	OpNop
	OpLabel
	OpJump
	OpJumpIfFalse
	OpExit
	OpBreakpoint

	// Scope
	OpLocalCtor
	OpLocalDtor

	// Variable access
	OpParamVar
	OpLocalVar
	OpContextVar

	// Context
	OpContextFromPtr
	OpContextFromPtrRef
	OpContextFromRef
	OpContextFromValue
	OpContextCtor
	OpContextDtor
	OpThisStruct
	OpThisObject

	// Struct access
	OpStructMember
	OpStructMemberRef

	// Calls
	OpStaticFunc
	OpVirtualFunc
	OpFinalFunc

	// Constants
	OpIntConst1
	OpIntConst2
	OpIntConst4
	OpIntConst8
	OpUintConst1
	OpUintConst2
	OpUintConst4
	OpUintConst8
	OpIntZero
	OpIntOne
	OpFloatConst
	OpDoubleConst
	OpBoolTrue
	OpBoolFalse
	OpStringConst
	OpNameConst
	OpEnumConst
	OpClassConst
	OpNull

	// Object ops
	OpNew
	OpConstructor

	// Loads
	OpLoadInt1
	OpLoadInt2
	OpLoadInt4
	OpLoadInt8
	OpLoadUint1
	OpLoadUint2
	OpLoadUint4
	OpLoadUint8
	OpLoadFloat
	OpLoadDouble
	OpLoadStrongPtr
	OpLoadWeakPtr
	OpLoadAny

	// Assigns
	OpAssignInt1
	OpAssignInt2
	OpAssignInt4
	OpAssignInt8
	OpAssignUint1
	OpAssignUint2
	OpAssignUint4
	OpAssignUint8
	OpAssignFloat
	OpAssignDouble
	OpAssignAny

	// Comparisons
	OpTestEqual
	OpTestNotEqual

	// Casts
	OpWeakToStrong
	OpStrongToWeak
	OpDynamicCast
	OpDynamicWeakCast
	OpMetaCast
	OpEnumToInt64
	OpEnumToInt32
	OpInt64ToEnum
	OpInt32ToEnum
	OpEnumToName
	OpNameToEnum
	OpEnumToString
	OpStrongToBool
	OpWeakToBool
	OpClassToBool
	OpClassToName
	OpClassToString
	OpCastToVariant
	OpCastFromVariant

	// Short-circuit
	OpLogicOr
	OpLogicAnd

	// Returns
	OpReturnDirect
	OpReturnLoad1
	OpReturnLoad2
	OpReturnLoad4
	OpReturnLoad8
	OpReturnAny
)

var opKindNames = map[OpKind]string{
	OpInvalid: "Invalid", OpNop: "Nop", OpLabel: "Label", OpJump: "Jump",
	OpJumpIfFalse: "JumpIfFalse", OpExit: "Exit", OpBreakpoint: "Breakpoint",
	OpLocalCtor: "LocalCtor", OpLocalDtor: "LocalDtor",
	OpParamVar: "ParamVar", OpLocalVar: "LocalVar", OpContextVar: "ContextVar",
	OpContextFromPtr: "ContextFromPtr", OpContextFromPtrRef: "ContextFromPtrRef",
	OpContextFromRef: "ContextFromRef", OpContextFromValue: "ContextFromValue",
	OpContextCtor: "ContextCtor", OpContextDtor: "ContextDtor",
	OpThisStruct: "ThisStruct", OpThisObject: "ThisObject",
	OpStructMember: "StructMember", OpStructMemberRef: "StructMemberRef",
	OpStaticFunc: "StaticFunc", OpVirtualFunc: "VirtualFunc", OpFinalFunc: "FinalFunc",
	OpIntConst1: "IntConst1", OpIntConst2: "IntConst2", OpIntConst4: "IntConst4", OpIntConst8: "IntConst8",
	OpUintConst1: "UintConst1", OpUintConst2: "UintConst2", OpUintConst4: "UintConst4", OpUintConst8: "UintConst8",
	OpIntZero: "IntZero", OpIntOne: "IntOne", OpFloatConst: "FloatConst", OpDoubleConst: "DoubleConst",
	OpBoolTrue: "BoolTrue", OpBoolFalse: "BoolFalse", OpStringConst: "StringConst",
	OpNameConst: "NameConst", OpEnumConst: "EnumConst", OpClassConst: "ClassConst", OpNull: "Null",
	OpNew: "New", OpConstructor: "Constructor",
	OpLoadInt1: "LoadInt1", OpLoadInt2: "LoadInt2", OpLoadInt4: "LoadInt4", OpLoadInt8: "LoadInt8",
	OpLoadUint1: "LoadUint1", OpLoadUint2: "LoadUint2", OpLoadUint4: "LoadUint4", OpLoadUint8: "LoadUint8",
	OpLoadFloat: "LoadFloat", OpLoadDouble: "LoadDouble",
	OpLoadStrongPtr: "LoadStrongPtr", OpLoadWeakPtr: "LoadWeakPtr", OpLoadAny: "LoadAny",
	OpAssignInt1: "AssignInt1", OpAssignInt2: "AssignInt2", OpAssignInt4: "AssignInt4", OpAssignInt8: "AssignInt8",
	OpAssignUint1: "AssignUint1", OpAssignUint2: "AssignUint2", OpAssignUint4: "AssignUint4", OpAssignUint8: "AssignUint8",
	OpAssignFloat: "AssignFloat", OpAssignDouble: "AssignDouble", OpAssignAny: "AssignAny",
	OpTestEqual: "TestEqual", OpTestNotEqual: "TestNotEqual",
	OpWeakToStrong: "WeakToStrong", OpStrongToWeak: "StrongToWeak",
	OpDynamicCast: "DynamicCast", OpDynamicWeakCast: "DynamicWeakCast", OpMetaCast: "MetaCast",
	OpEnumToInt64: "EnumToInt64", OpEnumToInt32: "EnumToInt32",
	OpInt64ToEnum: "Int64ToEnum", OpInt32ToEnum: "Int32ToEnum",
	OpEnumToName: "EnumToName", OpNameToEnum: "NameToEnum", OpEnumToString: "EnumToString",
	OpStrongToBool: "StrongToBool", OpWeakToBool: "WeakToBool", OpClassToBool: "ClassToBool",
	OpClassToName: "ClassToName", OpClassToString: "ClassToString",
	OpCastToVariant: "CastToVariant", OpCastFromVariant: "CastFromVariant",
	OpLogicOr: "LogicOr", OpLogicAnd: "LogicAnd",
	OpReturnDirect: "ReturnDirect", OpReturnLoad1: "ReturnLoad1", OpReturnLoad2: "ReturnLoad2",
	OpReturnLoad4: "ReturnLoad4", OpReturnLoad8: "ReturnLoad8", OpReturnAny: "ReturnAny",
}

func (k OpKind) String() string {
	if name, ok := opKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("OpKind(%d)", int(k))
}

// ArgMode is the per-argument passing mode encoded into a call
// opcode's bit-packed Encoding.
type ArgMode uint64

const (
	ArgTypedValue ArgMode = 0
	ArgRef        ArgMode = 1
)

const argModeBits = 1

// EncodeArgs packs per-argument passing modes into a single u64, LSB
// block corresponding to argument 0, so the executor can decode by
// repeated shift-right.
func EncodeArgs(modes []ArgMode) uint64 {
	var enc uint64
	for i, m := range modes {
		enc |= uint64(m) << (uint(i) * argModeBits)
	}
	return enc
}

// DecodeArg extracts the passing mode for argument i from an encoding
// produced by EncodeArgs.
func DecodeArg(encoding uint64, i int) ArgMode {
	return ArgMode((encoding >> (uint(i) * argModeBits)) & 1)
}

// Opcode is one emitted instruction. Payload fields are populated
// according to Kind; unused fields are zero.
type Opcode struct {
	Kind OpKind
	Pos  token.Pos

	// Stub-ref payload: function/class/property/enum/type-ref, per Kind.
	Ref ID

	// Integer/float constant payload.
	IntValue    int64
	UintValue   uint64
	FloatValue  float64
	DoubleValue float64
	Text        string // StringConst/NameConst text, EnumConst option name

	// Variable/argument index payload (LocalCtor/LocalDtor/ParamVar/LocalVar).
	VarIndex int

	// Jump/JumpIfFalse/LogicOr/LogicAnd target, and Context*'s label:
	// the index of the Label opcode within the same function's Opcodes
	// slice — labels remain addressable, here by index instead of by
	// pointer.
	Target int

	// Call argument-passing encoding.
	Encoding uint64
}

// OpcodeList is the per-function accumulator the emitter builds into,
// with a merge-friendly Append standing in for a head+tail linked-list
// via a plain slice.
type OpcodeList struct {
	Ops []Opcode
}

// Label appends a Label opcode and returns its index for later use as
// a jump Target.
func (l *OpcodeList) Label(pos token.Pos) int {
	idx := len(l.Ops)
	l.Ops = append(l.Ops, Opcode{Kind: OpLabel, Pos: pos})
	return idx
}

// Emit appends op and returns its index.
func (l *OpcodeList) Emit(op Opcode) int {
	idx := len(l.Ops)
	l.Ops = append(l.Ops, op)
	return idx
}

// Append concatenates another function's partially-built opcode list
// onto this one — plain append, no pointer fix-ups since jump targets
// are indices local to one function and this is only ever used to
// splice two ranges belonging to the SAME function being built.
func (l *OpcodeList) Append(other OpcodeList) {
	l.Ops = append(l.Ops, other.Ops...)
}
