package stub

// ConstTag discriminates the ConstantValue tagged union.
type ConstTag int

const (
	ConstInvalid ConstTag = iota
	ConstInteger
	ConstUnsigned
	ConstFloat
	ConstBool
	ConstName
	ConstString
	ConstCompound
)

// ConstantValue is a closed sum type: exactly one field is meaningful
// per Tag. Unlike ast.Expr-style interfaces (used where new variants
// are added over time), this variant set is fixed by the wire format,
// so a single struct with a discriminator is the better fit.
type ConstantValue struct {
	Tag ConstTag

	Int    int64
	Uint   uint64
	Float  float64
	Bool   bool
	Name   string
	String string

	// ConstCompound: the declared struct type plus one ConstantValue
	// per property, in declaration order.
	CompoundType ID
	Inner        []*ConstantValue
}

func Int(v int64) *ConstantValue     { return &ConstantValue{Tag: ConstInteger, Int: v} }
func Uint(v uint64) *ConstantValue   { return &ConstantValue{Tag: ConstUnsigned, Uint: v} }
func Float(v float64) *ConstantValue { return &ConstantValue{Tag: ConstFloat, Float: v} }
func Bool(v bool) *ConstantValue     { return &ConstantValue{Tag: ConstBool, Bool: v} }
func Name(v string) *ConstantValue   { return &ConstantValue{Tag: ConstName, Name: v} }
func String(v string) *ConstantValue { return &ConstantValue{Tag: ConstString, String: v} }
func Compound(typeDecl ID, inner []*ConstantValue) *ConstantValue {
	return &ConstantValue{Tag: ConstCompound, CompoundType: typeDecl, Inner: inner}
}
