package ir

import "math"

// Value is anything that can be an instruction operand.
type Value interface {
	Type() Type
	Name() string
}

// Argument is a formal parameter of a Function.
type Argument struct {
	typ    Type
	parent *Function
	name   string
	Index  int
}

func (a *Argument) Type() Type          { return a.typ }
func (a *Argument) Name() string        { return a.name }
func (a *Argument) Parent() *Function   { return a.parent }
func (a *Argument) SetName(name string) { a.name = a.parent.uniqueLocal(name) }

// ConstInt is an integer constant. Bits holds the value truncated to the
// type width; it is never sign-extended beyond it.
type ConstInt struct {
	Typ  *IntType
	Bits uint64
}

// NewConstInt creates an integer constant from the low bits of v.
func NewConstInt(t *IntType, v uint64) *ConstInt {
	return &ConstInt{Typ: t, Bits: v & widthMask(t.Bits)}
}

func (c *ConstInt) Type() Type   { return c.Typ }
func (c *ConstInt) Name() string { return "" }

// Int64 returns the value sign-extended from the type width.
func (c *ConstInt) Int64() int64 {
	if c.Typ.Bits >= 64 {
		return int64(c.Bits)
	}
	shift := uint(64 - c.Typ.Bits)
	return int64(c.Bits<<shift) >> shift
}

// Uint64 returns the value zero-extended from the type width.
func (c *ConstInt) Uint64() uint64 { return c.Bits }

// ConstFloat is a floating point constant stored as raw IEEE-754 bits of
// its own width, so NaN payloads survive untouched.
type ConstFloat struct {
	Typ  *FloatType
	Bits uint64
}

// NewConstFloat creates a float constant from raw bits of the type width.
func NewConstFloat(t *FloatType, bits uint64) *ConstFloat {
	return &ConstFloat{Typ: t, Bits: bits & widthMask(t.Bits)}
}

func (c *ConstFloat) Type() Type   { return c.Typ }
func (c *ConstFloat) Name() string { return "" }

// Float64 returns the numeric value widened to float64.
func (c *ConstFloat) Float64() float64 {
	if c.Typ.Bits == 32 {
		return float64(math.Float32frombits(uint32(c.Bits)))
	}
	return math.Float64frombits(c.Bits)
}

// Undef is a placeholder value of type Typ with no defined contents.
type Undef struct {
	Typ Type
}

// NewUndef creates an undefined value of type t.
func NewUndef(t Type) *Undef { return &Undef{Typ: t} }

func (u *Undef) Type() Type   { return u.Typ }
func (u *Undef) Name() string { return "" }

func widthMask(bits int) uint64 {
	if bits >= 64 {
		return math.MaxUint64
	}
	return 1<<uint(bits) - 1
}
