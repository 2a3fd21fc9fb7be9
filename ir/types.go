package ir

import (
	"strconv"
	"strings"
)

// TypeKind classifies a Type.
type TypeKind byte

const (
	VoidKind TypeKind = iota
	IntegerKind
	FloatKind
	FunctionKind
	PointerKind
)

// Type is an IR type.
type Type interface {
	Kind() TypeKind
	String() string
}

// VoidType is the type of instructions that produce no value.
type VoidType struct{}

// IntType is an integer of Bits width.
type IntType struct {
	Bits int
}

// FloatType is an IEEE-754 binary float of Bits width (32 or 64).
type FloatType struct {
	Bits int
}

// FuncType is a function signature.
type FuncType struct {
	Result Type
	Params []Type
}

// PointerType is the type of function and alias symbols.
type PointerType struct{}

var (
	Void   = &VoidType{}
	I1     = &IntType{Bits: 1}
	I32    = &IntType{Bits: 32}
	I64    = &IntType{Bits: 64}
	Float  = &FloatType{Bits: 32}
	Double = &FloatType{Bits: 64}
	Ptr    = &PointerType{}
)

func (*VoidType) Kind() TypeKind    { return VoidKind }
func (*IntType) Kind() TypeKind     { return IntegerKind }
func (*FloatType) Kind() TypeKind   { return FloatKind }
func (*FuncType) Kind() TypeKind    { return FunctionKind }
func (*PointerType) Kind() TypeKind { return PointerKind }

func (*VoidType) String() string    { return "void" }
func (*PointerType) String() string { return "ptr" }

func (t *IntType) String() string {
	switch t.Bits {
	case 1:
		return "i1"
	case 32:
		return "i32"
	case 64:
		return "i64"
	}
	return "i" + strconv.Itoa(t.Bits)
}

func (t *FloatType) String() string {
	if t.Bits == 32 {
		return "float"
	}
	return "double"
}

func (t *FuncType) String() string {
	var b strings.Builder
	b.WriteString(t.Result.String())
	b.WriteString(" (")
	for i, p := range t.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteByte(')')
	return b.String()
}

// NewFuncType creates a signature with the given result and parameters.
func NewFuncType(result Type, params ...Type) *FuncType {
	return &FuncType{Result: result, Params: params}
}

// IsInteger reports whether t is an integer type.
func IsInteger(t Type) bool { return t != nil && t.Kind() == IntegerKind }

// IsFloat reports whether t is a single precision float.
func IsFloat(t Type) bool {
	ft, ok := t.(*FloatType)
	return ok && ft.Bits == 32
}

// IsDouble reports whether t is a double precision float.
func IsDouble(t Type) bool {
	ft, ok := t.(*FloatType)
	return ok && ft.Bits == 64
}

// IsVoid reports whether t is the void type.
func IsVoid(t Type) bool { return t != nil && t.Kind() == VoidKind }

// Equal reports whether a and b describe the same type.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch at := a.(type) {
	case *IntType:
		return at.Bits == b.(*IntType).Bits
	case *FloatType:
		return at.Bits == b.(*FloatType).Bits
	case *FuncType:
		bt := b.(*FuncType)
		if !Equal(at.Result, bt.Result) || len(at.Params) != len(bt.Params) {
			return false
		}
		for i := range at.Params {
			if !Equal(at.Params[i], bt.Params[i]) {
				return false
			}
		}
		return true
	}
	return true
}
