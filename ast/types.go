// Package ast defines the parsed module tree consumed by the translator.
//
// The tree is produced by a frontend (see package wast) and is read-only
// afterwards. Callable nodes are compared by identity: two imports with the
// same module, name, and signature are still two different callables.
package ast

import (
	"fmt"
	"math"
)

// ValueType is a WebAssembly value type tag.
type ValueType byte

const (
	Void ValueType = iota
	I32
	I64
	F32
	F64
)

func (v ValueType) String() string {
	switch v {
	case Void:
		return "void"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return fmt.Sprintf("ValueType(%d)", byte(v))
	}
}

// Arg is a parameter or local slot. Name is empty for anonymous slots.
type Arg struct {
	Name string
	Type ValueType
}

// Signature is the shape shared by functions and imports.
type Signature struct {
	Args   []*Arg
	Result ValueType
}

// Callable is implemented by *Function and *Import.
type Callable interface {
	Signature() *Signature
	callableNode()
}

// Function is a function defined in the module.
type Function struct {
	Sig    Signature
	Name   string // debug name from the text format, may be empty
	Locals []*Arg
	Body   []Expression
	Index  int
}

func (f *Function) Signature() *Signature { return &f.Sig }
func (f *Function) callableNode()         {}

// Import is a function provided by the host under ModuleName.FuncName.
type Import struct {
	Sig        Signature
	Name       string // debug name from the text format, may be empty
	ModuleName string
	FuncName   string
}

func (i *Import) Signature() *Signature { return &i.Sig }
func (i *Import) callableNode()         {}

// Export exposes Function under Name in the owning Module's namespace.
type Export struct {
	Module   *Module
	Function *Function
	Name     string
}

// Module is an ordered collection of imports, functions and exports.
type Module struct {
	Name      string
	Imports   []*Import
	Functions []*Function
	Exports   []*Export
}

// Export returns the export with the given name, or nil.
func (m *Module) Export(name string) *Export {
	for _, e := range m.Exports {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Literal is a typed constant with its raw payload. Integers are stored as
// their two's complement bit pattern, floats as their IEEE-754 bits.
type Literal struct {
	Bits uint64
	Type ValueType
}

func I32Lit(v int32) Literal   { return Literal{Type: I32, Bits: uint64(uint32(v))} }
func I64Lit(v int64) Literal   { return Literal{Type: I64, Bits: uint64(v)} }
func F32Lit(v float32) Literal { return Literal{Type: F32, Bits: uint64(math.Float32bits(v))} }
func F64Lit(v float64) Literal { return Literal{Type: F64, Bits: math.Float64bits(v)} }

// F32Bits builds an f32 literal from raw bits, preserving NaN payloads.
func F32Bits(bits uint32) Literal { return Literal{Type: F32, Bits: uint64(bits)} }

// F64Bits builds an f64 literal from raw bits, preserving NaN payloads.
func F64Bits(bits uint64) Literal { return Literal{Type: F64, Bits: bits} }

func (l Literal) I32() int32     { return int32(uint32(l.Bits)) }
func (l Literal) I64() int64     { return int64(l.Bits) }
func (l Literal) F32() float32   { return math.Float32frombits(uint32(l.Bits)) }
func (l Literal) F64() float64   { return math.Float64frombits(l.Bits) }
func (l Literal) String() string { return fmt.Sprintf("%s.const %s", l.Type, l.valueString()) }

func (l Literal) valueString() string {
	switch l.Type {
	case I32:
		return fmt.Sprint(l.I32())
	case I64:
		return fmt.Sprint(l.I64())
	case F32:
		return fmt.Sprint(l.F32())
	case F64:
		return fmt.Sprint(l.F64())
	default:
		return "_"
	}
}
