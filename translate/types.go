package translate

import (
	"github.com/WebAssembly/wasm-aot-prototype/ast"
	"github.com/WebAssembly/wasm-aot-prototype/errors"
	"github.com/WebAssembly/wasm-aot-prototype/ir"
)

// MapType returns the IR type for a WebAssembly value type.
// An unknown tag aborts translation.
func MapType(t ast.ValueType) ir.Type {
	switch t {
	case ast.Void:
		return ir.Void
	case ast.I32:
		return ir.I32
	case ast.I64:
		return ir.I64
	case ast.F32:
		return ir.Float
	case ast.F64:
		return ir.Double
	}
	errors.Fatalf(errors.PhaseTranslate, "unexpected type %s in MapType", t)
	return nil
}

// signature builds the IR function type of a callable.
func signature(sig *ast.Signature) *ir.FuncType {
	params := make([]ir.Type, len(sig.Args))
	for i, a := range sig.Args {
		params[i] = MapType(a.Type)
	}
	return ir.NewFuncType(MapType(sig.Result), params...)
}
