//go:build !llvm

package llvmgen

import (
	"github.com/WebAssembly/wasm-aot-prototype/errors"
	"github.com/WebAssembly/wasm-aot-prototype/ir"
)

// Available reports whether the LLVM backend is compiled in.
const Available = false

// Generate lowers m to LLVM IR.
func Generate(m *ir.Module) ([]byte, error) {
	return GenerateWithConfig(m, nil)
}

// GenerateWithConfig is Generate with custom configuration.
func GenerateWithConfig(*ir.Module, *Config) ([]byte, error) {
	return nil, errors.New(errors.PhaseEmit, errors.KindUnsupported).
		Detail("LLVM backend not built in (rebuild with -tags llvm)").
		Build()
}
