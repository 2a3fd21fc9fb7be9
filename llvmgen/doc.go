// Package llvmgen lowers an ir.Module to a real LLVM module through the
// LLVM C API and prints it as textual IR or bitcode.
//
// The backend needs cgo and an installed LLVM; it is compiled only with the
// llvm build tag. Without it Generate reports an unsupported error and the
// textual listing from ir.Module.String remains available.
package llvmgen

// Config holds configuration for LLVM code generation
type Config struct {
	// Bitcode selects LLVM bitcode output instead of textual IR.
	Bitcode bool
}
