// Package wasmaot is an ahead-of-time translator from WebAssembly test
// scripts to an LLVM-style SSA IR.
//
// # Architecture Overview
//
// The pipeline is split into small packages:
//
//	wasmaot/
//	├── wast/       S-expression test scripts to AST (modules, invoke, assert_eq)
//	├── ast/        Resolved module AST: imports, functions, exports, commands
//	├── translate/  AST to IR, symbol table, Invoke/AssertEq harness wrappers
//	├── ir/         SSA IR: modules, functions, blocks, builder, verifier, listing
//	├── wasmgen/    IR to a core WebAssembly binary
//	├── llvmgen/    IR to LLVM IR or bitcode (llvm build tag)
//	├── runner/     Execute emitted modules on wazero or wasmtime
//	├── errors/     Structured errors with phase and kind
//	└── cmd/waot/   Command line driver and interactive runner
//
// # Symbol naming
//
// Imports are declared as ".<module>.<field>", exported functions get an
// alias ".<module>.<export>", and module functions are internal. Harness
// wrappers are externally visible functions named Invoke and AssertEq with
// ".N" suffixes when repeated.
//
// # Usage
//
//	script, err := wast.Parse(source)
//	if err != nil {
//		return err
//	}
//	m, harness := translate.Script(script.Entries[0])
//	fmt.Print(m)
//
//	bin, err := wasmgen.Emit(m)
//	...
//
// translate reports broken invariants by panicking with an *errors.Error;
// callers that feed it untrusted input recover with errors.Recover.
package wasmaot
