// Package translate lowers a parsed WebAssembly module (package ast) into
// the low-level IR of package ir.
//
// A Translator visits the module in a fixed order: every import is declared
// first so that bodies can call it, then every function is declared and
// compiled in module order, then every export becomes an alias of its
// compiled function. A function may only call callables declared before it;
// a forward call aborts translation.
//
//	mod := translate.Module(astModule)
//	fmt.Print(mod)
//
// After a module is translated the same Translator can synthesize test
// harness wrappers for script directives:
//
//	tr := translate.New(ir.NewModule("m"))
//	tr.TranslateModule(astModule)
//	invoke := tr.Invoke(directive) // zero-argument wrapper function
//
// # Naming
//
// Imports are declared under ".<module>.<function>" and exports are aliased
// as ".<module>.<export>"; Mangle builds both names. These symbols are the
// contract with whatever links the generated code.
//
// # Errors
//
// Every failure in this package is a broken invariant of the input tree
// (unknown type tag, call to an unregistered callee, empty body for a
// non-void function, mismatched assert_eq types). They are reported by
// panicking with an *errors.Error of kind errors.KindInternal; there is no
// partial result. Use errors.Recover at an outer boundary to turn the panic
// into an error value.
//
// A Translator is not safe for concurrent use.
package translate
