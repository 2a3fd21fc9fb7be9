// Package errors provides structured error types for the AOT translator.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries a node path, the offending value, and a cause chain.
//
// Two kinds are special. KindInternal marks a broken invariant inside the
// translator (unknown type tag, call to an unregistered callee, empty
// non-void body, mismatched assert_eq types). Internal errors are never
// returned: Fatal and Fatalf panic with them, and translation aborts.
// KindValidation marks malformed input caught by a frontend and is always
// returned as an ordinary error value.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseParse, errors.KindValidation).
//		Path("module", "func $add").
//		Detail("unknown value type %q", "i128").
//		Build()
//
// Outer surfaces that prefer a message over a crash can convert an internal
// failure back into an error:
//
//	func run() (err error) {
//		defer errors.Recover(&err)
//		translate.Module(mod)
//		return nil
//	}
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
