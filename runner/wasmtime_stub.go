//go:build !wasmtime

package runner

import "github.com/WebAssembly/wasm-aot-prototype/errors"

func newWasmtime(*Config) (backend, error) {
	return nil, errors.New(errors.PhaseLoad, errors.KindUnsupported).
		Detail("wasmtime engine not built in (rebuild with -tags wasmtime)").
		Build()
}
