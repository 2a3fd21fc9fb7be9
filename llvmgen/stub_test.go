//go:build !llvm

package llvmgen

import (
	"testing"

	"github.com/WebAssembly/wasm-aot-prototype/errors"
	"github.com/WebAssembly/wasm-aot-prototype/ir"
)

func TestGenerateUnavailable(t *testing.T) {
	if Available {
		t.Fatal("Available without the llvm tag")
	}
	_, err := Generate(ir.NewModule("m"))
	var e *errors.Error
	if !errors.As(err, &e) || e.Kind != errors.KindUnsupported || e.Phase != errors.PhaseEmit {
		t.Fatalf("got %v", err)
	}
}
