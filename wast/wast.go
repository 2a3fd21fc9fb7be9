package wast

import (
	"github.com/WebAssembly/wasm-aot-prototype/ast"
	"github.com/WebAssembly/wasm-aot-prototype/errors"
	"github.com/WebAssembly/wasm-aot-prototype/wast/internal/token"
)

// Parse parses a test script: modules, each followed by the commands that
// exercise it.
func Parse(source string) (*ast.Script, error) {
	tokens, err := token.Tokenize(source)
	if err != nil {
		return nil, err
	}
	return newParser(tokens).parseScript()
}

// ParseModule parses source holding exactly one module and no commands.
func ParseModule(source string) (*ast.Module, error) {
	script, err := Parse(source)
	if err != nil {
		return nil, err
	}
	if len(script.Entries) != 1 || len(script.Entries[0].Commands) != 0 {
		return nil, errors.Validation(errors.PhaseParse, 1, "expected a single module without commands")
	}
	return script.Entries[0].Module, nil
}
