package translate

import (
	"strconv"

	"go.uber.org/zap"

	"github.com/WebAssembly/wasm-aot-prototype/ast"
	"github.com/WebAssembly/wasm-aot-prototype/errors"
	"github.com/WebAssembly/wasm-aot-prototype/ir"
)

// SymbolTable maps callable nodes to their compiled functions.
//
// Keys are node identities: two imports with identical module, name and
// signature are separate entries.
type SymbolTable struct {
	funcs map[*ast.Signature]*ir.Function
}

// NewSymbolTable creates an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{funcs: make(map[*ast.Signature]*ir.Function)}
}

// Declare creates the IR function for c in m and records it.
//
// Declaring the same callable twice creates a second function and the
// table then refers to the newer one.
func (s *SymbolTable) Declare(m *ir.Module, c ast.Callable, name string, linkage ir.Linkage) *ir.Function {
	key := identity(c)
	f := m.NewFunction(name, signature(key), linkage)
	for i, arg := range key.Args {
		if arg.Name != "" {
			f.Param(i).SetName(arg.Name)
		}
	}
	if _, exists := s.funcs[key]; exists {
		Logger().Debug("callable redeclared", zap.String("function", f.Name()))
	}
	s.funcs[key] = f
	return f
}

// Lookup returns the compiled function for c. A callable that was never
// declared aborts translation.
func (s *SymbolTable) Lookup(c ast.Callable) *ir.Function {
	f, ok := s.funcs[identity(c)]
	if !ok {
		errors.Fatal(errors.New(errors.PhaseTranslate, errors.KindInternal).
			Value(c).
			Detail("call to unregistered callee %s", describe(c)).
			Build())
	}
	return f
}

// Get returns the compiled function for c, if any.
func (s *SymbolTable) Get(c ast.Callable) (*ir.Function, bool) {
	if c == nil {
		return nil, false
	}
	f, ok := s.funcs[c.Signature()]
	return f, ok
}

// Len returns the number of registered callables.
func (s *SymbolTable) Len() int { return len(s.funcs) }

func identity(c ast.Callable) *ast.Signature {
	if c == nil {
		errors.Fatalf(errors.PhaseTranslate, "nil callable")
	}
	return c.Signature()
}

func describe(c ast.Callable) string {
	switch c := c.(type) {
	case *ast.Function:
		if c.Name != "" {
			return c.Name
		}
		return "function #" + strconv.Itoa(c.Index)
	case *ast.Import:
		return Mangle(c.ModuleName, c.FuncName)
	}
	return "<unknown>"
}
