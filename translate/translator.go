package translate

import (
	"go.uber.org/zap"

	"github.com/WebAssembly/wasm-aot-prototype/ast"
	"github.com/WebAssembly/wasm-aot-prototype/errors"
	"github.com/WebAssembly/wasm-aot-prototype/ir"
)

// Config holds configuration for a Translator
type Config struct {
	// InvokeName is the base symbol of invoke wrappers. Default "Invoke".
	InvokeName string

	// AssertEqName is the base symbol of assert_eq wrappers. Default "AssertEq".
	AssertEqName string
}

func (c *Config) withDefaults() Config {
	out := Config{InvokeName: "Invoke", AssertEqName: "AssertEq"}
	if c == nil {
		return out
	}
	if c.InvokeName != "" {
		out.InvokeName = c.InvokeName
	}
	if c.AssertEqName != "" {
		out.AssertEqName = c.AssertEqName
	}
	return out
}

// Cursor is the insertion point shared by every compile step: the function
// being built and the block new instructions go to.
type Cursor struct {
	Func  *ir.Function
	Block *ir.Block
}

// Translator lowers one module into an IR module.
type Translator struct {
	module  *ir.Module
	symbols *SymbolTable
	cursor  Cursor
	cfg     Config
}

// New creates a translator that fills m.
func New(m *ir.Module) *Translator {
	return NewWithConfig(m, nil)
}

// NewWithConfig creates a translator with custom configuration.
func NewWithConfig(m *ir.Module, cfg *Config) *Translator {
	if m == nil {
		errors.Fatalf(errors.PhaseTranslate, "translator needs a target module")
	}
	return &Translator{
		module:  m,
		symbols: NewSymbolTable(),
		cfg:     cfg.withDefaults(),
	}
}

// Module translates mod into a new IR module named after it.
func Module(mod *ast.Module) *ir.Module {
	return New(ir.NewModule(mod.Name)).TranslateModule(mod)
}

// Target returns the module being filled.
func (t *Translator) Target() *ir.Module { return t.module }

// Symbols returns the translator's symbol table.
func (t *Translator) Symbols() *SymbolTable { return t.symbols }

// Cursor returns the current insertion point.
func (t *Translator) Cursor() Cursor { return t.cursor }

// TranslateModule visits imports, then functions, then exports, and
// returns the target module.
func (t *Translator) TranslateModule(mod *ast.Module) *ir.Module {
	Logger().Debug("translate module",
		zap.String("module", mod.Name),
		zap.Int("imports", len(mod.Imports)),
		zap.Int("functions", len(mod.Functions)),
		zap.Int("exports", len(mod.Exports)))

	for _, imp := range mod.Imports {
		t.visitImport(imp)
	}
	for _, fn := range mod.Functions {
		t.visitFunction(&t.cursor, fn)
	}
	for _, exp := range mod.Exports {
		t.visitExport(exp)
	}
	return t.module
}
