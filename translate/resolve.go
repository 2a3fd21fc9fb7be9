package translate

import (
	"go.uber.org/zap"

	"github.com/WebAssembly/wasm-aot-prototype/ast"
	"github.com/WebAssembly/wasm-aot-prototype/errors"
	"github.com/WebAssembly/wasm-aot-prototype/ir"
)

// Mangle returns the link-time symbol ".<module>.<name>".
func Mangle(module, name string) string {
	return "." + module + "." + name
}

func (t *Translator) visitImport(imp *ast.Import) *ir.Function {
	f := t.symbols.Declare(t.module, imp, imp.Name, ir.ExternalLinkage)
	f.SetName(Mangle(imp.ModuleName, imp.FuncName))
	f.Import = &ir.Import{Module: imp.ModuleName, Field: imp.FuncName}
	Logger().Debug("declare import", zap.String("symbol", f.Name()))
	return f
}

func (t *Translator) visitExport(exp *ast.Export) *ir.Alias {
	if exp.Module == nil || exp.Function == nil {
		errors.Fatalf(errors.PhaseTranslate, "export %q is detached from its module or function", exp.Name)
	}
	target := t.symbols.Lookup(exp.Function)
	a := t.module.NewAlias(Mangle(exp.Module.Name, exp.Name), ir.ExternalLinkage, target)
	Logger().Debug("export alias",
		zap.String("alias", a.Name()),
		zap.String("function", target.Name()))
	return a
}
