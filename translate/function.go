package translate

import (
	"go.uber.org/zap"

	"github.com/WebAssembly/wasm-aot-prototype/ast"
	"github.com/WebAssembly/wasm-aot-prototype/errors"
	"github.com/WebAssembly/wasm-aot-prototype/ir"
)

// visitFunction declares fn and compiles its body into a single entry block.
func (t *Translator) visitFunction(cur *Cursor, fn *ast.Function) *ir.Function {
	f := t.symbols.Declare(t.module, fn, fn.Name, ir.InternalLinkage)

	entry := f.AppendBlock("entry")
	b := ir.NewBuilder(entry)
	for _, local := range fn.Locals {
		b.CreateAlloca(MapType(local.Type), local.Name)
	}
	cur.Func = f
	cur.Block = entry

	var last ir.Value
	for _, expr := range fn.Body {
		last = t.compileExpr(cur, expr)
	}

	// implicit return of the last expression
	if cur.Block.Terminator() == nil {
		b.SetInsertPoint(cur.Block)
		if fn.Sig.Result == ast.Void {
			b.CreateRetVoid()
		} else {
			if len(fn.Body) == 0 {
				errors.Fatalf(errors.PhaseTranslate, "function %s returns %s but has an empty body", describe(fn), fn.Sig.Result)
			}
			if last == nil {
				errors.Fatalf(errors.PhaseTranslate, "function %s returns %s but its last expression has no value", describe(fn), fn.Sig.Result)
			}
			b.CreateRet(last)
		}
	}

	Logger().Debug("compiled function",
		zap.String("function", describe(fn)),
		zap.Int("locals", len(fn.Locals)),
		zap.Int("instructions", len(entry.Instrs)))
	return f
}
