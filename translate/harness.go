package translate

import (
	"go.uber.org/zap"

	"github.com/WebAssembly/wasm-aot-prototype/ast"
	"github.com/WebAssembly/wasm-aot-prototype/errors"
	"github.com/WebAssembly/wasm-aot-prototype/ir"
)

// Harness pairs a script command with the wrapper synthesized for it.
type Harness struct {
	Command ast.Command
	Func    *ir.Function
}

// Invoke synthesizes a zero-argument, externally visible function that
// calls the exported function with inv's arguments and returns its result.
// It returns the wrapper, not the result of calling it.
func (t *Translator) Invoke(inv *ast.Invoke) *ir.Function {
	return t.invoke(&t.cursor, inv)
}

func (t *Translator) invoke(cur *Cursor, inv *ast.Invoke) *ir.Function {
	if inv == nil || inv.Callee == nil || inv.Callee.Function == nil {
		errors.Fatalf(errors.PhaseTranslate, "invoke without an exported callee")
	}
	callee := inv.Callee.Function
	f := t.module.NewFunction(t.cfg.InvokeName, ir.NewFuncType(MapType(callee.Sig.Result)), ir.ExternalLinkage)
	entry := f.AppendBlock("entry")

	saved := *cur
	cur.Func = f
	cur.Block = entry
	result := t.compileCall(cur, &ast.Call{Callee: callee, Args: inv.Args})

	b := ir.NewBuilder(entry)
	if callee.Sig.Result == ast.Void {
		b.CreateRetVoid()
	} else {
		b.CreateRet(result)
	}
	*cur = saved

	Logger().Debug("synthesized invoke",
		zap.String("wrapper", f.Name()),
		zap.String("export", inv.Callee.Name))
	return f
}

// AssertEq synthesizes a zero-argument void function that runs the invoke
// wrapper for a.Invoke, compiles the expected literal and compares the two.
// Integer results use icmp eq and f32 results fcmp oeq; other result types
// abort translation.
//
// The comparison result is not used: no branch or trap is emitted, and the
// wrapper returns normally whatever the outcome.
func (t *Translator) AssertEq(a *ast.AssertEq) *ir.Function {
	cur := &t.cursor
	f := t.module.NewFunction(t.cfg.AssertEqName, ir.NewFuncType(ir.Void), ir.ExternalLinkage)
	entry := f.AppendBlock("entry")

	saved := *cur
	cur.Func = f
	cur.Block = entry

	invoke := t.invoke(cur, a.Invoke)
	b := ir.NewBuilder(entry)
	result := b.CreateCall(invoke, nil)
	expected := t.compileExpr(cur, a.Expected)
	if expected == nil {
		errors.Fatalf(errors.PhaseTranslate, "assert_eq expected expression has no value")
	}

	b.SetInsertPoint(cur.Block)
	rt := result.Type()
	if !ir.Equal(rt, expected.Type()) {
		errors.Fatal(errors.TypeMismatch(errors.PhaseTranslate,
			[]string{"assert_eq", a.Invoke.Callee.Name}, expected.Type().String(), rt.String()))
	}
	switch {
	case ir.IsInteger(rt):
		b.CreateICmpEQ(result, expected)
	case ir.Equal(rt, ir.Float):
		b.CreateFCmpOEQ(result, expected)
	default:
		errors.Fatalf(errors.PhaseTranslate, "assert_eq on unsupported result type %s", rt)
	}
	b.CreateRetVoid()
	*cur = saved

	Logger().Debug("synthesized assert_eq",
		zap.String("wrapper", f.Name()),
		zap.String("invoke", invoke.Name()))
	return f
}

// Command synthesizes the wrapper for one script command.
func (t *Translator) Command(c ast.Command) *ir.Function {
	switch c := c.(type) {
	case *ast.Invoke:
		return t.Invoke(c)
	case *ast.AssertEq:
		return t.AssertEq(c)
	}
	errors.Fatalf(errors.PhaseTranslate, "unexpected command %T", c)
	return nil
}

// Script translates entry's module and synthesizes a wrapper for each of
// its commands, in order.
func Script(entry *ast.ScriptEntry) (*ir.Module, []Harness) {
	return ScriptWithConfig(entry, nil)
}

// ScriptWithConfig is Script with custom configuration.
func ScriptWithConfig(entry *ast.ScriptEntry, cfg *Config) (*ir.Module, []Harness) {
	t := NewWithConfig(ir.NewModule(entry.Module.Name), cfg)
	t.TranslateModule(entry.Module)
	harness := make([]Harness, 0, len(entry.Commands))
	for _, c := range entry.Commands {
		harness = append(harness, Harness{Command: c, Func: t.Command(c)})
	}
	return t.module, harness
}
