//go:build llvm

package llvmgen

import (
	"go.uber.org/zap"
	"tinygo.org/x/go-llvm"

	"github.com/WebAssembly/wasm-aot-prototype/errors"
	"github.com/WebAssembly/wasm-aot-prototype/ir"
)

// Available reports whether the LLVM backend is compiled in.
const Available = true

type generator struct {
	ctx     llvm.Context
	mod     llvm.Module
	builder llvm.Builder
	funcs   map[*ir.Function]llvm.Value
	types   map[*ir.Function]llvm.Type
}

// Generate lowers m to LLVM IR.
func Generate(m *ir.Module) ([]byte, error) {
	return GenerateWithConfig(m, nil)
}

// GenerateWithConfig is Generate with custom configuration. The module is
// verified with ir.Verify before lowering and with the LLVM verifier after.
func GenerateWithConfig(m *ir.Module, cfg *Config) (out []byte, err error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if err := ir.Verify(m); err != nil {
		return nil, err
	}
	defer errors.Recover(&err)

	ctx := llvm.NewContext()
	defer ctx.Dispose()
	g := &generator{
		ctx:     ctx,
		mod:     ctx.NewModule(m.Name),
		builder: ctx.NewBuilder(),
		funcs:   make(map[*ir.Function]llvm.Value),
		types:   make(map[*ir.Function]llvm.Type),
	}
	defer g.mod.Dispose()
	defer g.builder.Dispose()

	for _, f := range m.Functions {
		g.declare(f)
	}
	for _, a := range m.Aliases {
		aliasee := g.funcs[a.Aliasee]
		alias := llvm.AddAlias(g.mod, g.types[a.Aliasee], 0, aliasee, a.Name())
		alias.SetLinkage(linkage(a.Linkage))
	}
	for _, f := range m.Functions {
		if !f.IsDeclaration() {
			g.define(f)
		}
	}

	if err := llvm.VerifyModule(g.mod, llvm.ReturnStatusAction); err != nil {
		return nil, errors.Wrap(errors.PhaseVerify, errors.KindValidation, err, "LLVM verifier rejected module")
	}

	if cfg.Bitcode {
		buf := llvm.WriteBitcodeToMemoryBuffer(g.mod)
		defer buf.Dispose()
		out = append([]byte(nil), buf.Bytes()...)
	} else {
		out = []byte(g.mod.String())
	}
	Logger().Debug("generated LLVM module",
		zap.String("module", m.Name),
		zap.Bool("bitcode", cfg.Bitcode),
		zap.Int("bytes", len(out)))
	return out, nil
}

func linkage(l ir.Linkage) llvm.Linkage {
	if l == ir.InternalLinkage {
		return llvm.InternalLinkage
	}
	return llvm.ExternalLinkage
}

func (g *generator) typ(t ir.Type) llvm.Type {
	switch t := t.(type) {
	case *ir.VoidType:
		return g.ctx.VoidType()
	case *ir.IntType:
		return g.ctx.IntType(t.Bits)
	case *ir.FloatType:
		if t.Bits == 32 {
			return g.ctx.FloatType()
		}
		return g.ctx.DoubleType()
	case *ir.PointerType:
		return llvm.PointerType(g.ctx.Int8Type(), 0)
	case *ir.FuncType:
		return g.funcType(t)
	}
	errors.Fatalf(errors.PhaseEmit, "no LLVM type for %s", t)
	return llvm.Type{}
}

func (g *generator) funcType(sig *ir.FuncType) llvm.Type {
	params := make([]llvm.Type, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = g.typ(p)
	}
	return llvm.FunctionType(g.typ(sig.Result), params, false)
}

func (g *generator) declare(f *ir.Function) {
	ft := g.funcType(f.Sig)
	fn := llvm.AddFunction(g.mod, f.Name(), ft)
	fn.SetLinkage(linkage(f.Linkage))
	for i, p := range f.Params {
		if p.Name() != "" {
			fn.Param(i).SetName(p.Name())
		}
	}
	g.funcs[f] = fn
	g.types[f] = ft
}

func (g *generator) define(f *ir.Function) {
	fn := g.funcs[f]
	values := make(map[ir.Value]llvm.Value)
	for i, p := range f.Params {
		values[p] = fn.Param(i)
	}

	blocks := make(map[*ir.Block]llvm.BasicBlock)
	for _, b := range f.Blocks {
		blocks[b] = g.ctx.AddBasicBlock(fn, b.Name)
	}
	for _, b := range f.Blocks {
		g.builder.SetInsertPointAtEnd(blocks[b])
		for _, in := range b.Instrs {
			if v, ok := g.instruction(in, values); ok {
				values[in] = v
			}
		}
	}
}

func (g *generator) instruction(in ir.Instruction, values map[ir.Value]llvm.Value) (llvm.Value, bool) {
	operand := func(v ir.Value) llvm.Value { return g.value(v, values) }

	switch in := in.(type) {
	case *ir.Alloca:
		return g.builder.CreateAlloca(g.typ(in.Allocated), in.Name()), true
	case *ir.Call:
		args := make([]llvm.Value, len(in.Args))
		for i, a := range in.Args {
			args[i] = operand(a)
		}
		name := in.Name()
		if ir.IsVoid(in.Type()) {
			name = ""
		}
		return g.builder.CreateCall(g.types[in.Callee], g.funcs[in.Callee], args, name), true
	case *ir.ICmp:
		pred := llvm.IntEQ
		if in.Pred == ir.IntNE {
			pred = llvm.IntNE
		}
		return g.builder.CreateICmp(pred, operand(in.X), operand(in.Y), in.Name()), true
	case *ir.FCmp:
		pred := llvm.FloatOEQ
		if in.Pred == ir.FloatUNE {
			pred = llvm.FloatUNE
		}
		return g.builder.CreateFCmp(pred, operand(in.X), operand(in.Y), in.Name()), true
	case *ir.Ret:
		if in.Val == nil {
			g.builder.CreateRetVoid()
		} else {
			g.builder.CreateRet(operand(in.Val))
		}
		return llvm.Value{}, false
	}
	errors.Fatalf(errors.PhaseEmit, "no LLVM lowering for %T", in)
	return llvm.Value{}, false
}

func (g *generator) value(v ir.Value, values map[ir.Value]llvm.Value) llvm.Value {
	switch v := v.(type) {
	case *ir.ConstInt:
		return llvm.ConstInt(g.typ(v.Typ), v.Bits, false)
	case *ir.ConstFloat:
		// through the integer pattern so NaN payloads are kept
		bits := llvm.ConstInt(g.ctx.IntType(v.Typ.Bits), v.Bits, false)
		return llvm.ConstBitCast(bits, g.typ(v.Typ))
	case *ir.Undef:
		return llvm.Undef(g.typ(v.Typ))
	case *ir.Function:
		return g.funcs[v]
	}
	lv, ok := values[v]
	if !ok {
		errors.Fatalf(errors.PhaseEmit, "operand %q used before definition", v.Name())
	}
	return lv
}
