package wasmgen

import (
	"fmt"

	"github.com/WebAssembly/wasm-aot-prototype/errors"
	"github.com/WebAssembly/wasm-aot-prototype/ir"
	"github.com/WebAssembly/wasm-aot-prototype/wasmgen/internal/binary"
)

type body struct {
	g      *generator
	f      *ir.Function
	w      *binary.Writer
	locals map[ir.Value]uint32
	types  []ValType // declared locals after the parameters
}

// lowerFunction encodes one function body: local declarations followed by
// the instruction stream. Every value-producing instruction stores its
// result in a dedicated local; allocas reserve a zero-initialized local of
// the allocated type.
func (g *generator) lowerFunction(f *ir.Function) ([]byte, error) {
	bd := &body{g: g, f: f, w: binary.NewWriter(), locals: make(map[ir.Value]uint32)}
	if len(f.Blocks) != 1 {
		return nil, bd.fail("functions with %d blocks are not supported", len(f.Blocks))
	}
	for i, p := range f.Params {
		bd.locals[p] = uint32(i)
	}
	if err := bd.allocate(); err != nil {
		return nil, err
	}

	out := binary.NewWriter()
	writeLocals(out, bd.types)
	for _, in := range f.EntryBlock().Instrs {
		if err := bd.instruction(in); err != nil {
			return nil, err
		}
	}
	bd.w.Byte(OpEnd)
	out.WriteBytes(bd.w.Bytes())
	return out.Bytes(), nil
}

func (bd *body) fail(detail string, args ...any) *errors.Error {
	return errors.New(errors.PhaseEmit, errors.KindUnsupported).
		Path(bd.f.Name()).
		Detail(detail, args...).
		Build()
}

func (bd *body) allocate() error {
	next := uint32(len(bd.f.Params))
	for _, in := range bd.f.Instructions() {
		t := in.Type()
		if a, ok := in.(*ir.Alloca); ok {
			t = a.Allocated
		}
		if ir.IsVoid(t) {
			continue
		}
		vt, ok := valType(t)
		if !ok {
			return bd.fail("instruction result of type %s", t)
		}
		bd.types = append(bd.types, vt)
		if _, isAlloca := in.(*ir.Alloca); !isAlloca {
			bd.locals[in] = next
		}
		next++
	}
	return nil
}

// writeLocals run-length encodes local declarations.
func writeLocals(w *binary.Writer, types []ValType) {
	type group struct {
		n uint32
		t ValType
	}
	var groups []group
	for _, t := range types {
		if n := len(groups); n > 0 && groups[n-1].t == t {
			groups[n-1].n++
			continue
		}
		groups = append(groups, group{1, t})
	}
	w.WriteU32(uint32(len(groups)))
	for _, g := range groups {
		w.WriteU32(g.n)
		w.Byte(byte(g.t))
	}
}

func (bd *body) instruction(in ir.Instruction) error {
	switch in := in.(type) {
	case *ir.Alloca:
		return nil
	case *ir.Call:
		for _, a := range in.Args {
			if err := bd.push(a); err != nil {
				return err
			}
		}
		bd.w.Byte(OpCall)
		bd.w.WriteU32(bd.g.funcIdx[in.Callee])
		bd.store(in)
	case *ir.ICmp:
		if err := bd.pushPair(in.X, in.Y); err != nil {
			return err
		}
		op, err := bd.intCompare(in)
		if err != nil {
			return err
		}
		bd.w.Byte(op)
		bd.store(in)
	case *ir.FCmp:
		if err := bd.pushPair(in.X, in.Y); err != nil {
			return err
		}
		op, err := bd.floatCompare(in)
		if err != nil {
			return err
		}
		bd.w.Byte(op)
		bd.store(in)
	case *ir.Ret:
		if in.Val != nil && !ir.IsVoid(in.Val.Type()) {
			if err := bd.push(in.Val); err != nil {
				return err
			}
		}
		bd.w.Byte(OpReturn)
	default:
		return bd.fail("instruction %T", in)
	}
	return nil
}

func (bd *body) store(in ir.Instruction) {
	if idx, ok := bd.locals[in]; ok {
		bd.w.Byte(OpLocalSet)
		bd.w.WriteU32(idx)
	}
}

func (bd *body) pushPair(x, y ir.Value) error {
	if err := bd.push(x); err != nil {
		return err
	}
	return bd.push(y)
}

func (bd *body) push(v ir.Value) error {
	switch v := v.(type) {
	case *ir.ConstInt:
		if v.Typ.Bits == 64 {
			bd.w.Byte(OpI64Const)
			bd.w.WriteS64(int64(v.Bits))
		} else {
			bd.w.Byte(OpI32Const)
			bd.w.WriteS32(int32(uint32(v.Bits)))
		}
	case *ir.ConstFloat:
		if v.Typ.Bits == 32 {
			bd.w.Byte(OpF32Const)
			bd.w.WriteU32LE(uint32(v.Bits))
		} else {
			bd.w.Byte(OpF64Const)
			bd.w.WriteU64LE(v.Bits)
		}
	case *ir.Undef:
		return bd.zero(v.Typ)
	default:
		idx, ok := bd.locals[v]
		if !ok {
			return bd.fail("operand %s has no wasm value", describe(v))
		}
		bd.w.Byte(OpLocalGet)
		bd.w.WriteU32(idx)
	}
	return nil
}

// zero pushes the zero value of t, standing in for undef.
func (bd *body) zero(t ir.Type) error {
	vt, ok := valType(t)
	if !ok {
		return bd.fail("undef of type %s", t)
	}
	switch vt {
	case ValI32:
		bd.w.Byte(OpI32Const)
		bd.w.WriteS32(0)
	case ValI64:
		bd.w.Byte(OpI64Const)
		bd.w.WriteS64(0)
	case ValF32:
		bd.w.Byte(OpF32Const)
		bd.w.WriteU32LE(0)
	case ValF64:
		bd.w.Byte(OpF64Const)
		bd.w.WriteU64LE(0)
	}
	return nil
}

func (bd *body) intCompare(c *ir.ICmp) (byte, error) {
	vt, _ := valType(c.X.Type())
	switch {
	case c.Pred == ir.IntEQ && vt == ValI32:
		return OpI32Eq, nil
	case c.Pred == ir.IntNE && vt == ValI32:
		return OpI32Ne, nil
	case c.Pred == ir.IntEQ && vt == ValI64:
		return OpI64Eq, nil
	case c.Pred == ir.IntNE && vt == ValI64:
		return OpI64Ne, nil
	}
	return 0, bd.fail("icmp %s on %s", c.Pred, c.X.Type())
}

func (bd *body) floatCompare(c *ir.FCmp) (byte, error) {
	vt, _ := valType(c.X.Type())
	switch {
	case c.Pred == ir.FloatOEQ && vt == ValF32:
		return OpF32Eq, nil
	case c.Pred == ir.FloatUNE && vt == ValF32:
		return OpF32Ne, nil
	case c.Pred == ir.FloatOEQ && vt == ValF64:
		return OpF64Eq, nil
	case c.Pred == ir.FloatUNE && vt == ValF64:
		return OpF64Ne, nil
	}
	return 0, bd.fail("fcmp %s on %s", c.Pred, c.X.Type())
}

func describe(v ir.Value) string {
	if v.Name() != "" {
		return "%" + v.Name()
	}
	return fmt.Sprintf("%T", v)
}
