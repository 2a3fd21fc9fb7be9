package translate

import (
	"github.com/WebAssembly/wasm-aot-prototype/ast"
	"github.com/WebAssembly/wasm-aot-prototype/errors"
	"github.com/WebAssembly/wasm-aot-prototype/ir"
)

// compileExpr emits e at the cursor and returns its value, or nil when the
// expression produces none.
func (t *Translator) compileExpr(cur *Cursor, e ast.Expression) ir.Value {
	switch e := e.(type) {
	case *ast.Nop:
		return nil
	case *ast.Block:
		return t.compileBlock(cur, e)
	case *ast.Call:
		return t.compileCall(cur, e)
	case *ast.Return:
		return t.compileReturn(cur, e)
	case *ast.Const:
		return compileConst(e.Literal)
	}
	errors.Fatalf(errors.PhaseTranslate, "unexpected expression %T", e)
	return nil
}

// compileBlock sequences children on the current block. No new block or
// scope is opened.
func (t *Translator) compileBlock(cur *Cursor, blk *ast.Block) ir.Value {
	var last ir.Value
	for _, e := range blk.Exprs {
		last = t.compileExpr(cur, e)
	}
	return last
}

func (t *Translator) compileCall(cur *Cursor, call *ast.Call) ir.Value {
	if cur.Block == nil {
		errors.Fatalf(errors.PhaseTranslate, "call compiled outside of a function")
	}
	bb := cur.Block
	args := make([]ir.Value, 0, len(call.Args))
	for _, a := range call.Args {
		args = append(args, t.compileExpr(cur, a))
	}
	// argument evaluation may have moved the cursor
	cur.Block = bb
	callee := t.symbols.Lookup(call.Callee)
	return ir.NewBuilder(bb).CreateCall(callee, args)
}

func (t *Translator) compileReturn(cur *Cursor, ret *ast.Return) ir.Value {
	switch len(ret.Values) {
	case 0:
		return ir.NewBuilder(cur.Block).CreateRetVoid()
	case 1:
		v := t.compileExpr(cur, ret.Values[0])
		return ir.NewBuilder(cur.Block).CreateRet(v)
	}
	errors.Fatalf(errors.PhaseTranslate, "return with %d values", len(ret.Values))
	return nil
}

// compileConst keeps the literal's bit pattern exactly.
func compileConst(l ast.Literal) ir.Value {
	switch l.Type {
	case ast.Void:
		return ir.NewUndef(ir.Void)
	case ast.I32, ast.I64:
		return ir.NewConstInt(MapType(l.Type).(*ir.IntType), l.Bits)
	case ast.F32, ast.F64:
		return ir.NewConstFloat(MapType(l.Type).(*ir.FloatType), l.Bits)
	}
	errors.Fatalf(errors.PhaseTranslate, "unexpected literal type %s", l.Type)
	return nil
}
