package wast

import (
	"github.com/WebAssembly/wasm-aot-prototype/ast"
	"github.com/WebAssembly/wasm-aot-prototype/errors"
	"github.com/WebAssembly/wasm-aot-prototype/wast/internal/token"
)

// parseExprs parses folded expressions up to, but not including, the
// closing paren of the enclosing form.
func (p *parser) parseExprs() ([]ast.Expression, error) {
	var out []ast.Expression
	for {
		t := p.peek()
		if t == nil {
			return nil, p.errorf("unexpected end of input")
		}
		if t.Type == token.RParen {
			return out, nil
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
}

func (p *parser) parseExpr() (ast.Expression, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	op, err := p.expect(token.Keyword)
	if err != nil {
		return nil, err
	}

	var e ast.Expression
	switch op.Value {
	case "nop":
		e = &ast.Nop{}
	case "block":
		if t := p.peek(); t != nil && t.Type == token.Name {
			p.next() // labels are not referenced by any supported instruction
		}
		exprs, err := p.parseExprs()
		if err != nil {
			return nil, err
		}
		e = &ast.Block{Exprs: exprs}
	case "call", "call_import":
		e, err = p.parseCall(op)
		if err != nil {
			return nil, err
		}
	case "return":
		vals, err := p.parseExprs()
		if err != nil {
			return nil, err
		}
		if len(vals) > 1 {
			return nil, errors.Validation(errors.PhaseParse, op.Line, "return takes at most one value, got %d", len(vals))
		}
		e = &ast.Return{Values: vals}
	case "i32.const", "i64.const", "f32.const", "f64.const":
		lit, err := p.parseConst(op)
		if err != nil {
			return nil, err
		}
		e = &ast.Const{Literal: lit}
	default:
		return nil, errors.New(errors.PhaseParse, errors.KindUnsupported).
			Line(op.Line).
			Detail("instruction %q", op.Value).
			Build()
	}

	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *parser) parseCall(op *token.Token) (ast.Expression, error) {
	ref := p.next()
	if ref == nil || (ref.Type != token.Name && ref.Type != token.Number) {
		return nil, errors.Validation(errors.PhaseParse, op.Line, "%s needs a callee", op.Value)
	}

	call := &ast.Call{IsImport: op.Value == "call_import"}
	if call.IsImport {
		imp, err := p.resolveImport(*ref)
		if err != nil {
			return nil, err
		}
		call.Callee = imp
	} else {
		fn, err := p.resolveFunc(*ref)
		if err != nil {
			return nil, err
		}
		call.Callee = fn
	}

	args, err := p.parseExprs()
	if err != nil {
		return nil, err
	}
	if want := len(call.Callee.Signature().Args); len(args) != want {
		return nil, errors.Validation(errors.PhaseParse, op.Line, "%s %s expects %d arguments, got %d", op.Value, ref.Value, want, len(args))
	}
	call.Args = args
	return call, nil
}

func (p *parser) parseConst(op *token.Token) (ast.Literal, error) {
	var vt ast.ValueType
	switch op.Value {
	case "i32.const":
		vt = ast.I32
	case "i64.const":
		vt = ast.I64
	case "f32.const":
		vt = ast.F32
	case "f64.const":
		vt = ast.F64
	}
	t := p.next()
	if t == nil || (t.Type != token.Number && t.Type != token.Keyword) {
		return ast.Literal{}, errors.Validation(errors.PhaseParse, op.Line, "%s needs a value", op.Value)
	}
	lit, err := ParseLiteral(vt, t.Value)
	if err != nil {
		return ast.Literal{}, errors.Validation(errors.PhaseParse, t.Line, "%s %s: %v", op.Value, t.Value, err)
	}
	return lit, nil
}
