package wast

import (
	"github.com/WebAssembly/wasm-aot-prototype/ast"
	"github.com/WebAssembly/wasm-aot-prototype/errors"
	"github.com/WebAssembly/wasm-aot-prototype/wast/internal/token"
)

// parseCommand parses invoke and assert_eq (or its assert_return
// spelling) against the most recently parsed module.
func (p *parser) parseCommand() (ast.Command, error) {
	switch kw := p.peekKeyword(); kw {
	case "invoke":
		return p.parseInvoke()
	case "assert_eq", "assert_return":
		line := p.line()
		p.pos += 2
		if p.peekKeyword() != "invoke" {
			return nil, errors.Validation(errors.PhaseParse, line, "%s needs an invoke", kw)
		}
		inv, err := p.parseInvoke()
		if err != nil {
			return nil, err
		}
		rest, err := p.parseExprs()
		if err != nil {
			return nil, err
		}
		p.next()
		if len(rest) != 1 {
			return nil, errors.Validation(errors.PhaseParse, line, "%s needs exactly one expected value, got %d", kw, len(rest))
		}
		return &ast.AssertEq{Invoke: inv, Expected: rest[0], Line: line}, nil
	}
	return nil, p.errorf("expected a command")
}

func (p *parser) parseInvoke() (*ast.Invoke, error) {
	line := p.line()
	p.pos += 2
	name, err := p.expect(token.String)
	if err != nil {
		return nil, err
	}
	exp := p.mod.Export(name.Value)
	if exp == nil {
		return nil, errors.Validation(errors.PhaseParse, name.Line, "unknown export %q in module %s", name.Value, p.mod.Name)
	}
	args, err := p.parseExprs()
	if err != nil {
		return nil, err
	}
	p.next()
	if want := len(exp.Function.Sig.Args); len(args) != want {
		return nil, errors.Validation(errors.PhaseParse, line, "invoke %q expects %d arguments, got %d", name.Value, want, len(args))
	}
	return &ast.Invoke{Callee: exp, Args: args, Line: line}, nil
}
