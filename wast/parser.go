package wast

import (
	"github.com/WebAssembly/wasm-aot-prototype/ast"
	"github.com/WebAssembly/wasm-aot-prototype/errors"
	"github.com/WebAssembly/wasm-aot-prototype/wast/internal/token"
)

type parser struct {
	tokens []token.Token
	pos    int

	// modules parsed so far, for default naming
	modules int

	// per-module state
	mod       *ast.Module
	funcMap   map[string]*ast.Function
	importMap map[string]*ast.Import
}

func newParser(tokens []token.Token) *parser {
	return &parser{tokens: tokens}
}

func (p *parser) peek() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos]
}

// peekKeyword reports the keyword following an opening paren, or "".
func (p *parser) peekKeyword() string {
	if p.pos+1 >= len(p.tokens) {
		return ""
	}
	open, kw := p.tokens[p.pos], p.tokens[p.pos+1]
	if open.Type != token.LParen || kw.Type != token.Keyword {
		return ""
	}
	return kw.Value
}

func (p *parser) next() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	t := &p.tokens[p.pos]
	p.pos++
	return t
}

// line returns the line of the next token, or of the last one at end of
// input.
func (p *parser) line() int {
	if t := p.peek(); t != nil {
		return t.Line
	}
	if len(p.tokens) > 0 {
		return p.tokens[len(p.tokens)-1].Line
	}
	return 1
}

func (p *parser) errorf(detail string, args ...any) *errors.Error {
	return errors.Validation(errors.PhaseParse, p.line(), detail, args...)
}

func (p *parser) expect(typ token.Type) (*token.Token, error) {
	t := p.peek()
	if t == nil {
		return nil, p.errorf("unexpected end of input, expected %v", typ)
	}
	if t.Type != typ {
		return nil, p.errorf("expected %v, got %q", typ, t.Value)
	}
	return p.next(), nil
}

func (p *parser) expectKeyword(kw string) error {
	t, err := p.expect(token.Keyword)
	if err != nil {
		return err
	}
	if t.Value != kw {
		return errors.Validation(errors.PhaseParse, t.Line, "expected %q, got %q", kw, t.Value)
	}
	return nil
}

// skipForm skips a parenthesized form starting at the current '('.
func (p *parser) skipForm() error {
	if _, err := p.expect(token.LParen); err != nil {
		return err
	}
	for depth := 1; depth > 0; {
		t := p.next()
		if t == nil {
			return p.errorf("unbalanced parentheses")
		}
		switch t.Type {
		case token.LParen:
			depth++
		case token.RParen:
			depth--
		}
	}
	return nil
}

func (p *parser) parseScript() (*ast.Script, error) {
	script := &ast.Script{}
	var current *ast.ScriptEntry
	for p.peek() != nil {
		switch kw := p.peekKeyword(); kw {
		case "module":
			mod, err := p.parseModule()
			if err != nil {
				return nil, err
			}
			current = &ast.ScriptEntry{Module: mod}
			script.Entries = append(script.Entries, current)
		case "invoke", "assert_eq", "assert_return":
			if current == nil {
				return nil, p.errorf("%s before any module", kw)
			}
			cmd, err := p.parseCommand()
			if err != nil {
				return nil, err
			}
			current.Commands = append(current.Commands, cmd)
		case "":
			return nil, p.errorf("expected a top-level form, got %q", p.peek().Value)
		default:
			return nil, p.errorf("unsupported top-level form %q", kw)
		}
	}
	return script, nil
}

func (p *parser) parseValueType() (ast.ValueType, error) {
	t, err := p.expect(token.Keyword)
	if err != nil {
		return 0, err
	}
	switch t.Value {
	case "i32":
		return ast.I32, nil
	case "i64":
		return ast.I64, nil
	case "f32":
		return ast.F32, nil
	case "f64":
		return ast.F64, nil
	}
	return 0, errors.Validation(errors.PhaseParse, t.Line, "unknown value type %q", t.Value)
}
