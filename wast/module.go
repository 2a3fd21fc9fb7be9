package wast

import (
	"strconv"
	"strings"

	"github.com/WebAssembly/wasm-aot-prototype/ast"
	"github.com/WebAssembly/wasm-aot-prototype/errors"
	"github.com/WebAssembly/wasm-aot-prototype/wast/internal/token"
)

type pendingFunc struct {
	fn        *ast.Function
	bodyStart int
}

type pendingExport struct {
	name string
	fn   *ast.Function // set for inline exports
	ref  token.Token
	line int
}

// parseModule parses one (module ...) form. Function bodies are parsed
// after every header is known, so calls may name functions defined later.
func (p *parser) parseModule() (*ast.Module, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("module"); err != nil {
		return nil, err
	}

	name := "M" + strconv.Itoa(p.modules)
	if t := p.peek(); t != nil && t.Type == token.Name {
		name = strings.TrimPrefix(p.next().Value, "$")
	}
	p.modules++

	p.mod = &ast.Module{Name: name}
	p.funcMap = make(map[string]*ast.Function)
	p.importMap = make(map[string]*ast.Import)

	var funcs []pendingFunc
	var exports []pendingExport
	for {
		t := p.peek()
		if t == nil {
			return nil, p.errorf("unterminated module %s", name)
		}
		if t.Type == token.RParen {
			p.next()
			break
		}
		switch kw := p.peekKeyword(); kw {
		case "import":
			imp, err := p.parseImport()
			if err != nil {
				return nil, err
			}
			p.mod.Imports = append(p.mod.Imports, imp)
		case "func":
			fn, inline, err := p.parseFuncHeader()
			if err != nil {
				return nil, err
			}
			fn.Index = len(p.mod.Functions)
			p.mod.Functions = append(p.mod.Functions, fn)
			funcs = append(funcs, pendingFunc{fn: fn, bodyStart: p.pos})
			exports = append(exports, inline...)
			if err := p.skipBody(); err != nil {
				return nil, err
			}
		case "export":
			exp, err := p.parseExport()
			if err != nil {
				return nil, err
			}
			exports = append(exports, exp)
		default:
			return nil, p.errorf("unsupported module field %q", kw)
		}
	}

	end := p.pos
	for _, pf := range funcs {
		p.pos = pf.bodyStart
		body, err := p.parseExprs()
		if err != nil {
			return nil, err
		}
		p.next() // closing paren of the func form
		pf.fn.Body = body
	}
	p.pos = end

	seen := make(map[string]struct{}, len(exports))
	for _, pe := range exports {
		if _, dup := seen[pe.name]; dup {
			return nil, errors.Validation(errors.PhaseParse, pe.line, "duplicate export %q", pe.name)
		}
		seen[pe.name] = struct{}{}
		fn := pe.fn
		if fn == nil {
			var err error
			if fn, err = p.resolveFunc(pe.ref); err != nil {
				return nil, err
			}
		}
		p.mod.Exports = append(p.mod.Exports, &ast.Export{Module: p.mod, Function: fn, Name: pe.name})
	}

	return p.mod, nil
}

// skipBody moves past the remaining expressions and the closing paren of
// a func form.
func (p *parser) skipBody() error {
	for {
		t := p.peek()
		if t == nil {
			return p.errorf("unterminated func")
		}
		if t.Type == token.RParen {
			p.next()
			return nil
		}
		if t.Type != token.LParen {
			return p.errorf("unexpected %q in function body", t.Value)
		}
		if err := p.skipForm(); err != nil {
			return err
		}
	}
}

// parseImport parses
//
//	(import $name? "module" "field" (param ...)* (result t)?)
//	(import "module" "field" (func $name? (param ...)* (result t)?))
func (p *parser) parseImport() (*ast.Import, error) {
	open, _ := p.expect(token.LParen)
	p.next()

	imp := &ast.Import{}
	if t := p.peek(); t != nil && t.Type == token.Name {
		imp.Name = p.next().Value
	}
	mod, err := p.expect(token.String)
	if err != nil {
		return nil, err
	}
	field, err := p.expect(token.String)
	if err != nil {
		return nil, err
	}
	imp.ModuleName, imp.FuncName = mod.Value, field.Value

	nested := p.peekKeyword() == "func"
	if nested {
		p.pos += 2
		if t := p.peek(); t != nil && t.Type == token.Name {
			imp.Name = p.next().Value
		}
	}
	if err := p.parseSignature(&imp.Sig, nil); err != nil {
		return nil, err
	}
	if nested {
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.RParen); err != nil {
		return nil, err
	}

	if imp.Name != "" {
		if _, dup := p.importMap[imp.Name]; dup {
			return nil, errors.Validation(errors.PhaseParse, open.Line, "duplicate import %s", imp.Name)
		}
		p.importMap[imp.Name] = imp
		imp.Name = strings.TrimPrefix(imp.Name, "$")
	}
	return imp, nil
}

// parseFuncHeader parses the func form up to its first body expression.
// Inline (export "name") clauses are returned for resolution with the
// module's other exports.
func (p *parser) parseFuncHeader() (*ast.Function, []pendingExport, error) {
	open, _ := p.expect(token.LParen)
	p.next()

	fn := &ast.Function{}
	var key string
	if t := p.peek(); t != nil && t.Type == token.Name {
		key = p.next().Value
		fn.Name = strings.TrimPrefix(key, "$")
	}

	var inline []pendingExport
	for p.peekKeyword() == "export" {
		line := p.line()
		p.pos += 2
		name, err := p.expect(token.String)
		if err != nil {
			return nil, nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, nil, err
		}
		inline = append(inline, pendingExport{name: name.Value, fn: fn, line: line})
	}

	if err := p.parseSignature(&fn.Sig, &fn.Locals); err != nil {
		return nil, nil, err
	}

	if key != "" {
		if _, dup := p.funcMap[key]; dup {
			return nil, nil, errors.Validation(errors.PhaseParse, open.Line, "duplicate function %s", key)
		}
		p.funcMap[key] = fn
	}
	return fn, inline, nil
}

// parseSignature reads param, result and, when locals is non-nil, local
// clauses in that order.
func (p *parser) parseSignature(sig *ast.Signature, locals *[]*ast.Arg) error {
	results := 0
	for {
		kw := p.peekKeyword()
		switch {
		case kw == "param" && results == 0 && (locals == nil || len(*locals) == 0):
			args, err := p.parseSlots()
			if err != nil {
				return err
			}
			sig.Args = append(sig.Args, args...)
		case kw == "result" && (locals == nil || len(*locals) == 0):
			line := p.line()
			p.pos += 2
			for {
				t := p.peek()
				if t == nil || t.Type != token.Keyword {
					break
				}
				vt, err := p.parseValueType()
				if err != nil {
					return err
				}
				sig.Result = vt
				results++
			}
			if results > 1 {
				return errors.Validation(errors.PhaseParse, line, "multiple results are not supported")
			}
			if _, err := p.expect(token.RParen); err != nil {
				return err
			}
		case kw == "local" && locals != nil:
			slots, err := p.parseSlots()
			if err != nil {
				return err
			}
			*locals = append(*locals, slots...)
		default:
			return nil
		}
	}
}

// parseSlots parses (param $a i32) or (param i32 i64), and the same for
// local.
func (p *parser) parseSlots() ([]*ast.Arg, error) {
	p.pos += 2
	if t := p.peek(); t != nil && t.Type == token.Name {
		name := strings.TrimPrefix(p.next().Value, "$")
		vt, err := p.parseValueType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RParen); err != nil {
			return nil, err
		}
		return []*ast.Arg{{Name: name, Type: vt}}, nil
	}
	var out []*ast.Arg
	for {
		t := p.peek()
		if t == nil {
			return nil, p.errorf("unexpected end of input")
		}
		if t.Type == token.RParen {
			p.next()
			return out, nil
		}
		vt, err := p.parseValueType()
		if err != nil {
			return nil, err
		}
		out = append(out, &ast.Arg{Type: vt})
	}
}

// parseExport parses (export "name" $f), (export "name" N) or
// (export "name" (func $f)).
func (p *parser) parseExport() (pendingExport, error) {
	line := p.line()
	p.pos += 2
	name, err := p.expect(token.String)
	if err != nil {
		return pendingExport{}, err
	}
	nested := p.peekKeyword() == "func"
	if nested {
		p.pos += 2
	}
	ref := p.next()
	if ref == nil || (ref.Type != token.Name && ref.Type != token.Number) {
		return pendingExport{}, errors.Validation(errors.PhaseParse, line, "export %q needs a function reference", name.Value)
	}
	if nested {
		if _, err := p.expect(token.RParen); err != nil {
			return pendingExport{}, err
		}
	}
	if _, err := p.expect(token.RParen); err != nil {
		return pendingExport{}, err
	}
	return pendingExport{name: name.Value, ref: *ref, line: line}, nil
}

func (p *parser) resolveFunc(ref token.Token) (*ast.Function, error) {
	if ref.Type == token.Name {
		if fn, ok := p.funcMap[ref.Value]; ok {
			return fn, nil
		}
		return nil, errors.Validation(errors.PhaseParse, ref.Line, "unknown function %s", ref.Value)
	}
	i, err := strconv.ParseUint(ref.Value, 0, 32)
	if err != nil || i >= uint64(len(p.mod.Functions)) {
		return nil, errors.Validation(errors.PhaseParse, ref.Line, "function index %s out of range", ref.Value)
	}
	return p.mod.Functions[i], nil
}

func (p *parser) resolveImport(ref token.Token) (*ast.Import, error) {
	if ref.Type == token.Name {
		if imp, ok := p.importMap[ref.Value]; ok {
			return imp, nil
		}
		return nil, errors.Validation(errors.PhaseParse, ref.Line, "unknown import %s", ref.Value)
	}
	i, err := strconv.ParseUint(ref.Value, 0, 32)
	if err != nil || i >= uint64(len(p.mod.Imports)) {
		return nil, errors.Validation(errors.PhaseParse, ref.Line, "import index %s out of range", ref.Value)
	}
	return p.mod.Imports[i], nil
}
