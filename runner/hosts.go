package runner

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/WebAssembly/wasm-aot-prototype/ast"
	"github.com/WebAssembly/wasm-aot-prototype/errors"
)

// HostFunc implements an import. args holds one raw value per parameter;
// the returned value is ignored for void functions. A returned error traps
// the calling wrapper.
type HostFunc func(ctx context.Context, args []uint64) (uint64, error)

// VariadicHostFunc builds the implementation of a host function that
// accepts whatever signature the guest imports it with. It may reject a
// signature it cannot serve.
type VariadicHostFunc func(sig Signature) (HostFunc, error)

// HostFuncDef is a registered host function. A variadic definition has no
// fixed Sig until it is bound to an import.
type HostFuncDef struct {
	Module   string
	Name     string
	Sig      Signature
	Fn       HostFunc
	Variadic bool

	bind VariadicHostFunc
}

// Bind returns d specialised to the guest signature sig. Fixed definitions
// are returned unchanged.
func (d *HostFuncDef) Bind(sig Signature) (*HostFuncDef, error) {
	if !d.Variadic {
		return d, nil
	}
	fn, err := d.bind(sig)
	if err != nil {
		return nil, errors.Registration(d.Module, d.Name, err)
	}
	return &HostFuncDef{Module: d.Module, Name: d.Name, Sig: sig, Fn: fn}, nil
}

// HostRegistry binds Go functions to (module, name) import pairs.
// It is safe for concurrent use.
type HostRegistry struct {
	funcs map[string]map[string]*HostFuncDef
	mu    sync.RWMutex
}

// NewHostRegistry creates an empty registry.
func NewHostRegistry() *HostRegistry {
	return &HostRegistry{funcs: make(map[string]map[string]*HostFuncDef)}
}

// Register binds fn to module.name. Registering the same pair twice fails.
func (r *HostRegistry) Register(module, name string, sig Signature, fn HostFunc) error {
	if fn == nil {
		return errors.Registration(module, name, fmt.Errorf("nil function"))
	}
	for _, p := range sig.Params {
		if p == ast.Void {
			return errors.Registration(module, name, fmt.Errorf("void parameter"))
		}
	}

	return r.add(&HostFuncDef{Module: module, Name: name, Sig: sig, Fn: fn})
}

// RegisterVariadic binds module.name to a function that takes the
// signature of each import it satisfies.
func (r *HostRegistry) RegisterVariadic(module, name string, bind VariadicHostFunc) error {
	if bind == nil {
		return errors.Registration(module, name, fmt.Errorf("nil function"))
	}
	fn, err := bind(Signature{})
	if err != nil {
		return errors.Registration(module, name, err)
	}
	return r.add(&HostFuncDef{Module: module, Name: name, Fn: fn, Variadic: true, bind: bind})
}

func (r *HostRegistry) add(def *HostFuncDef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	byName, ok := r.funcs[def.Module]
	if !ok {
		byName = make(map[string]*HostFuncDef)
		r.funcs[def.Module] = byName
	}
	if _, dup := byName[def.Name]; dup {
		return errors.Registration(def.Module, def.Name, fmt.Errorf("already registered"))
	}
	byName[def.Name] = def
	return nil
}

// Lookup returns the function bound to module.name, or nil.
func (r *HostRegistry) Lookup(module, name string) *HostFuncDef {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.funcs[module][name]
}

// Modules returns the registered module names, sorted.
func (r *HostRegistry) Modules() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.funcs))
	for m := range r.funcs {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Funcs returns the functions registered under module, sorted by name.
func (r *HostRegistry) Funcs(module string) []*HostFuncDef {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*HostFuncDef, 0, len(r.funcs[module]))
	for _, def := range r.funcs[module] {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// missing returns the imports with no registered function, in order.
func (r *HostRegistry) missing(imports []Import) []errors.MissingImport {
	var out []errors.MissingImport
	for _, imp := range imports {
		if r.Lookup(imp.Module, imp.Name) == nil {
			out = append(out, errors.MissingImport{Module: imp.Module, Function: imp.Name})
		}
	}
	return out
}

// bind resolves every import against the registry. Unregistered imports
// are reported together as a MissingImportsError; a fixed definition whose
// signature disagrees with the import is a type mismatch. Variadic
// definitions take the import's signature.
func (r *HostRegistry) bind(imports []Import, sigs []Signature) ([]*HostFuncDef, error) {
	if missing := r.missing(imports); len(missing) > 0 {
		return nil, errors.NewMissingImportsError(missing)
	}
	defs := make([]*HostFuncDef, len(imports))
	seen := make(map[Import]Signature)
	for i, imp := range imports {
		def := r.Lookup(imp.Module, imp.Name)
		want := def.Sig
		if def.Variadic {
			want = sigs[i]
			// one host export carries one type
			if prev, ok := seen[imp]; ok {
				want = prev
			}
			seen[imp] = want
		}
		if !sameSignature(want, sigs[i]) {
			return nil, errors.TypeMismatch(errors.PhaseLoad, []string{imp.Module, imp.Name}, want.String(), sigs[i].String())
		}
		bound, err := def.Bind(sigs[i])
		if err != nil {
			return nil, err
		}
		defs[i] = bound
	}
	return defs, nil
}

// RegisterSpectest registers the print functions of the "spectest" host
// module used by test scripts. Each call writes its arguments to w.
// "print" is variadic and formats arguments by the importing signature.
func (r *HostRegistry) RegisterSpectest(w io.Writer) error {
	printer := func(types ...ast.ValueType) HostFunc {
		return func(_ context.Context, args []uint64) (uint64, error) {
			for i, a := range args {
				if i > 0 {
					if _, err := io.WriteString(w, " "); err != nil {
						return 0, err
					}
				}
				if _, err := io.WriteString(w, FormatValue(types[i], a)); err != nil {
					return 0, err
				}
			}
			_, err := io.WriteString(w, "\n")
			return 0, err
		}
	}
	defs := []struct {
		name  string
		types []ast.ValueType
	}{
		{"print_i32", []ast.ValueType{ast.I32}},
		{"print_i64", []ast.ValueType{ast.I64}},
		{"print_f32", []ast.ValueType{ast.F32}},
		{"print_f64", []ast.ValueType{ast.F64}},
		{"print_i32_f32", []ast.ValueType{ast.I32, ast.F32}},
		{"print_f64_f64", []ast.ValueType{ast.F64, ast.F64}},
	}
	for _, d := range defs {
		if err := r.Register("spectest", d.name, Signature{Params: d.types}, printer(d.types...)); err != nil {
			return err
		}
	}
	return r.RegisterVariadic("spectest", "print", func(sig Signature) (HostFunc, error) {
		if sig.Result != ast.Void {
			return nil, fmt.Errorf("print returns nothing, imported with result %s", sig.Result)
		}
		return printer(sig.Params...), nil
	})
}
