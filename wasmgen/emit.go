package wasmgen

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/WebAssembly/wasm-aot-prototype/errors"
	"github.com/WebAssembly/wasm-aot-prototype/ir"
	"github.com/WebAssembly/wasm-aot-prototype/wasmgen/internal/binary"
)

// Config holds configuration for code generation
type Config struct {
	// OmitNames drops the "name" custom section.
	OmitNames bool
}

type funcType struct {
	params  []ValType
	results []ValType
}

func (t funcType) key() string {
	var sb strings.Builder
	for _, p := range t.params {
		sb.WriteByte(byte(p))
	}
	sb.WriteByte(':')
	for _, r := range t.results {
		sb.WriteByte(byte(r))
	}
	return sb.String()
}

type export struct {
	name string
	fn   uint32
}

type generator struct {
	module  *ir.Module
	types   []funcType
	typeIdx map[string]uint32
	funcIdx map[*ir.Function]uint32
	funcTyp map[*ir.Function]uint32
	imports []*ir.Function
	defined []*ir.Function
	exports []export
}

// Emit lowers m to a core WebAssembly binary.
//
// Declarations become function imports of their ir.Import pair, aliases
// become exports under their own names, and externally linked definitions
// are exported under their symbol names. The module is verified first.
func Emit(m *ir.Module) ([]byte, error) {
	return EmitWithConfig(m, nil)
}

// EmitWithConfig is Emit with custom configuration.
func EmitWithConfig(m *ir.Module, cfg *Config) ([]byte, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if err := ir.Verify(m); err != nil {
		return nil, err
	}

	g := &generator{
		module:  m,
		typeIdx: make(map[string]uint32),
		funcIdx: make(map[*ir.Function]uint32),
		funcTyp: make(map[*ir.Function]uint32),
	}
	if err := g.collect(); err != nil {
		return nil, err
	}

	bodies := make([][]byte, len(g.defined))
	for i, f := range g.defined {
		body, err := g.lowerFunction(f)
		if err != nil {
			return nil, err
		}
		bodies[i] = body
	}

	w := binary.NewWriter()
	w.WriteU32LE(Magic)
	w.WriteU32LE(Version)
	g.writeTypes(w)
	g.writeImports(w)
	g.writeFunctions(w)
	g.writeExports(w)
	if len(g.defined) > 0 {
		w.Section(SectionCode, func(s *binary.Writer) {
			s.Vec(len(bodies), func(i int) {
				s.Sized(func(b *binary.Writer) { b.WriteBytes(bodies[i]) })
			})
		})
	}
	if !cfg.OmitNames {
		g.writeNames(w)
	}

	Logger().Debug("emitted module",
		zap.String("module", m.Name),
		zap.Int("bytes", w.Len()),
		zap.Int("imports", len(g.imports)),
		zap.Int("functions", len(g.defined)),
		zap.Int("exports", len(g.exports)))
	return w.Bytes(), nil
}

// collect assigns function and type indices and gathers exports. Imports
// come first in the function index space.
func (g *generator) collect() error {
	for _, f := range g.module.Functions {
		if f.IsDeclaration() {
			if f.Import == nil {
				return errors.New(errors.PhaseEmit, errors.KindUnsupported).
					Path(f.Name()).
					Detail("declaration %q is not bound to an import", f.Name()).
					Build()
			}
			g.imports = append(g.imports, f)
		} else {
			g.defined = append(g.defined, f)
		}
	}
	for i, f := range append(append([]*ir.Function(nil), g.imports...), g.defined...) {
		g.funcIdx[f] = uint32(i)
		ft, err := signature(f)
		if err != nil {
			return err
		}
		g.funcTyp[f] = g.typeIndex(ft)
	}

	for _, a := range g.module.Aliases {
		g.exports = append(g.exports, export{name: a.Name(), fn: g.funcIdx[a.Aliasee]})
	}
	for _, f := range g.defined {
		if f.Linkage == ir.ExternalLinkage && f.Name() != "" {
			g.exports = append(g.exports, export{name: f.Name(), fn: g.funcIdx[f]})
		}
	}
	return nil
}

func (g *generator) typeIndex(ft funcType) uint32 {
	k := ft.key()
	if idx, ok := g.typeIdx[k]; ok {
		return idx
	}
	idx := uint32(len(g.types))
	g.types = append(g.types, ft)
	g.typeIdx[k] = idx
	return idx
}

// valType maps an IR first-class type to its wasm encoding. i1 widens to
// i32.
func valType(t ir.Type) (ValType, bool) {
	switch t := t.(type) {
	case *ir.IntType:
		switch t.Bits {
		case 1, 32:
			return ValI32, true
		case 64:
			return ValI64, true
		}
	case *ir.FloatType:
		switch t.Bits {
		case 32:
			return ValF32, true
		case 64:
			return ValF64, true
		}
	}
	return 0, false
}

func signature(f *ir.Function) (funcType, error) {
	var ft funcType
	for i, p := range f.Sig.Params {
		vt, ok := valType(p)
		if !ok {
			return ft, unsupportedType(f, "parameter "+strconv.Itoa(i), p)
		}
		ft.params = append(ft.params, vt)
	}
	if !ir.IsVoid(f.Sig.Result) {
		vt, ok := valType(f.Sig.Result)
		if !ok {
			return ft, unsupportedType(f, "result", f.Sig.Result)
		}
		ft.results = append(ft.results, vt)
	}
	return ft, nil
}

func unsupportedType(f *ir.Function, what string, t ir.Type) *errors.Error {
	return errors.New(errors.PhaseEmit, errors.KindUnsupported).
		Path(f.Name(), what).
		Detail("type %s has no wasm encoding", t).
		Build()
}

func (g *generator) writeTypes(w *binary.Writer) {
	if len(g.types) == 0 {
		return
	}
	w.Section(SectionType, func(s *binary.Writer) {
		s.Vec(len(g.types), func(i int) {
			s.Byte(FuncTypeByte)
			writeValTypes(s, g.types[i].params)
			writeValTypes(s, g.types[i].results)
		})
	})
}

func writeValTypes(w *binary.Writer, types []ValType) {
	w.Vec(len(types), func(i int) { w.Byte(byte(types[i])) })
}

func (g *generator) writeImports(w *binary.Writer) {
	if len(g.imports) == 0 {
		return
	}
	w.Section(SectionImport, func(s *binary.Writer) {
		s.Vec(len(g.imports), func(i int) {
			f := g.imports[i]
			s.WriteName(f.Import.Module)
			s.WriteName(f.Import.Field)
			s.Byte(KindFunc)
			s.WriteU32(g.funcTyp[f])
		})
	})
}

func (g *generator) writeFunctions(w *binary.Writer) {
	if len(g.defined) == 0 {
		return
	}
	w.Section(SectionFunction, func(s *binary.Writer) {
		s.Vec(len(g.defined), func(i int) { s.WriteU32(g.funcTyp[g.defined[i]]) })
	})
}

func (g *generator) writeExports(w *binary.Writer) {
	if len(g.exports) == 0 {
		return
	}
	w.Section(SectionExport, func(s *binary.Writer) {
		s.Vec(len(g.exports), func(i int) {
			s.WriteName(g.exports[i].name)
			s.Byte(KindFunc)
			s.WriteU32(g.exports[i].fn)
		})
	})
}

// writeNames emits the "name" custom section with every named function.
func (g *generator) writeNames(w *binary.Writer) {
	var named []*ir.Function
	for _, list := range [][]*ir.Function{g.imports, g.defined} {
		for _, f := range list {
			if f.Name() != "" {
				named = append(named, f)
			}
		}
	}
	if len(named) == 0 {
		return
	}
	w.Section(SectionCustom, func(s *binary.Writer) {
		s.WriteName("name")
		s.Byte(nameSubsectionFunctions)
		s.Sized(func(sub *binary.Writer) {
			sub.Vec(len(named), func(i int) {
				sub.WriteU32(g.funcIdx[named[i]])
				sub.WriteName(named[i].Name())
			})
		})
	})
}
