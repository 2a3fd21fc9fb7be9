//go:build wasmtime

package runner

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/bytecodealliance/wasmtime-go"
	"go.uber.org/zap"

	"github.com/WebAssembly/wasm-aot-prototype/ast"
	"github.com/WebAssembly/wasm-aot-prototype/errors"
)

type wasmtimeBackend struct {
	engine *wasmtime.Engine
	cfg    *Config
}

func newWasmtime(cfg *Config) (*wasmtimeBackend, error) {
	return &wasmtimeBackend{engine: wasmtime.NewEngine(), cfg: cfg}, nil
}

func (b *wasmtimeBackend) close(context.Context) error { return nil }

func (b *wasmtimeBackend) load(ctx context.Context, bin []byte, hosts *HostRegistry) (Instance, error) {
	module, err := wasmtime.NewModule(b.engine, bin)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}

	if err := checkMemoryLimit(module, b.cfg.MemoryLimitPages); err != nil {
		return nil, err
	}

	var (
		imports []Import
		sigs    []Signature
	)
	for _, it := range module.Imports() {
		ft := it.Type().FuncType()
		if ft == nil || it.Name() == nil {
			return nil, errors.Load(fmt.Sprintf("import %s", it.Module()), fmt.Errorf("not a function import"))
		}
		sig, err := fromWasmtime(ft)
		if err != nil {
			return nil, errors.Load(fmt.Sprintf("import %s.%s", it.Module(), *it.Name()), err)
		}
		imports = append(imports, Import{Module: it.Module(), Name: *it.Name()})
		sigs = append(sigs, sig)
	}
	bound, err := hosts.bind(imports, sigs)
	if err != nil {
		return nil, err
	}

	store := wasmtime.NewStore(b.engine)
	linker := wasmtime.NewLinker(b.engine)
	defined := make(map[Import]bool)
	for i, imp := range imports {
		if defined[imp] {
			continue
		}
		defined[imp] = true
		if err := linker.FuncNew(imp.Module, imp.Name, toWasmtime(sigs[i]), wasmtimeHostFunc(ctx, bound[i])); err != nil {
			return nil, errors.Registration(imp.Module, imp.Name, err)
		}
	}

	instance, err := linker.Instantiate(store, module)
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	var exports []Export
	for _, et := range module.Exports() {
		ft := et.Type().FuncType()
		if ft == nil {
			continue
		}
		sig, err := fromWasmtime(ft)
		if err != nil {
			return nil, errors.Load("export "+et.Name(), err)
		}
		exports = append(exports, Export{Name: et.Name(), Sig: sig})
	}
	sort.Slice(exports, func(i, j int) bool { return exports[i].Name < exports[j].Name })

	Logger().Debug("module loaded",
		zap.String("engine", EngineWasmtime),
		zap.Int("imports", len(imports)),
		zap.Int("exports", len(exports)))
	return &wasmtimeInstance{store: store, instance: instance, imports: imports, exports: exports}, nil
}

// checkMemoryLimit rejects modules whose imported or exported memories may
// exceed limit pages. The v1 API has no store limiter and does not expose
// memories that are neither imported nor exported.
func checkMemoryLimit(module *wasmtime.Module, limit uint32) error {
	if limit == 0 {
		return nil
	}
	check := func(name string, ty *wasmtime.ExternType) error {
		mt := ty.MemoryType()
		if mt == nil {
			return nil
		}
		hasMax, max := mt.Maximum()
		if mt.Minimum() > uint64(limit) || !hasMax || max > uint64(limit) {
			return errors.New(errors.PhaseLoad, errors.KindValidation).
				Path(name).
				Detail("memory may grow past the %d page limit", limit).
				Build()
		}
		return nil
	}
	for _, it := range module.Imports() {
		if err := check(it.Module(), it.Type()); err != nil {
			return err
		}
	}
	for _, et := range module.Exports() {
		if err := check(et.Name(), et.Type()); err != nil {
			return err
		}
	}
	return nil
}

func wasmtimeHostFunc(ctx context.Context, def *HostFuncDef) func(*wasmtime.Caller, []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
	return func(_ *wasmtime.Caller, args []wasmtime.Val) ([]wasmtime.Val, *wasmtime.Trap) {
		stack := make([]uint64, len(args))
		for i, a := range args {
			stack[i] = rawBits(a)
		}
		v, err := hostCall(ctx, def, stack)
		if err != nil {
			return nil, wasmtime.NewTrap(fmt.Sprintf("%s.%s: %v", def.Module, def.Name, err))
		}
		if def.Sig.Result == ast.Void {
			return nil, nil
		}
		return []wasmtime.Val{fromBits(def.Sig.Result, v)}, nil
	}
}

type wasmtimeInstance struct {
	store    *wasmtime.Store
	instance *wasmtime.Instance
	imports  []Import
	exports  []Export
}

func (i *wasmtimeInstance) Call(_ context.Context, name string, args ...uint64) ([]uint64, error) {
	fn := i.instance.GetFunc(i.store, name)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseRuntime, "export", name)
	}
	var sig Signature
	for _, ex := range i.exports {
		if ex.Name == name {
			sig = ex.Sig
		}
	}
	if len(args) != len(sig.Params) {
		return nil, errors.New(errors.PhaseRuntime, errors.KindValidation).
			Path(name).
			Detail("got %d arguments, want %d", len(args), len(sig.Params)).
			Build()
	}
	vals := make([]interface{}, len(args))
	for j, a := range args {
		vals[j] = fromBits(sig.Params[j], a)
	}
	out, err := fn.Call(i.store, vals...)
	if err != nil {
		return nil, errors.Trap(name, err)
	}
	if out == nil {
		return nil, nil
	}
	return []uint64{goBits(out)}, nil
}

func (i *wasmtimeInstance) Exports() []Export { return i.exports }

func (i *wasmtimeInstance) Imports() []Import { return i.imports }

func (i *wasmtimeInstance) Close(context.Context) error { return nil }

func toWasmtime(sig Signature) *wasmtime.FuncType {
	params := make([]*wasmtime.ValType, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = wasmtime.NewValType(wasmtimeKind(p))
	}
	var results []*wasmtime.ValType
	if sig.Result != ast.Void {
		results = append(results, wasmtime.NewValType(wasmtimeKind(sig.Result)))
	}
	return wasmtime.NewFuncType(params, results)
}

func wasmtimeKind(t ast.ValueType) wasmtime.ValKind {
	switch t {
	case ast.I64:
		return wasmtime.KindI64
	case ast.F32:
		return wasmtime.KindF32
	case ast.F64:
		return wasmtime.KindF64
	}
	return wasmtime.KindI32
}

func fromWasmtime(ft *wasmtime.FuncType) (Signature, error) {
	var sig Signature
	for _, p := range ft.Params() {
		t, err := kindType(p.Kind())
		if err != nil {
			return sig, err
		}
		sig.Params = append(sig.Params, t)
	}
	switch results := ft.Results(); len(results) {
	case 0:
	case 1:
		t, err := kindType(results[0].Kind())
		if err != nil {
			return sig, err
		}
		sig.Result = t
	default:
		return sig, fmt.Errorf("%d results", len(results))
	}
	return sig, nil
}

func kindType(k wasmtime.ValKind) (ast.ValueType, error) {
	switch k {
	case wasmtime.KindI32:
		return ast.I32, nil
	case wasmtime.KindI64:
		return ast.I64, nil
	case wasmtime.KindF32:
		return ast.F32, nil
	case wasmtime.KindF64:
		return ast.F64, nil
	}
	return ast.Void, fmt.Errorf("value kind %v", k)
}

func fromBits(t ast.ValueType, bits uint64) wasmtime.Val {
	switch t {
	case ast.I64:
		return wasmtime.ValI64(int64(bits))
	case ast.F32:
		return wasmtime.ValF32(math.Float32frombits(uint32(bits)))
	case ast.F64:
		return wasmtime.ValF64(math.Float64frombits(bits))
	}
	return wasmtime.ValI32(int32(uint32(bits)))
}

func rawBits(v wasmtime.Val) uint64 {
	switch v.Kind() {
	case wasmtime.KindI64:
		return uint64(v.I64())
	case wasmtime.KindF32:
		return uint64(math.Float32bits(v.F32()))
	case wasmtime.KindF64:
		return math.Float64bits(v.F64())
	}
	return uint64(uint32(v.I32()))
}

// goBits converts a Func.Call result, which wasmtime returns as a Go value.
func goBits(v interface{}) uint64 {
	switch v := v.(type) {
	case int32:
		return uint64(uint32(v))
	case int64:
		return uint64(v)
	case float32:
		return uint64(math.Float32bits(v))
	case float64:
		return math.Float64bits(v)
	case wasmtime.Val:
		return rawBits(v)
	}
	return 0
}
