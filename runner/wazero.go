package runner

import (
	"context"
	"fmt"
	"sort"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/WebAssembly/wasm-aot-prototype/ast"
	"github.com/WebAssembly/wasm-aot-prototype/errors"
)

// wazeroBackend creates one runtime per loaded module so host modules of
// different loads never collide. Compiled code is shared through the cache.
type wazeroBackend struct {
	cfg   wazero.RuntimeConfig
	cache wazero.CompilationCache
}

func newWazero(ctx context.Context, cfg *Config) (*wazeroBackend, error) {
	var (
		cache wazero.CompilationCache
		err   error
	)
	if cfg.CacheDir != "" {
		cache, err = wazero.NewCompilationCacheWithDir(cfg.CacheDir)
		if err != nil {
			return nil, errors.Load("open compilation cache", err)
		}
	} else {
		cache = wazero.NewCompilationCache()
	}

	rc := wazero.NewRuntimeConfig().
		WithCompilationCache(cache).
		WithCloseOnContextDone(true)
	if cfg.MemoryLimitPages > 0 {
		rc = rc.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	return &wazeroBackend{cfg: rc, cache: cache}, nil
}

func (b *wazeroBackend) close(ctx context.Context) error {
	return b.cache.Close(ctx)
}

func (b *wazeroBackend) load(ctx context.Context, bin []byte, hosts *HostRegistry) (Instance, error) {
	rt := wazero.NewRuntimeWithConfig(ctx, b.cfg)
	fail := func(err error) (Instance, error) {
		_ = rt.Close(ctx)
		return nil, err
	}

	compiled, err := rt.CompileModule(ctx, bin)
	if err != nil {
		return fail(errors.Load("compile module", err))
	}

	defs := compiled.ImportedFunctions()
	imports := make([]Import, 0, len(defs))
	sigs := make([]Signature, 0, len(defs))
	for _, def := range defs {
		module, name, _ := def.Import()
		sig, err := fromWazero(def.ParamTypes(), def.ResultTypes())
		if err != nil {
			return fail(errors.Load(fmt.Sprintf("import %s.%s", module, name), err))
		}
		imports = append(imports, Import{Module: module, Name: name})
		sigs = append(sigs, sig)
	}
	bound, err := hosts.bind(imports, sigs)
	if err != nil {
		return fail(err)
	}
	if err := instantiateHosts(ctx, rt, bound); err != nil {
		return fail(err)
	}

	var exports []Export
	for name, def := range compiled.ExportedFunctions() {
		sig, err := fromWazero(def.ParamTypes(), def.ResultTypes())
		if err != nil {
			return fail(errors.Load("export "+name, err))
		}
		exports = append(exports, Export{Name: name, Sig: sig})
	}
	sort.Slice(exports, func(i, j int) bool { return exports[i].Name < exports[j].Name })

	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return fail(errors.Instantiation(err))
	}

	Logger().Debug("module loaded",
		zap.String("engine", EngineWazero),
		zap.Int("imports", len(imports)),
		zap.Int("exports", len(exports)))
	return &wazeroInstance{rt: rt, mod: mod, imports: imports, exports: exports}, nil
}

// instantiateHosts builds one host module per imported module name,
// exporting only the functions the guest imports.
func instantiateHosts(ctx context.Context, rt wazero.Runtime, defs []*HostFuncDef) error {
	byModule := make(map[string][]*HostFuncDef)
	var order []string
	for _, def := range defs {
		if _, seen := byModule[def.Module]; !seen {
			order = append(order, def.Module)
		}
		byModule[def.Module] = append(byModule[def.Module], def)
	}

	for _, module := range order {
		builder := rt.NewHostModuleBuilder(module)
		exported := make(map[string]bool)
		for _, def := range byModule[module] {
			if exported[def.Name] {
				continue
			}
			exported[def.Name] = true
			params, results := toWazero(def.Sig)
			builder.NewFunctionBuilder().
				WithGoModuleFunction(wazeroHostFunc(def), params, results).
				WithName(def.Name).
				Export(def.Name)
		}
		if _, err := builder.Instantiate(ctx); err != nil {
			return errors.Registration(module, "", err)
		}
	}
	return nil
}

func wazeroHostFunc(def *HostFuncDef) api.GoModuleFunc {
	hasResult := def.Sig.Result != ast.Void
	return func(ctx context.Context, _ api.Module, stack []uint64) {
		v, err := hostCall(ctx, def, stack)
		if err != nil {
			// wazero reports the panic as the guest call's error.
			panic(errors.Wrap(errors.PhaseHost, errors.KindTrap, err, def.Module+"."+def.Name))
		}
		if hasResult {
			stack[0] = v
		}
	}
}

type wazeroInstance struct {
	rt      wazero.Runtime
	mod     api.Module
	imports []Import
	exports []Export
}

func (i *wazeroInstance) Call(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	fn := i.mod.ExportedFunction(name)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseRuntime, "export", name)
	}
	out, err := fn.Call(ctx, args...)
	if err != nil {
		return nil, errors.Trap(name, err)
	}
	return out, nil
}

func (i *wazeroInstance) Exports() []Export { return i.exports }

func (i *wazeroInstance) Imports() []Import { return i.imports }

func (i *wazeroInstance) Close(ctx context.Context) error {
	return i.rt.Close(ctx)
}

func toWazero(sig Signature) (params, results []api.ValueType) {
	for _, p := range sig.Params {
		params = append(params, wazeroType(p))
	}
	if sig.Result != ast.Void {
		results = append(results, wazeroType(sig.Result))
	}
	return params, results
}

func wazeroType(t ast.ValueType) api.ValueType {
	switch t {
	case ast.I64:
		return api.ValueTypeI64
	case ast.F32:
		return api.ValueTypeF32
	case ast.F64:
		return api.ValueTypeF64
	}
	return api.ValueTypeI32
}

func fromWazero(params, results []api.ValueType) (Signature, error) {
	var sig Signature
	for _, p := range params {
		t, err := astType(p)
		if err != nil {
			return sig, err
		}
		sig.Params = append(sig.Params, t)
	}
	switch len(results) {
	case 0:
	case 1:
		t, err := astType(results[0])
		if err != nil {
			return sig, err
		}
		sig.Result = t
	default:
		return sig, fmt.Errorf("%d results", len(results))
	}
	return sig, nil
}

func astType(t api.ValueType) (ast.ValueType, error) {
	switch t {
	case api.ValueTypeI32:
		return ast.I32, nil
	case api.ValueTypeI64:
		return ast.I64, nil
	case api.ValueTypeF32:
		return ast.F32, nil
	case api.ValueTypeF64:
		return ast.F64, nil
	}
	return ast.Void, fmt.Errorf("value type %s", api.ValueTypeName(t))
}
