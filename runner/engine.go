package runner

import (
	"context"

	"go.uber.org/zap"

	"github.com/WebAssembly/wasm-aot-prototype/ast"
	"github.com/WebAssembly/wasm-aot-prototype/errors"
)

// Engine names accepted by Config.Engine.
const (
	EngineWazero   = "wazero"
	EngineWasmtime = "wasmtime"
)

// Config holds configuration for engine creation
type Config struct {
	// Engine selects the backend. Empty means wazero.
	Engine string

	// MemoryLimitPages caps linear memory per instance in 64KiB pages.
	// 0 means the engine default.
	MemoryLimitPages uint32

	// CacheDir persists compiled code between processes (wazero only).
	CacheDir string
}

// Instance is a loaded module with its imports bound.
type Instance interface {
	// Call invokes an export with raw argument bits.
	Call(ctx context.Context, name string, args ...uint64) ([]uint64, error)
	Exports() []Export
	Imports() []Import
	Close(ctx context.Context) error
}

type backend interface {
	load(ctx context.Context, bin []byte, hosts *HostRegistry) (Instance, error)
	close(ctx context.Context) error
}

// Engine loads and runs emitted modules.
type Engine struct {
	name string
	b    backend
}

// New creates an engine. A nil cfg selects wazero with default limits.
func New(ctx context.Context, cfg *Config) (*Engine, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	name := cfg.Engine
	if name == "" {
		name = EngineWazero
	}

	var (
		b   backend
		err error
	)
	switch name {
	case EngineWazero:
		b, err = newWazero(ctx, cfg)
	case EngineWasmtime:
		b, err = newWasmtime(cfg)
	default:
		return nil, errors.NotFound(errors.PhaseLoad, "engine", name)
	}
	if err != nil {
		return nil, err
	}
	Logger().Debug("engine created",
		zap.String("engine", name),
		zap.Uint32("memory_limit_pages", cfg.MemoryLimitPages))
	return &Engine{name: name, b: b}, nil
}

// Name returns the backend name.
func (e *Engine) Name() string {
	return e.name
}

// Load compiles bin and binds its imports from hosts. Every import must be
// registered with a matching signature.
func (e *Engine) Load(ctx context.Context, bin []byte, hosts *HostRegistry) (Instance, error) {
	return e.b.load(ctx, bin, hosts)
}

// Run loads bin and calls the named zero-argument exports in order. On a
// failing call the results gathered so far are returned with the error.
func (e *Engine) Run(ctx context.Context, bin []byte, hosts *HostRegistry, names ...string) ([]Result, error) {
	results := make([]Result, 0, len(names))
	err := e.RunFunc(ctx, bin, hosts, names, func(r Result) error {
		results = append(results, r)
		return nil
	})
	return results, err
}

// RunFunc is Run that hands each result to fn as soon as its call returns,
// so host output and results interleave in call order. An error from fn
// stops the run.
func (e *Engine) RunFunc(ctx context.Context, bin []byte, hosts *HostRegistry, names []string, fn func(Result) error) error {
	inst, err := e.Load(ctx, bin, hosts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := inst.Close(ctx); cerr != nil {
			Logger().Warn("close instance", zap.Error(cerr))
		}
	}()

	sigs := make(map[string]Signature)
	for _, ex := range inst.Exports() {
		sigs[ex.Name] = ex.Sig
	}

	for _, name := range names {
		sig, ok := sigs[name]
		if !ok {
			return errors.NotFound(errors.PhaseRuntime, "export", name)
		}
		if len(sig.Params) != 0 {
			return errors.New(errors.PhaseRuntime, errors.KindValidation).
				Path(name).
				Detail("wrapper takes %d arguments", len(sig.Params)).
				Build()
		}
		out, err := inst.Call(ctx, name)
		if err != nil {
			return err
		}
		r := Result{Name: name, Type: sig.Result}
		if sig.Result != ast.Void && len(out) > 0 {
			r.Value = out[0]
		}
		Logger().Debug("called wrapper", zap.String("name", name), zap.Stringer("result", r))
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the engine. Instances must be closed first.
func (e *Engine) Close(ctx context.Context) error {
	return e.b.close(ctx)
}

func sameSignature(a, b Signature) bool {
	if a.Result != b.Result || len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if a.Params[i] != b.Params[i] {
			return false
		}
	}
	return true
}

// hostCall runs def with its parameters read from the front of stack.
func hostCall(ctx context.Context, def *HostFuncDef, stack []uint64) (uint64, error) {
	args := make([]uint64, len(def.Sig.Params))
	copy(args, stack)
	v, err := def.Fn(ctx, args)
	if err != nil {
		Logger().Warn("host function failed",
			zap.String("module", def.Module),
			zap.String("name", def.Name),
			zap.Error(err))
	}
	return v, err
}
