package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/WebAssembly/wasm-aot-prototype/ast"
	"github.com/WebAssembly/wasm-aot-prototype/errors"
	"github.com/WebAssembly/wasm-aot-prototype/ir"
	"github.com/WebAssembly/wasm-aot-prototype/llvmgen"
	"github.com/WebAssembly/wasm-aot-prototype/runner"
	"github.com/WebAssembly/wasm-aot-prototype/translate"
	"github.com/WebAssembly/wasm-aot-prototype/wasmgen"
	"github.com/WebAssembly/wasm-aot-prototype/wast"
)

type options struct {
	emit        string
	out         string
	engine      string
	memPages    uint
	run         bool
	interactive bool
	verbose     bool
	bitcode     bool
	noNames     bool
}

func main() {
	var opts options
	flag.StringVar(&opts.emit, "emit", "ir", "Output kind: ir, wasm or llvm")
	flag.StringVar(&opts.out, "o", "", "Output file (default stdout for ir/llvm, <module>.wasm for wasm)")
	flag.StringVar(&opts.engine, "engine", "", "Engine for -run and -i: wazero (default) or wasmtime")
	flag.UintVar(&opts.memPages, "mem", 0, "Memory limit in 64KiB pages for -run and -i")
	flag.BoolVar(&opts.run, "run", false, "Run the script's invoke and assert_eq commands")
	flag.BoolVar(&opts.interactive, "i", false, "Interactive mode with TUI")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose logging")
	flag.BoolVar(&opts.bitcode, "bitcode", false, "Write LLVM bitcode instead of text with -emit llvm")
	flag.BoolVar(&opts.noNames, "no-names", false, "Omit the name section with -emit wasm")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: waot [-emit ir|wasm|llvm] [-o out] <script.wast>")
		fmt.Fprintln(os.Stderr, "       waot -run <script.wast>")
		fmt.Fprintln(os.Stderr, "       waot -i <script.wast>  (interactive mode)")
		os.Exit(1)
	}

	log, err := newLogger(opts.verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	translate.SetLogger(log.Named("translate"))
	wasmgen.SetLogger(log.Named("wasmgen"))
	llvmgen.SetLogger(log.Named("llvmgen"))
	runner.SetLogger(log.Named("runner"))

	if err := run(flag.Arg(0), opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

// unit is one translated module of a script with its harness wrappers.
type unit struct {
	name    string
	module  *ir.Module
	harness []translate.Harness
}

// compile parses and translates every module of the script. Translator
// assertion failures surface here as errors.
func compile(source string) (units []unit, err error) {
	script, err := wast.Parse(source)
	if err != nil {
		return nil, err
	}
	defer errors.Recover(&err)
	for _, entry := range script.Entries {
		m, harness := translate.Script(entry)
		if err := ir.Verify(m); err != nil {
			return nil, err
		}
		units = append(units, unit{name: entry.Module.Name, module: m, harness: harness})
	}
	return units, nil
}

func run(path string, opts options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	units, err := compile(string(data))
	if err != nil {
		return err
	}

	switch {
	case opts.interactive:
		return runInteractive(path, units, opts)
	case opts.run:
		return runScript(os.Stdout, units, opts)
	}

	switch opts.emit {
	case "ir":
		return emitIR(units, opts)
	case "wasm":
		return emitWasm(units, opts)
	case "llvm":
		return emitLLVM(units, opts)
	}
	return fmt.Errorf("unknown -emit kind %q", opts.emit)
}

func emitIR(units []unit, opts options) error {
	var b strings.Builder
	for i, u := range units {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(u.module.String())
	}
	if opts.out != "" {
		return os.WriteFile(opts.out, []byte(b.String()), 0o644)
	}
	listing := b.String()
	if term.IsTerminal(int(os.Stdout.Fd())) {
		listing = colorize(listing)
	}
	_, err := fmt.Print(listing)
	return err
}

func emitWasm(units []unit, opts options) error {
	for _, u := range units {
		bin, err := wasmgen.EmitWithConfig(u.module, &wasmgen.Config{OmitNames: opts.noNames})
		if err != nil {
			return fmt.Errorf("module %s: %w", u.name, err)
		}
		out := outputPath(opts.out, u.name, ".wasm", len(units))
		if err := os.WriteFile(out, bin, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		fmt.Fprintf(os.Stderr, "wrote %s (%d bytes)\n", out, len(bin))
	}
	return nil
}

func emitLLVM(units []unit, opts options) error {
	ext := ".ll"
	if opts.bitcode {
		ext = ".bc"
	}
	for _, u := range units {
		code, err := llvmgen.GenerateWithConfig(u.module, &llvmgen.Config{Bitcode: opts.bitcode})
		if err != nil {
			return fmt.Errorf("module %s: %w", u.name, err)
		}
		if opts.out == "" && !opts.bitcode {
			fmt.Print(string(code))
			continue
		}
		out := outputPath(opts.out, u.name, ext, len(units))
		if err := os.WriteFile(out, code, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
	}
	return nil
}

// outputPath names the file for one module. With several modules the
// module name is inserted before the extension of the requested path.
func outputPath(requested, module, ext string, count int) string {
	if requested == "" {
		return module + ext
	}
	if count == 1 {
		return requested
	}
	base := strings.TrimSuffix(requested, filepath.Ext(requested))
	if e := filepath.Ext(requested); e != "" {
		ext = e
	}
	return base + "." + module + ext
}

func newEngine(ctx context.Context, opts options, stdout io.Writer) (*runner.Engine, *runner.HostRegistry, error) {
	e, err := runner.New(ctx, &runner.Config{Engine: opts.engine, MemoryLimitPages: uint32(opts.memPages)})
	if err != nil {
		return nil, nil, fmt.Errorf("create engine: %w", err)
	}
	hosts := runner.NewHostRegistry()
	if err := hosts.RegisterSpectest(stdout); err != nil {
		_ = e.Close(ctx)
		return nil, nil, err
	}
	return e, hosts, nil
}

// runScript runs every harness wrapper, writing each result to w right
// after its call so it follows any spectest output the call produced.
func runScript(w io.Writer, units []unit, opts options) error {
	ctx := context.Background()
	e, hosts, err := newEngine(ctx, opts, w)
	if err != nil {
		return err
	}
	defer e.Close(ctx)

	for _, u := range units {
		bin, err := wasmgen.Emit(u.module)
		if err != nil {
			return fmt.Errorf("module %s: %w", u.name, err)
		}
		names := make([]string, len(u.harness))
		for i, h := range u.harness {
			names[i] = h.Func.Name()
		}
		i := 0
		err = e.RunFunc(ctx, bin, hosts, names, func(r runner.Result) error {
			_, err := fmt.Fprintln(w, describeResult(u.harness[i].Command, r))
			i++
			return err
		})
		if err != nil {
			return fmt.Errorf("module %s: %w", u.name, err)
		}
	}
	return nil
}

func describeResult(c ast.Command, r runner.Result) string {
	var b bytes.Buffer
	switch c := c.(type) {
	case *ast.Invoke:
		fmt.Fprintf(&b, "invoke %q: %s", c.Callee.Name, r)
	case *ast.AssertEq:
		fmt.Fprintf(&b, "assert_eq %q: executed", c.Invoke.Callee.Name)
	default:
		b.WriteString(r.String())
	}
	return b.String()
}
