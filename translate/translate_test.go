package translate

import (
	"math"
	"strings"
	"testing"

	"github.com/WebAssembly/wasm-aot-prototype/ast"
	"github.com/WebAssembly/wasm-aot-prototype/errors"
	"github.com/WebAssembly/wasm-aot-prototype/ir"
)

func catch(fn func()) (err error) {
	defer errors.Recover(&err)
	fn()
	return nil
}

func mustFail(t *testing.T, kind errors.Kind, fn func()) *errors.Error {
	t.Helper()
	err := catch(fn)
	if err == nil {
		t.Fatal("expected translation to abort")
	}
	var e *errors.Error
	if !errors.As(err, &e) {
		t.Fatalf("got %T, want *errors.Error", err)
	}
	if e.Kind != kind {
		t.Fatalf("kind = %s, want %s (%v)", e.Kind, kind, e)
	}
	return e
}

func i32(v int32) *ast.Const { return &ast.Const{Literal: ast.I32Lit(v)} }

// newModule builds a module with a single exported function.
func newModule(name string, fn *ast.Function, exports ...string) *ast.Module {
	m := &ast.Module{Name: name, Functions: []*ast.Function{fn}}
	for _, e := range exports {
		m.Exports = append(m.Exports, &ast.Export{Module: m, Function: fn, Name: e})
	}
	return m
}

func TestSampleListing(t *testing.T) {
	twice := &ast.Import{
		Sig:        ast.Signature{Args: []*ast.Arg{{Type: ast.I32}}, Result: ast.I32},
		Name:       "twice",
		ModuleName: "env",
		FuncName:   "twice",
	}
	add := &ast.Function{
		Sig:    ast.Signature{Args: []*ast.Arg{{Name: "a", Type: ast.I32}}, Result: ast.I32},
		Name:   "add",
		Locals: []*ast.Arg{{Name: "tmp", Type: ast.I64}},
		Body:   []ast.Expression{&ast.Call{Callee: twice, Args: []ast.Expression{i32(7)}, IsImport: true}},
	}
	mod := newModule("sample", add, "add")
	mod.Imports = []*ast.Import{twice}

	entry := &ast.ScriptEntry{
		Module: mod,
		Commands: []ast.Command{
			&ast.AssertEq{
				Invoke:   &ast.Invoke{Callee: mod.Exports[0], Args: []ast.Expression{i32(3)}},
				Expected: i32(14),
			},
		},
	}
	m, harness := Script(entry)

	want := `; ModuleID = 'sample'

@.sample.add = alias i32 (i32), ptr @add

declare i32 @.env.twice(i32)

define internal i32 @add(i32 %a) {
entry:
  %tmp = alloca i64
  %0 = call i32 @.env.twice(i32 7)
  ret i32 %0
}

define void @AssertEq() {
entry:
  %0 = call i32 @Invoke()
  %1 = icmp eq i32 %0, 14
  ret void
}

define i32 @Invoke() {
entry:
  %0 = call i32 @add(i32 3)
  ret i32 %0
}
`
	if got := m.String(); got != want {
		t.Errorf("listing mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
	if len(harness) != 1 || harness[0].Func.Name() != "AssertEq" {
		t.Fatalf("harness = %+v", harness)
	}
	if err := ir.Verify(m); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestConstBitPatterns(t *testing.T) {
	for _, v := range []int32{0, 1, -1, 42, math.MinInt32, math.MaxInt32} {
		fn := &ast.Function{
			Sig:  ast.Signature{Result: ast.I32},
			Name: "k",
			Body: []ast.Expression{i32(v)},
		}
		m := Module(newModule("m", fn))
		ret, ok := m.Function("k").EntryBlock().Terminator().(*ir.Ret)
		if !ok {
			t.Fatalf("%d: no ret terminator", v)
		}
		c, ok := ret.Val.(*ir.ConstInt)
		if !ok {
			t.Fatalf("%d: ret operand is %T", v, ret.Val)
		}
		if c.Bits != uint64(uint32(v)) || c.Typ != ir.I32 {
			t.Errorf("%d: got bits %#x type %s", v, c.Bits, c.Typ)
		}
		if int32(c.Int64()) != v {
			t.Errorf("%d: Int64() = %d", v, c.Int64())
		}
	}
}

func TestCompileConst(t *testing.T) {
	nan := uint32(0x7FA00001)
	tests := []struct {
		name string
		lit  ast.Literal
		typ  ir.Type
		bits uint64
	}{
		{"i64 min", ast.I64Lit(math.MinInt64), ir.I64, 1 << 63},
		{"f32 one", ast.F32Lit(1), ir.Float, uint64(math.Float32bits(1))},
		{"f32 signaling nan", ast.F32Bits(nan), ir.Float, uint64(nan)},
		{"f64 negative zero", ast.F64Bits(1 << 63), ir.Double, 1 << 63},
		{"f64 pi", ast.F64Lit(math.Pi), ir.Double, math.Float64bits(math.Pi)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := compileConst(tt.lit)
			if !ir.Equal(v.Type(), tt.typ) {
				t.Fatalf("type = %s, want %s", v.Type(), tt.typ)
			}
			var bits uint64
			switch c := v.(type) {
			case *ir.ConstInt:
				bits = c.Bits
			case *ir.ConstFloat:
				bits = c.Bits
			default:
				t.Fatalf("unexpected value %T", v)
			}
			if bits != tt.bits {
				t.Errorf("bits = %#x, want %#x", bits, tt.bits)
			}
		})
	}

	t.Run("void is undef", func(t *testing.T) {
		if _, ok := compileConst(ast.Literal{Type: ast.Void}).(*ir.Undef); !ok {
			t.Error("void literal did not produce undef")
		}
	})
	t.Run("unknown tag aborts", func(t *testing.T) {
		mustFail(t, errors.KindInternal, func() { compileConst(ast.Literal{Type: ast.ValueType(9)}) })
	})
}

func TestMapType(t *testing.T) {
	tests := []struct {
		in   ast.ValueType
		want ir.Type
	}{
		{ast.Void, ir.Void},
		{ast.I32, ir.I32},
		{ast.I64, ir.I64},
		{ast.F32, ir.Float},
		{ast.F64, ir.Double},
	}
	for _, tt := range tests {
		if got := MapType(tt.in); got != tt.want {
			t.Errorf("MapType(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
	e := mustFail(t, errors.KindInternal, func() { MapType(ast.ValueType(7)) })
	if !strings.Contains(e.Detail, "MapType") {
		t.Errorf("detail = %q", e.Detail)
	}
}

func TestImplicitReturn(t *testing.T) {
	t.Run("last value returned", func(t *testing.T) {
		fn := &ast.Function{Sig: ast.Signature{Result: ast.I32}, Name: "five", Body: []ast.Expression{i32(5)}}
		m := Module(newModule("m", fn))
		want := "define internal i32 @five() {\nentry:\n  ret i32 5\n}\n"
		if got := m.Function("five").String(); got != want {
			t.Errorf("got:\n%s\nwant:\n%s", got, want)
		}
	})

	t.Run("empty void body", func(t *testing.T) {
		fn := &ast.Function{Name: "noop"}
		f := Module(newModule("m", fn)).Function("noop")
		instrs := f.Instructions()
		if len(f.Blocks) != 1 || len(instrs) != 1 {
			t.Fatalf("blocks=%d instrs=%d", len(f.Blocks), len(instrs))
		}
		if r, ok := instrs[0].(*ir.Ret); !ok || r.Val != nil {
			t.Errorf("got %v, want ret void", instrs[0])
		}
	})

	t.Run("explicit return is not doubled", func(t *testing.T) {
		fn := &ast.Function{
			Sig:  ast.Signature{Result: ast.I32},
			Name: "r",
			Body: []ast.Expression{&ast.Return{Values: []ast.Expression{i32(3)}}},
		}
		f := Module(newModule("m", fn)).Function("r")
		if n := len(f.Instructions()); n != 1 {
			t.Errorf("got %d instructions, want 1", n)
		}
	})

	t.Run("nop only void body", func(t *testing.T) {
		fn := &ast.Function{Name: "n", Body: []ast.Expression{&ast.Nop{}, &ast.Block{}}}
		f := Module(newModule("m", fn)).Function("n")
		if n := len(f.Instructions()); n != 1 {
			t.Errorf("got %d instructions, want 1", n)
		}
	})

	t.Run("empty non-void body aborts", func(t *testing.T) {
		fn := &ast.Function{Sig: ast.Signature{Result: ast.I64}, Name: "bad"}
		mustFail(t, errors.KindInternal, func() { Module(newModule("m", fn)) })
	})

	t.Run("valueless tail aborts", func(t *testing.T) {
		fn := &ast.Function{Sig: ast.Signature{Result: ast.I32}, Name: "bad", Body: []ast.Expression{&ast.Nop{}}}
		mustFail(t, errors.KindInternal, func() { Module(newModule("m", fn)) })
	})
}

func TestLocalsBecomeAllocas(t *testing.T) {
	fn := &ast.Function{
		Name:   "locals",
		Locals: []*ast.Arg{{Name: "x", Type: ast.I32}, {Type: ast.F64}, {Name: "x", Type: ast.F32}},
	}
	f := Module(newModule("m", fn)).Function("locals")
	instrs := f.Instructions()
	if len(instrs) != 4 {
		t.Fatalf("got %d instructions, want 4", len(instrs))
	}
	wantTypes := []ir.Type{ir.I32, ir.Double, ir.Float}
	for i, want := range wantTypes {
		a, ok := instrs[i].(*ir.Alloca)
		if !ok {
			t.Fatalf("instr %d is %T", i, instrs[i])
		}
		if a.Allocated != want {
			t.Errorf("alloca %d: %s, want %s", i, a.Allocated, want)
		}
	}
	if instrs[0].Name() == instrs[2].Name() {
		t.Errorf("duplicate local names not uniqued: %q", instrs[0].Name())
	}
}

func TestImportDeclaration(t *testing.T) {
	imp := &ast.Import{
		Sig:        ast.Signature{Args: []*ast.Arg{{Type: ast.I32}, {Type: ast.F64}}},
		Name:       "print",
		ModuleName: "spectest",
		FuncName:   "print",
	}
	mod := &ast.Module{Name: "m", Imports: []*ast.Import{imp}}
	tr := New(ir.NewModule("m"))
	m := tr.TranslateModule(mod)

	f := m.Function(".spectest.print")
	if f == nil {
		t.Fatalf("import not declared under mangled name:\n%s", m)
	}
	if !f.IsDeclaration() || f.Linkage != ir.ExternalLinkage {
		t.Errorf("declaration=%v linkage=%s", f.IsDeclaration(), f.Linkage)
	}
	if got, ok := tr.Symbols().Get(imp); !ok || got != f {
		t.Error("import not registered under its identity")
	}
}

func TestIdentityKeying(t *testing.T) {
	sig := ast.Signature{Result: ast.I32}
	a := &ast.Import{Sig: sig, ModuleName: "env", FuncName: "f"}
	b := &ast.Import{Sig: sig, ModuleName: "env", FuncName: "f"}
	mod := &ast.Module{Name: "m", Imports: []*ast.Import{a, b}}

	tr := New(ir.NewModule("m"))
	m := tr.TranslateModule(mod)

	fa, _ := tr.Symbols().Get(a)
	fb, _ := tr.Symbols().Get(b)
	if fa == nil || fb == nil || fa == fb {
		t.Fatalf("structurally equal imports share an entry: %p %p", fa, fb)
	}
	if tr.Symbols().Len() != 2 || len(m.Functions) != 2 {
		t.Errorf("len=%d functions=%d", tr.Symbols().Len(), len(m.Functions))
	}
	if fa.Name() == fb.Name() {
		t.Errorf("both declarations named %q", fa.Name())
	}
}

func TestRedeclareReplacesEntry(t *testing.T) {
	fn := &ast.Function{Name: "f"}
	m := ir.NewModule("m")
	s := NewSymbolTable()
	first := s.Declare(m, fn, "f", ir.InternalLinkage)
	second := s.Declare(m, fn, "f", ir.InternalLinkage)
	if first == second {
		t.Fatal("redeclare returned the same function")
	}
	if got := s.Lookup(fn); got != second {
		t.Errorf("Lookup returned %s, want %s", got.Name(), second.Name())
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestUnregisteredCallee(t *testing.T) {
	orphan := &ast.Function{Name: "orphan"}
	e := mustFail(t, errors.KindInternal, func() { NewSymbolTable().Lookup(orphan) })
	if !strings.Contains(e.Detail, "orphan") {
		t.Errorf("detail = %q", e.Detail)
	}
}

func TestForwardCallAborts(t *testing.T) {
	callee := &ast.Function{Name: "later"}
	caller := &ast.Function{Name: "first", Body: []ast.Expression{&ast.Call{Callee: callee}}}
	mod := &ast.Module{Name: "m", Functions: []*ast.Function{caller, callee}}
	mustFail(t, errors.KindInternal, func() { Module(mod) })
}

func TestNestedCallOrder(t *testing.T) {
	inner := &ast.Function{Sig: ast.Signature{Result: ast.I32}, Name: "inner", Body: []ast.Expression{i32(1)}}
	outer := &ast.Function{
		Sig:  ast.Signature{Args: []*ast.Arg{{Type: ast.I32}}, Result: ast.I32},
		Name: "outer",
		Body: []ast.Expression{i32(2)},
	}
	top := &ast.Function{
		Sig:  ast.Signature{Result: ast.I32},
		Name: "top",
		Body: []ast.Expression{&ast.Call{Callee: outer, Args: []ast.Expression{&ast.Call{Callee: inner}}}},
	}
	mod := &ast.Module{Name: "m", Functions: []*ast.Function{inner, outer, top}}
	f := Module(mod).Function("top")

	if len(f.Blocks) != 1 {
		t.Fatalf("got %d blocks", len(f.Blocks))
	}
	instrs := f.Instructions()
	if len(instrs) != 3 {
		t.Fatalf("got %d instructions, want 3", len(instrs))
	}
	first, _ := instrs[0].(*ir.Call)
	second, _ := instrs[1].(*ir.Call)
	if first == nil || first.Callee.Name() != "inner" {
		t.Fatalf("first instruction %v", instrs[0])
	}
	if second == nil || second.Callee.Name() != "outer" || second.Args[0] != first {
		t.Fatalf("second instruction %v", instrs[1])
	}
	if ret := instrs[2].(*ir.Ret); ret.Val != second {
		t.Errorf("ret operand %v, want outer call", ret.Val)
	}
}

func TestCallOutsideFunction(t *testing.T) {
	fn := &ast.Function{Name: "f"}
	tr := New(ir.NewModule("m"))
	tr.TranslateModule(newModule("m", fn))
	mustFail(t, errors.KindInternal, func() {
		tr.compileCall(&Cursor{}, &ast.Call{Callee: fn})
	})
}

func TestExportAliases(t *testing.T) {
	fn := &ast.Function{Sig: ast.Signature{Result: ast.I32}, Name: "body", Body: []ast.Expression{i32(1)}}
	m := Module(newModule("m", fn, "f", "g"))

	f, g := m.Alias(".m.f"), m.Alias(".m.g")
	if f == nil || g == nil {
		t.Fatalf("aliases missing:\n%s", m)
	}
	if f.Aliasee != g.Aliasee || f.Aliasee != m.Function("body") {
		t.Error("aliases do not share one body")
	}
	if f.Linkage != ir.ExternalLinkage || m.Function("body").Linkage != ir.InternalLinkage {
		t.Error("unexpected linkage")
	}
	if n := len(m.Function("body").Blocks); n != 1 {
		t.Errorf("body emitted %d blocks", n)
	}
}

func TestDetachedExportAborts(t *testing.T) {
	fn := &ast.Function{Name: "f"}
	mod := &ast.Module{Name: "m", Functions: []*ast.Function{fn}}
	mod.Exports = []*ast.Export{{Function: fn, Name: "f"}}
	mustFail(t, errors.KindInternal, func() { Module(mod) })
}

func TestMangle(t *testing.T) {
	if got := Mangle("spectest", "print"); got != ".spectest.print" {
		t.Errorf("Mangle = %q", got)
	}
}

func TestImportPairs(t *testing.T) {
	sig := ast.Signature{Args: []*ast.Arg{{Type: ast.I32}}}
	imports := []*ast.Import{
		{Sig: sig, ModuleName: "spectest", FuncName: "print_i32"},
		{Sig: sig, ModuleName: "spectest", FuncName: "print_i32"},
		{Sig: sig, ModuleName: "wasi.unstable", FuncName: "fd.write"},
	}
	tr := New(ir.NewModule("m"))
	tr.TranslateModule(&ast.Module{Name: "m", Imports: imports})

	want := []ir.Import{
		{Module: "spectest", Field: "print_i32"},
		{Module: "spectest", Field: "print_i32"},
		{Module: "wasi.unstable", Field: "fd.write"},
	}
	for i, imp := range imports {
		f := tr.Symbols().Lookup(imp)
		if f.Import == nil || *f.Import != want[i] {
			t.Errorf("import %d (%s) bound to %+v, want %+v", i, f.Name(), f.Import, want[i])
		}
	}
	if got := tr.Symbols().Lookup(imports[1]).Name(); got != ".spectest.print_i32.1" {
		t.Errorf("duplicate import symbol = %q", got)
	}
}

func answerModule(result ast.ValueType, lit ast.Literal) *ast.Module {
	fn := &ast.Function{
		Sig:  ast.Signature{Result: result},
		Name: "answer",
		Body: []ast.Expression{&ast.Const{Literal: lit}},
	}
	return newModule("m", fn, "answer")
}

func TestAssertEq(t *testing.T) {
	for _, expected := range []int32{42, 41} {
		mod := answerModule(ast.I32, ast.I32Lit(42))
		tr := New(ir.NewModule("m"))
		tr.TranslateModule(mod)
		before := tr.Cursor()

		f := tr.AssertEq(&ast.AssertEq{
			Invoke:   &ast.Invoke{Callee: mod.Export("answer")},
			Expected: i32(expected),
		})
		if tr.Cursor() != before {
			t.Errorf("%d: cursor not restored", expected)
		}
		if f.Linkage != ir.ExternalLinkage || len(f.Params) != 0 || !ir.IsVoid(f.Sig.Result) {
			t.Errorf("%d: wrapper shape %s", expected, f.Sig)
		}
		if len(f.Blocks) != 1 {
			t.Fatalf("%d: got %d blocks, want 1", expected, len(f.Blocks))
		}
		instrs := f.Instructions()
		if len(instrs) != 3 {
			t.Fatalf("%d: got %d instructions:\n%s", expected, len(instrs), f)
		}
		cmp, ok := instrs[1].(*ir.ICmp)
		if !ok || cmp.Pred != ir.IntEQ {
			t.Fatalf("%d: second instruction %T", expected, instrs[1])
		}
		if c := cmp.Y.(*ir.ConstInt); c.Int64() != int64(expected) {
			t.Errorf("%d: compared against %d", expected, c.Int64())
		}
		if r, ok := instrs[2].(*ir.Ret); !ok || r.Val != nil {
			t.Errorf("%d: wrapper does not end in ret void", expected)
		}
		if err := ir.Verify(tr.Target()); err != nil {
			t.Errorf("%d: Verify: %v", expected, err)
		}
	}
}

func TestAssertEqFloat(t *testing.T) {
	mod := answerModule(ast.F32, ast.F32Lit(0.5))
	tr := New(ir.NewModule("m"))
	tr.TranslateModule(mod)
	f := tr.AssertEq(&ast.AssertEq{
		Invoke:   &ast.Invoke{Callee: mod.Export("answer")},
		Expected: &ast.Const{Literal: ast.F32Lit(0.5)},
	})
	if !strings.Contains(f.String(), "fcmp oeq float") {
		t.Errorf("no fcmp in wrapper:\n%s", f)
	}
}

func TestAssertEqDoubleAborts(t *testing.T) {
	mod := answerModule(ast.F64, ast.F64Lit(0.5))
	tr := New(ir.NewModule("m"))
	tr.TranslateModule(mod)
	mustFail(t, errors.KindInternal, func() {
		tr.AssertEq(&ast.AssertEq{
			Invoke:   &ast.Invoke{Callee: mod.Export("answer")},
			Expected: &ast.Const{Literal: ast.F64Lit(0.5)},
		})
	})
}

func TestAssertEqTypeMismatch(t *testing.T) {
	mod := answerModule(ast.I32, ast.I32Lit(1))
	tr := New(ir.NewModule("m"))
	tr.TranslateModule(mod)
	mustFail(t, errors.KindTypeMismatch, func() {
		tr.AssertEq(&ast.AssertEq{
			Invoke:   &ast.Invoke{Callee: mod.Export("answer")},
			Expected: &ast.Const{Literal: ast.I64Lit(1)},
		})
	})
}

func TestInvokeWrappers(t *testing.T) {
	t.Run("void callee", func(t *testing.T) {
		fn := &ast.Function{Name: "side"}
		mod := newModule("m", fn, "side")
		tr := New(ir.NewModule("m"))
		tr.TranslateModule(mod)
		f := tr.Invoke(&ast.Invoke{Callee: mod.Export("side")})
		want := "define void @Invoke() {\nentry:\n  call void @side()\n  ret void\n}\n"
		if got := f.String(); got != want {
			t.Errorf("got:\n%s\nwant:\n%s", got, want)
		}
	})

	t.Run("unique names", func(t *testing.T) {
		mod := answerModule(ast.I32, ast.I32Lit(1))
		tr := New(ir.NewModule("m"))
		tr.TranslateModule(mod)
		var names []string
		for range 3 {
			names = append(names, tr.Invoke(&ast.Invoke{Callee: mod.Export("answer")}).Name())
		}
		if got := strings.Join(names, ","); got != "Invoke,Invoke.1,Invoke.2" {
			t.Errorf("names = %s", got)
		}
	})

	t.Run("custom names", func(t *testing.T) {
		mod := answerModule(ast.I32, ast.I32Lit(1))
		entry := &ast.ScriptEntry{Module: mod, Commands: []ast.Command{
			&ast.Invoke{Callee: mod.Export("answer")},
			&ast.AssertEq{Invoke: &ast.Invoke{Callee: mod.Export("answer")}, Expected: i32(1)},
		}}
		m, harness := ScriptWithConfig(entry, &Config{InvokeName: "run", AssertEqName: "check"})
		if harness[0].Func.Name() != "run" || harness[1].Func.Name() != "check" {
			t.Errorf("names = %s, %s", harness[0].Func.Name(), harness[1].Func.Name())
		}
		if m.Function("run.1") == nil {
			t.Errorf("nested invoke wrapper missing:\n%s", m)
		}
	})
}

func TestReturnArity(t *testing.T) {
	fn := &ast.Function{
		Sig:  ast.Signature{Result: ast.I32},
		Name: "two",
		Body: []ast.Expression{&ast.Return{Values: []ast.Expression{i32(1), i32(2)}}},
	}
	mustFail(t, errors.KindInternal, func() { Module(newModule("m", fn)) })
}
