package ir

import (
	"math"
	"strings"
	"testing"
)

func TestModuleSymbolUniquing(t *testing.T) {
	m := NewModule("test")
	sig := NewFuncType(Void)

	a := m.NewFunction("Invoke", sig, ExternalLinkage)
	b := m.NewFunction("Invoke", sig, ExternalLinkage)
	c := m.NewFunction("Invoke", sig, ExternalLinkage)

	if a.Name() != "Invoke" || b.Name() != "Invoke.1" || c.Name() != "Invoke.2" {
		t.Fatalf("names = %q %q %q", a.Name(), b.Name(), c.Name())
	}
	if m.Function("Invoke.1") != b {
		t.Error("lookup by unique name failed")
	}

	anon1 := m.NewFunction("", sig, InternalLinkage)
	anon2 := m.NewFunction("", sig, InternalLinkage)
	if anon1.Name() != "" || anon2.Name() != "" {
		t.Error("anonymous functions should stay anonymous")
	}
}

func TestFunctionSetName(t *testing.T) {
	m := NewModule("test")
	f := m.NewFunction("print", NewFuncType(Void, I32), ExternalLinkage)
	f.SetName(".spectest.print")

	if m.Function("print") != nil {
		t.Error("old name still registered")
	}
	if m.Function(".spectest.print") != f {
		t.Error("new name not registered")
	}

	g := m.NewFunction("", NewFuncType(Void), ExternalLinkage)
	g.SetName(".spectest.print")
	if g.Name() != ".spectest.print.1" {
		t.Errorf("renamed duplicate = %q", g.Name())
	}
}

func TestLocalNames(t *testing.T) {
	m := NewModule("test")
	f := m.NewFunction("f", NewFuncType(Void, I32, I32), InternalLinkage)
	f.Param(0).SetName("x")
	f.Param(1).SetName("x")
	if f.Param(1).Name() != "x1" {
		t.Errorf("duplicate arg name = %q, want x1", f.Param(1).Name())
	}

	b := NewBuilder(f.AppendBlock("entry"))
	a1 := b.CreateAlloca(I64, "v2")
	a2 := b.CreateAlloca(I64, "v2")
	if a1.Name() != "v2" || a2.Name() != "v2.1" {
		t.Errorf("alloca names = %q %q", a1.Name(), a2.Name())
	}
}

func TestConstInt(t *testing.T) {
	tests := []struct {
		name   string
		typ    *IntType
		in     uint64
		signed int64
		bits   uint64
	}{
		{"i32 max", I32, math.MaxInt32, math.MaxInt32, 0x7FFFFFFF},
		{"i32 minus one", I32, uint64(uint32(0xFFFFFFFF)), -1, 0xFFFFFFFF},
		{"i32 min", I32, 0x80000000, math.MinInt32, 0x80000000},
		{"i32 truncates", I32, 0x1_0000_0005, 5, 5},
		{"i64 minus one", I64, math.MaxUint64, -1, math.MaxUint64},
		{"i1 true", I1, 1, -1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConstInt(tt.typ, tt.in)
			if c.Int64() != tt.signed {
				t.Errorf("Int64 = %d, want %d", c.Int64(), tt.signed)
			}
			if c.Uint64() != tt.bits {
				t.Errorf("Uint64 = %#x, want %#x", c.Uint64(), tt.bits)
			}
		})
	}
}

func TestConstFloat(t *testing.T) {
	c := NewConstFloat(Float, uint64(math.Float32bits(1.5)))
	if c.Float64() != 1.5 {
		t.Errorf("Float64 = %v", c.Float64())
	}
	d := NewConstFloat(Double, math.Float64bits(-2.25))
	if d.Float64() != -2.25 {
		t.Errorf("Float64 = %v", d.Float64())
	}
}

func TestWidenFloatBits(t *testing.T) {
	for _, v := range []float32{0, 1, -1, 1.5, 3.4028235e38, 1e-45, float32(math.Inf(1)), float32(math.Inf(-1))} {
		got := widenFloatBits(math.Float32bits(v))
		want := math.Float64bits(float64(v))
		if got != want {
			t.Errorf("widen(%v) = %#x, want %#x", v, got, want)
		}
	}

	// signaling NaN payload survives
	got := widenFloatBits(0x7FA00001)
	if got != 0x7FF4000020000000 {
		t.Errorf("widen(sNaN) = %#x", got)
	}
}

func buildSample() *Module {
	m := NewModule("sample")

	imp := m.NewFunction("", NewFuncType(I32, I32), ExternalLinkage)
	imp.SetName(".env.twice")

	add := m.NewFunction("add", NewFuncType(I32, I32, I32), InternalLinkage)
	add.Param(0).SetName("a")
	b := NewBuilder(add.AppendBlock("entry"))
	b.CreateAlloca(I64, "tmp")
	call := b.CreateCall(imp, []Value{add.Param(1)})
	b.CreateRet(call)

	m.NewAlias(".sample.add", ExternalLinkage, add)
	return m
}

func TestModuleString(t *testing.T) {
	got := buildSample().String()
	want := `; ModuleID = 'sample'

@.sample.add = alias i32 (i32, i32), ptr @add

declare i32 @.env.twice(i32)

define internal i32 @add(i32 %a, i32 %0) {
entry:
  %tmp = alloca i64
  %1 = call i32 @.env.twice(i32 %0)
  ret i32 %1
}
`
	if got != want {
		t.Errorf("listing mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestPrintComparisons(t *testing.T) {
	m := NewModule("cmp")
	f := m.NewFunction("AssertEq", NewFuncType(Void), ExternalLinkage)
	b := NewBuilder(f.AppendBlock("entry"))
	b.CreateICmpEQ(NewConstInt(I32, 42), NewConstInt(I32, uint64(uint32(0xFFFFFFFF))))
	b.CreateFCmpOEQ(NewConstFloat(Float, uint64(math.Float32bits(1))), NewConstFloat(Float, uint64(math.Float32bits(1))))
	b.CreateRetVoid()

	got := f.String()
	for _, want := range []string{
		"%0 = icmp eq i32 42, -1",
		"%1 = fcmp oeq float 0x3FF0000000000000, 0x3FF0000000000000",
		"ret void",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("listing missing %q:\n%s", want, got)
		}
	}
}

func TestVerify(t *testing.T) {
	if err := Verify(buildSample()); err != nil {
		t.Fatalf("sample module: %v", err)
	}

	tests := []struct {
		name  string
		build func(m *Module)
		want  string
	}{
		{
			name: "missing terminator",
			build: func(m *Module) {
				f := m.NewFunction("f", NewFuncType(Void), InternalLinkage)
				NewBuilder(f.AppendBlock("entry")).CreateAlloca(I32, "")
			},
			want: "does not end in a terminator",
		},
		{
			name: "empty block",
			build: func(m *Module) {
				m.NewFunction("f", NewFuncType(Void), InternalLinkage).AppendBlock("entry")
			},
			want: "empty block",
		},
		{
			name: "return type mismatch",
			build: func(m *Module) {
				f := m.NewFunction("f", NewFuncType(I32), InternalLinkage)
				NewBuilder(f.AppendBlock("entry")).CreateRet(NewConstInt(I64, 1))
			},
			want: "returned i64",
		},
		{
			name: "void return from i32 function",
			build: func(m *Module) {
				f := m.NewFunction("f", NewFuncType(I32), InternalLinkage)
				NewBuilder(f.AppendBlock("entry")).CreateRetVoid()
			},
			want: "void return",
		},
		{
			name: "terminator in middle",
			build: func(m *Module) {
				f := m.NewFunction("f", NewFuncType(Void), InternalLinkage)
				b := NewBuilder(f.AppendBlock("entry"))
				b.CreateRetVoid()
				b.CreateRetVoid()
			},
			want: "middle of a block",
		},
		{
			name: "call arity",
			build: func(m *Module) {
				g := m.NewFunction("g", NewFuncType(Void, I32), ExternalLinkage)
				f := m.NewFunction("f", NewFuncType(Void), InternalLinkage)
				b := NewBuilder(f.AppendBlock("entry"))
				b.CreateCall(g, nil)
				b.CreateRetVoid()
			},
			want: "got 0 arguments, want 1",
		},
		{
			name: "internal declaration",
			build: func(m *Module) {
				m.NewFunction("g", NewFuncType(Void), InternalLinkage)
			},
			want: "external linkage",
		},
		{
			name: "icmp on floats",
			build: func(m *Module) {
				f := m.NewFunction("f", NewFuncType(Void), InternalLinkage)
				b := NewBuilder(f.AppendBlock("entry"))
				b.CreateICmpEQ(NewConstFloat(Float, 0), NewConstFloat(Float, 0))
				b.CreateRetVoid()
			},
			want: "icmp operands",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModule("bad")
			tt.build(m)
			err := Verify(m)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestTypeEqual(t *testing.T) {
	if !Equal(&IntType{Bits: 32}, I32) {
		t.Error("structurally equal int types differ")
	}
	if Equal(I32, Float) {
		t.Error("i32 == float")
	}
	if !Equal(NewFuncType(I32, I64), NewFuncType(I32, I64)) {
		t.Error("equal signatures differ")
	}
	if Equal(NewFuncType(I32, I64), NewFuncType(I32, I32)) {
		t.Error("different params compare equal")
	}
	if NewFuncType(Void, I32, Double).String() != "void (i32, double)" {
		t.Errorf("got %s", NewFuncType(Void, I32, Double))
	}
}
