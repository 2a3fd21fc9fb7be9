package runner

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/WebAssembly/wasm-aot-prototype/ast"
	"github.com/WebAssembly/wasm-aot-prototype/errors"
)

func nop(context.Context, []uint64) (uint64, error) { return 0, nil }

func TestRegister(t *testing.T) {
	r := NewHostRegistry()
	sig := Signature{Params: []ast.ValueType{ast.I32}}
	if err := r.Register("env", "f", sig, nop); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tests := []struct {
		name   string
		module string
		fn     string
		sig    Signature
		host   HostFunc
	}{
		{"duplicate", "env", "f", sig, nop},
		{"nil function", "env", "g", sig, nil},
		{"void parameter", "env", "h", Signature{Params: []ast.ValueType{ast.Void}}, nop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Register(tt.module, tt.fn, tt.sig, tt.host)
			var e *errors.Error
			if !errors.As(err, &e) || e.Kind != errors.KindRegistration {
				t.Fatalf("got %v", err)
			}
		})
	}

	if r.Lookup("env", "f") == nil || r.Lookup("env", "g") != nil {
		t.Error("Lookup after failed registrations")
	}
	var empty *HostRegistry
	if empty.Lookup("env", "f") != nil || empty.Modules() != nil {
		t.Error("nil registry is not empty")
	}
}

func TestSpectestRegistry(t *testing.T) {
	var out bytes.Buffer
	r := NewHostRegistry()
	if err := r.RegisterSpectest(&out); err != nil {
		t.Fatalf("RegisterSpectest: %v", err)
	}
	if err := r.RegisterSpectest(&out); err == nil {
		t.Error("second RegisterSpectest succeeded")
	}
	if got := r.Modules(); len(got) != 1 || got[0] != "spectest" {
		t.Errorf("Modules() = %v", got)
	}
	funcs := r.Funcs("spectest")
	if len(funcs) != 7 || funcs[0].Name != "print" {
		t.Fatalf("Funcs() = %d entries", len(funcs))
	}

	def := r.Lookup("spectest", "print_f64_f64")
	if _, err := def.Fn(context.Background(), []uint64{math.Float64bits(1.5), math.Float64bits(-2)}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Lookup("spectest", "print").Fn(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if out.String() != "f64:1.5 f64:-2\n\n" {
		t.Errorf("output = %q", out.String())
	}

	variadic := r.Lookup("spectest", "print")
	if !variadic.Variadic || def.Variadic {
		t.Errorf("Variadic = %v for print, %v for print_f64_f64", variadic.Variadic, def.Variadic)
	}
	if same, _ := def.Bind(Signature{}); same != def {
		t.Error("Bind changed a fixed definition")
	}
	bound, err := variadic.Bind(Signature{Params: []ast.ValueType{ast.I64, ast.F32}})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	out.Reset()
	if _, err := bound.Fn(context.Background(), []uint64{5, uint64(math.Float32bits(0.25))}); err != nil {
		t.Fatal(err)
	}
	if out.String() != "i64:5 f32:0.25\n" {
		t.Errorf("bound output = %q", out.String())
	}
}

func TestMissing(t *testing.T) {
	r := NewHostRegistry()
	_ = r.Register("env", "a", Signature{}, nop)
	got := r.missing([]Import{{"env", "a"}, {"env", "b"}, {"other", "a"}})
	if len(got) != 2 || got[0] != (errors.MissingImport{Module: "env", Function: "b"}) || got[1].Module != "other" {
		t.Errorf("missing = %+v", got)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		typ  ast.ValueType
		bits uint64
		want string
	}{
		{ast.I32, 0xFFFFFFFF, "i32:-1"},
		{ast.I32, 42, "i32:42"},
		{ast.I64, 1 << 63, "i64:-9223372036854775808"},
		{ast.F32, uint64(math.Float32bits(0.25)), "f32:0.25"},
		{ast.F32, 0x7FC00001, "f32:nan(0x7fc00001)"},
		{ast.F64, math.Float64bits(math.Inf(-1)), "f64:-Inf"},
		{ast.Void, 0, "void"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatValue(tt.typ, tt.bits); got != tt.want {
				t.Errorf("FormatValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		typ     ast.ValueType
		text    string
		want    uint64
		wantErr bool
	}{
		{ast.I32, "-1", 0xFFFFFFFF, false},
		{ast.I32, " 0x10 ", 16, false},
		{ast.I64, "-2", 0xFFFFFFFFFFFFFFFE, false},
		{ast.F64, "0.5", math.Float64bits(0.5), false},
		{ast.I32, "4294967296", 0, true},
		{ast.F32, "abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, err := ParseValue(tt.typ, tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseValue() = %#x, want %#x", got, tt.want)
			}
		})
	}
}

func TestSignatureString(t *testing.T) {
	sig := Signature{Params: []ast.ValueType{ast.I32, ast.F64}, Result: ast.I64}
	if got := sig.String(); got != "(i32, f64) -> i64" {
		t.Errorf("String() = %q", got)
	}
}
