//go:build llvm

package llvmgen

import (
	"strings"
	"testing"

	"github.com/WebAssembly/wasm-aot-prototype/ir"
	"github.com/WebAssembly/wasm-aot-prototype/translate"
	"github.com/WebAssembly/wasm-aot-prototype/wast"
)

const script = `
(module $m
  (import $twice "env" "twice" (param i32) (result i32))
  (func $add (param $a i32) (result i32) (local $t i64)
    (call_import $twice (i32.const 21)))
  (func $nan (result f32) (f32.const nan:0x400001))
  (export "add" $add)
  (export "nan" $nan))
(assert_eq (invoke "add" (i32.const 1)) (i32.const 42))
`

func TestGenerate(t *testing.T) {
	s, err := wast.Parse(script)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	m, _ := translate.Script(s.Entries[0])
	out, err := Generate(m)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	text := string(out)
	for _, want := range []string{
		"declare i32 @.env.twice(i32)",
		"define internal i32 @add(i32 %a)",
		"@.m.add = alias",
		"alloca i64",
		"icmp eq i32",
		"define void @AssertEq()",
		"define i32 @Invoke()",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output lacks %q:\n%s", want, text)
		}
	}
}

func TestGenerateBitcode(t *testing.T) {
	m := ir.NewModule("m")
	f := m.NewFunction("f", ir.NewFuncType(ir.I32), ir.ExternalLinkage)
	ir.NewBuilder(f.AppendBlock("entry")).CreateRet(ir.NewConstInt(ir.I32, 1))
	out, err := GenerateWithConfig(m, &Config{Bitcode: true})
	if err != nil {
		t.Fatalf("GenerateWithConfig: %v", err)
	}
	if len(out) < 4 || string(out[:2]) != "BC" {
		t.Errorf("not bitcode: %x", out[:4])
	}
}

func TestGenerateRejectsUnverified(t *testing.T) {
	m := ir.NewModule("m")
	m.NewFunction("f", ir.NewFuncType(ir.Void), ir.ExternalLinkage).AppendBlock("entry")
	if _, err := Generate(m); err == nil {
		t.Fatal("expected verification error")
	}
}
