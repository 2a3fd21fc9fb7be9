package runner

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/WebAssembly/wasm-aot-prototype/ast"
	"github.com/WebAssembly/wasm-aot-prototype/wast"
)

// Signature describes a host or exported function. Values cross the
// boundary as raw bits in the wasm calling convention: i32 zero-extended,
// floats as their IEEE-754 pattern.
type Signature struct {
	Params []ast.ValueType
	Result ast.ValueType
}

func (s Signature) String() string {
	params := make([]string, len(s.Params))
	for i, p := range s.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(params, ", "), s.Result)
}

// Export is an exported function of a loaded module.
type Export struct {
	Name string
	Sig  Signature
}

// Import is a function import of a loaded module.
type Import struct {
	Module string
	Name   string
}

// Result is the outcome of calling one harness wrapper.
type Result struct {
	Name  string
	Type  ast.ValueType // ast.Void when the wrapper returns nothing
	Value uint64
}

func (r Result) String() string {
	if r.Type == ast.Void {
		return r.Name + "()"
	}
	return fmt.Sprintf("%s() = %s", r.Name, FormatValue(r.Type, r.Value))
}

// FormatValue renders raw bits of type t as a T.const operand.
func FormatValue(t ast.ValueType, bits uint64) string {
	switch t {
	case ast.I32:
		return t.String() + ":" + strconv.FormatInt(int64(int32(uint32(bits))), 10)
	case ast.I64:
		return t.String() + ":" + strconv.FormatInt(int64(bits), 10)
	case ast.F32:
		return t.String() + ":" + formatFloat(float64(math.Float32frombits(uint32(bits))), uint64(uint32(bits)), 32)
	case ast.F64:
		return t.String() + ":" + formatFloat(math.Float64frombits(bits), bits, 64)
	}
	return "void"
}

func formatFloat(v float64, bits uint64, size int) string {
	if math.IsNaN(v) {
		return fmt.Sprintf("nan(0x%x)", bits)
	}
	return strconv.FormatFloat(v, 'g', -1, size)
}

// ParseValue parses the text of a T.const operand into raw bits.
func ParseValue(t ast.ValueType, text string) (uint64, error) {
	lit, err := wast.ParseLiteral(t, strings.TrimSpace(text))
	if err != nil {
		return 0, err
	}
	return lit.Bits, nil
}
