package wast

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/WebAssembly/wasm-aot-prototype/ast"
)

// ParseLiteral parses the text of a T.const operand into its bit pattern.
//
// Integers accept decimal and 0x forms only, signed or unsigned, with '_'
// separators; a leading zero is still decimal and out-of-range values are
// rejected. Floats accept decimal and hexadecimal forms plus inf, nan and
// nan:0xPAYLOAD, each optionally signed.
func ParseLiteral(t ast.ValueType, text string) (ast.Literal, error) {
	switch t {
	case ast.I32:
		bits, err := parseInt(text, 32)
		return ast.Literal{Type: t, Bits: bits}, err
	case ast.I64:
		bits, err := parseInt(text, 64)
		return ast.Literal{Type: t, Bits: bits}, err
	case ast.F32:
		bits, err := parseFloat(text, 32)
		return ast.Literal{Type: t, Bits: bits}, err
	case ast.F64:
		bits, err := parseFloat(text, 64)
		return ast.Literal{Type: t, Bits: bits}, err
	}
	return ast.Literal{}, fmt.Errorf("no literal syntax for %s", t)
}

func splitSign(text string) (neg bool, rest string) {
	switch {
	case strings.HasPrefix(text, "-"):
		return true, text[1:]
	case strings.HasPrefix(text, "+"):
		return false, text[1:]
	}
	return false, text
}

// parseInt returns the two's complement bits of text in the given width.
// Both signed and unsigned spellings of the same pattern are accepted.
func parseInt(text string, width int) (uint64, error) {
	neg, digits := splitSign(strings.ReplaceAll(text, "_", ""))
	if digits == "" || strings.HasPrefix(digits, "-") || strings.HasPrefix(digits, "+") {
		return 0, fmt.Errorf("invalid integer")
	}
	base := 10
	if hex, ok := cutHexPrefix(digits); ok {
		base, digits = 16, hex
	}
	mag, err := strconv.ParseUint(digits, base, width)
	if err != nil {
		return 0, fmt.Errorf("invalid i%d literal", width)
	}
	if !neg {
		return mag, nil
	}
	if mag > 1<<(width-1) {
		return 0, fmt.Errorf("i%d literal out of range", width)
	}
	mask := uint64(math.MaxUint64) >> (64 - width)
	return -mag & mask, nil
}

func cutHexPrefix(s string) (string, bool) {
	if rest, ok := strings.CutPrefix(s, "0x"); ok {
		return rest, true
	}
	return strings.CutPrefix(s, "0X")
}

// parseFloat returns the IEEE-754 bits of text as binary32 or binary64.
func parseFloat(text string, width int) (uint64, error) {
	neg, body := splitSign(strings.ReplaceAll(text, "_", ""))

	var sign, expMask, quiet, fracMask uint64
	if width == 32 {
		sign, expMask, quiet, fracMask = 1<<31, 0x7F800000, 0x00400000, 0x007FFFFF
	} else {
		sign, expMask, quiet, fracMask = 1<<63, 0x7FF0000000000000, 0x0008000000000000, 0x000FFFFFFFFFFFFF
	}
	if !neg {
		sign = 0
	}

	switch {
	case body == "inf":
		return sign | expMask, nil
	case body == "nan":
		return sign | expMask | quiet, nil
	case strings.HasPrefix(body, "nan:0x"):
		payload, err := strconv.ParseUint(body[len("nan:0x"):], 16, 64)
		if err != nil || payload == 0 || payload > fracMask {
			return 0, fmt.Errorf("invalid NaN payload")
		}
		return sign | expMask | payload, nil
	}

	if body == "" || body[0] < '0' || body[0] > '9' {
		return 0, fmt.Errorf("invalid f%d literal", width)
	}
	// Go requires a binary exponent on hex floats
	if strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X") {
		if !strings.ContainsAny(body, "pP") {
			body += "p0"
		}
	}
	v, err := strconv.ParseFloat(body, width)
	if err != nil {
		return 0, fmt.Errorf("invalid f%d literal", width)
	}
	if width == 32 {
		return sign | uint64(math.Float32bits(float32(v))), nil
	}
	return sign | math.Float64bits(v), nil
}
