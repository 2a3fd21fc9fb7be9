package ir

import (
	"fmt"
	"math"
	"strings"
)

// String renders the module as an LLVM-flavored listing.
func (m *Module) String() string {
	var b strings.Builder
	p := &printer{w: &b, globals: globalSlots(m)}
	p.module(m)
	return b.String()
}

// String renders a single function.
func (f *Function) String() string {
	var b strings.Builder
	p := &printer{w: &b, globals: globalSlots(f.module)}
	p.function(f)
	return b.String()
}

type printer struct {
	w       *strings.Builder
	globals map[*Function]int
	slots   map[Value]int
}

// globalSlots numbers anonymous functions in declaration order.
func globalSlots(m *Module) map[*Function]int {
	slots := make(map[*Function]int)
	if m == nil {
		return slots
	}
	for _, f := range m.Functions {
		if f.name == "" {
			slots[f] = len(slots)
		}
	}
	return slots
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *printer) module(m *Module) {
	p.printf("; ModuleID = '%s'\n", m.Name)
	if len(m.Aliases) > 0 {
		p.printf("\n")
	}
	for _, a := range m.Aliases {
		link := ""
		if a.Linkage == InternalLinkage {
			link = "internal "
		}
		p.printf("@%s = %salias %s, ptr %s\n", symbolName(a.name), link, a.ValueType(), p.global(a.Aliasee))
	}
	for _, f := range m.Functions {
		p.printf("\n")
		p.function(f)
	}
}

func (p *printer) global(f *Function) string {
	if f.name == "" {
		return fmt.Sprintf("@%d", p.globals[f])
	}
	return "@" + symbolName(f.name)
}

func (p *printer) function(f *Function) {
	p.number(f)
	keyword := "define"
	if f.IsDeclaration() {
		keyword = "declare"
	}
	link := ""
	if f.Linkage == InternalLinkage {
		link = "internal "
	}
	p.printf("%s %s%s %s(", keyword, link, f.Sig.Result, p.global(f))
	for i, a := range f.Params {
		if i > 0 {
			p.printf(", ")
		}
		if f.IsDeclaration() {
			p.printf("%s", a.typ)
			continue
		}
		p.printf("%s %s", a.typ, p.local(a))
	}
	p.printf(")")
	if f.IsDeclaration() {
		p.printf("\n")
		return
	}
	p.printf(" {\n")
	for i, b := range f.Blocks {
		if i > 0 {
			p.printf("\n")
		}
		p.printf("%s:\n", p.label(b))
		for _, in := range b.Instrs {
			p.printf("  %s\n", p.instruction(in))
		}
	}
	p.printf("}\n")
}

// number assigns slot numbers to unnamed arguments, blocks and
// value-producing instructions.
func (p *printer) number(f *Function) {
	p.slots = make(map[Value]int)
	next := 0
	for _, a := range f.Params {
		if a.name == "" {
			p.slots[a] = next
			next++
		}
	}
	for _, b := range f.Blocks {
		if b.Name == "" {
			p.slots[blockKey{b}] = next
			next++
		}
		for _, in := range b.Instrs {
			if in.Name() == "" && !IsVoid(in.Type()) {
				p.slots[in] = next
				next++
			}
		}
	}
}

type blockKey struct{ b *Block }

func (blockKey) Type() Type   { return Void }
func (blockKey) Name() string { return "" }

func (p *printer) label(b *Block) string {
	if b.Name != "" {
		return b.Name
	}
	return fmt.Sprint(p.slots[blockKey{b}])
}

func (p *printer) local(v Value) string {
	if v.Name() != "" {
		return "%" + symbolName(v.Name())
	}
	return fmt.Sprintf("%%%d", p.slots[v])
}

func (p *printer) operand(v Value) string {
	switch v := v.(type) {
	case *ConstInt:
		if v.Typ.Bits == 1 {
			if v.Bits != 0 {
				return "true"
			}
			return "false"
		}
		return fmt.Sprint(v.Int64())
	case *ConstFloat:
		return floatLiteral(v)
	case *Undef:
		return "undef"
	case *Function:
		return p.global(v)
	case *Alias:
		return "@" + symbolName(v.name)
	default:
		return p.local(v)
	}
}

func (p *printer) typed(v Value) string {
	return v.Type().String() + " " + p.operand(v)
}

func (p *printer) instruction(in Instruction) string {
	lhs := ""
	if !IsVoid(in.Type()) {
		lhs = p.local(in) + " = "
	}
	switch in := in.(type) {
	case *Alloca:
		return lhs + "alloca " + in.Allocated.String()
	case *Call:
		args := make([]string, len(in.Args))
		for i, a := range in.Args {
			args[i] = p.typed(a)
		}
		return fmt.Sprintf("%scall %s %s(%s)", lhs, in.Callee.Sig.Result, p.global(in.Callee), strings.Join(args, ", "))
	case *Ret:
		if in.Val == nil {
			return "ret void"
		}
		return "ret " + p.typed(in.Val)
	case *ICmp:
		return fmt.Sprintf("%sicmp %s %s, %s", lhs, in.Pred, p.typed(in.X), p.operand(in.Y))
	case *FCmp:
		return fmt.Sprintf("%sfcmp %s %s, %s", lhs, in.Pred, p.typed(in.X), p.operand(in.Y))
	}
	return fmt.Sprintf("; unknown instruction %T", in)
}

// floatLiteral prints a float constant as the hex bits of its double
// representation, which is exact for both widths including NaN payloads.
func floatLiteral(c *ConstFloat) string {
	bits := c.Bits
	if c.Typ.Bits == 32 {
		bits = widenFloatBits(uint32(c.Bits))
	}
	return fmt.Sprintf("0x%016X", bits)
}

// widenFloatBits converts binary32 bits to binary64 bits without going
// through arithmetic, so signaling NaNs keep their payload.
func widenFloatBits(b uint32) uint64 {
	sign := uint64(b>>31) << 63
	exp := (b >> 23) & 0xFF
	frac := uint64(b & 0x7FFFFF)
	switch exp {
	case 0xFF:
		return sign | 0x7FF<<52 | frac<<29
	case 0:
		if frac == 0 {
			return sign
		}
		return math.Float64bits(float64(math.Float32frombits(b)))
	default:
		return sign | (uint64(exp)+1023-127)<<52 | frac<<29
	}
}
