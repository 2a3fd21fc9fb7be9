package ir

// Instruction is a Value that lives in a Block.
type Instruction interface {
	Value
	Parent() *Block
	IsTerminator() bool
	Operands() []Value
	setParent(b *Block)
}

type instr struct {
	parent *Block
	name   string
}

func (i *instr) Name() string        { return i.name }
func (i *instr) Parent() *Block      { return i.parent }
func (i *instr) IsTerminator() bool  { return false }
func (i *instr) setParent(b *Block)  { i.parent = b }
func (i *instr) setName(name string) { i.name = name }

// Alloca reserves a stack slot for one value of Allocated type.
type Alloca struct {
	Allocated Type
	instr
}

func (a *Alloca) Type() Type        { return Ptr }
func (a *Alloca) Operands() []Value { return nil }

// Call invokes Callee with Args. Its value is the callee's result.
type Call struct {
	Callee *Function
	Args   []Value
	instr
}

func (c *Call) Type() Type        { return c.Callee.Sig.Result }
func (c *Call) Operands() []Value { return c.Args }

// Ret returns from the enclosing function. Val is nil for a void return.
type Ret struct {
	Val Value
	instr
}

func (r *Ret) Type() Type         { return Void }
func (r *Ret) IsTerminator() bool { return true }

func (r *Ret) Operands() []Value {
	if r.Val == nil {
		return nil
	}
	return []Value{r.Val}
}

// IntPredicate is an integer comparison predicate.
type IntPredicate byte

const (
	IntEQ IntPredicate = iota
	IntNE
)

func (p IntPredicate) String() string {
	if p == IntNE {
		return "ne"
	}
	return "eq"
}

// FloatPredicate is a floating point comparison predicate.
type FloatPredicate byte

const (
	FloatOEQ FloatPredicate = iota
	FloatUNE
)

func (p FloatPredicate) String() string {
	if p == FloatUNE {
		return "une"
	}
	return "oeq"
}

// ICmp compares two integers and yields an i1.
type ICmp struct {
	X, Y Value
	instr
	Pred IntPredicate
}

func (c *ICmp) Type() Type        { return I1 }
func (c *ICmp) Operands() []Value { return []Value{c.X, c.Y} }

// FCmp compares two floats and yields an i1.
type FCmp struct {
	X, Y Value
	instr
	Pred FloatPredicate
}

func (c *FCmp) Type() Type        { return I1 }
func (c *FCmp) Operands() []Value { return []Value{c.X, c.Y} }
