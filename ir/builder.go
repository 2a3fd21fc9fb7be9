package ir

// Builder appends instructions at the end of its current block.
//
// It performs no checking; malformed sequences are reported by Verify.
type Builder struct {
	block *Block
}

// NewBuilder creates a builder positioned at the end of b.
func NewBuilder(b *Block) *Builder {
	return &Builder{block: b}
}

// SetInsertPoint moves the builder to the end of b.
func (b *Builder) SetInsertPoint(bb *Block) { b.block = bb }

// Block returns the current insertion block.
func (b *Builder) Block() *Block { return b.block }

// CreateAlloca reserves a stack slot of type t.
func (b *Builder) CreateAlloca(t Type, name string) *Alloca {
	a := &Alloca{Allocated: t}
	b.block.append(a, name)
	return a
}

// CreateCall calls fn with args.
func (b *Builder) CreateCall(fn *Function, args []Value) *Call {
	c := &Call{Callee: fn, Args: args}
	b.block.append(c, "")
	return c
}

// CreateRet returns v from the current function.
func (b *Builder) CreateRet(v Value) *Ret {
	r := &Ret{Val: v}
	b.block.append(r, "")
	return r
}

// CreateRetVoid returns from a void function.
func (b *Builder) CreateRetVoid() *Ret {
	r := &Ret{}
	b.block.append(r, "")
	return r
}

// CreateICmpEQ compares two integers for equality.
func (b *Builder) CreateICmpEQ(x, y Value) *ICmp {
	c := &ICmp{X: x, Y: y, Pred: IntEQ}
	b.block.append(c, "")
	return c
}

// CreateFCmpOEQ compares two floats for ordered equality.
func (b *Builder) CreateFCmpOEQ(x, y Value) *FCmp {
	c := &FCmp{X: x, Y: y, Pred: FloatOEQ}
	b.block.append(c, "")
	return c
}
