package ast

// Expression is one of *Nop, *Block, *Call, *Return or *Const.
type Expression interface {
	expressionNode()
}

// Nop does nothing and produces no value.
type Nop struct{}

// Block sequences Exprs; its value is the value of the last one.
type Block struct {
	Exprs []Expression
}

// Call invokes Callee with Args evaluated left to right.
type Call struct {
	Callee   Callable
	Args     []Expression
	IsImport bool
}

// Return leaves the function. Values holds zero or one expression.
type Return struct {
	Values []Expression
}

// Const produces Literal.
type Const struct {
	Literal Literal
}

func (*Nop) expressionNode()    {}
func (*Block) expressionNode()  {}
func (*Call) expressionNode()   {}
func (*Return) expressionNode() {}
func (*Const) expressionNode()  {}

// Command is a test-script directive: *Invoke or *AssertEq.
type Command interface {
	commandNode()
}

// Invoke calls an exported function with constant-like arguments.
type Invoke struct {
	Callee *Export
	Args   []Expression
	Line   int
}

// AssertEq compares the result of Invoke against Expected.
type AssertEq struct {
	Invoke   *Invoke
	Expected Expression
	Line     int
}

func (*Invoke) commandNode()   {}
func (*AssertEq) commandNode() {}

// Script is a parsed test script: modules followed by the commands that
// refer to their exports. Commands always target the most recent module.
type Script struct {
	Entries []*ScriptEntry
}

// ScriptEntry is one module and the commands that follow it.
type ScriptEntry struct {
	Module   *Module
	Commands []Command
}
