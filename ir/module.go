package ir

import "strconv"

// Linkage controls whether a symbol is visible outside its module.
type Linkage byte

const (
	ExternalLinkage Linkage = iota
	InternalLinkage
)

func (l Linkage) String() string {
	if l == InternalLinkage {
		return "internal"
	}
	return "external"
}

// Module is a translation unit: functions and aliases with unique names.
type Module struct {
	symbols   map[string]any
	Name      string
	Functions []*Function
	Aliases   []*Alias
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{
		Name:    name,
		symbols: make(map[string]any),
	}
}

// NewFunction adds a function without a body. An empty name leaves the
// function anonymous; a taken name gets a ".N" suffix.
func (m *Module) NewFunction(name string, sig *FuncType, linkage Linkage) *Function {
	f := &Function{
		Sig:     sig,
		Linkage: linkage,
		module:  m,
		locals:  make(map[string]struct{}),
	}
	f.Params = make([]*Argument, len(sig.Params))
	for i, t := range sig.Params {
		f.Params[i] = &Argument{typ: t, parent: f, Index: i}
	}
	f.name = m.claim(name, f)
	m.Functions = append(m.Functions, f)
	return f
}

// NewAlias adds a second symbol for aliasee.
func (m *Module) NewAlias(name string, linkage Linkage, aliasee *Function) *Alias {
	a := &Alias{Aliasee: aliasee, Linkage: linkage, module: m}
	a.name = m.claim(name, a)
	m.Aliases = append(m.Aliases, a)
	return a
}

// Function returns the function named name, or nil.
func (m *Module) Function(name string) *Function {
	f, _ := m.symbols[name].(*Function)
	return f
}

// Alias returns the alias named name, or nil.
func (m *Module) Alias(name string) *Alias {
	a, _ := m.symbols[name].(*Alias)
	return a
}

// claim reserves a unique symbol name derived from name.
func (m *Module) claim(name string, sym any) string {
	if name == "" {
		return ""
	}
	unique := name
	for n := 1; ; n++ {
		if _, taken := m.symbols[unique]; !taken {
			break
		}
		unique = name + "." + strconv.Itoa(n)
	}
	m.symbols[unique] = sym
	return unique
}

func (m *Module) release(name string) {
	if name != "" {
		delete(m.symbols, name)
	}
}

// Function is a function definition or, when it has no blocks, a
// declaration of an external symbol.
type Function struct {
	module *Module
	locals map[string]struct{}
	Sig    *FuncType
	// Import names the host function a declaration binds to. The symbol
	// name may be uniqued, so code generators read the pair from here.
	Import  *Import
	name    string
	Params  []*Argument
	Blocks  []*Block
	Linkage Linkage
}

// Import is a (module, field) host import pair.
type Import struct {
	Module string
	Field  string
}

func (f *Function) Type() Type      { return Ptr }
func (f *Function) Name() string    { return f.name }
func (f *Function) Module() *Module { return f.module }

// SetName renames the function, keeping module symbols unique.
func (f *Function) SetName(name string) {
	f.module.release(f.name)
	f.name = f.module.claim(name, f)
}

// Param returns the i-th argument.
func (f *Function) Param(i int) *Argument { return f.Params[i] }

// IsDeclaration reports whether the function has no body.
func (f *Function) IsDeclaration() bool { return len(f.Blocks) == 0 }

// EntryBlock returns the first block, or nil for declarations.
func (f *Function) EntryBlock() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// AppendBlock creates a new block at the end of the function.
func (f *Function) AppendBlock(name string) *Block {
	b := &Block{parent: f, Name: f.uniqueLocal(name)}
	f.Blocks = append(f.Blocks, b)
	return b
}

// uniqueLocal reserves a function-local value name.
func (f *Function) uniqueLocal(name string) string {
	if name == "" {
		return ""
	}
	unique := name
	sep := ""
	if last := name[len(name)-1]; last >= '0' && last <= '9' {
		sep = "."
	}
	for n := 1; ; n++ {
		if _, taken := f.locals[unique]; !taken {
			break
		}
		unique = name + sep + strconv.Itoa(n)
	}
	f.locals[unique] = struct{}{}
	return unique
}

// Instructions returns every instruction of every block in order.
func (f *Function) Instructions() []Instruction {
	var out []Instruction
	for _, b := range f.Blocks {
		out = append(out, b.Instrs...)
	}
	return out
}

// Block is a straight-line instruction sequence.
type Block struct {
	parent *Function
	Name   string
	Instrs []Instruction
}

func (b *Block) Parent() *Function { return b.parent }

// Terminator returns the last instruction if it is a terminator.
func (b *Block) Terminator() Instruction {
	if len(b.Instrs) == 0 {
		return nil
	}
	last := b.Instrs[len(b.Instrs)-1]
	if !last.IsTerminator() {
		return nil
	}
	return last
}

func (b *Block) append(i Instruction, name string) {
	i.setParent(b)
	if name != "" {
		if n, ok := i.(interface{ setName(string) }); ok {
			n.setName(b.parent.uniqueLocal(name))
		}
	}
	b.Instrs = append(b.Instrs, i)
}

// Alias is an additional symbol referring to an existing function.
type Alias struct {
	module  *Module
	Aliasee *Function
	name    string
	Linkage Linkage
}

func (a *Alias) Type() Type   { return Ptr }
func (a *Alias) Name() string { return a.name }

// ValueType returns the signature of the aliased function.
func (a *Alias) ValueType() *FuncType { return a.Aliasee.Sig }

// symbolName renders a global name, quoting it when it is not a plain
// identifier.
func symbolName(name string) string {
	if isPlainIdent(name) {
		return name
	}
	return strconv.Quote(name)
}

func isPlainIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '$', r == '.', r == '_', r == '-':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
