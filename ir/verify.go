package ir

import (
	"fmt"

	"github.com/WebAssembly/wasm-aot-prototype/errors"
)

// Verify checks the structural rules code generators depend on and returns
// the first violation found.
func Verify(m *Module) error {
	for _, f := range m.Functions {
		if err := verifyFunction(m, f); err != nil {
			return err
		}
	}
	for _, a := range m.Aliases {
		if a.Aliasee == nil || a.Aliasee.module != m {
			return fail([]string{"@" + a.name}, "alias target is not a function of this module")
		}
	}
	return nil
}

func verifyFunction(m *Module, f *Function) error {
	path := []string{"@" + functionLabel(f)}
	if f.IsDeclaration() {
		if f.Linkage != ExternalLinkage {
			return fail(path, "declaration must have external linkage")
		}
		return nil
	}
	for _, b := range f.Blocks {
		bpath := append(path[:1:1], b.Name)
		if len(b.Instrs) == 0 {
			return fail(bpath, "empty block")
		}
		for i, in := range b.Instrs {
			if in.IsTerminator() && i != len(b.Instrs)-1 {
				return fail(bpath, "terminator in the middle of a block")
			}
			if in.Parent() != b {
				return fail(bpath, "instruction has wrong parent")
			}
			if err := verifyInstruction(m, f, in); err != nil {
				return fail(bpath, err.Error())
			}
		}
		if b.Terminator() == nil {
			return fail(bpath, "block does not end in a terminator")
		}
	}
	return nil
}

func verifyInstruction(m *Module, f *Function, in Instruction) error {
	switch in := in.(type) {
	case *Alloca:
		if IsVoid(in.Allocated) {
			return fmt.Errorf("alloca of void")
		}
	case *Call:
		if in.Callee.module != m {
			return fmt.Errorf("call to function outside module")
		}
		params := in.Callee.Sig.Params
		if len(in.Args) != len(params) {
			return fmt.Errorf("call to %s: got %d arguments, want %d", functionLabel(in.Callee), len(in.Args), len(params))
		}
		for i, a := range in.Args {
			if a == nil || !Equal(a.Type(), params[i]) {
				return fmt.Errorf("call to %s: argument %d has wrong type", functionLabel(in.Callee), i)
			}
		}
	case *Ret:
		want := f.Sig.Result
		if IsVoid(want) {
			if in.Val != nil {
				return fmt.Errorf("value returned from void function")
			}
			return nil
		}
		if in.Val == nil {
			return fmt.Errorf("void return from function returning %s", want)
		}
		if !Equal(in.Val.Type(), want) {
			return fmt.Errorf("returned %s from function returning %s", in.Val.Type(), want)
		}
	case *ICmp:
		if !IsInteger(in.X.Type()) || !Equal(in.X.Type(), in.Y.Type()) {
			return fmt.Errorf("icmp operands must be integers of one type")
		}
	case *FCmp:
		if in.X.Type().Kind() != FloatKind || !Equal(in.X.Type(), in.Y.Type()) {
			return fmt.Errorf("fcmp operands must be floats of one type")
		}
	}
	return nil
}

func functionLabel(f *Function) string {
	if f.name == "" {
		return "<anonymous>"
	}
	return f.name
}

func fail(path []string, detail string) error {
	return errors.InvalidData(errors.PhaseVerify, path, detail)
}
