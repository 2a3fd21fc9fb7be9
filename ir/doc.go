// Package ir is the low-level intermediate representation produced by the
// translator and consumed by code generators.
//
// The model follows the usual SSA layout: a Module owns Functions and
// Aliases, a Function owns Blocks, a Block owns a straight-line list of
// Instructions ending in at most one terminator. Values are typed; scalar
// types are the singletons Void, I1, I32, I64, Float and Double, so two
// scalar types can be compared with ==.
//
// Instructions are appended with a Builder positioned at a block:
//
//	mod := ir.NewModule("demo")
//	fn := mod.NewFunction("answer", ir.NewFuncType(ir.I32), ir.ExternalLinkage)
//	b := ir.NewBuilder(fn.AppendBlock("entry"))
//	b.CreateRet(ir.NewConstInt(ir.I32, 42))
//
// Module.String renders an LLVM-flavored listing and Verify checks the
// structural rules a backend relies on.
//
// A Module is not safe for concurrent mutation.
package ir
