// Package wast parses the S-expression test-script format into an
// ast.Script.
//
// A script is a sequence of modules and commands; commands refer to the
// exports of the module preceding them:
//
//	(module $m
//		(import $print "spectest" "print" (param i32))
//		(func $add (param $a i32) (param $b i32) (result i32)
//			(call_import $print (i32.const 1))
//			(i32.const 3))
//		(export "add" $add))
//	(invoke "add" (i32.const 1) (i32.const 2))
//	(assert_eq (invoke "add" (i32.const 1) (i32.const 2)) (i32.const 3))
//
// Supported expressions: nop, block, call, call_import, return and the four
// T.const forms. assert_return is accepted as a spelling of assert_eq.
// Unnamed modules are named M0, M1, ... in script order.
//
// Malformed input produces an *errors.Error in the parse phase carrying the
// source line.
package wast
