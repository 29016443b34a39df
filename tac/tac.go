// Package tac defines three-address code: a flat instruction list in
// which every operation names at most one destination and two sources.
// It is the last IR that still has "values" in the AST sense; the
// assembly-IR stage below it only has machine operands.
package tac

import "fmt"

// UnaryOp is the set of unary operators a TAC Unary instruction can carry.
type UnaryOp int

const (
	Negate UnaryOp = iota
	Complement
	LogicalNot
)

// BinaryOp is the set of binary operators a TAC Binary instruction can
// carry.  LogicalAnd/LogicalOr never appear here - they're lowered to
// short-circuiting jumps at TAC-generation time instead.
type BinaryOp int

const (
	Add BinaryOp = iota
	Subtract
	Multiply
	Divide
	Modulo
	BitwiseAnd
	BitwiseOr
	BitwiseXor
	LeftShift
	RightShift
	Equal
	NotEqual
	LessThan
	LessOrEqual
	GreaterThan
	GreaterOrEqual
)

// Val is one of: Constant, Identifier. String is never called directly by
// this package; it exists so compiler.Compile's -debug spew.Fdump of a
// *Program renders a Val as its literal/name instead of a raw struct.
type Val interface {
	valNode()
	String() string
}

// Constant is a literal 32-bit value.
type Constant int32

func (Constant) valNode()      {}
func (c Constant) String() string { return fmt.Sprintf("%d", int32(c)) }

// Identifier names a resolved user variable or a compiler-generated
// temporary/label ("tmp.N" / "label.N").
type Identifier string

func (Identifier) valNode()        {}
func (id Identifier) String() string { return string(id) }

// Instruction is one of: Return, Unary, Binary, Copy, Jump, JumpIfZero,
// JumpIfNotZero, Label.
type Instruction interface {
	instructionNode()
}

type Return struct {
	Val Val
}

func (*Return) instructionNode() {}

type Unary struct {
	Op  UnaryOp
	Src Val
	Dst Identifier
}

func (*Unary) instructionNode() {}

type Binary struct {
	Op   BinaryOp
	Src1 Val
	Src2 Val
	Dst  Identifier
}

func (*Binary) instructionNode() {}

type Copy struct {
	Src Val
	Dst Identifier
}

func (*Copy) instructionNode() {}

type Jump struct {
	Label string
}

func (*Jump) instructionNode() {}

type JumpIfZero struct {
	Src   Val
	Label string
}

func (*JumpIfZero) instructionNode() {}

type JumpIfNotZero struct {
	Src   Val
	Label string
}

func (*JumpIfNotZero) instructionNode() {}

type Label struct {
	Name string
}

func (*Label) instructionNode() {}

// Function is a flat instruction list for a single function.
type Function struct {
	Name string
	Body []Instruction
}

// Program is a single function - this subset supports only `main`.
type Program struct {
	Function *Function
}
