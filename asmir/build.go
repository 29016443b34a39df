package asmir

import (
	"github.com/dhwatson/minic/cerr"
	"github.com/dhwatson/minic/tac"
)

// Build lowers a TAC program to virtual assembly: one TAC instruction
// becomes one or more assembly instructions, and every Val becomes an
// Operand (Constant -> Imm, Identifier -> Pseudo). No register allocation
// happens here; Pseudo operands are resolved to stack slots afterward by
// ResolvePseudo.
func Build(prog *tac.Program) (*Program, error) {
	b := &builder{}
	for _, instr := range prog.Function.Body {
		if err := b.buildInstruction(instr); err != nil {
			return nil, err
		}
	}
	return &Program{Function: &Function{Name: prog.Function.Name, Body: b.body}}, nil
}

type builder struct {
	body []Instruction
}

func (b *builder) emit(instr Instruction) {
	b.body = append(b.body, instr)
}

func operandOf(v tac.Val) (Operand, error) {
	switch val := v.(type) {
	case tac.Constant:
		return Imm(val), nil
	case tac.Identifier:
		return Pseudo(val), nil
	default:
		return nil, cerr.New(cerr.InternalInvariantViolation, -1, "unhandled TAC value %T", v)
	}
}

func (b *builder) buildInstruction(instr tac.Instruction) error {
	switch n := instr.(type) {
	case *tac.Return:
		v, err := operandOf(n.Val)
		if err != nil {
			return err
		}
		b.emit(&Mov{Src: v, Dst: Reg{Name: AX}})
		b.emit(&Ret{})
		return nil

	case *tac.Unary:
		return b.buildUnary(n)

	case *tac.Binary:
		return b.buildBinary(n)

	case *tac.Copy:
		src, err := operandOf(n.Src)
		if err != nil {
			return err
		}
		b.emit(&Mov{Src: src, Dst: Pseudo(n.Dst)})
		return nil

	case *tac.Jump:
		b.emit(&Jmp{Label: n.Label})
		return nil

	case *tac.JumpIfZero:
		src, err := operandOf(n.Src)
		if err != nil {
			return err
		}
		b.emit(&Cmp{Src: Imm(0), Dst: src})
		b.emit(&JmpCC{CC: E, Label: n.Label})
		return nil

	case *tac.JumpIfNotZero:
		src, err := operandOf(n.Src)
		if err != nil {
			return err
		}
		b.emit(&Cmp{Src: Imm(0), Dst: src})
		b.emit(&JmpCC{CC: NE, Label: n.Label})
		return nil

	case *tac.Label:
		b.emit(&Label{Name: n.Name})
		return nil

	default:
		return cerr.New(cerr.InternalInvariantViolation, -1, "unhandled TAC instruction %T", instr)
	}
}

func (b *builder) buildUnary(n *tac.Unary) error {
	src, err := operandOf(n.Src)
	if err != nil {
		return err
	}
	dst := Pseudo(n.Dst)

	if n.Op == tac.LogicalNot {
		b.emit(&Cmp{Src: Imm(0), Dst: src})
		b.emit(&Mov{Src: Imm(0), Dst: dst})
		b.emit(&SetCC{CC: E, Dst: dst})
		return nil
	}

	b.emit(&Mov{Src: src, Dst: dst})
	b.emit(&Unary{Op: unaryOpOf(n.Op), Dst: dst})
	return nil
}

func (b *builder) buildBinary(n *tac.Binary) error {
	dst := Pseudo(n.Dst)
	src1, err := operandOf(n.Src1)
	if err != nil {
		return err
	}
	src2, err := operandOf(n.Src2)
	if err != nil {
		return err
	}

	switch n.Op {
	case tac.Divide:
		b.emit(&Mov{Src: src1, Dst: Reg{Name: AX}})
		b.emit(&Cdq{})
		b.emit(&Idiv{Src: src2})
		b.emit(&Mov{Src: Reg{Name: AX}, Dst: dst})
		return nil

	case tac.Modulo:
		b.emit(&Mov{Src: src1, Dst: Reg{Name: AX}})
		b.emit(&Cdq{})
		b.emit(&Idiv{Src: src2})
		b.emit(&Mov{Src: Reg{Name: DX}, Dst: dst})
		return nil

	case tac.Equal, tac.NotEqual, tac.LessThan, tac.LessOrEqual, tac.GreaterThan, tac.GreaterOrEqual:
		// Cmp src2, src1 then test under the matching cc - this is the
		// one consistently-applied ordering convention for the whole
		// backend; see ccOf.
		b.emit(&Cmp{Src: src2, Dst: src1})
		b.emit(&Mov{Src: Imm(0), Dst: dst})
		b.emit(&SetCC{CC: ccOf(n.Op), Dst: dst})
		return nil

	default:
		b.emit(&Mov{Src: src1, Dst: dst})
		b.emit(&Binary{Op: binaryOpOf(n.Op), Src: src2, Dst: dst})
		return nil
	}
}

func unaryOpOf(op tac.UnaryOp) UnaryOp {
	switch op {
	case tac.Negate:
		return Neg
	case tac.Complement:
		return Not
	default:
		return Neg
	}
}

func binaryOpOf(op tac.BinaryOp) BinaryOp {
	switch op {
	case tac.Add:
		return Add
	case tac.Subtract:
		return Sub
	case tac.Multiply:
		return Mul
	case tac.BitwiseAnd:
		return And
	case tac.BitwiseOr:
		return Or
	case tac.BitwiseXor:
		return Xor
	case tac.LeftShift:
		return Shl
	case tac.RightShift:
		return Shr
	default:
		return Add
	}
}

func ccOf(op tac.BinaryOp) CC {
	switch op {
	case tac.Equal:
		return E
	case tac.NotEqual:
		return NE
	case tac.LessThan:
		return L
	case tac.LessOrEqual:
		return LE
	case tac.GreaterThan:
		return G
	case tac.GreaterOrEqual:
		return GE
	default:
		return E
	}
}
