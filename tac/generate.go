package tac

import (
	"fmt"

	"github.com/dhwatson/minic/ast"
	"github.com/dhwatson/minic/cerr"
)

// generator accumulates the flat instruction list for one function.
// Temporaries and labels are named from the current length of that list,
// which keeps naming a pure function of the AST - see SPEC_FULL.md §4/§9
// for the determinism tradeoff this implies.
type generator struct {
	body []Instruction
}

// Generate lowers a resolved AST into a TAC program.
func Generate(prog *ast.Program) (*Program, error) {
	g := &generator{}

	for _, item := range prog.Function.Body {
		if err := g.lowerBlockItem(item); err != nil {
			return nil, err
		}
	}

	if prog.Function.Name == "main" && !g.hasReturn() {
		g.emit(&Return{Val: Constant(0)})
	}

	return &Program{Function: &Function{Name: prog.Function.Name, Body: g.body}}, nil
}

func (g *generator) hasReturn() bool {
	for _, instr := range g.body {
		if _, ok := instr.(*Return); ok {
			return true
		}
	}
	return false
}

func (g *generator) emit(instr Instruction) {
	g.body = append(g.body, instr)
}

func (g *generator) freshTemp() Identifier {
	return Identifier(fmt.Sprintf("tmp.%d", len(g.body)))
}

func (g *generator) freshLabel() string {
	return fmt.Sprintf("label.%d", len(g.body))
}

func (g *generator) lowerBlockItem(item ast.BlockItem) error {
	switch n := item.(type) {
	case *ast.Declaration:
		return g.lowerDeclaration(n)
	case *ast.StatementItem:
		return g.lowerStatement(n.Statement)
	default:
		return cerr.New(cerr.InternalInvariantViolation, -1, "unhandled block item %T", item)
	}
}

func (g *generator) lowerDeclaration(d *ast.Declaration) error {
	if d.Init == nil {
		return nil
	}
	val, err := g.lowerExp(d.Init)
	if err != nil {
		return err
	}
	g.emit(&Copy{Src: val, Dst: Identifier(d.Name)})
	return nil
}

func (g *generator) lowerStatement(stmt ast.Statement) error {
	switch n := stmt.(type) {
	case *ast.Return:
		val, err := g.lowerExp(n.Exp)
		if err != nil {
			return err
		}
		g.emit(&Return{Val: val})
		return nil

	case *ast.ExpressionStatement:
		_, err := g.lowerExp(n.Exp)
		return err

	case *ast.Null:
		return nil

	default:
		return cerr.New(cerr.InternalInvariantViolation, -1, "unhandled statement %T", stmt)
	}
}

func (g *generator) lowerExp(exp ast.Exp) (Val, error) {
	switch n := exp.(type) {
	case *ast.FactorExp:
		return g.lowerFactor(n.Factor)

	case *ast.Binary:
		switch n.Op {
		case ast.LogicalAnd:
			return g.lowerLogicalAnd(n)
		case ast.LogicalOr:
			return g.lowerLogicalOr(n)
		default:
			return g.lowerOrdinaryBinary(n)
		}

	case *ast.Assignment:
		rv, err := g.lowerExp(n.Right)
		if err != nil {
			return nil, err
		}
		lv, err := g.lowerExp(n.Left)
		if err != nil {
			return nil, err
		}
		dst, ok := lv.(Identifier)
		if !ok {
			return nil, cerr.New(cerr.InternalInvariantViolation, -1, "assignment target lowered to a non-identifier")
		}
		g.emit(&Copy{Src: rv, Dst: dst})
		return dst, nil

	default:
		return nil, cerr.New(cerr.InternalInvariantViolation, -1, "unhandled expression %T", exp)
	}
}

func (g *generator) lowerOrdinaryBinary(n *ast.Binary) (Val, error) {
	lv, err := g.lowerExp(n.Left)
	if err != nil {
		return nil, err
	}
	rv, err := g.lowerExp(n.Right)
	if err != nil {
		return nil, err
	}
	dst := g.freshTemp()
	g.emit(&Binary{Op: binaryOpOf(n.Op), Src1: lv, Src2: rv, Dst: dst})
	return dst, nil
}

// lowerLogicalAnd implements short-circuit evaluation: if the left operand
// is zero the right operand is never evaluated, and if either operand is
// zero the result is 0; otherwise it is 1. The result is only ever
// assigned 0 or 1.
func (g *generator) lowerLogicalAnd(n *ast.Binary) (Val, error) {
	lv, err := g.lowerExp(n.Left)
	if err != nil {
		return nil, err
	}
	falseLabel := g.freshLabel()
	g.emit(&JumpIfZero{Src: lv, Label: falseLabel})

	rv, err := g.lowerExp(n.Right)
	if err != nil {
		return nil, err
	}
	g.emit(&JumpIfZero{Src: rv, Label: falseLabel})

	dst := g.freshTemp()
	g.emit(&Copy{Src: Constant(1), Dst: dst})
	endLabel := g.freshLabel()
	g.emit(&Jump{Label: endLabel})

	g.emit(&Label{Name: falseLabel})
	g.emit(&Copy{Src: Constant(0), Dst: dst})

	g.emit(&Label{Name: endLabel})
	return dst, nil
}

// lowerLogicalOr is the dual of lowerLogicalAnd: if either operand is
// non-zero the result is 1 without evaluating the remaining operand.
func (g *generator) lowerLogicalOr(n *ast.Binary) (Val, error) {
	lv, err := g.lowerExp(n.Left)
	if err != nil {
		return nil, err
	}
	trueLabel := g.freshLabel()
	g.emit(&JumpIfNotZero{Src: lv, Label: trueLabel})

	rv, err := g.lowerExp(n.Right)
	if err != nil {
		return nil, err
	}
	g.emit(&JumpIfNotZero{Src: rv, Label: trueLabel})

	dst := g.freshTemp()
	g.emit(&Copy{Src: Constant(0), Dst: dst})
	endLabel := g.freshLabel()
	g.emit(&Jump{Label: endLabel})

	g.emit(&Label{Name: trueLabel})
	g.emit(&Copy{Src: Constant(1), Dst: dst})

	g.emit(&Label{Name: endLabel})
	return dst, nil
}

func (g *generator) lowerFactor(factor ast.Factor) (Val, error) {
	switch n := factor.(type) {
	case *ast.Int:
		return Constant(n.Value), nil

	case *ast.Unary:
		val, err := g.lowerFactor(n.Operand)
		if err != nil {
			return nil, err
		}
		dst := g.freshTemp()
		g.emit(&Unary{Op: unaryOpOf(n.Op), Src: val, Dst: dst})
		return dst, nil

	case *ast.Parenthesized:
		return g.lowerExp(n.Inner)

	case *ast.Var:
		return Identifier(n.Name), nil

	default:
		return nil, cerr.New(cerr.InternalInvariantViolation, -1, "unhandled factor %T", factor)
	}
}

func unaryOpOf(op ast.UnaryOp) UnaryOp {
	switch op {
	case ast.Negation:
		return Negate
	case ast.Complement:
		return Complement
	case ast.LogicalNot:
		return LogicalNot
	default:
		return Negate
	}
}

func binaryOpOf(op ast.BinaryOp) BinaryOp {
	switch op {
	case ast.Add:
		return Add
	case ast.Subtract:
		return Subtract
	case ast.Multiply:
		return Multiply
	case ast.Divide:
		return Divide
	case ast.Modulo:
		return Modulo
	case ast.BitwiseAnd:
		return BitwiseAnd
	case ast.BitwiseOr:
		return BitwiseOr
	case ast.BitwiseXor:
		return BitwiseXor
	case ast.LeftShift:
		return LeftShift
	case ast.RightShift:
		return RightShift
	case ast.Equal:
		return Equal
	case ast.NotEqual:
		return NotEqual
	case ast.LessThan:
		return LessThan
	case ast.LessOrEqual:
		return LessOrEqual
	case ast.GreaterThan:
		return GreaterThan
	case ast.GreaterOrEqual:
		return GreaterOrEqual
	default:
		return Add
	}
}
