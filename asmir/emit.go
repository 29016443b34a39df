package asmir

import (
	"fmt"
	"io"

	"github.com/dhwatson/minic/cerr"
)

// Emit renders a legalized program as AT&T-syntax assembly text to w,
// under the function-symbol conventions named by target.
func Emit(w io.Writer, prog *Program, target Target) error {
	fn := prog.Function
	symbol := target.symbol(fn.Name)

	fmt.Fprintf(w, "\t.globl %s\n", symbol)
	fmt.Fprintf(w, "%s:\n", symbol)
	fmt.Fprintf(w, "\tpushq %%rbp\n")
	fmt.Fprintf(w, "\tmovq %%rsp, %%rbp\n")

	for _, instr := range fn.Body {
		if err := emitInstruction(w, instr); err != nil {
			return err
		}
	}

	// The teacher's assembler requires a trailing blank line after the
	// last directive; harmless, keeps output diff-friendly.
	fmt.Fprintln(w)
	return nil
}

func emitInstruction(w io.Writer, instr Instruction) error {
	switch n := instr.(type) {
	case *AllocateStack:
		fmt.Fprintf(w, "\tsubq $%d, %%rsp\n", n.Size)
		return nil

	case *Mov:
		fmt.Fprintf(w, "\tmovl %s, %s\n", operandText(n.Src, long), operandText(n.Dst, long))
		return nil

	case *Unary:
		fmt.Fprintf(w, "\t%s %s\n", unaryMnemonic(n.Op), operandText(n.Dst, long))
		return nil

	case *Binary:
		srcWidth := long
		if n.Op == Shl || n.Op == Shr {
			if r, ok := n.Src.(Reg); ok && r.Name == CX {
				srcWidth = byteWidth
			}
		}
		fmt.Fprintf(w, "\t%s %s, %s\n", binaryMnemonic(n.Op), operandText(n.Src, srcWidth), operandText(n.Dst, long))
		return nil

	case *Cmp:
		fmt.Fprintf(w, "\tcmpl %s, %s\n", operandText(n.Src, long), operandText(n.Dst, long))
		return nil

	case *Idiv:
		fmt.Fprintf(w, "\tidivl %s\n", operandText(n.Src, long))
		return nil

	case *Cdq:
		fmt.Fprintf(w, "\tcdq\n")
		return nil

	case *Jmp:
		fmt.Fprintf(w, "\tjmp L%s\n", n.Label)
		return nil

	case *JmpCC:
		fmt.Fprintf(w, "\tj%s L%s\n", n.CC.suffix(), n.Label)
		return nil

	case *SetCC:
		fmt.Fprintf(w, "\tmovl $0, %s\n", operandText(n.Dst, long))
		fmt.Fprintf(w, "\tset%s %s\n", n.CC.suffix(), operandText(n.Dst, byteWidth))
		fmt.Fprintf(w, "\tmovzbl %s, %%eax\n", operandText(n.Dst, byteWidth))
		fmt.Fprintf(w, "\tmovl %%eax, %s\n", operandText(n.Dst, long))
		return nil

	case *Label:
		fmt.Fprintf(w, "L%s:\n", n.Name)
		return nil

	case *Ret:
		fmt.Fprintf(w, "\tmovq %%rbp, %%rsp\n")
		fmt.Fprintf(w, "\tpopq %%rbp\n")
		fmt.Fprintf(w, "\tret\n")
		return nil

	default:
		return cerr.New(cerr.InternalInvariantViolation, -1, "unhandled assembly instruction %T", instr)
	}
}

// width selects which subregister form a Reg operand prints in.
type width int

const (
	long width = iota
	byteWidth
)

func operandText(op Operand, w width) string {
	switch o := op.(type) {
	case Imm:
		return fmt.Sprintf("$%d", int32(o))
	case Stack:
		return fmt.Sprintf("%d(%%rbp)", int(o))
	case Reg:
		return regText(o.Name, w)
	case Pseudo:
		// Only reachable if ResolvePseudo was skipped; surface the
		// unresolved name rather than panicking, so a misuse shows up
		// immediately in the emitted text instead of crashing the driver.
		return fmt.Sprintf("%%<unresolved:%s>", string(o))
	default:
		return "%<bad-operand>"
	}
}

func regText(name RegName, w width) string {
	if w == byteWidth {
		switch name {
		case AX:
			return "%al"
		case DX:
			return "%dl"
		case CX:
			return "%cl"
		case R10:
			return "%r10b"
		case R11:
			return "%r11b"
		}
	}
	switch name {
	case AX:
		return "%eax"
	case DX:
		return "%edx"
	case CX:
		return "%ecx"
	case R10:
		return "%r10d"
	case R11:
		return "%r11d"
	}
	return "%<bad-reg>"
}

func unaryMnemonic(op UnaryOp) string {
	switch op {
	case Neg:
		return "negl"
	case Not:
		return "notl"
	default:
		return "?"
	}
}

func binaryMnemonic(op BinaryOp) string {
	switch op {
	case Add:
		return "addl"
	case Sub:
		return "subl"
	case Mul:
		return "imull"
	case And:
		return "andl"
	case Or:
		return "orl"
	case Xor:
		return "xorl"
	case Shl:
		return "sall"
	case Shr:
		return "sarl"
	default:
		return "?"
	}
}
