package asmir

// Legalize rewrites operand forms the target ISA can't encode directly -
// memory-to-memory moves, an immediate idiv divisor, an immediate cmp
// destination, a non-%ecx shift count, and a memory-destination imul -
// and prepends the function's AllocateStack prologue instruction. It must
// run after ResolvePseudo: every Pseudo operand must already be a Stack
// slot by the time it sees the instruction list.
func Legalize(prog *Program, frameSize int) *Program {
	var body []Instruction
	body = append(body, &AllocateStack{Size: frameSize})

	for _, instr := range prog.Function.Body {
		body = append(body, legalizeInstruction(instr)...)
	}

	return &Program{Function: &Function{Name: prog.Function.Name, Body: body}}
}

func isStack(op Operand) bool {
	_, ok := op.(Stack)
	return ok
}

func isImm(op Operand) bool {
	_, ok := op.(Imm)
	return ok
}

func legalizeInstruction(instr Instruction) []Instruction {
	switch n := instr.(type) {
	case *Mov:
		if isStack(n.Src) && isStack(n.Dst) {
			return []Instruction{
				&Mov{Src: n.Src, Dst: Reg{Name: R10}},
				&Mov{Src: Reg{Name: R10}, Dst: n.Dst},
			}
		}
		return []Instruction{n}

	case *Binary:
		return legalizeBinary(n)

	case *Idiv:
		if isImm(n.Src) {
			return []Instruction{
				&Mov{Src: n.Src, Dst: Reg{Name: R10}},
				&Idiv{Src: Reg{Name: R10}},
			}
		}
		return []Instruction{n}

	case *Cmp:
		return legalizeCmp(n)

	default:
		return []Instruction{instr}
	}
}

func legalizeBinary(n *Binary) []Instruction {
	switch n.Op {
	case Shl, Shr:
		if r, ok := n.Src.(Reg); ok && r.Name == CX {
			return []Instruction{n}
		}
		// The shift count must be in %cl; stage anything else through it.
		return []Instruction{
			&Mov{Src: n.Src, Dst: Reg{Name: CX}},
			&Binary{Op: n.Op, Src: Reg{Name: CX}, Dst: n.Dst},
		}

	case Mul:
		if isStack(n.Dst) {
			src := n.Src
			var staging []Instruction
			if isStack(src) {
				staging = append(staging, &Mov{Src: src, Dst: Reg{Name: R10}})
				src = Reg{Name: R10}
			}
			return append(staging,
				&Mov{Src: n.Dst, Dst: Reg{Name: R11}},
				&Binary{Op: Mul, Src: src, Dst: Reg{Name: R11}},
				&Mov{Src: Reg{Name: R11}, Dst: n.Dst},
			)
		}
		return []Instruction{n}

	default: // Add, Sub, And, Or, Xor
		if isStack(n.Src) && isStack(n.Dst) {
			return []Instruction{
				&Mov{Src: n.Src, Dst: Reg{Name: R10}},
				&Binary{Op: n.Op, Src: Reg{Name: R10}, Dst: n.Dst},
			}
		}
		return []Instruction{n}
	}
}

func legalizeCmp(n *Cmp) []Instruction {
	switch {
	case isStack(n.Src) && isStack(n.Dst):
		return []Instruction{
			&Mov{Src: n.Src, Dst: Reg{Name: R10}},
			&Cmp{Src: Reg{Name: R10}, Dst: n.Dst},
		}
	case isImm(n.Dst):
		return []Instruction{
			&Mov{Src: n.Dst, Dst: Reg{Name: R11}},
			&Cmp{Src: n.Src, Dst: Reg{Name: R11}},
		}
	default:
		return []Instruction{n}
	}
}
