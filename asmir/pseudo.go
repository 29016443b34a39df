package asmir

// ResolvePseudo walks prog's body and replaces every Pseudo operand with a
// concrete Stack slot, assigning slots in first-use order starting at -4
// and decrementing by 4. It returns the rewritten program together with
// the total frame size (a positive byte count) the emitter's prologue
// needs to reserve.
func ResolvePseudo(prog *Program) (*Program, int) {
	r := &pseudoResolver{slots: make(map[string]Stack)}

	body := make([]Instruction, len(prog.Function.Body))
	for i, instr := range prog.Function.Body {
		body[i] = r.resolveInstruction(instr)
	}

	return &Program{Function: &Function{Name: prog.Function.Name, Body: body}}, -r.next
}

type pseudoResolver struct {
	slots map[string]Stack
	next  int // next (most-negative) offset to hand out; starts at 0, pre-decremented
}

func (r *pseudoResolver) resolve(op Operand) Operand {
	pseudo, ok := op.(Pseudo)
	if !ok {
		return op
	}
	if slot, ok := r.slots[string(pseudo)]; ok {
		return slot
	}
	r.next -= 4
	slot := Stack(r.next)
	r.slots[string(pseudo)] = slot
	return slot
}

func (r *pseudoResolver) resolveInstruction(instr Instruction) Instruction {
	switch n := instr.(type) {
	case *Mov:
		return &Mov{Src: r.resolve(n.Src), Dst: r.resolve(n.Dst)}
	case *Unary:
		return &Unary{Op: n.Op, Dst: r.resolve(n.Dst)}
	case *Binary:
		return &Binary{Op: n.Op, Src: r.resolve(n.Src), Dst: r.resolve(n.Dst)}
	case *Cmp:
		return &Cmp{Src: r.resolve(n.Src), Dst: r.resolve(n.Dst)}
	case *Idiv:
		return &Idiv{Src: r.resolve(n.Src)}
	case *SetCC:
		return &SetCC{CC: n.CC, Dst: r.resolve(n.Dst)}
	case *Cdq, *Jmp, *JmpCC, *Label, *AllocateStack, *Ret:
		return instr
	default:
		return instr
	}
}
