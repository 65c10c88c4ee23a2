package scenario

import (
	"github.com/orozery/paramodai/internal/instr"
	"github.com/orozery/paramodai/internal/term"
)

// FindLast builds a synthetic analog of
// original_source/benchmarks/find_last/test.py: a function that takes a
// node pointer (parameter at stk_4) and a target value (parameter at
// stk_8), and is guaranteed — by this synthetic program's construction —
// to return a pointer whose pointee equals the target. The real benchmark
// walks a linked list searching for the last node equal to the target,
// looping back to a search head on mismatch; this version keeps the same
// comparison/return shape but only the match edge leads on to the return,
// the "no match" edge instead parking in a self-loop that never exits, since
// this module never decodes the real binary to recover the loop's actual
// body. Grounded on find_last/test.py's proof goal: a returned non-null
// pointer's pointee equals the target.
func FindLast() *Scenario {
	const entry = 0x1000

	head := term.StackSlot(4)
	target := term.StackSlot(8)
	ecx := term.Atomic("ECX")
	cmp1 := term.Atomic("cmp1")
	cmp2 := term.Atomic("cmp2")

	insns := []instr.Instruction{
		instr.NewGeneric(entry, 4, []instr.Assignment{{Dst: ecx, Src: head}}),
		instr.NewGeneric(entry+4, 4, []instr.Assignment{
			{Dst: cmp1, Src: term.Deref(ecx)},
			{Dst: cmp2, Src: target},
		}),
		instr.NewCondJmp(entry+8, 4, entry+0x10,
			instr.Assertion{Cond: "eq", Lhs: cmp1, Rhs: cmp2},
			instr.Assertion{Cond: "ne", Lhs: cmp1, Rhs: cmp2}),
		instr.NewJmp(entry+0xc, 4, entry+0xc), // park self-loop (no-match path)
		instr.NewGeneric(entry+0x10, 4, []instr.Assignment{{Dst: instr.EAX, Src: ecx}}),
		instr.NewRet(entry+0x14, 4, 0),
	}

	return &Scenario{
		Name:      "find_last",
		Container: newContainer(map[string]int64{"find_last": entry}, insns...),
		EntryFunc: "find_last",
	}
}
