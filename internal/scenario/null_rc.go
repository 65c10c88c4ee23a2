package scenario

import (
	"github.com/orozery/paramodai/internal/instr"
	"github.com/orozery/paramodai/internal/term"
)

// NullRC builds a synthetic analog of original_source/scripts/test_null_rc.py:
// a user-supplied function whose only observable contract is that it always
// returns zero in EAX. The original script takes the function name as a
// command-line argument and only checks the single post-condition
// `EAX != 0` is infeasible at the return block; it never asserts anything
// about how the zero gets there, so this synthetic version is free to use
// the simplest body that produces it — an unconditional assignment — while
// still exercising the same startup-free, single-postcondition proof shape.
func NullRC() *Scenario {
	const entry = 0x5000

	insns := []instr.Instruction{
		instr.NewGeneric(entry, 4, []instr.Assignment{{Dst: instr.EAX, Src: term.Const(0)}}),
		instr.NewRet(entry+4, 4, 0),
	}

	return &Scenario{
		Name:      "null_rc",
		Container: newContainer(map[string]int64{"null_rc": entry}, insns...),
		EntryFunc: "null_rc",
	}
}
