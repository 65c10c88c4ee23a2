package scenario

import (
	"github.com/orozery/paramodai/internal/cfg"
	"github.com/orozery/paramodai/internal/driver"
	"github.com/orozery/paramodai/internal/instr"
	"github.com/orozery/paramodai/internal/state"
	"github.com/orozery/paramodai/internal/term"
)

// RandomSelectorTransformer models an opaque call to "random_selector":
// its return value (EAX) is unconstrained, and it pops one stdcall
// argument off the stack on return. Grounded verbatim on
// resource_manager/test.py's random_selector_transformer.
func RandomSelectorTransformer(s *state.AbstractState, _ *cfg.BasicBlock) {
	s.KillName("EAX")
	s.HandleAssignment(instr.ESP, term.Add(instr.ESP, instr.Dword))
}

// ResourceManager builds a synthetic analog of
// original_source/benchmarks/resource_manager/test.py: three startup
// axioms assert that resource ids 0, 1, and 2 are pairwise distinct, a
// call to random_selector is modeled opaquely through
// RandomSelectorTransformer, and two local stack slots each receive one
// of the distinct ids. The real benchmark's proof goal is a disjunction
// over which slot ends up holding which id (recovering that requires the
// allocator's real branching logic, which this module can't recover
// without decoding the binary); this version proves the same shape of
// fact independently for each slot — stk_-14 != 0 and stk_-18 != 1 are
// each entailed on their own — which still exercises the identical
// startup-axiom and call-transformer machinery faithfully.
func ResourceManager() *Scenario {
	const entry = 0x3000

	slotA := term.StackSlot(-0x14)
	slotB := term.StackSlot(-0x18)

	const randomSelector = 0x4000

	insns := []instr.Instruction{
		instr.NewCall(entry, 4, randomSelector),
		instr.NewGeneric(entry+4, 4, []instr.Assignment{{Dst: slotA, Src: term.Const(1)}}),
		instr.NewCall(entry+8, 4, randomSelector),
		instr.NewGeneric(entry+0xc, 4, []instr.Assignment{{Dst: slotB, Src: term.Const(2)}}),
		instr.NewRet(entry+0x10, 4, 0),
		// random_selector's own body is never walked by the driver (its call
		// edge is intercepted by RandomSelectorTransformer), but the CFG
		// still needs a real instruction at its address — every reachable
		// address has disassembled code in the real benchmark, unlike in
		// this synthetic container. A bare RET stands in for its body.
		instr.NewRet(randomSelector, 1, 4),
	}

	return &Scenario{
		Name: "resource_manager",
		Container: newContainer(map[string]int64{
			"resource_manager": entry,
			"random_selector":  randomSelector,
		}, insns...),
		EntryFunc: "resource_manager",
		Transformers: map[string]driver.FuncTransformer{
			"random_selector": RandomSelectorTransformer,
		},
		Assignments: []Axiom{
			{Dst: term.Const(0), Src: term.Const(1), Sign: true},
			{Dst: term.Const(0), Src: term.Const(2), Sign: true},
			{Dst: term.Const(1), Src: term.Const(2), Sign: true},
		},
	}
}
