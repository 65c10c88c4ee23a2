package scenario

import (
	"github.com/orozery/paramodai/internal/cfg"
	"github.com/orozery/paramodai/internal/driver"
	"github.com/orozery/paramodai/internal/instr"
	"github.com/orozery/paramodai/internal/state"
	"github.com/orozery/paramodai/internal/term"
)

// MallocTransformer models an opaque call to "allocate_list_item": its
// return value is a fresh pointer, distinct from every name already known
// to the state, and it pops one stdcall argument off the stack on return.
// Grounded verbatim on build_lists/test.py's malloc_transformer.
func MallocTransformer(s *state.AbstractState, _ *cfg.BasicBlock) {
	s.KillName("EAX")
	eax := term.Atomic("EAX")
	for name := range s.AtomicNames() {
		s.AddEq(eax, term.Atomic(name), true)
	}
	s.HandleAssignment(instr.ESP, term.Add(instr.ESP, instr.Dword))
}

// BuildLists builds a synthetic analog of
// original_source/benchmarks/build_lists/test.py: two calls to
// allocate_list_item, each assigning its fresh pointer into a distinct
// local slot, prove the two resulting list nodes are never the same
// object. A startup axiom on two untouched stack slots (stk_8, stk_c)
// mirrors the original's "dummy variables that won't be killed" trick,
// which exists purely so malloc_transformer's `add_eq(EAX, x, True)`
// loop has at least one surviving atomic name to assert freshness
// against on the very first call.
func BuildLists() *Scenario {
	const entry = 0x5000
	const allocateListItem = 0x6000
	const randomSelector = 0x6100

	x := term.StackSlot(-0xc)
	y := term.StackSlot(-0x10)

	insns := []instr.Instruction{
		instr.NewCall(entry, 4, allocateListItem),
		instr.NewGeneric(entry+4, 4, []instr.Assignment{{Dst: x, Src: instr.EAX}}),
		instr.NewCall(entry+8, 4, allocateListItem),
		instr.NewGeneric(entry+0xc, 4, []instr.Assignment{{Dst: y, Src: instr.EAX}}),
		instr.NewRet(entry+0x10, 4, 0),
		// Neither allocate_list_item's nor random_selector's own body is
		// ever walked (their call edges are intercepted by transformers),
		// but every symbol the scenario registers a transformer for must
		// resolve to a real instruction in the container.
		instr.NewRet(allocateListItem, 1, 4),
		instr.NewRet(randomSelector, 1, 4),
	}

	return &Scenario{
		Name: "build_lists",
		Container: newContainer(map[string]int64{
			"build_lists":        entry,
			"allocate_list_item": allocateListItem,
			"random_selector":    randomSelector,
		}, insns...),
		EntryFunc: "build_lists",
		Transformers: map[string]driver.FuncTransformer{
			"allocate_list_item": MallocTransformer,
			"random_selector":    RandomSelectorTransformer,
		},
		Assignments: []Axiom{
			{Dst: term.StackSlot(8), Src: term.StackSlot(0xc), Sign: true},
		},
	}
}
