package driver

import (
	"fmt"
	"sort"

	"github.com/orozery/paramodai/internal/cfg"
	"github.com/orozery/paramodai/internal/instr"
	"github.com/orozery/paramodai/internal/term"
)

// ResolveStackSlots runs a concrete, ESP-relative-offset-tracking forward
// analysis over g and rewrites every instruction's deref(ESP + k) operand
// into the symbolic stk_<offset> atom term.StackSlot builds, so the real
// abstract interpretation never has to reason about ESP arithmetic
// directly. Grounded on original_source/paramodai/stack_analysis.py's
// StackAnalyzer, a ForwardAnalyzer subclass tracking concrete
// register->offset maps instead of AbstractState; reimplemented here as a
// standalone pre-pass since it shares none of the abstract-state merge
// logic the real driver needs.
//
// The "stack inconsistency" error it returns mirrors the original's raised Exception when two
// merging paths disagree on a register's stack offset — StackAnalyzer has
// no sound way to join incompatible offsets, so it treats that as a fatal
// analysis error rather than losing precision silently.
func ResolveStackSlots(g *cfg.CFG) error {
	type regState = map[*term.Term]int64

	states := map[int64]regState{}
	worklist := []int64{g.EntryAddr}
	seen := map[int64]bool{g.EntryAddr: true}
	states[g.EntryAddr] = regState{instr.ESP: 0}

	for len(worklist) > 0 {
		addr := worklist[0]
		worklist = worklist[1:]
		bb := g.Get(addr)
		if bb.IsDummy() {
			continue
		}
		st := cloneRegState(states[addr])
		for _, in := range bb.Instrs {
			applyStackInstr(st, in)
		}
		succs := sortedSuccs(bb)
		if bb.IsCall() {
			st[instr.ESP] = st[instr.ESP] + 4
			succs = []int64{bb.Next().Addr}
		}
		for _, succAddr := range succs {
			merged, changed, err := mergeRegState(states[succAddr], st)
			if err != nil {
				return fmt.Errorf("stack slot resolution at %#x -> %#x: %w", addr, succAddr, err)
			}
			states[succAddr] = merged
			if changed && !seen[succAddr] {
				seen[succAddr] = true
				worklist = append(worklist, succAddr)
			} else if changed {
				worklist = append(worklist, succAddr)
			}
		}
	}
	return nil
}

func sortedSuccs(bb *cfg.BasicBlock) []int64 {
	out := make([]int64, 0, len(bb.Succs))
	for a := range bb.Succs {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func cloneRegState(s map[*term.Term]int64) map[*term.Term]int64 {
	out := make(map[*term.Term]int64, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// mergeRegState merges incoming into existing (nil existing means "first
// arrival"), returning the merged map and whether it differs from
// existing. Grounded on StackAnalyzer.merge: a register present in both
// with different offsets is a hard inconsistency, not a join.
func mergeRegState(existing, incoming map[*term.Term]int64) (map[*term.Term]int64, bool, error) {
	if existing == nil {
		return cloneRegState(incoming), true, nil
	}
	merged := cloneRegState(existing)
	changed := false
	for k, v := range incoming {
		if ev, ok := merged[k]; ok {
			if ev != v {
				return nil, false, fmt.Errorf("stack inconsistency for %s: %d != %d", k, ev, v)
			}
			continue
		}
		merged[k] = v
		changed = true
	}
	return merged, changed, nil
}

// getStackOffset resolves a term to a concrete ESP-relative offset under
// st, if possible: an atomic register looks itself up; reg+const or
// const+reg resolves the register side recursively. Grounded on
// StackAnalyzer.get_stack_offset.
func getStackOffset(st map[*term.Term]int64, t *term.Term) (int64, bool) {
	if t.IsAtomic() {
		v, ok := st[t]
		return v, ok
	}
	if t.Kind != term.KindCompound || t.Op != term.OpAdd {
		return 0, false
	}
	a, b := t.Children[0], t.Children[1]
	reg, offset := a, b
	if reg.IsConst() {
		reg, offset = b, a
	}
	if !offset.IsConst() {
		return 0, false
	}
	val, ok := getStackOffset(st, reg)
	if !ok {
		return 0, false
	}
	return val + offset.Value, true
}

// simplifyStackTerm rewrites every deref(addr) subterm whose address
// resolves to a concrete stack offset into stk_<offset>, recursively.
// Grounded on StackAnalyzer.simplify.
func simplifyStackTerm(st map[*term.Term]int64, t *term.Term) *term.Term {
	if t.IsDeref() {
		if off, ok := getStackOffset(st, t.Children[0]); ok {
			return term.StackSlot(off)
		}
		return t
	}
	if t.Kind != term.KindCompound {
		return t
	}
	children := make([]*term.Term, len(t.Children))
	for i, c := range t.Children {
		children[i] = simplifyStackTerm(st, c)
	}
	switch t.Op {
	case term.OpAdd:
		return term.Add(children[0], children[1])
	case term.OpMul:
		return term.Mul(children[0], children[1])
	case term.OpNeg:
		return term.Neg(children[0])
	default:
		return term.Compound(t.Op, children...)
	}
}

// applyStackInstr rewrites in's assignments in place through st, then
// updates st itself: an atomic destination assigned from a
// stack-offset-resolvable source gets its new offset recorded, otherwise
// any prior tracked offset for that destination is invalidated. Grounded
// on StackAnalyzer._apply_instr.
func applyStackInstr(st map[*term.Term]int64, in instr.Instruction) {
	orig := in.Assignments()
	fixed := make([]instr.Assignment, len(orig))
	for i, a := range orig {
		dst := simplifyStackTerm(st, a.Dst)
		var src *term.Term
		if a.Src != nil {
			src = simplifyStackTerm(st, a.Src)
		}
		fixed[i] = instr.Assignment{Dst: dst, Src: src}

		if a.Dst.IsAtomic() {
			if a.Src != nil {
				if off, ok := getStackOffset(st, a.Src); ok {
					st[a.Dst] = off
					continue
				}
			}
			delete(st, a.Dst)
		}
	}
	in.SetAssignments(fixed)
}
