// Package cfg builds a control-flow graph of basic blocks over a
// container's instruction stream, including the iterative dominance
// fixpoint that tells the dataflow driver which successor edges are
// back-edges. Grounded on original_source/paramodai/cfg.py.
package cfg

import (
	"github.com/orozery/paramodai/internal/container"
	"github.com/orozery/paramodai/internal/instr"
)

// BasicBlock is a maximal single-entry instruction run: it starts at a
// recognized block-entry address and ends at the first instruction with
// zero or more than one successor, or whose successor is itself a
// recognized block entry. Grounded on cfg.py's BasicBlock.
type BasicBlock struct {
	Addr           int64
	CFG            *CFG
	Instrs         []instr.Instruction
	Succs          map[int64]bool
	Preds          map[int64]bool
	BackgoingAddrs map[int64]bool

	successors []instr.Successor // the last instruction's successors, empty for the dummy return block
}

// IsDummy reports whether bb stands for the synthetic call-return target.
func (bb *BasicBlock) IsDummy() bool { return bb.Addr == instr.ReturnAddr }

// IsCall reports whether bb's last instruction is a call.
func (bb *BasicBlock) IsCall() bool {
	return !bb.IsDummy() && bb.Instrs[len(bb.Instrs)-1].IsCall()
}

// IsRet reports whether bb's last instruction is a return.
func (bb *BasicBlock) IsRet() bool {
	return !bb.IsDummy() && bb.Instrs[len(bb.Instrs)-1].IsRet()
}

// SuccEdgeCount is the number of outgoing edges from bb's last instruction.
func (bb *BasicBlock) SuccEdgeCount() int { return len(bb.successors) }

// SuccEdge is one outgoing edge, paired with whether it is a back-edge.
type SuccEdge struct {
	Target      *BasicBlock
	Assertions  []instr.Assertion
	Assignments []instr.Assignment
	IsBackward  bool
}

// SuccEdges returns every outgoing edge of bb, resolved to their target
// BasicBlock and tagged with back-edge status. Grounded on
// BasicBlock.succ_edges.
func (bb *BasicBlock) SuccEdges() []SuccEdge {
	out := make([]SuccEdge, 0, len(bb.successors))
	for _, s := range bb.successors {
		out = append(out, SuccEdge{
			Target:      bb.CFG.Get(s.Addr),
			Assertions:  s.Assertions,
			Assignments: s.Assignments,
			IsBackward:  bb.BackgoingAddrs[s.Addr],
		})
	}
	return out
}

// Next returns the basic block starting at the instruction immediately
// following bb's last instruction (for a call block: its return site).
func (bb *BasicBlock) Next() *BasicBlock {
	last := bb.Instrs[len(bb.Instrs)-1]
	return bb.CFG.Get(last.NextInstrAddr())
}

// buildBasicBlock walks single-successor instruction chains starting at
// addr until hitting a recognized block entry or a branch/call/ret,
// exactly as BasicBlock.__init__.
func buildBasicBlock(addr int64, c *CFG) *BasicBlock {
	bb := &BasicBlock{
		Addr:           addr,
		CFG:            c,
		Succs:          map[int64]bool{},
		Preds:          map[int64]bool{},
		BackgoingAddrs: map[int64]bool{},
	}
	if bb.IsDummy() {
		return bb
	}
	cur := addr
	var successors []instr.Successor
	for {
		in, ok := c.Container.GetInstr(cur)
		if !ok {
			break
		}
		bb.Instrs = append(bb.Instrs, in)
		successors = in.Successors()
		if len(successors) != 1 {
			break
		}
		cur = successors[0].Addr
		if c.BBEntries[cur] {
			break
		}
	}
	bb.successors = successors
	for _, s := range successors {
		bb.Succs[s.Addr] = true
	}
	return bb
}

// CFG is the control-flow graph rooted at EntryAddr, lazily materializing
// basic blocks on first access. Grounded on cfg.py's CFG.
type CFG struct {
	EntryAddr int64
	Container *container.Container

	BBEntries   map[int64]bool
	basicBlocks map[int64]*BasicBlock
}

// New builds the CFG rooted at entryAddr over c, computing block entries,
// building the block graph, and marking back-edges. Grounded on cfg.py's
// CFG.__init__.
func New(entryAddr int64, c *container.Container) *CFG {
	g := &CFG{
		EntryAddr:   entryAddr,
		Container:   c,
		basicBlocks: map[int64]*BasicBlock{},
	}
	g.BBEntries = g.computeBBEntries()
	g.build()
	g.markBackwardEdges()
	return g
}

// EntryBB returns the basic block at the CFG's entry address.
func (g *CFG) EntryBB() *BasicBlock { return g.Get(g.EntryAddr) }

// AllBlocks returns every basic block materialized so far: those build()
// reaches from the entry point, plus any built later through Get or Next
// (such as a call's return site). Grounded on cfg.py's
// `cfg.basic_blocks.itervalues()`, iterated by every benchmark test that
// scans the whole function for a property (cve_2014_7841's null-deref
// check).
func (g *CFG) AllBlocks() []*BasicBlock {
	out := make([]*BasicBlock, 0, len(g.basicBlocks))
	for _, bb := range g.basicBlocks {
		out = append(out, bb)
	}
	return out
}

// Get returns (building if necessary) the basic block starting at addr.
func (g *CFG) Get(addr int64) *BasicBlock {
	bb, ok := g.basicBlocks[addr]
	if !ok {
		bb = buildBasicBlock(addr, g)
		g.basicBlocks[addr] = bb
	}
	return bb
}

// computeBBEntries finds every address that starts a basic block: the
// entry point, and every address any instruction can branch, call, or
// return to. Grounded on CFG._get_bb_entries.
func (g *CFG) computeBBEntries() map[int64]bool {
	seen := map[int64]bool{g.EntryAddr: true}
	worklist := []int64{g.EntryAddr}
	for len(worklist) > 0 {
		addr := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if addr == instr.ReturnAddr {
			continue
		}
		var successors []instr.Successor
		for {
			in, ok := g.Container.GetInstr(addr)
			if !ok {
				successors = nil
				break
			}
			successors = in.Successors()
			if len(successors) != 1 || in.IsCall() || in.IsJmp() || in.IsRet() {
				break
			}
			addr = successors[0].Addr
		}
		for _, s := range successors {
			if !seen[s.Addr] {
				seen[s.Addr] = true
				worklist = append(worklist, s.Addr)
			}
		}
	}
	return seen
}

// build fills in every basic block's predecessor set by walking the
// reachable graph from the entry block. Grounded on CFG._build_cfg.
func (g *CFG) build() {
	seen := map[int64]bool{g.EntryAddr: true}
	worklist := []int64{g.EntryAddr}
	for len(worklist) > 0 {
		addr := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		bb := g.Get(addr)
		for succAddr := range bb.Succs {
			g.Get(succAddr).Preds[addr] = true
			if !seen[succAddr] {
				seen[succAddr] = true
				worklist = append(worklist, succAddr)
			}
		}
	}
}

// markBackwardEdges runs the iterative forward-dominance fixpoint and
// tags every edge whose target dominates its source as a back-edge.
// Only blocks that build() reached are covered; edges of blocks built
// later through Get or Next are never tagged. Grounded on
// CFG._mark_backward_edges.
func (g *CFG) markBackwardEdges() {
	entry := g.EntryBB()
	all := make([]*BasicBlock, 0, len(g.basicBlocks))
	for _, bb := range g.basicBlocks {
		all = append(all, bb)
	}

	dom := map[int64]map[int64]bool{}
	universe := map[int64]bool{}
	for _, bb := range all {
		universe[bb.Addr] = true
	}
	for _, bb := range all {
		dom[bb.Addr] = cloneSet(universe)
	}
	dom[entry.Addr] = map[int64]bool{entry.Addr: true}

	var worklist []int64
	seen := map[int64]bool{}
	for succAddr := range entry.Succs {
		if !seen[succAddr] {
			seen[succAddr] = true
			worklist = append(worklist, succAddr)
		}
	}

	for len(worklist) > 0 {
		addr := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		seen[addr] = false
		if addr == entry.Addr {
			continue
		}
		bb := g.Get(addr)
		newDom := map[int64]bool{}
		first := true
		for predAddr := range bb.Preds {
			if first {
				newDom = cloneSet(dom[predAddr])
				first = false
			} else {
				intersectInPlace(newDom, dom[predAddr])
			}
		}
		newDom[addr] = true
		if !setsEqual(newDom, dom[addr]) {
			dom[addr] = newDom
			for succAddr := range bb.Succs {
				if !seen[succAddr] {
					seen[succAddr] = true
					worklist = append(worklist, succAddr)
				}
			}
		}
	}

	for _, bb := range all {
		for succAddr := range bb.Succs {
			if dom[bb.Addr][succAddr] {
				bb.BackgoingAddrs[succAddr] = true
			}
		}
	}
}

func cloneSet(s map[int64]bool) map[int64]bool {
	out := make(map[int64]bool, len(s))
	for k := range s {
		out[k] = true
	}
	return out
}

func intersectInPlace(a, b map[int64]bool) {
	for k := range a {
		if !b[k] {
			delete(a, k)
		}
	}
}

func setsEqual(a, b map[int64]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}
