// Package driver runs the forward dataflow fixpoint over a CFG: a main
// worklist of (block, incoming states) items drained in address order,
// merging arrivals at each block and propagating the result across its
// successor edges until nothing changes. Grounded on
// original_source/paramodai/forward_analysis.py's ForwardAnalyzer.
package driver

import (
	"container/heap"
	"fmt"

	"go.uber.org/zap"

	"github.com/orozery/paramodai/internal/cfg"
	"github.com/orozery/paramodai/internal/config"
	"github.com/orozery/paramodai/internal/container"
	"github.com/orozery/paramodai/internal/instr"
	"github.com/orozery/paramodai/internal/state"
	"github.com/orozery/paramodai/internal/term"
)

// UndeterminedCallError reports a call whose target has no registered
// FuncTransformer — the driver has no sound way to model its effect and
// refuses to guess. Grounded on forward_analysis.py's
// UndeterminedCallExecption.
type UndeterminedCallError struct {
	Addr int64
}

func (e *UndeterminedCallError) Error() string {
	return fmt.Sprintf("driver: no transformer registered for call target %#x", e.Addr)
}

// FuncTransformer models a called function's effect on the caller's state
// directly, in place of analyzing the callee's body. Grounded on
// forward_analysis.py's func_transformers: every scenario that reaches a
// call must register one, since nothing in this module performs real
// interprocedural analysis (see DESIGN.md's note on inter_proc.py).
type FuncTransformer func(s *state.AbstractState, bb *cfg.BasicBlock)

// addrHeap is a min-heap of pending block addresses, backing bbWorklist's
// address-ordered draining (forward_analysis.py uses heapq over
// BasicBlock's address-based ordering; here the heap holds addresses
// directly since a CFG's basic blocks are cached one-per-address).
type addrHeap []int64

func (h addrHeap) Len() int            { return len(h) }
func (h addrHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h addrHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *addrHeap) Push(x interface{}) { *h = append(*h, x.(int64)) }
func (h *addrHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// bbWorklist accumulates one or more incoming states per pending block
// address and drains them in address order. Grounded on
// forward_analysis.py's BBWorklist.
type bbWorklist struct {
	heap    addrHeap
	pending map[int64]bool
	states  map[int64][]*state.AbstractState
}

func newBBWorklist() *bbWorklist {
	return &bbWorklist{pending: map[int64]bool{}, states: map[int64][]*state.AbstractState{}}
}

func (w *bbWorklist) push(addr int64, s *state.AbstractState) {
	if !w.pending[addr] {
		w.pending[addr] = true
		heap.Push(&w.heap, addr)
		w.states[addr] = []*state.AbstractState{s}
		return
	}
	w.states[addr] = append(w.states[addr], s)
}

func (w *bbWorklist) pop() (int64, []*state.AbstractState) {
	addr := heap.Pop(&w.heap).(int64)
	delete(w.pending, addr)
	states := w.states[addr]
	delete(w.states, addr)
	return addr, states
}

func (w *bbWorklist) Len() int { return len(w.pending) }

// startupAssignment is one axiom asserted into the initial state before
// analysis begins, grounded on forward_analysis.py's startup_assignments
// list consumed by get_startup_state.
type startupAssignment struct {
	dst, src *term.Term
	sign     bool
}

// ForwardAnalyzer runs the abstract-interpretation fixpoint over one
// function's CFG. Grounded on forward_analysis.py's ForwardAnalyzer,
// split from its Python dict-as-state-map design into an explicit
// states map since Go types can't subclass dict.
type ForwardAnalyzer struct {
	Container *container.Container
	conf      *config.Config
	logger    *zap.Logger

	graph *cfg.CFG
	states map[int64]*state.AbstractState

	funcTransformers   map[int64]FuncTransformer
	startupAssignments []startupAssignment

	worklist        *bbWorklist
	delayedWorklist *bbWorklist
}

// New returns an analyzer over c, configured by conf, logging through
// logger (nil selects a no-op logger).
func New(c *container.Container, conf *config.Config, logger *zap.Logger) *ForwardAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ForwardAnalyzer{
		Container:        c,
		conf:             conf,
		logger:           logger,
		states:           map[int64]*state.AbstractState{},
		funcTransformers: map[int64]FuncTransformer{},
	}
}

// SetFuncTransformer registers transformer for calls targeting funcName.
// Grounded on forward_analysis.py's set_func_transformer.
func (a *ForwardAnalyzer) SetFuncTransformer(funcName string, transformer FuncTransformer) error {
	addr, ok := a.Container.SymbolAddr(funcName)
	if !ok {
		return fmt.Errorf("driver: unknown symbol %q", funcName)
	}
	a.funcTransformers[addr] = transformer
	return nil
}

// Assign records a startup axiom (dst == src, or dst != src when sign is
// true) asserted into the entry state before analysis runs. Grounded on
// forward_analysis.py's assign.
func (a *ForwardAnalyzer) Assign(dst, src *term.Term, sign bool) {
	a.startupAssignments = append(a.startupAssignments, startupAssignment{dst, src, sign})
}

// SetGlobalToValue axiomatizes deref(globalName's address) == value.
// Grounded on forward_analysis.py's set_global_to_value.
func (a *ForwardAnalyzer) SetGlobalToValue(globalName string, value int64) error {
	addr, ok := a.Container.SymbolAddr(globalName)
	if !ok {
		return fmt.Errorf("driver: unknown symbol %q", globalName)
	}
	a.Assign(term.Deref(term.Const(addr)), term.Const(value), false)
	return nil
}

// InitializeGlobal axiomatizes each dword of globalName's backing storage
// to the corresponding entry of values. Grounded on
// forward_analysis.py's initialize_global — its Python original reads
// concrete bytes out of the parsed executable image; since this module's
// container package never parses real section data (see
// internal/container's package doc), callers supply the values directly
// instead of them being read from memory.
func (a *ForwardAnalyzer) InitializeGlobal(globalName string, values []int64) error {
	addr, ok := a.Container.SymbolAddr(globalName)
	if !ok {
		return fmt.Errorf("driver: unknown symbol %q", globalName)
	}
	for i, v := range values {
		slot := term.Deref(term.Const(addr + 4*int64(i)))
		a.Assign(slot, term.Const(v), false)
	}
	return nil
}

// InitFromFunc resolves funcName to an address and calls Init. Grounded
// on forward_analysis.py's init_from_func.
func (a *ForwardAnalyzer) InitFromFunc(funcName string, startState *state.AbstractState) error {
	addr, ok := a.Container.SymbolAddr(funcName)
	if !ok {
		return fmt.Errorf("driver: unknown symbol %q", funcName)
	}
	return a.Init(addr, startState)
}

// RunFromFunc initializes analysis at funcName's entry and runs it to a
// fixpoint. Grounded on forward_analysis.py's run_from_func.
func (a *ForwardAnalyzer) RunFromFunc(funcName string, startState *state.AbstractState) error {
	if err := a.InitFromFunc(funcName, startState); err != nil {
		return err
	}
	return a.Run()
}

// Init builds the CFG rooted at startAddr (running the stack-slot
// resolution pre-pass over it first), seeds the worklists, and pushes
// startState (or the startup-axiom state, if nil) onto the entry block.
// Grounded on forward_analysis.py's init.
func (a *ForwardAnalyzer) Init(startAddr int64, startState *state.AbstractState) error {
	g := cfg.New(startAddr, a.Container)
	if err := ResolveStackSlots(g); err != nil {
		return err
	}
	a.graph = g
	a.worklist = newBBWorklist()
	a.delayedWorklist = newBBWorklist()
	if startState == nil {
		startState = a.getStartupState()
	}
	a.worklist.push(g.EntryAddr, startState)
	return nil
}

func (a *ForwardAnalyzer) getStartupState() *state.AbstractState {
	s := state.New(a.conf, a.logger)
	for _, sa := range a.startupAssignments {
		s.AddEq(sa.dst, sa.src, sa.sign)
	}
	return s
}

// GetState returns the fixpoint state currently recorded at addr, or nil
// if that block hasn't been reached. Grounded on
// forward_analysis.py's get_state.
func (a *ForwardAnalyzer) GetState(addr int64) *state.AbstractState {
	return a.states[addr]
}

// Graph returns the CFG built by Init/RunFromFunc, for callers that walk
// every basic block after the fixpoint is reached — cve_2014_7841/test.py's
// `for bb in a.cfg.basic_blocks.itervalues()` null-deref scan is the
// grounding example.
func (a *ForwardAnalyzer) Graph() *cfg.CFG {
	return a.graph
}

// ApplyInstr applies a single instruction's assignments to s in place.
// Exported for callers that need to replay a basic block up to some
// instruction of interest, the same way cve_2014_7841/test.py calls the
// analyzer's own _apply_instr directly while scanning for memory loads.
func ApplyInstr(s *state.AbstractState, in instr.Instruction) {
	applyInstr(s, in)
}

// Run drains the main worklist to exhaustion, then drains one delayed
// item at a time (re-checking the main worklist after each), until both
// are empty. Grounded on forward_analysis.py's run.
func (a *ForwardAnalyzer) Run() error {
	for {
		for a.worklist.Len() > 0 {
			addr, states := a.worklist.pop()
			if err := a.processItem(addr, states); err != nil {
				return err
			}
		}
		if a.delayedWorklist.Len() == 0 {
			return nil
		}
		addr, states := a.delayedWorklist.pop()
		if err := a.processDelayedItem(addr, states); err != nil {
			return err
		}
	}
}

func (a *ForwardAnalyzer) processItem(addr int64, states []*state.AbstractState) error {
	if !a.merge(addr, states) {
		return nil
	}
	bb := a.graph.Get(addr)
	if bb.IsDummy() {
		return nil
	}
	edges, err := a.applyBlock(a.states[addr], bb)
	if err != nil {
		return err
	}
	for _, e := range edges {
		a.worklist.push(e.Addr, e.State)
	}
	return nil
}

// processDelayedItem re-merges a back-edge target's accumulated states
// and, if that changes its fixpoint value, requeues it on the main
// worklist. Grounded on forward_analysis.py's _process_delayed_item, with
// its dead debug-only z3 assertion probing (never reachable with
// DeferBackEdges's de-facto-off default) dropped.
func (a *ForwardAnalyzer) processDelayedItem(addr int64, states []*state.AbstractState) error {
	oldState := a.states[addr]
	newState := state.Merge(states...)
	if oldState.IsEquivalent(newState) {
		return nil
	}
	merged := state.MergeTwoStates(oldState, newState)
	delete(a.states, addr)
	a.worklist.push(addr, merged)
	return nil
}

// merge folds states (plus the block's existing recorded state, if any)
// into a.states[addr], reporting whether the recorded state changed.
// Grounded on forward_analysis.py's merge.
func (a *ForwardAnalyzer) merge(addr int64, states []*state.AbstractState) bool {
	curr, had := a.states[addr]
	all := states
	if had {
		all = append(append([]*state.AbstractState{}, states...), curr)
	}
	merged := state.Merge(all...)
	a.states[addr] = merged
	return !had || !merged.IsEquivalent(curr)
}

// blockTransfer is one outgoing (target block, state) pair applyBlock and
// its propagate helpers yield, corresponding to the tuples
// forward_analysis.py's generators produce.
type blockTransfer struct {
	Addr  int64
	State *state.AbstractState
}

// applyBlock copies s, applies every instruction's effect in address
// order, then propagates across bb's successor edges. Grounded on
// forward_analysis.py's apply_block.
func (a *ForwardAnalyzer) applyBlock(s *state.AbstractState, bb *cfg.BasicBlock) ([]blockTransfer, error) {
	newState := s.Copy()
	for _, in := range bb.Instrs {
		applyInstr(newState, in)
	}
	return a.propagate(newState, bb)
}

// applyInstr applies every (dst, src) effect of in to s in instruction
// order. Grounded on forward_analysis.py's _apply_instr.
func applyInstr(s *state.AbstractState, in instr.Instruction) {
	for _, asn := range in.Assignments() {
		s.HandleAssignment(asn.Dst, asn.Src)
	}
}

func (a *ForwardAnalyzer) propagate(s *state.AbstractState, bb *cfg.BasicBlock) ([]blockTransfer, error) {
	switch {
	case bb.IsCall():
		return a.propagateCall(s, bb)
	case bb.IsRet():
		return a.propagateIntraprocedural(s, bb)
	default:
		return a.propagateIntraprocedural(s, bb)
	}
}

// propagateCall resolves bb's single call edge to a registered
// FuncTransformer, applies it to a copy of s, and continues at the block
// that starts right after the call instruction (the return site); the
// callee's own blocks are never walked. Grounded on
// forward_analysis.py's _propagate_call; the indirect-call case it
// guards against (a non-constant call target) can't arise here since
// instr.NewCall only ever takes a concrete target address.
func (a *ForwardAnalyzer) propagateCall(s *state.AbstractState, bb *cfg.BasicBlock) ([]blockTransfer, error) {
	edges := bb.SuccEdges()
	if len(edges) != 1 {
		return nil, fmt.Errorf("driver: call block %#x has %d successors, want 1", bb.Addr, len(edges))
	}
	targetAddr := edges[0].Target.Addr
	transformer, ok := a.funcTransformers[targetAddr]
	if !ok {
		a.logger.Warn("call to unmodeled target", zap.Int64("addr", targetAddr))
		return nil, &UndeterminedCallError{Addr: targetAddr}
	}
	newState := s.Copy()
	transformer(newState, bb)
	return []blockTransfer{{Addr: bb.Next().Addr, State: newState}}, nil
}

// propagateIntraprocedural walks bb's successor edges, applying each
// edge's guarding assertions (skipping edges that turn out infeasible)
// and assignments, clearing the scratch comparison registers cmp1/cmp2,
// and routing the result to the delayed worklist when the edge is a
// back-edge and DeferBackEdges is enabled — otherwise yielding it for the
// main worklist. Grounded on forward_analysis.py's
// _propagate_intraprocedural; its `is_backward and False` dead toggle is
// replaced by the real config.DeferBackEdges check (DESIGN.md
// decision (d)).
func (a *ForwardAnalyzer) propagateIntraprocedural(s *state.AbstractState, bb *cfg.BasicBlock) ([]blockTransfer, error) {
	edges := bb.SuccEdges()
	var out []blockTransfer
	for i, e := range edges {
		edgeState := s
		if i < len(edges)-1 {
			edgeState = s.Copy()
		}
		if !edgeState.HandleAssertions(toStateAssertions(e.Assertions)) {
			continue
		}
		for _, asn := range e.Assignments {
			edgeState.HandleAssignment(asn.Dst, asn.Src)
		}
		edgeState.KillName("cmp1")
		edgeState.KillName("cmp2")

		if e.IsBackward && a.conf.DeferBackEdges {
			a.delayedWorklist.push(e.Target.Addr, edgeState)
			continue
		}
		out = append(out, blockTransfer{Addr: e.Target.Addr, State: edgeState})
	}
	return out, nil
}

// toStateAssertions bridges instr.Assertion to state.Assertion: the two
// share the same shape but live in separate packages so internal/instr
// never needs to import internal/state.
func toStateAssertions(in []instr.Assertion) []state.Assertion {
	out := make([]state.Assertion, len(in))
	for i, a := range in {
		out[i] = state.Assertion{Cond: a.Cond, Lhs: a.Lhs, Rhs: a.Rhs}
	}
	return out
}
