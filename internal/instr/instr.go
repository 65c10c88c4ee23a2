// Package instr models machine instructions as term-algebra effects: each
// instruction exposes the assignments it performs and the successor edges
// (with their guarding assertions) it can take. Grounded on
// original_source/paramodai/x86.py's X86Instruction, restricted to the
// control-flow-relevant mnemonics CALL/RET/JMP/Jcc plus a generic
// assignment-only shape covering everything else (MOV, ADD, CMP, ...) —
// decoding real machine code (distorm3 in the original) is out of scope;
// callers build Instruction values directly, the way the scenario fixtures
// build their tiny synthetic programs.
package instr

import "github.com/orozery/paramodai/internal/term"

// ReturnAddr is the synthetic successor address denoting "this function's
// caller", matching x86.py's parse_successors call-return sentinel.
const ReturnAddr int64 = -1

// Dword is the word size x86.py's stack arithmetic adds/subtracts from ESP.
var Dword = term.Const(4)

// The general-purpose and stack registers x86.py recognizes.
var (
	EAX = term.Atomic("EAX")
	ECX = term.Atomic("ECX")
	EDX = term.Atomic("EDX")
	ESI = term.Atomic("ESI")
	EDI = term.Atomic("EDI")
	ESP = term.Atomic("ESP")
	EBP = term.Atomic("EBP")
)

// Assignment is one (dst, src) effect of an instruction; Src == nil
// invalidates dst without asserting a new value (x86.py's "(operands[0],
// None)" convention for opaque/unmodeled operations).
type Assignment struct {
	Dst, Src *term.Term
}

// Assertion is one edge-guarding condition, in the same (cond, lhs, rhs)
// shape state.Assertion accepts; kept independent of package state so
// instr has no dependency on it — internal/driver bridges the two.
type Assertion struct {
	Cond     string
	Lhs, Rhs *term.Term
}

// Successor is one outgoing control-flow edge: the target address, the
// assertions that must hold to take it, and the assignments that happen
// on the way (x86.py's parse_successors tuple).
type Successor struct {
	Addr        int64
	Assertions  []Assertion
	Assignments []Assignment
}

// Instruction is the minimal interface the CFG and dataflow driver need.
// Grounded on the (unavailable in the retrieval pack) instruction.py base
// class, reconstructed from its usage in cfg.py and x86.py.
type Instruction interface {
	Addr() int64
	NextInstrAddr() int64
	Assignments() []Assignment
	Successors() []Successor
	IsCall() bool
	IsRet() bool
	IsJmp() bool

	// SetAssignments replaces the instruction's assignment list in place —
	// the stack-slot pre-pass (internal/driver) rewrites deref(ESP-relative)
	// operands into stk_<offset> atoms this way, mirroring x86.py's
	// StackAnalyzer._apply_instr mutating instr.assignments directly.
	SetAssignments(a []Assignment)
}

// base implements every Instruction method that all the builders below
// share; each builder only needs to supply its assignments and successors.
type base struct {
	addr        int64
	length      int64
	assignments []Assignment
	successors  []Successor
	isCall      bool
	isRet       bool
}

func (b *base) Addr() int64               { return b.addr }
func (b *base) NextInstrAddr() int64      { return b.addr + b.length }
func (b *base) Assignments() []Assignment { return b.assignments }
func (b *base) Successors() []Successor   { return b.successors }
func (b *base) IsCall() bool              { return b.isCall }
func (b *base) IsRet() bool               { return b.isRet }
func (b *base) IsJmp() bool               { return false }
func (b *base) SetAssignments(a []Assignment) { b.assignments = a }

// fallthroughSuccessor builds the single-edge successor list ordinary
// (non-branching) instructions carry. Its edge has no Assignments of its
// own: x86.py's parse_successors default case returns
// `[(next_instr_addr, [], [])]`, leaving the instruction's own effect
// (applied once per instruction as the basic block is walked) the only
// place that assignment happens. Only conditional-setting mnemonics this
// module doesn't model (CMOV/SET/REP) attach assignments directly to an
// edge in the original.
func fallthroughSuccessor(nextAddr int64) []Successor {
	return []Successor{{Addr: nextAddr}}
}

// NewCall builds `CALL target`: ESP -= 4 (pushing the return address is
// left implicit, matching x86.py's CALL assignment, which models only the
// stack-pointer effect — the return-address value itself is never
// constrained since nothing in this module's scenarios inspects it), then
// transfers to target, its only successor edge. internal/driver, not the
// instruction itself, pairs the call with its return site: it runs the
// target's registered transformer and continues at the next instruction
// (see forward_analysis.py's _propagate_call). The call edge carries no
// Assignments of its own, matching every other fallthrough-shaped
// successor.
func NewCall(addr, length int64, target int64) Instruction {
	assignments := []Assignment{{Dst: ESP, Src: term.Sub(ESP, Dword)}}
	return &base{addr: addr, length: length, assignments: assignments, isCall: true,
		successors: []Successor{{Addr: target}}}
}

// NewRet builds `RET [imm]`: ESP += 4 + imm (imm is the stdcall operand
// cleanup count, 0 for plain RET/RETN). Its successor is the synthetic
// ReturnAddr, the dummy block the driver treats as the exit sink. Grounded on
// x86.py's RET/RETN case.
func NewRet(addr, length int64, imm int64) Instruction {
	newESP := term.Add(ESP, Dword)
	if imm != 0 {
		newESP = term.Add(newESP, term.Const(imm))
	}
	assignments := []Assignment{{Dst: ESP, Src: newESP}}
	return &base{addr: addr, length: length, assignments: assignments, isRet: true,
		successors: []Successor{{Addr: ReturnAddr}}}
}

// NewJmp builds an unconditional jump to target, with no assignments.
func NewJmp(addr, length int64, target int64) Instruction {
	return &jmp{base: base{addr: addr, length: length,
		successors: []Successor{{Addr: target}}}}
}

type jmp struct{ base }

func (j *jmp) IsJmp() bool { return true }

// NewCondJmp builds a conditional jump: trueCond guards the edge to
// target, falseCond (its logical complement) guards the fallthrough edge.
// Grounded on x86.py's Jcc handling via _parse_condition + parse_successors.
func NewCondJmp(addr, length int64, target int64, trueCond, falseCond Assertion) Instruction {
	next := addr + length
	return &jmp{base: base{addr: addr, length: length,
		successors: []Successor{
			{Addr: target, Assertions: []Assertion{trueCond}},
			{Addr: next, Assertions: []Assertion{falseCond}},
		}}}
}

// NewGeneric builds an instruction whose only effect is assignments,
// falling through to the next address — the shape most non-stack/branch
// x86.py mnemonics (MOV, ADD, CMP, ...) share.
func NewGeneric(addr, length int64, assignments []Assignment) Instruction {
	return &base{addr: addr, length: length, assignments: assignments,
		successors: fallthroughSuccessor(addr + length)}
}
