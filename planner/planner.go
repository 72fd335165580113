// Package planner implements C3 of the rsbd8 design: deciding, from a
// histogram, which digit passes actually need to run and which physical
// buffer each one reads from and writes to.
package planner

import (
	"github.com/janwillem32/rsbd8/histogram"
	"github.com/janwillem32/rsbd8/keymodel"
)

// Buffer names one of the (at most three) physical buffers a sort call can
// touch.
type Buffer uint8

const (
	// BufA is the buffer holding the input at call entry: the caller's
	// in-place buffer for Sort/SortNoAlloc, or the caller's source array
	// for SortCopy/SortCopyNoAlloc.
	BufA Buffer = iota
	// BufB is the scratch buffer.
	BufB
	// BufC is the caller's separate destination array; it only exists for
	// the copy-family entry points; the in-place family never has a third
	// buffer and never targets BufC.
	BufC
)

func (b Buffer) String() string {
	switch b {
	case BufA:
		return "A"
	case BufB:
		return "B"
	case BufC:
		return "C"
	default:
		return "?"
	}
}

// Step is one digit pass to execute.
type Step struct {
	Pass  int
	Src   Buffer
	Dst   Buffer
	Fixup bool
}

// Plan is the ordered list of passes to run, plus whether a trailing raw
// copy is needed to land the result where the caller asked for it.
type Plan struct {
	Steps      []Step
	CopyNeeded bool
	CopyFrom   Buffer
	CopyTo     Buffer
}

// Build decides the pass plan per §4.3.
//
// The input always starts in BufA. sink is where the final sorted data
// must end up.
//
// copyFamily distinguishes the two buffer topologies:
//   - false (in-place family): only {BufA, BufB} exist. initial == BufA.
//     sink is BufA when the caller wants the result back in its original
//     buffer, or BufB when the caller (SortNoAlloc's final_in_buf=false)
//     is willing to accept the result in scratch.
//   - true (copy family): {BufA, BufB, BufC} exist. initial == BufA
//     (source), sink == BufC (destination) always. BufA is read exactly
//     once, on the first non-trivial pass, and never written.
func Build(h histogram.Table, n int, desc keymodel.Descriptor, sink Buffer, copyFamily bool) Plan {
	var passes []int
	for p := 0; p < desc.Width; p++ {
		if !h.Trivial(p, n) {
			passes = append(passes, p)
		}
	}
	k := len(passes)

	if k == 0 {
		if sink == BufA {
			return Plan{}
		}
		return Plan{CopyNeeded: true, CopyFrom: BufA, CopyTo: sink}
	}

	steps := make([]Step, k)

	// pingPongPartner gives the buffer pass i+1 must use opposite b, within
	// whichever pair of buffers this family actually ping-pongs between:
	// {BufA, BufB} for the in-place family, {BufB, BufC} for the copy
	// family (whose BufA is read exactly once and never reused as a dest).
	pingPongPartner := func(b Buffer) Buffer {
		if copyFamily {
			if b == BufB {
				return BufC
			}
			return BufB
		}
		if b == BufA {
			return BufB
		}
		return BufA
	}

	if copyFamily {
		// dest[0] is a free choice between BufB and BufC (sink), since
		// BufA (the source) is never a valid destination. Pick it so the
		// chain lands on sink at the last step with no correction copy,
		// ever, for any k >= 1.
		var first Buffer
		if k%2 == 1 {
			first = sink // dest[k-1] == dest[0] when k is odd
		} else {
			first = pingPongPartner(sink) // dest[k-1] == partner(dest[0]) when k is even
		}
		steps[0] = Step{Pass: passes[0], Src: BufA, Dst: first}
	} else {
		// BufA doubles as the initial source; pass 0 is forced to write
		// away from BufA (a pass can never read and write the same
		// buffer). Ping-pong alternates from there; if that leaves the
		// final pass in the wrong buffer relative to sink, append a copy
		// rather than an extra dummy pass.
		steps[0] = Step{Pass: passes[0], Src: BufA, Dst: BufB}
	}
	for i := 1; i < k; i++ {
		steps[i] = Step{Pass: passes[i], Src: steps[i-1].Dst, Dst: pingPongPartner(steps[i-1].Dst)}
	}

	for i := range steps {
		if steps[i].Pass == desc.SignByteOffset && desc.Kind != keymodel.Unsigned {
			steps[i].Fixup = true
		}
	}

	plan := Plan{Steps: steps}
	last := steps[k-1].Dst
	if last != sink {
		plan.CopyNeeded = true
		plan.CopyFrom = last
		plan.CopyTo = sink
	}
	return plan
}
