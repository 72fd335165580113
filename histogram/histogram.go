// Package histogram implements C2 of the rsbd8 design: the single linear
// pre-pass that builds, per digit position, a 256-entry frequency table
// and detects which positions are constant (and therefore skippable).
package histogram

import "github.com/janwillem32/rsbd8/keymodel"

// Table holds one 256-entry frequency column per byte position of the key.
type Table struct {
	Width  int
	Counts [][256]uint32
}

// Build performs the §4.2 histogram pass over n records of recordWidth
// bytes packed contiguously in data (len(data) must equal n*recordWidth).
// The key occupies the leading desc.Width bytes of each record; recordWidth
// is allowed to exceed desc.Width so the indirect-sort adapter (C6) can
// carry a trailing reference tag through the same histogram/scatter
// machinery the direct case uses. Build always counts the NormalizedDigit
// (§4.5), not the raw byte, so the resulting table is ready to hand to the
// planner/scatter stages regardless of signedness — the fix-up protocol is
// folded into the byte view, not bolted on afterwards.
//
// Build never writes to data and is the only place counts are
// accumulated; each pass's column is independent so a vectorizing
// compiler can unroll the inner loop over p freely (§4.2).
func Build(data []byte, n, recordWidth int, desc keymodel.Descriptor) Table {
	t := Table{Width: desc.Width, Counts: make([][256]uint32, desc.Width)}
	for i := 0; i < n; i++ {
		rec := data[i*recordWidth : i*recordWidth+recordWidth]
		for p := 0; p < desc.Width; p++ {
			t.Counts[p][keymodel.NormalizedDigit(rec, p, desc)]++
		}
	}
	return t
}

// Sum returns the total count recorded for pass p; callers use it to
// confirm P3 (histogram closure): Sum(p) must equal n for every p.
func (t Table) Sum(pass int) uint64 {
	var s uint64
	for _, c := range t.Counts[pass] {
		s += uint64(c)
	}
	return s
}

// Trivial reports whether pass p has a single non-zero bucket (every key
// shares the same digit at that position), in which case the pass can be
// elided entirely (§4.3 step 1). An all-zero table (n == 0) is trivial by
// convention: there is nothing to scatter.
func (t Table) Trivial(pass int, n int) bool {
	if n == 0 {
		return true
	}
	for _, c := range t.Counts[pass] {
		if int(c) == n {
			return true
		}
	}
	return false
}
