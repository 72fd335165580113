// Package rsbd8 is a byte-wise LSD radix-sort engine (C8, the public
// dispatcher) for contiguous arrays of primitive scalar keys and
// composite fixed-width float records. It unifies four entry shapes —
// in-place, copy, and a caller-scratch variant of each — over one
// histogram/plan/scatter pipeline (histogram, planner, scatter
// packages), with ascending/descending order and forward/reverse scatter
// convention as independent axes.
package rsbd8

import (
	"math"

	"github.com/janwillem32/rsbd8/histogram"
	"github.com/janwillem32/rsbd8/keymodel"
	"github.com/janwillem32/rsbd8/memalloc"
	"github.com/janwillem32/rsbd8/planner"
	"github.com/janwillem32/rsbd8/scatter"
)

// Direction and Mode are re-exported from keymodel so callers never need
// to import that package directly.
type (
	Direction = keymodel.Direction
	Mode      = keymodel.Mode
)

const (
	AscFwd  = keymodel.AscFwd
	AscRev  = keymodel.AscRev
	DescFwd = keymodel.DescFwd
	DescRev = keymodel.DescRev
)

const (
	Auto          = keymodel.Auto
	ForceUnsigned = keymodel.ForceUnsigned
	ForceSigned   = keymodel.ForceSigned
	ForceFloat    = keymodel.ForceFloat
)

// Sort sorts buf in place, allocating its own scratch buffer (§4.8 entry
// 1). pageHint is the caller's requested large-page size; 0 lets the
// allocator choose, otherwise it must be a power of two. It is a no-op
// for len(buf) < 2.
func Sort[T keymodel.Keyish](buf []T, dir Direction, mode Mode, pageHint int) error {
	if !validPageHint(pageHint) {
		return ErrInvalidArgument
	}
	n := len(buf)
	if n < 2 {
		return nil
	}
	desc := keymodel.Classify[T](mode)
	w := desc.Width
	size, err := checkedScratchSize(n, w)
	if err != nil {
		return err
	}
	scratch := memalloc.Acquire(size, pageHint)
	defer scratch.Release()
	run(keymodel.BytesOf(buf), n, w, desc, dir, planner.BufA, false, scratch.Bytes(), nil)
	return nil
}

// SortCopy sorts src into dst, allocating its own scratch buffer (§4.8
// entry 2). src is never written to. dst and src must be the same length
// and must not overlap. pageHint is as in Sort.
func SortCopy[T keymodel.Keyish](dst, src []T, dir Direction, mode Mode, pageHint int) error {
	if !validPageHint(pageHint) {
		return ErrInvalidArgument
	}
	n := len(src)
	if len(dst) != n {
		return ErrInvalidArgument
	}
	if n == 0 {
		return nil
	}
	srcBytes, dstBytes := keymodel.BytesOf(src), keymodel.BytesOf(dst)
	if overlaps(srcBytes, dstBytes) {
		return ErrInvalidArgument
	}
	desc := keymodel.Classify[T](mode)
	w := desc.Width
	size, err := checkedScratchSize(n, w)
	if err != nil {
		return err
	}
	scratch := memalloc.Acquire(size, pageHint)
	defer scratch.Release()
	run(srcBytes, n, w, desc, dir, planner.BufC, true, scratch.Bytes(), dstBytes)
	return nil
}

// SortNoAlloc sorts buf in place using caller-owned scratch (§4.8 entry
// 3, "sort-no-alloc"). finalInBuf selects which buffer the sorted result
// ends up in: true lands it back in buf, false leaves it in scratch
// (buf's contents are then an unspecified intermediate permutation).
// buf and scratch must be the same length and must not overlap.
func SortNoAlloc[T keymodel.Keyish](buf, scratch []T, dir Direction, mode Mode, finalInBuf bool) error {
	n := len(buf)
	if len(scratch) != n {
		return ErrInvalidArgument
	}
	if n == 0 {
		return nil
	}
	// n==1 with finalInBuf still needs no work: buf already holds the
	// single element in sorted order. n==1 with the sink in scratch still
	// needs the §4.2 single-element copy, so it must fall through to run,
	// whose planner.Build produces a zero-pass plan plus CopyNeeded.
	if n == 1 && finalInBuf {
		return nil
	}
	bufBytes, scratchBytes := keymodel.BytesOf(buf), keymodel.BytesOf(scratch)
	if overlaps(bufBytes, scratchBytes) {
		return ErrInvalidArgument
	}
	desc := keymodel.Classify[T](mode)
	w := desc.Width
	sink := planner.BufA
	if !finalInBuf {
		sink = planner.BufB
	}
	run(bufBytes, n, w, desc, dir, sink, false, scratchBytes, nil)
	return nil
}

// SortCopyNoAlloc sorts src into dst using caller-owned scratch (§4.8
// entry 4). All three of src, dst, and scratch must be the same length
// and pairwise non-overlapping. src is never written to.
func SortCopyNoAlloc[T keymodel.Keyish](dst, src, scratch []T, dir Direction, mode Mode) error {
	n := len(src)
	if len(dst) != n || len(scratch) != n {
		return ErrInvalidArgument
	}
	if n == 0 {
		return nil
	}
	srcBytes, dstBytes, scratchBytes := keymodel.BytesOf(src), keymodel.BytesOf(dst), keymodel.BytesOf(scratch)
	if overlaps(srcBytes, dstBytes) || overlaps(srcBytes, scratchBytes) || overlaps(dstBytes, scratchBytes) {
		return ErrInvalidArgument
	}
	desc := keymodel.Classify[T](mode)
	w := desc.Width
	run(srcBytes, n, w, desc, dir, planner.BufC, true, scratchBytes, dstBytes)
	return nil
}

// run drives one sort call's histogram/plan/scatter pipeline over the
// physical buffers named by the planner's Buffer enum. bufA always holds
// the call's input on entry; bufC is nil (and never referenced by the
// plan) unless copyFamily is true.
func run(bufA []byte, n, w int, desc keymodel.Descriptor, dir Direction, sink planner.Buffer, copyFamily bool, bufB, bufC []byte) {
	phys := map[planner.Buffer][]byte{planner.BufA: bufA, planner.BufB: bufB}
	if copyFamily {
		phys[planner.BufC] = bufC
	}

	h := histogram.Build(bufA, n, w, desc)
	plan := planner.Build(h, n, desc, sink, copyFamily)

	for i, step := range plan.Steps {
		// Only the first executed pass scans in reverse, which reverses the
		// order of tied keys; later passes scan forward so they keep the
		// order of the lower digits already sorted.
		passDir := dir
		if i > 0 && dir.Reversed() {
			if dir.Descending() {
				passDir = DescFwd
			} else {
				passDir = AscFwd
			}
		}
		cursor := scatter.BuildCursor(h.Counts[step.Pass], passDir)
		scatter.Run(phys[step.Src], phys[step.Dst], w, n, step.Pass, desc, passDir, &cursor)
	}
	scatter.Fence()

	if plan.CopyNeeded {
		copy(phys[plan.CopyTo], phys[plan.CopyFrom])
	}
}

// checkedScratchSize returns n*w, or ErrInvalidArgument if that product
// would overflow int — the "element count that would overflow the
// byte-length computation" case ErrInvalidArgument documents (§7).
func checkedScratchSize(n, w int) (int, error) {
	if w != 0 && n > math.MaxInt/w {
		return 0, ErrInvalidArgument
	}
	return n * w, nil
}

// validPageHint implements §4.8's page_hint contract: 0 ("allocator
// chooses") or a power of two.
func validPageHint(h int) bool {
	if h == 0 {
		return true
	}
	return h > 0 && h&(h-1) == 0
}

func overlaps(a, b []byte) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	aStart, aEnd := sliceAddr(a)
	bStart, bEnd := sliceAddr(b)
	return aStart < bEnd && bStart < aEnd
}
