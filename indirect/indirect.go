// Package indirect implements C6: sorting a reference array (indices into
// an immovable or expensive-to-move record array) by a projected key,
// instead of moving the records themselves.
package indirect

import (
	"encoding/binary"
	"unsafe"

	"github.com/janwillem32/rsbd8/histogram"
	"github.com/janwillem32/rsbd8/keymodel"
	"github.com/janwillem32/rsbd8/memalloc"
	"github.com/janwillem32/rsbd8/planner"
	"github.com/janwillem32/rsbd8/scatter"
)

type errorType string

func (e errorType) Error() string { return string(e) }

// ErrInvalidArgument indicates a caller-supplied buffer (to SortNoAlloc) of
// the wrong length or overlapping another buffer.
const ErrInvalidArgument = errorType("indirect: invalid argument")

// BufferSize returns the byte length SortNoAlloc's buf and scratch
// parameters must each have to sort n references with a K-shaped
// projected key: n keycache records of kw+4 bytes (key bytes plus the
// trailing uint32 reference tag).
func BufferSize[K keymodel.Keyish](n int) int {
	return n * (keymodel.SizeOf[K]() + 4)
}

// Sort permutes refs in place so that records[refs[0]], records[refs[1]],
// ... are in key order under dir, where the key of each record is
// proj(records[ref]). It allocates its own keycache buffers via memalloc
// (§4.8's page_hint contract: 0 lets the allocator choose, otherwise it
// must be a power of two), mirroring C8's allocating entry points.
func Sort[T any, K keymodel.Keyish](refs []uint32, records []T, proj keymodel.Projector[T, K], dir keymodel.Direction, mode keymodel.Mode, pageHint int) error {
	n := len(refs)
	if n < 2 {
		return nil
	}
	size := BufferSize[K](n)
	buf := memalloc.Acquire(size, pageHint)
	defer buf.Release()
	scratch := memalloc.Acquire(size, pageHint)
	defer scratch.Release()
	return SortNoAlloc(refs, records, proj, dir, mode, buf.Bytes(), scratch.Bytes())
}

// SortNoAlloc is Sort's caller-scratch variant, the indirect-sort
// counterpart of C8's no-alloc entry shapes (spec.md §1's hard constraint
// that the framework "avoid[s] an allocation on the hot path by accepting
// caller-provided scratch buffers"). buf and scratch must each be
// BufferSize[K](len(refs)) bytes and must not overlap.
//
// A naive indirect sort re-derefs records[refs[i]] on every one of the
// desc.Width digit passes, which is O(N*W) indirect reads for a W-byte
// key; that defeats the locality the direct (C1-C5) path relies on
// whenever the key is wider than a couple of bytes or proj is non-trivial.
// SortNoAlloc instead builds a keycache once (§4.6) in buf: a flat byte
// buffer holding, per reference, the projected key immediately followed
// by a 4-byte copy of the original index. That buffer is then run through
// the ordinary histogram/planner/scatter pipeline as if it were itself
// the array being sorted — the trailing index tag just rides along on
// every scatter copy — which bounds total indirect reads to exactly N,
// done once, regardless of W or how many passes the planner schedules.
func SortNoAlloc[T any, K keymodel.Keyish](refs []uint32, records []T, proj keymodel.Projector[T, K], dir keymodel.Direction, mode keymodel.Mode, buf, scratch []byte) error {
	n := len(refs)
	if n < 2 {
		return nil
	}

	desc := keymodel.Classify[K](mode)
	kw := desc.Width
	rw := kw + 4 // key bytes followed by the uint32 reference tag
	size := n * rw
	if len(buf) != size || len(scratch) != size {
		return ErrInvalidArgument
	}
	bs, ss := uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&scratch[0]))
	if bs < ss+uintptr(size) && ss < bs+uintptr(size) {
		return ErrInvalidArgument
	}

	for i, ref := range refs {
		k := proj(records[ref])
		writeKeyBytes(buf[i*rw:i*rw+kw], k)
		binary.LittleEndian.PutUint32(buf[i*rw+kw:i*rw+rw], ref)
	}
	phys := map[planner.Buffer][]byte{planner.BufA: buf, planner.BufB: scratch}

	h := histogram.Build(buf, n, rw, desc)
	plan := planner.Build(h, n, desc, planner.BufA, false)

	for i, step := range plan.Steps {
		// As in the direct sort, only the first executed pass scans in
		// reverse; later passes scan forward.
		passDir := dir
		if i > 0 && dir.Reversed() {
			if dir.Descending() {
				passDir = keymodel.DescFwd
			} else {
				passDir = keymodel.AscFwd
			}
		}
		cursor := scatter.BuildCursor(h.Counts[step.Pass], passDir)
		scatter.Run(phys[step.Src], phys[step.Dst], rw, n, step.Pass, desc, passDir, &cursor)
	}
	scatter.Fence()

	final := buf
	if len(plan.Steps) > 0 {
		final = phys[plan.Steps[len(plan.Steps)-1].Dst]
	}
	if plan.CopyNeeded {
		copy(phys[plan.CopyTo], phys[plan.CopyFrom])
		final = phys[plan.CopyTo]
	}

	for i := 0; i < n; i++ {
		refs[i] = binary.LittleEndian.Uint32(final[i*rw+kw : i*rw+rw])
	}
	return nil
}

// Identity builds the initial [0, 1, 2, ..., n-1) reference array a caller
// hands to Sort.
func Identity(n int) []uint32 {
	refs := make([]uint32, n)
	for i := range refs {
		refs[i] = uint32(i)
	}
	return refs
}

// writeKeyBytes copies k's raw bytes into dst without boxing k in a
// slice literal first — the keycache-build loop runs once per reference
// and this keeps it allocation-free.
func writeKeyBytes[K keymodel.Keyish](dst []byte, k K) {
	src := unsafe.Slice((*byte)(unsafe.Pointer(&k)), unsafe.Sizeof(k))
	copy(dst, src)
}
