// Package scatter implements C4 (the digit scatter kernel) and folds in
// C5 (the sign/float fix-up protocol, via keymodel.NormalizedDigit) so the
// scatter loop itself never branches on signedness — exactly the "scatter
// loop is unmodified" design goal of spec.md §9.
package scatter

import (
	"sync/atomic"

	"github.com/janwillem32/rsbd8/keymodel"
)

// streamingThreshold is the streaming-store threshold of §4.4
// ("N·sizeof(E) >= 2x last-level-cache size"); we approximate "2x LLC"
// with a fixed 8 MiB threshold rather than probing cache topology, the way
// a portable library without a CPUID dependency would.
const streamingThreshold = 8 << 20

// Cursor is the running per-bucket insertion index built from a
// histogram's prefix sums (spec.md §3's Prefix table P).
type Cursor [256]uint32

// BuildCursor derives the initial insertion offsets for one pass's 256
// buckets from its histogram column, enumerating buckets ascending (low
// digit values get the low offsets) or descending according to dir. Keys
// are always counted as NormalizedDigit values (keymodel), so ascending
// enumeration here is sufficient to realize both the plain unsigned case
// and the already-normalized signed/float case — no separate bucket
// rotation table is needed (§4.5, §9).
func BuildCursor(counts [256]uint32, dir keymodel.Direction) Cursor {
	var c Cursor
	if !dir.Descending() {
		var sum uint32
		for b := 0; b < 256; b++ {
			c[b] = sum
			sum += counts[b]
		}
	} else {
		var sum uint32
		for b := 255; b >= 0; b-- {
			c[b] = sum
			sum += counts[b]
		}
	}
	return c
}

// Run performs one digit pass (§4.4): every key in src[0:n*w] is read once,
// in the scan order dir.Reversed() selects, and copied to its bucket's
// next free slot in dst. cursor is mutated in place; on return, for an
// ascending cursor, cursor[b] equals the original cursor[b+1] (or the
// total count for b==255), and for a descending cursor it equals the
// original cursor[b-1] (or the total count for b==0), i.e. every bucket
// has been filled exactly (the termination invariant).
//
// src and dst must not overlap — the planner never schedules a step that
// would violate that.
func Run(src, dst []byte, w, n, pass int, desc keymodel.Descriptor, dir keymodel.Direction, cursor *Cursor) {
	put := func(dst, src []byte) int { return copy(dst, src) }
	if int64(n)*int64(w) >= streamingThreshold {
		put = streamcopy
	}

	if !dir.Reversed() {
		for i := 0; i < n; i++ {
			key := src[i*w : i*w+w]
			d := keymodel.NormalizedDigit(key, pass, desc)
			j := int(cursor[d])
			cursor[d]++
			put(dst[j*w:j*w+w], key)
		}
	} else {
		for i := n - 1; i >= 0; i-- {
			key := src[i*w : i*w+w]
			d := keymodel.NormalizedDigit(key, pass, desc)
			j := int(cursor[d])
			cursor[d]++
			put(dst[j*w:j*w+w], key)
		}
	}
}

// streamcopy is the streaming-store path for large scatters. The Go
// toolchain gives no portable way to emit a non-temporal (MOVNTI-class)
// store from pure Go without per-GOARCH assembly of the kind the spec's
// original C++ relies on compiler intrinsics for; copy() already lowers
// to a bandwidth-tuned memmove, so we use it here too and rely on Fence
// below to provide the ordering guarantee §5 actually requires (the
// caller observing finalized memory), rather than hand-rolling
// architecture-specific non-temporal stores.
func streamcopy(dst, src []byte) int {
	return copy(dst, src)
}

// Fence provides the §5 memory-ordering guarantee: "non-temporal stores
// issued during scatter must be followed by a store fence before the
// dispatcher returns, so the caller observes finalized memory." A
// sync/atomic store is a full sequentially-consistent operation on every
// architecture Go supports, which is a stronger guarantee than a bare
// SFENCE would give and needs no per-arch assembly.
func Fence() {
	var b uint32
	atomic.StoreUint32(&b, 1)
	atomic.LoadUint32(&b)
}
