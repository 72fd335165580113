package rsbd8_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/janwillem32/rsbd8"
	"github.com/janwillem32/rsbd8/indirect"
	"github.com/janwillem32/rsbd8/keymodel"
)

// S1/S2 — ldouble80 edge mix.
func TestSortLDouble80EdgeMix(t *testing.T) {
	in := func() []keymodel.LDouble80 {
		return []keymodel.LDouble80{
			keymodel.NewLDouble80(0, 0xFFFF),
			keymodel.NewLDouble80(0, 0x7FFF),
			keymodel.NewLDouble80(0x8000000000000000, 0xFFFF),
			keymodel.NewLDouble80(0xFFFFFFFFFFFFFFFF, 0x7FFE),
			keymodel.NewLDouble80(0, 0x0001),
			keymodel.NewLDouble80(0xFFFFFFFFFFFFFFFF, 0x0000),
			keymodel.NewLDouble80(1, 0x0000),
		}
	}
	wantAscFwd := []keymodel.LDouble80{
		keymodel.NewLDouble80(0x8000000000000000, 0xFFFF),
		keymodel.NewLDouble80(0, 0xFFFF),
		keymodel.NewLDouble80(1, 0x0000),
		keymodel.NewLDouble80(0xFFFFFFFFFFFFFFFF, 0x0000),
		keymodel.NewLDouble80(0, 0x0001),
		keymodel.NewLDouble80(0xFFFFFFFFFFFFFFFF, 0x7FFE),
		keymodel.NewLDouble80(0, 0x7FFF),
	}

	t.Run("asc-fwd", func(t *testing.T) {
		buf := in()
		require.NoError(t, rsbd8.Sort(buf, rsbd8.AscFwd, rsbd8.ForceFloat, 0))
		require.Equal(t, wantAscFwd, buf)
	})

	t.Run("desc-rev is the reverse", func(t *testing.T) {
		buf := in()
		require.NoError(t, rsbd8.Sort(buf, rsbd8.DescRev, rsbd8.ForceFloat, 0))
		want := make([]keymodel.LDouble80, len(wantAscFwd))
		for i, v := range wantAscFwd {
			want[len(want)-1-i] = v
		}
		require.Equal(t, want, buf)
	})
}

// S3 — single-byte enum codes.
func TestSortSingleByteCodes(t *testing.T) {
	in := []uint8{0, 37, 63, 18, 26, 55, 40}

	t.Run("asc-fwd", func(t *testing.T) {
		buf := append([]uint8(nil), in...)
		require.NoError(t, rsbd8.Sort(buf, rsbd8.AscFwd, rsbd8.Auto, 0))
		require.Equal(t, []uint8{0, 18, 26, 37, 40, 55, 63}, buf)
	})

	t.Run("desc-rev", func(t *testing.T) {
		buf := append([]uint8(nil), in...)
		require.NoError(t, rsbd8.Sort(buf, rsbd8.DescRev, rsbd8.Auto, 0))
		require.Equal(t, []uint8{63, 55, 40, 37, 26, 18, 0}, buf)
	})
}

// S4 — 32-bit float sign-magnitude mix, reinterpreted from raw uint32.
func TestSortForceFloatUint32(t *testing.T) {
	buf := []uint32{8, 0, 3, 0x80000002, 3, 0x80000012, 0x80000002}
	require.NoError(t, rsbd8.Sort(buf, rsbd8.AscFwd, rsbd8.ForceFloat, 0))
	require.Equal(t, []uint32{0x80000012, 0x80000002, 0x80000002, 0, 3, 3, 8}, buf)
}

// S5 — indirect sort via a key projection.
func TestIndirectSortByProjection(t *testing.T) {
	type withCo struct{ co uint32 }
	records := []withCo{{8}, {0}, {6}, {4}, {0}, {2}, {6}}
	refs := indirect.Identity(len(records))
	proj := keymodel.FromFunc(func(r withCo) uint32 { return r.co })

	require.NoError(t, indirect.Sort(refs, records, proj, keymodel.AscFwd, keymodel.Auto, 0))

	got := make([]uint32, len(refs))
	for i, r := range refs {
		got[i] = records[r].co
	}
	require.Equal(t, []uint32{0, 0, 2, 4, 6, 6, 8}, got)
}

// S6 — large-array sortedness property (scaled down from the spec's 1 GiB
// scenario to 1 MiB).
func TestSortLargeArraySortedness(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	buf := make([]uint8, 1<<20)
	for i := range buf {
		buf[i] = uint8(rng.Intn(256))
	}
	require.NoError(t, rsbd8.Sort(buf, rsbd8.AscFwd, rsbd8.Auto, 0))
	for i := 1; i < len(buf); i++ {
		require.LessOrEqualf(t, buf[i-1], buf[i], "index %d", i)
	}
}

// P2 — permutation invariant: SortCopy must not change the multiset.
func TestSortCopyPreservesMultiset(t *testing.T) {
	src := []int32{5, -3, 0, 17, -128, 42, -1}
	dst := make([]int32, len(src))
	require.NoError(t, rsbd8.SortCopy(dst, src, rsbd8.AscFwd, rsbd8.Auto, 0))

	counts := func(vals []int32) map[int32]int {
		m := map[int32]int{}
		for _, v := range vals {
			m[v]++
		}
		return m
	}
	require.Equal(t, counts(src), counts(dst))
	for i := 1; i < len(dst); i++ {
		require.LessOrEqual(t, dst[i-1], dst[i])
	}
	// src must be untouched.
	require.Equal(t, []int32{5, -3, 0, 17, -128, 42, -1}, src)
}

// P4 — idempotence: sorting an already-sorted array changes nothing.
func TestSortIdempotentOnSortedInput(t *testing.T) {
	buf := []uint32{1, 2, 3, 4, 5, 6, 7, 8}
	want := append([]uint32(nil), buf...)
	require.NoError(t, rsbd8.Sort(buf, rsbd8.AscFwd, rsbd8.Auto, 0))
	require.Equal(t, want, buf)
}

func TestSortNoAllocFinalInBufFalseLeavesBufUnwritten(t *testing.T) {
	// Every value's high byte is 0, so that digit pass is trivial and gets
	// elided; the single remaining pass writes only to scratch, so buf is
	// never written back to at all.
	buf := []uint16{5, 1, 4, 2, 3}
	orig := append([]uint16(nil), buf...)
	scratch := make([]uint16, len(buf))
	require.NoError(t, rsbd8.SortNoAlloc(buf, scratch, rsbd8.AscFwd, rsbd8.Auto, false))
	require.Equal(t, []uint16{1, 2, 3, 4, 5}, scratch)
	require.Equal(t, orig, buf)
}

// spec.md §4.2: N=1 is a zero-pass plan plus a single-element copy if
// src != dst. finalInBuf=false makes scratch the sink here, so the single
// element must land in scratch even though no digit pass runs.
func TestSortNoAllocSingleElementFinalInBufFalseCopiesToScratch(t *testing.T) {
	buf := []uint32{42}
	scratch := []uint32{0}
	require.NoError(t, rsbd8.SortNoAlloc(buf, scratch, rsbd8.AscFwd, rsbd8.Auto, false))
	require.Equal(t, []uint32{42}, scratch)
	require.Equal(t, []uint32{42}, buf)
}

func TestSortCopyNoAllocRejectsLengthMismatch(t *testing.T) {
	src := []uint8{1, 2, 3}
	dst := make([]uint8, 2)
	scratch := make([]uint8, 3)
	require.ErrorIs(t, rsbd8.SortCopyNoAlloc(dst, src, scratch, rsbd8.AscFwd, rsbd8.Auto), rsbd8.ErrInvalidArgument)
}

func TestSortEmptyAndSingleton(t *testing.T) {
	var empty []int32
	require.NoError(t, rsbd8.Sort(empty, rsbd8.AscFwd, rsbd8.Auto, 0))

	one := []int32{42}
	require.NoError(t, rsbd8.Sort(one, rsbd8.AscFwd, rsbd8.Auto, 0))
	require.Equal(t, []int32{42}, one)
}
