package indirect_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/janwillem32/rsbd8/indirect"
	"github.com/janwillem32/rsbd8/keymodel"
)

func TestIdentityRefs(t *testing.T) {
	require.Equal(t, []uint32{0, 1, 2, 3}, indirect.Identity(4))
}

func TestSortByFieldOffsetProjection(t *testing.T) {
	type rec struct {
		key   uint32
		other byte
	}
	records := []rec{{30, 1}, {10, 2}, {20, 3}, {10, 4}}
	refs := indirect.Identity(len(records))
	proj := keymodel.FieldOffset[rec, uint32](0)

	require.NoError(t, indirect.Sort(refs, records, proj, keymodel.AscFwd, keymodel.Auto, 0))

	got := make([]uint32, len(refs))
	for i, r := range refs {
		got[i] = records[r].key
	}
	require.Equal(t, []uint32{10, 10, 20, 30}, got)
}

func TestSortStablePreservesOriginalOrderForEqualKeys(t *testing.T) {
	type rec struct{ key, tag uint32 }
	records := []rec{{5, 1}, {5, 2}, {1, 3}, {5, 4}}
	refs := indirect.Identity(len(records))
	proj := keymodel.FromFunc(func(r rec) uint32 { return r.key })

	require.NoError(t, indirect.Sort(refs, records, proj, keymodel.AscFwd, keymodel.Auto, 0))

	var tags []uint32
	for _, r := range refs {
		tags = append(tags, records[r].tag)
	}
	require.Equal(t, []uint32{3, 1, 2, 4}, tags)
}

func TestSortShortRefsNoOp(t *testing.T) {
	records := []int{42}
	refs := indirect.Identity(1)
	proj := keymodel.FromFunc(func(v int) uint32 { return uint32(v) })
	require.NoError(t, indirect.Sort(refs, records, proj, keymodel.AscFwd, keymodel.Auto, 0))
	require.Equal(t, []uint32{0}, refs)
}

func TestSortNoAllocWithCallerScratch(t *testing.T) {
	type rec struct{ co uint32 }
	records := []rec{{8}, {0}, {6}, {4}, {0}, {2}, {6}}
	refs := indirect.Identity(len(records))
	proj := keymodel.FromFunc(func(r rec) uint32 { return r.co })

	size := indirect.BufferSize[uint32](len(records))
	buf := make([]byte, size)
	scratch := make([]byte, size)
	require.NoError(t, indirect.SortNoAlloc(refs, records, proj, keymodel.AscFwd, keymodel.Auto, buf, scratch))

	got := make([]uint32, len(refs))
	for i, r := range refs {
		got[i] = records[r].co
	}
	require.Equal(t, []uint32{0, 0, 2, 4, 6, 6, 8}, got)
}

func TestSortNoAllocRejectsWrongBufferLength(t *testing.T) {
	type rec struct{ co uint32 }
	records := []rec{{1}, {2}}
	refs := indirect.Identity(len(records))
	proj := keymodel.FromFunc(func(r rec) uint32 { return r.co })

	scratch := make([]byte, indirect.BufferSize[uint32](len(records)))
	require.ErrorIs(t, indirect.SortNoAlloc(refs, records, proj, keymodel.AscFwd, keymodel.Auto, make([]byte, 1), scratch), indirect.ErrInvalidArgument)
}
