package pagetable

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sushant-115/gojovmm/core/paging"
)

func TestNew_RejectsNonPositiveSize(t *testing.T) {
	for _, n := range []int{0, -1, -1024} {
		pt, err := New(n)
		require.ErrorIs(t, err, paging.ErrInvalidConfig)
		require.Nil(t, pt)
	}
}

func TestNew_AllPagesUnmapped(t *testing.T) {
	pt, err := New(8)
	require.NoError(t, err)
	require.Equal(t, 8, pt.Len())
	require.Zero(t, pt.Resident())

	for p := paging.PageID(0); p < 8; p++ {
		require.False(t, pt.IsResident(p))
		_, ok := pt.Frame(p)
		require.False(t, ok)
	}
}

func TestMarkLoadedAndEvicted(t *testing.T) {
	pt, err := New(4)
	require.NoError(t, err)

	pt.MarkLoaded(2, 3)
	require.True(t, pt.IsResident(2))
	frame, ok := pt.Frame(2)
	require.True(t, ok)
	require.Equal(t, paging.FrameID(3), frame)
	require.Equal(t, 1, pt.Resident())

	// Reloading a resident page into another frame does not double count.
	pt.MarkLoaded(2, 1)
	require.Equal(t, 1, pt.Resident())
	frame, _ = pt.Frame(2)
	require.Equal(t, paging.FrameID(1), frame)

	pt.MarkEvicted(2)
	require.False(t, pt.IsResident(2))
	_, ok = pt.Frame(2)
	require.False(t, ok)
	require.Zero(t, pt.Resident())

	// Evicting a page that is not resident is a no-op.
	pt.MarkEvicted(0)
	require.Zero(t, pt.Resident())
}

func TestEntries_ReturnsCopy(t *testing.T) {
	pt, err := New(2)
	require.NoError(t, err)
	pt.MarkLoaded(1, 0)

	entries := pt.Entries()
	require.Len(t, entries, 2)
	require.False(t, entries[0].IsValid())
	require.True(t, entries[1].IsValid())

	entries[0] = Entry{frame: 5, valid: true}
	require.False(t, pt.IsResident(0))
}

func TestOutOfRangePanics(t *testing.T) {
	pt, err := New(2)
	require.NoError(t, err)

	require.Panics(t, func() { pt.IsResident(2) })
	require.Panics(t, func() { pt.MarkLoaded(7, 0) })
	require.Panics(t, func() { pt.MarkEvicted(2) })
}
