package frametable

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sushant-115/gojovmm/core/paging"
)

func TestNew_RejectsNonPositiveSize(t *testing.T) {
	ft, err := New(0)
	require.ErrorIs(t, err, paging.ErrInvalidConfig)
	require.Nil(t, ft)

	_, err = New(-3)
	require.ErrorIs(t, err, paging.ErrInvalidConfig)
}

func TestNew_EmptyFrames(t *testing.T) {
	ft, err := New(4)
	require.NoError(t, err)
	require.Equal(t, 4, ft.Len())
	require.Zero(t, ft.Occupied())
	require.Equal(t, paging.FrameID(0), ft.NextVictim())

	for _, s := range ft.Slots() {
		_, ok := s.Page()
		require.False(t, ok)
	}
}

func TestSelectVictim_IsPureRead(t *testing.T) {
	ft, err := New(3)
	require.NoError(t, err)

	frame, _, ok := ft.SelectVictim()
	require.Equal(t, paging.FrameID(0), frame)
	require.False(t, ok)

	ft.Occupy(0, 42)
	for i := 0; i < 3; i++ {
		frame, page, ok := ft.SelectVictim()
		require.Equal(t, paging.FrameID(0), frame)
		require.True(t, ok)
		require.Equal(t, paging.PageID(42), page)
	}
	require.Equal(t, paging.FrameID(0), ft.NextVictim())
}

func TestAdvance_RoundRobin(t *testing.T) {
	ft, err := New(3)
	require.NoError(t, err)

	var got []paging.FrameID
	for i := 0; i < 7; i++ {
		frame, _, _ := ft.SelectVictim()
		got = append(got, frame)
		ft.Advance()
	}
	require.Equal(t, []paging.FrameID{0, 1, 2, 0, 1, 2, 0}, got)
}

func TestAdvance_SingleFrame(t *testing.T) {
	ft, err := New(1)
	require.NoError(t, err)
	ft.Advance()
	ft.Advance()
	require.Equal(t, paging.FrameID(0), ft.NextVictim())
}

func TestOccupy_Overwrites(t *testing.T) {
	ft, err := New(2)
	require.NoError(t, err)

	ft.Occupy(1, 5)
	ft.Occupy(1, 6)
	page, ok := ft.Page(1)
	require.True(t, ok)
	require.Equal(t, paging.PageID(6), page)
	require.Equal(t, 1, ft.Occupied())

	require.Panics(t, func() { ft.Occupy(2, 0) })
}
