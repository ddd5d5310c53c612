// Package frametable tracks which virtual page occupies each physical frame
// and hands out victims in FIFO order.
package frametable

import (
	"fmt"

	"github.com/sushant-115/gojovmm/core/paging"
)

// Slot is the occupancy record of one frame.
type Slot struct {
	page     paging.PageID
	occupied bool
}

// Page returns the page loaded in the frame. ok is false for an empty frame.
func (s Slot) Page() (page paging.PageID, ok bool) {
	if !s.occupied {
		return 0, false
	}
	return s.page, true
}

// FrameTable models physical memory as a fixed number of frames. Victims are
// chosen round-robin, so the frame that has held its page the longest goes
// first and access recency is ignored. It is not safe for concurrent use.
type FrameTable struct {
	slots      []Slot
	nextVictim paging.FrameID
	occupied   int
}

// New allocates numFrames empty frames with the victim pointer at frame 0.
func New(numFrames int) (*FrameTable, error) {
	if numFrames <= 0 {
		return nil, fmt.Errorf("%w: number of frames must be positive, got %d", paging.ErrInvalidConfig, numFrames)
	}
	return &FrameTable{slots: make([]Slot, numFrames)}, nil
}

func (ft *FrameTable) Len() int { return len(ft.slots) }

// Occupied returns the number of frames holding a page.
func (ft *FrameTable) Occupied() int { return ft.occupied }

// NextVictim returns the frame the next fault will use.
func (ft *FrameTable) NextVictim() paging.FrameID { return ft.nextVictim }

// SelectVictim returns the next frame in FIFO order together with the page
// it currently holds, if any. It does not change any state.
func (ft *FrameTable) SelectVictim() (frame paging.FrameID, evicted paging.PageID, ok bool) {
	frame = ft.nextVictim
	evicted, ok = ft.slots[frame].Page()
	return frame, evicted, ok
}

// Advance moves the victim pointer to the following frame, wrapping around.
// It must be called exactly once per fault.
func (ft *FrameTable) Advance() {
	ft.nextVictim = (ft.nextVictim + 1) % paging.FrameID(len(ft.slots))
}

// Occupy records page as the content of frame, replacing whatever was there.
func (ft *FrameTable) Occupy(frame paging.FrameID, page paging.PageID) {
	s := ft.slot(frame)
	if !s.occupied {
		ft.occupied++
	}
	s.page = page
	s.occupied = true
}

// Page returns the page held by frame.
func (ft *FrameTable) Page(frame paging.FrameID) (paging.PageID, bool) {
	return ft.slot(frame).Page()
}

// Slots returns a copy of every slot, indexed by frame.
func (ft *FrameTable) Slots() []Slot {
	out := make([]Slot, len(ft.slots))
	copy(out, ft.slots)
	return out
}

func (ft *FrameTable) slot(frame paging.FrameID) *Slot {
	if frame >= paging.FrameID(len(ft.slots)) {
		panic(fmt.Sprintf("frametable: frame %d out of range [0, %d)", frame, len(ft.slots)))
	}
	return &ft.slots[frame]
}
