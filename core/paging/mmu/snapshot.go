package mmu

import "github.com/sushant-115/gojovmm/core/paging"

// Stats counts what the memory manager has done since it was created.
type Stats struct {
	Accesses      uint64 `json:"accesses"`
	Hits          uint64 `json:"hits"`
	Faults        uint64 `json:"faults"`
	Evictions     uint64 `json:"evictions"`
	OutOfRange    uint64 `json:"out_of_range"`
	ResidentPages int    `json:"resident_pages"`
}

// PageEntry is one row of a page table dump.
type PageEntry struct {
	Page  paging.PageID
	Frame paging.FrameID
	Valid bool
}

// FrameEntry is one row of a frame table dump.
type FrameEntry struct {
	Frame    paging.FrameID
	Page     paging.PageID
	Occupied bool
}

// Tables is a consistent copy of both tables.
type Tables struct {
	Pages      []PageEntry
	Frames     []FrameEntry
	NextVictim paging.FrameID
}

// Stats returns the current counters.
func (m *MMU) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.stats
	if m.pages != nil {
		s.ResidentPages = m.pages.Resident()
	}
	return s
}

// Tables copies both tables under the lock. It returns ErrShutdown once the
// tables have been released.
func (m *MMU) Tables() (Tables, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pages == nil {
		return Tables{}, ErrShutdown
	}

	t := Tables{NextVictim: m.frames.NextVictim()}
	for i, e := range m.pages.Entries() {
		frame, ok := e.Frame()
		t.Pages = append(t.Pages, PageEntry{Page: paging.PageID(i), Frame: frame, Valid: ok})
	}
	for i, s := range m.frames.Slots() {
		page, ok := s.Page()
		t.Frames = append(t.Frames, FrameEntry{Frame: paging.FrameID(i), Page: page, Occupied: ok})
	}
	return t, nil
}
