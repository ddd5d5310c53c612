package pagetable

import (
	"fmt"

	"github.com/sushant-115/gojovmm/core/paging"
)

// Entry is the residency record of one virtual page.
type Entry struct {
	frame paging.FrameID
	valid bool
}

// Frame returns the frame holding the page. ok is false when the page is not
// resident, in which case the frame value must not be used.
func (e Entry) Frame() (frame paging.FrameID, ok bool) {
	if !e.valid {
		return 0, false
	}
	return e.frame, true
}

func (e Entry) IsValid() bool { return e.valid }

// PageTable maps every virtual page of the process to its frame, if any.
// Its length is fixed at creation. It is not safe for concurrent use; the
// owner serializes access.
type PageTable struct {
	entries  []Entry
	resident int
}

// New allocates a page table with numPages non-resident entries.
func New(numPages int) (*PageTable, error) {
	if numPages <= 0 {
		return nil, fmt.Errorf("%w: number of pages must be positive, got %d", paging.ErrInvalidConfig, numPages)
	}
	return &PageTable{entries: make([]Entry, numPages)}, nil
}

func (pt *PageTable) Len() int { return len(pt.entries) }

// Resident returns how many pages are currently resident.
func (pt *PageTable) Resident() int { return pt.resident }

// IsResident reports whether page is loaded in a frame.
// page must be lower than Len.
func (pt *PageTable) IsResident(page paging.PageID) bool {
	return pt.entry(page).valid
}

// Frame returns the frame of a resident page.
func (pt *PageTable) Frame(page paging.PageID) (paging.FrameID, bool) {
	return pt.entry(page).Frame()
}

// Entry returns a copy of the entry for page.
func (pt *PageTable) Entry(page paging.PageID) Entry {
	return *pt.entry(page)
}

// MarkLoaded records that page now lives in frame. The page previously mapped
// to frame must already have been evicted.
func (pt *PageTable) MarkLoaded(page paging.PageID, frame paging.FrameID) {
	e := pt.entry(page)
	if !e.valid {
		pt.resident++
	}
	e.frame = frame
	e.valid = true
}

// MarkEvicted clears the residency of page.
func (pt *PageTable) MarkEvicted(page paging.PageID) {
	e := pt.entry(page)
	if e.valid {
		pt.resident--
	}
	*e = Entry{}
}

// Entries returns a copy of every entry, indexed by page.
func (pt *PageTable) Entries() []Entry {
	out := make([]Entry, len(pt.entries))
	copy(out, pt.entries)
	return out
}

func (pt *PageTable) entry(page paging.PageID) *Entry {
	if page >= paging.PageID(len(pt.entries)) {
		panic(fmt.Sprintf("pagetable: page %d out of range [0, %d)", page, len(pt.entries)))
	}
	return &pt.entries[page]
}
