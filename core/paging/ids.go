// Package paging holds the identifiers shared by the page table, the frame
// table and the translator.
package paging

import "errors"

// PageID is the index of a virtual page.
type PageID uint64

// FrameID is the index of a physical frame.
type FrameID uint64

// ErrInvalidConfig is returned when a table or memory manager is sized with a
// non-positive value.
var ErrInvalidConfig = errors.New("invalid memory configuration")
