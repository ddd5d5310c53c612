package mmu

import (
	"errors"
	"fmt"

	"github.com/sushant-115/gojovmm/core/paging"
)

var (
	// ErrInvalidConfig is returned by New when a memory size is not positive.
	ErrInvalidConfig = paging.ErrInvalidConfig
	// ErrAddressOutOfRange matches every *AddressOutOfRangeError.
	ErrAddressOutOfRange = errors.New("virtual address out of range")
	// ErrShutdown is returned by Translate once the tables have been released.
	ErrShutdown = errors.New("memory manager is shut down")
)

// AddressOutOfRangeError reports a virtual address whose page index is not
// lower than the number of virtual pages. A standalone simulator treats it as
// fatal for the whole run; the library leaves that decision to the caller.
type AddressOutOfRangeError struct {
	VirtualAddress VirtualAddress
	Page           uint64
	NumPages       int
}

func (e *AddressOutOfRangeError) Error() string {
	return fmt.Sprintf("invalid virtual address %d: page %d not in [0, %d)", e.VirtualAddress, e.Page, e.NumPages)
}

func (e *AddressOutOfRangeError) Unwrap() error { return ErrAddressOutOfRange }
