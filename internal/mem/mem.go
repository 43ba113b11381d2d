// Package mem models the hardware side of the paging subsystem: physical
// frames, the PTE bit layout, and a simulated 3-level Sv39-shaped page
// table. It plays the role biscuit's mem package plays for a real x86-64
// kernel (Pa_t physical addresses, Pmap_t page-table pages, PTE_* bit
// constants) but walks a software-backed frame arena instead of real
// hardware, since this module runs as an ordinary user-space library.
package mem

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// PageShift is the base-2 exponent of the page size.
const PageShift = 12

// PageSize is the size of a single page in bytes.
const PageSize = 1 << PageShift

// Frame identifies a physical frame by index into the arena. FrameNone
// marks "no frame" the way a nil pointer would.
type Frame int32

// FrameNone is the sentinel meaning "no frame allocated". It is -1, not
// the zero value: frame 0 is a valid frame.
const FrameNone Frame = -1

// PTE is one page-table entry: a frame number in the high bits and
// permission/status flags in the low bits, shaped after the Sv39 PTE
// format.
type PTE uint64

const ppnShift = 10

// PTE flag bits. PagedOut is the one software-reserved bit the design
// calls out explicitly; the rest mirror the architectural RSW-adjacent
// bits a real Sv39 PTE carries.
const (
	PTEValid PTE = 1 << 0
	PTERead  PTE = 1 << 1
	PTEWrite PTE = 1 << 2
	PTEExec  PTE = 1 << 3
	PTEUser  PTE = 1 << 4
	PTEAccessed PTE = 1 << 6
	// PTEPagedOut is the software-defined bit indicating the page's
	// contents live in the swap file, not physical memory.
	PTEPagedOut PTE = 1 << 8

	flagMask = (1 << ppnShift) - 1
)

// MkPTE packs a frame number and a flag set into a PTE.
func MkPTE(f Frame, flags PTE) PTE {
	return PTE(f)<<ppnShift | (flags & flagMask)
}

// Frame extracts the frame number encoded in the PTE.
func (p PTE) Frame() Frame {
	return Frame(p >> ppnShift)
}

// Flags extracts the flag bits, discarding the frame number.
func (p PTE) Flags() PTE {
	return p & flagMask
}

// Present reports whether the valid bit is set.
func (p PTE) Present() bool { return p&PTEValid != 0 }

// PagedOut reports whether the paged-out bit is set.
func (p PTE) PagedOut() bool { return p&PTEPagedOut != 0 }

// Accessed reports whether the accessed bit is set.
func (p PTE) Accessed() bool { return p&PTEAccessed != 0 }

// WithFlags returns a copy of p with its flags replaced, frame preserved.
func (p PTE) WithFlags(flags PTE) PTE {
	return MkPTE(p.Frame(), flags)
}

// ClearAccessed returns a copy of p with the accessed bit cleared.
func (p PTE) ClearAccessed() PTE {
	return p &^ PTEAccessed
}

// Arena is the simulated physical memory backing every frame, analogous
// to biscuit's Physmem_t direct map. It is backed by a single anonymous
// mmap region so that newly allocated frames come back zero-filled by
// the kernel, the same guarantee biscuit's Refpg_new gives by copying a
// Zeropg template.
type Arena struct {
	bytes []byte
	free  []bool
}

// NewArena reserves room for n physical frames.
func NewArena(n int) (*Arena, error) {
	b, err := unix.Mmap(-1, 0, n*PageSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("mem: reserve frame arena: %w", err)
	}
	free := make([]bool, n)
	for i := range free {
		free[i] = true
	}
	return &Arena{bytes: b, free: free}, nil
}

// Alloc reserves a free frame and returns it, or FrameNone if the arena
// is exhausted. The returned frame's bytes are always zero.
func (a *Arena) Alloc() (Frame, bool) {
	for i, isFree := range a.free {
		if isFree {
			a.free[i] = false
			clear(a.page(Frame(i)))
			return Frame(i), true
		}
	}
	return FrameNone, false
}

// Free releases a frame back to the arena.
func (a *Arena) Free(f Frame) {
	a.free[f] = true
}

// Page returns the byte slice backing frame f.
func (a *Arena) Page(f Frame) []byte {
	return a.page(f)
}

func (a *Arena) page(f Frame) []byte {
	off := int(f) * PageSize
	return a.bytes[off : off+PageSize]
}

// Close releases the arena's backing mapping.
func (a *Arena) Close() error {
	if a.bytes == nil {
		return nil
	}
	err := unix.Munmap(a.bytes)
	a.bytes = nil
	return err
}
