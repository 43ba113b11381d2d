package vm

import (
	"fmt"

	"sv39vm/internal/defs"
	"sv39vm/internal/mem"
)

// UvmUnmap tears down npages pages starting at va. If freeFrames is
// true, each resident page's physical frame is returned to the arena.
// A PTE that is already cleared is silently skipped, making repeated
// unmap of the same range a no-op; walking an address that is not
// page-aligned is a programming bug and panics.
func (s *ProcessPagingState) UvmUnmap(va int, npages int, freeFrames bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if va%PageSize != 0 {
		panic(fmt.Sprintf("vm: unmap of unaligned address %#x", va))
	}
	start := mem.PageIndex(va)
	for k := 0; k < npages; k++ {
		s.unmapOne(start+k, freeFrames)
	}
	return nil
}

// unmapOne clears one page's mapping and metadata. It is the shared
// body behind UvmUnmap and UvmDealloc's page-by-page teardown.
func (s *ProcessPagingState) unmapOne(i int, freeFrames bool) {
	pte, ok := s.pt.Lookup(i)
	if !ok || pte == 0 {
		return // not present: sparse ranges tear down silently.
	}

	switch {
	case pte.Present():
		if freeFrames {
			s.arena.Free(pte.Frame())
		}
		s.meta[i].InUse = false
		s.meta[i].Offset = -1
		s.npages--
		s.queue.Remove(i)
		s.metricsResidentDelta(-1)
	case pte.PagedOut():
		s.meta[i].Offset = -1
	}

	*s.pt.Walk(i, true) = 0
}

// UvmCopy duplicates the first sz bytes of this process's address space
// into child: every resident page is copied frame-for-frame, the swap
// file is copied byte-for-byte so pages that are paged out remain valid
// once the child resumes, and the PageMeta table and resident queue are
// deep-copied. It returns an error if the child runs out of physical
// frames partway through, after unmapping whatever it had already
// mapped in the child — a recoverable failure, never a panic.
func (s *ProcessPagingState) UvmCopy(child *ProcessPagingState, sz int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	child.mu.Lock()
	defer child.mu.Unlock()

	if err := child.swap.CopyFrom(s.swap); err != nil {
		return fmt.Errorf("vm: fork: copy swap file: %w", err)
	}

	for i := 0; i < MaxTotalPages && mem.VA(i) < sz; i++ {
		pte, ok := s.pt.Lookup(i)
		if !ok || !pte.Present() {
			continue
		}

		f, allocOK := child.arena.Alloc()
		if !allocOK {
			for j := 0; j < i; j++ {
				child.unmapOne(j, true)
			}
			return defs.NewError("uvm_copy", defs.ENOMEM)
		}
		copy(child.arena.Page(f), s.arena.Page(pte.Frame()))
		*child.pt.Walk(i, true) = mem.MkPTE(f, pte.Flags())

		child.meta[i] = s.meta[i]
		child.npages++
		child.metricsResidentDelta(1)
	}

	// Copy the resident queue in the parent's order by rotating it once.
	for k := 0; k < s.queue.Len(); k++ {
		i := s.queue.Dequeue()
		s.queue.Enqueue(i)
		child.queue.Enqueue(i)
	}

	for i := 0; i < MaxTotalPages && mem.VA(i) < sz; i++ {
		if s.meta[i].InUse || s.meta[i].Offset < 0 {
			continue
		}
		pte, _ := s.pt.Lookup(i)
		child.meta[i] = s.meta[i]
		*child.pt.Walk(i, true) = mem.MkPTE(0, pte.Flags())
	}

	child.size = sz
	return nil
}
