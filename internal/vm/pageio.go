package vm

import (
	"fmt"

	"sv39vm/internal/mem"
)

// nextFreeOffset returns the first byte offset in [0, size) stepping by
// PageSize that no slot's Offset currently equals. It is an O(n²) linear
// scan, run only on eviction; no free-list is maintained. The bool
// result resolves the ambiguity a "return 0 means no slot" signal would
// create when offset 0 genuinely is free: false means no slot is
// available.
func (s *ProcessPagingState) nextFreeOffset() (int, bool) {
	for off := 0; off < s.size; off += PageSize {
		free := true
		for i := range s.meta {
			if !s.meta[i].InUse && s.meta[i].Offset == off {
				free = false
				break
			}
		}
		if free {
			return off, true
		}
	}
	return 0, false
}

// pageOut moves exactly one resident page out to offset in the swap
// file, freeing its physical frame and updating its PTE. A write
// failure is fatal: the process cannot safely continue with a half
// evicted page, so this panics rather than returning an error.
func (s *ProcessPagingState) pageOut(offset int) {
	v, ok := s.policy.Victim(s)
	if !ok {
		panic("vm: page_out found no victim to evict")
	}

	pte, ok := s.pt.Lookup(v)
	if !ok || !pte.Present() {
		panic(fmt.Sprintf("vm: page_out victim %d has no resident mapping", v))
	}
	frame := pte.Frame()

	if err := s.swap.Write(s.arena.Page(frame), offset); err != nil {
		panic(fmt.Sprintf("vm: swap write failed during eviction: %v", err))
	}
	s.metricsSwapWrite()

	s.arena.Free(frame)

	*s.pt.Walk(v, true) = mem.MkPTE(0, pte.Flags()&^mem.PTEValid|mem.PTEPagedOut)

	s.queue.Remove(v)
	s.meta[v].InUse = false
	s.meta[v].Offset = offset
	s.npages--

	s.metricsEviction()
	s.metricsResidentDelta(-1)
}

// swapIn is triggered by the fault handler when a PTE has the paged-out
// bit set. It makes the faulting page resident again, possibly at the
// cost of evicting another page first.
func (s *ProcessPagingState) swapIn(faultVA int) {
	i := mem.PageIndex(faultVA)
	if s.meta[i].Offset < 0 {
		panic(fmt.Sprintf("vm: fault on page %d with no swap offset: lost page", i))
	}

	f, ok := s.arena.Alloc()
	if !ok {
		panic("vm: frame allocation failed during swap-in")
	}

	offset := s.meta[i].Offset
	if err := s.swap.Read(s.arena.Page(f), offset); err != nil {
		panic(fmt.Sprintf("vm: swap read failed during fault-in: %v", err))
	}
	s.metricsSwapRead()

	if s.npages >= MaxPsycPages {
		s.pageOut(offset)
	}

	pte, _ := s.pt.Lookup(i)
	flags := pte.Flags()&^mem.PTEPagedOut | mem.PTEValid
	*s.pt.Walk(i, true) = mem.MkPTE(f, flags)

	s.meta[i].AgingCounter = s.policy.InitAging()
	s.meta[i].Offset = -1
	s.meta[i].InUse = true
	s.npages++
	s.policy.OnResident(s, i)

	s.metricsPageFault("major")
	s.metricsResidentDelta(1)

	tlbFlush()
}

// tlbFlush issues the architectural fence required after mutating a
// PTE this process is actively running under. Outside a real kernel
// there is no TLB to shoot down; this is a named no-op so the call site
// in swapIn documents the ordering guarantee it stands in for.
func tlbFlush() {}

func (s *ProcessPagingState) metricsPageFault(kind string) {
	if s.metrics == nil {
		return
	}
	s.metrics.PageFault(kind)
}

func (s *ProcessPagingState) metricsEviction() {
	if s.metrics == nil {
		return
	}
	s.metrics.Eviction(s.policy.Kind().String())
}

func (s *ProcessPagingState) metricsSwapRead() {
	if s.metrics == nil {
		return
	}
	s.metrics.SwapRead()
}

func (s *ProcessPagingState) metricsSwapWrite() {
	if s.metrics == nil {
		return
	}
	s.metrics.SwapWrite()
}

func (s *ProcessPagingState) metricsResidentDelta(d float64) {
	if s.metrics == nil {
		return
	}
	s.metrics.ResidentDelta(d)
}
