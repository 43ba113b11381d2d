package vm

import (
	"sv39vm/internal/defs"
	"sv39vm/internal/mem"
	"sv39vm/internal/policy"
	"sv39vm/internal/util"
)

// UvmAlloc grows the address space from oldSz to newSz, page by page.
// The initial/system process (pid <= 1) is exempt from the paging cap:
// its pages are permanently resident and never touch swap. Any other
// process is refused growth beyond MaxTotalPages*PageSize, and once the
// physical-residency cap is hit, growth first evicts via pageOut before
// installing each new frame.
//
// On allocation failure the address space is rolled back to oldSz via
// UvmDealloc and the zero value is returned alongside a *PagingError —
// the syscall-level caller is expected to treat this as "growth
// failed", never retry.
func (s *ProcessPagingState) UvmAlloc(oldSz, newSz int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.PID > 1 && newSz > MaxTotalPages*PageSize {
		return 0, defs.NewError("uvm_alloc", defs.ENOMEM)
	}

	for a := util.Rounddown(oldSz, PageSize); a < newSz; a += PageSize {
		i := mem.PageIndex(a)

		if s.PID <= 1 || s.policy.Kind() == policy.None {
			f, ok := s.arena.Alloc()
			if !ok {
				s.unlockedDealloc(a+PageSize, oldSz)
				return 0, defs.NewError("uvm_alloc", defs.ENOMEM)
			}
			*s.pt.Walk(i, true) = mem.MkPTE(f, mem.PTEValid|mem.PTERead|mem.PTEWrite|mem.PTEUser)
			continue
		}

		if s.npages >= MaxPsycPages {
			// Every page below a is already mapped, so the swap-offset
			// search must cover [0, a) even before growth completes.
			if a > s.size {
				s.size = a
			}
			off, ok := s.nextFreeOffset()
			if !ok {
				s.unlockedDealloc(a+PageSize, oldSz)
				return 0, defs.NewError("uvm_alloc", defs.ENOMEM)
			}
			s.pageOut(off)
		}

		f, ok := s.arena.Alloc()
		if !ok {
			s.unlockedDealloc(a+PageSize, oldSz)
			return 0, defs.NewError("uvm_alloc", defs.ENOMEM)
		}
		*s.pt.Walk(i, true) = mem.MkPTE(f, mem.PTEValid|mem.PTERead|mem.PTEWrite|mem.PTEUser)
		s.meta[i].InUse = true
		s.meta[i].Offset = -1
		s.meta[i].AgingCounter = s.policy.InitAging()
		s.npages++
		s.policy.OnResident(s, i)
		s.metricsResidentDelta(1)
	}

	s.size = newSz
	return newSz, nil
}

// UvmDealloc shrinks the address space from oldSz down to newSz,
// unmapping and freeing every page in between.
func (s *ProcessPagingState) UvmDealloc(oldSz, newSz int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unlockedDealloc(oldSz, newSz)
	return newSz
}

// unlockedDealloc is UvmDealloc's body, callable while s.mu is already
// held (UvmAlloc's rollback path).
func (s *ProcessPagingState) unlockedDealloc(oldSz, newSz int) {
	lo := util.Rounddown(newSz, PageSize)
	hi := util.Rounddown(oldSz, PageSize)
	for a := lo; a < hi; a += PageSize {
		s.unmapOne(mem.PageIndex(a), true)
	}
	s.size = newSz
}
