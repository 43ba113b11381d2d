package vm

import (
	"sv39vm/internal/defs"
	"sv39vm/internal/mem"
)

// HandlePageFault is called by the trap dispatcher on a fault at
// faultVA. Only a paged-out PTE is handleable here; any other fault
// (unmapped VA, protection violation) is outside this subsystem's
// contract and is reported as EFAULT.
func (s *ProcessPagingState) HandlePageFault(faultVA int) error {
	i := mem.PageIndex(faultVA)
	pte, ok := s.pt.Lookup(i)
	if !ok || !pte.PagedOut() {
		return defs.NewError("handle_page_fault", defs.EFAULT)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.swapIn(faultVA)
	return nil
}

// AgeTick runs the active replacement policy's aging-history update
// across every resident page. Called by the scheduler immediately
// before this process's page tables are resumed.
func (s *ProcessPagingState) AgeTick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy.AgeTick(s)
}
