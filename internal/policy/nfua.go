package policy

// nfuaPolicy implements Not-Frequently-Used-Aging: the
// victim is the resident page with the smallest aging counter, ties
// broken toward the lowest index, never considering the first
// ReservedSlots indices.
type nfuaPolicy struct{}

func (nfuaPolicy) Kind() Selection { return NFUA }

func (nfuaPolicy) InitAging() uint32 { return 0 }

func (nfuaPolicy) AgeTick(ps PageSource) {
	ageTick(ps)
}

func (nfuaPolicy) Victim(ps PageSource) (int, bool) {
	best := -1
	var bestAge uint32
	for i := ReservedSlots; i < ps.NumSlots(); i++ {
		if !ps.InUse(i) {
			continue
		}
		age := ps.AgingCounter(i)
		if best == -1 || age < bestAge {
			best, bestAge = i, age
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

func (nfuaPolicy) OnResident(ps PageSource, i int) {
	ps.QueueEnqueue(i)
}

// ageTick implements the aging-history update shared by NFUA and LAPA:
// for every resident page, shift its aging counter right by one; if the
// page's PTE accessed bit is set, OR bit 31 into the counter; then clear
// the accessed bit in the same step so a page can never be credited
// twice for one access.
func ageTick(ps PageSource) {
	for i := 0; i < ps.NumSlots(); i++ {
		if !ps.InUse(i) {
			continue
		}
		age := ps.AgingCounter(i) >> 1
		if ps.PTEAccessed(i) {
			age |= 1 << 31
			ps.PTEClearAccessed(i)
		}
		ps.SetAgingCounter(i, age)
	}
}
