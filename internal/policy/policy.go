// Package policy implements the three selectable page-replacement
// algorithms — NFUA, LAPA, SCFIFO — plus the NONE policy that disables
// the paging subsystem outright. Each is dispatched behind the Policy
// interface rather than picked by build tag, so selection becomes a
// runtime-chosen strategy instead of conditional compilation.
package policy

// Selection names one of the four replacement strategies a process's
// paging state can be configured with.
type Selection int

const (
	// None disables paging: allocation always uses a fresh frame and
	// no swap state is maintained.
	None Selection = iota
	NFUA
	LAPA
	SCFIFO
)

func (s Selection) String() string {
	switch s {
	case None:
		return "NONE"
	case NFUA:
		return "NFUA"
	case LAPA:
		return "LAPA"
	case SCFIFO:
		return "SCFIFO"
	default:
		return "UNKNOWN"
	}
}

// ReservedSlots is the count of low page indices (text/data/guard of the
// initial process image) the aging policies never select as a victim.
// The growth path does not refuse to mark these slots resident, only
// victim selection skips them.
const ReservedSlots = 3

// PageSource is the view into a process's paging state a Policy needs in
// order to pick a victim and run its aging tick. It decouples this
// package from internal/vm's concrete ProcessPagingState, the way
// biscuit decouples mem.Page_i (the frame allocator interface) from its
// callers.
type PageSource interface {
	// NumSlots returns the fixed size of the PageMeta table
	// (MAX_TOTAL_PAGES).
	NumSlots() int
	// InUse reports whether page i is currently resident.
	InUse(i int) bool
	// AgingCounter returns page i's aging history word.
	AgingCounter(i int) uint32
	// SetAgingCounter overwrites page i's aging history word.
	SetAgingCounter(i int, v uint32)
	// PTEAccessed reports whether page i's PTE has the accessed bit set.
	PTEAccessed(i int) bool
	// PTEClearAccessed clears page i's PTE accessed bit.
	PTEClearAccessed(i int)
	// QueueEnqueue appends page i to the resident queue's tail.
	QueueEnqueue(i int)
	// QueueDequeue removes and returns the page index at the queue head.
	QueueDequeue() int
	// QueueLen reports the resident queue's current length.
	QueueLen() int
}

// Policy selects eviction victims and ages resident pages. Exactly one
// implementation is active per process, chosen at construction time.
type Policy interface {
	// Kind reports which Selection this Policy implements.
	Kind() Selection
	// InitAging returns the aging-counter value a freshly resident page
	// should start with.
	InitAging() uint32
	// AgeTick runs one aging-history update across every resident page
	// in ps. It is a no-op for SCFIFO and None.
	AgeTick(ps PageSource)
	// Victim chooses the page index to evict next. SCFIFO dequeues the
	// victim from the resident queue; NFUA and LAPA leave the queue
	// untouched. It returns false if no page can be evicted (e.g. every
	// resident page is reserved).
	Victim(ps PageSource) (int, bool)
	// OnResident is invoked whenever a page newly becomes resident,
	// enqueuing it on the resident queue. Every non-None policy
	// enqueues, so the queue stays consistent with the resident set
	// even for NFUA/LAPA, which never consult it for victim selection
	// (this queue invariant applies regardless of policy).
	OnResident(ps PageSource, i int)
}

// New constructs the Policy implementation for the given selection.
func New(sel Selection) Policy {
	switch sel {
	case NFUA:
		return nfuaPolicy{}
	case LAPA:
		return lapaPolicy{}
	case SCFIFO:
		return scfifoPolicy{}
	default:
		return nonePolicy{}
	}
}
