// Package vm implements the per-process paging state machine: the
// PageMeta table, its resident queue, and the operations that grow,
// shrink, fault-fill, fork and unmap a user address space. It is
// grounded on biscuit's vm.Vm_t (src/vm/as.go) — a mutex-guarded struct
// aggregating a page table, a region list and page-fault state —
// generalized here to additionally own the swap file and paging
// metadata biscuit otherwise keeps in mem.Pmap_t and proc.Proc_t.
package vm

import (
	"fmt"
	"strings"
	"sync"

	"sv39vm/internal/mem"
	"sv39vm/internal/metrics"
	"sv39vm/internal/policy"
	"sv39vm/internal/queue"
	"sv39vm/internal/swap"
)

// Tunables.
const (
	PageSize      = mem.PageSize
	MaxPsycPages  = 16 // physical residency cap per process
	MaxTotalPages = 32 // total virtual pages per process subject to paging
	ReservedSlots = policy.ReservedSlots
)

// PageMeta is one record in the per-process paging table.
// Offset -1 means "not on disk"; InUse and Offset>=0 are mutually
// exclusive.
type PageMeta struct {
	InUse        bool
	Offset       int
	AgingCounter uint32
}

// ProcessPagingState aggregates a process's paging state: the PageMeta
// table, the resident queue, the pages_in_memory counter, the swap file
// handle and the page table. It implements policy.PageSource so the
// replacement policies can operate on it without this package depending
// on internal/policy's internals.
type ProcessPagingState struct {
	mu sync.Mutex

	PID    int
	meta   [MaxTotalPages]PageMeta
	queue  *queue.ResidentQueue
	npages int

	pt     *mem.PageTable
	arena  *mem.Arena
	swap   *swap.File
	policy policy.Policy

	size int // process_size in bytes; tracks the high-water VA

	metrics *metrics.Registry
}

// New constructs a ProcessPagingState for a process with the given pid,
// a fresh swap file at swapPath, using the given replacement policy and
// a shared physical-frame arena. metrics may be nil.
func New(pid int, swapPath string, sel policy.Selection, arena *mem.Arena, m *metrics.Registry) (*ProcessPagingState, error) {
	sf, err := swap.Open(swapPath)
	if err != nil {
		return nil, fmt.Errorf("vm: open swap file: %w", err)
	}
	s := &ProcessPagingState{
		PID:     pid,
		queue:   queue.New(MaxPsycPages),
		pt:      &mem.PageTable{},
		arena:   arena,
		swap:    sf,
		policy:  policy.New(sel),
		metrics: m,
	}
	for i := range s.meta {
		s.meta[i].Offset = -1
	}
	return s, nil
}

// Close releases the process's swap file. Process exit frees the swap
// file and discards the paging state wholesale.
func (s *ProcessPagingState) Close() error {
	return s.swap.Close()
}

// --- policy.PageSource -------------------------------------------------

func (s *ProcessPagingState) NumSlots() int { return MaxTotalPages }

func (s *ProcessPagingState) InUse(i int) bool { return s.meta[i].InUse }

func (s *ProcessPagingState) AgingCounter(i int) uint32 { return s.meta[i].AgingCounter }

func (s *ProcessPagingState) SetAgingCounter(i int, v uint32) { s.meta[i].AgingCounter = v }

func (s *ProcessPagingState) PTEAccessed(i int) bool {
	pte, ok := s.pt.Lookup(i)
	return ok && pte.Accessed()
}

func (s *ProcessPagingState) PTEClearAccessed(i int) {
	pte, ok := s.pt.Lookup(i)
	if !ok {
		return
	}
	*s.pt.Walk(i, false) = pte.ClearAccessed()
}

func (s *ProcessPagingState) QueueEnqueue(i int) { s.queue.Enqueue(i) }

func (s *ProcessPagingState) QueueDequeue() int { return s.queue.Dequeue() }

func (s *ProcessPagingState) QueueLen() int { return s.queue.Len() }

// DebugString dumps the paging table for diagnostics, grounded on
// wechicken456's printMetadata() trace-dump helper.
func (s *ProcessPagingState) DebugString() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "pid=%d policy=%s pages_in_memory=%d/%d queue_len=%d\n",
		s.PID, s.policy.Kind(), s.npages, MaxPsycPages, s.queue.Len())
	for i := 0; i < MaxTotalPages; i++ {
		m := s.meta[i]
		if !m.InUse && m.Offset == -1 {
			continue
		}
		state := "on-disk"
		if m.InUse {
			state = "resident"
		}
		fmt.Fprintf(&b, "  page %2d: %-8s offset=%-6d aging=%#010x\n", i, state, m.Offset, m.AgingCounter)
	}
	return b.String()
}

// PagesInMemory returns the current resident-page count.
func (s *ProcessPagingState) PagesInMemory() int { return s.npages }

// checkInvariants is exercised only by tests. It panics on violation
// rather than returning an error since a broken invariant is always a
// programming bug, never a runtime condition.
func (s *ProcessPagingState) checkInvariants() {
	count := 0
	seen := map[int]bool{}
	for i := 0; i < MaxTotalPages; i++ {
		m := s.meta[i]
		if m.InUse && m.Offset >= 0 {
			panic(fmt.Sprintf("page %d: in_use and offset>=0 both set", i))
		}
		if m.InUse {
			count++
		}
		if !m.InUse && m.Offset >= 0 {
			if seen[m.Offset] {
				panic(fmt.Sprintf("swap offset %d reused by two pages", m.Offset))
			}
			seen[m.Offset] = true
		}
	}
	if count != s.npages {
		panic(fmt.Sprintf("resident count mismatch: meta=%d npages=%d", count, s.npages))
	}
	if count != s.queue.Len() {
		panic(fmt.Sprintf("resident queue length mismatch: meta=%d queue=%d", count, s.queue.Len()))
	}
	if s.npages > MaxPsycPages {
		panic(fmt.Sprintf("pages_in_memory %d exceeds cap %d", s.npages, MaxPsycPages))
	}
}
