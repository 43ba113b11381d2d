package policy

import "testing"

// fakeSource is a minimal PageSource for exercising policies without
// pulling in internal/vm, keeping this package's tests independent of
// the address-space machinery.
type fakeSource struct {
	inUse    []bool
	aging    []uint32
	accessed []bool
	q        []int
}

func newFakeSource(n int) *fakeSource {
	return &fakeSource{
		inUse:    make([]bool, n),
		aging:    make([]uint32, n),
		accessed: make([]bool, n),
	}
}

func (f *fakeSource) NumSlots() int                  { return len(f.inUse) }
func (f *fakeSource) InUse(i int) bool                { return f.inUse[i] }
func (f *fakeSource) AgingCounter(i int) uint32       { return f.aging[i] }
func (f *fakeSource) SetAgingCounter(i int, v uint32) { f.aging[i] = v }
func (f *fakeSource) PTEAccessed(i int) bool          { return f.accessed[i] }
func (f *fakeSource) PTEClearAccessed(i int)          { f.accessed[i] = false }
func (f *fakeSource) QueueEnqueue(i int)              { f.q = append(f.q, i) }
func (f *fakeSource) QueueDequeue() int {
	i := f.q[0]
	f.q = f.q[1:]
	return i
}
func (f *fakeSource) QueueLen() int { return len(f.q) }

func TestNFUAVictimSkipsReserved(t *testing.T) {
	f := newFakeSource(6)
	for i := 0; i < 6; i++ {
		f.inUse[i] = true
	}
	f.aging[0] = 1 // reserved, must be skipped even though smallest
	f.aging[3] = 5
	f.aging[4] = 2
	f.aging[5] = 9

	p := New(NFUA)
	v, ok := p.Victim(f)
	if !ok || v != 4 {
		t.Fatalf("Victim() = (%d, %v), want (4, true)", v, ok)
	}
}

func TestNFUAAgeTickShiftsAndClears(t *testing.T) {
	f := newFakeSource(4)
	f.inUse[3] = true
	f.aging[3] = 0b0110
	f.accessed[3] = true

	p := New(NFUA)
	p.AgeTick(f)

	want := uint32(0b0011) | (1 << 31)
	if f.aging[3] != want {
		t.Fatalf("aging[3] = %#x, want %#x", f.aging[3], want)
	}
	if f.accessed[3] {
		t.Fatal("accessed bit should be cleared by AgeTick")
	}
}

func TestLAPAInitAgingBiasesFreshPages(t *testing.T) {
	p := New(LAPA)
	if p.InitAging() != 0xFFFFFFFF {
		t.Fatalf("InitAging() = %#x, want 0xFFFFFFFF", p.InitAging())
	}
}

func TestLAPAVictimFewestOnes(t *testing.T) {
	f := newFakeSource(6)
	for i := 3; i < 6; i++ {
		f.inUse[i] = true
	}
	f.aging[3] = 0xFFFFFFFF // all touched recently and historically
	f.aging[4] = 0x00000001 // touched only once, long ago
	f.aging[5] = 0x00000003

	p := New(LAPA)
	v, ok := p.Victim(f)
	if !ok || v != 4 {
		t.Fatalf("Victim() = (%d, %v), want (4, true)", v, ok)
	}
}

func TestSCFIFOSecondChance(t *testing.T) {
	f := newFakeSource(17)
	for i := 0; i < 16; i++ {
		f.inUse[i] = true
		f.q = append(f.q, i)
	}
	f.accessed[0] = true // touched after being enqueued

	p := New(SCFIFO)
	v, ok := p.Victim(f)
	if !ok || v != 1 {
		t.Fatalf("Victim() = (%d, %v), want (1, true)", v, ok)
	}
	if f.accessed[0] {
		t.Fatal("page 0's accessed bit should have been cleared by its second chance")
	}
	// page 0 must have been moved to the tail, not dropped.
	found := false
	for _, i := range f.q {
		if i == 0 {
			found = true
		}
	}
	if !found {
		t.Fatal("page 0 should still be queued after its second chance")
	}
}

func TestSCFIFOAllAccessedRotatesOnce(t *testing.T) {
	f := newFakeSource(3)
	for i := 0; i < 3; i++ {
		f.inUse[i] = true
		f.accessed[i] = true
		f.q = append(f.q, i)
	}
	p := New(SCFIFO)
	v, ok := p.Victim(f)
	if !ok || v != 0 {
		t.Fatalf("Victim() = (%d, %v), want (0, true)", v, ok)
	}
}
