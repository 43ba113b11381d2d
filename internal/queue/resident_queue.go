// Package queue implements the resident-page FIFO ordering: a
// fixed-capacity circular queue of page indices, consulted by the
// SCFIFO replacement policy. Its head/tail/count shape is grounded on
// biscuit's circbuf.Circbuf_t, generalized from a byte ring to a ring
// of page indices.
package queue

// ResidentQueue is a fixed-capacity circular queue of page indices. Its
// contents must always equal the set of currently resident pages for
// policies that consult ordering.
type ResidentQueue struct {
	pages []int
	head  int
	tail  int
	num   int
}

// New returns an empty queue with room for capacity page indices.
func New(capacity int) *ResidentQueue {
	return &ResidentQueue{pages: make([]int, capacity)}
}

// Len reports how many page indices are currently queued.
func (q *ResidentQueue) Len() int { return q.num }

// Cap reports the queue's fixed capacity.
func (q *ResidentQueue) Cap() int { return len(q.pages) }

// Enqueue appends page index i at the tail. It panics if the queue is
// full — this is a programming bug the caller's own invariants must
// prevent, never a recoverable condition.
func (q *ResidentQueue) Enqueue(i int) {
	if q.num == len(q.pages) {
		panic("queue: enqueue into full resident queue")
	}
	q.pages[q.tail] = i
	q.tail = (q.tail + 1) % len(q.pages)
	q.num++
}

// Dequeue removes and returns the page index at the head. It panics if
// the queue is empty, for the same reason Enqueue panics when full.
func (q *ResidentQueue) Dequeue() int {
	if q.num == 0 {
		panic("queue: dequeue from empty resident queue")
	}
	i := q.pages[q.head]
	q.head = (q.head + 1) % len(q.pages)
	q.num--
	return i
}

// Remove drops page index target from the middle of the queue by a full
// rotation: every surviving element is dequeued and re-enqueued in
// order, preserving relative order. It is a no-op if target is not
// present.
func (q *ResidentQueue) Remove(target int) {
	n := q.num
	for k := 0; k < n; k++ {
		i := q.Dequeue()
		if i != target {
			q.Enqueue(i)
		}
	}
}

// Contains reports whether target is currently queued, without
// mutating the queue.
func (q *ResidentQueue) Contains(target int) bool {
	for k := 0; k < q.num; k++ {
		if q.pages[(q.head+k)%len(q.pages)] == target {
			return true
		}
	}
	return false
}

// Peek returns the page index currently at the head without removing it.
func (q *ResidentQueue) Peek() (int, bool) {
	if q.num == 0 {
		return 0, false
	}
	return q.pages[q.head], true
}
