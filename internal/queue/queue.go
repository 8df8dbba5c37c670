// Package queue implements a value-based bond priority queue used by the
// brute-force k-nearest search.
package queue

import "github.com/hupe1980/proxigo/nlist"

// BondQueue is a binary heap over bonds. Ordering is by distance with the
// point index as tie-breaker, so heap contents are deterministic for equal
// distances. A max-heap keeps the current worst candidate on top, which is
// what a bounded k-nearest scan needs.
type BondQueue struct {
	isMaxHeap bool
	items     []nlist.Bond
}

// NewMax creates a max-heap with the given capacity hint.
func NewMax(capacity int) *BondQueue {
	return &BondQueue{isMaxHeap: true, items: make([]nlist.Bond, 0, capacity)}
}

// NewMin creates a min-heap with the given capacity hint.
func NewMin(capacity int) *BondQueue {
	return &BondQueue{isMaxHeap: false, items: make([]nlist.Bond, 0, capacity)}
}

// Len returns the number of queued bonds.
func (q *BondQueue) Len() int { return len(q.items) }

// Top returns the root element without removing it.
func (q *BondQueue) Top() (nlist.Bond, bool) {
	if len(q.items) == 0 {
		return nlist.Bond{}, false
	}
	return q.items[0], true
}

// Push inserts a bond while maintaining the heap invariant.
func (q *BondQueue) Push(b nlist.Bond) {
	q.items = append(q.items, b)
	q.siftUp(len(q.items) - 1)
}

// Pop removes and returns the root element.
func (q *BondQueue) Pop() (nlist.Bond, bool) {
	n := len(q.items)
	if n == 0 {
		return nlist.Bond{}, false
	}
	root := q.items[0]
	last := q.items[n-1]
	q.items = q.items[:n-1]
	if n-1 > 0 {
		q.items[0] = last
		q.siftDown(0)
	}
	return root, true
}

func (q *BondQueue) less(i, j int) bool {
	if q.isMaxHeap {
		return q.items[j].Less(q.items[i])
	}
	return q.items[i].Less(q.items[j])
}

func (q *BondQueue) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !q.less(i, p) {
			return
		}
		q.items[i], q.items[p] = q.items[p], q.items[i]
		i = p
	}
}

func (q *BondQueue) siftDown(i int) {
	n := len(q.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && q.less(r, l) {
			best = r
		}
		if !q.less(best, i) {
			return
		}
		q.items[i], q.items[best] = q.items[best], q.items[i]
		i = best
	}
}
