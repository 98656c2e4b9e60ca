// Package piecepicker implements rarest-first piece selection: given a
// local buffermap, a target peer's buffermap, and every other known peer's
// buffermap for a file, it scores every index the local peer still lacks by
// how many other peers also share it with the target, and returns the N
// lowest-scoring ones. An index the target peer doesn't have scores 0 like
// any other index no other peer shares with the target, so it can still be
// picked; the getpieces reply for it will simply come back without that
// chunk.
package piecepicker

import (
	"container/heap"
	"sync"
)

// scoredIndex is one candidate piece: index with its rarity score (lower is
// rarer, i.e. fewer peers have it).
type scoredIndex struct {
	score int
	index int
}

// maxHeap keeps the current worst (highest-score) candidate at the top so
// it can be evicted once the heap grows past the requested count, the same
// bounded-selection trick as a top-N-smallest-by-score query.
type maxHeap []scoredIndex

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return h[i].score > h[j].score }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(scoredIndex)) }
func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// reservations tracks indices currently assigned to an in-flight getpieces
// request per file, so concurrent selections for different peers
// don't hand out the same rare piece twice. Guarded by a package-level
// mutex, mirroring the source system's single global download lock.
var (
	mu     sync.Mutex
	active = make(map[string]map[int]bool) // fileID -> index -> reserved
)

// Select returns up to count indices the local peer does not have
// (localMap[i]==0), ordered rarest first: fewest other peers in allMaps
// also share the index with the target. allMaps must not include the
// target peer's own map. targetMap is not a candidacy gate: an index the
// target lacks scores 0 the same as one no other peer shares, and can
// still be selected. Already-reserved indices (see Unreserve) are treated
// as if already set in localMap, mirroring the reservation write-back a
// concurrent caller would otherwise observe.
func Select(fileID string, localMap, targetMap []byte, allMaps [][]byte, count int) []int {
	mu.Lock()
	defer mu.Unlock()

	reserved := active[fileID]

	var candidates []int
	for i, have := range localMap {
		if have == 1 {
			continue
		}
		if reserved != nil && reserved[i] {
			continue
		}
		candidates = append(candidates, i)
	}
	if count > len(candidates) {
		count = len(candidates)
	}
	if count <= 0 {
		return nil
	}

	h := &maxHeap{}
	heap.Init(h)
	for _, i := range candidates {
		target := i < len(targetMap) && targetMap[i] == 1
		score := 0
		if target {
			for _, m := range allMaps {
				if i < len(m) && m[i] == 1 {
					score++
				}
			}
		}
		heap.Push(h, scoredIndex{score: score, index: i})
		if h.Len() > count {
			heap.Pop(h)
		}
	}

	out := make([]int, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(scoredIndex).index
	}

	if reserved == nil {
		reserved = make(map[int]bool)
		active[fileID] = reserved
	}
	for _, i := range out {
		reserved[i] = true
	}
	return out
}

// Unreserve releases previously selected indices for a file, e.g. after a
// getpieces request completes or its retry budget is exhausted.
func Unreserve(fileID string, indices []int) {
	mu.Lock()
	defer mu.Unlock()
	reserved, ok := active[fileID]
	if !ok {
		return
	}
	for _, i := range indices {
		delete(reserved, i)
	}
	if len(reserved) == 0 {
		delete(active, fileID)
	}
}
