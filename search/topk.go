package search

import (
	"container/heap"
	"sort"

	"github.com/poiesic/corpuskit/core"
)

type rankedHit struct {
	score float64
	seq   int
	hit   core.ScoredHit
}

// hitHeap is a min-heap on (score, insertion order); the root is always the
// weakest kept hit, the one a better candidate evicts.
type hitHeap []rankedHit

func (h hitHeap) Len() int { return len(h) }
func (h hitHeap) Less(i, j int) bool {
	if h[i].score != h[j].score {
		return h[i].score < h[j].score
	}
	return h[i].seq < h[j].seq
}
func (h hitHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *hitHeap) Push(x any) { *h = append(*h, x.(rankedHit)) }
func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// topK keeps the limit best hits seen so far. Ties break on insertion
// order, not record id, keeping selection stable without extra comparisons.
type topK struct {
	limit int
	heap  hitHeap
	seq   int
}

func newTopK(limit int) *topK {
	return &topK{limit: limit, heap: make(hitHeap, 0, limit)}
}

func (t *topK) offer(score float64, hit core.ScoredHit) {
	item := rankedHit{score: score, seq: t.seq, hit: hit}
	t.seq++

	if t.heap.Len() < t.limit {
		heap.Push(&t.heap, item)
		return
	}
	if score > t.heap[0].score {
		t.heap[0] = item
		heap.Fix(&t.heap, 0)
	}
}

// ranked returns the kept hits by descending score, then insertion order.
func (t *topK) ranked() []core.ScoredHit {
	kept := make([]rankedHit, len(t.heap))
	copy(kept, t.heap)
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].score != kept[j].score {
			return kept[i].score > kept[j].score
		}
		return kept[i].seq < kept[j].seq
	})

	hits := make([]core.ScoredHit, len(kept))
	for i, item := range kept {
		hits[i] = item.hit
	}
	return hits
}
