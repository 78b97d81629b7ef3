// Copyright 2024 The Queryeval Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package queryeval

import "container/heap"

// minScoreHeap is a bounded min-heap of the best targetHits scores
// WeakAndSearch has unpacked so far; its root is the current
// threshold.
type minScoreHeap []int64

func (h minScoreHeap) Len() int            { return len(h) }
func (h minScoreHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h minScoreHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minScoreHeap) Push(x interface{}) { *h = append(*h, x.(int64)) }
func (h *minScoreHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// WeakAndSearch is a top-N scoring wand: children are matched as an
// OR, but once targetHits candidates have been seen, any doc whose
// best-possible score cannot beat the worst of those candidates is
// skipped outright. Child order is fixed — it is never reordered to
// match the weights array (§4.3's "fixed (parallel to weights)" sort
// order). No original_source/ file covers WAND directly, so this is
// grounded on the heap-keyed-by-child-docid traversal shape shared
// with DOT-PRODUCT/WEIGHTED-SET-TERM and on spec's own
// threshold/estimated-hit-count description.
type WeakAndSearch struct {
	MultiSearch
	weights     []int32
	targetHits  uint32
	totalWeight int64
	threshold   int64
	best        minScoreHeap
	h           *orRefHeap
}

// NewWeakAndSearch builds a WEAK-AND iterator. weights must align 1:1
// with children, in query order.
func NewWeakAndSearch(children []SearchIterator, weights []int32, targetHits uint32) *WeakAndSearch {
	var total int64
	for _, w := range weights {
		total += int64(w)
	}
	return &WeakAndSearch{
		MultiSearch: newMultiSearch(children, NewUnpackInfo().ForceAll()),
		weights:     weights,
		targetHits:  targetHits,
		totalWeight: total,
	}
}

func (w *WeakAndSearch) String() string { return w.stringChildren("weakAnd") }

func (w *WeakAndSearch) InitRange(beginID, endID DocID) {
	w.initRangeChildren(beginID, endID)
	w.h = &orRefHeap{children: w.children}
	for i := range w.children {
		w.h.refs = append(w.h.refs, i)
	}
	heap.Init(w.h)
	w.advance(beginID)
}

// IsStrict reports true: WEAK-AND always drives its own top-N
// evaluation rather than deferring to a parent's seek pattern.
func (w *WeakAndSearch) IsStrict() Trinary { return True }

func (w *WeakAndSearch) Seek(docid DocID) bool {
	if docid == w.docID && !w.IsAtEnd() {
		return true
	}
	w.advance(docid)
	return w.docID == docid
}

// advance moves the heap-tracked front child set to the first
// candidate at or after target whose score clears the current
// threshold, matching §4.3's "uses estimated hit counts to produce a
// set of candidates" with the weights array standing in for the
// estimate.
func (w *WeakAndSearch) advance(target DocID) {
	for {
		for w.h.Len() > 0 && w.children[w.h.refs[0]].GetDocID() < target {
			front := w.h.refs[0]
			child := w.children[front]
			if !child.Seek(target) && child.IsAtEnd() {
				heap.Remove(w.h, 0)
				continue
			}
			heap.Fix(w.h, 0)
		}
		if w.h.Len() == 0 {
			w.setAtEnd()
			return
		}
		d := w.children[w.h.refs[0]].GetDocID()
		if w.accepts(w.scoreAt(d)) {
			w.setDocID(d)
			return
		}
		target = d + 1
	}
}

func (w *WeakAndSearch) scoreAt(docid DocID) int64 {
	var total int64
	for i, c := range w.children {
		if c.GetDocID() == docid {
			total += int64(w.weights[i])
		}
	}
	return total
}

func (w *WeakAndSearch) accepts(score int64) bool {
	if uint32(len(w.best)) < w.targetHits {
		return true
	}
	return score > w.threshold
}

// Unpack always unpacks every matching child (§4.3: WEAK-AND "always
// needs unpack") and folds the doc's score into the top-N threshold.
func (w *WeakAndSearch) Unpack(docid DocID) {
	for _, c := range w.children {
		if c.GetDocID() == docid {
			c.Unpack(docid)
		}
	}
	score := w.scoreAt(docid)
	if uint32(len(w.best)) < w.targetHits {
		heap.Push(&w.best, score)
	} else if len(w.best) > 0 && score > w.best[0] {
		heap.Pop(&w.best)
		heap.Push(&w.best, score)
	}
	if uint32(len(w.best)) >= w.targetHits && len(w.best) > 0 {
		w.threshold = w.best[0]
	}
}

func (w *WeakAndSearch) MatchesAny() Trinary {
	result := False
	for _, c := range w.children {
		result = result.Or(c.MatchesAny())
		if result == True {
			return True
		}
	}
	return result
}

func (w *WeakAndSearch) IsBitVector() bool { return false }

func (w *WeakAndSearch) GetHits(beginID DocID) *BitVector {
	bv := NewBitVector(beginID, w.endID)
	drainOrInto(w, bv, beginID)
	return bv
}

func (w *WeakAndSearch) AndHitsInto(bv *BitVector, beginID DocID) {
	bv.And(w.GetHits(beginID))
}

func (w *WeakAndSearch) OrHitsInto(bv *BitVector, beginID DocID) {
	bv.Or(w.GetHits(beginID))
}

// AndWith never absorbs an external filter: top-N selection depends on
// scores across the whole range, which a per-doc strict filter would
// disturb.
func (w *WeakAndSearch) AndWith(filter SearchIterator, estimate uint32) SearchIterator {
	return filter
}
