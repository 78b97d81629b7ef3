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

import (
	"fmt"
	"sort"
)

// WeightedSetTermSearch is the sparse weighted-set leaf: it shares
// DotProductSearch's heap-keyed merge, but doUnpack sorts the children
// that matched docid by descending weight and appends one
// element-weighted position per match instead of a raw score. Ported
// from weighted_set_term_search.cpp's WeightedSetTermSearchImpl.
type WeightedSetTermSearch struct {
	baseIterator
	children      []SearchIterator
	weights       []int32
	handle        Handle
	data          *MatchData
	fieldIsFilter bool
	merge         weightedMerge
}

// NewWeightedSetTermSearch builds a WEIGHTED-SET-TERM leaf. weights
// must align 1:1 with children. When fieldIsFilter is true, matches
// still set docid but never allocate positions.
func NewWeightedSetTermSearch(children []SearchIterator, weights []int32, handle Handle, data *MatchData, fieldIsFilter bool) *WeightedSetTermSearch {
	return &WeightedSetTermSearch{children: children, weights: weights, handle: handle, data: data, fieldIsFilter: fieldIsFilter}
}

func (w *WeightedSetTermSearch) String() string { return fmt.Sprintf("weightedSet%v", w.children) }

func (w *WeightedSetTermSearch) InitRange(beginID, endID DocID) {
	w.initRange(beginID, endID)
	w.merge.init(w.children, beginID, endID)
	if next, ok := w.merge.seek(beginID); ok {
		w.setDocID(next)
	} else {
		w.setAtEnd()
	}
}

func (w *WeightedSetTermSearch) IsStrict() Trinary { return True }

func (w *WeightedSetTermSearch) Seek(docid DocID) bool {
	if docid == w.docID && !w.IsAtEnd() {
		return true
	}
	if next, ok := w.merge.seek(docid); ok {
		w.setDocID(next)
	} else {
		w.setAtEnd()
	}
	return w.docID == docid
}

func (w *WeightedSetTermSearch) Unpack(docid DocID) {
	row := w.data.Resolve(w.handle)
	row.Reset(docid)
	matched := w.merge.popMatched(docid)
	if w.fieldIsFilter {
		return
	}
	sorted := append([]int(nil), matched...)
	sort.Slice(sorted, func(i, j int) bool { return w.weights[sorted[i]] > w.weights[sorted[j]] })
	for _, idx := range sorted {
		row.Positions = append(row.Positions, Position{ElementWeight: w.weights[idx]})
	}
}

func (w *WeightedSetTermSearch) MatchesAny() Trinary {
	result := False
	for _, c := range w.children {
		result = result.Or(c.MatchesAny())
		if result == True {
			return True
		}
	}
	return result
}

func (w *WeightedSetTermSearch) IsBitVector() bool { return false }

func (w *WeightedSetTermSearch) OrHitsInto(bv *BitVector, beginID DocID) {
	for _, c := range w.children {
		c.OrHitsInto(bv, beginID)
	}
}

func (w *WeightedSetTermSearch) GetHits(beginID DocID) *BitVector {
	bv := NewBitVector(beginID, w.endID)
	w.OrHitsInto(bv, beginID)
	return bv
}

func (w *WeightedSetTermSearch) AndHitsInto(bv *BitVector, beginID DocID) {
	bv.And(w.GetHits(beginID))
}

// AndWith is never absorbed: see DotProductSearch.AndWith.
func (w *WeightedSetTermSearch) AndWith(filter SearchIterator, estimate uint32) SearchIterator {
	return filter
}
