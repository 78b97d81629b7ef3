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
	"container/heap"
	"fmt"
)

// weightedMerge is the heap-keyed-by-child-docid merge both
// DOT-PRODUCT and WEIGHTED-SET-TERM use: advance the cheapest child
// towards a target, then hand back every child that actually landed
// on it. Ported from the shared doSeek/pop_matching_children shape of
// weighted_set_term_search.cpp's and dot_product_search.cpp's
// *SearchImpl templates — both push matched children back into the
// heap at the start of the next seek rather than re-scanning
// everything.
type weightedMerge struct {
	children []SearchIterator
	active   *orRefHeap
	matched  []int
}

func (m *weightedMerge) init(children []SearchIterator, beginID, endID DocID) {
	m.children = children
	for _, c := range children {
		c.InitRange(beginID, endID)
	}
	m.active = &orRefHeap{children: children}
	for i := range children {
		m.active.refs = append(m.active.refs, i)
	}
	heap.Init(m.active)
	m.matched = m.matched[:0]
}

// seek reabsorbs last round's matched children, advances the heap
// front past target, and reports the new shared docid (or false if
// every child is exhausted).
func (m *weightedMerge) seek(target DocID) (DocID, bool) {
	for _, idx := range m.matched {
		m.children[idx].Seek(target)
		heap.Push(m.active, idx)
	}
	m.matched = m.matched[:0]
	for m.active.Len() > 0 && m.children[m.active.refs[0]].GetDocID() < target {
		front := m.active.refs[0]
		child := m.children[front]
		if !child.Seek(target) && child.IsAtEnd() {
			heap.Remove(m.active, 0)
			continue
		}
		heap.Fix(m.active, 0)
	}
	if m.active.Len() == 0 {
		return 0, false
	}
	return m.children[m.active.refs[0]].GetDocID(), true
}

// popMatched pulls every child currently parked on docid out of the
// active heap and returns their indices; they stay aside until the
// next seek re-integrates them.
func (m *weightedMerge) popMatched(docid DocID) []int {
	start := len(m.matched)
	for m.active.Len() > 0 && m.children[m.active.refs[0]].GetDocID() == docid {
		idx := heap.Pop(m.active).(int)
		m.matched = append(m.matched, idx)
	}
	return m.matched[start:]
}

// DotProductSearch is the sparse dot-product leaf: Σ weights[c] ·
// child_weight(c, docid) over whichever children match docid, written
// as a raw score rather than positions.
type DotProductSearch struct {
	baseIterator
	children     []SearchIterator
	childHandles []Handle
	weights      []int32
	handle       Handle
	data         *MatchData
	merge        weightedMerge
}

// NewDotProductSearch builds a DOT-PRODUCT leaf. childHandles and
// weights must align 1:1 with children; handle is where the combined
// raw score is written.
func NewDotProductSearch(children []SearchIterator, childHandles []Handle, weights []int32, handle Handle, data *MatchData) *DotProductSearch {
	return &DotProductSearch{children: children, childHandles: childHandles, weights: weights, handle: handle, data: data}
}

func (d *DotProductSearch) String() string { return fmt.Sprintf("dotProduct%v", d.children) }

func (d *DotProductSearch) InitRange(beginID, endID DocID) {
	d.initRange(beginID, endID)
	d.merge.init(d.children, beginID, endID)
	if next, ok := d.merge.seek(beginID); ok {
		d.setDocID(next)
	} else {
		d.setAtEnd()
	}
}

func (d *DotProductSearch) IsStrict() Trinary { return True }

func (d *DotProductSearch) Seek(docid DocID) bool {
	if docid == d.docID && !d.IsAtEnd() {
		return true
	}
	if next, ok := d.merge.seek(docid); ok {
		d.setDocID(next)
	} else {
		d.setAtEnd()
	}
	return d.docID == docid
}

func (d *DotProductSearch) Unpack(docid DocID) {
	row := d.data.Resolve(d.handle)
	row.Reset(docid)
	var score int64
	for _, idx := range d.merge.popMatched(docid) {
		d.children[idx].Unpack(docid)
		childWeight := d.data.Resolve(d.childHandles[idx]).Weight
		score += int64(d.weights[idx]) * int64(childWeight)
	}
	row.RawScore = int32(score)
}

func (d *DotProductSearch) MatchesAny() Trinary {
	result := False
	for _, c := range d.children {
		result = result.Or(c.MatchesAny())
		if result == True {
			return True
		}
	}
	return result
}

func (d *DotProductSearch) IsBitVector() bool { return false }

func (d *DotProductSearch) OrHitsInto(bv *BitVector, beginID DocID) {
	for _, c := range d.children {
		c.OrHitsInto(bv, beginID)
	}
}

func (d *DotProductSearch) GetHits(beginID DocID) *BitVector {
	bv := NewBitVector(beginID, d.endID)
	d.OrHitsInto(bv, beginID)
	return bv
}

func (d *DotProductSearch) AndHitsInto(bv *BitVector, beginID DocID) {
	bv.And(d.GetHits(beginID))
}

// AndWith is never absorbed: the set of matching children (and thus
// the score) can change per doc, so an external filter stays outside.
func (d *DotProductSearch) AndWith(filter SearchIterator, estimate uint32) SearchIterator {
	return filter
}
