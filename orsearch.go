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

// orRefHeap is a left heap of child indices keyed by the referenced
// child's current docid, used by the strict OR to find the next hit
// without re-scanning every child on each seek (§4.2). The teacher's
// design notes (§9) call out ref-width/heap-kind as an implementation
// choice left to the target language; a plain container/heap over int
// indices is the idiomatic Go shape for it.
type orRefHeap struct {
	children []SearchIterator
	refs     []int
}

func (h *orRefHeap) Len() int { return len(h.refs) }
func (h *orRefHeap) Less(i, j int) bool {
	return h.children[h.refs[i]].GetDocID() < h.children[h.refs[j]].GetDocID()
}
func (h *orRefHeap) Swap(i, j int)      { h.refs[i], h.refs[j] = h.refs[j], h.refs[i] }
func (h *orRefHeap) Push(x interface{}) { h.refs = append(h.refs, x.(int)) }
func (h *orRefHeap) Pop() interface{} {
	n := len(h.refs)
	x := h.refs[n-1]
	h.refs = h.refs[:n-1]
	return x
}

// OrSearch matches when any child matches.
type OrSearch struct {
	MultiSearch
	strict bool
	h      *orRefHeap
}

// NewOrSearch builds an OR iterator over children.
func NewOrSearch(children []SearchIterator, unpack *UnpackInfo, strict bool) *OrSearch {
	return &OrSearch{MultiSearch: newMultiSearch(children, unpack), strict: strict}
}

func (o *OrSearch) String() string { return o.stringChildren("or") }

func (o *OrSearch) InitRange(beginID, endID DocID) {
	o.initRangeChildren(beginID, endID)
	if !o.strict {
		return
	}
	o.h = &orRefHeap{children: o.children}
	for i := range o.children {
		o.h.refs = append(o.h.refs, i)
	}
	heap.Init(o.h)
	if o.h.Len() == 0 {
		o.setAtEnd()
		return
	}
	o.setDocID(o.children[o.h.refs[0]].GetDocID())
}

func (o *OrSearch) IsStrict() Trinary {
	if o.strict {
		return True
	}
	return False
}

func (o *OrSearch) Seek(docid DocID) bool {
	if !o.strict {
		return o.seekNonStrict(docid)
	}
	if docid == o.docID && !o.IsAtEnd() {
		return true
	}
	o.doSeekStrict(docid)
	return o.docID == docid
}

func (o *OrSearch) seekNonStrict(docid DocID) bool {
	hit := false
	for _, c := range o.children {
		if c.Seek(docid) {
			hit = true
		}
	}
	if hit {
		o.setDocID(docid)
	}
	return hit
}

func (o *OrSearch) doSeekStrict(target DocID) {
	for o.h.Len() > 0 && o.children[o.h.refs[0]].GetDocID() < target {
		front := o.h.refs[0]
		child := o.children[front]
		if !child.Seek(target) && child.IsAtEnd() {
			heap.Remove(o.h, 0)
			continue
		}
		heap.Fix(o.h, 0)
	}
	if o.h.Len() == 0 {
		o.setAtEnd()
		return
	}
	o.setDocID(o.children[o.h.refs[0]].GetDocID())
}

func (o *OrSearch) Unpack(docid DocID) {
	o.unpack.Each(len(o.children), func(i int) {
		if o.children[i].GetDocID() == docid {
			o.children[i].Unpack(docid)
		}
	})
}

func (o *OrSearch) MatchesAny() Trinary {
	result := False
	for _, c := range o.children {
		result = result.Or(c.MatchesAny())
		if result == True {
			return True
		}
	}
	return result
}

func (o *OrSearch) IsBitVector() bool { return false }

func (o *OrSearch) OrHitsInto(bv *BitVector, beginID DocID) {
	for _, c := range o.children {
		c.OrHitsInto(bv, beginID)
	}
}

func (o *OrSearch) AndHitsInto(bv *BitVector, beginID DocID) {
	bv.And(o.GetHits(beginID))
}

func (o *OrSearch) GetHits(beginID DocID) *BitVector {
	bv := NewBitVector(beginID, o.endID)
	o.OrHitsInto(bv, beginID)
	return bv
}

// AndWith never absorbs an external filter: an OR's match set is a
// union, so a strict filter cannot be pushed into any one child
// without changing semantics. The caller wraps the OR in an explicit
// AND instead.
func (o *OrSearch) AndWith(filter SearchIterator, estimate uint32) SearchIterator {
	return filter
}
