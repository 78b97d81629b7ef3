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

// AndNotSearch matches children[0] (the positive) and none of
// children[1:] (the negatives). Negatives never contribute unpack data
// — only the positive child's matches are ever part of the result.
type AndNotSearch struct {
	MultiSearch
	strict bool
}

// NewAndNotSearch builds an AND-NOT iterator. children[0] is the
// positive term; children[1:] are negatives.
func NewAndNotSearch(children []SearchIterator, strict bool) *AndNotSearch {
	return &AndNotSearch{MultiSearch: newMultiSearch(children, NewUnpackInfo()), strict: strict}
}

func (a *AndNotSearch) String() string { return a.stringChildren("andnot") }

func (a *AndNotSearch) InitRange(beginID, endID DocID) {
	a.initRangeChildren(beginID, endID)
	if a.strict && len(a.children) > 0 {
		a.advanceStrict()
	}
}

func (a *AndNotSearch) IsStrict() Trinary {
	if a.strict {
		return True
	}
	return False
}

func (a *AndNotSearch) Seek(docid DocID) bool {
	if len(a.children) == 0 {
		return false
	}
	if !a.strict {
		return a.seekNonStrict(docid)
	}
	if docid == a.docID && !a.IsAtEnd() {
		return true
	}
	a.doSeekStrict(docid)
	return a.docID == docid
}

func (a *AndNotSearch) seekNonStrict(docid DocID) bool {
	if !a.children[0].Seek(docid) {
		return false
	}
	for _, neg := range a.children[1:] {
		if neg.Seek(docid) {
			return false
		}
	}
	a.setDocID(docid)
	return true
}

func (a *AndNotSearch) doSeekStrict(docid DocID) {
	a.children[0].Seek(docid)
	a.advanceStrict()
}

// advanceStrict advances the positive child past every docid blocked
// by a negative, retrying until a clean hit or the positive child is
// exhausted.
func (a *AndNotSearch) advanceStrict() {
	pos := a.children[0]
	for {
		if pos.IsAtEnd() {
			a.setAtEnd()
			return
		}
		d := pos.GetDocID()
		blocked := false
		for _, neg := range a.children[1:] {
			if neg.Seek(d) {
				blocked = true
				break
			}
		}
		if !blocked {
			a.setDocID(d)
			return
		}
		pos.Seek(d + 1)
	}
}

func (a *AndNotSearch) Unpack(docid DocID) {
	if len(a.children) > 0 {
		a.children[0].Unpack(docid)
	}
}

func (a *AndNotSearch) MatchesAny() Trinary {
	if len(a.children) == 0 {
		return False
	}
	result := a.children[0].MatchesAny()
	if result == False {
		return False
	}
	for _, neg := range a.children[1:] {
		nm := neg.MatchesAny()
		if nm == True {
			return False
		}
		if nm == Undefined {
			result = Undefined
		}
	}
	return result
}

func (a *AndNotSearch) IsBitVector() bool { return false }

// GetHits implements §4.2's `not(not(hits(child0)) or hits(child1..n))`
// as the equivalent, simpler hits(child0) \ union(hits(negatives)).
func (a *AndNotSearch) GetHits(beginID DocID) *BitVector {
	if len(a.children) == 0 {
		return NewBitVector(beginID, a.endID)
	}
	bv := a.children[0].GetHits(beginID)
	if len(a.children) > 1 {
		neg := NewBitVector(beginID, a.endID)
		for _, n := range a.children[1:] {
			n.OrHitsInto(neg, beginID)
		}
		bv.AndNot(neg)
	}
	return bv
}

func (a *AndNotSearch) AndHitsInto(bv *BitVector, beginID DocID) {
	bv.And(a.GetHits(beginID))
}

func (a *AndNotSearch) OrHitsInto(bv *BitVector, beginID DocID) {
	bv.Or(a.GetHits(beginID))
}

// AndWith forwards to the positive child, the only child a strict
// external filter could usefully combine with.
func (a *AndNotSearch) AndWith(filter SearchIterator, estimate uint32) SearchIterator {
	if len(a.children) == 0 {
		return filter
	}
	return a.children[0].AndWith(filter, estimate)
}
