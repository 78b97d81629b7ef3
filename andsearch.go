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

// AndSearch matches when every child matches. child[0] is strict when
// the AND itself is strict (see §4.2); other children may or may not
// be.
type AndSearch struct {
	MultiSearch
	strict bool
}

// NewAndSearch builds an AND iterator over children. When strict is
// true, children[0] must itself be strict.
func NewAndSearch(children []SearchIterator, unpack *UnpackInfo, strict bool) *AndSearch {
	return &AndSearch{MultiSearch: newMultiSearch(children, unpack), strict: strict}
}

func (a *AndSearch) String() string { return a.stringChildren("and") }

func (a *AndSearch) InitRange(beginID, endID DocID) {
	a.initRangeChildren(beginID, endID)
	if a.strict && len(a.children) > 0 {
		a.advance(0)
	}
}

func (a *AndSearch) IsStrict() Trinary {
	if a.strict {
		return True
	}
	return False
}

func (a *AndSearch) Seek(docid DocID) bool {
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

func (a *AndSearch) seekNonStrict(docid DocID) bool {
	for _, c := range a.children {
		if !c.Seek(docid) {
			return false
		}
	}
	a.setDocID(docid)
	return true
}

// doSeekStrict implements §4.2's AND-strict doSeek: invoked with the
// guarantee docid > current docId.
func (a *AndSearch) doSeekStrict(docid DocID) {
	for i, c := range a.children {
		if !c.Seek(docid) {
			a.advance(i)
			return
		}
	}
	a.setDocID(docid)
}

// advance is the leap-frog loop from §4.2: when child failedChildIndex
// (!= 0) missed at the current target, re-seek child[0] past both the
// old target and the child's own reported position, then keep
// re-checking all children left-to-right until one full pass agrees.
func (a *AndSearch) advance(failedChildIndex int) {
	children := a.children
	first := children[0]
	if failedChildIndex != 0 {
		if children[failedChildIndex].IsAtEnd() {
			a.setAtEnd()
			return
		}
		target := first.GetDocID() + 1
		if fcd := children[failedChildIndex].GetDocID(); fcd > target {
			target = fcd
		}
		first.Seek(target)
	}
	for {
		if first.IsAtEnd() {
			a.setAtEnd()
			return
		}
		nextID := first.GetDocID()
		foundHit := true
		for i := 1; i < len(children); i++ {
			c := children[i]
			if !c.Seek(nextID) {
				if c.IsAtEnd() {
					a.setAtEnd()
					return
				}
				target := nextID + 1
				if cd := c.GetDocID(); cd > target {
					target = cd
				}
				first.Seek(target)
				foundHit = false
				break
			}
		}
		if foundHit {
			a.setDocID(nextID)
			return
		}
	}
}

func (a *AndSearch) Unpack(docid DocID) { a.unpackSelective(docid) }

func (a *AndSearch) MatchesAny() Trinary {
	result := True
	for _, c := range a.children {
		result = result.And(c.MatchesAny())
		if result == False {
			return False
		}
	}
	return result
}

func (a *AndSearch) IsBitVector() bool { return false }

func (a *AndSearch) AndHitsInto(bv *BitVector, beginID DocID) {
	for _, c := range a.children {
		c.AndHitsInto(bv, beginID)
	}
}

func (a *AndSearch) OrHitsInto(bv *BitVector, beginID DocID) {
	bv.Or(a.GetHits(beginID))
}

func (a *AndSearch) GetHits(beginID DocID) *BitVector {
	bv := NewBitVector(beginID, a.endID)
	bv.SetRange(beginID, a.endID)
	a.AndHitsInto(bv, beginID)
	return bv
}

// AndWith absorbs filter as an extra child. A strict AND first offers
// filter to child[0] (mirroring andsearchstrict.h); if child[0] does
// not absorb it, a strict filter is inserted at the front and a
// non-strict one at the tail. A non-strict AND appends every filter at
// the tail. The estimate-driven placement choice the C++ version makes
// (compare filter's estimate against the AND's own live estimate) is
// not reproduced here: estimates live on the Blueprint layer (§3), not
// on the runtime iterator.
func (a *AndSearch) AndWith(filter SearchIterator, estimate uint32) SearchIterator {
	if len(a.children) == 0 {
		return filter
	}
	if a.strict {
		if f := a.children[0].AndWith(filter, estimate); f == nil {
			return nil
		} else {
			filter = f
		}
		if filter.IsStrict() == True {
			a.Insert(0, filter, false)
		} else {
			a.Insert(len(a.children), filter, false)
		}
		return nil
	}
	a.Insert(len(a.children), filter, false)
	return nil
}
