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

// TermwiseSearch wraps a sub-iterator whose children require no
// unpack (§4.5): on its first InitRange it materializes every hit in
// range into a bit-vector fragment via the wrapped iterator's
// GetHits, then answers every subsequent Seek by bit lookup instead of
// driving the wrapped tree directly. Grounded on
// `original_source/.../termwise_search.cpp`'s materialize-then-lookup
// shape, generalized past its AND/OR specialization.
type TermwiseSearch struct {
	baseIterator
	inner SearchIterator
	biter *BitVectorIterator
}

// NewTermwiseSearch wraps inner for termwise evaluation.
func NewTermwiseSearch(inner SearchIterator) *TermwiseSearch {
	return &TermwiseSearch{inner: inner}
}

func (t *TermwiseSearch) String() string { return "termwise{" + t.inner.String() + "}" }

func (t *TermwiseSearch) InitRange(beginID, endID DocID) {
	t.initRange(beginID, endID)
	t.inner.InitRange(beginID, endID)
	bv := t.inner.GetHits(beginID)
	t.biter = NewBitVectorIterator(bv, false)
	t.biter.InitRange(beginID, endID)
	t.setDocID(t.biter.GetDocID())
}

func (t *TermwiseSearch) IsStrict() Trinary { return True }

func (t *TermwiseSearch) Seek(docid DocID) bool {
	hit := t.biter.Seek(docid)
	t.setDocID(t.biter.GetDocID())
	return hit
}

// Unpack is a no-op: every child hoisted into this group was known by
// construction to need no unpack (§4.5's eligibility rule b).
func (t *TermwiseSearch) Unpack(DocID) {}

func (t *TermwiseSearch) MatchesAny() Trinary { return t.inner.MatchesAny() }

func (t *TermwiseSearch) IsBitVector() bool { return true }

func (t *TermwiseSearch) GetHits(beginID DocID) *BitVector { return t.biter.GetHits(beginID) }

func (t *TermwiseSearch) AndHitsInto(bv *BitVector, beginID DocID) {
	t.biter.AndHitsInto(bv, beginID)
}

func (t *TermwiseSearch) OrHitsInto(bv *BitVector, beginID DocID) {
	t.biter.OrHitsInto(bv, beginID)
}

func (t *TermwiseSearch) AndWith(filter SearchIterator, estimate uint32) SearchIterator {
	return t.biter.AndWith(filter, estimate)
}

// TermwiseOp names the parent operator driving a termwise hoist, since
// the sub-iterator built over the hoisted group depends on it.
type TermwiseOp int

const (
	TermwiseAnd TermwiseOp = iota
	TermwiseOr
	TermwiseAndNot
)

// HoistTermwiseGroup implements §4.5's hoisting transform: partition
// children into the termwise-capable group (capable[i] true) and the
// rest, build a sub-iterator over the capable group using op, wrap it
// in a TermwiseSearch, and re-insert it at the position of the first
// capable child among the surviving (non-capable) children. Returns
// the original children/unpack unchanged when fewer than two children
// qualify, matching §4.5's "at least two children qualify" gate.
func HoistTermwiseGroup(op TermwiseOp, children []SearchIterator, unpack *UnpackInfo, capable []bool) ([]SearchIterator, *UnpackInfo) {
	var group, other []SearchIterator
	var otherNeedUnpack []bool
	for i, c := range children {
		if capable[i] {
			group = append(group, c)
		} else {
			other = append(other, c)
			otherNeedUnpack = append(otherNeedUnpack, unpack.NeedUnpack(i))
		}
	}
	if len(group) < 2 {
		return children, unpack
	}

	var wrapped SearchIterator
	switch op {
	case TermwiseAnd:
		wrapped = NewTermwiseSearch(NewAndSearch(group, NewUnpackInfo(), true))
	case TermwiseOr:
		wrapped = NewTermwiseSearch(NewOrSearch(group, NewUnpackInfo(), true))
	case TermwiseAndNot:
		// §9: when the positive child (position 0) is not itself
		// termwise-capable, the hoisted group is drawn entirely from
		// the negatives, so it is combined with OrSearch rather than
		// AndNotSearch — the group only needs to answer "does any
		// negative match", which negation then inverts. Respect this
		// asymmetry rather than always using AndNotSearch.
		if capable[0] {
			wrapped = NewTermwiseSearch(NewAndNotSearch(group, true))
		} else {
			wrapped = NewTermwiseSearch(NewOrSearch(group, NewUnpackInfo(), true))
		}
	}

	result := make([]SearchIterator, 0, len(other)+1)
	newUnpack := NewUnpackInfo()
	inserted := false
	oi := 0
	for i := range children {
		if capable[i] {
			if !inserted {
				// The hoisted group itself never needs unpack (it is a
				// TermwiseSearch whose Unpack is a no-op), so its slot
				// is simply never added to newUnpack.
				result = append(result, wrapped)
				inserted = true
			}
			continue
		}
		result = append(result, other[oi])
		if otherNeedUnpack[oi] {
			newUnpack.Add(len(result) - 1)
		}
		oi++
	}
	return result, newUnpack
}
