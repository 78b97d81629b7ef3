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

// RankSearch matches exactly when children[0] matches. children[1:]
// never affect the match set — they exist solely to contribute unpack
// data (typically term-match data folded into a scoring feature) for
// docs children[0] already matched.
type RankSearch struct {
	MultiSearch
	strict bool
}

// NewRankSearch builds a RANK iterator. Strictness is inherited only
// from children[0]; strict must reflect children[0].IsStrict().
func NewRankSearch(children []SearchIterator, unpack *UnpackInfo, strict bool) *RankSearch {
	return &RankSearch{MultiSearch: newMultiSearch(children, unpack), strict: strict}
}

func (r *RankSearch) String() string { return r.stringChildren("rank") }

func (r *RankSearch) InitRange(beginID, endID DocID) {
	r.initRangeChildren(beginID, endID)
	if r.strict && len(r.children) > 0 {
		if r.children[0].IsAtEnd() {
			r.setAtEnd()
		} else {
			r.setDocID(r.children[0].GetDocID())
		}
	}
}

func (r *RankSearch) IsStrict() Trinary {
	if r.strict {
		return True
	}
	return False
}

func (r *RankSearch) Seek(docid DocID) bool {
	if len(r.children) == 0 {
		return false
	}
	if !r.strict {
		return r.seekNonStrict(docid)
	}
	if docid == r.docID && !r.IsAtEnd() {
		return true
	}
	r.doSeekStrict(docid)
	return r.docID == docid
}

func (r *RankSearch) seekNonStrict(docid DocID) bool {
	if !r.children[0].Seek(docid) {
		return false
	}
	r.setDocID(docid)
	return true
}

// doSeekStrict relies on children[0] being strict: a failed seek still
// leaves it parked on its own next real hit.
func (r *RankSearch) doSeekStrict(docid DocID) {
	r.children[0].Seek(docid)
	if r.children[0].IsAtEnd() {
		r.setAtEnd()
		return
	}
	r.setDocID(r.children[0].GetDocID())
}

// Unpack always unpacks children[0] — the matching child — then seeks
// each tracked secondary child to docid and unpacks it only if present,
// since a secondary child matching a different doc has nothing to
// contribute here.
func (r *RankSearch) Unpack(docid DocID) {
	if len(r.children) == 0 {
		return
	}
	r.children[0].Unpack(docid)
	r.unpack.Each(len(r.children), func(i int) {
		if i == 0 {
			return
		}
		if r.children[i].Seek(docid) {
			r.children[i].Unpack(docid)
		}
	})
}

func (r *RankSearch) MatchesAny() Trinary {
	if len(r.children) == 0 {
		return False
	}
	return r.children[0].MatchesAny()
}

func (r *RankSearch) IsBitVector() bool { return false }

func (r *RankSearch) GetHits(beginID DocID) *BitVector {
	if len(r.children) == 0 {
		return NewBitVector(beginID, r.endID)
	}
	return r.children[0].GetHits(beginID)
}

func (r *RankSearch) AndHitsInto(bv *BitVector, beginID DocID) {
	if len(r.children) == 0 {
		bv.ClearRange(beginID, bv.size)
		return
	}
	r.children[0].AndHitsInto(bv, beginID)
}

func (r *RankSearch) OrHitsInto(bv *BitVector, beginID DocID) {
	if len(r.children) == 0 {
		return
	}
	r.children[0].OrHitsInto(bv, beginID)
}

// AndWith forwards to children[0]: the secondary children never affect
// the match set, so an external filter can only ever combine with the
// one child that does.
func (r *RankSearch) AndWith(filter SearchIterator, estimate uint32) SearchIterator {
	if len(r.children) == 0 {
		return filter
	}
	return r.children[0].AndWith(filter, estimate)
}
