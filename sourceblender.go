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

// SourceSelector maps a docid to the id of the source (shard,
// partition, generation) that owns it. Two SourceBlenderSearch
// instances are compatible for the source-blender hoist optimization
// (§4.4) iff they share the same SourceSelector value.
type SourceSelector interface {
	SourceID(docid DocID) uint32
}

// SourceBlenderSearch routes each docid to the single child whose
// source id the selector reports for that docid, rather than
// combining children's hits. No original_source/ file for this
// operator was in the retrieval pack; grounded directly on spec.md
// §4.2's selector/dispatch description.
type SourceBlenderSearch struct {
	baseIterator
	selector SourceSelector
	children []SearchIterator
	bySource map[uint32]int
	strict   bool
}

// NewSourceBlenderSearch builds a SOURCE-BLENDER iterator. sourceIDs
// must align 1:1 with children.
func NewSourceBlenderSearch(children []SearchIterator, sourceIDs []uint32, selector SourceSelector, strict bool) *SourceBlenderSearch {
	bySource := make(map[uint32]int, len(children))
	for i, id := range sourceIDs {
		bySource[id] = i
	}
	return &SourceBlenderSearch{selector: selector, children: children, bySource: bySource, strict: strict}
}

func (s *SourceBlenderSearch) String() string { return "sourceBlender" }

func (s *SourceBlenderSearch) InitRange(beginID, endID DocID) {
	s.initRange(beginID, endID)
	for _, c := range s.children {
		c.InitRange(beginID, endID)
	}
	if s.strict {
		s.advance(beginID)
	}
}

func (s *SourceBlenderSearch) IsStrict() Trinary {
	if s.strict {
		return True
	}
	return False
}

func (s *SourceBlenderSearch) Seek(docid DocID) bool {
	if docid == s.docID && !s.IsAtEnd() {
		return true
	}
	if !s.strict {
		return s.seekNonStrict(docid)
	}
	s.advance(docid)
	return s.docID == docid
}

func (s *SourceBlenderSearch) seekNonStrict(docid DocID) bool {
	idx, ok := s.childFor(docid)
	if !ok {
		return false
	}
	if !s.children[idx].Seek(docid) {
		return false
	}
	s.setDocID(docid)
	return true
}

// advance scans forward, consulting the selector at every candidate
// docid and forwarding only to the one child that owns it.
func (s *SourceBlenderSearch) advance(from DocID) {
	for d := from; d < s.endID; d++ {
		idx, ok := s.childFor(d)
		if !ok {
			continue
		}
		if s.children[idx].Seek(d) {
			s.setDocID(d)
			return
		}
	}
	s.setAtEnd()
}

func (s *SourceBlenderSearch) childFor(docid DocID) (int, bool) {
	idx, ok := s.bySource[s.selector.SourceID(docid)]
	return idx, ok
}

func (s *SourceBlenderSearch) Unpack(docid DocID) {
	if idx, ok := s.childFor(docid); ok {
		s.children[idx].Unpack(docid)
	}
}

func (s *SourceBlenderSearch) MatchesAny() Trinary {
	result := False
	for _, c := range s.children {
		result = result.Or(c.MatchesAny())
		if result == True {
			return True
		}
	}
	return result
}

func (s *SourceBlenderSearch) IsBitVector() bool { return false }

func (s *SourceBlenderSearch) GetHits(beginID DocID) *BitVector {
	bv := NewBitVector(beginID, s.endID)
	drainOrInto(s, bv, beginID)
	return bv
}

func (s *SourceBlenderSearch) AndHitsInto(bv *BitVector, beginID DocID) {
	bv.And(s.GetHits(beginID))
}

func (s *SourceBlenderSearch) OrHitsInto(bv *BitVector, beginID DocID) {
	bv.Or(s.GetHits(beginID))
}

// AndWith never absorbs a filter: which child ends up receiving the
// filter depends on a docid the blueprint doesn't know in advance.
func (s *SourceBlenderSearch) AndWith(filter SearchIterator, estimate uint32) SearchIterator {
	return filter
}
