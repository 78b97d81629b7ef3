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

// positionKey orders occurrences first by element, then by position
// within the element, matching §4.2's "same field and element" window
// constraint: occurrences from different elements never fall in the
// same window.
type positionKey struct {
	elementID uint32
	pos       uint32
}

func (k positionKey) less(o positionKey) bool {
	if k.elementID != o.elementID {
		return k.elementID < o.elementID
	}
	return k.pos < o.pos
}

// fieldGroup is the per-field slice of match-data rows in original
// child order, mirroring the teacher's setup_fields grouping.
type fieldGroup struct {
	rows []*TermFieldMatchData
}

func groupRowsByField(rows []*TermFieldMatchData) []fieldGroup {
	order := []FieldID{}
	byField := map[FieldID][]*TermFieldMatchData{}
	for _, r := range rows {
		if _, ok := byField[r.FieldID]; !ok {
			order = append(order, r.FieldID)
		}
		byField[r.FieldID] = append(byField[r.FieldID], r)
	}
	groups := make([]fieldGroup, 0, len(order))
	for _, f := range order {
		groups = append(groups, fieldGroup{rows: byField[f]})
	}
	return groups
}

// NearSearchBase is the shared implementation of NEAR and ONEAR: an
// implicit AND over its children (every term must occur in the
// document) plus a positional match predicate checked once all
// children agree on a docid. Ported from nearsearch.cpp's
// doSeek/seekNext, which the teacher's AndSearch does not need since
// plain AND has no secondary match predicate.
type NearSearchBase struct {
	MultiSearch
	data    []*TermFieldMatchData
	window  uint32
	strict  bool
	matchFn func(docid DocID) bool
}

func newNearSearchBase(children []SearchIterator, data []*TermFieldMatchData, window uint32, strict bool) NearSearchBase {
	return NearSearchBase{MultiSearch: newMultiSearch(children, NewUnpackInfo().ForceAll()), data: data, window: window, strict: strict}
}

func (n *NearSearchBase) InitRange(beginID, endID DocID) {
	n.initRangeChildren(beginID, endID)
	if len(n.children) == 0 {
		n.setAtEnd()
		return
	}
	if n.strict {
		n.doSeek(beginID)
	}
}

func (n *NearSearchBase) IsStrict() Trinary {
	if n.strict {
		return True
	}
	return False
}

func (n *NearSearchBase) Seek(docid DocID) bool {
	if len(n.children) == 0 {
		return false
	}
	if docid == n.docID && !n.IsAtEnd() {
		return true
	}
	n.doSeek(docid)
	return n.docID == docid
}

// doSeek implements nearsearch.cpp's doSeek: require every child to
// land on docid, then run the positional predicate. On a miss, a
// strict NEAR/ONEAR keeps hunting via seekNext; a non-strict one just
// reports failure and leaves the docid wherever the children ended up.
func (n *NearSearchBase) doSeek(docid DocID) {
	foundHit := true
	for _, c := range n.children {
		if !c.Seek(docid) {
			foundHit = false
			break
		}
	}
	if foundHit && n.match(docid) {
		n.setDocID(docid)
		return
	}
	if n.strict {
		n.seekNext(docid)
		return
	}
	if n.children[0].IsAtEnd() {
		n.setAtEnd()
	}
}

// seekNext implements nearsearch.cpp's seekNext leap-frog: advance
// children[0] to its next occurrence whenever a candidate fails,
// either because some child lacks it or because the positional
// predicate rejected it.
func (n *NearSearchBase) seekNext(docid DocID) {
	first := n.children[0]
	nextID := first.GetDocID()
	for !first.IsAtEnd() && nextID < EndDocID {
		if first.IsAtEnd() {
			break
		}
		foundHit := true
		for i := 1; i < len(n.children); i++ {
			c := n.children[i]
			if !c.Seek(nextID) {
				foundHit = false
				if cd := c.GetDocID(); cd > nextID {
					nextID = cd
				} else {
					nextID++
				}
				break
			}
		}
		if foundHit {
			if n.match(nextID) {
				break
			}
			nextID++
		}
		if first.IsAtEnd() {
			break
		}
		first.Seek(nextID)
		nextID = first.GetDocID()
		if first.IsAtEnd() {
			break
		}
	}
	if first.IsAtEnd() {
		n.setAtEnd()
	} else {
		n.setDocID(nextID)
	}
}

func (n *NearSearchBase) match(docid DocID) bool {
	for _, c := range n.children {
		c.Unpack(docid)
	}
	return n.matchFn(docid)
}

func (n *NearSearchBase) Unpack(docid DocID) {
	// Match already unpacked every child while searching for docid;
	// NEAR/ONEAR expose no extra unpack data of their own.
}

func (n *NearSearchBase) MatchesAny() Trinary {
	result := True
	for _, c := range n.children {
		result = result.And(c.MatchesAny())
		if result == False {
			return False
		}
	}
	if result == True {
		return Undefined
	}
	return result
}

func (n *NearSearchBase) IsBitVector() bool { return false }

func (n *NearSearchBase) AndWith(filter SearchIterator, estimate uint32) SearchIterator {
	return filter
}

// posCursor walks one term's occurrence list within a NEAR match
// attempt.
type posCursor struct {
	positions []Position
	i         int
}

func (c *posCursor) key() positionKey {
	p := c.positions[c.i]
	return positionKey{elementID: p.ElementID, pos: p.Pos}
}

// posIterHeap is the priority queue of per-term position cursors NEAR
// uses to find its current minimum occurrence, ported from
// nearsearch.cpp's anonymous Iterators/PosIter.
type posIterHeap []*posCursor

func (h posIterHeap) Len() int            { return len(h) }
func (h posIterHeap) Less(i, j int) bool  { return h[i].key().less(h[j].key()) }
func (h posIterHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *posIterHeap) Push(x interface{}) { *h = append(*h, x.(*posCursor)) }
func (h *posIterHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// NearSearch matches when some field groups every child term's
// occurrence within a window W of each other, in any order.
type NearSearch struct {
	NearSearchBase
	groups []fieldGroup
}

// NewNearSearch builds a NEAR iterator. data must align 1:1 with
// children, in query order.
func NewNearSearch(children []SearchIterator, data []*TermFieldMatchData, window uint32, strict bool) *NearSearch {
	n := &NearSearch{NearSearchBase: newNearSearchBase(children, data, window, strict)}
	n.groups = groupRowsByField(data)
	n.matchFn = n.matchAnyGroup
	return n
}

func (n *NearSearch) String() string { return n.stringChildren("near") }

func (n *NearSearch) matchAnyGroup(docid DocID) bool {
	for _, g := range n.groups {
		if matchNearGroup(g.rows, docid, n.window) {
			return true
		}
	}
	return false
}

// matchNearGroup implements the teacher's Iterators{queue, maxOcc}:
// keep the smallest-positioned term at the queue front, track the
// largest position seen (maxOcc), and advance the front's cursor
// until either the window [front, front+window] covers maxOcc (match)
// or the front runs out of occurrences (no match in this group).
func matchNearGroup(rows []*TermFieldMatchData, docid DocID, window uint32) bool {
	h := make(posIterHeap, 0, len(rows))
	var maxOcc positionKey
	for i, r := range rows {
		if r.DocID != docid || len(r.Positions) == 0 {
			return false
		}
		c := &posCursor{positions: r.Positions}
		h = append(h, c)
		if key := c.key(); i == 0 || maxOcc.less(key) {
			maxOcc = key
		}
	}
	heap.Init(&h)
	for {
		front := h[0]
		lastAllowed := positionKey{elementID: front.key().elementID, pos: front.key().pos + window}
		if !lastAllowed.less(maxOcc) {
			return true
		}
		for {
			front.i++
			if front.i >= len(front.positions) {
				return false
			}
			k := front.key()
			lastAllowed = positionKey{elementID: k.elementID, pos: k.pos + window}
			if lastAllowed.less(maxOcc) {
				continue
			}
			break
		}
		if newKey := front.key(); maxOcc.less(newKey) {
			maxOcc = newKey
		}
		heap.Fix(&h, 0)
	}
}

// ONearSearch matches when some field groups every child term's
// occurrence within a window W of each other, left-to-right in the
// same order as the query's children.
type ONearSearch struct {
	NearSearchBase
	groups []fieldGroup
}

// NewONearSearch builds an ONEAR iterator. data must align 1:1 with
// children, in query order.
func NewONearSearch(children []SearchIterator, data []*TermFieldMatchData, window uint32, strict bool) *ONearSearch {
	n := &ONearSearch{NearSearchBase: newNearSearchBase(children, data, window, strict)}
	n.groups = groupRowsByField(data)
	n.matchFn = n.matchAnyGroup
	return n
}

func (n *ONearSearch) String() string { return n.stringChildren("onear") }

func (n *ONearSearch) matchAnyGroup(docid DocID) bool {
	for _, g := range n.groups {
		if matchONearGroup(g.rows, docid, n.window) {
			return true
		}
	}
	return false
}

// matchONearGroup implements ONearSearch::Matcher::match: for every
// occurrence of the first term, try to greedily advance each
// following term's cursor past the previous term's position while
// staying inside the window anchored at the first term's occurrence.
func matchONearGroup(rows []*TermFieldMatchData, docid DocID, window uint32) bool {
	numTerms := len(rows)
	cursors := make([][]Position, numTerms)
	for i, r := range rows {
		if r.DocID != docid || len(r.Positions) == 0 {
			return false
		}
		cursors[i] = r.Positions
	}
	if numTerms < 2 {
		return true
	}

	for firstIdx := 0; firstIdx < len(cursors[0]); firstIdx++ {
		firstPos := positionKey{elementID: cursors[0][firstIdx].ElementID, pos: cursors[0][firstIdx].Pos}
		lastAllowed := positionKey{elementID: firstPos.elementID, pos: firstPos.pos + window}

		prev := firstPos
		ordered := true
		for i := 1; i < numTerms; i++ {
			j := 0
			for j < len(cursors[i]) {
				k := positionKey{elementID: cursors[i][j].ElementID, pos: cursors[i][j].Pos}
				if prev.less(k) {
					break
				}
				j++
			}
			if j >= len(cursors[i]) {
				return false
			}
			cur := positionKey{elementID: cursors[i][j].ElementID, pos: cursors[i][j].Pos}
			if lastAllowed.less(cur) {
				ordered = false
				break
			}
			prev = cur
		}
		if ordered {
			return true
		}
	}
	return false
}
