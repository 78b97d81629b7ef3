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
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fakeTermIterator is a strict leaf stand-in for a real posting-list
// iterator, used only to feed NEAR/ONEAR deterministic positions
// without routing through a real PostingSource.
type fakeTermIterator struct {
	baseIterator
	hits      []DocID
	positions map[DocID][]Position
	row       *TermFieldMatchData
}

func newFakeTermIterator(fieldID FieldID, hits []DocID, positions map[DocID][]Position) *fakeTermIterator {
	return &fakeTermIterator{
		hits:      hits,
		positions: positions,
		row:       &TermFieldMatchData{FieldID: fieldID},
	}
}

func (f *fakeTermIterator) String() string { return "faketerm" }

func (f *fakeTermIterator) InitRange(beginID, endID DocID) {
	f.initRange(beginID, endID)
	f.Seek(beginID)
}

func (f *fakeTermIterator) Seek(docid DocID) bool {
	for _, h := range f.hits {
		if h >= docid {
			if h >= f.endID {
				break
			}
			f.setDocID(h)
			return h == docid
		}
	}
	f.setAtEnd()
	return false
}

func (f *fakeTermIterator) Unpack(docid DocID) {
	f.row.Reset(docid)
	f.row.Positions = append(f.row.Positions, f.positions[docid]...)
}

func (f *fakeTermIterator) IsStrict() Trinary   { return True }
func (f *fakeTermIterator) MatchesAny() Trinary { return Undefined }
func (f *fakeTermIterator) IsBitVector() bool   { return false }
func (f *fakeTermIterator) GetHits(beginID DocID) *BitVector {
	return defaultGetHits(f, beginID, f.endID)
}
func (f *fakeTermIterator) AndHitsInto(bv *BitVector, beginID DocID) { drainAndInto(f, bv, beginID) }
func (f *fakeTermIterator) OrHitsInto(bv *BitVector, beginID DocID)  { drainOrInto(f, bv, beginID) }
func (f *fakeTermIterator) AndWith(filter SearchIterator, estimate uint32) SearchIterator {
	return filter
}

const testField FieldID = 1

func pos(elementID, p uint32) Position { return Position{ElementID: elementID, Pos: p} }

// S1: two terms, same element, within window -> match.
func TestNearSearchMatchesWithinWindow(t *testing.T) {
	a := newFakeTermIterator(testField, []DocID{5}, map[DocID][]Position{5: {pos(0, 10)}})
	b := newFakeTermIterator(testField, []DocID{5}, map[DocID][]Position{5: {pos(0, 12)}})
	near := NewNearSearch([]SearchIterator{a, b}, []*TermFieldMatchData{a.row, b.row}, 3, true)

	got := drainHits(near, BeginID, 10)
	if len(got) != 1 || got[0] != 5 {
		t.Fatalf("got %v, want [5]", got)
	}
}

// S2: two terms, same element, outside window -> no match.
func TestNearSearchRejectsOutsideWindow(t *testing.T) {
	a := newFakeTermIterator(testField, []DocID{5}, map[DocID][]Position{5: {pos(0, 10)}})
	b := newFakeTermIterator(testField, []DocID{5}, map[DocID][]Position{5: {pos(0, 20)}})
	near := NewNearSearch([]SearchIterator{a, b}, []*TermFieldMatchData{a.row, b.row}, 3, true)

	if got := drainHits(near, BeginID, 10); got != nil {
		t.Fatalf("got %v, want no hits", got)
	}
}

// S3: two terms land on the same doc but different elements -> never
// matches, regardless of how close the raw position numbers are.
func TestNearSearchDifferentElementsNeverMatch(t *testing.T) {
	a := newFakeTermIterator(testField, []DocID{5}, map[DocID][]Position{5: {pos(0, 10)}})
	b := newFakeTermIterator(testField, []DocID{5}, map[DocID][]Position{5: {pos(1, 10)}})
	near := NewNearSearch([]SearchIterator{a, b}, []*TermFieldMatchData{a.row, b.row}, 5, true)

	if got := drainHits(near, BeginID, 10); got != nil {
		t.Fatalf("got %v, want no hits", got)
	}
}

// S4: ONEAR requires left-to-right order; NEAR doesn't.
func TestONearSearchRequiresOrder(t *testing.T) {
	a := newFakeTermIterator(testField, []DocID{5}, map[DocID][]Position{5: {pos(0, 12)}})
	b := newFakeTermIterator(testField, []DocID{5}, map[DocID][]Position{5: {pos(0, 10)}})

	onear := NewONearSearch([]SearchIterator{a, b}, []*TermFieldMatchData{a.row, b.row}, 5, true)
	if got := drainHits(onear, BeginID, 10); got != nil {
		t.Fatalf("got %v, want no hits (terms appear out of order)", got)
	}

	a2 := newFakeTermIterator(testField, []DocID{5}, map[DocID][]Position{5: {pos(0, 10)}})
	b2 := newFakeTermIterator(testField, []DocID{5}, map[DocID][]Position{5: {pos(0, 12)}})
	near := NewNearSearch([]SearchIterator{a2, b2}, []*TermFieldMatchData{a2.row, b2.row}, 5, true)
	got := drainHits(near, BeginID, 10)
	if len(got) != 1 || got[0] != 5 {
		t.Fatalf("NEAR should ignore order, got %v", got)
	}
}

func TestONearSearchMatchesInOrder(t *testing.T) {
	a := newFakeTermIterator(testField, []DocID{5}, map[DocID][]Position{5: {pos(0, 10)}})
	b := newFakeTermIterator(testField, []DocID{5}, map[DocID][]Position{5: {pos(0, 12)}})
	onear := NewONearSearch([]SearchIterator{a, b}, []*TermFieldMatchData{a.row, b.row}, 5, true)

	got := drainHits(onear, BeginID, 10)
	if len(got) != 1 || got[0] != 5 {
		t.Fatalf("got %v, want [5]", got)
	}
}

func TestNearSearchMissingDocSkipped(t *testing.T) {
	a := newFakeTermIterator(testField, []DocID{5, 8}, map[DocID][]Position{
		5: {pos(0, 10)},
		8: {pos(0, 10)},
	})
	b := newFakeTermIterator(testField, []DocID{8}, map[DocID][]Position{
		8: {pos(0, 11)},
	})
	near := NewNearSearch([]SearchIterator{a, b}, []*TermFieldMatchData{a.row, b.row}, 3, true)

	got := drainHits(near, BeginID, 10)
	if diff := cmp.Diff([]DocID{8}, got); diff != "" {
		t.Fatalf("hit set mismatch, doc 5 has no match in the second child (-want +got):\n%s", diff)
	}
}

// TestNearSearchUnpackWritesPerTermPositions checks that after a hit
// each child's match-data row holds that term's positions in the doc
// (match unpacks every child while testing the window), via a
// structural diff rather than a field-by-field comparison.
func TestNearSearchUnpackWritesPerTermPositions(t *testing.T) {
	a := newFakeTermIterator(testField, []DocID{5}, map[DocID][]Position{5: {pos(0, 10)}})
	b := newFakeTermIterator(testField, []DocID{5}, map[DocID][]Position{5: {pos(0, 12)}})
	near := NewNearSearch([]SearchIterator{a, b}, []*TermFieldMatchData{a.row, b.row}, 3, true)

	near.InitRange(BeginID, 10)
	if !near.Seek(5) {
		t.Fatalf("expected a hit at doc 5")
	}
	near.Unpack(5)

	wantA := []Position{pos(0, 10)}
	if diff := cmp.Diff(wantA, a.row.Positions); diff != "" {
		t.Fatalf("first child's unpacked positions mismatch (-want +got):\n%s", diff)
	}
	wantB := []Position{pos(0, 12)}
	if diff := cmp.Diff(wantB, b.row.Positions); diff != "" {
		t.Fatalf("second child's unpacked positions mismatch (-want +got):\n%s", diff)
	}
}
