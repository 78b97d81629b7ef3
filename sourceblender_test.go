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

import "testing"

// modSelector routes even docids to source 0 and odd docids to
// source 1, enough to exercise SourceBlenderSearch's per-doc dispatch.
type modSelector struct{}

func (modSelector) SourceID(docid DocID) uint32 { return uint32(docid % 2) }

func TestSourceBlenderSearchStrictRoutesByDocID(t *testing.T) {
	const limit = 16
	even := []DocID{2, 4, 6}
	odd := []DocID{3, 5}

	children := []SearchIterator{bitVectorIteratorFrom(even, limit), bitVectorIteratorFrom(odd, limit)}
	blender := NewSourceBlenderSearch(children, []uint32{0, 1}, modSelector{}, true)

	got := drainHits(blender, BeginID, limit)
	want := []DocID{2, 3, 4, 5, 6}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

// A doc whose owning source doesn't actually contain it must be
// skipped, not just routed.
func TestSourceBlenderSearchSkipsDocsMissingFromOwningSource(t *testing.T) {
	const limit = 10
	even := []DocID{2, 4} // docid 6 (even) intentionally absent
	odd := []DocID{3}

	children := []SearchIterator{bitVectorIteratorFrom(even, limit), bitVectorIteratorFrom(odd, limit)}
	blender := NewSourceBlenderSearch(children, []uint32{0, 1}, modSelector{}, true)

	got := drainHits(blender, BeginID, limit)
	want := []DocID{2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSourceBlenderSearchNonStrictSeek(t *testing.T) {
	const limit = 10
	even := []DocID{2, 4}
	odd := []DocID{3}

	children := []SearchIterator{bitVectorIteratorFrom(even, limit), bitVectorIteratorFrom(odd, limit)}
	blender := NewSourceBlenderSearch(children, []uint32{0, 1}, modSelector{}, false)

	blender.InitRange(BeginID, limit)
	if !blender.Seek(2) {
		t.Fatalf("expected a hit at doc 2")
	}
	if blender.Seek(7) {
		t.Fatalf("doc 7 is odd but absent from the odd child, should not match")
	}
}

func TestSourceBlenderSearchUnknownSourceSkipped(t *testing.T) {
	const limit = 8
	hits := []DocID{2, 3, 4}
	children := []SearchIterator{bitVectorIteratorFrom(hits, limit)}
	// Only source 0 is registered; SourceID(docid)==1 for odd docs has
	// no matching child and so must never be reported as a hit.
	blender := NewSourceBlenderSearch(children, []uint32{0}, modSelector{}, true)

	got := drainHits(blender, BeginID, limit)
	want := []DocID{2, 4}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
