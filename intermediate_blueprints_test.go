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

func fakeLeaf(hits []DocID, limit DocID, estimate HitEstimate, fields FieldSpecList) *FakeBlueprint {
	return NewFakeBlueprint(bitVectorIteratorFrom(hits, limit), fields, estimate)
}

func TestAndBlueprintEstimateIsMinOfChildren(t *testing.T) {
	a := fakeLeaf([]DocID{1, 2}, 16, HitEstimate{EstHits: 100}, nil)
	b := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 10}, nil)
	and := NewAndBlueprint([]Blueprint{a, b})

	if got := and.GetState().Estimate().EstHits; got != 10 {
		t.Fatalf("got %d, want 10 (min of children)", got)
	}
}

func TestAndBlueprintSingleChildCollapses(t *testing.T) {
	only := fakeLeaf([]DocID{1}, 8, HitEstimate{EstHits: 1}, nil)
	and := NewAndBlueprint([]Blueprint{only})
	and.SetDocIDLimit(8)

	result := Optimize(and)
	if result != Blueprint(only) {
		t.Fatalf("a single-child AND should collapse to that child")
	}
}

func TestAndBlueprintFlattensNestedAnd(t *testing.T) {
	a := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 3}, nil)
	b := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 5}, nil)
	c := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 7}, nil)
	inner := NewAndBlueprint([]Blueprint{a, b})
	outer := NewAndBlueprint([]Blueprint{inner, c})
	outer.SetDocIDLimit(16)

	result := Optimize(outer)
	and, ok := result.(*AndBlueprint)
	if !ok {
		t.Fatalf("expected *AndBlueprint, got %T", result)
	}
	if len(and.children) != 3 {
		t.Fatalf("expected the nested AND to flatten into 3 children, got %d", len(and.children))
	}
}

func TestAndBlueprintCreateSearchDrainsIntersection(t *testing.T) {
	const limit = 32
	a := fakeLeaf([]DocID{2, 5, 9}, limit, HitEstimate{EstHits: 3}, nil)
	b := fakeLeaf([]DocID{5, 9, 20}, limit, HitEstimate{EstHits: 3}, nil)
	and := NewAndBlueprint([]Blueprint{a, b})
	and.SetDocIDLimit(limit)
	and.Freeze()

	md := NewMatchData()
	it := and.CreateSearch(md, true)
	got := drainHits(it, BeginID, limit)
	want := []DocID{5, 9}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestAndBlueprintSortsCheapestFirstByEstimate(t *testing.T) {
	expensive := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 1000}, nil)
	cheap := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 1}, nil)
	and := NewAndBlueprint([]Blueprint{expensive, cheap})
	and.sortChildren()
	if and.children[0] != Blueprint(cheap) {
		t.Fatalf("AND should sort the cheaper (smaller estimate) child first")
	}
}

func TestOrBlueprintDropsEmptyChildren(t *testing.T) {
	live := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 5}, nil)
	empty := NewEmptyBlueprint(nil)
	or := NewOrBlueprint([]Blueprint{live, empty})
	or.optimizeSelf()
	if len(or.children) != 1 || or.children[0] != Blueprint(live) {
		t.Fatalf("OR's optimizeSelf should drop the empty-estimate child")
	}
}

func TestOrBlueprintEstimateSaturatesAtDocIDLimit(t *testing.T) {
	a := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 80}, nil)
	b := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 80}, nil)
	or := NewOrBlueprint([]Blueprint{a, b})
	or.SetDocIDLimit(100)
	if got := or.GetState().Estimate().EstHits; got != 100 {
		t.Fatalf("got %d, want 100", got)
	}
}

func TestOrBlueprintSortsByDescendingEstimate(t *testing.T) {
	small := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 5}, nil)
	big := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 500}, nil)
	or := NewOrBlueprint([]Blueprint{small, big})
	or.sortChildren()
	if or.children[0] != Blueprint(big) {
		t.Fatalf("OR should sort the larger estimate first")
	}
}

func TestAndNotBlueprintEstimateFollowsPositive(t *testing.T) {
	pos := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 42}, nil)
	neg := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 1000}, nil)
	andnot := NewAndNotBlueprint([]Blueprint{pos, neg})
	if got := andnot.GetState().Estimate().EstHits; got != 42 {
		t.Fatalf("got %d, want 42 (positive child's estimate)", got)
	}
}

func TestAndNotBlueprintMergesNestedAndNot(t *testing.T) {
	pos := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 10}, nil)
	negA := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 1}, nil)
	negB := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 1}, nil)
	inner := NewAndNotBlueprint([]Blueprint{pos, negA})
	outer := NewAndNotBlueprint([]Blueprint{inner, negB})

	outer.children[0] = inner // optimizeSelf reads raw children, bypass Optimize's recursive child-optimize
	outer.optimizeSelf()
	if len(outer.children) != 3 {
		t.Fatalf("expected nested AND-NOT to merge into 3 children (pos, negA, negB), got %d", len(outer.children))
	}
	if outer.children[0] != Blueprint(pos) {
		t.Fatalf("merged AND-NOT's positive child must be the innermost positive")
	}
}

func TestAndNotBlueprintDropsEmptyNegativesKeepsPositive(t *testing.T) {
	pos := NewEmptyBlueprint(nil) // even an empty-estimate positive must survive
	negLive := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 5}, nil)
	negEmpty := NewEmptyBlueprint(nil)
	andnot := NewAndNotBlueprint([]Blueprint{pos, negLive, negEmpty})
	andnot.optimizeSelf()
	if len(andnot.children) != 2 {
		t.Fatalf("expected positive + one live negative, got %d children", len(andnot.children))
	}
	if andnot.children[0] != Blueprint(pos) {
		t.Fatalf("positive child must never be dropped, even with an empty estimate")
	}
}

func TestAndNotBlueprintCreateSearchDrainsDifference(t *testing.T) {
	const limit = 32
	pos := fakeLeaf([]DocID{1, 2, 3, 4}, limit, HitEstimate{EstHits: 4}, nil)
	neg := fakeLeaf([]DocID{2, 4}, limit, HitEstimate{EstHits: 2}, nil)
	andnot := NewAndNotBlueprint([]Blueprint{pos, neg})
	andnot.SetDocIDLimit(limit)
	andnot.Freeze()

	md := NewMatchData()
	it := andnot.CreateSearch(md, true)
	got := drainHits(it, BeginID, limit)
	want := []DocID{1, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestRankBlueprintEstimateAndCollapseFollowPrimary(t *testing.T) {
	primary := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 7}, nil)
	rank := NewRankBlueprint([]Blueprint{primary})
	if got := rank.GetState().Estimate().EstHits; got != 7 {
		t.Fatalf("got %d, want 7", got)
	}
	if got := rank.getReplacement(); got != Blueprint(primary) {
		t.Fatalf("a single-child RANK should collapse to its primary")
	}
}

func TestRankBlueprintDropsEmptySecondaries(t *testing.T) {
	primary := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 7}, nil)
	secLive := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 2}, nil)
	secEmpty := NewEmptyBlueprint(nil)
	rank := NewRankBlueprint([]Blueprint{primary, secLive, secEmpty})
	rank.optimizeSelf()
	if len(rank.children) != 2 {
		t.Fatalf("expected primary + one live secondary, got %d", len(rank.children))
	}
}

func TestRankBlueprintCreateSearchMatchesPrimaryOnly(t *testing.T) {
	const limit = 16
	primary := fakeLeaf([]DocID{2, 5}, limit, HitEstimate{EstHits: 2}, nil)
	secondary := fakeLeaf([]DocID{5, 9}, limit, HitEstimate{EstHits: 2}, nil)
	rank := NewRankBlueprint([]Blueprint{primary, secondary})
	rank.SetDocIDLimit(limit)
	rank.Freeze()

	md := NewMatchData()
	it := rank.CreateSearch(md, true)
	got := drainHits(it, BeginID, limit)
	want := []DocID{2, 5}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestExposeFieldsUnionConflictCollapsesToEmpty(t *testing.T) {
	fieldA := FieldSpecList{{FieldID: 1, Handle: 1}}
	fieldAConflict := FieldSpecList{{FieldID: 1, Handle: 2}} // same field id, different handle
	a := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 1}, fieldA)
	b := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 1}, fieldAConflict)

	or := NewOrBlueprint([]Blueprint{a, b})
	if got := or.GetState().Fields(); got != nil {
		t.Fatalf("conflicting field bindings across children should collapse exposeFields to empty, got %v", got)
	}
}

func TestExposeFieldsUnionMergesCompatibleFields(t *testing.T) {
	fieldA := FieldSpecList{{FieldID: 1, Handle: 1}}
	fieldB := FieldSpecList{{FieldID: 2, Handle: 2}}
	a := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 1}, fieldA)
	b := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 1}, fieldB)

	or := NewOrBlueprint([]Blueprint{a, b})
	got := or.GetState().Fields()
	if len(got) != 2 {
		t.Fatalf("got %v, want both fields merged", got)
	}
}

func TestNearBlueprintSortsByAscendingEstimate(t *testing.T) {
	a := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 100}, nil)
	b := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 2}, nil)
	near := NewNearBlueprint([]Blueprint{a, b}, 5)
	near.sortChildren()
	if near.children[0] != Blueprint(b) {
		t.Fatalf("NEAR should sort the cheaper (smaller estimate) child first")
	}
}

func TestWeakAndBlueprintNeverReordersChildren(t *testing.T) {
	a := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 100}, nil)
	b := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 2}, nil)
	wand := NewWeakAndBlueprint([]Blueprint{a, b}, []int32{1, 2}, 10)
	wand.sortChildren()
	if wand.children[0] != Blueprint(a) || wand.children[1] != Blueprint(b) {
		t.Fatalf("WEAK-AND must never reorder children, since weights are positional")
	}
	if !wand.AlwaysNeedsUnpack() {
		t.Fatalf("WEAK-AND always needs unpack")
	}
}

func TestSourceBlenderBlueprintEstimateIsMaxOfChildren(t *testing.T) {
	a := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 10}, nil)
	b := fakeLeaf([]DocID{1}, 16, HitEstimate{EstHits: 90}, nil)
	sb := NewSourceBlenderBlueprint([]Blueprint{a, b}, []uint32{0, 1}, modSelector{})
	if got := sb.GetState().Estimate().EstHits; got != 90 {
		t.Fatalf("got %d, want 90 (max of children)", got)
	}
}
