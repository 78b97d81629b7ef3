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

// S5: fusing >= 2 bit-vector children of an AND into one
// MultiBitVectorIterator must produce the same hits as the plain
// AndSearch it replaces.
func TestMultiBitVectorIteratorAndFusionMatchesAndSearch(t *testing.T) {
	const limit = 200
	a := bitVectorFromSet(0, limit, 2, 5, 9, 40, 130)
	b := bitVectorFromSet(0, limit, 5, 9, 40, 60, 130)
	c := bitVectorFromSet(0, limit, 5, 9, 40, 130, 190)

	children := []SearchIterator{
		NewBitVectorIterator(a, false),
		NewBitVectorIterator(b, false),
		NewBitVectorIterator(c, false),
	}
	fused := NewMultiBitVectorIterator(children, NewUnpackInfo(), bitFuseAnd, true)

	plainChildren := []SearchIterator{
		NewBitVectorIterator(a, false),
		NewBitVectorIterator(b, false),
		NewBitVectorIterator(c, false),
	}
	plain := NewAndSearch(plainChildren, NewUnpackInfo(), true)

	got := drainHits(fused, BeginID, limit)
	want := drainHits(plain, BeginID, limit)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

// S6: the OR-fusion variant, crossing an 8-word (512-bit) batch
// boundary so more than one batch fetch is exercised.
func TestMultiBitVectorIteratorOrFusionMatchesOrSearch(t *testing.T) {
	const limit = 600
	a := bitVectorFromSet(0, limit, 2, 300)
	b := bitVectorFromSet(0, limit, 5, 511, 512)
	c := bitVectorFromSet(0, limit, 9, 599)

	children := []SearchIterator{
		NewBitVectorIterator(a, false),
		NewBitVectorIterator(b, false),
		NewBitVectorIterator(c, false),
	}
	fused := NewMultiBitVectorIterator(children, NewUnpackInfo(), bitFuseOr, true)

	plainChildren := []SearchIterator{
		NewBitVectorIterator(a, false),
		NewBitVectorIterator(b, false),
		NewBitVectorIterator(c, false),
	}
	plain := NewOrSearch(plainChildren, NewUnpackInfo(), true)

	got := drainHits(fused, BeginID, limit)
	want := drainHits(plain, BeginID, limit)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestFuseBitVectorChildrenRequiresTwoCandidates(t *testing.T) {
	const limit = 32
	// newFakeTermIterator stands in for a non-bit-vector child (e.g. a
	// term posting iterator) so the IsBitVector gate can be exercised
	// without a real posting source.
	children := []SearchIterator{
		NewBitVectorIterator(bitVectorFromSet(0, limit, 1), false),
		newFakeTermIterator(testField, nil, nil),
	}
	_, _, ok := FuseBitVectorChildren(children, NewUnpackInfo(), false, bitFuseAnd)
	if ok {
		t.Fatalf("with only one bit-vector child, fusion should not apply")
	}
}

func TestFuseBitVectorChildrenFusesAndInsertsAtFirstStolenPosition(t *testing.T) {
	const limit = 32
	bvA := NewBitVectorIterator(bitVectorFromSet(0, limit, 1, 2), false)
	bvB := NewBitVectorIterator(bitVectorFromSet(0, limit, 2, 3), false)
	other := newFakeTermIterator(testField, nil, nil)

	children := []SearchIterator{other, bvA, bvB}
	result, _, ok := FuseBitVectorChildren(children, NewUnpackInfo(), false, bitFuseAnd)
	if !ok {
		t.Fatalf("expected fusion to apply with two bit-vector children")
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 children after fusion (other + fused), got %d", len(result))
	}
	if result[0] != other {
		t.Fatalf("non-bitvector child must be preserved in its original order")
	}
	if _, ok := result[1].(*MultiBitVectorIterator); !ok {
		t.Fatalf("fused node should replace the stolen bit-vector children")
	}
}

func TestFuseBitVectorChildrenAndNotSkipsPositiveChild(t *testing.T) {
	const limit = 32
	positive := NewBitVectorIterator(bitVectorFromSet(0, limit, 1, 2, 3), false)
	negA := NewBitVectorIterator(bitVectorFromSet(0, limit, 2), false)
	negB := NewBitVectorIterator(bitVectorFromSet(0, limit, 3), false)

	children := []SearchIterator{positive, negA, negB}
	result, _, ok := FuseBitVectorChildren(children, NewUnpackInfo(), true, bitFuseOr)
	if !ok {
		t.Fatalf("expected fusion to apply across the two negative children")
	}
	if result[0] != positive {
		t.Fatalf("AND-NOT's positive child must never be folded into the fusion")
	}
	if _, ok := result[1].(*MultiBitVectorIterator); !ok {
		t.Fatalf("negatives should be fused")
	}
}

func TestMultiBitVectorIteratorAndWithAbsorbsOnlyForAndFusion(t *testing.T) {
	const limit = 32
	a := NewBitVectorIterator(bitVectorFromSet(0, limit, 1, 2), false)
	b := NewBitVectorIterator(bitVectorFromSet(0, limit, 2, 3), false)

	andFused := NewMultiBitVectorIterator([]SearchIterator{a, b}, NewUnpackInfo(), bitFuseAnd, true)
	filter := NewBitVectorIterator(bitVectorFromSet(0, limit, 2), false)
	if got := andFused.AndWith(filter, 1); got != nil {
		t.Fatalf("AND fusion should absorb a strict bit-vector filter, got %v back", got)
	}

	c := NewBitVectorIterator(bitVectorFromSet(0, limit, 1), false)
	d := NewBitVectorIterator(bitVectorFromSet(0, limit, 2), false)
	orFused := NewMultiBitVectorIterator([]SearchIterator{c, d}, NewUnpackInfo(), bitFuseOr, true)
	filter2 := NewBitVectorIterator(bitVectorFromSet(0, limit, 2), false)
	if got := orFused.AndWith(filter2, 1); got != SearchIterator(filter2) {
		t.Fatalf("OR fusion must never absorb an extra filter")
	}
}
