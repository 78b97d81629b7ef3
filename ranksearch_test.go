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

func TestRankSearchMatchesPrimaryOnly(t *testing.T) {
	const limit = 32
	primary := []DocID{2, 5, 9}
	secondary := []DocID{5, 9, 20}

	rank := NewRankSearch([]SearchIterator{
		bitVectorIteratorFrom(primary, limit),
		bitVectorIteratorFrom(secondary, limit),
	}, NewUnpackInfo(), true)

	got := drainHits(rank, BeginID, limit)
	if diff := cmp.Diff(primary, got); diff != "" {
		t.Fatalf("hit set mismatch (-want +got):\n%s", diff)
	}
}

func TestRankSearchNoSecondariesIsIdentity(t *testing.T) {
	const limit = 16
	primary := []DocID{1, 4}
	rank := NewRankSearch([]SearchIterator{bitVectorIteratorFrom(primary, limit)}, NewUnpackInfo(), true)

	got := drainHits(rank, BeginID, limit)
	if diff := cmp.Diff(primary, got); diff != "" {
		t.Fatalf("hit set mismatch (-want +got):\n%s", diff)
	}
}

func TestRankSearchUnpacksSecondaryOnlyWhenPresent(t *testing.T) {
	const limit = 16
	primary := []DocID{2, 9}
	secondary := []DocID{9}
	unpack := NewUnpackInfo().Add(1)
	rank := NewRankSearch([]SearchIterator{
		bitVectorIteratorFrom(primary, limit),
		bitVectorIteratorFrom(secondary, limit),
	}, unpack, true)

	rank.InitRange(BeginID, limit)
	if !rank.Seek(2) {
		t.Fatalf("expected a hit at doc 2")
	}
	rank.Unpack(2) // secondary child has no match at 2; must not panic

	if !rank.Seek(9) {
		t.Fatalf("expected a hit at doc 9")
	}
	rank.Unpack(9)
}

func TestRankSearchEmptyPrimaryMatchesNothing(t *testing.T) {
	const limit = 16
	secondary := []DocID{1, 2, 3}
	rank := NewRankSearch([]SearchIterator{
		NewEmptySearch(),
		bitVectorIteratorFrom(secondary, limit),
	}, NewUnpackInfo(), true)

	if got := drainHits(rank, BeginID, limit); got != nil {
		t.Fatalf("got %v, want no hits", got)
	}
}

func TestRankSearchIsStrictMatchesConstructorArg(t *testing.T) {
	primary := []DocID{1}
	strict := NewRankSearch([]SearchIterator{bitVectorIteratorFrom(primary, 8)}, NewUnpackInfo(), true)
	if strict.IsStrict() != True {
		t.Fatalf("IsStrict() = %v, want True", strict.IsStrict())
	}

	nonStrict := NewRankSearch([]SearchIterator{bitVectorIteratorFrom(primary, 8)}, NewUnpackInfo(), false)
	if nonStrict.IsStrict() != False {
		t.Fatalf("IsStrict() = %v, want False", nonStrict.IsStrict())
	}
}
