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

func TestHitEstimateLess(t *testing.T) {
	empty := HitEstimate{Empty: true}
	small := HitEstimate{EstHits: 1}
	big := HitEstimate{EstHits: 100}

	if !empty.Less(small) {
		t.Fatalf("an empty estimate should sort before any non-empty one")
	}
	if empty.Less(empty) {
		t.Fatalf("an estimate is never less than an equal one")
	}
	if !small.Less(big) {
		t.Fatalf("among non-empty estimates, the smaller EstHits should sort first")
	}
	if big.Less(small) {
		t.Fatalf("100 should not sort before 1")
	}
}

func TestMaxEstimate(t *testing.T) {
	got := MaxEstimate([]HitEstimate{{EstHits: 5}, {EstHits: 50}, {EstHits: 20}})
	if got.EstHits != 50 || got.Empty {
		t.Fatalf("got %+v, want EstHits=50", got)
	}
	if got := MaxEstimate(nil); !got.Empty {
		t.Fatalf("MaxEstimate of no data should be empty, got %+v", got)
	}
}

func TestMinEstimate(t *testing.T) {
	got := MinEstimate([]HitEstimate{{EstHits: 5}, {EstHits: 50}, {EstHits: 20}})
	if got.EstHits != 5 || got.Empty {
		t.Fatalf("got %+v, want EstHits=5", got)
	}
}

func TestMinEstimatePropagatesEmpty(t *testing.T) {
	got := MinEstimate([]HitEstimate{{EstHits: 5}, {Empty: true}, {EstHits: 20}})
	if !got.Empty {
		t.Fatalf("one empty child should make MinEstimate empty, got %+v", got)
	}
}

func TestSatSumEstimateSaturatesAtDocIDLimit(t *testing.T) {
	got := SatSumEstimate([]HitEstimate{{EstHits: 80}, {EstHits: 80}}, 100)
	if got.EstHits != 100 {
		t.Fatalf("SatSumEstimate should cap at docIDLimit, got %d", got.EstHits)
	}
}

func TestSatSumEstimateBelowLimit(t *testing.T) {
	got := SatSumEstimate([]HitEstimate{{EstHits: 10}, {EstHits: 20}}, 1000)
	if got.EstHits != 30 {
		t.Fatalf("got %d, want 30", got.EstHits)
	}
}

func TestSatSumEstimateAllEmptyIsEmpty(t *testing.T) {
	got := SatSumEstimate([]HitEstimate{{Empty: true}, {Empty: true}}, 100)
	if !got.Empty {
		t.Fatalf("SatSumEstimate over all-empty children should be empty")
	}
}

func TestWeakAndEstimateCapsAtTargetHits(t *testing.T) {
	got := WeakAndEstimate([]HitEstimate{{EstHits: 10}, {EstHits: 1000}}, 50)
	if got.EstHits != 50 {
		t.Fatalf("got %d, want 50 (capped by targetHits)", got.EstHits)
	}
}

func TestWeakAndEstimateBelowTargetHits(t *testing.T) {
	got := WeakAndEstimate([]HitEstimate{{EstHits: 10}, {EstHits: 20}}, 50)
	if got.EstHits != 20 {
		t.Fatalf("got %d, want 20 (max of children, under the cap)", got.EstHits)
	}
}

func TestStateTreeSizeRoundTrips(t *testing.T) {
	s := NewState(nil)
	s.SetTreeSize(12345)
	if got := s.TreeSize(); got != 12345 {
		t.Fatalf("got %d, want 12345", got)
	}
}

func TestStateCostTierRoundTrips(t *testing.T) {
	s := NewState(nil)
	s.SetCostTier(CostTierExpensive)
	if got := s.CostTier(); got != CostTierExpensive {
		t.Fatalf("got %d, want %d", got, CostTierExpensive)
	}
	if s.TreeSize() != 1 {
		t.Fatalf("setting cost tier must not disturb the default tree size")
	}
}

func TestStateFlagsRoundTripIndependently(t *testing.T) {
	s := NewState(nil)
	if !s.AllowTermwiseEval() {
		t.Fatalf("NewState should default AllowTermwiseEval to true")
	}
	if s.WantGlobalFilter() {
		t.Fatalf("NewState should default WantGlobalFilter to false")
	}

	s.SetAllowTermwiseEval(false)
	s.SetWantGlobalFilter(true)
	if s.AllowTermwiseEval() {
		t.Fatalf("AllowTermwiseEval should now be false")
	}
	if !s.WantGlobalFilter() {
		t.Fatalf("WantGlobalFilter should now be true")
	}

	s.SetTreeSize(99)
	s.SetCostTier(CostTierMax)
	if s.AllowTermwiseEval() || !s.WantGlobalFilter() {
		t.Fatalf("changing tree size/cost tier must not disturb the flags")
	}
}

func TestStateLookupField(t *testing.T) {
	fields := FieldSpecList{{FieldID: 3, Handle: 7}, {FieldID: 9, Handle: 2}}
	s := NewState(fields)

	got, ok := s.LookupField(9)
	if !ok || got.Handle != 2 {
		t.Fatalf("got %+v, ok=%v, want Handle=2", got, ok)
	}
	if _, ok := s.LookupField(42); ok {
		t.Fatalf("field 42 was never registered, LookupField should report false")
	}
}

func TestStateHitRatio(t *testing.T) {
	s := NewState(nil)
	s.SetEstimate(HitEstimate{EstHits: 50})
	if got := s.HitRatio(100); got != 0.5 {
		t.Fatalf("got %v, want 0.5", got)
	}
	if got := s.HitRatio(0); got != 0 {
		t.Fatalf("HitRatio against a zero-doc index should report 0, got %v", got)
	}
}

func TestFilterConstraintInvert(t *testing.T) {
	if UpperBound.invert() != LowerBound {
		t.Fatalf("UpperBound should invert to LowerBound")
	}
	if LowerBound.invert() != UpperBound {
		t.Fatalf("LowerBound should invert to UpperBound")
	}
}
