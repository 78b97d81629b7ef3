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
	"time"

	"github.com/RoaringBitmap/roaring"
)

// ExecuteInfo is the plan-time configuration threaded through
// FetchPostings/CreateSearch: whether the caller wants a strict root
// iterator, the hit rate expected to reach the node currently being
// fetched (re-derived per child by intermediateBase.FetchPostings via
// computeNextHitRate as the cascade descends, mirroring blueprint.cpp's
// own fetchPostings loop), a deadline, and an opaque per-query
// thread-pool handle. There is no config-file loader behind this — §1
// explicitly places configuration loading out of scope; a caller
// builds one of these as a plain struct literal per query.
type ExecuteInfo struct {
	Strict       bool
	HitRate      float64
	Doom         time.Time
	ThreadBundle interface{}
}

// Expired reports whether Doom has already passed.
func (e ExecuteInfo) Expired() bool {
	return !e.Doom.IsZero() && time.Now().After(e.Doom)
}

// GlobalFilter is an optional pre-computed set of candidate document
// ids, supplied to a Blueprint tree via SetGlobalFilter before
// FetchPostings runs (e.g. the result of an approximate-NN pre-filter
// stage upstream of this query). Backed by a roaring bitmap for the
// sparse representation the builder hands in; ToBitVector produces the
// dense word array §4.6's fusion path needs, since roaring's own
// compressed containers are not addressable as a flat []uint64.
type GlobalFilter struct {
	bits *roaring.Bitmap
}

// NewGlobalFilter wraps an existing roaring bitmap of candidate ids.
func NewGlobalFilter(bits *roaring.Bitmap) *GlobalFilter {
	return &GlobalFilter{bits: bits}
}

// Contains reports whether docid is a candidate.
func (g *GlobalFilter) Contains(docid DocID) bool {
	if g == nil || g.bits == nil {
		return true
	}
	return g.bits.Contains(docid)
}

// Cardinality reports how many candidates the filter carries.
func (g *GlobalFilter) Cardinality() uint64 {
	if g == nil || g.bits == nil {
		return 0
	}
	return g.bits.GetCardinality()
}

// ToBitVector materializes the filter as a dense fragment covering
// [beginID, endID), for absorption into a MultiBitVectorIterator via
// AndWith.
func (g *GlobalFilter) ToBitVector(beginID, endID DocID) *BitVector {
	bv := NewBitVector(beginID, endID)
	if g == nil || g.bits == nil {
		bv.SetRange(beginID, endID)
		return bv
	}
	it := g.bits.Iterator()
	it.AdvanceIfNeeded(beginID)
	for it.HasNext() {
		d := it.Next()
		if d >= endID {
			break
		}
		bv.Set(d)
	}
	return bv
}

// RequestContext carries the per-query identifiers a Searchable needs
// to build a Blueprint: which source (shard/partition/generation) is
// being queried and the overall doc-id limit it should plan against.
// Grounded on the teacher's convention of threading a lightweight
// per-request struct into its own index-lookup methods rather than
// relying on package-level state.
type RequestContext struct {
	SourceID   uint32
	DocIDLimit uint32
}
