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
	"fmt"
	"sort"
)

// leafBase is the shared plumbing every leaf Blueprint embeds: unlike
// an intermediate, a leaf's State never depends on children, so its
// calc closure is just "return whatever was last set" rather than a
// recomputation — the Go counterpart of leaf_blueprints.h's
// LeafBlueprint storing _state directly instead of deriving it.
type leafBase struct {
	blueprintBase
	st State
}

func (l *leafBase) initLeaf(self Blueprint, st State) {
	l.st = st
	l.blueprintBase.init(self, func() State { return l.st })
}

func (l *leafBase) setState(st State) {
	l.st = st
	l.notifyChange()
}

func (l *leafBase) IsIntermediate() bool      { return false }
func (l *leafBase) IsAnd() bool                { return false }
func (l *leafBase) IsAndNot() bool             { return false }
func (l *leafBase) IsOr() bool                 { return false }
func (l *leafBase) IsRank() bool               { return false }
func (l *leafBase) IsSourceBlender() bool      { return false }
func (l *leafBase) shouldOptimizeChildren() bool { return false }
func (l *leafBase) AlwaysNeedsUnpack() bool    { return false }

// SupportsTermwiseChildren is meaningless for a leaf (it has none);
// leaves answer false so an intermediate never mistakes "has no
// children to hoist" for "is itself termwise-capable" — termwise
// capability for a leaf is a property of its CreateSearch result
// (IsBitVector), not of this method.
func (l *leafBase) SupportsTermwiseChildren() bool { return false }

func (l *leafBase) SetGlobalFilter(gf *GlobalFilter, estimatedHitRatio float64) {}

// EmptyBlueprint matches nothing. It is both the build-time fallback
// for a leaf that failed to resolve (§7 InvalidPlan) and the result of
// Pass 2's empty-estimate collapse (§4.4), ported from
// leaf_blueprints.h's EmptyBlueprint.
type EmptyBlueprint struct {
	leafBase
}

// NewEmptyBlueprint returns an EmptyBlueprint exposing fields (kept so
// a collapsed subtree's field list survives for exposeFields
// consistency checks higher up the tree).
func NewEmptyBlueprint(fields FieldSpecList) *EmptyBlueprint {
	e := &EmptyBlueprint{}
	st := NewState(fields)
	st.SetEstimate(HitEstimate{Empty: true})
	e.initLeaf(e, st)
	return e
}

func (e *EmptyBlueprint) String() string { return "empty" }

func (e *EmptyBlueprint) Optimize() Blueprint   { return e }
func (e *EmptyBlueprint) optimizeSelf()          {}
func (e *EmptyBlueprint) getReplacement() Blueprint { return nil }

func (e *EmptyBlueprint) FetchPostings(info ExecuteInfo) {}
func (e *EmptyBlueprint) Freeze()                         { e.freezeSelf() }

func (e *EmptyBlueprint) CreateSearch(md *MatchData, strict bool) SearchIterator {
	return NewEmptySearch()
}

func (e *EmptyBlueprint) CreateFilterSearch(strict bool, constraint FilterConstraint) SearchIterator {
	return NewEmptySearch()
}

// FakeBlueprint wraps an already-built SearchIterator with a known
// estimate, bypassing postings resolution entirely. Ported from
// blueprint.h's FakeBlueprint, which Vespa's own unit tests use to
// assemble fixed-shape trees without a real index; here it plays the
// same role for this module's tests and for `cmd/queryplay` fixtures
// that want to inject a hand-built iterator.
type FakeBlueprint struct {
	leafBase
	search SearchIterator
}

// NewFakeBlueprint wraps search, reporting estimate for planning and
// fields for exposeFields bookkeeping.
func NewFakeBlueprint(search SearchIterator, fields FieldSpecList, estimate HitEstimate) *FakeBlueprint {
	f := &FakeBlueprint{search: search}
	st := NewState(fields)
	st.SetEstimate(estimate)
	f.initLeaf(f, st)
	return f
}

func (f *FakeBlueprint) String() string { return fmt.Sprintf("fake(%s)", f.search) }

func (f *FakeBlueprint) Optimize() Blueprint      { return f }
func (f *FakeBlueprint) optimizeSelf()             {}
func (f *FakeBlueprint) getReplacement() Blueprint { return nil }

func (f *FakeBlueprint) FetchPostings(info ExecuteInfo) {}
func (f *FakeBlueprint) Freeze()                         { f.freezeSelf() }

func (f *FakeBlueprint) CreateSearch(md *MatchData, strict bool) SearchIterator { return f.search }

func (f *FakeBlueprint) CreateFilterSearch(strict bool, constraint FilterConstraint) SearchIterator {
	return f.search
}

// Posting is one occurrence of a term in a field, as handed back by a
// PostingSource.
type Posting struct {
	DocID     DocID
	Weight    int32
	Positions []Position
}

// PostingSource is the collaborator a TermBlueprint resolves against:
// a cheap estimate at blueprint-construction time, and the real
// (possibly I/O-bound) postings list once FetchPostings is called.
// `internal/postingstore` is the in-memory implementation used by
// tests and `cmd/queryplay`; a real deployment would back this with an
// on-disk posting list reader instead, which §1 places outside this
// module's scope.
type PostingSource interface {
	EstimatedHits(field FieldID, term string) (estHits uint32, ok bool)
	LookupPostings(field FieldID, term string) ([]Posting, bool)
}

// TermBlueprint is the production leaf for query.Term (and, via the
// same shape, Prefix/Regexp/Fuzzy once expanded against a source that
// resolves them to postings ahead of time): it defers the actual
// postings fetch to FetchPostings, matching §5's two-phase
// plan-then-execute model. Ported from leaf_blueprints.h's
// SimpleLeafBlueprint plus dict_lookup_blueprint.cpp's
// estimate-then-fetch split.
type TermBlueprint struct {
	leafBase
	source       PostingSource
	field        FieldSpec
	term         string
	postings     []Posting
	resolved     bool
	globalFilter *GlobalFilter
}

// NewTermBlueprint builds a TermBlueprint bound to field/term against
// source, consulting source.EstimatedHits immediately for planning.
func NewTermBlueprint(source PostingSource, field FieldSpec, term string) *TermBlueprint {
	t := &TermBlueprint{source: source, field: field, term: term}
	est, ok := source.EstimatedHits(field.FieldID, term)
	st := NewState(FieldSpecList{field})
	if ok {
		st.SetEstimate(HitEstimate{EstHits: est})
	} else {
		st.SetEstimate(HitEstimate{Empty: true})
	}
	t.initLeaf(t, st)
	return t
}

func (t *TermBlueprint) String() string { return fmt.Sprintf("%d:%q", t.field.FieldID, t.term) }

func (t *TermBlueprint) Optimize() Blueprint      { return t }
func (t *TermBlueprint) optimizeSelf()             {}
func (t *TermBlueprint) getReplacement() Blueprint { return nil }

func (t *TermBlueprint) Freeze() { t.freezeSelf() }

// SetGlobalFilter records the candidate set a parent wants this leaf
// gated against (e.g. an approximate-NN pre-filter result) so
// FetchPostings can narrow to it; estimatedHitRatio is folded into the
// planning estimate immediately so the tighter figure is visible to
// Pass 1 ordering even before FetchPostings actually runs. Overrides
// leafBase's no-op since a term leaf is exactly the kind of node §4.8
// describes the filter as gating.
func (t *TermBlueprint) SetGlobalFilter(gf *GlobalFilter, estimatedHitRatio float64) {
	t.globalFilter = gf
	if gf == nil {
		return
	}
	st := t.st
	if !st.Estimate().Empty {
		adjusted := uint32(float64(st.Estimate().EstHits) * estimatedHitRatio)
		st.SetEstimate(HitEstimate{EstHits: adjusted})
	}
	t.setState(st)
}

// FetchPostings resolves the real postings list, narrowing it to
// globalFilter when one was set. Safe to call more than once (e.g.
// from a parent re-fetching after SetGlobalFilter); later calls
// re-run the lookup.
func (t *TermBlueprint) FetchPostings(info ExecuteInfo) {
	postings, ok := t.source.LookupPostings(t.field.FieldID, t.term)
	if !ok {
		postings = nil
	}
	if t.globalFilter != nil && len(postings) > 0 {
		filtered := postings[:0:0]
		for _, p := range postings {
			if t.globalFilter.Contains(p.DocID) {
				filtered = append(filtered, p)
			}
		}
		postings = filtered
	}
	t.postings = postings
	t.resolved = true
}

func (t *TermBlueprint) CreateSearch(md *MatchData, strict bool) SearchIterator {
	if !t.resolved || len(t.postings) == 0 {
		return NewEmptySearch()
	}
	tfmd := md.Resolve(t.field.Handle)
	return NewPostingsIterator(t.postings, t.field.FieldID, tfmd, t.field.IsFilter)
}

func (t *TermBlueprint) CreateFilterSearch(strict bool, constraint FilterConstraint) SearchIterator {
	if !t.resolved || len(t.postings) == 0 {
		return NewEmptySearch()
	}
	return NewPostingsIterator(t.postings, t.field.FieldID, nil, true)
}

// PostingsIterator is a leaf scan over a DocID-sorted []Posting slice,
// the shape a TermBlueprint hands to CreateSearch once FetchPostings
// has resolved a real postings list. Strict by construction (every
// posting list this module deals with is fully materialized in
// memory, so a "non-strict, caller drives" mode buys nothing) —
// grounded on this package's own BitVectorIterator.doSeek idiom
// (binary/linear scan forward, never backward) generalized from a
// dense word array to a sparse sorted slice.
type PostingsIterator struct {
	baseIterator
	postings []Posting
	fieldID  FieldID
	tfmd     *TermFieldMatchData
	isFilter bool
	pos      int
}

// NewPostingsIterator scans postings (must be sorted ascending by
// DocID). tfmd may be nil when only filter semantics are needed (no
// unpack ever happens).
func NewPostingsIterator(postings []Posting, fieldID FieldID, tfmd *TermFieldMatchData, isFilter bool) *PostingsIterator {
	return &PostingsIterator{postings: postings, fieldID: fieldID, tfmd: tfmd, isFilter: isFilter}
}

func (p *PostingsIterator) String() string {
	return fmt.Sprintf("postings(%d, %d hits)", p.fieldID, len(p.postings))
}

func (p *PostingsIterator) InitRange(beginID, endID DocID) {
	p.initRange(beginID, endID)
	p.pos = sort.Search(len(p.postings), func(i int) bool { return p.postings[i].DocID >= beginID })
	p.Seek(beginID)
}

func (p *PostingsIterator) IsStrict() Trinary { return True }

func (p *PostingsIterator) Seek(docid DocID) bool {
	for p.pos < len(p.postings) && p.postings[p.pos].DocID < docid {
		p.pos++
	}
	if p.pos >= len(p.postings) || p.postings[p.pos].DocID >= p.endID {
		p.setAtEnd()
		return false
	}
	p.setDocID(p.postings[p.pos].DocID)
	return p.docID == docid
}

func (p *PostingsIterator) Unpack(docid DocID) {
	if p.isFilter || p.tfmd == nil || p.pos >= len(p.postings) {
		return
	}
	hit := p.postings[p.pos]
	p.tfmd.Reset(docid)
	p.tfmd.Weight = hit.Weight
	p.tfmd.Positions = append(p.tfmd.Positions, hit.Positions...)
}

func (p *PostingsIterator) MatchesAny() Trinary {
	if len(p.postings) == 0 {
		return False
	}
	return Undefined
}

func (p *PostingsIterator) IsBitVector() bool { return false }

func (p *PostingsIterator) GetHits(beginID DocID) *BitVector {
	return defaultGetHits(p, beginID, p.endID)
}

func (p *PostingsIterator) AndHitsInto(bv *BitVector, beginID DocID) {
	drainAndInto(p, bv, beginID)
}

func (p *PostingsIterator) OrHitsInto(bv *BitVector, beginID DocID) {
	drainOrInto(p, bv, beginID)
}

func (p *PostingsIterator) AndWith(filter SearchIterator, estimate uint32) SearchIterator {
	return filter
}
