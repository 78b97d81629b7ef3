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

// FieldID identifies an indexed field within a schema.
type FieldID uint32

// Handle indexes into a query execution's MatchData scratch rows. It
// is dense and assigned by MatchData.Allocate, never by the field
// schema itself.
type Handle uint32

// FieldSpec binds one (fieldId, handle) pair for a leaf, optionally
// marking the field as filter-only (no unpack ever needed for it).
type FieldSpec struct {
	FieldID  FieldID
	Handle   Handle
	IsFilter bool
}

// FieldSpecList is an ordered set of FieldSpecs. (exposeFieldsUnion
// detects two children binding different handles to the same field id
// by comparing FieldSpecs directly; it does not call Equal.)
type FieldSpecList []FieldSpec

// Equal reports whether l and o contain the same (fieldId, handle,
// isFilter) tuples, in any order.
func (l FieldSpecList) Equal(o FieldSpecList) bool {
	if len(l) != len(o) {
		return false
	}
	idx := make(map[FieldID]FieldSpec, len(l))
	for _, s := range l {
		idx[s.FieldID] = s
	}
	for _, s := range o {
		got, ok := idx[s.FieldID]
		if !ok || got != s {
			return false
		}
	}
	return true
}

// Position is one occurrence of a term within a field.
type Position struct {
	Pos           uint32
	ElementID     uint32
	ElementWeight int32
	FieldLength   uint32
}

// TermFieldMatchData is the mutable scratch row a leaf iterator writes
// into during Unpack. Its lifetime is bound to one query execution.
type TermFieldMatchData struct {
	DocID     DocID
	FieldID   FieldID
	Positions []Position
	RawScore  int32
	Weight    int32
}

// Reset clears a row for reuse within the same query execution
// (between Unpack calls for different documents).
func (m *TermFieldMatchData) Reset(docid DocID) {
	m.DocID = docid
	m.Positions = m.Positions[:0]
	m.RawScore = 0
	m.Weight = 0
}

// defaultTermwiseLimit is the out-of-the-box §4.5 match_limit. A hoist
// is skipped when the root's hit ratio is at or below the limit, and a
// hit ratio never exceeds 1.0, so at this default the density gate
// skips every termwise hoist; hoisting only happens once a caller
// lowers the limit with SetTermwiseLimit.
const defaultTermwiseLimit = 1.0

// MatchData is the flat, pre-allocated scratch for one query
// execution. Handles are dense indices into rows; no allocation
// happens on the per-seek/per-unpack path once Allocate has run.
type MatchData struct {
	rows          []TermFieldMatchData
	termwiseLimit float64
}

// NewMatchData returns an empty MatchData ready to hand out handles.
func NewMatchData() *MatchData {
	return &MatchData{termwiseLimit: defaultTermwiseLimit}
}

// TermwiseLimit is the match_limit threshold §4.5's termwise hoist
// gate compares a subtree's root().hit_ratio() against: a hoist is
// skipped when the root is estimated to reach no more than this
// fraction of the corpus. Grounded on fef::MatchData::get_termwise_limit,
// the config the original threads into every should_do_termwise_eval
// call rather than passing it down as a CreateSearch parameter.
func (m *MatchData) TermwiseLimit() float64 { return m.termwiseLimit }

// SetTermwiseLimit overrides the match_limit threshold, mirroring
// fef::MatchData::setTermwiseLimit.
func (m *MatchData) SetTermwiseLimit(limit float64) { m.termwiseLimit = limit }

// Allocate reserves a new row bound to fieldID and returns its handle.
func (m *MatchData) Allocate(fieldID FieldID) Handle {
	h := Handle(len(m.rows))
	m.rows = append(m.rows, TermFieldMatchData{FieldID: fieldID})
	return h
}

// Resolve returns the mutable row for handle h.
func (m *MatchData) Resolve(h Handle) *TermFieldMatchData {
	return &m.rows[h]
}

// NumRows reports how many rows have been allocated.
func (m *MatchData) NumRows() int { return len(m.rows) }
