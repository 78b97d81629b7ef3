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

// HitEstimate is Blueprint's upper-bound estimate used for ordering
// and cost. Ported from blueprint.h's Blueprint::HitEstimate.
type HitEstimate struct {
	EstHits uint32
	Empty   bool
}

// Less orders empty estimates before non-empty ones; among estimates
// with the same emptiness, smaller EstHits sorts first.
func (h HitEstimate) Less(other HitEstimate) bool {
	if h.Empty == other.Empty {
		return h.EstHits < other.EstHits
	}
	return h.Empty
}

// MaxEstimate returns the largest estimate in data (blueprint.cpp's
// Blueprint::max — used by SOURCE-BLENDER's combine).
func MaxEstimate(data []HitEstimate) HitEstimate {
	est := HitEstimate{Empty: true}
	for _, e := range data {
		if est.Empty || est.EstHits < e.EstHits {
			est = e
		}
	}
	return est
}

// MinEstimate returns the smallest estimate in data (Blueprint::min —
// used by AND/NEAR/ONEAR/WEAK-AND's combine).
func MinEstimate(data []HitEstimate) HitEstimate {
	var est HitEstimate
	for i, e := range data {
		if i == 0 || e.Empty || e.EstHits < est.EstHits {
			est = e
		}
	}
	return est
}

// SatSumEstimate sums data, saturating at max(docIDLimit, the largest
// single estimate) — OR's combine.
func SatSumEstimate(data []HitEstimate, docIDLimit uint32) HitEstimate {
	var sum uint64
	empty := true
	limit := uint64(docIDLimit)
	for _, e := range data {
		sum += uint64(e.EstHits)
		empty = empty && e.Empty
		if uint64(e.EstHits) > limit {
			limit = uint64(e.EstHits)
		}
	}
	if sum > limit {
		sum = limit
	}
	return HitEstimate{EstHits: uint32(sum), Empty: empty}
}

// WeakAndEstimate is WEAK-AND's combine: min(targetHits, max(child
// estimates)) — capped by however many candidates top-N scoring can
// actually produce.
func WeakAndEstimate(data []HitEstimate, targetHits uint32) HitEstimate {
	max := MaxEstimate(data)
	if max.EstHits > targetHits {
		max.EstHits = targetHits
	}
	return max
}

// Cost tiers: an intermediate node takes the minimum tier across its
// children, except AND-NOT and RANK, which take child[0]'s tier.
const (
	CostTierNormal    uint8 = 1
	CostTierExpensive uint8 = 2
	CostTierMax       uint8 = 255
)

// State is a Blueprint's annotation, immutable once the tree is
// frozen: field set, hit estimate, and a packed tree_size:20 |
// cost_tier:8 | flags:4 word (spec's design-notes bit-packing
// suggestion). Ported from blueprint.h's Blueprint::State.
type State struct {
	fields   FieldSpecList
	estimate HitEstimate
	packed   uint32
}

const (
	stateFlagAllowTermwiseEval uint32 = 1 << 0
	stateFlagWantGlobalFilter  uint32 = 1 << 1

	stateCostTierShift = 4
	stateCostTierMask  = 0xFF
	stateTreeSizeShift = 12
	stateTreeSizeMask  = 0xFFFFF // 20 bits
)

// NewState returns a State over fields with the same defaults as the
// C++ constructor: tree_size 1, cost tier normal, termwise eval
// allowed, global filter not wanted.
func NewState(fields FieldSpecList) State {
	s := State{fields: fields}
	s.SetTreeSize(1)
	s.SetCostTier(CostTierNormal)
	s.SetAllowTermwiseEval(true)
	return s
}

func (s *State) IsTermLike() bool      { return len(s.fields) > 0 }
func (s *State) Fields() FieldSpecList { return s.fields }
func (s *State) NumFields() int        { return len(s.fields) }
func (s *State) Field(i int) FieldSpec { return s.fields[i] }

// LookupField returns the FieldSpec bound to fieldID, if any.
func (s *State) LookupField(fieldID FieldID) (FieldSpec, bool) {
	for _, f := range s.fields {
		if f.FieldID == fieldID {
			return f, true
		}
	}
	return FieldSpec{}, false
}

func (s *State) Estimate() HitEstimate    { return s.estimate }
func (s *State) SetEstimate(e HitEstimate) { s.estimate = e }

// HitRatio is the estimated fraction of [0, docIDLimit) this subtree
// matches (0 when docIDLimit is 0), used to gate termwise hoisting
// against match_limit.
func (s *State) HitRatio(docIDLimit uint32) float64 {
	total := s.estimate.EstHits
	totalDocs := docIDLimit
	if total > totalDocs {
		totalDocs = total
	}
	if docIDLimit == 0 {
		return 0
	}
	return float64(total) / float64(totalDocs)
}

func (s *State) TreeSize() uint32 {
	return (s.packed >> stateTreeSizeShift) & stateTreeSizeMask
}

// SetTreeSize stores value, truncated to its low 20 bits.
func (s *State) SetTreeSize(value uint32) {
	s.packed = (s.packed &^ (stateTreeSizeMask << stateTreeSizeShift)) | ((value & stateTreeSizeMask) << stateTreeSizeShift)
}

func (s *State) CostTier() uint8 {
	return uint8((s.packed >> stateCostTierShift) & stateCostTierMask)
}

func (s *State) SetCostTier(value uint8) {
	s.packed = (s.packed &^ (stateCostTierMask << stateCostTierShift)) | (uint32(value) << stateCostTierShift)
}

func (s *State) AllowTermwiseEval() bool { return s.packed&stateFlagAllowTermwiseEval != 0 }

func (s *State) SetAllowTermwiseEval(v bool) {
	if v {
		s.packed |= stateFlagAllowTermwiseEval
	} else {
		s.packed &^= stateFlagAllowTermwiseEval
	}
}

func (s *State) WantGlobalFilter() bool { return s.packed&stateFlagWantGlobalFilter != 0 }

func (s *State) SetWantGlobalFilter(v bool) {
	if v {
		s.packed |= stateFlagWantGlobalFilter
	} else {
		s.packed &^= stateFlagWantGlobalFilter
	}
}

// FilterConstraint tells createFilterSearch whether the iterator it
// builds must be an upper bound (matches at least every real match) or
// a lower bound (never matches a non-match).
type FilterConstraint int

const (
	UpperBound FilterConstraint = iota
	LowerBound
)

func (c FilterConstraint) invert() FilterConstraint {
	if c == UpperBound {
		return LowerBound
	}
	return UpperBound
}

// Blueprint is an intermediate representation of a search: a tree of
// search-iterator factories annotated with field/estimate/cost
// metadata, optimized (see optimize.go) before CreateSearch produces
// the actual SearchIterator tree. The interface's unexported methods
// (optimizeSelf, getReplacement, shouldOptimizeChildren) deliberately
// restrict implementations to this package, mirroring blueprint.h's
// protected virtuals — only intermediate_blueprints.go/
// leaf_blueprints.go provide concrete Blueprint types.
type Blueprint interface {
	Parent() Blueprint
	SetParent(p Blueprint)
	HasParent() bool

	SourceID() uint32
	SetSourceID(id uint32)

	DocIDLimit() uint32
	SetDocIDLimit(limit uint32)

	GetState() *State
	Root() Blueprint
	HitRatio() float64

	// Optimize recursively optimizes this subtree and returns the
	// Blueprint that should occupy this position afterwards: itself,
	// a same-op collapse, or an EmptyBlueprint. Callers must splice
	// the result into their own child slot and re-parent it.
	Optimize() Blueprint
	optimizeSelf()
	getReplacement() Blueprint
	shouldOptimizeChildren() bool

	SupportsTermwiseChildren() bool
	AlwaysNeedsUnpack() bool

	SetGlobalFilter(gf *GlobalFilter, estimatedHitRatio float64)

	FetchPostings(info ExecuteInfo)
	Freeze()
	Frozen() bool

	CreateSearch(md *MatchData, strict bool) SearchIterator
	CreateFilterSearch(strict bool, constraint FilterConstraint) SearchIterator

	IsIntermediate() bool
	IsAnd() bool
	IsAndNot() bool
	IsOr() bool
	IsRank() bool
	IsSourceBlender() bool

	String() string
}

// blueprintBase is the bookkeeping every concrete Blueprint embeds:
// parent back-pointer, source id, docid limit, frozen flag, and a
// State cache invalidated by notifyChange — the Go counterpart of
// blueprint.h's Blueprint base plus blueprint::StateCache. calc is
// bound once, by the concrete constructor, to that type's own
// calculateState method (there being no virtual dispatch to fall back
// on).
type blueprintBase struct {
	self       Blueprint
	parent     Blueprint
	sourceID   uint32
	docIDLimit uint32
	frozen     bool
	state      State
	stale      bool
	calc       func() State
}

func (b *blueprintBase) init(self Blueprint, calc func() State) {
	b.self = self
	b.calc = calc
	b.sourceID = ^uint32(0)
	b.stale = true
}

func (b *blueprintBase) Parent() Blueprint    { return b.parent }
func (b *blueprintBase) SetParent(p Blueprint) { b.parent = p }
func (b *blueprintBase) HasParent() bool      { return b.parent != nil }

func (b *blueprintBase) SourceID() uint32      { return b.sourceID }
func (b *blueprintBase) SetSourceID(id uint32) { b.sourceID = id }

func (b *blueprintBase) DocIDLimit() uint32      { return b.docIDLimit }
func (b *blueprintBase) SetDocIDLimit(limit uint32) { b.docIDLimit = limit }

func (b *blueprintBase) Frozen() bool { return b.frozen }

func (b *blueprintBase) notifyChange() {
	b.stale = true
	if b.parent != nil {
		if p, ok := b.parent.(interface{ notifyChangeFromChild() }); ok {
			p.notifyChangeFromChild()
		}
	}
}

func (b *blueprintBase) GetState() *State {
	if b.stale {
		assertOptimization(!b.frozen, "GetState recomputed on a frozen blueprint")
		b.state = b.calc()
		b.stale = false
	}
	return &b.state
}

func (b *blueprintBase) freezeSelf() {
	b.GetState()
	b.frozen = true
}

func (b *blueprintBase) Root() Blueprint {
	if b.parent == nil {
		return b.self
	}
	return b.parent.Root()
}

func (b *blueprintBase) HitRatio() float64 {
	return b.GetState().HitRatio(b.docIDLimit)
}

// maybeEliminateSelf is blueprint.cpp's maybe_eliminate_self: splice
// replacement into self's position (inheriting self's parent and
// source id) if non-nil, then collapse the result to an
// EmptyBlueprint if its estimate reports empty.
func maybeEliminateSelf(self Blueprint, replacement Blueprint) Blueprint {
	result := self
	if replacement != nil {
		replacement.SetParent(self.Parent())
		replacement.SetSourceID(self.SourceID())
		result = replacement
	}
	if result.GetState().Estimate().Empty {
		empty := NewEmptyBlueprint(result.GetState().Fields())
		empty.SetParent(result.Parent())
		empty.SetSourceID(result.SourceID())
		empty.SetDocIDLimit(result.DocIDLimit())
		result = empty
	}
	return result
}

// inheritStrictFor and shouldShortCircuit/shouldPrune parametrize
// create_and_filter/create_or_filter the way blueprint.cpp's
// create_op_filter<Op> template does, keyed by an "is AND" bool
// instead of a template parameter.
func inheritStrictFor(isAnd bool, i int) bool {
	if isAnd {
		return i == 0
	}
	return true
}

func shouldShortCircuit(isAnd bool, matchesAny Trinary) bool {
	if isAnd {
		return matchesAny == False
	}
	return matchesAny == True
}

func shouldPrune(isAnd bool, matchesAny Trinary, strict, firstChild bool) bool {
	if isAnd {
		return matchesAny == True && !(strict && firstChild)
	}
	return matchesAny == False
}

// createOpFilter is create_op_filter<Op>: build a filter iterator for
// an AND (isAnd true) or OR (isAnd false) of children, short-circuiting
// and pruning per matches_any the same way the runtime Filter
// construction described in §4.7 does.
func createOpFilter(children []Blueprint, isAnd, strict bool, constraint FilterConstraint) SearchIterator {
	assertOptimization(len(children) > 0, "createOpFilter called with no children")
	var list []SearchIterator
	var spare SearchIterator
	for i, c := range children {
		strictChild := strict && inheritStrictFor(isAnd, i)
		filter := c.CreateFilterSearch(strictChild, constraint)
		matchesAny := filter.MatchesAny()
		if shouldShortCircuit(isAnd, matchesAny) {
			return filter
		}
		if shouldPrune(isAnd, matchesAny, strict, len(list) == 0) {
			spare = filter
		} else {
			list = append(list, filter)
		}
	}
	if len(list) == 0 {
		assertOptimization(spare != nil, "createOpFilter pruned every child without a short circuit")
		return spare
	}
	if len(list) == 1 {
		return list[0]
	}
	if isAnd {
		return NewAndSearch(list, NewUnpackInfo(), strict)
	}
	return NewOrSearch(list, NewUnpackInfo(), strict)
}

// CreateAndFilter is Blueprint::create_and_filter.
func CreateAndFilter(children []Blueprint, strict bool, constraint FilterConstraint) SearchIterator {
	return createOpFilter(children, true, strict, constraint)
}

// CreateOrFilter is Blueprint::create_or_filter.
func CreateOrFilter(children []Blueprint, strict bool, constraint FilterConstraint) SearchIterator {
	return createOpFilter(children, false, strict, constraint)
}

// CreateAtMostAndFilter only honors an AND filter as an upper bound;
// asked for a lower bound it degrades to EmptySearch, since an AND of
// filter approximations is not guaranteed to never over-match.
func CreateAtMostAndFilter(children []Blueprint, strict bool, constraint FilterConstraint) SearchIterator {
	if constraint == UpperBound {
		return CreateAndFilter(children, strict, constraint)
	}
	return &EmptySearch{}
}

// CreateAtMostOrFilter is CreateAtMostAndFilter's OR counterpart.
func CreateAtMostOrFilter(children []Blueprint, strict bool, constraint FilterConstraint) SearchIterator {
	if constraint == UpperBound {
		return CreateOrFilter(children, strict, constraint)
	}
	return &EmptySearch{}
}

// CreateAndNotFilter is Blueprint::create_andnot_filter: child[0]'s
// filter keeps constraint, negatives invert it (a negative that must
// be a lower bound on the negated set is built as an upper bound on
// the positive set, and vice versa).
func CreateAndNotFilter(children []Blueprint, strict bool, constraint FilterConstraint) SearchIterator {
	assertOptimization(len(children) > 0, "createAndNotFilter called with no children")
	var list []SearchIterator
	positive := children[0].CreateFilterSearch(strict, constraint)
	if positive.MatchesAny() == False {
		return positive
	}
	list = append(list, positive)
	for _, c := range children[1:] {
		filter := c.CreateFilterSearch(false, constraint.invert())
		matchesAny := filter.MatchesAny()
		if matchesAny == True {
			return &EmptySearch{}
		}
		if matchesAny == Undefined {
			list = append(list, filter)
		}
	}
	assertOptimization(len(list) > 0, "createAndNotFilter ended with no surviving children")
	if len(list) == 1 {
		return list[0]
	}
	return NewAndNotSearch(list, strict)
}

// CreateFirstChildFilter just forwards to children[0] — used by
// operators (RANK) whose filter semantics are entirely child[0]'s.
func CreateFirstChildFilter(children []Blueprint, strict bool, constraint FilterConstraint) SearchIterator {
	assertOptimization(len(children) > 0, "createFirstChildFilter called with no children")
	return children[0].CreateFilterSearch(strict, constraint)
}

// CreateDefaultFilter answers a filter request with no children to
// delegate to: FullSearch for an upper bound (matches everything is a
// safe over-approximation), EmptySearch for a lower bound.
func CreateDefaultFilter(constraint FilterConstraint) SearchIterator {
	if constraint == UpperBound {
		return &FullSearch{}
	}
	return &EmptySearch{}
}
