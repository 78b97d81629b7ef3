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
	"strings"
)

// intermediateBase is the shared bookkeeping every operator Blueprint
// in this file embeds: child list, parent/source-id propagation to
// children, and the generic tree-walk Optimize() (implemented in
// optimize.go as optimizeIntermediate) that every operator shares —
// only the per-operator combine/exposeFields/sort/optimizeSelf/
// getReplacement bodies below differ, exactly mirroring
// blueprint.cpp's IntermediateBlueprint base plus its per-subclass
// overrides.
type intermediateBase struct {
	blueprintBase
	children []Blueprint
}

func (ib *intermediateBase) init(self Blueprint, children []Blueprint, calc func() State) {
	ib.blueprintBase.init(self, calc)
	for _, c := range children {
		c.SetParent(self)
		c.SetSourceID(self.SourceID())
	}
	ib.children = children
}

func (ib *intermediateBase) IsIntermediate() bool        { return true }
func (ib *intermediateBase) IsAnd() bool                  { return false }
func (ib *intermediateBase) IsAndNot() bool               { return false }
func (ib *intermediateBase) IsOr() bool                   { return false }
func (ib *intermediateBase) IsRank() bool                 { return false }
func (ib *intermediateBase) IsSourceBlender() bool        { return false }
func (ib *intermediateBase) AlwaysNeedsUnpack() bool      { return false }
func (ib *intermediateBase) SupportsTermwiseChildren() bool { return false }
func (ib *intermediateBase) shouldOptimizeChildren() bool { return true }

func (ib *intermediateBase) notifyChangeFromChild() { ib.notifyChange() }

// FetchPostings cascades info down to every child, re-deriving
// HitRate at each step via computeNextHitRate the same way
// blueprint.cpp's IntermediateBlueprint::fetchPostings feeds each
// child the hit rate expected to reach it rather than blindly forwarding
// the root's own. No operator in this tree narrows the rate between
// children (computeNextHitRate's identity default is what the original
// itself falls back to outside the weighted-set/dot-product leaves this
// port doesn't implement as Blueprints), so the rate is unchanged
// child-to-child; the cascade still exists so a future operator that
// does narrow it has somewhere to hook in.
func (ib *intermediateBase) FetchPostings(info ExecuteInfo) {
	rate := info.HitRate
	for _, c := range ib.children {
		childInfo := info
		childInfo.HitRate = computeNextHitRate(rate)
		c.FetchPostings(childInfo)
		rate = childInfo.HitRate
	}
}

// computeNextHitRate is the identity fallback every operator shares:
// hit rate doesn't change as fetchPostings walks across children.
// Ported from IntermediateBlueprint::computeNextHitRate's own default
// body in blueprint.cpp.
func computeNextHitRate(rate float64) float64 { return rate }

func (ib *intermediateBase) Freeze() {
	for _, c := range ib.children {
		c.Freeze()
	}
	ib.freezeSelf()
}

func (ib *intermediateBase) SetGlobalFilter(gf *GlobalFilter, estimatedHitRatio float64) {
	for _, c := range ib.children {
		c.SetGlobalFilter(gf, estimatedHitRatio)
	}
}

// Optimize is shared by every operator: optimizeIntermediate (C10)
// walks children, re-splices them, calls self.optimizeSelf() (the
// operator's own Pass-1 transform), sorts, and finally collapses via
// maybeEliminateSelf.
func (ib *intermediateBase) Optimize() Blueprint { return optimizeIntermediate(ib.self, ib) }

func childEstimates(children []Blueprint) []HitEstimate {
	out := make([]HitEstimate, len(children))
	for i, c := range children {
		out[i] = c.GetState().Estimate()
	}
	return out
}

func minCostTier(children []Blueprint) uint8 {
	if len(children) == 0 {
		return CostTierNormal
	}
	tier := CostTierMax
	for _, c := range children {
		if t := c.GetState().CostTier(); t < tier {
			tier = t
		}
	}
	return tier
}

func sumTreeSize(children []Blueprint) uint32 {
	var sum uint32 = 1
	for _, c := range children {
		sum += c.GetState().TreeSize()
	}
	return sum
}

func allTermwiseEval(supportsOwn bool, children []Blueprint) bool {
	if !supportsOwn {
		return false
	}
	for _, c := range children {
		if !c.GetState().AllowTermwiseEval() {
			return false
		}
	}
	return true
}

func anyWantGlobalFilter(children []Blueprint) bool {
	for _, c := range children {
		if c.GetState().WantGlobalFilter() {
			return true
		}
	}
	return false
}

func exposeFieldsEmpty() FieldSpecList { return nil }

// exposeFieldsUnion merges every child's field list; two children
// binding different (handle, isFilter) to the same field id is an
// irreconcilable conflict, so the merged list collapses to empty
// rather than silently picking one (mixChildrenFields in
// blueprint.cpp, §7 InconsistentHandles).
func exposeFieldsUnion(children []Blueprint) FieldSpecList {
	var out FieldSpecList
	seen := make(map[FieldID]FieldSpec)
	conflict := false
	for _, c := range children {
		for _, f := range c.GetState().Fields() {
			if prior, ok := seen[f.FieldID]; ok {
				if prior != f {
					conflict = true
				}
				continue
			}
			seen[f.FieldID] = f
			out = append(out, f)
		}
	}
	if conflict {
		return nil
	}
	return out
}

func childNeedsUnpack(c Blueprint) bool {
	for _, f := range c.GetState().Fields() {
		if !f.IsFilter {
			return true
		}
	}
	return false
}

func buildUnpackInfo(children []Blueprint) *UnpackInfo {
	u := NewUnpackInfo()
	for i, c := range children {
		if childNeedsUnpack(c) {
			u.Add(i)
		}
	}
	return u
}

func stringChildrenBP(op string, children []Blueprint) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = c.String()
	}
	return fmt.Sprintf("(%s %s)", op, strings.Join(parts, " "))
}

// dropEmptyAll removes every child with an empty estimate — used by
// OR, whose combine (saturated sum) is unaffected by dropping
// contributors that can never match.
func dropEmptyAll(children []Blueprint) []Blueprint {
	out := children[:0:0]
	for _, c := range children {
		if !c.GetState().Estimate().Empty {
			out = append(out, c)
		}
	}
	return out
}

// dropEmptyExceptFirst removes empty-estimate children at position
// >= 1 only — used by AND-NOT's negatives and RANK's secondaries,
// whose position-0 child is mandatory regardless of its own estimate.
func dropEmptyExceptFirst(children []Blueprint) []Blueprint {
	if len(children) == 0 {
		return children
	}
	out := []Blueprint{children[0]}
	for _, c := range children[1:] {
		if !c.GetState().Estimate().Empty {
			out = append(out, c)
		}
	}
	return out
}

// flattenSameOp splices any child matching isSameOp in place with its
// own children (promoted up one level, re-parented to newParent) —
// used by AND/OR flattening nested same-op children (§4.4 Pass 1).
func flattenSameOp(children []Blueprint, newParent Blueprint, isSameOp func(Blueprint) bool, childrenOf func(Blueprint) []Blueprint) []Blueprint {
	var out []Blueprint
	changed := false
	for _, c := range children {
		if isSameOp(c) {
			changed = true
			for _, gc := range childrenOf(c) {
				gc.SetParent(newParent)
				out = append(out, gc)
			}
			continue
		}
		out = append(out, c)
	}
	if !changed {
		return children
	}
	return out
}

// hoistSourceBlenders merges pairwise-compatible (same selector)
// SourceBlenderBlueprint children of an AND/OR/AND-NOT(negative
// side)/RANK into a single blended node, the same way
// blueprint.cpp's source-blender hoist collapses redundant blend
// layers before cost-based sort runs.
func hoistSourceBlenders(children []Blueprint, newParent Blueprint) []Blueprint {
	out := append([]Blueprint(nil), children...)
	for i := 0; i < len(out); i++ {
		sbi, ok := out[i].(*SourceBlenderBlueprint)
		if !ok {
			continue
		}
		for j := i + 1; j < len(out); j++ {
			sbj, ok := out[j].(*SourceBlenderBlueprint)
			if !ok || sbj.selector != sbi.selector {
				continue
			}
			merged := NewSourceBlenderBlueprint(append(append([]Blueprint{}, sbi.children...), sbj.children...),
				append(append([]uint32{}, sbi.sourceIDs...), sbj.sourceIDs...), sbi.selector)
			merged.SetParent(newParent)
			merged.SetSourceID(newParent.SourceID())
			out[i] = merged
			out = append(out[:j], out[j+1:]...)
			sbi = merged
			j--
		}
	}
	return out
}

// ---- AND ----

type AndBlueprint struct {
	intermediateBase
}

func NewAndBlueprint(children []Blueprint) *AndBlueprint {
	a := &AndBlueprint{}
	a.intermediateBase.init(a, children, a.calculateState)
	return a
}

func (a *AndBlueprint) String() string { return stringChildrenBP("and", a.children) }
func (a *AndBlueprint) IsAnd() bool     { return true }

func (a *AndBlueprint) SupportsTermwiseChildren() bool { return true }

func (a *AndBlueprint) calculateState() State {
	st := NewState(exposeFieldsEmpty())
	st.SetEstimate(MinEstimate(childEstimates(a.children)))
	st.SetCostTier(minCostTier(a.children))
	st.SetTreeSize(sumTreeSize(a.children))
	st.SetAllowTermwiseEval(allTermwiseEval(true, a.children))
	st.SetWantGlobalFilter(anyWantGlobalFilter(a.children))
	return st
}

func (a *AndBlueprint) optimizeSelf() {
	a.children = flattenSameOp(a.children, a.self, func(b Blueprint) bool { return b.IsAnd() },
		func(b Blueprint) []Blueprint { return b.(*AndBlueprint).children })
	a.children = hoistSourceBlenders(a.children, a.self)
}

func (a *AndBlueprint) getReplacement() Blueprint {
	if len(a.children) == 1 {
		return a.children[0]
	}
	return nil
}

func (a *AndBlueprint) sortChildren() {
	sort.SliceStable(a.children, func(i, j int) bool {
		ti, tj := a.children[i].GetState().CostTier(), a.children[j].GetState().CostTier()
		if ti != tj {
			return ti < tj
		}
		return a.children[i].GetState().Estimate().EstHits < a.children[j].GetState().Estimate().EstHits
	})
}

func (a *AndBlueprint) CreateSearch(md *MatchData, strict bool) SearchIterator {
	children := make([]SearchIterator, len(a.children))
	for i, c := range a.children {
		children[i] = c.CreateSearch(md, strict && i == 0)
	}
	unpack := buildUnpackInfo(a.children)
	children, unpack = applyTermwiseAndFusion(a, md, a.children, children, unpack, TermwiseAnd, false, bitFuseAnd)
	return NewAndSearch(children, unpack, strict)
}

func (a *AndBlueprint) CreateFilterSearch(strict bool, constraint FilterConstraint) SearchIterator {
	blueprints := a.children
	return CreateAndFilter(blueprints, strict, constraint)
}

// ---- OR ----

type OrBlueprint struct {
	intermediateBase
}

func NewOrBlueprint(children []Blueprint) *OrBlueprint {
	o := &OrBlueprint{}
	o.intermediateBase.init(o, children, o.calculateState)
	return o
}

func (o *OrBlueprint) String() string { return stringChildrenBP("or", o.children) }
func (o *OrBlueprint) IsOr() bool      { return true }

func (o *OrBlueprint) SupportsTermwiseChildren() bool { return true }

func (o *OrBlueprint) calculateState() State {
	st := NewState(exposeFieldsUnion(o.children))
	st.SetEstimate(SatSumEstimate(childEstimates(o.children), o.DocIDLimit()))
	st.SetCostTier(minCostTier(o.children))
	st.SetTreeSize(sumTreeSize(o.children))
	st.SetAllowTermwiseEval(allTermwiseEval(true, o.children))
	st.SetWantGlobalFilter(anyWantGlobalFilter(o.children))
	return st
}

func (o *OrBlueprint) optimizeSelf() {
	o.children = flattenSameOp(o.children, o.self, func(b Blueprint) bool { return b.IsOr() },
		func(b Blueprint) []Blueprint { return b.(*OrBlueprint).children })
	o.children = dropEmptyAll(o.children)
	o.children = hoistSourceBlenders(o.children, o.self)
}

func (o *OrBlueprint) getReplacement() Blueprint {
	if len(o.children) == 1 {
		return o.children[0]
	}
	return nil
}

func (o *OrBlueprint) sortChildren() {
	sort.SliceStable(o.children, func(i, j int) bool {
		ei, ej := o.children[i].GetState().Estimate(), o.children[j].GetState().Estimate()
		if ei.EstHits != ej.EstHits {
			return ei.EstHits > ej.EstHits
		}
		return o.children[i].GetState().CostTier() < o.children[j].GetState().CostTier()
	})
}

func (o *OrBlueprint) CreateSearch(md *MatchData, strict bool) SearchIterator {
	children := make([]SearchIterator, len(o.children))
	for i, c := range o.children {
		children[i] = c.CreateSearch(md, strict)
	}
	unpack := buildUnpackInfo(o.children)
	children, unpack = applyTermwiseAndFusion(o, md, o.children, children, unpack, TermwiseOr, false, bitFuseOr)
	return NewOrSearch(children, unpack, strict)
}

func (o *OrBlueprint) CreateFilterSearch(strict bool, constraint FilterConstraint) SearchIterator {
	return CreateOrFilter(o.children, strict, constraint)
}

// ---- AND-NOT ----

type AndNotBlueprint struct {
	intermediateBase
}

// NewAndNotBlueprint builds an AND-NOT node; children[0] is the
// mandatory positive, children[1:] the negatives.
func NewAndNotBlueprint(children []Blueprint) *AndNotBlueprint {
	a := &AndNotBlueprint{}
	a.intermediateBase.init(a, children, a.calculateState)
	return a
}

func (a *AndNotBlueprint) String() string { return stringChildrenBP("andnot", a.children) }
func (a *AndNotBlueprint) IsAndNot() bool  { return true }

func (a *AndNotBlueprint) SupportsTermwiseChildren() bool { return true }

func (a *AndNotBlueprint) calculateState() State {
	st := NewState(exposeFieldsEmpty())
	if len(a.children) == 0 {
		st.SetEstimate(HitEstimate{Empty: true})
		return st
	}
	st.SetEstimate(a.children[0].GetState().Estimate())
	st.SetCostTier(a.children[0].GetState().CostTier())
	st.SetTreeSize(sumTreeSize(a.children))
	st.SetAllowTermwiseEval(allTermwiseEval(true, a.children))
	st.SetWantGlobalFilter(anyWantGlobalFilter(a.children))
	return st
}

func (a *AndNotBlueprint) optimizeSelf() {
	if len(a.children) > 0 {
		if inner, ok := a.children[0].(*AndNotBlueprint); ok {
			merged := append([]Blueprint{inner.children[0]}, inner.children[1:]...)
			merged = append(merged, a.children[1:]...)
			a.children = merged
		}
	}
	if len(a.children) > 1 {
		rest := dropEmptyExceptFirst(a.children)
		rest = append([]Blueprint{rest[0]}, hoistSourceBlenders(rest[1:], a.self)...)
		a.children = rest
	}
}

func (a *AndNotBlueprint) getReplacement() Blueprint {
	if len(a.children) == 1 {
		return a.children[0]
	}
	return nil
}

// sortChildren keeps the positive fixed at position 0 and sorts the
// negatives by descending estimate, per §4.3's AND-NOT row.
func (a *AndNotBlueprint) sortChildren() {
	if len(a.children) <= 2 {
		return
	}
	rest := a.children[1:]
	sort.SliceStable(rest, func(i, j int) bool {
		return rest[i].GetState().Estimate().EstHits > rest[j].GetState().Estimate().EstHits
	})
}

func (a *AndNotBlueprint) CreateSearch(md *MatchData, strict bool) SearchIterator {
	if len(a.children) == 0 {
		return NewEmptySearch()
	}
	children := make([]SearchIterator, len(a.children))
	children[0] = a.children[0].CreateSearch(md, strict)
	for i := 1; i < len(a.children); i++ {
		children[i] = a.children[i].CreateSearch(md, false)
	}
	// Only the positive (position 0) is ever unpacked by AndNotSearch;
	// negatives never are, regardless of their own field exposure.
	andNotUnpack := NewUnpackInfo()
	if childNeedsUnpack(a.children[0]) {
		andNotUnpack.Add(0)
	}
	// §4.6: AND-NOT always fuses its negatives with Or semantics,
	// regardless of the node's own operator, and never steals the
	// positive (position 0) — both FuseBitVectorChildren and
	// HoistTermwiseGroup(TermwiseAndNot) already encode this.
	children, _ = applyTermwiseAndFusion(a, md, a.children, children, andNotUnpack, TermwiseAndNot, true, bitFuseOr)
	return NewAndNotSearch(children, strict)
}

func (a *AndNotBlueprint) CreateFilterSearch(strict bool, constraint FilterConstraint) SearchIterator {
	return CreateAndNotFilter(a.children, strict, constraint)
}

// ---- RANK ----

type RankBlueprint struct {
	intermediateBase
}

// NewRankBlueprint builds a RANK node; children[0] is Primary (drives
// matching), children[1:] are Secondary (ranking data only).
func NewRankBlueprint(children []Blueprint) *RankBlueprint {
	r := &RankBlueprint{}
	r.intermediateBase.init(r, children, r.calculateState)
	return r
}

func (r *RankBlueprint) String() string { return stringChildrenBP("rank", r.children) }
func (r *RankBlueprint) IsRank() bool    { return true }

func (r *RankBlueprint) calculateState() State {
	st := NewState(exposeFieldsEmpty())
	if len(r.children) == 0 {
		st.SetEstimate(HitEstimate{Empty: true})
		return st
	}
	st.SetEstimate(r.children[0].GetState().Estimate())
	st.SetCostTier(r.children[0].GetState().CostTier())
	st.SetTreeSize(sumTreeSize(r.children))
	st.SetAllowTermwiseEval(false)
	st.SetWantGlobalFilter(anyWantGlobalFilter(r.children))
	return st
}

func (r *RankBlueprint) optimizeSelf() {
	if len(r.children) > 1 {
		r.children = dropEmptyExceptFirst(r.children)
	}
}

func (r *RankBlueprint) getReplacement() Blueprint {
	if len(r.children) == 1 {
		return r.children[0]
	}
	return nil
}

// sortChildren is a no-op: RANK's secondary order is caller-meaningful
// (first-listed tie-break precedence), never reordered by cost.
func (r *RankBlueprint) sortChildren() {}

func (r *RankBlueprint) CreateSearch(md *MatchData, strict bool) SearchIterator {
	if len(r.children) == 0 {
		return NewEmptySearch()
	}
	children := make([]SearchIterator, len(r.children))
	children[0] = r.children[0].CreateSearch(md, strict)
	for i := 1; i < len(r.children); i++ {
		children[i] = r.children[i].CreateSearch(md, false)
	}
	return NewRankSearch(children, buildUnpackInfo(r.children), strict)
}

func (r *RankBlueprint) CreateFilterSearch(strict bool, constraint FilterConstraint) SearchIterator {
	return CreateFirstChildFilter(r.children, strict, constraint)
}

// ---- NEAR / ONEAR ----

type nearBlueprintBase struct {
	intermediateBase
	window uint32
}

func (n *nearBlueprintBase) calculateState() State {
	st := NewState(exposeFieldsEmpty())
	st.SetEstimate(MinEstimate(childEstimates(n.children)))
	st.SetCostTier(minCostTier(n.children))
	st.SetTreeSize(sumTreeSize(n.children))
	st.SetAllowTermwiseEval(false)
	st.SetWantGlobalFilter(anyWantGlobalFilter(n.children))
	return st
}

func (n *nearBlueprintBase) getReplacement() Blueprint {
	if len(n.children) == 1 {
		return n.children[0]
	}
	return nil
}

func (n *nearBlueprintBase) resolveData(md *MatchData) []*TermFieldMatchData {
	data := make([]*TermFieldMatchData, len(n.children))
	for i, c := range n.children {
		fields := c.GetState().Fields()
		assertOptimization(len(fields) >= 1, "NEAR/ONEAR child exposes no field to bind positions to")
		data[i] = md.Resolve(fields[0].Handle)
	}
	return data
}

type NearBlueprint struct {
	nearBlueprintBase
}

func NewNearBlueprint(children []Blueprint, window uint32) *NearBlueprint {
	n := &NearBlueprint{nearBlueprintBase: nearBlueprintBase{window: window}}
	n.intermediateBase.init(n, children, n.calculateState)
	return n
}

func (n *NearBlueprint) String() string {
	return stringChildrenBP(fmt.Sprintf("near/%d", n.window), n.children)
}

func (n *NearBlueprint) optimizeSelf() {}

// sortChildren is ascending by estimate: NEAR evaluates cheapest
// (smallest) term first to prune the positional scan sooner.
func (n *NearBlueprint) sortChildren() {
	sort.SliceStable(n.children, func(i, j int) bool {
		return n.children[i].GetState().Estimate().EstHits < n.children[j].GetState().Estimate().EstHits
	})
}

func (n *NearBlueprint) CreateSearch(md *MatchData, strict bool) SearchIterator {
	children := make([]SearchIterator, len(n.children))
	for i, c := range n.children {
		children[i] = c.CreateSearch(md, strict && i == 0)
	}
	return NewNearSearch(children, n.resolveData(md), n.window, strict)
}

func (n *NearBlueprint) CreateFilterSearch(strict bool, constraint FilterConstraint) SearchIterator {
	return CreateAtMostAndFilter(n.children, strict, constraint)
}

type ONearBlueprint struct {
	nearBlueprintBase
}

func NewONearBlueprint(children []Blueprint, window uint32) *ONearBlueprint {
	n := &ONearBlueprint{nearBlueprintBase: nearBlueprintBase{window: window}}
	n.intermediateBase.init(n, children, n.calculateState)
	return n
}

func (n *ONearBlueprint) String() string {
	return stringChildrenBP(fmt.Sprintf("onear/%d", n.window), n.children)
}

func (n *ONearBlueprint) optimizeSelf() {}

// sortChildren is a no-op: ONEAR's order IS the required left-to-right
// match order, never reorderable.
func (n *ONearBlueprint) sortChildren() {}

func (n *ONearBlueprint) CreateSearch(md *MatchData, strict bool) SearchIterator {
	children := make([]SearchIterator, len(n.children))
	for i, c := range n.children {
		children[i] = c.CreateSearch(md, strict && i == 0)
	}
	return NewONearSearch(children, n.resolveData(md), n.window, strict)
}

func (n *ONearBlueprint) CreateFilterSearch(strict bool, constraint FilterConstraint) SearchIterator {
	return CreateAtMostAndFilter(n.children, strict, constraint)
}

// ---- WEAK-AND ----

type WeakAndBlueprint struct {
	intermediateBase
	weights    []int32
	targetHits uint32
}

// NewWeakAndBlueprint builds a WEAK-AND node. weights must align 1:1
// with children.
func NewWeakAndBlueprint(children []Blueprint, weights []int32, targetHits uint32) *WeakAndBlueprint {
	w := &WeakAndBlueprint{weights: weights, targetHits: targetHits}
	w.intermediateBase.init(w, children, w.calculateState)
	return w
}

func (w *WeakAndBlueprint) String() string {
	return stringChildrenBP(fmt.Sprintf("weakAnd/%d", w.targetHits), w.children)
}

func (w *WeakAndBlueprint) AlwaysNeedsUnpack() bool { return true }

func (w *WeakAndBlueprint) calculateState() State {
	st := NewState(exposeFieldsEmpty())
	st.SetEstimate(WeakAndEstimate(childEstimates(w.children), w.targetHits))
	st.SetCostTier(minCostTier(w.children))
	st.SetTreeSize(sumTreeSize(w.children))
	st.SetAllowTermwiseEval(false)
	st.SetWantGlobalFilter(anyWantGlobalFilter(w.children))
	return st
}

// optimizeSelf never flattens, reorders, or hoists: the weights slice
// is positionally parallel to children, so any reshuffle would
// silently attach the wrong weight to the wrong term (recorded open
// question decision).
func (w *WeakAndBlueprint) optimizeSelf() {}

func (w *WeakAndBlueprint) getReplacement() Blueprint {
	if len(w.children) == 1 {
		return w.children[0]
	}
	return nil
}

// sortChildren is a no-op for the same reason optimizeSelf is.
func (w *WeakAndBlueprint) sortChildren() {}

func (w *WeakAndBlueprint) CreateSearch(md *MatchData, strict bool) SearchIterator {
	children := make([]SearchIterator, len(w.children))
	for i, c := range w.children {
		children[i] = c.CreateSearch(md, strict)
	}
	return NewWeakAndSearch(children, w.weights, w.targetHits)
}

func (w *WeakAndBlueprint) CreateFilterSearch(strict bool, constraint FilterConstraint) SearchIterator {
	return CreateAtMostOrFilter(w.children, strict, constraint)
}

// ---- SOURCE-BLENDER ----

type SourceBlenderBlueprint struct {
	intermediateBase
	sourceIDs []uint32
	selector  SourceSelector
}

// NewSourceBlenderBlueprint builds a SOURCE-BLENDER node. sourceIDs
// must align 1:1 with children.
func NewSourceBlenderBlueprint(children []Blueprint, sourceIDs []uint32, selector SourceSelector) *SourceBlenderBlueprint {
	s := &SourceBlenderBlueprint{sourceIDs: sourceIDs, selector: selector}
	s.intermediateBase.init(s, children, s.calculateState)
	return s
}

func (s *SourceBlenderBlueprint) String() string { return stringChildrenBP("blend", s.children) }
func (s *SourceBlenderBlueprint) IsSourceBlender() bool { return true }

func (s *SourceBlenderBlueprint) calculateState() State {
	st := NewState(exposeFieldsUnion(s.children))
	st.SetEstimate(MaxEstimate(childEstimates(s.children)))
	st.SetCostTier(minCostTier(s.children))
	st.SetTreeSize(sumTreeSize(s.children))
	st.SetAllowTermwiseEval(false)
	st.SetWantGlobalFilter(anyWantGlobalFilter(s.children))
	return st
}

func (s *SourceBlenderBlueprint) optimizeSelf() {}

func (s *SourceBlenderBlueprint) getReplacement() Blueprint {
	if len(s.children) == 1 {
		return s.children[0]
	}
	return nil
}

// sortChildren is a no-op: child order must stay parallel to sourceIDs.
func (s *SourceBlenderBlueprint) sortChildren() {}

func (s *SourceBlenderBlueprint) CreateSearch(md *MatchData, strict bool) SearchIterator {
	children := make([]SearchIterator, len(s.children))
	for i, c := range s.children {
		children[i] = c.CreateSearch(md, strict)
	}
	return NewSourceBlenderSearch(children, s.sourceIDs, s.selector, strict)
}

func (s *SourceBlenderBlueprint) CreateFilterSearch(strict bool, constraint FilterConstraint) SearchIterator {
	return CreateAtMostOrFilter(s.children, strict, constraint)
}
