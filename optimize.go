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

// Optimize runs root's tree-optimization to a fixed point and returns
// the Blueprint that should replace it (itself, a collapsed child, or
// an EmptyBlueprint) — the top-level driver a Searchable's caller runs
// once, before Freeze. Grounded on blueprint.cpp's top-level
// `Blueprint::optimize_and_sort` entry point.
func Optimize(root Blueprint) Blueprint {
	return root.Optimize()
}

// sortableChildren is implemented by every concrete intermediate
// Blueprint to run its operator-specific §4.3 sort step; kept as a
// separate interface rather than folded into Blueprint since leaves
// have nothing to sort.
type sortableChildren interface {
	sortChildren()
}

// optimizeIntermediate is the tree-walk every intermediate Blueprint's
// Optimize() delegates to via intermediateBase: optimize every child
// first (post-order, so a child's own collapse is visible to this
// node's Pass 1), splice the results back in with reassigned
// parent/source-id, run the operator's own optimizeSelf (Pass 1:
// flatten / drop-empty / fold / source-blender hoist), sort, and
// finally let maybeEliminateSelf apply Pass 2 (single-child collapse,
// empty-estimate collapse). Ported from blueprint.cpp's
// IntermediateBlueprint::optimize.
func optimizeIntermediate(self Blueprint, ib *intermediateBase) Blueprint {
	for i, c := range ib.children {
		optimized := c.Optimize()
		optimized.SetParent(self)
		optimized.SetSourceID(self.SourceID())
		ib.children[i] = optimized
	}

	self.optimizeSelf()

	if s, ok := self.(sortableChildren); ok {
		s.sortChildren()
	}

	return maybeEliminateSelf(self, self.getReplacement())
}

// shouldHoistHere implements §4.5's should_do_termwise_eval gate, port
// of blueprint.cpp's IntermediateBlueprint::should_do_termwise_eval.
// Two independent reasons skip the hoist here: the subtree is too
// sparse to be worth it (root's estimated hit ratio at or below the
// match_limit carried on md), or an ancestor is both eligible and
// positioned to do the same hoist over a larger group (no unpack
// needed below self, self allows termwise eval, and the parent
// supports termwise children) — in which case deferring avoids
// wrapping the same nodes twice. The "count_termwise_nodes(unpack) > 1"
// third condition from the original is enforced downstream instead:
// HoistTermwiseGroup itself declines to wrap a group of fewer than two
// capable children.
func shouldHoistHere(self Blueprint, md *MatchData, unpack *UnpackInfo) bool {
	if self.Root().HitRatio() <= md.TermwiseLimit() {
		return false
	}
	if self.GetState().AllowTermwiseEval() && unpack.Empty() &&
		self.HasParent() && self.Parent().SupportsTermwiseChildren() {
		return false
	}
	return true
}

// applyTermwiseAndFusion runs §4.5's termwise hoist (gated on the
// node's own allow_termwise_eval and SupportsTermwiseChildren, with
// eligibility per child computed from exactly the two criteria the
// node has on hand: no unpack needed, child itself allows termwise
// eval) followed by §4.6's bit-vector fusion, both at CreateSearch
// time since both need the concrete SearchIterator children (strict
// contract, IsBitVector) that don't exist until then. blueprintChildren
// must align 1:1 with children.
func applyTermwiseAndFusion(self Blueprint, md *MatchData, blueprintChildren []Blueprint, children []SearchIterator, unpack *UnpackInfo, op TermwiseOp, isAndNot bool, bitOp bitBatchOp) ([]SearchIterator, *UnpackInfo) {
	if self.GetState().AllowTermwiseEval() && self.SupportsTermwiseChildren() && shouldHoistHere(self, md, unpack) {
		capable := make([]bool, len(blueprintChildren))
		for i, bc := range blueprintChildren {
			capable[i] = !unpack.NeedUnpack(i) && bc.GetState().AllowTermwiseEval()
		}
		children, unpack = HoistTermwiseGroup(op, children, unpack, capable)
	}
	if fused, newUnpack, ok := FuseBitVectorChildren(children, unpack, isAndNot, bitOp); ok {
		children, unpack = fused, newUnpack
	}
	return children, unpack
}
