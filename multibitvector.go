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

import "math/bits"

// wordsPerBatch is §4.6's "aligned batches of 8 machine words (64
// bytes)" fusion granularity.
const wordsPerBatch = 8

type wordBatch = [wordsPerBatch]uint64

// rawBV is the raw word array and inversion flag a MultiBitVectorIterator
// steals out of a BitVectorIterator child, per §4.6 ("store each
// child's raw word pointer and inverted flag"). wordAt treats an index
// past the end of words as 0 for a plain vector (no data recorded, so
// no hit) or all-ones for an inverted one (the complement of "no data"
// is "everything").
type rawBV struct {
	words    []uint64
	inverted bool
}

func (r rawBV) wordAt(i int) uint64 {
	var w uint64
	if i >= 0 && i < len(r.words) {
		w = r.words[i]
	}
	if r.inverted {
		return ^w
	}
	return w
}

// bitBatchOp is the AND/OR combining strategy a fused node runs over
// its batches — the Go counterpart of the C++ And/Or function objects
// MultiBitVectorIterator<Update> is templated on.
type bitBatchOp struct {
	isAnd   bool
	combine func(srcs []rawBV, wordOffset int, dest *wordBatch)
}

var (
	bitFuseAnd = bitBatchOp{isAnd: true, combine: batchAnd}
	bitFuseOr  = bitBatchOp{isAnd: false, combine: batchOr}
)

// MultiBitVectorIterator fuses >= 2 bit-vector children of an AND, OR,
// or AND-NOT into a single iterator that scans 8-word (64-byte)
// batches instead of seeking each child individually (§4.6).
// updateLastValue/doSeek/strictSeek are ported from
// multibitvectoriterator.cpp's identically named methods; unlike the
// C++ side, which generates a separate class per {And,Or} x
// {strict,non-strict}, this follows the rest of this package's
// convention of one struct with a strict bool flag.
type MultiBitVectorIterator struct {
	MultiSearch
	bvs     []rawBV
	op      bitBatchOp
	strict  bool
	numDocs DocID

	lastMaxDocIdLimit      DocID
	lastMaxDocIdLimitFetch DocID
	lastValue              uint64
	lastWords              wordBatch
}

// NewMultiBitVectorIterator fuses children (each must report
// IsBitVector() true, and be backed by a *BitVectorIterator) using op.
// children/unpack follow the same 1:1 contract as every other
// MultiSearch-based operator.
func NewMultiBitVectorIterator(children []SearchIterator, unpack *UnpackInfo, op bitBatchOp, strict bool) *MultiBitVectorIterator {
	m := &MultiBitVectorIterator{MultiSearch: newMultiSearch(children, unpack), op: op, strict: strict, numDocs: EndDocID}
	m.rebuildBVs()
	return m
}

func (m *MultiBitVectorIterator) rebuildBVs() {
	m.bvs = m.bvs[:0]
	for _, c := range m.children {
		bvi := c.(*BitVectorIterator)
		words, inverted, size := bvi.Raw()
		m.bvs = append(m.bvs, rawBV{words: words, inverted: inverted})
		if size < m.numDocs {
			m.numDocs = size
		}
	}
}

func (m *MultiBitVectorIterator) String() string {
	if m.op.isAnd {
		return m.stringChildren("bitAnd")
	}
	return m.stringChildren("bitOr")
}

func (m *MultiBitVectorIterator) InitRange(beginID, endID DocID) {
	m.initRangeChildren(beginID, endID)
	m.lastMaxDocIdLimit = 0
	m.lastMaxDocIdLimitFetch = 0
	if m.strict {
		m.strictSeek(beginID)
	}
}

func (m *MultiBitVectorIterator) IsStrict() Trinary {
	if m.strict {
		return True
	}
	return False
}

func (m *MultiBitVectorIterator) Seek(docid DocID) bool {
	if docid == m.docID && !m.IsAtEnd() {
		return true
	}
	if m.strict {
		m.strictSeek(docid)
	} else {
		m.doSeek(docid)
	}
	return m.docID == docid
}

// updateLastValue refreshes lastValue to cover docid, refetching the
// 8-word batch that contains it only when the previous fetch doesn't
// already cover it. Ported from
// MultiBitVectorIterator<Update>::updateLastValue.
func (m *MultiBitVectorIterator) updateLastValue(docid DocID) {
	if docid >= m.lastMaxDocIdLimit {
		if docid >= m.numDocs {
			m.setAtEnd()
			return
		}
		index := int(docid / wordBits)
		if docid >= m.lastMaxDocIdLimitFetch {
			baseIndex := index &^ (wordsPerBatch - 1)
			m.op.combine(m.bvs, baseIndex, &m.lastWords)
			m.lastMaxDocIdLimitFetch = DocID(baseIndex+wordsPerBatch) * wordBits
		}
		m.lastValue = m.lastWords[index%wordsPerBatch]
		m.lastMaxDocIdLimit = DocID(index+1) * wordBits
	}
}

func (m *MultiBitVectorIterator) doSeek(docid DocID) {
	m.updateLastValue(docid)
	if !m.IsAtEnd() && m.lastValue&(uint64(1)<<(docid%wordBits)) != 0 {
		m.setDocID(docid)
	}
}

// checkTab masks off every bit below docid's position within its
// word, so strictSeek only considers candidates >= docid.
func checkTab(docid DocID) uint64 {
	return ^uint64(0) << (docid % wordBits)
}

// strictSeek is multibitvectoriterator.cpp's strictSeek: mask the
// current word down to candidates >= docid, then keep pulling in the
// next batch's word until one is nonzero or the fusion runs out of
// docs; answer with the lowest set bit via bit-scan.
func (m *MultiBitVectorIterator) strictSeek(docid DocID) {
	m.updateLastValue(docid)
	m.lastValue &= checkTab(docid)
	for m.lastValue == 0 && !m.IsAtEnd() {
		m.updateLastValue(m.lastMaxDocIdLimit)
	}
	if !m.IsAtEnd() {
		found := m.lastMaxDocIdLimit - wordBits + DocID(bits.TrailingZeros64(m.lastValue))
		if found >= m.numDocs {
			m.setAtEnd()
		} else {
			m.setDocID(found)
		}
	}
}

func (m *MultiBitVectorIterator) Unpack(docid DocID) { m.unpackSelective(docid) }

func (m *MultiBitVectorIterator) MatchesAny() Trinary {
	if m.op.isAnd {
		result := True
		for _, c := range m.children {
			result = result.And(c.MatchesAny())
			if result == False {
				return False
			}
		}
		return result
	}
	result := False
	for _, c := range m.children {
		result = result.Or(c.MatchesAny())
		if result == True {
			return True
		}
	}
	return result
}

func (m *MultiBitVectorIterator) IsBitVector() bool { return false }

// fusedBitVector recomputes the full fused word array directly from
// the raw children rather than driving Seek, since every input is
// already a flat word array.
func (m *MultiBitVectorIterator) fusedBitVector(beginID DocID) *BitVector {
	bv := NewBitVector(beginID, m.endID)
	nWords := (int(m.endID) + wordBits - 1) / wordBits
	var batch wordBatch
	for base := 0; base < nWords; base += wordsPerBatch {
		m.op.combine(m.bvs, base, &batch)
		for i := 0; i < wordsPerBatch && base+i < nWords; i++ {
			bv.words[base+i] = batch[i]
		}
	}
	bv.ClearRange(0, beginID)
	return bv
}

func (m *MultiBitVectorIterator) GetHits(beginID DocID) *BitVector {
	return m.fusedBitVector(beginID)
}

func (m *MultiBitVectorIterator) AndHitsInto(bv *BitVector, beginID DocID) {
	bv.And(m.fusedBitVector(beginID))
}

func (m *MultiBitVectorIterator) OrHitsInto(bv *BitVector, beginID DocID) {
	bv.Or(m.fusedBitVector(beginID))
}

// AndWith absorbs an additional strict bit-vector filter directly into
// the fusion, invalidating the batch cache, the same way andWith does
// in multibitvectoriterator.cpp — but only for AND fusion: an OR
// fusion can't treat an extra filter as "one more source to OR in"
// without changing its meaning, matching Update::isAnd() gating
// acceptExtraFilter in the original.
func (m *MultiBitVectorIterator) AndWith(filter SearchIterator, estimate uint32) SearchIterator {
	if !m.op.isAnd || !filter.IsBitVector() {
		return filter
	}
	bvi, ok := filter.(*BitVectorIterator)
	if !ok {
		return filter
	}
	words, inverted, size := bvi.Raw()
	m.bvs = append(m.bvs, rawBV{words: words, inverted: inverted})
	if size < m.numDocs {
		m.numDocs = size
	}
	m.Insert(len(m.children), filter, false)
	m.lastMaxDocIdLimit = 0
	m.lastMaxDocIdLimitFetch = 0
	return nil
}

// firstStealableIndex mirrors multibitvectoriterator.cpp's
// firstStealable: an AND-NOT's child[0] is the positive match and is
// never eligible for fusion, only its negatives are.
func firstStealableIndex(isAndNot bool) int {
	if isAndNot {
		return 1
	}
	return 0
}

// FuseBitVectorChildren implements §4.6's child-stealing transform for
// one AND/OR/AND-NOT node: when children[firstStealable(isAndNot):]
// contains >= 2 bit-vector iterators, steal them out into a single
// MultiBitVectorIterator built with op, and report the surviving
// children/unpack with the fused node re-inserted at the position of
// the first stolen child. AND-NOT always fuses its negatives with Or
// regardless of the parent's own op, matching optimizeMultiSearch's
// `parent.isAndNot()` branch, which hands the stolen negatives to
// OrBVIterator — the caller is expected to pass bitFuseOr for that
// case. Returns ok=false (children/unpack unchanged) when fewer than
// two children in range qualify.
func FuseBitVectorChildren(children []SearchIterator, unpack *UnpackInfo, isAndNot bool, op bitBatchOp) (result []SearchIterator, newUnpack *UnpackInfo, ok bool) {
	start := firstStealableIndex(isAndNot)
	var bvIdx []int
	for i := start; i < len(children); i++ {
		if children[i].IsBitVector() {
			bvIdx = append(bvIdx, i)
		}
	}
	if len(bvIdx) < 2 {
		return children, unpack, false
	}

	stolen := make([]SearchIterator, 0, len(bvIdx))
	stolenUnpack := NewUnpackInfo()
	strict := false
	for _, idx := range bvIdx {
		if unpack.NeedUnpack(idx) {
			stolenUnpack.Add(len(stolen))
		}
		if children[idx].IsStrict() == True {
			strict = true
		}
		stolen = append(stolen, children[idx])
	}
	fused := NewMultiBitVectorIterator(stolen, stolenUnpack, op, strict)

	bvSet := make(map[int]bool, len(bvIdx))
	for _, idx := range bvIdx {
		bvSet[idx] = true
	}
	result = make([]SearchIterator, 0, len(children)-len(bvIdx)+1)
	newUnpack = NewUnpackInfo()
	inserted := false
	for i, c := range children {
		if bvSet[i] {
			if !inserted {
				result = append(result, fused)
				if !stolenUnpack.Empty() {
					newUnpack.Add(len(result) - 1)
				}
				inserted = true
			}
			continue
		}
		result = append(result, c)
		if unpack.NeedUnpack(i) {
			newUnpack.Add(len(result) - 1)
		}
	}
	return result, newUnpack, true
}
