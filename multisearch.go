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

import "fmt"

// MultiSearch is the shared base for every operator with more than one
// child (AND, OR, AND-NOT, RANK): it owns the child iterators
// exclusively and keeps their UnpackInfo mapping correct across
// Insert/Remove the way the teacher's andMatchTree/orMatchTree own a
// plain []matchTree, generalized with the renumbering hooks
// intermediate_blueprints.cpp relies on.
type MultiSearch struct {
	baseIterator
	children []SearchIterator
	unpack   *UnpackInfo
}

func newMultiSearch(children []SearchIterator, unpack *UnpackInfo) MultiSearch {
	if unpack == nil {
		unpack = NewUnpackInfo()
	}
	return MultiSearch{children: children, unpack: unpack}
}

// Children returns the child iterators in evaluation order.
func (m *MultiSearch) Children() []SearchIterator { return m.children }

// Insert adds a new child at index i, renumbering the UnpackInfo so
// existing tracked indices still point at the right child.
func (m *MultiSearch) Insert(i int, it SearchIterator, needUnpack bool) {
	m.children = append(m.children, nil)
	copy(m.children[i+1:], m.children[i:])
	m.children[i] = it
	m.unpack.Insert(i, needUnpack)
}

// Remove drops the child at index i, renumbering the UnpackInfo to
// match.
func (m *MultiSearch) Remove(i int) SearchIterator {
	it := m.children[i]
	m.children = append(m.children[:i], m.children[i+1:]...)
	m.unpack.Remove(i)
	return it
}

func (m *MultiSearch) initRangeChildren(beginID, endID DocID) {
	m.initRange(beginID, endID)
	for _, c := range m.children {
		c.InitRange(beginID, endID)
	}
}

func (m *MultiSearch) unpackSelective(docid DocID) {
	m.unpack.Each(len(m.children), func(i int) {
		m.children[i].Unpack(docid)
	})
}

func (m *MultiSearch) stringChildren(op string) string {
	return fmt.Sprintf("%s%v", op, m.children)
}

// combinedBitVectorChildren partitions children into those backed by a
// dense BitVector (via BitVectorIterator) and the rest, for the
// multi-bit-vector fusion optimization (§4.6).
func combinedBitVectorChildren(children []SearchIterator) (bv []int, other []int) {
	for i, c := range children {
		if c.IsBitVector() {
			bv = append(bv, i)
		} else {
			other = append(other, i)
		}
	}
	return
}
