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

// maxUnpackIndices and maxUnpackIndex mirror the C++ UnpackInfo's
// inline capacity (31 indices, each <= 255); an index or count beyond
// these degrades to forceAll rather than growing the array.
const (
	maxUnpackIndices = 31
	maxUnpackIndex   = 255
)

// UnpackInfo is a compact set of child indices that require unpack,
// supporting renumbering insert/remove the way a MultiSearch's child
// list is mutated during optimization.
type UnpackInfo struct {
	indices  []uint8
	unpackAllFlag bool
}

// NewUnpackInfo returns an empty UnpackInfo (no child needs unpack).
func NewUnpackInfo() *UnpackInfo {
	return &UnpackInfo{}
}

func (u *UnpackInfo) String() string {
	if u.unpackAllFlag {
		return "full-unpack"
	}
	if len(u.indices) == 0 {
		return "no-unpack"
	}
	parts := make([]string, len(u.indices))
	for i, idx := range u.indices {
		parts[i] = fmt.Sprint(idx)
	}
	return strings.Join(parts, " ")
}

// ForceAll marks every child as needing unpack, regardless of index.
func (u *UnpackInfo) ForceAll() *UnpackInfo {
	u.unpackAllFlag = true
	u.indices = nil
	return u
}

// UnpackAll reports whether every child needs unpack.
func (u *UnpackInfo) UnpackAll() bool { return u.unpackAllFlag }

// Empty reports whether no child needs unpack.
func (u *UnpackInfo) Empty() bool { return !u.unpackAllFlag && len(u.indices) == 0 }

// Add marks index as needing unpack without renumbering any existing
// index (the caller is appending, not inserting into the middle of a
// live child list).
func (u *UnpackInfo) Add(index int) *UnpackInfo {
	if u.unpackAllFlag {
		return u
	}
	if index > maxUnpackIndex || len(u.indices) >= maxUnpackIndices {
		return u.ForceAll()
	}
	u.indices = append(u.indices, uint8(index))
	sort.Slice(u.indices, func(i, j int) bool { return u.indices[i] < u.indices[j] })
	return u
}

// Insert renumbers every tracked index >= index up by one (a new child
// is being inserted at that position), then optionally marks the new
// child itself as needing unpack.
func (u *UnpackInfo) Insert(index int, unpack bool) *UnpackInfo {
	if u.unpackAllFlag {
		return u
	}
	for i, idx := range u.indices {
		if int(idx) >= index {
			if int(idx) == maxUnpackIndex {
				return u.ForceAll()
			}
			u.indices[i] = idx + 1
		}
	}
	if unpack {
		return u.Add(index)
	}
	return u
}

// Remove drops index (if tracked) and renumbers every tracked index
// above it down by one (a child is being removed from that position).
func (u *UnpackInfo) Remove(index int) *UnpackInfo {
	if u.unpackAllFlag {
		return u
	}
	out := u.indices[:0]
	for _, idx := range u.indices {
		switch {
		case int(idx) == index:
			// dropped
		case int(idx) > index:
			out = append(out, idx-1)
		default:
			out = append(out, idx)
		}
	}
	u.indices = out
	return u
}

// NeedUnpack reports whether the child at index needs unpack.
func (u *UnpackInfo) NeedUnpack(index int) bool {
	if u.unpackAllFlag {
		return true
	}
	for _, idx := range u.indices {
		if int(idx) == index {
			return true
		}
	}
	return false
}

// Each calls f(i) for every index that needs unpack, or for every i in
// [0, n) when unpackAll is set.
func (u *UnpackInfo) Each(n int, f func(i int)) {
	if u.unpackAllFlag {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}
	for _, idx := range u.indices {
		f(int(idx))
	}
}
