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

//go:build !amd64

package queryeval

// batchAnd combines one 8-word batch starting at wordOffset from every
// source into dest, element by element. Portable fallback for the
// unsafe word-pointer batching in multibitvector_amd64.go.
func batchAnd(srcs []rawBV, wordOffset int, dest *wordBatch) {
	for i := range dest {
		dest[i] = ^uint64(0)
	}
	for _, s := range srcs {
		for i := range dest {
			dest[i] &= s.wordAt(wordOffset + i)
		}
	}
}

// batchOr is batchAnd's OR counterpart.
func batchOr(srcs []rawBV, wordOffset int, dest *wordBatch) {
	for i := range dest {
		dest[i] = 0
	}
	for _, s := range srcs {
		for i := range dest {
			dest[i] |= s.wordAt(wordOffset + i)
		}
	}
}
