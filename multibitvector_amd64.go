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

//go:build amd64

package queryeval

import "unsafe"

// batchAnd combines one 8-word (64-byte) aligned batch from every
// source into dest. When a source has the full batch backing it (the
// common case away from the last partial word), the batch is read as
// a single *wordBatch via an unsafe pointer cast rather than 8
// individual slice-bounds-checked loads, the same trick
// bits_amd64.go's toOriginal uses to move 8 bytes at a time.
func batchAnd(srcs []rawBV, wordOffset int, dest *wordBatch) {
	for i := range dest {
		dest[i] = ^uint64(0)
	}
	for _, s := range srcs {
		if wordOffset >= 0 && wordOffset+wordsPerBatch <= len(s.words) {
			batch := (*wordBatch)(unsafe.Pointer(&s.words[wordOffset]))
			if s.inverted {
				for i := range dest {
					dest[i] &= ^batch[i]
				}
			} else {
				for i := range dest {
					dest[i] &= batch[i]
				}
			}
			continue
		}
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
		if wordOffset >= 0 && wordOffset+wordsPerBatch <= len(s.words) {
			batch := (*wordBatch)(unsafe.Pointer(&s.words[wordOffset]))
			if s.inverted {
				for i := range dest {
					dest[i] |= ^batch[i]
				}
			} else {
				for i := range dest {
					dest[i] |= batch[i]
				}
			}
			continue
		}
		for i := range dest {
			dest[i] |= s.wordAt(wordOffset + i)
		}
	}
}
