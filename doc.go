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

// Package queryeval compiles a tree of query operators into a tree of
// document-id iterators, optimizes that tree, and evaluates it against
// posting lists to produce matching documents.
//
// The three layers are:
//
//   - Blueprint: an annotated plan for iterators (hit estimates, cost
//     tiers, field specs, unpack requirements).
//   - SearchIterator: the runtime evaluator (seek / unpack / getDocId).
//   - the optimize pass: tree rewrites over both layers (flattening,
//     source-blender hoisting, termwise hoisting, bit-vector fusion).
package queryeval
