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
	"log"

	"github.com/pkg/errors"
)

// ErrInvalidPlan marks a build-time failure that degrades to an empty
// plan rather than propagating: an empty field set, or an impossible
// combination of field specs.
var ErrInvalidPlan = errors.New("invalid plan")

// ErrInconsistentHandles marks two children of the same intermediate
// binding different handles to the same field id; exposeFields
// returns an empty field list so the parent is treated as non-term-like.
var ErrInconsistentHandles = errors.New("inconsistent handles for shared field")

// ErrResourceExhaustion marks a posting-list hydration failure
// surfaced by fetchPostings. Callers turn the query into an empty
// result and log; it never reaches evaluation.
var ErrResourceExhaustion = errors.New("posting list hydration failed")

// wrapInvalidPlan annotates ErrInvalidPlan with context, following the
// teacher's fmt.Errorf("...: %w"-free but still detail-bearing error
// style (e.g. indexbuilder.go's "path %q must start subrepo path %q").
func wrapInvalidPlan(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidPlan, format, args...)
}

func wrapResourceExhaustion(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// assertOptimization aborts the query on an internal invariant
// violation — these can only happen from a bug in the optimizer
// itself, never from user input, so they are fatal rather than
// returned, exactly as the teacher's own log.Panicf("type %T", q)
// "can't happen" cases in matchtree.go/eval.go.
func assertOptimization(cond bool, format string, args ...interface{}) {
	if !cond {
		log.Panicf("optimization assertion failed: "+format, args...)
	}
}
