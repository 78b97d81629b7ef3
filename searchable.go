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
	"github.com/pkg/errors"

	"github.com/queryeval/searchcore/query"
)

// Searchable is the external collaborator this package compiles a
// query.Q against: something that knows how to turn a query tree and a
// field binding into an unoptimized Blueprint. §1 places what sits
// behind it (an on-disk index, a remote shard, an in-memory fixture)
// out of scope; `internal/postingstore` is the one concrete
// implementation this module ships, for tests and `cmd/queryplay`.
// Generalized from the teacher's indexData methods (newMatchTree,
// newSubstringMatchTree), which play the same "factory turns a query
// node into an evaluator" role for zoekt's substring operators.
type Searchable interface {
	// CreateBlueprint compiles q into an unoptimized Blueprint bound to
	// fields. The returned Blueprint's DocIDLimit is set from rctx.
	CreateBlueprint(rctx *RequestContext, fields FieldSpecList, q query.Q) (Blueprint, error)
}

// CompileAndOptimize is the usual driver sequence: build a Blueprint
// via s.CreateBlueprint, run Optimize to a fixed point, then Freeze it.
// Kept as a free function (not a Searchable method) since optimizing
// and freezing are properties of a Blueprint, not of its source.
func CompileAndOptimize(s Searchable, rctx *RequestContext, fields FieldSpecList, q query.Q) (Blueprint, error) {
	bp, err := s.CreateBlueprint(rctx, fields, q)
	if err != nil {
		return nil, errors.Wrap(err, "CreateBlueprint")
	}
	bp.SetDocIDLimit(rctx.DocIDLimit)
	bp = Optimize(bp)
	bp.Freeze()
	return bp, nil
}
