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

// Package mockSearcher is a canned queryeval.Searchable for tests that
// want to assert on the query a caller builds without wiring a real
// PostingSource (see mock_searcher_test.go's use of it through
// CompileAndOptimize). Adapted from the teacher's own MockSearcher (a
// WantSearch/SearchResult pair checked by string equality) against
// this module's CreateBlueprint shape instead of zoekt's Search/List.
package mockSearcher

import (
	"fmt"

	"github.com/queryeval/searchcore"
	"github.com/queryeval/searchcore/query"
)

// MockSearcher returns Blueprint from CreateBlueprint whenever the
// incoming query stringifies the same as WantQuery, and errors
// otherwise — the same "compare by String()" contract the teacher's
// MockSearcher used for Search/List.
type MockSearcher struct {
	WantQuery query.Q
	Blueprint queryeval.Blueprint
}

func (s *MockSearcher) CreateBlueprint(rctx *queryeval.RequestContext, fields queryeval.FieldSpecList, q query.Q) (queryeval.Blueprint, error) {
	if q.String() != s.WantQuery.String() {
		return nil, fmt.Errorf("got query %s != %s", q.String(), s.WantQuery.String())
	}
	return s.Blueprint, nil
}

func (*MockSearcher) String() string { return "MockSearcher" }
