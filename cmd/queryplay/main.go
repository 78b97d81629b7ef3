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

// queryplay builds a small in-memory posting fixture, compiles a
// hand-written query tree against it, optimizes and runs the plan, and
// prints the matching document ids. Grounded on the shape of the
// teacher's cmd/zoekt-test (flag-parsed, thin main calling into the
// library), scaled down since there is no on-disk index to open here.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/queryeval/searchcore"
	"github.com/queryeval/searchcore/internal/postingstore"
	"github.com/queryeval/searchcore/query"
)

const fieldBody queryeval.FieldID = 1

func sampleDocs() []postingstore.Doc {
	docs := []struct {
		id   queryeval.DocID
		text string
	}{
		{2, "the quick brown fox jumps over the lazy dog"},
		{3, "the lazy dog sleeps all day"},
		{4, "quick quick quick silver fox"},
		{5, "no matching terms here at all"},
	}

	var out []postingstore.Doc
	for _, d := range docs {
		occs := make([]postingstore.Occurrence, 0)
		for i, tok := range strings.Fields(d.text) {
			occs = append(occs, postingstore.Occurrence{
				Token:    tok,
				Position: queryeval.Position{Pos: uint32(i)},
				Weight:   1,
			})
		}
		out = append(out, postingstore.Doc{
			ID:     d.id,
			Fields: map[queryeval.FieldID][]postingstore.Occurrence{fieldBody: occs},
		})
	}
	return out
}

func run(term1, term2 string) error {
	docs := sampleDocs()
	store, err := postingstore.NewStore(docs)
	if err != nil {
		return err
	}

	searchable := postingstore.NewSearchable(store, map[query.FieldName]queryeval.FieldID{
		"body": fieldBody,
	})

	md := queryeval.NewMatchData()
	handle := md.Allocate(fieldBody)
	fields := queryeval.FieldSpecList{{FieldID: fieldBody, Handle: handle}}

	q := query.NewAnd(
		&query.Term{Field: "body", Value: term1},
		&query.Term{Field: "body", Value: term2},
	)

	rctx := &queryeval.RequestContext{DocIDLimit: store.DocIDLimit(docs)}

	bp, err := queryeval.CompileAndOptimize(searchable, rctx, fields, q)
	if err != nil {
		return err
	}

	bp.FetchPostings(queryeval.ExecuteInfo{Strict: true})
	it := bp.CreateSearch(md, true)

	fmt.Printf("plan: %s\n", bp)
	it.InitRange(queryeval.BeginID, rctx.DocIDLimit)
	for !it.IsAtEnd() {
		docid := it.GetDocID()
		it.Unpack(docid)
		fmt.Printf("hit: doc %d\n", docid)
		it.Seek(docid + 1)
	}
	return nil
}

func main() {
	term1 := flag.String("term1", "quick", "first term to AND together")
	term2 := flag.String("term2", "fox", "second term to AND together")
	flag.Parse()

	if err := run(*term1, *term2); err != nil {
		log.Fatal(err)
	}
}
