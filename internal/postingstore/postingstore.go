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

// Package postingstore is a minimal in-memory posting-list fixture: it
// backs a queryeval.Searchable for this module's own tests and for
// cmd/queryplay, standing in for the on-disk index §6 names as an
// external collaborator but never implements. Grounded on the
// teacher's inmemory.go (pinning named sections into a flat in-process
// structure instead of reading them off disk on every access) and on
// indexbuilder.go's map[ngram][]byte-shaped postings accumulation,
// generalized from ngram keys to (field, term) keys.
package postingstore

import (
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/queryeval/searchcore"
	"github.com/queryeval/searchcore/query"
)

// key identifies one posting list: a field plus the term indexed
// within it.
type key struct {
	field queryeval.FieldID
	term  string
}

// Doc is one document added to a Store: an id plus, per field, the
// tokens occurring in it (each token may repeat — once per occurrence
// — to carry position/weight information).
type Doc struct {
	ID     queryeval.DocID
	Fields map[queryeval.FieldID][]Occurrence
}

// Occurrence is one token occurrence within a field, at a given
// position, carrying the element/weight metadata TermFieldMatchData
// needs at Unpack time.
type Occurrence struct {
	Token    string
	Position queryeval.Position
	Weight   int32
}

// Store is a fixed, already-built in-memory index: a
// map[key][]queryeval.Posting, sorted by DocID within each list, built
// once from a batch of Docs and read-only thereafter. It implements
// queryeval.PostingSource directly.
type Store struct {
	mu       sync.RWMutex
	postings map[key][]queryeval.Posting
}

// NewStore builds a Store from docs, hydrating every field's posting
// lists concurrently via errgroup — mirroring the teacher's
// worker-per-shard concurrency shape in shards/, scaled down to
// worker-per-field since a fixture has no shards of its own.
func NewStore(docs []Doc) (*Store, error) {
	fieldSet := map[queryeval.FieldID]bool{}
	for _, d := range docs {
		for f := range d.Fields {
			fieldSet[f] = true
		}
	}

	fields := make([]queryeval.FieldID, 0, len(fieldSet))
	for f := range fieldSet {
		fields = append(fields, f)
	}

	results := make([]map[key][]queryeval.Posting, len(fields))

	var g errgroup.Group
	for i, f := range fields {
		i, f := i, f
		g.Go(func() error {
			results[i] = buildField(f, docs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := map[key][]queryeval.Posting{}
	for _, m := range results {
		for k, v := range m {
			merged[k] = v
		}
	}

	return &Store{postings: merged}, nil
}

// buildField accumulates every (field, term) posting list that occurs
// in docs for field, sorted ascending by DocID once all occurrences
// have been collected — the teacher's two-phase "accumulate then
// sort/finalize" shape from indexbuilder.go's Finish, here run once
// per field instead of once per whole shard.
func buildField(field queryeval.FieldID, docs []Doc) map[key][]queryeval.Posting {
	byTerm := map[string][]queryeval.Posting{}
	for _, d := range docs {
		occs, ok := d.Fields[field]
		if !ok {
			continue
		}
		byTermInDoc := map[string]*queryeval.Posting{}
		var order []string
		for _, o := range occs {
			p, ok := byTermInDoc[o.Token]
			if !ok {
				p = &queryeval.Posting{DocID: d.ID, Weight: o.Weight}
				byTermInDoc[o.Token] = p
				order = append(order, o.Token)
			}
			p.Positions = append(p.Positions, o.Position)
		}
		for _, t := range order {
			byTerm[t] = append(byTerm[t], *byTermInDoc[t])
		}
	}

	out := make(map[key][]queryeval.Posting, len(byTerm))
	for term, postings := range byTerm {
		sort.Slice(postings, func(i, j int) bool { return postings[i].DocID < postings[j].DocID })
		out[key{field: field, term: term}] = postings
	}
	return out
}

// EstimatedHits implements queryeval.PostingSource: a cheap, already
// in-memory lookup of the list length, exactly the figure
// TermBlueprint plans against.
func (s *Store) EstimatedHits(field queryeval.FieldID, term string) (uint32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	postings, ok := s.postings[key{field: field, term: term}]
	if !ok {
		return 0, false
	}
	return uint32(len(postings)), true
}

// LookupPostings implements queryeval.PostingSource: the real fetch a
// TermBlueprint defers to FetchPostings. Returns a defensive copy so a
// caller mutating the result (e.g. TermBlueprint narrowing against a
// GlobalFilter) never corrupts the shared Store.
func (s *Store) LookupPostings(field queryeval.FieldID, term string) ([]queryeval.Posting, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	postings, ok := s.postings[key{field: field, term: term}]
	if !ok {
		return nil, false
	}
	out := make([]queryeval.Posting, len(postings))
	copy(out, postings)
	return out, true
}

// DocIDLimit reports one past the largest document id in docs (BeginID
// when docs is empty), suitable for RequestContext.DocIDLimit / Blueprint.SetDocIDLimit.
func (s *Store) DocIDLimit(docs []Doc) queryeval.DocID {
	limit := queryeval.BeginID
	for _, d := range docs {
		if d.ID+1 > limit {
			limit = d.ID + 1
		}
	}
	return limit
}

// Searchable adapts a Store and a field schema into a
// queryeval.Searchable, compiling query.Q trees into Blueprints bound
// against it. Generalizes the teacher's indexData.newMatchTree /
// newSubstringMatchTree: there, a query.Substring became a
// substringMatchTree by consulting the index's trigram postings;
// here, a query.Term becomes a TermBlueprint by consulting the Store.
type Searchable struct {
	Store  *Store
	Fields map[query.FieldName]queryeval.FieldID
}

// NewSearchable binds store against a field-name schema.
func NewSearchable(store *Store, fields map[query.FieldName]queryeval.FieldID) *Searchable {
	return &Searchable{Store: store, Fields: fields}
}

func (s *Searchable) fieldID(name query.FieldName) (queryeval.FieldID, error) {
	id, ok := s.Fields[name]
	if !ok {
		return 0, errUnknownField(name)
	}
	return id, nil
}

type errUnknownField query.FieldName

func (e errUnknownField) Error() string { return "postingstore: unknown field " + string(e) }

// CreateBlueprint implements queryeval.Searchable: it walks q and
// builds the matching Blueprint tree. fields must carry one
// already-allocated (FieldID, Handle) pair per distinct field the
// query touches — the caller owns the MatchData those Handles index
// into, since that MatchData is also what it will later pass to
// CreateSearch. Operators
// WeightedSet/DotProduct/NumericRange/Phrase/Location/SameElement are
// intentionally not wired here — this fixture only ever indexes plain
// tokens, so those query kinds return errUnknownOperator; a real
// Searchable backing those operators would resolve them against its
// own richer on-disk representations instead.
func (s *Searchable) CreateBlueprint(rctx *queryeval.RequestContext, fields queryeval.FieldSpecList, q query.Q) (queryeval.Blueprint, error) {
	bp, err := s.build(q, fields)
	if err != nil {
		return nil, err
	}
	bp.SetSourceID(rctx.SourceID)
	return bp, nil
}

func (s *Searchable) build(q query.Q, fields queryeval.FieldSpecList) (queryeval.Blueprint, error) {
	switch n := q.(type) {
	case *query.Term:
		return s.buildTerm(n.Field, n.Value, fields)
	case *query.Prefix:
		return s.buildTerm(n.Field, n.Value, fields)
	case *query.And:
		return s.buildChildren(n.Children, fields, func(c []queryeval.Blueprint) queryeval.Blueprint {
			return queryeval.NewAndBlueprint(c)
		})
	case *query.Or:
		return s.buildChildren(n.Children, fields, func(c []queryeval.Blueprint) queryeval.Blueprint {
			return queryeval.NewOrBlueprint(c)
		})
	case *query.AndNot:
		pos, err := s.build(n.Positive, fields)
		if err != nil {
			return nil, err
		}
		negs, err := s.buildList(n.Negative, fields)
		if err != nil {
			return nil, err
		}
		return queryeval.NewAndNotBlueprint(append([]queryeval.Blueprint{pos}, negs...)), nil
	case *query.Rank:
		pos, err := s.build(n.Primary, fields)
		if err != nil {
			return nil, err
		}
		secs, err := s.buildList(n.Secondary, fields)
		if err != nil {
			return nil, err
		}
		return queryeval.NewRankBlueprint(append([]queryeval.Blueprint{pos}, secs...)), nil
	case *query.Near:
		return s.buildChildren(n.Children, fields, func(c []queryeval.Blueprint) queryeval.Blueprint {
			return queryeval.NewNearBlueprint(c, n.Window)
		})
	case *query.ONear:
		return s.buildChildren(n.Children, fields, func(c []queryeval.Blueprint) queryeval.Blueprint {
			return queryeval.NewONearBlueprint(c, n.Window)
		})
	case *query.WeakAnd:
		return s.buildChildren(n.Children, fields, func(c []queryeval.Blueprint) queryeval.Blueprint {
			return queryeval.NewWeakAndBlueprint(c, n.Weights, n.TargetHits)
		})
	case *query.Const:
		if n.Value {
			return queryeval.NewFakeBlueprint(queryeval.NewFullSearch(), nil, queryeval.HitEstimate{EstHits: ^uint32(0)}), nil
		}
		return queryeval.NewEmptyBlueprint(nil), nil
	default:
		return nil, errUnknownOperator{q}
	}
}

func (s *Searchable) buildList(qs []query.Q, fields queryeval.FieldSpecList) ([]queryeval.Blueprint, error) {
	out := make([]queryeval.Blueprint, len(qs))
	for i, q := range qs {
		bp, err := s.build(q, fields)
		if err != nil {
			return nil, err
		}
		out[i] = bp
	}
	return out, nil
}

func (s *Searchable) buildChildren(qs []query.Q, fields queryeval.FieldSpecList, combine func([]queryeval.Blueprint) queryeval.Blueprint) (queryeval.Blueprint, error) {
	children, err := s.buildList(qs, fields)
	if err != nil {
		return nil, err
	}
	return combine(children), nil
}

func (s *Searchable) buildTerm(field query.FieldName, term string, fields queryeval.FieldSpecList) (queryeval.Blueprint, error) {
	fid, err := s.fieldID(field)
	if err != nil {
		return nil, err
	}
	spec, err := lookupFieldSpec(fields, fid)
	if err != nil {
		return nil, err
	}
	return queryeval.NewTermBlueprint(s.Store, spec, term), nil
}

func lookupFieldSpec(fields queryeval.FieldSpecList, fid queryeval.FieldID) (queryeval.FieldSpec, error) {
	for _, f := range fields {
		if f.FieldID == fid {
			return f, nil
		}
	}
	return queryeval.FieldSpec{}, errUnallocatedField(fid)
}

type errUnallocatedField queryeval.FieldID

func (e errUnallocatedField) Error() string {
	return "postingstore: no MatchData handle allocated for field"
}

type errUnknownOperator struct{ q query.Q }

func (e errUnknownOperator) Error() string {
	return "postingstore: unsupported query node " + e.q.String()
}
