// Package query runs relation lookups against the fact base and turns the
// raw solutions into sorted, de-duplicated sets of names.
//
// Engine-level failures never reach the caller: a query that errors is
// logged and answered as if it had no solutions, so "nobody" and "something
// went wrong" look the same to whoever asked.
package query

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/cognicore/kinship/pkg/kinship/factstore"
	"github.com/cognicore/kinship/pkg/kinship/person"
	"github.com/cognicore/kinship/pkg/kinship/relation"
)

// freeVar names the single unbound argument of a relation lookup.
const freeVar = "X"

// AnswerSet is a de-duplicated, lexicographically sorted list of names.
type AnswerSet []string

// First returns the alphabetically first name, or "" when empty.
func (a AnswerSet) First() string {
	if len(a) == 0 {
		return ""
	}
	return a[0]
}

// personRow is one decoded solution of predicate(X, bound).
type personRow struct {
	X string
}

// Engine executes relation lookups.
type Engine struct {
	store factstore.Store
	log   *zap.Logger
}

// New creates an engine over store. A nil logger discards output.
func New(store factstore.Store, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{store: store, log: log}
}

// Unbound answers predicate(X, bound) and returns every X.
func (e *Engine) Unbound(ctx context.Context, predicate relation.Predicate, bound string) AnswerSet {
	q := factstore.NewQuery(predicate.String(),
		factstore.Free(freeVar),
		factstore.Bound(person.Normalize(bound)))

	sols, err := e.store.Query(ctx, q)
	if err != nil {
		e.log.Warn("query failed, treating as empty", zap.Stringer("query", q), zap.Error(err))
		return AnswerSet{}
	}

	rows := make([]personRow, 0, len(sols))
	for _, sol := range sols {
		x, ok := sol.Lookup(freeVar)
		if !ok {
			continue
		}
		rows = append(rows, personRow{X: x})
	}
	return collect(rows)
}

// BoundPair reports whether predicate(a, b) holds.
func (e *Engine) BoundPair(ctx context.Context, predicate relation.Predicate, a, b string) bool {
	return e.Holds(ctx, predicate, a, b)
}

// Holds reports whether the fully bound fact predicate(args...) has at least
// one solution.
func (e *Engine) Holds(ctx context.Context, predicate relation.Predicate, args ...string) bool {
	terms := make([]factstore.Term, len(args))
	for i, a := range args {
		terms[i] = factstore.Bound(person.Normalize(a))
	}
	q := factstore.NewQuery(predicate.String(), terms...)

	sols, err := e.store.Query(ctx, q)
	if err != nil {
		e.log.Warn("query failed, treating as false", zap.Stringer("query", q), zap.Error(err))
		return false
	}
	return len(sols) > 0
}

func collect(rows []personRow) AnswerSet {
	seen := make(map[string]struct{}, len(rows))
	out := make(AnswerSet, 0, len(rows))
	for _, r := range rows {
		if r.X == "" {
			continue
		}
		if _, ok := seen[r.X]; ok {
			continue
		}
		seen[r.X] = struct{}{}
		out = append(out, r.X)
	}
	sort.Strings(out)
	return out
}
