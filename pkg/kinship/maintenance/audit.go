package maintenance

import (
	"context"
	"sort"

	"github.com/cognicore/kinship/pkg/kinship/factstore"
	"github.com/cognicore/kinship/pkg/kinship/internalerr"
	"github.com/cognicore/kinship/pkg/kinship/relation"
)

// Report summarizes an audit run.
type Report struct {
	People int
	// MissingGender lists people with neither male nor female facts; their
	// names are shown without an honorific.
	MissingGender []string
	// BothGenders lists people asserted male and female; they get the male
	// title.
	BothGenders []string
	// Conflicts maps "father_of(X, thabo)" style queries of singular
	// relations to every candidate. Answers only name the first.
	Conflicts map[string][]string
}

// Clean reports whether the audit found nothing.
func (r Report) Clean() bool {
	return len(r.MissingGender) == 0 && len(r.BothGenders) == 0 && len(r.Conflicts) == 0
}

var singularPredicates = []relation.Predicate{
	relation.FatherOf,
	relation.MotherOf,
	relation.GrandfatherOf,
	relation.GrandmotherOf,
}

// Audit walks every person the store knows about and reports data problems
// that answers would otherwise hide.
func Audit(ctx context.Context, store factstore.Store) (Report, error) {
	males, err := column(ctx, store, factstore.NewQuery(relation.Male.String(), factstore.Free("X")), "X")
	if err != nil {
		return Report{}, err
	}
	females, err := column(ctx, store, factstore.NewQuery(relation.Female.String(), factstore.Free("X")), "X")
	if err != nil {
		return Report{}, err
	}
	parents := factstore.NewQuery(relation.ParentOf.String(), factstore.Free("C"), factstore.Free("P"))
	children, err := column(ctx, store, parents, "C")
	if err != nil {
		return Report{}, err
	}
	elders, err := column(ctx, store, parents, "P")
	if err != nil {
		return Report{}, err
	}

	people := union(males, females, children, elders)
	rep := Report{People: len(people), Conflicts: make(map[string][]string)}

	for _, p := range people {
		_, m := males[p]
		_, f := females[p]
		switch {
		case m && f:
			rep.BothGenders = append(rep.BothGenders, p)
		case !m && !f:
			rep.MissingGender = append(rep.MissingGender, p)
		}

		for _, pred := range singularPredicates {
			q := factstore.NewQuery(pred.String(), factstore.Free("X"), factstore.Bound(p))
			found, err := column(ctx, store, q, "X")
			if err != nil {
				return Report{}, err
			}
			if len(found) > 1 {
				rep.Conflicts[q.String()] = sorted(found)
			}
		}
	}
	return rep, nil
}

func column(ctx context.Context, store factstore.Store, q factstore.Query, variable string) (map[string]struct{}, error) {
	sols, err := store.Query(ctx, q)
	if err != nil {
		return nil, internalerr.Wrapf(err, "audit %s", q)
	}
	out := make(map[string]struct{}, len(sols))
	for _, sol := range sols {
		if v, ok := sol.Lookup(variable); ok {
			out[v] = struct{}{}
		}
	}
	return out, nil
}

func union(sets ...map[string]struct{}) []string {
	all := make(map[string]struct{})
	for _, s := range sets {
		for k := range s {
			all[k] = struct{}{}
		}
	}
	return sorted(all)
}

func sorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
