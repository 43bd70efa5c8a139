package factstore

import (
	"context"
	"fmt"
	"strings"
)

// Store is the read-only relational fact base questions are answered from.
// This interface allows swapping implementations (Mangle rules, plain facts in
// memory, a SQLite table).
//
// A Store is opened once at startup and only queried afterwards; Query must be
// safe to call from concurrent goroutines.
type Store interface {
	// Query returns one Solution per fact matching q.
	// A predicate with no matching facts yields an empty result, not an error.
	Query(ctx context.Context, q Query) ([]Solution, error)

	// Close releases the store. Queries after Close fail with ErrStoreClosed.
	Close() error
}

// Term is one argument position of a query: either a bound constant or a
// free variable.
type Term struct {
	Value    string
	Variable string
}

// Bound returns a term fixed to value.
func Bound(value string) Term {
	return Term{Value: value}
}

// Free returns a variable term.
func Free(variable string) Term {
	return Term{Variable: variable}
}

// IsFree reports whether the term is a variable.
func (t Term) IsFree() bool {
	return t.Variable != ""
}

func (t Term) String() string {
	if t.IsFree() {
		return t.Variable
	}
	return t.Value
}

// Query asks for all facts of Predicate matching Args.
type Query struct {
	Predicate string
	Args      []Term
}

// NewQuery builds a query over predicate.
// Example: NewQuery("father_of", Free("X"), Bound("thabo"))
func NewQuery(predicate string, args ...Term) Query {
	return Query{Predicate: predicate, Args: args}
}

// Arity is the number of arguments of the queried predicate.
func (q Query) Arity() int {
	return len(q.Args)
}

// String renders the query for logs, e.g. father_of(X, thabo).
func (q Query) String() string {
	parts := make([]string, len(q.Args))
	for i, arg := range q.Args {
		parts[i] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", q.Predicate, strings.Join(parts, ", "))
}

// Match reports whether args satisfy the query's bound positions and whether
// repeated variables agree. On success it returns the bindings of the free
// variables in argument order, one per distinct variable.
func (q Query) Match(args []string) ([]Binding, bool) {
	if len(args) != len(q.Args) {
		return nil, false
	}
	var bindings []Binding
	seen := make(map[string]string)
	for i, term := range q.Args {
		if !term.IsFree() {
			if args[i] != term.Value {
				return nil, false
			}
			continue
		}
		if prev, ok := seen[term.Variable]; ok {
			if prev != args[i] {
				return nil, false
			}
			continue
		}
		seen[term.Variable] = args[i]
		bindings = append(bindings, Binding{Variable: term.Variable, Value: args[i]})
	}
	return bindings, true
}

// Binding assigns a concrete value to one free variable of a query.
type Binding struct {
	Variable string
	Value    string
}

// Solution is one answer to a query: the bindings of its free variables.
// A fully bound query that holds yields a Solution with no bindings.
type Solution struct {
	Bindings []Binding
}

// Lookup returns the value bound to variable.
func (s Solution) Lookup(variable string) (string, bool) {
	for _, b := range s.Bindings {
		if b.Variable == variable {
			return b.Value, true
		}
	}
	return "", false
}

// Fact is a ground assertion such as father_of(jacob, thabo).
type Fact struct {
	Predicate string
	Args      []string
}

// NewFact builds a fact.
func NewFact(predicate string, args ...string) Fact {
	return Fact{Predicate: predicate, Args: args}
}

func (f Fact) String() string {
	return fmt.Sprintf("%s(%s).", f.Predicate, strings.Join(f.Args, ", "))
}
