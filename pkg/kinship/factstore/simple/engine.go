package simple

import (
	"bufio"
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/cognicore/kinship/pkg/kinship/factstore"
	"github.com/cognicore/kinship/pkg/kinship/internalerr"
)

// Engine is a minimal in-memory fact store in pure Go.
// It holds ground facts only; there is no rule evaluation.
type Engine struct {
	mu     sync.RWMutex
	facts  map[string][][]string // predicate → argument tuples
	closed bool
}

var _ factstore.Store = (*Engine)(nil)

// New creates an empty engine
func New() *Engine {
	return &Engine{
		facts: make(map[string][][]string),
	}
}

// LoadFacts loads facts from Prolog-style source.
// Format:
//
//	father_of(jacob, thabo).
//	male(jacob).
//	% comment
//	# comment
func (e *Engine) LoadFacts(source string) error {
	facts, err := ParseFacts(source)
	if err != nil {
		return err
	}
	for _, f := range facts {
		e.AddFact(f.Predicate, f.Args...)
	}
	return nil
}

// AddFact adds a fact to the store. Names are folded to lowercase.
func (e *Engine) AddFact(predicate string, args ...string) {
	tuple := make([]string, len(args))
	for i, a := range args {
		tuple[i] = strings.ToLower(strings.TrimSpace(a))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Avoid duplicates
	for _, existing := range e.facts[predicate] {
		if equalTuples(existing, tuple) {
			return
		}
	}
	e.facts[predicate] = append(e.facts[predicate], tuple)
}

// Query returns every stored fact of q.Predicate matching q's bound arguments.
func (e *Engine) Query(ctx context.Context, q factstore.Query) ([]factstore.Solution, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return nil, internalerr.ErrStoreClosed
	}

	var out []factstore.Solution
	for _, tuple := range e.facts[q.Predicate] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(tuple) != q.Arity() {
			return nil, internalerr.Wrapf(internalerr.ErrInvalidInput,
				"%s has arity %d, queried with %d arguments", q.Predicate, len(tuple), q.Arity())
		}
		if bindings, ok := q.Match(tuple); ok {
			out = append(out, factstore.Solution{Bindings: bindings})
		}
	}
	return out, nil
}

// Facts returns a copy of all stored facts, ordered by predicate then arguments.
func (e *Engine) Facts() []factstore.Fact {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []factstore.Fact
	for pred, tuples := range e.facts {
		for _, tuple := range tuples {
			out = append(out, factstore.NewFact(pred, append([]string(nil), tuple...)...))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}

// Close marks the engine closed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// ParseFacts parses Prolog-style ground facts, one per line.
// Rules (lines containing ":-") are rejected.
func ParseFacts(source string) ([]factstore.Fact, error) {
	scanner := bufio.NewScanner(strings.NewReader(source))
	lineNum := 0

	var facts []factstore.Fact
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "%") || strings.HasPrefix(line, "#") {
			continue
		}

		fact, err := parseFact(line)
		if err != nil {
			return nil, internalerr.Wrapf(err, "line %d", lineNum)
		}
		facts = append(facts, fact)
	}

	if err := scanner.Err(); err != nil {
		return nil, internalerr.Wrap(err, "scan facts")
	}
	return facts, nil
}

// parseFact parses "relation(a, b)." format
func parseFact(line string) (factstore.Fact, error) {
	if strings.Contains(line, ":-") {
		return factstore.Fact{}, internalerr.Wrapf(internalerr.ErrInvalidInput, "rules are not supported: %s", line)
	}

	line = strings.TrimSuffix(line, ".")

	openParen := strings.Index(line, "(")
	if openParen == -1 {
		return factstore.Fact{}, internalerr.Wrapf(internalerr.ErrInvalidInput, "missing '(': %s", line)
	}

	relation := strings.TrimSpace(line[:openParen])
	if relation == "" {
		return factstore.Fact{}, internalerr.Wrapf(internalerr.ErrInvalidInput, "missing predicate: %s", line)
	}

	closeParen := strings.LastIndex(line, ")")
	if closeParen == -1 || closeParen < openParen {
		return factstore.Fact{}, internalerr.Wrapf(internalerr.ErrInvalidInput, "missing ')': %s", line)
	}

	parts := strings.Split(line[openParen+1:closeParen], ",")
	args := make([]string, 0, len(parts))
	for _, p := range parts {
		arg := strings.ToLower(strings.TrimSpace(p))
		if arg == "" {
			return factstore.Fact{}, internalerr.Wrapf(internalerr.ErrInvalidInput, "empty argument: %s", line)
		}
		args = append(args, arg)
	}

	return factstore.NewFact(relation, args...), nil
}

func equalTuples(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
