// Package mangle backs the fact base with a Google Mangle (Datalog) program.
//
// The program is parsed, analyzed and evaluated to fixpoint once, when the
// store is opened. Every derived fact is then materialized in a concurrent
// in-memory store, so queries are plain lookups and never re-run rules.
package mangle

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	mstore "github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"
	"go.uber.org/zap"

	"github.com/cognicore/kinship/pkg/kinship/factstore"
	"github.com/cognicore/kinship/pkg/kinship/internalerr"
)

var (
	namePattern      = regexp.MustCompile(`^[a-z0-9_]+$`)
	predicatePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

// Options configures Open.
type Options struct {
	// Facts are ground facts appended to the program before evaluation,
	// so rules apply to them as well.
	Facts  []factstore.Fact
	Logger *zap.Logger
}

// Store is a factstore.Store over an evaluated Mangle program.
type Store struct {
	mu     sync.RWMutex
	closed bool

	store mstore.ConcurrentFactStore
	info  *analysis.ProgramInfo
	log   *zap.Logger
}

var _ factstore.Store = (*Store)(nil)

// Stats summarizes the materialized fact base.
type Stats struct {
	TotalFacts      int
	PredicateCounts map[string]int
}

// OpenFile reads a Mangle source file (.mg) and opens it.
func OpenFile(path string, opts Options) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, internalerr.Wrapf(err, "read fact base %s", path)
	}
	return Open(string(data), opts)
}

// Open parses, analyzes and evaluates source together with opts.Facts.
func Open(source string, opts Options) (*Store, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if len(opts.Facts) > 0 {
		extra, err := FormatFacts(opts.Facts)
		if err != nil {
			return nil, internalerr.Wrap(err, "format extra facts")
		}
		source = source + "\n" + extra
	}

	unit, err := parse.Unit(strings.NewReader(source))
	if err != nil {
		return nil, internalerr.Wrap(err, "parse fact base")
	}

	info, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, internalerr.Wrap(err, "analyze fact base")
	}

	baseStore := mstore.NewSimpleInMemoryStore()
	store := mstore.NewConcurrentFactStore(baseStore)
	if _, err := mengine.EvalProgramWithStats(info, store); err != nil {
		return nil, internalerr.Wrap(err, "evaluate fact base")
	}

	s := &Store{
		store: store,
		info:  info,
		log:   log,
	}

	stats := s.Stats()
	log.Info("fact base loaded",
		zap.Int("facts", stats.TotalFacts),
		zap.Int("predicates", len(stats.PredicateCounts)),
		zap.Int("extra_facts", len(opts.Facts)))

	return s, nil
}

// Query streams the materialized facts matching q.
func (s *Store) Query(ctx context.Context, q factstore.Query) ([]factstore.Solution, error) {
	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, internalerr.ErrStoreClosed
	}

	if !predicatePattern.MatchString(q.Predicate) {
		return nil, internalerr.Wrapf(internalerr.ErrInvalidInput, "predicate %q", q.Predicate)
	}

	args := make([]ast.BaseTerm, len(q.Args))
	for i, term := range q.Args {
		if term.IsFree() {
			args[i] = ast.Variable{Symbol: term.Variable}
			continue
		}
		c, err := nameConstant(term.Value)
		if err != nil {
			return nil, err
		}
		args[i] = c
	}

	var out []factstore.Solution
	err := s.store.GetFacts(ast.NewAtom(q.Predicate, args...), func(fact ast.Atom) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		values := make([]string, len(fact.Args))
		for i, arg := range fact.Args {
			values[i] = termValue(arg)
		}
		if bindings, ok := q.Match(values); ok {
			out = append(out, factstore.Solution{Bindings: bindings})
		}
		return nil
	})
	if err != nil {
		return nil, internalerr.Wrapf(err, "query %s", q)
	}
	return out, nil
}

// Stats counts materialized facts per predicate.
func (s *Store) Stats() Stats {
	stats := Stats{PredicateCounts: make(map[string]int)}
	for _, sym := range s.store.ListPredicates() {
		count := 0
		_ = s.store.GetFacts(ast.NewQuery(sym), func(ast.Atom) error {
			count++
			return nil
		})
		stats.PredicateCounts[sym.Symbol] += count
		stats.TotalFacts += count
	}
	return stats
}

// Close marks the store closed. The materialized facts are left to the GC.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// FormatFacts renders ground facts as Mangle source, one clause per line,
// sorted so the output is stable.
func FormatFacts(facts []factstore.Fact) (string, error) {
	lines := make([]string, 0, len(facts))
	for _, f := range facts {
		if !predicatePattern.MatchString(f.Predicate) {
			return "", internalerr.Wrapf(internalerr.ErrInvalidInput, "predicate %q", f.Predicate)
		}
		args := make([]string, len(f.Args))
		for i, a := range f.Args {
			if !namePattern.MatchString(a) {
				return "", internalerr.Wrapf(internalerr.ErrInvalidName, "%q in %s", a, f.Predicate)
			}
			args[i] = "/" + a
		}
		lines = append(lines, f.Predicate+"("+strings.Join(args, ", ")+").")
	}
	sort.Strings(lines)

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func nameConstant(name string) (ast.Constant, error) {
	if !namePattern.MatchString(name) {
		return ast.Constant{}, internalerr.Wrapf(internalerr.ErrInvalidName, "%q", name)
	}
	c, err := ast.Name("/" + name)
	if err != nil {
		return ast.Constant{}, internalerr.Mark(internalerr.Wrapf(err, "%q", name), internalerr.ErrInvalidName)
	}
	return c, nil
}

func termValue(term ast.BaseTerm) string {
	c, ok := term.(ast.Constant)
	if !ok {
		return fmt.Sprint(term)
	}
	switch c.Type {
	case ast.NameType:
		return strings.TrimPrefix(c.Symbol, "/")
	case ast.StringType:
		return c.Symbol
	default:
		return c.String()
	}
}
