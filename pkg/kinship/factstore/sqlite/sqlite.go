package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"github.com/cognicore/kinship/pkg/kinship/factstore"
	"github.com/cognicore/kinship/pkg/kinship/internalerr"
)

// maxArity is the widest predicate the facts table can hold.
const maxArity = 2

// Store keeps ground facts in a SQLite table. It answers queries directly
// with parameterized SQL and also serves as the persisted source the Mangle
// program is hydrated from.
type Store struct {
	db     *sql.DB
	closed atomic.Bool
}

var _ factstore.Store = (*Store)(nil)

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, internalerr.Wrapf(err, "open %s", path)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, internalerr.Wrap(err, "enable WAL")
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	s.closed.Store(true)
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS facts (
	predicate TEXT NOT NULL,
	arity INTEGER NOT NULL,
	arg0 TEXT NOT NULL,
	arg1 TEXT NOT NULL DEFAULT '',
	PRIMARY KEY(predicate, arity, arg0, arg1)
);

CREATE INDEX IF NOT EXISTS idx_facts_arg1 ON facts(predicate, arg1);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return internalerr.Wrap(err, "init schema")
	}
	return nil
}

// AddFacts inserts facts, ignoring ones already stored.
func (s *Store) AddFacts(ctx context.Context, facts []factstore.Fact) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return internalerr.Wrap(err, "begin")
	}
	defer tx.Rollback()

	if err := insertFacts(ctx, tx, facts); err != nil {
		return err
	}
	return internalerr.Wrap(tx.Commit(), "commit")
}

// ReplaceFacts swaps the whole table for facts in one transaction.
func (s *Store) ReplaceFacts(ctx context.Context, facts []factstore.Fact) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return internalerr.Wrap(err, "begin")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM facts"); err != nil {
		return internalerr.Wrap(err, "clear facts")
	}
	if err := insertFacts(ctx, tx, facts); err != nil {
		return err
	}
	return internalerr.Wrap(tx.Commit(), "commit")
}

func insertFacts(ctx context.Context, tx *sql.Tx, facts []factstore.Fact) error {
	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR IGNORE INTO facts(predicate, arity, arg0, arg1) VALUES (?, ?, ?, ?)")
	if err != nil {
		return internalerr.Wrap(err, "prepare insert")
	}
	defer stmt.Close()

	for _, f := range facts {
		if len(f.Args) == 0 || len(f.Args) > maxArity {
			return internalerr.Wrapf(internalerr.ErrInvalidInput, "%s: arity %d not supported", f.Predicate, len(f.Args))
		}
		args := [maxArity]string{}
		for i, a := range f.Args {
			args[i] = strings.ToLower(strings.TrimSpace(a))
		}
		if _, err := stmt.ExecContext(ctx, f.Predicate, len(f.Args), args[0], args[1]); err != nil {
			return internalerr.Wrapf(err, "insert %s", f)
		}
	}
	return nil
}

// LoadFacts returns every stored fact ordered by predicate and arguments.
func (s *Store) LoadFacts(ctx context.Context) ([]factstore.Fact, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT predicate, arity, arg0, arg1 FROM facts ORDER BY predicate, arg0, arg1")
	if err != nil {
		return nil, internalerr.Wrap(err, "load facts")
	}
	defer rows.Close()

	var facts []factstore.Fact
	for rows.Next() {
		var (
			pred       string
			arity      int
			arg0, arg1 string
		)
		if err := rows.Scan(&pred, &arity, &arg0, &arg1); err != nil {
			return nil, internalerr.Wrap(err, "scan fact")
		}
		facts = append(facts, factstore.NewFact(pred, []string{arg0, arg1}[:arity]...))
	}
	return facts, internalerr.Wrap(rows.Err(), "iterate facts")
}

// Count returns the number of stored facts.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM facts").Scan(&n); err != nil {
		return 0, internalerr.Wrap(err, "count facts")
	}
	return n, nil
}

// Query answers q with bound arguments passed as SQL parameters.
// Only stored facts are visible; there are no rules at this layer.
func (s *Store) Query(ctx context.Context, q factstore.Query) ([]factstore.Solution, error) {
	if s.closed.Load() {
		return nil, internalerr.ErrStoreClosed
	}
	if q.Arity() == 0 || q.Arity() > maxArity {
		return nil, nil
	}

	var (
		where  = []string{"predicate = ?", "arity = ?"}
		params = []any{q.Predicate, q.Arity()}
	)
	for i, term := range q.Args {
		if term.IsFree() {
			continue
		}
		where = append(where, argColumn(i)+" = ?")
		params = append(params, term.Value)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT arg0, arg1 FROM facts WHERE "+strings.Join(where, " AND "), params...)
	if err != nil {
		return nil, internalerr.Wrapf(err, "query %s", q)
	}
	defer rows.Close()

	var out []factstore.Solution
	for rows.Next() {
		var arg0, arg1 string
		if err := rows.Scan(&arg0, &arg1); err != nil {
			return nil, internalerr.Wrap(err, "scan solution")
		}
		if bindings, ok := q.Match([]string{arg0, arg1}[:q.Arity()]); ok {
			out = append(out, factstore.Solution{Bindings: bindings})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, internalerr.Wrapf(err, "query %s", q)
	}
	return out, nil
}

func argColumn(i int) string {
	if i == 0 {
		return "arg0"
	}
	return "arg1"
}
