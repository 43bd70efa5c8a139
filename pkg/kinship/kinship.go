// Package kinship answers natural-language questions about a family tree.
//
// A question is matched against a fixed, ordered set of sentence templates,
// translated into a structured query against a read-only fact base and
// rendered as a sentence with gender honorifics:
//
//	e := kinship.New(kinship.Options{Store: store})
//	e.Ask(ctx, "Who is Thabo's father?") // "Ntate Jacob is Thabo's father."
package kinship

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/cognicore/kinship/pkg/kinship/answer"
	"github.com/cognicore/kinship/pkg/kinship/factstore"
	"github.com/cognicore/kinship/pkg/kinship/query"
	"github.com/cognicore/kinship/pkg/kinship/question"
	"github.com/cognicore/kinship/pkg/kinship/relation"
	"github.com/cognicore/kinship/pkg/kinship/title"
)

// Fallback is the answer to any question no template recognizes.
const Fallback = "Sorry, I don't understand the question."

// Engine is the question answering facade.
type Engine struct {
	store   factstore.Store
	parser  *question.Parser
	queries *query.Engine
	format  *answer.Formatter
	log     *zap.Logger
}

// Options configures an Engine.
type Options struct {
	// Store is opened by the caller and owned by the Engine from here on.
	Store         factstore.Store
	Logger        *zap.Logger
	Honorifics    title.Honorifics
	TitleCacheTTL time.Duration
}

// New creates an Engine with the given dependencies
func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	queries := query.New(opts.Store, log.Named("query"))
	titles := title.New(queries, title.Options{
		Honorifics: opts.Honorifics,
		CacheTTL:   opts.TitleCacheTTL,
	})

	return &Engine{
		store:   opts.Store,
		parser:  question.NewParser(),
		queries: queries,
		format:  answer.New(titles),
		log:     log,
	}
}

// Close releases the fact store.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Answer is the outcome of one question with the facts that produced it.
type Answer struct {
	ID        string             `json:"id" yaml:"id"`
	Question  string             `json:"question" yaml:"question"`
	Kind      question.Kind      `json:"kind" yaml:"kind"`
	Relation  string             `json:"relation,omitempty" yaml:"relation,omitempty"`
	Predicate relation.Predicate `json:"predicate,omitempty" yaml:"predicate,omitempty"`
	// Names is the full sorted result set, before any singular truncation.
	Names []string `json:"names,omitempty" yaml:"names,omitempty"`
	// Candidates is len(Names); Truncated is set when a singular relation
	// had more than one candidate and only the first was reported.
	Candidates int    `json:"candidates" yaml:"candidates"`
	Truncated  bool   `json:"truncated,omitempty" yaml:"truncated,omitempty"`
	Text       string `json:"text" yaml:"text"`
}

// Ask answers q. The result is never empty; unrecognized questions get
// Fallback.
func (e *Engine) Ask(ctx context.Context, q string) string {
	return e.Explain(ctx, q).Text
}

// Explain answers q and reports how the answer was reached.
func (e *Engine) Explain(ctx context.Context, q string) Answer {
	parsed := e.parser.Parse(q)
	a := Answer{
		ID:       ulid.Make().String(),
		Question: question.Normalize(q),
		Kind:     parsed.Kind(),
	}

	switch p := parsed.(type) {
	case question.DirectRelation:
		e.relation(ctx, &a, p.Predicate, p.Person, p.Relation)
	case question.RelationOf:
		e.relation(ctx, &a, p.Predicate, p.Person, p.Relation)
	case question.ListChildren:
		names := e.queries.Unbound(ctx, relation.ParentOf, p.Person)
		a.Predicate = relation.ParentOf
		a.Names = names
		a.Candidates = len(names)
		a.Text = e.format.Children(ctx, names, p.Person)
	case question.IsRelationCheck:
		holds := e.queries.BoundPair(ctx, p.Predicate, p.Subject, p.Object)
		a.Relation = p.Relation
		a.Predicate = p.Predicate
		if holds {
			a.Candidates = 1
		}
		a.Text = e.format.Check(ctx, holds, p.Subject, p.Relation, p.Object)
	default:
		a.Text = Fallback
	}

	e.log.Debug("answered",
		zap.String("id", a.ID),
		zap.String("kind", string(a.Kind)),
		zap.String("predicate", a.Predicate.String()),
		zap.Int("results", a.Candidates))
	return a
}

func (e *Engine) relation(ctx context.Context, a *Answer, p relation.Predicate, person, keyword string) {
	names := e.queries.Unbound(ctx, p, person)
	a.Relation = keyword
	a.Predicate = p
	a.Names = names
	a.Candidates = len(names)

	if relation.IsSingular(keyword) && len(names) > 1 {
		a.Truncated = true
		e.log.Warn("singular relation has several candidates, reporting the first",
			zap.String("id", a.ID),
			zap.String("predicate", p.String()),
			zap.String("person", person),
			zap.Strings("candidates", names))
	}
	a.Text = e.format.Relation(ctx, names, person, keyword)
}
