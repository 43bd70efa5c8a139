// Package question recognizes the fixed sentence shapes kinship questions
// come in and extracts their slots.
//
// Templates are tried in a fixed order and the first one that matches wins.
// A template whose relation slot holds a word that is not a known relation
// does not match, and parsing moves on to the next template.
package question

import (
	"regexp"
	"strings"

	"github.com/cognicore/kinship/pkg/kinship/relation"
)

// Kind names the template a question matched.
type Kind string

const (
	KindDirectRelation Kind = "direct_relation"
	KindRelationOf     Kind = "relation_of"
	KindListChildren   Kind = "list_children"
	KindIsRelation     Kind = "is_relation"
	KindUnrecognized   Kind = "unrecognized"
)

// Question is the parsed form of a question. It is one of DirectRelation,
// RelationOf, ListChildren, IsRelationCheck or Unrecognized.
type Question interface {
	Kind() Kind
}

// DirectRelation is "who is <Person>'s <Relation>".
type DirectRelation struct {
	Person    string
	Relation  string
	Predicate relation.Predicate
}

// RelationOf is "who is the <Relation> of <Person>".
type RelationOf struct {
	Relation  string
	Person    string
	Predicate relation.Predicate
}

// ListChildren is "list children of <Person>" or "who are all children of <Person>".
type ListChildren struct {
	Person string
}

// IsRelationCheck is "is <Subject> a <Relation> of <Object>".
type IsRelationCheck struct {
	Subject   string
	Relation  string
	Object    string
	Predicate relation.Predicate
}

// Unrecognized is any text no template accepted.
type Unrecognized struct {
	Text string
}

func (DirectRelation) Kind() Kind  { return KindDirectRelation }
func (RelationOf) Kind() Kind      { return KindRelationOf }
func (ListChildren) Kind() Kind    { return KindListChildren }
func (IsRelationCheck) Kind() Kind { return KindIsRelation }
func (Unrecognized) Kind() Kind    { return KindUnrecognized }

// word matches one name or relation slot.
const word = `([\p{L}\p{N}_]+)`

// template is one sentence shape. build returns false when the captured
// slots are not acceptable, which counts as no match.
type template struct {
	pattern *regexp.Regexp
	build   func(m []string) (Question, bool)
}

var defaultTemplates = []template{
	{
		pattern: regexp.MustCompile(`who is ` + word + `'s ` + word),
		build: func(m []string) (Question, bool) {
			p, err := relation.Resolve(m[2])
			if err != nil {
				return nil, false
			}
			return DirectRelation{Person: m[1], Relation: m[2], Predicate: p}, true
		},
	},
	{
		pattern: regexp.MustCompile(`who is the ` + word + ` of ` + word),
		build: func(m []string) (Question, bool) {
			p, err := relation.Resolve(m[1])
			if err != nil {
				return nil, false
			}
			return RelationOf{Relation: m[1], Person: m[2], Predicate: p}, true
		},
	},
	{
		pattern: regexp.MustCompile(`(?:list|who are) (?:all )?children of ` + word),
		build: func(m []string) (Question, bool) {
			return ListChildren{Person: m[1]}, true
		},
	},
	{
		pattern: regexp.MustCompile(`is ` + word + ` a ` + word + ` of ` + word),
		build: func(m []string) (Question, bool) {
			p, err := relation.Resolve(m[2])
			if err != nil {
				return nil, false
			}
			return IsRelationCheck{Subject: m[1], Relation: m[2], Object: m[3], Predicate: p}, true
		},
	},
}

// Parser matches text against the ordered templates.
type Parser struct {
	templates []template
}

// NewParser returns a parser with the standard templates.
func NewParser() *Parser {
	return &Parser{templates: defaultTemplates}
}

// Normalize trims text, folds it to lower case and straightens typographic
// apostrophes.
func Normalize(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	return strings.ReplaceAll(text, "’", "'")
}

// Parse returns the first template match for text. Templates search anywhere
// in the text, so surrounding words and punctuation ("?") are ignored.
func (p *Parser) Parse(text string) Question {
	text = Normalize(text)
	for _, t := range p.templates {
		m := t.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if q, ok := t.build(m); ok {
			return q
		}
	}
	return Unrecognized{Text: text}
}
