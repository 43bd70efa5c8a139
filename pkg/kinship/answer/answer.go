// Package answer renders query results as sentences.
package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/cognicore/kinship/pkg/kinship/person"
	"github.com/cognicore/kinship/pkg/kinship/relation"
)

// Titler produces the display form of a name, honorific included.
type Titler interface {
	Title(ctx context.Context, name string) string
}

// Formatter builds answer sentences. Every name it emits goes through the
// Titler exactly once; names that are not emitted are never titled.
type Formatter struct {
	titles Titler
}

// New creates a formatter.
func New(titles Titler) *Formatter {
	return &Formatter{titles: titles}
}

// NotFound is the sentence for a relation lookup without results.
func NotFound(keyword, subject string) string {
	return fmt.Sprintf("No %s found for %s.", keyword, person.Capitalize(subject))
}

// Relation answers "who is <subject>'s <keyword>".
//
// Singular relations (mother, father, grandmother, grandfather) always name
// only the first of names, even when the fact base holds more than one.
func (f *Formatter) Relation(ctx context.Context, names []string, subject, keyword string) string {
	if len(names) == 0 {
		return NotFound(keyword, subject)
	}

	who := person.Capitalize(subject)
	if relation.IsSingular(keyword) || len(names) == 1 {
		return fmt.Sprintf("%s is %s's %s.", f.titles.Title(ctx, names[0]), who, keyword)
	}
	return fmt.Sprintf("%s are %s's %ss.", f.titleAll(ctx, names), who, keyword)
}

// Children answers "list children of <parent>".
func (f *Formatter) Children(ctx context.Context, names []string, parent string) string {
	who := person.Capitalize(parent)
	switch len(names) {
	case 0:
		return fmt.Sprintf("%s has no children in the knowledge base.", who)
	case 1:
		return fmt.Sprintf("%s is the child of %s.", f.titles.Title(ctx, names[0]), who)
	default:
		return fmt.Sprintf("%s are the children of %s.", f.titleAll(ctx, names), who)
	}
}

// Check answers "is <subject> a <keyword> of <object>".
func (f *Formatter) Check(ctx context.Context, holds bool, subject, keyword, object string) string {
	if holds {
		return fmt.Sprintf("Yes, %s is %s's %s.", f.titles.Title(ctx, subject), person.Capitalize(object), keyword)
	}
	return fmt.Sprintf("No, %s is not %s's %s.", f.titles.Title(ctx, subject), person.Capitalize(object), keyword)
}

func (f *Formatter) titleAll(ctx context.Context, names []string) string {
	titled := make([]string, len(names))
	for i, n := range names {
		titled[i] = f.titles.Title(ctx, n)
	}
	return strings.Join(titled, ", ")
}
