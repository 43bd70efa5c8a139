// Package relation maps the kinship words a question may use to the fact
// base predicates that answer them.
package relation

import (
	"sort"

	"github.com/cognicore/kinship/pkg/kinship/internalerr"
)

// Predicate is the name of a relation in the fact base. Binary predicates
// read "P(X, Y): X is the <relation> of Y"; parent_of is the exception and
// reads "parent_of(Child, Parent)".
type Predicate string

const (
	FatherOf      Predicate = "father_of"
	MotherOf      Predicate = "mother_of"
	GrandfatherOf Predicate = "grandfather_of"
	GrandmotherOf Predicate = "grandmother_of"
	BrotherOf     Predicate = "brother_of"
	SisterOf      Predicate = "sister_of"
	UncleOf       Predicate = "uncle_of"
	AuntOf        Predicate = "aunt_of"
	AncestorOf    Predicate = "ancestor_of"
	ParentOf      Predicate = "parent_of"

	Male   Predicate = "male"
	Female Predicate = "female"
)

// keywords is closed: any word not listed is not a relation.
var keywords = map[string]Predicate{
	"father":      FatherOf,
	"mother":      MotherOf,
	"grandfather": GrandfatherOf,
	"grandmother": GrandmotherOf,
	"brother":     BrotherOf,
	"sister":      SisterOf,
	"uncle":       UncleOf,
	"aunt":        AuntOf,
	"ancestor":    AncestorOf,
}

// singular relations report at most one person.
var singular = map[string]bool{
	"mother":      true,
	"father":      true,
	"grandmother": true,
	"grandfather": true,
}

// Resolve returns the predicate for keyword, or ErrUnknownRelation.
func Resolve(keyword string) (Predicate, error) {
	p, ok := keywords[keyword]
	if !ok {
		return "", internalerr.Wrapf(internalerr.ErrUnknownRelation, "%q", keyword)
	}
	return p, nil
}

// IsSingular reports whether answers for keyword name only one person.
func IsSingular(keyword string) bool {
	return singular[keyword]
}

// Keywords lists the recognized relation words in alphabetical order.
func Keywords() []string {
	out := make([]string, 0, len(keywords))
	for k := range keywords {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (p Predicate) String() string {
	return string(p)
}
