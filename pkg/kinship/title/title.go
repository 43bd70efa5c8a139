// Package title prefixes display names with a gender honorific.
package title

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/cognicore/kinship/pkg/kinship/person"
	"github.com/cognicore/kinship/pkg/kinship/relation"
)

// Prover answers fully bound fact checks such as male(jacob).
type Prover interface {
	Holds(ctx context.Context, predicate relation.Predicate, args ...string) bool
}

// Honorifics are the prefixes for male and female names.
type Honorifics struct {
	Male   string
	Female string
}

// DefaultHonorifics are the Sesotho titles.
func DefaultHonorifics() Honorifics {
	return Honorifics{Male: "Ntate", Female: "Mme"}
}

// Resolver computes titled display names.
// The fact base never changes while the process runs, so results are memoized.
type Resolver struct {
	prover     Prover
	honorifics Honorifics
	cache      *gocache.Cache
}

// Options configures a Resolver.
type Options struct {
	Honorifics Honorifics
	// CacheTTL bounds how long a title is memoized; zero disables the cache.
	CacheTTL time.Duration
}

// New creates a resolver. Empty honorifics fall back to DefaultHonorifics.
func New(prover Prover, opts Options) *Resolver {
	h := opts.Honorifics
	def := DefaultHonorifics()
	if h.Male == "" {
		h.Male = def.Male
	}
	if h.Female == "" {
		h.Female = def.Female
	}

	r := &Resolver{prover: prover, honorifics: h}
	if opts.CacheTTL > 0 {
		r.cache = gocache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return r
}

// Title returns "<Male> Name" if male(name) holds, else "<Female> Name" if
// female(name) holds, else the bare capitalized name. Male is checked first,
// so a name asserted as both gets the male title.
func (r *Resolver) Title(ctx context.Context, name string) string {
	key := person.Normalize(name)
	if r.cache != nil {
		if v, ok := r.cache.Get(key); ok {
			return v.(string)
		}
	}

	display := person.Capitalize(key)
	switch {
	case r.prover.Holds(ctx, relation.Male, key):
		display = r.honorifics.Male + " " + display
	case r.prover.Holds(ctx, relation.Female, key):
		display = r.honorifics.Female + " " + display
	}

	if r.cache != nil {
		r.cache.SetDefault(key, display)
	}
	return display
}
