package mangle

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/kinship/pkg/kinship/factstore"
	"github.com/cognicore/kinship/pkg/kinship/internalerr"
)

func openFamily(t *testing.T, opts Options) *Store {
	t.Helper()
	s, err := OpenFile(filepath.Join(repoRoot(t), "testdata", "familytree.mg"), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func xs(t *testing.T, s *Store, predicate, bound string) []string {
	t.Helper()
	sols, err := s.Query(context.Background(), factstore.NewQuery(predicate, factstore.Free("X"), factstore.Bound(bound)))
	require.NoError(t, err)

	set := make(map[string]struct{})
	for _, sol := range sols {
		v, ok := sol.Lookup("X")
		require.True(t, ok)
		set[v] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func TestDerivedRelations(t *testing.T) {
	s := openFamily(t, Options{})

	tests := []struct {
		predicate string
		person    string
		want      []string
	}{
		{"father_of", "thabo", []string{"jacob"}},
		{"mother_of", "thabo", []string{"mpho"}},
		{"grandfather_of", "lerato", []string{"sipho"}},
		{"grandmother_of", "lerato", []string{"naledi"}},
		{"brother_of", "lerato", []string{"thabo"}},
		{"sister_of", "thabo", []string{"lerato"}},
		{"brother_of", "jacob", []string{"kabelo"}},
		{"uncle_of", "thabo", []string{"kabelo"}},
		{"aunt_of", "thabo", []string{"dineo"}},
		{"ancestor_of", "thabo", []string{"jacob", "mpho", "naledi", "sipho"}},
		{"parent_of", "sipho", []string{"dineo", "jacob", "kabelo"}},
		{"father_of", "sipho", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.predicate+"/"+tt.person, func(t *testing.T) {
			got := xs(t, s, tt.predicate, tt.person)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("%s(X, %s) mismatch (-want +got):\n%s", tt.predicate, tt.person, diff)
			}
		})
	}
}

func TestFullyBoundQuery(t *testing.T) {
	s := openFamily(t, Options{})
	ctx := context.Background()

	sols, err := s.Query(ctx, factstore.NewQuery("male", factstore.Bound("jacob")))
	require.NoError(t, err)
	assert.Len(t, sols, 1)

	sols, err = s.Query(ctx, factstore.NewQuery("male", factstore.Bound("mpho")))
	require.NoError(t, err)
	assert.Empty(t, sols)

	sols, err = s.Query(ctx, factstore.NewQuery("brother_of", factstore.Bound("thabo"), factstore.Bound("lerato")))
	require.NoError(t, err)
	assert.NotEmpty(t, sols)
}

func TestSiblingExcludesSelf(t *testing.T) {
	s := openFamily(t, Options{})

	sols, err := s.Query(context.Background(), factstore.NewQuery("sibling_of", factstore.Bound("thabo"), factstore.Bound("thabo")))
	require.NoError(t, err)
	assert.Empty(t, sols)
}

func TestUnknownPredicateIsEmpty(t *testing.T) {
	s := openFamily(t, Options{})

	sols, _ := s.Query(context.Background(), factstore.NewQuery("cousin_of", factstore.Free("X"), factstore.Bound("thabo")))
	assert.Empty(t, sols)
}

func TestInvalidName(t *testing.T) {
	s := openFamily(t, Options{})

	_, err := s.Query(context.Background(), factstore.NewQuery("male", factstore.Bound("o'neil")))
	require.Error(t, err)
	assert.True(t, internalerr.Is(err, internalerr.ErrInvalidName), "got %v", err)
}

func TestQueryAfterClose(t *testing.T) {
	s := openFamily(t, Options{})
	require.NoError(t, s.Close())

	_, err := s.Query(context.Background(), factstore.NewQuery("male", factstore.Bound("jacob")))
	assert.True(t, internalerr.Is(err, internalerr.ErrStoreClosed), "got %v", err)
}

func TestExtraFactsFeedRules(t *testing.T) {
	s := openFamily(t, Options{
		Facts: []factstore.Fact{
			factstore.NewFact("parent_of", "palesa", "thabo"),
			factstore.NewFact("female", "palesa"),
		},
	})

	assert.Equal(t, []string{"jacob"}, xs(t, s, "grandfather_of", "palesa"))
	assert.Equal(t, []string{"jacob", "mpho", "naledi", "sipho", "thabo"}, xs(t, s, "ancestor_of", "palesa"))
}

func TestCanceledContext(t *testing.T) {
	s := openFamily(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Query(ctx, factstore.NewQuery("male", factstore.Free("X")))
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	s := openFamily(t, Options{})

	stats := s.Stats()
	assert.Equal(t, 10, stats.PredicateCounts["parent_of"])
	assert.Equal(t, 4, stats.PredicateCounts["male"])
	assert.Greater(t, stats.TotalFacts, 18)
}

func TestOpenRejectsBadSource(t *testing.T) {
	_, err := Open("father_of(", Options{})
	assert.Error(t, err)
}

func TestOpenFileMissing(t *testing.T) {
	_, err := OpenFile(filepath.Join(t.TempDir(), "missing.mg"), Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFormatFacts(t *testing.T) {
	src, err := FormatFacts([]factstore.Fact{
		factstore.NewFact("male", "thabo"),
		factstore.NewFact("father_of", "jacob", "thabo"),
	})
	require.NoError(t, err)
	assert.Equal(t, "father_of(/jacob, /thabo).\nmale(/thabo).\n", src)

	_, err = FormatFacts([]factstore.Fact{factstore.NewFact("male", "Thabo Smith")})
	assert.True(t, internalerr.Is(err, internalerr.ErrInvalidName))

	_, err = FormatFacts([]factstore.Fact{factstore.NewFact("Male", "thabo")})
	assert.True(t, internalerr.Is(err, internalerr.ErrInvalidInput))
}

func repoRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime caller failed")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", "..", "..", ".."))
}
