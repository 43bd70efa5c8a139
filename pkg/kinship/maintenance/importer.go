package maintenance

import (
	"context"
	"os"

	"github.com/cognicore/kinship/pkg/kinship/factstore"
	"github.com/cognicore/kinship/pkg/kinship/factstore/mangle"
	"github.com/cognicore/kinship/pkg/kinship/factstore/simple"
	"github.com/cognicore/kinship/pkg/kinship/internalerr"
)

// FactSink receives a complete replacement fact set.
type FactSink interface {
	ReplaceFacts(ctx context.Context, facts []factstore.Fact) error
}

// ImportFile parses a Prolog-style fact file and replaces the contents of
// sink with it. It returns the number of facts imported.
//
// Every fact must also be loadable by the rules engine, so names are checked
// against the same rules the Mangle store applies before anything is written.
func ImportFile(ctx context.Context, sink FactSink, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, internalerr.Wrapf(err, "read %s", path)
	}

	facts, err := simple.ParseFacts(string(data))
	if err != nil {
		return 0, internalerr.Wrapf(err, "parse %s", path)
	}
	if _, err := mangle.FormatFacts(facts); err != nil {
		return 0, internalerr.Wrapf(err, "check %s", path)
	}

	if err := sink.ReplaceFacts(ctx, facts); err != nil {
		return 0, internalerr.Wrap(err, "replace facts")
	}
	return len(facts), nil
}
