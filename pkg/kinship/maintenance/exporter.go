// Package maintenance moves ground facts in and out of the fact database and
// checks a family tree for data problems.
package maintenance

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cognicore/kinship/pkg/kinship/factstore"
	"github.com/cognicore/kinship/pkg/kinship/factstore/mangle"
	"github.com/cognicore/kinship/pkg/kinship/internalerr"
)

// Writer persists exported facts to a destination (file, stdout, etc.).
type Writer interface {
	WriteFacts(ctx context.Context, content string) error
}

// Exporter renders ground facts as Mangle source.
type Exporter struct {
	Writer Writer
}

// Export writes facts in a form the rules file can include or load.
func (e *Exporter) Export(ctx context.Context, facts []factstore.Fact) error {
	if e.Writer == nil {
		return internalerr.New("exporter: nil writer")
	}
	src, err := mangle.FormatFacts(facts)
	if err != nil {
		return internalerr.Wrap(err, "format facts")
	}
	return e.Writer.WriteFacts(ctx, src)
}

// FileWriter replaces the file at Path. The content is written to a
// temporary file first and renamed into place.
type FileWriter struct {
	Path string
}

func (w FileWriter) WriteFacts(ctx context.Context, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(w.Path), ".kinship-export-*")
	if err != nil {
		return internalerr.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return internalerr.Wrapf(err, "write %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return internalerr.Wrapf(err, "close %s", tmp.Name())
	}
	return internalerr.Wrapf(os.Rename(tmp.Name(), w.Path), "rename to %s", w.Path)
}
