package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/cognicore/kinship/pkg/kinship/factstore/sqlite"
	"github.com/cognicore/kinship/pkg/kinship/internalerr"
	"github.com/cognicore/kinship/pkg/kinship/maintenance"
)

func newImportCmd(a *app) *cobra.Command {
	var factsPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the fact database with a Prolog-style fact file",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, err := a.databasePath()
			if err != nil {
				return err
			}

			db, err := sqlite.OpenSQLite(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := maintenance.ImportFile(cmd.Context(), db, factsPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d facts into %s\n", n, dbPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&factsPath, "facts", "", "fact file to import (required)")
	_ = cmd.MarkFlagRequired("facts")
	return cmd
}

// streamWriter sends exported facts to an io.Writer such as stdout.
type streamWriter struct {
	w io.Writer
}

func (s streamWriter) WriteFacts(ctx context.Context, content string) error {
	_, err := io.WriteString(s.w, content)
	return err
}

func newExportCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the fact database as Mangle source",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, err := a.databasePath()
			if err != nil {
				return err
			}

			db, err := sqlite.OpenSQLite(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			facts, err := db.LoadFacts(cmd.Context())
			if err != nil {
				return err
			}

			var w maintenance.Writer = maintenance.FileWriter{Path: out}
			if out == "" || out == "-" {
				w = streamWriter{w: cmd.OutOrStdout()}
			}
			exporter := maintenance.Exporter{Writer: w}
			return exporter.Export(cmd.Context(), facts)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	return cmd
}

func newAuditCmd(a *app) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Report missing genders and ambiguous parents in the fact base",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			log, err := a.logger(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			store, err := buildStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer store.Close()

			rep, err := maintenance.Audit(cmd.Context(), store)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), rep)

			if strict && !rep.Clean() {
				return internalerr.New("audit found problems")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when problems are found")
	return cmd
}

func printReport(out io.Writer, rep maintenance.Report) {
	fmt.Fprintf(out, "%d people\n", rep.People)
	for _, p := range rep.MissingGender {
		fmt.Fprintf(out, "  no gender: %s\n", p)
	}
	for _, p := range rep.BothGenders {
		fmt.Fprintf(out, "  male and female: %s\n", p)
	}

	queries := make([]string, 0, len(rep.Conflicts))
	for q := range rep.Conflicts {
		queries = append(queries, q)
	}
	sort.Strings(queries)
	for _, q := range queries {
		fmt.Fprintf(out, "  several answers for %s: %v\n", q, rep.Conflicts[q])
	}

	if rep.Clean() {
		fmt.Fprintln(out, "no problems found")
	}
}
