package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/kinship/pkg/kinship"
)

func newAskCmd(a *app) *cobra.Command {
	var explain bool

	cmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Answer a question, or start an interactive session",
		Example: `  kinship ask --rules testdata/familytree.mg "Who is Thabo's father?"
  kinship ask --config testdata/config.yaml`,
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

			engine, cleanup, err := buildEngine(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()

			// One-shot query mode
			if len(args) > 0 {
				return answer(cmd.Context(), out, engine, strings.Join(args, " "), explain)
			}

			// Interactive mode
			fmt.Fprintln(out, "Ask about the family (Ctrl+D to exit):")
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					break
				}
				q := strings.TrimSpace(scanner.Text())
				if q == "" {
					continue
				}
				if err := answer(cmd.Context(), out, engine, q, explain); err != nil {
					fmt.Fprintln(out, "Error:", err)
				}
			}
			fmt.Fprintln(out)
			return scanner.Err()
		},
	}

	cmd.Flags().BoolVar(&explain, "explain", false, "print how the answer was reached")
	return cmd
}

func answer(ctx context.Context, out io.Writer, engine *kinship.Engine, q string, explain bool) error {
	if !explain {
		_, err := fmt.Fprintln(out, engine.Ask(ctx, q))
		return err
	}

	data, err := yaml.Marshal(engine.Explain(ctx, q))
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}
