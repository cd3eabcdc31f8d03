// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/artifact-engine/internal/corpus"
	"github.com/pdiddy/artifact-engine/internal/lint"
	"github.com/pdiddy/artifact-engine/internal/render"
	"github.com/pdiddy/artifact-engine/internal/session"
)

var validateCmd = &cobra.Command{
	Use:   "validate SESSION",
	Short: "Check a session's artifact for missing minimums",
	Long: `Validate runs the lightweight check over the session's latest snapshot:
section floors, required methodology markers, and the shape of any
cross-session references. Warnings are advisory; they never block saving.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var lintCmd = &cobra.Command{
	Use:   "lint SESSION",
	Short: "Run the full rule-coded lint over a session's artifact",
	Long: `Lint checks the session's latest snapshot against every rule family and
prints a severity-ranked report. The artifact passes when no rule of error
severity fires. Linting gates promotion (e.g. closing a session), not
saving: a below-minimum artifact may persist indefinitely.

The provenance rules take the valid citation range from the corpus index
unless lint.source_max overrides it.`,
	Args: cobra.ExactArgs(1),
	RunE: runLint,
}

func init() {
	validateCmd.Flags().Bool("json", false, "output warnings as JSON")
	lintCmd.Flags().Bool("json", false, "output the report as JSON")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(lintCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	store, err := session.NewStore(engineConfig().Session)
	if err != nil {
		return err
	}
	a, err := store.Latest(args[0])
	if err != nil {
		return err
	}

	warnings := lint.Validate(a)
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		out, err := json.MarshalIndent(warnings, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding warnings: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}
	fmt.Print(render.ValidationReport(warnings))
	return nil
}

func runLint(cmd *cobra.Command, args []string) error {
	cfg := engineConfig()
	store, err := session.NewStore(cfg.Session)
	if err != nil {
		return err
	}
	a, err := store.Latest(args[0])
	if err != nil {
		return err
	}

	opts := lint.Options{
		SourceMax:       cfg.Lint.SourceMax,
		ChastityPassage: cfg.Lint.ChastityPassage,
	}
	if opts.SourceMax == 0 {
		// Take the citation range from the corpus when one is present.
		if cs, err := corpus.NewStore(cfg.Corpus); err == nil {
			if n, err := cs.MaxPassage(context.Background()); err == nil {
				opts.SourceMax = n
			}
			cs.Close()
		}
	}

	report := lint.Lint(a, opts)
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		out, err := report.JSON()
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		fmt.Println(string(out))
	} else {
		fmt.Print(render.LintReport(report))
	}

	if !report.Valid {
		os.Exit(1)
	}
	return nil
}
