// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/artifact-engine/internal/delta"
	"github.com/pdiddy/artifact-engine/internal/merge"
	"github.com/pdiddy/artifact-engine/internal/session"
	"github.com/pdiddy/artifact-engine/pkg/types"
)

var mergeCmd = &cobra.Command{
	Use:   "merge SESSION FILE",
	Short: "Parse deltas from a file and merge them into a session",
	Long: `Merge extracts delta blocks from FILE, applies the valid ones to the
session's latest snapshot, and persists the result as a new version.
A merge that hits any hard error (bad target, capacity, singleton misuse)
is not persisted; the report shows what would have applied.

Deltas already stamped with their own timestamp and agent keep them;
the --agent and --at values fill in the rest.`,
	Args: cobra.ExactArgs(2),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().String("agent", "", "acting agent identity (required)")
	mergeCmd.Flags().String("at", "", "delta timestamp, RFC 3339 (default: now)")
	mergeCmd.Flags().Bool("dry-run", false, "report the merge without persisting")
	mergeCmd.MarkFlagRequired("agent")

	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	sessionID, file := args[0], args[1]
	agent, _ := cmd.Flags().GetString("agent")
	at, _ := cmd.Flags().GetString("at")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if at == "" {
		at = types.Now()
	}

	text, err := readInput(file)
	if err != nil {
		return err
	}

	parsed := delta.Parse(text)
	for i, b := range parsed.Blocks {
		if !b.Valid() {
			fmt.Fprintf(os.Stderr, "skipping invalid block %d: %s\n", i+1, b.Reason)
		}
	}
	deltas := parsed.Valid()
	if len(deltas) == 0 {
		return fmt.Errorf("no valid deltas in %s", file)
	}

	store, err := session.NewStore(engineConfig().Session)
	if err != nil {
		return err
	}
	base, err := store.Latest(sessionID)
	if err != nil {
		return err
	}

	res := merge.Merge(base, deltas, agent, at)

	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning %s: %s\n", w.Code, w.Message)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(os.Stderr, "error %s: %s\n", e.Code, e.Message)
	}
	fmt.Printf("applied %d, skipped %d\n", res.AppliedCount, res.SkippedCount)

	if !res.Success {
		return fmt.Errorf("merge failed; session %s not updated", sessionID)
	}
	if dryRun {
		fmt.Println("dry run; nothing persisted")
		return nil
	}
	if err := store.Save(res.Artifact); err != nil {
		return err
	}
	fmt.Printf("session %s now at version %d\n", sessionID, res.Artifact.Metadata.Version)
	return nil
}
