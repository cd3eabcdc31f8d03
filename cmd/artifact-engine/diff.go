// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pdiddy/artifact-engine/internal/diff"
	"github.com/pdiddy/artifact-engine/internal/render"
	"github.com/pdiddy/artifact-engine/internal/session"
)

var diffCmd = &cobra.Command{
	Use:   "diff SESSION V1 V2",
	Short: "Compare two stored versions of a session's artifact",
	Long: `Diff loads two stored versions of the session and prints the structured
comparison: per-section additions, kills, and edits, plus the coarse
progress classification. The versions are assumed causally related;
V1 is the older snapshot.`,
	Args: cobra.ExactArgs(3),
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().Bool("json", false, "output the diff as JSON")

	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	v1, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid version %q", args[1])
	}
	v2, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid version %q", args[2])
	}

	store, err := session.NewStore(engineConfig().Session)
	if err != nil {
		return err
	}
	before, err := store.Version(args[0], v1)
	if err != nil {
		return err
	}
	after, err := store.Version(args[0], v2)
	if err != nil {
		return err
	}

	d := diff.Diff(before, after)
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		out, err := d.JSON()
		if err != nil {
			return fmt.Errorf("encoding diff: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}
	fmt.Print(render.DiffReport(d))
	return nil
}
