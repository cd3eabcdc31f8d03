// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/artifact-engine/internal/delta"
)

var parseCmd = &cobra.Command{
	Use:   "parse FILE",
	Short: "Extract and validate delta blocks from a text file",
	Long: `Parse scans a free-text file for fenced delta blocks, parses each block,
and validates it against the operation and section rules. Malformed blocks
are reported with a reason; parsing never aborts on a bad block.

Use "-" to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().Bool("json", false, "output the full parse result as JSON")

	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	text, err := readInput(args[0])
	if err != nil {
		return err
	}

	res := delta.Parse(text)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding parse result: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("%d block(s): %d valid, %d invalid\n",
		res.TotalBlocks, res.ValidCount, res.InvalidCount)
	for i, b := range res.Blocks {
		if b.Valid() {
			fmt.Printf("  %d. %s %s", i+1, b.Delta.Operation, b.Delta.Section)
			if b.Delta.TargetID != "" {
				fmt.Printf(" %s", b.Delta.TargetID)
			}
			fmt.Println()
		} else {
			fmt.Printf("  %d. invalid: %s\n", i+1, b.Reason)
		}
	}
	return nil
}

func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
