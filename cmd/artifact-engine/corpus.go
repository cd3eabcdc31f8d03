// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/artifact-engine/internal/corpus"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage the source-material corpus (index, search, fetch, trace)",
	Long: `Corpus manages the numbered source passages that artifact anchors cite.
Passages are stored in a SQLite database with full-text search; their
numbers are stable, so §N citations in an artifact keep meaning the same
passage as the corpus grows.`,
}

var corpusIndexCmd = &cobra.Command{
	Use:   "index SOURCE FILE",
	Short: "Split a text file into numbered passages and index them",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(args[1])
		if err != nil {
			return err
		}
		store, err := corpusStore()
		if err != nil {
			return err
		}
		defer store.Close()

		nums, err := store.Index(context.Background(), args[0], text)
		if err != nil {
			return err
		}
		fmt.Printf("indexed %d passage(s): §%d-§%d\n", len(nums), nums[0], nums[len(nums)-1])
		return nil
	},
}

var corpusFetchCmd = &cobra.Command{
	Use:   "fetch SOURCE URL",
	Short: "Download source text over HTTP and index it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := engineConfig().Corpus
		text, err := corpus.Fetch(context.Background(), cfg.HTTPConfig, args[1])
		if err != nil {
			return err
		}
		store, err := corpusStore()
		if err != nil {
			return err
		}
		defer store.Close()

		nums, err := store.Index(context.Background(), args[0], text)
		if err != nil {
			return err
		}
		fmt.Printf("fetched and indexed %d passage(s): §%d-§%d\n", len(nums), nums[0], nums[len(nums)-1])
		return nil
	},
	Args: cobra.ExactArgs(2),
}

var corpusSearchCmd = &cobra.Command{
	Use:   "search QUERY...",
	Short: "Keyword search over the indexed passages",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("max-results")
		store, err := corpusStore()
		if err != nil {
			return err
		}
		defer store.Close()

		results, err := store.Search(context.Background(), strings.Join(args, " "), limit)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Println("no matches")
			return nil
		}
		for _, p := range results {
			fmt.Printf("%s [%s]\n  %s\n", p.Ref(), p.Source, snippet(p.Text))
		}
		return nil
	},
}

var corpusTraceCmd = &cobra.Command{
	Use:   "trace N",
	Short: "Show the passage a §N citation points at",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		num, err := strconv.Atoi(strings.TrimPrefix(args[0], "§"))
		if err != nil {
			return fmt.Errorf("invalid passage number %q", args[0])
		}
		store, err := corpusStore()
		if err != nil {
			return err
		}
		defer store.Close()

		p, err := store.Trace(context.Background(), num)
		if err != nil {
			return err
		}
		fmt.Printf("%s [%s]\n%s\n", p.Ref(), p.Source, p.Text)
		return nil
	},
}

func corpusStore() (*corpus.Store, error) {
	return corpus.NewStore(engineConfig().Corpus)
}

func snippet(text string) string {
	const window = 160
	text = strings.ReplaceAll(text, "\n", " ")
	if len(text) > window {
		return text[:window] + "..."
	}
	return text
}

func init() {
	corpusSearchCmd.Flags().Int("max-results", 0, "maximum number of results (default from config)")

	corpusCmd.AddCommand(corpusIndexCmd)
	corpusCmd.AddCommand(corpusFetchCmd)
	corpusCmd.AddCommand(corpusSearchCmd)
	corpusCmd.AddCommand(corpusTraceCmd)

	rootCmd.AddCommand(corpusCmd)
}
