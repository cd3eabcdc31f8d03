// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/artifact-engine/internal/glossary"
)

var glossaryCmd = &cobra.Command{
	Use:   "glossary [TERM]",
	Short: "Look up a term in the jargon glossary",
	Long: `Glossary resolves research jargon against the configured glossary file.
With no argument it lists every known term.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := glossary.Load(engineConfig().Glossary.Path)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			for _, term := range g.Terms() {
				fmt.Println(term)
			}
			return nil
		}
		entry, ok := g.Lookup(args[0])
		if !ok {
			return fmt.Errorf("unknown term %q", args[0])
		}
		fmt.Printf("%s: %s\n", entry.Term, entry.Definition)
		if len(entry.Aliases) > 0 {
			fmt.Printf("also: %s\n", strings.Join(entry.Aliases, ", "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(glossaryCmd)
}
