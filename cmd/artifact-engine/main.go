// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the artifact-engine CLI.
//
// The engine maintains collaboratively authored research artifacts:
// free-text contributions carry fenced delta blocks, the CLI parses and
// merges them into versioned session snapshots, and separate commands
// validate, lint, diff, and render the result. The source corpus and
// glossary commands manage the reference material that artifact
// anchors cite.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/artifact-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the artifact-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "artifact-engine",
	Short: "Collaborative research artifact maintenance",
	Long: `artifact-engine maintains a structured research artifact built by several
independent contributors. Contributions arrive as small delta statements
embedded in free text; the engine reduces them deterministically into one
canonical document, checks it against the methodology rules, and compares
versions so a reviewer can audit what changed.

Each stage is a subcommand: parse, merge, validate, lint, diff, and render
operate on session snapshots; session, corpus, and glossary manage the
stores around them.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./artifact-engine.yaml or ~/.config/artifact-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("artifact-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "artifact-engine"))
		}
	}

	viper.SetEnvPrefix("ARTIFACT_ENGINE")
	viper.AutomaticEnv()

	viper.SetDefault("session.sessions_dir", "sessions")
	viper.SetDefault("corpus.corpus_dir", "corpus")
	viper.SetDefault("corpus.max_results", 20)
	viper.SetDefault("corpus.timeout", 30*time.Second)
	viper.SetDefault("corpus.user_agent", "artifact-engine/0.1")
	viper.SetDefault("lint.chastity_passage", 31)
	viper.SetDefault("glossary.path", "glossary.yaml")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// engineConfig builds the typed configuration from viper state.
func engineConfig() types.Config {
	var cfg types.Config
	cfg.Session.SessionsDir = viper.GetString("session.sessions_dir")
	cfg.Corpus.CorpusDir = viper.GetString("corpus.corpus_dir")
	cfg.Corpus.MaxResults = viper.GetInt("corpus.max_results")
	cfg.Corpus.Timeout = viper.GetDuration("corpus.timeout")
	cfg.Corpus.UserAgent = viper.GetString("corpus.user_agent")
	cfg.Lint.SourceMax = viper.GetInt("lint.source_max")
	cfg.Lint.ChastityPassage = viper.GetInt("lint.chastity_passage")
	cfg.Glossary.Path = viper.GetString("glossary.path")
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
