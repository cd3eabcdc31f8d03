// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/artifact-engine/internal/render"
	"github.com/pdiddy/artifact-engine/internal/session"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage session snapshot archives (init, list, versions, close)",
	Long: `Session manages the on-disk snapshot archive: one directory per session,
one YAML snapshot per version. Sessions are never deleted; closing one
marks it closed and keeps its history.`,
}

var sessionInitCmd = &cobra.Command{
	Use:   "init SESSION",
	Short: "Create a new empty session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sessionStore()
		if err != nil {
			return err
		}
		a, err := store.Init(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("session %s created at version %d\n", a.Metadata.SessionID, a.Metadata.Version)
		return nil
	},
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sessionStore()
		if err != nil {
			return err
		}
		ids, err := store.List()
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

var sessionVersionsCmd = &cobra.Command{
	Use:   "versions SESSION",
	Short: "List a session's stored versions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sessionStore()
		if err != nil {
			return err
		}
		versions, err := store.Versions(args[0])
		if err != nil {
			return err
		}
		for _, v := range versions {
			fmt.Println(v)
		}
		return nil
	},
}

var sessionCloseCmd = &cobra.Command{
	Use:   "close SESSION",
	Short: "Mark a session closed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sessionStore()
		if err != nil {
			return err
		}
		a, err := store.Close(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("session %s closed at version %d\n", a.Metadata.SessionID, a.Metadata.Version)
		return nil
	},
}

var renderCmd = &cobra.Command{
	Use:   "render SESSION",
	Short: "Render a session's latest artifact as markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sessionStore()
		if err != nil {
			return err
		}
		a, err := store.Latest(args[0])
		if err != nil {
			return err
		}
		fmt.Print(render.Markdown(a))
		return nil
	},
}

func sessionStore() (*session.Store, error) {
	return session.NewStore(engineConfig().Session)
}

func init() {
	sessionCmd.AddCommand(sessionInitCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionVersionsCmd)
	sessionCmd.AddCommand(sessionCloseCmd)

	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(renderCmd)
}
