// Package main provides the entry point for the PaperTerrace CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for PaperTerrace.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paperterrace",
		Short: "Document loader and reader backend client",
		Long: `PaperTerrace loads analyzed documents from the reading backend and keeps
a local cache so previously read documents open instantly, without any
network access.

A load consults the cache first, then tries a one-shot fetch of completed
analysis, and finally falls back to the incremental analysis stream where
pages render as they arrive.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewLoadCmd())
	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewStampCmd())
	cmd.AddCommand(NewCropCmd())
	cmd.AddCommand(NewCacheCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
