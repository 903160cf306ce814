package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hayathine/paperterrace/internal/cache"
	"github.com/hayathine/paperterrace/internal/config"
)

// NewCacheCmd creates the cache command group.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the local document cache",
		Long: `Cache manages the local document cache.

Loaded documents are written to a local SQLite database so reopening them
is instant and needs no network access. The subcommands list cached
documents, delete individual entries, and prune entries that have not
been read recently.`,
	}

	cmd.PersistentFlags().String("cache-dir", "",
		"Cache directory (default: XDG cache directory)")

	cmd.AddCommand(newCacheListCmd())
	cmd.AddCommand(newCacheDeleteCmd())
	cmd.AddCommand(newCachePruneCmd())

	return cmd
}

// openCacheFromFlags opens the cache store named by the --cache-dir flag.
func openCacheFromFlags(cmd *cobra.Command) (*cache.Store, error) {
	dir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return nil, err
	}
	if dir == "" {
		dir = config.XDGCacheDir()
	}

	// Maintenance commands never create a new database; an absent cache
	// just means there is nothing to manage.
	opts := cache.DefaultOptions()
	opts.CreateIfNotExists = false

	store, err := cache.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache in %s: %w", dir, err)
	}
	return store, nil
}

// newCacheListCmd creates the cache list command.
func newCacheListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached documents",
		Long: `List shows every cached document with its size and last access time,
most recently read first.

Examples:
  # Human-readable listing
  paperterrace cache list

  # Machine-readable listing
  paperterrace cache list --json`,
		Args: cobra.NoArgs,
		RunE: runCacheListCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Output listing as JSON")

	return cmd
}

// runCacheListCmd executes the cache list command.
func runCacheListCmd(cmd *cobra.Command, _ []string) error {
	store, err := openCacheFromFlags(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list cache: %w", err)
	}

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	if asJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Cache is empty")
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d cached document(s):\n", len(entries))
	for _, e := range entries {
		title := e.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %-20s %-40s %8s  %s\n",
			e.DocumentID, title, formatBytes(e.LayoutBytes),
			e.LastAccessed.Format("2006-01-02 15:04"))
	}
	return nil
}

// newCacheDeleteCmd creates the cache delete command.
func newCacheDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document-id>...",
		Short: "Delete cached documents",
		Long: `Delete removes specific documents from the cache.

The documents themselves are unaffected; the next load simply goes to
the backend again.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCacheDeleteCmd,
	}
}

// runCacheDeleteCmd executes the cache delete command.
func runCacheDeleteCmd(cmd *cobra.Command, args []string) error {
	store, err := openCacheFromFlags(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, documentID := range args {
		if err := store.Delete(cmd.Context(), documentID); err != nil {
			return fmt.Errorf("failed to delete %s: %w", documentID, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", documentID)
	}
	return nil
}

// newCachePruneCmd creates the cache prune command.
func newCachePruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove cache entries not read recently",
		Long: `Prune removes cached documents whose last access is older than the
given age.

Examples:
  # Drop documents untouched for 30 days
  paperterrace cache prune --older-than 720h`,
		Args: cobra.NoArgs,
		RunE: runCachePruneCmd,
	}

	cmd.Flags().Duration("older-than", 30*24*time.Hour,
		"Remove entries last accessed longer ago than this")

	return cmd
}

// runCachePruneCmd executes the cache prune command.
func runCachePruneCmd(cmd *cobra.Command, _ []string) error {
	olderThan, err := cmd.Flags().GetDuration("older-than")
	if err != nil {
		return err
	}
	if olderThan <= 0 {
		return fmt.Errorf("invalid --older-than %v: must be positive", olderThan)
	}

	store, err := openCacheFromFlags(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	removed, err := store.Prune(cmd.Context(), olderThan)
	if err != nil {
		return fmt.Errorf("failed to prune cache: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d document(s)\n", removed)
	return nil
}

// formatBytes renders a byte count in human-readable units.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMG"[exp])
}
