package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/hayathine/paperterrace/internal/annotation"
	"github.com/hayathine/paperterrace/internal/api"
	"github.com/hayathine/paperterrace/internal/config"
	"github.com/hayathine/paperterrace/internal/log"
)

// NewStampCmd creates the stamp command group.
func NewStampCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stamp",
		Short: "Place, list, and remove stamps on documents",
		Long: `Stamp manages reading stamps anchored to document pages.

Stamps are placed at normalized page coordinates in [0,1], measured from
the page's top-left corner, so they stay anchored to the same content at
any render size.`,
	}

	cmd.PersistentFlags().StringP("base-url", "u", config.DefaultBaseURL,
		"Backend API base URL")
	cmd.PersistentFlags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")

	cmd.AddCommand(newStampAddCmd())
	cmd.AddCommand(newStampListCmd())
	cmd.AddCommand(newStampRemoveCmd())

	return cmd
}

// stampClientFromFlags builds the API client shared by stamp subcommands.
func stampClientFromFlags(cmd *cobra.Command) (*api.Client, *slog.Logger, error) {
	baseURL, err := cmd.Flags().GetString("base-url")
	if err != nil {
		return nil, nil, err
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, nil, err
	}

	logger := log.NewCompactLogger(os.Stderr, getVerboseFlag(cmd))

	client, err := api.NewClient(baseURL,
		api.WithHTTPClient(&http.Client{Timeout: timeout}))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, logger, nil
}

// newStampAddCmd creates the stamp add command.
func newStampAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <document-id>",
		Short: "Place a stamp on a document page",
		Long: `Add places a stamp at a normalized position on a page.

The position is given as --x and --y in [0,1] relative to the page.

Examples:
  # A question stamp in the middle of page 3
  paperterrace stamp add 9f3c0d2a --page 3 --x 0.5 --y 0.5 --type question`,
		Args: cobra.ExactArgs(1),
		RunE: runStampAddCmd,
	}

	cmd.Flags().IntP("page", "p", 0, "1-based page number (required)")
	cmd.Flags().Float64P("x", "x", 0, "Normalized horizontal position in [0,1]")
	cmd.Flags().Float64P("y", "y", 0, "Normalized vertical position in [0,1]")
	cmd.Flags().String("type", "note", "Stamp type (e.g. note, question, important)")
	_ = cmd.MarkFlagRequired("page")

	return cmd
}

// runStampAddCmd executes the stamp add command.
func runStampAddCmd(cmd *cobra.Command, args []string) error {
	documentID := args[0]

	page, err := cmd.Flags().GetInt("page")
	if err != nil {
		return err
	}
	x, err := cmd.Flags().GetFloat64("x")
	if err != nil {
		return err
	}
	y, err := cmd.Flags().GetFloat64("y")
	if err != nil {
		return err
	}
	stampType, err := cmd.Flags().GetString("type")
	if err != nil {
		return err
	}

	client, logger, err := stampClientFromFlags(cmd)
	if err != nil {
		return err
	}

	layer := annotation.NewLayer(client, documentID, annotation.WithLogger(logger))
	stamp, err := layer.Place(cmd.Context(), page, x, y, stampType)
	if err != nil {
		return fmt.Errorf("failed to place stamp: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Placed %s stamp %s on page %d at (%.3f, %.3f)\n",
		stamp.Type, stamp.ID, stamp.PageNum, stamp.X, stamp.Y)
	return nil
}

// newStampListCmd creates the stamp list command.
func newStampListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <document-id>",
		Short: "List a document's stamps",
		Args:  cobra.ExactArgs(1),
		RunE:  runStampListCmd,
	}

	cmd.Flags().BoolP("json", "j", false, "Output stamps as JSON")

	return cmd
}

// runStampListCmd executes the stamp list command.
func runStampListCmd(cmd *cobra.Command, args []string) error {
	documentID := args[0]

	client, _, err := stampClientFromFlags(cmd)
	if err != nil {
		return err
	}

	stamps, err := client.ListStamps(cmd.Context(), documentID)
	if err != nil {
		return fmt.Errorf("failed to list stamps: %w", err)
	}

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	if asJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(stamps)
	}

	if len(stamps) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No stamps on %s\n", documentID)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d stamp(s) on %s:\n", len(stamps), documentID)
	for _, s := range stamps {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-36s page %3d  (%.3f, %.3f)  %s\n",
			s.ID, s.PageNum, s.X, s.Y, s.Type)
	}
	return nil
}

// newStampRemoveCmd creates the stamp remove command.
func newStampRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <document-id> <stamp-id>",
		Short: "Remove a stamp from a document",
		Long: `Remove deletes a stamp. The deletion is confirmed by the backend
before anything is forgotten locally, so a failed request changes nothing.`,
		Args: cobra.ExactArgs(2),
		RunE: runStampRemoveCmd,
	}
}

// runStampRemoveCmd executes the stamp remove command.
func runStampRemoveCmd(cmd *cobra.Command, args []string) error {
	documentID, stampID := args[0], args[1]

	client, logger, err := stampClientFromFlags(cmd)
	if err != nil {
		return err
	}

	// Seed the layer with the backend's stamps so removal can verify the id.
	stamps, err := client.ListStamps(cmd.Context(), documentID)
	if err != nil {
		return fmt.Errorf("failed to list stamps: %w", err)
	}

	layer := annotation.NewLayer(client, documentID, annotation.WithLogger(logger))
	layer.SetConfirmed(stamps)

	if err := layer.Remove(cmd.Context(), stampID); err != nil {
		return fmt.Errorf("failed to remove stamp: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed stamp %s from %s\n", stampID, documentID)
	return nil
}
