package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hayathine/paperterrace/internal/api"
	"github.com/hayathine/paperterrace/internal/cache"
	"github.com/hayathine/paperterrace/internal/config"
	"github.com/hayathine/paperterrace/internal/loader"
	"github.com/hayathine/paperterrace/internal/log"
	"github.com/hayathine/paperterrace/internal/model"
	"github.com/hayathine/paperterrace/internal/search"
	"github.com/hayathine/paperterrace/internal/session"
	"github.com/hayathine/paperterrace/internal/stream"
)

// searchContextWords is the number of words shown on each side of a match.
const searchContextWords = 4

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <document-id> <term>",
		Short: "Search a document's text for a term",
		Long: `Search finds every occurrence of a term in a document's recognized text.

Matching is case-insensitive using Unicode case folding, so "straße"
matches "STRASSE". The document is loaded the same way the load command
loads it: from the local cache when possible, otherwise from the backend.

Examples:
  # Find a term in a document
  paperterrace search 9f3c0d2a attention

  # Machine-readable match list
  paperterrace search --json 9f3c0d2a attention`,
		Args: cobra.ExactArgs(2),
		RunE: runSearchCmd,
	}

	cmd.Flags().StringP("base-url", "u", config.DefaultBaseURL,
		"Backend API base URL")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each non-streaming request")
	cmd.Flags().String("cache-dir", "",
		"Cache directory (default: XDG cache directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Output matches as JSON")

	return cmd
}

// searchHit is one match in machine-readable output.
type searchHit struct {
	// PageNum is the 1-based page of the match.
	PageNum int `json:"page_num"`

	// WordIndex is the index into the page's word array.
	WordIndex int `json:"word_index"`

	// Snippet is the match with a few words of surrounding context.
	Snippet string `json:"snippet"`
}

// runSearchCmd executes the search command.
func runSearchCmd(cmd *cobra.Command, args []string) error {
	documentID, term := args[0], args[1]

	baseURL, err := cmd.Flags().GetString("base-url")
	if err != nil {
		return err
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}
	cacheDir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return err
	}
	if cacheDir == "" {
		cacheDir = config.XDGCacheDir()
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	logger := log.NewCompactLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)

	// Cache-first load, same as the load command.
	var store *cache.Store
	if s, err := cache.Open(cacheDir, cache.DefaultOptions()); err != nil {
		logger.Warn("cache unavailable, loading without it", "dir", cacheDir, "error", err)
	} else {
		store = s
		defer store.Close()
	}

	client, err := api.NewClient(baseURL,
		api.WithHTTPClient(&http.Client{Timeout: timeout}))
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	opts := []loader.Option{loader.WithLogger(logger)}
	if store != nil {
		opts = append(opts, loader.WithStore(store))
	}
	gw := loader.New(client, stream.New(&http.Client{}, stream.WithLogger(logger)), session.New(), opts...)

	result, err := gw.Load(cmd.Context(), documentID, nil)
	if err != nil {
		return fmt.Errorf("failed to load document %s: %w", documentID, err)
	}

	matches := search.Find(term, result.Pages)
	hits := make([]searchHit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, searchHit{
			PageNum:   m.PageNum,
			WordIndex: m.WordIndex,
			Snippet:   matchSnippet(result.Pages, m),
		})
	}

	if asJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(hits)
	}

	if len(hits) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No matches for %q in %s\n", term, documentID)
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d match(es) for %q in %s:\n", len(hits), term, documentID)
	for _, h := range hits {
		fmt.Fprintf(cmd.OutOrStdout(), "  page %3d: %s\n", h.PageNum, h.Snippet)
	}
	return nil
}

// matchSnippet renders a match with surrounding words for context.
func matchSnippet(pages []*model.Page, m model.SearchMatch) string {
	for _, p := range pages {
		if p.PageNum != m.PageNum {
			continue
		}
		lo := max(m.WordIndex-searchContextWords, 0)
		hi := min(m.WordIndex+searchContextWords+1, len(p.Words))

		parts := make([]string, 0, hi-lo)
		for i := lo; i < hi; i++ {
			text := p.Words[i].Text
			if i == m.WordIndex {
				text = "[" + text + "]"
			}
			parts = append(parts, text)
		}
		return strings.Join(parts, " ")
	}
	return ""
}
