package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hayathine/paperterrace/internal/api"
	"github.com/hayathine/paperterrace/internal/cache"
	"github.com/hayathine/paperterrace/internal/config"
	"github.com/hayathine/paperterrace/internal/export"
	"github.com/hayathine/paperterrace/internal/loader"
	"github.com/hayathine/paperterrace/internal/log"
	"github.com/hayathine/paperterrace/internal/session"
	"github.com/hayathine/paperterrace/internal/stream"
)

// NewLoadCmd creates the load command.
func NewLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load [document-id]",
		Short: "Load analyzed documents and export their text and layout",
		Long: `Load retrieves analyzed documents from the reading backend.

Each load consults the local cache first: a previously loaded document is
served instantly with no network access. On a cache miss the backend is
asked for completed analysis in one fetch, and if none exists, a new
analysis session is started and pages stream in incrementally.

Examples:
  # Load a single document and print its text
  paperterrace load 9f3c0d2a

  # Load several documents concurrently
  paperterrace load 9f3c0d2a 551b7fe0 a0c93d11

  # Export as Markdown into a file
  paperterrace load --markdown -o report.md 9f3c0d2a

  # Force a fresh load, ignoring the cache
  paperterrace load --no-cache 9f3c0d2a

  # Use a custom configuration file
  paperterrace load -c myconfig.yaml 9f3c0d2a

Configuration file (.paperterrace) example:
  defaults:
    language: en
  documents:
    9f3c0d2a:
      language: ja
    551b7fe0:
      skipCache: true`,
		Args: cobra.ArbitraryArgs,
		RunE: runLoadCmd,
	}

	// Backend flags
	cmd.Flags().StringP("base-url", "u", config.DefaultBaseURL,
		"Backend API base URL")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each non-streaming request")
	cmd.Flags().IntP("retry", "r", config.DefaultRetryAttempts,
		"Stream connection attempts before a load fails")
	cmd.Flags().StringP("language", "l", config.DefaultLanguage,
		"Analysis language for new sessions")

	// Cache flags
	cmd.Flags().Bool("no-cache", false,
		"Skip cache reads and always go to the backend")
	cmd.Flags().String("cache-dir", "",
		"Cache directory (default: XDG cache directory)")

	// Batch loading flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent loads")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .paperterrace in current or home directory)")

	// Export flags
	cmd.Flags().BoolP("json", "j", false,
		"Export JSON (mutually exclusive with --markdown and --text)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Export Markdown (mutually exclusive with --json and --text)")
	cmd.Flags().Bool("text", false,
		"Export reading-order text with a document header")
	cmd.Flags().StringP("output", "o", "",
		"Write export to specified file path (creates directories if needed)")

	return cmd
}

// runLoadCmd executes the load command.
func runLoadCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	logger := log.NewCompactLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runLoad(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.BaseURL, err = cmd.Flags().GetString("base-url")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.RetryAttempts, err = cmd.Flags().GetInt("retry")
	if err != nil {
		return nil, err
	}

	cfg.Language, err = cmd.Flags().GetString("language")
	if err != nil {
		return nil, err
	}

	cfg.NoCache, err = cmd.Flags().GetBool("no-cache")
	if err != nil {
		return nil, err
	}

	cacheDir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return nil, err
	}
	if cacheDir != "" {
		cfg.CacheDir = cacheDir
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load per-document configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.DocumentConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.DocumentConfigs = &config.File{
			Documents: make(map[string]config.DocumentConfig),
		}
	}

	cfg.JSONExport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownExport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.TextExport, err = cmd.Flags().GetBool("text")
	if err != nil {
		return nil, err
	}

	cfg.OutputFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	// Get positional arguments (document IDs)
	cfg.Documents = args

	return cfg, nil
}

// runLoad executes the load.
func runLoad(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting load",
		"documents", cfg.Documents,
		"batchSize", cfg.BatchSize,
		"noCache", cfg.NoCache,
	)

	// Open the cache store. A failure here degrades to cacheless loads
	// rather than aborting: the backend paths still work.
	var store *cache.Store
	if cfg.CacheDir != "" {
		var err error
		store, err = cache.Open(cfg.CacheDir, cache.DefaultOptions())
		if err != nil {
			logger.Warn("cache unavailable, loading without it", "dir", cfg.CacheDir, "error", err)
		} else {
			defer store.Close()
			logger.Info("cache opened", "dir", cfg.CacheDir)
		}
	}

	client, err := api.NewClient(cfg.BaseURL,
		api.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	// The stream connection carries no overall timeout: analysis of a long
	// document legitimately takes minutes and the feed stays open throughout.
	ingestor := stream.New(&http.Client{},
		stream.WithMaxAttempts(cfg.RetryAttempts),
		stream.WithLogger(logger),
	)

	if len(cfg.Documents) > 1 && cfg.BatchSize > 1 {
		return runBatchLoad(ctx, cfg, client, store, ingestor, logger)
	}
	return runSequentialLoad(ctx, cfg, client, store, ingestor, logger)
}

// runSequentialLoad loads documents one at a time.
func runSequentialLoad(ctx context.Context, cfg *config.Config, client *api.Client, store *cache.Store, ingestor *stream.Ingestor, logger *slog.Logger) error {
	for _, documentID := range cfg.Documents {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Printf("Loading %s...\n", documentID)
		startTime := time.Now()

		doc, err := loadOne(ctx, cfg, client, store, ingestor, documentID, logger, progressPrinter())
		if err != nil {
			logger.Error("load failed", "document", documentID, "error", err)
			fmt.Fprintf(os.Stderr, "Load error for %s: %v\n", documentID, err)
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Printf("Loaded %d page(s) from %s in %s\n\n",
			len(doc.Pages), doc.Source, elapsed.Round(time.Millisecond))

		if err := exportDocument(cfg, doc); err != nil {
			logger.Error("export failed", "document", documentID, "error", err)
		}
	}

	return nil
}

// runBatchLoad loads multiple documents concurrently.
func runBatchLoad(ctx context.Context, cfg *config.Config, client *api.Client, store *cache.Store, ingestor *stream.Ingestor, logger *slog.Logger) error {
	fmt.Printf("Starting batch load of %d documents (concurrency: %d)...\n\n",
		len(cfg.Documents), cfg.BatchSize)

	startTime := time.Now()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.BatchSize)

	// Serializes export output and the completion counter.
	var mu sync.Mutex
	completed := 0

	for _, documentID := range cfg.Documents {
		eg.Go(func() error {
			// Per-page progress is too noisy when loads interleave.
			doc, err := loadOne(egCtx, cfg, client, store, ingestor, documentID, logger, nil)
			if err != nil {
				logger.Error("load failed", "document", documentID, "error", err)
				fmt.Fprintf(os.Stderr, "Load error for %s: %v\n", documentID, err)
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			completed++
			fmt.Printf("[%d/%d] Loaded %s: %d page(s) from %s\n",
				completed, len(cfg.Documents), documentID, len(doc.Pages), doc.Source)

			if err := exportDocument(cfg, doc); err != nil {
				logger.Error("export failed", "document", documentID, "error", err)
			}
			return nil
		})
	}

	err := eg.Wait()

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch load completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// progressPrinter reports streamed pages as they render.
func progressPrinter() stream.ProgressFunc {
	return func(p stream.Progress) {
		if p.Type == stream.EventPage && p.Page != nil {
			fmt.Printf("  page %d rendered\n", p.Page.PageNum)
		}
	}
}

// loadOne loads a single document through a fresh session.
func loadOne(ctx context.Context, cfg *config.Config, client *api.Client, store *cache.Store, ingestor *stream.Ingestor, documentID string, logger *slog.Logger, onProgress stream.ProgressFunc) (*export.Document, error) {
	docCfg := cfg.DocumentConfigs.GetDocumentConfig(documentID)

	opts := []loader.Option{
		loader.WithLanguage(cfg.LanguageFor(documentID)),
		loader.WithLogger(logger),
	}
	if store != nil && !cfg.NoCache && !docCfg.SkipCache {
		opts = append(opts, loader.WithStore(store))
	}

	gw := loader.New(client, ingestor, session.New(), opts...)

	result, err := gw.Load(ctx, documentID, onProgress)
	if err != nil {
		return nil, err
	}

	title := result.Title
	if docCfg.Title != "" {
		title = docCfg.Title
	}

	return &export.Document{
		DocumentID:  result.DocumentID,
		Title:       title,
		ContentHash: result.ContentHash,
		Source:      string(result.Source),
		Partial:     result.Partial,
		ExportedAt:  time.Now(),
		Pages:       result.Pages,
		Stamps:      result.Stamps,
	}, nil
}

// exportDocument writes the document in the requested format.
func exportDocument(cfg *config.Config, doc *export.Document) error {
	output, closer, err := exportDestination(cfg)
	if err != nil {
		return err
	}
	defer closer()

	var w export.Writer
	switch {
	case cfg.JSONExport:
		w = export.NewJSONWriter(output, export.WithPrettyPrint())
	case cfg.MarkdownExport:
		w = export.NewMarkdownWriter(output)
	case cfg.TextExport:
		w = export.NewTextWriter(output, export.WithHeader(true), export.WithPageBreaks(true))
	default:
		w = export.NewTextWriter(output)
	}

	if _, err := w.Write(doc); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// exportDestination resolves the export output and its cleanup func.
func exportDestination(cfg *config.Config) (*os.File, func(), error) {
	if cfg.OutputFile == "" {
		return os.Stdout, func() {}, nil
	}

	// Create directories if they don't exist
	dir := filepath.Dir(cfg.OutputFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}
