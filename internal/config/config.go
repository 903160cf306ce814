package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultBaseURL is the backend the reader talks to in local
	// development. Production deployments always override this via
	// the --base-url flag or the config file.
	DefaultBaseURL = "http://127.0.0.1:8000"

	// DefaultTimeout is the per-request timeout for non-streaming calls.
	// Full fetches of large documents can carry multi-megabyte layout
	// payloads, so this should not be too aggressive.
	DefaultTimeout = 30 * time.Second

	// DefaultBatchSize of 4 concurrent loads balances throughput with
	// backend load when processing a document list. Each load can hold a
	// long-lived streaming connection, so this is deliberately lower than
	// a typical HTTP fan-out limit.
	DefaultBatchSize = 4

	// DefaultRetryAttempts is the number of stream connection attempts
	// before a load is declared failed. Retries only happen before the
	// first page arrives; after that a drop degrades to a partial result.
	DefaultRetryAttempts = 5

	// DefaultLanguage is the analysis language submitted with new
	// sessions when the document has no per-document override.
	DefaultLanguage = "en"

	// AppName is the application name used for XDG directory paths.
	AppName = "paperterrace"
)

// Config holds all configuration options for PaperTerrace.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. The number of options is manageable, and nesting would
// add complexity without significant benefit.
type Config struct {
	// BaseURL is the backend API base URL.
	BaseURL string

	// Timeout is the per-request timeout for non-streaming HTTP calls.
	// The analysis stream itself is exempt: it stays open for as long as
	// the backend keeps emitting frames.
	Timeout time.Duration

	// RetryAttempts is the number of stream connection attempts before a
	// load fails. Only attempts made before the first page count.
	RetryAttempts int

	// Language is the analysis language for new sessions.
	Language string

	// CacheDir is the directory holding the local document cache database.
	// When empty, loads skip the cache entirely and nothing is persisted.
	// Defaults to the XDG cache directory.
	CacheDir string

	// NoCache disables cache reads for this run. Completed loads are
	// still written back unless CacheDir is empty.
	NoCache bool

	// BatchSize is the number of concurrent loads when processing
	// multiple documents.
	BatchSize int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONExport enables JSON export output instead of plain text.
	// Mutually exclusive with MarkdownExport and TextExport.
	JSONExport bool

	// MarkdownExport enables Markdown export output instead of plain text.
	// Mutually exclusive with JSONExport and TextExport.
	MarkdownExport bool

	// TextExport enables reading-order plain text export with the full
	// document header. This is also the implicit default format.
	TextExport bool

	// OutputFile is the export destination path. When set, the export is
	// written to this file instead of stdout. Directories are created
	// automatically if they don't exist.
	OutputFile string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .paperterrace in the current
	// directory and then in the user's home directory.
	ConfigFilePath string

	// DocumentConfigs holds per-document configurations loaded from the
	// config file. This is populated by LoadConfigFile.
	DocumentConfigs *File

	// Documents is the list of document IDs to load.
	// Must contain at least one entry.
	Documents []string
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, batch
// size). This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		BaseURL:       DefaultBaseURL,
		Timeout:       DefaultTimeout,
		RetryAttempts: DefaultRetryAttempts,
		Language:      DefaultLanguage,
		CacheDir:      XDGCacheDir(),
		BatchSize:     DefaultBatchSize,
	}
}

// XDGDataDir returns the XDG data directory for PaperTerrace.
// On Linux: ~/.local/share/paperterrace
// On macOS: ~/Library/Application Support/paperterrace
// On Windows: %LOCALAPPDATA%\paperterrace
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for PaperTerrace.
// On Linux: ~/.config/paperterrace
// On macOS: ~/Library/Application Support/paperterrace
// On Windows: %APPDATA%\paperterrace
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for PaperTerrace.
// On Linux: ~/.cache/paperterrace
// On macOS: ~/Library/Caches/paperterrace
// On Windows: %LOCALAPPDATA%\paperterrace\cache
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any loading begins.
//
// We return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.Documents) == 0 {
		return ErrNoDocument
	}

	if c.BaseURL == "" {
		return ErrNoBaseURL
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.RetryAttempts <= 0 {
		return ErrInvalidRetryAttempts
	}

	// At most one export format may be selected.
	formats := 0
	for _, on := range []bool{c.JSONExport, c.MarkdownExport, c.TextExport} {
		if on {
			formats++
		}
	}
	if formats > 1 {
		return ErrConflictingExportFormats
	}

	return nil
}

// LanguageFor returns the analysis language for a document, honoring any
// per-document override from the config file.
func (c *Config) LanguageFor(documentID string) string {
	if c.DocumentConfigs != nil {
		if dc := c.DocumentConfigs.GetDocumentConfig(documentID); dc.Language != "" {
			return dc.Language
		}
	}
	return c.Language
}
