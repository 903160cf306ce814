package config

// DocumentConfig holds per-document configuration.
// This allows customizing load behavior for individual documents.
type DocumentConfig struct {
	// Language overrides the analysis language for this document.
	// If empty, the global Language is used.
	Language string `yaml:"language,omitempty"`

	// Title overrides the backend-reported title for this document.
	Title string `yaml:"title,omitempty"`

	// SkipCache disables the cache read path for this document, forcing a
	// fresh fetch or stream on every load.
	SkipCache bool `yaml:"skipCache,omitempty"`
}

// File represents the structure of the .paperterrace configuration file.
type File struct {
	// Documents maps document IDs to their per-document configurations.
	Documents map[string]DocumentConfig `yaml:"documents,omitempty"`

	// Defaults contains default document configuration applied to all
	// documents unless overridden in the per-document configuration.
	Defaults DocumentConfig `yaml:"defaults,omitempty"`
}

// GetDocumentConfig returns the configuration for a specific document.
// It merges the per-document configuration with defaults.
func (cf *File) GetDocumentConfig(documentID string) DocumentConfig {
	// Start with defaults
	result := cf.Defaults

	if dc, ok := cf.Documents[documentID]; ok {
		if dc.Language != "" {
			result.Language = dc.Language
		}
		if dc.Title != "" {
			result.Title = dc.Title
		}
		if dc.SkipCache {
			result.SkipCache = true
		}
	}

	return result
}
