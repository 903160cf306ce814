// Package config provides configuration structures and utilities for
// PaperTerrace. It defines the main options for document loading, the
// local cache, and export preferences.
package config
