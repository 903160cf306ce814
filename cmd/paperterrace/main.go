// Package main provides the entry point for the PaperTerrace CLI.
//
// PaperTerrace loads analyzed documents from the reading backend, keeps a
// local cache for instant reopening, and exports document text, layout,
// and stamps.
//
// Usage:
//
//	paperterrace load <document-id>
//	paperterrace search <document-id> <term>
//	paperterrace cache list
//
// See --help for all available options.
package main

// main is the entry point for PaperTerrace.
func main() {
	Execute()
}
