package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/hayathine/paperterrace/internal/cache"
	"github.com/hayathine/paperterrace/internal/model"
)

// seedCache creates a cache directory with one stored document.
func seedCache(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	store, err := cache.Open(dir, cache.DefaultOptions())
	if err != nil {
		t.Fatalf("cache.Open() error = %v", err)
	}
	defer store.Close()

	record := &model.CacheRecord{
		DocumentID:       "doc-1",
		ContentHash:      "hash-1",
		Title:            "Stored Paper",
		SerializedLayout: []byte(`[{"page_num":1,"width":612,"height":792}]`),
	}
	if err := store.Upsert(context.Background(), record); err != nil {
		t.Fatalf("Store.Upsert() error = %v", err)
	}
	return dir
}

// TestNewCacheCmd tests the cache command group creation.
func TestNewCacheCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCacheCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "cache" {
			t.Errorf("expected use 'cache', got %q", cmd.Use)
		}
	})

	t.Run("has list, delete, and prune subcommands", func(t *testing.T) {
		t.Parallel()

		names := make(map[string]bool)
		for _, sub := range cmd.Commands() {
			names[sub.Name()] = true
		}
		for _, want := range []string{"list", "delete", "prune"} {
			if !names[want] {
				t.Errorf("expected %s subcommand", want)
			}
		}
	})

	t.Run("has persistent cache-dir flag", func(t *testing.T) {
		t.Parallel()
		if cmd.PersistentFlags().Lookup("cache-dir") == nil {
			t.Error("expected cache-dir persistent flag")
		}
	})
}

// TestCacheListCmd tests cache listing against a real store.
func TestCacheListCmd(t *testing.T) {
	t.Parallel()

	t.Run("lists stored documents", func(t *testing.T) {
		t.Parallel()

		dir := seedCache(t)

		var buf bytes.Buffer
		root := NewRootCmd()
		root.SetOut(&buf)
		root.SetErr(&buf)
		root.SetArgs([]string{"cache", "list", "--cache-dir", dir})

		if err := root.Execute(); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "doc-1") {
			t.Errorf("expected doc-1 in listing, got: %s", output)
		}
		if !strings.Contains(output, "Stored Paper") {
			t.Errorf("expected title in listing, got: %s", output)
		}
	})

	t.Run("missing cache directory errors", func(t *testing.T) {
		t.Parallel()

		root := NewRootCmd()
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs([]string{"cache", "list", "--cache-dir", t.TempDir()})

		if err := root.Execute(); err == nil {
			t.Error("expected error for empty cache directory")
		}
	})
}

// TestCacheDeleteCmd tests cache entry deletion.
func TestCacheDeleteCmd(t *testing.T) {
	t.Parallel()

	dir := seedCache(t)

	var buf bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"cache", "delete", "doc-1", "--cache-dir", dir})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Deleted doc-1") {
		t.Errorf("expected deletion confirmation, got: %s", buf.String())
	}

	// The record is gone.
	store, err := cache.Open(dir, cache.DefaultOptions())
	if err != nil {
		t.Fatalf("cache.Open() error = %v", err)
	}
	defer store.Close()
	record, err := store.Get(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("Store.Get() error = %v", err)
	}
	if record != nil {
		t.Error("expected record to be deleted")
	}
}

// TestCachePruneCmd tests age-based pruning.
func TestCachePruneCmd(t *testing.T) {
	t.Parallel()

	t.Run("fresh entries survive pruning", func(t *testing.T) {
		t.Parallel()

		dir := seedCache(t)

		var buf bytes.Buffer
		root := NewRootCmd()
		root.SetOut(&buf)
		root.SetErr(&buf)
		root.SetArgs([]string{"cache", "prune", "--older-than", "24h", "--cache-dir", dir})

		if err := root.Execute(); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if !strings.Contains(buf.String(), "Pruned 0 document(s)") {
			t.Errorf("expected no prunes, got: %s", buf.String())
		}
	})

	t.Run("non-positive age is rejected", func(t *testing.T) {
		t.Parallel()

		dir := seedCache(t)

		root := NewRootCmd()
		root.SetOut(&bytes.Buffer{})
		root.SetErr(&bytes.Buffer{})
		root.SetArgs([]string{"cache", "prune", "--older-than", "0s", "--cache-dir", dir})

		if err := root.Execute(); err == nil {
			t.Error("expected error for zero age")
		}
	})
}

func TestFormatBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		n    int64
		want string
	}{
		{name: "bytes", n: 512, want: "512 B"},
		{name: "kilobytes", n: 2048, want: "2.0 KB"},
		{name: "megabytes", n: 5 * 1024 * 1024, want: "5.0 MB"},
		{name: "gigabytes", n: 3 * 1024 * 1024 * 1024, want: "3.0 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := formatBytes(tt.n); got != tt.want {
				t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
			}
		})
	}
}
