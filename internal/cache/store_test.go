package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hayathine/paperterrace/internal/model"
)

// testRecord builds a servable cache record for tests.
func testRecord(t *testing.T, documentID string) *model.CacheRecord {
	t.Helper()
	layout, err := model.EncodeLayout([]*model.Page{
		{
			PageNum: 1, Width: 1000, Height: 1400,
			Words:   []model.Word{{Text: "Hello", BBox: model.BBox{X1: 100, Y1: 100, X2: 150, Y2: 120}}},
			Content: "Hello",
		},
	})
	if err != nil {
		t.Fatalf("EncodeLayout() error: %v", err)
	}
	return &model.CacheRecord{
		DocumentID:       documentID,
		ContentHash:      "hash-" + documentID,
		Title:            "Title " + documentID,
		FlatText:         "Hello",
		SerializedLayout: layout,
	}
}

// openTestStore opens a store in a temp directory.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// TestStoreUpsertAndGet tests the round trip through SQLite.
func TestStoreUpsertAndGet(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	want := testRecord(t, "doc-1")
	if err := s.Upsert(ctx, want); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	got, err := s.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got == nil {
		t.Fatal("Get() returned nil for existing record")
	}
	if got.ContentHash != want.ContentHash || got.Title != want.Title || got.FlatText != want.FlatText {
		t.Errorf("Get() = %+v, want fields of %+v", got, want)
	}
	if !got.Servable() {
		t.Error("stored record not servable")
	}

	pages, err := model.DecodeLayout(got.SerializedLayout)
	if err != nil {
		t.Fatalf("DecodeLayout() error: %v", err)
	}
	if len(pages) != 1 || pages[0].Words[0].Text != "Hello" {
		t.Errorf("layout did not survive the round trip: %+v", pages)
	}
}

// TestStoreGetMiss tests that a missing record is (nil, nil).
func TestStoreGetMiss(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	got, err := s.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %+v, want nil for missing record", got)
	}
}

// TestStoreUpsertReplacesByDocumentID tests upsert-by-id semantics.
func TestStoreUpsertReplacesByDocumentID(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, testRecord(t, "doc-1")); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	updated := testRecord(t, "doc-1")
	updated.Title = "Updated"
	if err := s.Upsert(ctx, updated); err != nil {
		t.Fatalf("second Upsert() error: %v", err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("List() = %d records, want 1", len(list))
	}
	if list[0].Title != "Updated" {
		t.Errorf("title = %q, want Updated", list[0].Title)
	}
}

// TestStoreUpsertValidation tests rejected records.
func TestStoreUpsertValidation(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	if err := s.Upsert(context.Background(), nil); err == nil {
		t.Error("Upsert(nil) succeeded, want error")
	}
	if err := s.Upsert(context.Background(), &model.CacheRecord{}); err == nil {
		t.Error("Upsert without document id succeeded, want error")
	}
}

// TestStoreCorruptRecord tests checksum-based corruption detection.
func TestStoreCorruptRecord(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, testRecord(t, "doc-1")); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	// Corrupt the stored layout behind the checksum's back.
	if _, err := s.db.ExecContext(ctx,
		"UPDATE documents SET layout = '[]' WHERE document_id = ?", "doc-1"); err != nil {
		t.Fatalf("failed to corrupt record: %v", err)
	}

	_, err := s.Get(ctx, "doc-1")
	if !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("Get() error = %v, want ErrCorruptRecord", err)
	}
}

// TestStoreDelete tests record removal.
func TestStoreDelete(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, testRecord(t, "doc-1")); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	if err := s.Delete(ctx, "doc-1"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	got, err := s.Get(ctx, "doc-1")
	if err != nil || got != nil {
		t.Errorf("Get() after delete = (%+v, %v), want (nil, nil)", got, err)
	}

	// Deleting a missing record is not an error.
	if err := s.Delete(ctx, "absent"); err != nil {
		t.Errorf("Delete(absent) error: %v", err)
	}
}

// TestStoreList tests listing metadata.
func TestStoreList(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := s.Upsert(ctx, testRecord(t, id)); err != nil {
			t.Fatalf("Upsert(%s) error: %v", id, err)
		}
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("List() = %d records, want 3", len(list))
	}
	for _, meta := range list {
		if meta.LayoutBytes == 0 {
			t.Errorf("record %s has zero layout size", meta.DocumentID)
		}
		if meta.LastAccessed.IsZero() {
			t.Errorf("record %s has zero last_accessed", meta.DocumentID)
		}
	}
}

// TestStorePrune tests age-based pruning.
func TestStorePrune(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, testRecord(t, "old")); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	if err := s.Upsert(ctx, testRecord(t, "fresh")); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}

	// Backdate one record beyond the prune horizon.
	if _, err := s.db.ExecContext(ctx,
		"UPDATE documents SET last_accessed = datetime('now', '-48 hours') WHERE document_id = 'old'"); err != nil {
		t.Fatalf("failed to backdate record: %v", err)
	}

	n, err := s.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune() error: %v", err)
	}
	if n != 1 {
		t.Errorf("Prune() removed %d records, want 1", n)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 1 || list[0].DocumentID != "fresh" {
		t.Errorf("List() after prune = %+v, want only fresh", list)
	}
}

// TestOpenWithoutCreate tests that missing databases are not created when
// CreateIfNotExists is disabled.
func TestOpenWithoutCreate(t *testing.T) {
	t.Parallel()

	_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
	if err == nil {
		t.Fatal("Open() succeeded for missing database")
	}
}
