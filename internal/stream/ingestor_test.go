package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hayathine/paperterrace/internal/model"
)

// serveFrames returns a test server that writes the given feed lines and
// closes the stream.
func serveFrames(t *testing.T, lines ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, line := range lines {
			fmt.Fprintln(w, line)
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// pageFrame builds a page frame line for the given page number.
func pageFrame(pageNum int) string {
	return fmt.Sprintf(`{"type":"page","data":{"page_num":%d,"width":1000,"height":1400,"words":[{"text":"w","bbox":[1,1,2,2]}]}}`, pageNum)
}

// fastIngestor returns an ingestor with short retry delays for tests.
func fastIngestor(srvClient *http.Client, opts ...Option) *Ingestor {
	base := []Option{
		WithBaseDelay(time.Millisecond),
		WithMaxDelay(5 * time.Millisecond),
		WithMaxAttempts(3),
	}
	return New(srvClient, append(base, opts...)...)
}

// TestIngestorRunComplete tests the happy path ending in a done frame.
func TestIngestorRunComplete(t *testing.T) {
	t.Parallel()

	srv := serveFrames(t,
		pageFrame(2),
		pageFrame(1),
		pageFrame(3),
		`{"type":"done","paper_id":"paper-xyz"}`,
	)

	col := model.NewPageCollection()
	var events []Progress
	res, err := fastIngestor(srv.Client()).Run(context.Background(), srv.URL,
		CollectionApplier{Collection: col},
		func(p Progress) { events = append(events, p) },
	)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if res.State != StateDone {
		t.Errorf("state = %v, want done", res.State)
	}
	if res.Partial {
		t.Error("complete run marked partial")
	}
	if res.PaperID != "paper-xyz" {
		t.Errorf("paper id = %q, want paper-xyz", res.PaperID)
	}
	if res.PagesReceived != 3 {
		t.Errorf("pages received = %d, want 3", res.PagesReceived)
	}

	// Final order is page_num ascending regardless of arrival order.
	pages := col.Pages()
	if len(pages) != 3 {
		t.Fatalf("collection has %d pages, want 3", len(pages))
	}
	for i, p := range pages {
		if p.PageNum != i+1 {
			t.Errorf("index %d: page %d, want %d", i, p.PageNum, i+1)
		}
	}

	// Progress events arrive in feed order, done last.
	if len(events) != 4 {
		t.Fatalf("got %d progress events, want 4", len(events))
	}
	if events[0].Page == nil || events[0].Page.PageNum != 2 {
		t.Errorf("first event = %+v, want page 2", events[0])
	}
	if events[3].Type != EventDone {
		t.Errorf("last event type = %v, want done", events[3].Type)
	}
}

// TestIngestorDeduplication tests upsert-by-page_num under repeats.
func TestIngestorDeduplication(t *testing.T) {
	t.Parallel()

	srv := serveFrames(t,
		pageFrame(1),
		pageFrame(2),
		pageFrame(1),
		pageFrame(2),
		pageFrame(1),
		`{"type":"done","paper_id":"p"}`,
	)

	col := model.NewPageCollection()
	res, err := fastIngestor(srv.Client()).Run(context.Background(), srv.URL,
		CollectionApplier{Collection: col}, nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	// The collection holds exactly one entry per distinct page_num, and the
	// finalized length equals the distinct numbers observed before done.
	if col.Len() != 2 {
		t.Errorf("collection length = %d, want 2", col.Len())
	}
	if res.PagesReceived != 5 {
		t.Errorf("pages received = %d, want 5 (merges count)", res.PagesReceived)
	}
}

// TestIngestorSoftSuccess tests abnormal endings after pages arrived.
func TestIngestorSoftSuccess(t *testing.T) {
	t.Parallel()

	t.Run("error frame after a page", func(t *testing.T) {
		t.Parallel()

		srv := serveFrames(t,
			pageFrame(1),
			`{"type":"error","message":"backend exploded"}`,
		)

		col := model.NewPageCollection()
		res, err := fastIngestor(srv.Client()).Run(context.Background(), srv.URL,
			CollectionApplier{Collection: col}, nil)
		if err != nil {
			t.Fatalf("Run() error: %v, want soft success", err)
		}
		if !res.Partial {
			t.Error("expected partial result")
		}
		if res.State != StateDone {
			t.Errorf("state = %v, want done", res.State)
		}
		if col.Len() != 1 {
			t.Errorf("collection length = %d, want 1", col.Len())
		}
	})

	t.Run("EOF without done after a page", func(t *testing.T) {
		t.Parallel()

		srv := serveFrames(t, pageFrame(1), pageFrame(2))

		col := model.NewPageCollection()
		res, err := fastIngestor(srv.Client()).Run(context.Background(), srv.URL,
			CollectionApplier{Collection: col}, nil)
		if err != nil {
			t.Fatalf("Run() error: %v, want soft success", err)
		}
		if !res.Partial || col.Len() != 2 {
			t.Errorf("partial = %v, pages = %d; want partial with 2 pages", res.Partial, col.Len())
		}
	})
}

// TestIngestorTerminalFailures tests user-visible failure outcomes.
func TestIngestorTerminalFailures(t *testing.T) {
	t.Parallel()

	t.Run("error frame before any page fails without retry", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			fmt.Fprintln(w, `{"type":"error","message":"invalid document"}`)
		}))
		t.Cleanup(srv.Close)

		res, err := fastIngestor(srv.Client()).Run(context.Background(), srv.URL,
			CollectionApplier{Collection: model.NewPageCollection()}, nil)
		if !errors.Is(err, ErrAnalysisFailed) {
			t.Fatalf("Run() error = %v, want ErrAnalysisFailed", err)
		}
		if res.State != StateFailed {
			t.Errorf("state = %v, want failed", res.State)
		}
		if hits.Load() != 1 {
			t.Errorf("server hit %d times, want 1 (no retry)", hits.Load())
		}
	})

	t.Run("transport failure before any page exhausts retries", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		t.Cleanup(srv.Close)

		res, err := fastIngestor(srv.Client()).Run(context.Background(), srv.URL,
			CollectionApplier{Collection: model.NewPageCollection()}, nil)
		if !errors.Is(err, ErrRetriesExhausted) {
			t.Fatalf("Run() error = %v, want ErrRetriesExhausted", err)
		}
		if res.State != StateFailed {
			t.Errorf("state = %v, want failed", res.State)
		}
		if hits.Load() != 3 {
			t.Errorf("server hit %d times, want 3 (attempt ceiling)", hits.Load())
		}
	})
}

// TestIngestorRecoversAfterTransportFailure tests backoff-then-success.
func TestIngestorRecoversAfterTransportFailure(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintln(w, pageFrame(1))
		fmt.Fprintln(w, `{"type":"done","paper_id":"p"}`)
	}))
	t.Cleanup(srv.Close)

	col := model.NewPageCollection()
	res, err := fastIngestor(srv.Client()).Run(context.Background(), srv.URL,
		CollectionApplier{Collection: col}, nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Partial || col.Len() != 1 {
		t.Errorf("partial = %v, pages = %d; want complete with 1 page", res.Partial, col.Len())
	}
}

// TestIngestorMalformedFrames tests that bad frames are dropped silently.
func TestIngestorMalformedFrames(t *testing.T) {
	t.Parallel()

	srv := serveFrames(t,
		`this is not json`,
		`{"type":"page","data":{"page_num":"not a number"}}`,
		`{"type":"page","data":{"width":100}}`,
		pageFrame(1),
		`{"type":"future_frame","whatever":true}`,
		`{"type":"done","paper_id":"p"}`,
	)

	col := model.NewPageCollection()
	res, err := fastIngestor(srv.Client()).Run(context.Background(), srv.URL,
		CollectionApplier{Collection: col}, nil)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if col.Len() != 1 {
		t.Errorf("collection length = %d, want 1", col.Len())
	}
	if res.Partial {
		t.Error("malformed frames must not mark the run partial")
	}
}

// TestIngestorAdvisoryEvents tests coordinates_ready / assist_mode_ready.
func TestIngestorAdvisoryEvents(t *testing.T) {
	t.Parallel()

	srv := serveFrames(t,
		`{"type":"coordinates_ready"}`,
		pageFrame(1),
		`{"type":"assist_mode_ready"}`,
		`{"type":"done","paper_id":"p"}`,
	)

	var types []EventType
	_, err := fastIngestor(srv.Client()).Run(context.Background(), srv.URL,
		CollectionApplier{Collection: model.NewPageCollection()},
		func(p Progress) { types = append(types, p.Type) },
	)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	want := []EventType{EventCoordinatesReady, EventPage, EventAssistModeReady, EventDone}
	if len(types) != len(want) {
		t.Fatalf("got %d events %v, want %v", len(types), types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, types[i], want[i])
		}
	}
}

// rejectingApplier discards every upsert, simulating a superseded generation.
type rejectingApplier struct{ applied atomic.Int32 }

func (a *rejectingApplier) Upsert(*model.Page) bool {
	a.applied.Add(1)
	return false
}

// TestIngestorAbandonsSupersededRun tests that a rejected upsert stops the
// feed without an error.
func TestIngestorAbandonsSupersededRun(t *testing.T) {
	t.Parallel()

	srv := serveFrames(t,
		pageFrame(1),
		pageFrame(2),
		`{"type":"done","paper_id":"p"}`,
	)

	applier := &rejectingApplier{}
	res, err := fastIngestor(srv.Client()).Run(context.Background(), srv.URL, applier, nil)
	if err != nil {
		t.Fatalf("Run() error: %v, supersession must not surface as error", err)
	}
	if res.PagesReceived != 0 {
		t.Errorf("pages received = %d, want 0", res.PagesReceived)
	}
	if applier.applied.Load() != 1 {
		t.Errorf("applier consulted %d times, want 1 (stop on first rejection)", applier.applied.Load())
	}
}

// TestIngestorContextCancellation tests cancellation mid-retry.
func TestIngestorContextCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := New(srv.Client(), WithBaseDelay(time.Hour), WithMaxAttempts(5))
	_, err := in.Run(ctx, srv.URL, CollectionApplier{Collection: model.NewPageCollection()}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}

// TestBackoffDoubling tests the capped exponential schedule.
func TestBackoffDoubling(t *testing.T) {
	t.Parallel()

	in := New(nil, WithBaseDelay(100*time.Millisecond), WithMaxDelay(time.Second))

	wants := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
		time.Second,
	}
	for retry, want := range wants {
		if got := in.backoff(retry); got != want {
			t.Errorf("backoff(%d) = %v, want %v", retry, got, want)
		}
	}
}
