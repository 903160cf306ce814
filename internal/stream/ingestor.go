package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hayathine/paperterrace/internal/model"
)

// State is the ingest session state.
type State int

// Session states. Connecting moves to Streaming on the first received frame.
const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateDone
	StateFailed
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// EventType discriminates feed frames.
type EventType string

// Feed frame types. CoordinatesReady and AssistModeReady are advisory:
// they signal that overlay and stamp interactions may be enabled before the
// full document finishes.
const (
	EventPage             EventType = "page"
	EventDone             EventType = "done"
	EventError            EventType = "error"
	EventCoordinatesReady EventType = "coordinates_ready"
	EventAssistModeReady  EventType = "assist_mode_ready"
)

// frame is the wire form of one feed line.
type frame struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
	PaperID string          `json:"paper_id,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Progress describes one applied feed event, delivered to the caller's
// progress callback in arrival order.
type Progress struct {
	// Type is the frame type that produced this event.
	Type EventType

	// Page is set for EventPage: the reconciled page after the upsert.
	Page *model.Page

	// PaperID is set for EventDone: the final result identifier.
	PaperID string
}

// ProgressFunc receives progress events. A nil callback is allowed.
type ProgressFunc func(Progress)

// Applier receives reconciled page upserts. Upsert returns false when the
// update was discarded, which happens when a newer load generation has
// superseded this one; the ingestor then abandons the feed without touching
// further state.
type Applier interface {
	Upsert(p *model.Page) bool
}

// CollectionApplier adapts a bare PageCollection to the Applier interface,
// for callers that own their collection directly.
type CollectionApplier struct {
	Collection *model.PageCollection
}

// Upsert applies the page to the wrapped collection.
func (a CollectionApplier) Upsert(p *model.Page) bool {
	return a.Collection.Upsert(p)
}

// Result is the terminal outcome of one ingest run.
type Result struct {
	// State is StateDone for both complete and soft-success runs.
	State State

	// PaperID is the final result id from the done frame, empty for
	// soft-success runs that never saw one.
	PaperID string

	// PagesReceived counts applied page upserts, including merges into
	// already-present page numbers.
	PagesReceived int

	// Partial is true for soft success: the feed ended abnormally but at
	// least one page had arrived, so the collection was finalized as-is.
	Partial bool
}

// Default retry policy. The delay doubles per attempt and is capped so a
// flaky connection does not stall the session for minutes.
const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = 500 * time.Millisecond
	DefaultMaxDelay    = 8 * time.Second
)

// Ingestor opens and maintains one incremental feed per analysis session.
// An Ingestor is stateless across runs and may be reused.
type Ingestor struct {
	client      *http.Client
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	logger      *slog.Logger
}

// Option configures an Ingestor.
type Option func(*Ingestor)

// WithMaxAttempts sets the connection retry ceiling.
func WithMaxAttempts(n int) Option {
	return func(in *Ingestor) {
		if n > 0 {
			in.maxAttempts = n
		}
	}
}

// WithBaseDelay sets the initial backoff delay, doubled per attempt.
func WithBaseDelay(d time.Duration) Option {
	return func(in *Ingestor) {
		if d > 0 {
			in.baseDelay = d
		}
	}
}

// WithMaxDelay caps the exponential backoff delay.
func WithMaxDelay(d time.Duration) Option {
	return func(in *Ingestor) {
		if d > 0 {
			in.maxDelay = d
		}
	}
}

// WithLogger sets the structured logger for ingest diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(in *Ingestor) {
		if logger != nil {
			in.logger = logger
		}
	}
}

// New creates an Ingestor using the given HTTP client. The client should
// carry no overall timeout: the feed is long-lived and is only abandoned by
// explicit retry exhaustion, a terminal error frame, or context cancellation.
func New(client *http.Client, opts ...Option) *Ingestor {
	in := &Ingestor{
		client:      client,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		maxDelay:    DefaultMaxDelay,
	}
	if in.client == nil {
		in.client = http.DefaultClient
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.logger == nil {
		in.logger = slog.Default()
	}
	return in
}

// Run consumes the feed at streamURL until a terminal outcome, applying
// every well-formed page frame through apply and reporting applied events
// through onProgress.
//
// Outcomes:
//   - done frame: Result with StateDone.
//   - feed ends or errors after >=1 page: soft success, StateDone with
//     Partial set, no error.
//   - transport failure before any page: retried with capped exponential
//     backoff up to the attempt ceiling, then ErrRetriesExhausted.
//   - error frame before any page: ErrAnalysisFailed without retry.
//   - apply rejects an upsert (stale generation): the run stops silently
//     with the pages applied so far; supersession is not an error.
func (in *Ingestor) Run(ctx context.Context, streamURL string, apply Applier, onProgress ProgressFunc) (*Result, error) {
	res := &Result{State: StateConnecting}

	var lastErr error
	for attempt := 0; attempt < in.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := in.backoff(attempt - 1)
			in.logger.Debug("retrying stream connection",
				"attempt", attempt+1,
				"delay", delay,
			)
			select {
			case <-ctx.Done():
				res.State = StateFailed
				return res, ctx.Err()
			case <-time.After(delay):
			}
		}

		err := in.consume(ctx, streamURL, apply, onProgress, res)
		switch {
		case err == nil:
			// Terminal frame or graceful end of feed.
			res.State = StateDone
			res.Partial = res.PaperID == ""
			return res, nil

		case errors.Is(err, ctx.Err()) && ctx.Err() != nil:
			res.State = StateFailed
			return res, err

		case errors.Is(err, ErrAnalysisFailed):
			if res.PagesReceived > 0 {
				in.logger.Warn("analysis failed mid-stream, finalizing partial collection",
					"pages", res.PagesReceived,
				)
				res.State = StateDone
				res.Partial = true
				return res, nil
			}
			res.State = StateFailed
			return res, err

		case res.PagesReceived > 0:
			// Transport died after data arrived: soft success.
			in.logger.Warn("stream ended abnormally, finalizing partial collection",
				"pages", res.PagesReceived,
				"error", err,
			)
			res.State = StateDone
			res.Partial = true
			return res, nil

		default:
			lastErr = err
			in.logger.Debug("stream connection failed", "attempt", attempt+1, "error", err)
		}
	}

	res.State = StateFailed
	return res, fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, in.maxAttempts, lastErr)
}

// consume opens the feed once and processes frames until the feed ends, a
// terminal frame arrives, or an upsert is rejected as stale. A nil return
// means a terminal outcome was reached; errors signal transport problems to
// the retry loop.
func (in *Ingestor) consume(ctx context.Context, streamURL string, apply Applier, onProgress ProgressFunc, res *Result) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create stream request: %w", err)
	}
	req.Header.Set("Accept", "application/x-ndjson")

	resp, err := in.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream returned status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	// Page frames carry full word arrays; the default 64KB line limit is
	// far too small for dense pages.
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		if res.State == StateConnecting {
			res.State = StateStreaming
			in.logger.Debug("stream state change", "from", StateConnecting, "to", StateStreaming)
		}

		var f frame
		if err := json.Unmarshal(line, &f); err != nil {
			// A malformed frame is dropped without affecting the session.
			in.logger.Warn("dropping malformed stream frame", "error", err)
			continue
		}

		switch EventType(f.Type) {
		case EventPage:
			var page model.Page
			if err := json.Unmarshal(f.Data, &page); err != nil {
				in.logger.Warn("dropping malformed page frame", "error", err)
				continue
			}
			if page.PageNum < 1 {
				in.logger.Warn("dropping page frame without page_num")
				continue
			}
			if !apply.Upsert(&page) {
				// A newer generation owns the session now; stop without
				// touching anything else.
				in.logger.Debug("page upsert discarded, abandoning superseded stream",
					"page", page.PageNum,
				)
				return nil
			}
			res.PagesReceived++
			if onProgress != nil {
				onProgress(Progress{Type: EventPage, Page: &page})
			}

		case EventDone:
			res.PaperID = f.PaperID
			if onProgress != nil {
				onProgress(Progress{Type: EventDone, PaperID: f.PaperID})
			}
			return nil

		case EventError:
			in.logger.Warn("stream reported analysis error", "message", f.Message)
			return fmt.Errorf("%w: %s", ErrAnalysisFailed, f.Message)

		case EventCoordinatesReady, EventAssistModeReady:
			if onProgress != nil {
				onProgress(Progress{Type: EventType(f.Type)})
			}

		default:
			// Unknown frame types are future protocol additions; skip them.
			in.logger.Debug("skipping unknown stream frame type", "type", f.Type)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("stream read failed: %w", err)
	}

	// EOF without a done frame: the feed ended abnormally but quietly.
	if res.PagesReceived == 0 {
		return fmt.Errorf("stream closed before any page arrived: %w", io.ErrUnexpectedEOF)
	}
	return nil
}

// backoff returns the delay before the given retry, doubling from the base
// and capped at the maximum.
func (in *Ingestor) backoff(retry int) time.Duration {
	d := in.baseDelay << uint(retry)
	if d > in.maxDelay || d <= 0 {
		return in.maxDelay
	}
	return d
}
