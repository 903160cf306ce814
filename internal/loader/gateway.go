package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hayathine/paperterrace/internal/api"
	"github.com/hayathine/paperterrace/internal/cache"
	"github.com/hayathine/paperterrace/internal/model"
	"github.com/hayathine/paperterrace/internal/session"
	"github.com/hayathine/paperterrace/internal/stream"
)

// Source identifies which path produced a load result.
type Source string

// Load sources, in preference order.
const (
	SourceCache  Source = "cache"
	SourceFetch  Source = "fetch"
	SourceStream Source = "stream"
)

// Backend is the API surface the gateway needs. *api.Client satisfies it.
type Backend interface {
	StartAnalysis(ctx context.Context, req api.StartAnalysisRequest) (*api.StartAnalysisResponse, error)
	ResolveStreamURL(streamURL string) (string, error)
	FetchDocument(ctx context.Context, documentID string) (*api.DocumentPayload, error)
	ListStamps(ctx context.Context, documentID string) ([]model.Stamp, error)
}

// Ingestor is the stream surface the gateway needs. *stream.Ingestor
// satisfies it.
type Ingestor interface {
	Run(ctx context.Context, streamURL string, apply stream.Applier, onProgress stream.ProgressFunc) (*stream.Result, error)
}

// Result describes a completed load.
type Result struct {
	// DocumentID identifies the loaded document.
	DocumentID string

	// Source is the path that produced the pages.
	Source Source

	// Pages is the reconciled collection snapshot, page_num ascending.
	Pages []*model.Page

	// ContentHash locates the rendered page images.
	ContentHash string

	// Title is the document title, when known.
	Title string

	// FlatText is the document's full text.
	FlatText string

	// Stamps are the document's confirmed stamps, when the backend path
	// was taken; empty on the pure cache path.
	Stamps []model.Stamp

	// Partial marks a soft-success stream load: usable but incomplete.
	Partial bool

	// Generation is the session generation that owns these pages.
	Generation session.Generation
}

// ErrSuperseded is returned when a newer load for the same session started
// while this one was in flight. It is not a failure; the newer load owns
// the session now and the superseded caller simply discards its result.
var ErrSuperseded = errors.New("loader: load superseded by a newer generation")

// Gateway performs document loads against one session.
type Gateway struct {
	backend  Backend
	store    *cache.Store
	ingestor Ingestor
	sess     *session.Session
	language string
	logger   *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithStore enables the local cache read/write paths. Without a store the
// gateway always goes to the network and never writes back.
func WithStore(store *cache.Store) Option {
	return func(g *Gateway) {
		g.store = store
	}
}

// WithLanguage sets the analysis language submitted with new sessions.
func WithLanguage(lang string) Option {
	return func(g *Gateway) {
		g.language = lang
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New creates a Gateway for one session.
func New(backend Backend, ingestor Ingestor, sess *session.Session, opts ...Option) *Gateway {
	g := &Gateway{
		backend:  backend,
		ingestor: ingestor,
		sess:     sess,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// Session returns the session this gateway loads into.
func (g *Gateway) Session() *session.Session {
	return g.sess
}

// Load loads a document, consulting the cache, then the full fetch, then
// the stream. onProgress receives stream events on the stream path and may
// be nil. Pages already displayed by the session stay in place until the
// first page of new data arrives.
func (g *Gateway) Load(ctx context.Context, documentID string, onProgress stream.ProgressFunc) (*Result, error) {
	gen := g.sess.Begin()
	g.logger.Info("starting document load", "document", documentID, "generation", uint64(gen))

	// (1) Local cache: a servable record renders with no network call.
	if res := g.loadFromCache(ctx, documentID, gen); res != nil {
		return res, nil
	}

	// (2) One-shot full fetch of completed analysis, with the stamp list
	// retrieved concurrently. A stamp listing failure never fails the load.
	payload, stamps := g.fetchWithStamps(ctx, documentID)
	if payload.Complete() {
		return g.loadFromPayload(ctx, documentID, gen, payload, stamps)
	}

	// (3) Incremental stream.
	return g.loadFromStream(ctx, documentID, gen, stamps, onProgress)
}

// loadFromCache serves a servable cache record, or nil to fall through.
// Cache corruption is logged and treated as a miss.
func (g *Gateway) loadFromCache(ctx context.Context, documentID string, gen session.Generation) *Result {
	if g.store == nil {
		return nil
	}

	record, err := g.store.Get(ctx, documentID)
	if err != nil {
		// Corrupt records fall through to the network path.
		g.logger.Warn("cache record unusable, falling through", "document", documentID, "error", err)
		return nil
	}
	if !record.Servable() {
		return nil
	}

	pages, err := model.DecodeLayout(record.SerializedLayout)
	if err != nil {
		g.logger.Warn("cache layout corrupt, falling through", "document", documentID, "error", err)
		return nil
	}

	if !g.sess.Install(gen, pages) {
		return nil
	}

	g.logger.Info("serving document from cache",
		"document", documentID,
		"pages", len(pages),
	)
	return &Result{
		DocumentID:  documentID,
		Source:      SourceCache,
		Pages:       g.sess.Pages(),
		ContentHash: record.ContentHash,
		Title:       record.Title,
		FlatText:    record.FlatText,
		Generation:  gen,
	}
}

// fetchWithStamps retrieves the full-fetch payload and stamp list
// concurrently. Both failures degrade: a nil payload falls through to the
// stream, a failed stamp listing yields no stamps.
func (g *Gateway) fetchWithStamps(ctx context.Context, documentID string) (*api.DocumentPayload, []model.Stamp) {
	var (
		payload *api.DocumentPayload
		stamps  []model.Stamp
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		p, err := g.backend.FetchDocument(egCtx, documentID)
		if err != nil {
			g.logger.Debug("full fetch unavailable", "document", documentID, "error", err)
			return nil
		}
		payload = p
		return nil
	})
	eg.Go(func() error {
		s, err := g.backend.ListStamps(egCtx, documentID)
		if err != nil {
			g.logger.Debug("stamp listing unavailable", "document", documentID, "error", err)
			return nil
		}
		stamps = s
		return nil
	})
	_ = eg.Wait() // both goroutines swallow their errors

	return payload, stamps
}

// loadFromPayload installs a complete full-fetch payload and writes it back
// to the cache.
func (g *Gateway) loadFromPayload(ctx context.Context, documentID string, gen session.Generation, payload *api.DocumentPayload, stamps []model.Stamp) (*Result, error) {
	pages, err := payload.Pages()
	if err != nil {
		// The backend served unusable layout; the stream is the fallback.
		g.logger.Warn("full fetch layout unusable, falling back to stream", "document", documentID, "error", err)
		return g.loadFromStream(ctx, documentID, gen, stamps, nil)
	}

	if !g.sess.Install(gen, pages) {
		return nil, ErrSuperseded
	}

	g.logger.Info("serving document from full fetch",
		"document", documentID,
		"pages", len(pages),
	)

	res := &Result{
		DocumentID:  documentID,
		Source:      SourceFetch,
		Pages:       g.sess.Pages(),
		ContentHash: payload.ContentHash,
		Title:       payload.Title,
		FlatText:    payload.FlatText,
		Stamps:      stamps,
		Generation:  gen,
	}
	g.writeBack(ctx, gen, res)
	return res, nil
}

// loadFromStream starts an analysis session and consumes its feed into the
// session under the captured generation.
func (g *Gateway) loadFromStream(ctx context.Context, documentID string, gen session.Generation, stamps []model.Stamp, onProgress stream.ProgressFunc) (*Result, error) {
	start, err := g.backend.StartAnalysis(ctx, api.StartAnalysisRequest{
		DocumentID: documentID,
		Language:   g.language,
		SessionID:  uuid.NewString(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start analysis for %s: %w", documentID, err)
	}

	streamURL, err := g.backend.ResolveStreamURL(start.StreamURL)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve stream URL for %s: %w", documentID, err)
	}

	g.logger.Info("consuming analysis stream",
		"document", documentID,
		"task", start.TaskID,
	)

	streamRes, err := g.ingestor.Run(ctx, streamURL,
		session.Applier{Session: g.sess, Generation: gen}, onProgress)
	if err != nil {
		return nil, fmt.Errorf("stream load of %s failed: %w", documentID, err)
	}

	if !g.sess.Current(gen) {
		return nil, ErrSuperseded
	}

	res := &Result{
		DocumentID:  documentID,
		Source:      SourceStream,
		Pages:       g.sess.Pages(),
		ContentHash: streamRes.PaperID,
		FlatText:    g.sess.FlatText(),
		Stamps:      stamps,
		Partial:     streamRes.Partial,
		Generation:  gen,
	}
	g.writeBack(ctx, gen, res)
	return res, nil
}

// writeBack upserts a completed load into the cache. The generation check
// keeps two racing loads from interleaving their writes; a write failure
// only costs the next session its fast path, so it is logged, not returned.
func (g *Gateway) writeBack(ctx context.Context, gen session.Generation, res *Result) {
	if g.store == nil || res.ContentHash == "" {
		return
	}
	if !g.sess.Current(gen) {
		return
	}

	layout, err := model.EncodeLayout(res.Pages)
	if err != nil {
		g.logger.Warn("failed to serialize layout for cache", "document", res.DocumentID, "error", err)
		return
	}

	record := &model.CacheRecord{
		DocumentID:       res.DocumentID,
		ContentHash:      res.ContentHash,
		Title:            res.Title,
		FlatText:         res.FlatText,
		SerializedLayout: layout,
	}
	if err := g.store.Upsert(ctx, record); err != nil {
		g.logger.Warn("cache write-back failed", "document", res.DocumentID, "error", err)
		return
	}
	g.logger.Debug("cache write-back complete", "document", res.DocumentID, "pages", len(res.Pages))
}
