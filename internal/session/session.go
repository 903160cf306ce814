package session

import (
	"sync"

	"github.com/hayathine/paperterrace/internal/model"
)

// Generation identifies one load attempt. Higher values supersede lower
// ones; only the current generation's writes are applied.
type Generation uint64

// Session holds the page collection currently backing the reader, together
// with the generation that produced it. All mutation funnels through
// generation-checked methods under one mutex, so the collection has exactly
// one effective writer at a time.
//
// Previously displayed pages deliberately survive the start of a new load:
// Begin does not clear anything, and the old collection is only swapped out
// when the new generation's first page (or bulk install) arrives. A page
// switch mid-stream therefore never renders an empty intermediate state.
type Session struct {
	mu sync.Mutex

	// gen is the current authoritative generation.
	gen Generation

	// dataGen is the generation whose data is currently installed.
	// It trails gen between Begin and the first applied write.
	dataGen Generation

	// pages is the installed collection. Never nil.
	pages *model.PageCollection
}

// New returns an empty session at generation zero.
func New() *Session {
	return &Session{pages: model.NewPageCollection()}
}

// Begin starts a new load attempt, superseding all earlier generations.
// The installed pages are left in place until the new generation's first
// data arrives.
func (s *Session) Begin() Generation {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

// Generation returns the current authoritative generation.
func (s *Session) Generation() Generation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// Current reports whether g is still the authoritative generation. Stale
// continuations use this to discard their results.
func (s *Session) Current(g Generation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return g == s.gen
}

// Upsert applies one incremental page update on behalf of generation g.
// The first write of a new generation swaps in a fresh collection, retiring
// the superseded pages in the same step. Returns false, without mutating
// anything, when g is no longer current.
func (s *Session) Upsert(g Generation, p *model.Page) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g != s.gen {
		return false
	}
	s.ensureGenerationLocked(g)
	return s.pages.Upsert(p)
}

// Install replaces the collection with pages loaded in bulk (cache replay or
// full fetch) on behalf of generation g. Returns false when g is stale.
func (s *Session) Install(g Generation, pages []*model.Page) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g != s.gen {
		return false
	}
	s.dataGen = g
	s.pages = model.NewPageCollectionFrom(pages)
	return true
}

// ensureGenerationLocked swaps in a fresh collection the first time
// generation g writes. Callers must hold mu.
func (s *Session) ensureGenerationLocked(g Generation) {
	if s.dataGen != g {
		s.dataGen = g
		s.pages = model.NewPageCollection()
	}
}

// Pages returns the installed pages in page_num order. The slice is a
// snapshot copy; the page values are shared and read-only for consumers.
func (s *Session) Pages() []*model.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages.Pages()
}

// PageCount returns the number of installed pages.
func (s *Session) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages.Len()
}

// FlatText returns the installed collection's concatenated page text.
func (s *Session) FlatText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages.FlatText()
}

// Applier binds a session and a captured generation into the upsert
// interface the stream ingestor consumes.
type Applier struct {
	Session    *Session
	Generation Generation
}

// Upsert forwards to the session under the captured generation.
func (a Applier) Upsert(p *model.Page) bool {
	return a.Session.Upsert(a.Generation, p)
}
