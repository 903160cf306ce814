package annotation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/hayathine/paperterrace/internal/model"
)

// Stamp sync errors.
var (
	// ErrStampSync is wrapped around create/delete failures. The optimistic
	// local state has already been rolled back when this is returned.
	ErrStampSync = errors.New("annotation: stamp sync failed")

	// ErrInvalidAnchor is returned for anchor coordinates outside [0,1] or
	// a non-positive page number.
	ErrInvalidAnchor = errors.New("annotation: anchor must be normalized coordinates on a valid page")

	// ErrStampNotFound is returned when removing an id that is not present.
	ErrStampNotFound = errors.New("annotation: stamp not found")
)

// API is the backend surface the layer needs. *api.Client satisfies it.
type API interface {
	CreateStamp(ctx context.Context, documentID string, stamp model.Stamp) (string, error)
	DeleteStamp(ctx context.Context, documentID, stampID string) error
}

// Layer holds the stamps for one document and keeps them in sync with the
// backend. Placement is append-only: two stamps at the exact same point are
// both kept.
type Layer struct {
	mu sync.Mutex

	api        API
	documentID string
	stamps     []model.Stamp
	logger     *slog.Logger
}

// Option configures a Layer.
type Option func(*Layer)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Layer) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLayer creates a stamp layer for the given document.
func NewLayer(backend API, documentID string, opts ...Option) *Layer {
	l := &Layer{
		api:        backend,
		documentID: documentID,
		stamps:     make([]model.Stamp, 0),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// SetConfirmed replaces the layer's confirmed stamps, typically with the
// backend's list at load time. Pending placements in flight are kept.
func (l *Layer) SetConfirmed(stamps []model.Stamp) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := make([]model.Stamp, 0, len(stamps))
	for _, s := range l.stamps {
		if s.Pending {
			kept = append(kept, s)
		}
	}
	l.stamps = append(kept, stamps...)
}

// Place optimistically adds a stamp at a normalized anchor point and issues
// the create request. On success the temporary id is replaced with the
// server-assigned one and the confirmed stamp is returned. On failure the
// optimistic entry is removed and the error wraps ErrStampSync.
//
// Two concurrent placements cannot confuse each other's confirmation:
// every placement's temporary id is unique and locally generated.
func (l *Layer) Place(ctx context.Context, pageNum int, x, y float64, stampType string) (model.Stamp, error) {
	if pageNum < 1 || x < 0 || x > 1 || y < 0 || y > 1 {
		return model.Stamp{}, fmt.Errorf("%w: page %d at (%g, %g)", ErrInvalidAnchor, pageNum, x, y)
	}

	tmp := model.Stamp{
		ID:      model.LocalStampPrefix + uuid.NewString(),
		Type:    stampType,
		X:       x,
		Y:       y,
		PageNum: pageNum,
		Pending: true,
	}

	l.mu.Lock()
	l.stamps = append(l.stamps, tmp)
	l.mu.Unlock()

	serverID, err := l.api.CreateStamp(ctx, l.documentID, tmp)
	if err != nil {
		l.rollback(tmp.ID)
		l.logger.Warn("stamp placement failed, rolled back",
			"page", pageNum,
			"error", err,
		)
		return model.Stamp{}, fmt.Errorf("%w: %v", ErrStampSync, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.stamps {
		if l.stamps[i].ID == tmp.ID {
			l.stamps[i].ID = serverID
			l.stamps[i].Pending = false
			return l.stamps[i], nil
		}
	}

	// The optimistic entry vanished between request and confirmation,
	// which only SetConfirmed racing a load can cause. Re-add confirmed.
	confirmed := tmp
	confirmed.ID = serverID
	confirmed.Pending = false
	l.stamps = append(l.stamps, confirmed)
	return confirmed, nil
}

// Remove deletes a confirmed stamp. The local entry is removed only after
// the server confirms; a failed request leaves local state untouched.
func (l *Layer) Remove(ctx context.Context, stampID string) error {
	l.mu.Lock()
	found := false
	for _, s := range l.stamps {
		if s.ID == stampID {
			found = true
			break
		}
	}
	l.mu.Unlock()
	if !found {
		return fmt.Errorf("%w: %s", ErrStampNotFound, stampID)
	}

	if err := l.api.DeleteStamp(ctx, l.documentID, stampID); err != nil {
		return fmt.Errorf("%w: %v", ErrStampSync, err)
	}

	l.rollback(stampID)
	return nil
}

// rollback removes the stamp with the given id, if present.
func (l *Layer) rollback(stampID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.stamps {
		if l.stamps[i].ID == stampID {
			l.stamps = append(l.stamps[:i], l.stamps[i+1:]...)
			return
		}
	}
}

// Stamps returns a snapshot of the current stamps, pending included.
func (l *Layer) Stamps() []model.Stamp {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Stamp, len(l.stamps))
	copy(out, l.stamps)
	return out
}

// PageStamps returns a snapshot of the stamps anchored to one page.
func (l *Layer) PageStamps(pageNum int) []model.Stamp {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.Stamp
	for _, s := range l.stamps {
		if s.PageNum == pageNum {
			out = append(out, s)
		}
	}
	return out
}
