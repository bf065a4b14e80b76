package profile

import (
	"log/slog"

	"github.com/kalambet/profilechat/internal/observability"
)

// HistorySource lists and reads session files. Implemented by history.Log.
type HistorySource interface {
	ListRecent(limit int) ([]string, error)
	Read(path string) (string, error)
}

// Resolver finds the most recent profile across the session record and the
// history files.
type Resolver struct {
	store   *Store
	history HistorySource
	metrics *observability.Metrics
}

// NewResolver creates a Resolver. metrics may be nil.
func NewResolver(store *Store, history HistorySource, metrics *observability.Metrics) *Resolver {
	return &Resolver{store: store, history: history, metrics: metrics}
}

// ResolveLatest returns the record's profile if there is one, otherwise the
// profile embedded in the newest history file, otherwise the empty profile.
// It performs no writes.
func (r *Resolver) ResolveLatest() Profile {
	rec, ok, err := r.store.Load()
	if err != nil {
		slog.Warn("loading session record", "error", err)
	}
	if ok && rec.Profile != nil {
		slog.Debug("profile resolved from session record")
		r.metrics.IncResolution("record")
		return *rec.Profile
	}

	files, err := r.history.ListRecent(1)
	if err != nil {
		slog.Warn("listing history files", "error", err)
	}
	if len(files) == 0 {
		slog.Debug("no history files; using empty profile")
		r.metrics.IncResolution("empty")
		return Empty()
	}

	text, err := r.history.Read(files[0])
	if err != nil {
		slog.Warn("reading history file", "file", files[0], "error", err)
		r.metrics.IncResolution("empty")
		return Empty()
	}

	p, err := ParseEmbedded(text)
	if err != nil {
		slog.Debug("no usable embedded profile", "file", files[0], "error", err)
		r.metrics.IncResolution("empty")
		return Empty()
	}
	r.metrics.IncResolution("history")
	return p
}
