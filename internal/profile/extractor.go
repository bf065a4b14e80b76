package profile

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/kalambet/profilechat/internal/completion"
	"github.com/kalambet/profilechat/internal/observability"
)

// Extractor derives a Profile from raw conversation text using a completion
// backend.
type Extractor struct {
	client  completion.Completer
	metrics *observability.Metrics
}

// NewExtractor creates an Extractor. metrics may be nil.
func NewExtractor(client completion.Completer, metrics *observability.Metrics) *Extractor {
	return &Extractor{client: client, metrics: metrics}
}

// Extract summarizes conversation into a Profile. When existing is non-nil
// its real traits are carried into the result even if the model drops them.
// Extract never fails: on any completion or parse error it returns existing,
// or the empty profile when there is none.
func (e *Extractor) Extract(ctx context.Context, conversation string, existing *Profile) Profile {
	mode := "create"
	if existing != nil {
		mode = "merge"
	}

	slog.Debug("extracting user profile", "mode", mode, "input_bytes", len(conversation))
	if existing != nil {
		slog.Debug("existing profile", "profile", existing.Indented())
	}

	if strings.TrimSpace(conversation) == "" {
		e.metrics.IncExtraction(mode, "skipped")
		return fallback(existing)
	}

	start := time.Now()
	raw, err := e.client.Complete(ctx, BuildPrompt(conversation, existing))
	e.metrics.ObserveCompletionLatency(time.Since(start))
	if err != nil {
		slog.Warn("profile extraction completion failed", "mode", mode, "error", err)
		e.metrics.IncExtraction(mode, "fallback")
		return fallback(existing)
	}

	extracted, missing, err := decode(raw)
	if err != nil {
		slog.Warn("failed to parse extracted profile", "mode", mode, "error", err, "response", raw)
		e.metrics.IncExtraction(mode, "fallback")
		return fallback(existing)
	}

	outcome := "ok"
	if len(missing) > 0 {
		slog.Warn("extracted profile missing categories", "categories", missing)
		outcome = "repaired"
		for _, name := range missing {
			if existing != nil {
				*extracted.slot(name) = append([]Trait(nil), existing.Traits(name)...)
			} else {
				*extracted.slot(name) = []Trait{{}}
			}
		}
	}

	result := Normalize(extracted)
	if existing != nil {
		result = Merge(*existing, result)
	}
	e.metrics.IncExtraction(mode, outcome)
	slog.Debug("profile extracted", "profile", result.Indented())
	return result
}

func fallback(existing *Profile) Profile {
	if existing != nil {
		return existing.Clone()
	}
	return Empty()
}
