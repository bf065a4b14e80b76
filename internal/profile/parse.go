package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrNoCategories is returned when a JSON object carries none of the category keys.
var ErrNoCategories = errors.New("profile has no known categories")

// Parse decodes data strictly as a Profile. A surrounding markdown code
// fence is removed first. Missing categories are filled with the placeholder.
func Parse(data string) (Profile, error) {
	p, missing, err := decode(data)
	if err != nil {
		return Profile{}, err
	}
	for _, name := range missing {
		*p.slot(name) = []Trait{{}}
	}
	return Normalize(p), nil
}

// decode parses data and reports which category keys were absent. Unknown
// keys are dropped.
func decode(data string) (Profile, []string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripCodeFence(data)), &raw); err != nil {
		return Profile{}, nil, fmt.Errorf("decoding profile: %w", err)
	}
	if raw == nil {
		return Profile{}, nil, fmt.Errorf("decoding profile: %w", ErrNoCategories)
	}

	var (
		p       Profile
		missing []string
	)
	for _, name := range Categories {
		v, ok := raw[name]
		if !ok || string(v) == "null" {
			missing = append(missing, name)
			continue
		}
		var traits []Trait
		if err := json.Unmarshal(v, &traits); err != nil {
			return Profile{}, nil, fmt.Errorf("decoding %s: %w", name, err)
		}
		*p.slot(name) = traits
		delete(raw, name)
	}
	if len(missing) == len(Categories) {
		return Profile{}, nil, fmt.Errorf("decoding profile: %w", ErrNoCategories)
	}
	for key := range raw {
		slog.Warn("dropping unknown profile key", "key", key)
	}
	return p, missing, nil
}

// stripCodeFence removes a ```json ... ``` wrapper if present.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		return s
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// Normalize enforces the profile invariants: every category is present,
// placeholders only appear in otherwise empty categories, and confidence is
// one of high, medium or low for real traits.
func Normalize(p Profile) Profile {
	var out Profile
	for _, name := range Categories {
		var traits []Trait
		for _, t := range p.Traits(name) {
			if t.IsPlaceholder() {
				continue
			}
			t.Item = strings.TrimSpace(t.Item)
			t.Category = strings.TrimSpace(t.Category)
			t.Confidence = normalizeConfidence(t.Confidence)
			traits = append(traits, t)
		}
		if len(traits) == 0 {
			traits = []Trait{{}}
		}
		*out.slot(name) = traits
	}
	return out
}

func normalizeConfidence(c Confidence) Confidence {
	switch Confidence(strings.ToLower(strings.TrimSpace(string(c)))) {
	case ConfidenceHigh:
		return ConfidenceHigh
	case ConfidenceMedium:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Merge re-appends every real trait of existing that extracted no longer
// mentions. Items are matched case-insensitively across all categories
// against extracted only, so duplicate existing traits are all kept.
func Merge(existing, extracted Profile) Profile {
	seen := make(map[string]bool)
	for _, name := range Categories {
		for _, t := range extracted.Traits(name) {
			if !t.IsPlaceholder() {
				seen[itemKey(t.Item)] = true
			}
		}
	}

	out := extracted.Clone()
	for _, name := range Categories {
		slot := out.slot(name)
		for _, t := range existing.Traits(name) {
			if t.IsPlaceholder() || seen[itemKey(t.Item)] {
				continue
			}
			*slot = append(*slot, t)
		}
	}
	return Normalize(out)
}

func itemKey(item string) string {
	return strings.ToLower(strings.TrimSpace(item))
}
