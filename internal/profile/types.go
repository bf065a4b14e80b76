package profile

import (
	"encoding/json"
	"strings"
)

// Confidence is how sure the extractor is about a trait.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Category keys. Every Profile carries all five.
const (
	CategoryPersonalInfo         = "personal_info"
	CategoryInterestsPreferences = "interests_preferences"
	CategoryCommunicationStyle   = "communication_style"
	CategoryCommonTopics         = "common_topics"
	CategoryTechnicalSkills      = "technical_skills"
)

// Categories lists the category keys in their serialized order.
var Categories = []string{
	CategoryPersonalInfo,
	CategoryInterestsPreferences,
	CategoryCommunicationStyle,
	CategoryCommonTopics,
	CategoryTechnicalSkills,
}

// Trait is a single observation about the user. Category is a free-form
// snake_case label chosen by the extractor, not one of the five keys.
type Trait struct {
	Item       string     `json:"item"`
	Category   string     `json:"category"`
	Confidence Confidence `json:"confidence"`
}

// IsPlaceholder reports whether t is the empty filler trait.
func (t Trait) IsPlaceholder() bool {
	return strings.TrimSpace(t.Item) == ""
}

// Profile is the derived summary of the user across sessions.
type Profile struct {
	PersonalInfo         []Trait `json:"personal_info"`
	InterestsPreferences []Trait `json:"interests_preferences"`
	CommunicationStyle   []Trait `json:"communication_style"`
	CommonTopics         []Trait `json:"common_topics"`
	TechnicalSkills      []Trait `json:"technical_skills"`
}

// Empty returns the default profile: one placeholder trait per category.
func Empty() Profile {
	var p Profile
	for _, name := range Categories {
		*p.slot(name) = []Trait{{}}
	}
	return p
}

// Traits returns the traits stored under the category key name.
func (p Profile) Traits(name string) []Trait {
	s := (&p).slot(name)
	if s == nil {
		return nil
	}
	return *s
}

// IsEmpty reports whether p holds no real traits.
func (p Profile) IsEmpty() bool {
	for _, name := range Categories {
		for _, t := range p.Traits(name) {
			if !t.IsPlaceholder() {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	var out Profile
	for _, name := range Categories {
		src := p.Traits(name)
		if src == nil {
			continue
		}
		*out.slot(name) = append([]Trait(nil), src...)
	}
	return out
}

// Indented returns p as two-space indented JSON.
func (p Profile) Indented() string {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		// Profile holds only strings; marshaling cannot fail.
		return "{}"
	}
	return string(data)
}

func (p *Profile) slot(name string) *[]Trait {
	switch name {
	case CategoryPersonalInfo:
		return &p.PersonalInfo
	case CategoryInterestsPreferences:
		return &p.InterestsPreferences
	case CategoryCommunicationStyle:
		return &p.CommunicationStyle
	case CategoryCommonTopics:
		return &p.CommonTopics
	case CategoryTechnicalSkills:
		return &p.TechnicalSkills
	}
	return nil
}
