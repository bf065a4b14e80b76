package profile

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestEmpty_HasPlaceholderPerCategory(t *testing.T) {
	p := Empty()
	for _, name := range Categories {
		got := p.Traits(name)
		if len(got) != 1 || got[0] != (Trait{}) {
			t.Errorf("%s = %+v, want single placeholder", name, got)
		}
	}
	if !p.IsEmpty() {
		t.Error("Empty().IsEmpty() = false")
	}
}

func TestEmpty_JSONShape(t *testing.T) {
	data, err := json.Marshal(Empty())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var m map[string][]map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(m) != len(Categories) {
		t.Fatalf("got %d keys, want %d", len(m), len(Categories))
	}
	want := map[string]string{"item": "", "category": "", "confidence": ""}
	for _, name := range Categories {
		if !reflect.DeepEqual(m[name], []map[string]string{want}) {
			t.Errorf("%s = %v, want [%v]", name, m[name], want)
		}
	}
}

func TestParse_CodeFence(t *testing.T) {
	in := "```json\n{\"personal_info\":[{\"item\":\"Name is Sam\",\"category\":\"name\",\"confidence\":\"high\"}]}\n```"
	p, err := Parse(in)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := p.PersonalInfo; len(got) != 1 || got[0].Item != "Name is Sam" {
		t.Errorf("PersonalInfo = %+v", got)
	}
	if got := p.TechnicalSkills; len(got) != 1 || !got[0].IsPlaceholder() {
		t.Errorf("missing category not repaired: %+v", got)
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"prose":       "Sure! Here is the profile.",
		"array":       `[1,2,3]`,
		"no keys":     `{"hobbies":[]}`,
		"bad traits":  `{"personal_info":"Sam"}`,
		"trailing":    `{"personal_info":[]} extra`,
		"null object": `null`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(in); err == nil {
				t.Errorf("Parse(%q) succeeded, want error", in)
			}
		})
	}
}

func TestParse_NoCategoriesSentinel(t *testing.T) {
	_, err := Parse(`{"unrelated":1}`)
	if !errors.Is(err, ErrNoCategories) {
		t.Errorf("err = %v, want ErrNoCategories", err)
	}
}

func TestNormalize(t *testing.T) {
	p := Profile{
		PersonalInfo: []Trait{
			{},
			{Item: "  Lives in Berlin ", Category: "location", Confidence: "HIGH"},
		},
		CommonTopics: []Trait{{Item: "Go", Category: "lang", Confidence: "certain"}},
	}
	got := Normalize(p)

	if len(got.PersonalInfo) != 1 {
		t.Fatalf("placeholder not dropped: %+v", got.PersonalInfo)
	}
	if got.PersonalInfo[0].Item != "Lives in Berlin" || got.PersonalInfo[0].Confidence != ConfidenceHigh {
		t.Errorf("PersonalInfo[0] = %+v", got.PersonalInfo[0])
	}
	if got.CommonTopics[0].Confidence != ConfidenceLow {
		t.Errorf("unknown confidence = %q, want low", got.CommonTopics[0].Confidence)
	}
	for _, name := range []string{CategoryInterestsPreferences, CategoryCommunicationStyle, CategoryTechnicalSkills} {
		if tr := got.Traits(name); len(tr) != 1 || !tr[0].IsPlaceholder() {
			t.Errorf("%s = %+v, want placeholder", name, tr)
		}
	}
}

func TestMerge_ReappendsDroppedItems(t *testing.T) {
	existing := Normalize(Profile{
		PersonalInfo:    []Trait{{Item: "Name is Sam", Category: "name", Confidence: ConfidenceHigh}},
		TechnicalSkills: []Trait{{Item: "Knows Go", Category: "languages", Confidence: ConfidenceMedium}},
	})
	extracted := Normalize(Profile{
		PersonalInfo: []Trait{
			{Item: "name is sam", Category: "name", Confidence: ConfidenceHigh},
			{Item: "Works as a nurse", Category: "occupation", Confidence: ConfidenceHigh},
		},
	})

	got := Merge(existing, extracted)

	if len(got.PersonalInfo) != 2 {
		t.Errorf("PersonalInfo = %+v, want 2 traits with no duplicate", got.PersonalInfo)
	}
	if len(got.TechnicalSkills) != 1 || got.TechnicalSkills[0].Item != "Knows Go" {
		t.Errorf("TechnicalSkills = %+v, want dropped item restored", got.TechnicalSkills)
	}
}

func TestMerge_KeepsDuplicateExistingItems(t *testing.T) {
	existing := Normalize(Profile{
		CommonTopics: []Trait{
			{Item: "Go", Category: "lang", Confidence: ConfidenceHigh},
			{Item: "go", Category: "lang", Confidence: ConfidenceLow},
		},
	})

	got := Merge(existing, Empty())

	if !reflect.DeepEqual(got.CommonTopics, existing.CommonTopics) {
		t.Errorf("CommonTopics = %+v, want both existing traits %+v", got.CommonTopics, existing.CommonTopics)
	}
}

func TestEmbed_RoundTrip(t *testing.T) {
	p := Normalize(Profile{
		PersonalInfo: []Trait{{Item: "Name is Sam", Category: "name", Confidence: ConfidenceHigh}},
	})
	block := Embed(p)

	for _, marker := range []string{SessionOpenMarker, ProfileLabel, ConversationStartMarker} {
		if !strings.Contains(block, marker) {
			t.Errorf("block missing %q", marker)
		}
	}

	text := "\n[2025-01-01 12:00:00] System:\n" + block + "\n\n[2025-01-01 12:00:05] User:\nhi\n"
	got, err := ParseEmbedded(text)
	if err != nil {
		t.Fatalf("ParseEmbedded: %v", err)
	}
	if !reflect.DeepEqual(got, p) {
		t.Errorf("round trip = %+v, want %+v", got, p)
	}
}

func TestParseEmbedded_WithoutLabel(t *testing.T) {
	text := SessionOpenMarker + "\n" + Empty().Indented() + "\n" + ConversationStartMarker
	got, err := ParseEmbedded(text)
	if err != nil {
		t.Fatalf("ParseEmbedded: %v", err)
	}
	if !reflect.DeepEqual(got, Empty()) {
		t.Errorf("got %+v, want empty profile", got)
	}
}

func TestParseEmbedded_Errors(t *testing.T) {
	if _, err := ParseEmbedded("just some chat"); !errors.Is(err, ErrNoEmbeddedProfile) {
		t.Errorf("no marker: err = %v, want ErrNoEmbeddedProfile", err)
	}
	bad := SessionOpenMarker + "\n" + ProfileLabel + "\n{not json\n" + ConversationStartMarker
	if _, err := ParseEmbedded(bad); err == nil {
		t.Error("malformed JSON: expected error")
	}
}
