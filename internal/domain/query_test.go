package domain

import (
	"encoding/json"
	"testing"
)

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Tag
	}{
		{"lowercase passthrough", "vegan", "vegan"},
		{"uppercase", "VEGAN", "vegan"},
		{"spaces to hyphen", "Gluten Free", "gluten-free"},
		{"underscores to hyphen", "gluten_free", "gluten-free"},
		{"mixed separators", " Gluten  _ Free ", "gluten-free"},
		{"already hyphenated", "gluten-free", "gluten-free"},
		{"surrounding whitespace", "  organic  ", "organic"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTag(tt.input); got != tt.want {
				t.Errorf("NormalizeTag(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTagSetMergeDoesNotMutate(t *testing.T) {
	a := NewTagSet("vegan")
	b := NewTagSet("organic", "gluten_free")

	merged := a.Merge(b)

	if len(a) != 1 || len(b) != 2 {
		t.Fatalf("inputs mutated: a=%v b=%v", a, b)
	}
	for _, want := range []Tag{"vegan", "organic", "gluten-free"} {
		if !merged.Contains(want) {
			t.Errorf("merged set missing %q", want)
		}
	}
}

func TestTagSetJSONIsSortedAndStable(t *testing.T) {
	set := NewTagSet("vegan", "gluten free", "organic")

	first, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	second, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	want := `["gluten-free","organic","vegan"]`
	if string(first) != want {
		t.Errorf("marshal = %s, want %s", first, want)
	}
	if string(first) != string(second) {
		t.Errorf("repeated marshal differs: %s vs %s", first, second)
	}

	var roundTrip TagSet
	if err := json.Unmarshal(first, &roundTrip); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(roundTrip) != 3 || !roundTrip.Contains("gluten-free") {
		t.Errorf("round trip lost tags: %v", roundTrip)
	}
}

func TestCandidateMeetsConstraints(t *testing.T) {
	candidate := Candidate{
		Store:       "greenleaf",
		ProductName: "sprouted bread",
		Price:       PriceOf(4.29),
		Available:   true,
		Dietary: DietaryInfo{
			HandledRestrictions: []Tag{"vegan", "gluten-free"},
		},
	}

	tests := []struct {
		name        string
		constraints TagSet
		want        bool
	}{
		{"empty constraints always pass", NewTagSet(), true},
		{"single handled tag", NewTagSet("vegan"), true},
		{"all handled tags", NewTagSet("vegan", "gluten-free"), true},
		{"one unhandled tag fails", NewTagSet("vegan", "kosher"), false},
		{"exact match only, no substrings", NewTagSet("free"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := candidate.MeetsConstraints(tt.constraints); got != tt.want {
				t.Errorf("MeetsConstraints(%v) = %v, want %v", tt.constraints, got, tt.want)
			}
		})
	}
}

func TestCandidateEligible(t *testing.T) {
	tests := []struct {
		name      string
		candidate Candidate
		want      bool
	}{
		{"priced and available", Candidate{Price: PriceOf(1.99), Available: true}, true},
		{"missing price", Candidate{Price: nil, Available: true}, false},
		{"unavailable", Candidate{Price: PriceOf(1.99), Available: false}, false},
		{"zero price is still a price", Candidate{Price: PriceOf(0), Available: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.candidate.Eligible(); got != tt.want {
				t.Errorf("Eligible() = %v, want %v", got, tt.want)
			}
		})
	}
}
