package util

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase", "DRAGONS", "dragons"},
		{"spaces to dashes", "slow burn", "slow-burn"},
		{"underscores and dots", "Saga_Vol.01", "saga-vol-01"},
		{"parentheses", "The Name of the Wind (2007)", "the-name-of-the-wind-2007"},
		{"accents folded", "Les Misérables", "les-miserables"},
		{"caron folded", "Dvořák Symphonies", "dvorak-symphonies"},
		{"polish and czech", "Łódź Żółć Šťastný", "lodz-zolc-stastny"},
		{"sharp s", "Straße", "strasse"},
		{"ligatures", "Æsop's Œuvre", "aesop-s-oeuvre"},
		{"fullwidth compatibility", "ＡＢＣ １２３", "abc-123"},
		{"fold is stable across forms", "Bro\u0308nte", "bronte"},
		{"emoji removal", "🐉 Dragons!", "dragons"},
		{"apostrophe splits", "don't", "don-t"},
		{"leading and trailing junk", "--dragons--", "dragons"},
		{"only junk", "!!!", ""},
		{"empty", "", ""},
		{"non latin dropped", "東京 Tokyo", "tokyo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.expected {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
