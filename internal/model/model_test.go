package model

import "testing"

func TestParseListingTier(t *testing.T) {
	tests := []struct {
		in    string
		want  ListingTier
		known bool
	}{
		{"Standard", TierStandard, true},
		{"  premium ", TierPremium, true},
		{"PREMIUM", TierPremium, true},
		{"Clássico", TierStandard, true},
		{"classico", TierStandard, true},
		{"Classic", TierStandard, true},
		{"Gold", "Gold", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got := ParseListingTier(tt.in)
		if got != tt.want {
			t.Errorf("ParseListingTier(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if got.Known() != tt.known {
			t.Errorf("ParseListingTier(%q).Known() = %v, want %v", tt.in, got.Known(), tt.known)
		}
	}
}

func TestNormalizeSKU(t *testing.T) {
	if got := NormalizeSKU("\t A1 \n"); got != "A1" {
		t.Errorf("NormalizeSKU = %q, want A1", got)
	}
	if got := NormalizeSKU("a1"); got != "a1" {
		t.Errorf("NormalizeSKU must not change case, got %q", got)
	}
}
