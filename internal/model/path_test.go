package model

import (
	"path/filepath"
	"testing"
)

func TestSanitizePathSegment(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Frostbite 2020", "Frostbite_2020"},
		{"Melee/Ultimate", "Melee-Ultimate"},
		{"Umebura／SP", "Umebura-SP"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizePathSegment(tt.in); got != tt.want {
			t.Errorf("SanitizePathSegment(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDateParts(t *testing.T) {
	// 2020-02-21 12:00:00 UTC
	year, month, day := DateParts(1582286400)
	if year != "2020" || month != "02" || day != "21" {
		t.Errorf("DateParts = %s/%s/%s", year, month, day)
	}
}

func TestEventDir(t *testing.T) {
	us := "US"
	got := EventDir("/data/events", &us, 1582286400, "Frostbite 2020", "Ultimate Singles")
	want := filepath.Join("/data/events", "North_America", "2020", "02", "21", "Frostbite_2020", "Ultimate_Singles")
	if got != want {
		t.Errorf("EventDir = %q, want %q", got, want)
	}
}

func TestEventDir_UnknownCountry(t *testing.T) {
	got := EventDir("/data/events", nil, 1582286400, "Some Cup", "Singles")
	want := filepath.Join("/data/events", "Other", "2020", "02", "21", "Some_Cup", "Singles")
	if got != want {
		t.Errorf("EventDir = %q, want %q", got, want)
	}
}

func TestRegionFromCountry(t *testing.T) {
	jp, us, br, fr, kr := "JP", "US", "BR", "FR", "KR"
	unknown := "ZZ"
	tests := []struct {
		code *string
		want string
	}{
		{&jp, "Japan"},
		{&us, "North America"},
		{&br, "South America"},
		{&fr, "Europe"},
		{&kr, "Other Asia"},
		{&unknown, "Other"},
		{nil, "Other"},
	}
	for _, tt := range tests {
		if got := RegionFromCountry(tt.code); got != tt.want {
			t.Errorf("RegionFromCountry(%v) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestMatchesKeyword(t *testing.T) {
	keywords := []string{"doubles", "squad strike", "melee"}
	tests := []struct {
		name string
		want bool
	}{
		{"Ultimate Singles", false},
		{"Ultimate Doubles", true},
		{"Squad Strike Bracket", true},
		{"Melee Singles", true},
		{"squad_strike", true},
	}
	for _, tt := range tests {
		if got := MatchesKeyword(tt.name, keywords); got != tt.want {
			t.Errorf("MatchesKeyword(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
	if MatchesKeyword("Anything", nil) {
		t.Error("empty keyword list must never match")
	}
}

func TestTournamentHasEvent(t *testing.T) {
	tour := Tournament{
		TournamentID: 1,
		Events: []TournamentEvent{
			{EventID: 10}, {EventID: 20},
		},
	}
	if !tour.HasEvent(10) {
		t.Error("expected event 10 to be registered")
	}
	if tour.HasEvent(30) {
		t.Error("did not expect event 30")
	}
}
