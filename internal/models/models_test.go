package models

import (
	"reflect"
	"testing"
)

func TestSplitList(t *testing.T) {
	cases := map[string][]string{
		"Action, Sci-Fi":   {"Action", "Sci-Fi"},
		" Drama ,, Crime ": {"Drama", "Crime"},
		"N/A":              {},
		"":                 {},
	}
	for in, want := range cases {
		if got := SplitList(in); !reflect.DeepEqual(got, want) {
			t.Fatalf("SplitList(%q) = %#v want %#v", in, got, want)
		}
	}
}

func TestMovieKeys(t *testing.T) {
	m := Movie{Title: "  The Matrix ", Genre: []string{"Action", " Sci-Fi", " "}}
	if got := m.TitleKey(); got != "the matrix" {
		t.Fatalf("unexpected title key %q", got)
	}
	if got := m.GenreKeys(); !reflect.DeepEqual(got, []string{"action", "sci-fi"}) {
		t.Fatalf("unexpected genre keys %#v", got)
	}
}

func TestUserIsActive(t *testing.T) {
	if (User{Status: UserStatusPending}).IsActive() {
		t.Fatal("pending user should not be active")
	}
	if !(User{Status: UserStatusActive}).IsActive() {
		t.Fatal("active user should be active")
	}
}
