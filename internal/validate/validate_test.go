package validate

import (
	"strings"
	"testing"
	"time"
)

func TestUsername(t *testing.T) {
	testCases := []struct {
		name     string
		username string
		wantOK   bool
	}{
		{"simple", "alice", true},
		{"full charset", "User_123.name@x+y-z", true},
		{"reserved me", "me", false},
		{"me as prefix is fine", "mexico", true},
		{"space", "alice smith", false},
		{"unicode", "алиса", false},
		{"hash", "alice#1", false},
		{"max length", strings.Repeat("a", 150), true},
		{"too long", strings.Repeat("a", 151), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Username(tc.username)
			if tc.wantOK && err != nil {
				t.Errorf("Username(%q) = %v, want nil", tc.username, err)
			}
			if !tc.wantOK && err == nil {
				t.Errorf("Username(%q) = nil, want error", tc.username)
			}
			if err != nil && err.Field != "username" {
				t.Errorf("error field = %q, want %q", err.Field, "username")
			}
		})
	}
}

func TestEmail(t *testing.T) {
	if err := Email(strings.Repeat("a", 244) + "@mail.org"); err != nil {
		t.Errorf("Email at bound = %v, want nil", err)
	}
	if err := Email(strings.Repeat("a", 250) + "@mail.org"); err == nil {
		t.Error("Email over bound = nil, want error")
	}
}

func TestName(t *testing.T) {
	if err := Name("first_name", strings.Repeat("x", 150)); err != nil {
		t.Errorf("Name at bound = %v, want nil", err)
	}
	err := Name("first_name", strings.Repeat("x", 151))
	if err == nil {
		t.Fatal("Name over bound = nil, want error")
	}
	if err.Field != "first_name" {
		t.Errorf("error field = %q, want %q", err.Field, "first_name")
	}
}

func TestSlug(t *testing.T) {
	testCases := []struct {
		slug   string
		wantOK bool
	}{
		{"movie", true},
		{"sci-fi_2", true},
		{"", false},
		{"with space", false},
		{"ümläut", false},
		{strings.Repeat("s", 50), true},
		{strings.Repeat("s", 51), false},
	}
	for _, tc := range testCases {
		err := Slug(tc.slug)
		if tc.wantOK && err != nil {
			t.Errorf("Slug(%q) = %v, want nil", tc.slug, err)
		}
		if !tc.wantOK && err == nil {
			t.Errorf("Slug(%q) = nil, want error", tc.slug)
		}
	}
}

func TestYear(t *testing.T) {
	current := time.Now().Year()
	testCases := []struct {
		name   string
		year   int
		wantOK bool
	}{
		{"current year", current, true},
		{"last year", current - 1, true},
		{"ancient, no lower bound", -500, true},
		{"next year", current + 1, false},
		{"far future", current + 1000, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Year(tc.year)
			if tc.wantOK && err != nil {
				t.Errorf("Year(%d) = %v, want nil", tc.year, err)
			}
			if !tc.wantOK && err == nil {
				t.Errorf("Year(%d) = nil, want error", tc.year)
			}
		})
	}
}

func TestScore(t *testing.T) {
	for n := 1; n <= 10; n++ {
		if err := Score(n); err != nil {
			t.Errorf("Score(%d) = %v, want nil", n, err)
		}
	}
	for _, n := range []int{0, -1, 11, 100} {
		if err := Score(n); err == nil {
			t.Errorf("Score(%d) = nil, want error", n)
		}
	}
}

func TestNotBlank(t *testing.T) {
	if err := NotBlank("text", "hello"); err != nil {
		t.Errorf("NotBlank(\"hello\") = %v, want nil", err)
	}
	for _, s := range []string{"", "   ", "\t\n "} {
		if err := NotBlank("text", s); err == nil {
			t.Errorf("NotBlank(%q) = nil, want error", s)
		}
	}
}

func TestNewRegistersCustomValidations(t *testing.T) {
	v := New()

	type payload struct {
		Username string `validate:"rhusername"`
		Slug     string `validate:"rhslug"`
		Year     int    `validate:"pastyear"`
		Text     string `validate:"notblank"`
	}

	good := payload{Username: "alice", Slug: "films", Year: time.Now().Year(), Text: "ok"}
	if err := v.Struct(good); err != nil {
		t.Fatalf("valid payload failed: %v", err)
	}

	bad := payload{Username: "me", Slug: "no spaces", Year: time.Now().Year() + 1, Text: "  "}
	if err := v.Struct(bad); err == nil {
		t.Fatal("invalid payload passed validation")
	}
}
