package validation

import (
	"strings"
	"testing"
)

func TestValidateDisplayName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{name: "cyrillic", input: "Иван Петров", ok: true},
		{name: "hyphenated", input: "Анна-Мария Ёлкина", ok: true},
		{name: "latin", input: "John Smith", ok: false},
		{name: "digits", input: "Иван 2", ok: false},
		{name: "blank", input: "   ", ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateDisplayName(tc.input)
			if tc.ok && err != nil {
				t.Fatalf("expected valid display name, got error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected invalid display name, got nil error")
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	t.Parallel()

	valid := []string{"ivan", "ivan_p", "designer-42"}
	invalid := []string{"iv", "_ivan", "ivan-", "иван", "ivan petrov", "abcdefghijklmnopqrstuvwxyz12345"}

	for _, u := range valid {
		if err := ValidateUsername(u); err != nil {
			t.Errorf("expected %q to be valid, got %v", u, err)
		}
	}
	for _, u := range invalid {
		if err := ValidateUsername(u); err == nil {
			t.Errorf("expected %q to be invalid", u)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()

	if err := ValidateEmail("ivan@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, e := range []string{"", "ivan", "Ivan <ivan@example.com>", "ivan@"} {
		if err := ValidateEmail(e); err == nil {
			t.Errorf("expected %q to be invalid", e)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()

	if err := ValidatePassword("Secret123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidatePassword("Aa1" + strings.Repeat("x", MaxPasswordBytes-3)); err != nil {
		t.Fatalf("unexpected error at the length limit: %v", err)
	}
	tooLong := "Aa1" + strings.Repeat("x", MaxPasswordBytes-2)
	for _, p := range []string{"Short1", "alllowercase1", "ALLUPPERCASE1", "NoDigitsHere", tooLong} {
		if err := ValidatePassword(p); err == nil {
			t.Errorf("expected %q to be rejected", p)
		}
	}
}
