package book

import (
	"errors"
	"testing"

	"github.com/kittylit/kittylit/internal/domain"
)

func validFields() Fields {
	return Fields{
		ID:           "b-1",
		ISBN:         "9780000000001",
		Title:        "The Dragon Who Read",
		Author:       "A. Writer",
		AgeMin:       5,
		AgeMax:       8,
		Categories:   []string{"Fantasy", "animals"},
		ReadingLevel: "Beginner",
	}
}

func TestNew_Valid(t *testing.T) {
	b, err := New(validFields())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.PrimaryCategory() != "fantasy" {
		t.Errorf("PrimaryCategory() = %q, want fantasy", b.PrimaryCategory())
	}
	if b.ReadingLevel() != "beginner" {
		t.Errorf("ReadingLevel() = %q, want beginner", b.ReadingLevel())
	}
	if !b.HasCategory("animals") {
		t.Error("expected animals category")
	}
}

func TestNew_InvariantViolations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *Fields)
	}{
		{"missing id", func(f *Fields) { f.ID = " " }},
		{"missing title", func(f *Fields) { f.Title = "" }},
		{"zero age range", func(f *Fields) { f.AgeMin, f.AgeMax = 0, 0 }},
		{"inverted age range", func(f *Fields) { f.AgeMin, f.AgeMax = 9, 4 }},
		{"negative age", func(f *Fields) { f.AgeMin = -1 }},
		{"no categories", func(f *Fields) { f.Categories = nil }},
		{"blank categories", func(f *Fields) { f.Categories = []string{" ", ""} }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := validFields()
			tc.mutate(&f)
			_, err := New(f)
			if !errors.Is(err, domain.ErrInvalidBook) {
				t.Fatalf("expected ErrInvalidBook, got %v", err)
			}
		})
	}
}

func TestContainsAge(t *testing.T) {
	b := Reconstruct(validFields())
	for age, want := range map[int]bool{4: false, 5: true, 7: true, 8: true, 9: false} {
		if got := b.ContainsAge(age); got != want {
			t.Errorf("ContainsAge(%d) = %v, want %v", age, got, want)
		}
	}
}

func TestReconstruct_DedupesTags(t *testing.T) {
	f := validFields()
	f.SafetyFlags = []string{"Violence", "violence", " "}
	b := Reconstruct(f)
	if len(b.SafetyFlags()) != 1 || !b.HasFlag("violence") {
		t.Errorf("SafetyFlags() = %v", b.SafetyFlags())
	}
}

func TestRecord_RoundTripKeepsOrder(t *testing.T) {
	b := Reconstruct(validFields())
	back := Reconstruct(ToRecord(&b).Fields())
	if back.PrimaryCategory() != b.PrimaryCategory() || back.ISBN() != b.ISBN() {
		t.Errorf("record conversion lost data: %+v", ToRecord(&back))
	}
}
