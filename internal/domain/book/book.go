package book

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kittylit/kittylit/internal/domain"
)

// Fields carries the raw attributes of a book record.
type Fields struct {
	ID           string
	ISBN         string
	Title        string
	Author       string
	AgeMin       int
	AgeMax       int
	Categories   []string
	ReadingLevel string
	SafetyFlags  []string
}

// Book is an immutable book record as held by the cache and the book store.
type Book struct {
	id           string
	isbn         string
	title        string
	author       string
	ageMin       int
	ageMax       int
	categories   []string
	readingLevel string
	safetyFlags  []string
}

// New validates the eligibility invariant and creates a Book.
// Every record needs an identifier, a title, a non-empty age range and at least one category.
func New(f Fields) (Book, error) {
	b := Reconstruct(f)
	if err := b.Validate(); err != nil {
		return Book{}, err
	}
	return b, nil
}

// Reconstruct creates a Book without validation (storage hydration).
// Categories, reading level and flags are normalized to lower case.
func Reconstruct(f Fields) Book {
	return Book{
		id:           strings.TrimSpace(f.ID),
		isbn:         strings.TrimSpace(f.ISBN),
		title:        strings.TrimSpace(f.Title),
		author:       strings.TrimSpace(f.Author),
		ageMin:       f.AgeMin,
		ageMax:       f.AgeMax,
		categories:   normalizeTags(f.Categories),
		readingLevel: strings.ToLower(strings.TrimSpace(f.ReadingLevel)),
		safetyFlags:  normalizeTags(f.SafetyFlags),
	}
}

// Validate checks the eligibility invariant.
func (b *Book) Validate() error {
	if b.id == "" {
		return fmt.Errorf("%w: id is required", domain.ErrInvalidBook)
	}
	if b.title == "" {
		return fmt.Errorf("%w: %s: title is required", domain.ErrInvalidBook, b.id)
	}
	if b.ageMin < 0 || b.ageMax <= 0 || b.ageMax < b.ageMin {
		return fmt.Errorf("%w: %s: invalid age range %d-%d", domain.ErrInvalidBook, b.id, b.ageMin, b.ageMax)
	}
	if len(b.categories) == 0 {
		return fmt.Errorf("%w: %s: at least one category is required", domain.ErrInvalidBook, b.id)
	}
	return nil
}

// ID returns the record identifier (ISBN or internal id).
func (b *Book) ID() string { return b.id }

// ISBN returns the ISBN, empty when unknown.
func (b *Book) ISBN() string { return b.isbn }

// Title returns the book title.
func (b *Book) Title() string { return b.title }

// Author returns the author line.
func (b *Book) Author() string { return b.author }

// AgeMin returns the lower bound of the recommended age range.
func (b *Book) AgeMin() int { return b.ageMin }

// AgeMax returns the upper bound of the recommended age range.
func (b *Book) AgeMax() int { return b.ageMax }

// Categories returns the category tags, primary first.
func (b *Book) Categories() []string { return b.categories }

// ReadingLevel returns the reading level tag.
func (b *Book) ReadingLevel() string { return b.readingLevel }

// SafetyFlags returns content flags attached to the record.
func (b *Book) SafetyFlags() []string { return b.safetyFlags }

// PrimaryCategory returns the first category or "".
func (b *Book) PrimaryCategory() string {
	if len(b.categories) == 0 {
		return ""
	}
	return b.categories[0]
}

// HasCategory reports whether c is one of the record's categories.
func (b *Book) HasCategory(c string) bool { return slices.Contains(b.categories, c) }

// ContainsAge reports whether age lies within the record's age range.
func (b *Book) ContainsAge(age int) bool { return age >= b.ageMin && age <= b.ageMax }

// HasFlag reports whether the record carries the given safety flag.
func (b *Book) HasFlag(flag string) bool { return slices.Contains(b.safetyFlags, flag) }

func normalizeTags(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}
