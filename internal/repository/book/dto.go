package book

import (
	"fmt"
	"strconv"
	"strings"

	dombook "github.com/kittylit/kittylit/internal/domain/book"
)

const tagSeparator = ","

// bookToHash converts a domain Book to a map for HSET.
func bookToHash(b *dombook.Book) map[string]string {
	return map[string]string{
		"id":            b.ID(),
		"isbn":          b.ISBN(),
		"title":         b.Title(),
		"author":        b.Author(),
		"age_min":       strconv.Itoa(b.AgeMin()),
		"age_max":       strconv.Itoa(b.AgeMax()),
		"categories":    strings.Join(b.Categories(), tagSeparator),
		"reading_level": b.ReadingLevel(),
		"safety_flags":  strings.Join(b.SafetyFlags(), tagSeparator),
	}
}

// bookFromHash hydrates a domain Book from hash fields and validates it.
func bookFromHash(m map[string]string) (dombook.Book, error) {
	ageMin, err := strconv.Atoi(m["age_min"])
	if err != nil {
		return dombook.Book{}, fmt.Errorf("invalid age_min %q: %w", m["age_min"], err)
	}
	ageMax, err := strconv.Atoi(m["age_max"])
	if err != nil {
		return dombook.Book{}, fmt.Errorf("invalid age_max %q: %w", m["age_max"], err)
	}
	return dombook.New(dombook.Fields{
		ID:           m["id"],
		ISBN:         m["isbn"],
		Title:        m["title"],
		Author:       m["author"],
		AgeMin:       ageMin,
		AgeMax:       ageMax,
		Categories:   splitTags(m["categories"]),
		ReadingLevel: m["reading_level"],
		SafetyFlags:  splitTags(m["safety_flags"]),
	})
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, tagSeparator)
}
