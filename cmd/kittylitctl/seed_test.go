package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kittylit/kittylit/internal/domain"
	"github.com/kittylit/kittylit/internal/domain/candidate"
	"github.com/kittylit/kittylit/internal/domain/response"
)

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "books.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func TestLoadSeedFile(t *testing.T) {
	path := writeSeed(t, `
books:
  - id: b1
    isbn: "9780000000001"
    title: The Lantern Fox
    author: Ada Moss
    age_min: 6
    age_max: 8
    categories: [Fantasy, adventure]
    reading_level: Early
  - id: b2
    isbn: "9780000000002"
    title: Moon Harbor
    author: Ben Ortiz
    age_min: 9
    age_max: 12
    categories: [mystery]
    reading_level: intermediate
    safety_flags: [mild_peril]
`)

	books, err := loadSeedFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("expected 2 books, got %d", len(books))
	}
	if books[0].ID() != "b1" || books[0].ReadingLevel() != "early" {
		t.Errorf("unexpected first book: %s %s", books[0].ID(), books[0].ReadingLevel())
	}
	if got := books[0].Categories(); len(got) != 2 || got[0] != "fantasy" {
		t.Errorf("categories not normalized: %v", got)
	}
	if got := books[1].SafetyFlags(); len(got) != 1 || got[0] != "mild_peril" {
		t.Errorf("unexpected safety flags: %v", got)
	}
}

func TestLoadSeedFile_InvalidRecords(t *testing.T) {
	path := writeSeed(t, `
books:
  - id: b1
    title: Good Book
    author: A
    age_min: 6
    age_max: 8
    categories: [fantasy]
    reading_level: early
  - id: b2
    title: ""
    age_min: 6
    age_max: 8
    categories: [fantasy]
  - id: b1
    title: Duplicate
    age_min: 6
    age_max: 8
    categories: [fantasy]
`)

	_, err := loadSeedFile(path)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, domain.ErrInvalidBook) {
		t.Errorf("expected ErrInvalidBook in %v", err)
	}
	if !strings.Contains(err.Error(), "books[2]: duplicate id") {
		t.Errorf("expected duplicate report, got %v", err)
	}
}

func TestLoadSeedFile_Empty(t *testing.T) {
	path := writeSeed(t, "books: []\n")
	if _, err := loadSeedFile(path); err == nil {
		t.Fatal("expected error for empty seed file")
	}
}

func TestLoadSeedFile_Missing(t *testing.T) {
	if _, err := loadSeedFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestCLIResponse(t *testing.T) {
	r := &response.Response{
		Candidates: []response.Item{{ID: "b1", Title: "T", Author: "A", Score: 5.5, Source: candidate.SourceDB}},
		Explanation: response.Explanation{
			FallbackReason: response.ReasonCacheMiss,
			Confidence:     0.846,
			Rule:           "merged_sufficient",
		},
		Metadata: response.Metadata{QueryHash: "abc"},
	}

	out := cliResponse(r)

	cands, ok := out["candidates"].([]map[string]any)
	if !ok || len(cands) != 1 || cands[0]["source"] != candidate.SourceDB {
		t.Fatalf("unexpected candidates: %v", out["candidates"])
	}
	expl := out["explanation"].(map[string]any)
	if expl["fallback_reason"] != response.ReasonCacheMiss {
		t.Errorf("unexpected fallback_reason: %v", expl["fallback_reason"])
	}
	meta := out["metadata"].(map[string]any)
	if meta["query_hash"] != "abc" {
		t.Errorf("unexpected query_hash: %v", meta["query_hash"])
	}
}
