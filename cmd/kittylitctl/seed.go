package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kittylit/kittylit/internal/domain/book"
)

var seedCmd = &cobra.Command{
	Use:   "seed <books.yaml>",
	Short: "Load book records into the configured book store",
	Long: `Reads a YAML file with a top-level "books" list and upserts every record
into the book store, creating the search index first when the store needs one.
Every record must satisfy the eligibility rules; the file is rejected as a whole otherwise.
With --reset the store is emptied first.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

var seedReset bool

func init() {
	seedCmd.Flags().BoolVar(&seedReset, "reset", false, "Delete every stored book before loading")
}

// seedFile is the on-disk seed format.
type seedFile struct {
	Books []book.Record `yaml:"books"`
}

func runSeed(cmd *cobra.Command, args []string) error {
	books, err := loadSeedFile(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd)
	defer cancel()

	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.close()

	if seedReset {
		if err := s.stores.Books.Reset(ctx); err != nil {
			return fmt.Errorf("reset store: %w", err)
		}
	}
	if err := s.stores.Books.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}
	if err := s.stores.Books.Save(ctx, books); err != nil {
		return fmt.Errorf("save books: %w", err)
	}
	total, err := s.stores.Books.Count(ctx)
	if err != nil {
		return fmt.Errorf("count books: %w", err)
	}

	s.logger.Info("Seed complete", zap.Int("loaded", len(books)), zap.Int("total", total))
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d books (%d in store)\n", len(books), total)
	return nil
}

// loadSeedFile parses and validates every record of a seed file.
func loadSeedFile(path string) ([]book.Book, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if len(f.Books) == 0 {
		return nil, fmt.Errorf("seed file %s has no books", path)
	}

	books := make([]book.Book, 0, len(f.Books))
	seen := make(map[string]struct{}, len(f.Books))
	var errs []error
	for i, r := range f.Books {
		b, err := book.New(r.Fields())
		if err != nil {
			errs = append(errs, fmt.Errorf("books[%d]: %w", i, err))
			continue
		}
		if _, dup := seen[b.ID()]; dup {
			errs = append(errs, fmt.Errorf("books[%d]: duplicate id %q", i, b.ID()))
			continue
		}
		seen[b.ID()] = struct{}{}
		books = append(books, b)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return books, nil
}
