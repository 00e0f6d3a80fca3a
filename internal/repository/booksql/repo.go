package booksql

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/kittylit/kittylit/internal/db"
	dombook "github.com/kittylit/kittylit/internal/domain/book"
	"github.com/kittylit/kittylit/internal/domain/criteria"
)

const schema = `
CREATE TABLE IF NOT EXISTS books (
	id            TEXT PRIMARY KEY,
	isbn          TEXT NOT NULL DEFAULT '',
	title         TEXT NOT NULL,
	author        TEXT NOT NULL DEFAULT '',
	age_min       INTEGER NOT NULL,
	age_max       INTEGER NOT NULL,
	categories    TEXT NOT NULL,
	reading_level TEXT NOT NULL DEFAULT '',
	safety_flags  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_books_ages ON books(age_min, age_max);
CREATE INDEX IF NOT EXISTS idx_books_level ON books(reading_level);
`

// Repo is the SQLite-backed book store.
// Tag lists are stored comma-delimited with leading and trailing commas so a
// single LIKE pattern matches whole tags.
type Repo struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (or creates) the database at path and applies the schema.
// ":memory:" keeps everything in process; the pool is then limited to one connection.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Repo, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if _, err := conn.ExecContext(ctx, schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Repo{db: conn, logger: logger}, nil
}

// Close releases the database.
func (r *Repo) Close() error {
	return r.db.Close()
}

// Ping checks that the database answers.
func (r *Repo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// EnsureIndex is a no-op: the schema is applied on Open.
func (r *Repo) EnsureIndex(_ context.Context) error { return nil }

// Save upserts records in one transaction.
func (r *Repo) Save(ctx context.Context, books []dombook.Book) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &db.Error{Op: db.OpInsert, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO books (id, isbn, title, author, age_min, age_max, categories, reading_level, safety_flags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			isbn = excluded.isbn, title = excluded.title, author = excluded.author,
			age_min = excluded.age_min, age_max = excluded.age_max, categories = excluded.categories,
			reading_level = excluded.reading_level, safety_flags = excluded.safety_flags`)
	if err != nil {
		return &db.Error{Op: db.OpInsert, Err: err}
	}
	defer func() { _ = stmt.Close() }()

	for i := range books {
		b := &books[i]
		if _, err := stmt.ExecContext(ctx,
			b.ID(), b.ISBN(), b.Title(), b.Author(), b.AgeMin(), b.AgeMax(),
			joinTags(b.Categories()), b.ReadingLevel(), joinTags(b.SafetyFlags()),
		); err != nil {
			return &db.Error{Op: db.OpInsert, Err: fmt.Errorf("book %s: %w", b.ID(), err)}
		}
	}

	if err := tx.Commit(); err != nil {
		return &db.Error{Op: db.OpInsert, Err: err}
	}
	return nil
}

// Query returns records matching c, ordered by identifier.
func (r *Repo) Query(ctx context.Context, c criteria.Criteria) ([]dombook.Book, error) {
	if len(c.ReadingLevels) == 0 {
		return nil, fmt.Errorf("criteria accepts no reading level")
	}

	args := make([]any, 0, 6+len(c.ReadingLevels))
	args = append(args, "%,"+strings.ToLower(c.Genre)+",%", c.Age, c.AgeThrough)

	window := ""
	if !c.Unbounded {
		window = "AND age_min >= ? AND age_max <= ?"
		args = append(args, c.WindowMin, c.WindowMax)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(c.ReadingLevels)), ",")
	q := `SELECT id, isbn, title, author, age_min, age_max, categories, reading_level, safety_flags
		FROM books
		WHERE categories LIKE ?
		  AND age_min <= ? AND age_max >= ?
		  ` + window + `
		  AND reading_level IN (` + placeholders + `)
		ORDER BY id
		LIMIT ?`

	for _, l := range c.ReadingLevels {
		args = append(args, l)
	}
	args = append(args, c.Limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var books []dombook.Book
	for rows.Next() {
		var f dombook.Fields
		var cats, flags string
		if err := rows.Scan(&f.ID, &f.ISBN, &f.Title, &f.Author, &f.AgeMin, &f.AgeMax,
			&cats, &f.ReadingLevel, &flags); err != nil {
			return nil, &db.Error{Op: db.OpQuery, Err: err}
		}
		f.Categories = splitTags(cats)
		f.SafetyFlags = splitTags(flags)

		b, err := dombook.New(f)
		if err != nil {
			r.logger.Warn("skip malformed book record", zap.String("id", f.ID), zap.Error(err))
			continue
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: err}
	}
	return books, nil
}

// Reset deletes every book record.
func (r *Repo) Reset(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM books`); err != nil {
		return &db.Error{Op: db.OpDelete, Err: err}
	}
	return nil
}

// Count returns the number of stored records.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&n); err != nil {
		return 0, &db.Error{Op: db.OpQuery, Err: err}
	}
	return n, nil
}

func joinTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	return "," + strings.Join(tags, ",") + ","
}

func splitTags(s string) []string {
	s = strings.Trim(s, ",")
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
