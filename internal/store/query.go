// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// snippetRadius is the number of characters kept on each side of a match
// in LIKE-mode snippets.
const snippetRadius = 60

// Hit is one document matching a search.
type Hit struct {
	RunID     int64
	Title     string
	Year      int
	WordCount int
	SourceURL string
	Snippet   string
}

// Search returns documents whose title or text match every term of query.
// FTS5 results are ranked by relevance; LIKE results by insertion order.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Hit, error) {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return nil, fmt.Errorf("empty search query")
	}
	if limit <= 0 {
		limit = defaultMaxResults
	}

	var (
		rows *sql.Rows
		err  error
	)
	if s.fts {
		rows, err = s.db.QueryContext(ctx,
			`SELECT d.run_id, d.title, d.year, d.word_count, d.source_url,
				snippet(documents_fts, 1, '[', ']', '...', 16)
			FROM documents_fts
			JOIN documents d ON d.rowid = documents_fts.rowid
			WHERE documents_fts MATCH ?
			ORDER BY documents_fts.rank
			LIMIT ?`, ftsQuery(terms), limit)
	} else {
		var (
			where []string
			args  []any
		)
		for _, t := range terms {
			where = append(where, `(d.title LIKE ? ESCAPE '\' OR d.text LIKE ? ESCAPE '\')`)
			pattern := "%" + likeEscape(t) + "%"
			args = append(args, pattern, pattern)
		}
		args = append(args, limit)
		rows, err = s.db.QueryContext(ctx,
			`SELECT d.run_id, d.title, d.year, d.word_count, d.source_url, d.text
			FROM documents d
			WHERE `+strings.Join(where, " AND ")+`
			ORDER BY d.rowid
			LIMIT ?`, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("searching corpus: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var (
			h    Hit
			year sql.NullInt64
			text string
		)
		if err := rows.Scan(&h.RunID, &h.Title, &year, &h.WordCount, &h.SourceURL, &text); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		h.Year = int(year.Int64)
		if s.fts {
			h.Snippet = text
		} else {
			h.Snippet = likeSnippet(text, terms[0])
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// ftsQuery quotes each term so user input cannot inject FTS5 syntax.
func ftsQuery(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}

func likeEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// likeSnippet returns the text around the first case-insensitive match of
// term, or the start of text when term does not occur in it.
func likeSnippet(text, term string) string {
	runes := []rune(text)
	lower := []rune(strings.ToLower(text))
	t := []rune(strings.ToLower(term))

	at := -1
	if len(lower) == len(runes) {
		for i := 0; i+len(t) <= len(lower); i++ {
			if string(lower[i:i+len(t)]) == string(t) {
				at = i
				break
			}
		}
	}
	if at < 0 {
		if utf8.RuneCountInString(text) <= 2*snippetRadius {
			return text
		}
		return string(runes[:2*snippetRadius]) + "..."
	}

	start := max(at-snippetRadius, 0)
	end := min(at+len(t)+snippetRadius, len(runes))
	snip := string(runes[start:end])
	if start > 0 {
		snip = "..." + snip
	}
	if end < len(runes) {
		snip += "..."
	}
	return snip
}

// Run summarizes one stored run.
type Run struct {
	ID         int64
	Command    string
	Topic      string
	Stop       string
	TotalWords int
	Documents  int
	CreatedAt  time.Time
}

// Stats summarizes the database contents.
type Stats struct {
	Runs          int
	Documents     int
	TotalWords    int
	UniqueSources int
	FTS           bool
	Recent        []Run
}

// Stats returns database totals and the most recent runs, newest first.
func (s *Store) Stats(ctx context.Context, recent int) (Stats, error) {
	st := Stats{FTS: s.fts}

	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM runs`).Scan(&st.Runs); err != nil {
		return st, fmt.Errorf("counting runs: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*), coalesce(sum(word_count), 0), count(DISTINCT source_url) FROM documents`,
	).Scan(&st.Documents, &st.TotalWords, &st.UniqueSources); err != nil {
		return st, fmt.Errorf("counting documents: %w", err)
	}

	if recent <= 0 {
		return st, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, command, coalesce(topic, ''), coalesce(stop_reason, ''), total_words, documents, created_at
		FROM runs ORDER BY id DESC LIMIT ?`, recent)
	if err != nil {
		return st, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r       Run
			created string
		)
		if err := rows.Scan(&r.ID, &r.Command, &r.Topic, &r.Stop, &r.TotalWords, &r.Documents, &created); err != nil {
			return st, fmt.Errorf("scanning run: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			r.CreatedAt = t
		}
		st.Recent = append(st.Recent, r)
	}
	return st, rows.Err()
}
