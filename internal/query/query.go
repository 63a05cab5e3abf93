// Package query implements the search query DSL. Whitespace-separated
// tokens of the form key:value with a recognized key become metadata
// filters; everything else concatenates into the free-text query.
package query

import (
	"strconv"
	"strings"
	"time"

	"github.com/Aman-CERP/codegraph/internal/model"
)

// DefaultLimit is the result limit used when the query does not set one.
const DefaultLimit = 10

// SearchQuery is a parsed query: semantic text plus metadata filters.
type SearchQuery struct {
	// Text is the free-text part of the query.
	Text string
	// Author filters by substring match on location attribution.
	Author string
	// Lang filters by exact language match. Nil when unset.
	Lang *model.Language
	// After keeps results attributed at or after this instant (UTC).
	After *time.Time
	// Before keeps results attributed before this instant (UTC).
	Before *time.Time
	// FilePattern filters by substring match on the file path.
	FilePattern string
	// Limit caps the number of results.
	Limit int
}

// HasFilters reports whether any metadata filter is set.
func (q *SearchQuery) HasFilters() bool {
	return q.Author != "" || q.Lang != nil || q.After != nil || q.Before != nil || q.FilePattern != ""
}

// Parse parses a raw query string.
//
// Recognized keys: author, lang/language, after/before (RFC 3339),
// file/path, limit. Unknown key:value tokens are kept in the free text
// verbatim; recognized keys with unparseable values are dropped without
// failing the query.
func Parse(input string) SearchQuery {
	q := SearchQuery{Limit: DefaultLimit}

	var textParts []string
	for _, token := range strings.Fields(input) {
		key, value, ok := strings.Cut(token, ":")
		if !ok {
			textParts = append(textParts, token)
			continue
		}

		switch strings.ToLower(key) {
		case "author":
			q.Author = value
		case "lang", "language":
			lang := model.LanguageFromString(value)
			q.Lang = &lang
		case "after":
			if t, err := time.Parse(time.RFC3339, value); err == nil {
				utc := t.UTC()
				q.After = &utc
			}
		case "before":
			if t, err := time.Parse(time.RFC3339, value); err == nil {
				utc := t.UTC()
				q.Before = &utc
			}
		case "file", "path":
			q.FilePattern = value
		case "limit":
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				q.Limit = n
			}
		default:
			// Unknown prefix: keep the whole token in the query text.
			textParts = append(textParts, token)
		}
	}

	q.Text = strings.Join(textParts, " ")
	return q
}
