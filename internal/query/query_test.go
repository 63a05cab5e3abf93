package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/codegraph/internal/model"
)

func TestParse_SimpleQuery(t *testing.T) {
	q := Parse("indexing engine")
	assert.Equal(t, "indexing engine", q.Text)
	assert.Empty(t, q.Author)
	assert.Nil(t, q.Lang)
	assert.Equal(t, DefaultLimit, q.Limit)
	assert.False(t, q.HasFilters())
}

func TestParse_WithFilters(t *testing.T) {
	q := Parse("storage author:Stanley lang:rust limit:5")

	assert.Equal(t, "storage", q.Text)
	assert.Equal(t, "Stanley", q.Author)
	require.NotNil(t, q.Lang)
	assert.Equal(t, model.LangRust, *q.Lang)
	assert.Equal(t, 5, q.Limit)
	assert.True(t, q.HasFilters())
}

func TestParse_UnknownKeyRetained(t *testing.T) {
	q := Parse("parser unknown:value")
	assert.Equal(t, "parser unknown:value", q.Text)
	assert.False(t, q.HasFilters())
}

func TestParse_LanguageCaseFold(t *testing.T) {
	q := Parse("x lang:Rust")
	require.NotNil(t, q.Lang)
	assert.Equal(t, model.LangRust, *q.Lang)

	q = Parse("x language:PYTHON")
	require.NotNil(t, q.Lang)
	assert.Equal(t, model.LangPython, *q.Lang)
}

func TestParse_Dates(t *testing.T) {
	q := Parse("x after:2024-01-01T00:00:00Z before:2024-06-01T12:00:00+02:00")

	require.NotNil(t, q.After)
	require.NotNil(t, q.Before)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *q.After)
	// Timezone offsets are normalized to UTC.
	assert.Equal(t, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), *q.Before)
	assert.Equal(t, time.UTC, q.Before.Location())
}

func TestParse_MalformedDateDropped(t *testing.T) {
	q := Parse("refactor after:yesterday")
	assert.Nil(t, q.After)
	assert.Equal(t, "refactor", q.Text, "textual part stays intact")
}

func TestParse_LimitValidation(t *testing.T) {
	assert.Equal(t, 25, Parse("x limit:25").Limit)
	assert.Equal(t, DefaultLimit, Parse("x limit:0").Limit)
	assert.Equal(t, DefaultLimit, Parse("x limit:-3").Limit)
	assert.Equal(t, DefaultLimit, Parse("x limit:many").Limit)
}

func TestParse_FileAndPathAliases(t *testing.T) {
	assert.Equal(t, "src/auth", Parse("x file:src/auth").FilePattern)
	assert.Equal(t, "src/auth", Parse("x path:src/auth").FilePattern)
}

func TestParse_UnrecognizedLangMapsToUnknown(t *testing.T) {
	q := Parse("x lang:cobol")
	require.NotNil(t, q.Lang)
	assert.Equal(t, model.LangUnknown, *q.Lang)
}

func TestParse_Empty(t *testing.T) {
	q := Parse("")
	assert.Empty(t, q.Text)
	assert.Equal(t, DefaultLimit, q.Limit)
}
