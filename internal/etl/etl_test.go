package etl

import (
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"disaster-response/internal/models"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* Helpers for CSV fixtures ------------------------------------------- */

func writeTempCSV(t *testing.T, name string, content [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll(content))
	require.NoError(t, f.Close())
	return path
}

func messagesFixture(t *testing.T) string {
	return writeTempCSV(t, "messages.csv", [][]string{
		{"id", "message", "original", "genre"},
		{"2", "Weather update - a cold front", "Un front froid", "direct"},
		{"7", "Is the Hurricane over or is it not over", "", "direct"},
		{"8", "Looking for someone but no name", "", "direct"},
		{"9", "No categories for this one", "", "news"},
	})
}

func categoriesFixture(t *testing.T) string {
	return writeTempCSV(t, "categories.csv", [][]string{
		{"id", "categories"},
		{"2", "related-1;request-0;offer-0"},
		{"7", "related-1;request-0;offer-0"},
		{"8", "related-1;request-1;offer-0"},
		{"8", "related-1;request-1;offer-0"},
	})
}

func ns(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

/* Loader ------------------------------------------------------------- */

func TestLoadMessages_LeftJoin(t *testing.T) {
	table, err := LoadMessages(messagesFixture(t), categoriesFixture(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "message", "original", "genre", "categories"}, table.Columns)
	// id 8 matches two category rows, id 9 none.
	require.Len(t, table.Rows, 5)

	last := table.Rows[4]
	assert.Equal(t, "9", last[0].String)
	assert.False(t, last[4].Valid, "unmatched message keeps a NULL category")
	assert.False(t, table.Rows[1][2].Valid, "empty original is NULL")
}

func TestLoadMessages_CanonicalIntegerKeys(t *testing.T) {
	msgs := writeTempCSV(t, "m.csv", [][]string{{"id", "message"}, {"007", "hello"}})
	cats := writeTempCSV(t, "c.csv", [][]string{{"categories", "id"}, {"related-1", "7"}})

	table, err := LoadMessages(msgs, cats)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "related-1", table.Rows[0][2].String)
}

func TestLoadMessages_Errors(t *testing.T) {
	msgs := messagesFixture(t)
	cats := categoriesFixture(t)
	noKey := writeTempCSV(t, "nokey.csv", [][]string{{"ident", "categories"}, {"1", "related-1"}})
	ragged := writeTempCSV(t, "ragged.csv", [][]string{{"id", "message"}, {"1", "a"}})
	// csv.Writer cannot produce a ragged file; append one by hand.
	f, err := os.OpenFile(ragged, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("2,b,extra\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	cases := []struct {
		name       string
		messages   string
		categories string
		want       error
	}{
		{"missing messages file", filepath.Join(t.TempDir(), "absent.csv"), cats, ErrFileNotFound},
		{"missing categories file", msgs, filepath.Join(t.TempDir(), "absent.csv"), ErrFileNotFound},
		{"categories without id", msgs, noKey, ErrJoinKeyMissing},
		{"messages without id", noKey, cats, ErrJoinKeyMissing},
		{"ragged row", ragged, cats, ErrMalformedCSV},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadMessages(tc.messages, tc.categories)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

/* Cleaner ------------------------------------------------------------ */

func TestClean_ExpandsAndDeduplicates(t *testing.T) {
	table, err := LoadMessages(messagesFixture(t), categoriesFixture(t))
	require.NoError(t, err)

	ds, err := Clean(table, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "message", "original", "genre"}, ds.Fields)
	assert.Equal(t, []string{"related", "request", "offer"}, ds.Labels)
	// The duplicated id 8 row collapses.
	require.Len(t, ds.Rows, 4)

	assert.Equal(t, int64(1), ds.Rows[2].Labels[1].Int64)
	for _, l := range ds.Rows[3].Labels {
		assert.False(t, l.Valid)
	}

	seen := map[string]bool{}
	for _, rec := range ds.Rows {
		k := recordKey(rec)
		assert.False(t, seen[k], "duplicate row survived")
		seen[k] = true
	}
}

func TestClean_IntegerFieldsCompareByValue(t *testing.T) {
	msgs := writeTempCSV(t, "m.csv", [][]string{
		{"id", "message", "original", "genre"},
		{"7", "help", "", "direct"},
		{"007", "help", "", "direct"},
		{"12", "water", "", "news"},
	})
	cats := writeTempCSV(t, "c.csv", [][]string{
		{"id", "categories"},
		{"7", "related-1"},
		{"12", "related-0"},
	})
	table, err := LoadMessages(msgs, cats)
	require.NoError(t, err)

	ds, err := Clean(table, nil)
	require.NoError(t, err)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, []sql.NullString{ns("7"), ns("help"), ns(""), ns("direct")}, ds.Rows[0].Fields)
	assert.Equal(t, "12", ds.Rows[1].Fields[0].String)
}

func TestClean_TextFieldsKeepLeadingZeros(t *testing.T) {
	msgs := writeTempCSV(t, "m.csv", [][]string{
		{"id", "message"},
		{"1", "007"},
		{"2", "7"},
		{"3", "seven"},
	})
	cats := writeTempCSV(t, "c.csv", [][]string{
		{"id", "categories"},
		{"1", "related-1"},
		{"2", "related-1"},
		{"3", "related-1"},
	})
	table, err := LoadMessages(msgs, cats)
	require.NoError(t, err)

	ds, err := Clean(table, nil)
	require.NoError(t, err)
	require.Len(t, ds.Rows, 3)
	assert.Equal(t, "007", ds.Rows[0].Fields[1].String)
}

func TestClean_ExplicitSchema(t *testing.T) {
	table := &models.JoinedTable{
		Columns: []string{"id", "message", "categories"},
		Rows: [][]sql.NullString{
			{ns("1"), ns("a"), ns("related-2;offer-0")},
		},
	}

	binary, err := models.NewLabelSchema([]models.LabelSpec{
		{Name: "related", Values: []int{0, 1}},
		{Name: "offer", Values: []int{0, 1}},
	})
	require.NoError(t, err)
	_, err = Clean(table, binary)
	assert.True(t, errors.Is(err, ErrMalformedCategoryToken), "value 2 is outside {0,1}: %v", err)

	wide, err := models.NewLabelSchema([]models.LabelSpec{{Name: "related"}, {Name: "offer"}})
	require.NoError(t, err)
	ds, err := Clean(table, wide)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ds.Rows[0].Labels[0].Int64)
}

func TestClean_MalformedTokens(t *testing.T) {
	cases := []struct {
		name       string
		categories []string
	}{
		{"multi-digit value", []string{"related-1;offer-0", "related-10;offer-0"}},
		{"non-numeric value", []string{"related-1;offer-0", "related-x;offer-0"}},
		{"missing separator", []string{"related-1;offer-0", "related1;offer-0"}},
		{"wrong token count", []string{"related-1;offer-0", "related-1"}},
		{"renamed label", []string{"related-1;offer-0", "related-1;aid-0"}},
		{"bad reference row", []string{"related-11;offer-0"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			table := &models.JoinedTable{Columns: []string{"id", "categories"}}
			for i, c := range tc.categories {
				table.Rows = append(table.Rows, []sql.NullString{ns(string(rune('1' + i))), ns(c)})
			}
			_, err := Clean(table, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedCategoryToken), "got %v", err)
		})
	}
}

func TestParseToken(t *testing.T) {
	tests := []struct {
		in      string
		name    string
		value   int
		wantErr bool
	}{
		{"related-1", "related", 1, false},
		{"aid_related-0", "aid_related", 0, false},
		{" water-9 ", "water", 9, false},
		{"multi-part-name-1", "multi-part-name", 1, false},
		{"related-", "", 0, true},
		{"-1", "", 0, true},
		{"related-12", "", 0, true},
		{"related-a", "", 0, true},
		{"", "", 0, true},
	}
	for _, tt := range tests {
		name, value, err := parseToken(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.name, name)
		assert.Equal(t, tt.value, value)
	}
}
