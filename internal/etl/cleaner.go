package etl

import (
	"database/sql"
	"strconv"
	"strings"

	"disaster-response/internal/models"

	"github.com/cockroachdb/errors"
)

const (
	categoryDelimiter = ";"
	valueSeparator    = "-"
)

// InferSchema derives the label schema from the first row that carries a
// category string: each token's name, in token order, with the digit domain.
func InferSchema(table *models.JoinedTable) (*models.LabelSchema, error) {
	catIdx := table.ColumnIndex(models.ColumnCategories)
	if catIdx < 0 {
		return nil, errors.Mark(errors.Newf("no %q column", models.ColumnCategories), ErrMalformedCategoryToken)
	}

	for i, row := range table.Rows {
		if !row[catIdx].Valid {
			continue
		}
		tokens := strings.Split(row[catIdx].String, categoryDelimiter)
		specs := make([]models.LabelSpec, 0, len(tokens))
		for _, tok := range tokens {
			name, _, err := parseToken(tok)
			if err != nil {
				return nil, errors.Wrapf(err, "reference row %d", i+1)
			}
			specs = append(specs, models.LabelSpec{Name: name})
		}
		schema, err := models.NewLabelSchema(specs)
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "reference row %d", i+1), ErrMalformedCategoryToken)
		}
		return schema, nil
	}
	return nil, errors.Mark(errors.New("no row has a category string to infer labels from"), ErrMalformedCategoryToken)
}

// Clean expands the categories column into one integer column per label of
// schema, drops the combined column and removes exact-duplicate rows, keeping
// the first occurrence. A nil schema is inferred with InferSchema.
func Clean(table *models.JoinedTable, schema *models.LabelSchema) (*models.Dataset, error) {
	catIdx := table.ColumnIndex(models.ColumnCategories)
	if catIdx < 0 {
		return nil, errors.Mark(errors.Newf("no %q column", models.ColumnCategories), ErrMalformedCategoryToken)
	}
	if schema == nil {
		var err error
		if schema, err = InferSchema(table); err != nil {
			return nil, err
		}
	}

	ds := &models.Dataset{Labels: schema.Names()}
	for i, col := range table.Columns {
		if i != catIdx {
			ds.Fields = append(ds.Fields, col)
		}
	}

	records := make([]models.Record, 0, len(table.Rows))
	for r, row := range table.Rows {
		rec := models.Record{
			Fields: make([]sql.NullString, 0, len(ds.Fields)),
			Labels: make([]sql.NullInt64, schema.Len()),
		}
		for i, v := range row {
			if i != catIdx {
				rec.Fields = append(rec.Fields, v)
			}
		}
		if row[catIdx].Valid {
			values, err := parseCategories(row[catIdx].String, schema)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d", r+1)
			}
			for j, v := range values {
				rec.Labels[j] = sql.NullInt64{Int64: int64(v), Valid: true}
			}
		}

		records = append(records, rec)
	}
	canonicalizeIntegers(records, len(ds.Fields))

	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		key := recordKey(rec)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		ds.Rows = append(ds.Rows, rec)
	}

	return ds, nil
}

// canonicalizeIntegers rewrites every field column whose non-NULL values all
// parse as integers to their decimal form, so "007" and "7" compare equal
// here as they will once stored as INTEGER.
func canonicalizeIntegers(records []models.Record, nFields int) {
	for i := 0; i < nFields; i++ {
		seen := false
		integer := true
		for _, rec := range records {
			f := rec.Fields[i]
			if !f.Valid {
				continue
			}
			seen = true
			if _, err := strconv.ParseInt(f.String, 10, 64); err != nil {
				integer = false
				break
			}
		}
		if !seen || !integer {
			continue
		}
		for _, rec := range records {
			if f := rec.Fields[i]; f.Valid {
				n, _ := strconv.ParseInt(f.String, 10, 64)
				rec.Fields[i].String = strconv.FormatInt(n, 10)
			}
		}
	}
}

// parseCategories splits a category string and checks every token against
// the label at the same position.
func parseCategories(s string, schema *models.LabelSchema) ([]int, error) {
	tokens := strings.Split(s, categoryDelimiter)
	if len(tokens) != schema.Len() {
		return nil, errors.Mark(
			errors.Newf("expected %d category tokens, got %d", schema.Len(), len(tokens)),
			ErrMalformedCategoryToken)
	}
	values := make([]int, len(tokens))
	for j, tok := range tokens {
		name, value, err := parseToken(tok)
		if err != nil {
			return nil, err
		}
		if name != schema.Name(j) {
			return nil, errors.Mark(
				errors.Newf("token %d is %q, expected label %q", j+1, name, schema.Name(j)),
				ErrMalformedCategoryToken)
		}
		if !schema.Allows(j, value) {
			return nil, errors.Mark(
				errors.Newf("label %q: value %d outside its domain", name, value),
				ErrMalformedCategoryToken)
		}
		values[j] = value
	}
	return values, nil
}

// parseToken splits "name-value". The value must be a single decimal digit.
func parseToken(tok string) (string, int, error) {
	tok = strings.TrimSpace(tok)
	sep := strings.LastIndex(tok, valueSeparator)
	if sep <= 0 {
		return "", 0, errors.Mark(errors.Newf("token %q is not name-value", tok), ErrMalformedCategoryToken)
	}
	name, raw := tok[:sep], tok[sep+1:]
	if len(raw) != 1 || raw[0] < '0' || raw[0] > '9' {
		return "", 0, errors.Mark(errors.Newf("token %q: value %q is not a single digit", tok, raw), ErrMalformedCategoryToken)
	}
	return name, int(raw[0] - '0'), nil
}

func recordKey(rec models.Record) string {
	var b strings.Builder
	for _, f := range rec.Fields {
		if !f.Valid {
			b.WriteString("\x01")
			continue
		}
		b.WriteString("\x02")
		b.WriteString(f.String)
		b.WriteString("\x00")
	}
	for _, l := range rec.Labels {
		if !l.Valid {
			b.WriteString("\x01")
			continue
		}
		b.WriteByte(byte('0' + l.Int64))
	}
	return b.String()
}
