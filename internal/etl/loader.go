package etl

import (
	"bufio"
	"database/sql"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"disaster-response/internal/models"

	"github.com/cockroachdb/errors"
)

const readBufSize = 1 << 20

// LoadMessages reads the messages and categories files and left-joins them on
// the id column. Every messages row is kept; a row with several matching
// category rows appears once per match, a row with none has NULL category
// columns. The result holds the messages columns followed by the categories
// columns other than id.
func LoadMessages(messagesPath, categoriesPath string) (*models.JoinedTable, error) {
	mHeader, mRows, err := readCSV(messagesPath)
	if err != nil {
		return nil, err
	}
	cHeader, cRows, err := readCSV(categoriesPath)
	if err != nil {
		return nil, err
	}

	mKey := headerIndex(mHeader, models.ColumnID)
	if mKey < 0 {
		return nil, errors.Mark(errors.Newf("%s has no %q column", messagesPath, models.ColumnID), ErrJoinKeyMissing)
	}
	cKey := headerIndex(cHeader, models.ColumnID)
	if cKey < 0 {
		return nil, errors.Mark(errors.Newf("%s has no %q column", categoriesPath, models.ColumnID), ErrJoinKeyMissing)
	}

	columns := append([]string(nil), mHeader...)
	for i, col := range cHeader {
		if i != cKey {
			columns = append(columns, col)
		}
	}

	byID := make(map[string][]int, len(cRows))
	for i, row := range cRows {
		k := joinKey(row[cKey])
		byID[k] = append(byID[k], i)
	}

	table := &models.JoinedTable{Columns: columns}
	for _, m := range mRows {
		matches := byID[joinKey(m[mKey])]
		if len(matches) == 0 {
			row := make([]sql.NullString, 0, len(columns))
			row = appendNullable(row, m)
			for range cHeader[1:] {
				row = append(row, sql.NullString{})
			}
			table.Rows = append(table.Rows, row)
			continue
		}
		for _, ci := range matches {
			row := make([]sql.NullString, 0, len(columns))
			row = appendNullable(row, m)
			for i, v := range cRows[ci] {
				if i != cKey {
					row = append(row, nullable(v))
				}
			}
			table.Rows = append(table.Rows, row)
		}
	}

	return table, nil
}

// readCSV returns the trimmed header and all data rows of path.
func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Mark(errors.Wrapf(err, "open %s", path), ErrFileNotFound)
	}
	defer f.Close()

	reader := csv.NewReader(bufio.NewReaderSize(f, readBufSize))

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, errors.Mark(errors.Newf("%s is empty", path), ErrMalformedCSV)
	}
	if err != nil {
		return nil, nil, errors.Mark(errors.Wrapf(err, "read header of %s", path), ErrMalformedCSV)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
	}

	var rows [][]string
	rowNum := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			return nil, nil, errors.Mark(errors.Wrapf(err, "%s row %d", path, rowNum), ErrMalformedCSV)
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

func headerIndex(header []string, name string) int {
	for i, col := range header {
		if col == name {
			return i
		}
	}
	return -1
}

// joinKey canonicalizes integer ids so that "007" and "7" join.
func joinKey(v string) string {
	v = strings.TrimSpace(v)
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return v
}

func nullable(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func appendNullable(dst []sql.NullString, values []string) []sql.NullString {
	for _, v := range values {
		dst = append(dst, nullable(v))
	}
	return dst
}
