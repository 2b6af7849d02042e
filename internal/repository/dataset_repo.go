package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"disaster-response/internal/models"

	"github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Error kinds returned by DatasetRepository.
var (
	ErrTableExists   = errors.New("table already exists")
	ErrTableNotFound = errors.New("table not found")
)

// If-exists modes for SaveDataset.
const (
	IfExistsFail    = "fail"
	IfExistsReplace = "replace"
)

// DatasetRepository writes and reads the cleaned dataset as a single table.
type DatasetRepository struct {
	db     *sqlx.DB
	table  string
	logger *zap.Logger
}

// NewDatasetRepository creates a repository over table.
func NewDatasetRepository(db *sqlx.DB, table string, logger *zap.Logger) *DatasetRepository {
	return &DatasetRepository{
		db:     db,
		table:  table,
		logger: logger,
	}
}

// TableExists reports whether the dataset table is present.
func (r *DatasetRepository) TableExists(ctx context.Context) (bool, error) {
	return tableExists(ctx, r.db, r.table)
}

// SaveDataset creates the table and inserts every row in one transaction.
// ifExists decides what happens when the table is already there.
func (r *DatasetRepository) SaveDataset(ctx context.Context, ds *models.Dataset, ifExists string) error {
	exists, err := r.TableExists(ctx)
	if err != nil {
		return err
	}
	if exists && ifExists != IfExistsReplace {
		return errors.Mark(errors.Newf("table %q already exists", r.table), ErrTableExists)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if exists {
		if _, err := tx.ExecContext(ctx, "DROP TABLE "+quoteIdent(r.table)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", r.table, err)
		}
		r.logger.Info("Replacing existing table", zap.String("table", r.table))
	}

	integer := integerFields(ds)
	columns := ds.Columns()
	defs := make([]string, 0, len(columns))
	for i, name := range ds.Fields {
		typ := "TEXT"
		if integer[i] {
			typ = "INTEGER"
		}
		defs = append(defs, quoteIdent(name)+" "+typ)
	}
	for _, name := range ds.Labels {
		defs = append(defs, quoteIdent(name)+" INTEGER")
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(r.table), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create table %s: %w", r.table, err)
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(r.table),
		strings.Join(quoted, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "))

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(insert))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(columns))
	for n, rec := range ds.Rows {
		for i, f := range rec.Fields {
			args[i] = fieldArg(f, integer[i])
		}
		for j, l := range rec.Labels {
			if l.Valid {
				args[len(rec.Fields)+j] = l.Int64
			} else {
				args[len(rec.Fields)+j] = nil
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", n+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit dataset: %w", err)
	}

	r.logger.Info("Dataset saved",
		zap.String("table", r.table),
		zap.Int("rows", len(ds.Rows)),
		zap.Int("labels", len(ds.Labels)))

	return nil
}

// LoadDataset reads the table back. Columns named in models.MessageColumns
// become fields; every other column is a label.
func (r *DatasetRepository) LoadDataset(ctx context.Context) (*models.Dataset, error) {
	exists, err := r.TableExists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.Mark(errors.Newf("table %q does not exist", r.table), ErrTableNotFound)
	}

	rows, err := r.db.QueryxContext(ctx, "SELECT * FROM "+quoteIdent(r.table))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", r.table, err)
	}

	ds := &models.Dataset{}
	isField := make([]bool, len(columns))
	for i, c := range columns {
		if models.IsMessageColumn(c) {
			isField[i] = true
			ds.Fields = append(ds.Fields, c)
		} else {
			ds.Labels = append(ds.Labels, c)
		}
	}

	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec := models.Record{
			Fields: make([]sql.NullString, 0, len(ds.Fields)),
			Labels: make([]sql.NullInt64, 0, len(ds.Labels)),
		}
		for i, v := range values {
			if isField[i] {
				rec.Fields = append(rec.Fields, toNullString(v))
				continue
			}
			l, err := toNullInt64(v)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", columns[i], err)
			}
			rec.Labels = append(rec.Labels, l)
		}
		ds.Rows = append(ds.Rows, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", r.table, err)
	}

	r.logger.Info("Dataset loaded",
		zap.String("table", r.table),
		zap.Int("rows", len(ds.Rows)),
		zap.Int("labels", len(ds.Labels)))

	return ds, nil
}

// GetStats counts rows, rows per genre and non-zero / NULL values per label.
func (r *DatasetRepository) GetStats(ctx context.Context) (*models.DatasetStats, error) {
	exists, err := r.TableExists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.Mark(errors.Newf("table %q does not exist", r.table), ErrTableNotFound)
	}

	table := quoteIdent(r.table)
	stats := &models.DatasetStats{ByGenre: make(map[string]int)}

	if err := r.db.GetContext(ctx, &stats.Rows, "SELECT COUNT(*) FROM "+table); err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}

	rows, err := r.db.QueryxContext(ctx, "SELECT * FROM "+table+" LIMIT 0")
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.table, err)
	}
	columns, err := rows.Columns()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", r.table, err)
	}

	for _, c := range columns {
		if c == models.ColumnGenre {
			if err := r.countGenres(ctx, stats); err != nil {
				return nil, err
			}
			continue
		}
		if models.IsMessageColumn(c) {
			continue
		}
		col := quoteIdent(c)
		query := fmt.Sprintf(
			"SELECT COALESCE(SUM(CASE WHEN %s > 0 THEN 1 ELSE 0 END), 0), "+
				"COALESCE(SUM(CASE WHEN %s IS NULL THEN 1 ELSE 0 END), 0) FROM %s",
			col, col, table)
		ls := models.LabelStats{Label: c}
		if err := r.db.QueryRowxContext(ctx, query).Scan(&ls.Positive, &ls.Missing); err != nil {
			return nil, fmt.Errorf("failed to count label %s: %w", c, err)
		}
		stats.Labels = append(stats.Labels, ls)
	}

	return stats, nil
}

func (r *DatasetRepository) countGenres(ctx context.Context, stats *models.DatasetStats) error {
	col := quoteIdent(models.ColumnGenre)
	rows, err := r.db.QueryxContext(ctx,
		fmt.Sprintf("SELECT %s, COUNT(*) FROM %s GROUP BY %s", col, quoteIdent(r.table), col))
	if err != nil {
		return fmt.Errorf("failed to count genres: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var genre sql.NullString
		var count int
		if err := rows.Scan(&genre, &count); err != nil {
			r.logger.Error("Failed to scan genre count", zap.Error(err))
			continue
		}
		stats.ByGenre[genre.String] += count
	}
	return rows.Err()
}

// integerFields marks the fields whose non-NULL values all parse as integers.
func integerFields(ds *models.Dataset) []bool {
	integer := make([]bool, len(ds.Fields))
	for i := range ds.Fields {
		seen := false
		ok := true
		for _, rec := range ds.Rows {
			f := rec.Fields[i]
			if !f.Valid {
				continue
			}
			seen = true
			if _, err := strconv.ParseInt(f.String, 10, 64); err != nil {
				ok = false
				break
			}
		}
		integer[i] = seen && ok
	}
	return integer
}

func fieldArg(f sql.NullString, integer bool) any {
	if !f.Valid {
		return nil
	}
	if integer {
		n, _ := strconv.ParseInt(f.String, 10, 64)
		return n
	}
	return f.String
}

func toNullString(v any) sql.NullString {
	switch x := v.(type) {
	case nil:
		return sql.NullString{}
	case string:
		return sql.NullString{String: x, Valid: true}
	case []byte:
		return sql.NullString{String: string(x), Valid: true}
	case int64:
		return sql.NullString{String: strconv.FormatInt(x, 10), Valid: true}
	case float64:
		return sql.NullString{String: strconv.FormatFloat(x, 'f', -1, 64), Valid: true}
	case time.Time:
		return sql.NullString{String: x.Format(time.RFC3339Nano), Valid: true}
	default:
		return sql.NullString{String: fmt.Sprint(x), Valid: true}
	}
}

func toNullInt64(v any) (sql.NullInt64, error) {
	switch x := v.(type) {
	case nil:
		return sql.NullInt64{}, nil
	case int64:
		return sql.NullInt64{Int64: x, Valid: true}, nil
	case float64:
		if x != math.Trunc(x) {
			return sql.NullInt64{}, fmt.Errorf("label value %v is not an integer", x)
		}
		return sql.NullInt64{Int64: int64(x), Valid: true}, nil
	case string:
		return parseNullInt64(x)
	case []byte:
		return parseNullInt64(string(x))
	default:
		return sql.NullInt64{}, fmt.Errorf("unexpected label value type %T", v)
	}
}

func parseNullInt64(s string) (sql.NullInt64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return sql.NullInt64{}, fmt.Errorf("label value %q is not an integer", s)
	}
	return sql.NullInt64{Int64: n, Valid: true}, nil
}
