package service

import (
	"disaster-response/internal/models"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Features is the model input split off a cleaned dataset.
type Features struct {
	Docs    []string
	Y       [][]int
	Labels  []string
	Dropped int // rows skipped for a NULL label
}

// SplitFeatures takes the message column as input and every label column
// as output. Rows with a NULL label cannot be trained on and are dropped.
func SplitFeatures(ds *models.Dataset, logger *zap.Logger) (*Features, error) {
	msg := ds.FieldIndex(models.ColumnMessage)
	if msg < 0 {
		return nil, errors.Newf("dataset has no %q column", models.ColumnMessage)
	}
	if len(ds.Labels) == 0 {
		return nil, errors.New("dataset has no label columns")
	}

	f := &Features{Labels: ds.Labels}
rows:
	for _, rec := range ds.Rows {
		y := make([]int, len(rec.Labels))
		for j, l := range rec.Labels {
			if !l.Valid {
				f.Dropped++
				continue rows
			}
			y[j] = int(l.Int64)
		}
		f.Docs = append(f.Docs, rec.Fields[msg].String)
		f.Y = append(f.Y, y)
	}

	if f.Dropped > 0 {
		logger.Warn("Dropped rows with missing labels", zap.Int("rows", f.Dropped))
	}
	return f, nil
}
