package service

import (
	"context"

	"disaster-response/internal/models"
	"disaster-response/internal/repository"

	"go.uber.org/zap"
)

// Catalog answers read-only queries about the stored dataset and the
// recorded training runs.
type Catalog struct {
	datasets *repository.DatasetRepository
	runs     *repository.RunRepository
	logger   *zap.Logger
}

// NewCatalog creates a catalog over the two repositories.
func NewCatalog(datasets *repository.DatasetRepository, runs *repository.RunRepository, logger *zap.Logger) *Catalog {
	return &Catalog{
		datasets: datasets,
		runs:     runs,
		logger:   logger,
	}
}

// DatasetStats returns row, genre and label counts of the cleaned table.
func (c *Catalog) DatasetStats(ctx context.Context) (*models.DatasetStats, error) {
	return c.datasets.GetStats(ctx)
}

// Dataset returns the whole cleaned table.
func (c *Catalog) Dataset(ctx context.Context) (*models.Dataset, error) {
	return c.datasets.LoadDataset(ctx)
}

// Runs returns every training run with its report rows, newest first.
func (c *Catalog) Runs(ctx context.Context) ([]*models.TrainingRunDetail, error) {
	runs, err := c.runs.ListRuns(ctx)
	if err != nil {
		return nil, err
	}

	details := make([]*models.TrainingRunDetail, 0, len(runs))
	for _, run := range runs {
		metrics, err := c.runs.GetMetrics(ctx, run.ID)
		if err != nil {
			return nil, err
		}
		details = append(details, &models.TrainingRunDetail{TrainingRun: run, Metrics: metrics})
	}
	return details, nil
}
