package repository

import (
	"context"
	"fmt"

	"disaster-response/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// RunRepository stores training runs and their per-label evaluation reports.
type RunRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewRunRepository migrates the run tables and returns the repository.
func NewRunRepository(db *sqlx.DB, logger *zap.Logger) (*RunRepository, error) {
	if err := MigrateDB(db, logger); err != nil {
		return nil, err
	}
	return OpenRunRepository(db, logger), nil
}

// OpenRunRepository returns a repository without touching the schema. Reads
// from a database that never recorded a run return no rows.
func OpenRunRepository(db *sqlx.DB, logger *zap.Logger) *RunRepository {
	return &RunRepository{
		db:     db,
		logger: logger,
	}
}

// SaveRun saves a run and its metrics in one transaction.
func (r *RunRepository) SaveRun(ctx context.Context, run *models.TrainingRun, metrics []models.LabelMetric) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO training_runs (
			id, started_at, finished_at, n_train, n_test, best_params, cv_score, model_path
		) VALUES (
			:id, :started_at, :finished_at, :n_train, :n_test, :best_params, :cv_score, :model_path
		)`, run)
	if err != nil {
		return fmt.Errorf("failed to save training run: %w", err)
	}

	for _, m := range metrics {
		m.RunID = run.ID
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO label_metrics (
				run_id, label, class_value, precision_score, recall_score, f1_score, support
			) VALUES (
				:run_id, :label, :class_value, :precision_score, :recall_score, :f1_score, :support
			)`, m)
		if err != nil {
			return fmt.Errorf("failed to save metrics for %s: %w", m.Label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit training run: %w", err)
	}

	r.logger.Info("Training run recorded",
		zap.String("run_id", run.ID),
		zap.Int("metrics", len(metrics)))
	return nil
}

// ListRuns returns all runs, newest first.
func (r *RunRepository) ListRuns(ctx context.Context) ([]*models.TrainingRun, error) {
	runs := []*models.TrainingRun{}
	ok, err := tableExists(ctx, r.db, "training_runs")
	if err != nil {
		return nil, err
	}
	if !ok {
		return runs, nil
	}

	err = r.db.SelectContext(ctx, &runs, `
		SELECT id, started_at, finished_at, n_train, n_test, best_params, cv_score, model_path
		FROM training_runs
		ORDER BY started_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query training runs: %w", err)
	}
	return runs, nil
}

// GetMetrics returns the report rows of one run ordered by label and class.
func (r *RunRepository) GetMetrics(ctx context.Context, runID string) ([]models.LabelMetric, error) {
	metrics := []models.LabelMetric{}
	ok, err := tableExists(ctx, r.db, "label_metrics")
	if err != nil {
		return nil, err
	}
	if !ok {
		return metrics, nil
	}

	err = r.db.SelectContext(ctx, &metrics, r.db.Rebind(`
		SELECT run_id, label, class_value, precision_score, recall_score, f1_score, support
		FROM label_metrics
		WHERE run_id = ?
		ORDER BY label, class_value
	`), runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics of run %s: %w", runID, err)
	}
	return metrics, nil
}
