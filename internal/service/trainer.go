package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"disaster-response/internal/config"
	"disaster-response/internal/ml"
	"disaster-response/internal/models"
	"disaster-response/internal/repository"
	"disaster-response/internal/textproc"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TrainResult summarizes a finished training run.
type TrainResult struct {
	Run      *models.TrainingRun
	Reports  []LabelReport
	Pipeline *ml.Pipeline
}

// Trainer runs the training stage: load, split, search, evaluate, save.
type Trainer struct {
	cfg       *config.Config
	tokenizer *textproc.Tokenizer
	out       io.Writer
	logger    *zap.Logger
}

// NewTrainer creates a trainer that reports progress and evaluation
// tables to out.
func NewTrainer(cfg *config.Config, tokenizer *textproc.Tokenizer, out io.Writer, logger *zap.Logger) *Trainer {
	return &Trainer{
		cfg:       cfg,
		tokenizer: tokenizer,
		out:       out,
		logger:    logger,
	}
}

// Run trains a classifier on the dataset table of databasePath and writes
// it to modelPath. The run and its evaluation are recorded in the same
// database.
func (t *Trainer) Run(ctx context.Context, databasePath, modelPath string) (*TrainResult, error) {
	started := time.Now()

	fmt.Fprintf(t.out, "Loading data...\n    DATABASE: %s\n", databasePath)
	db, err := repository.NewDB(t.cfg.Database.Type, databasePath, t.logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	ds, err := repository.NewDatasetRepository(db, t.cfg.Database.Table, t.logger).LoadDataset(ctx)
	if err != nil {
		return nil, err
	}
	features, err := SplitFeatures(ds, t.logger)
	if err != nil {
		return nil, err
	}

	train, test, err := ml.TrainTestSplit(len(features.Docs), t.cfg.Training.TestSize, t.cfg.Training.Seed)
	if err != nil {
		return nil, err
	}
	trainDocs, trainY := pick(train, features)
	testDocs, testY := pick(test, features)

	fmt.Fprintln(t.out, "Building model...")
	search := ml.NewGridSearch(t.tokenizer.Tokenize,
		ml.ParamGrid{
			NGramRanges:     t.cfg.Training.Grid.NGramRanges,
			MinSamplesSplit: t.cfg.Training.Grid.MinSamplesSplit,
		},
		t.cfg.Training.CVFolds,
		ml.ForestConfig{
			NEstimators: t.cfg.Training.NEstimators,
			Seed:        t.cfg.Training.Seed,
			Workers:     t.cfg.Training.Workers,
		},
		t.logger)

	fmt.Fprintln(t.out, "Training model...")
	if err := search.Fit(ctx, trainDocs, trainY, features.Labels); err != nil {
		return nil, err
	}
	t.logger.Info("Grid search finished",
		zap.String("best_params", search.BestParams().String()),
		zap.Float64("cv_score", search.BestScore()))

	fmt.Fprintln(t.out, "Evaluating model...")
	model := search.Best
	reports := Evaluate(model, testDocs, testY)
	if err := WriteReports(t.out, reports); err != nil {
		return nil, err
	}

	run := &models.TrainingRun{
		ID:         uuid.New().String(),
		StartedAt:  started,
		NTrain:     len(train),
		NTest:      len(test),
		BestParams: search.BestParams().String(),
		CVScore:    search.BestScore(),
		ModelPath:  modelPath,
	}
	model.RunID = run.ID
	model.Faithful = t.tokenizer.Faithful()

	fmt.Fprintf(t.out, "Saving model...\n    MODEL: %s\n", modelPath)
	if err := os.MkdirAll(filepath.Dir(modelPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create model directory: %w", err)
	}
	if err := ml.SaveModel(modelPath, model); err != nil {
		return nil, err
	}

	run.FinishedAt = time.Now()
	runs, err := repository.NewRunRepository(db, t.logger)
	if err != nil {
		return nil, err
	}
	if err := runs.SaveRun(ctx, run, reportMetrics(run.ID, reports)); err != nil {
		return nil, err
	}

	fmt.Fprintln(t.out, "Trained model saved!")
	return &TrainResult{Run: run, Reports: reports, Pipeline: model}, nil
}

func pick(idx []int, f *Features) ([]string, [][]int) {
	docs := make([]string, len(idx))
	Y := make([][]int, len(idx))
	for i, j := range idx {
		docs[i] = f.Docs[j]
		Y[i] = f.Y[j]
	}
	return docs, Y
}
