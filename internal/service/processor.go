package service

import (
	"context"
	"fmt"
	"io"

	"disaster-response/internal/config"
	"disaster-response/internal/etl"
	"disaster-response/internal/models"
	"disaster-response/internal/repository"

	"go.uber.org/zap"
)

// Processor runs the ETL stage: load, clean, save.
type Processor struct {
	cfg    *config.Config
	out    io.Writer
	logger *zap.Logger
}

// NewProcessor creates a processor that reports progress to out.
func NewProcessor(cfg *config.Config, out io.Writer, logger *zap.Logger) *Processor {
	return &Processor{
		cfg:    cfg,
		out:    out,
		logger: logger,
	}
}

// Run merges the two CSV files, cleans the result and writes it to the
// dataset table of databasePath.
func (p *Processor) Run(ctx context.Context, messagesPath, categoriesPath, databasePath string) (*models.Dataset, error) {
	fmt.Fprintf(p.out, "Loading data...\n    MESSAGES: %s\n    CATEGORIES: %s\n", messagesPath, categoriesPath)
	table, err := etl.LoadMessages(messagesPath, categoriesPath)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("Messages merged",
		zap.Int("rows", len(table.Rows)),
		zap.Strings("columns", table.Columns))

	fmt.Fprintln(p.out, "Cleaning data...")
	schema, err := p.cfg.LabelSchema()
	if err != nil {
		return nil, err
	}
	ds, err := etl.Clean(table, schema)
	if err != nil {
		return nil, err
	}
	p.logger.Info("Data cleaned",
		zap.Int("rows_in", len(table.Rows)),
		zap.Int("rows_out", len(ds.Rows)),
		zap.Int("labels", len(ds.Labels)))

	fmt.Fprintf(p.out, "Saving data...\n    DATABASE: %s\n", databasePath)
	db, err := repository.NewDB(p.cfg.Database.Type, databasePath, p.logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	repo := repository.NewDatasetRepository(db, p.cfg.Database.Table, p.logger)
	if err := repo.SaveDataset(ctx, ds, p.cfg.Database.IfExists); err != nil {
		return nil, err
	}

	fmt.Fprintln(p.out, "Cleaned data saved to database!")
	return ds, nil
}
