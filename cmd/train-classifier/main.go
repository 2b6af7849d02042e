package main

import (
	"fmt"

	"disaster-response/internal/config"
	"disaster-response/internal/service"
	"disaster-response/internal/textproc"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const usage = "Please provide the filepath of the disaster messages database " +
	"as the first argument and the filepath of the model file to " +
	"save the model to as the second argument. \n\nExample: " +
	"train-classifier ../data/DisasterResponse.db classifier.gob"

func main() {
	// Initialize logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := newRootCmd(logger).Execute(); err != nil {
		logger.Fatal("Training failed", zap.Error(err))
	}
}

func newRootCmd(logger *zap.Logger) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "train-classifier <database_file> <model_file>",
		Short: "Train the multi-label message classifier",
		Long: `Load the cleaned dataset, grid-search a TF-IDF random forest
pipeline, print a classification report per label and save the
best model.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				fmt.Fprintln(cmd.OutOrStdout(), usage)
				return nil
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			tokenizer, err := textproc.NewTokenizer(textproc.WithFaithful(cfg.Training.FaithfulTokenizer))
			if err != nil {
				return err
			}

			trainer := service.NewTrainer(cfg, tokenizer, cmd.OutOrStdout(), logger)
			_, err = trainer.Run(cmd.Context(), args[0], args[1])
			return err
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	return cmd
}
