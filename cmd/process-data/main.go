package main

import (
	"fmt"

	"disaster-response/internal/config"
	"disaster-response/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const usage = "Please provide the filepaths of the messages and categories " +
	"datasets as the first and second argument respectively, as " +
	"well as the filepath of the database to save the cleaned data " +
	"to as the third argument. \n\nExample: process-data " +
	"disaster_messages.csv disaster_categories.csv " +
	"DisasterResponse.db"

func main() {
	// Initialize logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := newRootCmd(logger).Execute(); err != nil {
		logger.Fatal("Processing failed", zap.Error(err))
	}
}

func newRootCmd(logger *zap.Logger) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "process-data <messages_csv> <categories_csv> <database_file>",
		Short: "Merge, clean and store the disaster messages dataset",
		Long: `Merge the messages and categories CSV files on id, expand the
category string into one column per label, drop duplicate rows and
save the result to the dataset table of the database file.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 3 {
				fmt.Fprintln(cmd.OutOrStdout(), usage)
				return nil
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			processor := service.NewProcessor(cfg, cmd.OutOrStdout(), logger)
			_, err = processor.Run(cmd.Context(), args[0], args[1], args[2])
			return err
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	return cmd
}
