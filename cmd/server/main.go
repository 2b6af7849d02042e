package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"disaster-response/internal/config"
	"disaster-response/internal/handler"
	"disaster-response/internal/repository"
	"disaster-response/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	var configPath string
	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Serve the trained classifier over HTTP",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, logger)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "configs/config.yml", "path to the YAML config file")

	if err := cmd.Execute(); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func run(configPath string, logger *zap.Logger) error {
	logger.Info("Starting Disaster Response Service...")

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	classifier, err := service.NewClassifier(cfg.Server.ModelPath, logger)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}

	// Initialize repositories
	db, err := repository.NewDB(cfg.Database.Type, cfg.Server.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	// Read-only: run tables are created by train-classifier.
	runs := repository.OpenRunRepository(db, logger)
	datasets := repository.NewDatasetRepository(db, cfg.Database.Table, logger)

	// Initialize HTTP handler
	apiHandler := handler.NewHandler(classifier, service.NewCatalog(datasets, runs, logger), logger)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Register routes
	apiHandler.RegisterRoutes(router)

	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("Server starting", zap.String("address", serverAddr))

	// Graceful shutdown
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	logger.Info("Disaster Response Service is running",
		zap.String("port", cfg.Server.Port),
		zap.String("model", cfg.Server.ModelPath))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}
