package handler

import (
	"encoding/csv"
	"net/http"
	"strconv"

	"disaster-response/internal/models"
	"disaster-response/internal/repository"
	"disaster-response/internal/service"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles HTTP requests
type Handler struct {
	classifier *service.Classifier
	catalog    *service.Catalog
	logger     *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(classifier *service.Classifier, catalog *service.Catalog, logger *zap.Logger) *Handler {
	return &Handler{
		classifier: classifier,
		catalog:    catalog,
		logger:     logger,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		// Classification
		api.POST("/classify", h.Classify)
		api.POST("/classify/batch", h.ClassifyBatch)

		// Data retrieval
		api.GET("/dataset/stats", h.GetDatasetStats)
		api.GET("/runs", h.GetRuns)

		// Export
		api.GET("/export/csv", h.ExportCSV)
	}

	// Health check
	r.GET("/health", h.HealthCheck)
}

// Classify handles single message classification
func (h *Handler) Classify(c *gin.Context) {
	var req models.ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.classifier.Classify(req.Text))
}

// ClassifyBatch handles batch classification
func (h *Handler) ClassifyBatch(c *gin.Context) {
	var req models.BatchClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results := h.classifier.ClassifyBatch(req.Messages)
	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"total":   len(results),
	})
}

// GetDatasetStats returns dataset statistics
func (h *Handler) GetDatasetStats(c *gin.Context) {
	stats, err := h.catalog.DatasetStats(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to get stats", err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetRuns returns recorded training runs with their reports
func (h *Handler) GetRuns(c *gin.Context) {
	runs, err := h.catalog.Runs(c.Request.Context())
	if err != nil {
		h.fail(c, "failed to get runs", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"total": len(runs),
	})
}

// ExportCSV exports the cleaned dataset to CSV
func (h *Handler) ExportCSV(c *gin.Context) {
	ds, err := h.catalog.Dataset(c.Request.Context())
	if err != nil {
		h.fail(c, "export failed", err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=dataset.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(ds.Columns())

	record := make([]string, len(ds.Fields)+len(ds.Labels))
	for _, row := range ds.Rows {
		for i, f := range row.Fields {
			record[i] = f.String
		}
		for j, l := range row.Labels {
			record[len(row.Fields)+j] = ""
			if l.Valid {
				record[len(row.Fields)+j] = strconv.FormatInt(l.Int64, 10)
			}
		}
		writer.Write(record)
	}
}

// HealthCheck returns service health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "disaster-response",
		"model":   h.classifier.ModelInfo(),
	})
}

func (h *Handler) fail(c *gin.Context, msg string, err error) {
	if errors.Is(err, repository.ErrTableNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "dataset not found"})
		return
	}
	h.logger.Error(msg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
