package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/image-quality-go/internal/config"
	apperrors "github.com/anime-shed/image-quality-go/internal/errors"
	"github.com/anime-shed/image-quality-go/internal/logger"
	"github.com/anime-shed/image-quality-go/internal/service"
	"github.com/anime-shed/image-quality-go/pkg/models"
)

const (
	serviceName    = "Image Quality Analysis API"
	serviceVersion = "1.0.0"
)

// NewHandler builds the HTTP API. metrics is mounted at /metrics when
// non-nil.
func NewHandler(svc service.ImageAnalysisService, cfg *config.Config, metrics http.Handler) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		requestID(),
		cors(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck(svc))
	r.POST("/analyze-single", analyzeSingle(svc, cfg))
	r.POST("/analyze-batch", analyzeBatch(svc, cfg))
	r.POST("/analyze-file", analyzeFile(svc, cfg))
	r.POST("/analyze-url", analyzeURL(svc, cfg))
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "endpoint not found", apperrors.NewNotFoundError(c.Request.URL.Path, nil))
	})

	return r
}

func analyzeSingle(svc service.ImageAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()
		logRequest(c, "Processing single image analysis request")

		var req models.SingleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, "no image data provided", err)
			return
		}

		resp, err := svc.AnalyzeBase64(ctx, req.Image)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "image analysis failed", err)
			return
		}
		resp.RequestID = requestIDFrom(c)

		logResult(c, resp)
		c.JSON(http.StatusOK, resp)
	}
}

func analyzeBatch(svc service.ImageAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()
		logRequest(c, "Processing batch analysis request")

		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, "no images data provided", err)
			return
		}

		resp, err := svc.AnalyzeBatch(ctx, req.Images)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "batch analysis failed", err)
			return
		}
		resp.RequestID = requestIDFrom(c)

		logger.WithFields(logrus.Fields{
			"request_id":    resp.RequestID,
			"total_images":  resp.Summary.TotalImages,
			"successful":    resp.Summary.SuccessfulAnalyses,
			"failed":        resp.Summary.FailedAnalyses,
			"average_score": resp.Summary.AverageScore,
			"total_time_ms": int64(resp.TotalTime * 1000),
		}).Info("Batch analysis completed")

		c.JSON(http.StatusOK, resp)
	}
}

func analyzeFile(svc service.ImageAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()
		logRequest(c, "Processing file analysis request")

		header, err := c.FormFile("file")
		if err != nil {
			respondBindError(c, "no file uploaded", err)
			return
		}

		f, err := header.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, "uploaded file unreadable", err)
			return
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			respondBindError(c, "uploaded file unreadable", err)
			return
		}

		resp, err := svc.AnalyzeFile(ctx, header.Filename, data)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "image analysis failed", err)
			return
		}
		resp.RequestID = requestIDFrom(c)

		logResult(c, resp)
		c.JSON(http.StatusOK, resp)
	}
}

func analyzeURL(svc service.ImageAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()
		logRequest(c, "Processing URL analysis request")

		var req models.URLRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, "invalid request format", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"request_id": requestIDFrom(c),
			"url":        req.URL,
		}).Debug("Fetching image")

		resp, err := svc.AnalyzeURL(ctx, req.URL)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "image analysis failed", err)
			return
		}
		resp.RequestID = requestIDFrom(c)

		logResult(c, resp)
		c.JSON(http.StatusOK, resp)
	}
}

func healthCheck(svc service.ImageAnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  "healthy",
			Service: serviceName,
			Version: serviceVersion,
			Preset:  svc.Preset(),
		})
	}
}

func logRequest(c *gin.Context, msg string) {
	logger.WithFields(logrus.Fields{
		"request_id": requestIDFrom(c),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"user_agent": c.Request.UserAgent(),
		"ip":         c.ClientIP(),
	}).Info(msg)
}

func logResult(c *gin.Context, resp *models.AnalysisResponse) {
	logger.WithFields(logrus.Fields{
		"request_id":         resp.RequestID,
		"path":               c.Request.URL.Path,
		"quality_score":      resp.QualityScore,
		"category":           resp.Category,
		"processing_time_ms": int64(resp.ProcessingTime * 1000),
		"total_time":         time.Duration(resp.TotalTime * float64(time.Second)).String(),
	}).Info("Image analysis completed successfully")
}

// respondBindError reports a request that could not be read. Bodies cut off
// by the size limiter become 413, everything else 400.
func respondBindError(c *gin.Context, message string, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondError(c, http.StatusRequestEntityTooLarge, "request body too large",
			apperrors.NewBatchLimitError(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit), err))
		return
	}
	respondError(c, http.StatusBadRequest, message, apperrors.NewValidationError(message, err))
}

func respondError(c *gin.Context, code int, message string, err error) {
	// Log the error with context
	logger.WithError(err).WithFields(logrus.Fields{
		"request_id":  requestIDFrom(c),
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	resp := models.ErrorResponse{
		Error:     http.StatusText(code),
		Message:   fmt.Sprintf("%s: %v", message, err),
		RequestID: requestIDFrom(c),
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		resp.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		resp.Details = appErr.Details
	}
	c.AbortWithStatusJSON(code, resp)
}
