package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anime-shed/image-quality-go/internal/analyzer"
	"github.com/anime-shed/image-quality-go/internal/bitmap"
	apperrors "github.com/anime-shed/image-quality-go/internal/errors"
	"github.com/anime-shed/image-quality-go/internal/observer"
	"github.com/anime-shed/image-quality-go/internal/repository"
	"github.com/anime-shed/image-quality-go/pkg/models"
)

// DefaultMaxBatchSize bounds AnalyzeBatch when Options leaves it unset.
const DefaultMaxBatchSize = 50

// ImageAnalysisService scores images arriving as raw bytes, base64 text or
// remote URLs.
type ImageAnalysisService interface {
	AnalyzeBytes(ctx context.Context, data []byte) (*models.AnalysisResponse, error)
	AnalyzeBase64(ctx context.Context, encoded string) (*models.AnalysisResponse, error)
	AnalyzeFile(ctx context.Context, filename string, data []byte) (*models.AnalysisResponse, error)
	AnalyzeURL(ctx context.Context, imageURL string) (*models.AnalysisResponse, error)
	AnalyzeBatch(ctx context.Context, images []string) (*models.BatchResponse, error)

	ValidateImageURL(imageURL string) error
	Preset() string
}

// Options tunes the service.
type Options struct {
	MaxBatchSize    int
	IncludeFeatures bool
	// Events receives image fetch events; nil disables them.
	Events observer.Subject
}

type imageAnalysisService struct {
	imageRepo repository.ImageRepository
	analyzer  analyzer.ImageAnalyzer
	opts      Options
	now       func() time.Time
}

// NewImageAnalysisService creates a new image analysis service
func NewImageAnalysisService(
	imageRepository repository.ImageRepository,
	imageAnalyzer analyzer.ImageAnalyzer,
	opts Options,
) ImageAnalysisService {
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = DefaultMaxBatchSize
	}
	return &imageAnalysisService{
		imageRepo: imageRepository,
		analyzer:  imageAnalyzer,
		opts:      opts,
		now:       time.Now,
	}
}

// AnalyzeBytes scores one encoded image.
func (s *imageAnalysisService) AnalyzeBytes(ctx context.Context, data []byte) (*models.AnalysisResponse, error) {
	start := s.now()
	if err := ctx.Err(); err != nil {
		return nil, apperrors.FromAnalysisError(err)
	}
	if len(data) == 0 {
		return nil, apperrors.NewValidationError("no image data provided", nil)
	}

	result := s.analyzer.AnalyzeBytes(data)
	if result.Failed() {
		return nil, apperrors.FromAnalysisError(result.Err)
	}
	return s.toResponse(result, start), nil
}

// AnalyzeBase64 decodes standard base64 (padded or not), optionally
// behind a data URL prefix, and scores the image.
func (s *imageAnalysisService) AnalyzeBase64(ctx context.Context, encoded string) (*models.AnalysisResponse, error) {
	if strings.TrimSpace(encoded) == "" {
		return nil, apperrors.NewValidationError("no image data provided", nil)
	}
	data, err := DecodeBase64(encoded)
	if err != nil {
		return nil, apperrors.NewInvalidImageError("invalid base64 image data", err)
	}
	return s.AnalyzeBytes(ctx, data)
}

// AnalyzeFile scores an uploaded file.
func (s *imageAnalysisService) AnalyzeFile(ctx context.Context, filename string, data []byte) (*models.AnalysisResponse, error) {
	if filename == "" {
		return nil, apperrors.NewValidationError("no file selected", nil)
	}
	resp, err := s.AnalyzeBytes(ctx, data)
	if err != nil {
		return nil, err
	}
	resp.Filename = filename
	return resp, nil
}

// AnalyzeURL fetches a remote image and scores it.
func (s *imageAnalysisService) AnalyzeURL(ctx context.Context, imageURL string) (*models.AnalysisResponse, error) {
	start := s.now()
	if err := s.ValidateImageURL(imageURL); err != nil {
		return nil, err
	}

	data, err := s.imageRepo.FetchImage(ctx, imageURL)
	if err != nil {
		s.publish(ctx, observer.AnalysisEvent{
			EventType:      observer.ImageFetchFailed,
			Source:         imageURL,
			ProcessingTime: s.now().Sub(start),
			ErrorMessage:   err.Error(),
		})
		return nil, fetchError(err)
	}
	s.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.ImageFetched,
		Source:         imageURL,
		ProcessingTime: s.now().Sub(start),
		Success:        true,
		Metadata:       map[string]interface{}{"bytes": len(data)},
	})

	result := s.analyzer.AnalyzeBytes(data)
	if result.Failed() {
		return nil, apperrors.FromAnalysisError(result.Err)
	}
	resp := s.toResponse(result, start)
	resp.ImageURL = imageURL
	return resp, nil
}

// AnalyzeBatch scores base64 images independently. Entries that fail to
// decode are reported in place and excluded from the summary statistics.
func (s *imageAnalysisService) AnalyzeBatch(ctx context.Context, images []string) (*models.BatchResponse, error) {
	start := s.now()
	if len(images) == 0 {
		return nil, apperrors.NewValidationError("no images provided", nil)
	}
	if len(images) > s.opts.MaxBatchSize {
		return nil, apperrors.NewBatchLimitError(
			fmt.Sprintf("maximum %d images per batch", s.opts.MaxBatchSize), nil,
		).WithDetails(fmt.Sprintf("received %d images", len(images)))
	}

	results, summary := s.analyzer.AnalyzeEach(len(images), func(i int) (*bitmap.Bitmap, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := DecodeBase64(images[i])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", bitmap.ErrInvalidImage, err)
		}
		return s.analyzer.Decode(data)
	})
	if err := ctx.Err(); err != nil {
		return nil, apperrors.FromAnalysisError(err)
	}

	resp := &models.BatchResponse{
		Success: true,
		Results: make([]models.BatchItem, len(results)),
		Summary: toSummary(summary),
	}
	for i, r := range results {
		item := models.BatchItem{Index: i, ProcessingTime: r.ProcessingTimeSeconds}
		if r.Failed() {
			item.Category = string(r.Category)
			item.Error = r.Err.Error()
		} else {
			score := r.Score
			item.Success = true
			item.QualityScore = &score
			item.Category = string(r.Category)
			item.Features = s.features(r.Features)
		}
		resp.Results[i] = item
	}

	end := s.now()
	resp.TotalTime = end.Sub(start).Seconds()
	resp.Timestamp = unixSeconds(end)
	return resp, nil
}

// ValidateImageURL validates the image URL
func (s *imageAnalysisService) ValidateImageURL(imageURL string) error {
	if s.imageRepo == nil {
		return apperrors.NewConfigurationError("no image repository configured", nil)
	}
	if err := s.imageRepo.ValidateImageURL(imageURL); err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return apperrors.NewValidationError("invalid image URL", err)
	}
	return nil
}

// Preset names the engine configuration in use.
func (s *imageAnalysisService) Preset() string {
	return s.analyzer.Config().Name
}

func (s *imageAnalysisService) publish(ctx context.Context, event observer.AnalysisEvent) {
	if s.opts.Events != nil {
		s.opts.Events.NotifyObservers(ctx, event)
	}
}

func (s *imageAnalysisService) toResponse(r analyzer.QualityResult, start time.Time) *models.AnalysisResponse {
	end := s.now()
	return &models.AnalysisResponse{
		Success:        true,
		QualityScore:   r.Score,
		Category:       string(r.Category),
		ProcessingTime: r.ProcessingTimeSeconds,
		TotalTime:      end.Sub(start).Seconds(),
		Timestamp:      unixSeconds(end),
		Features:       s.features(r.Features),
	}
}

func (s *imageAnalysisService) features(fv *analyzer.FeatureVector) *models.Features {
	if !s.opts.IncludeFeatures || fv == nil {
		return nil
	}
	return &models.Features{
		Sharpness:         fv.Sharpness,
		Noise:             fv.Noise,
		Contrast:          fv.Contrast,
		Brightness:        fv.Brightness,
		EdgeDensity:       fv.EdgeDensity,
		ColorImbalance:    fv.ColorImbalance,
		ColorVariation:    fv.ColorVariation,
		TextureUniformity: fv.TextureUniformity,
	}
}

func toSummary(s analyzer.BatchSummary) models.BatchSummary {
	dist := make(map[string]int, len(s.Distribution))
	for c, n := range s.Distribution {
		dist[string(c)] = n
	}
	out := models.BatchSummary{
		TotalImages:          s.Total,
		SuccessfulAnalyses:   s.Successful,
		FailedAnalyses:       s.Failed,
		AverageScore:         s.AverageScore,
		BestScore:            s.MinScore,
		WorstScore:           s.MaxScore,
		BestIndex:            s.BestIndex,
		WorstIndex:           s.WorstIndex,
		CategoryDistribution: dist,
		TotalProcessingTime:  s.TotalProcessingSeconds,
	}
	if s.Successful == 0 {
		out.Error = "All analyses failed"
	}
	return out
}

func fetchError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, repository.ErrInvalidImageURL):
		return apperrors.NewValidationError("invalid image URL", err)
	case errors.Is(err, repository.ErrImageNotFound):
		return apperrors.NewNotFoundError("image not found", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperrors.FromAnalysisError(err)
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.NewNetworkError("failed to fetch image", err)
}

// DecodeBase64 strips an optional data URL prefix and decodes the rest as
// standard base64, padded or raw.
func DecodeBase64(encoded string) ([]byte, error) {
	if i := strings.IndexByte(encoded, ','); i >= 0 {
		encoded = encoded[i+1:]
	}
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, errors.New("empty base64 payload")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err == nil {
		return data, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(encoded); rawErr == nil {
		return raw, nil
	}
	return nil, err
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
