package repository

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/anime-shed/image-quality-go/internal/storage"
)

// azureBlobSuffix identifies Azure blob endpoints.
const azureBlobSuffix = ".blob.core.windows.net"

// RemoteImageRepository validates URLs and routes fetches to the HTTP or
// Azure fetcher.
type RemoteImageRepository struct {
	http      storage.ImageFetcher
	azure     storage.ImageFetcher
	validator URLValidator
}

// NewRemoteImageRepository creates a repository. azure may be nil, in
// which case blob URLs are fetched anonymously over HTTP.
func NewRemoteImageRepository(http, azure storage.ImageFetcher, validator URLValidator) *RemoteImageRepository {
	return &RemoteImageRepository{http: http, azure: azure, validator: validator}
}

// FetchImage retrieves an image from a URL
func (r *RemoteImageRepository) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	if err := r.ValidateImageURL(imageURL); err != nil {
		return nil, err
	}

	fetcher := r.http
	if r.azure != nil && isAzureBlob(imageURL) {
		fetcher = r.azure
	}

	data, err := fetcher.FetchImage(ctx, imageURL)
	if err != nil {
		if strings.Contains(err.Error(), "status code 404") {
			return nil, fmt.Errorf("%w: %v", ErrImageNotFound, err)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
	}
	return data, nil
}

// ValidateImageURL validates the URL with the configured validator, or only
// checks for emptiness when none is set.
func (r *RemoteImageRepository) ValidateImageURL(imageURL string) error {
	if strings.TrimSpace(imageURL) == "" {
		return ErrInvalidImageURL
	}
	if r.validator == nil {
		return nil
	}
	return r.validator.ValidateImageURL(imageURL)
}

func isAzureBlob(imageURL string) bool {
	u, err := url.Parse(imageURL)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Hostname()), azureBlobSuffix)
}

var _ ImageRepository = (*RemoteImageRepository)(nil)
