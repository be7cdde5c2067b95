package repository

import (
	"context"
)

// ImageRepository defines the interface for image data access operations
type ImageRepository interface {
	// FetchImage retrieves the encoded bytes of a remote image
	FetchImage(ctx context.Context, imageURL string) ([]byte, error)

	// ValidateImageURL validates if the provided URL is acceptable
	ValidateImageURL(imageURL string) error
}

// URLValidator checks remote image locations before they are fetched.
type URLValidator interface {
	ValidateImageURL(imageURL string) error
}
