package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureImageFetcher downloads blobs with a shared key credential.
type AzureImageFetcher struct {
	client   *azblob.Client
	maxBytes int64
}

// NewAzureImageFetcher creates a fetcher for one storage account.
func NewAzureImageFetcher(accountName, accountKey string) (*AzureImageFetcher, error) {
	return NewAzureImageFetcherWithURL(fmt.Sprintf("https://%s.blob.core.windows.net", accountName), accountName, accountKey)
}

// NewAzureImageFetcherWithURL is NewAzureImageFetcher against an explicit
// service URL, such as a local Azurite endpoint.
func NewAzureImageFetcherWithURL(serviceURL, accountName, accountKey string) (*AzureImageFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}

	return &AzureImageFetcher{client: client, maxBytes: DefaultMaxImageBytes}, nil
}

// FetchImage downloads the blob named by blobURL.
func (s *AzureImageFetcher) FetchImage(ctx context.Context, blobURL string) ([]byte, error) {
	containerName, blobName, err := ParseBlobURL(blobURL)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	body := resp.Body
	defer body.Close()

	return readLimited(body, s.maxBytes)
}

// ParseBlobURL splits a blob URL into container and blob name. Both the
// path form (/container/dir/blob.png) and the legacy query form
// (/container?blob=blob.png) are accepted.
func ParseBlobURL(blobURL string) (string, string, error) {
	parsed, err := url.Parse(blobURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid blob URL: %w", err)
	}

	path := strings.TrimPrefix(parsed.Path, "/")
	if blob := parsed.Query().Get("blob"); blob != "" {
		if path == "" || strings.Contains(path, "/") {
			return "", "", fmt.Errorf("invalid blob URL: container missing in %q", blobURL)
		}
		return path, blob, nil
	}

	containerName, blobName, ok := strings.Cut(path, "/")
	if !ok || containerName == "" || blobName == "" {
		return "", "", fmt.Errorf("invalid blob URL: expected /<container>/<blob> in %q", blobURL)
	}
	return containerName, blobName, nil
}
