package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/anime-shed/image-quality-go/pkg/validation"
)

type stubFetcher struct {
	name  string
	data  []byte
	err   error
	calls []string
}

func (s *stubFetcher) FetchImage(ctx context.Context, location string) ([]byte, error) {
	s.calls = append(s.calls, location)
	return s.data, s.err
}

func TestRemoteImageRepository_Routing(t *testing.T) {
	httpFetcher := &stubFetcher{name: "http", data: []byte("h")}
	azureFetcher := &stubFetcher{name: "azure", data: []byte("a")}
	repo := NewRemoteImageRepository(httpFetcher, azureFetcher, validation.NewURLValidator())

	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/a.png", "h"},
		{"https://acct.blob.core.windows.net/images/a.png", "a"},
		{"https://ACCT.BLOB.CORE.WINDOWS.NET/images/a.png", "a"},
	}

	for _, tt := range tests {
		data, err := repo.FetchImage(context.Background(), tt.url)
		if err != nil {
			t.Fatalf("Expected no error for %s, got %v", tt.url, err)
		}
		if string(data) != tt.want {
			t.Errorf("Expected %s fetcher for %s, got %s", tt.want, tt.url, data)
		}
	}

	// Without an Azure fetcher blob URLs go over HTTP.
	plain := NewRemoteImageRepository(httpFetcher, nil, nil)
	if data, _ := plain.FetchImage(context.Background(), "https://acct.blob.core.windows.net/images/a.png"); string(data) != "h" {
		t.Errorf("Expected http fetcher, got %s", data)
	}
}

func TestRemoteImageRepository_Errors(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		err     error
		wantErr error
	}{
		{"empty URL", "  ", nil, ErrInvalidImageURL},
		{"not found", "https://example.com/a.png", fmt.Errorf("client error: status code 404"), ErrImageNotFound},
		{"server error", "https://example.com/a.png", fmt.Errorf("server error: status code 503"), ErrRepositoryUnavailable},
		{"cancelled", "https://example.com/a.png", context.Canceled, context.Canceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewRemoteImageRepository(&stubFetcher{err: tt.err}, nil, nil)
			_, err := repo.FetchImage(context.Background(), tt.url)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	fetcher := &stubFetcher{}
	repo := NewRemoteImageRepository(fetcher, nil, validation.NewURLValidator())
	if _, err := repo.FetchImage(context.Background(), "ftp://example.com/a.png"); err == nil {
		t.Error("Expected validation error")
	}
	if len(fetcher.calls) != 0 {
		t.Errorf("Expected no fetch for rejected URL, got %v", fetcher.calls)
	}
}
