package container

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/anime-shed/image-quality-go/internal/config"
)

func TestNewContainer(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		mutate      func(*config.Config)
		wantErr     bool
		wantMetrics int
	}{
		{"defaults", func(c *config.Config) {}, false, http.StatusOK},
		{"metrics disabled", func(c *config.Config) { c.MetricsEnabled = false }, false, http.StatusNotFound},
		{"smart preset", func(c *config.Config) { c.Preset = "smart" }, false, http.StatusOK},
		{"unknown preset", func(c *config.Config) { c.Preset = "turbo" }, true, 0},
		{"azure without key", func(c *config.Config) { c.AzureAccount = "acct" }, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)

			c, err := NewContainer(cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if c.Analyzer().Config().Name != cfg.Preset {
				t.Errorf("Expected preset %s, got %s", cfg.Preset, c.Analyzer().Config().Name)
			}

			w := httptest.NewRecorder()
			c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			if w.Code != tt.wantMetrics {
				t.Errorf("Expected /metrics status %d, got %d", tt.wantMetrics, w.Code)
			}
		})
	}
}
