package models

// SingleRequest carries one base64 encoded image. A data URL prefix
// ("data:image/png;base64,") is accepted and stripped.
type SingleRequest struct {
	Image string `json:"image" binding:"required"`
}

// BatchRequest carries base64 encoded images
type BatchRequest struct {
	Images []string `json:"images" binding:"required"`
}

// URLRequest names a remote image
type URLRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	Preset  string `json:"preset"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
