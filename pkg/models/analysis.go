package models

// Features carries the raw feature readings of one image
type Features struct {
	Sharpness         float64 `json:"sharpness"`
	Noise             float64 `json:"noise"`
	Contrast          float64 `json:"contrast"`
	Brightness        float64 `json:"brightness"`
	EdgeDensity       float64 `json:"edge_density"`
	ColorImbalance    float64 `json:"color_imbalance"`
	ColorVariation    float64 `json:"color_variation"`
	TextureUniformity float64 `json:"texture_uniformity"`
}

// AnalysisResponse is the result of analysing one image.
// Timestamp is Unix seconds with a fractional part.
type AnalysisResponse struct {
	Success        bool      `json:"success"`
	RequestID      string    `json:"request_id,omitempty"`
	Filename       string    `json:"filename,omitempty"`
	ImageURL       string    `json:"image_url,omitempty"`
	QualityScore   float64   `json:"quality_score"`
	Category       string    `json:"category"`
	ProcessingTime float64   `json:"processing_time"`
	TotalTime      float64   `json:"total_time"`
	Timestamp      float64   `json:"timestamp"`
	Features       *Features `json:"features,omitempty"`
}

// BatchItem is the outcome of one batch entry. Failed entries carry Error
// and no score.
type BatchItem struct {
	Index          int       `json:"index"`
	Success        bool      `json:"success"`
	QualityScore   *float64  `json:"quality_score,omitempty"`
	Category       string    `json:"category,omitempty"`
	ProcessingTime float64   `json:"processing_time"`
	Error          string    `json:"error,omitempty"`
	Features       *Features `json:"features,omitempty"`
}

// BatchSummary aggregates the successful entries of a batch
type BatchSummary struct {
	TotalImages          int            `json:"total_images"`
	SuccessfulAnalyses   int            `json:"successful_analyses"`
	FailedAnalyses       int            `json:"failed_analyses"`
	AverageScore         float64        `json:"average_score"`
	BestScore            float64        `json:"best_score"`
	WorstScore           float64        `json:"worst_score"`
	BestIndex            int            `json:"best_index"`
	WorstIndex           int            `json:"worst_index"`
	CategoryDistribution map[string]int `json:"category_distribution"`
	TotalProcessingTime  float64        `json:"total_processing_time"`
	Error                string         `json:"error,omitempty"`
}

// BatchResponse is the result of a batch analysis
type BatchResponse struct {
	Success   bool         `json:"success"`
	RequestID string       `json:"request_id,omitempty"`
	Results   []BatchItem  `json:"results"`
	Summary   BatchSummary `json:"summary"`
	TotalTime float64      `json:"total_time"`
	Timestamp float64      `json:"timestamp"`
}
