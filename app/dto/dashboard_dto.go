package dto

// MetricDataPointDTO represents one bucketed value on a metric card
type MetricDataPointDTO struct {
	Date  string `json:"date"`
	Value int    `json:"value"`
}

// GrowthDTO represents the growth badge shown on a metric card
type GrowthDTO struct {
	Percent float64 `json:"percent"`
	Label   string  `json:"label"` // growth, decrease, no change
	Tone    string  `json:"tone"`  // success, warning, critical
}

// GetMetricRequest represents the request for a single dashboard metric
type GetMetricRequest struct {
	ShopID    uint   `json:"-"`
	MetricKey string `json:"-" validate:"required"`
	DateRange string `json:"date_range" query:"date_range"`
}

// GetMetricResponse represents a single dashboard metric result
type GetMetricResponse struct {
	MetricKey string               `json:"metric_key"`
	DateRange string               `json:"date_range"`
	Points    []MetricDataPointDTO `json:"points"`
	Growth    GrowthDTO            `json:"growth"`
	Truncated bool                 `json:"truncated"`
}

// MetricCardDTO represents one card on the dashboard overview
type MetricCardDTO struct {
	MetricKey string               `json:"metric_key"`
	Points    []MetricDataPointDTO `json:"points,omitempty"`
	Growth    *GrowthDTO           `json:"growth,omitempty"`
	Truncated bool                 `json:"truncated"`
	ErrorCode string               `json:"error_code,omitempty"`
}

// GetOverviewRequest represents the request for the dashboard overview
type GetOverviewRequest struct {
	ShopID    uint   `json:"-"`
	DateRange string `json:"date_range" query:"date_range"`
}

// GetOverviewResponse represents the full dashboard overview
type GetOverviewResponse struct {
	DateRange string          `json:"date_range"`
	Cards     []MetricCardDTO `json:"cards"`
}

// SegmentationDistributionResponse represents the customer segmentation breakdown
type SegmentationDistributionResponse struct {
	DateRange string `json:"date_range"`
	New       int    `json:"new"`
	Returning int    `json:"returning"`
	Loyal     int    `json:"loyal"`
	Truncated bool   `json:"truncated"`
}
