package dto

// PreviewSegmentRequest represents the request to preview an audience filter selection
type PreviewSegmentRequest struct {
	ShopID  uint                `json:"-"`
	Filters map[string][]string `json:"filters" validate:"required"`
}

// SegmentCustomerDTO represents a matched customer in a segment result
type SegmentCustomerDTO struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Country      string  `json:"country,omitempty"`
	CreatedDate  string  `json:"created_date,omitempty"`
	LastPurchase string  `json:"last_purchase,omitempty"`
	Orders       int     `json:"orders"`
	TotalSpent   float64 `json:"total_spent"`
}

// PreviewSegmentResponse represents the live segment preview result
type PreviewSegmentResponse struct {
	MatchCount  int                  `json:"match_count"`
	Customers   []SegmentCustomerDTO `json:"customers,omitempty"`
	Description string               `json:"description"`
	DebounceMs  int                  `json:"debounce_ms"`
	Cached      bool                 `json:"cached"`
}

// FilterOptionDTO represents one selectable option within a filter category
type FilterOptionDTO struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FilterCategoryDTO represents one category of the audience filter builder
type FilterCategoryDTO struct {
	Category string            `json:"category"`
	Label    string            `json:"label"`
	Options  []FilterOptionDTO `json:"options"`
}

// GetFilterOptionsResponse represents the full filter-builder option tree
type GetFilterOptionsResponse struct {
	Categories []FilterCategoryDTO `json:"categories"`
}
