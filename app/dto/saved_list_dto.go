package dto

import "encoding/json"

// CreateSavedListRequest represents the request to save a segment as a list
type CreateSavedListRequest struct {
	ShopID       uint            `json:"-"`
	Name         string          `json:"name" validate:"required,min=1,max=120"`
	Description  *string         `json:"description,omitempty" validate:"omitempty,max=500"`
	Source       string          `json:"source" validate:"required,oneof=ai-search filter-audience"`
	Criteria     json.RawMessage `json:"criteria" validate:"required"`
	CriteriaText *string         `json:"criteria_text,omitempty"`
	Tags         []string        `json:"tags,omitempty" validate:"omitempty,dive,min=1,max=40"`
}

// UpdateSavedListRequest represents the request to update a saved list's mutable fields
type UpdateSavedListRequest struct {
	UUID        string   `json:"-"`
	ShopID      uint     `json:"-"`
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=500"`
	Tags        []string `json:"tags,omitempty" validate:"omitempty,dive,min=1,max=40"`
}

// SavedListDTO represents a saved list in responses
type SavedListDTO struct {
	UUID          string          `json:"uuid"`
	Name          string          `json:"name"`
	Description   *string         `json:"description,omitempty"`
	CustomerCount int             `json:"customer_count"`
	Source        string          `json:"source"`
	Criteria      json.RawMessage `json:"criteria,omitempty"`
	CriteriaText  *string         `json:"criteria_text,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
	Status        string          `json:"status"`
	CreatedAt     string          `json:"created_at"`
	LastUpdated   string          `json:"last_updated"`
}

// ListSavedListsRequest represents the request to list saved lists for a shop
type ListSavedListsRequest struct {
	ShopID   uint    `json:"-"`
	Status   *string `json:"status,omitempty" query:"status" validate:"omitempty,oneof=active archived"`
	Source   *string `json:"source,omitempty" query:"source" validate:"omitempty,oneof=ai-search filter-audience manual"`
	Page     int     `json:"page,omitempty" query:"page" validate:"omitempty,min=1"`
	PageSize int     `json:"page_size,omitempty" query:"page_size" validate:"omitempty,min=1,max=100"`
}

// ListSavedListsResponse represents a page of saved lists
type ListSavedListsResponse struct {
	Items    []SavedListDTO `json:"items"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// GetSavedListResponse represents a saved list with its current membership
type GetSavedListResponse struct {
	List      SavedListDTO         `json:"list"`
	Customers []SegmentCustomerDTO `json:"customers,omitempty"`
	Truncated bool                 `json:"truncated"`
}
