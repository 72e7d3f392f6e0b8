package dto

// ExportSavedListRequest represents the request to export a saved list's membership
type ExportSavedListRequest struct {
	UUID   string `json:"-"`
	ShopID uint   `json:"-"`
	Format string `json:"format,omitempty" query:"format" validate:"omitempty,oneof=csv excel xlsx"`
}

// ExportFileDTO represents a generated export file
type ExportFileDTO struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"-"`
	RowCount    int    `json:"row_count"`
}
