// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/storepulse/storepulse/app/dto"
	businessflow "github.com/storepulse/storepulse/business_flow"
)

// SavedListHandlerInterface defines the contract for saved list handlers
type SavedListHandlerInterface interface {
	CreateSavedList(c fiber.Ctx) error
	ListSavedLists(c fiber.Ctx) error
	GetSavedList(c fiber.Ctx) error
	UpdateSavedList(c fiber.Ctx) error
	ArchiveSavedList(c fiber.Ctx) error
	UnarchiveSavedList(c fiber.Ctx) error
	DeleteSavedList(c fiber.Ctx) error
	ExportSavedList(c fiber.Ctx) error
}

// SavedListHandler handles saved list HTTP requests
type SavedListHandler struct {
	savedListFlow businessflow.SavedListFlow
	exportFlow    businessflow.ExportFlow
	validator     *validator.Validate
}

// NewSavedListHandler creates a new saved list handler
func NewSavedListHandler(savedListFlow businessflow.SavedListFlow, exportFlow businessflow.ExportFlow) *SavedListHandler {
	return &SavedListHandler{
		savedListFlow: savedListFlow,
		exportFlow:    exportFlow,
		validator:     validator.New(),
	}
}

func (h *SavedListHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *SavedListHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreateSavedList saves a realized segment as a named list
// @Summary Create Saved List
// @Description Save a segment result as a named customer list
// @Tags Lists
// @Accept json
// @Produce json
// @Param request body dto.CreateSavedListRequest true "Saved list data"
// @Success 201 {object} dto.APIResponse{data=dto.SavedListDTO} "List created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Router /api/v1/lists [post]
func (h *SavedListHandler) CreateSavedList(c fiber.Ctx) error {
	var req dto.CreateSavedListRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	shopID, ok := c.Locals("shop_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Shop ID not found in context", "MISSING_SHOP_ID", nil)
	}
	req.ShopID = shopID

	result, err := h.savedListFlow.CreateSavedList(h.createRequestContext(c, "/api/v1/lists"), &req, clientMetadata(c))
	if err != nil {
		if status, code, message := mapShopError(err); status != 0 {
			return h.ErrorResponse(c, status, message, code, nil)
		}
		if businessflow.IsSavedListNameRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Saved list name is required", "LIST_NAME_REQUIRED", nil)
		}
		if businessflow.IsProtectedDataError(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Protected data access denied", "PROTECTED_DATA_ACCESS_DENIED", nil)
		}
		if businessflow.IsRemoteQueryError(err) {
			return h.ErrorResponse(c, fiber.StatusBadGateway, "Segment match failed", "REMOTE_QUERY_FAILED", err.Error())
		}

		log.Println("Saved list creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Saved list creation failed", "LIST_CREATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Saved list created successfully", result)
}

// ListSavedLists lists the shop's saved lists
// @Summary List Saved Lists
// @Description List saved lists with optional status and source filters
// @Tags Lists
// @Produce json
// @Param status query string false "Filter by status"
// @Param source query string false "Filter by source"
// @Success 200 {object} dto.APIResponse{data=dto.ListSavedListsResponse} "Lists retrieved"
// @Router /api/v1/lists [get]
func (h *SavedListHandler) ListSavedLists(c fiber.Ctx) error {
	shopID, ok := c.Locals("shop_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Shop ID not found in context", "MISSING_SHOP_ID", nil)
	}

	req := dto.ListSavedListsRequest{ShopID: shopID}
	if status := c.Query("status"); status != "" {
		req.Status = &status
	}
	if source := c.Query("source"); source != "" {
		req.Source = &source
	}
	if page := c.Query("page"); page != "" {
		req.Page, _ = strconv.Atoi(page)
	}
	if pageSize := c.Query("page_size"); pageSize != "" {
		req.PageSize, _ = strconv.Atoi(pageSize)
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.savedListFlow.ListSavedLists(h.createRequestContext(c, "/api/v1/lists"), &req)
	if err != nil {
		if status, code, message := mapShopError(err); status != 0 {
			return h.ErrorResponse(c, status, message, code, nil)
		}
		if businessflow.IsInvalidPage(err) || businessflow.IsInvalidPageSize(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), "INVALID_PAGINATION", nil)
		}

		log.Println("Saved list listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Saved list listing failed", "LIST_LISTING_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Saved lists retrieved", result)
}

// GetSavedList returns a saved list with its current membership
// @Summary Get Saved List
// @Description Get a saved list; membership is re-derived from the store
// @Tags Lists
// @Produce json
// @Param uuid path string true "List UUID"
// @Success 200 {object} dto.APIResponse{data=dto.GetSavedListResponse} "List retrieved"
// @Failure 404 {object} dto.APIResponse "List not found"
// @Router /api/v1/lists/{uuid} [get]
func (h *SavedListHandler) GetSavedList(c fiber.Ctx) error {
	shopID, ok := c.Locals("shop_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Shop ID not found in context", "MISSING_SHOP_ID", nil)
	}

	listUUID := c.Params("uuid")
	if listUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "List UUID is required", "MISSING_LIST_UUID", nil)
	}

	result, err := h.savedListFlow.GetSavedList(h.createRequestContext(c, "/api/v1/lists/"+listUUID), shopID, listUUID)
	if err != nil {
		return h.mapListError(c, err, "Saved list retrieval failed", "LIST_RETRIEVAL_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Saved list retrieved", result)
}

// UpdateSavedList updates a list's name, description, or tags
// @Summary Update Saved List
// @Description Update the mutable fields of a saved list
// @Tags Lists
// @Accept json
// @Produce json
// @Param uuid path string true "List UUID"
// @Param request body dto.UpdateSavedListRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=dto.SavedListDTO} "List updated"
// @Router /api/v1/lists/{uuid} [put]
func (h *SavedListHandler) UpdateSavedList(c fiber.Ctx) error {
	shopID, ok := c.Locals("shop_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Shop ID not found in context", "MISSING_SHOP_ID", nil)
	}

	listUUID := c.Params("uuid")
	if listUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "List UUID is required", "MISSING_LIST_UUID", nil)
	}

	var req dto.UpdateSavedListRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.UUID = listUUID
	req.ShopID = shopID

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.savedListFlow.UpdateSavedList(h.createRequestContext(c, "/api/v1/lists/"+listUUID), &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsSavedListUpdateRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "At least one field must be provided", "LIST_UPDATE_REQUIRED", nil)
		}
		return h.mapListError(c, err, "Saved list update failed", "LIST_UPDATE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Saved list updated successfully", result)
}

// ArchiveSavedList moves a list to the archived status
// @Summary Archive Saved List
// @Tags Lists
// @Produce json
// @Param uuid path string true "List UUID"
// @Success 200 {object} dto.APIResponse "List archived"
// @Failure 409 {object} dto.APIResponse "List already archived"
// @Router /api/v1/lists/{uuid}/archive [post]
func (h *SavedListHandler) ArchiveSavedList(c fiber.Ctx) error {
	shopID, ok := c.Locals("shop_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Shop ID not found in context", "MISSING_SHOP_ID", nil)
	}

	listUUID := c.Params("uuid")
	if listUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "List UUID is required", "MISSING_LIST_UUID", nil)
	}

	err := h.savedListFlow.ArchiveSavedList(h.createRequestContext(c, "/api/v1/lists/"+listUUID+"/archive"), shopID, listUUID, clientMetadata(c))
	if err != nil {
		if businessflow.IsSavedListAlreadyArchived(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Saved list is already archived", "LIST_ALREADY_ARCHIVED", nil)
		}
		return h.mapListError(c, err, "Saved list archive failed", "LIST_ARCHIVE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Saved list archived successfully", nil)
}

// UnarchiveSavedList moves an archived list back to active
// @Summary Unarchive Saved List
// @Tags Lists
// @Produce json
// @Param uuid path string true "List UUID"
// @Success 200 {object} dto.APIResponse "List unarchived"
// @Failure 409 {object} dto.APIResponse "List is not archived"
// @Router /api/v1/lists/{uuid}/unarchive [post]
func (h *SavedListHandler) UnarchiveSavedList(c fiber.Ctx) error {
	shopID, ok := c.Locals("shop_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Shop ID not found in context", "MISSING_SHOP_ID", nil)
	}

	listUUID := c.Params("uuid")
	if listUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "List UUID is required", "MISSING_LIST_UUID", nil)
	}

	err := h.savedListFlow.UnarchiveSavedList(h.createRequestContext(c, "/api/v1/lists/"+listUUID+"/unarchive"), shopID, listUUID, clientMetadata(c))
	if err != nil {
		if businessflow.IsSavedListNotArchived(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Saved list is not archived", "LIST_NOT_ARCHIVED", nil)
		}
		return h.mapListError(c, err, "Saved list unarchive failed", "LIST_UNARCHIVE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Saved list unarchived successfully", nil)
}

// DeleteSavedList permanently removes a list
// @Summary Delete Saved List
// @Tags Lists
// @Produce json
// @Param uuid path string true "List UUID"
// @Success 200 {object} dto.APIResponse "List deleted"
// @Router /api/v1/lists/{uuid} [delete]
func (h *SavedListHandler) DeleteSavedList(c fiber.Ctx) error {
	shopID, ok := c.Locals("shop_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Shop ID not found in context", "MISSING_SHOP_ID", nil)
	}

	listUUID := c.Params("uuid")
	if listUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "List UUID is required", "MISSING_LIST_UUID", nil)
	}

	err := h.savedListFlow.DeleteSavedList(h.createRequestContext(c, "/api/v1/lists/"+listUUID), shopID, listUUID, clientMetadata(c))
	if err != nil {
		return h.mapListError(c, err, "Saved list deletion failed", "LIST_DELETION_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Saved list deleted successfully", nil)
}

// ExportSavedList streams a list's membership as CSV or Excel
// @Summary Export Saved List
// @Description Export a saved list's current membership as a file
// @Tags Lists
// @Produce octet-stream
// @Param uuid path string true "List UUID"
// @Param format query string false "csv, excel, or xlsx"
// @Success 200 {file} binary "Export file"
// @Router /api/v1/lists/{uuid}/export [get]
func (h *SavedListHandler) ExportSavedList(c fiber.Ctx) error {
	shopID, ok := c.Locals("shop_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Shop ID not found in context", "MISSING_SHOP_ID", nil)
	}

	listUUID := c.Params("uuid")
	if listUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "List UUID is required", "MISSING_LIST_UUID", nil)
	}

	req := dto.ExportSavedListRequest{
		UUID:   listUUID,
		ShopID: shopID,
		Format: c.Query("format"),
	}
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	file, err := h.exportFlow.ExportSavedList(h.createRequestContext(c, "/api/v1/lists/"+listUUID+"/export"), &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsUnsupportedExportFormat(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unsupported export format", "UNSUPPORTED_EXPORT_FORMAT", nil)
		}
		return h.mapListError(c, err, "Saved list export failed", "LIST_EXPORT_FAILED")
	}

	c.Set("Content-Type", file.ContentType)
	c.Set("Content-Disposition", `attachment; filename="`+file.FileName+`"`)
	return c.Send(file.Content)
}

// mapListError maps the errors shared by every saved list operation
func (h *SavedListHandler) mapListError(c fiber.Ctx, err error, message, fallbackCode string) error {
	if status, code, msg := mapShopError(err); status != 0 {
		return h.ErrorResponse(c, status, msg, code, nil)
	}
	if businessflow.IsSavedListNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Saved list not found", "LIST_NOT_FOUND", nil)
	}
	if businessflow.IsProtectedDataError(err) {
		return h.ErrorResponse(c, fiber.StatusForbidden, "Protected data access denied", "PROTECTED_DATA_ACCESS_DENIED", nil)
	}
	if businessflow.IsRemoteQueryError(err) {
		return h.ErrorResponse(c, fiber.StatusBadGateway, "Segment match failed", "REMOTE_QUERY_FAILED", err.Error())
	}

	log.Println(message, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, message, fallbackCode, nil)
}

// createRequestContext creates a context with timeout and request-scoped values
func (h *SavedListHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}
