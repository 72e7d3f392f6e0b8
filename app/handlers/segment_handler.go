// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/storepulse/storepulse/app/dto"
	businessflow "github.com/storepulse/storepulse/business_flow"
)

// SegmentHandlerInterface defines the contract for segment handlers
type SegmentHandlerInterface interface {
	PreviewSegment(c fiber.Ctx) error
	GetFilterOptions(c fiber.Ctx) error
}

// SegmentHandler handles audience filter HTTP requests
type SegmentHandler struct {
	segmentFlow businessflow.SegmentFlow
	validator   *validator.Validate
}

// NewSegmentHandler creates a new segment handler
func NewSegmentHandler(segmentFlow businessflow.SegmentFlow) *SegmentHandler {
	return &SegmentHandler{
		segmentFlow: segmentFlow,
		validator:   validator.New(),
	}
}

func (h *SegmentHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *SegmentHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// PreviewSegment returns the live match count for a filter selection
// @Summary Preview Segment
// @Description Match the current audience filter selection against the store
// @Tags Segments
// @Accept json
// @Produce json
// @Param request body dto.PreviewSegmentRequest true "Filter selection"
// @Success 200 {object} dto.APIResponse{data=dto.PreviewSegmentResponse} "Preview computed"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 403 {object} dto.APIResponse "Protected data access denied"
// @Failure 502 {object} dto.APIResponse "Segment match failed"
// @Router /api/v1/segments/preview [post]
func (h *SegmentHandler) PreviewSegment(c fiber.Ctx) error {
	var req dto.PreviewSegmentRequest
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

	result, err := h.segmentFlow.PreviewSegment(h.createRequestContext(c, "/api/v1/segments/preview"), &req, clientMetadata(c))
	if err != nil {
		if status, code, message := mapShopError(err); status != 0 {
			return h.ErrorResponse(c, status, message, code, nil)
		}
		if businessflow.IsProtectedDataError(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Protected data access denied", "PROTECTED_DATA_ACCESS_DENIED", nil)
		}
		if businessflow.IsRemoteQueryError(err) {
			return h.ErrorResponse(c, fiber.StatusBadGateway, "Segment match failed", "REMOTE_QUERY_FAILED", err.Error())
		}

		log.Println("Segment preview failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Segment preview failed", "SEGMENT_PREVIEW_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Segment preview computed", result)
}

// GetFilterOptions returns the audience filter option tree
// @Summary Filter Options
// @Description Get the selectable options of the audience filter builder
// @Tags Segments
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.GetFilterOptionsResponse} "Options retrieved"
// @Router /api/v1/segments/options [get]
func (h *SegmentHandler) GetFilterOptions(c fiber.Ctx) error {
	result, err := h.segmentFlow.GetFilterOptions(h.createRequestContext(c, "/api/v1/segments/options"))
	if err != nil {
		log.Println("Filter options failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Filter options failed", "FILTER_OPTIONS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Filter options retrieved", result)
}

// createRequestContext creates a context with timeout and request-scoped values
func (h *SegmentHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}
