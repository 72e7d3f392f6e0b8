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
	"github.com/storepulse/storepulse/utils"
)

// DashboardHandlerInterface defines the contract for dashboard handlers
type DashboardHandlerInterface interface {
	GetOverview(c fiber.Ctx) error
	GetMetric(c fiber.Ctx) error
	GetSegmentation(c fiber.Ctx) error
}

// DashboardHandler handles dashboard-related HTTP requests
type DashboardHandler struct {
	dashboardFlow businessflow.DashboardFlow
	validator     *validator.Validate
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardFlow businessflow.DashboardFlow) *DashboardHandler {
	return &DashboardHandler{
		dashboardFlow: dashboardFlow,
		validator:     validator.New(),
	}
}

func (h *DashboardHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *DashboardHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// GetOverview returns every dashboard metric card for the shop
// @Summary Dashboard Overview
// @Description Get all customer-analytics metric cards for a date range
// @Tags Dashboard
// @Produce json
// @Param date_range query string false "Date range token"
// @Success 200 {object} dto.APIResponse{data=dto.GetOverviewResponse} "Overview retrieved"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/dashboard/overview [get]
func (h *DashboardHandler) GetOverview(c fiber.Ctx) error {
	shopID, ok := c.Locals("shop_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Shop ID not found in context", "MISSING_SHOP_ID", nil)
	}

	req := dto.GetOverviewRequest{
		ShopID:    shopID,
		DateRange: c.Query("date_range"),
	}

	result, err := h.dashboardFlow.GetOverview(h.createRequestContext(c, "/api/v1/dashboard/overview"), &req)
	if err != nil {
		if status, code, message := mapShopError(err); status != 0 {
			return h.ErrorResponse(c, status, message, code, nil)
		}

		log.Println("Dashboard overview failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Dashboard overview failed", "DASHBOARD_OVERVIEW_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Dashboard overview retrieved", result)
}

// GetMetric returns one dashboard metric
// @Summary Dashboard Metric
// @Description Get a single customer-analytics metric for a date range
// @Tags Dashboard
// @Produce json
// @Param key path string true "Metric key"
// @Param date_range query string false "Date range token"
// @Success 200 {object} dto.APIResponse{data=dto.GetMetricResponse} "Metric retrieved"
// @Failure 400 {object} dto.APIResponse "Unknown metric key"
// @Failure 403 {object} dto.APIResponse "Protected data access denied"
// @Failure 502 {object} dto.APIResponse "Store query failed"
// @Router /api/v1/dashboard/metrics/{key} [get]
func (h *DashboardHandler) GetMetric(c fiber.Ctx) error {
	shopID, ok := c.Locals("shop_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Shop ID not found in context", "MISSING_SHOP_ID", nil)
	}

	req := dto.GetMetricRequest{
		ShopID:    shopID,
		MetricKey: c.Params("key"),
		DateRange: c.Query("date_range"),
	}
	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.dashboardFlow.GetMetric(h.createRequestContext(c, "/api/v1/dashboard/metrics/"+req.MetricKey), &req)
	if err != nil {
		if businessflow.IsUnknownMetricKey(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Unknown metric key", "UNKNOWN_METRIC", nil)
		}
		if status, code, message := mapShopError(err); status != 0 {
			return h.ErrorResponse(c, status, message, code, nil)
		}
		if businessflow.IsProtectedDataError(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Protected data access denied", "PROTECTED_DATA_ACCESS_DENIED", nil)
		}
		if businessflow.IsRemoteQueryError(err) {
			return h.ErrorResponse(c, fiber.StatusBadGateway, "Store query failed", "REMOTE_QUERY_FAILED", err.Error())
		}

		log.Println("Dashboard metric failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Dashboard metric failed", "DASHBOARD_METRIC_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Metric retrieved", result)
}

// GetSegmentation returns the customer segmentation distribution
// @Summary Customer Segmentation
// @Description Get the new/returning/loyal customer distribution for a date range
// @Tags Dashboard
// @Produce json
// @Param date_range query string false "Date range token"
// @Success 200 {object} dto.APIResponse{data=dto.SegmentationDistributionResponse} "Segmentation retrieved"
// @Router /api/v1/dashboard/segmentation [get]
func (h *DashboardHandler) GetSegmentation(c fiber.Ctx) error {
	shopID, ok := c.Locals("shop_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Shop ID not found in context", "MISSING_SHOP_ID", nil)
	}

	result, err := h.dashboardFlow.GetSegmentationDistribution(h.createRequestContext(c, "/api/v1/dashboard/segmentation"), shopID, c.Query("date_range"))
	if err != nil {
		if status, code, message := mapShopError(err); status != 0 {
			return h.ErrorResponse(c, status, message, code, nil)
		}
		if businessflow.IsProtectedDataError(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Protected data access denied", "PROTECTED_DATA_ACCESS_DENIED", nil)
		}
		if businessflow.IsRemoteQueryError(err) {
			return h.ErrorResponse(c, fiber.StatusBadGateway, "Store query failed", "REMOTE_QUERY_FAILED", err.Error())
		}

		log.Println("Customer segmentation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Customer segmentation failed", "SEGMENTATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Customer segmentation retrieved", result)
}

// createRequestContext creates a context with timeout and request-scoped values
func (h *DashboardHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

// createRequestContextWithTimeout creates a context with custom timeout and request-scoped values
func createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	// Add request-scoped values for observability
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel) // Store cancel function for cleanup

	return ctx
}

// mapShopError maps shop resolution errors shared by every authenticated route.
// A zero status means the error was not a shop error.
func mapShopError(err error) (int, string, string) {
	if businessflow.IsShopNotFound(err) {
		return fiber.StatusUnauthorized, "SHOP_NOT_FOUND", "Shop not found"
	}
	if businessflow.IsShopInactive(err) {
		return fiber.StatusUnauthorized, "SHOP_INACTIVE", "Shop is inactive"
	}
	return 0, "", ""
}

// clientMetadata builds audit metadata from the request
func clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))
	return metadata
}
