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

// ChatHandlerInterface defines the contract for chat handlers
type ChatHandlerInterface interface {
	SendMessage(c fiber.Ctx) error
	ListSessions(c fiber.Ctx) error
	ListMessages(c fiber.Ctx) error
	RunQuery(c fiber.Ctx) error
}

// ChatHandler handles AI search chat HTTP requests
type ChatHandler struct {
	chatFlow  businessflow.ChatFlow
	validator *validator.Validate
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatFlow businessflow.ChatFlow) *ChatHandler {
	return &ChatHandler{
		chatFlow:  chatFlow,
		validator: validator.New(),
	}
}

func (h *ChatHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ChatHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// SendMessage forwards a merchant message to the AI collaborator
// @Summary Send Chat Message
// @Description Send a natural-language search message and get the assistant reply
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body dto.SendChatMessageRequest true "Chat message"
// @Success 200 {object} dto.APIResponse{data=dto.SendChatMessageResponse} "Reply received"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Session not found"
// @Failure 502 {object} dto.APIResponse "Assistant unavailable"
// @Router /api/v1/chat/messages [post]
func (h *ChatHandler) SendMessage(c fiber.Ctx) error {
	var req dto.SendChatMessageRequest
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

	result, err := h.chatFlow.SendMessage(h.createRequestContext(c, "/api/v1/chat/messages", 60*time.Second), &req, clientMetadata(c))
	if err != nil {
		if status, code, message := mapShopError(err); status != 0 {
			return h.ErrorResponse(c, status, message, code, nil)
		}
		if businessflow.IsChatMessageEmpty(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Message must not be empty", "CHAT_MESSAGE_EMPTY", nil)
		}
		if businessflow.IsChatSessionNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Chat session not found", "CHAT_SESSION_NOT_FOUND", nil)
		}

		log.Println("Chat message failed", err)
		return h.ErrorResponse(c, fiber.StatusBadGateway, "Assistant is unavailable", "CHAT_WEBHOOK_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Reply received", result)
}

// ListSessions returns the shop's chat session history
// @Summary List Chat Sessions
// @Description List chat sessions ordered by recent activity
// @Tags Chat
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListChatSessionsResponse} "Sessions retrieved"
// @Router /api/v1/chat/sessions [get]
func (h *ChatHandler) ListSessions(c fiber.Ctx) error {
	shopID, ok := c.Locals("shop_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Shop ID not found in context", "MISSING_SHOP_ID", nil)
	}

	result, err := h.chatFlow.ListSessions(h.createRequestContext(c, "/api/v1/chat/sessions", 30*time.Second), shopID)
	if err != nil {
		if status, code, message := mapShopError(err); status != 0 {
			return h.ErrorResponse(c, status, message, code, nil)
		}

		log.Println("Chat session listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Chat session listing failed", "CHAT_SESSIONS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Chat sessions retrieved", result)
}

// ListMessages returns a session's transcript oldest-first
// @Summary List Chat Messages
// @Description List the messages of a chat session
// @Tags Chat
// @Produce json
// @Param uuid path string true "Session UUID"
// @Success 200 {object} dto.APIResponse{data=dto.ListChatMessagesResponse} "Messages retrieved"
// @Failure 404 {object} dto.APIResponse "Session not found"
// @Router /api/v1/chat/sessions/{uuid}/messages [get]
func (h *ChatHandler) ListMessages(c fiber.Ctx) error {
	shopID, ok := c.Locals("shop_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Shop ID not found in context", "MISSING_SHOP_ID", nil)
	}

	sessionUUID := c.Params("uuid")
	if sessionUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Session UUID is required", "MISSING_SESSION_UUID", nil)
	}

	result, err := h.chatFlow.ListMessages(h.createRequestContext(c, "/api/v1/chat/sessions/"+sessionUUID+"/messages", 30*time.Second), shopID, sessionUUID)
	if err != nil {
		if status, code, message := mapShopError(err); status != 0 {
			return h.ErrorResponse(c, status, message, code, nil)
		}
		if businessflow.IsChatSessionNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Chat session not found", "CHAT_SESSION_NOT_FOUND", nil)
		}

		log.Println("Chat message listing failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Chat message listing failed", "CHAT_MESSAGES_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Chat messages retrieved", result)
}

// RunQuery executes an AI-extracted structured query against the store
// @Summary Run Chat Query
// @Description Realize the customer segment for a structured query the assistant extracted
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body dto.RunChatQueryRequest true "Extracted query"
// @Success 200 {object} dto.APIResponse{data=dto.RunChatQueryResponse} "Query executed"
// @Failure 403 {object} dto.APIResponse "Protected data access denied"
// @Failure 502 {object} dto.APIResponse "Segment match failed"
// @Router /api/v1/chat/query/run [post]
func (h *ChatHandler) RunQuery(c fiber.Ctx) error {
	var req dto.RunChatQueryRequest
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

	result, err := h.chatFlow.RunExtractedQuery(h.createRequestContext(c, "/api/v1/chat/query/run", 30*time.Second), &req, clientMetadata(c))
	if err != nil {
		if status, code, message := mapShopError(err); status != 0 {
			return h.ErrorResponse(c, status, message, code, nil)
		}
		if businessflow.IsChatQueryRequired(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Query is required", "CHAT_QUERY_REQUIRED", nil)
		}
		if businessflow.IsProtectedDataError(err) {
			return h.ErrorResponse(c, fiber.StatusForbidden, "Protected data access denied", "PROTECTED_DATA_ACCESS_DENIED", nil)
		}
		if businessflow.IsRemoteQueryError(err) {
			return h.ErrorResponse(c, fiber.StatusBadGateway, "Segment match failed", "REMOTE_QUERY_FAILED", err.Error())
		}

		log.Println("Chat query failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Chat query failed", "CHAT_QUERY_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Query executed", result)
}

// createRequestContext creates a context with timeout and request-scoped values
func (h *ChatHandler) createRequestContext(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	return createRequestContextWithTimeout(c, endpoint, timeout)
}
