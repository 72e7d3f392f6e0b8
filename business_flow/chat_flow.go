package businessflow

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storepulse/storepulse/app/dto"
	"github.com/storepulse/storepulse/app/services"
	"github.com/storepulse/storepulse/models"
	"github.com/storepulse/storepulse/repository"
	"github.com/storepulse/storepulse/utils"
)

// chatSessionTitleLimit caps the auto-derived session title length
const chatSessionTitleLimit = 60

// ChatFlow defines AI search conversation operations
type ChatFlow interface {
	SendMessage(ctx context.Context, req *dto.SendChatMessageRequest, metadata *ClientMetadata) (*dto.SendChatMessageResponse, error)
	ListSessions(ctx context.Context, shopID uint) (*dto.ListChatSessionsResponse, error)
	ListMessages(ctx context.Context, shopID uint, sessionUUID string) (*dto.ListChatMessagesResponse, error)
	RunExtractedQuery(ctx context.Context, req *dto.RunChatQueryRequest, metadata *ClientMetadata) (*dto.RunChatQueryResponse, error)
}

// ChatFlowImpl implements ChatFlow
type ChatFlowImpl struct {
	shopRepo      repository.ShopRepository
	sessionRepo   repository.ChatSessionRepository
	messageRepo   repository.ChatMessageRepository
	webhookClient services.AIWebhookClient
	segmentClient services.SegmentClient
	auditRepo     repository.AuditLogRepository
}

// NewChatFlow creates a new chat flow
func NewChatFlow(
	shopRepo repository.ShopRepository,
	sessionRepo repository.ChatSessionRepository,
	messageRepo repository.ChatMessageRepository,
	webhookClient services.AIWebhookClient,
	segmentClient services.SegmentClient,
	auditRepo repository.AuditLogRepository,
) ChatFlow {
	return &ChatFlowImpl{
		shopRepo:      shopRepo,
		sessionRepo:   sessionRepo,
		messageRepo:   messageRepo,
		webhookClient: webhookClient,
		segmentClient: segmentClient,
		auditRepo:     auditRepo,
	}
}

func (f *ChatFlowImpl) SendMessage(ctx context.Context, req *dto.SendChatMessageRequest, metadata *ClientMetadata) (*dto.SendChatMessageResponse, error) {
	if req == nil {
		return nil, NewBusinessError("INVALID_REQUEST", "request is required", nil)
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrChatMessageEmpty
	}

	shop, err := loadActiveShop(ctx, f.shopRepo, req.ShopID)
	if err != nil {
		return nil, err
	}

	session, err := f.resolveSession(ctx, shop, req)
	if err != nil {
		return nil, err
	}

	userMessage := models.ChatMessage{
		SessionID: session.ID,
		Role:      models.ChatRoleUser,
		Content:   req.Message,
		CreatedAt: utils.UTCNow(),
	}
	if err := f.messageRepo.Save(ctx, &userMessage); err != nil {
		return nil, err
	}

	reply, err := f.webhookClient.SendMessage(ctx, services.ChatWebhookRequest{
		Message:   req.Message,
		SessionID: session.UUID.String(),
		ShopID:    strconv.Itoa(int(shop.ID)),
	})
	if err != nil {
		recordAudit(ctx, f.auditRepo, shop.ID, models.AuditActionChatMessageSent, metadata, false, utils.ToPtr(err.Error()), nil)
		return nil, err
	}

	assistantMessage := models.ChatMessage{
		SessionID: session.ID,
		Role:      models.ChatRoleAssistant,
		Content:   reply.Reply,
		CreatedAt: utils.UTCNow(),
	}
	if len(reply.Query) > 0 {
		assistantMessage.Query = utils.ToPtr(string(reply.Query))
	}
	if err := f.messageRepo.Save(ctx, &assistantMessage); err != nil {
		return nil, err
	}

	if err := f.sessionRepo.TouchLastMessage(ctx, session.ID); err != nil {
		return nil, err
	}

	recordAudit(ctx, f.auditRepo, shop.ID, models.AuditActionChatMessageSent, metadata, true, nil, map[string]any{
		"session_uuid": session.UUID.String(),
	})

	return &dto.SendChatMessageResponse{
		SessionUUID:        session.UUID.String(),
		Reply:              reply.Reply,
		Query:              reply.Query,
		NeedsClarification: reply.NeedsClarification,
	}, nil
}

func (f *ChatFlowImpl) ListSessions(ctx context.Context, shopID uint) (*dto.ListChatSessionsResponse, error) {
	shop, err := loadActiveShop(ctx, f.shopRepo, shopID)
	if err != nil {
		return nil, err
	}

	rows, err := f.sessionRepo.ListByShop(ctx, shop.ID, 0, 0)
	if err != nil {
		return nil, err
	}

	sessions := make([]dto.ChatSessionDTO, 0, len(rows))
	for _, row := range rows {
		title := ""
		if row.Title != nil {
			title = *row.Title
		}
		sessions = append(sessions, dto.ChatSessionDTO{
			UUID:          row.UUID.String(),
			Title:         title,
			CreatedAt:     row.CreatedAt.Format(time.RFC3339),
			LastMessageAt: row.LastMessageAt.Format(time.RFC3339),
		})
	}

	return &dto.ListChatSessionsResponse{Sessions: sessions}, nil
}

func (f *ChatFlowImpl) ListMessages(ctx context.Context, shopID uint, sessionUUID string) (*dto.ListChatMessagesResponse, error) {
	shop, err := loadActiveShop(ctx, f.shopRepo, shopID)
	if err != nil {
		return nil, err
	}

	session, err := f.sessionRepo.ByUUID(ctx, shop.ID, sessionUUID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrChatSessionNotFound
	}

	rows, err := f.messageRepo.ListBySession(ctx, session.ID, 0, 0)
	if err != nil {
		return nil, err
	}

	messages := make([]dto.ChatMessageDTO, 0, len(rows))
	for _, row := range rows {
		message := dto.ChatMessageDTO{
			Role:      row.Role,
			Content:   row.Content,
			CreatedAt: row.CreatedAt.Format(time.RFC3339),
		}
		if row.Query != nil {
			message.Query = json.RawMessage(*row.Query)
		}
		messages = append(messages, message)
	}

	return &dto.ListChatMessagesResponse{
		SessionUUID: session.UUID.String(),
		Messages:    messages,
	}, nil
}

func (f *ChatFlowImpl) RunExtractedQuery(ctx context.Context, req *dto.RunChatQueryRequest, metadata *ClientMetadata) (*dto.RunChatQueryResponse, error) {
	if req == nil {
		return nil, NewBusinessError("INVALID_REQUEST", "request is required", nil)
	}
	if len(req.Query) == 0 {
		return nil, ErrChatQueryRequired
	}

	shop, err := loadActiveShop(ctx, f.shopRepo, req.ShopID)
	if err != nil {
		return nil, err
	}

	result, err := f.segmentClient.MatchSegment(ctx, services.SegmentMatchRequest{
		ShopDomain: shop.Domain,
		Query:      req.Query,
	})
	if err != nil {
		recordAudit(ctx, f.auditRepo, shop.ID, models.AuditActionChatQueryExecuted, metadata, false, utils.ToPtr(err.Error()), nil)
		return nil, err
	}

	recordAudit(ctx, f.auditRepo, shop.ID, models.AuditActionChatQueryExecuted, metadata, true, nil, nil)

	return &dto.RunChatQueryResponse{
		MatchCount:  result.MatchCount,
		Customers:   toSegmentCustomerDTOs(result.Customers),
		Description: "Customers matching your search",
	}, nil
}

// resolveSession loads the referenced session or lazily creates one on the
// first message of a new conversation
func (f *ChatFlowImpl) resolveSession(ctx context.Context, shop *models.Shop, req *dto.SendChatMessageRequest) (*models.ChatSession, error) {
	if req.SessionUUID != nil && *req.SessionUUID != "" {
		session, err := f.sessionRepo.ByUUID(ctx, shop.ID, *req.SessionUUID)
		if err != nil {
			return nil, err
		}
		if session == nil {
			return nil, ErrChatSessionNotFound
		}
		return session, nil
	}

	title := strings.TrimSpace(req.Message)
	// Truncate on runes so a multi-byte character is never split
	if runes := []rune(title); len(runes) > chatSessionTitleLimit {
		title = string(runes[:chatSessionTitleLimit])
	}

	session := models.ChatSession{
		UUID:          uuid.New(),
		ShopID:        shop.ID,
		Title:         &title,
		CreatedAt:     utils.UTCNow(),
		LastMessageAt: utils.UTCNow(),
	}
	if err := f.sessionRepo.Save(ctx, &session); err != nil {
		return nil, err
	}
	return &session, nil
}
