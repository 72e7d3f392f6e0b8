package businessflow

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/storepulse/storepulse/app/dto"
	"github.com/storepulse/storepulse/app/services"
	"github.com/storepulse/storepulse/models"
	"github.com/storepulse/storepulse/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatFlowHarness struct {
	flow     ChatFlow
	shop     *models.Shop
	sessions *fakeChatSessionRepo
	messages *fakeChatMessageRepo
	webhook  *fakeWebhookClient
	segments *fakeSegmentClient
	audit    *fakeAuditRepo
}

func newChatFlowHarness(webhook *fakeWebhookClient) *chatFlowHarness {
	if webhook == nil {
		webhook = &fakeWebhookClient{}
	}
	shop := activeTestShop(1)
	sessions := newFakeChatSessionRepo()
	messages := newFakeChatMessageRepo()
	segments := &fakeSegmentClient{}
	audit := &fakeAuditRepo{}
	return &chatFlowHarness{
		flow:     NewChatFlow(newFakeShopRepo(shop), sessions, messages, webhook, segments, audit),
		shop:     shop,
		sessions: sessions,
		messages: messages,
		webhook:  webhook,
		segments: segments,
		audit:    audit,
	}
}

func TestSendMessageCreatesSessionLazily(t *testing.T) {
	webhook := &fakeWebhookClient{reply: &services.ChatWebhookReply{
		Reply: "Found 12 customers",
		Query: json.RawMessage(`{"minOrders":3}`),
	}}
	h := newChatFlowHarness(webhook)

	resp, err := h.flow.SendMessage(context.Background(), &dto.SendChatMessageRequest{
		ShopID:  h.shop.ID,
		Message: "customers with more than 3 orders",
	}, NewClientMetadata("127.0.0.1", "test"))
	require.NoError(t, err)

	assert.NotEmpty(t, resp.SessionUUID)
	assert.Equal(t, "Found 12 customers", resp.Reply)
	assert.JSONEq(t, `{"minOrders":3}`, string(resp.Query))

	require.Len(t, h.sessions.sessions, 1)
	for _, session := range h.sessions.sessions {
		require.NotNil(t, session.Title)
		assert.Equal(t, "customers with more than 3 orders", *session.Title)
	}

	// User message then assistant message, with the extracted query stored
	require.Len(t, h.messages.messages, 2)
	assert.Equal(t, models.ChatRoleUser, h.messages.messages[0].Role)
	assert.Equal(t, models.ChatRoleAssistant, h.messages.messages[1].Role)
	require.NotNil(t, h.messages.messages[1].Query)
	assert.JSONEq(t, `{"minOrders":3}`, *h.messages.messages[1].Query)
}

func TestSendMessageTruncatesLongTitles(t *testing.T) {
	h := newChatFlowHarness(nil)
	message := strings.Repeat("show me every customer ", 10)

	_, err := h.flow.SendMessage(context.Background(), &dto.SendChatMessageRequest{
		ShopID:  h.shop.ID,
		Message: message,
	}, nil)
	require.NoError(t, err)

	for _, session := range h.sessions.sessions {
		require.NotNil(t, session.Title)
		assert.Len(t, *session.Title, chatSessionTitleLimit)
	}
}

func TestSendMessageTitleTruncationKeepsRunesIntact(t *testing.T) {
	h := newChatFlowHarness(nil)
	message := strings.Repeat("客", chatSessionTitleLimit+10)

	_, err := h.flow.SendMessage(context.Background(), &dto.SendChatMessageRequest{
		ShopID:  h.shop.ID,
		Message: message,
	}, nil)
	require.NoError(t, err)

	for _, session := range h.sessions.sessions {
		require.NotNil(t, session.Title)
		assert.True(t, utf8.ValidString(*session.Title))
		assert.Equal(t, chatSessionTitleLimit, utf8.RuneCountInString(*session.Title))
	}
}

func TestSendMessageReusesExistingSession(t *testing.T) {
	h := newChatFlowHarness(nil)
	session := &models.ChatSession{
		UUID:          uuid.New(),
		ShopID:        h.shop.ID,
		Title:         utils.ToPtr("earlier conversation"),
		CreatedAt:     utils.UTCNow(),
		LastMessageAt: utils.UTCNow(),
	}
	require.NoError(t, h.sessions.Save(context.Background(), session))

	resp, err := h.flow.SendMessage(context.Background(), &dto.SendChatMessageRequest{
		ShopID:      h.shop.ID,
		SessionUUID: utils.ToPtr(session.UUID.String()),
		Message:     "and how many are in canada?",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, session.UUID.String(), resp.SessionUUID)
	assert.Len(t, h.sessions.sessions, 1, "no new session for a follow-up message")
	assert.Equal(t, session.UUID.String(), h.webhook.lastReq.SessionID)
}

func TestSendMessageUnknownSession(t *testing.T) {
	h := newChatFlowHarness(nil)

	_, err := h.flow.SendMessage(context.Background(), &dto.SendChatMessageRequest{
		ShopID:      h.shop.ID,
		SessionUUID: utils.ToPtr(uuid.NewString()),
		Message:     "hello",
	}, nil)

	assert.True(t, IsChatSessionNotFound(err))
	assert.Equal(t, 0, h.webhook.calls)
}

func TestSendMessageRejectsBlankMessage(t *testing.T) {
	h := newChatFlowHarness(nil)

	for _, message := range []string{"", "   ", "\n\t"} {
		_, err := h.flow.SendMessage(context.Background(), &dto.SendChatMessageRequest{
			ShopID:  h.shop.ID,
			Message: message,
		}, nil)
		assert.True(t, IsChatMessageEmpty(err), "message %q", message)
	}
	assert.Equal(t, 0, h.webhook.calls)
}

func TestSendMessageWebhookFailureIsAudited(t *testing.T) {
	webhook := &fakeWebhookClient{sendErr: &services.RemoteQueryError{Message: "webhook timed out"}}
	h := newChatFlowHarness(webhook)

	_, err := h.flow.SendMessage(context.Background(), &dto.SendChatMessageRequest{
		ShopID:  h.shop.ID,
		Message: "top spenders this month",
	}, NewClientMetadata("127.0.0.1", "test"))

	require.Error(t, err)
	assert.True(t, IsRemoteQueryError(err))

	// The user message is kept so the conversation can be retried
	require.Len(t, h.messages.messages, 1)
	assert.Equal(t, models.ChatRoleUser, h.messages.messages[0].Role)

	require.Len(t, h.audit.entries, 1)
	assert.Equal(t, models.AuditActionChatMessageSent, h.audit.entries[0].Action)
	assert.True(t, h.audit.entries[0].IsFailed())
}

func TestListMessagesUnknownSession(t *testing.T) {
	h := newChatFlowHarness(nil)

	_, err := h.flow.ListMessages(context.Background(), h.shop.ID, uuid.NewString())
	assert.True(t, IsChatSessionNotFound(err))
}

func TestListMessagesReturnsStoredQuery(t *testing.T) {
	h := newChatFlowHarness(&fakeWebhookClient{reply: &services.ChatWebhookReply{
		Reply: "done",
		Query: json.RawMessage(`{"location":"us"}`),
	}})

	sent, err := h.flow.SendMessage(context.Background(), &dto.SendChatMessageRequest{
		ShopID:  h.shop.ID,
		Message: "us customers",
	}, nil)
	require.NoError(t, err)

	resp, err := h.flow.ListMessages(context.Background(), h.shop.ID, sent.SessionUUID)
	require.NoError(t, err)

	require.Len(t, resp.Messages, 2)
	assert.Equal(t, models.ChatRoleUser, resp.Messages[0].Role)
	assert.JSONEq(t, `{"location":"us"}`, string(resp.Messages[1].Query))
}

func TestRunExtractedQuery(t *testing.T) {
	h := newChatFlowHarness(nil)
	h.segments.result = &services.SegmentMatchResult{
		MatchCount: 4,
		Customers:  []services.SegmentCustomer{{ID: "c1", Name: "Ada"}},
	}

	resp, err := h.flow.RunExtractedQuery(context.Background(), &dto.RunChatQueryRequest{
		ShopID: h.shop.ID,
		Query:  json.RawMessage(`{"minOrders":3}`),
	}, NewClientMetadata("127.0.0.1", "test"))
	require.NoError(t, err)

	assert.Equal(t, 4, resp.MatchCount)
	require.Len(t, resp.Customers, 1)
	assert.JSONEq(t, `{"minOrders":3}`, string(h.segments.lastReq.Query))

	require.Len(t, h.audit.entries, 1)
	assert.Equal(t, models.AuditActionChatQueryExecuted, h.audit.entries[0].Action)
	assert.False(t, h.audit.entries[0].IsFailed())
}

func TestRunExtractedQueryRequiresQuery(t *testing.T) {
	h := newChatFlowHarness(nil)

	_, err := h.flow.RunExtractedQuery(context.Background(), &dto.RunChatQueryRequest{
		ShopID: h.shop.ID,
	}, nil)

	assert.True(t, IsChatQueryRequired(err))
	assert.Equal(t, 0, h.segments.calls)
}
