// Package services provides external service integrations and technical concerns like remote store queries and tokens
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/storepulse/storepulse/config"
)

// ChatWebhookRequest is the payload posted to the chat webhook collaborator
type ChatWebhookRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	ShopID    string `json:"shopId"`
}

// ChatWebhookReply is the decoded assistant reply
type ChatWebhookReply struct {
	Reply              string
	Query              json.RawMessage
	NeedsClarification bool
}

// AIWebhookClient forwards merchant messages to the natural-language webhook
type AIWebhookClient interface {
	SendMessage(ctx context.Context, req ChatWebhookRequest) (*ChatWebhookReply, error)
}

// aiWebhookClientImpl implements AIWebhookClient over HTTP
type aiWebhookClientImpl struct {
	config *config.AIWebhookConfig
	client *http.Client
}

// NewAIWebhookClient creates a new chat webhook client
func NewAIWebhookClient(cfg *config.AIWebhookConfig) AIWebhookClient {
	return &aiWebhookClientImpl{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// chatEnvelope is the structured webhook response envelope. Reply is a pointer
// so version-less envelopes can be told apart from arbitrary JSON.
type chatEnvelope struct {
	SchemaVersion      int             `json:"schema_version"`
	Reply              *string         `json:"reply"`
	Query              json.RawMessage `json:"query,omitempty"`
	NeedsClarification bool            `json:"needs_clarification"`
}

// SendMessage posts a merchant message and decodes the reply envelope.
// Structured envelopes are recognized with or without a schema_version tag;
// anything else is treated as legacy plain text and returned verbatim.
func (a *aiWebhookClientImpl) SendMessage(ctx context.Context, req ChatWebhookRequest) (*ChatWebhookReply, error) {
	requestBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat webhook request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", a.config.URL, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat webhook request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if a.config.AuthToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.config.AuthToken)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, &RemoteQueryError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteQueryError{Message: fmt.Sprintf("failed to read chat webhook response: %v", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteQueryError{Message: fmt.Sprintf("chat webhook returned status %d", resp.StatusCode)}
	}

	return DecodeChatReply(body), nil
}

// DecodeChatReply decodes a webhook response body. Tagged JSON envelopes take
// the versioned path; an untagged JSON object carrying a reply field is the
// original envelope shape and decodes the same way. Anything else is the
// legacy plain-text format.
func DecodeChatReply(body []byte) *ChatWebhookReply {
	var envelope chatEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && (envelope.SchemaVersion >= 1 || envelope.Reply != nil) {
		reply := &ChatWebhookReply{
			Query:              envelope.Query,
			NeedsClarification: envelope.NeedsClarification,
		}
		if envelope.Reply != nil {
			reply.Reply = *envelope.Reply
		}
		return reply
	}

	return &ChatWebhookReply{
		Reply: strings.TrimSpace(string(body)),
	}
}
