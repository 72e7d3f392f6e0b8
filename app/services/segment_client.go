// Package services provides external service integrations and technical concerns like remote store queries and tokens
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/storepulse/storepulse/config"
)

const protectedCustomerDataCode = "PROTECTED_CUSTOMER_DATA_ACCESS_DENIED"

// SegmentCustomer is one matched customer in a segment-match result
type SegmentCustomer struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Country      string  `json:"country,omitempty"`
	CreatedDate  string  `json:"created_date,omitempty"`
	LastPurchase string  `json:"last_purchase,omitempty"`
	Orders       int     `json:"orders"`
	TotalSpent   float64 `json:"total_spent"`
}

// SegmentMatchRequest is the payload sent to the segment-generation collaborator
type SegmentMatchRequest struct {
	ShopDomain string              `json:"shop_domain"`
	Filters    map[string][]string `json:"filters,omitempty"`
	Query      json.RawMessage     `json:"query,omitempty"`
}

// SegmentMatchResult is the typed result of a segment match
type SegmentMatchResult struct {
	MatchCount int
	Customers  []SegmentCustomer
}

// SegmentClient resolves a filter selection or structured query into matched customers
type SegmentClient interface {
	MatchSegment(ctx context.Context, req SegmentMatchRequest) (*SegmentMatchResult, error)
}

// segmentClientImpl implements SegmentClient over HTTP
type segmentClientImpl struct {
	config *config.SegmentAPIConfig
	client *http.Client
}

// NewSegmentClient creates a new segment-match client
func NewSegmentClient(cfg *config.SegmentAPIConfig) SegmentClient {
	return &segmentClientImpl{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// segmentMatchResponse is the collaborator's wire response. Either Success with
// a match payload, or Error with a machine code.
type segmentMatchResponse struct {
	Success    bool              `json:"success"`
	MatchCount int               `json:"matchCount"`
	Customers  []SegmentCustomer `json:"customers"`
	Error      string            `json:"error"`
}

// MatchSegment posts the request and interprets the typed result
func (s *segmentClientImpl) MatchSegment(ctx context.Context, req SegmentMatchRequest) (*SegmentMatchResult, error) {
	requestBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal segment match request: %w", err)
	}

	url := s.config.BaseURL + "/segments/match"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create segment match request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.config.AuthToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.config.AuthToken)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, &RemoteQueryError{Message: err.Error()}
	}
	defer resp.Body.Close()

	var decoded segmentMatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &RemoteQueryError{Message: fmt.Sprintf("failed to decode segment match response: %v", err)}
	}

	if decoded.Error != "" {
		if decoded.Error == protectedCustomerDataCode {
			return nil, &ProtectedDataError{Kind: ProtectedCustomerData, Message: decoded.Error}
		}
		return nil, &RemoteQueryError{Message: decoded.Error}
	}
	if !decoded.Success {
		return nil, &RemoteQueryError{Message: fmt.Sprintf("segment match returned status %d without a result", resp.StatusCode)}
	}

	return &SegmentMatchResult{
		MatchCount: decoded.MatchCount,
		Customers:  decoded.Customers,
	}, nil
}
