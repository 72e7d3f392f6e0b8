// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"encoding/json"

	"github.com/storepulse/storepulse/models"
	"github.com/storepulse/storepulse/repository"
	"github.com/storepulse/storepulse/utils"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for audit logging
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// recordAudit persists an audit entry; audit failures never fail the flow
func recordAudit(ctx context.Context, auditRepo repository.AuditLogRepository, shopID uint, action string, metadata *ClientMetadata, success bool, errMessage *string, payload any) {
	if auditRepo == nil {
		return
	}

	entry := &models.AuditLog{
		Action:       action,
		Success:      utils.ToPtr(success),
		ErrorMessage: errMessage,
		CreatedAt:    utils.UTCNow(),
	}
	if shopID != 0 {
		entry.ShopID = &shopID
	}
	if metadata != nil {
		if metadata.IPAddress != "" {
			entry.IPAddress = &metadata.IPAddress
		}
		if metadata.UserAgent != "" {
			entry.UserAgent = &metadata.UserAgent
		}
		if metadata.RequestID != "" {
			entry.RequestID = &metadata.RequestID
		}
	}
	if payload != nil {
		if encoded, err := json.Marshal(payload); err == nil {
			entry.Metadata = encoded
		}
	}

	_ = auditRepo.Save(ctx, entry)
}

// loadActiveShop fetches a shop by ID and rejects missing or inactive shops
func loadActiveShop(ctx context.Context, shopRepo repository.ShopRepository, shopID uint) (*models.Shop, error) {
	if shopID == 0 {
		return nil, NewBusinessError("MISSING_SHOP_ID", "shop id is required", nil)
	}

	shop, err := shopRepo.ByID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if shop == nil {
		return nil, ErrShopNotFound
	}
	if !utils.IsTrue(shop.IsActive) {
		return nil, ErrShopInactive
	}
	return shop, nil
}
