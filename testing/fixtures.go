// Package testing provides test utilities and database setup for integration tests
package testing

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/storepulse/storepulse/models"
	"github.com/storepulse/storepulse/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestShop creates an active installed shop with a unique domain
func (tf *TestFixtures) CreateTestShop() (*models.Shop, error) {
	suffix := rand.Intn(1000000)
	timezone := "America/New_York"
	currency := "USD"

	shop := &models.Shop{
		UUID:        uuid.New(),
		Domain:      fmt.Sprintf("test-shop-%d.myshopify.com", suffix),
		Name:        fmt.Sprintf("Test Shop %d", suffix),
		AccessToken: fmt.Sprintf("shpat_test_%d", suffix),
		Scopes:      "read_customers,read_orders",
		PlanName:    "basic",
		Timezone:    &timezone,
		Currency:    &currency,
		IsActive:    utils.ToPtr(true),
		CreatedAt:   utils.UTCNow(),
		UpdatedAt:   utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(shop).Error; err != nil {
		return nil, fmt.Errorf("failed to create test shop: %w", err)
	}
	return shop, nil
}

// CreateInactiveTestShop creates a shop marked as uninstalled
func (tf *TestFixtures) CreateInactiveTestShop() (*models.Shop, error) {
	shop, err := tf.CreateTestShop()
	if err != nil {
		return nil, err
	}

	now := utils.UTCNow()
	shop.IsActive = utils.ToPtr(false)
	shop.Uninstalled = &now
	if err := tf.DB.DB.Save(shop).Error; err != nil {
		return nil, fmt.Errorf("failed to deactivate test shop: %w", err)
	}
	return shop, nil
}

// CreateTestSavedList creates a saved list for a shop from a filter selection
func (tf *TestFixtures) CreateTestSavedList(shopID uint, source, status string) (*models.SavedList, error) {
	criteria, err := json.Marshal(map[string][]string{"location": {"us"}})
	if err != nil {
		return nil, err
	}
	if source == models.SavedListSourceAISearch {
		criteria, err = json.Marshal(map[string]any{"minOrders": 3})
		if err != nil {
			return nil, err
		}
	}

	list := &models.SavedList{
		UUID:          uuid.New(),
		ShopID:        shopID,
		Name:          fmt.Sprintf("Test List %d", rand.Intn(1000000)),
		CustomerCount: 42,
		Source:        source,
		Criteria:      criteria,
		Tags:          []string{"test"},
		Status:        status,
		CreatedAt:     utils.UTCNow(),
		LastUpdated:   utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(list).Error; err != nil {
		return nil, fmt.Errorf("failed to create test saved list: %w", err)
	}
	return list, nil
}

// CreateTestChatSession creates a chat session with an optional seed message
func (tf *TestFixtures) CreateTestChatSession(shopID uint, withMessage bool) (*models.ChatSession, error) {
	title := "Find my repeat customers"
	session := &models.ChatSession{
		UUID:          uuid.New(),
		ShopID:        shopID,
		Title:         &title,
		CreatedAt:     utils.UTCNow(),
		LastMessageAt: utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create test chat session: %w", err)
	}

	if withMessage {
		message := &models.ChatMessage{
			SessionID: session.ID,
			Role:      models.ChatRoleUser,
			Content:   "Find my repeat customers",
			CreatedAt: utils.UTCNow(),
		}
		if err := tf.DB.DB.Create(message).Error; err != nil {
			return nil, fmt.Errorf("failed to create test chat message: %w", err)
		}
	}

	return session, nil
}

// CreateTestAuditLog creates a test audit log entry
func (tf *TestFixtures) CreateTestAuditLog(shopID *uint, action string, success bool) (*models.AuditLog, error) {
	description := fmt.Sprintf("Test %s action", action)
	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	audit := &models.AuditLog{
		ShopID:      shopID,
		Action:      action,
		Description: &description,
		Success:     &success,
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	if !success {
		errorMessage := "Test failed action"
		audit.ErrorMessage = &errorMessage
	}

	if err := tf.DB.DB.Create(audit).Error; err != nil {
		return nil, fmt.Errorf("failed to create test audit log: %w", err)
	}
	return audit, nil
}
