package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRemoteError(t *testing.T) {
	tests := []struct {
		name          string
		message       string
		wantProtected bool
		wantKind      ProtectedDataKind
	}{
		{
			name:          "protected order data",
			message:       "This app is not approved to access Protected Order Data",
			wantProtected: true,
			wantKind:      ProtectedOrderData,
		},
		{
			name:          "protected customer data",
			message:       "Access to protected customer data is restricted",
			wantProtected: true,
			wantKind:      ProtectedCustomerData,
		},
		{
			name:          "not approved phrasing",
			message:       "App is not approved for this scope",
			wantProtected: true,
			wantKind:      ProtectedCustomerData,
		},
		{
			name:          "throttled",
			message:       "Throttled",
			wantProtected: false,
		},
		{
			name:          "generic failure",
			message:       "Internal error",
			wantProtected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyRemoteError(tt.message)

			if tt.wantProtected {
				assert.True(t, IsProtectedDataError(err))
				pde, ok := err.(*ProtectedDataError)
				if assert.True(t, ok) {
					assert.Equal(t, tt.wantKind, pde.Kind)
					assert.Equal(t, tt.message, pde.Message)
				}
			} else {
				assert.True(t, IsRemoteQueryError(err))
				assert.False(t, IsProtectedDataError(err))
			}
		})
	}
}

func TestFlattenCustomerNode(t *testing.T) {
	node := remoteNode{
		ID:             "gid://shopify/Customer/1",
		DisplayName:    "Ada Lovelace",
		Email:          "ada@example.com",
		CreatedAt:      "2024-01-15T10:00:00Z",
		NumberOfOrders: "4",
		Tags:           []string{"wishlist", "vip"},
	}
	node.AmountSpent.Amount = "310.50"
	node.DefaultAddress.Country = "United Kingdom"
	node.EmailMarketingConsent.MarketingState = "SUBSCRIBED"
	node.LastOrder.CreatedAt = "2025-02-01T09:30:00Z"

	record := flattenNode(SourceCustomers, node)

	assert.Equal(t, "gid://shopify/Customer/1", record.CustomerID)
	assert.Equal(t, "Ada Lovelace", record.Name)
	assert.Equal(t, "United Kingdom", record.Country)
	assert.Equal(t, 4, record.OrdersCount)
	assert.InDelta(t, 310.50, record.TotalSpent, 0.001)
	assert.Equal(t, []string{"wishlist", "vip"}, record.Tags)
	assert.True(t, record.AcceptsMarketing)
	assert.Equal(t, time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC), record.CreatedAt)
	if assert.NotNil(t, record.LastPurchaseAt) {
		assert.Equal(t, time.Date(2025, time.February, 1, 9, 30, 0, 0, time.UTC), *record.LastPurchaseAt)
	}
}

func TestFlattenCustomerNodeUnsubscribed(t *testing.T) {
	node := remoteNode{ID: "gid://shopify/Customer/2"}
	node.EmailMarketingConsent.MarketingState = "NOT_SUBSCRIBED"

	record := flattenNode(SourceCustomers, node)

	assert.False(t, record.AcceptsMarketing)
	assert.Nil(t, record.LastPurchaseAt)
}

func TestFlattenOrderNode(t *testing.T) {
	node := remoteNode{CreatedAt: "2025-03-08T19:45:00Z"}
	node.Customer.ID = "gid://shopify/Customer/1"
	node.Customer.DisplayName = "Ada Lovelace"
	node.Customer.NumberOfOrders = "4"
	node.DiscountApplications.Nodes = []json.RawMessage{json.RawMessage(`{}`)}
	node.ClientDetails.UserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0)"
	node.TotalPriceSet.ShopMoney.Amount = "89.99"

	record := flattenNode(SourceOrders, node)

	assert.Equal(t, "gid://shopify/Customer/1", record.CustomerID)
	assert.Equal(t, 4, record.OrdersCount)
	assert.True(t, record.DiscountApplied)
	assert.Equal(t, "mobile", record.DeviceType)
	assert.False(t, record.IsGuest)
	assert.InDelta(t, 89.99, record.TotalSpent, 0.001)
	assert.Equal(t, 19, record.CreatedAt.Hour())
}

func TestFlattenOrderNodeGuestCheckout(t *testing.T) {
	node := remoteNode{CreatedAt: "2025-03-08T09:00:00Z"}

	record := flattenNode(SourceOrders, node)

	assert.True(t, record.IsGuest)
	assert.False(t, record.DiscountApplied)
	assert.Empty(t, record.DeviceType)
}

func TestDeviceTypeFromUserAgent(t *testing.T) {
	tests := []struct {
		userAgent string
		want      string
	}{
		{"", ""},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0)", "mobile"},
		{"Mozilla/5.0 (Linux; Android 14)", "mobile"},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64)", "desktop"},
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0)", "desktop"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, deviceTypeFromUserAgent(tt.userAgent), "user agent %q", tt.userAgent)
	}
}
