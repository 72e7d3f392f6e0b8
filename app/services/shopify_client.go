// Package services provides external service integrations and technical concerns like remote store queries and tokens
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/storepulse/storepulse/config"
	"github.com/storepulse/storepulse/models"
)

// QuerySource selects which Admin GraphQL collection a page query walks
type QuerySource string

const (
	SourceCustomers QuerySource = "customers"
	SourceOrders    QuerySource = "orders"
)

// RemoteRecord is a flattened store record returned by the Admin GraphQL API.
// Customer-sourced and order-sourced queries share the shape; fields that do
// not apply to a source stay at their zero value.
type RemoteRecord struct {
	CustomerID       string     `json:"customer_id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Country          string     `json:"country"`
	CreatedAt        time.Time  `json:"created_at"`
	LastPurchaseAt   *time.Time `json:"last_purchase_at,omitempty"`
	OrdersCount      int        `json:"orders_count"`
	TotalSpent       float64    `json:"total_spent"`
	Tags             []string   `json:"tags,omitempty"`
	AcceptsMarketing bool       `json:"accepts_marketing"`
	DiscountApplied  bool       `json:"discount_applied"`
	DeviceType       string     `json:"device_type"`
	IsGuest          bool       `json:"is_guest"`
}

// PageQuery describes one page request against a store collection
type PageQuery struct {
	Source QuerySource
	Search string // Admin API search syntax, may be empty
	First  int    // page size, capped at 250 by the API
	After  string // cursor from the previous page, empty for the first page
}

// RecordPage is one page of records plus the pagination state
type RecordPage struct {
	Records     []RemoteRecord
	HasNextPage bool
	EndCursor   string
}

// ShopifyClient queries a store's Admin GraphQL API one page at a time.
// Failures are terminal per request; the client never retries.
type ShopifyClient interface {
	QueryPage(ctx context.Context, shop *models.Shop, query PageQuery) (*RecordPage, error)
}

// shopifyClientImpl implements ShopifyClient over HTTP
type shopifyClientImpl struct {
	config *config.ShopifyConfig
	client *http.Client
}

// NewShopifyClient creates a new Admin GraphQL client
func NewShopifyClient(cfg *config.ShopifyConfig) ShopifyClient {
	return &shopifyClientImpl{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// graphQLRequest is the Admin GraphQL request envelope
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphQLError is one entry of the top-level errors array
type graphQLError struct {
	Message string `json:"message"`
}

type remoteNode struct {
	ID             string   `json:"id"`
	DisplayName    string   `json:"displayName"`
	Email          string   `json:"email"`
	CreatedAt      string   `json:"createdAt"`
	NumberOfOrders string   `json:"numberOfOrders"`
	Tags           []string `json:"tags"`
	AmountSpent    struct {
		Amount string `json:"amount"`
	} `json:"amountSpent"`
	DefaultAddress struct {
		Country string `json:"country"`
	} `json:"defaultAddress"`
	EmailMarketingConsent struct {
		MarketingState string `json:"marketingState"`
	} `json:"emailMarketingConsent"`
	LastOrder struct {
		CreatedAt string `json:"createdAt"`
	} `json:"lastOrder"`

	// Order-sourced fields
	Customer struct {
		ID             string `json:"id"`
		DisplayName    string `json:"displayName"`
		Email          string `json:"email"`
		NumberOfOrders string `json:"numberOfOrders"`
	} `json:"customer"`
	DiscountApplications struct {
		Nodes []json.RawMessage `json:"nodes"`
	} `json:"discountApplications"`
	ClientDetails struct {
		UserAgent string `json:"userAgent"`
	} `json:"clientDetails"`
	TotalPriceSet struct {
		ShopMoney struct {
			Amount string `json:"amount"`
		} `json:"shopMoney"`
	} `json:"totalPriceSet"`
}

type remoteConnection struct {
	Edges []struct {
		Node   remoteNode `json:"node"`
		Cursor string     `json:"cursor"`
	} `json:"edges"`
	PageInfo struct {
		HasNextPage bool   `json:"hasNextPage"`
		EndCursor   string `json:"endCursor"`
	} `json:"pageInfo"`
}

type graphQLResponse struct {
	Data struct {
		Customers *remoteConnection `json:"customers"`
		Orders    *remoteConnection `json:"orders"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

const customersPageQuery = `query CustomersPage($first: Int!, $after: String, $query: String) {
  customers(first: $first, after: $after, query: $query) {
    edges {
      cursor
      node {
        id
        displayName
        email
        createdAt
        numberOfOrders
        tags
        amountSpent { amount }
        defaultAddress { country }
        emailMarketingConsent { marketingState }
        lastOrder { createdAt }
      }
    }
    pageInfo { hasNextPage endCursor }
  }
}`

const ordersPageQuery = `query OrdersPage($first: Int!, $after: String, $query: String) {
  orders(first: $first, after: $after, query: $query) {
    edges {
      cursor
      node {
        id
        createdAt
        customer { id displayName email numberOfOrders }
        discountApplications(first: 1) { nodes { __typename } }
        clientDetails { userAgent }
        totalPriceSet { shopMoney { amount } }
      }
    }
    pageInfo { hasNextPage endCursor }
  }
}`

// QueryPage fetches one page from the store's Admin GraphQL API
func (s *shopifyClientImpl) QueryPage(ctx context.Context, shop *models.Shop, query PageQuery) (*RecordPage, error) {
	if shop == nil {
		return nil, fmt.Errorf("shop is required")
	}

	first := query.First
	if first <= 0 || first > s.config.PageSize {
		first = s.config.PageSize
	}

	variables := map[string]any{
		"first": first,
	}
	if query.After != "" {
		variables["after"] = query.After
	}
	if query.Search != "" {
		variables["query"] = query.Search
	}

	gql := customersPageQuery
	if query.Source == SourceOrders {
		gql = ordersPageQuery
	}

	requestBody, err := json.Marshal(graphQLRequest{Query: gql, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal admin API request: %w", err)
	}

	url := fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shop.Domain, s.config.APIVersion)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create admin API request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", shop.AccessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &RemoteQueryError{Message: err.Error()}
	}
	defer resp.Body.Close()

	var decoded graphQLResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &RemoteQueryError{Message: fmt.Sprintf("failed to decode admin API response: %v", err)}
	}

	if len(decoded.Errors) > 0 {
		return nil, classifyRemoteError(decoded.Errors[0].Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteQueryError{Message: fmt.Sprintf("admin API returned status %d", resp.StatusCode)}
	}

	conn := decoded.Data.Customers
	if query.Source == SourceOrders {
		conn = decoded.Data.Orders
	}
	if conn == nil {
		return nil, &RemoteQueryError{Message: "admin API response missing connection data"}
	}

	page := &RecordPage{
		Records:     make([]RemoteRecord, 0, len(conn.Edges)),
		HasNextPage: conn.PageInfo.HasNextPage,
		EndCursor:   conn.PageInfo.EndCursor,
	}
	for _, edge := range conn.Edges {
		page.Records = append(page.Records, flattenNode(query.Source, edge.Node))
	}
	return page, nil
}

// flattenNode maps a GraphQL node onto the shared record shape
func flattenNode(source QuerySource, node remoteNode) RemoteRecord {
	if source == SourceOrders {
		record := RemoteRecord{
			CustomerID:      node.Customer.ID,
			Name:            node.Customer.DisplayName,
			Email:           node.Customer.Email,
			OrdersCount:     parseIntString(node.Customer.NumberOfOrders),
			DiscountApplied: len(node.DiscountApplications.Nodes) > 0,
			DeviceType:      deviceTypeFromUserAgent(node.ClientDetails.UserAgent),
			IsGuest:         node.Customer.ID == "",
			TotalSpent:      parseFloatString(node.TotalPriceSet.ShopMoney.Amount),
		}
		if t, err := time.Parse(time.RFC3339, node.CreatedAt); err == nil {
			record.CreatedAt = t
		}
		return record
	}

	record := RemoteRecord{
		CustomerID:       node.ID,
		Name:             node.DisplayName,
		Email:            node.Email,
		Country:          node.DefaultAddress.Country,
		OrdersCount:      parseIntString(node.NumberOfOrders),
		TotalSpent:       parseFloatString(node.AmountSpent.Amount),
		Tags:             node.Tags,
		AcceptsMarketing: node.EmailMarketingConsent.MarketingState == "SUBSCRIBED",
	}
	if t, err := time.Parse(time.RFC3339, node.CreatedAt); err == nil {
		record.CreatedAt = t
	}
	if node.LastOrder.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, node.LastOrder.CreatedAt); err == nil {
			record.LastPurchaseAt = &t
		}
	}
	return record
}

func parseIntString(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func parseFloatString(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// deviceTypeFromUserAgent buckets an order's client user agent
func deviceTypeFromUserAgent(userAgent string) string {
	if userAgent == "" {
		return ""
	}
	lower := bytes.ToLower([]byte(userAgent))
	if bytes.Contains(lower, []byte("mobile")) || bytes.Contains(lower, []byte("android")) || bytes.Contains(lower, []byte("iphone")) {
		return "mobile"
	}
	return "desktop"
}
