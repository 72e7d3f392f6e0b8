package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/storepulse/storepulse/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSegmentTestServer(t *testing.T, handler http.HandlerFunc) (SegmentClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewSegmentClient(&config.SegmentAPIConfig{
		BaseURL:   server.URL,
		AuthToken: "test-token",
		Timeout:   5 * time.Second,
	})
	return client, server
}

func TestMatchSegmentSuccess(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody SegmentMatchRequest

	client, _ := newSegmentTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]any{
			"success":    true,
			"matchCount": 2,
			"customers": []map[string]any{
				{"id": "c1", "name": "Ada", "email": "ada@example.com", "orders": 4, "total_spent": 310.5},
				{"id": "c2", "name": "Grace", "email": "grace@example.com", "orders": 9, "total_spent": 1204.0},
			},
		})
	})

	result, err := client.MatchSegment(context.Background(), SegmentMatchRequest{
		ShopDomain: "test-shop.myshopify.com",
		Filters:    map[string][]string{"location": {"us"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "/segments/match", gotPath)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "test-shop.myshopify.com", gotBody.ShopDomain)

	assert.Equal(t, 2, result.MatchCount)
	require.Len(t, result.Customers, 2)
	assert.Equal(t, "Ada", result.Customers[0].Name)
	assert.InDelta(t, 310.5, result.Customers[0].TotalSpent, 0.001)
}

func TestMatchSegmentProtectedDataDenied(t *testing.T) {
	client, _ := newSegmentTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "PROTECTED_CUSTOMER_DATA_ACCESS_DENIED",
		})
	})

	_, err := client.MatchSegment(context.Background(), SegmentMatchRequest{
		ShopDomain: "test-shop.myshopify.com",
	})

	require.Error(t, err)
	assert.True(t, IsProtectedDataError(err))

	var pde *ProtectedDataError
	require.ErrorAs(t, err, &pde)
	assert.Equal(t, ProtectedCustomerData, pde.Kind)
}

func TestMatchSegmentRemoteError(t *testing.T) {
	client, _ := newSegmentTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   "query parser rejected the filter tree",
		})
	})

	_, err := client.MatchSegment(context.Background(), SegmentMatchRequest{
		ShopDomain: "test-shop.myshopify.com",
	})

	require.Error(t, err)
	assert.True(t, IsRemoteQueryError(err))
	assert.False(t, IsProtectedDataError(err))
	assert.Contains(t, err.Error(), "query parser rejected the filter tree")
}

func TestMatchSegmentMalformedResponse(t *testing.T) {
	client, _ := newSegmentTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>bad gateway</html>"))
	})

	_, err := client.MatchSegment(context.Background(), SegmentMatchRequest{
		ShopDomain: "test-shop.myshopify.com",
	})

	require.Error(t, err)
	assert.True(t, IsRemoteQueryError(err))
}

func TestMatchSegmentUnreachableServer(t *testing.T) {
	client, server := newSegmentTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, err := client.MatchSegment(context.Background(), SegmentMatchRequest{
		ShopDomain: "test-shop.myshopify.com",
	})

	require.Error(t, err)
	assert.True(t, IsRemoteQueryError(err))
}
