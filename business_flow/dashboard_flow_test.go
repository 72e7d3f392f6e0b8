package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/storepulse/storepulse/app/dto"
	"github.com/storepulse/storepulse/app/services"
	"github.com/storepulse/storepulse/config"
	"github.com/storepulse/storepulse/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeShopifyClient serves canned records per source, split into pages of two
type fakeShopifyClient struct {
	records map[services.QuerySource][]services.RemoteRecord
	queries []services.PageQuery
	err     error
}

func (c *fakeShopifyClient) QueryPage(ctx context.Context, shop *models.Shop, query services.PageQuery) (*services.RecordPage, error) {
	c.queries = append(c.queries, query)
	if c.err != nil {
		return nil, c.err
	}

	all := c.records[query.Source]
	start := 0
	if query.After != "" {
		for i := range all {
			if all[i].CustomerID == query.After {
				start = i + 1
				break
			}
		}
	}
	end := start + 2
	if end > len(all) {
		end = len(all)
	}

	page := &services.RecordPage{Records: all[start:end]}
	if end < len(all) {
		page.HasNextPage = true
		page.EndCursor = all[end-1].CustomerID
	}
	return page, nil
}

func dashboardTestConfig() *config.ShopifyConfig {
	return &config.ShopifyConfig{
		APIVersion: "2025-01",
		Timeout:    10 * time.Second,
		PageSize:   250,
		RecordCap:  1000,
	}
}

func newDashboardFlowHarness(client *fakeShopifyClient) (DashboardFlow, *models.Shop, *memoryCache) {
	shop := activeTestShop(1)
	cache := newMemoryCache()
	flow := NewDashboardFlow(newFakeShopRepo(shop), client, cache, fixedClock(), dashboardTestConfig(), time.Minute)
	return flow, shop, cache
}

func customerRecord(id string, orders int, spent float64) services.RemoteRecord {
	return services.RemoteRecord{
		CustomerID:  id,
		CreatedAt:   time.Date(2025, time.March, 10, 10, 0, 0, 0, time.UTC),
		OrdersCount: orders,
		TotalSpent:  spent,
	}
}

func TestGetMetricCountsUniqueCustomers(t *testing.T) {
	client := &fakeShopifyClient{records: map[services.QuerySource][]services.RemoteRecord{
		services.SourceCustomers: {
			customerRecord("c1", 1, 50),
			customerRecord("c2", 3, 700),
			customerRecord("c3", 6, 1200),
		},
	}}
	flow, shop, _ := newDashboardFlowHarness(client)

	resp, err := flow.GetMetric(context.Background(), &dto.GetMetricRequest{
		ShopID:    shop.ID,
		MetricKey: MetricHighSpenders,
		DateRange: "today",
	})
	require.NoError(t, err)

	assert.Equal(t, MetricHighSpenders, resp.MetricKey)
	assert.Equal(t, "today", resp.DateRange)
	require.Len(t, resp.Points, 1)
	assert.Equal(t, 2, resp.Points[0].Value)
	assert.False(t, resp.Truncated)
}

func TestGetMetricUnknownKey(t *testing.T) {
	flow, shop, _ := newDashboardFlowHarness(&fakeShopifyClient{})

	_, err := flow.GetMetric(context.Background(), &dto.GetMetricRequest{
		ShopID:    shop.ID,
		MetricKey: "lunar_purchases",
	})

	assert.True(t, IsUnknownMetricKey(err))
}

func TestGetMetricServesFromCache(t *testing.T) {
	client := &fakeShopifyClient{records: map[services.QuerySource][]services.RemoteRecord{
		services.SourceCustomers: {customerRecord("c1", 1, 50)},
	}}
	flow, shop, _ := newDashboardFlowHarness(client)

	req := &dto.GetMetricRequest{ShopID: shop.ID, MetricKey: MetricNewCustomers, DateRange: "today"}

	_, err := flow.GetMetric(context.Background(), req)
	require.NoError(t, err)
	queriesAfterFirst := len(client.queries)

	second, err := flow.GetMetric(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, queriesAfterFirst, len(client.queries), "second read must not hit the store")
	assert.Equal(t, MetricNewCustomers, second.MetricKey)
}

func TestGetMetricGrowthComparesFirstDayToFullRange(t *testing.T) {
	client := &fakeShopifyClient{records: map[services.QuerySource][]services.RemoteRecord{
		services.SourceCustomers: {
			customerRecord("c1", 1, 50),
			customerRecord("c2", 1, 80),
		},
	}}
	flow, shop, _ := newDashboardFlowHarness(client)

	resp, err := flow.GetMetric(context.Background(), &dto.GetMetricRequest{
		ShopID:    shop.ID,
		MetricKey: MetricNewCustomers,
		DateRange: "30days",
	})
	require.NoError(t, err)

	require.Len(t, resp.Points, 2)
	// The fake serves the same records for both windows, so growth is flat
	assert.Equal(t, resp.Points[0].Value, resp.Points[1].Value)
	assert.Equal(t, GrowthLabelNoChange, resp.Growth.Label)
	assert.Equal(t, GrowthToneSuccess, resp.Growth.Tone)
}

func TestGetOverviewReturnsEveryCard(t *testing.T) {
	client := &fakeShopifyClient{records: map[services.QuerySource][]services.RemoteRecord{
		services.SourceCustomers: {customerRecord("c1", 2, 300)},
	}}
	flow, shop, _ := newDashboardFlowHarness(client)

	resp, err := flow.GetOverview(context.Background(), &dto.GetOverviewRequest{
		ShopID:    shop.ID,
		DateRange: "today",
	})
	require.NoError(t, err)

	require.Len(t, resp.Cards, len(metricCatalogue))
	for i, card := range resp.Cards {
		assert.Equal(t, metricCatalogue[i].Key, card.MetricKey)
		assert.Empty(t, card.ErrorCode)
		require.NotNil(t, card.Growth)
	}
}

func TestGetOverviewReusesMetricCache(t *testing.T) {
	client := &fakeShopifyClient{records: map[services.QuerySource][]services.RemoteRecord{
		services.SourceCustomers: {customerRecord("c1", 2, 300)},
	}}
	flow, shop, _ := newDashboardFlowHarness(client)

	_, err := flow.GetMetric(context.Background(), &dto.GetMetricRequest{
		ShopID:    shop.ID,
		MetricKey: MetricHighSpenders,
		DateRange: "today",
	})
	require.NoError(t, err)
	queriesAfterMetric := len(client.queries)

	_, err = flow.GetOverview(context.Background(), &dto.GetOverviewRequest{
		ShopID:    shop.ID,
		DateRange: "today",
	})
	require.NoError(t, err)
	queriesAfterOverview := len(client.queries)

	// The overview recomputed every card except the one GetMetric cached
	assert.Equal(t, queriesAfterMetric+len(metricCatalogue)-1, queriesAfterOverview)

	_, err = flow.GetOverview(context.Background(), &dto.GetOverviewRequest{
		ShopID:    shop.ID,
		DateRange: "today",
	})
	require.NoError(t, err)

	assert.Equal(t, queriesAfterOverview, len(client.queries), "a repeat dashboard load must be served from cache")
}

func TestGetOverviewIsolatesFailedCards(t *testing.T) {
	denied := &fakeShopifyClient{err: &services.ProtectedDataError{
		Kind:    services.ProtectedCustomerData,
		Message: "not approved",
	}}
	flow, shop, _ := newDashboardFlowHarness(denied)

	resp, err := flow.GetOverview(context.Background(), &dto.GetOverviewRequest{
		ShopID:    shop.ID,
		DateRange: "today",
	})
	require.NoError(t, err, "a denied metric must not fail the whole overview")

	require.Len(t, resp.Cards, len(metricCatalogue))
	for _, card := range resp.Cards {
		assert.Equal(t, "PROTECTED_DATA_ACCESS_DENIED", card.ErrorCode, "card %s", card.MetricKey)
		assert.Nil(t, card.Growth)
	}
}

func TestGetSegmentationDistribution(t *testing.T) {
	client := &fakeShopifyClient{records: map[services.QuerySource][]services.RemoteRecord{
		services.SourceCustomers: {
			customerRecord("c1", 0, 0),
			customerRecord("c2", 1, 40),
			customerRecord("c3", 3, 200),
			customerRecord("c4", 4, 350),
			customerRecord("c5", 5, 900),
		},
	}}
	flow, shop, _ := newDashboardFlowHarness(client)

	resp, err := flow.GetSegmentationDistribution(context.Background(), shop.ID, "30days")
	require.NoError(t, err)

	assert.Equal(t, 2, resp.New)
	assert.Equal(t, 2, resp.Returning)
	assert.Equal(t, 1, resp.Loyal)
	assert.False(t, resp.Truncated)
}

func TestMetricCatalogueKeysAreUnique(t *testing.T) {
	seen := make(map[string]bool, len(metricCatalogue))
	for _, spec := range metricCatalogue {
		assert.False(t, seen[spec.Key], "duplicate metric key %s", spec.Key)
		seen[spec.Key] = true
		assert.NotNil(t, spec.Predicate)
	}
}
