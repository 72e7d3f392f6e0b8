package businessflow

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/storepulse/storepulse/app/dto"
	"github.com/storepulse/storepulse/app/services"
	"github.com/storepulse/storepulse/config"
	"github.com/storepulse/storepulse/models"
	"github.com/storepulse/storepulse/repository"
	"github.com/storepulse/storepulse/utils"
)

// Dashboard metric keys
const (
	MetricDiscountUsers      = "discount_users"
	MetricWishlistUsers      = "wishlist_users"
	MetricMorningPurchases   = "morning_purchases"
	MetricAfternoonPurchases = "afternoon_purchases"
	MetricEveningPurchases   = "evening_purchases"
	MetricWeekendPurchases   = "weekend_purchases"
	MetricNewCustomers       = "new_customers"
	MetricReturningCustomers = "returning_customers"
	MetricHighSpenders       = "high_spenders"
	MetricEmailSubscribers   = "email_subscribers"
	MetricGuestCheckouts     = "guest_checkouts"
	MetricMobileBuyers       = "mobile_buyers"
)

// highSpenderThreshold is the lifetime spend that marks a customer a high spender
const highSpenderThreshold = 500.0

// MetricSpec describes one dashboard metric: which store collection it walks
// and which records count toward it. All metrics share the same aggregator.
type MetricSpec struct {
	Key       string
	Source    services.QuerySource
	Predicate func(services.RemoteRecord) bool
}

// metricCatalogue lists every dashboard metric in display order
var metricCatalogue = []MetricSpec{
	{Key: MetricDiscountUsers, Source: services.SourceOrders, Predicate: func(r services.RemoteRecord) bool {
		return r.DiscountApplied
	}},
	{Key: MetricWishlistUsers, Source: services.SourceCustomers, Predicate: func(r services.RemoteRecord) bool {
		for _, tag := range r.Tags {
			if tag == "wishlist" {
				return true
			}
		}
		return false
	}},
	{Key: MetricMorningPurchases, Source: services.SourceOrders, Predicate: purchaseHourBetween(6, 12)},
	{Key: MetricAfternoonPurchases, Source: services.SourceOrders, Predicate: purchaseHourBetween(12, 18)},
	{Key: MetricEveningPurchases, Source: services.SourceOrders, Predicate: purchaseHourBetween(18, 24)},
	{Key: MetricWeekendPurchases, Source: services.SourceOrders, Predicate: func(r services.RemoteRecord) bool {
		weekday := r.CreatedAt.Weekday()
		return weekday == time.Saturday || weekday == time.Sunday
	}},
	{Key: MetricNewCustomers, Source: services.SourceCustomers, Predicate: func(r services.RemoteRecord) bool {
		return r.OrdersCount <= 1
	}},
	{Key: MetricReturningCustomers, Source: services.SourceCustomers, Predicate: func(r services.RemoteRecord) bool {
		return r.OrdersCount > 1
	}},
	{Key: MetricHighSpenders, Source: services.SourceCustomers, Predicate: func(r services.RemoteRecord) bool {
		return r.TotalSpent >= highSpenderThreshold
	}},
	{Key: MetricEmailSubscribers, Source: services.SourceCustomers, Predicate: func(r services.RemoteRecord) bool {
		return r.AcceptsMarketing
	}},
	{Key: MetricGuestCheckouts, Source: services.SourceOrders, Predicate: func(r services.RemoteRecord) bool {
		return r.IsGuest
	}},
	{Key: MetricMobileBuyers, Source: services.SourceOrders, Predicate: func(r services.RemoteRecord) bool {
		return r.DeviceType == "mobile"
	}},
}

func purchaseHourBetween(from, to int) func(services.RemoteRecord) bool {
	return func(r services.RemoteRecord) bool {
		hour := r.CreatedAt.Hour()
		return hour >= from && hour < to
	}
}

// metricSpecByKey resolves a metric key against the catalogue
func metricSpecByKey(key string) (MetricSpec, bool) {
	for _, spec := range metricCatalogue {
		if spec.Key == key {
			return spec, true
		}
	}
	return MetricSpec{}, false
}

// DashboardFlow defines dashboard metric operations
type DashboardFlow interface {
	GetMetric(ctx context.Context, req *dto.GetMetricRequest) (*dto.GetMetricResponse, error)
	GetOverview(ctx context.Context, req *dto.GetOverviewRequest) (*dto.GetOverviewResponse, error)
	GetSegmentationDistribution(ctx context.Context, shopID uint, rangeToken string) (*dto.SegmentationDistributionResponse, error)
}

// DashboardFlowImpl implements DashboardFlow
type DashboardFlowImpl struct {
	shopRepo      repository.ShopRepository
	shopifyClient services.ShopifyClient
	cache         services.InsightCache
	clock         utils.Clock
	shopifyCfg    *config.ShopifyConfig
	metricsTTL    time.Duration
}

// NewDashboardFlow creates a new dashboard flow
func NewDashboardFlow(
	shopRepo repository.ShopRepository,
	shopifyClient services.ShopifyClient,
	cache services.InsightCache,
	clock utils.Clock,
	shopifyCfg *config.ShopifyConfig,
	metricsTTL time.Duration,
) DashboardFlow {
	return &DashboardFlowImpl{
		shopRepo:      shopRepo,
		shopifyClient: shopifyClient,
		cache:         cache,
		clock:         clock,
		shopifyCfg:    shopifyCfg,
		metricsTTL:    metricsTTL,
	}
}

func (f *DashboardFlowImpl) GetMetric(ctx context.Context, req *dto.GetMetricRequest) (*dto.GetMetricResponse, error) {
	if req == nil {
		return nil, NewBusinessError("INVALID_REQUEST", "request is required", nil)
	}

	spec, ok := metricSpecByKey(req.MetricKey)
	if !ok {
		return nil, ErrUnknownMetricKey
	}

	shop, err := loadActiveShop(ctx, f.shopRepo, req.ShopID)
	if err != nil {
		return nil, err
	}

	dateRange := ResolveDateRange(f.clock, req.DateRange)

	return f.cachedMetric(ctx, shop, spec, dateRange)
}

func (f *DashboardFlowImpl) GetOverview(ctx context.Context, req *dto.GetOverviewRequest) (*dto.GetOverviewResponse, error) {
	if req == nil {
		return nil, NewBusinessError("INVALID_REQUEST", "request is required", nil)
	}

	shop, err := loadActiveShop(ctx, f.shopRepo, req.ShopID)
	if err != nil {
		return nil, err
	}

	dateRange := ResolveDateRange(f.clock, req.DateRange)

	// Each card succeeds or fails on its own; one denied metric must not
	// blank the whole dashboard.
	cards := make([]dto.MetricCardDTO, 0, len(metricCatalogue))
	for _, spec := range metricCatalogue {
		result, err := f.cachedMetric(ctx, shop, spec, dateRange)
		if err != nil {
			cards = append(cards, dto.MetricCardDTO{
				MetricKey: spec.Key,
				ErrorCode: metricErrorCode(err),
			})
			continue
		}
		growth := result.Growth
		cards = append(cards, dto.MetricCardDTO{
			MetricKey: spec.Key,
			Points:    result.Points,
			Growth:    &growth,
			Truncated: result.Truncated,
		})
	}

	return &dto.GetOverviewResponse{
		DateRange: string(dateRange.Token),
		Cards:     cards,
	}, nil
}

func (f *DashboardFlowImpl) GetSegmentationDistribution(ctx context.Context, shopID uint, rangeToken string) (*dto.SegmentationDistributionResponse, error) {
	shop, err := loadActiveShop(ctx, f.shopRepo, shopID)
	if err != nil {
		return nil, err
	}

	dateRange := ResolveDateRange(f.clock, rangeToken)

	result, err := aggregateUnique(ctx,
		f.pageFetcher(shop, services.SourceCustomers, dateRange),
		func(services.RemoteRecord) bool { return true },
		customerDedupKey,
		f.shopifyCfg.RecordCap,
	)
	if err != nil {
		return nil, err
	}

	response := &dto.SegmentationDistributionResponse{
		DateRange: string(dateRange.Token),
		Truncated: result.Truncated,
	}
	for _, record := range result.Records {
		switch {
		case record.OrdersCount <= 1:
			response.New++
		case record.OrdersCount < 5:
			response.Returning++
		default:
			response.Loyal++
		}
	}
	return response, nil
}

// cachedMetric serves a metric from the shop+metric+range cache, computing
// and caching on a miss. The overview and single-card paths share it, so a
// dashboard load reuses what a card refresh just computed.
func (f *DashboardFlowImpl) cachedMetric(ctx context.Context, shop *models.Shop, spec MetricSpec, dateRange DateRange) (*dto.GetMetricResponse, error) {
	cacheKey := fmt.Sprintf("metric:%d:%s:%s", shop.ID, spec.Key, dateRange.Token)
	var cached dto.GetMetricResponse
	if hit, err := f.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	response, err := f.computeMetric(ctx, shop, spec, dateRange)
	if err != nil {
		return nil, err
	}

	if err := f.cache.Set(ctx, cacheKey, response, f.metricsTTL); err != nil {
		log.Printf("dashboard: failed to cache metric %s for shop %d: %v", spec.Key, shop.ID, err)
	}
	return response, nil
}

// computeMetric aggregates one metric across the range's windows
func (f *DashboardFlowImpl) computeMetric(ctx context.Context, shop *models.Shop, spec MetricSpec, dateRange DateRange) (*dto.GetMetricResponse, error) {
	windows := dateRange.Windows()

	points := make([]dto.MetricDataPointDTO, 0, len(windows))
	truncated := false
	for _, window := range windows {
		result, err := aggregateUnique(ctx,
			f.pageFetcher(shop, spec.Source, window),
			spec.Predicate,
			customerDedupKey,
			f.shopifyCfg.RecordCap,
		)
		if err != nil {
			return nil, err
		}
		points = append(points, dto.MetricDataPointDTO{
			Date:  window.Start.Format("2006-01-02"),
			Value: result.UniqueCount,
		})
		if result.Truncated {
			truncated = true
		}
	}

	growth := ComputeGrowth(float64(points[0].Value), float64(points[len(points)-1].Value))

	return &dto.GetMetricResponse{
		MetricKey: spec.Key,
		DateRange: string(dateRange.Token),
		Points:    points,
		Growth: dto.GrowthDTO{
			Percent: growth.Percent,
			Label:   growth.Label,
			Tone:    growth.Tone,
		},
		Truncated: truncated,
	}, nil
}

// pageFetcher builds the cursor-walk closure for one window of one source
func (f *DashboardFlowImpl) pageFetcher(shop *models.Shop, source services.QuerySource, window DateRange) pageFetchFunc {
	search := fmt.Sprintf("created_at:>='%s' AND created_at:<='%s'",
		window.Start.Format(time.RFC3339), window.End.Format(time.RFC3339))

	return func(ctx context.Context, cursor string) (*services.RecordPage, error) {
		return f.shopifyClient.QueryPage(ctx, shop, services.PageQuery{
			Source: source,
			Search: search,
			First:  f.shopifyCfg.PageSize,
			After:  cursor,
		})
	}
}

// metricErrorCode maps an aggregation error to a per-card error code
func metricErrorCode(err error) string {
	switch {
	case IsProtectedDataError(err):
		return "PROTECTED_DATA_ACCESS_DENIED"
	case IsRemoteQueryError(err):
		return "REMOTE_QUERY_FAILED"
	default:
		return "METRIC_FAILED"
	}
}
