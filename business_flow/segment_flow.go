package businessflow

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/storepulse/storepulse/app/dto"
	"github.com/storepulse/storepulse/app/services"
	"github.com/storepulse/storepulse/models"
	"github.com/storepulse/storepulse/repository"
	"github.com/storepulse/storepulse/utils"
)

// Filter category constants
const (
	FilterCategoryLocation = "location"
	FilterCategoryProducts = "products"
	FilterCategoryTiming   = "timing"
	FilterCategoryDevice   = "device"
	FilterCategoryPayment  = "payment"
	FilterCategoryDelivery = "delivery"
)

// filterCategoryOrder fixes the display and serialization order of categories
var filterCategoryOrder = []string{
	FilterCategoryLocation,
	FilterCategoryProducts,
	FilterCategoryTiming,
	FilterCategoryDevice,
	FilterCategoryPayment,
	FilterCategoryDelivery,
}

// SegmentFlow defines audience filter preview operations
type SegmentFlow interface {
	PreviewSegment(ctx context.Context, req *dto.PreviewSegmentRequest, metadata *ClientMetadata) (*dto.PreviewSegmentResponse, error)
	GetFilterOptions(ctx context.Context) (*dto.GetFilterOptionsResponse, error)
}

// SegmentFlowImpl implements SegmentFlow
type SegmentFlowImpl struct {
	shopRepo      repository.ShopRepository
	segmentClient services.SegmentClient
	cache         services.InsightCache
	auditRepo     repository.AuditLogRepository
	previewTTL    time.Duration
}

// NewSegmentFlow creates a new segment flow
func NewSegmentFlow(
	shopRepo repository.ShopRepository,
	segmentClient services.SegmentClient,
	cache services.InsightCache,
	auditRepo repository.AuditLogRepository,
	previewTTL time.Duration,
) SegmentFlow {
	return &SegmentFlowImpl{
		shopRepo:      shopRepo,
		segmentClient: segmentClient,
		cache:         cache,
		auditRepo:     auditRepo,
		previewTTL:    previewTTL,
	}
}

func (f *SegmentFlowImpl) PreviewSegment(ctx context.Context, req *dto.PreviewSegmentRequest, metadata *ClientMetadata) (*dto.PreviewSegmentResponse, error) {
	if req == nil {
		return nil, NewBusinessError("INVALID_REQUEST", "request is required", nil)
	}

	shop, err := loadActiveShop(ctx, f.shopRepo, req.ShopID)
	if err != nil {
		return nil, err
	}

	debounceMs := int(utils.SegmentPreviewDebounce / time.Millisecond)

	// An empty selection matches nobody and must not reach the collaborator.
	if isEmptySelection(req.Filters) {
		return &dto.PreviewSegmentResponse{
			MatchCount:  0,
			Description: "No filters selected",
			DebounceMs:  debounceMs,
		}, nil
	}

	cacheKey := fmt.Sprintf("preview:%d:%s", shop.ID, filterSelectionHash(req.Filters))
	var cached dto.PreviewSegmentResponse
	if hit, err := f.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		cached.Cached = true
		cached.DebounceMs = debounceMs
		return &cached, nil
	}

	result, err := f.segmentClient.MatchSegment(ctx, services.SegmentMatchRequest{
		ShopDomain: shop.Domain,
		Filters:    req.Filters,
	})
	if err != nil {
		f.auditPreview(ctx, shop.ID, metadata, false, err)
		return nil, err
	}
	f.auditPreview(ctx, shop.ID, metadata, true, nil)

	response := &dto.PreviewSegmentResponse{
		MatchCount:  result.MatchCount,
		Customers:   toSegmentCustomerDTOs(result.Customers),
		Description: DescribeFilterSelection(req.Filters),
		DebounceMs:  debounceMs,
	}

	if err := f.cache.Set(ctx, cacheKey, response, f.previewTTL); err != nil {
		log.Printf("segment: failed to cache preview for shop %d: %v", shop.ID, err)
	}
	return response, nil
}

func (f *SegmentFlowImpl) GetFilterOptions(ctx context.Context) (*dto.GetFilterOptionsResponse, error) {
	return &dto.GetFilterOptionsResponse{
		Categories: []dto.FilterCategoryDTO{
			{Category: FilterCategoryLocation, Label: "Location", Options: []dto.FilterOptionDTO{
				{Value: "us", Label: "United States"},
				{Value: "ca", Label: "Canada"},
				{Value: "uk", Label: "United Kingdom"},
				{Value: "eu", Label: "Europe"},
				{Value: "other", Label: "Other"},
			}},
			{Category: FilterCategoryProducts, Label: "Products", Options: []dto.FilterOptionDTO{
				{Value: "single_purchase", Label: "Bought once"},
				{Value: "repeat_purchase", Label: "Bought repeatedly"},
				{Value: "discounted", Label: "Bought on discount"},
				{Value: "wishlist", Label: "Has wishlist items"},
			}},
			{Category: FilterCategoryTiming, Label: "Timing", Options: []dto.FilterOptionDTO{
				{Value: "morning", Label: "Morning shoppers"},
				{Value: "afternoon", Label: "Afternoon shoppers"},
				{Value: "evening", Label: "Evening shoppers"},
				{Value: "weekend", Label: "Weekend shoppers"},
			}},
			{Category: FilterCategoryDevice, Label: "Device", Options: []dto.FilterOptionDTO{
				{Value: "mobile", Label: "Mobile"},
				{Value: "desktop", Label: "Desktop"},
			}},
			{Category: FilterCategoryPayment, Label: "Payment", Options: []dto.FilterOptionDTO{
				{Value: "credit_card", Label: "Credit card"},
				{Value: "paypal", Label: "PayPal"},
				{Value: "shop_pay", Label: "Shop Pay"},
				{Value: "gift_card", Label: "Gift card"},
			}},
			{Category: FilterCategoryDelivery, Label: "Delivery", Options: []dto.FilterOptionDTO{
				{Value: "standard", Label: "Standard shipping"},
				{Value: "express", Label: "Express shipping"},
				{Value: "pickup", Label: "Local pickup"},
			}},
		},
	}, nil
}

func (f *SegmentFlowImpl) auditPreview(ctx context.Context, shopID uint, metadata *ClientMetadata, success bool, cause error) {
	action := models.AuditActionSegmentPreviewed
	var errMessage *string
	if cause != nil {
		errMessage = utils.ToPtr(cause.Error())
		if IsProtectedDataError(cause) {
			action = models.AuditActionProtectedDataDenied
		}
	}
	recordAudit(ctx, f.auditRepo, shopID, action, metadata, success, errMessage, nil)
}

// isEmptySelection reports whether no option is selected in any category
func isEmptySelection(filters map[string][]string) bool {
	for _, values := range filters {
		if len(values) > 0 {
			return false
		}
	}
	return true
}

// filterSelectionHash produces a stable hash of a selection. Category order
// and option order within a category are irrelevant to identity.
func filterSelectionHash(filters map[string][]string) string {
	categories := make([]string, 0, len(filters))
	for category, values := range filters {
		if len(values) == 0 {
			continue
		}
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var builder strings.Builder
	for _, category := range categories {
		values := append([]string(nil), filters[category]...)
		sort.Strings(values)
		builder.WriteString(category)
		builder.WriteByte('=')
		builder.WriteString(strings.Join(values, ","))
		builder.WriteByte(';')
	}

	sum := sha256.Sum256([]byte(builder.String()))
	return fmt.Sprintf("%x", sum[:16])
}

// DescribeFilterSelection renders a human-readable summary of a selection
func DescribeFilterSelection(filters map[string][]string) string {
	parts := make([]string, 0, len(filters))
	for _, category := range filterCategoryOrder {
		values := filters[category]
		if len(values) == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", category, strings.Join(values, ", ")))
	}
	// Categories outside the known set still show up, after the known ones.
	known := make(map[string]bool, len(filterCategoryOrder))
	for _, category := range filterCategoryOrder {
		known[category] = true
	}
	extras := make([]string, 0)
	for category, values := range filters {
		if !known[category] && len(values) > 0 {
			extras = append(extras, fmt.Sprintf("%s: %s", category, strings.Join(values, ", ")))
		}
	}
	sort.Strings(extras)
	parts = append(parts, extras...)

	if len(parts) == 0 {
		return "No filters selected"
	}
	return "Customers matching " + strings.Join(parts, "; ")
}

// MarshalFilterSelection serializes a selection for persistence as criteria
func MarshalFilterSelection(filters map[string][]string) (json.RawMessage, error) {
	encoded, err := json.Marshal(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize filter selection: %w", err)
	}
	return encoded, nil
}

// toSegmentCustomerDTOs converts collaborator customers to response DTOs
func toSegmentCustomerDTOs(customers []services.SegmentCustomer) []dto.SegmentCustomerDTO {
	if len(customers) == 0 {
		return nil
	}
	out := make([]dto.SegmentCustomerDTO, 0, len(customers))
	for _, c := range customers {
		out = append(out, dto.SegmentCustomerDTO{
			ID:           c.ID,
			Name:         c.Name,
			Email:        c.Email,
			Country:      c.Country,
			CreatedDate:  c.CreatedDate,
			LastPurchase: c.LastPurchase,
			Orders:       c.Orders,
			TotalSpent:   c.TotalSpent,
		})
	}
	return out
}
