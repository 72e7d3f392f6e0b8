package businessflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/storepulse/storepulse/app/dto"
	"github.com/storepulse/storepulse/app/services"
	"github.com/storepulse/storepulse/models"
	"github.com/storepulse/storepulse/repository"
	"github.com/storepulse/storepulse/utils"
)

// SavedListFlow defines saved audience list lifecycle operations
type SavedListFlow interface {
	CreateSavedList(ctx context.Context, req *dto.CreateSavedListRequest, metadata *ClientMetadata) (*dto.SavedListDTO, error)
	ListSavedLists(ctx context.Context, req *dto.ListSavedListsRequest) (*dto.ListSavedListsResponse, error)
	GetSavedList(ctx context.Context, shopID uint, listUUID string) (*dto.GetSavedListResponse, error)
	UpdateSavedList(ctx context.Context, req *dto.UpdateSavedListRequest, metadata *ClientMetadata) (*dto.SavedListDTO, error)
	ArchiveSavedList(ctx context.Context, shopID uint, listUUID string, metadata *ClientMetadata) error
	UnarchiveSavedList(ctx context.Context, shopID uint, listUUID string, metadata *ClientMetadata) error
	DeleteSavedList(ctx context.Context, shopID uint, listUUID string, metadata *ClientMetadata) error
}

// SavedListFlowImpl implements SavedListFlow
type SavedListFlowImpl struct {
	shopRepo      repository.ShopRepository
	savedListRepo repository.SavedListRepository
	segmentClient services.SegmentClient
	auditRepo     repository.AuditLogRepository
}

// NewSavedListFlow creates a new saved list flow
func NewSavedListFlow(
	shopRepo repository.ShopRepository,
	savedListRepo repository.SavedListRepository,
	segmentClient services.SegmentClient,
	auditRepo repository.AuditLogRepository,
) SavedListFlow {
	return &SavedListFlowImpl{
		shopRepo:      shopRepo,
		savedListRepo: savedListRepo,
		segmentClient: segmentClient,
		auditRepo:     auditRepo,
	}
}

func (f *SavedListFlowImpl) CreateSavedList(ctx context.Context, req *dto.CreateSavedListRequest, metadata *ClientMetadata) (*dto.SavedListDTO, error) {
	if req == nil {
		return nil, NewBusinessError("INVALID_REQUEST", "request is required", nil)
	}
	if req.Name == "" {
		return nil, ErrSavedListNameRequired
	}

	shop, err := loadActiveShop(ctx, f.shopRepo, req.ShopID)
	if err != nil {
		return nil, err
	}

	// Match count observed at save time; membership drifts with the store
	// afterwards and is re-derived on every view.
	result, err := querySavedListMembership(ctx, f.segmentClient, shop, req.Source, req.Criteria)
	if err != nil {
		return nil, err
	}

	row := models.SavedList{
		UUID:          uuid.New(),
		ShopID:        shop.ID,
		Name:          req.Name,
		Description:   req.Description,
		CustomerCount: result.MatchCount,
		Source:        req.Source,
		Criteria:      req.Criteria,
		CriteriaText:  req.CriteriaText,
		Tags:          req.Tags,
		Status:        models.SavedListStatusActive,
		CreatedAt:     utils.UTCNow(),
		LastUpdated:   utils.UTCNow(),
	}
	if row.Tags == nil {
		row.Tags = []string{}
	}

	if err := f.savedListRepo.Save(ctx, &row); err != nil {
		return nil, err
	}

	recordAudit(ctx, f.auditRepo, shop.ID, models.AuditActionSavedListCreated, metadata, true, nil, map[string]any{
		"list_uuid": row.UUID.String(),
		"source":    row.Source,
	})

	return toSavedListDTO(&row), nil
}

func (f *SavedListFlowImpl) ListSavedLists(ctx context.Context, req *dto.ListSavedListsRequest) (*dto.ListSavedListsResponse, error) {
	if req == nil {
		return nil, NewBusinessError("INVALID_REQUEST", "request is required", nil)
	}

	shop, err := loadActiveShop(ctx, f.shopRepo, req.ShopID)
	if err != nil {
		return nil, err
	}

	page := req.Page
	if page == 0 {
		page = 1
	}
	if page < 1 {
		return nil, ErrInvalidPage
	}
	pageSize := req.PageSize
	if pageSize == 0 {
		pageSize = 20
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, ErrInvalidPageSize
	}

	offset := (page - 1) * pageSize
	rows, err := f.savedListRepo.ListByShop(ctx, shop.ID, req.Status, req.Source, pageSize, offset)
	if err != nil {
		return nil, err
	}

	total, err := f.savedListRepo.Count(ctx, models.SavedListFilter{
		ShopID: &shop.ID,
		Status: req.Status,
		Source: req.Source,
	})
	if err != nil {
		return nil, err
	}

	items := make([]dto.SavedListDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, *toSavedListDTO(row))
	}

	return &dto.ListSavedListsResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (f *SavedListFlowImpl) GetSavedList(ctx context.Context, shopID uint, listUUID string) (*dto.GetSavedListResponse, error) {
	shop, list, err := f.loadShopAndList(ctx, shopID, listUUID)
	if err != nil {
		return nil, err
	}

	result, err := querySavedListMembership(ctx, f.segmentClient, shop, list.Source, list.Criteria)
	if err != nil {
		return nil, err
	}

	listDTO := toSavedListDTO(list)
	listDTO.CustomerCount = result.MatchCount

	return &dto.GetSavedListResponse{
		List:      *listDTO,
		Customers: toSegmentCustomerDTOs(result.Customers),
	}, nil
}

func (f *SavedListFlowImpl) UpdateSavedList(ctx context.Context, req *dto.UpdateSavedListRequest, metadata *ClientMetadata) (*dto.SavedListDTO, error) {
	if req == nil {
		return nil, NewBusinessError("INVALID_REQUEST", "request is required", nil)
	}
	if req.Name == nil && req.Description == nil && req.Tags == nil {
		return nil, ErrSavedListUpdateRequired
	}

	_, list, err := f.loadShopAndList(ctx, req.ShopID, req.UUID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		list.Name = *req.Name
	}
	if req.Description != nil {
		list.Description = req.Description
	}
	if req.Tags != nil {
		list.Tags = req.Tags
	}

	if err := f.savedListRepo.Update(ctx, list); err != nil {
		return nil, err
	}

	recordAudit(ctx, f.auditRepo, list.ShopID, models.AuditActionSavedListUpdated, metadata, true, nil, map[string]any{
		"list_uuid": list.UUID.String(),
	})

	list.LastUpdated = utils.UTCNow()
	return toSavedListDTO(list), nil
}

func (f *SavedListFlowImpl) ArchiveSavedList(ctx context.Context, shopID uint, listUUID string, metadata *ClientMetadata) error {
	_, list, err := f.loadShopAndList(ctx, shopID, listUUID)
	if err != nil {
		return err
	}
	if list.IsArchived() {
		return ErrSavedListAlreadyArchived
	}

	if err := f.savedListRepo.UpdateStatus(ctx, list.ID, models.SavedListStatusArchived); err != nil {
		return err
	}

	recordAudit(ctx, f.auditRepo, list.ShopID, models.AuditActionSavedListArchived, metadata, true, nil, map[string]any{
		"list_uuid": list.UUID.String(),
	})
	return nil
}

func (f *SavedListFlowImpl) UnarchiveSavedList(ctx context.Context, shopID uint, listUUID string, metadata *ClientMetadata) error {
	_, list, err := f.loadShopAndList(ctx, shopID, listUUID)
	if err != nil {
		return err
	}
	if !list.IsArchived() {
		return ErrSavedListNotArchived
	}

	if err := f.savedListRepo.UpdateStatus(ctx, list.ID, models.SavedListStatusActive); err != nil {
		return err
	}

	recordAudit(ctx, f.auditRepo, list.ShopID, models.AuditActionSavedListUnarchived, metadata, true, nil, map[string]any{
		"list_uuid": list.UUID.String(),
	})
	return nil
}

func (f *SavedListFlowImpl) DeleteSavedList(ctx context.Context, shopID uint, listUUID string, metadata *ClientMetadata) error {
	_, list, err := f.loadShopAndList(ctx, shopID, listUUID)
	if err != nil {
		return err
	}

	// Deletion is terminal from either status.
	if err := f.savedListRepo.Delete(ctx, list.ID); err != nil {
		return err
	}

	recordAudit(ctx, f.auditRepo, list.ShopID, models.AuditActionSavedListDeleted, metadata, true, nil, map[string]any{
		"list_uuid": list.UUID.String(),
	})
	return nil
}

// loadShopAndList resolves the shop and a shop-scoped list by UUID
func (f *SavedListFlowImpl) loadShopAndList(ctx context.Context, shopID uint, listUUID string) (*models.Shop, *models.SavedList, error) {
	shop, err := loadActiveShop(ctx, f.shopRepo, shopID)
	if err != nil {
		return nil, nil, err
	}

	list, err := f.savedListRepo.ByUUID(ctx, shop.ID, listUUID)
	if err != nil {
		return nil, nil, err
	}
	if list == nil {
		return nil, nil, ErrSavedListNotFound
	}
	return shop, list, nil
}

// querySavedListMembership re-derives a list's membership from its criteria.
// Filter-audience criteria carry the filter selection; ai-search criteria
// carry the structured query the assistant extracted.
func querySavedListMembership(ctx context.Context, segmentClient services.SegmentClient, shop *models.Shop, source string, criteria json.RawMessage) (*services.SegmentMatchResult, error) {
	matchReq := services.SegmentMatchRequest{ShopDomain: shop.Domain}

	switch source {
	case models.SavedListSourceFilterAudience:
		var filters map[string][]string
		if err := json.Unmarshal(criteria, &filters); err != nil {
			return nil, NewBusinessError("INVALID_CRITERIA", "saved list criteria is not a filter selection", err)
		}
		if isEmptySelection(filters) {
			return &services.SegmentMatchResult{}, nil
		}
		matchReq.Filters = filters
	default:
		if len(criteria) == 0 {
			return &services.SegmentMatchResult{}, nil
		}
		matchReq.Query = criteria
	}

	return segmentClient.MatchSegment(ctx, matchReq)
}

// toSavedListDTO converts a saved list row to its response shape
func toSavedListDTO(row *models.SavedList) *dto.SavedListDTO {
	return &dto.SavedListDTO{
		UUID:          row.UUID.String(),
		Name:          row.Name,
		Description:   row.Description,
		CustomerCount: row.CustomerCount,
		Source:        row.Source,
		Criteria:      row.Criteria,
		CriteriaText:  row.CriteriaText,
		Tags:          row.Tags,
		Status:        row.Status,
		CreatedAt:     row.CreatedAt.Format(time.RFC3339),
		LastUpdated:   row.LastUpdated.Format(time.RFC3339),
	}
}
