package scheduler

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"testing"

	"github.com/google/uuid"
	"github.com/storepulse/storepulse/app/services"
	"github.com/storepulse/storepulse/models"
	"github.com/storepulse/storepulse/repository"
	"github.com/storepulse/storepulse/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubShopRepo overrides only the lookups the scheduler uses
type stubShopRepo struct {
	repository.ShopRepository
	shops map[uint]*models.Shop
}

func (r *stubShopRepo) ByID(ctx context.Context, id uint) (*models.Shop, error) {
	return r.shops[id], nil
}

type stubSavedListRepo struct {
	repository.SavedListRepository
	lists        []*models.SavedList
	countUpdates map[uint]int
}

func (r *stubSavedListRepo) ByFilter(ctx context.Context, filter models.SavedListFilter, orderBy string, limit, offset int) ([]*models.SavedList, error) {
	return r.lists, nil
}

func (r *stubSavedListRepo) UpdateCustomerCount(ctx context.Context, listID uint, count int) error {
	if r.countUpdates == nil {
		r.countUpdates = make(map[uint]int)
	}
	r.countUpdates[listID] = count
	return nil
}

type stubSegmentClient struct {
	calls   int
	lastReq services.SegmentMatchRequest
	result  *services.SegmentMatchResult
	err     error
}

func (c *stubSegmentClient) MatchSegment(ctx context.Context, req services.SegmentMatchRequest) (*services.SegmentMatchResult, error) {
	c.calls++
	c.lastReq = req
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

func testScheduler(shop *models.Shop, lists *stubSavedListRepo, client *stubSegmentClient) *ListRefreshScheduler {
	shops := &stubShopRepo{shops: map[uint]*models.Shop{}}
	if shop != nil {
		shops.shops[shop.ID] = shop
	}
	return NewListRefreshScheduler(shops, lists, client, log.New(io.Discard, "", 0), 0)
}

func activeShop(id uint) *models.Shop {
	return &models.Shop{
		ID:       id,
		UUID:     uuid.New(),
		Domain:   "test-shop.myshopify.com",
		IsActive: utils.ToPtr(true),
	}
}

func filterList(shopID uint, count int) *models.SavedList {
	return &models.SavedList{
		ID:            1,
		UUID:          uuid.New(),
		ShopID:        shopID,
		Source:        models.SavedListSourceFilterAudience,
		Criteria:      json.RawMessage(`{"location":["us"]}`),
		CustomerCount: count,
		Status:        models.SavedListStatusActive,
	}
}

func TestRunOnceUpdatesDriftedCounts(t *testing.T) {
	shop := activeShop(1)
	lists := &stubSavedListRepo{lists: []*models.SavedList{filterList(shop.ID, 10)}}
	client := &stubSegmentClient{result: &services.SegmentMatchResult{MatchCount: 25}}

	testScheduler(shop, lists, client).runOnce(context.Background())

	assert.Equal(t, 1, client.calls)
	assert.Equal(t, map[string][]string{"location": {"us"}}, client.lastReq.Filters)
	assert.Equal(t, 25, lists.countUpdates[1])
}

func TestRunOnceSkipsUnchangedCounts(t *testing.T) {
	shop := activeShop(1)
	lists := &stubSavedListRepo{lists: []*models.SavedList{filterList(shop.ID, 25)}}
	client := &stubSegmentClient{result: &services.SegmentMatchResult{MatchCount: 25}}

	testScheduler(shop, lists, client).runOnce(context.Background())

	assert.Equal(t, 1, client.calls)
	assert.Empty(t, lists.countUpdates, "no write when the count is unchanged")
}

func TestRunOnceSkipsInactiveShops(t *testing.T) {
	shop := activeShop(1)
	shop.IsActive = utils.ToPtr(false)
	lists := &stubSavedListRepo{lists: []*models.SavedList{filterList(shop.ID, 10)}}
	client := &stubSegmentClient{result: &services.SegmentMatchResult{MatchCount: 25}}

	testScheduler(shop, lists, client).runOnce(context.Background())

	assert.Equal(t, 0, client.calls)
	assert.Empty(t, lists.countUpdates)
}

func TestRunOnceSkipsEmptyCriteria(t *testing.T) {
	shop := activeShop(1)
	list := filterList(shop.ID, 10)
	list.Criteria = nil
	lists := &stubSavedListRepo{lists: []*models.SavedList{list}}
	client := &stubSegmentClient{result: &services.SegmentMatchResult{MatchCount: 25}}

	testScheduler(shop, lists, client).runOnce(context.Background())

	assert.Equal(t, 0, client.calls)
}

func TestRefreshListPassesQueryForAISearchLists(t *testing.T) {
	shop := activeShop(1)
	list := filterList(shop.ID, 10)
	list.Source = models.SavedListSourceAISearch
	list.Criteria = json.RawMessage(`{"minOrders":3}`)
	lists := &stubSavedListRepo{lists: []*models.SavedList{list}}
	client := &stubSegmentClient{result: &services.SegmentMatchResult{MatchCount: 7}}

	scheduler := testScheduler(shop, lists, client)
	require.NoError(t, scheduler.refreshList(context.Background(), list))

	assert.JSONEq(t, `{"minOrders":3}`, string(client.lastReq.Query))
	assert.Empty(t, client.lastReq.Filters)
	assert.Equal(t, 7, lists.countUpdates[1])
}

func TestRunOnceContinuesPastFailures(t *testing.T) {
	shop := activeShop(1)
	good := filterList(shop.ID, 10)
	bad := filterList(shop.ID, 10)
	bad.ID = 2
	bad.Criteria = json.RawMessage(`not json`)
	lists := &stubSavedListRepo{lists: []*models.SavedList{bad, good}}
	client := &stubSegmentClient{result: &services.SegmentMatchResult{MatchCount: 25}}

	testScheduler(shop, lists, client).runOnce(context.Background())

	assert.Equal(t, 25, lists.countUpdates[good.ID], "a failing list must not stop the batch")
}
