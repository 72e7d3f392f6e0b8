package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/storepulse/storepulse/app/services"
	"github.com/storepulse/storepulse/models"
	"github.com/storepulse/storepulse/utils"
)

// fakeShopRepo is an in-memory ShopRepository
type fakeShopRepo struct {
	shops map[uint]*models.Shop
}

func newFakeShopRepo(shops ...*models.Shop) *fakeShopRepo {
	repo := &fakeShopRepo{shops: make(map[uint]*models.Shop)}
	for _, shop := range shops {
		repo.shops[shop.ID] = shop
	}
	return repo
}

func activeTestShop(id uint) *models.Shop {
	return &models.Shop{
		ID:          id,
		UUID:        uuid.New(),
		Domain:      "test-shop.myshopify.com",
		Name:        "Test Shop",
		AccessToken: "shpat_test",
		IsActive:    utils.ToPtr(true),
		CreatedAt:   utils.UTCNow(),
		UpdatedAt:   utils.UTCNow(),
	}
}

func (r *fakeShopRepo) ByID(ctx context.Context, id uint) (*models.Shop, error) {
	return r.shops[id], nil
}

func (r *fakeShopRepo) ByFilter(ctx context.Context, filter models.ShopFilter, orderBy string, limit, offset int) ([]*models.Shop, error) {
	var out []*models.Shop
	for _, shop := range r.shops {
		out = append(out, shop)
	}
	return out, nil
}

func (r *fakeShopRepo) Save(ctx context.Context, shop *models.Shop) error {
	r.shops[shop.ID] = shop
	return nil
}

func (r *fakeShopRepo) SaveBatch(ctx context.Context, shops []*models.Shop) error {
	for _, shop := range shops {
		r.shops[shop.ID] = shop
	}
	return nil
}

func (r *fakeShopRepo) Count(ctx context.Context, filter models.ShopFilter) (int64, error) {
	return int64(len(r.shops)), nil
}

func (r *fakeShopRepo) Exists(ctx context.Context, filter models.ShopFilter) (bool, error) {
	return len(r.shops) > 0, nil
}

func (r *fakeShopRepo) ByDomain(ctx context.Context, domain string) (*models.Shop, error) {
	for _, shop := range r.shops {
		if shop.Domain == domain {
			return shop, nil
		}
	}
	return nil, nil
}

func (r *fakeShopRepo) ByUUID(ctx context.Context, uuidStr string) (*models.Shop, error) {
	for _, shop := range r.shops {
		if shop.UUID.String() == uuidStr {
			return shop, nil
		}
	}
	return nil, nil
}

func (r *fakeShopRepo) TouchLastSeen(ctx context.Context, shopID uint) error {
	return nil
}

// fakeSavedListRepo is an in-memory SavedListRepository
type fakeSavedListRepo struct {
	lists  map[uint]*models.SavedList
	nextID uint
}

func newFakeSavedListRepo() *fakeSavedListRepo {
	return &fakeSavedListRepo{lists: make(map[uint]*models.SavedList), nextID: 1}
}

func (r *fakeSavedListRepo) ByID(ctx context.Context, id uint) (*models.SavedList, error) {
	return r.lists[id], nil
}

func (r *fakeSavedListRepo) matches(list *models.SavedList, filter models.SavedListFilter) bool {
	if filter.ID != nil && list.ID != *filter.ID {
		return false
	}
	if filter.UUID != nil && list.UUID != *filter.UUID {
		return false
	}
	if filter.ShopID != nil && list.ShopID != *filter.ShopID {
		return false
	}
	if filter.Source != nil && list.Source != *filter.Source {
		return false
	}
	if filter.Status != nil && list.Status != *filter.Status {
		return false
	}
	return true
}

func (r *fakeSavedListRepo) ByFilter(ctx context.Context, filter models.SavedListFilter, orderBy string, limit, offset int) ([]*models.SavedList, error) {
	var out []*models.SavedList
	for _, list := range r.lists {
		if r.matches(list, filter) {
			out = append(out, list)
		}
	}
	if offset > 0 {
		if offset >= len(out) {
			return nil, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeSavedListRepo) Save(ctx context.Context, list *models.SavedList) error {
	if list.ID == 0 {
		list.ID = r.nextID
		r.nextID++
	}
	r.lists[list.ID] = list
	return nil
}

func (r *fakeSavedListRepo) SaveBatch(ctx context.Context, lists []*models.SavedList) error {
	for _, list := range lists {
		if err := r.Save(ctx, list); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeSavedListRepo) Count(ctx context.Context, filter models.SavedListFilter) (int64, error) {
	items, _ := r.ByFilter(ctx, filter, "", 0, 0)
	return int64(len(items)), nil
}

func (r *fakeSavedListRepo) Exists(ctx context.Context, filter models.SavedListFilter) (bool, error) {
	count, _ := r.Count(ctx, filter)
	return count > 0, nil
}

func (r *fakeSavedListRepo) ByUUID(ctx context.Context, shopID uint, uuidStr string) (*models.SavedList, error) {
	for _, list := range r.lists {
		if list.ShopID == shopID && list.UUID.String() == uuidStr {
			return list, nil
		}
	}
	return nil, nil
}

func (r *fakeSavedListRepo) ListByShop(ctx context.Context, shopID uint, status, source *string, limit, offset int) ([]*models.SavedList, error) {
	filter := models.SavedListFilter{ShopID: &shopID, Status: status, Source: source}
	return r.ByFilter(ctx, filter, "", limit, offset)
}

func (r *fakeSavedListRepo) Update(ctx context.Context, list *models.SavedList) error {
	stored, ok := r.lists[list.ID]
	if !ok {
		return errors.New("saved list not found")
	}
	if list.Name != "" {
		stored.Name = list.Name
	}
	if list.Description != nil {
		stored.Description = list.Description
	}
	if list.CustomerCount > 0 {
		stored.CustomerCount = list.CustomerCount
	}
	if list.Tags != nil {
		stored.Tags = list.Tags
	}
	stored.LastUpdated = utils.UTCNow()
	return nil
}

func (r *fakeSavedListRepo) UpdateStatus(ctx context.Context, listID uint, status string) error {
	stored, ok := r.lists[listID]
	if !ok {
		return errors.New("saved list not found")
	}
	stored.Status = status
	stored.LastUpdated = utils.UTCNow()
	return nil
}

func (r *fakeSavedListRepo) UpdateCustomerCount(ctx context.Context, listID uint, count int) error {
	stored, ok := r.lists[listID]
	if !ok {
		return errors.New("saved list not found")
	}
	stored.CustomerCount = count
	return nil
}

func (r *fakeSavedListRepo) Delete(ctx context.Context, listID uint) error {
	if _, ok := r.lists[listID]; !ok {
		return errors.New("saved list not found")
	}
	delete(r.lists, listID)
	return nil
}

// fakeAuditRepo records audit entries in memory
type fakeAuditRepo struct {
	entries []*models.AuditLog
}

func (r *fakeAuditRepo) ByID(ctx context.Context, id uint) (*models.AuditLog, error) {
	return nil, nil
}

func (r *fakeAuditRepo) ByFilter(ctx context.Context, filter models.AuditLogFilter, orderBy string, limit, offset int) ([]*models.AuditLog, error) {
	return r.entries, nil
}

func (r *fakeAuditRepo) Save(ctx context.Context, entry *models.AuditLog) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeAuditRepo) SaveBatch(ctx context.Context, entries []*models.AuditLog) error {
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *fakeAuditRepo) Count(ctx context.Context, filter models.AuditLogFilter) (int64, error) {
	return int64(len(r.entries)), nil
}

func (r *fakeAuditRepo) Exists(ctx context.Context, filter models.AuditLogFilter) (bool, error) {
	return len(r.entries) > 0, nil
}

func (r *fakeAuditRepo) ListByShop(ctx context.Context, shopID uint, limit, offset int) ([]*models.AuditLog, error) {
	return r.entries, nil
}

func (r *fakeAuditRepo) ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error) {
	var out []*models.AuditLog
	for _, entry := range r.entries {
		if entry.Action == action {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *fakeAuditRepo) ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error) {
	var out []*models.AuditLog
	for _, entry := range r.entries {
		if entry.IsFailed() {
			out = append(out, entry)
		}
	}
	return out, nil
}

// fakeSegmentClient counts calls and returns a configured result or error
type fakeSegmentClient struct {
	calls    int
	lastReq  services.SegmentMatchRequest
	result   *services.SegmentMatchResult
	matchErr error
}

func (c *fakeSegmentClient) MatchSegment(ctx context.Context, req services.SegmentMatchRequest) (*services.SegmentMatchResult, error) {
	c.calls++
	c.lastReq = req
	if c.matchErr != nil {
		return nil, c.matchErr
	}
	if c.result != nil {
		return c.result, nil
	}
	return &services.SegmentMatchResult{}, nil
}

// fakeWebhookClient returns a canned assistant reply
type fakeWebhookClient struct {
	calls   int
	lastReq services.ChatWebhookRequest
	reply   *services.ChatWebhookReply
	sendErr error
}

func (c *fakeWebhookClient) SendMessage(ctx context.Context, req services.ChatWebhookRequest) (*services.ChatWebhookReply, error) {
	c.calls++
	c.lastReq = req
	if c.sendErr != nil {
		return nil, c.sendErr
	}
	if c.reply != nil {
		return c.reply, nil
	}
	return &services.ChatWebhookReply{Reply: "ok"}, nil
}

// fakeChatSessionRepo is an in-memory ChatSessionRepository
type fakeChatSessionRepo struct {
	sessions map[uint]*models.ChatSession
	nextID   uint
}

func newFakeChatSessionRepo() *fakeChatSessionRepo {
	return &fakeChatSessionRepo{sessions: make(map[uint]*models.ChatSession), nextID: 1}
}

func (r *fakeChatSessionRepo) ByID(ctx context.Context, id uint) (*models.ChatSession, error) {
	return r.sessions[id], nil
}

func (r *fakeChatSessionRepo) ByFilter(ctx context.Context, filter models.ChatSessionFilter, orderBy string, limit, offset int) ([]*models.ChatSession, error) {
	var out []*models.ChatSession
	for _, session := range r.sessions {
		out = append(out, session)
	}
	return out, nil
}

func (r *fakeChatSessionRepo) Save(ctx context.Context, session *models.ChatSession) error {
	if session.ID == 0 {
		session.ID = r.nextID
		r.nextID++
	}
	r.sessions[session.ID] = session
	return nil
}

func (r *fakeChatSessionRepo) SaveBatch(ctx context.Context, sessions []*models.ChatSession) error {
	for _, session := range sessions {
		if err := r.Save(ctx, session); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeChatSessionRepo) Count(ctx context.Context, filter models.ChatSessionFilter) (int64, error) {
	return int64(len(r.sessions)), nil
}

func (r *fakeChatSessionRepo) Exists(ctx context.Context, filter models.ChatSessionFilter) (bool, error) {
	return len(r.sessions) > 0, nil
}

func (r *fakeChatSessionRepo) ByUUID(ctx context.Context, shopID uint, uuidStr string) (*models.ChatSession, error) {
	for _, session := range r.sessions {
		if session.ShopID == shopID && session.UUID.String() == uuidStr {
			return session, nil
		}
	}
	return nil, nil
}

func (r *fakeChatSessionRepo) ListByShop(ctx context.Context, shopID uint, limit, offset int) ([]*models.ChatSession, error) {
	var out []*models.ChatSession
	for _, session := range r.sessions {
		if session.ShopID == shopID {
			out = append(out, session)
		}
	}
	return out, nil
}

func (r *fakeChatSessionRepo) TouchLastMessage(ctx context.Context, sessionID uint) error {
	if session, ok := r.sessions[sessionID]; ok {
		session.LastMessageAt = utils.UTCNow()
	}
	return nil
}

// fakeChatMessageRepo is an in-memory ChatMessageRepository
type fakeChatMessageRepo struct {
	messages []*models.ChatMessage
	nextID   uint
}

func newFakeChatMessageRepo() *fakeChatMessageRepo {
	return &fakeChatMessageRepo{nextID: 1}
}

func (r *fakeChatMessageRepo) ByID(ctx context.Context, id uint) (*models.ChatMessage, error) {
	for _, message := range r.messages {
		if message.ID == id {
			return message, nil
		}
	}
	return nil, nil
}

func (r *fakeChatMessageRepo) ByFilter(ctx context.Context, filter models.ChatMessageFilter, orderBy string, limit, offset int) ([]*models.ChatMessage, error) {
	return r.messages, nil
}

func (r *fakeChatMessageRepo) Save(ctx context.Context, message *models.ChatMessage) error {
	if message.ID == 0 {
		message.ID = r.nextID
		r.nextID++
	}
	r.messages = append(r.messages, message)
	return nil
}

func (r *fakeChatMessageRepo) SaveBatch(ctx context.Context, messages []*models.ChatMessage) error {
	for _, message := range messages {
		if err := r.Save(ctx, message); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeChatMessageRepo) Count(ctx context.Context, filter models.ChatMessageFilter) (int64, error) {
	return int64(len(r.messages)), nil
}

func (r *fakeChatMessageRepo) Exists(ctx context.Context, filter models.ChatMessageFilter) (bool, error) {
	return len(r.messages) > 0, nil
}

func (r *fakeChatMessageRepo) ListBySession(ctx context.Context, sessionID uint, limit, offset int) ([]*models.ChatMessage, error) {
	var out []*models.ChatMessage
	for _, message := range r.messages {
		if message.SessionID == sessionID {
			out = append(out, message)
		}
	}
	return out, nil
}

// memoryCache is an InsightCache backed by a map, JSON round-tripped like Redis
type memoryCache struct {
	entries map[string][]byte
	sets    int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	c.sets++
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	delete(c.entries, key)
	return nil
}
