// Package scheduler contains background workers that run on a fixed interval
package scheduler

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/storepulse/storepulse/app/services"
	"github.com/storepulse/storepulse/models"
	"github.com/storepulse/storepulse/repository"
)

// refreshBatchSize caps how many lists are refreshed per tick
const refreshBatchSize = 100

// ListRefreshScheduler periodically re-derives the stored match count of
// active saved lists. Membership drifts as the store's customers change, so
// the count shown in list overviews would otherwise go stale until a
// merchant opens the list.
type ListRefreshScheduler struct {
	shopRepo      repository.ShopRepository
	savedListRepo repository.SavedListRepository
	segmentClient services.SegmentClient
	logger        *log.Logger
	interval      time.Duration
}

// NewListRefreshScheduler creates a new list refresh scheduler
func NewListRefreshScheduler(
	shopRepo repository.ShopRepository,
	savedListRepo repository.SavedListRepository,
	segmentClient services.SegmentClient,
	logger *log.Logger,
	interval time.Duration,
) *ListRefreshScheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &ListRefreshScheduler{
		shopRepo:      shopRepo,
		savedListRepo: savedListRepo,
		segmentClient: segmentClient,
		logger:        logger,
		interval:      interval,
	}
}

// Start launches the refresh loop. The returned function stops it.
func (s *ListRefreshScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	s.logger.Printf("List refresh scheduler started (interval=%s)", s.interval)
	return cancel
}

// runOnce refreshes one batch of active lists, oldest refresh first
func (s *ListRefreshScheduler) runOnce(ctx context.Context) {
	status := models.SavedListStatusActive
	lists, err := s.savedListRepo.ByFilter(ctx, models.SavedListFilter{Status: &status}, "last_updated ASC", refreshBatchSize, 0)
	if err != nil {
		s.logger.Printf("List refresh: failed to load active lists: %v", err)
		return
	}

	refreshed := 0
	for _, list := range lists {
		if ctx.Err() != nil {
			return
		}
		if err := s.refreshList(ctx, list); err != nil {
			s.logger.Printf("List refresh: list %s failed: %v", list.UUID, err)
			continue
		}
		refreshed++
	}

	if refreshed > 0 {
		s.logger.Printf("List refresh: refreshed %d of %d lists", refreshed, len(lists))
	}
}

func (s *ListRefreshScheduler) refreshList(ctx context.Context, list *models.SavedList) error {
	if len(list.Criteria) == 0 {
		return nil
	}

	shop, err := s.shopRepo.ByID(ctx, list.ShopID)
	if err != nil {
		return err
	}
	if shop == nil || shop.IsActive == nil || !*shop.IsActive {
		return nil
	}

	matchReq := services.SegmentMatchRequest{ShopDomain: shop.Domain}
	switch list.Source {
	case models.SavedListSourceFilterAudience:
		var filters map[string][]string
		if err := json.Unmarshal(list.Criteria, &filters); err != nil {
			return err
		}
		if len(filters) == 0 {
			return nil
		}
		matchReq.Filters = filters
	default:
		matchReq.Query = list.Criteria
	}

	result, err := s.segmentClient.MatchSegment(ctx, matchReq)
	if err != nil {
		return err
	}

	if result.MatchCount == list.CustomerCount {
		return nil
	}
	return s.savedListRepo.UpdateCustomerCount(ctx, list.ID, result.MatchCount)
}
