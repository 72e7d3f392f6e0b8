package businessflow

import (
	"context"
	"errors"
	"testing"

	"github.com/storepulse/storepulse/app/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedFetcher serves canned pages keyed by cursor, recording each fetch
func pagedFetcher(pages map[string]*services.RecordPage) (pageFetchFunc, *int) {
	fetches := 0
	return func(ctx context.Context, cursor string) (*services.RecordPage, error) {
		fetches++
		page, ok := pages[cursor]
		if !ok {
			return nil, errors.New("unexpected cursor: " + cursor)
		}
		return page, nil
	}, &fetches
}

func records(ids ...string) []services.RemoteRecord {
	out := make([]services.RemoteRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, services.RemoteRecord{CustomerID: id})
	}
	return out
}

func acceptAll(services.RemoteRecord) bool { return true }

func TestAggregateUniqueDeduplicatesAcrossPages(t *testing.T) {
	fetch, fetches := pagedFetcher(map[string]*services.RecordPage{
		"":   {Records: records("A", "B"), HasNextPage: true, EndCursor: "p2"},
		"p2": {Records: records("B", "C")},
	})

	result, err := aggregateUnique(context.Background(), fetch, acceptAll, customerDedupKey, 1000)
	require.NoError(t, err)

	// B appears on both pages but counts once
	assert.Equal(t, 3, result.UniqueCount)
	assert.Len(t, result.Records, 3)
	assert.False(t, result.Truncated)
	assert.Equal(t, 2, *fetches)
}

func TestAggregateUniquePredicateFilters(t *testing.T) {
	fetch, _ := pagedFetcher(map[string]*services.RecordPage{
		"": {Records: []services.RemoteRecord{
			{CustomerID: "A", OrdersCount: 1},
			{CustomerID: "B", OrdersCount: 5},
			{CustomerID: "C", OrdersCount: 2},
		}},
	})

	repeat := func(r services.RemoteRecord) bool { return r.OrdersCount > 1 }
	result, err := aggregateUnique(context.Background(), fetch, repeat, customerDedupKey, 1000)
	require.NoError(t, err)

	assert.Equal(t, 2, result.UniqueCount)
}

func TestAggregateUniqueStopsAtRecordCap(t *testing.T) {
	fetch, fetches := pagedFetcher(map[string]*services.RecordPage{
		"":   {Records: records("A", "B"), HasNextPage: true, EndCursor: "p2"},
		"p2": {Records: records("C", "D"), HasNextPage: true, EndCursor: "p3"},
		"p3": {Records: records("E", "F"), HasNextPage: true, EndCursor: "p4"},
	})

	result, err := aggregateUnique(context.Background(), fetch, acceptAll, customerDedupKey, 4)
	require.NoError(t, err)

	assert.Equal(t, 4, result.UniqueCount)
	assert.True(t, result.Truncated)
	assert.Equal(t, 2, *fetches, "must not fetch past the cap")
}

func TestAggregateUniqueCapWithoutMorePagesIsNotTruncated(t *testing.T) {
	// Exactly cap records and the stream ends: nothing was cut off
	fetch, _ := pagedFetcher(map[string]*services.RecordPage{
		"":   {Records: records("A", "B"), HasNextPage: true, EndCursor: "p2"},
		"p2": {Records: records("C", "D")},
	})

	result, err := aggregateUnique(context.Background(), fetch, acceptAll, customerDedupKey, 4)
	require.NoError(t, err)

	assert.Equal(t, 4, result.UniqueCount)
	assert.False(t, result.Truncated)
}

func TestAggregateUniqueOvershootingFinalPageIsNotTruncated(t *testing.T) {
	// The last page pushes past the cap but the stream ends with it, so every
	// record was still processed
	fetch, _ := pagedFetcher(map[string]*services.RecordPage{
		"":   {Records: records("A", "B"), HasNextPage: true, EndCursor: "p2"},
		"p2": {Records: records("C", "D")},
	})

	result, err := aggregateUnique(context.Background(), fetch, acceptAll, customerDedupKey, 3)
	require.NoError(t, err)

	assert.Equal(t, 4, result.UniqueCount)
	assert.False(t, result.Truncated)
}

func TestAggregateUniqueAbortsOnFetchError(t *testing.T) {
	boom := errors.New("store unavailable")
	calls := 0
	fetch := func(ctx context.Context, cursor string) (*services.RecordPage, error) {
		calls++
		if cursor == "" {
			return &services.RecordPage{Records: records("A"), HasNextPage: true, EndCursor: "p2"}, nil
		}
		return nil, boom
	}

	result, err := aggregateUnique(context.Background(), fetch, acceptAll, customerDedupKey, 1000)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, result, "no partial result on failure")
	assert.Equal(t, 2, calls)
}
