package businessflow

import (
	"context"

	"github.com/storepulse/storepulse/app/services"
)

// pageFetchFunc fetches one page of records for the cursor, empty for the first page
type pageFetchFunc func(ctx context.Context, cursor string) (*services.RecordPage, error)

// aggregateResult is the outcome of walking a record stream
type aggregateResult struct {
	UniqueCount int
	Records     []services.RemoteRecord
	Truncated   bool
}

// aggregateUnique walks a paginated record stream, keeps records matching the
// predicate, and counts unique dedup keys. Unique count is set cardinality,
// never a sum of page lengths, so a customer spanning pages counts once.
//
// The walk stops when the stream ends or recordCap records have been fetched;
// the result is marked truncated only when unfetched pages remain past the
// cap. Any fetch error aborts the whole aggregation with no partial result.
func aggregateUnique(
	ctx context.Context,
	fetch pageFetchFunc,
	predicate func(services.RemoteRecord) bool,
	dedupKey func(services.RemoteRecord) string,
	recordCap int,
) (*aggregateResult, error) {
	seen := make(map[string]struct{})
	result := &aggregateResult{}

	cursor := ""
	fetched := 0
	for {
		page, err := fetch(ctx, cursor)
		if err != nil {
			return nil, err
		}

		for _, record := range page.Records {
			if !predicate(record) {
				continue
			}
			key := dedupKey(record)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			result.Records = append(result.Records, record)
		}

		fetched += len(page.Records)
		if fetched >= recordCap {
			result.Truncated = page.HasNextPage
			break
		}
		if !page.HasNextPage {
			break
		}
		cursor = page.EndCursor
	}

	result.UniqueCount = len(seen)
	return result, nil
}

// customerDedupKey dedups records by their stable customer ID
func customerDedupKey(record services.RemoteRecord) string {
	return record.CustomerID
}
