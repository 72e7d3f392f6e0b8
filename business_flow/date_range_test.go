package businessflow

import (
	"testing"
	"time"

	"github.com/storepulse/storepulse/utils"
	"github.com/stretchr/testify/assert"
)

func fixedClock() utils.FixedClock {
	// A Wednesday mid-month, mid-afternoon
	return utils.FixedClock{Instant: time.Date(2025, time.March, 12, 15, 30, 0, 0, time.UTC)}
}

func TestResolveDateRangeTokens(t *testing.T) {
	clock := fixedClock()

	tests := []struct {
		token     string
		wantToken DateRangeToken
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			token:     "today",
			wantToken: RangeToday,
			wantStart: time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC),
			wantEnd:   utils.EndOfDay(clock.Instant),
		},
		{
			token:     "yesterday",
			wantToken: RangeYesterday,
			wantStart: time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC),
			wantEnd:   utils.EndOfDay(time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)),
		},
		{
			token:     "7days",
			wantToken: RangeLast7Days,
			wantStart: time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
			wantEnd:   utils.EndOfDay(clock.Instant),
		},
		{
			token:     "last7Days",
			wantToken: RangeLast7Days,
			wantStart: time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
			wantEnd:   utils.EndOfDay(clock.Instant),
		},
		{
			token:     "30days",
			wantToken: RangeLast30Days,
			wantStart: time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC),
			wantEnd:   utils.EndOfDay(clock.Instant),
		},
		{
			token:     "90days",
			wantToken: RangeLast90Days,
			wantStart: time.Date(2024, time.December, 12, 0, 0, 0, 0, time.UTC),
			wantEnd:   utils.EndOfDay(clock.Instant),
		},
		{
			token:     "thisMonth",
			wantToken: RangeThisMonth,
			wantStart: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   utils.EndOfDay(clock.Instant),
		},
		{
			token:     "lastMonth",
			wantToken: RangeLastMonth,
			wantStart: time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   utils.EndOfDay(time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			r := ResolveDateRange(clock, tt.token)
			assert.Equal(t, tt.wantToken, r.Token)
			assert.Equal(t, tt.wantStart, r.Start)
			assert.Equal(t, tt.wantEnd, r.End)
			assert.False(t, r.Start.After(r.End))
		})
	}
}

func TestResolveDateRangeUnknownTokenFallsBack(t *testing.T) {
	clock := fixedClock()

	for _, token := range []string{"", "lifetime", "fortnight"} {
		r := ResolveDateRange(clock, token)
		assert.Equal(t, RangeLast30Days, r.Token, "token %q", token)
		assert.Equal(t, time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC), r.Start)
	}
}

func TestDateRangeWindows(t *testing.T) {
	clock := fixedClock()

	// Today produces a single whole-day window
	today := ResolveDateRange(clock, "today")
	windows := today.Windows()
	assert.Len(t, windows, 1)
	assert.Equal(t, today.Start, windows[0].Start)
	assert.Equal(t, today.End, windows[0].End)

	// Multi-day ranges produce the range-start day plus the full range
	month := ResolveDateRange(clock, "30days")
	windows = month.Windows()
	assert.Len(t, windows, 2)
	assert.Equal(t, month.Start, windows[0].Start)
	assert.Equal(t, utils.EndOfDay(month.Start), windows[0].End)
	assert.Equal(t, month.Start, windows[1].Start)
	assert.Equal(t, month.End, windows[1].End)
}
