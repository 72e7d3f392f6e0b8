package businessflow

import (
	"time"

	"github.com/storepulse/storepulse/utils"
)

// DateRangeToken is a named reporting window selected on the dashboard
type DateRangeToken string

const (
	RangeToday      DateRangeToken = "today"
	RangeYesterday  DateRangeToken = "yesterday"
	Range7Days      DateRangeToken = "7days"
	RangeLast7Days  DateRangeToken = "last7Days"
	Range30Days     DateRangeToken = "30days"
	RangeLast30Days DateRangeToken = "last30Days"
	Range90Days     DateRangeToken = "90days"
	RangeLast90Days DateRangeToken = "last90Days"
	RangeThisMonth  DateRangeToken = "thisMonth"
	RangeLastMonth  DateRangeToken = "lastMonth"
)

// DateRange is a resolved reporting window. Start is a start-of-day instant
// and End an end-of-day instant in the clock's location; Start never exceeds End.
type DateRange struct {
	Token DateRangeToken
	Start time.Time
	End   time.Time
}

// ResolveDateRange resolves a range token against the given clock.
// Unrecognized tokens fall back to the last-30-days window.
func ResolveDateRange(clock utils.Clock, token string) DateRange {
	now := clock.Now()
	today := utils.StartOfDay(now)

	switch DateRangeToken(token) {
	case RangeToday:
		return DateRange{Token: RangeToday, Start: today, End: utils.EndOfDay(now)}
	case RangeYesterday:
		yesterday := today.AddDate(0, 0, -1)
		return DateRange{Token: RangeYesterday, Start: yesterday, End: utils.EndOfDay(yesterday)}
	case Range7Days, RangeLast7Days:
		return lastNDays(RangeLast7Days, now, 7)
	case Range90Days, RangeLast90Days:
		return lastNDays(RangeLast90Days, now, 90)
	case RangeThisMonth:
		firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return DateRange{Token: RangeThisMonth, Start: firstOfMonth, End: utils.EndOfDay(now)}
	case RangeLastMonth:
		firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		firstOfLastMonth := firstOfMonth.AddDate(0, -1, 0)
		lastDayOfLastMonth := firstOfMonth.AddDate(0, 0, -1)
		return DateRange{Token: RangeLastMonth, Start: firstOfLastMonth, End: utils.EndOfDay(lastDayOfLastMonth)}
	case Range30Days, RangeLast30Days:
		return lastNDays(RangeLast30Days, now, 30)
	default:
		return lastNDays(RangeLast30Days, now, 30)
	}
}

func lastNDays(token DateRangeToken, now time.Time, days int) DateRange {
	start := utils.StartOfDay(now.AddDate(0, 0, -days))
	return DateRange{Token: token, Start: start, End: utils.EndOfDay(now)}
}

// Windows returns the aggregation windows backing the range's data points:
// one window (the whole day) for today, otherwise the range-start day followed
// by the full range.
func (r DateRange) Windows() []DateRange {
	if r.Token == RangeToday {
		return []DateRange{r}
	}

	firstDay := DateRange{
		Token: r.Token,
		Start: r.Start,
		End:   utils.EndOfDay(r.Start),
	}
	return []DateRange{firstDay, r}
}
