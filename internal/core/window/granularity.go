package window

import (
	"time"

	ptime "zaplens/internal/platform/time"
)

// Granularity is the bucket size of a period series
type Granularity string

// Bucket sizes
const (
	Hour  Granularity = "hour"
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
)

const day = 24 * time.Hour

// GranularityFor picks the bucket size from a window span
func GranularityFor(span time.Duration) Granularity {
	switch {
	case span <= 2*day:
		return Hour
	case span <= 31*day:
		return Day
	case span <= 90*day:
		return Week
	default:
		return Month
	}
}

// Truncate returns the start of the bucket holding t. Weeks start on Monday
func (g Granularity) Truncate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	switch g {
	case Hour:
		return ptime.StartOfHour(t, loc)
	case Day:
		return ptime.StartOfDay(t, loc)
	case Week:
		return ptime.StartOfWeek(t, loc)
	default:
		return ptime.StartOfMonth(t, loc)
	}
}

// Label formats a bucket start for display
func (g Granularity) Label(start time.Time) string {
	switch g {
	case Hour:
		return start.Format("2006-01-02 15:00")
	case Day, Week:
		return start.Format("2006-01-02")
	default:
		return start.Format("2006-01")
	}
}
