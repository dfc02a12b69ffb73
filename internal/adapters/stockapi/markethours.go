package stockapi

import "time"

// US stock market hours in UTC (9:30 AM to 4:00 PM EST). Both bounds are
// inclusive: a trade at exactly 14:30:00 or 21:00:00 is in-hours.
const (
	marketOpenSecond  = (14*60 + 30) * 60
	marketCloseSecond = 21 * 60 * 60
)

// IsMarketOpen reports whether US market hours cover the given instant.
// Weekends are always closed; holidays are left to the venue's own
// market_open flag.
func IsMarketOpen(at time.Time) bool {
	utc := at.UTC()
	switch utc.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	sec := utc.Hour()*3600 + utc.Minute()*60 + utc.Second()
	return sec >= marketOpenSecond && sec <= marketCloseSecond
}

// NextOpen returns the next instant the market opens, for error messages.
func NextOpen(after time.Time) time.Time {
	utc := after.UTC()
	open := time.Date(utc.Year(), utc.Month(), utc.Day(), 14, 30, 0, 0, time.UTC)
	for !open.After(utc) || open.Weekday() == time.Saturday || open.Weekday() == time.Sunday {
		open = open.AddDate(0, 0, 1)
	}
	return open
}
