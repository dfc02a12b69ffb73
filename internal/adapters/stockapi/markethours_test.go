package stockapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func utc(y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, time.UTC)
}

func TestIsMarketOpenBoundaries(t *testing.T) {
	// Monday 2026-01-05
	assert.True(t, IsMarketOpen(utc(2026, time.January, 5, 14, 30, 0)), "opening instant is open")
	assert.False(t, IsMarketOpen(utc(2026, time.January, 5, 14, 29, 59)), "one second before open is closed")
	assert.True(t, IsMarketOpen(utc(2026, time.January, 5, 21, 0, 0)), "closing instant is open")
	assert.False(t, IsMarketOpen(utc(2026, time.January, 5, 21, 0, 1)), "one second after close is closed")
	assert.True(t, IsMarketOpen(utc(2026, time.January, 5, 17, 45, 12)))
}

func TestIsMarketOpenWeekend(t *testing.T) {
	assert.False(t, IsMarketOpen(utc(2026, time.January, 3, 15, 0, 0)), "Saturday")
	assert.False(t, IsMarketOpen(utc(2026, time.January, 4, 15, 0, 0)), "Sunday")
}

func TestIsMarketOpenConvertsToUTC(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	// 10:00 EST Monday = 15:00 UTC, inside the window
	assert.True(t, IsMarketOpen(time.Date(2026, time.January, 5, 10, 0, 0, 0, est)))
	// 8:00 EST Monday = 13:00 UTC, before open
	assert.False(t, IsMarketOpen(time.Date(2026, time.January, 5, 8, 0, 0, 0, est)))
}

func TestNextOpenSkipsWeekend(t *testing.T) {
	// Friday 2026-01-02 at 22:00 UTC, after close
	next := NextOpen(utc(2026, time.January, 2, 22, 0, 0))
	assert.Equal(t, utc(2026, time.January, 5, 14, 30, 0), next, "Monday open")

	// Monday morning before open
	next = NextOpen(utc(2026, time.January, 5, 9, 0, 0))
	assert.Equal(t, utc(2026, time.January, 5, 14, 30, 0), next, "same-day open")
}
