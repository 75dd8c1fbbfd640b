package services

import "time"

// clock hands out UTC timestamps at millisecond precision, the finest
// resolution every backend round-trips unchanged.
type clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

func (c clock) now() time.Time {
	return c().UTC().Truncate(time.Millisecond)
}

// after returns a timestamp strictly later than prev.
func (c clock) after(prev time.Time) time.Time {
	now := c.now()
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}
