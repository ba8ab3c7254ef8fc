package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eastern(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

func TestSameDayWithinCalendarDay(t *testing.T) {
	loc := eastern(t)
	c := NewFake(time.Date(2025, 3, 10, 12, 0, 0, 0, loc), loc)

	morning := time.Date(2025, 3, 10, 0, 1, 0, 0, loc)
	night := time.Date(2025, 3, 10, 23, 59, 0, 0, loc)
	assert.True(t, SameDay(c, morning, night))

	nextMorning := time.Date(2025, 3, 11, 0, 1, 0, 0, loc)
	assert.False(t, SameDay(c, night, nextMorning))
}

func TestSameDayUsesReferenceZoneNotInputZone(t *testing.T) {
	loc := eastern(t)
	c := NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, loc), loc)

	// 03:00 UTC June 2 is 23:00 June 1 in New York.
	utcLate := time.Date(2025, 6, 2, 3, 0, 0, 0, time.UTC)
	localEvening := time.Date(2025, 6, 1, 20, 0, 0, 0, loc)
	assert.True(t, SameDay(c, utcLate, localEvening))
}

func TestNextResetIsLocalMidnight(t *testing.T) {
	loc := eastern(t)
	c := NewFake(time.Date(2025, 3, 10, 12, 0, 0, 0, loc), loc)

	reset := NextReset(c, c.Now())
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, loc), reset)
	assert.Equal(t, 12*time.Hour, reset.Sub(c.Now()))
}

func TestNextResetAcrossSpringForward(t *testing.T) {
	loc := eastern(t)
	// March 8 2025, the night before the 23-hour DST day.
	c := NewFake(time.Date(2025, 3, 8, 22, 0, 0, 0, loc), loc)

	reset := NextReset(c, c.Now())
	assert.Equal(t, 2025, reset.Year())
	assert.Equal(t, time.March, reset.Month())
	assert.Equal(t, 9, reset.Day())
	assert.Equal(t, 0, reset.Hour())
}

func TestFakeAdvanceAndSet(t *testing.T) {
	loc := eastern(t)
	start := time.Date(2025, 3, 10, 12, 0, 0, 0, loc)
	c := NewFake(start, loc)

	c.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), c.Now())

	c.Set(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, loc, c.Now().Location())
}
