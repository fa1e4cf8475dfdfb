package utils

import (
	"testing"
	"time"

	"clinicbooking/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSlot(t *testing.T) {
	assert.NoError(t, ValidateSlot("09:30"))
	assert.NoError(t, ValidateSlot("00:00"))
	assert.NoError(t, ValidateSlot("23:59"))

	assert.Error(t, ValidateSlot("9:30"))
	assert.Error(t, ValidateSlot("09:5"))
	assert.Error(t, ValidateSlot("24:00"))
	assert.Error(t, ValidateSlot("09:30:00"))
	assert.Error(t, ValidateSlot("morning"))
}

func TestSessionForBoundaries(t *testing.T) {
	av := DefaultAvailability(1, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))

	name, sess, err := SessionFor(av, "09:00")
	require.NoError(t, err)
	assert.Equal(t, db.SessionMorning, name)
	assert.Equal(t, av.Morning, sess)

	// Session end is exclusive: 12:59 is morning, 13:00 is not.
	name, _, err = SessionFor(av, "12:59")
	require.NoError(t, err)
	assert.Equal(t, db.SessionMorning, name)
	_, _, err = SessionFor(av, "13:00")
	assert.Error(t, err)

	// Break time belongs to neither session.
	_, _, err = SessionFor(av, "13:30")
	assert.Error(t, err)

	name, _, err = SessionFor(av, "14:00")
	require.NoError(t, err)
	assert.Equal(t, db.SessionAfternoon, name)

	_, _, err = SessionFor(av, "18:00")
	assert.Error(t, err)
	_, _, err = SessionFor(av, "08:59")
	assert.Error(t, err)
}

func TestSessionOfSlot(t *testing.T) {
	assert.Equal(t, db.SessionMorning, SessionOfSlot("09:30"))
	assert.Equal(t, db.SessionMorning, SessionOfSlot("12:59"))
	assert.Equal(t, db.SessionAfternoon, SessionOfSlot("13:00"))
	assert.Equal(t, db.SessionAfternoon, SessionOfSlot("17:45"))
}

func TestSessionEndBoundary(t *testing.T) {
	assert.Equal(t, MorningEndBoundary, SessionEndBoundary(db.SessionMorning))
	assert.Equal(t, AfternoonEndBoundary, SessionEndBoundary(db.SessionAfternoon))
}

func TestDateOnlyKeepsLocation(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	ts := time.Date(2026, 3, 10, 17, 45, 30, 999, loc)
	day := DateOnly(ts)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, loc), day)
	assert.Equal(t, loc, day.Location())
}

func TestSlotOnDate(t *testing.T) {
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	at := SlotOnDate(date, "09:30", time.UTC)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC), at)

	// A malformed slot degrades to midnight rather than failing.
	at = SlotOnDate(date, "bad", time.UTC)
	assert.Equal(t, date, at)
}

func TestDatesInRange(t *testing.T) {
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)

	dates := DatesInRange(start, end)
	require.Len(t, dates, 3)
	assert.Equal(t, start, dates[0])
	assert.Equal(t, end, dates[2])

	single := DatesInRange(start, start)
	require.Len(t, single, 1)

	assert.Empty(t, DatesInRange(end, start))
}
