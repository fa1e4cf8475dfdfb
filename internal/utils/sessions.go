package utils

import (
	"fmt"
	"time"

	"clinicbooking/internal/db"
)

const (
	SlotLayout = "15:04"
	DateLayout = "2006-01-02"

	// Fixed session end boundaries the sweeper anchors to.
	MorningEndBoundary   = "13:00"
	AfternoonEndBoundary = "18:00"

	DefaultMaxPatients = 20
)

// DefaultAvailability returns the schedule a doctor gets for a date nobody
// has configured yet: both sessions open at default capacity.
func DefaultAvailability(doctorID int, date time.Time) *db.Availability {
	return &db.Availability{
		DoctorID:     doctorID,
		Date:         DateOnly(date),
		IsAvailable:  true,
		WorkingHours: db.TimeWindow{Start: "09:00", End: "18:00"},
		BreakTime:    db.TimeWindow{Start: "13:00", End: "14:00"},
		Morning: db.SessionWindow{
			Available:   true,
			Start:       "09:00",
			End:         MorningEndBoundary,
			MaxPatients: DefaultMaxPatients,
		},
		Afternoon: db.SessionWindow{
			Available:   true,
			Start:       "14:00",
			End:         AfternoonEndBoundary,
			MaxPatients: DefaultMaxPatients,
		},
	}
}

// ValidateSlot checks that slot is a zero-padded HH:MM clock value.
// Zero-padded slots compare correctly as strings, which the session
// membership checks and the SQL ordering both rely on.
func ValidateSlot(slot string) error {
	t, err := time.Parse(SlotLayout, slot)
	if err != nil {
		return fmt.Errorf("invalid time slot %q: %w", slot, err)
	}
	if t.Format(SlotLayout) != slot {
		return fmt.Errorf("invalid time slot %q: must be zero-padded HH:MM", slot)
	}
	return nil
}

// SessionFor resolves which session of the availability record owns the
// given slot. A slot belongs to a session when start <= slot < end.
func SessionFor(av *db.Availability, slot string) (db.SessionName, db.SessionWindow, error) {
	if slot >= av.Morning.Start && slot < av.Morning.End {
		return db.SessionMorning, av.Morning, nil
	}
	if slot >= av.Afternoon.Start && slot < av.Afternoon.End {
		return db.SessionAfternoon, av.Afternoon, nil
	}
	return "", db.SessionWindow{}, fmt.Errorf("slot %s falls outside both sessions", slot)
}

// SessionOfSlot classifies a slot against the fixed sweep boundaries, for
// appointments whose availability record is not at hand. Anything before
// the morning end boundary counts as morning.
func SessionOfSlot(slot string) db.SessionName {
	if slot < MorningEndBoundary {
		return db.SessionMorning
	}
	return db.SessionAfternoon
}

// SessionEndBoundary returns the fixed end-of-session clock value used by
// the no-show sweep.
func SessionEndBoundary(name db.SessionName) string {
	if name == db.SessionMorning {
		return MorningEndBoundary
	}
	return AfternoonEndBoundary
}

// DateOnly truncates t to midnight, keeping its location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SlotOnDate combines a calendar date and an HH:MM slot into one instant in
// the clinic timezone.
func SlotOnDate(date time.Time, slot string, loc *time.Location) time.Time {
	t, err := time.Parse(SlotLayout, slot)
	if err != nil {
		return DateOnly(date).In(loc)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

// DatesInRange returns every calendar date from start through end inclusive.
func DatesInRange(start, end time.Time) []time.Time {
	var dates []time.Time
	for d := DateOnly(start); !d.After(DateOnly(end)); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}
