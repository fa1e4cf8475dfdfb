package entities

type SessionConfig struct {
	Available   bool   `json:"available"`
	Start       string `json:"start"`
	End         string `json:"end"`
	MaxPatients int    `json:"max_patients"`
}

type AvailabilityResponse struct {
	DoctorID    int           `json:"doctor_id"`
	Date        string        `json:"date"`
	IsAvailable bool          `json:"is_available"`
	Morning     SessionConfig `json:"morning_session"`
	Afternoon   SessionConfig `json:"afternoon_session"`
	LeaveReason string        `json:"leave_reason,omitempty"`
	Notes       string        `json:"notes,omitempty"`
}

// BulkScheduleRequest creates or refreshes availability records over a date
// range in one admin action.
type BulkScheduleRequest struct {
	DoctorID     int           `json:"doctor_id"`
	StartDate    string        `json:"start_date"`
	EndDate      string        `json:"end_date"`
	WorkingStart string        `json:"working_start"`
	WorkingEnd   string        `json:"working_end"`
	BreakStart   string        `json:"break_start"`
	BreakEnd     string        `json:"break_end"`
	Morning      SessionConfig `json:"morning_session"`
	Afternoon    SessionConfig `json:"afternoon_session"`
	Notes        string        `json:"notes,omitempty"`
}

type ScheduleChangeSubmission struct {
	DoctorID       int    `json:"doctor_id"`
	Date           string `json:"date"`
	RequestedStart string `json:"requested_start"`
	RequestedEnd   string `json:"requested_end"`
	Reason         string `json:"reason"`
}
