package db

import "time"

// Status is the lifecycle state of an appointment. booked and in_queue are
// the only non-terminal states; every other state is final.
type Status string

const (
	StatusBooked              Status = "booked"
	StatusInQueue             Status = "in_queue"
	StatusConsulted           Status = "consulted"
	StatusCancelled           Status = "cancelled"
	StatusCancelledByHospital Status = "cancelled_by_hospital"
	StatusMissed              Status = "missed"
)

func (s Status) Active() bool {
	return s == StatusBooked || s == StatusInQueue
}

func (s Status) Terminal() bool {
	switch s {
	case StatusConsulted, StatusCancelled, StatusCancelledByHospital, StatusMissed:
		return true
	}
	return false
}

// Cancellation reports whether entering this state triggers the refund
// coupling. A missed appointment is a no-show, not a cancellation.
func (s Status) Cancellation() bool {
	return s == StatusCancelled || s == StatusCancelledByHospital
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type SessionName string

const (
	SessionMorning   SessionName = "morning"
	SessionAfternoon SessionName = "afternoon"
)

type LeaveType string

const (
	LeaveFullDay LeaveType = "full_day"
	LeaveHalfDay LeaveType = "half_day"
)

type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveApproved LeaveStatus = "approved"
	LeaveRejected LeaveStatus = "rejected"
)

type TimeWindow struct {
	Start string
	End   string
}

// SessionWindow describes one half-day session of a doctor's working day.
type SessionWindow struct {
	Available   bool
	Start       string
	End         string
	MaxPatients int
}

// Availability is the per-doctor, per-date schedule record. One record
// governs all appointments for that (doctor, date).
type Availability struct {
	ID           int
	DoctorID     int
	Date         time.Time
	IsAvailable  bool
	WorkingHours TimeWindow
	BreakTime    TimeWindow
	Morning      SessionWindow
	Afternoon    SessionWindow
	LeaveReason  string
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Appointment is a booking token. Rows are never deleted; cancellation is a
// status change so history stays queryable.
type Appointment struct {
	ID                 int
	PatientID          int
	FamilyMemberID     *int
	DoctorID           int
	Department         string
	BookingDate        time.Time
	TimeSlot           string
	TokenNumber        int
	Status             Status
	PaymentStatus      PaymentStatus
	Fee                int
	PaymentRef         string
	RefundAmount       *int
	RefundReason       string
	RefundMethod       string
	RefundedAt         *time.Time
	CancellationReason string
	CancelledBy        string
	CancelledAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type LeaveRequest struct {
	ID           int
	DoctorID     int
	StartDate    time.Time
	EndDate      time.Time
	LeaveType    LeaveType
	Session      SessionName
	Reason       string
	Status       LeaveStatus
	AdminComment string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ScheduleChangeRequest is a doctor-submitted request to change the working
// window of one day, held until an admin approves or rejects it.
type ScheduleChangeRequest struct {
	ID             int
	DoctorID       int
	Date           time.Time
	RequestedStart string
	RequestedEnd   string
	Reason         string
	Status         string
	AdminComment   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
