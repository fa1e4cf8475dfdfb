package entities

import "time"

// RefundInfo carries the refund stamped on a cancelled appointment into the
// ledger and notification calls.
type RefundInfo struct {
	Amount     int
	Reason     string
	Method     string
	RefundedAt time.Time
}

// LeaveInfo is the slice of an approved leave request the patient-facing
// cancellation message needs.
type LeaveInfo struct {
	StartDate time.Time
	EndDate   time.Time
	Reason    string
}
