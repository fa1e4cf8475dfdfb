package service

import (
	"time"

	"clinicbooking/internal/db"
	"clinicbooking/internal/entities"
)

// Notifier delivers patient-facing messages about appointment changes.
// Implementations are fire-and-forget: they must not block the caller and
// must swallow (log) their own delivery failures. A state transition is
// never reverted because a message could not be sent.
type Notifier interface {
	SendCancellation(appt *db.Appointment, refund *entities.RefundInfo)
	SendReschedule(appt *db.Appointment, oldDate time.Time, oldSlot string)
	SendLeaveCancellation(appt *db.Appointment, leave *entities.LeaveInfo)
}

// RefundLedger records refunds with the payment provider. It is called
// synchronously as part of a cancellation transition, after the transition
// is persisted and before the notifier runs; its errors are logged and
// never undo the transition.
type RefundLedger interface {
	Record(appt *db.Appointment, amount int, reason string) error
}
