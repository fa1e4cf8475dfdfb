package service

import (
	"fmt"
	"log"
	"time"

	"clinicbooking/internal/db"
	"clinicbooking/internal/entities"
	apperrors "clinicbooking/internal/errors"
	"clinicbooking/internal/repository"
)

const refundMethodOriginal = "original_payment_method"

// LifecycleService owns appointment status transitions. Every component
// that cancels an appointment (patient/admin actions, the sweeper, the
// leave cascade) goes through here, so the refund coupling and the
// terminal-state guard are enforced in exactly one place.
type LifecycleService struct {
	Appointments repository.AppointmentRepository
	Ledger       RefundLedger
	Notifier     Notifier

	nowFn func() time.Time
}

func NewLifecycleService(appts repository.AppointmentRepository, ledger RefundLedger, notifier Notifier) *LifecycleService {
	return &LifecycleService{
		Appointments: appts,
		Ledger:       ledger,
		Notifier:     notifier,
		nowFn:        time.Now,
	}
}

// CheckIn moves a booked appointment into the waiting queue.
func (s *LifecycleService) CheckIn(id int) error {
	ok, err := s.Appointments.TransitionActive(id, db.StatusInQueue)
	if err != nil {
		return err
	}
	if !ok {
		return s.inactiveError(id)
	}
	return nil
}

// MarkConsulted closes out an appointment after the doctor has seen the
// patient. Allowed from either active state at any time.
func (s *LifecycleService) MarkConsulted(id int) error {
	ok, err := s.Appointments.TransitionActive(id, db.StatusConsulted)
	if err != nil {
		return err
	}
	if !ok {
		return s.inactiveError(id)
	}
	return nil
}

// Cancel applies a terminal status with cancellation metadata. For
// cancellation states the refund coupling runs inside the same persisted
// update: a paid appointment comes back refunded with amount, reason,
// method and timestamp stamped. The committed transition is authoritative;
// the ledger and the notifier run after it and cannot revert it.
func (s *LifecycleService) Cancel(id int, to db.Status, reason, actor string) (*db.Appointment, error) {
	return s.cancel(id, to, reason, actor, nil)
}

// CancelForLeave is the leave-cascade variant: always cancelled_by_hospital,
// and the patient gets the leave-specific notification.
func (s *LifecycleService) CancelForLeave(id int, reason string, leave *entities.LeaveInfo) (*db.Appointment, error) {
	return s.cancel(id, db.StatusCancelledByHospital, reason, "hospital", leave)
}

func (s *LifecycleService) cancel(id int, to db.Status, reason, actor string, leave *entities.LeaveInfo) (*db.Appointment, error) {
	if !to.Terminal() || to == db.StatusConsulted {
		return nil, fmt.Errorf("status %q is not a cancellation target: %w", to, apperrors.ErrInvalidTransition)
	}

	appt, err := s.Appointments.GetByID(id)
	if err != nil {
		return nil, err
	}
	if appt.Status.Terminal() {
		return nil, fmt.Errorf("appointment %d is already %s: %w", id, appt.Status, apperrors.ErrInvalidTransition)
	}

	updated, err := s.Appointments.CancelActive(id, to, reason, actor, refundMethodOriginal, appt.Fee, s.nowFn())
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// Lost a race with another transition since the read above.
		return nil, fmt.Errorf("appointment %d left the active set: %w", id, apperrors.ErrInvalidTransition)
	}

	var refundInfo *entities.RefundInfo
	if appt.PaymentStatus == db.PaymentPaid && updated.PaymentStatus == db.PaymentRefunded && updated.RefundAmount != nil {
		refundInfo = &entities.RefundInfo{
			Amount:     *updated.RefundAmount,
			Reason:     updated.RefundReason,
			Method:     updated.RefundMethod,
			RefundedAt: *updated.RefundedAt,
		}
		if err := s.Ledger.Record(updated, refundInfo.Amount, refundInfo.Reason); err != nil {
			log.Printf("ALERT: refund ledger failed for appointment %d (transition stands): %v", id, err)
		}
	}

	if s.Notifier != nil {
		if leave != nil {
			s.Notifier.SendLeaveCancellation(updated, leave)
		} else {
			s.Notifier.SendCancellation(updated, refundInfo)
		}
	}
	return updated, nil
}

func (s *LifecycleService) inactiveError(id int) error {
	appt, err := s.Appointments.GetByID(id)
	if err != nil {
		return err
	}
	return fmt.Errorf("appointment %d is %s: %w", id, appt.Status, apperrors.ErrInvalidTransition)
}
