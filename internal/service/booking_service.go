package service

import (
	"fmt"
	"net/http"
	"time"

	"clinicbooking/internal/db"
	"clinicbooking/internal/entities"
	apperrors "clinicbooking/internal/errors"
	"clinicbooking/internal/repository"
	"clinicbooking/internal/utils"
)

// BookingService is the slot allocator plus the patient-facing operations
// built on it. Capacity safety lives in the repository's atomic allocation;
// this layer validates the day and session before handing off.
type BookingService struct {
	Appointments repository.AppointmentRepository
	Availability repository.AvailabilityRepository
	Lifecycle    *LifecycleService
	Notifier     Notifier

	loc    *time.Location
	cutoff time.Duration
	nowFn  func() time.Time
}

func NewBookingService(
	appts repository.AppointmentRepository,
	avail repository.AvailabilityRepository,
	lifecycle *LifecycleService,
	notifier Notifier,
	loc *time.Location,
	cutoff time.Duration,
) *BookingService {
	return &BookingService{
		Appointments: appts,
		Availability: avail,
		Lifecycle:    lifecycle,
		Notifier:     notifier,
		loc:          loc,
		cutoff:       cutoff,
		nowFn:        time.Now,
	}
}

// Book validates the target day and session, then reserves one slot through
// the store's atomic conditional insert. Two concurrent callers cannot both
// take the last seat of a session.
func (s *BookingService) Book(req entities.BookingRequest) (*entities.BookingResponse, error) {
	date, err := time.ParseInLocation(utils.DateLayout, req.BookingDate, s.loc)
	if err != nil {
		return nil, apperrors.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid booking date %q", req.BookingDate))
	}
	if err := utils.ValidateSlot(req.TimeSlot); err != nil {
		return nil, apperrors.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	av, err := s.Availability.GetOrCreate(req.DoctorID, date)
	if err != nil {
		return nil, err
	}
	sess, err := s.openSession(av, req.TimeSlot)
	if err != nil {
		return nil, err
	}

	result, err := s.Appointments.Allocate(&db.Appointment{
		PatientID:      req.PatientID,
		FamilyMemberID: req.FamilyMemberID,
		DoctorID:       req.DoctorID,
		Department:     req.Department,
		BookingDate:    utils.DateOnly(date),
		TimeSlot:       req.TimeSlot,
	}, sess)
	if err != nil {
		return nil, err
	}

	return &entities.BookingResponse{
		AppointmentID: result.AppointmentID,
		TokenNumber:   result.TokenNumber,
		QueuePosition: result.QueuePosition,
		Status:        string(db.StatusBooked),
		BookingDate:   req.BookingDate,
		TimeSlot:      req.TimeSlot,
	}, nil
}

// Reschedule moves an active appointment to a new date/slot under the same
// capacity rules, then notifies the patient with the old time.
func (s *BookingService) Reschedule(id int, req entities.RescheduleRequest) (*db.Appointment, error) {
	appt, err := s.Appointments.GetByID(id)
	if err != nil {
		return nil, err
	}
	if appt.Status.Terminal() {
		return nil, fmt.Errorf("appointment %d is already %s: %w", id, appt.Status, apperrors.ErrInvalidTransition)
	}
	if err := s.checkCutoff(appt); err != nil {
		return nil, err
	}

	newDate, err := time.ParseInLocation(utils.DateLayout, req.BookingDate, s.loc)
	if err != nil {
		return nil, apperrors.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid booking date %q", req.BookingDate))
	}
	if err := utils.ValidateSlot(req.TimeSlot); err != nil {
		return nil, apperrors.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	av, err := s.Availability.GetOrCreate(appt.DoctorID, newDate)
	if err != nil {
		return nil, err
	}
	sess, err := s.openSession(av, req.TimeSlot)
	if err != nil {
		return nil, err
	}

	moved, err := s.Appointments.MoveActive(id, newDate, req.TimeSlot, sess)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, fmt.Errorf("appointment %d left the active set: %w", id, apperrors.ErrInvalidTransition)
	}

	updated, err := s.Appointments.GetByID(id)
	if err != nil {
		return nil, err
	}
	if s.Notifier != nil {
		s.Notifier.SendReschedule(updated, appt.BookingDate, appt.TimeSlot)
	}
	return updated, nil
}

// CancelByPatient enforces the cancellation cutoff before delegating to the
// lifecycle engine.
func (s *BookingService) CancelByPatient(id int, reason string) (*db.Appointment, error) {
	appt, err := s.Appointments.GetByID(id)
	if err != nil {
		return nil, err
	}
	if appt.Status.Terminal() {
		return nil, fmt.Errorf("appointment %d is already %s: %w", id, appt.Status, apperrors.ErrInvalidTransition)
	}
	if err := s.checkCutoff(appt); err != nil {
		return nil, err
	}
	return s.Lifecycle.Cancel(id, db.StatusCancelled, reason, "patient")
}

// CancelByAdmin has no cutoff restriction.
func (s *BookingService) CancelByAdmin(id int, reason string) (*db.Appointment, error) {
	return s.Lifecycle.Cancel(id, db.StatusCancelledByHospital, reason, "admin")
}

func (s *BookingService) Get(id int) (*db.Appointment, error) {
	return s.Appointments.GetByID(id)
}

func (s *BookingService) ListByPatient(patientID int) ([]db.Appointment, error) {
	return s.Appointments.ListByPatient(patientID)
}

func (s *BookingService) ListForDoctorDate(doctorID int, date time.Time, statuses []db.Status) ([]db.Appointment, error) {
	return s.Appointments.ListForDoctorDate(doctorID, date, statuses)
}

func (s *BookingService) openSession(av *db.Availability, slot string) (db.SessionWindow, error) {
	if !av.IsAvailable {
		reason := av.LeaveReason
		if reason == "" {
			reason = "clinic closed"
		}
		return db.SessionWindow{}, fmt.Errorf("doctor %d on %s (%s): %w",
			av.DoctorID, av.Date.Format(utils.DateLayout), reason, apperrors.ErrDayUnavailable)
	}
	_, sess, err := utils.SessionFor(av, slot)
	if err != nil {
		return db.SessionWindow{}, fmt.Errorf("%v: %w", err, apperrors.ErrDayUnavailable)
	}
	if !sess.Available {
		return db.SessionWindow{}, fmt.Errorf("session owning slot %s is blocked for doctor %d on %s: %w",
			slot, av.DoctorID, av.Date.Format(utils.DateLayout), apperrors.ErrDayUnavailable)
	}
	return sess, nil
}

func (s *BookingService) checkCutoff(appt *db.Appointment) error {
	apptTime := utils.SlotOnDate(appt.BookingDate, appt.TimeSlot, s.loc)
	if apptTime.Sub(s.nowFn().In(s.loc)) <= s.cutoff {
		return fmt.Errorf("appointment at %s is inside the %s cutoff: %w",
			apptTime.Format("2006-01-02 15:04"), s.cutoff, apperrors.ErrCutoffViolation)
	}
	return nil
}
