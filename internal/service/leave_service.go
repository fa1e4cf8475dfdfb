package service

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"clinicbooking/internal/db"
	"clinicbooking/internal/entities"
	apperrors "clinicbooking/internal/errors"
	"clinicbooking/internal/repository"
	"clinicbooking/internal/utils"
)

// LeaveService handles doctor leave requests and the approval cascade that
// blocks availability and bulk-cancels conflicting appointments.
type LeaveService struct {
	Leaves       repository.LeaveRepository
	Availability repository.AvailabilityRepository
	Appointments repository.AppointmentRepository
	Lifecycle    *LifecycleService

	loc *time.Location
}

func NewLeaveService(
	leaves repository.LeaveRepository,
	avail repository.AvailabilityRepository,
	appts repository.AppointmentRepository,
	lifecycle *LifecycleService,
	loc *time.Location,
) *LeaveService {
	return &LeaveService{
		Leaves:       leaves,
		Availability: avail,
		Appointments: appts,
		Lifecycle:    lifecycle,
		loc:          loc,
	}
}

func (s *LeaveService) Submit(sub entities.LeaveRequestSubmission) (*db.LeaveRequest, error) {
	start, err := time.ParseInLocation(utils.DateLayout, sub.StartDate, s.loc)
	if err != nil {
		return nil, apperrors.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid start date %q", sub.StartDate))
	}
	end, err := time.ParseInLocation(utils.DateLayout, sub.EndDate, s.loc)
	if err != nil {
		return nil, apperrors.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid end date %q", sub.EndDate))
	}
	if end.Before(start) {
		return nil, apperrors.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("end date %s is before start date %s", sub.EndDate, sub.StartDate))
	}

	leaveType := db.LeaveType(sub.LeaveType)
	session := db.SessionName(sub.Session)
	switch leaveType {
	case db.LeaveFullDay:
		session = ""
	case db.LeaveHalfDay:
		if session != db.SessionMorning && session != db.SessionAfternoon {
			return nil, apperrors.NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("half_day leave needs session morning or afternoon, got %q", sub.Session))
		}
	default:
		return nil, apperrors.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid leave type %q", sub.LeaveType))
	}

	req := &db.LeaveRequest{
		DoctorID:  sub.DoctorID,
		StartDate: utils.DateOnly(start),
		EndDate:   utils.DateOnly(end),
		LeaveType: leaveType,
		Session:   session,
		Reason:    sub.Reason,
	}
	if err := s.Leaves.Create(req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *LeaveService) ListByDoctor(doctorID int) ([]db.LeaveRequest, error) {
	return s.Leaves.ListByDoctor(doctorID)
}

func (s *LeaveService) ListPending() ([]db.LeaveRequest, error) {
	return s.Leaves.ListPending()
}

// Approve flips the request to approved (one-way; an already-decided
// request reports InvalidTransition), then cascades over every covered
// date: block the availability, cancel conflicting active appointments
// through the lifecycle engine, and accumulate the count. Appointments
// already in a terminal state are skipped, so replaying the cascade can
// never double-cancel or double-refund.
func (s *LeaveService) Approve(id int, adminComment string) (int, error) {
	req, err := s.Leaves.GetByID(id)
	if err != nil {
		return 0, err
	}

	ok, err := s.Leaves.Decide(id, db.LeaveApproved, adminComment)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("leave request %d is already %s: %w", id, req.Status, apperrors.ErrInvalidTransition)
	}

	leaveInfo := &entities.LeaveInfo{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Reason:    req.Reason,
	}
	reason := fmt.Sprintf("doctor on leave: %s", req.Reason)

	cancelled := 0
	for _, date := range utils.DatesInRange(req.StartDate, req.EndDate) {
		av, err := s.Availability.GetOrCreate(req.DoctorID, date)
		if err != nil {
			log.Printf("Leave cascade: failed to load availability for doctor %d on %s: %v",
				req.DoctorID, date.Format(utils.DateLayout), err)
			continue
		}
		if err := s.Availability.SetUnavailable(req.DoctorID, date, req.LeaveType, req.Session, req.Reason); err != nil {
			log.Printf("Leave cascade: failed to block doctor %d on %s: %v",
				req.DoctorID, date.Format(utils.DateLayout), err)
			continue
		}

		appts, err := s.Appointments.ListForDoctorDate(req.DoctorID, date,
			[]db.Status{db.StatusBooked, db.StatusInQueue})
		if err != nil {
			log.Printf("Leave cascade: failed to list appointments for doctor %d on %s: %v",
				req.DoctorID, date.Format(utils.DateLayout), err)
			continue
		}

		for _, appt := range appts {
			if req.LeaveType == db.LeaveHalfDay && !s.inBlockedSession(av, appt.TimeSlot, req.Session) {
				continue
			}
			if _, err := s.Lifecycle.CancelForLeave(appt.ID, reason, leaveInfo); err != nil {
				log.Printf("Leave cascade: failed to cancel appointment %d: %v", appt.ID, err)
				continue
			}
			cancelled++
		}
	}

	log.Printf("Leave cascade: request %d approved, %d appointments cancelled", id, cancelled)
	return cancelled, nil
}

// Reject is a pure status update with no cascading effect.
func (s *LeaveService) Reject(id int, adminComment string) error {
	ok, err := s.Leaves.Decide(id, db.LeaveRejected, adminComment)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("leave request %d is already decided: %w", id, apperrors.ErrInvalidTransition)
	}
	return nil
}

// inBlockedSession reports whether the slot falls inside the session a
// half-day leave blocks. Appointments in the still-open session stay
// untouched.
func (s *LeaveService) inBlockedSession(av *db.Availability, slot string, blocked db.SessionName) bool {
	name, _, err := utils.SessionFor(av, slot)
	if err != nil {
		// Slot outside both sessions; classify by the fixed boundary.
		name = utils.SessionOfSlot(slot)
	}
	return name == blocked
}
