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

// ScheduleService covers the admin schedule surfaces: bulk availability
// creation, day blocking, and the persisted doctor schedule change
// requests that replace ad-hoc in-memory state.
type ScheduleService struct {
	Availability repository.AvailabilityRepository
	Changes      repository.ScheduleChangeRepository

	loc *time.Location
}

func NewScheduleService(avail repository.AvailabilityRepository, changes repository.ScheduleChangeRepository, loc *time.Location) *ScheduleService {
	return &ScheduleService{Availability: avail, Changes: changes, loc: loc}
}

// BulkCreate writes availability records for every date in the range.
// Returns how many days were written.
func (s *ScheduleService) BulkCreate(req entities.BulkScheduleRequest) (int, error) {
	start, err := time.ParseInLocation(utils.DateLayout, req.StartDate, s.loc)
	if err != nil {
		return 0, apperrors.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid start date %q", req.StartDate))
	}
	end, err := time.ParseInLocation(utils.DateLayout, req.EndDate, s.loc)
	if err != nil {
		return 0, apperrors.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid end date %q", req.EndDate))
	}
	if end.Before(start) {
		return 0, apperrors.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("end date %s is before start date %s", req.EndDate, req.StartDate))
	}
	for _, slot := range []string{req.WorkingStart, req.WorkingEnd, req.Morning.Start, req.Morning.End, req.Afternoon.Start, req.Afternoon.End} {
		if err := utils.ValidateSlot(slot); err != nil {
			return 0, apperrors.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	written := 0
	for _, date := range utils.DatesInRange(start, end) {
		av := &db.Availability{
			DoctorID:     req.DoctorID,
			Date:         date,
			IsAvailable:  true,
			WorkingHours: db.TimeWindow{Start: req.WorkingStart, End: req.WorkingEnd},
			BreakTime:    db.TimeWindow{Start: req.BreakStart, End: req.BreakEnd},
			Morning: db.SessionWindow{
				Available:   req.Morning.Available,
				Start:       req.Morning.Start,
				End:         req.Morning.End,
				MaxPatients: req.Morning.MaxPatients,
			},
			Afternoon: db.SessionWindow{
				Available:   req.Afternoon.Available,
				Start:       req.Afternoon.Start,
				End:         req.Afternoon.End,
				MaxPatients: req.Afternoon.MaxPatients,
			},
			Notes: req.Notes,
		}
		if err := s.Availability.Upsert(av); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func (s *ScheduleService) SetUnavailable(doctorID int, dateStr string, scope db.LeaveType, session db.SessionName, reason string) error {
	date, err := time.ParseInLocation(utils.DateLayout, dateStr, s.loc)
	if err != nil {
		return apperrors.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid date %q", dateStr))
	}
	if _, err := s.Availability.GetOrCreate(doctorID, date); err != nil {
		return err
	}
	return s.Availability.SetUnavailable(doctorID, date, scope, session, reason)
}

func (s *ScheduleService) ListForDoctor(doctorID int, fromStr, toStr string) ([]db.Availability, error) {
	from, err := time.ParseInLocation(utils.DateLayout, fromStr, s.loc)
	if err != nil {
		return nil, apperrors.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid from date %q", fromStr))
	}
	to, err := time.ParseInLocation(utils.DateLayout, toStr, s.loc)
	if err != nil {
		return nil, apperrors.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid to date %q", toStr))
	}
	return s.Availability.ListForDoctor(doctorID, from, to)
}

func (s *ScheduleService) SubmitChange(sub entities.ScheduleChangeSubmission) (*db.ScheduleChangeRequest, error) {
	date, err := time.ParseInLocation(utils.DateLayout, sub.Date, s.loc)
	if err != nil {
		return nil, apperrors.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid date %q", sub.Date))
	}
	if err := utils.ValidateSlot(sub.RequestedStart); err != nil {
		return nil, apperrors.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := utils.ValidateSlot(sub.RequestedEnd); err != nil {
		return nil, apperrors.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if sub.RequestedEnd <= sub.RequestedStart {
		return nil, apperrors.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("requested end %s must be after start %s", sub.RequestedEnd, sub.RequestedStart))
	}

	req := &db.ScheduleChangeRequest{
		DoctorID:       sub.DoctorID,
		Date:           utils.DateOnly(date),
		RequestedStart: sub.RequestedStart,
		RequestedEnd:   sub.RequestedEnd,
		Reason:         sub.Reason,
	}
	if err := s.Changes.Create(req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *ScheduleService) ListChanges(doctorID int) ([]db.ScheduleChangeRequest, error) {
	return s.Changes.ListByDoctor(doctorID)
}

// ApproveChange applies the requested working window to the availability
// record and marks the request approved. One-way like leave approval.
func (s *ScheduleService) ApproveChange(id int, adminComment string) error {
	req, err := s.Changes.GetByID(id)
	if err != nil {
		return err
	}
	ok, err := s.Changes.Decide(id, "approved", adminComment)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("schedule change request %d is already decided: %w", id, apperrors.ErrInvalidTransition)
	}
	if _, err := s.Availability.GetOrCreate(req.DoctorID, req.Date); err != nil {
		return err
	}
	return s.Availability.UpdateWorkingHours(req.DoctorID, req.Date, req.RequestedStart, req.RequestedEnd)
}

func (s *ScheduleService) RejectChange(id int, adminComment string) error {
	ok, err := s.Changes.Decide(id, "rejected", adminComment)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("schedule change request %d is already decided: %w", id, apperrors.ErrInvalidTransition)
	}
	return nil
}
