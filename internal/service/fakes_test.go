package service

import (
	"fmt"
	"sync"
	"time"

	"clinicbooking/internal/db"
	"clinicbooking/internal/entities"
	apperrors "clinicbooking/internal/errors"
	"clinicbooking/internal/repository"
	"clinicbooking/internal/utils"
)

// fakeAppointmentStore is an in-memory AppointmentRepository (and
// JobRepository) whose Allocate performs the count-check-and-insert under
// one mutex, modelling the store-side serialization of the real thing.
type fakeAppointmentStore struct {
	mu         sync.Mutex
	nextID     int
	seq        int
	appts      map[int]*db.Appointment
	failCancel map[int]bool
}

func newFakeAppointmentStore() *fakeAppointmentStore {
	return &fakeAppointmentStore{
		appts:      make(map[int]*db.Appointment),
		failCancel: make(map[int]bool),
	}
}

func (f *fakeAppointmentStore) Allocate(appt *db.Appointment, sess db.SessionWindow) (*repository.AllocationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	date := utils.DateOnly(appt.BookingDate)
	active := 0
	maxToken := 0
	for _, a := range f.appts {
		if a.DoctorID != appt.DoctorID || !a.BookingDate.Equal(date) {
			continue
		}
		if a.TokenNumber > maxToken {
			maxToken = a.TokenNumber
		}
		if a.Status.Active() && a.TimeSlot >= sess.Start && a.TimeSlot < sess.End {
			active++
		}
	}
	if active >= sess.MaxPatients {
		return nil, fmt.Errorf("session full: %w", apperrors.ErrCapacityExceeded)
	}

	f.nextID++
	f.seq++
	stored := *appt
	stored.ID = f.nextID
	stored.BookingDate = date
	stored.TokenNumber = maxToken + 1
	stored.Status = db.StatusBooked
	stored.PaymentStatus = db.PaymentPending
	stored.CreatedAt = time.Unix(0, int64(f.seq)) // strictly increasing tie-break
	f.appts[stored.ID] = &stored

	pos := 0
	for _, a := range f.appts {
		if a.ID == stored.ID || a.DoctorID != appt.DoctorID || !a.BookingDate.Equal(date) || !a.Status.Active() {
			continue
		}
		if a.TimeSlot < stored.TimeSlot || (a.TimeSlot == stored.TimeSlot && a.CreatedAt.Before(stored.CreatedAt)) {
			pos++
		}
	}

	return &repository.AllocationResult{
		AppointmentID: stored.ID,
		TokenNumber:   stored.TokenNumber,
		QueuePosition: pos,
		CreatedAt:     stored.CreatedAt,
	}, nil
}

func (f *fakeAppointmentStore) GetByID(id int) (*db.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return nil, fmt.Errorf("appointment %d: %w", id, apperrors.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAppointmentStore) ListByPatient(patientID int) ([]db.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Appointment
	for _, a := range f.appts {
		if a.PatientID == patientID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAppointmentStore) ListForDoctorDate(doctorID int, date time.Time, statuses []db.Status) ([]db.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	date = utils.DateOnly(date)
	var out []db.Appointment
	for _, a := range f.appts {
		if a.DoctorID != doctorID || !a.BookingDate.Equal(date) {
			continue
		}
		if len(statuses) > 0 {
			match := false
			for _, s := range statuses {
				if a.Status == s {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeAppointmentStore) MoveActive(id int, newDate time.Time, newSlot string, sess db.SessionWindow) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return false, fmt.Errorf("appointment %d: %w", id, apperrors.ErrNotFound)
	}
	if !a.Status.Active() {
		return false, nil
	}
	date := utils.DateOnly(newDate)
	active := 0
	maxToken := 0
	for _, other := range f.appts {
		if other.ID == id || other.DoctorID != a.DoctorID || !other.BookingDate.Equal(date) {
			continue
		}
		if other.TokenNumber > maxToken {
			maxToken = other.TokenNumber
		}
		if other.Status.Active() && other.TimeSlot >= sess.Start && other.TimeSlot < sess.End {
			active++
		}
	}
	if active >= sess.MaxPatients {
		return false, fmt.Errorf("session full: %w", apperrors.ErrCapacityExceeded)
	}
	a.BookingDate = date
	a.TimeSlot = newSlot
	a.TokenNumber = maxToken + 1
	return true, nil
}

func (f *fakeAppointmentStore) TransitionActive(id int, to db.Status) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok || !a.Status.Active() {
		return false, nil
	}
	a.Status = to
	return true, nil
}

func (f *fakeAppointmentStore) CancelActive(id int, to db.Status, reason, actor, refundMethod string, refundAmount int, at time.Time) (*db.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCancel[id] {
		return nil, fmt.Errorf("simulated store failure for appointment %d", id)
	}
	a, ok := f.appts[id]
	if !ok || !a.Status.Active() {
		return nil, nil
	}
	a.Status = to
	a.CancellationReason = reason
	a.CancelledBy = actor
	cancelledAt := at
	a.CancelledAt = &cancelledAt
	if to.Cancellation() && a.PaymentStatus == db.PaymentPaid {
		amount := refundAmount
		a.RefundAmount = &amount
		a.RefundReason = reason
		a.RefundMethod = refundMethod
		refundedAt := at
		a.RefundedAt = &refundedAt
		a.PaymentStatus = db.PaymentRefunded
	}
	cp := *a
	return &cp, nil
}

// JobRepository over the same data.
func (f *fakeAppointmentStore) ListActiveOn(date time.Time) ([]db.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	date = utils.DateOnly(date)
	var out []db.Appointment
	for _, a := range f.appts {
		if a.Status.Active() && a.BookingDate.Equal(date) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAppointmentStore) ListActiveBefore(date time.Time) ([]db.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	date = utils.DateOnly(date)
	var out []db.Appointment
	for _, a := range f.appts {
		if a.Status.Active() && a.BookingDate.Before(date) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAppointmentStore) setPaid(id, fee int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appts[id].PaymentStatus = db.PaymentPaid
	f.appts[id].Fee = fee
}

type fakeAvailabilityStore struct {
	mu   sync.Mutex
	recs map[string]*db.Availability
}

func newFakeAvailabilityStore() *fakeAvailabilityStore {
	return &fakeAvailabilityStore{recs: make(map[string]*db.Availability)}
}

func availKey(doctorID int, date time.Time) string {
	return fmt.Sprintf("%d|%s", doctorID, utils.DateOnly(date).Format(utils.DateLayout))
}

func (f *fakeAvailabilityStore) GetOrCreate(doctorID int, date time.Time) (*db.Availability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := availKey(doctorID, date)
	if av, ok := f.recs[key]; ok {
		cp := *av
		return &cp, nil
	}
	av := utils.DefaultAvailability(doctorID, date)
	f.recs[key] = av
	cp := *av
	return &cp, nil
}

func (f *fakeAvailabilityStore) Get(doctorID int, date time.Time) (*db.Availability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	av, ok := f.recs[availKey(doctorID, date)]
	if !ok {
		return nil, fmt.Errorf("availability: %w", apperrors.ErrNotFound)
	}
	cp := *av
	return &cp, nil
}

func (f *fakeAvailabilityStore) SetUnavailable(doctorID int, date time.Time, scope db.LeaveType, session db.SessionName, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	av, ok := f.recs[availKey(doctorID, date)]
	if !ok {
		return fmt.Errorf("availability: %w", apperrors.ErrNotFound)
	}
	av.LeaveReason = reason
	switch {
	case scope == db.LeaveFullDay:
		av.IsAvailable = false
		av.Morning.Available = false
		av.Afternoon.Available = false
	case session == db.SessionMorning:
		av.Morning.Available = false
	default:
		av.Afternoon.Available = false
	}
	return nil
}

func (f *fakeAvailabilityStore) Upsert(av *db.Availability) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *av
	cp.Date = utils.DateOnly(av.Date)
	f.recs[availKey(av.DoctorID, av.Date)] = &cp
	return nil
}

func (f *fakeAvailabilityStore) UpdateWorkingHours(doctorID int, date time.Time, start, end string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	av, ok := f.recs[availKey(doctorID, date)]
	if !ok {
		return fmt.Errorf("availability: %w", apperrors.ErrNotFound)
	}
	av.WorkingHours = db.TimeWindow{Start: start, End: end}
	return nil
}

func (f *fakeAvailabilityStore) ListForDoctor(doctorID int, from, to time.Time) ([]db.Availability, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.Availability
	for _, av := range f.recs {
		if av.DoctorID == doctorID && !av.Date.Before(utils.DateOnly(from)) && !av.Date.After(utils.DateOnly(to)) {
			out = append(out, *av)
		}
	}
	return out, nil
}

type fakeLeaveStore struct {
	mu     sync.Mutex
	nextID int
	reqs   map[int]*db.LeaveRequest
}

func newFakeLeaveStore() *fakeLeaveStore {
	return &fakeLeaveStore{reqs: make(map[int]*db.LeaveRequest)}
}

func (f *fakeLeaveStore) Create(req *db.LeaveRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	req.ID = f.nextID
	req.Status = db.LeavePending
	cp := *req
	f.reqs[req.ID] = &cp
	return nil
}

func (f *fakeLeaveStore) GetByID(id int) (*db.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.reqs[id]
	if !ok {
		return nil, fmt.Errorf("leave request %d: %w", id, apperrors.ErrNotFound)
	}
	cp := *req
	return &cp, nil
}

func (f *fakeLeaveStore) ListByDoctor(doctorID int) ([]db.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.LeaveRequest
	for _, req := range f.reqs {
		if req.DoctorID == doctorID {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeLeaveStore) ListPending() ([]db.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []db.LeaveRequest
	for _, req := range f.reqs {
		if req.Status == db.LeavePending {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (f *fakeLeaveStore) Decide(id int, status db.LeaveStatus, adminComment string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.reqs[id]
	if !ok || req.Status != db.LeavePending {
		return false, nil
	}
	req.Status = status
	req.AdminComment = adminComment
	return true, nil
}

// recordingNotifier captures notifications without delivering anything.
type recordingNotifier struct {
	mu            sync.Mutex
	cancellations []int
	reschedules   []int
	leaveNotices  []int
}

func (n *recordingNotifier) SendCancellation(appt *db.Appointment, refund *entities.RefundInfo) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancellations = append(n.cancellations, appt.ID)
}

func (n *recordingNotifier) SendReschedule(appt *db.Appointment, oldDate time.Time, oldSlot string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reschedules = append(n.reschedules, appt.ID)
}

func (n *recordingNotifier) SendLeaveCancellation(appt *db.Appointment, leave *entities.LeaveInfo) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.leaveNotices = append(n.leaveNotices, appt.ID)
}

type recordingLedger struct {
	mu      sync.Mutex
	records []int
	fail    bool
}

func (l *recordingLedger) Record(appt *db.Appointment, amount int, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail {
		return fmt.Errorf("ledger unavailable")
	}
	l.records = append(l.records, appt.ID)
	return nil
}
