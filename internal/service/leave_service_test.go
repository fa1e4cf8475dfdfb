package service

import (
	"testing"
	"time"

	"clinicbooking/internal/db"
	"clinicbooking/internal/entities"
	apperrors "clinicbooking/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLeaveFixture(t *testing.T) (*LeaveService, *fakeAppointmentStore, *fakeAvailabilityStore, *fakeLeaveStore, *recordingNotifier) {
	t.Helper()
	appts := newFakeAppointmentStore()
	avail := newFakeAvailabilityStore()
	leaves := newFakeLeaveStore()
	notifier := &recordingNotifier{}
	lifecycle := NewLifecycleService(appts, &recordingLedger{}, notifier)
	svc := NewLeaveService(leaves, avail, appts, lifecycle, time.UTC)
	return svc, appts, avail, leaves, notifier
}

func submitLeave(t *testing.T, svc *LeaveService, sub entities.LeaveRequestSubmission) int {
	t.Helper()
	req, err := svc.Submit(sub)
	require.NoError(t, err)
	return req.ID
}

func TestSubmitValidatesInput(t *testing.T) {
	svc, _, _, _, _ := newLeaveFixture(t)

	_, err := svc.Submit(entities.LeaveRequestSubmission{
		DoctorID: 1, StartDate: "2026-03-12", EndDate: "2026-03-10",
		LeaveType: "full_day", Reason: "conference",
	})
	assert.Error(t, err)

	_, err = svc.Submit(entities.LeaveRequestSubmission{
		DoctorID: 1, StartDate: "2026-03-10", EndDate: "2026-03-10",
		LeaveType: "half_day", Session: "evening", Reason: "errand",
	})
	assert.Error(t, err)

	_, err = svc.Submit(entities.LeaveRequestSubmission{
		DoctorID: 1, StartDate: "2026-03-10", EndDate: "2026-03-10",
		LeaveType: "sabbatical", Reason: "rest",
	})
	assert.Error(t, err)
}

func TestSubmitStartsPending(t *testing.T) {
	svc, _, _, leaves, _ := newLeaveFixture(t)

	id := submitLeave(t, svc, entities.LeaveRequestSubmission{
		DoctorID: 1, StartDate: "2026-03-10", EndDate: "2026-03-11",
		LeaveType: "full_day", Reason: "conference",
	})

	req, err := leaves.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, db.LeavePending, req.Status)
	assert.Equal(t, db.LeaveFullDay, req.LeaveType)
}

func TestApproveFullDayCascadesOverRange(t *testing.T) {
	svc, appts, avail, _, notifier := newLeaveFixture(t)
	day1 := seedAppointment(t, appts, 1, "2026-03-10", "09:30")
	day2 := seedAppointment(t, appts, 1, "2026-03-11", "15:00")
	outside := seedAppointment(t, appts, 1, "2026-03-12", "09:30")
	otherDoctor := seedAppointment(t, appts, 2, "2026-03-10", "09:30")

	id := submitLeave(t, svc, entities.LeaveRequestSubmission{
		DoctorID: 1, StartDate: "2026-03-10", EndDate: "2026-03-11",
		LeaveType: "full_day", Reason: "conference",
	})

	cancelled, err := svc.Approve(id, "approved")
	require.NoError(t, err)
	assert.Equal(t, 2, cancelled)

	for _, apptID := range []int{day1, day2} {
		appt, err := appts.GetByID(apptID)
		require.NoError(t, err)
		assert.Equal(t, db.StatusCancelledByHospital, appt.Status)
		assert.Equal(t, "hospital", appt.CancelledBy)
		assert.Contains(t, notifier.leaveNotices, apptID)
	}
	for _, apptID := range []int{outside, otherDoctor} {
		appt, err := appts.GetByID(apptID)
		require.NoError(t, err)
		assert.Equal(t, db.StatusBooked, appt.Status)
	}

	// Both covered days are blocked for new bookings.
	for _, date := range []string{"2026-03-10", "2026-03-11"} {
		day, _ := time.Parse("2006-01-02", date)
		av, err := avail.Get(1, day)
		require.NoError(t, err)
		assert.False(t, av.IsAvailable)
	}
}

func TestApproveHalfDayLeavesOtherSessionAlone(t *testing.T) {
	svc, appts, avail, _, _ := newLeaveFixture(t)
	morning := seedAppointment(t, appts, 1, "2026-03-10", "09:30")
	afternoon := seedAppointment(t, appts, 1, "2026-03-10", "15:00")

	id := submitLeave(t, svc, entities.LeaveRequestSubmission{
		DoctorID: 1, StartDate: "2026-03-10", EndDate: "2026-03-10",
		LeaveType: "half_day", Session: "morning", Reason: "errand",
	})

	cancelled, err := svc.Approve(id, "")
	require.NoError(t, err)
	assert.Equal(t, 1, cancelled)

	morningAppt, err := appts.GetByID(morning)
	require.NoError(t, err)
	assert.Equal(t, db.StatusCancelledByHospital, morningAppt.Status)
	afternoonAppt, err := appts.GetByID(afternoon)
	require.NoError(t, err)
	assert.Equal(t, db.StatusBooked, afternoonAppt.Status)

	// Day stays open overall; only the morning session is blocked.
	day, _ := time.Parse("2006-01-02", "2026-03-10")
	av, err := avail.Get(1, day)
	require.NoError(t, err)
	assert.True(t, av.IsAvailable)
	assert.False(t, av.Morning.Available)
	assert.True(t, av.Afternoon.Available)
}

func TestApproveIsOneWay(t *testing.T) {
	svc, appts, _, _, _ := newLeaveFixture(t)
	seedAppointment(t, appts, 1, "2026-03-10", "09:30")

	id := submitLeave(t, svc, entities.LeaveRequestSubmission{
		DoctorID: 1, StartDate: "2026-03-10", EndDate: "2026-03-10",
		LeaveType: "full_day", Reason: "conference",
	})

	cancelled, err := svc.Approve(id, "")
	require.NoError(t, err)
	assert.Equal(t, 1, cancelled)

	// Replaying the approval neither flips the request nor cancels again.
	_, err = svc.Approve(id, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestRejectHasNoCascade(t *testing.T) {
	svc, appts, avail, leaves, _ := newLeaveFixture(t)
	apptID := seedAppointment(t, appts, 1, "2026-03-10", "09:30")

	id := submitLeave(t, svc, entities.LeaveRequestSubmission{
		DoctorID: 1, StartDate: "2026-03-10", EndDate: "2026-03-10",
		LeaveType: "full_day", Reason: "conference",
	})

	require.NoError(t, svc.Reject(id, "short staffed"))

	req, err := leaves.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, db.LeaveRejected, req.Status)
	assert.Equal(t, "short staffed", req.AdminComment)

	appt, err := appts.GetByID(apptID)
	require.NoError(t, err)
	assert.Equal(t, db.StatusBooked, appt.Status)

	day, _ := time.Parse("2006-01-02", "2026-03-10")
	_, err = avail.Get(1, day)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// A rejected request cannot later be approved.
	_, err = svc.Approve(id, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}
