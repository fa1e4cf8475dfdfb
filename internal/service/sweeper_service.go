package service

import (
	"errors"
	"log"
	"sync/atomic"
	"time"

	"clinicbooking/internal/db"
	"clinicbooking/internal/entities"
	apperrors "clinicbooking/internal/errors"
	"clinicbooking/internal/repository"
	"clinicbooking/internal/utils"
)

const (
	reasonNoShowAutomatic  = "no-show: automatic"
	reasonNoShowDatePassed = "no-show: date passed"
)

// SweeperService runs the periodic no-show cancellation batch. Invocations
// that overlap a run already in progress are skipped, not queued.
type SweeperService struct {
	Jobs      repository.JobRepository
	Lifecycle *LifecycleService

	loc     *time.Location
	running atomic.Bool
	nowFn   func() time.Time
}

func NewSweeperService(jobs repository.JobRepository, lifecycle *LifecycleService, loc *time.Location) *SweeperService {
	return &SweeperService{
		Jobs:      jobs,
		Lifecycle: lifecycle,
		loc:       loc,
		nowFn:     time.Now,
	}
}

// Run executes both passes and returns the per-pass cancellation counts.
// Each appointment is handled independently; a failure on one item never
// stops the rest of the batch.
func (s *SweeperService) Run() entities.SweepReport {
	if !s.running.CompareAndSwap(false, true) {
		log.Println("Sweep: previous run still in progress, skipping")
		return entities.SweepReport{Skipped: true}
	}
	defer s.running.Store(false)

	now := s.nowFn().In(s.loc)
	today := utils.DateOnly(now)
	nowClock := now.Format(utils.SlotLayout)
	report := entities.SweepReport{}

	log.Printf("Sweep: starting run at %s", now.Format("2006-01-02 15:04"))

	// Same-day pass: anything whose session has ended is a no-show.
	sameDay, err := s.Jobs.ListActiveOn(today)
	if err != nil {
		log.Printf("Sweep: failed to load same-day appointments: %v", err)
		report.Failures++
	}
	for _, appt := range sameDay {
		boundary := utils.SessionEndBoundary(utils.SessionOfSlot(appt.TimeSlot))
		if nowClock < boundary {
			continue
		}
		if s.sweepOne(appt, db.StatusMissed, reasonNoShowAutomatic) {
			report.SameDay++
		} else {
			report.Failures++
		}
	}

	// Stale pass: anything dated before today is cancelled unconditionally.
	stale, err := s.Jobs.ListActiveBefore(today)
	if err != nil {
		log.Printf("Sweep: failed to load stale appointments: %v", err)
		report.Failures++
	}
	for _, appt := range stale {
		if s.sweepOne(appt, db.StatusCancelled, reasonNoShowDatePassed) {
			report.Stale++
		} else {
			report.Failures++
		}
	}

	log.Printf("Sweep: done, same-day=%d stale=%d failures=%d", report.SameDay, report.Stale, report.Failures)
	return report
}

func (s *SweeperService) sweepOne(appt db.Appointment, to db.Status, reason string) bool {
	_, err := s.Lifecycle.Cancel(appt.ID, to, reason, "system")
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidTransition) {
			// Someone else closed it between the list and the update; the
			// appointment no longer needs sweeping.
			return true
		}
		log.Printf("Sweep: failed to cancel appointment %d: %v", appt.ID, err)
		return false
	}
	return true
}
