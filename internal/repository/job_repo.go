package repository

import (
	"database/sql"
	"fmt"
	"time"

	"clinicbooking/internal/db"
	"clinicbooking/internal/utils"
)

// JobRepository serves the cancellation sweeper's batch reads.
type JobRepository interface {
	// ListActiveOn returns every still-active appointment dated exactly on
	// the given day, for the same-day session-boundary pass.
	ListActiveOn(date time.Time) ([]db.Appointment, error)
	// ListActiveBefore returns every still-active appointment dated strictly
	// before the given day, for the stale pass.
	ListActiveBefore(date time.Time) ([]db.Appointment, error)
}

type jobRepository struct {
	DB *sql.DB
}

func NewJobRepository(database *sql.DB) JobRepository {
	return &jobRepository{DB: database}
}

func (r *jobRepository) ListActiveOn(date time.Time) ([]db.Appointment, error) {
	rows, err := r.DB.Query(`SELECT `+appointmentColumns+`
		FROM appointments
		WHERE booking_date = $1 AND status IN ('booked', 'in_queue')
		ORDER BY doctor_id, time_slot, created_at`,
		utils.DateOnly(date).Format(utils.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("error querying same-day active appointments: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func (r *jobRepository) ListActiveBefore(date time.Time) ([]db.Appointment, error) {
	rows, err := r.DB.Query(`SELECT `+appointmentColumns+`
		FROM appointments
		WHERE booking_date < $1 AND status IN ('booked', 'in_queue')
		ORDER BY booking_date, doctor_id, time_slot`,
		utils.DateOnly(date).Format(utils.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("error querying stale active appointments: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}
