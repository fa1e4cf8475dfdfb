package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clinicbooking/internal/db"
	apperrors "clinicbooking/internal/errors"
	"clinicbooking/internal/utils"
)

const availabilityColumns = `
	id, doctor_id, date, is_available,
	working_start, working_end, break_start, break_end,
	morning_available, morning_start, morning_end, morning_max_patients,
	afternoon_available, afternoon_start, afternoon_end, afternoon_max_patients,
	leave_reason, notes, created_at, updated_at`

type AvailabilityRepository interface {
	GetOrCreate(doctorID int, date time.Time) (*db.Availability, error)
	Get(doctorID int, date time.Time) (*db.Availability, error)
	SetUnavailable(doctorID int, date time.Time, scope db.LeaveType, session db.SessionName, reason string) error
	Upsert(av *db.Availability) error
	UpdateWorkingHours(doctorID int, date time.Time, start, end string) error
	ListForDoctor(doctorID int, from, to time.Time) ([]db.Availability, error)
}

type availabilityRepository struct {
	DB *sql.DB
}

func NewAvailabilityRepository(database *sql.DB) AvailabilityRepository {
	return &availabilityRepository{DB: database}
}

// GetOrCreate returns the availability record for (doctor, date), inserting
// the default-initialized one first if none exists. The insert is
// ON CONFLICT DO NOTHING so two concurrent callers converge on one row, and
// the follow-up read always sees the committed record.
func (r *availabilityRepository) GetOrCreate(doctorID int, date time.Time) (*db.Availability, error) {
	def := utils.DefaultAvailability(doctorID, date)
	_, err := r.DB.Exec(`
		INSERT INTO availability
			(doctor_id, date, is_available,
			 working_start, working_end, break_start, break_end,
			 morning_available, morning_start, morning_end, morning_max_patients,
			 afternoon_available, afternoon_start, afternoon_end, afternoon_max_patients,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, NOW(), NOW())
		ON CONFLICT (doctor_id, date) DO NOTHING`,
		doctorID, def.Date.Format(utils.DateLayout), def.IsAvailable,
		def.WorkingHours.Start, def.WorkingHours.End, def.BreakTime.Start, def.BreakTime.End,
		def.Morning.Available, def.Morning.Start, def.Morning.End, def.Morning.MaxPatients,
		def.Afternoon.Available, def.Afternoon.Start, def.Afternoon.End, def.Afternoon.MaxPatients,
	)
	if err != nil {
		return nil, fmt.Errorf("error creating availability record: %w", err)
	}
	return r.Get(doctorID, date)
}

func (r *availabilityRepository) Get(doctorID int, date time.Time) (*db.Availability, error) {
	row := r.DB.QueryRow(`SELECT `+availabilityColumns+`
		FROM availability WHERE doctor_id = $1 AND date = $2`,
		doctorID, utils.DateOnly(date).Format(utils.DateLayout))
	av, err := scanAvailability(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("availability for doctor %d on %s: %w",
				doctorID, date.Format(utils.DateLayout), apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("error querying availability: %w", err)
	}
	return av, nil
}

// SetUnavailable blocks the whole day or a single session. A session-scoped
// block never touches the other session's flags or capacity.
func (r *availabilityRepository) SetUnavailable(doctorID int, date time.Time, scope db.LeaveType, session db.SessionName, reason string) error {
	var query string
	switch {
	case scope == db.LeaveFullDay:
		query = `UPDATE availability
			SET is_available = FALSE, morning_available = FALSE, afternoon_available = FALSE,
			    leave_reason = $3, updated_at = NOW()
			WHERE doctor_id = $1 AND date = $2`
	case session == db.SessionMorning:
		query = `UPDATE availability
			SET morning_available = FALSE, leave_reason = $3, updated_at = NOW()
			WHERE doctor_id = $1 AND date = $2`
	default:
		query = `UPDATE availability
			SET afternoon_available = FALSE, leave_reason = $3, updated_at = NOW()
			WHERE doctor_id = $1 AND date = $2`
	}
	result, err := r.DB.Exec(query, doctorID, utils.DateOnly(date).Format(utils.DateLayout), reason)
	if err != nil {
		return fmt.Errorf("error blocking availability: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("availability for doctor %d on %s: %w",
			doctorID, date.Format(utils.DateLayout), apperrors.ErrNotFound)
	}
	return nil
}

// Upsert writes a full schedule for one (doctor, date), used by the admin
// bulk schedule surface. Existing bookings are untouched.
func (r *availabilityRepository) Upsert(av *db.Availability) error {
	_, err := r.DB.Exec(`
		INSERT INTO availability
			(doctor_id, date, is_available,
			 working_start, working_end, break_start, break_end,
			 morning_available, morning_start, morning_end, morning_max_patients,
			 afternoon_available, afternoon_start, afternoon_end, afternoon_max_patients,
			 leave_reason, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())
		ON CONFLICT (doctor_id, date) DO UPDATE SET
			is_available = EXCLUDED.is_available,
			working_start = EXCLUDED.working_start, working_end = EXCLUDED.working_end,
			break_start = EXCLUDED.break_start, break_end = EXCLUDED.break_end,
			morning_available = EXCLUDED.morning_available,
			morning_start = EXCLUDED.morning_start, morning_end = EXCLUDED.morning_end,
			morning_max_patients = EXCLUDED.morning_max_patients,
			afternoon_available = EXCLUDED.afternoon_available,
			afternoon_start = EXCLUDED.afternoon_start, afternoon_end = EXCLUDED.afternoon_end,
			afternoon_max_patients = EXCLUDED.afternoon_max_patients,
			leave_reason = EXCLUDED.leave_reason,
			notes = EXCLUDED.notes,
			updated_at = NOW()`,
		av.DoctorID, utils.DateOnly(av.Date).Format(utils.DateLayout), av.IsAvailable,
		av.WorkingHours.Start, av.WorkingHours.End, av.BreakTime.Start, av.BreakTime.End,
		av.Morning.Available, av.Morning.Start, av.Morning.End, av.Morning.MaxPatients,
		av.Afternoon.Available, av.Afternoon.Start, av.Afternoon.End, av.Afternoon.MaxPatients,
		av.LeaveReason, av.Notes,
	)
	if err != nil {
		return fmt.Errorf("error upserting availability: %w", err)
	}
	return nil
}

func (r *availabilityRepository) UpdateWorkingHours(doctorID int, date time.Time, start, end string) error {
	result, err := r.DB.Exec(`
		UPDATE availability
		SET working_start = $3, working_end = $4, updated_at = NOW()
		WHERE doctor_id = $1 AND date = $2`,
		doctorID, utils.DateOnly(date).Format(utils.DateLayout), start, end)
	if err != nil {
		return fmt.Errorf("error updating working hours: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("availability for doctor %d on %s: %w",
			doctorID, date.Format(utils.DateLayout), apperrors.ErrNotFound)
	}
	return nil
}

func (r *availabilityRepository) ListForDoctor(doctorID int, from, to time.Time) ([]db.Availability, error) {
	rows, err := r.DB.Query(`SELECT `+availabilityColumns+`
		FROM availability
		WHERE doctor_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date`,
		doctorID, utils.DateOnly(from).Format(utils.DateLayout), utils.DateOnly(to).Format(utils.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("error listing availability: %w", err)
	}
	defer rows.Close()

	var records []db.Availability
	for rows.Next() {
		av, err := scanAvailability(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning availability row: %w", err)
		}
		records = append(records, *av)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAvailability(row rowScanner) (*db.Availability, error) {
	var av db.Availability
	var leaveReason, notes sql.NullString
	err := row.Scan(
		&av.ID, &av.DoctorID, &av.Date, &av.IsAvailable,
		&av.WorkingHours.Start, &av.WorkingHours.End, &av.BreakTime.Start, &av.BreakTime.End,
		&av.Morning.Available, &av.Morning.Start, &av.Morning.End, &av.Morning.MaxPatients,
		&av.Afternoon.Available, &av.Afternoon.Start, &av.Afternoon.End, &av.Afternoon.MaxPatients,
		&leaveReason, &notes, &av.CreatedAt, &av.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	av.LeaveReason = leaveReason.String
	av.Notes = notes.String
	return &av, nil
}
