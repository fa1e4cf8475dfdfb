package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"clinicbooking/internal/db"
	apperrors "clinicbooking/internal/errors"
	"clinicbooking/internal/utils"
)

const scheduleChangeColumns = `
	id, doctor_id, date, requested_start, requested_end,
	reason, status, admin_comment, created_at, updated_at`

// ScheduleChangeRepository persists doctor schedule change requests,
// query-ordered and scoped by doctor.
type ScheduleChangeRepository interface {
	Create(req *db.ScheduleChangeRequest) error
	GetByID(id int) (*db.ScheduleChangeRequest, error)
	ListByDoctor(doctorID int) ([]db.ScheduleChangeRequest, error)
	Decide(id int, status, adminComment string) (bool, error)
}

type scheduleChangeRepository struct {
	DB *sql.DB
}

func NewScheduleChangeRepository(database *sql.DB) ScheduleChangeRepository {
	return &scheduleChangeRepository{DB: database}
}

func (r *scheduleChangeRepository) Create(req *db.ScheduleChangeRequest) error {
	err := r.DB.QueryRow(`
		INSERT INTO schedule_change_requests
			(doctor_id, date, requested_start, requested_end, reason, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'pending', NOW(), NOW())
		RETURNING id, status, created_at, updated_at`,
		req.DoctorID, utils.DateOnly(req.Date).Format(utils.DateLayout),
		req.RequestedStart, req.RequestedEnd, req.Reason,
	).Scan(&req.ID, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating schedule change request: %w", err)
	}
	return nil
}

func (r *scheduleChangeRepository) GetByID(id int) (*db.ScheduleChangeRequest, error) {
	row := r.DB.QueryRow(`SELECT `+scheduleChangeColumns+`
		FROM schedule_change_requests WHERE id = $1`, id)
	req, err := scanScheduleChange(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("schedule change request %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("error querying schedule change request: %w", err)
	}
	return req, nil
}

func (r *scheduleChangeRepository) ListByDoctor(doctorID int) ([]db.ScheduleChangeRequest, error) {
	rows, err := r.DB.Query(`SELECT `+scheduleChangeColumns+`
		FROM schedule_change_requests
		WHERE doctor_id = $1
		ORDER BY created_at DESC`, doctorID)
	if err != nil {
		return nil, fmt.Errorf("error listing schedule change requests: %w", err)
	}
	defer rows.Close()

	var requests []db.ScheduleChangeRequest
	for rows.Next() {
		req, err := scanScheduleChange(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning schedule change row: %w", err)
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

func (r *scheduleChangeRepository) Decide(id int, status, adminComment string) (bool, error) {
	result, err := r.DB.Exec(`
		UPDATE schedule_change_requests
		SET status = $2, admin_comment = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'`,
		id, status, adminComment)
	if err != nil {
		return false, fmt.Errorf("error deciding schedule change request %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanScheduleChange(row rowScanner) (*db.ScheduleChangeRequest, error) {
	var req db.ScheduleChangeRequest
	var adminComment sql.NullString
	err := row.Scan(
		&req.ID, &req.DoctorID, &req.Date, &req.RequestedStart, &req.RequestedEnd,
		&req.Reason, &req.Status, &adminComment, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	req.AdminComment = adminComment.String
	return &req, nil
}
