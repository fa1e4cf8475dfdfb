package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"clinicbooking/internal/db"
	apperrors "clinicbooking/internal/errors"
	"clinicbooking/internal/utils"
)

const leaveColumns = `
	id, doctor_id, start_date, end_date, leave_type, session,
	reason, status, admin_comment, created_at, updated_at`

type LeaveRepository interface {
	Create(req *db.LeaveRequest) error
	GetByID(id int) (*db.LeaveRequest, error)
	ListByDoctor(doctorID int) ([]db.LeaveRequest, error)
	ListPending() ([]db.LeaveRequest, error)
	// Decide moves a pending request to approved/rejected. Returns false
	// when the request was already decided, so approval stays one-way.
	Decide(id int, status db.LeaveStatus, adminComment string) (bool, error)
}

type leaveRepository struct {
	DB *sql.DB
}

func NewLeaveRepository(database *sql.DB) LeaveRepository {
	return &leaveRepository{DB: database}
}

func (r *leaveRepository) Create(req *db.LeaveRequest) error {
	err := r.DB.QueryRow(`
		INSERT INTO leave_requests
			(doctor_id, start_date, end_date, leave_type, session, reason, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		req.DoctorID,
		utils.DateOnly(req.StartDate).Format(utils.DateLayout),
		utils.DateOnly(req.EndDate).Format(utils.DateLayout),
		req.LeaveType, req.Session, req.Reason, db.LeavePending,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating leave request: %w", err)
	}
	req.Status = db.LeavePending
	return nil
}

func (r *leaveRepository) GetByID(id int) (*db.LeaveRequest, error) {
	row := r.DB.QueryRow(`SELECT `+leaveColumns+` FROM leave_requests WHERE id = $1`, id)
	req, err := scanLeave(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("leave request %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("error querying leave request: %w", err)
	}
	return req, nil
}

func (r *leaveRepository) ListByDoctor(doctorID int) ([]db.LeaveRequest, error) {
	return r.list(`SELECT `+leaveColumns+`
		FROM leave_requests WHERE doctor_id = $1 ORDER BY start_date DESC`, doctorID)
}

func (r *leaveRepository) ListPending() ([]db.LeaveRequest, error) {
	return r.list(`SELECT `+leaveColumns+`
		FROM leave_requests WHERE status = $1 ORDER BY created_at`, db.LeavePending)
}

func (r *leaveRepository) Decide(id int, status db.LeaveStatus, adminComment string) (bool, error) {
	result, err := r.DB.Exec(`
		UPDATE leave_requests
		SET status = $2, admin_comment = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4`,
		id, status, adminComment, db.LeavePending)
	if err != nil {
		return false, fmt.Errorf("error deciding leave request %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *leaveRepository) list(query string, args ...interface{}) ([]db.LeaveRequest, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing leave requests: %w", err)
	}
	defer rows.Close()

	var requests []db.LeaveRequest
	for rows.Next() {
		req, err := scanLeave(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning leave request row: %w", err)
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

func scanLeave(row rowScanner) (*db.LeaveRequest, error) {
	var req db.LeaveRequest
	var session, adminComment sql.NullString
	err := row.Scan(
		&req.ID, &req.DoctorID, &req.StartDate, &req.EndDate, &req.LeaveType, &session,
		&req.Reason, &req.Status, &adminComment, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	req.Session = db.SessionName(session.String)
	req.AdminComment = adminComment.String
	return &req, nil
}
