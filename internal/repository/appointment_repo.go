package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clinicbooking/internal/db"
	apperrors "clinicbooking/internal/errors"
	"clinicbooking/internal/utils"

	"github.com/lib/pq"
)

const appointmentColumns = `
	id, patient_id, family_member_id, doctor_id, department, booking_date, time_slot,
	token_number, status, payment_status, fee, payment_ref,
	refund_amount, refund_reason, refund_method, refunded_at,
	cancellation_reason, cancelled_by, cancelled_at,
	created_at, updated_at`

// AllocationResult is what a successful slot reservation hands back.
type AllocationResult struct {
	AppointmentID int
	TokenNumber   int
	QueuePosition int
	CreatedAt     time.Time
}

type AppointmentRepository interface {
	// Allocate reserves one slot against the session's capacity as a single
	// atomic operation and returns the assigned token and queue position.
	// Fails with ErrCapacityExceeded when the session is full.
	Allocate(appt *db.Appointment, sess db.SessionWindow) (*AllocationResult, error)
	GetByID(id int) (*db.Appointment, error)
	ListByPatient(patientID int) ([]db.Appointment, error)
	ListForDoctorDate(doctorID int, date time.Time, statuses []db.Status) ([]db.Appointment, error)
	// TransitionActive moves an appointment between non-terminal states
	// (booked -> in_queue, or either -> consulted). Returns false when the
	// row was not in an active state.
	TransitionActive(id int, to db.Status) (bool, error)
	// MoveActive reschedules an active appointment onto a new (date, slot)
	// under the same capacity discipline as Allocate. The appointment keeps
	// its identity and payment; it gets a fresh token scoped to the target
	// date. Returns false when the appointment is no longer active.
	MoveActive(id int, newDate time.Time, newSlot string, sess db.SessionWindow) (bool, error)
	// CancelActive applies a terminal no-longer-attending status with its
	// cancellation metadata. The refund coupling happens in the same UPDATE:
	// a paid appointment becomes refunded with amount/reason/method/timestamp
	// stamped. Returns the updated row, or nil when the appointment was not
	// active anymore.
	CancelActive(id int, to db.Status, reason, actor, refundMethod string, refundAmount int, at time.Time) (*db.Appointment, error)
}

type appointmentRepository struct {
	DB *sql.DB
}

func NewAppointmentRepository(database *sql.DB) AppointmentRepository {
	return &appointmentRepository{DB: database}
}

func (r *appointmentRepository) Allocate(appt *db.Appointment, sess db.SessionWindow) (*AllocationResult, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("error starting allocation transaction: %w", err)
	}
	defer tx.Rollback()

	date := utils.DateOnly(appt.BookingDate).Format(utils.DateLayout)

	// Serialization point: the availability row for (doctor, date). Every
	// allocator for the same day queues on this lock, so the capacity count
	// below and the insert commit as one unit and MAX(token_number)+1 is
	// collision free.
	var availID int
	err = tx.QueryRow(
		`SELECT id FROM availability WHERE doctor_id = $1 AND date = $2 FOR UPDATE`,
		appt.DoctorID, date,
	).Scan(&availID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("availability for doctor %d on %s: %w", appt.DoctorID, date, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("error locking availability row: %w", err)
	}

	result := &AllocationResult{}
	err = tx.QueryRow(`
		INSERT INTO appointments
			(patient_id, family_member_id, doctor_id, department, booking_date, time_slot,
			 token_number, status, payment_status, fee, payment_ref, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $6,
			COALESCE((SELECT MAX(token_number) FROM appointments
			          WHERE doctor_id = $3 AND booking_date = $5), 0) + 1,
			$7, $8, $9, $10, NOW(), NOW()
		WHERE (SELECT COUNT(*) FROM appointments
		       WHERE doctor_id = $3 AND booking_date = $5
		         AND time_slot >= $11 AND time_slot < $12
		         AND status IN ('booked', 'in_queue')) < $13
		RETURNING id, token_number, created_at`,
		appt.PatientID, appt.FamilyMemberID, appt.DoctorID, appt.Department, date, appt.TimeSlot,
		db.StatusBooked, db.PaymentPending, appt.Fee, appt.PaymentRef,
		sess.Start, sess.End, sess.MaxPatients,
	).Scan(&result.AppointmentID, &result.TokenNumber, &result.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %s-%s for doctor %d on %s is full: %w",
				sess.Start, sess.End, appt.DoctorID, date, apperrors.ErrCapacityExceeded)
		}
		return nil, fmt.Errorf("error inserting appointment: %w", err)
	}

	// Queue position: everyone not yet serviced who is ahead of this booking,
	// earlier slots first, creation time breaking ties within a slot.
	err = tx.QueryRow(`
		SELECT COUNT(*) FROM appointments
		WHERE doctor_id = $1 AND booking_date = $2
		  AND status IN ('booked', 'in_queue')
		  AND (time_slot < $3 OR (time_slot = $3 AND created_at < $4))`,
		appt.DoctorID, date, appt.TimeSlot, result.CreatedAt,
	).Scan(&result.QueuePosition)
	if err != nil {
		return nil, fmt.Errorf("error computing queue position: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing allocation: %w", err)
	}
	return result, nil
}

func (r *appointmentRepository) GetByID(id int) (*db.Appointment, error) {
	row := r.DB.QueryRow(`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("appointment %d: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("error querying appointment: %w", err)
	}
	return appt, nil
}

func (r *appointmentRepository) ListByPatient(patientID int) ([]db.Appointment, error) {
	rows, err := r.DB.Query(`SELECT `+appointmentColumns+`
		FROM appointments WHERE patient_id = $1
		ORDER BY booking_date DESC, time_slot`, patientID)
	if err != nil {
		return nil, fmt.Errorf("error listing patient appointments: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func (r *appointmentRepository) ListForDoctorDate(doctorID int, date time.Time, statuses []db.Status) ([]db.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1 AND booking_date = $2`
	args := []interface{}{doctorID, utils.DateOnly(date).Format(utils.DateLayout)}
	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, s := range statuses {
			names[i] = string(s)
		}
		query += ` AND status = ANY($3)`
		args = append(args, pq.Array(names))
	}
	query += ` ORDER BY time_slot, created_at`

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing doctor appointments: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func (r *appointmentRepository) MoveActive(id int, newDate time.Time, newSlot string, sess db.SessionWindow) (bool, error) {
	tx, err := r.DB.Begin()
	if err != nil {
		return false, fmt.Errorf("error starting reschedule transaction: %w", err)
	}
	defer tx.Rollback()

	date := utils.DateOnly(newDate).Format(utils.DateLayout)

	var doctorID int
	err = tx.QueryRow(`SELECT doctor_id FROM appointments WHERE id = $1`, id).Scan(&doctorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("appointment %d: %w", id, apperrors.ErrNotFound)
		}
		return false, fmt.Errorf("error loading appointment for reschedule: %w", err)
	}

	var availID int
	err = tx.QueryRow(
		`SELECT id FROM availability WHERE doctor_id = $1 AND date = $2 FOR UPDATE`,
		doctorID, date,
	).Scan(&availID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("availability for doctor %d on %s: %w", doctorID, date, apperrors.ErrNotFound)
		}
		return false, fmt.Errorf("error locking availability row: %w", err)
	}

	result, err := tx.Exec(`
		UPDATE appointments SET
			booking_date = $2,
			time_slot = $3,
			token_number = COALESCE((SELECT MAX(a.token_number) FROM appointments a
			                         WHERE a.doctor_id = appointments.doctor_id
			                           AND a.booking_date = $2), 0) + 1,
			updated_at = NOW()
		WHERE id = $1 AND status IN ('booked', 'in_queue')
		  AND (SELECT COUNT(*) FROM appointments a
		       WHERE a.doctor_id = appointments.doctor_id AND a.booking_date = $2
		         AND a.time_slot >= $4 AND a.time_slot < $5
		         AND a.status IN ('booked', 'in_queue') AND a.id <> $1) < $6`,
		id, date, newSlot, sess.Start, sess.End, sess.MaxPatients)
	if err != nil {
		return false, fmt.Errorf("error rescheduling appointment %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		// Either the appointment left the active set or the target session
		// is full; tell the two apart for the caller.
		var status db.Status
		if err := tx.QueryRow(`SELECT status FROM appointments WHERE id = $1`, id).Scan(&status); err != nil {
			return false, fmt.Errorf("error checking appointment %d after reschedule: %w", id, err)
		}
		if !status.Active() {
			return false, nil
		}
		return false, fmt.Errorf("session %s-%s on %s is full: %w",
			sess.Start, sess.End, date, apperrors.ErrCapacityExceeded)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("error committing reschedule: %w", err)
	}
	return true, nil
}

func (r *appointmentRepository) TransitionActive(id int, to db.Status) (bool, error) {
	result, err := r.DB.Exec(`
		UPDATE appointments SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status IN ('booked', 'in_queue')`,
		id, to)
	if err != nil {
		return false, fmt.Errorf("error updating appointment status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *appointmentRepository) CancelActive(id int, to db.Status, reason, actor, refundMethod string, refundAmount int, at time.Time) (*db.Appointment, error) {
	row := r.DB.QueryRow(`
		UPDATE appointments SET
			status = $2,
			cancellation_reason = $3,
			cancelled_by = $4,
			cancelled_at = $5,
			refund_amount  = CASE WHEN $6 AND payment_status = 'paid' THEN $7 ELSE refund_amount END,
			refund_reason  = CASE WHEN $6 AND payment_status = 'paid' THEN $3 ELSE refund_reason END,
			refund_method  = CASE WHEN $6 AND payment_status = 'paid' THEN $8 ELSE refund_method END,
			refunded_at    = CASE WHEN $6 AND payment_status = 'paid' THEN $5 ELSE refunded_at END,
			payment_status = CASE WHEN $6 AND payment_status = 'paid' THEN 'refunded' ELSE payment_status END,
			updated_at = NOW()
		WHERE id = $1 AND status IN ('booked', 'in_queue')
		RETURNING `+appointmentColumns,
		id, to, reason, actor, at, to.Cancellation(), refundAmount, refundMethod)
	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error cancelling appointment %d: %w", id, err)
	}
	return appt, nil
}

func collectAppointments(rows *sql.Rows) ([]db.Appointment, error) {
	var appts []db.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning appointment row: %w", err)
		}
		appts = append(appts, *appt)
	}
	return appts, rows.Err()
}

func scanAppointment(row rowScanner) (*db.Appointment, error) {
	var appt db.Appointment
	var familyMemberID, refundAmount sql.NullInt64
	var paymentRef, refundReason, refundMethod, cancelReason, cancelledBy sql.NullString
	var refundedAt, cancelledAt sql.NullTime
	err := row.Scan(
		&appt.ID, &appt.PatientID, &familyMemberID, &appt.DoctorID, &appt.Department,
		&appt.BookingDate, &appt.TimeSlot,
		&appt.TokenNumber, &appt.Status, &appt.PaymentStatus, &appt.Fee, &paymentRef,
		&refundAmount, &refundReason, &refundMethod, &refundedAt,
		&cancelReason, &cancelledBy, &cancelledAt,
		&appt.CreatedAt, &appt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if familyMemberID.Valid {
		v := int(familyMemberID.Int64)
		appt.FamilyMemberID = &v
	}
	if refundAmount.Valid {
		v := int(refundAmount.Int64)
		appt.RefundAmount = &v
	}
	if refundedAt.Valid {
		appt.RefundedAt = &refundedAt.Time
	}
	if cancelledAt.Valid {
		appt.CancelledAt = &cancelledAt.Time
	}
	appt.PaymentRef = paymentRef.String
	appt.RefundReason = refundReason.String
	appt.RefundMethod = refundMethod.String
	appt.CancellationReason = cancelReason.String
	appt.CancelledBy = cancelledBy.String
	return &appt, nil
}
