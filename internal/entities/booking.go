package entities

import "time"

type BookingRequest struct {
	PatientID      int    `json:"patient_id"`
	FamilyMemberID *int   `json:"family_member_id,omitempty"`
	DoctorID       int    `json:"doctor_id"`
	Department     string `json:"department"`
	BookingDate    string `json:"booking_date"` // YYYY-MM-DD
	TimeSlot       string `json:"time_slot"`    // HH:MM
}

type BookingResponse struct {
	AppointmentID int    `json:"appointment_id"`
	TokenNumber   int    `json:"token_number"`
	QueuePosition int    `json:"queue_position"`
	Status        string `json:"status"`
	BookingDate   string `json:"booking_date"`
	TimeSlot      string `json:"time_slot"`
}

type RescheduleRequest struct {
	BookingDate string `json:"booking_date"`
	TimeSlot    string `json:"time_slot"`
}

type AppointmentResponse struct {
	ID                 int        `json:"id"`
	PatientID          int        `json:"patient_id"`
	FamilyMemberID     *int       `json:"family_member_id,omitempty"`
	DoctorID           int        `json:"doctor_id"`
	Department         string     `json:"department"`
	BookingDate        string     `json:"booking_date"`
	TimeSlot           string     `json:"time_slot"`
	TokenNumber        int        `json:"token_number"`
	Status             string     `json:"status"`
	PaymentStatus      string     `json:"payment_status"`
	RefundAmount       *int       `json:"refund_amount,omitempty"`
	RefundReason       string     `json:"refund_reason,omitempty"`
	RefundedAt         *time.Time `json:"refunded_at,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledBy        string     `json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
}

type AppointmentsList struct {
	Total        int                   `json:"total"`
	Appointments []AppointmentResponse `json:"appointments"`
}
