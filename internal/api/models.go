package api

import (
	"encoding/json"
	"net/http"

	"clinicbooking/internal/db"
	"clinicbooking/internal/entities"
	apperrors "clinicbooking/internal/errors"
	"clinicbooking/internal/utils"
)

type CancelRequest struct {
	Reason string `json:"reason"`
}

type DecisionRequest struct {
	AdminComment string `json:"admin_comment,omitempty"`
}

type SetUnavailableRequest struct {
	DoctorID int    `json:"doctor_id"`
	Date     string `json:"date"`
	Scope    string `json:"scope"` // full_day | morning | afternoon
	Reason   string `json:"reason,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, err error) {
	respondJSON(w, apperrors.StatusFor(err), map[string]string{"error": err.Error()})
}

func toAppointmentResponse(appt *db.Appointment) entities.AppointmentResponse {
	return entities.AppointmentResponse{
		ID:                 appt.ID,
		PatientID:          appt.PatientID,
		FamilyMemberID:     appt.FamilyMemberID,
		DoctorID:           appt.DoctorID,
		Department:         appt.Department,
		BookingDate:        appt.BookingDate.Format(utils.DateLayout),
		TimeSlot:           appt.TimeSlot,
		TokenNumber:        appt.TokenNumber,
		Status:             string(appt.Status),
		PaymentStatus:      string(appt.PaymentStatus),
		RefundAmount:       appt.RefundAmount,
		RefundReason:       appt.RefundReason,
		RefundedAt:         appt.RefundedAt,
		CancellationReason: appt.CancellationReason,
		CancelledBy:        appt.CancelledBy,
		CancelledAt:        appt.CancelledAt,
		CreatedAt:          appt.CreatedAt,
	}
}

func toAppointmentsList(appts []db.Appointment) entities.AppointmentsList {
	list := entities.AppointmentsList{Total: len(appts)}
	for i := range appts {
		list.Appointments = append(list.Appointments, toAppointmentResponse(&appts[i]))
	}
	return list
}
