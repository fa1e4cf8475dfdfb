package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"clinicbooking/internal/db"
	"clinicbooking/internal/entities"
	"clinicbooking/internal/service"
	"clinicbooking/internal/utils"

	"github.com/gorilla/mux"
)

type AdminHandler struct {
	Booking  *service.BookingService
	Leave    *service.LeaveService
	Schedule *service.ScheduleService
	Sweeper  *service.SweeperService
}

func NewAdminHandler(booking *service.BookingService, leave *service.LeaveService, schedule *service.ScheduleService, sweeper *service.SweeperService) *AdminHandler {
	return &AdminHandler{Booking: booking, Leave: leave, Schedule: schedule, Sweeper: sweeper}
}

func (h *AdminHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	doctorID, err := strconv.Atoi(r.URL.Query().Get("doctor_id"))
	if err != nil {
		http.Error(w, "Invalid doctor_id", http.StatusBadRequest)
		return
	}
	date, err := time.Parse(utils.DateLayout, r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "Invalid date", http.StatusBadRequest)
		return
	}
	var statuses []db.Status
	if s := r.URL.Query().Get("status"); s != "" {
		statuses = append(statuses, db.Status(s))
	}
	appts, err := h.Booking.ListForDoctorDate(doctorID, date, statuses)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toAppointmentsList(appts))
}

func (h *AdminHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	var req CancelRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	if req.Reason == "" {
		req.Reason = "cancelled by hospital"
	}
	appt, err := h.Booking.CancelByAdmin(id, req.Reason)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *AdminHandler) CheckInAppointment(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Booking.Lifecycle.CheckIn)
}

func (h *AdminHandler) MarkConsulted(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Booking.Lifecycle.MarkConsulted)
}

func (h *AdminHandler) transition(w http.ResponseWriter, r *http.Request, fn func(int) error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	if err := fn(id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Appointment updated"})
}

func (h *AdminHandler) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	report := h.Sweeper.Run()
	respondJSON(w, http.StatusOK, report)
}

func (h *AdminHandler) SubmitLeave(w http.ResponseWriter, r *http.Request) {
	var req entities.LeaveRequestSubmission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	leave, err := h.Leave.Submit(req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, leave)
}

func (h *AdminHandler) ListPendingLeave(w http.ResponseWriter, r *http.Request) {
	leaves, err := h.Leave.ListPending()
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, leaves)
}

func (h *AdminHandler) ApproveLeave(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	var req DecisionRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	cancelled, err := h.Leave.Approve(id, req.AdminComment)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entities.LeaveApprovalResult{
		LeaveRequestID: id,
		CancelledCount: cancelled,
	})
}

func (h *AdminHandler) RejectLeave(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	var req DecisionRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	if err := h.Leave.Reject(id, req.AdminComment); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Leave request rejected"})
}

func (h *AdminHandler) BulkCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req entities.BulkScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	written, err := h.Schedule.BulkCreate(req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"days_written": written})
}

func (h *AdminHandler) SetUnavailable(w http.ResponseWriter, r *http.Request) {
	var req SetUnavailableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	scope := db.LeaveFullDay
	session := db.SessionName("")
	if req.Scope == string(db.SessionMorning) || req.Scope == string(db.SessionAfternoon) {
		scope = db.LeaveHalfDay
		session = db.SessionName(req.Scope)
	}
	if err := h.Schedule.SetUnavailable(req.DoctorID, req.Date, scope, session, req.Reason); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Availability updated"})
}

func (h *AdminHandler) ListAvailability(w http.ResponseWriter, r *http.Request) {
	doctorID, err := strconv.Atoi(mux.Vars(r)["doctor_id"])
	if err != nil {
		http.Error(w, "Invalid doctor ID", http.StatusBadRequest)
		return
	}
	records, err := h.Schedule.ListForDoctor(doctorID, r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if err != nil {
		respondError(w, err)
		return
	}
	var out []entities.AvailabilityResponse
	for _, av := range records {
		out = append(out, entities.AvailabilityResponse{
			DoctorID:    av.DoctorID,
			Date:        av.Date.Format(utils.DateLayout),
			IsAvailable: av.IsAvailable,
			Morning: entities.SessionConfig{
				Available:   av.Morning.Available,
				Start:       av.Morning.Start,
				End:         av.Morning.End,
				MaxPatients: av.Morning.MaxPatients,
			},
			Afternoon: entities.SessionConfig{
				Available:   av.Afternoon.Available,
				Start:       av.Afternoon.Start,
				End:         av.Afternoon.End,
				MaxPatients: av.Afternoon.MaxPatients,
			},
			LeaveReason: av.LeaveReason,
			Notes:       av.Notes,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *AdminHandler) SubmitScheduleChange(w http.ResponseWriter, r *http.Request) {
	var req entities.ScheduleChangeSubmission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	change, err := h.Schedule.SubmitChange(req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, change)
}

func (h *AdminHandler) ListScheduleChanges(w http.ResponseWriter, r *http.Request) {
	doctorID, err := strconv.Atoi(mux.Vars(r)["doctor_id"])
	if err != nil {
		http.Error(w, "Invalid doctor ID", http.StatusBadRequest)
		return
	}
	changes, err := h.Schedule.ListChanges(doctorID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, changes)
}

func (h *AdminHandler) ApproveScheduleChange(w http.ResponseWriter, r *http.Request) {
	h.decideScheduleChange(w, r, h.Schedule.ApproveChange)
}

func (h *AdminHandler) RejectScheduleChange(w http.ResponseWriter, r *http.Request) {
	h.decideScheduleChange(w, r, h.Schedule.RejectChange)
}

func (h *AdminHandler) decideScheduleChange(w http.ResponseWriter, r *http.Request, fn func(int, string) error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	var req DecisionRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	if err := fn(id, req.AdminComment); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Schedule change request updated"})
}
