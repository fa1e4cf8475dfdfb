package service

import (
	"fmt"
	"log"
	"time"

	"clinicbooking/internal/db"
	"clinicbooking/internal/entities"
	"clinicbooking/internal/repository"
	"clinicbooking/internal/utils"
)

// SenderService is the production Notifier: email through SendGrid and SMS
// through Twilio, both dispatched from a goroutine so no caller ever waits
// on a delivery. Failures are logged and dropped.
type SenderService struct {
	Patients repository.PatientRepository
	loc      *time.Location
}

func NewSenderService(patients repository.PatientRepository, loc *time.Location) *SenderService {
	return &SenderService{Patients: patients, loc: loc}
}

func (s *SenderService) SendCancellation(appt *db.Appointment, refund *entities.RefundInfo) {
	subject := fmt.Sprintf("Your appointment on %s has been cancelled", s.formatDate(appt.BookingDate))
	body := fmt.Sprintf(
		"Hello %%s,\n\nYour appointment (token %d) on %s at %s has been cancelled.\nReason: %s\n",
		appt.TokenNumber, s.formatDate(appt.BookingDate), appt.TimeSlot, appt.CancellationReason)
	if refund != nil {
		body += fmt.Sprintf("\nA refund of %d has been initiated to your %s. Reference date: %s.\n",
			refund.Amount, refund.Method, refund.RefundedAt.In(s.loc).Format("02 Jan 2006 15:04"))
	}
	body += "\nCityCare Clinic"
	sms := fmt.Sprintf("CityCare Clinic: appointment token %d on %s %s has been cancelled. Details in your email.",
		appt.TokenNumber, s.formatDate(appt.BookingDate), appt.TimeSlot)

	s.dispatch(appt.PatientID, subject, body, sms)
}

func (s *SenderService) SendReschedule(appt *db.Appointment, oldDate time.Time, oldSlot string) {
	subject := "Your appointment has been rescheduled"
	body := fmt.Sprintf(
		"Hello %%s,\n\nYour appointment previously on %s at %s has moved to %s at %s (token %d).\n\nCityCare Clinic",
		s.formatDate(oldDate), oldSlot, s.formatDate(appt.BookingDate), appt.TimeSlot, appt.TokenNumber)
	sms := fmt.Sprintf("CityCare Clinic: your appointment moved to %s %s, token %d.",
		s.formatDate(appt.BookingDate), appt.TimeSlot, appt.TokenNumber)

	s.dispatch(appt.PatientID, subject, body, sms)
}

func (s *SenderService) SendLeaveCancellation(appt *db.Appointment, leave *entities.LeaveInfo) {
	subject := fmt.Sprintf("Your appointment on %s has been cancelled by the clinic", s.formatDate(appt.BookingDate))
	body := fmt.Sprintf(
		"Hello %%s,\n\nYour doctor is on leave from %s to %s and your appointment (token %d) on %s at %s has been cancelled.\n",
		s.formatDate(leave.StartDate), s.formatDate(leave.EndDate),
		appt.TokenNumber, s.formatDate(appt.BookingDate), appt.TimeSlot)
	if appt.PaymentStatus == db.PaymentRefunded && appt.RefundAmount != nil {
		body += fmt.Sprintf("A refund of %d has been initiated.\n", *appt.RefundAmount)
	}
	body += "Please book another slot at your convenience.\n\nCityCare Clinic"
	sms := fmt.Sprintf("CityCare Clinic: appointment token %d on %s cancelled (doctor on leave). Please rebook.",
		appt.TokenNumber, s.formatDate(appt.BookingDate))

	s.dispatch(appt.PatientID, subject, body, sms)
}

// dispatch resolves the patient contact and fires both channels without
// blocking the caller. The %s placeholder in body takes the patient name.
func (s *SenderService) dispatch(patientID int, subject, body, sms string) {
	go func() {
		contact, err := s.Patients.GetContact(patientID)
		if err != nil {
			log.Printf("ALERT: could not resolve contact for patient %d, notification dropped: %v", patientID, err)
			return
		}
		plainBody := fmt.Sprintf(body, contact.Name)
		htmlBody := "<p>" + plainBody + "</p>"
		if err := SendEmailWithSendGrid(contact.Email, contact.Name, subject, plainBody, htmlBody); err != nil {
			log.Printf("ALERT: email to patient %d failed: %v", patientID, err)
		}
		if err := SendSMS(contact.Phone, sms); err != nil {
			log.Printf("ALERT: SMS to patient %d failed: %v", patientID, err)
		}
	}()
}

func (s *SenderService) formatDate(date time.Time) string {
	return utils.DateOnly(date).Format("02 Jan 2006")
}
