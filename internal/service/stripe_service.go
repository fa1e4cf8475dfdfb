package service

import (
	"fmt"

	"clinicbooking/internal/db"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/refund"
)

// StripeRefundLedger records refunds against the Stripe payment the booking
// was captured with. It implements RefundLedger.
type StripeRefundLedger struct{}

func NewStripeRefundLedger() *StripeRefundLedger {
	return &StripeRefundLedger{}
}

func (s *StripeRefundLedger) Record(appt *db.Appointment, amount int, reason string) error {
	if appt.PaymentRef == "" {
		return fmt.Errorf("no payment reference on appointment %d, refund of %d not recorded", appt.ID, amount)
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(appt.PaymentRef),
		Amount:        stripe.Int64(int64(amount)),
	}
	params.AddMetadata("appointment_id", fmt.Sprintf("%d", appt.ID))
	params.AddMetadata("reason", reason)
	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("error recording refund for appointment %d: %w", appt.ID, err)
	}
	return nil
}
