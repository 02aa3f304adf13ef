package models

import (
	"time"

	id "confreg/pkg/domain"
)

// PaymentState is the state of a single captured payment attempt. Distinct
// from PaymentStatus, which summarizes a registration's whole payment axis.
type PaymentState string

const (
	PaymentStateSucceeded PaymentState = "succeeded"
	PaymentStatePending   PaymentState = "pending"
	PaymentStateRefunded  PaymentState = "refunded"
	PaymentStateFailed    PaymentState = "failed"
)

// Valid reports whether s is a known payment state.
func (s PaymentState) Valid() bool {
	switch s {
	case PaymentStateSucceeded, PaymentStatePending, PaymentStateRefunded, PaymentStateFailed:
		return true
	}
	return false
}

// Payment is one recorded payment attempt against a registration. Payments
// are append-only facts from the payment provider; reconciliation derives
// totals from them rather than trusting a running balance.
type Payment struct {
	ID             id.PaymentID      `json:"id"`
	RegistrationID id.RegistrationID `json:"registration_id"`
	AmountCents    int64             `json:"amount_cents"`
	Currency       string            `json:"currency"`
	State          PaymentState      `json:"state"`
	CreatedAt      time.Time         `json:"created_at"`
}
