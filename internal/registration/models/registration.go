package models

import (
	"time"

	id "confreg/pkg/domain"
	dErrors "confreg/pkg/domain-errors"
)

// Status is the registration lifecycle axis.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// PaymentStatus is the payment axis, independent of Status.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentPartial  PaymentStatus = "partial"
	PaymentRefunded PaymentStatus = "refunded"
)

// Valid reports whether p is a known payment status.
func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentUnpaid, PaymentPending, PaymentPaid, PaymentPartial, PaymentRefunded:
		return true
	}
	return false
}

// ValidCombination reports whether the (status, paymentStatus) pair is
// reachable. Money can only have moved on a confirmed registration; this
// engine never produces paid/partial/refunded on any other status.
func ValidCombination(s Status, p PaymentStatus) bool {
	switch p {
	case PaymentPaid, PaymentPartial, PaymentRefunded:
		return s == StatusConfirmed
	}
	return true
}

// Registration is a user's enrollment record for a conference.
//
// Invariants:
//   - Status and PaymentStatus are independent axes, constrained by
//     ValidCombination
//   - PriceCents/Currency are fixed at registration time so historical
//     registrations stay stable when the conference price changes
//   - Mutated only through the transition operations of the service;
//     never hard-deleted (cancellation is a status change)
type Registration struct {
	ID            id.RegistrationID `json:"id"`
	ConferenceID  id.ConferenceID   `json:"conference_id"`
	UserID        id.UserID         `json:"user_id"` // nil UUID when anonymous
	Status        Status            `json:"status"`
	PaymentStatus PaymentStatus     `json:"payment_status"`
	PriceCents    int64             `json:"price_cents"`
	Currency      string            `json:"currency"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// NewRegistration constructs a registration in its initial pending/unpaid
// state.
func NewRegistration(regID id.RegistrationID, confID id.ConferenceID, userID id.UserID, priceCents int64, currency string, now time.Time) (*Registration, error) {
	if priceCents < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "price must not be negative")
	}
	if currency == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "currency is required")
	}
	return &Registration{
		ID:            regID,
		ConferenceID:  confID,
		UserID:        userID,
		Status:        StatusPending,
		PaymentStatus: PaymentUnpaid,
		PriceCents:    priceCents,
		Currency:      currency,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// CanApprove checks the approval transition. Already-confirmed registrations
// are reported separately so callers can short-circuit instead of failing:
// a retried approve must not grow the status history.
func (r *Registration) CanApprove() (alreadyConfirmed bool, err error) {
	if r.Status == StatusConfirmed {
		return true, nil
	}
	if r.Status == StatusCancelled {
		return false, dErrors.New(dErrors.CodeInvariantViolation, "cancelled registration cannot be approved")
	}
	return false, nil
}

// ApplyApproval confirms the registration. PaymentStatus resets to unpaid
// regardless of prior state: approval signals "payment now owed".
func (r *Registration) ApplyApproval(now time.Time) {
	r.Status = StatusConfirmed
	r.PaymentStatus = PaymentUnpaid
	r.UpdatedAt = now
}

// CanDeny checks the denial transition, reporting an already-cancelled
// registration separately for retry short-circuiting.
func (r *Registration) CanDeny() (alreadyCancelled bool) {
	return r.Status == StatusCancelled
}

// ApplyDenial cancels the registration. The payment axis is untouched so a
// later refund workflow still sees what was paid.
func (r *Registration) ApplyDenial(now time.Time) {
	r.Status = StatusCancelled
	r.UpdatedAt = now
}

// StatusHistoryEntry is one row of the append-only transition trail. Rows are
// never mutated or deleted; display order is CreatedAt descending.
type StatusHistoryEntry struct {
	ID             id.NoteID         `json:"id"`
	RegistrationID id.RegistrationID `json:"registration_id"`
	PreviousStatus Status            `json:"previous_status"`
	NewStatus      Status            `json:"new_status"`
	ChangedByID    id.UserID         `json:"changed_by_id"`
	Reason         string            `json:"reason,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Note is an admin-authored annotation on a registration.
type Note struct {
	ID             id.NoteID         `json:"id"`
	RegistrationID id.RegistrationID `json:"registration_id"`
	AuthorID       id.UserID         `json:"author_id"`
	Body           string            `json:"body"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Attachment references a file uploaded against a registration. File content
// lives in external storage; this core only tracks the reference.
type Attachment struct {
	ID             id.NoteID         `json:"id"`
	RegistrationID id.RegistrationID `json:"registration_id"`
	FileName       string            `json:"file_name"`
	ContentType    string            `json:"content_type"`
	SizeBytes      int64             `json:"size_bytes"`
	CreatedAt      time.Time         `json:"created_at"`
}
