package handler

import (
	"strings"

	dErrors "confreg/pkg/domain-errors"

	"confreg/internal/registration/models"
)

type registerRequest struct {
	ConferenceID string `json:"conference_id"`
	PriceCents   int64  `json:"price_cents"`
	Currency     string `json:"currency"`
}

func (r registerRequest) Validate() error {
	if strings.TrimSpace(r.ConferenceID) == "" {
		return dErrors.New(dErrors.CodeValidation, "conference_id is required")
	}
	if r.PriceCents < 0 {
		return dErrors.New(dErrors.CodeValidation, "price_cents must not be negative")
	}
	if strings.TrimSpace(r.Currency) == "" {
		return dErrors.New(dErrors.CodeValidation, "currency is required")
	}
	return nil
}

type approveRequest struct {
	Note string `json:"note,omitempty"`
}

func (r approveRequest) Validate() error { return nil }

type denyRequest struct {
	Reason string `json:"reason"`
}

func (r denyRequest) Validate() error {
	if strings.TrimSpace(r.Reason) == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required")
	}
	return nil
}

type updateStatusRequest struct {
	Status        string  `json:"status"`
	PaymentStatus *string `json:"payment_status,omitempty"`
	Reason        string  `json:"reason,omitempty"`
}

func (r updateStatusRequest) Validate() error {
	if !models.Status(r.Status).Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown status %q", r.Status)
	}
	if r.PaymentStatus != nil && !models.PaymentStatus(*r.PaymentStatus).Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown payment status %q", *r.PaymentStatus)
	}
	return nil
}
