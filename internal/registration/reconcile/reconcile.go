// Package reconcile derives a registration's payment position from its raw
// payment facts. The computation is pure: no store access, no clock, so any
// caller (service, projection, tests) gets identical results for identical
// inputs.
package reconcile

import "confreg/internal/registration/models"

// Result is the derived payment position for one registration.
type Result struct {
	// PaidCents is the sum of succeeded payment amounts.
	PaidCents int64 `json:"paid_cents"`
	// RefundedCents is the sum of refunded payment amounts.
	RefundedCents int64 `json:"refunded_cents"`
	// NetPaidCents is paid minus refunded, clamped at zero. Over-refunds
	// (provider goodwill credits) never drive the position negative.
	NetPaidCents int64 `json:"net_paid_cents"`
	// DueCents is the nominal price minus net paid, clamped at zero.
	DueCents int64 `json:"due_cents"`
	// FullyPaid reports net paid covering a positive nominal price. A free
	// registration is never "fully paid"; there is nothing to pay.
	FullyPaid bool `json:"fully_paid"`
}

// Reconcile folds payments into a Result against the registration's nominal
// price. Pending and failed payments contribute nothing; only settled money
// counts. Input order is irrelevant.
func Reconcile(payments []models.Payment, nominalPriceCents int64) Result {
	var res Result
	for _, p := range payments {
		switch p.State {
		case models.PaymentStateSucceeded:
			res.PaidCents += p.AmountCents
		case models.PaymentStateRefunded:
			res.RefundedCents += p.AmountCents
		}
	}

	res.NetPaidCents = max(res.PaidCents-res.RefundedCents, 0)
	res.DueCents = max(nominalPriceCents-res.NetPaidCents, 0)
	res.FullyPaid = nominalPriceCents > 0 && res.NetPaidCents >= nominalPriceCents
	return res
}
