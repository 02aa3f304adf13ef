// Package projection derives the presentation-oriented status view shown on a
// user's dashboard. Pure derivation over the registration and its reconciled
// payment position; rendering is the consumer's problem.
package projection

import (
	"fmt"

	"confreg/internal/registration/models"
	"confreg/internal/registration/reconcile"
)

// State is the dashboard-level status, one notch coarser than the
// registration status (it adds not_registered and an unknown fallback).
type State string

const (
	StateNotRegistered State = "not_registered"
	StatePending       State = "pending"
	StateConfirmed     State = "confirmed"
	StateCancelled     State = "cancelled"
	StateUnknown       State = "unknown"
)

// Actions holds the call-to-action labels for a view. Secondary is empty when
// the view offers a single action.
type Actions struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary,omitempty"`
}

// StatusView is the fixed display record consumed by the dashboard. The
// consuming surface renders it verbatim.
type StatusView struct {
	State        State   `json:"state"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	IconRef      string  `json:"icon_ref"`
	BadgeVariant string  `json:"badge_variant"`
	BadgeText    string  `json:"badge_text"`
	Actions      Actions `json:"available_actions"`
}

// NotRegistered is the view for a user with no registration at all.
func NotRegistered(conferenceDateLabel string) StatusView {
	description := "You have not registered for this conference yet."
	if conferenceDateLabel != "" {
		description = fmt.Sprintf("You have not registered for this conference yet. It takes place %s.", conferenceDateLabel)
	}
	return StatusView{
		State:        StateNotRegistered,
		Title:        "Not Registered",
		Description:  description,
		IconRef:      "ticket-plus",
		BadgeVariant: "neutral",
		BadgeText:    "Not Registered",
		Actions:      Actions{Primary: "Register Now"},
	}
}

// ProjectStatus maps a registration plus its reconciled payment position to a
// StatusView. Total over every reachable (status, paymentStatus) pair; an
// unrecognized combination falls back to a generic unknown view instead of
// failing, so a data repair gone wrong degrades rather than breaks the
// dashboard.
func ProjectStatus(reg *models.Registration, rec reconcile.Result, conferenceDateLabel string) StatusView {
	if reg == nil {
		return NotRegistered(conferenceDateLabel)
	}

	switch reg.Status {
	case models.StatusPending:
		return pendingView(reg)
	case models.StatusCancelled:
		return cancelledView()
	case models.StatusConfirmed:
		if view, ok := confirmedView(reg, rec); ok {
			return view
		}
	}
	return unknownView()
}

func pendingView(reg *models.Registration) StatusView {
	view := StatusView{
		State:        StatePending,
		Title:        "Registration Pending",
		Description:  "Your registration is awaiting review by the organizers.",
		IconRef:      "hourglass",
		BadgeVariant: "warning",
		BadgeText:    "Pending Review",
		Actions:      Actions{Primary: "View Details", Secondary: "Cancel Registration"},
	}
	if reg.PaymentStatus == models.PaymentPending {
		view.Description = "Your registration is awaiting review. A payment is already in flight and will be applied once you are approved."
	}
	return view
}

func cancelledView() StatusView {
	return StatusView{
		State:        StateCancelled,
		Title:        "Registration Cancelled",
		Description:  "This registration has been cancelled. If you believe this is a mistake, get in touch.",
		IconRef:      "circle-x",
		BadgeVariant: "destructive",
		BadgeText:    "Cancelled",
		Actions:      Actions{Primary: "Contact Support", Secondary: "Register Again"},
	}
}

func confirmedView(reg *models.Registration, rec reconcile.Result) (StatusView, bool) {
	switch reg.PaymentStatus {
	case models.PaymentUnpaid:
		return StatusView{
			State:        StateConfirmed,
			Title:        "Registration Confirmed",
			Description:  fmt.Sprintf("You are in. Payment of %s is now due.", formatAmount(rec.DueCents, reg.Currency)),
			IconRef:      "circle-check",
			BadgeVariant: "warning",
			BadgeText:    "Payment Due",
			Actions:      Actions{Primary: "Make Payment", Secondary: "View Details"},
		}, true
	case models.PaymentPending:
		return StatusView{
			State:        StateConfirmed,
			Title:        "Payment Processing",
			Description:  "Your payment is being processed. This usually takes a few minutes.",
			IconRef:      "loader",
			BadgeVariant: "warning",
			BadgeText:    "Payment Pending",
			Actions:      Actions{Primary: "Make Payment", Secondary: "View Details"},
		}, true
	case models.PaymentPaid:
		return StatusView{
			State:        StateConfirmed,
			Title:        "You're All Set",
			Description:  "Registration confirmed and paid in full. See you there.",
			IconRef:      "badge-check",
			BadgeVariant: "success",
			BadgeText:    "Paid",
			Actions:      Actions{Primary: "Download Ticket", Secondary: "View Details"},
		}, true
	case models.PaymentPartial:
		return StatusView{
			State:        StateConfirmed,
			Title:        "Payment Incomplete",
			Description:  fmt.Sprintf("%s received, %s still due.", formatAmount(rec.NetPaidCents, reg.Currency), formatAmount(rec.DueCents, reg.Currency)),
			IconRef:      "circle-alert",
			BadgeVariant: "warning",
			BadgeText:    "Partially Paid",
			Actions:      Actions{Primary: "Complete Payment", Secondary: "View Details"},
		}, true
	case models.PaymentRefunded:
		return StatusView{
			State:        StateConfirmed,
			Title:        "Payment Refunded",
			Description:  fmt.Sprintf("Your payment of %s was refunded. The registration remains confirmed until the organizers decide otherwise.", formatAmount(rec.RefundedCents, reg.Currency)),
			IconRef:      "rotate-ccw",
			BadgeVariant: "neutral",
			BadgeText:    "Refunded",
			Actions:      Actions{Primary: "Contact Support", Secondary: "View Details"},
		}, true
	}
	return StatusView{}, false
}

func unknownView() StatusView {
	return StatusView{
		State:        StateUnknown,
		Title:        "Registration Status Unavailable",
		Description:  "We could not determine the state of this registration. Please contact support.",
		IconRef:      "circle-help",
		BadgeVariant: "neutral",
		BadgeText:    "Unknown",
		Actions:      Actions{Primary: "Contact Support"},
	}
}

func formatAmount(cents int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, currency)
}
