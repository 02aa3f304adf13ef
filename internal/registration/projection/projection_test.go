package projection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "confreg/pkg/domain"

	"confreg/internal/registration/models"
	"confreg/internal/registration/reconcile"
)

func registrationIn(status models.Status, payment models.PaymentStatus) *models.Registration {
	return &models.Registration{
		ID:            id.NewRegistrationID(),
		ConferenceID:  id.NewConferenceID(),
		UserID:        id.NewUserID(),
		Status:        status,
		PaymentStatus: payment,
		PriceCents:    15000,
		Currency:      "EUR",
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

// Justification: the dashboard must render something for every state the
// engine can produce. Each reachable pair maps to a view with a title.
func TestProjectStatus_Totality(t *testing.T) {
	reachable := []struct {
		status  models.Status
		payment models.PaymentStatus
	}{
		{models.StatusPending, models.PaymentUnpaid},
		{models.StatusPending, models.PaymentPending},
		{models.StatusCancelled, models.PaymentUnpaid},
		{models.StatusCancelled, models.PaymentPending},
		{models.StatusConfirmed, models.PaymentUnpaid},
		{models.StatusConfirmed, models.PaymentPending},
		{models.StatusConfirmed, models.PaymentPaid},
		{models.StatusConfirmed, models.PaymentPartial},
		{models.StatusConfirmed, models.PaymentRefunded},
	}

	for _, pair := range reachable {
		t.Run(string(pair.status)+"/"+string(pair.payment), func(t *testing.T) {
			view := ProjectStatus(registrationIn(pair.status, pair.payment), reconcile.Result{}, "")
			assert.NotEmpty(t, view.Title)
			assert.NotEmpty(t, view.Actions.Primary)
			assert.NotEqual(t, StateUnknown, view.State)
		})
	}
}

func TestProjectStatus_Actions(t *testing.T) {
	tests := []struct {
		name    string
		status  models.Status
		payment models.PaymentStatus
		want    Actions
	}{
		{"confirmed unpaid offers payment", models.StatusConfirmed, models.PaymentUnpaid, Actions{Primary: "Make Payment", Secondary: "View Details"}},
		{"confirmed pending offers payment", models.StatusConfirmed, models.PaymentPending, Actions{Primary: "Make Payment", Secondary: "View Details"}},
		{"confirmed paid offers the ticket", models.StatusConfirmed, models.PaymentPaid, Actions{Primary: "Download Ticket", Secondary: "View Details"}},
		{"partial payment prompts completion", models.StatusConfirmed, models.PaymentPartial, Actions{Primary: "Complete Payment", Secondary: "View Details"}},
		{"cancelled points at support", models.StatusCancelled, models.PaymentUnpaid, Actions{Primary: "Contact Support", Secondary: "Register Again"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := ProjectStatus(registrationIn(tt.status, tt.payment), reconcile.Result{}, "")
			assert.Equal(t, tt.want, view.Actions)
		})
	}
}

func TestProjectStatus_NotRegistered(t *testing.T) {
	view := ProjectStatus(nil, reconcile.Result{}, "June 12-14, 2027")
	assert.Equal(t, StateNotRegistered, view.State)
	assert.Equal(t, Actions{Primary: "Register Now"}, view.Actions, "single action, no secondary")
	assert.Contains(t, view.Description, "June 12-14, 2027")
}

func TestProjectStatus_UnknownFallback(t *testing.T) {
	// Direct data repair can leave combinations the engine never produces.
	// The projection degrades instead of crashing.
	for _, reg := range []*models.Registration{
		registrationIn("archived", models.PaymentUnpaid),
		registrationIn(models.StatusConfirmed, "chargeback"),
	} {
		view := ProjectStatus(reg, reconcile.Result{}, "")
		require.Equal(t, StateUnknown, view.State)
		assert.NotEmpty(t, view.Title)
	}
}

func TestProjectStatus_AmountsFromReconciliation(t *testing.T) {
	rec := reconcile.Result{PaidCents: 5000, NetPaidCents: 5000, DueCents: 10000}
	view := ProjectStatus(registrationIn(models.StatusConfirmed, models.PaymentPartial), rec, "")
	assert.Contains(t, view.Description, "50.00 EUR")
	assert.Contains(t, view.Description, "100.00 EUR")
}
