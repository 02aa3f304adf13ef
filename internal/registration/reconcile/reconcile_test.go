package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"confreg/internal/registration/models"
)

func payment(state models.PaymentState, amountCents int64) models.Payment {
	return models.Payment{AmountCents: amountCents, Currency: "EUR", State: state}
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name     string
		payments []models.Payment
		nominal  int64
		want     Result
	}{
		{
			name:    "no payments",
			nominal: 10000,
			want:    Result{DueCents: 10000},
		},
		{
			name: "exact payment",
			payments: []models.Payment{
				payment(models.PaymentStateSucceeded, 10000),
			},
			nominal: 10000,
			want:    Result{PaidCents: 10000, NetPaidCents: 10000, FullyPaid: true},
		},
		{
			name: "partial payment leaves a balance",
			payments: []models.Payment{
				payment(models.PaymentStateSucceeded, 4000),
			},
			nominal: 10000,
			want:    Result{PaidCents: 4000, NetPaidCents: 4000, DueCents: 6000},
		},
		{
			name: "overpayment clamps due at zero",
			payments: []models.Payment{
				payment(models.PaymentStateSucceeded, 12000),
			},
			nominal: 10000,
			want:    Result{PaidCents: 12000, NetPaidCents: 12000, FullyPaid: true},
		},
		{
			name: "refund reopens the balance",
			payments: []models.Payment{
				payment(models.PaymentStateSucceeded, 10000),
				payment(models.PaymentStateRefunded, 10000),
			},
			nominal: 10000,
			want:    Result{PaidCents: 10000, RefundedCents: 10000, DueCents: 10000},
		},
		{
			name: "over-refund clamps net paid at zero",
			payments: []models.Payment{
				payment(models.PaymentStateSucceeded, 5000),
				payment(models.PaymentStateRefunded, 8000),
			},
			nominal: 10000,
			want:    Result{PaidCents: 5000, RefundedCents: 8000, DueCents: 10000},
		},
		{
			name: "pending and failed payments count for nothing",
			payments: []models.Payment{
				payment(models.PaymentStatePending, 10000),
				payment(models.PaymentStateFailed, 10000),
			},
			nominal: 10000,
			want:    Result{DueCents: 10000},
		},
		{
			name: "free registration is never fully paid",
			payments: []models.Payment{
				payment(models.PaymentStateSucceeded, 500),
			},
			nominal: 0,
			want:    Result{PaidCents: 500, NetPaidCents: 500},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reconcile(tt.payments, tt.nominal))
		})
	}
}

// Justification: payments arrive from the provider in webhook order, which is
// not settlement order. The position must not depend on slice order.
func TestReconcile_OrderIndependent(t *testing.T) {
	payments := []models.Payment{
		payment(models.PaymentStateSucceeded, 4000),
		payment(models.PaymentStateRefunded, 1500),
		payment(models.PaymentStateSucceeded, 6000),
		payment(models.PaymentStatePending, 9999),
		payment(models.PaymentStateFailed, 123),
	}
	want := Reconcile(payments, 10000)

	permute(payments, func(p []models.Payment) {
		assert.Equal(t, want, Reconcile(p, 10000))
	})

	assert.Equal(t, int64(10000), want.PaidCents)
	assert.Equal(t, int64(1500), want.RefundedCents)
	assert.Equal(t, int64(8500), want.NetPaidCents)
	assert.Equal(t, int64(1500), want.DueCents)
	assert.False(t, want.FullyPaid)
}

// permute visits every ordering of ps (Heap's algorithm).
func permute(ps []models.Payment, visit func([]models.Payment)) {
	var rec func(k int)
	rec = func(k int) {
		if k <= 1 {
			visit(ps)
			return
		}
		for i := range k {
			rec(k - 1)
			if k%2 == 0 {
				ps[i], ps[k-1] = ps[k-1], ps[i]
			} else {
				ps[0], ps[k-1] = ps[k-1], ps[0]
			}
		}
	}
	rec(len(ps))
}
