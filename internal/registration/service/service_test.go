package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	id "confreg/pkg/domain"
	dErrors "confreg/pkg/domain-errors"

	"confreg/internal/activity"
	"confreg/internal/activity/logger/mocks"
	"confreg/internal/registration/models"
	"confreg/internal/registration/store"
	"confreg/pkg/platform/sentinel"
	"confreg/pkg/requestcontext"
)

type fixture struct {
	svc           *Service
	registrations *store.InMemoryRegistrationStore
	history       *store.InMemoryHistoryStore
	notes         *store.InMemoryNoteStore
	attachments   *store.InMemoryAttachmentStore
	payments      *store.InMemoryPaymentStore
	emitter       *mocks.MockEmitter
}

// newFixture wires the service against in-memory stores and a strict emitter
// mock: any emission without an expectation fails the test, which is exactly
// what the atomicity tests rely on.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		registrations: store.NewInMemoryRegistrationStore(),
		history:       store.NewInMemoryHistoryStore(),
		notes:         store.NewInMemoryNoteStore(),
		attachments:   store.NewInMemoryAttachmentStore(),
		payments:      store.NewInMemoryPaymentStore(),
		emitter:       mocks.NewMockEmitter(ctrl),
	}
	f.svc = New(f.registrations, f.history, f.notes, f.attachments, f.payments, store.NewInMemoryTransactor(), f.emitter)
	return f
}

func (f *fixture) seed(t *testing.T, status models.Status, payment models.PaymentStatus) *models.Registration {
	t.Helper()
	reg, err := models.NewRegistration(id.NewRegistrationID(), id.NewConferenceID(), id.NewUserID(), 15000, "EUR", time.Now())
	require.NoError(t, err)
	reg.Status = status
	reg.PaymentStatus = payment
	require.NoError(t, f.registrations.Create(context.Background(), reg))
	return reg
}

func admin() Actor { return Actor{ID: id.NewUserID(), Admin: true} }

func TestRegister(t *testing.T) {
	t.Run("creates pending unpaid registration and emits both channels", func(t *testing.T) {
		f := newFixture(t)
		actor := Actor{ID: id.NewUserID()}
		confID := id.NewConferenceID()

		f.emitter.EXPECT().NotifyUser(gomock.Any(), actor.ID, gomock.Any())
		var audited activity.AppEvent
		f.emitter.EXPECT().Audit(gomock.Any(), actor.ID, gomock.Any()).
			Do(func(_ context.Context, _ id.UserID, event activity.AppEvent) { audited = event })

		reg, err := f.svc.Register(context.Background(), actor, confID, 15000, "EUR")
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, reg.Status)
		assert.Equal(t, models.PaymentUnpaid, reg.PaymentStatus)
		assert.Equal(t, activity.ActionCreated, audited.Action)
		assert.Equal(t, reg.ID.String(), audited.EntityID)
	})

	t.Run("rejects negative price as validation error", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Register(context.Background(), admin(), id.NewConferenceID(), -5, "EUR")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestApprove(t *testing.T) {
	t.Run("confirms and resets payment axis", func(t *testing.T) {
		f := newFixture(t)
		reg := f.seed(t, models.StatusPending, models.PaymentPending)
		actor := admin()

		var notified activity.UserEvent
		f.emitter.EXPECT().NotifyUser(gomock.Any(), reg.UserID, gomock.Any()).
			Do(func(_ context.Context, _ id.UserID, event activity.UserEvent) { notified = event })
		var audited activity.AppEvent
		f.emitter.EXPECT().Audit(gomock.Any(), actor.ID, gomock.Any()).
			Do(func(_ context.Context, _ id.UserID, event activity.AppEvent) { audited = event })

		updated, err := f.svc.Approve(context.Background(), reg.ID, actor, "")
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, updated.Status)
		assert.Equal(t, models.PaymentUnpaid, updated.PaymentStatus, "approval resets the payment axis")

		trail, err := f.history.ListByRegistration(context.Background(), reg.ID)
		require.NoError(t, err)
		require.Len(t, trail, 1)
		assert.Equal(t, models.StatusPending, trail[0].PreviousStatus)
		assert.Equal(t, "Approved by admin", trail[0].Reason)

		assert.Equal(t, "Registration Approved", notified.Title)
		require.NotEmpty(t, notified.Actions)
		assert.Equal(t, "Make Payment", notified.Actions[0].Label)
		assert.Equal(t, activity.SeverityGood, audited.Severity)
	})

	t.Run("stores the note when provided", func(t *testing.T) {
		f := newFixture(t)
		reg := f.seed(t, models.StatusPending, models.PaymentUnpaid)
		actor := admin()
		f.emitter.EXPECT().NotifyUser(gomock.Any(), gomock.Any(), gomock.Any())
		f.emitter.EXPECT().Audit(gomock.Any(), gomock.Any(), gomock.Any())

		_, err := f.svc.Approve(context.Background(), reg.ID, actor, "speaker comp")
		require.NoError(t, err)

		notes, err := f.notes.ListByRegistration(context.Background(), reg.ID)
		require.NoError(t, err)
		require.Len(t, notes, 1)
		assert.Equal(t, "speaker comp", notes[0].Body)

		trail, _ := f.history.ListByRegistration(context.Background(), reg.ID)
		assert.Equal(t, "speaker comp", trail[0].Reason)
	})

	// Justification: a timed-out approve gets retried. The retry must not grow
	// the history or re-notify the user.
	t.Run("already confirmed is a silent no-op", func(t *testing.T) {
		f := newFixture(t)
		reg := f.seed(t, models.StatusPending, models.PaymentUnpaid)
		actor := admin()
		f.emitter.EXPECT().NotifyUser(gomock.Any(), gomock.Any(), gomock.Any())
		f.emitter.EXPECT().Audit(gomock.Any(), gomock.Any(), gomock.Any())

		_, err := f.svc.Approve(context.Background(), reg.ID, actor, "")
		require.NoError(t, err)

		for range 3 {
			updated, err := f.svc.Approve(context.Background(), reg.ID, actor, "")
			require.NoError(t, err)
			assert.Equal(t, models.StatusConfirmed, updated.Status)
		}

		trail, err := f.history.ListByRegistration(context.Background(), reg.ID)
		require.NoError(t, err)
		assert.Len(t, trail, 1, "retries must not grow the trail")
	})

	t.Run("cancelled registration cannot be approved", func(t *testing.T) {
		f := newFixture(t)
		reg := f.seed(t, models.StatusCancelled, models.PaymentUnpaid)

		_, err := f.svc.Approve(context.Background(), reg.ID, admin(), "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		trail, _ := f.history.ListByRegistration(context.Background(), reg.ID)
		assert.Empty(t, trail)
	})

	t.Run("non-admin is forbidden before any state change", func(t *testing.T) {
		f := newFixture(t)
		reg := f.seed(t, models.StatusPending, models.PaymentUnpaid)

		_, err := f.svc.Approve(context.Background(), reg.ID, Actor{ID: reg.UserID}, "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

		stored, _ := f.registrations.FindByID(context.Background(), reg.ID)
		assert.Equal(t, models.StatusPending, stored.Status)
	})

	t.Run("missing registration", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Approve(context.Background(), id.NewRegistrationID(), admin(), "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestDeny(t *testing.T) {
	t.Run("cancels with reason, leaving the payment axis alone", func(t *testing.T) {
		f := newFixture(t)
		reg := f.seed(t, models.StatusConfirmed, models.PaymentPaid)
		actor := admin()

		var notified activity.UserEvent
		f.emitter.EXPECT().NotifyUser(gomock.Any(), reg.UserID, gomock.Any()).
			Do(func(_ context.Context, _ id.UserID, event activity.UserEvent) { notified = event })
		var audited activity.AppEvent
		f.emitter.EXPECT().Audit(gomock.Any(), actor.ID, gomock.Any()).
			Do(func(_ context.Context, _ id.UserID, event activity.AppEvent) { audited = event })

		updated, err := f.svc.Deny(context.Background(), reg.ID, actor, "not a member")
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, updated.Status)
		assert.Equal(t, models.PaymentPaid, updated.PaymentStatus)

		trail, _ := f.history.ListByRegistration(context.Background(), reg.ID)
		require.Len(t, trail, 1)
		assert.Equal(t, "not a member", trail[0].Reason)

		notes, _ := f.notes.ListByRegistration(context.Background(), reg.ID)
		require.Len(t, notes, 1)
		assert.Contains(t, notes[0].Body, "not a member")

		assert.Equal(t, "Registration Denied", notified.Title)
		assert.Equal(t, activity.SeverityWarning, audited.Severity)
		assert.Equal(t, activity.ActionRejected, audited.Action)
	})

	t.Run("rejects empty and whitespace reasons", func(t *testing.T) {
		f := newFixture(t)
		reg := f.seed(t, models.StatusPending, models.PaymentUnpaid)

		for _, reason := range []string{"", "   "} {
			_, err := f.svc.Deny(context.Background(), reg.ID, admin(), reason)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		}

		stored, _ := f.registrations.FindByID(context.Background(), reg.ID)
		assert.Equal(t, models.StatusPending, stored.Status, "no state change on rejected deny")
	})

	t.Run("already cancelled is a silent no-op", func(t *testing.T) {
		f := newFixture(t)
		reg := f.seed(t, models.StatusCancelled, models.PaymentUnpaid)

		updated, err := f.svc.Deny(context.Background(), reg.ID, admin(), "again")
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, updated.Status)

		trail, _ := f.history.ListByRegistration(context.Background(), reg.ID)
		assert.Empty(t, trail)
	})
}

func TestUpdateStatus(t *testing.T) {
	t.Run("applies both axes and records history without activity", func(t *testing.T) {
		f := newFixture(t)
		reg := f.seed(t, models.StatusConfirmed, models.PaymentUnpaid)
		paid := models.PaymentPaid

		updated, err := f.svc.UpdateStatus(context.Background(), reg.ID, admin(), models.StatusConfirmed, &paid, "bank transfer arrived")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentPaid, updated.PaymentStatus)

		trail, _ := f.history.ListByRegistration(context.Background(), reg.ID)
		require.Len(t, trail, 1)
		assert.Equal(t, "bank transfer arrived", trail[0].Reason)
	})

	t.Run("permits off-invariant corrections", func(t *testing.T) {
		f := newFixture(t)
		reg := f.seed(t, models.StatusConfirmed, models.PaymentPaid)

		// Repairing data can legitimately pass through odd combinations.
		updated, err := f.svc.UpdateStatus(context.Background(), reg.ID, admin(), models.StatusPending, nil, "")
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, updated.Status)
		assert.Equal(t, models.PaymentPaid, updated.PaymentStatus)
	})

	t.Run("rejects unknown enum values", func(t *testing.T) {
		f := newFixture(t)
		reg := f.seed(t, models.StatusPending, models.PaymentUnpaid)

		_, err := f.svc.UpdateStatus(context.Background(), reg.ID, admin(), "archived", nil, "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		bad := models.PaymentStatus("chargeback")
		_, err = f.svc.UpdateStatus(context.Background(), reg.ID, admin(), models.StatusPending, &bad, "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("requires admin capability", func(t *testing.T) {
		f := newFixture(t)
		reg := f.seed(t, models.StatusPending, models.PaymentUnpaid)

		_, err := f.svc.UpdateStatus(context.Background(), reg.ID, Actor{ID: reg.UserID}, models.StatusConfirmed, nil, "")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

// failingRegistrationStore rejects every Execute, simulating a primary
// mutation failure.
type failingRegistrationStore struct {
	*store.InMemoryRegistrationStore
}

func (s failingRegistrationStore) Execute(context.Context, id.RegistrationID, func(*models.Registration) error, func(*models.Registration)) (*models.Registration, error) {
	return nil, errors.New("connection reset")
}

// Justification: a failing primary mutation must produce zero activity
// records. The strict mock fails the test on any emission.
func TestApprove_NoActivityOnFailedMutation(t *testing.T) {
	f := newFixture(t)
	reg := f.seed(t, models.StatusPending, models.PaymentUnpaid)
	f.svc.registrations = failingRegistrationStore{f.registrations}

	_, err := f.svc.Approve(context.Background(), reg.ID, admin(), "")
	require.Error(t, err)

	trail, _ := f.history.ListByRegistration(context.Background(), reg.ID)
	assert.Empty(t, trail, "no history row on failed mutation")
}

func TestQueries(t *testing.T) {
	t.Run("reconciliation reflects the current payment set", func(t *testing.T) {
		f := newFixture(t)
		reg := f.seed(t, models.StatusConfirmed, models.PaymentPartial)
		owner := Actor{ID: reg.UserID}

		require.NoError(t, f.payments.Create(context.Background(), models.Payment{
			ID: id.NewPaymentID(), RegistrationID: reg.ID, AmountCents: 10000, Currency: "EUR",
			State: models.PaymentStateSucceeded, CreatedAt: time.Now(),
		}))

		rec, err := f.svc.GetReconciliation(context.Background(), reg.ID, owner)
		require.NoError(t, err)
		assert.Equal(t, int64(10000), rec.NetPaidCents)
		assert.Equal(t, int64(5000), rec.DueCents)
	})

	t.Run("owner and admin may read, strangers may not", func(t *testing.T) {
		f := newFixture(t)
		reg := f.seed(t, models.StatusPending, models.PaymentUnpaid)

		_, err := f.svc.GetRegistration(context.Background(), reg.ID, Actor{ID: reg.UserID})
		require.NoError(t, err)
		_, err = f.svc.GetRegistration(context.Background(), reg.ID, admin())
		require.NoError(t, err)
		_, err = f.svc.GetRegistration(context.Background(), reg.ID, Actor{ID: id.NewUserID()})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("my status falls back to not_registered", func(t *testing.T) {
		f := newFixture(t)
		view, err := f.svc.MyStatus(context.Background(), Actor{ID: id.NewUserID()}, id.NewConferenceID(), "")
		require.NoError(t, err)
		assert.Equal(t, "not_registered", string(view.State))
	})

	t.Run("notes are admin-only", func(t *testing.T) {
		f := newFixture(t)
		reg := f.seed(t, models.StatusPending, models.PaymentUnpaid)

		_, err := f.svc.ListNotes(context.Background(), reg.ID, Actor{ID: reg.UserID})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

		_, err = f.svc.ListNotes(context.Background(), reg.ID, admin())
		require.NoError(t, err)
	})
}

func TestApprove_UsesRequestScopedTime(t *testing.T) {
	f := newFixture(t)
	reg := f.seed(t, models.StatusPending, models.PaymentUnpaid)
	fixed := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), fixed)

	f.emitter.EXPECT().NotifyUser(gomock.Any(), gomock.Any(), gomock.Any())
	f.emitter.EXPECT().Audit(gomock.Any(), gomock.Any(), gomock.Any())

	updated, err := f.svc.Approve(ctx, reg.ID, admin(), "")
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.Equal(fixed))

	trail, _ := f.history.ListByRegistration(context.Background(), reg.ID)
	require.Len(t, trail, 1)
	assert.True(t, trail[0].CreatedAt.Equal(fixed))
}

// failingHistoryStore rejects every Append and records whether the call
// arrived inside the transition's transactional scope.
type failingHistoryStore struct {
	*store.InMemoryHistoryStore
	sawTxScope bool
}

func (s *failingHistoryStore) Append(ctx context.Context, _ models.StatusHistoryEntry) error {
	s.sawTxScope = ctx.Value(txScopeKey{}) != nil
	return errors.New("disk full")
}

type txScopeKey struct{}

// scopedTransactor marks the context it hands to the unit of work, so stores
// can prove they joined the scope the transactor controls.
type scopedTransactor struct {
	calls int
}

func (t *scopedTransactor) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	t.calls++
	return fn(context.WithValue(ctx, txScopeKey{}, true))
}

// Justification: the status update and its history row must live or die
// together. A history append failure has to surface as an error, emit no
// activity, and run inside the same transactional scope as the status
// update, so the SQL transactor can roll the transition back instead of
// stranding a confirmed registration with no pending→confirmed trail row.
func TestApprove_HistoryAppendFailureStaysAtomic(t *testing.T) {
	f := newFixture(t)
	reg := f.seed(t, models.StatusPending, models.PaymentUnpaid)

	history := &failingHistoryStore{InMemoryHistoryStore: f.history}
	transactor := &scopedTransactor{}
	f.svc.history = history
	f.svc.tx = transactor

	_, err := f.svc.Approve(context.Background(), reg.ID, admin(), "")
	require.Error(t, err, "a lost history row must not read as success")

	assert.Equal(t, 1, transactor.calls, "transition runs in exactly one transactional scope")
	assert.True(t, history.sawTxScope, "history append joins the transition's scope")
}

// Justification: Deny and UpdateStatus carry the same trail guarantee as
// Approve.
func TestDenyAndUpdateStatus_HistoryAppendJoinsTxScope(t *testing.T) {
	for name, call := range map[string]func(f *fixture, regID id.RegistrationID) error{
		"deny": func(f *fixture, regID id.RegistrationID) error {
			_, err := f.svc.Deny(context.Background(), regID, admin(), "duplicate submission")
			return err
		},
		"update status": func(f *fixture, regID id.RegistrationID) error {
			_, err := f.svc.UpdateStatus(context.Background(), regID, admin(), models.StatusConfirmed, nil, "")
			return err
		},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			reg := f.seed(t, models.StatusPending, models.PaymentUnpaid)

			history := &failingHistoryStore{InMemoryHistoryStore: f.history}
			f.svc.history = history
			f.svc.tx = &scopedTransactor{}

			require.Error(t, call(f, reg.ID))
			assert.True(t, history.sawTxScope)
		})
	}
}

func TestRejectionReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"missing registration", sentinel.ErrNotFound, "not_found"},
		{"wrapped missing registration", fmt.Errorf("load: %w", sentinel.ErrNotFound), "not_found"},
		{"illegal transition", dErrors.New(dErrors.CodeInvariantViolation, "cannot approve a cancelled registration"), "invalid_transition"},
		{"infrastructure failure", errors.New("connection reset"), "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, rejectionReason(tc.err))
		})
	}
}

func TestListAttachments(t *testing.T) {
	f := newFixture(t)
	reg := f.seed(t, models.StatusConfirmed, models.PaymentPaid)
	require.NoError(t, f.attachments.Append(context.Background(), models.Attachment{
		ID:             id.NewNoteID(),
		RegistrationID: reg.ID,
		FileName:       "invoice.pdf",
		ContentType:    "application/pdf",
		SizeBytes:      48213,
		CreatedAt:      time.Now(),
	}))

	t.Run("owner sees the file references", func(t *testing.T) {
		attachments, err := f.svc.ListAttachments(context.Background(), reg.ID, Actor{ID: reg.UserID})
		require.NoError(t, err)
		require.Len(t, attachments, 1)
		assert.Equal(t, "invoice.pdf", attachments[0].FileName)
	})

	t.Run("strangers may not", func(t *testing.T) {
		_, err := f.svc.ListAttachments(context.Background(), reg.ID, Actor{ID: id.NewUserID()})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}
