package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "confreg/pkg/domain"

	"confreg/internal/registration/models"
	"confreg/pkg/platform/sentinel"
)

// PostgresPaymentStore reads payment facts. Writes happen here only for
// seeding; the capture integration is the production writer.
//
// Expected schema:
//
//	CREATE TABLE payments (
//	    id              UUID PRIMARY KEY,
//	    registration_id UUID NOT NULL REFERENCES registrations (id),
//	    amount_cents    BIGINT NOT NULL,
//	    currency        TEXT NOT NULL,
//	    state           TEXT NOT NULL,
//	    created_at      TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX payments_registration_idx ON payments (registration_id);
type PostgresPaymentStore struct {
	db *sql.DB
}

func NewPostgresPaymentStore(db *sql.DB) *PostgresPaymentStore {
	return &PostgresPaymentStore{db: db}
}

func (s *PostgresPaymentStore) Create(ctx context.Context, p models.Payment) error {
	_, err := querierFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO payments (id, registration_id, amount_cents, currency, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		uuid.UUID(p.ID),
		uuid.UUID(p.RegistrationID),
		p.AmountCents,
		p.Currency,
		string(p.State),
		p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (s *PostgresPaymentStore) FindByID(ctx context.Context, paymentID id.PaymentID) (*models.Payment, error) {
	row := querierFrom(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, registration_id, amount_cents, currency, state, created_at
		FROM payments WHERE id = $1
	`, uuid.UUID(paymentID))

	p, err := scanPayment(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostgresPaymentStore) ListByRegistration(ctx context.Context, regID id.RegistrationID) ([]models.Payment, error) {
	rows, err := querierFrom(ctx, s.db).QueryContext(ctx, `
		SELECT id, registration_id, amount_cents, currency, state, created_at
		FROM payments
		WHERE registration_id = $1
		ORDER BY created_at ASC
	`, uuid.UUID(regID))
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []models.Payment
	for rows.Next() {
		p, err := scanPayment(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanPayment(scan func(dest ...any) error) (*models.Payment, error) {
	var (
		p         models.Payment
		paymentID uuid.UUID
		regID     uuid.UUID
		state     string
	)
	if err := scan(&paymentID, &regID, &p.AmountCents, &p.Currency, &state, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.ID = id.PaymentID(paymentID)
	p.RegistrationID = id.RegistrationID(regID)
	p.State = models.PaymentState(state)
	return &p, nil
}
