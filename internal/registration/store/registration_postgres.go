package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "confreg/pkg/domain"

	"confreg/internal/registration/models"
	"confreg/pkg/platform/sentinel"
	txcontext "confreg/pkg/platform/tx"
)

// PostgresRegistrationStore persists registrations.
//
// Expected schema:
//
//	CREATE TABLE registrations (
//	    id             UUID PRIMARY KEY,
//	    conference_id  UUID NOT NULL,
//	    user_id        UUID,
//	    status         TEXT NOT NULL,
//	    payment_status TEXT NOT NULL,
//	    price_cents    BIGINT NOT NULL,
//	    currency       TEXT NOT NULL,
//	    created_at     TIMESTAMPTZ NOT NULL,
//	    updated_at     TIMESTAMPTZ NOT NULL,
//	    UNIQUE (conference_id, user_id)
//	);
type PostgresRegistrationStore struct {
	db *sql.DB
}

func NewPostgresRegistrationStore(db *sql.DB) *PostgresRegistrationStore {
	return &PostgresRegistrationStore{db: db}
}

type dbQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func querierFrom(ctx context.Context, db *sql.DB) dbQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return db
}

const registrationColumns = `id, conference_id, user_id, status, payment_status,
	price_cents, currency, created_at, updated_at`

func (s *PostgresRegistrationStore) Create(ctx context.Context, reg *models.Registration) error {
	_, err := querierFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO registrations (`+registrationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		uuid.UUID(reg.ID),
		uuid.UUID(reg.ConferenceID),
		nullableUserID(reg.UserID),
		string(reg.Status),
		string(reg.PaymentStatus),
		reg.PriceCents,
		reg.Currency,
		reg.CreatedAt,
		reg.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (s *PostgresRegistrationStore) FindByID(ctx context.Context, regID id.RegistrationID) (*models.Registration, error) {
	row := querierFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1`,
		uuid.UUID(regID),
	)
	return scanRegistration(row)
}

func (s *PostgresRegistrationStore) FindByUserAndConference(ctx context.Context, userID id.UserID, confID id.ConferenceID) (*models.Registration, error) {
	row := querierFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE user_id = $1 AND conference_id = $2`,
		uuid.UUID(userID), uuid.UUID(confID),
	)
	return scanRegistration(row)
}

// Execute loads the registration under a row lock, validates, mutates, and
// persists within one transaction. Concurrent transitions on one registration
// serialize on the lock, so validation always sees committed state. When the
// context already carries a transaction Execute joins it, leaving the commit
// to the caller; otherwise it opens and commits its own.
func (s *PostgresRegistrationStore) Execute(ctx context.Context, regID id.RegistrationID, validate func(*models.Registration) error, mutate func(*models.Registration)) (*models.Registration, error) {
	if tx, ok := txcontext.From(ctx); ok {
		return s.executeIn(ctx, tx, regID, validate, mutate)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback()

	reg, err := s.executeIn(ctx, tx, regID, validate, mutate)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return reg, nil
}

func (s *PostgresRegistrationStore) executeIn(ctx context.Context, tx *sql.Tx, regID id.RegistrationID, validate func(*models.Registration) error, mutate func(*models.Registration)) (*models.Registration, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1 FOR UPDATE`,
		uuid.UUID(regID),
	)
	reg, err := scanRegistration(row)
	if err != nil {
		return nil, err
	}

	if err := validate(reg); err != nil {
		return nil, err
	}
	mutate(reg)

	_, err = tx.ExecContext(ctx, `
		UPDATE registrations
		SET status = $2, payment_status = $3, updated_at = $4
		WHERE id = $1
	`, uuid.UUID(reg.ID), string(reg.Status), string(reg.PaymentStatus), reg.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update registration: %w", err)
	}
	return reg, nil
}

func scanRegistration(row *sql.Row) (*models.Registration, error) {
	var (
		reg     models.Registration
		regID   uuid.UUID
		confID  uuid.UUID
		userID  sql.Null[uuid.UUID]
		status  string
		payment string
	)
	err := row.Scan(&regID, &confID, &userID, &status, &payment,
		&reg.PriceCents, &reg.Currency, &reg.CreatedAt, &reg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan registration: %w", err)
	}

	reg.ID = id.RegistrationID(regID)
	reg.ConferenceID = id.ConferenceID(confID)
	if userID.Valid {
		reg.UserID = id.UserID(userID.V)
	}
	reg.Status = models.Status(status)
	reg.PaymentStatus = models.PaymentStatus(payment)
	return &reg, nil
}

func nullableUserID(userID id.UserID) any {
	if userID.IsNil() {
		return nil
	}
	return uuid.UUID(userID)
}
