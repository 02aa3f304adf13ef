package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "confreg/pkg/domain"

	"confreg/internal/registration/models"
)

// PostgresHistoryStore persists the status transition trail.
//
// Expected schema:
//
//	CREATE TABLE registration_status_history (
//	    id              UUID PRIMARY KEY,
//	    registration_id UUID NOT NULL REFERENCES registrations (id),
//	    previous_status TEXT NOT NULL,
//	    new_status      TEXT NOT NULL,
//	    changed_by_id   UUID,
//	    reason          TEXT NOT NULL DEFAULT '',
//	    created_at      TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX registration_status_history_reg_idx
//	    ON registration_status_history (registration_id, created_at DESC);
type PostgresHistoryStore struct {
	db *sql.DB
}

func NewPostgresHistoryStore(db *sql.DB) *PostgresHistoryStore {
	return &PostgresHistoryStore{db: db}
}

func (s *PostgresHistoryStore) Append(ctx context.Context, entry models.StatusHistoryEntry) error {
	_, err := querierFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO registration_status_history
			(id, registration_id, previous_status, new_status, changed_by_id, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		uuid.UUID(entry.ID),
		uuid.UUID(entry.RegistrationID),
		string(entry.PreviousStatus),
		string(entry.NewStatus),
		nullableUserID(entry.ChangedByID),
		entry.Reason,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}
	return nil
}

func (s *PostgresHistoryStore) ListByRegistration(ctx context.Context, regID id.RegistrationID) ([]models.StatusHistoryEntry, error) {
	rows, err := querierFrom(ctx, s.db).QueryContext(ctx, `
		SELECT id, registration_id, previous_status, new_status, changed_by_id, reason, created_at
		FROM registration_status_history
		WHERE registration_id = $1
		ORDER BY created_at DESC
	`, uuid.UUID(regID))
	if err != nil {
		return nil, fmt.Errorf("list status history: %w", err)
	}
	defer rows.Close()

	var out []models.StatusHistoryEntry
	for rows.Next() {
		var (
			entry     models.StatusHistoryEntry
			entryID   uuid.UUID
			entryReg  uuid.UUID
			prev      string
			next      string
			changedBy sql.Null[uuid.UUID]
		)
		if err := rows.Scan(&entryID, &entryReg, &prev, &next, &changedBy, &entry.Reason, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status history: %w", err)
		}
		entry.ID = id.NoteID(entryID)
		entry.RegistrationID = id.RegistrationID(entryReg)
		entry.PreviousStatus = models.Status(prev)
		entry.NewStatus = models.Status(next)
		if changedBy.Valid {
			entry.ChangedByID = id.UserID(changedBy.V)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
