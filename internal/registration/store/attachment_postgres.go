package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "confreg/pkg/domain"

	"confreg/internal/registration/models"
)

// PostgresAttachmentStore reads file references. The upload surface is the
// production writer; Append exists for it and for seeding.
//
// Expected schema:
//
//	CREATE TABLE registration_attachments (
//	    id              UUID PRIMARY KEY,
//	    registration_id UUID NOT NULL REFERENCES registrations (id),
//	    file_name       TEXT NOT NULL,
//	    content_type    TEXT NOT NULL,
//	    size_bytes      BIGINT NOT NULL,
//	    created_at      TIMESTAMPTZ NOT NULL
//	);
type PostgresAttachmentStore struct {
	db *sql.DB
}

func NewPostgresAttachmentStore(db *sql.DB) *PostgresAttachmentStore {
	return &PostgresAttachmentStore{db: db}
}

func (s *PostgresAttachmentStore) Append(ctx context.Context, att models.Attachment) error {
	_, err := querierFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO registration_attachments (id, registration_id, file_name, content_type, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		uuid.UUID(att.ID),
		uuid.UUID(att.RegistrationID),
		att.FileName,
		att.ContentType,
		att.SizeBytes,
		att.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attachment: %w", err)
	}
	return nil
}

func (s *PostgresAttachmentStore) ListByRegistration(ctx context.Context, regID id.RegistrationID) ([]models.Attachment, error) {
	rows, err := querierFrom(ctx, s.db).QueryContext(ctx, `
		SELECT id, registration_id, file_name, content_type, size_bytes, created_at
		FROM registration_attachments
		WHERE registration_id = $1
		ORDER BY created_at DESC
	`, uuid.UUID(regID))
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	var out []models.Attachment
	for rows.Next() {
		var (
			att    models.Attachment
			attID  uuid.UUID
			regRef uuid.UUID
		)
		if err := rows.Scan(&attID, &regRef, &att.FileName, &att.ContentType, &att.SizeBytes, &att.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		att.ID = id.NoteID(attID)
		att.RegistrationID = id.RegistrationID(regRef)
		out = append(out, att)
	}
	return out, rows.Err()
}
