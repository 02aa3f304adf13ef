package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "confreg/pkg/domain"

	"confreg/internal/registration/models"
)

// PostgresNoteStore persists admin notes.
//
// Expected schema:
//
//	CREATE TABLE registration_notes (
//	    id              UUID PRIMARY KEY,
//	    registration_id UUID NOT NULL REFERENCES registrations (id),
//	    author_id       UUID NOT NULL,
//	    body            TEXT NOT NULL,
//	    created_at      TIMESTAMPTZ NOT NULL
//	);
type PostgresNoteStore struct {
	db *sql.DB
}

func NewPostgresNoteStore(db *sql.DB) *PostgresNoteStore {
	return &PostgresNoteStore{db: db}
}

func (s *PostgresNoteStore) Append(ctx context.Context, note models.Note) error {
	_, err := querierFrom(ctx, s.db).ExecContext(ctx, `
		INSERT INTO registration_notes (id, registration_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		uuid.UUID(note.ID),
		uuid.UUID(note.RegistrationID),
		uuid.UUID(note.AuthorID),
		note.Body,
		note.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func (s *PostgresNoteStore) ListByRegistration(ctx context.Context, regID id.RegistrationID) ([]models.Note, error) {
	rows, err := querierFrom(ctx, s.db).QueryContext(ctx, `
		SELECT id, registration_id, author_id, body, created_at
		FROM registration_notes
		WHERE registration_id = $1
		ORDER BY created_at DESC
	`, uuid.UUID(regID))
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var out []models.Note
	for rows.Next() {
		var (
			note   models.Note
			noteID uuid.UUID
			regRef uuid.UUID
			author uuid.UUID
		)
		if err := rows.Scan(&noteID, &regRef, &author, &note.Body, &note.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		note.ID = id.NoteID(noteID)
		note.RegistrationID = id.RegistrationID(regRef)
		note.AuthorID = id.UserID(author)
		out = append(out, note)
	}
	return out, rows.Err()
}
