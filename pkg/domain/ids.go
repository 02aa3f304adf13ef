// Package domain defines typed identifiers shared across features. Wrapping
// uuid.UUID in distinct types prevents accidentally passing a registration id
// where a user id is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "confreg/pkg/domain-errors"
)

type (
	// UserID identifies an account holder.
	UserID uuid.UUID
	// RegistrationID identifies a conference registration.
	RegistrationID uuid.UUID
	// PaymentID identifies a payment record attached to a registration.
	PaymentID uuid.UUID
	// ActivityID identifies an activity record of any kind.
	ActivityID uuid.UUID
	// NoteID identifies an admin note on a registration.
	NoteID uuid.UUID
	// ConferenceID identifies the conference a registration belongs to.
	ConferenceID uuid.UUID
)

// IsNil reports whether the id is the zero UUID.
func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id RegistrationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id PaymentID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id ActivityID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id NoteID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id ConferenceID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id RegistrationID) String() string { return uuid.UUID(id).String() }
func (id PaymentID) String() string      { return uuid.UUID(id).String() }
func (id ActivityID) String() string     { return uuid.UUID(id).String() }
func (id NoteID) String() string         { return uuid.UUID(id).String() }
func (id ConferenceID) String() string   { return uuid.UUID(id).String() }

// NewUserID returns a fresh random user id.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewRegistrationID returns a fresh random registration id.
func NewRegistrationID() RegistrationID { return RegistrationID(uuid.New()) }

// NewPaymentID returns a fresh random payment id.
func NewPaymentID() PaymentID { return PaymentID(uuid.New()) }

// NewActivityID returns a fresh random activity id.
func NewActivityID() ActivityID { return ActivityID(uuid.New()) }

// NewNoteID returns a fresh random note id.
func NewNoteID() NoteID { return NoteID(uuid.New()) }

// NewConferenceID returns a fresh random conference id.
func NewConferenceID() ConferenceID { return ConferenceID(uuid.New()) }

// parseUUID enforces the boundary invariant: ids must be valid, non-nil UUIDs.
func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	u, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}

// ParseUserID parses a user id from its string form.
func ParseUserID(raw string) (UserID, error) {
	u, err := parseUUID(raw)
	return UserID(u), err
}

// ParseRegistrationID parses a registration id from its string form.
func ParseRegistrationID(raw string) (RegistrationID, error) {
	u, err := parseUUID(raw)
	return RegistrationID(u), err
}

// ParseActivityID parses an activity id from its string form. Used when
// decoding pagination cursors, so a garbage cursor fails fast.
func ParseActivityID(raw string) (ActivityID, error) {
	u, err := parseUUID(raw)
	return ActivityID(u), err
}

// ParseConferenceID parses a conference id from its string form.
func ParseConferenceID(raw string) (ConferenceID, error) {
	u, err := parseUUID(raw)
	return ConferenceID(u), err
}
