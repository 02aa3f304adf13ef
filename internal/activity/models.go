// Package activity defines the three activity record kinds emitted by every
// mutating operation in the system: a system-wide broadcast, a per-user
// notification feed entry, and an admin-only audit record. Records share one
// shape and are immutable once written.
package activity

import (
	"strings"
	"time"

	id "confreg/pkg/domain"
	dErrors "confreg/pkg/domain-errors"
)

// Kind discriminates the three record kinds sharing the Record shape.
type Kind string

const (
	// KindSystem is a broadcast visible to all users.
	KindSystem Kind = "system"
	// KindUser is a notification-feed entry scoped to one recipient.
	KindUser Kind = "user"
	// KindApp is an admin-only audit record.
	KindApp Kind = "app"
)

// Severity grades an audit record for admin-log filtering and display.
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
	SeverityGood     Severity = "GOOD"
	SeverityBad      Severity = "BAD"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError, SeverityCritical, SeverityGood, SeverityBad:
		return true
	}
	return false
}

// Category is the coarse domain tag on an audit record.
type Category string

const (
	CategoryAuth         Category = "auth"
	CategoryContent      Category = "content"
	CategoryRegistration Category = "registration"
	CategoryConference   Category = "conference"
	CategoryFile         Category = "file"
	CategoryProfile      Category = "profile"
)

// AuditAction names what was done to the affected entity.
type AuditAction string

const (
	ActionCreated  AuditAction = "created"
	ActionUpdated  AuditAction = "updated"
	ActionDeleted  AuditAction = "deleted"
	ActionApproved AuditAction = "approved"
	ActionRejected AuditAction = "rejected"
)

// CallToAction is a button rendered verbatim by the notification surface.
type CallToAction struct {
	Label   string `json:"label"`
	Href    string `json:"href"`
	Variant string `json:"variant"`
}

// Record is the persisted form shared by all three kinds. Kind-specific
// fields are zero-valued on the kinds that do not carry them.
type Record struct {
	ID          id.ActivityID
	Kind        Kind
	Title       string
	Description string
	Icon        string
	Type        string
	CreatedAt   time.Time

	// Metadata is the opaque traceability payload. Known keys are documented
	// on the event constructors that populate them.
	Metadata map[string]any

	// User kind only.
	UserID  id.UserID
	Actions []CallToAction

	// App kind only.
	ActorID  id.UserID
	Action   AuditAction
	Entity   string
	EntityID string
	Category Category
	Severity Severity
}

// SystemEvent describes a broadcast visible to every user.
type SystemEvent struct {
	Title       string
	Description string
	Icon        string
	Type        string
	Metadata    map[string]any
}

// Validate enforces the minimum shape of a broadcast.
func (e SystemEvent) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "system activity requires a title")
	}
	return nil
}

// UserEvent describes a notification for one recipient. Actions is the
// ordered list of call-to-action buttons the consuming surface renders.
type UserEvent struct {
	Title       string
	Description string
	Icon        string
	Type        string
	Actions     []CallToAction
	Metadata    map[string]any
}

// Validate enforces the minimum shape of a user notification.
func (e UserEvent) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "user activity requires a title")
	}
	return nil
}

// AppEvent describes an admin-audit record: who did what to which entity.
type AppEvent struct {
	Title       string
	Description string
	Icon        string
	Type        string
	Action      AuditAction
	Entity      string
	EntityID    string
	Category    Category
	Severity    Severity
	Metadata    map[string]any
}

// Validate enforces the audit contract: entity, entity id, action, category,
// and severity are all required.
func (e AppEvent) Validate() error {
	switch {
	case strings.TrimSpace(e.Title) == "":
		return dErrors.New(dErrors.CodeInvalidInput, "app activity requires a title")
	case e.Entity == "":
		return dErrors.New(dErrors.CodeInvalidInput, "app activity requires an entity")
	case e.EntityID == "":
		return dErrors.New(dErrors.CodeInvalidInput, "app activity requires an entity id")
	case e.Action == "":
		return dErrors.New(dErrors.CodeInvalidInput, "app activity requires an action")
	case e.Category == "":
		return dErrors.New(dErrors.CodeInvalidInput, "app activity requires a category")
	case !e.Severity.Valid():
		return dErrors.New(dErrors.CodeInvalidInput, "app activity requires a known severity")
	}
	return nil
}

// Filter is the optional equality and date-range predicate set for the admin
// audit log. Zero values mean "no constraint". The date range is inclusive.
type Filter struct {
	Type      string
	Entity    string
	UserID    id.UserID
	Severity  Severity
	Category  Category
	StartDate *time.Time
	EndDate   *time.Time
}

// Matches reports whether an app record satisfies the filter. Shared by the
// in-memory store and tests; the Postgres store compiles the same predicate
// to SQL.
func (f Filter) Matches(r Record) bool {
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	if f.Entity != "" && r.Entity != f.Entity {
		return false
	}
	if !f.UserID.IsNil() && r.ActorID != f.UserID {
		return false
	}
	if f.Severity != "" && r.Severity != f.Severity {
		return false
	}
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.StartDate != nil && r.CreatedAt.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && r.CreatedAt.After(*f.EndDate) {
		return false
	}
	return true
}

// CategoryCount is one row of the grouped category statistics.
type CategoryCount struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}

// SeverityCount is one row of the grouped severity statistics.
type SeverityCount struct {
	Severity Severity `json:"severity"`
	Count    int      `json:"count"`
}
