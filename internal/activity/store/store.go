// Package store persists activity records. Records are append-only: nothing
// here mutates or deletes a written record.
package store

import (
	"context"
	"time"

	"confreg/internal/activity"
	id "confreg/pkg/domain"
)

// Store is the persistence contract for activity records. Implementations
// must order reads by (created_at DESC, id DESC) so cursor pagination is
// stable under concurrent appends.
type Store interface {
	Append(ctx context.Context, rec activity.Record) error
	FindByID(ctx context.Context, recID id.ActivityID) (activity.Record, error)

	// ListUserFeed returns the newest notifications for one recipient.
	ListUserFeed(ctx context.Context, userID id.UserID, limit int) ([]activity.Record, error)

	// ListSystem returns the newest broadcast records.
	ListSystem(ctx context.Context, limit int) ([]activity.Record, error)

	// ListApp returns up to limit app-audit records matching the filter,
	// strictly older than the cursor record when a cursor is given.
	ListApp(ctx context.Context, filter activity.Filter, cursor *id.ActivityID, limit int) ([]activity.Record, error)

	// Aggregates over app-audit records, scoped to created_at >= since.
	CountAppSince(ctx context.Context, since time.Time) (int, error)
	CountAppByCategory(ctx context.Context, since time.Time, top int) ([]activity.CategoryCount, error)
	CountAppBySeverity(ctx context.Context, since time.Time) ([]activity.SeverityCount, error)
}
