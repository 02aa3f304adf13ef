// Package service implements the admin-facing audit query surface: cursor
// paginated, filterable retrieval of the audit log plus time-windowed
// aggregate statistics.
package service

import (
	"context"
	"log/slog"
	"time"

	id "confreg/pkg/domain"
	dErrors "confreg/pkg/domain-errors"

	"confreg/internal/activity"
	"confreg/internal/activity/store"
)

const (
	defaultTake = 20
	maxTake     = 100
)

// Actor identifies who is querying. Every operation here requires admin
// capability; a non-admin gets Forbidden, never a silently empty result.
type Actor struct {
	ID    id.UserID
	Admin bool
}

// StatsCache holds a serialized stats payload for a short TTL. Optional; nil
// means every stats call hits the store.
type StatsCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// Service answers audit log queries from the activity record store.
type Service struct {
	store  store.Store
	cache  StatsCache
	logger *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithStatsCache caches aggregate statistics for a short window. The audit
// list itself is never cached; admins expect it live.
func WithStatsCache(cache StatsCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func New(recordStore store.Store, opts ...Option) *Service {
	s := &Service{store: recordStore, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Page is one page of audit records. NextCursor is nil on the final page;
// otherwise it is the id of the last record in Records and resumes the walk
// immediately after it.
type Page struct {
	Records    []activity.Record `json:"records"`
	NextCursor *id.ActivityID    `json:"next_cursor,omitempty"`
}

// ListAppActivity returns one page of the audit log, newest first. The store
// is probed for take+1 rows; an extra row means another page exists. Because
// records are append-only and ordered by creation time, a cursor walk sees no
// duplicates and no gaps even as new records land concurrently.
func (s *Service) ListAppActivity(ctx context.Context, actor Actor, filter activity.Filter, cursor *id.ActivityID, take int) (Page, error) {
	if err := requireAdmin(actor); err != nil {
		return Page{}, err
	}
	if err := validateFilter(filter); err != nil {
		return Page{}, err
	}
	if take <= 0 {
		take = defaultTake
	}
	if take > maxTake {
		take = maxTake
	}

	records, err := s.store.ListApp(ctx, filter, cursor, take+1)
	if err != nil {
		return Page{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit records")
	}

	page := Page{Records: records}
	if len(records) > take {
		page.Records = records[:take]
		last := page.Records[take-1].ID
		page.NextCursor = &last
	}
	if page.Records == nil {
		page.Records = []activity.Record{}
	}
	return page, nil
}

func validateFilter(filter activity.Filter) error {
	if filter.Severity != "" && !filter.Severity.Valid() {
		return dErrors.Newf(dErrors.CodeValidation, "unknown severity %q", filter.Severity)
	}
	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return dErrors.New(dErrors.CodeValidation, "end date precedes start date")
	}
	return nil
}

func requireAdmin(actor Actor) error {
	if !actor.Admin {
		return dErrors.New(dErrors.CodeForbidden, "admin capability required")
	}
	return nil
}
