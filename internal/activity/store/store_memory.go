package store

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"confreg/internal/activity"
	id "confreg/pkg/domain"
	"confreg/pkg/platform/sentinel"
)

// InMemoryStore keeps activity records in memory. Used by unit tests and
// local development; favors clarity over performance.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []activity.Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, rec activity.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, recID id.ActivityID) (activity.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.records {
		if rec.ID == recID {
			return rec, nil
		}
	}
	return activity.Record{}, sentinel.ErrNotFound
}

// newerFirst orders by (created_at DESC, id DESC). The id tiebreak keeps the
// ordering total so cursor pagination never skips or repeats a record.
func newerFirst(a, b activity.Record) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	ua, ub := uuid.UUID(a.ID), uuid.UUID(b.ID)
	return bytes.Compare(ua[:], ub[:]) > 0
}

func (s *InMemoryStore) sortedByKind(kind activity.Kind) []activity.Record {
	var out []activity.Record
	for _, rec := range s.records {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i], out[j]) })
	return out
}

func (s *InMemoryStore) ListUserFeed(_ context.Context, userID id.UserID, limit int) ([]activity.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []activity.Record
	for _, rec := range s.records {
		if rec.Kind == activity.KindUser && rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newerFirst(out[i], out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) ListSystem(_ context.Context, limit int) ([]activity.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.sortedByKind(activity.KindSystem)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) ListApp(_ context.Context, filter activity.Filter, cursor *id.ActivityID, limit int) ([]activity.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.sortedByKind(activity.KindApp)

	// A cursor means "strictly older than the record it names". Resolve it to
	// its position in the total order; an unknown cursor yields no rows
	// rather than restarting from the top.
	start := 0
	if cursor != nil {
		start = len(all)
		for i, rec := range all {
			if rec.ID == *cursor {
				start = i + 1
				break
			}
		}
	}

	var out []activity.Record
	for _, rec := range all[start:] {
		if !filter.Matches(rec) {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *InMemoryStore) CountAppSince(_ context.Context, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, rec := range s.records {
		if rec.Kind == activity.KindApp && !rec.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) CountAppByCategory(_ context.Context, since time.Time, top int) ([]activity.CategoryCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[activity.Category]int)
	for _, rec := range s.records {
		if rec.Kind == activity.KindApp && !rec.CreatedAt.Before(since) {
			counts[rec.Category]++
		}
	}

	out := make([]activity.CategoryCount, 0, len(counts))
	for cat, n := range counts {
		out = append(out, activity.CategoryCount{Category: cat, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	if top > 0 && len(out) > top {
		out = out[:top]
	}
	return out, nil
}

func (s *InMemoryStore) CountAppBySeverity(_ context.Context, since time.Time) ([]activity.SeverityCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[activity.Severity]int)
	for _, rec := range s.records {
		if rec.Kind == activity.KindApp && !rec.CreatedAt.Before(since) {
			counts[rec.Severity]++
		}
	}

	out := make([]activity.SeverityCount, 0, len(counts))
	for sev, n := range counts {
		out = append(out, activity.SeverityCount{Severity: sev, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Severity < out[j].Severity
	})
	return out, nil
}
