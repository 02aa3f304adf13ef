package service

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/errgroup"

	dErrors "confreg/pkg/domain-errors"

	"confreg/internal/activity"
	"confreg/pkg/requestcontext"
)

const (
	statsCacheKey = "confreg:audit:stats"
	statsCacheTTL = 60 * time.Second
	topCategories = 10
)

// Stats summarizes recent audit volume for the admin dashboard. Grouped
// counts cover the trailing 7-day window.
type Stats struct {
	Last24h     int                      `json:"last_24h"`
	Last7d      int                      `json:"last_7d"`
	ByCategory  []activity.CategoryCount `json:"by_category"`
	BySeverity  []activity.SeverityCount `json:"by_severity"`
	GeneratedAt time.Time                `json:"generated_at"`
}

// GetStats computes audit statistics, serving a cached copy when one is
// fresh. The four aggregate queries are independent and run concurrently.
func (s *Service) GetStats(ctx context.Context, actor Actor) (Stats, error) {
	if err := requireAdmin(actor); err != nil {
		return Stats{}, err
	}

	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, statsCacheKey); ok {
			var cached Stats
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
			// A corrupt cache entry falls through to a fresh computation.
			s.logger.WarnContext(ctx, "discarding undecodable stats cache entry",
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}

	now := requestcontext.Now(ctx)
	stats := Stats{GeneratedAt: now}
	dayAgo := now.Add(-24 * time.Hour)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.CountAppSince(gctx, dayAgo)
		stats.Last24h = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountAppSince(gctx, weekAgo)
		stats.Last7d = n
		return err
	})
	g.Go(func() error {
		counts, err := s.store.CountAppByCategory(gctx, weekAgo, topCategories)
		stats.ByCategory = counts
		return err
	})
	g.Go(func() error {
		counts, err := s.store.CountAppBySeverity(gctx, weekAgo)
		stats.BySeverity = counts
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute audit stats")
	}

	if stats.ByCategory == nil {
		stats.ByCategory = []activity.CategoryCount{}
	}
	if stats.BySeverity == nil {
		stats.BySeverity = []activity.SeverityCount{}
	}

	if s.cache != nil {
		if raw, err := json.Marshal(stats); err == nil {
			s.cache.Set(ctx, statsCacheKey, raw, statsCacheTTL)
		}
	}
	return stats, nil
}
