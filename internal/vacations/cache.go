package vacations

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/munitorum/internal/metrics"
)

// Cache memoizes the last successful calendar fetch for one region.
// Refreshes happen synchronously under the lock, so concurrent callers wait
// for a single fetch instead of racing the remote API.
type Cache struct {
	mu      sync.Mutex
	client  CalendarClient
	metrics metrics.Metrics
	now     func() time.Time
	ttl     time.Duration
	entry   *Entry
}

// NewCache creates a cache with the standard TTL and the wall clock.
func NewCache(client CalendarClient, metrics metrics.Metrics) *Cache {
	return &Cache{
		client:  client,
		metrics: metrics,
		now:     time.Now,
		ttl:     CacheTTL,
	}
}

// WithClock replaces the cache clock. Used by tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

// Periods returns the closure periods of region, fetching them first when the
// cached entry is missing, expired, or for another region. A failed refresh
// drops the previous entry: stale data is never served.
func (c *Cache) Periods(ctx context.Context, region string) ([]Period, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.entry != nil && c.entry.Region == region && now.Before(c.entry.ExpiresAt) {
		return c.entry.Periods, nil
	}

	c.entry = nil
	start := time.Now()
	c.metrics.IncCalendarFetches()
	records, err := c.client.FetchRecords(ctx, region)
	c.metrics.ObserveCalendarFetchDuration(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("fetch calendar for %s: %w", region, err)
	}

	periods := make([]Period, 0, len(records))
	for _, r := range records {
		p, err := toPeriod(r)
		if err != nil {
			log.Warn("Skipping unreadable calendar record", "description", r.Description, "error", err)
			continue
		}
		periods = append(periods, p)
	}
	if len(periods) == 0 {
		return nil, fmt.Errorf("%s: %w", region, ErrEmptyCalendar)
	}

	c.entry = &Entry{
		Region:    region,
		FetchedAt: now,
		ExpiresAt: now.Add(c.ttl),
		Periods:   periods,
	}
	log.Info("Vacation calendar cached", "region", region, "periods", len(periods), "expires_at", c.entry.ExpiresAt)
	return periods, nil
}

// Snapshot returns a copy of the current entry, or nil.
func (c *Cache) Snapshot() *Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil {
		return nil
	}
	cp := *c.entry
	cp.Periods = append([]Period(nil), c.entry.Periods...)
	return &cp
}

func toPeriod(r Record) (Period, error) {
	start, err := parseInstant(r.StartDate)
	if err != nil {
		return Period{}, err
	}
	end, err := parseInstant(r.EndDate)
	if err != nil {
		return Period{}, err
	}
	return Period{Description: r.Description, Start: start, End: end}, nil
}

func parseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
