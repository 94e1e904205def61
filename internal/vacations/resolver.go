package vacations

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/munitorum/internal/dates"
	"github.com/mauv0809/munitorum/internal/metrics"
)

// Resolver classifies calendar days against the cached vacation periods.
type Resolver struct {
	cache   *Cache
	metrics metrics.Metrics
}

// NewResolver creates a resolver backed by cache.
func NewResolver(cache *Cache, metrics metrics.Metrics) *Resolver {
	return &Resolver{cache: cache, metrics: metrics}
}

var _ ClosureResolver = (*Resolver)(nil)

// ResolveClosure never fails. When the calendar cannot be read the date is
// reported open with ReasonCalendarUnavailable so bookings keep working.
func (r *Resolver) ResolveClosure(ctx context.Context, date time.Time, region string, loc *time.Location) ClosureInfo {
	periods, err := r.cache.Periods(ctx, region)
	if err != nil {
		log.Error("Failed to fetch vacation calendar", "region", region, "error", err)
		r.metrics.IncCalendarFailures()
		return ClosureInfo{Closed: false, Reason: ReasonCalendarUnavailable}
	}
	return classify(dates.StartOfDay(date, loc), periods, loc)
}

// classify applies, per period and in order, the eve rule then the inclusive
// window rule. The first period that matches wins.
func classify(day time.Time, periods []Period, loc *time.Location) ClosureInfo {
	for i := range periods {
		p := periods[i]
		start := dates.StartOfDay(p.Start, loc)
		end := dates.StartOfDay(p.End, loc)
		local := Period{Description: p.Description, Start: start, End: end}

		if sameDay(day, start.AddDate(0, 0, -1)) {
			return ClosureInfo{Closed: true, Reason: ReasonEveOfClosure, Period: &local}
		}
		if !day.Before(start) && !day.After(end) {
			return ClosureInfo{Closed: true, Reason: ReasonClosurePeriod, Period: &local}
		}
	}
	return ClosureInfo{Closed: false}
}

func sameDay(a, b time.Time) bool {
	return dates.Key(a) == dates.Key(b)
}
