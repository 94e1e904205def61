package vacations

import (
	"context"
	"time"
)

// CalendarClient reads closure records for a region from the remote calendar.
type CalendarClient interface {
	FetchRecords(ctx context.Context, region string) ([]Record, error)
}

// ClosureResolver answers whether a calendar day is closed.
type ClosureResolver interface {
	ResolveClosure(ctx context.Context, date time.Time, region string, loc *time.Location) ClosureInfo
}
