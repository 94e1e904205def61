package vacations

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mauv0809/munitorum/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var winterBreak = Record{
	Description: "Vacances d'Hiver",
	Population:  "Élèves",
	Location:    "Nantes",
	StartDate:   "2024-02-10T00:00:00+01:00",
	EndDate:     "2024-02-20T00:00:00+01:00",
}

func newCache(t *testing.T, client CalendarClient) (*Cache, *fakeClock, *metrics.Mock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)}
	m := metrics.NewMock()
	return NewCache(client, m).WithClock(clock.Now), clock, m
}

func TestCache_ServesUntilExpiry(t *testing.T) {
	client := NewMockClient()
	client.FetchRecordsFunc = func(ctx context.Context, region string) ([]Record, error) {
		return []Record{winterBreak}, nil
	}
	cache, clock, m := newCache(t, client)

	periods, err := cache.Periods(context.Background(), "Nantes")
	require.NoError(t, err)
	require.Len(t, periods, 1)

	clock.Advance(CacheTTL - time.Second)
	_, err = cache.Periods(context.Background(), "Nantes")
	require.NoError(t, err)
	assert.Equal(t, 1, client.Calls(), "entry is still fresh")

	clock.Advance(time.Second)
	_, err = cache.Periods(context.Background(), "Nantes")
	require.NoError(t, err)
	assert.Equal(t, 2, client.Calls(), "entry expires exactly at fetchedAt + TTL")
	assert.Equal(t, 2, m.CalendarFetches())

	entry := cache.Snapshot()
	require.NotNil(t, entry)
	assert.Equal(t, clock.Now().Add(CacheTTL), entry.ExpiresAt)
}

func TestCache_RegionChangeRefreshes(t *testing.T) {
	client := NewMockClient()
	client.FetchRecordsFunc = func(ctx context.Context, region string) ([]Record, error) {
		r := winterBreak
		r.Location = region
		return []Record{r}, nil
	}
	cache, _, _ := newCache(t, client)

	_, err := cache.Periods(context.Background(), "Nantes")
	require.NoError(t, err)
	_, err = cache.Periods(context.Background(), "Rennes")
	require.NoError(t, err)

	assert.Equal(t, []string{"Nantes", "Rennes"}, client.FetchRecordsCalls)
	assert.Equal(t, "Rennes", cache.Snapshot().Region)
}

func TestCache_FailureDropsStaleEntry(t *testing.T) {
	fail := false
	client := NewMockClient()
	client.FetchRecordsFunc = func(ctx context.Context, region string) ([]Record, error) {
		if fail {
			return nil, errors.New("network down")
		}
		return []Record{winterBreak}, nil
	}
	cache, clock, _ := newCache(t, client)

	_, err := cache.Periods(context.Background(), "Nantes")
	require.NoError(t, err)

	fail = true
	clock.Advance(CacheTTL)
	_, err = cache.Periods(context.Background(), "Nantes")
	require.Error(t, err)
	assert.Nil(t, cache.Snapshot(), "an expired entry is not reused after a failed refresh")

	// Failures are not cached: the next call tries again.
	fail = false
	_, err = cache.Periods(context.Background(), "Nantes")
	require.NoError(t, err)
	assert.Equal(t, 3, client.Calls())
}

func TestCache_EmptyCalendarIsAFailure(t *testing.T) {
	client := NewMockClient()
	cache, _, _ := newCache(t, client)

	_, err := cache.Periods(context.Background(), "Nantes")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyCalendar)
	assert.Nil(t, cache.Snapshot())
}

func TestCache_ConcurrentCallersShareOneFetch(t *testing.T) {
	client := NewMockClient()
	client.FetchRecordsFunc = func(ctx context.Context, region string) ([]Record, error) {
		time.Sleep(10 * time.Millisecond)
		return []Record{winterBreak}, nil
	}
	cache, _, _ := newCache(t, client)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Periods(context.Background(), "Nantes")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, client.Calls())
}
