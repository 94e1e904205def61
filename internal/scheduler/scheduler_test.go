package scheduler_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mauv0809/munitorum/internal/database"
	"github.com/mauv0809/munitorum/internal/events"
	"github.com/mauv0809/munitorum/internal/games"
	"github.com/mauv0809/munitorum/internal/ledger"
	"github.com/mauv0809/munitorum/internal/matches"
	"github.com/mauv0809/munitorum/internal/metrics"
	"github.com/mauv0809/munitorum/internal/notifier"
	"github.com/mauv0809/munitorum/internal/pubsub"
	"github.com/mauv0809/munitorum/internal/scheduler"
	"github.com/mauv0809/munitorum/internal/slotdays"
	"github.com/mauv0809/munitorum/internal/vacations"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var paris, _ = time.LoadLocation("Europe/Paris")

func day(d int) time.Time {
	return time.Date(2024, 2, d, 0, 0, 0, 0, paris)
}

type fixture struct {
	svc       *scheduler.Service
	events    events.EventStore
	matches   matches.MatchStore
	ledger    ledger.Store
	messenger *notifier.Mock
	resolver  *vacations.MockResolver
	pubsub    *pubsub.MockPubSubClient
	metrics   *metrics.Mock
}

func setup(t *testing.T) fixture {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	t.Cleanup(teardown)

	f := fixture{
		events:    events.New(db, paris),
		matches:   matches.New(db, paris),
		ledger:    ledger.New(db),
		messenger: notifier.NewMock(),
		resolver:  vacations.NewMockResolver(),
		pubsub:    pubsub.NewMock("test"),
		metrics:   metrics.NewMock(),
	}
	// Mid and late February are school holidays.
	f.resolver.ResolveClosureFunc = func(ctx context.Context, date time.Time, region string, loc *time.Location) vacations.ClosureInfo {
		if !date.Before(day(9)) && !date.After(day(25)) {
			if date.Equal(day(9)) {
				return vacations.ClosureInfo{Closed: true, Reason: vacations.ReasonEveOfClosure}
			}
			return vacations.ClosureInfo{Closed: true, Reason: vacations.ReasonClosurePeriod}
		}
		return vacations.ClosureInfo{}
	}
	f.svc = scheduler.New(f.events, slotdays.New(db), f.resolver, games.Default(), f.messenger, f.pubsub, f.metrics,
		scheduler.Config{Location: paris, Region: "Nantes", ChannelID: "C1"}).
		WithClock(func() time.Time { return time.Date(2024, 2, 5, 10, 0, 0, 0, paris) })
	return f
}

func TestGenerateMonth(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	result, err := f.svc.GenerateMonth(ctx, slotdays.Default)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(2)}, result.Created)
	assert.Empty(t, result.AlreadyPresent)
	assert.Equal(t, []time.Time{day(9), day(16), day(23)}, result.ClosedSkipped)
	assert.Equal(t, day(1), result.Month)

	slot, err := f.events.GetByDate(ctx, day(2))
	require.NoError(t, err)
	assert.Equal(t, events.StatusOpen, slot.Status)
	assert.Equal(t, 0, slot.TableCount)

	_, err = f.events.GetByDate(ctx, day(9))
	assert.ErrorIs(t, err, events.ErrNotFound)

	threads, err := f.events.Threads(ctx, slot.ID)
	require.NoError(t, err)
	assert.Len(t, threads, 4)
	assert.Equal(t, 4, f.messenger.ThreadCount())
	assert.Equal(t, "Soirée 40k - vendredi 2 février", f.messenger.Threads[0].Title)

	created, present, skipped := f.metrics.SlotsGenerated()
	assert.Equal(t, 1, created)
	assert.Equal(t, 0, present)
	assert.Equal(t, 3, skipped)
	assert.Equal(t, []string{"slots-generated"}, f.pubsub.Topics())
}

func TestGenerateMonth_IsIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	days := slotdays.Weekdays{1, 5}

	first, err := f.svc.GenerateMonth(ctx, days)
	require.NoError(t, err)
	require.NotEmpty(t, first.Created)
	threads := f.messenger.ThreadCount()

	second, err := f.svc.GenerateMonth(ctx, days)
	require.NoError(t, err)
	assert.Empty(t, second.Created)
	assert.Equal(t, first.Created, second.AlreadyPresent)
	assert.Equal(t, first.ClosedSkipped, second.ClosedSkipped)
	assert.Equal(t, threads, f.messenger.ThreadCount(), "no thread may be created twice")
}

func TestGenerateMonth_DryRunRecordsNoThread(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.messenger.CreateThreadUnderFunc = func(ctx context.Context, channelID, title, text string) (string, error) {
		if notifier.IsDryRun(ctx) {
			return channelID + ":dry-run-ts", nil
		}
		return channelID + ":" + title, nil
	}

	_, err := f.svc.GenerateMonth(notifier.WithDryRun(ctx, true), slotdays.Default)
	require.NoError(t, err)
	slot, err := f.events.GetByDate(ctx, day(2))
	require.NoError(t, err)
	threads, err := f.events.Threads(ctx, slot.ID)
	require.NoError(t, err)
	assert.Empty(t, threads)

	result, err := f.svc.GenerateMonth(ctx, slotdays.Default)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{day(2)}, result.AlreadyPresent)
	threads, err = f.events.Threads(ctx, slot.ID)
	require.NoError(t, err)
	require.Len(t, threads, 4)
	for _, th := range threads {
		assert.NotContains(t, th.ThreadID, "dry-run")
	}
}

func TestGenerateMonth_NeverOverwritesExistingSlot(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// An administrator opened a holiday Friday by hand.
	_, err := f.events.Upsert(ctx, day(16), 3, false)
	require.NoError(t, err)

	result, err := f.svc.GenerateMonth(ctx, slotdays.Default)
	require.NoError(t, err)
	assert.Contains(t, result.AlreadyPresent, day(16))

	slot, err := f.events.GetByDate(ctx, day(16))
	require.NoError(t, err)
	assert.Equal(t, 3, slot.TableCount)
	assert.Equal(t, events.StatusOpen, slot.Status)
}

func TestGenerateMonth_UsesStoredPolicy(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.svc.SetPolicy(ctx, slotdays.Weekdays{3}))

	result, err := f.svc.GenerateMonth(ctx, nil)
	require.NoError(t, err)
	// Wednesdays: 7 is open, 14 and 21 are closed, 28 is open.
	assert.Equal(t, []time.Time{day(7), day(28)}, result.Created)
}

func TestGenerateMonth_RetriesFailedThreads(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.messenger.CreateThreadUnderFunc = func(ctx context.Context, channelID, title, startingMessage string) (string, error) {
		if strings.Contains(title, "AoS") {
			return "", errors.New("rate_limited")
		}
		return channelID + ":" + title, nil
	}

	_, err := f.svc.GenerateMonth(ctx, slotdays.Default)
	require.NoError(t, err)
	slot, err := f.events.GetByDate(ctx, day(2))
	require.NoError(t, err)
	threads, err := f.events.Threads(ctx, slot.ID)
	require.NoError(t, err)
	assert.Len(t, threads, 3)

	f.messenger.CreateThreadUnderFunc = nil
	_, err = f.svc.GenerateMonth(ctx, slotdays.Default)
	require.NoError(t, err)
	threads, err = f.events.Threads(ctx, slot.ID)
	require.NoError(t, err)
	assert.Len(t, threads, 4)
}

func TestSetTables(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("not a slot day", func(t *testing.T) {
		_, err := f.svc.SetTables(ctx, day(1), 3)
		assert.ErrorIs(t, err, scheduler.ErrNotASlotDay)
	})

	t.Run("opens a slot with tables", func(t *testing.T) {
		res, err := f.svc.SetTables(ctx, day(2), 3)
		require.NoError(t, err)
		assert.Equal(t, events.StatusOpen, res.Slot.Status)
		assert.Equal(t, 3, res.Slot.TableCount)
		threads, err := f.events.Threads(ctx, res.Slot.ID)
		require.NoError(t, err)
		assert.Len(t, threads, 4)
	})

	t.Run("zero tables closes", func(t *testing.T) {
		res, err := f.svc.SetTables(ctx, day(2), 0)
		require.NoError(t, err)
		assert.Equal(t, events.StatusClosed, res.Slot.Status)
		assert.False(t, res.Slot.Bookable())
	})

	t.Run("closure keeps the slot closed", func(t *testing.T) {
		res, err := f.svc.SetTables(ctx, day(16), 5)
		require.NoError(t, err)
		assert.Equal(t, events.StatusClosed, res.Slot.Status)
		assert.True(t, res.Slot.VacationClosure)
		assert.Equal(t, vacations.ReasonClosurePeriod, res.Closure.Reason)
	})

	t.Run("negative count", func(t *testing.T) {
		_, err := f.svc.SetTables(ctx, day(2), -1)
		assert.ErrorIs(t, err, events.ErrNegativeTables)
	})
}

func TestSetTables_ZeroLeavesPendingMatchUntouched(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.svc.SetTables(ctx, day(2), 2)
	require.NoError(t, err)
	m := &matches.Match{SlotID: res.Slot.ID, Player1: "U1", Player2: "U2", GameCode: "W40K"}
	require.NoError(t, f.matches.CreateIfNoConflict(ctx, m))

	res, err = f.svc.SetTables(ctx, day(2), 0)
	require.NoError(t, err)
	assert.Equal(t, events.StatusClosed, res.Slot.Status)

	got, err := f.matches.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, matches.StatusPending, got.Status)
}

func TestShowTables(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.ShowTables(ctx, day(2))
	assert.ErrorIs(t, err, scheduler.ErrNoSlot)

	_, err = f.svc.SetTables(ctx, day(2), 4)
	require.NoError(t, err)
	slot, err := f.svc.ShowTables(ctx, day(2))
	require.NoError(t, err)
	assert.Equal(t, 4, slot.TableCount)
}

func TestDeleteDate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.svc.SetTables(ctx, day(2), 2)
	require.NoError(t, err)
	m := &matches.Match{SlotID: res.Slot.ID, Player1: "U1", Player2: "U2", GameCode: "W40K"}
	require.NoError(t, f.matches.CreateIfNoConflict(ctx, m))
	require.NoError(t, f.ledger.Append(ctx,
		ledger.Record{MatchID: m.ID, Event: "booked", Channel: ledger.ChannelDM, Recipient: "U1", Success: true},
		ledger.Record{MatchID: m.ID, Event: "booked", Channel: ledger.ChannelDM, Recipient: "U2", Success: true},
	))

	plan, err := f.svc.PlanDeleteDate(ctx, day(2))
	require.NoError(t, err)
	assert.Equal(t, "date:2024-02-02:1:1:2", plan.Key())
	assert.Equal(t, 1, plan.Slots)
	assert.Equal(t, 1, plan.Matches)
	assert.Equal(t, 2, plan.Notifications)

	// Planning mutates nothing.
	_, err = f.matches.Get(ctx, m.ID)
	require.NoError(t, err)

	result, err := f.svc.ConfirmDeletion(ctx, plan.Key())
	require.NoError(t, err)
	assert.Equal(t, plan, result.Plan)
	assert.Equal(t, 4, result.ThreadsArchived)
	assert.Len(t, f.messenger.Archived, 4)

	list, err := f.matches.List(ctx, matches.Filter{From: day(2), To: day(2)})
	require.NoError(t, err)
	assert.Empty(t, list)
	count, err := f.ledger.CountByMatches(ctx, []string{m.ID})
	require.NoError(t, err)
	assert.Zero(t, count)
	_, err = f.events.GetByDate(ctx, day(2))
	assert.ErrorIs(t, err, events.ErrNotFound)
	assert.Contains(t, f.pubsub.Topics(), "slots-deleted")
}

func TestDeleteDate_ArchiveFailureKeepsDeletion(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.SetTables(ctx, day(2), 2)
	require.NoError(t, err)
	f.messenger.ArchiveAndDeleteFunc = func(ctx context.Context, threadID string) error {
		return errors.New("message_not_found")
	}

	plan, err := f.svc.PlanDeleteDate(ctx, day(2))
	require.NoError(t, err)
	result, err := f.svc.ConfirmDeletion(ctx, plan.Key())
	require.NoError(t, err)
	assert.Equal(t, 4, result.ThreadsFailed)
	_, err = f.events.GetByDate(ctx, day(2))
	assert.ErrorIs(t, err, events.ErrNotFound)
}

func TestDeleteMonth(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.PlanDeleteMonth(ctx)
	assert.ErrorIs(t, err, scheduler.ErrNoSlot)

	_, err = f.svc.GenerateMonth(ctx, slotdays.Weekdays{1, 5})
	require.NoError(t, err)
	plan, err := f.svc.PlanDeleteMonth(ctx)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("month:2024-02:%d:0:0", plan.Slots), plan.Key())
	assert.Equal(t, day(29), plan.To)

	result, err := f.svc.ConfirmDeletion(ctx, plan.Key())
	require.NoError(t, err)
	assert.Equal(t, plan.Slots, result.Plan.Slots)

	slots, err := f.svc.ListMonth(ctx)
	require.NoError(t, err)
	assert.Empty(t, slots)

	_, err = f.svc.ConfirmDeletion(ctx, plan.Key())
	assert.ErrorIs(t, err, scheduler.ErrNoSlot, "a consumed key deletes nothing")
}

func TestDeleteDate_RequiresPlannedCounts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.SetTables(ctx, day(2), 2)
	require.NoError(t, err)

	_, err = f.svc.ConfirmDeletion(ctx, "date:2024-02-02")
	assert.ErrorIs(t, err, scheduler.ErrInvalidDeletionKey)
	_, err = f.events.GetByDate(ctx, day(2))
	assert.NoError(t, err, "a key without counts deletes nothing")
}

func TestDeleteDate_BookingAfterPlan(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.svc.SetTables(ctx, day(2), 2)
	require.NoError(t, err)
	plan, err := f.svc.PlanDeleteDate(ctx, day(2))
	require.NoError(t, err)
	assert.Zero(t, plan.Matches)

	m := &matches.Match{SlotID: res.Slot.ID, Player1: "U1", Player2: "U2", GameCode: "W40K"}
	require.NoError(t, f.matches.CreateIfNoConflict(ctx, m))

	_, err = f.svc.ConfirmDeletion(ctx, plan.Key())
	assert.ErrorIs(t, err, events.ErrPlanOutdated)
	_, err = f.matches.Get(ctx, m.ID)
	assert.NoError(t, err, "the new match survives")
	_, err = f.events.GetByDate(ctx, day(2))
	assert.NoError(t, err)
	assert.Empty(t, f.messenger.Archived)

	fresh, err := f.svc.PlanDeleteDate(ctx, day(2))
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Matches)
	_, err = f.svc.ConfirmDeletion(ctx, fresh.Key())
	assert.NoError(t, err)
}

func TestParseDeletionKey(t *testing.T) {
	f := setup(t)
	for _, key := range []string{
		"", "date", "date:09/02/2024", "month:2024-13", "year:2024",
		"date:2024-02-02", "month:2024-02",
		"date:2024-02-02:1:x:0", "date:2024-02-02:-1:0:0", "date:2024-02-02:0:0:0",
		"month:2024-03:2:0:0",
	} {
		_, err := f.svc.ParseDeletionKey(key)
		assert.ErrorIs(t, err, scheduler.ErrInvalidDeletionKey, key)
	}

	plan, err := f.svc.ParseDeletionKey("month:2024-02:3:1:2")
	require.NoError(t, err)
	assert.Equal(t, scheduler.ScopeMonth, plan.Scope)
	assert.Equal(t, day(1), plan.From)
	assert.Equal(t, day(29), plan.To)
	assert.Equal(t, 3, plan.Slots)
	assert.Equal(t, 1, plan.Matches)
	assert.Equal(t, 2, plan.Notifications)
}

func TestSchedule(t *testing.T) {
	f := setup(t)
	c := cron.New(cron.WithLocation(paris))

	_, err := f.svc.Schedule(c, "not a spec")
	assert.Error(t, err)

	id, err := f.svc.Schedule(c, "0 6 1 * *")
	require.NoError(t, err)
	assert.NotZero(t, id)
	require.Len(t, c.Entries(), 1)

	// Run the registered job synchronously.
	c.Entry(id).Job.Run()
	slots, err := f.svc.ListMonth(context.Background())
	require.NoError(t, err)
	assert.Len(t, slots, 1)
}
