package commands

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/munitorum/internal/admin"
	"github.com/mauv0809/munitorum/internal/booking"
	"github.com/mauv0809/munitorum/internal/dates"
	"github.com/mauv0809/munitorum/internal/games"
	"github.com/mauv0809/munitorum/internal/lifecycle"
	"github.com/mauv0809/munitorum/internal/scheduler"
	"github.com/mauv0809/munitorum/internal/slotdays"
)

// Pinger checks the database.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Settings is the configuration shown by the config command.
type Settings struct {
	Timezone        string
	Region          string
	ChannelID       string
	MentionInThread bool
	Schedule        string
}

// Dispatcher runs commands.
type Dispatcher struct {
	scheduler *scheduler.Service
	booking   *booking.Engine
	lifecycle *lifecycle.Service
	admin     admin.Checker
	catalog   *games.Catalog
	db        Pinger
	settings  Settings
	loc       *time.Location
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(
	schedulerSvc *scheduler.Service,
	bookingEngine *booking.Engine,
	lifecycleSvc *lifecycle.Service,
	checker admin.Checker,
	catalog *games.Catalog,
	db Pinger,
	settings Settings,
	loc *time.Location,
) *Dispatcher {
	return &Dispatcher{
		scheduler: schedulerSvc,
		booking:   bookingEngine,
		lifecycle: lifecycleSvc,
		admin:     checker,
		catalog:   catalog,
		db:        db,
		settings:  settings,
		loc:       loc,
	}
}

// Dispatch runs cmd and renders the outcome. Domain failures become replies,
// never errors.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) Reply {
	log.Debug("Dispatching command", "kind", cmd.Kind, "actor", cmd.Actor)

	if cmd.Kind.Administrative() {
		ok, err := d.admin.IsAdministrator(ctx, cmd.Actor)
		if err != nil {
			log.Error("Failed to check administrative capability", "error", err, "actor", cmd.Actor)
		}
		if !ok {
			return errorReply(lifecycle.ErrUnauthorized, d.catalog)
		}
	}

	switch cmd.Kind {
	case KindHealth:
		return d.health(ctx)
	case KindConfigShow:
		return d.configShow(ctx)
	case KindTablesSet:
		return d.tablesSet(ctx, cmd)
	case KindTablesShow:
		return d.tablesShow(ctx, cmd)
	case KindSlotDaysSet:
		return d.slotDaysSet(ctx, cmd)
	case KindSlotDaysShow:
		return d.slotDaysShow(ctx)
	case KindGenerateMonth:
		return d.generateMonth(ctx)
	case KindPlanDeleteDate:
		return d.planDeleteDate(ctx, cmd)
	case KindPlanDeleteMonth:
		return d.planDeleteMonth(ctx)
	case KindConfirmDeletion:
		return d.confirmDeletion(ctx, cmd)
	case KindCreateMatch:
		return d.createMatch(ctx, cmd)
	case KindApprove, KindReject, KindCancel:
		return d.transition(ctx, cmd)
	default:
		return Reply{Text: helpText, Ephemeral: true}
	}
}

func (d *Dispatcher) health(ctx context.Context) Reply {
	if err := d.db.PingContext(ctx); err != nil {
		log.Error("Health check failed", "error", err)
		return Reply{Text: "⚠️ Base de données injoignable.", Ephemeral: true}
	}
	return Reply{Text: "✅ Munitorum opérationnel.", Ephemeral: true}
}

func (d *Dispatcher) configShow(ctx context.Context) Reply {
	days, err := d.scheduler.Policy(ctx)
	if err != nil {
		return errorReply(err, d.catalog)
	}
	labels := make([]string, 0)
	for _, g := range d.catalog.Active() {
		labels = append(labels, g.Label)
	}
	mention := "non"
	if d.settings.MentionInThread {
		mention = "oui"
	}
	lines := []string{
		"*Configuration*",
		"• Fuseau horaire : " + d.settings.Timezone,
		"• Académie : " + d.settings.Region,
		"• Salon des soirées : <#" + d.settings.ChannelID + ">",
		"• Jours de soirée : " + slotdays.Format(days),
		"• Jeux : " + strings.Join(labels, ", "),
		"• Annonces dans les fils : " + mention,
		"• Génération automatique : `" + d.settings.Schedule + "`",
	}
	return Reply{Text: strings.Join(lines, "\n"), Ephemeral: true}
}

func (d *Dispatcher) tablesSet(ctx context.Context, cmd Command) Reply {
	date, err := dates.Parse(cmd.Date, d.loc)
	if err != nil {
		return errorReply(err, d.catalog)
	}
	count, err := strconv.Atoi(strings.TrimSpace(cmd.Count))
	if err != nil || count < 0 {
		return Reply{Text: "❌ Nombre de tables invalide.", Ephemeral: true}
	}
	res, err := d.scheduler.SetTables(ctx, date, count)
	if err != nil {
		return errorReply(err, d.catalog)
	}
	text := "✅ " + describeSlot(res.Slot)
	if res.Closure.Closed {
		text += " Motif : " + res.Closure.Reason.Label() + "."
	}
	return Reply{Text: text, Ephemeral: true}
}

func (d *Dispatcher) tablesShow(ctx context.Context, cmd Command) Reply {
	date, err := dates.Parse(cmd.Date, d.loc)
	if err != nil {
		return errorReply(err, d.catalog)
	}
	slot, err := d.scheduler.ShowTables(ctx, date)
	if err != nil {
		return errorReply(err, d.catalog)
	}
	return Reply{Text: "📅 " + describeSlot(slot), Ephemeral: true}
}

func (d *Dispatcher) slotDaysSet(ctx context.Context, cmd Command) Reply {
	days := slotdays.ParseInput(cmd.Days)
	if err := d.scheduler.SetPolicy(ctx, days); err != nil {
		return errorReply(err, d.catalog)
	}
	return Reply{Text: "✅ Jours de soirée : " + slotdays.Format(days) + ".", Ephemeral: true}
}

func (d *Dispatcher) slotDaysShow(ctx context.Context) Reply {
	days, err := d.scheduler.Policy(ctx)
	if err != nil {
		return errorReply(err, d.catalog)
	}
	return Reply{Text: "📅 Jours de soirée : " + slotdays.Format(days) + ".", Ephemeral: true}
}

func (d *Dispatcher) generateMonth(ctx context.Context) Reply {
	res, err := d.scheduler.GenerateMonth(ctx, nil)
	if err != nil {
		return errorReply(err, d.catalog)
	}
	return Reply{Text: describeGeneration(res), Ephemeral: true}
}

func (d *Dispatcher) planDeleteDate(ctx context.Context, cmd Command) Reply {
	date, err := dates.Parse(cmd.Date, d.loc)
	if err != nil {
		return errorReply(err, d.catalog)
	}
	plan, err := d.scheduler.PlanDeleteDate(ctx, date)
	if err != nil {
		return errorReply(err, d.catalog)
	}
	return planReply(plan)
}

func (d *Dispatcher) planDeleteMonth(ctx context.Context) Reply {
	plan, err := d.scheduler.PlanDeleteMonth(ctx)
	if err != nil {
		return errorReply(err, d.catalog)
	}
	return planReply(plan)
}

func (d *Dispatcher) confirmDeletion(ctx context.Context, cmd Command) Reply {
	res, err := d.scheduler.ConfirmDeletion(ctx, cmd.Key)
	if err != nil {
		return errorReply(err, d.catalog)
	}
	text := "🗑️ Supprimé : " + counts(res.Plan.Slots, res.Plan.Matches, res.Plan.Notifications) + "."
	if res.ThreadsFailed > 0 {
		text += " " + strconv.Itoa(res.ThreadsFailed) + " fil(s) n'ont pas pu être supprimés."
	}
	return Reply{Text: text, Ephemeral: true}
}

func (d *Dispatcher) createMatch(ctx context.Context, cmd Command) Reply {
	m, err := d.booking.CreateMatch(ctx, booking.Request{
		DateText:  cmd.Date,
		ThreadID:  cmd.ThreadID,
		Player1:   cmd.Player1,
		Player2:   cmd.Player2,
		GameInput: cmd.Game,
	})
	if err != nil {
		return errorReply(err, d.catalog)
	}
	text := "📝 Partie " + d.catalog.Label(m.GameCode) + " du " + dates.Format(m.SlotDate) + " : <@" + m.Player1 + "> vs <@" + m.Player2 + ">. En attente de validation."
	return Reply{Text: text, Actions: matchActions(m.ID)}
}

func (d *Dispatcher) transition(ctx context.Context, cmd Command) Reply {
	var (
		res lifecycle.Result
		err error
	)
	switch cmd.Kind {
	case KindApprove:
		res, err = d.lifecycle.Approve(ctx, cmd.MatchID, cmd.Actor)
	case KindReject:
		res, err = d.lifecycle.Reject(ctx, cmd.MatchID, cmd.Actor, cmd.Reason)
	default:
		res, err = d.lifecycle.Cancel(ctx, cmd.MatchID, cmd.Actor, cmd.Reason)
	}
	if err != nil {
		return errorReply(err, d.catalog)
	}
	if !res.Changed {
		return Reply{Text: "ℹ️ Rien à faire : la partie est déjà " + res.Match.Status.Label() + ".", Ephemeral: true}
	}
	m := res.Match
	text := "Partie " + d.catalog.Label(m.GameCode) + " du " + dates.Format(m.SlotDate) + " (<@" + m.Player1 + "> vs <@" + m.Player2 + ") " + m.Status.Label() + " par <@" + cmd.Actor + ">."
	if m.StatusReason != "" {
		text += " Motif : " + m.StatusReason
	}
	return Reply{Text: text}
}
