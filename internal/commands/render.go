package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/munitorum/internal/booking"
	"github.com/mauv0809/munitorum/internal/dates"
	"github.com/mauv0809/munitorum/internal/events"
	"github.com/mauv0809/munitorum/internal/games"
	"github.com/mauv0809/munitorum/internal/lifecycle"
	"github.com/mauv0809/munitorum/internal/scheduler"
	"github.com/mauv0809/munitorum/internal/slotdays"
)

const helpText = "*Munitorum*\n" +
	"• `/mu match JJ/MM/AAAA @joueur1 vs @joueur2 jeu` : enregistrer une partie\n" +
	"• `/mu valider|refuser|annuler <id> [motif]` : décider d'une partie\n" +
	"• `/mu tables show JJ/MM/AAAA` : voir une soirée\n" +
	"• `/mu tables set JJ/MM/AAAA <n>` : fixer le nombre de tables (admin)\n" +
	"• `/mu jours [set ven,sam]` : jours de soirée\n" +
	"• `/mu generer` : créer les soirées du mois (admin)\n" +
	"• `/mu supprimer date JJ/MM/AAAA|mois` : supprimer des soirées (admin)\n" +
	"• `/mu config` et `/mu sante`\n" +
	"Dans le fil d'une soirée, mentionnez-moi : `@bot @joueur1 vs @joueur2`."

// errorReply renders a failure for the user. Unexpected errors are logged
// and shown generically.
func errorReply(err error, catalog *games.Catalog) Reply {
	var text string
	switch {
	case errors.Is(err, dates.ErrInvalidFormat):
		text = "❌ Date invalide, utilisez le format JJ/MM/AAAA."
	case errors.Is(err, booking.ErrNotASlotDay), errors.Is(err, scheduler.ErrNotASlotDay):
		text = "❌ Cette date ne correspond pas à un jour de soirée."
	case errors.Is(err, booking.ErrMissingPlayer):
		text = "❌ Indiquez deux joueurs : `@joueur1 vs @joueur2`."
	case errors.Is(err, booking.ErrSamePlayer):
		text = "❌ Les deux joueurs doivent être différents."
	case errors.Is(err, booking.ErrUnknownActivity):
		labels := make([]string, 0)
		for _, g := range catalog.Active() {
			labels = append(labels, g.Label)
		}
		text = "❌ Jeu inconnu. Jeux disponibles : " + strings.Join(labels, ", ") + "."
	case errors.Is(err, booking.ErrNoSlot), errors.Is(err, scheduler.ErrNoSlot):
		text = "❌ Aucune soirée n'est prévue à cette date."
	case errors.Is(err, booking.ErrSlotClosed):
		text = "⛔ La soirée est fermée (pas de table disponible ou vacances scolaires)."
	case errors.Is(err, booking.ErrDuplicateParticipant):
		text = "⛔ Un des joueurs a déjà une partie enregistrée pour cette soirée."
	case errors.Is(err, lifecycle.ErrMatchNotFound):
		text = "❌ Partie introuvable."
	case errors.Is(err, lifecycle.ErrUnauthorized):
		text = "⛔ Vous n'avez pas les droits pour cette action."
	case errors.Is(err, scheduler.ErrInvalidDeletionKey):
		text = "❌ Demande de suppression invalide."
	case errors.Is(err, events.ErrPlanOutdated):
		text = "⚠️ Des parties ont changé depuis la demande. Relancez la suppression pour voir le nouveau décompte."
	case errors.Is(err, slotdays.ErrEmptyPolicy):
		text = "❌ Aucun jour reconnu. Exemple : `ven` ou `5`."
	case errors.Is(err, events.ErrNegativeTables):
		text = "❌ Nombre de tables invalide."
	default:
		log.Error("Command failed", "error", err)
		text = "⚠️ Une erreur est survenue, réessayez plus tard."
	}
	return Reply{Text: text, Ephemeral: true}
}

func describeSlot(slot *events.Slot) string {
	state := "ouverte"
	if slot.Status == events.StatusClosed {
		state = "fermée"
	}
	text := fmt.Sprintf("Soirée du %s : %d table(s), %s.", dates.Format(slot.Date), slot.TableCount, state)
	if slot.VacationClosure {
		text += " Vacances scolaires."
	}
	return text
}

func describeGeneration(res scheduler.GenerateResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 Soirées de %s : %d créée(s)", dates.FormatMonth(res.Month), len(res.Created))
	if len(res.Created) > 0 {
		b.WriteString(" (" + shortDates(res.Created) + ")")
	}
	fmt.Fprintf(&b, ", %d déjà présente(s), %d fermée(s)", len(res.AlreadyPresent), len(res.ClosedSkipped))
	if len(res.ClosedSkipped) > 0 {
		b.WriteString(" (" + shortDates(res.ClosedSkipped) + ")")
	}
	b.WriteString(".")
	if len(res.Created) > 0 {
		b.WriteString(" Pensez à fixer le nombre de tables avec `/mu tables set`.")
	}
	return b.String()
}

func planReply(plan scheduler.DeletionPlan) Reply {
	scope := "la soirée du " + dates.Format(plan.From)
	if plan.Scope == scheduler.ScopeMonth {
		scope = "les soirées de " + dates.FormatMonth(plan.From)
	}
	text := "⚠️ Supprimer " + scope + " effacera " + counts(plan.Slots, plan.Matches, plan.Notifications) +
		". Confirmez avec le bouton ou `/mu supprimer confirmer " + plan.Key() + "`."
	return Reply{
		Text:      text,
		Ephemeral: true,
		Actions:   []Action{{ID: ActionConfirmDeletion, Label: "Confirmer la suppression", Value: plan.Key(), Danger: true}},
	}
}

func counts(slots, matches, notifications int) string {
	return fmt.Sprintf("%d soirée(s), %d partie(s), %d notification(s)", slots, matches, notifications)
}

func shortDates(days []time.Time) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = d.Format("02/01")
	}
	return strings.Join(parts, ", ")
}
