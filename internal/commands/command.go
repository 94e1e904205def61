// Package commands turns slash commands, button clicks and mentions into one
// Command type and runs it against the booking services.
package commands

import (
	"errors"
	"fmt"
)

// Kind is what a command asks for.
type Kind int

const (
	KindHelp Kind = iota
	KindHealth
	KindConfigShow
	KindTablesSet
	KindTablesShow
	KindSlotDaysSet
	KindSlotDaysShow
	KindGenerateMonth
	KindPlanDeleteDate
	KindPlanDeleteMonth
	KindConfirmDeletion
	KindCreateMatch
	KindApprove
	KindReject
	KindCancel
)

var kindNames = map[Kind]string{
	KindHelp:            "help",
	KindHealth:          "health",
	KindConfigShow:      "config_show",
	KindTablesSet:       "tables_set",
	KindTablesShow:      "tables_show",
	KindSlotDaysSet:     "slot_days_set",
	KindSlotDaysShow:    "slot_days_show",
	KindGenerateMonth:   "generate_month",
	KindPlanDeleteDate:  "plan_delete_date",
	KindPlanDeleteMonth: "plan_delete_month",
	KindConfirmDeletion: "confirm_deletion",
	KindCreateMatch:     "create_match",
	KindApprove:         "approve",
	KindReject:          "reject",
	KindCancel:          "cancel",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Administrative reports whether only administrators may run the command.
// Approve, reject and cancel check rights against the match itself.
func (k Kind) Administrative() bool {
	switch k {
	case KindConfigShow, KindTablesSet, KindSlotDaysSet, KindGenerateMonth,
		KindPlanDeleteDate, KindPlanDeleteMonth, KindConfirmDeletion:
		return true
	}
	return false
}

// Command is one request, whatever surface it came from.
type Command struct {
	Kind     Kind
	Actor    string
	ThreadID string

	Date    string
	Count   string
	Days    string
	Key     string
	MatchID string
	Player1 string
	Player2 string
	Game    string
	Reason  string
}

// Button action ids.
const (
	ActionApprove         = "mu_match_validate"
	ActionReject          = "mu_match_refuse"
	ActionCancel          = "mu_match_cancel"
	ActionConfirmDeletion = "mu_delete_confirm"
)

// ErrUnknownAction is returned for button ids this package did not emit.
var ErrUnknownAction = errors.New("commands: unknown action")

// Action is a button offered with a reply.
type Action struct {
	ID     string
	Label  string
	Value  string
	Danger bool
}

// Reply is what the caller renders back to the user.
type Reply struct {
	Text      string
	Ephemeral bool
	Actions   []Action
}

// FromAction builds the command behind a button click.
func FromAction(actionID, value, actor string) (Command, error) {
	switch actionID {
	case ActionApprove:
		return Command{Kind: KindApprove, Actor: actor, MatchID: value}, nil
	case ActionReject:
		return Command{Kind: KindReject, Actor: actor, MatchID: value}, nil
	case ActionCancel:
		return Command{Kind: KindCancel, Actor: actor, MatchID: value}, nil
	case ActionConfirmDeletion:
		return Command{Kind: KindConfirmDeletion, Actor: actor, Key: value}, nil
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownAction, actionID)
	}
}

func matchActions(matchID string) []Action {
	return []Action{
		{ID: ActionApprove, Label: "Valider", Value: matchID},
		{ID: ActionReject, Label: "Refuser", Value: matchID, Danger: true},
		{ID: ActionCancel, Label: "Annuler", Value: matchID},
	}
}
