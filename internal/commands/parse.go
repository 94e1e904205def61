package commands

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mauv0809/munitorum/internal/textnorm"
)

// ErrUnknownCommand is returned when text does not name a known command.
var ErrUnknownCommand = errors.New("commands: unknown command")

var (
	mentionPattern = regexp.MustCompile(`<@([A-Z0-9]+)(?:\|[^>]*)?>`)
	datePattern    = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)
	versusPattern  = regexp.MustCompile(`(?i)^(vs\.?|contre|versus)$`)
)

// Verbs, compared after folding. French and English spellings are both accepted.
var verbs = map[string]string{
	"help":      "help",
	"aide":      "help",
	"health":    "health",
	"sante":     "health",
	"config":    "config",
	"tables":    "tables",
	"jours":     "days",
	"days":      "days",
	"generate":  "generate",
	"generer":   "generate",
	"delete":    "delete",
	"supprimer": "delete",
	"match":     "match",
	"partie":    "match",
	"approve":   "approve",
	"valider":   "approve",
	"reject":    "reject",
	"refuser":   "reject",
	"cancel":    "cancel",
	"annuler":   "cancel",
}

// ParseSlash reads a slash command. command is the slash command name
// ("/mu", "/mu_tables", ...); the part after "/mu_" is used as the verb.
func ParseSlash(command, text, actor string) (Command, error) {
	fields := strings.Fields(text)
	if suffix, ok := strings.CutPrefix(strings.TrimPrefix(command, "/"), "mu_"); ok {
		fields = append([]string{suffix}, fields...)
	}
	if len(fields) == 0 {
		return Command{Kind: KindHelp, Actor: actor}, nil
	}

	verb, ok := verbs[textnorm.Fold(fields[0])]
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
	}
	args := fields[1:]
	sub := ""
	if len(args) > 0 {
		sub = textnorm.Fold(args[0])
	}
	cmd := Command{Actor: actor}

	switch verb {
	case "help":
		cmd.Kind = KindHelp
	case "health":
		cmd.Kind = KindHealth
	case "config":
		cmd.Kind = KindConfigShow
	case "tables":
		switch {
		case (sub == "set" || sub == "definir") && len(args) >= 3:
			cmd.Kind, cmd.Date, cmd.Count = KindTablesSet, args[1], args[2]
		case (sub == "show" || sub == "voir") && len(args) >= 2:
			cmd.Kind, cmd.Date = KindTablesShow, args[1]
		default:
			return Command{}, fmt.Errorf("%w: tables %s", ErrUnknownCommand, strings.Join(args, " "))
		}
	case "days":
		switch {
		case (sub == "set" || sub == "definir") && len(args) >= 2:
			cmd.Kind, cmd.Days = KindSlotDaysSet, strings.Join(args[1:], " ")
		case sub == "" || sub == "show" || sub == "voir":
			cmd.Kind = KindSlotDaysShow
		default:
			return Command{}, fmt.Errorf("%w: jours %s", ErrUnknownCommand, strings.Join(args, " "))
		}
	case "generate":
		cmd.Kind = KindGenerateMonth
	case "delete":
		switch {
		case sub == "date" && len(args) >= 2:
			cmd.Kind, cmd.Date = KindPlanDeleteDate, args[1]
		case sub == "month" || sub == "mois":
			cmd.Kind = KindPlanDeleteMonth
		case (sub == "confirm" || sub == "confirmer") && len(args) >= 2:
			cmd.Kind, cmd.Key = KindConfirmDeletion, args[1]
		default:
			return Command{}, fmt.Errorf("%w: delete %s", ErrUnknownCommand, strings.Join(args, " "))
		}
	case "match":
		cmd = parseMatch(strings.Join(args, " "), actor)
	case "approve", "reject", "cancel":
		if len(args) == 0 {
			return Command{}, fmt.Errorf("%w: %s needs a match id", ErrUnknownCommand, verb)
		}
		cmd.MatchID = args[0]
		cmd.Reason = strings.Join(args[1:], " ")
		cmd.Kind = map[string]Kind{"approve": KindApprove, "reject": KindReject, "cancel": KindCancel}[verb]
	}
	return cmd, nil
}

// ParseMention reads a message addressed to the bot, e.g.
// "<@BOT> <@U1> vs <@U2> 40k" posted in a slot thread, or
// "<@BOT> 09/02/2024 <@U1> vs <@U2> 40k" anywhere.
func ParseMention(text, botUserID, threadID, actor string) Command {
	text = strings.Replace(text, "<@"+botUserID+">", "", 1)
	cmd := parseMatch(text, actor)
	cmd.ThreadID = threadID
	return cmd
}

// parseMatch extracts a date, two player mentions and the game from free text.
// Whatever is left once those are removed is the game.
func parseMatch(text, actor string) Command {
	cmd := Command{Kind: KindCreateMatch, Actor: actor}

	if date := datePattern.FindString(text); date != "" {
		cmd.Date = date
		text = strings.Replace(text, date, " ", 1)
	}

	mentions := mentionPattern.FindAllStringSubmatch(text, -1)
	if len(mentions) > 0 {
		cmd.Player1 = mentions[0][1]
	}
	if len(mentions) > 1 {
		cmd.Player2 = mentions[1][1]
	}
	text = mentionPattern.ReplaceAllString(text, " ")

	var game []string
	for _, word := range strings.Fields(text) {
		if versusPattern.MatchString(word) {
			continue
		}
		game = append(game, word)
	}
	cmd.Game = strings.Join(game, " ")
	return cmd
}
