package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/munitorum/internal/commands"
	"github.com/mauv0809/munitorum/internal/notifier"
	slacknotifier "github.com/mauv0809/munitorum/internal/notifier/slack"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
)

// SlashCommandHandler answers /mu and the /mu_xxx shortcuts in the response body.
func (s *Server) SlashCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, err := slack.SlashCommandParse(r)
		if err != nil {
			log.Error("Failed to parse slash command", "error", err)
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}
		log.Debug("Received slash command", "command", sc.Command, "text", sc.Text, "user", sc.UserID)

		cmd, err := commands.ParseSlash(sc.Command, sc.Text, sc.UserID)
		if errors.Is(err, commands.ErrUnknownCommand) {
			log.Info("Unknown slash command, answering with help", "command", sc.Command, "text", sc.Text)
			cmd = commands.Command{Kind: commands.KindHelp, Actor: sc.UserID}
		} else if err != nil {
			log.Error("Failed to parse command", "error", err)
			http.Error(w, "Invalid command", http.StatusBadRequest)
			return
		}

		reply := s.Dispatcher.Dispatch(r.Context(), cmd)
		respondWithSlackMsg(w, toSlackMessage(reply))
	}
}

// InteractionHandler acknowledges button clicks at once, then runs the
// commands behind them and answers through the interaction's response_url.
func (s *Server) InteractionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			log.Error("Failed to parse form", "error", err)
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}

		var callback slack.InteractionCallback
		if err := json.Unmarshal([]byte(r.FormValue("payload")), &callback); err != nil {
			log.Error("Failed to unmarshal interaction payload", "error", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if callback.Type != slack.InteractionTypeBlockActions {
			log.Debug("Ignoring interaction", "type", callback.Type)
			w.WriteHeader(http.StatusOK)
			return
		}

		var cmds []commands.Command
		for _, action := range callback.ActionCallback.BlockActions {
			cmd, err := commands.FromAction(action.ActionID, action.Value, callback.User.ID)
			if err != nil {
				log.Warn("Ignoring unknown action", "actionID", action.ActionID, "user", callback.User.ID)
				continue
			}
			cmds = append(cmds, cmd)
		}
		if len(cmds) > 0 {
			s.runDetached(r, func(ctx context.Context) {
				for _, cmd := range cmds {
					reply := s.Dispatcher.Dispatch(ctx, cmd)
					s.respondToURL(ctx, callback.ResponseURL, reply)
				}
			})
		}
		w.WriteHeader(http.StatusOK)
	}
}

// EventsHandler answers the Events API handshake and handles bot mentions.
func (s *Server) EventsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.Error("Failed to read request body", "error", err)
			http.Error(w, "Failed to read request body", http.StatusInternalServerError)
			return
		}

		event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
		if err != nil {
			log.Error("Failed to parse event payload", "error", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		switch event.Type {
		case slackevents.URLVerification:
			var challenge slackevents.ChallengeResponse
			if err := json.Unmarshal(body, &challenge); err != nil {
				http.Error(w, "Invalid JSON", http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(challenge.Challenge))
			return
		case slackevents.CallbackEvent:
			// Retries are acknowledged without being handled again.
			if retry := r.Header.Get("X-Slack-Retry-Num"); retry != "" {
				log.Info("Ignoring Slack event retry", "retry", retry)
				break
			}
			if mention, ok := event.InnerEvent.Data.(*slackevents.AppMentionEvent); ok {
				s.runDetached(r, func(ctx context.Context) { s.handleMention(ctx, mention) })
			} else {
				log.Debug("Ignoring event", "type", event.InnerEvent.Type)
			}
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}

// handleMention books a match from a message addressed to the bot. Inside a
// slot thread the thread gives the slot and the game.
func (s *Server) handleMention(ctx context.Context, ev *slackevents.AppMentionEvent) {
	if ev.BotID != "" || ev.User == s.Cfg.Slack.BotUserID {
		return
	}
	log.Info("Received mention", "user", ev.User, "channel", ev.Channel, "thread", ev.ThreadTimeStamp)

	var threadID string
	replyTo := slacknotifier.ThreadID(ev.Channel, ev.TimeStamp)
	if ev.ThreadTimeStamp != "" {
		threadID = slacknotifier.ThreadID(ev.Channel, ev.ThreadTimeStamp)
		replyTo = threadID
	}

	cmd := commands.ParseMention(ev.Text, s.Cfg.Slack.BotUserID, threadID, ev.User)
	reply := s.Dispatcher.Dispatch(ctx, cmd)
	if _, err := s.Messenger.SendToChannel(ctx, replyTo, reply.Text); err != nil {
		log.Warn("Failed to answer mention", "error", err, "channel", ev.Channel)
	}
}

// runDetached runs fn once the request has been acknowledged. The context
// keeps the request's values, such as dry run, but not its cancellation.
func (s *Server) runDetached(r *http.Request, fn func(ctx context.Context)) {
	ctx := context.WithoutCancel(r.Context())
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		fn(ctx)
	}()
}

// Wait blocks until the work started for Slack interactions and events is done.
func (s *Server) Wait() {
	s.background.Wait()
}

func (s *Server) respondToURL(ctx context.Context, responseURL string, reply commands.Reply) {
	if responseURL == "" {
		log.Warn("Interaction without response_url, reply dropped", "text", reply.Text)
		return
	}
	if notifier.IsDryRun(ctx) {
		log.Info("[Dry Run] Would answer interaction", "text", reply.Text)
		return
	}
	msg := toSlackMessage(reply)
	err := slack.PostWebhookContext(ctx, responseURL, &slack.WebhookMessage{
		Text:         msg.Text,
		Blocks:       &msg.Blocks,
		ResponseType: msg.ResponseType,
	})
	if err != nil {
		log.Warn("Failed to answer interaction", "error", err)
	}
}

// respondWithSlackMsg is a helper to format and write a Slack message as an HTTP response.
func respondWithSlackMsg(w http.ResponseWriter, msg slack.Message) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		log.Error("Failed to encode slack message to JSON", "error", err)
	}
}

func toSlackMessage(reply commands.Reply) slack.Message {
	buttons := make([]slacknotifier.Button, 0, len(reply.Actions))
	for _, a := range reply.Actions {
		style := slack.StylePrimary
		if a.Danger {
			style = slack.StyleDanger
		}
		buttons = append(buttons, slacknotifier.Button{ActionID: a.ID, Label: a.Label, Value: a.Value, Style: style})
	}
	return slacknotifier.FormatReply(reply.Text, reply.Ephemeral, buttons...)
}
