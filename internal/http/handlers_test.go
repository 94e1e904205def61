package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mauv0809/munitorum/internal/admin"
	"github.com/mauv0809/munitorum/internal/booking"
	"github.com/mauv0809/munitorum/internal/club"
	"github.com/mauv0809/munitorum/internal/commands"
	"github.com/mauv0809/munitorum/internal/config"
	"github.com/mauv0809/munitorum/internal/database"
	"github.com/mauv0809/munitorum/internal/events"
	"github.com/mauv0809/munitorum/internal/games"
	"github.com/mauv0809/munitorum/internal/ledger"
	"github.com/mauv0809/munitorum/internal/lifecycle"
	"github.com/mauv0809/munitorum/internal/matches"
	"github.com/mauv0809/munitorum/internal/metrics"
	"github.com/mauv0809/munitorum/internal/notifier"
	"github.com/mauv0809/munitorum/internal/pubsub"
	"github.com/mauv0809/munitorum/internal/scheduler"
	"github.com/mauv0809/munitorum/internal/slotdays"
	"github.com/mauv0809/munitorum/internal/vacations"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

const testSlackSigningSecret = "test-signing-secret"

var paris, _ = time.LoadLocation("Europe/Paris")

type testServer struct {
	*Server
	db        *sql.DB
	messenger *notifier.Mock
	matches   matches.MatchStore
}

// setupTestServer initializes a new server with an in-memory database and mock collaborators.
func setupTestServer(t *testing.T) testServer {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "")
	require.NoError(t, err)
	t.Cleanup(dbTeardown)

	cfg := config.Config{
		Timezone: "Europe/Paris",
		Slack:    config.SlackConfig{SigningSecret: testSlackSigningSecret, ChannelID: "C1", BotUserID: "BOT"},
	}

	reg := prometheus.NewRegistry()
	metricsSvc := metrics.NewService(reg)
	metricsHandler := metrics.NewMetricsHandler(reg)

	eventStore := events.New(db, paris)
	matchStore := matches.New(db, paris)
	policy := slotdays.New(db)
	catalog := games.Default()
	messenger := notifier.NewMock()
	checker := admin.NewMock("ADMIN")
	ps := pubsub.NewMock("TEST")
	dispatcher := notifier.NewDispatcher(messenger, ledger.New(db), metricsSvc, false)

	sched := scheduler.New(eventStore, policy, vacations.NewMockResolver(), catalog, messenger, ps, metricsSvc,
		scheduler.Config{Location: paris, Region: "Nantes", ChannelID: "C1"}).
		WithClock(func() time.Time { return time.Date(2024, 2, 5, 10, 0, 0, 0, paris) })
	engine := booking.New(eventStore, policy, catalog, matchStore, club.New(db), messenger, dispatcher, ps, metricsSvc, paris)
	life := lifecycle.New(matchStore, checker, catalog, dispatcher, ps, metricsSvc)
	commandDispatcher := commands.NewDispatcher(sched, engine, life, checker, catalog, db,
		commands.Settings{Timezone: "Europe/Paris", Region: "Nantes", ChannelID: "C1"}, paris)

	server := NewServer(commandDispatcher, sched, messenger, db, metricsHandler, cfg, ps)
	return testServer{Server: server, db: db, messenger: messenger, matches: matchStore}
}

// createSlackRequest creates an http.Request signed the way Slack signs its
// calls, with the timestamp and signature headers.
func createSlackRequest(t *testing.T, targetURL, contentType, body, signingSecret string) *http.Request {
	t.Helper()

	req, err := http.NewRequest("POST", targetURL, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)

	timestamp := time.Now().Unix()
	req.Header.Set("X-Slack-Request-Timestamp", strconv.FormatInt(timestamp, 10))

	baseString := fmt.Sprintf("v0:%d:%s", timestamp, body)
	h := hmac.New(sha256.New, []byte(signingSecret))
	h.Write([]byte(baseString))
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(h.Sum(nil)))
	return req
}

func (s testServer) slash(t *testing.T, user, text string) map[string]any {
	t.Helper()
	form := url.Values{"command": {"/mu"}, "text": {text}, "user_id": {user}}
	req := createSlackRequest(t, "/slack/commands", "application/x-www-form-urlencoded", form.Encode(), testSlackSigningSecret)
	rr := httptest.NewRecorder()
	s.Router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var msg map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &msg))
	return msg
}

func TestHealthCheckHandler(t *testing.T) {
	server := setupTestServer(t)

	req, err := http.NewRequest("GET", "/health", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code, "handler returned wrong status code")
	assert.Equal(t, "OK!", rr.Body.String(), "handler returned unexpected body")

	require.NoError(t, server.db.Close())
	rr = httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestMetricsHandler(t *testing.T) {
	server := setupTestServer(t)

	req, err := http.NewRequest("GET", "/metrics", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSlashCommandHandler(t *testing.T) {
	t.Run("rejects request with invalid signature", func(t *testing.T) {
		server := setupTestServer(t)
		form := url.Values{"command": {"/mu"}, "text": {""}, "user_id": {"U1"}}
		req := createSlackRequest(t, "/slack/commands", "application/x-www-form-urlencoded", form.Encode(), "wrong-secret")
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("rejects unsigned request", func(t *testing.T) {
		server := setupTestServer(t)
		req, err := http.NewRequest("POST", "/slack/commands", strings.NewReader("command=%2Fmu"))
		require.NoError(t, err)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("answers help for an unknown verb", func(t *testing.T) {
		server := setupTestServer(t)
		msg := server.slash(t, "U1", "danse")
		assert.Equal(t, "ephemeral", msg["response_type"])
		assert.Contains(t, msg["text"], "/mu match")
	})

	t.Run("books a match with action buttons", func(t *testing.T) {
		server := setupTestServer(t)
		server.slash(t, "ADMIN", "generer")
		server.slash(t, "ADMIN", "tables set 09/02/2024 3")

		msg := server.slash(t, "U1", "match 09/02/2024 <@U1> vs <@U2> 40k")
		assert.Equal(t, "in_channel", msg["response_type"])
		assert.Contains(t, msg["text"], "📝 Partie 40k du 09/02/2024")

		blocks, ok := msg["blocks"].([]any)
		require.True(t, ok)
		require.Len(t, blocks, 2)
		elements := blocks[1].(map[string]any)["elements"].([]any)
		require.Len(t, elements, 3)
		assert.Equal(t, commands.ActionApprove, elements[0].(map[string]any)["action_id"])
		assert.Equal(t, "danger", elements[1].(map[string]any)["style"])
	})
}

type webhookRecorder struct {
	mu     sync.Mutex
	bodies []map[string]any
}

func (w *webhookRecorder) texts() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []string
	for _, b := range w.bodies {
		text, _ := b["text"].(string)
		out = append(out, text)
	}
	return out
}

func newWebhookServer(t *testing.T) (*httptest.Server, *webhookRecorder) {
	t.Helper()
	rec := &webhookRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var msg map[string]any
		_ = json.Unmarshal(body, &msg)
		rec.mu.Lock()
		rec.bodies = append(rec.bodies, msg)
		rec.mu.Unlock()
		w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func interactionBody(t *testing.T, user, responseURL, actionID, value string) string {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"type":         "block_actions",
		"user":         map[string]string{"id": user},
		"response_url": responseURL,
		"actions": []map[string]string{
			{"type": "button", "block_id": "match_actions", "action_id": actionID, "value": value},
		},
	})
	require.NoError(t, err)
	return url.Values{"payload": {string(payload)}}.Encode()
}

func TestInteractionHandler(t *testing.T) {
	server := setupTestServer(t)
	webhook, rec := newWebhookServer(t)

	server.slash(t, "ADMIN", "tables set 09/02/2024 3")
	msg := server.slash(t, "U1", "match 09/02/2024 <@U1> vs <@U2> 40k")
	elements := msg["blocks"].([]any)[1].(map[string]any)["elements"].([]any)
	matchID := elements[0].(map[string]any)["value"].(string)

	click := func(user, actionID string) int {
		body := interactionBody(t, user, webhook.URL, actionID, matchID)
		req := createSlackRequest(t, "/slack/interactions", "application/x-www-form-urlencoded", body, testSlackSigningSecret)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		server.Wait()
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, click("U2", commands.ActionApprove))
	assert.Equal(t, http.StatusOK, click("ADMIN", commands.ActionApprove))
	assert.Equal(t, http.StatusOK, click("ADMIN", "something_else"))

	texts := rec.texts()
	require.Len(t, texts, 2)
	assert.Equal(t, "⛔ Vous n'avez pas les droits pour cette action.", texts[0])
	assert.Contains(t, texts[1], "validée par <@ADMIN>")

	got, err := server.matches.Get(t.Context(), matchID)
	require.NoError(t, err)
	assert.Equal(t, matches.StatusApproved, got.Status)
}

func TestInteractionHandler_DryRunDoesNotAnswer(t *testing.T) {
	server := setupTestServer(t)
	webhook, rec := newWebhookServer(t)

	body := interactionBody(t, "ADMIN", webhook.URL, commands.ActionApprove, "missing")
	req := createSlackRequest(t, "/slack/interactions?dry_run=true", "application/x-www-form-urlencoded", body, testSlackSigningSecret)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)
	server.Wait()

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rec.texts())
}

func TestEventsHandler_URLVerification(t *testing.T) {
	server := setupTestServer(t)

	body := `{"token":"t","challenge":"3eZbrw1aBm2rZgRNFdxV2595E9CY3gmdALWMmHkvFXO7tYXAYM8P","type":"url_verification"}`
	req := createSlackRequest(t, "/slack/events", "application/json", body, testSlackSigningSecret)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "3eZbrw1aBm2rZgRNFdxV2595E9CY3gmdALWMmHkvFXO7tYXAYM8P", rr.Body.String())
}

func mentionBody(channel, ts, threadTS, user, text string) string {
	event := map[string]any{
		"type":     "app_mention",
		"user":     user,
		"text":     text,
		"ts":       ts,
		"channel":  channel,
		"event_ts": ts,
	}
	if threadTS != "" {
		event["thread_ts"] = threadTS
	}
	body, _ := json.Marshal(map[string]any{
		"token":      "t",
		"team_id":    "T1",
		"api_app_id": "A1",
		"type":       "event_callback",
		"event_id":   "Ev1",
		"event":      event,
	})
	return string(body)
}

func TestEventsHandler_MentionInSlotThread(t *testing.T) {
	server := setupTestServer(t)
	server.slash(t, "ADMIN", "generer")
	server.slash(t, "ADMIN", "tables set 09/02/2024 3")

	var threadID string
	for _, th := range server.messenger.Threads {
		if th.Title == "Soirée 40k - vendredi 9 février" {
			threadID = th.ThreadID
		}
	}
	require.NotEmpty(t, threadID)
	channel, threadTS, _ := strings.Cut(threadID, ":")

	body := mentionBody(channel, "1707000000.000200", threadTS, "U1", "<@BOT> <@U1> vs <@U2>")
	req := createSlackRequest(t, "/slack/events", "application/json", body, testSlackSigningSecret)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	server.Wait()

	require.Len(t, server.messenger.ChannelPosts, 1)
	assert.Equal(t, threadID, server.messenger.ChannelPosts[0].Target)
	assert.Contains(t, server.messenger.ChannelPosts[0].Text, "📝 Partie 40k du 09/02/2024 : <@U1> vs <@U2>")

	t.Run("retries are not handled twice", func(t *testing.T) {
		req := createSlackRequest(t, "/slack/events", "application/json", body, testSlackSigningSecret)
		req.Header.Set("X-Slack-Retry-Num", "1")
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		server.Wait()
		assert.Len(t, server.messenger.ChannelPosts, 1)
	})
}

func TestEventsHandler_MentionOutsideThreadNeedsDate(t *testing.T) {
	server := setupTestServer(t)

	body := mentionBody("C1", "1707000000.000100", "", "U1", "<@BOT> <@U1> vs <@U2> 40k")
	req := createSlackRequest(t, "/slack/events", "application/json", body, testSlackSigningSecret)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	server.Wait()

	require.Len(t, server.messenger.ChannelPosts, 1)
	assert.Equal(t, "C1:1707000000.000100", server.messenger.ChannelPosts[0].Target)
	assert.Equal(t, "❌ Date invalide, utilisez le format JJ/MM/AAAA.", server.messenger.ChannelPosts[0].Text)
}

func TestEventsHandler_AcknowledgesBeforeReplying(t *testing.T) {
	server := setupTestServer(t)
	release := make(chan struct{})
	replied := make(chan error, 1)
	server.messenger.SendToChannelFunc = func(ctx context.Context, channelID, text string) (string, error) {
		<-release
		replied <- ctx.Err()
		return "ts", nil
	}

	body := mentionBody("C1", "1707000000.000100", "", "U1", "<@BOT> aide")
	ctx, cancel := context.WithCancel(context.Background())
	req := createSlackRequest(t, "/slack/events", "application/json", body, testSlackSigningSecret).WithContext(ctx)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code, "Slack is answered while the reply is still pending")

	cancel()
	close(release)
	server.Wait()
	assert.NoError(t, <-replied, "the reply outlives the request")
}

func TestGenerateMonthHandler(t *testing.T) {
	server := setupTestServer(t)

	req, err := http.NewRequest("GET", "/jobs/generate-month", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	req, err = http.NewRequest("POST", "/jobs/generate-month", nil)
	require.NoError(t, err)
	rr = httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var res generationResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.Equal(t, "2024-02", res.Month)
	assert.Equal(t, []string{"2024-02-02", "2024-02-09", "2024-02-16", "2024-02-23"}, res.Created)
	assert.Empty(t, res.ClosedSkipped)

	req, err = http.NewRequest("GET", "/slots", nil)
	require.NoError(t, err)
	rr = httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var slots []events.Slot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &slots))
	require.Len(t, slots, 4)
	assert.Equal(t, events.StatusOpen, slots[0].Status)
	assert.Zero(t, slots[0].TableCount)
}

func pushBody(t *testing.T, event pubsub.SlotsEvent) *bytes.Reader {
	t.Helper()
	data, err := msgpack.Marshal(event)
	require.NoError(t, err)
	body, err := json.Marshal(map[string]any{
		"subscription": "projects/p/subscriptions/slots-generated",
		"message":      map[string]string{"data": base64.StdEncoding.EncodeToString(data)},
	})
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func TestSlotsGeneratedHandler(t *testing.T) {
	t.Run("announces new slots", func(t *testing.T) {
		server := setupTestServer(t)
		event := pubsub.SlotsEvent{Scope: "2024-02", Created: []string{"2024-02-09", "2024-02-16"}, ClosedSkipped: []string{"2024-02-23"}}

		req, err := http.NewRequest("POST", "/pubsub/slots-generated", pushBody(t, event))
		require.NoError(t, err)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.Len(t, server.messenger.ChannelPosts, 1)
		assert.Equal(t, "C1", server.messenger.ChannelPosts[0].Target)
		assert.Equal(t, "📅 Les soirées de février 2024 sont ouvertes : 2 nouvelle(s) date(s). 1 date(s) fermée(s) pour vacances scolaires.",
			server.messenger.ChannelPosts[0].Text)
	})

	t.Run("stays quiet when nothing was created", func(t *testing.T) {
		server := setupTestServer(t)
		req, err := http.NewRequest("POST", "/pubsub/slots-generated", pushBody(t, pubsub.SlotsEvent{Scope: "2024-02"}))
		require.NoError(t, err)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, server.messenger.ChannelPosts)
	})

	t.Run("rejects invalid envelope", func(t *testing.T) {
		server := setupTestServer(t)
		req, err := http.NewRequest("POST", "/pubsub/slots-generated", strings.NewReader("{"))
		require.NoError(t, err)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
