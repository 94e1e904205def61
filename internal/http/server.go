package http

import (
	"net/http"

	"github.com/mauv0809/munitorum/internal/commands"
	"github.com/mauv0809/munitorum/internal/config"
	"github.com/mauv0809/munitorum/internal/notifier"
	"github.com/mauv0809/munitorum/internal/pubsub"
	"github.com/mauv0809/munitorum/internal/scheduler"
)

func NewServer(
	dispatcher *commands.Dispatcher,
	schedulerSvc *scheduler.Service,
	messenger notifier.Messenger,
	db commands.Pinger,
	metricsHandler http.Handler,
	cfg config.Config,
	pubsub pubsub.PubSubClient,
) *Server {
	server := &Server{
		Dispatcher:     dispatcher,
		Scheduler:      schedulerSvc,
		Messenger:      messenger,
		DB:             db,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Router:         http.NewServeMux(),
		pubsub:         pubsub,
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// Slack routes additionally check the request signature.
	slackVerified := slackVerifier(s.Cfg.Slack.SigningSecret)

	s.Router.Handle("/metrics", s.MetricsHandler)
	s.Router.Handle("/health", Chain(s.HealthCheckHandler(), paramsMiddleware))
	s.Router.Handle("/slots", Chain(s.ListSlotsHandler(), paramsMiddleware))
	s.Router.Handle("/jobs/generate-month", Chain(s.GenerateMonthHandler(), paramsMiddleware))
	s.Router.Handle("/slack/commands", Chain(s.SlashCommandHandler(), paramsMiddleware, slackVerified))
	s.Router.Handle("/slack/interactions", Chain(s.InteractionHandler(), paramsMiddleware, slackVerified))
	s.Router.Handle("/slack/events", Chain(s.EventsHandler(), paramsMiddleware, slackVerified))
	s.Router.Handle("/pubsub/slots-generated", Chain(s.SlotsGeneratedHandler(), paramsMiddleware))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
