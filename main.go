package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/munitorum/internal/admin"
	"github.com/mauv0809/munitorum/internal/booking"
	"github.com/mauv0809/munitorum/internal/club"
	"github.com/mauv0809/munitorum/internal/commands"
	"github.com/mauv0809/munitorum/internal/config"
	"github.com/mauv0809/munitorum/internal/database"
	"github.com/mauv0809/munitorum/internal/events"
	"github.com/mauv0809/munitorum/internal/games"
	server "github.com/mauv0809/munitorum/internal/http"
	"github.com/mauv0809/munitorum/internal/ledger"
	"github.com/mauv0809/munitorum/internal/lifecycle"
	"github.com/mauv0809/munitorum/internal/matches"
	"github.com/mauv0809/munitorum/internal/metrics"
	"github.com/mauv0809/munitorum/internal/notifier"
	slacknotifier "github.com/mauv0809/munitorum/internal/notifier/slack"
	"github.com/mauv0809/munitorum/internal/pubsub"
	"github.com/mauv0809/munitorum/internal/scheduler"
	"github.com/mauv0809/munitorum/internal/slotdays"
	"github.com/mauv0809/munitorum/internal/vacations"
	"github.com/robfig/cron/v3"
	"github.com/slack-go/slack"
)

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg := config.Load()
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warn("Unknown log level, keeping default", "level", cfg.LogLevel)
	}
	loc := cfg.Location()

	db, dbTeardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken)
	dbInitDuration := time.Since(startTime)
	log.Info("Database initialization time recorded", "duration_ms", dbInitDuration.Milliseconds())
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer func() {
		log.Info("Closing database connection")
		dbTeardown()
	}()

	catalog := games.Default()
	if cfg.GamesFile != "" {
		catalog, err = games.LoadFile(cfg.GamesFile)
		if err != nil {
			log.Fatalf("Failed to load game catalog: %s", err)
		}
	}

	if cfg.Slack.BotUserID == "" {
		cfg.Slack.BotUserID = lookupBotUserID(cfg.Slack.Token)
	}

	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()

	var ps pubsub.PubSubClient
	if cfg.ProjectID != "" {
		ps = pubsub.New(cfg.ProjectID)
	} else {
		log.Info("No GCP project configured, domain events are only logged")
		ps = pubsub.NewLogClient()
	}
	defer ps.Close()

	eventStore := events.New(db, loc)
	matchStore := matches.New(db, loc)
	policyStore := slotdays.New(db)
	messenger := slacknotifier.NewMessenger(cfg.Slack.Token)
	checker := admin.NewSlackChecker(cfg.Slack.Token, cfg.Slack.AdminGroupID)
	calendar := vacations.NewCache(vacations.NewClient(cfg.Vacations.APIURL, cfg.Timezone), metricsSvc)
	resolver := vacations.NewResolver(calendar, metricsSvc)
	dispatcher := notifier.NewDispatcher(messenger, ledger.New(db), metricsSvc, cfg.Slack.MentionInThread)

	schedulerSvc := scheduler.New(eventStore, policyStore, resolver, catalog, messenger, ps, metricsSvc, scheduler.Config{
		Location:  loc,
		Region:    cfg.Vacations.Academy,
		ChannelID: cfg.Slack.ChannelID,
	})
	bookingEngine := booking.New(eventStore, policyStore, catalog, matchStore, club.New(db), messenger, dispatcher, ps, metricsSvc, loc)
	lifecycleSvc := lifecycle.New(matchStore, checker, catalog, dispatcher, ps, metricsSvc)
	commandDispatcher := commands.NewDispatcher(schedulerSvc, bookingEngine, lifecycleSvc, checker, catalog, db, commands.Settings{
		Timezone:        cfg.Timezone,
		Region:          cfg.Vacations.Academy,
		ChannelID:       cfg.Slack.ChannelID,
		MentionInThread: cfg.Slack.MentionInThread,
		Schedule:        cfg.GenerateSchedule,
	}, loc)

	s := server.NewServer(commandDispatcher, schedulerSvc, messenger, db, metricsHandler, cfg, ps)

	// --- Monthly slot generation ---
	c := cron.New(cron.WithLocation(loc))
	if _, err := schedulerSvc.Schedule(c, cfg.GenerateSchedule); err != nil {
		log.Fatalf("Invalid generation schedule %q: %s", cfg.GenerateSchedule, err)
	}
	c.Start()

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	// --- Graceful shutdown setup ---
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	// Start the server in a goroutine
	go func() {
		log.Info("Server started", "port", cfg.Port)
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		// Create a context with a timeout for the shutdown.
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// A generation already running is allowed to finish.
		select {
		case <-c.Stop().Done():
			log.Info("Scheduler stopped")
		case <-ctx.Done():
			log.Warn("Scheduler did not stop in time")
		}

		// Attempt to gracefully shut down the server.
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}

		// Slack work already acknowledged still gets to answer.
		s.Wait()
	}

	log.Info("Server process shutting down")
}

// lookupBotUserID asks Slack who the token belongs to, so that mentions of
// the bot can be told apart from mentions of players.
func lookupBotUserID(token string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	resp, err := slack.New(token).AuthTestContext(ctx)
	if err != nil {
		log.Warn("Failed to look up bot user id", "error", err)
		return ""
	}
	log.Info("Resolved bot user", "userID", resp.UserID)
	return resp.UserID
}
