package http

import (
	"net/http"
	"sync"

	"github.com/mauv0809/munitorum/internal/commands"
	"github.com/mauv0809/munitorum/internal/config"
	"github.com/mauv0809/munitorum/internal/notifier"
	"github.com/mauv0809/munitorum/internal/pubsub"
	"github.com/mauv0809/munitorum/internal/scheduler"
)

type Server struct {
	Dispatcher     *commands.Dispatcher
	Scheduler      *scheduler.Service
	Messenger      notifier.Messenger
	DB             commands.Pinger
	MetricsHandler http.Handler
	Cfg            config.Config
	Router         *http.ServeMux
	pubsub         pubsub.PubSubClient
	background     sync.WaitGroup
}

// generationResponse is the JSON body of the generation job.
type generationResponse struct {
	Month          string   `json:"month"`
	Created        []string `json:"created"`
	AlreadyPresent []string `json:"already_present"`
	ClosedSkipped  []string `json:"closed_skipped"`
}
