package scheduler

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"
)

const jobTimeout = 5 * time.Minute

// Schedule registers the monthly generation on c with a standard five field spec.
func (s *Service) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	id, err := c.AddFunc(spec, s.runGeneration)
	if err != nil {
		return 0, err
	}
	log.Info("Scheduled month generation", "spec", spec, "entry", id)
	return id, nil
}

func (s *Service) runGeneration() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	result, err := s.GenerateMonth(ctx, nil)
	if err != nil {
		log.Error("Scheduled month generation failed", "error", err)
		return
	}
	log.Info("Scheduled month generation done", "created", len(result.Created))
}
