package jobs

import (
	"log"

	"github.com/robfig/cron/v3"

	"github.com/skaldby/link-broker/internal/oauth"
)

// Scheduler manages background jobs
type Scheduler struct {
	cron   *cron.Cron
	ledger *oauth.StateLedger
}

// NewScheduler creates a new job scheduler
func NewScheduler(ledger *oauth.StateLedger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		ledger: ledger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	// Drop expired state entries every 10 minutes. Redemption already
	// rejects them; this only bounds the ledger's memory.
	s.cron.AddFunc("*/10 * * * *", func() {
		s.compactStates()
	})

	s.cron.Start()
	log.Println("Job scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Job scheduler stopped")
}

// compactStates removes expired entries from the state ledger
func (s *Scheduler) compactStates() {
	removed := s.ledger.Compact()
	if removed > 0 {
		log.Printf("Cleaned up %d expired state entries, %d pending", removed, s.ledger.Pending())
	}
}
