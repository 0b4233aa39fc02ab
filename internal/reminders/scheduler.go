package reminders

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"canchapp/internal/models"
)

// Scheduler fires one reminder run per day at the configured hour.
type Scheduler struct {
	sender   *Sender
	sendHour int
	logger   *zerolog.Logger

	mu          sync.Mutex
	lastRunDate string // YYYY-MM-DD of last run

	checkInterval time.Duration
}

func NewScheduler(sender *Sender, sendHour int, logger *zerolog.Logger) *Scheduler {
	return &Scheduler{
		sender:        sender,
		sendHour:      sendHour,
		logger:        logger,
		checkInterval: time.Minute,
	}
}

// Run loops until the context ends, triggering one send per day once the
// clock passes the configured hour.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info().Int("send_hour", s.sendHour).Msg("reminder scheduler started")

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("reminder scheduler stopped")
			return
		case <-ticker.C:
			s.checkAndRun(ctx, time.Now())
		}
	}
}

func (s *Scheduler) checkAndRun(ctx context.Context, now time.Time) {
	if now.Hour() < s.sendHour {
		return
	}

	today := now.Format(models.DateFormat)
	s.mu.Lock()
	if s.lastRunDate == today {
		s.mu.Unlock()
		return
	}
	s.lastRunDate = today
	s.mu.Unlock()

	if _, err := s.sender.SendForDate(ctx, today); err != nil {
		s.logger.Error().Err(err).Msg("reminder run failed")
	}
}
