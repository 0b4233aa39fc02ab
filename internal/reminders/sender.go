package reminders

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"canchapp/internal/metrics"
	"canchapp/internal/models"
)

// Source provides the reservations and contact details a send run needs.
type Source interface {
	ListConfirmedForDate(ctx context.Context, date string) ([]models.Reservation, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetFacility(ctx context.Context, id int64) (*models.Facility, error)
}

// Sender pushes one reminder per confirmed reservation of a date.
type Sender struct {
	source   Source
	notifier Notifier
	limiter  *rate.Limiter
	logger   *zerolog.Logger
}

// NewSender wires a sender. ratePerSecond caps outgoing messages.
func NewSender(source Source, notifier Notifier, ratePerSecond float64, logger *zerolog.Logger) *Sender {
	return &Sender{
		source:   source,
		notifier: notifier,
		limiter:  rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		logger:   logger,
	}
}

// SendForDate reminds every user with a confirmed reservation on the date.
// Users without a linked Telegram chat are skipped; one failed delivery does
// not stop the run. Returns the number of reminders delivered.
func (s *Sender) SendForDate(ctx context.Context, date string) (int, error) {
	reservations, err := s.source.ListConfirmedForDate(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("load reservations for %s: %w", date, err)
	}

	sent := 0
	for _, r := range reservations {
		user, err := s.source.GetUserByID(ctx, r.UserID)
		if err != nil {
			s.logger.Error().Err(err).Int64("user_id", r.UserID).Msg("load user for reminder")
			continue
		}
		if user == nil || user.TelegramChatID == 0 {
			continue
		}

		facility, err := s.source.GetFacility(ctx, r.FacilityID)
		if err != nil || facility == nil {
			s.logger.Error().Err(err).Int64("facility_id", r.FacilityID).Msg("load facility for reminder")
			continue
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return sent, err
		}

		text := reminderText(&r, user, facility)
		if err := s.notifier.Notify(user.TelegramChatID, text); err != nil {
			s.logger.Warn().Err(err).
				Int64("reservation_id", r.ID).
				Int64("chat_id", user.TelegramChatID).
				Msg("reminder delivery failed")
			continue
		}

		metrics.IncReminderSent()
		sent++
	}

	s.logger.Info().Str("date", date).Int("sent", sent).Msg("reminder run finished")
	return sent, nil
}

func reminderText(r *models.Reservation, user *models.User, facility *models.Facility) string {
	return fmt.Sprintf(
		"Hi %s! Reminder: you have %s booked today at %s. See you there!",
		user.Name, facility.Name, r.Time,
	)
}
