// Package service implements the booking core: availability resolution,
// reservation creation with its precondition chain, cancellation rules and
// lazy finalization of elapsed reservations.
package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"canchapp/internal/database"
	"canchapp/internal/events"
	"canchapp/internal/metrics"
	"canchapp/internal/models"
	"canchapp/internal/slots"
)

// Repository abstracts the persistence the reservation core needs.
// *database.DB satisfies it.
type Repository interface {
	GetFacility(ctx context.Context, id int64) (*models.Facility, error)
	ListActiveFacilities(ctx context.Context) ([]models.Facility, error)
	ListEnabledRules(ctx context.Context, facilityID int64, weekday models.Weekday) ([]models.ScheduleRule, error)
	GetHoliday(ctx context.Context, date string) (*models.Holiday, error)
	ListConfirmedTimes(ctx context.Context, facilityID int64, date string) ([]string, error)
	HasConfirmedOnDate(ctx context.Context, userID int64, date string) (bool, error)
	InsertConfirmed(ctx context.Context, r *models.Reservation) error
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	UpdateReservationStatus(ctx context.Context, id int64, status string) error
	ListUserReservations(ctx context.Context, userID int64) ([]models.Reservation, error)
	FinalizeElapsed(ctx context.Context, userID int64, today, nowTime string) (int64, error)
}

// EventPublisher emits domain events for subscribers such as the audit trail.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// ReservationService is the booking engine.
type ReservationService struct {
	repo       Repository
	bus        EventPublisher
	cancelLead time.Duration
	logger     *zerolog.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewReservationService wires the booking engine. cancelLeadMinutes is how
// long before the slot start a confirmed reservation may still be cancelled.
func NewReservationService(repo Repository, bus EventPublisher, cancelLeadMinutes int, logger *zerolog.Logger) *ReservationService {
	return &ReservationService{
		repo:       repo,
		bus:        bus,
		cancelLead: time.Duration(cancelLeadMinutes) * time.Minute,
		logger:     logger,
		now:        time.Now,
	}
}

// ReservationEvent is the payload published on reservation transitions.
type ReservationEvent struct {
	ReservationID int64  `json:"reservation_id"`
	FacilityID    int64  `json:"facility_id"`
	UserID        int64  `json:"user_id"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Status        string `json:"status"`
}

// ListFacilities returns the facilities open for booking.
func (s *ReservationService) ListFacilities(ctx context.Context) ([]models.Facility, error) {
	return s.repo.ListActiveFacilities(ctx)
}

// GetAvailableSlots returns the free "HH:MM" start times for a facility on a
// date. The grid comes from the facility's enabled weekly rules (a holiday
// marked non-working switches the date to its Sunday schedule); slots whose
// start has passed and slots held by a confirmed reservation are removed.
// An unknown or inactive facility yields an empty list, not an error.
func (s *ReservationService) GetAvailableSlots(ctx context.Context, facilityID int64, date string) ([]string, error) {
	day, err := time.ParseInLocation(models.DateFormat, date, time.Local)
	if err != nil {
		return nil, validationf("invalid date %q, expected YYYY-MM-DD", date)
	}

	facility, err := s.repo.GetFacility(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	if facility == nil || !facility.IsActive {
		// An unknown or retired facility simply offers nothing.
		return []string{}, nil
	}

	grid, err := s.scheduleGrid(ctx, facilityID, day, date)
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return []string{}, nil
	}

	now := s.now()
	today := now.Format(models.DateFormat)
	if date < today {
		return []string{}, nil
	}

	occupied, err := s.repo.ListConfirmedTimes(ctx, facilityID, date)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(occupied))
	for _, t := range occupied {
		taken[t] = true
	}

	nowTime := now.Format(models.TimeFormat)
	free := make([]string, 0, len(grid))
	for _, t := range grid {
		if date == today && t <= nowTime {
			continue
		}
		if taken[t] {
			continue
		}
		free = append(free, t)
	}
	return free, nil
}

// CreateReservation books a slot for the user. Preconditions run in order,
// first failure wins: input format, slot not in the past, one confirmed
// reservation per user per day, facility active, slot offered by the
// schedule, slot free. The database's partial unique indexes remain the
// final arbiter under concurrency, so a lost race surfaces as ErrSlotTaken
// or ErrUserAlreadyBooked even after the checks pass.
func (s *ReservationService) CreateReservation(ctx context.Context, userID, facilityID int64, date, timeStr string) (*models.Reservation, error) {
	day, err := time.ParseInLocation(models.DateFormat, date, time.Local)
	if err != nil {
		metrics.IncReservationRejected("bad_date")
		return nil, validationf("invalid date %q, expected YYYY-MM-DD", date)
	}
	if _, err := time.Parse(models.TimeFormat, timeStr); err != nil {
		metrics.IncReservationRejected("bad_time")
		return nil, validationf("invalid time %q, expected HH:MM", timeStr)
	}

	now := s.now()
	today := now.Format(models.DateFormat)
	if date < today || (date == today && timeStr <= now.Format(models.TimeFormat)) {
		metrics.IncReservationRejected("past")
		return nil, validationf("slot %s %s is in the past", date, timeStr)
	}

	booked, err := s.repo.HasConfirmedOnDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	if booked {
		metrics.IncReservationRejected("user_day_limit")
		return nil, database.ErrUserAlreadyBooked
	}

	facility, err := s.repo.GetFacility(ctx, facilityID)
	if err != nil {
		return nil, err
	}
	if facility == nil || !facility.IsActive {
		metrics.IncReservationRejected("facility_inactive")
		return nil, validationf("facility %d is not available", facilityID)
	}

	grid, err := s.scheduleGrid(ctx, facilityID, day, date)
	if err != nil {
		return nil, err
	}
	if !slots.Contains(grid, timeStr) {
		metrics.IncReservationRejected("off_schedule")
		return nil, validationf("facility %d has no %s slot on %s", facilityID, timeStr, date)
	}

	occupied, err := s.repo.ListConfirmedTimes(ctx, facilityID, date)
	if err != nil {
		return nil, err
	}
	for _, t := range occupied {
		if t == timeStr {
			metrics.IncReservationRejected("slot_taken")
			return nil, database.ErrSlotTaken
		}
	}

	reservation := &models.Reservation{
		FacilityID: facilityID,
		UserID:     userID,
		Date:       date,
		Time:       timeStr,
	}
	if err := s.repo.InsertConfirmed(ctx, reservation); err != nil {
		if err == database.ErrSlotTaken || err == database.ErrUserAlreadyBooked {
			metrics.IncReservationRejected("lost_race")
		}
		return nil, err
	}

	metrics.IncReservationCreated(facility.Name)
	s.logger.Info().
		Int64("reservation_id", reservation.ID).
		Int64("facility_id", facilityID).
		Int64("user_id", userID).
		Str("date", date).
		Str("time", timeStr).
		Msg("reservation created")
	s.publish(events.TypeReservationCreated, reservation)

	return reservation, nil
}

// CancelReservation moves a confirmed reservation to cancelled. Only the
// owner may cancel, only while the cancellation window is open, and the slot
// becomes bookable again immediately.
func (s *ReservationService) CancelReservation(ctx context.Context, userID, reservationID int64) error {
	reservation, err := s.repo.GetReservation(ctx, reservationID)
	if err != nil {
		return err
	}
	if reservation == nil {
		return ErrNotFound
	}
	if reservation.UserID != userID {
		return ErrForbidden
	}
	if !reservation.IsConfirmed() {
		return validationf("reservation %d is %s, only confirmed reservations can be cancelled", reservationID, reservation.Status)
	}

	deadline, err := reservation.CancellableUntil(s.cancelLead)
	if err != nil {
		return err
	}
	if !s.now().Before(deadline) {
		return validationf("reservation %d can no longer be cancelled, the window closed at %s", reservationID, deadline.Format("2006-01-02 15:04"))
	}

	if err := s.repo.UpdateReservationStatus(ctx, reservationID, models.StatusCancelled); err != nil {
		return err
	}
	reservation.Status = models.StatusCancelled

	metrics.IncReservationCancelled()
	s.logger.Info().
		Int64("reservation_id", reservationID).
		Int64("user_id", userID).
		Msg("reservation cancelled")
	s.publish(events.TypeReservationCancelled, reservation)

	return nil
}

// ListUserReservations returns the user's reservation history, newest first.
// Confirmed reservations whose slot has started are finalized first, so the
// listing never shows a stale confirmed entry.
func (s *ReservationService) ListUserReservations(ctx context.Context, userID int64) ([]models.Reservation, error) {
	now := s.now()
	finalized, err := s.repo.FinalizeElapsed(ctx, userID, now.Format(models.DateFormat), now.Format(models.TimeFormat))
	if err != nil {
		return nil, err
	}
	if finalized > 0 {
		metrics.AddReservationFinalized(finalized)
		s.logger.Debug().
			Int64("user_id", userID).
			Int64("count", finalized).
			Msg("finalized elapsed reservations")
	}

	reservations, err := s.repo.ListUserReservations(ctx, userID)
	if err != nil {
		return nil, err
	}
	if reservations == nil {
		reservations = []models.Reservation{}
	}
	return reservations, nil
}

// scheduleGrid expands the facility's enabled rules for the date into the
// union of their slot start times. A holiday marked non-working uses the
// Sunday rules instead of the calendar weekday; a holiday marked as a
// working day keeps the regular schedule.
func (s *ReservationService) scheduleGrid(ctx context.Context, facilityID int64, day time.Time, date string) ([]string, error) {
	weekday := models.WeekdayOf(day)
	holiday, err := s.repo.GetHoliday(ctx, date)
	if err != nil {
		return nil, err
	}
	if holiday != nil && !holiday.IsWorkday {
		weekday = models.Sunday
	}

	rules, err := s.repo.ListEnabledRules(ctx, facilityID, weekday)
	if err != nil {
		return nil, err
	}

	sets := make([][]string, 0, len(rules))
	for _, rule := range rules {
		expanded, err := slots.Expand(rule.StartTime, rule.EndTime, rule.IntervalMinutes)
		if err != nil {
			// A malformed rule should not take the whole facility offline.
			s.logger.Warn().
				Err(err).
				Int64("rule_id", rule.ID).
				Int64("facility_id", facilityID).
				Msg("skipping invalid schedule rule")
			continue
		}
		sets = append(sets, expanded)
	}
	return slots.Union(sets...), nil
}

func (s *ReservationService) publish(eventType string, r *models.Reservation) {
	if s.bus == nil {
		return
	}
	err := s.bus.PublishJSON(eventType, ReservationEvent{
		ReservationID: r.ID,
		FacilityID:    r.FacilityID,
		UserID:        r.UserID,
		Date:          r.Date,
		Time:          r.Time,
		Status:        r.Status,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("publish event")
	}
}
