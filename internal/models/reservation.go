package models

import (
	"fmt"
	"time"
)

// Reservation lifecycle states. Cancelled and finalized are terminal.
const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusFinalized = "finalized"
)

// Reservation represents a confirmed time slot held by a user at a facility.
type Reservation struct {
	ID         int64     `json:"id"`
	FacilityID int64     `json:"facility_id"`
	UserID     int64     `json:"user_id"`
	Date       string    `json:"date"` // "YYYY-MM-DD"
	Time       string    `json:"time"` // "HH:MM", always minute-truncated
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// StartAt combines Date and Time into a facility-local instant.
func (r *Reservation) StartAt() (time.Time, error) {
	t, err := time.ParseInLocation(DateFormat+" "+TimeFormat, r.Date+" "+r.Time, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("reservation %d has malformed date/time: %w", r.ID, err)
	}
	return t, nil
}

// HasElapsed reports whether the reservation's slot has started relative to
// now. The boundary is inclusive: a slot whose minute equals the current
// minute counts as elapsed, mirroring the booking-side rule that such a slot
// is no longer bookable.
func (r *Reservation) HasElapsed(now time.Time) bool {
	today := now.Format(DateFormat)
	if r.Date != today {
		return r.Date < today
	}
	return r.Time <= now.Format(TimeFormat)
}

// IsConfirmed reports whether the reservation is still active.
func (r *Reservation) IsConfirmed() bool {
	return r.Status == StatusConfirmed
}

// CancellableUntil returns the last instant at which the reservation may
// still be cancelled given the configured lead time.
func (r *Reservation) CancellableUntil(leadTime time.Duration) (time.Time, error) {
	start, err := r.StartAt()
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(-leadTime), nil
}
