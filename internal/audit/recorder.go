// Package audit keeps a persistent trail of reservation lifecycle events and
// exports it as XLSX workbooks for facility managers.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"canchapp/internal/database"
	"canchapp/internal/events"
	"canchapp/internal/service"
)

// Store is the persistence the recorder needs.
type Store interface {
	InsertAuditEntry(ctx context.Context, e *database.AuditEntry) error
	ListAuditEntries(ctx context.Context, from, to time.Time) ([]database.AuditEntry, error)
	DeleteOldAuditEntries(ctx context.Context, olderThan time.Duration) (int64, error)
	DeleteOldReservations(ctx context.Context, before string) (int64, error)
}

// Recorder subscribes to reservation events and persists them.
type Recorder struct {
	store  Store
	logger *zerolog.Logger
}

func NewRecorder(store Store, logger *zerolog.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// Attach subscribes the recorder to the reservation lifecycle events.
func (r *Recorder) Attach(bus *events.EventBus) {
	for _, eventType := range []string{
		events.TypeReservationCreated,
		events.TypeReservationCancelled,
		events.TypeReservationFinalized,
	} {
		bus.Subscribe(eventType, r.record)
	}
}

func (r *Recorder) record(event events.Event) error {
	var payload service.ReservationEvent
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		r.logger.Warn().Err(err).Str("event", event.Type).Msg("undecodable event payload")
		return err
	}

	entry := &database.AuditEntry{
		EventType:     event.Type,
		ReservationID: payload.ReservationID,
		FacilityID:    payload.FacilityID,
		UserID:        payload.UserID,
		Detail:        fmt.Sprintf("%s %s", payload.Date, payload.Time),
	}
	if err := r.store.InsertAuditEntry(context.Background(), entry); err != nil {
		r.logger.Error().Err(err).Str("event", event.Type).Msg("persist audit entry")
		return err
	}
	return nil
}

// Cleanup removes audit entries and terminal reservations past retention.
func (r *Recorder) Cleanup(ctx context.Context, retention time.Duration) error {
	removed, err := r.store.DeleteOldAuditEntries(ctx, retention)
	if err != nil {
		return err
	}
	cutoff := time.Now().Add(-retention).Format("2006-01-02")
	reservations, err := r.store.DeleteOldReservations(ctx, cutoff)
	if err != nil {
		return err
	}
	if removed > 0 || reservations > 0 {
		r.logger.Info().
			Int64("audit_entries", removed).
			Int64("reservations", reservations).
			Msg("retention cleanup")
	}
	return nil
}
