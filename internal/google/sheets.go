// Package google mirrors active reservations into a Google Sheets
// spreadsheet so facility staff can watch the schedule without touching the
// database.
package google

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"canchapp/internal/models"
)

var sheetHeader = []interface{}{
	"Reservation", "Facility", "User", "Date", "Time", "Status", "Created", "Updated",
}

// ReservationSource provides the rows to sync.
type ReservationSource interface {
	ListReservationsBetween(ctx context.Context, from, to string) ([]models.Reservation, error)
}

// SheetsService pushes reservation rows into one spreadsheet tab.
type SheetsService struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
	source        ReservationSource
	logger        *zerolog.Logger

	mu       sync.Mutex
	rowCache map[int64]int
}

// NewSheetsService authenticates with a service-account credentials file.
func NewSheetsService(ctx context.Context, credentialsFile, spreadsheetID, sheetName string, source ReservationSource, logger *zerolog.Logger) (*SheetsService, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	conf, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets client: %w", err)
	}

	return &SheetsService{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		source:        source,
		logger:        logger,
		rowCache:      make(map[int64]int),
	}, nil
}

// SyncReservations rewrites the sheet with the active reservations of the
// next horizonDays days. The whole range is replaced on every sync; the
// sheet is a mirror, not a second source of truth.
func (s *SheetsService) SyncReservations(ctx context.Context, horizonDays int) error {
	today := time.Now().Format(models.DateFormat)
	until := time.Now().AddDate(0, 0, horizonDays).Format(models.DateFormat)

	reservations, err := s.source.ListReservationsBetween(ctx, today, until)
	if err != nil {
		return fmt.Errorf("load reservations: %w", err)
	}
	active := s.filterActiveReservations(reservations)

	values := [][]interface{}{sheetHeader}
	s.mu.Lock()
	s.rowCache = make(map[int64]int)
	for i, r := range active {
		values = append(values, reservationRowValues(&r))
		s.rowCache[r.ID] = i + 2
	}
	s.mu.Unlock()

	clearRange := fmt.Sprintf("%s!A:H", s.sheetName)
	if _, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}

	_, err = s.svc.Spreadsheets.Values.Update(s.spreadsheetID, fmt.Sprintf("%s!A1", s.sheetName), &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write sheet: %w", err)
	}

	s.logger.Info().Int("rows", len(active)).Msg("reservations synced to sheet")
	return nil
}

// Run resyncs on an interval until the context ends.
func (s *SheetsService) Run(ctx context.Context, interval time.Duration, horizonDays int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SyncReservations(ctx, horizonDays); err != nil {
				s.logger.Error().Err(err).Msg("sheet sync failed")
			}
		}
	}
}

// filterActiveReservations drops cancelled rows; confirmed and finalized
// reservations stay visible.
func (s *SheetsService) filterActiveReservations(reservations []models.Reservation) []models.Reservation {
	active := make([]models.Reservation, 0, len(reservations))
	for _, r := range reservations {
		if r.Status == models.StatusCancelled {
			continue
		}
		active = append(active, r)
	}
	return active
}

func reservationRowValues(r *models.Reservation) []interface{} {
	return []interface{}{
		r.ID,
		r.FacilityID,
		r.UserID,
		r.Date,
		r.Time,
		r.Status,
		r.CreatedAt.Format("2006-01-02 15:04:05"),
		r.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

func (s *SheetsService) getCachedRow(reservationID int64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rowCache[reservationID]
	return row, ok
}

func (s *SheetsService) setCachedRow(reservationID int64, row int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rowCache[reservationID] = row
}

// ClearCache drops the row cache; the next sync rebuilds it.
func (s *SheetsService) ClearCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rowCache = make(map[int64]int)
}
