package audit

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

var exportColumns = []string{"When", "Event", "Reservation", "Facility", "User", "Slot"}

// ExportXLSX writes the audit entries of [from, to) as a one-sheet workbook.
func ExportXLSX(ctx context.Context, store Store, from, to time.Time, w io.Writer) error {
	entries, err := store.ListAuditEntries(ctx, from, to)
	if err != nil {
		return fmt.Errorf("load audit entries: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(from)
	f.SetSheetName("Sheet1", sheet)

	if err := writeHeader(f, sheet); err != nil {
		return err
	}
	for i, e := range entries {
		row := []interface{}{
			e.CreatedAt.Format("2006-01-02 15:04"),
			e.EventType,
			e.ReservationID,
			e.FacilityID,
			e.UserID,
			e.Detail,
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ExportFilename names a workbook for the month it covers.
func ExportFilename(from time.Time) string {
	return fmt.Sprintf("reservations-audit-%s.xlsx", from.Format("2006-01"))
}

func sheetName(from time.Time) string {
	name := "Audit " + from.Format("2006-01")
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

func writeHeader(f *excelize.File, sheet string) error {
	for i, col := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		start, _ := excelize.CoordinatesToCellName(1, 1)
		end, _ := excelize.CoordinatesToCellName(len(exportColumns), 1)
		_ = f.SetCellStyle(sheet, start, end, style)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowNum int, row []interface{}) error {
	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, val); err != nil {
			return err
		}
	}
	return nil
}
