package audit

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// Run performs a daily retention cleanup and, on the first run of each
// month, writes the previous month's audit workbook into exportDir.
func (r *Recorder) Run(ctx context.Context, retention time.Duration, exportDir string) {
	r.logger.Info().Str("export_dir", exportDir).Msg("audit runner started")

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	lastExportMonth := ""
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Cleanup(ctx, retention); err != nil {
				r.logger.Error().Err(err).Msg("audit cleanup failed")
			}

			month := time.Now().Format("2006-01")
			if exportDir == "" || month == lastExportMonth {
				continue
			}
			if err := r.exportPreviousMonth(ctx, exportDir); err != nil {
				r.logger.Error().Err(err).Msg("audit export failed")
				continue
			}
			lastExportMonth = month
		}
	}
}

func (r *Recorder) exportPreviousMonth(ctx context.Context, exportDir string) error {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
	from := monthStart.AddDate(0, -1, 0)

	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(exportDir, ExportFilename(from)))
	if err != nil {
		return err
	}
	defer f.Close()

	if err := ExportXLSX(ctx, r.store, from, monthStart, f); err != nil {
		return err
	}
	r.logger.Info().Str("file", f.Name()).Msg("audit workbook exported")
	return nil
}
