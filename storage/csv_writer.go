package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"suumo-scraper/models"
)

// SnapshotColumns is the fixed column order of the snapshot and history
// files. The dashboard reads these files by name, so order and naming are
// part of the output contract.
var SnapshotColumns = []string{
	"run_date", "fetched_at", "category", "sub_category", "listing_id",
	"title", "address", "price_text", "price_yen", "area_sqm", "area_tsubo",
	"unit_price_per_sqm", "unit_price_per_tsubo", "layout_text",
	"detail_text", "detail_url",
}

// utf8BOM keeps the Japanese text readable when the CSVs are opened in
// Excel, matching the files this replaces.
const utf8BOM = "\ufeff"

// CSVWriter writes the latest snapshot (always overwritten) and one
// immutable history file per run date under <outputDir>/../history.
type CSVWriter struct {
	outputDir  string
	historyDir string
}

// NewCSVWriter prepares the output and history directories.
func NewCSVWriter(outputDir string) (*CSVWriter, error) {
	historyDir := filepath.Join(filepath.Dir(outputDir), "history")
	for _, dir := range []string{outputDir, historyDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("csv: create dir %q: %w", dir, err)
		}
	}
	return &CSVWriter{outputDir: outputDir, historyDir: historyDir}, nil
}

// LatestPath returns the path of the latest-snapshot file.
func (w *CSVWriter) LatestPath() string {
	return filepath.Join(w.outputDir, "listings_latest.csv")
}

// HistoryPath returns the history file path for runDate (YYYY-MM-DD).
func (w *CSVWriter) HistoryPath(runDate string) string {
	name := "listings_" + strings.ReplaceAll(runDate, "-", "") + ".csv"
	return filepath.Join(w.historyDir, name)
}

// WriteSnapshot writes the current record set to the latest file and to the
// run date's history file. Re-running a date rewrites exactly that date's
// history file and no other. Output is deterministic: identical records and
// run date produce byte-identical files (fetchedAt excepted).
func (w *CSVWriter) WriteSnapshot(records []*models.Record, runDate string, fetchedAt time.Time) error {
	for _, path := range []string{w.LatestPath(), w.HistoryPath(runDate)} {
		if err := w.writeFile(path, records, runDate, fetchedAt); err != nil {
			return err
		}
	}
	return nil
}

func (w *CSVWriter) writeFile(path string, records []*models.Record, runDate string, fetchedAt time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create %q: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(utf8BOM); err != nil {
		return fmt.Errorf("csv: write BOM: %w", err)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(SnapshotColumns); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	fetched := fetchedAt.Format("2006-01-02T15:04:05")
	for _, r := range records {
		row := []string{
			runDate,
			fetched,
			r.Category,
			r.SubCategory,
			r.ListingID,
			r.Title,
			r.Address,
			r.PriceText,
			formatFloat(r.PriceYen),
			formatFloat(r.AreaSqm),
			formatFloat(r.AreaTsubo),
			formatFloat(r.UnitPricePerSqm),
			formatFloat(r.UnitPricePerTsubo),
			r.LayoutText,
			r.Detail.Encode(),
			r.DetailURL,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csv: flush %q: %w", path, err)
	}
	return nil
}

// formatFloat renders an absent value as an empty cell and a present one in
// the shortest exact form.
func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
