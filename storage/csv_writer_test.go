package storage

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"suumo-scraper/models"
)

func testRecords() []*models.Record {
	return []*models.Record{
		{
			Category:    models.CategoryHouseNew,
			SubCategory: "戸建て(新築)",
			ListingID:   "98765432",
			Title:       "奥沢の家",
			Address:     "東京都世田谷区奥沢3丁目",
			PriceText:   "1億2000万円",
			PriceYen:    models.Float(120_000_000),
			AreaSqm:     models.Float(50.5),
			AreaTsubo:   models.Float(15.275),
			LayoutText:  "3LDK",
			Detail:      models.MapDetail(map[string]string{"所在地": "東京都世田谷区奥沢3丁目"}),
			DetailURL:   "https://suumo.jp/ikkodate/nc_98765432/",
		},
		{
			Category:    models.CategoryRent,
			SubCategory: "賃貸",
			ListingID:   "100212345678",
			Title:       "オクサワハイツ",
			PriceText:   "8.5万",
			PriceYen:    models.Float(85000),
			Detail:      models.FlatDetail("2階 | 8.5万円/8.5万円 | 1K 20.5m2"),
			DetailURL:   "https://suumo.jp/chintai/jnc_000012345/?bc=100212345678",
		},
	}
}

func newTestWriter(t *testing.T) *CSVWriter {
	t.Helper()
	dir := t.TempDir()
	w, err := NewCSVWriter(filepath.Join(dir, "processed"))
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}
	return w
}

func TestCSVWriterSnapshotShape(t *testing.T) {
	w := newTestWriter(t)
	fetchedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	if err := w.WriteSnapshot(testRecords(), "2026-08-30", fetchedAt); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	raw, err := os.ReadFile(w.LatestPath())
	if err != nil {
		t.Fatalf("read latest: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte("\ufeff")) {
		t.Error("latest snapshot should start with a UTF-8 BOM")
	}

	rows, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(raw, []byte("\ufeff")))).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows; want header + 2 records", len(rows))
	}
	for i, col := range SnapshotColumns {
		if rows[0][i] != col {
			t.Errorf("header[%d] = %q; want %q", i, rows[0][i], col)
		}
	}

	sale := rows[1]
	if sale[0] != "2026-08-30" || sale[1] != "2026-08-30T12:00:00" {
		t.Errorf("run_date/fetched_at = %q / %q", sale[0], sale[1])
	}
	if sale[8] != "120000000" {
		t.Errorf("price_yen cell = %q; want 120000000", sale[8])
	}
	if !strings.Contains(sale[14], `"所在地"`) {
		t.Errorf("detail_text should be JSON for sale records, got %q", sale[14])
	}

	rent := rows[2]
	if rent[9] != "" || rent[10] != "" {
		t.Errorf("absent areas must be empty cells, got %q / %q", rent[9], rent[10])
	}
	if rent[14] != "2階 | 8.5万円/8.5万円 | 1K 20.5m2" {
		t.Errorf("rent detail_text = %q", rent[14])
	}
}

func TestCSVWriterHistoryPerDate(t *testing.T) {
	w := newTestWriter(t)
	fetchedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	if err := w.WriteSnapshot(testRecords(), "2026-08-29", fetchedAt); err != nil {
		t.Fatalf("WriteSnapshot day 1: %v", err)
	}
	if err := w.WriteSnapshot(testRecords()[:1], "2026-08-30", fetchedAt); err != nil {
		t.Fatalf("WriteSnapshot day 2: %v", err)
	}

	if filepath.Base(w.HistoryPath("2026-08-30")) != "listings_20260830.csv" {
		t.Errorf("history name = %q", filepath.Base(w.HistoryPath("2026-08-30")))
	}

	// The earlier date's artifact is untouched by the later run.
	day1, err := os.ReadFile(w.HistoryPath("2026-08-29"))
	if err != nil {
		t.Fatalf("read day 1 history: %v", err)
	}
	day2, err := os.ReadFile(w.HistoryPath("2026-08-30"))
	if err != nil {
		t.Fatalf("read day 2 history: %v", err)
	}
	if bytes.Equal(day1, day2) {
		t.Error("history artifacts for different dates should differ here")
	}

	// The latest file always reflects the most recent run.
	latest, _ := os.ReadFile(w.LatestPath())
	if !bytes.Equal(latest, day2) {
		t.Error("latest snapshot should match the newest run's history artifact")
	}
}

func TestCSVWriterIdempotentRewrite(t *testing.T) {
	w := newTestWriter(t)
	fetchedAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	if err := w.WriteSnapshot(testRecords(), "2026-08-30", fetchedAt); err != nil {
		t.Fatalf("first write: %v", err)
	}
	first, _ := os.ReadFile(w.LatestPath())

	if err := w.WriteSnapshot(testRecords(), "2026-08-30", fetchedAt); err != nil {
		t.Fatalf("second write: %v", err)
	}
	second, _ := os.ReadFile(w.LatestPath())

	if !bytes.Equal(first, second) {
		t.Error("identical input and run date must produce byte-identical output")
	}
}
