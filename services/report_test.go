package services

import (
	"math"
	"testing"

	"suumo-scraper/models"
)

func sampleRecords(n int) []*models.Record {
	recs := make([]*models.Record, 0, n)
	for i := 0; i < n; i++ {
		r := record(nil)
		recs = append(recs, r)
	}
	return recs
}

func TestReportCountsAndAverages(t *testing.T) {
	svc := NewReportService(newTestLogger())

	recs := []*models.Record{
		record(nil),
		record(func(r *models.Record) { r.SubCategory = "土地"; r.PriceYen = models.Float(30_000_000) }),
		record(func(r *models.Record) { r.PriceYen = nil; r.AreaTsubo = nil }),
	}
	recs[2].ComputeUnitPrices()
	report := svc.Generate(recs, "2026-08-30")

	if report.TotalRecords != 3 {
		t.Errorf("TotalRecords = %d; want 3", report.TotalRecords)
	}
	if report.BySubCategory["戸建て(中古)"] != 2 || report.BySubCategory["土地"] != 1 {
		t.Errorf("BySubCategory = %v", report.BySubCategory)
	}
	if report.PricedRecords != 2 {
		t.Errorf("PricedRecords = %d; want 2", report.PricedRecords)
	}
	wantAvg := (52_800_000.0 + 30_000_000.0) / 2
	if math.Abs(report.AvgPriceYen-wantAvg) > 1e-6 {
		t.Errorf("AvgPriceYen = %.0f; want %.0f", report.AvgPriceYen, wantAvg)
	}
	if report.RunDate != "2026-08-30" {
		t.Errorf("RunDate = %q", report.RunDate)
	}
}

func TestReportPreviewCapped(t *testing.T) {
	svc := NewReportService(newTestLogger())
	report := svc.Generate(sampleRecords(25), "2026-08-30")
	if len(report.Preview) != previewRows {
		t.Errorf("Preview length = %d; want %d", len(report.Preview), previewRows)
	}
	report = svc.Generate(sampleRecords(3), "2026-08-30")
	if len(report.Preview) != 3 {
		t.Errorf("Preview length = %d; want 3", len(report.Preview))
	}
}
