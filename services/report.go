package services

import (
	"fmt"
	"sort"
	"strings"

	"suumo-scraper/models"
	"suumo-scraper/utils"
)

const previewRows = 10

// ReportService builds the end-of-run console summary: totals per
// sub-category, price averages over records that resolved a price, and a
// short preview of the surviving set.
type ReportService struct {
	logger *utils.Logger
}

func NewReportService(logger *utils.Logger) *ReportService {
	return &ReportService{logger: logger}
}

func (s *ReportService) Generate(records []*models.Record, runDate string) *models.RunReport {
	report := &models.RunReport{
		RunDate:       runDate,
		TotalRecords:  len(records),
		BySubCategory: make(map[string]int),
	}

	var priceTotal, tsuboTotal float64
	var tsuboCount int
	for _, r := range records {
		report.BySubCategory[r.SubCategory]++
		if r.PriceYen != nil {
			report.PricedRecords++
			priceTotal += *r.PriceYen
		}
		if r.UnitPricePerTsubo != nil {
			tsuboCount++
			tsuboTotal += *r.UnitPricePerTsubo
		}
	}
	if report.PricedRecords > 0 {
		report.AvgPriceYen = priceTotal / float64(report.PricedRecords)
	}
	if tsuboCount > 0 {
		report.AvgPerTsubo = tsuboTotal / float64(tsuboCount)
	}

	if len(records) > previewRows {
		report.Preview = records[:previewRows]
	} else {
		report.Preview = records
	}
	return report
}

func (s *ReportService) Print(r *models.RunReport) {
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n  Run %s — %d records\n", r.RunDate, r.TotalRecords)
	fmt.Printf("  %s\n", thin)

	subs := make([]string, 0, len(r.BySubCategory))
	for sub := range r.BySubCategory {
		subs = append(subs, sub)
	}
	sort.Strings(subs)
	for _, sub := range subs {
		fmt.Printf("  %-20s %d\n", sub, r.BySubCategory[sub])
	}

	if r.PricedRecords > 0 {
		fmt.Printf("  %s\n", thin)
		fmt.Printf("  Average price   : ¥%.0f (%d priced)\n", r.AvgPriceYen, r.PricedRecords)
		if r.AvgPerTsubo > 0 {
			fmt.Printf("  Average ¥/tsubo : ¥%.0f\n", r.AvgPerTsubo)
		}
	}

	if len(r.Preview) > 0 {
		fmt.Printf("  %s\n", thin)
		for _, rec := range r.Preview {
			fmt.Printf("  %-14s %-28s %-14s %s\n",
				truncate(rec.SubCategory, 14), truncate(rec.Title, 28),
				truncate(rec.PriceText, 14), truncate(rec.Address, 30))
		}
	}
	fmt.Println()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
