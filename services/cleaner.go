package services

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"suumo-scraper/jptext"
	"suumo-scraper/models"
	"suumo-scraper/utils"
)

// lotBlockRe matches parcel-level address suffixes like "7-22" or "7-22-13".
// Addresses at lot-and-block granularity are considered noise for this
// dataset and dropped outright.
var lotBlockRe = regexp.MustCompile(`\d+(?:[-−ー－]\d+){1,2}\s*$`)

// partialLotMarker flags listings that sell only part of a lot.
const partialLotMarker = "一部"

// Cleaner filters noisy records and collapses duplicates. Two passes target
// different duplication sources: a fuzzy fingerprint catches the same unit
// cross-posted by several agents with no shared identifier, then an exact
// key catches literal re-crawls of one page. The fuzzy pass must run first —
// its survivors may still share no listing id.
type Cleaner struct {
	addressContains string
	logger          *utils.Logger
}

// NewCleaner creates a Cleaner. A non-empty addressContains additionally
// restricts output to addresses containing that substring.
func NewCleaner(addressContains string, logger *utils.Logger) *Cleaner {
	return &Cleaner{addressContains: jptext.Normalize(addressContains), logger: logger}
}

// Clean runs the full pipeline and returns the surviving records in input
// order. Input records are not mutated beyond address normalization and
// unit-price recomputation.
func (c *Cleaner) Clean(records []*models.Record) []*models.Record {
	kept := make([]*models.Record, 0, len(records))
	for _, r := range records {
		r.Address = jptext.Normalize(r.Address)
		if reason := c.rejectAddress(r.Address); reason != "" {
			c.logger.Debug("[cleaner] Dropping %s record (%s): %q", r.SubCategory, reason, r.Address)
			continue
		}
		// Derived fields are never trusted from upstream.
		r.ComputeUnitPrices()
		kept = append(kept, r)
	}

	deduped := dedupeByFingerprint(kept)
	final := dedupeExact(deduped)

	c.logger.Info("[cleaner] %d → %d records (address filter −%d, cross-post −%d, re-crawl −%d)",
		len(records), len(final),
		len(records)-len(kept), len(kept)-len(deduped), len(deduped)-len(final))
	return final
}

func (c *Cleaner) rejectAddress(addr string) string {
	switch {
	case addr == "":
		return "empty address"
	case strings.Contains(addr, partialLotMarker):
		return "partial lot"
	case lotBlockRe.MatchString(addr):
		return "lot-and-block address"
	case c.addressContains != "" && !strings.Contains(addr, c.addressContains):
		return "outside target area"
	}
	return ""
}

// dedupeByFingerprint keeps the first record per (sub_category, area rounded
// to 2dp, price rounded to whole yen, normalized layout) — the closest
// available approximation of "same physical unit" across agents.
func dedupeByFingerprint(records []*models.Record) []*models.Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]*models.Record, 0, len(records))
	for _, r := range records {
		key := fingerprint(r)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

func fingerprint(r *models.Record) string {
	area := "-"
	if r.AreaSqm != nil {
		area = fmt.Sprintf("%.2f", math.Round(*r.AreaSqm*100)/100)
	}
	price := "-"
	if r.PriceYen != nil {
		price = fmt.Sprintf("%.0f", math.Round(*r.PriceYen))
	}
	return strings.Join([]string{r.SubCategory, area, price, jptext.Normalize(r.LayoutText)}, "|")
}

// dedupeExact keeps the first record per (sub_category, listing_id,
// detail_url), collapsing re-fetches of the same page.
func dedupeExact(records []*models.Record) []*models.Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]*models.Record, 0, len(records))
	for _, r := range records {
		key := r.SubCategory + "|" + r.ListingID + "|" + r.DetailURL
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}
