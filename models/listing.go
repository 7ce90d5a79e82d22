package models

import "encoding/json"

// Category identifiers. Each configured category maps to exactly one of
// these; sale categories share a parser but keep their own identifier.
const (
	CategoryRent        = "rent"
	CategoryHouseNew    = "house_new"
	CategoryHouseUsed   = "house_used"
	CategoryLand        = "land"
	CategoryMansionNew  = "mansion_new"
	CategoryMansionUsed = "mansion_used"
)

// Record is one observed listing at one point in time. Derived numeric
// fields are nil when the source text did not yield a value — a nil here
// means "absent", never "zero".
type Record struct {
	Category    string
	SubCategory string
	ListingID   string
	Title       string
	Address     string
	PriceText   string
	PriceYen    *float64
	AreaSqm     *float64
	AreaTsubo   *float64
	// Unit prices are always recomputed from PriceYen and the area fields,
	// never taken from the page.
	UnitPricePerSqm   *float64
	UnitPricePerTsubo *float64
	LayoutText        string
	Detail            Detail
	DetailURL         string
}

// ComputeUnitPrices derives the per-sqm and per-tsubo unit prices from the
// current operands, clearing them when either operand is absent or the area
// is not positive.
func (r *Record) ComputeUnitPrices() {
	r.UnitPricePerSqm = nil
	r.UnitPricePerTsubo = nil
	if r.PriceYen == nil {
		return
	}
	if r.AreaSqm != nil && *r.AreaSqm > 0 {
		v := *r.PriceYen / *r.AreaSqm
		r.UnitPricePerSqm = &v
	}
	if r.AreaTsubo != nil && *r.AreaTsubo > 0 {
		v := *r.PriceYen / *r.AreaTsubo
		r.UnitPricePerTsubo = &v
	}
}

// Float returns a pointer to v. Convenience for building records.
func Float(v float64) *float64 { return &v }

// Detail carries the category-dependent detail payload: rent rows produce a
// flat "floor | deposit | layout" string, sale cards a label→value map. The
// map form is kept structured in memory and only serialized to JSON at the
// persistence boundary.
type Detail struct {
	text   string
	fields map[string]string
}

// FlatDetail wraps a pre-flattened detail string.
func FlatDetail(text string) Detail {
	return Detail{text: text}
}

// MapDetail wraps a label→value map.
func MapDetail(fields map[string]string) Detail {
	return Detail{fields: fields}
}

// Fields returns the underlying map, or nil for the flat form.
func (d Detail) Fields() map[string]string { return d.fields }

// Encode renders the detail for persistence: the flat string as-is, the map
// form as JSON (keys sorted by encoding/json, so output is deterministic).
func (d Detail) Encode() string {
	if d.fields == nil {
		return d.text
	}
	b, err := json.Marshal(d.fields)
	if err != nil {
		return ""
	}
	return string(b)
}

// RunReport summarizes one completed run for console output.
type RunReport struct {
	RunDate        string
	TotalRecords   int
	BySubCategory  map[string]int
	PricedRecords  int
	AvgPriceYen    float64
	AvgPerTsubo    float64
	Preview        []*Record
}
