package models

import "testing"

func TestComputeUnitPrices(t *testing.T) {
	r := &Record{PriceYen: Float(120_000_000), AreaSqm: Float(50.5), AreaTsubo: Float(15.275)}
	r.ComputeUnitPrices()
	if r.UnitPricePerSqm == nil || *r.UnitPricePerSqm != 120_000_000/50.5 {
		t.Errorf("UnitPricePerSqm = %v", r.UnitPricePerSqm)
	}
	if r.UnitPricePerTsubo == nil || *r.UnitPricePerTsubo != 120_000_000/15.275 {
		t.Errorf("UnitPricePerTsubo = %v", r.UnitPricePerTsubo)
	}
}

func TestComputeUnitPricesAbsentOperands(t *testing.T) {
	// Missing price clears both derived fields.
	r := &Record{AreaSqm: Float(50), UnitPricePerSqm: Float(1)}
	r.ComputeUnitPrices()
	if r.UnitPricePerSqm != nil || r.UnitPricePerTsubo != nil {
		t.Error("unit prices must be absent without a price")
	}

	// Zero or negative area never divides.
	r = &Record{PriceYen: Float(100), AreaSqm: Float(0), AreaTsubo: Float(-1)}
	r.ComputeUnitPrices()
	if r.UnitPricePerSqm != nil || r.UnitPricePerTsubo != nil {
		t.Error("unit prices must be absent for non-positive areas")
	}
}

func TestDetailEncode(t *testing.T) {
	flat := FlatDetail("2階 | - | 1K 20m2")
	if flat.Encode() != "2階 | - | 1K 20m2" {
		t.Errorf("flat detail = %q", flat.Encode())
	}
	if flat.Fields() != nil {
		t.Error("flat detail has no fields")
	}

	m := MapDetail(map[string]string{"b": "2", "a": "1"})
	// encoding/json sorts map keys, so the encoded form is deterministic.
	if got := m.Encode(); got != `{"a":"1","b":"2"}` {
		t.Errorf("map detail = %q", got)
	}
}
