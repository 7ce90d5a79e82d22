// Package jptext normalizes Japanese real-estate free text and extracts
// numeric values from it: prices written with 億/万/円 magnitude units,
// areas in square meters or tsubo, walk times and room layouts.
package jptext

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SqmPerTsubo is the fixed conversion factor between square meters and the
// traditional tsubo unit.
const SqmPerTsubo = 3.305785

var (
	spaceRe = regexp.MustCompile(`\s+`)

	okuRe    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*億`)
	okuManRe = regexp.MustCompile(`億\s*(\d+(?:\.\d+)?)\s*万`)
	manRe    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*万`)
	yenRe    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*円`)

	// currencyTokenRe matches one currency-shaped token embedded in noisy
	// text, e.g. "1億2000万" inside "1億2000万円 (管理費 1万円)".
	currencyTokenRe = regexp.MustCompile(`\d+(?:\.\d+)?\s*(?:億\d+(?:\.\d+)?万|億|万|円)`)

	// rangeDelimRe splits price ranges like "3980万〜5280万円". NFKC folds
	// the full-width tilde to ASCII, the wave dash stays as-is.
	rangeDelimRe = regexp.MustCompile(`[~〜～]`)

	// sqmRe tolerates "50.5m2", "50.5 m 2", "50.5m²" and "50.5㎡" — NFKC
	// folds the latter two to the ASCII forms, the alternates cover
	// unnormalized input.
	sqmRe   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:[mｍ]\s*[2²]|㎡)`)
	tsuboRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*坪`)

	walkRe    = regexp.MustCompile(`(?:徒歩|歩)\s*(\d+)\s*分`)
	layoutRe  = regexp.MustCompile(`(ワンルーム|\d+[SLDK]{1,4})`)
	stationRe = regexp.MustCompile(`([^\s/、]+駅)`)
)

// Normalize applies NFKC compatibility normalization (folding full-width
// digits, letters and symbols to their half-width forms), collapses
// whitespace runs to a single space and trims the ends. Total: empty or
// unparseable input yields "".
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// ParseAmount parses a single Japanese currency token into yen. Recognized
// magnitudes are 億 (1e8), 万 (1e4) and 円 (1), composable as "X億Y万".
// Returns nil when no numeric+unit pattern matches.
func ParseAmount(token string) *float64 {
	t := strings.ReplaceAll(Normalize(token), ",", "")
	if t == "" {
		return nil
	}
	if m := okuRe.FindStringSubmatch(t); m != nil {
		oku, _ := strconv.ParseFloat(m[1], 64)
		man := 0.0
		if m2 := okuManRe.FindStringSubmatch(t); m2 != nil {
			man, _ = strconv.ParseFloat(m2[1], 64)
		}
		v := oku*1e8 + man*1e4
		return &v
	}
	if m := manRe.FindStringSubmatch(t); m != nil {
		n, _ := strconv.ParseFloat(m[1], 64)
		v := n * 1e4
		return &v
	}
	if m := yenRe.FindStringSubmatch(t); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return &v
	}
	return nil
}

// ExtractPriceYen resolves a whole price cell to yen. Range expressions
// ("3980万〜5280万円") resolve to the mean of their parseable sides. When no
// side parses, the text is scanned for embedded currency tokens and the
// maximum wins — noisy cells list the ceiling price among smaller fees.
func ExtractPriceYen(text string) *float64 {
	t := strings.ReplaceAll(Normalize(text), ",", "")
	if t == "" {
		return nil
	}
	var sides []float64
	for _, part := range rangeDelimRe.Split(t, -1) {
		if v := ParseAmount(part); v != nil {
			sides = append(sides, *v)
		}
	}
	if len(sides) > 0 {
		v := mean(sides)
		return &v
	}
	var best *float64
	for _, token := range currencyTokenRe.FindAllString(t, -1) {
		if v := ParseAmount(token); v != nil {
			if best == nil || *v > *best {
				best = v
			}
		}
	}
	return best
}

// FirstCurrencyToken returns the first currency-shaped token in text, or ""
// when none exists. Rent fee cells carry the rent first and management fees
// after it.
func FirstCurrencyToken(text string) string {
	t := strings.ReplaceAll(Normalize(text), ",", "")
	return currencyTokenRe.FindString(t)
}

// ExtractAreaSqm extracts a square-meter figure. Cells carrying several
// figures ("土地 50m2 建物 30m2") resolve to their mean — carried over from
// the source as a documented approximation, not a physically meaningful sum.
func ExtractAreaSqm(text string) *float64 {
	t := strings.ReplaceAll(Normalize(text), ",", "")
	if t == "" {
		return nil
	}
	var vals []float64
	for _, m := range sqmRe.FindAllStringSubmatch(t, -1) {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return nil
	}
	v := mean(vals)
	return &v
}

// ExtractAreaTsubo extracts a tsubo figure, averaging multiples like
// ExtractAreaSqm. Absent an explicit 坪 figure it derives one from the
// square-meter figure via SqmPerTsubo.
func ExtractAreaTsubo(text string) *float64 {
	t := strings.ReplaceAll(Normalize(text), ",", "")
	if t == "" {
		return nil
	}
	var vals []float64
	for _, m := range tsuboRe.FindAllStringSubmatch(t, -1) {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			vals = append(vals, v)
		}
	}
	if len(vals) > 0 {
		v := mean(vals)
		return &v
	}
	sqm := ExtractAreaSqm(t)
	if sqm == nil {
		return nil
	}
	v := *sqm / SqmPerTsubo
	return &v
}

// ExtractWalkMinutes extracts a station walk time from expressions like
// "徒歩5分" or the abbreviated "歩5分".
func ExtractWalkMinutes(text string) *int {
	m := walkRe.FindStringSubmatch(Normalize(text))
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

// ExtractLayout extracts a room-layout token such as "1K", "2LDK" or
// "ワンルーム". Returns "" when the text has no layout-shaped token.
func ExtractLayout(text string) string {
	return layoutRe.FindString(Normalize(text))
}

// ExtractStation extracts the first station name ("奥沢駅") from an access
// line like "東急目黒線/奥沢駅 歩3分".
func ExtractStation(text string) string {
	return stationRe.FindString(Normalize(text))
}

func mean(vals []float64) float64 {
	total := 0.0
	for _, v := range vals {
		total += v
	}
	return total / float64(len(vals))
}
