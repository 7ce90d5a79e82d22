package suumo

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"suumo-scraper/config"
	"suumo-scraper/jptext"
	"suumo-scraper/models"
)

// pageParser turns one fetched document into zero or more records. One
// implementation per page layout; selected from the registry by category.
// Parsing never fails: a card or row missing fields still yields a record
// with those fields absent.
type pageParser interface {
	Parse(doc *goquery.Document, base *url.URL) []*models.Record
}

var (
	rentIDRe = regexp.MustCompile(`bc=(\d+)`)
	saleIDRe = regexp.MustCompile(`/nc_(\d+)/`)
)

// parserRegistry maps category identifiers to parser constructors. Static
// dispatch by configuration, no runtime type inspection.
var parserRegistry = map[string]func(cc config.CategoryConfig) pageParser{
	models.CategoryRent: func(cc config.CategoryConfig) pageParser {
		return &rentParser{category: cc.Category, subCategory: cc.SubCategory}
	},
	models.CategoryHouseNew:    newSaleParser,
	models.CategoryHouseUsed:   newSaleParser,
	models.CategoryLand:        newSaleParser,
	models.CategoryMansionNew:  newSaleParser,
	models.CategoryMansionUsed: newSaleParser,
}

func newSaleParser(cc config.CategoryConfig) pageParser {
	return &saleParser{category: cc.Category, subCategory: cc.SubCategory}
}

func parserFor(cc config.CategoryConfig) (pageParser, error) {
	build, ok := parserRegistry[cc.Category]
	if !ok {
		return nil, fmt.Errorf("parser: unknown category %q", cc.Category)
	}
	return build(cc), nil
}

// rentParser handles the rental list layout: one cassetteitem card per
// building, with one table row per advertised room, so a single card can
// yield several records.
type rentParser struct {
	category    string
	subCategory string
}

func (p *rentParser) Parse(doc *goquery.Document, base *url.URL) []*models.Record {
	var records []*models.Record

	doc.Find("div.cassetteitem").Each(func(_ int, card *goquery.Selection) {
		title := nodeText(card.Find(".cassetteitem_content-title").First())
		address := nodeText(card.Find("li.cassetteitem_detail-col1").First())
		buildingURL := absoluteHref(card.Find("a[href*='/chintai/jnc_']").First(), base)

		card.Find("table.cassetteitem_other tr.js-cassette_link").Each(func(_ int, tr *goquery.Selection) {
			tds := tr.Find("td")
			if tds.Length() < 4 {
				return
			}

			// Row width varies: the wide layout prefixes checkbox and
			// thumbnail cells before floor/fee/deposit/layout.
			offset := 0
			if tds.Length() >= 6 {
				offset = 2
			}
			floor := nodeText(tds.Eq(offset))
			feeRaw := nodeText(tds.Eq(offset + 1))
			depositKey := nodeText(tds.Eq(offset + 2))
			layoutArea := nodeText(tds.Eq(offset + 3))

			// The fee cell lists the rent first, management fees after it.
			priceText := jptext.FirstCurrencyToken(feeRaw)
			if priceText == "" {
				priceText = feeRaw
			}

			detailURL := absoluteHref(tr.Find("a[href*='bc=']").First(), base)
			if detailURL == "" {
				detailURL = buildingURL
			}
			listingID := detailURL
			if m := rentIDRe.FindStringSubmatch(detailURL); m != nil {
				listingID = m[1]
			}

			rec := &models.Record{
				Category:    p.category,
				SubCategory: p.subCategory,
				ListingID:   listingID,
				Title:       title,
				Address:     address,
				PriceText:   priceText,
				PriceYen:    jptext.ExtractPriceYen(priceText),
				AreaSqm:     jptext.ExtractAreaSqm(layoutArea),
				AreaTsubo:   jptext.ExtractAreaTsubo(layoutArea),
				LayoutText:  jptext.ExtractLayout(layoutArea),
				Detail:      models.FlatDetail(floor + " | " + depositKey + " | " + layoutArea),
				DetailURL:   detailURL,
			}
			rec.ComputeUnitPrices()
			records = append(records, rec)
		})
	})

	return records
}

// saleParser handles the sale list layout shared by house, land and mansion
// pages: one property_unit card per listing, described by a definition list
// of label→value pairs.
type saleParser struct {
	category    string
	subCategory string
}

func (p *saleParser) Parse(doc *goquery.Document, base *url.URL) []*models.Record {
	var records []*models.Record

	doc.Find("div.property_unit").Each(func(_ int, card *goquery.Selection) {
		detail := make(map[string]string)
		card.Find("dl").Each(func(_ int, dl *goquery.Selection) {
			k := nodeText(dl.Find("dt").First())
			v := nodeText(dl.Find("dd").First())
			if k != "" {
				detail[k] = v
			}
		})

		address := detail["所在地"]
		title := detail["物件名"]
		priceText := detail["販売価格"]

		// Area source in order of preference: land, building, unit floor.
		areaText := detail["土地面積"]
		if areaText == "" {
			areaText = detail["建物面積"]
		}
		if areaText == "" {
			areaText = detail["専有面積"]
		}

		detailURL := absoluteHref(card.Find("a[href*='nc_']").First(), base)
		listingID := detailURL
		if m := saleIDRe.FindStringSubmatch(detailURL); m != nil {
			listingID = m[1]
		}

		rec := &models.Record{
			Category:    p.category,
			SubCategory: p.subCategory,
			ListingID:   listingID,
			Title:       title,
			Address:     address,
			PriceText:   priceText,
			PriceYen:    jptext.ExtractPriceYen(priceText),
			AreaSqm:     jptext.ExtractAreaSqm(areaText),
			AreaTsubo:   jptext.ExtractAreaTsubo(areaText),
			LayoutText:  jptext.ExtractLayout(detail["間取り"]),
			Detail:      models.MapDetail(detail),
			DetailURL:   detailURL,
		}
		rec.ComputeUnitPrices()
		records = append(records, rec)
	})

	return records
}

// nodeText joins the text nodes under the selection with spaces and
// normalizes the result, so adjacent inline elements don't glue together.
func nodeText(s *goquery.Selection) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		collectText(n, &b)
	}
	return jptext.Normalize(b.String())
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

// absoluteHref resolves the selection's href against base. Empty when the
// selection is empty or the href does not parse.
func absoluteHref(s *goquery.Selection, base *url.URL) string {
	href, ok := s.Attr("href")
	if !ok || href == "" {
		return ""
	}
	u, err := base.Parse(href)
	if err != nil {
		return ""
	}
	return u.String()
}
