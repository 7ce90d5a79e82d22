package suumo

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"suumo-scraper/utils"
)

// Crawler discovers listing pagination pages by breadth-first traversal from
// a seed URL. SUUMO exposes no sitemap, so discovery follows in-page links,
// confined to the seed's host and path prefix.
type Crawler struct {
	fetcher *Fetcher
	logger  *utils.Logger
}

// NewCrawler creates a Crawler over the given fetcher.
func NewCrawler(fetcher *Fetcher, logger *utils.Logger) *Crawler {
	return &Crawler{fetcher: fetcher, logger: logger}
}

// Discover walks pages breadth-first from seedURL until maxPages distinct
// URLs have been visited or no links remain. maxPages is a hard budget. A
// link is admitted only when its host equals the seed's host and its path
// keeps the seed path as prefix. The result is sorted, not discovery-ordered,
// so runs over identical input are deterministic.
func (c *Crawler) Discover(ctx context.Context, seedURL string, maxPages int) ([]string, error) {
	seed, err := url.Parse(seedURL)
	if err != nil {
		return nil, fmt.Errorf("crawler: parse seed %q: %w", seedURL, err)
	}

	// The seed enters the set through the same serialization as discovered
	// links, so a self-link never re-enqueues it under a different spelling.
	seed.Fragment = ""
	start := seed.String()
	seen := utils.NewURLSet()
	seen.Add(start)
	queue := []string{start}
	var visited []string

	for len(queue) > 0 && len(visited) < maxPages {
		current := queue[0]
		queue = queue[1:]

		doc, err := c.fetcher.FetchDocument(ctx, current)
		if err != nil {
			return nil, err
		}
		visited = append(visited, current)

		doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			if !ok || href == "" {
				return
			}
			next, err := seed.Parse(href)
			if err != nil {
				return
			}
			next.Fragment = ""
			if next.Host != seed.Host {
				return
			}
			if !strings.HasPrefix(next.Path, seed.Path) {
				return
			}
			if seen.Add(next.String()) {
				queue = append(queue, next.String())
			}
		})
	}

	sort.Strings(visited)
	c.logger.Debug("[crawler] %s: visited %d pages (budget %d, %d queued unvisited)",
		seedURL, len(visited), maxPages, len(queue))
	return visited, nil
}
