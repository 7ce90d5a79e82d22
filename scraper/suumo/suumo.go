package suumo

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"suumo-scraper/config"
	"suumo-scraper/models"
	"suumo-scraper/utils"
)

// Scraper drives the crawl→fetch→parse stage for every configured category.
// Categories run concurrently and are independent; within a category,
// discovery is sequential (breadth-first state) and the discovered pages are
// then fetched and parsed through a rate-limited worker pool.
type Scraper struct {
	cfg        *config.Config
	categories []config.CategoryConfig
	fetcher    *Fetcher
	crawler    *Crawler
	logger     *utils.Logger

	mu     sync.Mutex
	runErr error
}

// New creates a Scraper. Every configured category must have a registered
// parser; an unknown category is a configuration error, not a crawl error.
func New(cfg *config.Config, categories []config.CategoryConfig, client *http.Client, logger *utils.Logger) (*Scraper, error) {
	for _, cc := range categories {
		if _, err := parserFor(cc); err != nil {
			return nil, err
		}
	}
	fetcher := NewFetcher(client, logger)
	return &Scraper{
		cfg:        cfg,
		categories: categories,
		fetcher:    fetcher,
		crawler:    NewCrawler(fetcher, logger),
		logger:     logger,
	}, nil
}

// Run crawls all categories and returns the raw records in category then
// page order, independent of worker scheduling, so identical input yields
// the same sequence every run. The first transport error aborts the run:
// remaining work is skipped and the error is returned. There is no
// partial-category continuation.
func (s *Scraper) Run(ctx context.Context) ([]*models.Record, error) {
	perCategory := make([][]*models.Record, len(s.categories))
	var wg sync.WaitGroup

	for i, cc := range s.categories {
		i, cc := i, cc
		wg.Add(1)
		go func() {
			defer wg.Done()
			perCategory[i] = s.runCategory(ctx, cc)
		}()
	}
	wg.Wait()

	if s.runErr != nil {
		return nil, s.runErr
	}
	var records []*models.Record
	for _, recs := range perCategory {
		records = append(records, recs...)
	}
	s.logger.Info("[scraper] All categories done — %d raw records", len(records))
	return records, nil
}

// runCategory fetches the category's discovered pages through the pool and
// returns their records flattened in page order. The page list is already
// sorted, so each worker writes into its own slot and scheduling order never
// leaks into the result.
func (s *Scraper) runCategory(ctx context.Context, cc config.CategoryConfig) []*models.Record {
	parser, err := parserFor(cc)
	if err != nil {
		s.setErr(err)
		return nil
	}
	base, err := url.Parse(cc.SeedURL)
	if err != nil {
		s.setErr(err)
		return nil
	}

	s.logger.Info("[scraper] %s: discovering pages from %s (budget %d)",
		cc.Category, cc.SeedURL, cc.MaxPages)
	pages, err := s.crawler.Discover(ctx, cc.SeedURL, cc.MaxPages)
	if err != nil {
		s.setErr(err)
		return nil
	}
	s.logger.Info("[scraper] %s: %d pages discovered", cc.Category, len(pages))

	perPage := make([][]*models.Record, len(pages))
	pool := utils.NewWorkerPool(s.cfg.MaxConcurrency, s.cfg.RateLimitMs)
	for i, page := range pages {
		i, page := i, page
		pool.Submit(ctx, func() {
			if s.failed() {
				return
			}
			doc, err := s.fetcher.FetchDocument(ctx, page)
			if err != nil {
				s.setErr(err)
				return
			}
			recs := parser.Parse(doc, base)
			if len(recs) == 0 {
				s.logger.Debug("[scraper] %s: no cards on %s", cc.Category, page)
				return
			}
			perPage[i] = recs
			s.logger.Debug("[scraper] %s: %d records from %s", cc.Category, len(recs), page)
		})
	}
	pool.Wait()

	var out []*models.Record
	for _, recs := range perPage {
		out = append(out, recs...)
	}
	return out
}

func (s *Scraper) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runErr == nil {
		s.runErr = err
	}
}

func (s *Scraper) failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runErr != nil
}
