package suumo

import (
	"context"
	"fmt"
	"net/http"

	"github.com/PuerkitoBio/goquery"

	"suumo-scraper/utils"
)

const (
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	acceptLanguage = "ja,en-US;q=0.9,en;q=0.8"
)

// Fetcher retrieves listing pages over an injected HTTP client. The client
// carries the fixed request timeout; every request goes out with the same
// User-Agent and Accept-Language headers.
type Fetcher struct {
	client *http.Client
	logger *utils.Logger
}

// NewFetcher wraps the given client. The client is shared, never global.
func NewFetcher(client *http.Client, logger *utils.Logger) *Fetcher {
	return &Fetcher{client: client, logger: logger}
}

// FetchDocument GETs url and parses the response body into a goquery
// document. A transport error or non-2xx status fails the fetch; there is no
// retry at this layer.
func (f *Fetcher) FetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch: %s: status %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch: parse %s: %w", url, err)
	}
	return doc, nil
}
