package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/mmcdole/gofeed"
)

// AppStoreClient fetches customer reviews from the iTunes RSS endpoint,
// page by page
type AppStoreClient struct {
	client    *http.Client
	appID     string
	pages     int
	baseURL   string
	userAgent string
}

// NewAppStoreClient creates a client for the given application id
func NewAppStoreClient(appID string, pages int, timeout time.Duration) *AppStoreClient {
	return &AppStoreClient{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		appID:     appID,
		pages:     pages,
		baseURL:   "https://itunes.apple.com",
		userAgent: "Feedscope/1.0",
	}
}

// WithBaseURL overrides the endpoint base, used in tests
func (c *AppStoreClient) WithBaseURL(base string) *AppStoreClient {
	c.baseURL = base
	return c
}

// Fetch retrieves review entries across pages. A failing or empty page stops
// paging; whatever was collected up to that point is returned. An error is
// returned only when no page yielded entries.
func (c *AppStoreClient) Fetch(ctx context.Context) ([]Item, error) {
	var items []Item
	for page := 1; page <= c.pages; page++ {
		entries, err := c.fetchPage(ctx, page)
		if err != nil {
			lgr.Printf("[WARN] app store page %d failed: %v", page, err)
			break
		}
		if len(entries) == 0 {
			break
		}
		items = append(items, entries...)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("app store returned no reviews for %s", c.appID)
	}
	lgr.Printf("[INFO] app store: fetched %d reviews for %s", len(items), c.appID)
	return items, nil
}

func (c *AppStoreClient) fetchPage(ctx context.Context, page int) ([]Item, error) {
	url := fmt.Sprintf("%s/us/rss/customerreviews/page=%d/id=%s/sortby=mostrecent/xml",
		c.baseURL, page, c.appID)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer body.Close()

	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]Item, 0, len(feed.Items))
	for i, entry := range feed.Items {
		// the first entry of each page is the app summary, not a review
		if entryExtension(entry, "rating") == "" {
			continue
		}

		id := entry.GUID
		if id == "" {
			id = fmt.Sprintf("as_%d_%d", page, i)
		}

		author := ""
		if len(entry.Authors) > 0 && entry.Authors[0] != nil {
			author = entry.Authors[0].Name
		}

		items = append(items, AppStoreEntry{
			ID:      id,
			Title:   entry.Title,
			Content: entry.Content,
			Rating:  entryExtension(entry, "rating"),
			Updated: entry.Updated,
			Author:  author,
			Version: entryExtension(entry, "version"),
		})
	}
	return items, nil
}

func (c *AppStoreClient) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

// entryExtension reads an itunes (im) namespace extension value from a feed
// entry, empty string when absent
func entryExtension(item *gofeed.Item, name string) string {
	for _, ns := range item.Extensions {
		if exts, ok := ns[name]; ok && len(exts) > 0 {
			return exts[0].Value
		}
	}
	return ""
}
