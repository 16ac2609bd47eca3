package source

import (
	"context"

	"github.com/go-pkgz/lgr"
)

// Provider fetches provider-shaped items from one source
type Provider interface {
	Fetch(ctx context.Context) ([]Item, error)
}

// ProviderFunc adapts a function to the Provider interface
type ProviderFunc func(ctx context.Context) ([]Item, error)

// Fetch calls the wrapped function
func (f ProviderFunc) Fetch(ctx context.Context) ([]Item, error) { return f(ctx) }

// Fetcher collects items from all configured sources. A failing source is
// substituted with its fallback set and reported as degraded, never fatal.
type Fetcher struct {
	sources []namedSource
}

type namedSource struct {
	name     string
	provider Provider
	fallback func() []Item // mock substitute, nil for none
}

// NewFetcher creates an empty fetcher, sources are added with Register
func NewFetcher() *Fetcher {
	return &Fetcher{}
}

// Register adds a source with an optional fallback dataset
func (f *Fetcher) Register(name string, provider Provider, fallback func() []Item) {
	f.sources = append(f.sources, namedSource{name: name, provider: provider, fallback: fallback})
}

// FetchAll collects items from every registered source in registration order.
// Returns the combined items and the names of sources that degraded to their
// fallback set.
func (f *Fetcher) FetchAll(ctx context.Context) (items []Item, degraded []string) {
	for _, src := range f.sources {
		fetched, err := src.provider.Fetch(ctx)
		if err != nil {
			lgr.Printf("[WARN] source %s unavailable: %v", src.name, err)
			if src.fallback != nil {
				fetched = src.fallback()
				degraded = append(degraded, src.name)
				lgr.Printf("[INFO] source %s: substituted %d sample records", src.name, len(fetched))
			} else {
				degraded = append(degraded, src.name)
				continue
			}
		}
		items = append(items, fetched...)
	}
	return items, degraded
}
