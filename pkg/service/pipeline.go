package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/feedscope/pkg/domain"
	"github.com/umputun/feedscope/pkg/engine"
	"github.com/umputun/feedscope/pkg/repository"
	"github.com/umputun/feedscope/pkg/source"
)

// Pipeline wires sources, classification and the aggregator into one flow:
// raw items -> normalizer -> classifier -> prioritizer + topics -> trend and
// snapshot assembly. The repository caches the classified dataset between
// runs.
type Pipeline struct {
	fetcher     *source.Fetcher
	normalizer  *source.Normalizer
	processor   *engine.Processor
	prioritizer *engine.Prioritizer
	topics      *engine.TopicExtractor
	aggregator  *engine.Aggregator
	repo        Store
	cacheTTL    time.Duration
}

// Store caches classified datasets between runs
type Store interface {
	Replace(ctx context.Context, records []domain.FeedbackRecord, notices domain.Notices) error
	Load(ctx context.Context, ttl time.Duration) ([]domain.FeedbackRecord, domain.Notices, error)
}

// Config holds pipeline dependencies
type Config struct {
	Fetcher     *source.Fetcher
	Normalizer  *source.Normalizer
	Processor   *engine.Processor
	Prioritizer *engine.Prioritizer
	Topics      *engine.TopicExtractor
	Aggregator  *engine.Aggregator
	Repo        Store // nil disables caching
	CacheTTL    time.Duration
}

// NewPipeline creates a pipeline from its parts
func NewPipeline(cfg Config) *Pipeline {
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 2 * time.Hour
	}
	return &Pipeline{
		fetcher:     cfg.Fetcher,
		normalizer:  cfg.Normalizer,
		processor:   cfg.Processor,
		prioritizer: cfg.Prioritizer,
		topics:      cfg.Topics,
		aggregator:  cfg.Aggregator,
		repo:        cfg.Repo,
		cacheTTL:    cfg.CacheTTL,
	}
}

// Run loads the dataset, from cache when fresh enough, otherwise by fetching
// and classifying, and installs it in the aggregator
func (p *Pipeline) Run(ctx context.Context, forceRefresh bool) error {
	if !forceRefresh && p.repo != nil {
		records, notices, err := p.repo.Load(ctx, p.cacheTTL)
		switch {
		case err == nil && len(records) > 0:
			lgr.Printf("[INFO] loaded %d records from cache", len(records))
			p.aggregator.Replace(records, notices)
			return nil
		case errors.Is(err, repository.ErrEmpty) || errors.Is(err, repository.ErrStale):
			lgr.Printf("[DEBUG] cache miss: %v", err)
		case err != nil:
			lgr.Printf("[WARN] cache load failed, refreshing: %v", err)
		}
	}
	return p.Refresh(ctx)
}

// Refresh fetches all sources, classifies and installs a fresh dataset.
// Source failures degrade to sample data, classification failures degrade
// to the rule-based fallback; neither is fatal.
func (p *Pipeline) Refresh(ctx context.Context) error {
	items, degradedSources := p.fetcher.FetchAll(ctx)
	if len(items) == 0 {
		return fmt.Errorf("no feedback items from any source")
	}

	records, normStats := p.normalizer.Normalize(items)
	if len(records) == 0 {
		return fmt.Errorf("all %d items skipped during normalization", len(items))
	}
	if normStats.Skipped > 0 {
		lgr.Printf("[INFO] normalization skipped %d of %d items", normStats.Skipped, len(items))
	}

	stats := p.processor.Process(ctx, records)

	for i := range records {
		p.prioritizer.Apply(&records[i])
	}
	p.topics.AssignTopics(records)

	notices := domain.Notices{
		Skipped:         normStats.Skipped,
		Degraded:        stats.Degraded,
		SourcesDegraded: degradedSources,
	}

	if p.repo != nil {
		if err := p.repo.Replace(ctx, records, notices); err != nil {
			lgr.Printf("[WARN] failed to cache dataset: %v", err)
		}
	}

	p.aggregator.Replace(records, notices)
	return nil
}

// IngestCSV classifies uploaded survey rows and merges them into the
// current dataset as a new generation
func (p *Pipeline) IngestCSV(ctx context.Context, r io.Reader) (added int, err error) {
	items, err := source.ReadCSV(r)
	if err != nil {
		return 0, fmt.Errorf("read uploaded csv: %w", err)
	}

	records, normStats := p.normalizer.Normalize(items)
	if len(records) == 0 {
		return 0, fmt.Errorf("no usable rows in uploaded csv (%d skipped)", normStats.Skipped)
	}

	stats := p.processor.Process(ctx, records)
	for i := range records {
		p.prioritizer.Apply(&records[i])
	}
	p.topics.AssignTopics(records)

	// merge with the existing dataset, uploaded rows win on id collision
	existing := p.aggregator.Records(domain.Filter{})
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		seen[rec.ID] = true
	}
	merged := make([]domain.FeedbackRecord, 0, len(existing)+len(records))
	for _, rec := range existing {
		if !seen[rec.ID] {
			merged = append(merged, rec)
		}
	}
	merged = append(merged, records...)

	notices := domain.Notices{Skipped: normStats.Skipped, Degraded: stats.Degraded}

	if p.repo != nil {
		if err := p.repo.Replace(ctx, merged, notices); err != nil {
			lgr.Printf("[WARN] failed to cache dataset: %v", err)
		}
	}

	p.aggregator.Replace(merged, notices)
	return len(records), nil
}
