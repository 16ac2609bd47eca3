package engine

import (
	"context"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/umputun/feedscope/pkg/domain"
)

// AIClassifier is the external AI classification boundary. Implementations
// classify one batch of records; an error degrades that batch to the
// rule-based fallback, it never aborts the run.
type AIClassifier interface {
	Classify(ctx context.Context, records []domain.FeedbackRecord) ([]domain.Classification, error)
}

// Processor runs sentiment classification over a record set. Records are
// independent, so batches are dispatched across a bounded worker pool; the
// rate limiter keeps request frequency within the AI provider's limits.
// Results are written back by index, preserving ingestion order.
type Processor struct {
	ai      AIClassifier // nil routes everything through the fallback
	rule    RuleClassifier
	batch   int
	workers int
	limiter *rate.Limiter
	timeout time.Duration
}

// ProcessorConfig holds processor settings
type ProcessorConfig struct {
	BatchSize     int
	MaxConcurrent int
	RateLimit     time.Duration
	Timeout       time.Duration
}

// ProcessStats reports classification degradations for caller-visible
// notices
type ProcessStats struct {
	Total        int
	AIClassified int
	Degraded     int // classified via fallback after an AI failure
}

// NewProcessor creates a processor. Pass a nil classifier to force the
// deterministic fallback for every record.
func NewProcessor(ai AIClassifier, cfg ProcessorConfig) *Processor {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 5
	}
	if cfg.MaxConcurrent == 0 {
		cfg.MaxConcurrent = 3
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 2 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Processor{
		ai:      ai,
		batch:   cfg.BatchSize,
		workers: cfg.MaxConcurrent,
		limiter: rate.NewLimiter(rate.Every(cfg.RateLimit), 1),
		timeout: cfg.Timeout,
	}
}

// Process classifies all records in place and returns degradation stats.
// Classification is per-record and order-independent; the record slice keeps
// its original order.
func (p *Processor) Process(ctx context.Context, records []domain.FeedbackRecord) ProcessStats {
	stats := ProcessStats{Total: len(records)}
	if len(records) == 0 {
		return stats
	}

	if p.ai == nil {
		for i := range records {
			p.rule.Classify(&records[i]).Apply(&records[i])
		}
		lgr.Printf("[INFO] classified %d records via rule-based fallback", len(records))
		return stats
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for start := 0; start < len(records); start += p.batch {
		end := start + p.batch
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		g.Go(func() error {
			aiCount, degraded := p.classifyBatch(gctx, batch)
			mu.Lock()
			stats.AIClassified += aiCount
			stats.Degraded += degraded
			mu.Unlock()
			return nil
		})
	}

	// workers never return errors, degradation is per batch
	_ = g.Wait()

	lgr.Printf("[INFO] classification done: %d total, %d via AI, %d degraded to fallback",
		stats.Total, stats.AIClassified, stats.Degraded)
	return stats
}

// classifyBatch sends one batch to the AI path, falling back to the rule
// classifier for the whole batch on error and per record when the response
// misses one
func (p *Processor) classifyBatch(ctx context.Context, batch []domain.FeedbackRecord) (aiCount, degraded int) {
	fallbackAll := func() {
		for i := range batch {
			p.rule.Classify(&batch[i]).Apply(&batch[i])
		}
	}

	if err := p.limiter.Wait(ctx); err != nil {
		fallbackAll()
		return 0, len(batch)
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	classifications, err := p.ai.Classify(callCtx, batch)
	if err != nil {
		lgr.Printf("[WARN] ai classification failed for batch of %d: %v", len(batch), err)
		fallbackAll()
		return 0, len(batch)
	}

	byID := make(map[string]domain.Classification, len(classifications))
	for _, cl := range classifications {
		byID[cl.ID] = cl
	}

	for i := range batch {
		if cl, ok := byID[batch[i].ID]; ok {
			cl.Apply(&batch[i])
			aiCount++
			continue
		}
		p.rule.Classify(&batch[i]).Apply(&batch[i])
		degraded++
	}
	return aiCount, degraded
}
