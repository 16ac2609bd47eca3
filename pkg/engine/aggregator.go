package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/umputun/feedscope/pkg/domain"
)

// Summarizer answers free-text questions about a snapshot. The AI-backed
// implementation lives in pkg/llm; the engine provides a templated
// statistical fallback so the caller is never left without an answer.
type Summarizer interface {
	Ask(ctx context.Context, question string, snapshot *domain.InsightSnapshot) (string, error)
}

// Aggregator exclusively owns the canonical dataset for the duration of a
// session. Regeneration atomically replaces the dataset reference, so
// readers in flight against the old snapshot are unaffected. Filtering and
// snapshot assembly are pure projections over the held records.
type Aggregator struct {
	dataset    atomic.Pointer[dataset]
	summarizer Summarizer // nil or failing degrades to the template
	trend      *TrendEngine
	topics     *TopicExtractor
	bucket     domain.BucketWidth
	topBugs    int
	topFeats   int
}

// dataset is one immutable generation of classified records plus its
// degradation notices
type dataset struct {
	records []domain.FeedbackRecord
	notices domain.Notices
	loaded  time.Time
}

// AggregatorConfig holds snapshot assembly settings
type AggregatorConfig struct {
	TopBugs     int
	TopFeatures int
	TopTopics   int
	BucketWidth domain.BucketWidth
	DeadBand    float64
}

// NewAggregator creates an aggregator with an empty dataset
func NewAggregator(summarizer Summarizer, cfg AggregatorConfig) *Aggregator {
	if cfg.TopBugs == 0 {
		cfg.TopBugs = 8
	}
	if cfg.TopFeatures == 0 {
		cfg.TopFeatures = 6
	}
	if cfg.BucketWidth == "" {
		cfg.BucketWidth = domain.BucketDay
	}
	a := &Aggregator{
		summarizer: summarizer,
		trend:      NewTrendEngine(cfg.DeadBand),
		topics:     NewTopicExtractor(cfg.TopTopics),
		bucket:     cfg.BucketWidth,
		topBugs:    cfg.TopBugs,
		topFeats:   cfg.TopFeatures,
	}
	a.dataset.Store(&dataset{loaded: time.Now()})
	return a
}

// Replace atomically swaps in a new record generation. The slice is owned by
// the aggregator after this call and must not be mutated by the caller.
func (a *Aggregator) Replace(records []domain.FeedbackRecord, notices domain.Notices) {
	a.dataset.Store(&dataset{records: records, notices: notices, loaded: time.Now()})
	lgr.Printf("[INFO] dataset replaced: %d records", len(records))
}

// Records returns the filtered record list in ingestion order
func (a *Aggregator) Records(filter domain.Filter) []domain.FeedbackRecord {
	ds := a.dataset.Load()
	out := make([]domain.FeedbackRecord, 0, len(ds.records))
	for _, rec := range ds.records {
		if filter.Match(&rec) {
			out = append(out, rec)
		}
	}
	return out
}

// LoadedAt returns when the current dataset generation was installed
func (a *Aggregator) LoadedAt() time.Time {
	return a.dataset.Load().loaded
}

// Snapshot assembles the aggregated view for the filtered subset. Calling it
// twice with the same filter over an unchanged dataset yields the same
// result.
func (a *Aggregator) Snapshot(filter domain.Filter) *domain.InsightSnapshot {
	ds := a.dataset.Load()
	records := a.Records(filter)

	topics, keywords := a.topics.AssignTopics(records)
	bugs := BugBoard(records)
	if len(bugs) > a.topBugs {
		bugs = bugs[:a.topBugs]
	}
	features := FeatureRequests(records)
	if len(features) > a.topFeats {
		features = features[:a.topFeats]
	}

	return &domain.InsightSnapshot{
		GeneratedAt: time.Now().UTC(),
		Filter:      filter,
		KPI:         computeKPI(records),
		Sources:     sourceBreakdown(records),
		Bugs:        bugs,
		Features:    features,
		Topics:      topics,
		Keywords:    keywords,
		Trends:      a.trend.Compute(records, a.bucket),
		Notices:     ds.notices,
	}
}

// Report produces the fixed-shape export snapshot: KPI table, source
// breakdown, top 8 bugs, top 6 feature requests, top 8 topics
func (a *Aggregator) Report() *domain.ReportData {
	snap := a.Snapshot(domain.Filter{})
	return &domain.ReportData{
		GeneratedAt: snap.GeneratedAt,
		KPI:         snap.KPI,
		Sources:     snap.Sources,
		TopBugs:     snap.Bugs,
		TopFeatures: snap.Features,
		TopTopics:   snap.Topics,
	}
}

// Ask answers a free-text question about the current snapshot. On AI
// unavailability or failure it returns the templated statistical summary,
// never an error to the caller.
func (a *Aggregator) Ask(ctx context.Context, question string, filter domain.Filter) string {
	snap := a.Snapshot(filter)

	if a.summarizer != nil {
		answer, err := a.summarizer.Ask(ctx, question, snap)
		if err == nil {
			return answer
		}
		lgr.Printf("[WARN] ai answer unavailable, using templated summary: %v", err)
	}

	return templateSummary(snap)
}

func computeKPI(records []domain.FeedbackRecord) domain.KPI {
	kpi := domain.KPI{Total: len(records)}
	if kpi.Total == 0 {
		return kpi
	}

	var scoreSum, confSum float64
	var ratingSum, ratingCount int
	for _, rec := range records {
		switch rec.Sentiment {
		case domain.SentimentPositive:
			kpi.Positive++
		case domain.SentimentNegative:
			kpi.Negative++
		default:
			kpi.Neutral++
		}
		scoreSum += rec.SentimentScore
		confSum += rec.Confidence
		if rec.Rating != nil {
			ratingSum += *rec.Rating
			ratingCount++
		}
		if rec.IsBug {
			kpi.BugCount++
		}
		if rec.IsFeature {
			kpi.FeatureCount++
		}
		if rec.Priority == domain.PriorityCritical {
			kpi.CriticalCount++
		}
	}

	total := float64(kpi.Total)
	kpi.PositivePct = round1(float64(kpi.Positive) / total * 100)
	kpi.NegativePct = round1(float64(kpi.Negative) / total * 100)
	kpi.AvgScore = scoreSum / total
	kpi.AvgConfidence = confSum / total
	if ratingCount > 0 {
		avg := float64(ratingSum) / float64(ratingCount)
		kpi.AvgRating = &avg
	}
	return kpi
}

func sourceBreakdown(records []domain.FeedbackRecord) []domain.SourceCount {
	counts := make(map[domain.Source]int)
	for _, rec := range records {
		counts[rec.Source]++
	}

	// fixed order keeps the breakdown stable across calls
	order := []domain.Source{domain.SourceGooglePlay, domain.SourceAppStore, domain.SourceCSV, domain.SourceSynthetic}
	out := make([]domain.SourceCount, 0, len(counts))
	for _, src := range order {
		if counts[src] == 0 {
			continue
		}
		share := 0.0
		if len(records) > 0 {
			share = round1(float64(counts[src]) / float64(len(records)) * 100)
		}
		out = append(out, domain.SourceCount{Source: src, Count: counts[src], Share: share})
	}
	return out
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
