package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/feedscope/pkg/domain"
)

// askFunc adapts a function to the Summarizer interface
type askFunc func(ctx context.Context, question string, snapshot *domain.InsightSnapshot) (string, error)

func (f askFunc) Ask(ctx context.Context, question string, snapshot *domain.InsightSnapshot) (string, error) {
	return f(ctx, question, snapshot)
}

func testDataset() []domain.FeedbackRecord {
	date := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return []domain.FeedbackRecord{
		{ID: "r1", Source: domain.SourceGooglePlay, Text: "love it", Date: date,
			Sentiment: domain.SentimentPositive, SentimentScore: 0.9, Confidence: 80, Rating: intPtr(5)},
		{ID: "r2", Source: domain.SourceGooglePlay, Text: "crash on startup", Date: date.AddDate(0, 0, 1),
			Sentiment: domain.SentimentNegative, SentimentScore: -0.9, Confidence: 70, Rating: intPtr(1),
			IsBug: true, Priority: domain.PriorityCritical},
		{ID: "r3", Source: domain.SourceAppStore, Text: "please add dark mode", Date: date.AddDate(0, 0, 2),
			Sentiment: domain.SentimentPositive, SentimentScore: 0.5, Confidence: 60, Rating: intPtr(4),
			IsFeature: true},
		{ID: "r4", Source: domain.SourceCSV, Text: "meh", Date: date.AddDate(0, 0, 2),
			Sentiment: domain.SentimentNeutral, Confidence: 50},
	}
}

func TestAggregator_Snapshot(t *testing.T) {
	a := NewAggregator(nil, AggregatorConfig{})
	a.Replace(testDataset(), domain.Notices{Degraded: 2})

	t.Run("unfiltered kpi", func(t *testing.T) {
		snap := a.Snapshot(domain.Filter{})

		assert.Equal(t, 4, snap.KPI.Total)
		assert.Equal(t, 2, snap.KPI.Positive)
		assert.Equal(t, 1, snap.KPI.Negative)
		assert.Equal(t, 1, snap.KPI.Neutral)
		assert.InDelta(t, 50.0, snap.KPI.PositivePct, 0.001)
		assert.InDelta(t, 25.0, snap.KPI.NegativePct, 0.001)
		assert.Equal(t, 1, snap.KPI.BugCount)
		assert.Equal(t, 1, snap.KPI.FeatureCount)
		assert.Equal(t, 1, snap.KPI.CriticalCount)
		require.NotNil(t, snap.KPI.AvgRating)
		assert.InDelta(t, 10.0/3, *snap.KPI.AvgRating, 0.001)
		assert.Equal(t, 2, snap.Notices.Degraded)
	})

	t.Run("source breakdown in fixed order", func(t *testing.T) {
		snap := a.Snapshot(domain.Filter{})

		require.Len(t, snap.Sources, 3)
		assert.Equal(t, domain.SourceGooglePlay, snap.Sources[0].Source)
		assert.Equal(t, 2, snap.Sources[0].Count)
		assert.InDelta(t, 50.0, snap.Sources[0].Share, 0.001)
		assert.Equal(t, domain.SourceAppStore, snap.Sources[1].Source)
		assert.Equal(t, domain.SourceCSV, snap.Sources[2].Source)
	})

	t.Run("source counts sum to total across any partition", func(t *testing.T) {
		snap := a.Snapshot(domain.Filter{})
		sum := 0
		for _, src := range snap.Sources {
			sum += src.Count
		}
		assert.Equal(t, snap.KPI.Total, sum)
	})

	t.Run("union of per-source filtered counts equals unfiltered total", func(t *testing.T) {
		total := a.Snapshot(domain.Filter{}).KPI.Total
		sum := 0
		for _, src := range []domain.Source{domain.SourceGooglePlay, domain.SourceAppStore, domain.SourceCSV, domain.SourceSynthetic} {
			sum += a.Snapshot(domain.Filter{Source: src}).KPI.Total
		}
		assert.Equal(t, total, sum)
	})

	t.Run("filter narrows everything consistently", func(t *testing.T) {
		snap := a.Snapshot(domain.Filter{Source: domain.SourceGooglePlay})

		assert.Equal(t, 2, snap.KPI.Total)
		require.Len(t, snap.Sources, 1)
		assert.Equal(t, 2, snap.Sources[0].Count)
		require.Len(t, snap.Bugs, 1)
		assert.Equal(t, "r2", snap.Bugs[0].ID)
		assert.Empty(t, snap.Features)
	})

	t.Run("snapshot is a pure projection", func(t *testing.T) {
		first := a.Snapshot(domain.Filter{Sentiment: domain.SentimentPositive})
		second := a.Snapshot(domain.Filter{Sentiment: domain.SentimentPositive})

		first.GeneratedAt, second.GeneratedAt = time.Time{}, time.Time{}
		assert.Equal(t, first, second)
	})

	t.Run("empty filter result", func(t *testing.T) {
		snap := a.Snapshot(domain.Filter{Priority: domain.PriorityLow})
		assert.Zero(t, snap.KPI.Total)
		assert.Empty(t, snap.Sources)
	})
}

func TestAggregator_Records(t *testing.T) {
	a := NewAggregator(nil, AggregatorConfig{})
	a.Replace(testDataset(), domain.Notices{})

	t.Run("ingestion order kept", func(t *testing.T) {
		records := a.Records(domain.Filter{})
		require.Len(t, records, 4)
		for i, rec := range records {
			assert.Equal(t, fmt.Sprintf("r%d", i+1), rec.ID)
		}
	})

	t.Run("filtered", func(t *testing.T) {
		records := a.Records(domain.Filter{Sentiment: domain.SentimentNegative})
		require.Len(t, records, 1)
		assert.Equal(t, "r2", records[0].ID)
	})
}

func TestAggregator_Replace(t *testing.T) {
	a := NewAggregator(nil, AggregatorConfig{})
	a.Replace(testDataset(), domain.Notices{})

	before := a.LoadedAt()
	old := a.Records(domain.Filter{})

	time.Sleep(5 * time.Millisecond)
	a.Replace([]domain.FeedbackRecord{{ID: "new", Source: domain.SourceSynthetic, Text: "fresh"}}, domain.Notices{})

	assert.True(t, a.LoadedAt().After(before))
	assert.Len(t, a.Records(domain.Filter{}), 1)
	assert.Len(t, old, 4, "records from the previous generation stay valid")
}

func TestAggregator_Ask(t *testing.T) {
	t.Run("nil summarizer uses template", func(t *testing.T) {
		a := NewAggregator(nil, AggregatorConfig{})
		a.Replace(testDataset(), domain.Notices{Degraded: 2})

		answer := a.Ask(context.Background(), "how are things?", domain.Filter{})

		assert.Contains(t, answer, "Analyzed 4 feedback records")
		assert.Contains(t, answer, "2 records used fallback classification")
	})

	t.Run("summarizer answer returned as-is", func(t *testing.T) {
		summarizer := askFunc(func(_ context.Context, question string, snap *domain.InsightSnapshot) (string, error) {
			assert.Equal(t, "top bug?", question)
			assert.Equal(t, 4, snap.KPI.Total)
			return "the crash on startup", nil
		})
		a := NewAggregator(summarizer, AggregatorConfig{})
		a.Replace(testDataset(), domain.Notices{})

		answer := a.Ask(context.Background(), "top bug?", domain.Filter{})
		assert.Equal(t, "the crash on startup", answer)
	})

	t.Run("summarizer failure falls back to template", func(t *testing.T) {
		summarizer := askFunc(func(context.Context, string, *domain.InsightSnapshot) (string, error) {
			return "", fmt.Errorf("llm unavailable")
		})
		a := NewAggregator(summarizer, AggregatorConfig{})
		a.Replace(testDataset(), domain.Notices{})

		answer := a.Ask(context.Background(), "anything?", domain.Filter{})
		assert.Contains(t, answer, "Analyzed 4 feedback records")
	})

	t.Run("empty dataset", func(t *testing.T) {
		a := NewAggregator(nil, AggregatorConfig{})
		answer := a.Ask(context.Background(), "anything?", domain.Filter{})
		assert.Equal(t, "No feedback records match the current filter.", answer)
	})
}

func TestAggregator_Report(t *testing.T) {
	a := NewAggregator(nil, AggregatorConfig{TopBugs: 8, TopFeatures: 6, TopTopics: 8})
	a.Replace(testDataset(), domain.Notices{})

	report := a.Report()

	assert.Equal(t, 4, report.KPI.Total)
	require.Len(t, report.TopBugs, 1)
	assert.Equal(t, "r2", report.TopBugs[0].ID)
	require.Len(t, report.TopFeatures, 1)
	assert.Equal(t, "r3", report.TopFeatures[0].ID)
	assert.NotEmpty(t, report.TopTopics)
	assert.LessOrEqual(t, len(report.TopTopics), 8)
}
