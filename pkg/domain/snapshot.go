package domain

import "time"

// TrendDirection indicates how a metric moved against the preceding bucket
type TrendDirection string

// trend directions
const (
	TrendUp   TrendDirection = "up"
	TrendDown TrendDirection = "down"
	TrendFlat TrendDirection = "flat"
)

// BucketWidth is the time window used for trend aggregation
type BucketWidth string

// supported bucket widths
const (
	BucketDay  BucketWidth = "day"
	BucketWeek BucketWidth = "week"
)

// TrendPoint is one bucket of one metric with its direction relative to the
// immediately preceding bucket. Averages are nil for empty buckets.
type TrendPoint struct {
	PeriodStart time.Time      `json:"period_start"`
	PeriodEnd   time.Time      `json:"period_end"`
	Metric      string         `json:"metric"`
	Value       *float64       `json:"value"`
	Direction   TrendDirection `json:"direction"`
}

// TrendSeries groups trend points per metric over the active date range
type TrendSeries struct {
	Width        BucketWidth  `json:"width"`
	Count        []TrendPoint `json:"count"`
	AvgSentiment []TrendPoint `json:"avg_sentiment"`
	AvgRating    []TrendPoint `json:"avg_rating"`
	BugCount     []TrendPoint `json:"bug_count"`
}

// KPI holds the headline totals of a snapshot
type KPI struct {
	Total         int      `json:"total"`
	Positive      int      `json:"positive"`
	Neutral       int      `json:"neutral"`
	Negative      int      `json:"negative"`
	PositivePct   float64  `json:"positive_pct"`
	NegativePct   float64  `json:"negative_pct"`
	AvgScore      float64  `json:"avg_score"`
	AvgRating     *float64 `json:"avg_rating,omitempty"`
	AvgConfidence float64  `json:"avg_confidence"`
	BugCount      int      `json:"bug_count"`
	FeatureCount  int      `json:"feature_count"`
	CriticalCount int      `json:"critical_count"`
}

// TopicCount is one row of the topic or keyword frequency table
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// SourceCount is one row of the per-source breakdown
type SourceCount struct {
	Source Source  `json:"source"`
	Count  int     `json:"count"`
	Share  float64 `json:"share"` // percent of total
}

// Notices carries non-fatal degradation counters so a caller can render
// "N reviews used fallback classification" style messages
type Notices struct {
	Skipped         int      `json:"skipped"`                    // dropped during normalization
	Degraded        int      `json:"degraded"`                   // classified via fallback after AI failure
	SourcesDegraded []string `json:"sources_degraded,omitempty"` // sources substituted with mock data
}

// InsightSnapshot is the fully aggregated, read-only view handed to
// presentation and export consumers. It is a pure projection of the record
// set plus the active filter.
type InsightSnapshot struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Filter      Filter           `json:"filter"`
	KPI         KPI              `json:"kpi"`
	Sources     []SourceCount    `json:"sources"`
	Bugs        []FeedbackRecord `json:"bugs"`     // ranked bug board, top K
	Features    []FeedbackRecord `json:"features"` // ranked feature requests, top K
	Topics      []TopicCount     `json:"topics"`
	Keywords    []TopicCount     `json:"keywords"`
	Trends      TrendSeries      `json:"trends"`
	Notices     Notices          `json:"notices"`
}

// ReportData is the fixed-shape snapshot consumed by the PDF export boundary:
// KPI table, source breakdown, top 8 bugs, top 6 feature requests, top 8
// topics with frequency
type ReportData struct {
	GeneratedAt time.Time        `json:"generated_at"`
	KPI         KPI              `json:"kpi"`
	Sources     []SourceCount    `json:"sources"`
	TopBugs     []FeedbackRecord `json:"top_bugs"`
	TopFeatures []FeedbackRecord `json:"top_features"`
	TopTopics   []TopicCount     `json:"top_topics"`
}
